package render

import (
	"fmt"
	"image"
	"image/png"
	"os"
)

// Framebuffer is the color buffer of the software device: row-major
// pixels, top row first. Pixels the device never wrote stay transparent.
type Framebuffer struct {
	Width, Height int
	Pixels        []Color
}

// NewFramebuffer allocates a width x height framebuffer. For terminal
// output the height is twice the number of rows.
func NewFramebuffer(width, height int) *Framebuffer {
	fb := &Framebuffer{}
	fb.Resize(width, height)
	return fb
}

// Resize reallocates the pixels. Contents are discarded.
func (fb *Framebuffer) Resize(width, height int) {
	fb.Width, fb.Height = max(width, 0), max(height, 0)
	fb.Pixels = make([]Color, fb.Width*fb.Height)
}

// Clear sets every pixel to c.
func (fb *Framebuffer) Clear(c Color) {
	fill(fb.Pixels, c)
}

func (fb *Framebuffer) inside(x, y int) bool {
	return x >= 0 && x < fb.Width && y >= 0 && y < fb.Height
}

// SetPixel writes (x, y); writes outside the buffer are dropped.
func (fb *Framebuffer) SetPixel(x, y int, c Color) {
	if fb.inside(x, y) {
		fb.Pixels[y*fb.Width+x] = c
	}
}

// GetPixel reads (x, y); outside the buffer it is transparent black.
func (fb *Framebuffer) GetPixel(x, y int) Color {
	if !fb.inside(x, y) {
		return Color{}
	}
	return fb.Pixels[y*fb.Width+x]
}

// ToImage copies the pixels into a new image.
func (fb *Framebuffer) ToImage() *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, fb.Width, fb.Height))
	for i, c := range fb.Pixels {
		copy(img.Pix[4*i:], []uint8{c.R, c.G, c.B, c.A})
	}
	return img
}

// SavePNG writes the framebuffer to path as a PNG.
func (fb *Framebuffer) SavePNG(path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", path, err)
	}
	if err := png.Encode(f, fb.ToImage()); err != nil {
		f.Close()
		return fmt.Errorf("failed to encode %s: %w", path, err)
	}
	return f.Close()
}
