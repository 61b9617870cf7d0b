package render

import (
	"bufio"
	"errors"
	"fmt"
	"image"
	_ "image/jpeg" // Register JPEG decoder
	_ "image/png"  // Register PNG decoder
	"math"
	"os"

	"github.com/h2non/filetype"
	"golang.org/x/image/draw"

	"github.com/taigrr/tablescene/pkg/math3d"
)

// MaxTextureSize bounds the larger side of loaded textures. Bigger images
// are resampled down on load.
const MaxTextureSize = 1024

// sniffLen is the header size filetype needs to recognize any format.
const sniffLen = 262

// ErrNotImage is returned by LoadTexture for files that are not images.
var ErrNotImage = errors.New("render: not an image file")

// WrapMode says what texture coordinates outside [0,1] sample.
type WrapMode int

const (
	WrapRepeat WrapMode = iota // GL_REPEAT
	WrapClamp                  // GL_CLAMP_TO_EDGE
)

// FilterMode selects between GL_NEAREST and GL_LINEAR sampling.
type FilterMode int

const (
	FilterNearest FilterMode = iota
	FilterBilinear
)

// Texture is a CPU image sampled like a GL texture: v = 0 is the bottom
// row and texel centers sit at half-integer coordinates.
type Texture struct {
	Name          string
	Width, Height int
	Pixels        []Color // row-major, top row first
	WrapU, WrapV  WrapMode
	FilterMode    FilterMode
}

// NewTexture creates a transparent, repeating, bilinear texture.
func NewTexture(width, height int) *Texture {
	return &Texture{
		Width:      width,
		Height:     height,
		Pixels:     make([]Color, width*height),
		FilterMode: FilterBilinear,
	}
}

// NewSolidTexture creates a 1x1 texture of c.
func NewSolidTexture(c Color) *Texture {
	t := NewTexture(1, 1)
	t.Pixels[0] = c
	t.FilterMode = FilterNearest
	return t
}

// LoadTexture reads a PNG or JPEG file. Files that do not sniff as images
// fail with ErrNotImage; images larger than MaxTextureSize are scaled
// down keeping their aspect ratio.
func LoadTexture(path string) (*Texture, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open texture: %w", err)
	}
	defer f.Close()

	br := bufio.NewReaderSize(f, 4096)
	head, err := br.Peek(sniffLen)
	if len(head) == 0 {
		return nil, fmt.Errorf("failed to read texture %s: %w", path, err)
	}
	if !filetype.IsImage(head) {
		return nil, fmt.Errorf("%s: %w", path, ErrNotImage)
	}

	img, _, err := image.Decode(br)
	if err != nil {
		return nil, fmt.Errorf("failed to decode %s: %w", path, err)
	}

	t := TextureFromImage(fitImage(img, MaxTextureSize))
	t.Name = path
	return t, nil
}

// fitImage scales img down so neither side exceeds limit.
func fitImage(img image.Image, limit int) image.Image {
	b := img.Bounds()
	w, h := b.Dx(), b.Dy()
	if w <= limit && h <= limit {
		return img
	}

	scale := float64(limit) / float64(max(w, h))
	dst := image.NewRGBA(image.Rect(0, 0,
		max(1, int(float64(w)*scale)),
		max(1, int(float64(h)*scale))))
	draw.BiLinear.Scale(dst, dst.Bounds(), img, b, draw.Src, nil)
	return dst
}

// TextureFromImage copies img into a new texture.
func TextureFromImage(img image.Image) *Texture {
	b := img.Bounds()
	rgba, ok := img.(*image.RGBA)
	if !ok || rgba.Stride != 4*b.Dx() {
		rgba = image.NewRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
		draw.Draw(rgba, rgba.Bounds(), img, b.Min, draw.Src)
	}

	t := NewTexture(b.Dx(), b.Dy())
	for i := range t.Pixels {
		p := rgba.Pix[4*i : 4*i+4]
		t.Pixels[i] = Color{R: p[0], G: p[1], B: p[2], A: p[3]}
	}
	return t
}

// SetPixel writes the texel at image coordinates (x, y), top row 0.
func (t *Texture) SetPixel(x, y int, c Color) {
	if x >= 0 && x < t.Width && y >= 0 && y < t.Height {
		t.Pixels[y*t.Width+x] = c
	}
}

// GetPixel reads the texel at image coordinates (x, y), top row 0.
func (t *Texture) GetPixel(x, y int) Color {
	if x < 0 || x >= t.Width || y < 0 || y >= t.Height {
		return Color{}
	}
	return t.Pixels[y*t.Width+x]
}

// Sample returns the color at texture coordinates (u, v).
func (t *Texture) Sample(u, v float64) Color {
	return Vec4ToColor(t.SampleVec4(u, v))
}

// SampleVec4 returns the color at (u, v) as RGBA in [0,1]. Bilinear
// filtering interpolates in floating point so height maps keep their
// gradients.
func (t *Texture) SampleVec4(u, v float64) math3d.Vec4 {
	if t.Width == 0 || t.Height == 0 {
		return math3d.Vec4{}
	}
	// Texel space as GL sees it: row 0 is the bottom of the image.
	x := t.wrap(u, t.WrapU) * float64(t.Width)
	y := t.wrap(v, t.WrapV) * float64(t.Height)

	if t.FilterMode == FilterNearest {
		return colorToVec4(t.texel(int(math.Floor(x)), int(math.Floor(y))))
	}

	x, y = x-0.5, y-0.5
	x0, y0 := math.Floor(x), math.Floor(y)
	fx, fy := x-x0, y-y0
	ix, iy := int(x0), int(y0)

	lower := colorToVec4(t.texel(ix, iy)).Lerp(colorToVec4(t.texel(ix+1, iy)), fx)
	upper := colorToVec4(t.texel(ix, iy+1)).Lerp(colorToVec4(t.texel(ix+1, iy+1)), fx)
	return lower.Lerp(upper, fy)
}

// Luminance samples the texture as a height in [0,1] (Rec. 601 weights).
func (t *Texture) Luminance(u, v float64) float64 {
	c := t.SampleVec4(u, v)
	return 0.299*c.X + 0.587*c.Y + 0.114*c.Z
}

// wrap maps a texture coordinate into [0,1].
func (t *Texture) wrap(c float64, mode WrapMode) float64 {
	if mode == WrapClamp {
		return math.Max(0, math.Min(1, c))
	}
	return c - math.Floor(c)
}

// texel reads column x of row y counted from the bottom, applying the
// wrap modes to indices that fall off the edge.
func (t *Texture) texel(x, y int) Color {
	row := t.Height - 1 - wrapIndex(y, t.Height, t.WrapV)
	return t.GetPixel(wrapIndex(x, t.Width, t.WrapU), row)
}

func wrapIndex(i, n int, mode WrapMode) int {
	if mode == WrapClamp {
		return max(0, min(n-1, i))
	}
	i %= n
	if i < 0 {
		i += n
	}
	return i
}

func colorToVec4(c Color) math3d.Vec4 {
	return math3d.V4(float64(c.R)/255, float64(c.G)/255, float64(c.B)/255, float64(c.A)/255)
}

// Vec4ToColor converts an RGBA vector in [0,1] to a Color, clamping.
func Vec4ToColor(v math3d.Vec4) Color {
	return Color{R: unit8(v.X), G: unit8(v.Y), B: unit8(v.Z), A: unit8(v.W)}
}

func unit8(f float64) uint8 {
	return uint8(math.Round(math.Max(0, math.Min(1, f)) * 255))
}
