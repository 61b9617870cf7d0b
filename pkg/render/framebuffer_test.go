package render

import (
	"image/png"
	"os"
	"path/filepath"
	"testing"
)

func TestFramebufferBounds(t *testing.T) {
	fb := NewFramebuffer(3, 2)
	fb.SetPixel(-1, 0, RGB(1, 1, 1))
	fb.SetPixel(3, 0, RGB(1, 1, 1))
	fb.SetPixel(2, 1, RGB(9, 8, 7))

	if got := fb.GetPixel(2, 1); got != RGB(9, 8, 7) {
		t.Errorf("GetPixel(2,1) = %v", got)
	}
	if got := fb.GetPixel(0, 2); got != (Color{}) {
		t.Errorf("GetPixel outside = %v, want transparent", got)
	}
	for i, c := range fb.Pixels[:5] {
		if c != (Color{}) {
			t.Errorf("pixel %d = %v, out-of-range write leaked", i, c)
		}
	}

	fb.Resize(-4, 2)
	if fb.Width != 0 || len(fb.Pixels) != 0 {
		t.Errorf("negative resize gave %dx%d", fb.Width, fb.Height)
	}
}

func TestFramebufferSavePNG(t *testing.T) {
	fb := NewFramebuffer(4, 2)
	fb.Clear(RGB(30, 30, 40))
	fb.SetPixel(3, 1, RGB(255, 0, 0))

	path := filepath.Join(t.TempDir(), "frame.png")
	if err := fb.SavePNG(path); err != nil {
		t.Fatalf("SavePNG: %v", err)
	}

	f, err := os.Open(path)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	img, err := png.Decode(f)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if b := img.Bounds(); b.Dx() != 4 || b.Dy() != 2 {
		t.Fatalf("bounds = %v", b)
	}
	r, g, b, _ := img.At(3, 1).RGBA()
	if r>>8 != 255 || g != 0 || b != 0 {
		t.Errorf("pixel (3,1) = %d,%d,%d", r>>8, g>>8, b>>8)
	}
	r, _, _, _ = img.At(0, 0).RGBA()
	if r>>8 != 30 {
		t.Errorf("pixel (0,0) red = %d, want 30", r>>8)
	}
}

func TestFramebufferSavePNGBadPath(t *testing.T) {
	fb := NewFramebuffer(1, 1)
	if err := fb.SavePNG(filepath.Join(t.TempDir(), "missing", "frame.png")); err == nil {
		t.Error("expected an error for a missing directory")
	}
}
