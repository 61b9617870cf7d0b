package render

import (
	"errors"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"testing"
)

func writePNG(t *testing.T, path string, img image.Image) {
	t.Helper()
	f, err := os.Create(path)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	if err := png.Encode(f, img); err != nil {
		t.Fatal(err)
	}
}

func TestLoadTexture(t *testing.T) {
	img := image.NewRGBA(image.Rect(0, 0, 2, 2))
	img.Set(0, 0, color.RGBA{255, 0, 0, 255})
	img.Set(1, 0, color.RGBA{0, 255, 0, 255})
	img.Set(0, 1, color.RGBA{0, 0, 255, 255})
	img.Set(1, 1, color.RGBA{255, 255, 255, 255})

	path := filepath.Join(t.TempDir(), "tex.png")
	writePNG(t, path, img)

	tex, err := LoadTexture(path)
	if err != nil {
		t.Fatalf("LoadTexture: %v", err)
	}
	if tex.Width != 2 || tex.Height != 2 {
		t.Fatalf("size = %dx%d, want 2x2", tex.Width, tex.Height)
	}

	tex.FilterMode = FilterNearest
	// V=0 is the bottom row of the image.
	if got := tex.Sample(0.25, 0.25); got != RGB(0, 0, 255) {
		t.Errorf("bottom-left = %v, want blue", got)
	}
	if got := tex.Sample(0.75, 0.75); got != RGB(0, 255, 0) {
		t.Errorf("top-right = %v, want green", got)
	}
}

func TestLoadTextureResamplesLargeImages(t *testing.T) {
	img := image.NewRGBA(image.Rect(0, 0, 2*MaxTextureSize, 8))
	path := filepath.Join(t.TempDir(), "wide.png")
	writePNG(t, path, img)

	tex, err := LoadTexture(path)
	if err != nil {
		t.Fatalf("LoadTexture: %v", err)
	}
	if tex.Width != MaxTextureSize || tex.Height != 4 {
		t.Errorf("size = %dx%d, want %dx4", tex.Width, tex.Height, MaxTextureSize)
	}
}

func TestLoadTextureRejectsNonImage(t *testing.T) {
	path := filepath.Join(t.TempDir(), "notes.png")
	if err := os.WriteFile(path, []byte("definitely not pixels"), 0o644); err != nil {
		t.Fatal(err)
	}

	_, err := LoadTexture(path)
	if !errors.Is(err, ErrNotImage) {
		t.Errorf("err = %v, want ErrNotImage", err)
	}
}

func TestLoadTextureMissing(t *testing.T) {
	if _, err := LoadTexture(filepath.Join(t.TempDir(), "missing.jpg")); err == nil {
		t.Error("expected error for missing file")
	}
}

func TestTextureWrap(t *testing.T) {
	tex := NewTexture(2, 1)
	tex.FilterMode = FilterNearest
	tex.SetPixel(0, 0, RGB(10, 10, 10))
	tex.SetPixel(1, 0, RGB(200, 200, 200))

	if got := tex.Sample(1.25, 0.5); got != RGB(10, 10, 10) {
		t.Errorf("repeat wrap = %v, want left texel", got)
	}

	tex.WrapU = WrapClamp
	if got := tex.Sample(1.25, 0.5); got != RGB(200, 200, 200) {
		t.Errorf("clamp wrap = %v, want right texel", got)
	}
}

func TestVec4ToColorClamps(t *testing.T) {
	got := Vec4ToColor(colorToVec4(RGB(1, 2, 3)))
	if got != RGB(1, 2, 3) {
		t.Errorf("round trip = %v", got)
	}
	got = Vec4ToColor(colorToVec4(RGB(255, 0, 0)).Scale(2))
	if got.R != 255 || got.A != 255 {
		t.Errorf("clamped = %v, want saturated", got)
	}
}
