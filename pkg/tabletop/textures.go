package tabletop

import (
	"fmt"
	"image"
	"image/color"
	"math"
	"math/rand/v2"
	"path/filepath"

	"github.com/anthonynsimon/bild/blur"

	"github.com/taigrr/tablescene/pkg/render"
)

// Texture file names looked up in Config.AssetDir.
const (
	WoodFile  = "wood.jpg"
	PaperFile = "paper.jpg"
	NoiseFile = "noise.png"
)

const (
	proceduralSize = 256
	noiseBlur      = 1.5
	noiseSeed      = 1761
)

// TextureSet holds the scene textures.
type TextureSet struct {
	White *render.Texture
	Wood  *render.Texture
	Paper *render.Texture
	// Noise is the height map of the bump-mapped sphere.
	Noise *render.Texture
}

// LoadTextures reads the texture files from dir. An empty dir yields the
// procedural set. A missing file is an error.
func LoadTextures(dir string) (*TextureSet, error) {
	if dir == "" {
		return ProceduralTextures(), nil
	}

	set := &TextureSet{White: whiteTexture()}
	for _, f := range []struct {
		name string
		dst  **render.Texture
	}{
		{WoodFile, &set.Wood},
		{PaperFile, &set.Paper},
		{NoiseFile, &set.Noise},
	} {
		tex, err := render.LoadTexture(filepath.Join(dir, f.name))
		if err != nil {
			return nil, fmt.Errorf("failed to load %s: %w", f.name, err)
		}
		*f.dst = tex
	}
	return set, nil
}

// ProceduralTextures generates the texture set. The output is the same
// on every call.
func ProceduralTextures() *TextureSet {
	return &TextureSet{
		White: whiteTexture(),
		Wood:  woodTexture(proceduralSize),
		Paper: paperTexture(proceduralSize),
		Noise: noiseTexture(proceduralSize),
	}
}

func whiteTexture() *render.Texture {
	tex := render.NewSolidTexture(render.RGB(255, 255, 255))
	tex.Name = "white"
	return tex
}

// woodTexture draws growth rings around a center below the image, warped
// by a little grain.
func woodTexture(size int) *render.Texture {
	rng := rand.New(rand.NewPCG(noiseSeed, 1))
	light := [3]float64{0.76, 0.55, 0.33}
	dark := [3]float64{0.45, 0.28, 0.14}

	tex := render.NewTexture(size, size)
	tex.Name = "wood"
	for y := range size {
		for x := range size {
			u := float64(x) / float64(size)
			v := float64(y) / float64(size)
			r := math.Hypot(u-0.5, (v+1.5)*0.35)
			ring := 0.5 + 0.5*math.Sin(r*90+math.Sin(u*23)*0.8)
			k := math.Pow(ring, 3) + 0.08*(rng.Float64()-0.5)
			tex.SetPixel(x, y, mixRGB(light, dark, k))
		}
	}
	return tex
}

// paperTexture is off-white with a faint grain.
func paperTexture(size int) *render.Texture {
	rng := rand.New(rand.NewPCG(noiseSeed, 2))
	white := [3]float64{0.97, 0.97, 0.95}
	shade := [3]float64{0.86, 0.85, 0.81}

	tex := render.NewTexture(size, size)
	tex.Name = "paper"
	for y := range size {
		for x := range size {
			tex.SetPixel(x, y, mixRGB(white, shade, 0.35*rng.Float64()))
		}
	}
	return tex
}

// noiseTexture is blurred white noise. The blur keeps the height field
// smooth enough for finite-difference normals.
func noiseTexture(size int) *render.Texture {
	rng := rand.New(rand.NewPCG(noiseSeed, 3))
	img := image.NewGray(image.Rect(0, 0, size, size))
	for i := range img.Pix {
		img.Pix[i] = uint8(rng.IntN(256))
	}
	tex := render.TextureFromImage(blur.Gaussian(img, noiseBlur))
	tex.Name = "noise"
	return tex
}

func mixRGB(a, b [3]float64, k float64) color.RGBA {
	k = math.Max(0, math.Min(1, k))
	c := func(i int) uint8 {
		return uint8(math.Round((a[i] + (b[i]-a[i])*k) * 255))
	}
	return color.RGBA{R: c(0), G: c(1), B: c(2), A: 255}
}
