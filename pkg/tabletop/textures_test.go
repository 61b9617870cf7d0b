package tabletop

import (
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestProceduralTexturesDeterministic(t *testing.T) {
	a := ProceduralTextures()
	b := ProceduralTextures()

	assert.Equal(t, a.Wood.Pixels, b.Wood.Pixels)
	assert.Equal(t, a.Paper.Pixels, b.Paper.Pixels)
	assert.Equal(t, a.Noise.Pixels, b.Noise.Pixels)
	assert.Equal(t, proceduralSize, a.Noise.Width)
}

func TestNoiseIsSmoothed(t *testing.T) {
	noise := ProceduralTextures().Noise

	// Neighboring texels of blurred noise differ far less than the full
	// range of raw noise.
	var sum float64
	n := 0
	for y := range noise.Height {
		for x := 1; x < noise.Width; x++ {
			d := int(noise.GetPixel(x, y).R) - int(noise.GetPixel(x-1, y).R)
			sum += float64(d * d)
			n++
		}
	}
	rms := sum / float64(n)
	assert.Less(t, rms, 40.0*40.0)

	c := noise.GetPixel(10, 10)
	assert.Equal(t, c.R, c.G)
	assert.Equal(t, c.G, c.B)
}

func TestLoadTextures(t *testing.T) {
	dir := t.TempDir()
	img := image.NewRGBA(image.Rect(0, 0, 4, 4))
	for i := range img.Pix {
		img.Pix[i] = 200
	}
	img.Set(0, 0, color.RGBA{10, 20, 30, 255})

	for _, name := range []string{WoodFile, PaperFile} {
		f, err := os.Create(filepath.Join(dir, name))
		require.NoError(t, err)
		require.NoError(t, jpeg.Encode(f, img, nil))
		require.NoError(t, f.Close())
	}
	f, err := os.Create(filepath.Join(dir, NoiseFile))
	require.NoError(t, err)
	require.NoError(t, png.Encode(f, img))
	require.NoError(t, f.Close())

	set, err := LoadTextures(dir)
	require.NoError(t, err)
	assert.Equal(t, 4, set.Wood.Width)
	assert.Equal(t, 4, set.Paper.Height)
	assert.Equal(t, uint8(10), set.Noise.GetPixel(0, 0).R)
	assert.Equal(t, 1, set.White.Width)
}

func TestLoadTexturesMissingFile(t *testing.T) {
	_, err := LoadTextures(t.TempDir())
	assert.ErrorIs(t, err, os.ErrNotExist)
	assert.ErrorContains(t, err, WoodFile)
}

func TestLoadTexturesEmptyDirIsProcedural(t *testing.T) {
	set, err := LoadTextures("")
	require.NoError(t, err)
	assert.Equal(t, "wood", set.Wood.Name)
}
