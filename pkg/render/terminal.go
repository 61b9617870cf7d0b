package render

import (
	"image/color"

	uv "github.com/charmbracelet/ultraviolet"
)

// Color is the pixel type of framebuffers and textures.
type Color = color.RGBA

// RGB returns an opaque color.
func RGB(r, g, b uint8) Color {
	return Color{R: r, G: g, B: b, A: 255}
}

// halfBlock shows the upper pixel in the foreground color and the lower
// one in the background color.
const halfBlock = "▀"

var _ uv.Drawable = (*Framebuffer)(nil)

// Draw presents the framebuffer in area, two pixel rows per cell row, so
// a uv.Terminal can draw it directly. Pixel (0, 0) lands on the top-left
// cell of area; pixels outside area are not shown.
func (fb *Framebuffer) Draw(scr uv.Screen, area uv.Rectangle) {
	for row := area.Min.Y; row < area.Max.Y; row++ {
		top := (row - area.Min.Y) * 2
		if top >= fb.Height {
			break
		}
		for col := area.Min.X; col < area.Max.X; col++ {
			x := col - area.Min.X
			if x >= fb.Width {
				break
			}
			scr.SetCell(col, row, &uv.Cell{
				Content: halfBlock,
				Width:   1,
				Style: uv.Style{
					Fg: cellColor(fb.GetPixel(x, top)),
					Bg: cellColor(fb.GetPixel(x, top+1)),
				},
			})
		}
	}
}

// cellColor leaves fully transparent pixels to the terminal's default.
func cellColor(c Color) color.Color {
	if c.A == 0 {
		return nil
	}
	return c
}
