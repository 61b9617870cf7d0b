package gldevice

import (
	"github.com/go-gl/gl/v4.1-core/gl"

	"github.com/taigrr/tablescene/pkg/models"
	"github.com/taigrr/tablescene/pkg/render"
)

// Vertex layout: position(3) normal(3) uv(2) tangent(3).
const floatsPerVertex = 11

type meshBuffers struct {
	vao, vbo, ebo uint32
	count         int32
}

// interleave packs mesh attributes in the layout of phong.vert.
func interleave(m *models.Mesh) ([]float32, []uint32) {
	verts := make([]float32, 0, len(m.Vertices)*floatsPerVertex)
	for _, v := range m.Vertices {
		verts = append(verts,
			float32(v.Position.X), float32(v.Position.Y), float32(v.Position.Z),
			float32(v.Normal.X), float32(v.Normal.Y), float32(v.Normal.Z),
			float32(v.UV.X), float32(v.UV.Y),
			float32(v.Tangent.X), float32(v.Tangent.Y), float32(v.Tangent.Z),
		)
	}
	indices := make([]uint32, 0, len(m.Faces)*3)
	for _, f := range m.Faces {
		indices = append(indices, uint32(f.V[0]), uint32(f.V[1]), uint32(f.V[2]))
	}
	return verts, indices
}

func (d *Device) meshBuffers(m *models.Mesh) *meshBuffers {
	if mb, ok := d.meshes[m]; ok {
		return mb
	}

	verts, indices := interleave(m)
	mb := &meshBuffers{count: int32(len(indices))}

	gl.GenVertexArrays(1, &mb.vao)
	gl.BindVertexArray(mb.vao)

	gl.GenBuffers(1, &mb.vbo)
	gl.BindBuffer(gl.ARRAY_BUFFER, mb.vbo)
	gl.BufferData(gl.ARRAY_BUFFER, len(verts)*4, gl.Ptr(verts), gl.STATIC_DRAW)

	gl.GenBuffers(1, &mb.ebo)
	gl.BindBuffer(gl.ELEMENT_ARRAY_BUFFER, mb.ebo)
	gl.BufferData(gl.ELEMENT_ARRAY_BUFFER, len(indices)*4, gl.Ptr(indices), gl.STATIC_DRAW)

	stride := int32(floatsPerVertex * 4)
	attrs := []struct {
		size   int32
		offset int
	}{
		{3, 0},
		{3, 3 * 4},
		{2, 6 * 4},
		{3, 8 * 4},
	}
	for i, a := range attrs {
		gl.EnableVertexAttribArray(uint32(i))
		gl.VertexAttribPointer(uint32(i), a.size, gl.FLOAT, false, stride, gl.PtrOffset(a.offset))
	}

	gl.BindVertexArray(0)
	d.meshes[m] = mb
	return mb
}

func (mb *meshBuffers) release() {
	gl.DeleteVertexArrays(1, &mb.vao)
	gl.DeleteBuffers(1, &mb.vbo)
	gl.DeleteBuffers(1, &mb.ebo)
}

// texturePixels returns t as tightly packed RGBA rows, bottom row first,
// matching GL's texture origin.
func texturePixels(t *render.Texture) []uint8 {
	out := make([]uint8, 0, t.Width*t.Height*4)
	for y := t.Height - 1; y >= 0; y-- {
		for x := range t.Width {
			c := t.GetPixel(x, y)
			out = append(out, c.R, c.G, c.B, c.A)
		}
	}
	return out
}

func (d *Device) bindTexture(unit uint32, t *render.Texture) {
	gl.ActiveTexture(gl.TEXTURE0 + unit)
	if id, ok := d.textures[t]; ok {
		gl.BindTexture(gl.TEXTURE_2D, id)
		return
	}

	var id uint32
	gl.GenTextures(1, &id)
	gl.BindTexture(gl.TEXTURE_2D, id)

	wrap := func(m render.WrapMode) int32 {
		if m == render.WrapClamp {
			return gl.CLAMP_TO_EDGE
		}
		return gl.REPEAT
	}
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_WRAP_S, wrap(t.WrapU))
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_WRAP_T, wrap(t.WrapV))
	if t.FilterMode == render.FilterNearest {
		gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_MIN_FILTER, gl.NEAREST)
		gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_MAG_FILTER, gl.NEAREST)
	} else {
		gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_MIN_FILTER, gl.LINEAR_MIPMAP_LINEAR)
		gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_MAG_FILTER, gl.LINEAR)
	}

	pixels := texturePixels(t)
	gl.PixelStorei(gl.UNPACK_ALIGNMENT, 1)
	gl.TexImage2D(gl.TEXTURE_2D, 0, gl.RGBA8, int32(t.Width), int32(t.Height), 0,
		gl.RGBA, gl.UNSIGNED_BYTE, gl.Ptr(pixels))
	if t.FilterMode != render.FilterNearest {
		gl.GenerateMipmap(gl.TEXTURE_2D)
	}

	d.textures[t] = id
}
