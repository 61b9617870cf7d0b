package render

import (
	"github.com/taigrr/tablescene/pkg/math3d"
	"github.com/taigrr/tablescene/pkg/models"
)

// Bounds is an axis-aligned box.
type Bounds struct {
	Min, Max math3d.Vec3
}

// MeshBounds returns the object-space bounds of m.
func MeshBounds(m *models.Mesh) Bounds {
	return Bounds{Min: m.BoundsMin, Max: m.BoundsMax}
}

// corner returns corner i of the box; bit 0 selects max x, bit 1 max y,
// bit 2 max z.
func (b Bounds) corner(i int) math3d.Vec3 {
	c := b.Min
	if i&1 != 0 {
		c.X = b.Max.X
	}
	if i&2 != 0 {
		c.Y = b.Max.Y
	}
	if i&4 != 0 {
		c.Z = b.Max.Z
	}
	return c
}

// Transform returns the box enclosing b after the affine transform m.
func (b Bounds) Transform(m math3d.Mat4) Bounds {
	p := m.MulVec3(b.corner(0))
	out := Bounds{Min: p, Max: p}
	for i := 1; i < 8; i++ {
		p = m.MulVec3(b.corner(i))
		out.Min = out.Min.Min(p)
		out.Max = out.Max.Max(p)
	}
	return out
}

// Contains reports whether p lies inside b or on its surface.
func (b Bounds) Contains(p math3d.Vec3) bool {
	return p.X >= b.Min.X && p.X <= b.Max.X &&
		p.Y >= b.Min.Y && p.Y <= b.Max.Y &&
		p.Z >= b.Min.Z && p.Z <= b.Max.Z
}

// Frustum holds the clip planes of a view-projection matrix as
// (a, b, c, d) with ax + by + cz + d >= 0 inside. The order is left,
// right, bottom, top, near, far.
type Frustum [6]math3d.Vec4

// NewFrustum extracts the planes of viewProj (Gribb and Hartmann): each
// plane is the w row plus or minus the x, y or z row.
func NewFrustum(viewProj math3d.Mat4) Frustum {
	m := viewProj
	row := func(i int) math3d.Vec4 {
		return math3d.V4(m[i], m[i+4], m[i+8], m[i+12])
	}
	w := row(3)

	var f Frustum
	for axis := range 3 {
		r := row(axis)
		f[2*axis] = normalizePlane(w.Add(r))
		f[2*axis+1] = normalizePlane(w.Sub(r))
	}
	return f
}

func normalizePlane(p math3d.Vec4) math3d.Vec4 {
	l := p.Vec3().Len()
	if l == 0 {
		return p
	}
	return p.Scale(1 / l)
}

func planeDistance(p math3d.Vec4, v math3d.Vec3) float64 {
	return p.X*v.X + p.Y*v.Y + p.Z*v.Z + p.W
}

// Intersects reports whether any part of b may be inside the frustum. It
// tests the box corner furthest along each plane normal, so boxes near a
// frustum corner can pass without being visible.
func (f Frustum) Intersects(b Bounds) bool {
	for _, p := range f {
		far := b.Min
		if p.X >= 0 {
			far.X = b.Max.X
		}
		if p.Y >= 0 {
			far.Y = b.Max.Y
		}
		if p.Z >= 0 {
			far.Z = b.Max.Z
		}
		if planeDistance(p, far) < 0 {
			return false
		}
	}
	return true
}

// Contains reports whether v is inside all six planes.
func (f Frustum) Contains(v math3d.Vec3) bool {
	for _, p := range f {
		if planeDistance(p, v) < 0 {
			return false
		}
	}
	return true
}

// Frustum returns the camera's current view frustum.
func (c *Camera) Frustum() Frustum {
	return NewFrustum(c.ViewProjectionMatrix())
}
