package render

import (
	"testing"

	"github.com/taigrr/tablescene/pkg/math3d"
	"github.com/taigrr/tablescene/pkg/models"
)

func TestBoundsTransform(t *testing.T) {
	unit := Bounds{Min: math3d.V3(-0.5, 0, -0.5), Max: math3d.V3(0.5, 1, 0.5)}

	// Table top: T(0, 1, 0) · S(3, 0.1, 2).
	top := unit.Transform(math3d.Translate(math3d.V3(0, 1, 0)).Mul(math3d.Scale(math3d.V3(3, 0.1, 2))))
	if !top.Min.ApproxEqual(math3d.V3(-1.5, 1, -1), 1e-12) || !top.Max.ApproxEqual(math3d.V3(1.5, 1.1, 1), 1e-12) {
		t.Errorf("table bounds = %+v", top)
	}

	// A mirror flips y, so min and max must be re-sorted.
	mirrored := top.Transform(math3d.MirrorY(1.1))
	if !mirrored.Min.ApproxEqual(math3d.V3(-1.5, 1.1, -1), 1e-12) || !mirrored.Max.ApproxEqual(math3d.V3(1.5, 1.2, 1), 1e-12) {
		t.Errorf("mirrored bounds = %+v", mirrored)
	}
}

func TestBoundsContains(t *testing.T) {
	b := Bounds{Min: math3d.V3(-1, -1, -1), Max: math3d.V3(1, 1, 1)}
	tests := []struct {
		p    math3d.Vec3
		want bool
	}{
		{math3d.V3(0, 0, 0), true},
		{math3d.V3(1, 1, 1), true},
		{math3d.V3(1.01, 0, 0), false},
		{math3d.V3(0, -2, 0), false},
	}
	for _, tt := range tests {
		if got := b.Contains(tt.p); got != tt.want {
			t.Errorf("Contains(%v) = %v, want %v", tt.p, got, tt.want)
		}
	}
}

func TestMeshBounds(t *testing.T) {
	m := models.NewCube()
	b := MeshBounds(m)
	if b.Min != m.BoundsMin || b.Max != m.BoundsMax {
		t.Errorf("MeshBounds = %+v, mesh bounds %v %v", b, m.BoundsMin, m.BoundsMax)
	}
}

func TestFrustumPlanesAreNormalized(t *testing.T) {
	cam := NewCamera(math3d.V3(4, 3.5, 5), math3d.Zero3())
	for i, p := range cam.Frustum() {
		if l := p.Vec3().Len(); l < 1-1e-9 || l > 1+1e-9 {
			t.Errorf("plane %d normal length %v", i, l)
		}
	}
}

func TestFrustumContains(t *testing.T) {
	cam := NewCamera(math3d.V3(0, 0, 5), math3d.Zero3())
	cam.SetClipPlanes(0.1, 50)
	f := cam.Frustum()

	tests := []struct {
		name string
		p    math3d.Vec3
		want bool
	}{
		{"target", math3d.V3(0, 0, 0), true},
		{"behind eye", math3d.V3(0, 0, 6), false},
		{"beyond far", math3d.V3(0, 0, -60), false},
		{"far left", math3d.V3(-100, 0, 0), false},
		{"above", math3d.V3(0, 100, 0), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := f.Contains(tt.p); got != tt.want {
				t.Errorf("Contains(%v) = %v, want %v", tt.p, got, tt.want)
			}
		})
	}
}

func TestFrustumIntersects(t *testing.T) {
	cam := NewCamera(math3d.V3(4, 3.5, 5), math3d.Zero3())
	f := cam.Frustum()

	box := func(c math3d.Vec3, r float64) Bounds {
		d := math3d.V3(r, r, r)
		return Bounds{Min: c.Sub(d), Max: c.Add(d)}
	}

	if !f.Intersects(box(math3d.V3(0, 1.1, 0), 1.5)) {
		t.Error("table at the target culled")
	}
	if !f.Intersects(box(math3d.V3(0, 0, 0), 100)) {
		t.Error("box enclosing the camera culled")
	}
	if f.Intersects(box(math3d.V3(-40, 0, 40), 1)) {
		t.Error("box far off to the side not culled")
	}
	if f.Intersects(box(math3d.V3(8, 7, 10), 0.5)) {
		t.Error("box behind the eye not culled")
	}
}

func BenchmarkFrustumIntersects(b *testing.B) {
	f := NewCamera(math3d.V3(4, 3.5, 5), math3d.Zero3()).Frustum()
	box := Bounds{Min: math3d.V3(-1.5, 1, -1), Max: math3d.V3(1.5, 1.1, 1)}

	for b.Loop() {
		_ = f.Intersects(box)
	}
}

func BenchmarkBoundsTransform(b *testing.B) {
	box := Bounds{Min: math3d.V3(-0.5, 0, -0.5), Max: math3d.V3(0.5, 1, 0.5)}
	m := math3d.Translate(math3d.V3(1.15, 1.74, 0.5)).Mul(math3d.Rotate(math3d.V3(0, 0, 1), math3d.Radians(45)))

	for b.Loop() {
		_ = box.Transform(m)
	}
}
