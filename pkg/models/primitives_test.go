package models

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/taigrr/tablescene/pkg/math3d"
)

const eps = 1e-9

// assertOutward checks that every non-degenerate face winds
// counter-clockwise when seen from the side its vertex normals face.
func assertOutward(t *testing.T, m *Mesh) {
	t.Helper()
	for i, f := range m.Faces {
		a, b, c := m.Vertices[f.V[0]], m.Vertices[f.V[1]], m.Vertices[f.V[2]]
		geo := b.Position.Sub(a.Position).Cross(c.Position.Sub(a.Position))
		if geo.Len() < 1e-12 {
			continue
		}
		n := a.Normal.Add(b.Normal).Add(c.Normal)
		assert.Greater(t, geo.Dot(n), 0.0, "%s face %d winds against its normal", m.Name, i)
	}
}

func TestCubeLayout(t *testing.T) {
	cube := NewCube()

	assert.Equal(t, 24, cube.VertexCount())
	assert.Equal(t, 12, cube.TriangleCount())
	assert.True(t, cube.BoundsMin.ApproxEqual(math3d.V3(-0.5, 0, -0.5), eps))
	assert.True(t, cube.BoundsMax.ApproxEqual(math3d.V3(0.5, 1, 0.5), eps))
	assertOutward(t, cube)

	center := math3d.V3(0, 0.5, 0)
	for _, f := range cube.Faces {
		a := cube.Vertices[f.V[0]]
		assert.Greater(t, a.Position.Sub(center).Dot(a.Normal), 0.0)
		assert.InDelta(t, 0, a.Tangent.Dot(a.Normal), eps)
	}
}

func TestCubeTangentsMatchUV(t *testing.T) {
	cube := NewCube()
	want := make([]math3d.Vec3, len(cube.Vertices))
	for i, v := range cube.Vertices {
		want[i] = v.Tangent
	}

	cube.CalculateTangents()
	for i, v := range cube.Vertices {
		assert.True(t, v.Tangent.ApproxEqual(want[i], 1e-9), "vertex %d: got %v want %v", i, v.Tangent, want[i])
	}
}

func TestSphere(t *testing.T) {
	sphere := NewSphere(16, 8)

	assert.Equal(t, 17*9, sphere.VertexCount())
	assert.Equal(t, 16*8*2, sphere.TriangleCount())
	for _, v := range sphere.Vertices {
		assert.InDelta(t, 1, v.Position.Len(), eps)
		assert.True(t, v.Normal.ApproxEqual(v.Position, eps))
	}
	assert.True(t, sphere.BoundsMin.ApproxEqual(math3d.V3(-1, -1, -1), 1e-2))
	assert.True(t, sphere.BoundsMax.ApproxEqual(math3d.V3(1, 1, 1), 1e-2))
	assertOutward(t, sphere)
}

func TestCylinder(t *testing.T) {
	tests := []struct {
		name      string
		capped    bool
		twoSided  bool
		wantFaces int
	}{
		{"open", false, false, 2 * 32},
		{"capped", true, false, 2*32 + 2*32},
		{"two-sided", false, true, 4 * 32},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cyl := NewCylinder(32, tt.capped, tt.twoSided)
			assert.Equal(t, tt.wantFaces, cyl.TriangleCount())
			assert.True(t, cyl.BoundsMin.ApproxEqual(math3d.V3(-1, 0, -1), 1e-9))
			assert.True(t, cyl.BoundsMax.ApproxEqual(math3d.V3(1, 1, 1), 1e-9))
			assertOutward(t, cyl)
		})
	}
}

func TestCylinderInnerWallFacesAxis(t *testing.T) {
	cyl := NewCylinder(8, false, true)
	inner := cyl.Faces[2*8:]
	require.Len(t, inner, 2*8)
	for _, f := range inner {
		v := cyl.Vertices[f.V[0]]
		radial := math3d.V3(v.Position.X, 0, v.Position.Z)
		assert.Less(t, v.Normal.Dot(radial), 0.0)
	}
}

func TestCone(t *testing.T) {
	cone := NewCone(32, true, false)

	assert.Equal(t, 2*32, cone.TriangleCount())
	assert.True(t, cone.BoundsMin.ApproxEqual(math3d.V3(-1, 0, -1), 1e-9))
	assert.True(t, cone.BoundsMax.ApproxEqual(math3d.V3(1, 1, 1), 1e-9))
	assertOutward(t, cone)

	// Slant normals lean 45 degrees up for a unit cone.
	n := cone.Vertices[0].Normal
	assert.InDelta(t, math.Sqrt2/2, n.Y, eps)
}
