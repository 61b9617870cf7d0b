package shadow

import (
	"math"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/taigrr/tablescene/pkg/math3d"
)

const eps = 1e-9

func TestMatrixClosedFormAtTableHeight(t *testing.T) {
	light := math3d.V3(0.65, 1.7, 0.3)
	m := Matrix(light, 1.1)

	// Undo the conjugation and compare against the canonical form.
	up := math3d.Translate(math3d.V3(0, 1.1, 0))
	down := math3d.Translate(math3d.V3(0, -1.1, 0))
	m0 := down.Mul(m).Mul(up)

	want := math3d.Mat4{
		0.6, 0, 0, 0,
		-0.65, 0, -0.3, -1,
		0, 0, 0.6, 0,
		0, 0, 0, 0.6,
	}
	assert.True(t, m0.ApproxEqual(want, eps), "got %v, want %v", m0, want)
}

func TestMatrixZeroPlaneIsCanonical(t *testing.T) {
	light := math3d.V3(2, 5, -1)
	want := math3d.Mat4{
		5, 0, 0, 0,
		-2, 0, 1, -1,
		0, 0, 5, 0,
		0, 0, 0, 5,
	}
	assert.Equal(t, want, Matrix(light, 0))
}

func TestProjectedPointsLieOnPlane(t *testing.T) {
	rng := rand.New(rand.NewSource(7))

	cases := []struct {
		name  string
		light math3d.Vec3
		plane float64
	}{
		{"table", math3d.V3(0.65, 1.7, 0.3), 1.1},
		{"floor", math3d.V3(-3, 8, 2), 0},
		{"below origin", math3d.V3(1, -1, 1), -4},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			m := Matrix(tc.light, tc.plane)
			for range 200 {
				// Points strictly between the plane and the light.
				p := math3d.V3(
					rng.Float64()*4-2,
					tc.plane+rng.Float64()*(tc.light.Y-tc.plane)*0.95,
					rng.Float64()*4-2,
				)
				q, ok := Project(m, p)
				require.True(t, ok)
				assert.InDelta(t, tc.plane, q.Y, 1e-9, "p=%v", p)
			}
		})
	}
}

func TestProjectionIsAlongLightRay(t *testing.T) {
	light := math3d.V3(0.65, 1.7, 0.3)
	m := Matrix(light, 1.1)
	p := math3d.V3(-0.3, 1.4, -0.2)

	q, ok := Project(m, p)
	require.True(t, ok)

	// q - light must be parallel to p - light.
	cross := q.Sub(light).Cross(p.Sub(light))
	assert.InDelta(t, 0, cross.Len(), 1e-9)
	// And q lies beyond p as seen from the light.
	assert.Greater(t, q.Distance(light), p.Distance(light))
}

func TestPointsOnPlaneAreFixed(t *testing.T) {
	m := Matrix(math3d.V3(0.65, 1.7, 0.3), 1.1)
	p := math3d.V3(0.9, 1.1, -0.7)
	q, ok := Project(m, p)
	require.True(t, ok)
	assert.True(t, q.ApproxEqual(p, eps), "got %v", q)
}

func TestProjectAtLightHeight(t *testing.T) {
	m := Matrix(math3d.V3(0, 2, 0), 0)
	_, ok := Project(m, math3d.V3(1, 2, 1))
	assert.False(t, ok)
}

func TestMatrixIsSingular(t *testing.T) {
	m := Matrix(math3d.V3(0.65, 1.7, 0.3), 1.1)
	assert.InDelta(t, 0, m.Determinant(), 1e-12)
	assert.False(t, m.IsAffine())
}

func TestCheck(t *testing.T) {
	assert.NoError(t, Check(math3d.V3(0, 1.7, 0), 1.1))
	assert.ErrorIs(t, Check(math3d.V3(0, 1.1, 0), 1.1), ErrLightBelowPlane)
	assert.ErrorIs(t, Check(math3d.V3(0, -math.MaxFloat64, 0), 0), ErrLightBelowPlane)
}

func BenchmarkMatrix(b *testing.B) {
	light := math3d.V3(0.65, 1.7, 0.3)
	for b.Loop() {
		_ = Matrix(light, 1.1)
	}
}
