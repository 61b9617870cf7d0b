package scene

import (
	"github.com/taigrr/tablescene/pkg/math3d"
)

// Transform is an affine (or, for shadow projectors, projective) matrix
// built by composing operations. Each operation post-multiplies, so the
// last one called is applied first to local-space points: Translate then
// Scale scales the object and then moves it.
type Transform struct {
	m math3d.Mat4
}

// NewTransform returns an identity transform.
func NewTransform() *Transform {
	return &Transform{m: math3d.Identity()}
}

// Translate appends a translation.
func (t *Transform) Translate(x, y, z float64) *Transform {
	return t.MultMatrix(math3d.Translate(math3d.V3(x, y, z)))
}

// Rotate appends a rotation of deg degrees about axis (x, y, z).
func (t *Transform) Rotate(deg, x, y, z float64) *Transform {
	return t.MultMatrix(math3d.Rotate(math3d.V3(x, y, z), math3d.Radians(deg)))
}

// Scale appends a scale.
func (t *Transform) Scale(x, y, z float64) *Transform {
	return t.MultMatrix(math3d.Scale(math3d.V3(x, y, z)))
}

// MultMatrix appends an arbitrary matrix.
func (t *Transform) MultMatrix(m math3d.Mat4) *Transform {
	t.m = t.m.Mul(m)
	return t
}

// Matrix returns the composed matrix.
func (t *Transform) Matrix() math3d.Mat4 {
	return t.m
}
