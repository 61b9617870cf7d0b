// Package shadow builds planar shadow projectors: matrices that flatten
// geometry onto a horizontal plane along rays from a point light.
package shadow

import (
	"errors"
	"fmt"

	"github.com/taigrr/tablescene/pkg/math3d"
)

// ErrLightBelowPlane is returned by Check when the light is on or under the
// receiving plane. The projector is singular in that configuration.
var ErrLightBelowPlane = errors.New("shadow: light must be above the receiving plane")

// Matrix returns the projector onto the plane y = planeY for a point light
// at light.
//
// The canonical projector for y = 0 with relative light height
// h = light.Y - planeY has columns
//
//	(h, 0, 0, 0) (-Lx, 0, -Lz, -1) (0, 0, h, 0) (0, 0, 0, h)
//
// and maps p to a homogeneous point on the ray from the light through p,
// with y = 0. For a nonzero plane height it is conjugated with the
// translation that moves the plane to the origin:
//
//	T(0, planeY, 0) · M0 · T(0, -planeY, 0)
//
// Precondition: light.Y > planeY. Matrix does not check it; see Check.
func Matrix(light math3d.Vec3, planeY float64) math3d.Mat4 {
	h := light.Y - planeY
	m := math3d.Mat4{
		h, 0, 0, 0,
		-light.X, 0, -light.Z, -1,
		0, 0, h, 0,
		0, 0, 0, h,
	}
	if planeY == 0 {
		return m
	}
	up := math3d.Translate(math3d.V3(0, planeY, 0))
	down := math3d.Translate(math3d.V3(0, -planeY, 0))
	return up.Mul(m).Mul(down)
}

// Check validates the precondition of Matrix.
func Check(light math3d.Vec3, planeY float64) error {
	if light.Y <= planeY {
		return fmt.Errorf("%w: light y=%g, plane y=%g", ErrLightBelowPlane, light.Y, planeY)
	}
	return nil
}

// Project applies m to p with the homogeneous divide. ok is false when p
// maps to infinity (p at the light's height).
func Project(m math3d.Mat4, p math3d.Vec3) (q math3d.Vec3, ok bool) {
	h := m.MulVec4(math3d.V4FromV3(p, 1))
	if h.W == 0 {
		return math3d.Vec3{}, false
	}
	return h.PerspectiveDivide(), true
}
