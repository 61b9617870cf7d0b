package render

import (
	"math"

	"github.com/taigrr/tablescene/pkg/math3d"
)

// Camera is a look-at camera that orbits its target. Arcball drags rotate
// the scene about Target without moving Eye.
type Camera struct {
	Eye    math3d.Vec3
	Target math3d.Vec3
	Up     math3d.Vec3

	// Projection parameters
	FOV         float64 // Vertical field of view in radians
	AspectRatio float64 // Width / Height
	Near        float64 // Near clipping plane
	Far         float64 // Far clipping plane

	orbit math3d.Mat4

	// Cached matrices (computed on demand)
	viewMatrix, projMatrix math3d.Mat4
	viewDirty, projDirty   bool
}

// NewCamera creates a camera at eye looking at target with Y up.
func NewCamera(eye, target math3d.Vec3) *Camera {
	return &Camera{
		Eye:         eye,
		Target:      target,
		Up:          math3d.Up(),
		FOV:         math.Pi / 4, // 45 degrees
		AspectRatio: 4.0 / 3.0,
		Near:        0.1,
		Far:         100,
		orbit:       math3d.Identity(),
		viewDirty:   true,
		projDirty:   true,
	}
}

// SetAspectRatio sets the aspect ratio.
func (c *Camera) SetAspectRatio(aspect float64) {
	c.AspectRatio = aspect
	c.projDirty = true
}

// SetFOV sets the vertical field of view in radians.
func (c *Camera) SetFOV(fovy float64) {
	c.FOV = fovy
	c.projDirty = true
}

// SetClipPlanes sets the near and far clipping planes.
func (c *Camera) SetClipPlanes(near, far float64) {
	c.Near = near
	c.Far = far
	c.projDirty = true
}

// Orbit rotates the scene about Target by angle radians around axis,
// given in eye space.
func (c *Camera) Orbit(axis math3d.Vec3, angle float64) {
	if axis.LenSq() == 0 || angle == 0 {
		return
	}
	look := math3d.LookAt(c.Eye, c.Target, c.Up)
	// Eye-space direction back into the frame the orbit lives in.
	worldAxis := look.Transpose().MulVec3Dir(axis).Normalize()
	c.orbit = math3d.Rotate(worldAxis, angle).Mul(c.orbit)
	c.viewDirty = true
}

// ResetOrbit discards accumulated arcball rotation.
func (c *Camera) ResetOrbit() {
	c.orbit = math3d.Identity()
	c.viewDirty = true
}

// EyePosition returns the eye in world space, accounting for the orbit.
func (c *Camera) EyePosition() math3d.Vec3 {
	return c.ViewMatrix().Inverse().Translation()
}

// ViewMatrix returns LookAt · T(target) · orbit · T(-target).
func (c *Camera) ViewMatrix() math3d.Mat4 {
	if c.viewDirty {
		pivot := math3d.Translate(c.Target).Mul(c.orbit).Mul(math3d.Translate(c.Target.Negate()))
		c.viewMatrix = math3d.LookAt(c.Eye, c.Target, c.Up).Mul(pivot)
		c.viewDirty = false
	}
	return c.viewMatrix
}

// ProjectionMatrix returns the perspective projection.
func (c *Camera) ProjectionMatrix() math3d.Mat4 {
	if c.projDirty {
		c.projMatrix = math3d.Perspective(c.FOV, c.AspectRatio, c.Near, c.Far)
		c.projDirty = false
	}
	return c.projMatrix
}

// ViewProjectionMatrix returns projection · view.
func (c *Camera) ViewProjectionMatrix() math3d.Mat4 {
	return c.ProjectionMatrix().Mul(c.ViewMatrix())
}

// WorldToScreen projects p onto a width x height viewport with y down.
// ok is false when p is behind the eye or outside the view volume.
func (c *Camera) WorldToScreen(p math3d.Vec3, width, height int) (x, y, depth float64, ok bool) {
	clip := c.ViewProjectionMatrix().MulVec4(math3d.V4FromV3(p, 1))
	if clip.W <= 0 {
		return 0, 0, 0, false
	}
	ndc := clip.PerspectiveDivide()
	if math.Abs(ndc.X) > 1 || math.Abs(ndc.Y) > 1 || math.Abs(ndc.Z) > 1 {
		return 0, 0, 0, false
	}
	x = (ndc.X + 1) / 2 * float64(width)
	y = (1 - ndc.Y) / 2 * float64(height)
	return x, y, ndc.Z, true
}

// Arcball turns pointer drags into rotations (Shoemake's arcball).
type Arcball struct {
	Width, Height int

	dragging bool
	last     math3d.Vec3
}

// NewArcball creates an arcball for a viewport of the given size.
func NewArcball(width, height int) *Arcball {
	return &Arcball{Width: width, Height: height}
}

// Resize updates the viewport size.
func (a *Arcball) Resize(width, height int) {
	a.Width, a.Height = width, height
}

// Begin starts a drag at window coordinates (x, y).
func (a *Arcball) Begin(x, y float64) {
	a.dragging = true
	a.last = a.project(x, y)
}

// End finishes the current drag.
func (a *Arcball) End() {
	a.dragging = false
}

// Dragging reports whether a drag is in progress.
func (a *Arcball) Dragging() bool {
	return a.dragging
}

// Drag moves the pointer to (x, y) and returns the eye-space rotation
// since the previous call. ok is false when no drag is active or the
// pointer did not move on the sphere.
func (a *Arcball) Drag(x, y float64) (axis math3d.Vec3, angle float64, ok bool) {
	if !a.dragging {
		return math3d.Vec3{}, 0, false
	}
	cur := a.project(x, y)
	prev := a.last
	a.last = cur

	axis = prev.Cross(cur)
	if axis.LenSq() < 1e-12 {
		return math3d.Vec3{}, 0, false
	}
	angle = math.Acos(math.Max(-1, math.Min(1, prev.Dot(cur))))
	return axis.Normalize(), angle, true
}

// project maps window coordinates onto the unit sphere. Points outside
// the sphere land on its silhouette.
func (a *Arcball) project(x, y float64) math3d.Vec3 {
	if a.Width <= 0 || a.Height <= 0 {
		return math3d.V3(0, 0, 1)
	}
	size := float64(min(a.Width, a.Height))
	px := (2*x - float64(a.Width)) / size
	py := -(2*y - float64(a.Height)) / size

	d := px*px + py*py
	if d > 1 {
		s := 1 / math.Sqrt(d)
		return math3d.V3(px*s, py*s, 0)
	}
	return math3d.V3(px, py, math.Sqrt(1-d))
}
