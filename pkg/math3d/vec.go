// Package math3d provides the vector and matrix primitives shared by the
// scene graph, the shadow builder, and both render backends.
package math3d

import "math"

// Vec2 is a texture coordinate.
type Vec2 struct {
	X, Y float64
}

func V2(x, y float64) Vec2 { return Vec2{x, y} }

func (a Vec2) Add(b Vec2) Vec2 { return Vec2{a.X + b.X, a.Y + b.Y} }

func (a Vec2) Sub(b Vec2) Vec2 { return Vec2{a.X - b.X, a.Y - b.Y} }

func (a Vec2) Scale(s float64) Vec2 { return Vec2{a.X * s, a.Y * s} }

// Cross returns the z component of the 3D cross product of a and b.
func (a Vec2) Cross(b Vec2) float64 { return a.X*b.Y - a.Y*b.X }

// Vec3 is a point, direction or RGB color.
type Vec3 struct {
	X, Y, Z float64
}

func V3(x, y, z float64) Vec3 { return Vec3{x, y, z} }

// Zero3 returns the zero vector.
func Zero3() Vec3 { return Vec3{} }

// Up returns +Y, the default camera up.
func Up() Vec3 { return Vec3{0, 1, 0} }

func (a Vec3) Add(b Vec3) Vec3 { return Vec3{a.X + b.X, a.Y + b.Y, a.Z + b.Z} }

func (a Vec3) Sub(b Vec3) Vec3 { return Vec3{a.X - b.X, a.Y - b.Y, a.Z - b.Z} }

// Mul multiplies component-wise, as when modulating colors.
func (a Vec3) Mul(b Vec3) Vec3 { return Vec3{a.X * b.X, a.Y * b.Y, a.Z * b.Z} }

func (a Vec3) Scale(s float64) Vec3 { return Vec3{a.X * s, a.Y * s, a.Z * s} }

func (a Vec3) Negate() Vec3 { return Vec3{-a.X, -a.Y, -a.Z} }

func (a Vec3) Dot(b Vec3) float64 { return a.X*b.X + a.Y*b.Y + a.Z*b.Z }

// Cross returns a × b. For counter-clockwise a, b it points toward the
// viewer.
func (a Vec3) Cross(b Vec3) Vec3 {
	return Vec3{
		a.Y*b.Z - a.Z*b.Y,
		a.Z*b.X - a.X*b.Z,
		a.X*b.Y - a.Y*b.X,
	}
}

func (a Vec3) LenSq() float64 { return a.Dot(a) }

func (a Vec3) Len() float64 { return math.Sqrt(a.LenSq()) }

// Normalize returns a unit vector, or zero for the zero vector.
func (a Vec3) Normalize() Vec3 {
	l := a.Len()
	if l == 0 {
		return Vec3{}
	}
	return a.Scale(1 / l)
}

func (a Vec3) Distance(b Vec3) float64 { return a.Sub(b).Len() }

// Lerp returns a + (b - a)t.
func (a Vec3) Lerp(b Vec3, t float64) Vec3 { return a.Add(b.Sub(a).Scale(t)) }

// Reflect mirrors the incident direction a about the unit normal n.
func (a Vec3) Reflect(n Vec3) Vec3 { return a.Sub(n.Scale(2 * a.Dot(n))) }

// Min and Max work per component, for growing bounding boxes.
func (a Vec3) Min(b Vec3) Vec3 {
	return Vec3{math.Min(a.X, b.X), math.Min(a.Y, b.Y), math.Min(a.Z, b.Z)}
}

func (a Vec3) Max(b Vec3) Vec3 {
	return Vec3{math.Max(a.X, b.X), math.Max(a.Y, b.Y), math.Max(a.Z, b.Z)}
}

// ApproxEqual reports whether no component of a and b differs by more
// than eps.
func (a Vec3) ApproxEqual(b Vec3, eps float64) bool {
	return math.Abs(a.X-b.X) <= eps &&
		math.Abs(a.Y-b.Y) <= eps &&
		math.Abs(a.Z-b.Z) <= eps
}

// Vec4 is a homogeneous point or an RGBA color.
type Vec4 struct {
	X, Y, Z, W float64
}

func V4(x, y, z, w float64) Vec4 { return Vec4{x, y, z, w} }

// V4FromV3 extends v with w: 1 for points, 0 for directions.
func V4FromV3(v Vec3, w float64) Vec4 { return Vec4{v.X, v.Y, v.Z, w} }

// Vec3 drops W without dividing.
func (v Vec4) Vec3() Vec3 { return Vec3{v.X, v.Y, v.Z} }

// PerspectiveDivide returns xyz/w. A zero w is left undivided.
func (v Vec4) PerspectiveDivide() Vec3 {
	if v.W == 0 {
		return v.Vec3()
	}
	return v.Vec3().Scale(1 / v.W)
}

func (a Vec4) Add(b Vec4) Vec4 { return Vec4{a.X + b.X, a.Y + b.Y, a.Z + b.Z, a.W + b.W} }

func (a Vec4) Sub(b Vec4) Vec4 { return Vec4{a.X - b.X, a.Y - b.Y, a.Z - b.Z, a.W - b.W} }

func (a Vec4) Scale(s float64) Vec4 { return Vec4{a.X * s, a.Y * s, a.Z * s, a.W * s} }

// Lerp interpolates all four components, including w, which is what
// clipping in homogeneous space needs.
func (a Vec4) Lerp(b Vec4, t float64) Vec4 { return a.Add(b.Sub(a).Scale(t)) }
