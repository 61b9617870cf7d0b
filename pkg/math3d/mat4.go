package math3d

import "math"

// Mat4 is a 4x4 matrix in column-major order, as OpenGL expects it.
// Element (row, col) is m[row+4*col]; the translation of an affine
// transform sits in m[12], m[13], m[14].
type Mat4 [16]float64

func Identity() Mat4 {
	return Mat4{
		1, 0, 0, 0,
		0, 1, 0, 0,
		0, 0, 1, 0,
		0, 0, 0, 1,
	}
}

func Translate(v Vec3) Mat4 {
	m := Identity()
	m[12], m[13], m[14] = v.X, v.Y, v.Z
	return m
}

func Scale(v Vec3) Mat4 {
	m := Identity()
	m[0], m[5], m[10] = v.X, v.Y, v.Z
	return m
}

// Rotate returns a right-handed rotation of angle radians about axis,
// like glRotate.
func Rotate(axis Vec3, angle float64) Mat4 {
	a := axis.Normalize()
	s, c := math.Sincos(angle)
	k := 1 - c

	return Mat4{
		k*a.X*a.X + c, k*a.X*a.Y + s*a.Z, k*a.X*a.Z - s*a.Y, 0,
		k*a.X*a.Y - s*a.Z, k*a.Y*a.Y + c, k*a.Y*a.Z + s*a.X, 0,
		k*a.X*a.Z + s*a.Y, k*a.Y*a.Z - s*a.X, k*a.Z*a.Z + c, 0,
		0, 0, 0, 1,
	}
}

// MirrorY returns the reflection about the horizontal plane y = h:
// T(0, 2h, 0) · S(1, -1, 1). It reverses triangle winding.
func MirrorY(h float64) Mat4 {
	return Translate(V3(0, 2*h, 0)).Mul(Scale(V3(1, -1, 1)))
}

// LookAt returns the view matrix of gluLookAt.
func LookAt(eye, center, up Vec3) Mat4 {
	f := center.Sub(eye).Normalize()
	s := f.Cross(up).Normalize()
	u := s.Cross(f)

	return Mat4{
		s.X, u.X, -f.X, 0,
		s.Y, u.Y, -f.Y, 0,
		s.Z, u.Z, -f.Z, 0,
		-s.Dot(eye), -u.Dot(eye), f.Dot(eye), 1,
	}
}

// Perspective returns the projection of gluPerspective; fovy is in
// radians. Depth maps to [-1, 1] in NDC.
func Perspective(fovy, aspect, near, far float64) Mat4 {
	f := 1 / math.Tan(fovy/2)
	nf := 1 / (near - far)

	var m Mat4
	m[0] = f / aspect
	m[5] = f
	m[10] = (far + near) * nf
	m[11] = -1
	m[14] = 2 * far * near * nf
	return m
}

// Orthographic returns the projection of glOrtho.
func Orthographic(left, right, bottom, top, near, far float64) Mat4 {
	m := Identity()
	m[0] = 2 / (right - left)
	m[5] = 2 / (top - bottom)
	m[10] = -2 / (far - near)
	m[12] = -(right + left) / (right - left)
	m[13] = -(top + bottom) / (top - bottom)
	m[14] = -(far + near) / (far - near)
	return m
}

// Mul returns a·b: b is applied first.
func (a Mat4) Mul(b Mat4) Mat4 {
	var m Mat4
	for col := range 4 {
		for row := range 4 {
			m[row+4*col] = a[row]*b[4*col] +
				a[row+4]*b[4*col+1] +
				a[row+8]*b[4*col+2] +
				a[row+12]*b[4*col+3]
		}
	}
	return m
}

// MulVec4 returns m·v.
func (m Mat4) MulVec4(v Vec4) Vec4 {
	return Vec4{
		m[0]*v.X + m[4]*v.Y + m[8]*v.Z + m[12]*v.W,
		m[1]*v.X + m[5]*v.Y + m[9]*v.Z + m[13]*v.W,
		m[2]*v.X + m[6]*v.Y + m[10]*v.Z + m[14]*v.W,
		m[3]*v.X + m[7]*v.Y + m[11]*v.Z + m[15]*v.W,
	}
}

// MulVec3 transforms the point v, dividing by w when m is projective.
func (m Mat4) MulVec3(v Vec3) Vec3 {
	h := m.MulVec4(V4FromV3(v, 1))
	if h.W == 0 {
		return h.Vec3()
	}
	return h.PerspectiveDivide()
}

// MulVec3Dir transforms the direction v, ignoring translation.
func (m Mat4) MulVec3Dir(v Vec3) Vec3 {
	return m.MulVec4(V4FromV3(v, 0)).Vec3()
}

func (m Mat4) Transpose() Mat4 {
	var t Mat4
	for row := range 4 {
		for col := range 4 {
			t[col+4*row] = m[row+4*col]
		}
	}
	return t
}

// minors returns the twelve 2x2 determinants that both the determinant
// and the inverse are built from.
func (m Mat4) minors() (b [12]float64) {
	b[0] = m[0]*m[5] - m[1]*m[4]
	b[1] = m[0]*m[6] - m[2]*m[4]
	b[2] = m[0]*m[7] - m[3]*m[4]
	b[3] = m[1]*m[6] - m[2]*m[5]
	b[4] = m[1]*m[7] - m[3]*m[5]
	b[5] = m[2]*m[7] - m[3]*m[6]
	b[6] = m[8]*m[13] - m[9]*m[12]
	b[7] = m[8]*m[14] - m[10]*m[12]
	b[8] = m[8]*m[15] - m[11]*m[12]
	b[9] = m[9]*m[14] - m[10]*m[13]
	b[10] = m[9]*m[15] - m[11]*m[13]
	b[11] = m[10]*m[15] - m[11]*m[14]
	return b
}

func determinant(b [12]float64) float64 {
	return b[0]*b[11] - b[1]*b[10] + b[2]*b[9] + b[3]*b[8] - b[4]*b[7] + b[5]*b[6]
}

func (m Mat4) Determinant() float64 {
	return determinant(m.minors())
}

// Invert returns the inverse of m. ok is false when m is singular.
func (m Mat4) Invert() (inv Mat4, ok bool) {
	b := m.minors()
	det := determinant(b)
	if det == 0 {
		return Identity(), false
	}
	d := 1 / det

	inv[0] = (m[5]*b[11] - m[6]*b[10] + m[7]*b[9]) * d
	inv[1] = (m[2]*b[10] - m[1]*b[11] - m[3]*b[9]) * d
	inv[2] = (m[13]*b[5] - m[14]*b[4] + m[15]*b[3]) * d
	inv[3] = (m[10]*b[4] - m[9]*b[5] - m[11]*b[3]) * d
	inv[4] = (m[6]*b[8] - m[4]*b[11] - m[7]*b[7]) * d
	inv[5] = (m[0]*b[11] - m[2]*b[8] + m[3]*b[7]) * d
	inv[6] = (m[14]*b[2] - m[12]*b[5] - m[15]*b[1]) * d
	inv[7] = (m[8]*b[5] - m[10]*b[2] + m[11]*b[1]) * d
	inv[8] = (m[4]*b[10] - m[5]*b[8] + m[7]*b[6]) * d
	inv[9] = (m[1]*b[8] - m[0]*b[10] - m[3]*b[6]) * d
	inv[10] = (m[12]*b[4] - m[13]*b[2] + m[15]*b[0]) * d
	inv[11] = (m[9]*b[2] - m[8]*b[4] - m[11]*b[0]) * d
	inv[12] = (m[5]*b[7] - m[4]*b[9] - m[6]*b[6]) * d
	inv[13] = (m[0]*b[9] - m[1]*b[7] + m[2]*b[6]) * d
	inv[14] = (m[13]*b[1] - m[12]*b[3] - m[14]*b[0]) * d
	inv[15] = (m[8]*b[3] - m[9]*b[1] + m[10]*b[0]) * d
	return inv, true
}

// Inverse is Invert without the flag; singular matrices give identity.
func (m Mat4) Inverse() Mat4 {
	inv, _ := m.Invert()
	return inv
}

// NormalMatrix returns the inverse transpose of the upper 3x3, for
// carrying normals through non-uniform scale.
func (m Mat4) NormalMatrix() Mat4 {
	n := m
	n[12], n[13], n[14] = 0, 0, 0
	n[3], n[7], n[11], n[15] = 0, 0, 0, 1
	return n.Inverse().Transpose()
}

// Translation returns the translation column.
func (m Mat4) Translation() Vec3 {
	return Vec3{m[12], m[13], m[14]}
}

// IsAffine reports whether the bottom row is (0, 0, 0, 1). Planar shadow
// projectors are not.
func (m Mat4) IsAffine() bool {
	return m[3] == 0 && m[7] == 0 && m[11] == 0 && m[15] == 1
}

func (a Mat4) ApproxEqual(b Mat4, eps float64) bool {
	for i := range a {
		if math.Abs(a[i]-b[i]) > eps {
			return false
		}
	}
	return true
}

// Radians converts degrees, the unit of glRotate and gluPerspective.
func Radians(deg float64) float64 {
	return deg * math.Pi / 180
}
