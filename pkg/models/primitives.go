package models

import (
	"fmt"
	"math"

	"github.com/taigrr/tablescene/pkg/math3d"
)

// NewCube returns a unit cube resting on the XZ plane: x and z span
// [-0.5, 0.5] and y spans [0, 1]. Each face has its own vertices so
// normals stay flat.
func NewCube() *Mesh {
	mesh := NewMesh("cube")

	// normal, tangent (u axis), bitangent (v axis); u × v = normal keeps
	// every face counter-clockwise from outside.
	faces := [6][3]math3d.Vec3{
		{{X: 1}, {Z: -1}, {Y: 1}},  // +X
		{{X: -1}, {Z: 1}, {Y: 1}},  // -X
		{{Y: 1}, {X: 1}, {Z: -1}},  // +Y
		{{Y: -1}, {X: 1}, {Z: 1}},  // -Y
		{{Z: 1}, {X: 1}, {Y: 1}},   // +Z
		{{Z: -1}, {X: -1}, {Y: 1}}, // -Z
	}
	center := math3d.V3(0, 0.5, 0)

	for _, f := range faces {
		n, u, v := f[0], f[1].Scale(0.5), f[2].Scale(0.5)
		c := center.Add(n.Scale(0.5))

		corners := [4]struct {
			p  math3d.Vec3
			uv math3d.Vec2
		}{
			{c.Sub(u).Sub(v), math3d.V2(0, 0)},
			{c.Add(u).Sub(v), math3d.V2(1, 0)},
			{c.Add(u).Add(v), math3d.V2(1, 1)},
			{c.Sub(u).Add(v), math3d.V2(0, 1)},
		}

		var idx [4]int
		for i, corner := range corners {
			idx[i] = mesh.addVertex(MeshVertex{
				Position: corner.p,
				Normal:   n,
				UV:       corner.uv,
				Tangent:  f[1],
			})
		}
		mesh.addQuad(idx[0], idx[1], idx[2], idx[3])
	}

	mesh.CalculateBounds()
	return mesh
}

// NewSphere returns a unit-radius UV sphere centered at the origin.
// U wraps around the Y axis and V runs from the south to the north pole.
func NewSphere(slices, stacks int) *Mesh {
	mesh := NewMesh(fmt.Sprintf("sphere%dx%d", slices, stacks))

	for i := 0; i <= stacks; i++ {
		v := float64(i) / float64(stacks)
		phi := -math.Pi/2 + v*math.Pi
		for j := 0; j <= slices; j++ {
			u := float64(j) / float64(slices)
			theta := u * 2 * math.Pi
			p := math3d.V3(math.Cos(phi)*math.Sin(theta), math.Sin(phi), math.Cos(phi)*math.Cos(theta))
			mesh.addVertex(MeshVertex{
				Position: p,
				Normal:   p,
				UV:       math3d.V2(u, v),
				Tangent:  math3d.V3(math.Cos(theta), 0, -math.Sin(theta)),
			})
		}
	}

	row := slices + 1
	for i := range stacks {
		for j := range slices {
			a := i*row + j
			mesh.addQuad(a, a+1, a+1+row, a+row)
		}
	}

	mesh.CalculateBounds()
	return mesh
}

// NewCylinder returns a unit-radius cylinder standing on the XZ plane with
// y spanning [0, 1]. capped adds top and bottom disks. twoSided adds an
// inward-facing copy of the wall so open cylinders show their inside.
func NewCylinder(slices int, capped, twoSided bool) *Mesh {
	mesh := NewMesh(fmt.Sprintf("cylinder%d", slices))

	wall := func(sign float64) {
		base := len(mesh.Vertices)
		for j := 0; j <= slices; j++ {
			u := float64(j) / float64(slices)
			theta := u * 2 * math.Pi
			s, c := math.Sin(theta), math.Cos(theta)
			n := math3d.V3(s, 0, c).Scale(sign)
			t := math3d.V3(c, 0, -s)
			mesh.addVertex(MeshVertex{Position: math3d.V3(s, 0, c), Normal: n, UV: math3d.V2(u, 0), Tangent: t})
			mesh.addVertex(MeshVertex{Position: math3d.V3(s, 1, c), Normal: n, UV: math3d.V2(u, 1), Tangent: t})
		}
		for j := range slices {
			b0, t0 := base+2*j, base+2*j+1
			b1, t1 := b0+2, t0+2
			if sign > 0 {
				mesh.addQuad(b0, b1, t1, t0)
			} else {
				mesh.addQuad(b0, t0, t1, b1)
			}
		}
	}

	wall(1)
	if twoSided {
		wall(-1)
	}
	if capped {
		addDisk(mesh, slices, 1, math3d.V3(0, 1, 0))
		addDisk(mesh, slices, 0, math3d.V3(0, -1, 0))
	}

	mesh.CalculateBounds()
	return mesh
}

// NewCone returns a unit-radius cone with its base on the XZ plane and its
// apex at (0, 1, 0).
func NewCone(slices int, capped, twoSided bool) *Mesh {
	mesh := NewMesh(fmt.Sprintf("cone%d", slices))

	side := func(sign float64) {
		for j := range slices {
			u0 := float64(j) / float64(slices)
			u1 := float64(j+1) / float64(slices)
			um := (u0 + u1) / 2
			t0, t1, tm := u0*2*math.Pi, u1*2*math.Pi, um*2*math.Pi

			// Slant normal for radius 1, height 1.
			normal := func(theta float64) math3d.Vec3 {
				return math3d.V3(math.Sin(theta), 1, math.Cos(theta)).Normalize().Scale(sign)
			}
			tangent := func(theta float64) math3d.Vec3 {
				return math3d.V3(math.Cos(theta), 0, -math.Sin(theta))
			}

			a := mesh.addVertex(MeshVertex{Position: math3d.V3(math.Sin(t0), 0, math.Cos(t0)), Normal: normal(t0), UV: math3d.V2(u0, 0), Tangent: tangent(t0)})
			b := mesh.addVertex(MeshVertex{Position: math3d.V3(math.Sin(t1), 0, math.Cos(t1)), Normal: normal(t1), UV: math3d.V2(u1, 0), Tangent: tangent(t1)})
			apex := mesh.addVertex(MeshVertex{Position: math3d.V3(0, 1, 0), Normal: normal(tm), UV: math3d.V2(um, 1), Tangent: tangent(tm)})
			if sign > 0 {
				mesh.Faces = append(mesh.Faces, Face{V: [3]int{a, b, apex}})
			} else {
				mesh.Faces = append(mesh.Faces, Face{V: [3]int{a, apex, b}})
			}
		}
	}

	side(1)
	if twoSided {
		side(-1)
	}
	if capped {
		addDisk(mesh, slices, 0, math3d.V3(0, -1, 0))
	}

	mesh.CalculateBounds()
	return mesh
}

// addDisk appends a unit disk at height y facing n (which must be ±Y).
func addDisk(mesh *Mesh, slices int, y float64, n math3d.Vec3) {
	center := mesh.addVertex(MeshVertex{
		Position: math3d.V3(0, y, 0),
		Normal:   n,
		UV:       math3d.V2(0.5, 0.5),
		Tangent:  math3d.V3(1, 0, 0),
	})
	first := len(mesh.Vertices)
	for j := 0; j <= slices; j++ {
		theta := float64(j) / float64(slices) * 2 * math.Pi
		s, c := math.Sin(theta), math.Cos(theta)
		mesh.addVertex(MeshVertex{
			Position: math3d.V3(s, y, c),
			Normal:   n,
			UV:       math3d.V2(0.5+0.5*s, 0.5+0.5*c),
			Tangent:  math3d.V3(1, 0, 0),
		})
	}
	for j := range slices {
		a, b := first+j, first+j+1
		if n.Y > 0 {
			mesh.Faces = append(mesh.Faces, Face{V: [3]int{center, a, b}})
		} else {
			mesh.Faces = append(mesh.Faces, Face{V: [3]int{center, b, a}})
		}
	}
}
