// Package models provides triangle meshes: the procedural primitives the
// table scene is built from, and glTF import/export.
package models

import (
	"github.com/taigrr/tablescene/pkg/math3d"
)

// Mesh is an indexed triangle list. Front faces wind counter-clockwise.
type Mesh struct {
	Name     string
	Vertices []MeshVertex
	Faces    []Face

	// Object-space bounds, kept current by CalculateBounds.
	BoundsMin, BoundsMax math3d.Vec3
}

// MeshVertex holds all vertex attributes.
type MeshVertex struct {
	Position math3d.Vec3
	Normal   math3d.Vec3
	UV       math3d.Vec2
	Tangent  math3d.Vec3 // dPosition/dU, used by bump mapping
}

// Face is a triangle of indices into Mesh.Vertices.
type Face struct {
	V [3]int
}

// NewMesh creates an empty mesh.
func NewMesh(name string) *Mesh {
	return &Mesh{Name: name}
}

// CalculateBounds recomputes BoundsMin and BoundsMax. An empty mesh keeps
// a zero box.
func (m *Mesh) CalculateBounds() {
	m.BoundsMin, m.BoundsMax = math3d.Vec3{}, math3d.Vec3{}
	for i, v := range m.Vertices {
		if i == 0 {
			m.BoundsMin, m.BoundsMax = v.Position, v.Position
			continue
		}
		m.BoundsMin = m.BoundsMin.Min(v.Position)
		m.BoundsMax = m.BoundsMax.Max(v.Position)
	}
}

// TriangleCount returns the number of triangles.
func (m *Mesh) TriangleCount() int {
	return len(m.Faces)
}

// VertexCount returns the number of vertices.
func (m *Mesh) VertexCount() int {
	return len(m.Vertices)
}

// CalculateSmoothNormals computes area-weighted averaged vertex normals.
func (m *Mesh) CalculateSmoothNormals() {
	for i := range m.Vertices {
		m.Vertices[i].Normal = math3d.Zero3()
	}

	for _, f := range m.Faces {
		v0 := m.Vertices[f.V[0]].Position
		v1 := m.Vertices[f.V[1]].Position
		v2 := m.Vertices[f.V[2]].Position

		normal := v1.Sub(v0).Cross(v2.Sub(v0)) // Don't normalize yet

		for _, idx := range f.V {
			m.Vertices[idx].Normal = m.Vertices[idx].Normal.Add(normal)
		}
	}

	for i := range m.Vertices {
		m.Vertices[i].Normal = m.Vertices[i].Normal.Normalize()
	}
}

// CalculateTangents derives per-vertex tangents from the UV layout.
// Vertices whose faces have degenerate UVs keep a zero tangent.
func (m *Mesh) CalculateTangents() {
	acc := make([]math3d.Vec3, len(m.Vertices))

	for _, f := range m.Faces {
		a, b, c := m.Vertices[f.V[0]], m.Vertices[f.V[1]], m.Vertices[f.V[2]]
		e1 := b.Position.Sub(a.Position)
		e2 := c.Position.Sub(a.Position)
		d1 := b.UV.Sub(a.UV)
		d2 := c.UV.Sub(a.UV)

		det := d1.Cross(d2)
		if det == 0 {
			continue
		}
		t := e1.Scale(d2.Y).Sub(e2.Scale(d1.Y)).Scale(1 / det)
		for _, idx := range f.V {
			acc[idx] = acc[idx].Add(t)
		}
	}

	for i := range m.Vertices {
		n := m.Vertices[i].Normal
		t := acc[i]
		// Gram-Schmidt against the normal.
		t = t.Sub(n.Scale(n.Dot(t)))
		m.Vertices[i].Tangent = t.Normalize()
	}
}

// addQuad appends two triangles a-b-c and a-c-d.
func (m *Mesh) addQuad(a, b, c, d int) {
	m.Faces = append(m.Faces, Face{V: [3]int{a, b, c}}, Face{V: [3]int{a, c, d}})
}

func (m *Mesh) addVertex(v MeshVertex) int {
	m.Vertices = append(m.Vertices, v)
	return len(m.Vertices) - 1
}
