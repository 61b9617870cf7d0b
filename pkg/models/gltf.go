package models

import (
	"errors"
	"fmt"
	"path/filepath"

	"github.com/qmuntal/gltf"
	"github.com/qmuntal/gltf/modeler"

	"github.com/taigrr/tablescene/pkg/math3d"
)

// ErrNoGeometry is returned when a glTF document holds no triangle primitives.
var ErrNoGeometry = errors.New("models: no triangle geometry")

// GLTFLoader loads GLTF/GLB files into Mesh format.
type GLTFLoader struct {
	// Options
	CalculateNormals  bool
	SmoothNormals     bool
	CalculateTangents bool
}

// NewGLTFLoader creates a new GLTF loader with default options.
func NewGLTFLoader() *GLTFLoader {
	return &GLTFLoader{
		CalculateNormals:  true,
		SmoothNormals:     true,
		CalculateTangents: true,
	}
}

// LoadGLB loads a binary GLTF (.glb) file.
func LoadGLB(path string) (*Mesh, error) {
	loader := NewGLTFLoader()
	return loader.Load(path)
}

// Load loads a GLTF or GLB file and merges every mesh into one Mesh.
// Node transforms are not applied.
func (l *GLTFLoader) Load(path string) (*Mesh, error) {
	doc, err := gltf.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open gltf: %w", err)
	}

	mesh := NewMesh(filepath.Base(path))

	for _, m := range doc.Meshes {
		if err := l.processMesh(doc, m, mesh); err != nil {
			return nil, fmt.Errorf("process mesh %q: %w", m.Name, err)
		}
	}
	if len(mesh.Faces) == 0 {
		return nil, fmt.Errorf("%s: %w", path, ErrNoGeometry)
	}

	hasNormals := false
	for _, v := range mesh.Vertices {
		if v.Normal.Len() > 0.001 {
			hasNormals = true
			break
		}
	}
	if l.CalculateNormals && !hasNormals && l.SmoothNormals {
		mesh.CalculateSmoothNormals()
	}

	hasTangents := false
	for _, v := range mesh.Vertices {
		if v.Tangent.Len() > 0.001 {
			hasTangents = true
			break
		}
	}
	if l.CalculateTangents && !hasTangents {
		mesh.CalculateTangents()
	}

	mesh.CalculateBounds()

	return mesh, nil
}

// processMesh extracts geometry from a GLTF mesh. glTF front faces are
// counter-clockwise, same as Mesh, so indices are copied in order.
func (l *GLTFLoader) processMesh(doc *gltf.Document, m *gltf.Mesh, mesh *Mesh) error {
	for _, prim := range m.Primitives {
		if prim.Mode != gltf.PrimitiveTriangles && prim.Mode != 0 {
			continue
		}

		posIdx, ok := prim.Attributes[gltf.POSITION]
		if !ok {
			continue
		}
		positions, err := modeler.ReadPosition(doc, doc.Accessors[posIdx], nil)
		if err != nil {
			return fmt.Errorf("read positions: %w", err)
		}

		var normals [][3]float32
		if idx, ok := prim.Attributes[gltf.NORMAL]; ok {
			normals, err = modeler.ReadNormal(doc, doc.Accessors[idx], nil)
			if err != nil {
				return fmt.Errorf("read normals: %w", err)
			}
		}

		var uvs [][2]float32
		if idx, ok := prim.Attributes[gltf.TEXCOORD_0]; ok {
			uvs, err = modeler.ReadTextureCoord(doc, doc.Accessors[idx], nil)
			if err != nil {
				return fmt.Errorf("read uvs: %w", err)
			}
		}

		var tangents [][4]float32
		if idx, ok := prim.Attributes[gltf.TANGENT]; ok {
			tangents, err = modeler.ReadTangent(doc, doc.Accessors[idx], nil)
			if err != nil {
				return fmt.Errorf("read tangents: %w", err)
			}
		}

		baseVertex := len(mesh.Vertices)

		for i, p := range positions {
			v := MeshVertex{Position: vec3f(p)}
			if i < len(normals) {
				v.Normal = vec3f(normals[i])
			}
			if i < len(uvs) {
				// glTF puts V=0 at the top of the image.
				v.UV = math3d.V2(float64(uvs[i][0]), 1-float64(uvs[i][1]))
			}
			if i < len(tangents) {
				t := tangents[i]
				v.Tangent = math3d.V3(float64(t[0]), float64(t[1]), float64(t[2]))
			}
			mesh.Vertices = append(mesh.Vertices, v)
		}

		if prim.Indices != nil {
			indices, err := modeler.ReadIndices(doc, doc.Accessors[*prim.Indices], nil)
			if err != nil {
				return fmt.Errorf("read indices: %w", err)
			}
			for i := 0; i+2 < len(indices); i += 3 {
				mesh.Faces = append(mesh.Faces, Face{V: [3]int{
					baseVertex + int(indices[i]),
					baseVertex + int(indices[i+1]),
					baseVertex + int(indices[i+2]),
				}})
			}
		} else {
			for i := 0; i+2 < len(positions); i += 3 {
				mesh.Faces = append(mesh.Faces, Face{V: [3]int{
					baseVertex + i,
					baseVertex + i + 1,
					baseVertex + i + 2,
				}})
			}
		}
	}

	return nil
}

func vec3f(v [3]float32) math3d.Vec3 {
	return math3d.V3(float64(v[0]), float64(v[1]), float64(v[2]))
}

// ExportNode is one node of a scene hierarchy handed to BuildDocument.
type ExportNode struct {
	Name   string
	ID     string // stored in the node extras
	Matrix math3d.Mat4

	Meshes []*Mesh

	// Color is the RGBA base color of Meshes. Alpha below 1 exports with
	// blend alpha mode.
	Color       [4]float64
	DoubleSided bool

	Children []*ExportNode
}

// BuildDocument converts a node hierarchy into a glTF document. Meshes
// shared between nodes are written once. Nodes with a projective matrix
// are skipped together with their children since glTF only carries
// affine transforms.
func BuildDocument(roots []*ExportNode) *gltf.Document {
	doc := gltf.NewDocument()
	b := &docBuilder{
		doc:       doc,
		meshes:    make(map[*Mesh]int),
		materials: make(map[materialKey]int),
	}

	for _, root := range roots {
		if idx, ok := b.node(root); ok {
			doc.Scenes[0].Nodes = append(doc.Scenes[0].Nodes, idx)
		}
	}
	return doc
}

// ExportGLB writes the hierarchy to path as a binary glTF file.
func ExportGLB(path string, roots []*ExportNode) error {
	doc := BuildDocument(roots)
	if err := gltf.SaveBinary(doc, path); err != nil {
		return fmt.Errorf("save glb %s: %w", path, err)
	}
	return nil
}

type materialKey struct {
	color       [4]float64
	doubleSided bool
}

type meshKey struct {
	mesh     *Mesh
	material int
}

type docBuilder struct {
	doc       *gltf.Document
	meshes    map[*Mesh]int // mesh -> index of its accessor set in prims
	prims     []map[string]int
	indices   []int
	materials map[materialKey]int
	gltfMesh  map[meshKey]int
}

func (b *docBuilder) node(n *ExportNode) (int, bool) {
	if !n.Matrix.IsAffine() {
		return 0, false
	}

	gn := &gltf.Node{Name: n.Name}
	if n.Matrix != math3d.Identity() {
		gn.Matrix = [16]float64(n.Matrix)
	}
	if n.ID != "" {
		gn.Extras = map[string]any{"id": n.ID}
	}

	if len(n.Meshes) > 0 {
		mat := b.material(n.Color, n.DoubleSided)
		if len(n.Meshes) == 1 {
			idx := b.mesh(n.Meshes[0], mat)
			gn.Mesh = &idx
		} else {
			for _, m := range n.Meshes {
				idx := b.mesh(m, mat)
				child := &gltf.Node{Name: m.Name, Mesh: &idx}
				b.doc.Nodes = append(b.doc.Nodes, child)
				gn.Children = append(gn.Children, len(b.doc.Nodes)-1)
			}
		}
	}

	for _, c := range n.Children {
		if idx, ok := b.node(c); ok {
			gn.Children = append(gn.Children, idx)
		}
	}

	b.doc.Nodes = append(b.doc.Nodes, gn)
	return len(b.doc.Nodes) - 1, true
}

func (b *docBuilder) material(color [4]float64, doubleSided bool) int {
	key := materialKey{color, doubleSided}
	if idx, ok := b.materials[key]; ok {
		return idx
	}

	metallic := 0.0
	base := color
	m := &gltf.Material{
		Name:        fmt.Sprintf("material%d", len(b.doc.Materials)),
		DoubleSided: doubleSided,
		PBRMetallicRoughness: &gltf.PBRMetallicRoughness{
			BaseColorFactor: &base,
			MetallicFactor:  &metallic,
		},
	}
	if color[3] < 1 {
		m.AlphaMode = gltf.AlphaBlend
	}

	b.doc.Materials = append(b.doc.Materials, m)
	idx := len(b.doc.Materials) - 1
	b.materials[key] = idx
	return idx
}

// mesh writes the geometry of m once and returns a glTF mesh index that
// pairs it with material mat.
func (b *docBuilder) mesh(m *Mesh, mat int) int {
	if b.gltfMesh == nil {
		b.gltfMesh = make(map[meshKey]int)
	}
	key := meshKey{m, mat}
	if idx, ok := b.gltfMesh[key]; ok {
		return idx
	}

	geo, ok := b.meshes[m]
	if !ok {
		positions := make([][3]float32, len(m.Vertices))
		normals := make([][3]float32, len(m.Vertices))
		uvs := make([][2]float32, len(m.Vertices))
		tangents := make([][4]float32, len(m.Vertices))
		for i, v := range m.Vertices {
			positions[i] = [3]float32{float32(v.Position.X), float32(v.Position.Y), float32(v.Position.Z)}
			normals[i] = [3]float32{float32(v.Normal.X), float32(v.Normal.Y), float32(v.Normal.Z)}
			uvs[i] = [2]float32{float32(v.UV.X), float32(1 - v.UV.Y)}
			tangents[i] = [4]float32{float32(v.Tangent.X), float32(v.Tangent.Y), float32(v.Tangent.Z), 1}
		}
		indices := make([]uint32, 0, len(m.Faces)*3)
		for _, f := range m.Faces {
			indices = append(indices, uint32(f.V[0]), uint32(f.V[1]), uint32(f.V[2]))
		}

		b.prims = append(b.prims, map[string]int{
			gltf.POSITION:   modeler.WritePosition(b.doc, positions),
			gltf.NORMAL:     modeler.WriteNormal(b.doc, normals),
			gltf.TEXCOORD_0: modeler.WriteTextureCoord(b.doc, uvs),
			gltf.TANGENT:    modeler.WriteTangent(b.doc, tangents),
		})
		b.indices = append(b.indices, modeler.WriteIndices(b.doc, indices))
		geo = len(b.prims) - 1
		b.meshes[m] = geo
	}

	indices := b.indices[geo]
	material := mat
	b.doc.Meshes = append(b.doc.Meshes, &gltf.Mesh{
		Name: m.Name,
		Primitives: []*gltf.Primitive{{
			Attributes: b.prims[geo],
			Indices:    &indices,
			Material:   &material,
			Mode:       gltf.PrimitiveTriangles,
		}},
	})
	idx := len(b.doc.Meshes) - 1
	b.gltfMesh[key] = idx
	return idx
}
