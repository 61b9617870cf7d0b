// Package scene is a small retained-mode scene graph. A Node binds a
// shader, transform and appearances for its subtree and either draws
// meshes or recurses into children. Subtrees may be shared: the same
// node can be the child of several parents and is drawn once per parent.
package scene

import (
	"fmt"

	"github.com/google/uuid"

	"github.com/taigrr/tablescene/pkg/math3d"
	"github.com/taigrr/tablescene/pkg/models"
)

// idSpace is the namespace node IDs are derived in.
var idSpace = uuid.NewSHA1(uuid.NameSpaceURL, []byte("https://github.com/taigrr/tablescene/scene"))

// Node is a scene graph element. A node with meshes is a leaf; a node
// with children is a group. Nodes are immutable after construction.
type Node struct {
	Name string
	// ID is derived from Name, so rebuilding a graph yields the same IDs.
	ID uuid.UUID

	shader      *Shader
	transform   *Transform
	appearances []Appearance
	meshes      []*models.Mesh
	children    []*Node
}

// Option configures a Node.
type Option func(*Node)

// WithShader binds sh for the subtree.
func WithShader(sh *Shader) Option {
	return func(n *Node) { n.shader = sh }
}

// WithTransform sets the node transform.
func WithTransform(t *Transform) Option {
	return func(n *Node) { n.transform = t }
}

// WithAppearance binds materials and textures for the subtree.
func WithAppearance(a ...Appearance) Option {
	return func(n *Node) { n.appearances = append(n.appearances, a...) }
}

// WithMeshes makes the node a leaf drawing meshes.
func WithMeshes(m ...*models.Mesh) Option {
	return func(n *Node) { n.meshes = append(n.meshes, m...) }
}

// WithChildren makes the node a group. Children are referenced, not
// copied.
func WithChildren(c ...*Node) Option {
	return func(n *Node) { n.children = append(n.children, c...) }
}

// NewNode creates a node. It panics if the node has both meshes and
// children.
func NewNode(name string, opts ...Option) *Node {
	n := &Node{Name: name, ID: uuid.NewSHA1(idSpace, []byte(name))}
	for _, opt := range opts {
		opt(n)
	}
	if len(n.meshes) > 0 && len(n.children) > 0 {
		panic(fmt.Sprintf("scene: node %q has both meshes and children", name))
	}
	return n
}

func (n *Node) Shader() *Shader { return n.shader }
func (n *Node) Transform() *Transform { return n.transform }
func (n *Node) Appearances() []Appearance { return n.appearances }
func (n *Node) Meshes() []*models.Mesh { return n.meshes }
func (n *Node) Children() []*Node { return n.children }
func (n *Node) IsGroup() bool { return len(n.children) > 0 }

// Matrix returns the node's local matrix.
func (n *Node) Matrix() math3d.Mat4 {
	if n.transform == nil {
		return math3d.Identity()
	}
	return n.transform.Matrix()
}

// Render draws the subtree. State bound at this node is unbound on
// return.
func (n *Node) Render(st *State) {
	if n.shader != nil {
		n.shader.Load(st)
		defer n.shader.Unload(st)
	}
	if n.transform != nil {
		st.PushMatrix(n.transform.Matrix())
		defer st.PopMatrix()
	}
	for _, a := range n.appearances {
		a.Load(st)
	}
	for _, m := range n.meshes {
		st.Draw(m)
	}
	for _, c := range n.children {
		c.Render(st)
	}
	for i := len(n.appearances) - 1; i >= 0; i-- {
		n.appearances[i].Unload(st)
	}
}

// Walk visits the subtree depth-first, passing each node with its model
// matrix relative to n's parent. Returning false skips a node's children.
func (n *Node) Walk(fn func(node *Node, model math3d.Mat4) bool) {
	n.walk(math3d.Identity(), fn)
}

func (n *Node) walk(parent math3d.Mat4, fn func(*Node, math3d.Mat4) bool) {
	model := parent.Mul(n.Matrix())
	if !fn(n, model) {
		return
	}
	for _, c := range n.children {
		c.walk(model, fn)
	}
}

// Count returns the number of nodes visited when walking the subtree.
// Shared subtrees count once per reference.
func (n *Node) Count() int {
	count := 0
	n.Walk(func(*Node, math3d.Mat4) bool {
		count++
		return true
	})
	return count
}

// Export converts the subtree for glTF export. Leaf colors come from the
// node's first material.
func (n *Node) Export() *models.ExportNode {
	out := &models.ExportNode{
		Name:   n.Name,
		ID:     n.ID.String(),
		Matrix: n.Matrix(),
		Meshes: n.meshes,
		Color:  [4]float64{1, 1, 1, 1},
	}
	for _, a := range n.appearances {
		if m, ok := a.(*Material); ok {
			d := m.Diffuse
			out.Color = [4]float64{d.X, d.Y, d.Z, d.W}
			break
		}
	}
	for _, c := range n.children {
		out.Children = append(out.Children, c.Export())
	}
	return out
}
