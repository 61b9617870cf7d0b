package scene

import (
	"github.com/taigrr/tablescene/pkg/math3d"
	"github.com/taigrr/tablescene/pkg/render"
)

// Appearance is render state a node binds for its subtree.
type Appearance interface {
	Load(st *State)
	Unload(st *State)
}

// Material is a Phong material appearance.
type Material struct {
	render.Material
}

// NewMaterial returns a material with the given ambient and diffuse
// color, white specular and shininess 16.
func NewMaterial(r, g, b, a float64) *Material {
	c := math3d.V4(r, g, b, a)
	return &Material{render.Material{
		Ambient:   c,
		Diffuse:   c,
		Specular:  math3d.V4(1, 1, 1, 1),
		Shininess: 16,
	}}
}

// SetSpecular sets the specular color.
func (m *Material) SetSpecular(r, g, b, a float64) *Material {
	m.Specular = math3d.V4(r, g, b, a)
	return m
}

// SetShininess sets the specular exponent.
func (m *Material) SetShininess(s float64) *Material {
	m.Shininess = s
	return m
}

func (m *Material) Load(st *State) {
	st.materials = append(st.materials, m.Material)
}

func (m *Material) Unload(st *State) {
	st.materials = st.materials[:len(st.materials)-1]
}

// Texture binds an image to a named texture unit.
type Texture struct {
	Unit  render.TextureUnit
	Image *render.Texture
}

// NewTexture binds img to unit.
func NewTexture(unit render.TextureUnit, img *render.Texture) *Texture {
	return &Texture{Unit: unit, Image: img}
}

// NewColorTexture binds a 1x1 texture of the given color to unit.
func NewColorTexture(unit render.TextureUnit, r, g, b float64) *Texture {
	c := render.Vec4ToColor(math3d.V4(r, g, b, 1))
	return NewTexture(unit, render.NewSolidTexture(c))
}

func (t *Texture) Load(st *State) {
	st.saved = append(st.saved, textureBinding{unit: t.Unit, tex: st.textures[t.Unit]})
	st.textures[t.Unit] = t.Image
}

func (t *Texture) Unload(st *State) {
	b := st.saved[len(st.saved)-1]
	st.saved = st.saved[:len(st.saved)-1]
	if b.tex == nil {
		delete(st.textures, b.unit)
		return
	}
	st.textures[b.unit] = b.tex
}

// Space names the coordinate frame a light position is given in.
type Space int

const (
	SpaceWorld Space = iota
	// SpaceCamera positions move with the viewer.
	SpaceCamera
)

func (s Space) String() string {
	if s == SpaceCamera {
		return "camera"
	}
	return "world"
}

// ParseSpace converts "world" or "camera".
func ParseSpace(s string) (Space, bool) {
	switch s {
	case "world", "":
		return SpaceWorld, true
	case "camera":
		return SpaceCamera, true
	}
	return SpaceWorld, false
}

// Light is a point light.
type Light struct {
	Position math3d.Vec3
	Space    Space

	Ambient  math3d.Vec3
	Diffuse  math3d.Vec3
	Specular math3d.Vec3
}

// NewLight returns a white light at (x, y, z) in space.
func NewLight(x, y, z float64, space Space) *Light {
	return &Light{
		Position: math3d.V3(x, y, z),
		Space:    space,
		Ambient:  math3d.V3(0.2, 0.2, 0.2),
		Diffuse:  math3d.V3(1, 1, 1),
		Specular: math3d.V3(1, 1, 1),
	}
}

// WorldPosition returns the light position in world space for a camera
// with the given view matrix.
func (l *Light) WorldPosition(view math3d.Mat4) math3d.Vec3 {
	if l.Space == SpaceCamera {
		return view.Inverse().MulVec3(l.Position)
	}
	return l.Position
}
