package scene

import (
	"maps"

	"github.com/taigrr/tablescene/pkg/math3d"
	"github.com/taigrr/tablescene/pkg/models"
	"github.com/taigrr/tablescene/pkg/render"
)

// State is the traversal context of one render: the device and camera,
// plus the matrix, shader, material and texture stacks nodes push onto.
type State struct {
	Device render.Device
	Camera *render.Camera

	// Draws counts meshes submitted since NewState.
	Draws int

	matrices  []math3d.Mat4
	shaders   []*Shader
	materials []render.Material
	textures  map[render.TextureUnit]*render.Texture
	saved     []textureBinding
}

type textureBinding struct {
	unit render.TextureUnit
	tex  *render.Texture
}

// DefaultMaterial is drawn when no material is loaded.
var DefaultMaterial = render.Material{
	Ambient:   math3d.V4(1, 1, 1, 1),
	Diffuse:   math3d.V4(1, 1, 1, 1),
	Specular:  math3d.V4(0, 0, 0, 1),
	Shininess: 1,
}

// NewState creates a traversal context.
func NewState(dev render.Device, cam *render.Camera) *State {
	return &State{
		Device:   dev,
		Camera:   cam,
		matrices: []math3d.Mat4{math3d.Identity()},
		textures: make(map[render.TextureUnit]*render.Texture),
	}
}

// PushMatrix post-multiplies m onto the current model matrix.
func (st *State) PushMatrix(m math3d.Mat4) {
	st.matrices = append(st.matrices, st.Matrix().Mul(m))
}

// PopMatrix restores the previous model matrix.
func (st *State) PopMatrix() {
	if len(st.matrices) > 1 {
		st.matrices = st.matrices[:len(st.matrices)-1]
	}
}

// Matrix returns the current model matrix.
func (st *State) Matrix() math3d.Mat4 {
	return st.matrices[len(st.matrices)-1]
}

// Shader returns the innermost loaded shader, or nil.
func (st *State) Shader() *Shader {
	if len(st.shaders) == 0 {
		return nil
	}
	return st.shaders[len(st.shaders)-1]
}

// Material returns the innermost loaded material.
func (st *State) Material() render.Material {
	if len(st.materials) == 0 {
		return DefaultMaterial
	}
	return st.materials[len(st.materials)-1]
}

// Texture returns the image bound to unit, or nil.
func (st *State) Texture(unit render.TextureUnit) *render.Texture {
	return st.textures[unit]
}

// View returns the camera view matrix.
func (st *State) View() math3d.Mat4 {
	if st.Camera == nil {
		return math3d.Identity()
	}
	return st.Camera.ViewMatrix()
}

// Projection returns the camera projection matrix.
func (st *State) Projection() math3d.Mat4 {
	if st.Camera == nil {
		return math3d.Identity()
	}
	return st.Camera.ProjectionMatrix()
}

// Eye returns the camera position in world space.
func (st *State) Eye() math3d.Vec3 {
	if st.Camera == nil {
		return math3d.Vec3{}
	}
	return st.Camera.EyePosition()
}

// Draw submits mesh with the current matrix, material, textures and
// shader. Without a linked shader nothing is drawn.
func (st *State) Draw(mesh *models.Mesh) {
	sh := st.Shader()
	if sh == nil || sh.program == nil || st.Device == nil {
		return
	}
	st.Device.Draw(render.DrawCall{
		Mesh:     mesh,
		Model:    st.Matrix(),
		Material: st.Material(),
		Textures: maps.Clone(st.textures),
		Program:  sh.program,
	})
	st.Draws++
}

func vec3(x, y, z float64) math3d.Vec3 { return math3d.V3(x, y, z) }

func vec4(x, y, z, w float64) math3d.Vec4 { return math3d.V4(x, y, z, w) }
