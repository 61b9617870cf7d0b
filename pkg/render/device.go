package render

import (
	"github.com/taigrr/tablescene/pkg/math3d"
	"github.com/taigrr/tablescene/pkg/models"
)

// Device is a rendering backend: a color/depth/stencil target plus the
// fixed-function state and programs that draw into it.
type Device interface {
	// Apply replaces the whole fixed-function state.
	Apply(State)
	State() State
	SetClearColor(c math3d.Vec4)
	Clear(ClearMask)
	NewProgram(ProgramDesc) (Program, error)
	Draw(DrawCall)
	Size() (width, height int)
}

// ShadingModel selects how a program colors fragments.
type ShadingModel int

const (
	// ShadingPhong is per-fragment Phong lighting with decal texture,
	// linear fog and optional bump mapping.
	ShadingPhong ShadingModel = iota
	// ShadingFlat writes the shadowColor uniform.
	ShadingFlat
)

func (m ShadingModel) String() string {
	if m == ShadingFlat {
		return "flat"
	}
	return "phong"
}

// ProgramDesc describes a program to build. Backends that compile shaders
// use the GLSL sources; the software device uses Shading.
type ProgramDesc struct {
	Name           string
	Shading        ShadingModel
	VertexSource   string
	FragmentSource string
}

// Program is a linked shader program and its uniform values.
type Program interface {
	Desc() ProgramDesc
	// Use makes the program current for draws that do not name one.
	Use()
	Unuse()
	SetInt(name string, v int)
	SetFloat(name string, v float64)
	SetVec3(name string, v math3d.Vec3)
	SetVec4(name string, v math3d.Vec4)
	SetMat4(name string, m math3d.Mat4)
}

// Uniform names shared by the GLSL sources and the software shaders.
const (
	UniformProjection    = "projection"
	UniformView          = "view"
	UniformModel         = "model"
	UniformEye           = "eyePosition"
	UniformLightPosition = "lightPosition"
	UniformLightAmbient  = "lightAmbient"
	UniformLightDiffuse  = "lightDiffuse"
	UniformLightSpecular = "lightSpecular"
	UniformFogColor      = "fogColor"
	UniformFogStart      = "fogStart"
	UniformFogEnd        = "fogEnd"
	UniformUseFog        = "useFog"
	UniformUseBump       = "useBump"
	UniformShadowColor   = "shadowColor"

	UniformMaterialAmbient   = "materialAmbient"
	UniformMaterialDiffuse   = "materialDiffuse"
	UniformMaterialSpecular  = "materialSpecular"
	UniformMaterialShininess = "materialShininess"
)

// Default fog range in eye-space distance.
const (
	DefaultFogStart = 4.0
	DefaultFogEnd   = 14.0
)

// TextureUnit names a texture binding slot.
type TextureUnit string

const (
	TextureDecal TextureUnit = "decal"
	TextureBump  TextureUnit = "bumpTex"
)

// Material is a Phong surface description. Diffuse alpha is the surface
// opacity.
type Material struct {
	Ambient   math3d.Vec4
	Diffuse   math3d.Vec4
	Specular  math3d.Vec4
	Shininess float64
}

// DrawCall is one mesh drawn under the current state.
type DrawCall struct {
	Mesh     *models.Mesh
	Model    math3d.Mat4
	Material Material
	Textures map[TextureUnit]*Texture
	// Program overrides the current program when set.
	Program Program
}
