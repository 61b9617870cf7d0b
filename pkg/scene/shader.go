package scene

import (
	"errors"
	"fmt"

	"github.com/taigrr/tablescene/pkg/render"
)

var (
	// ErrNotLinked is returned when setting uniforms before Link.
	ErrNotLinked = errors.New("scene: shader is not linked")
	// ErrNoSource is returned by Link when a stage has no source.
	ErrNoSource = errors.New("scene: shader has no source")
)

// Shader is a program plus the light it shades with. Loading a shader
// makes it current for the draws of a subtree and uploads the camera and
// light uniforms.
type Shader struct {
	Name    string
	Shading render.ShadingModel
	Light   *Light

	vertex, fragment string
	program          render.Program
}

// NewShader creates an unlinked shader.
func NewShader(name string, shading render.ShadingModel, light *Light) *Shader {
	return &Shader{Name: name, Shading: shading, Light: light}
}

// AttachVertexSource sets the vertex stage source.
func (s *Shader) AttachVertexSource(src string) *Shader {
	s.vertex = src
	return s
}

// AttachFragmentSource sets the fragment stage source.
func (s *Shader) AttachFragmentSource(src string) *Shader {
	s.fragment = src
	return s
}

// Link builds the program on dev.
func (s *Shader) Link(dev render.Device) error {
	if s.vertex == "" || s.fragment == "" {
		return fmt.Errorf("%s: %w", s.Name, ErrNoSource)
	}
	p, err := dev.NewProgram(render.ProgramDesc{
		Name:           s.Name,
		Shading:        s.Shading,
		VertexSource:   s.vertex,
		FragmentSource: s.fragment,
	})
	if err != nil {
		return fmt.Errorf("failed to link shader %s: %w", s.Name, err)
	}
	s.program = p
	return nil
}

// Linked reports whether Link succeeded.
func (s *Shader) Linked() bool {
	return s.program != nil
}

// Program returns the linked program, or nil.
func (s *Shader) Program() render.Program {
	return s.program
}

// SetInt sets an integer uniform.
func (s *Shader) SetInt(name string, v int) error {
	if s.program == nil {
		return fmt.Errorf("%s: set %s: %w", s.Name, name, ErrNotLinked)
	}
	s.program.SetInt(name, v)
	return nil
}

// SetFloat sets a float uniform.
func (s *Shader) SetFloat(name string, v float64) error {
	if s.program == nil {
		return fmt.Errorf("%s: set %s: %w", s.Name, name, ErrNotLinked)
	}
	s.program.SetFloat(name, v)
	return nil
}

// SetVec3 sets a vec3 uniform.
func (s *Shader) SetVec3(name string, x, y, z float64) error {
	if s.program == nil {
		return fmt.Errorf("%s: set %s: %w", s.Name, name, ErrNotLinked)
	}
	s.program.SetVec3(name, vec3(x, y, z))
	return nil
}

// SetVec4 sets a vec4 uniform.
func (s *Shader) SetVec4(name string, x, y, z, w float64) error {
	if s.program == nil {
		return fmt.Errorf("%s: set %s: %w", s.Name, name, ErrNotLinked)
	}
	s.program.SetVec4(name, vec4(x, y, z, w))
	return nil
}

// Load makes s current and uploads the per-frame uniforms. Unlinked
// shaders are pushed but draw nothing.
func (s *Shader) Load(st *State) {
	st.shaders = append(st.shaders, s)
	if s.program == nil {
		return
	}
	s.upload(st)
	s.program.Use()
}

// Unload restores the previously loaded shader.
func (s *Shader) Unload(st *State) {
	st.shaders = st.shaders[:len(st.shaders)-1]
	if s.program != nil {
		s.program.Unuse()
	}
	if prev := st.Shader(); prev != nil && prev.program != nil {
		prev.program.Use()
	}
}

func (s *Shader) upload(st *State) {
	p := s.program
	view := st.View()
	p.SetMat4(render.UniformProjection, st.Projection())
	p.SetMat4(render.UniformView, view)
	p.SetVec3(render.UniformEye, st.Eye())

	if s.Light != nil {
		p.SetVec3(render.UniformLightPosition, s.Light.WorldPosition(view))
		p.SetVec3(render.UniformLightAmbient, s.Light.Ambient)
		p.SetVec3(render.UniformLightDiffuse, s.Light.Diffuse)
		p.SetVec3(render.UniformLightSpecular, s.Light.Specular)
	}
}
