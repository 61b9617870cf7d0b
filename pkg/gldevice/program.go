package gldevice

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-gl/gl/v4.1-core/gl"
	"github.com/go-gl/mathgl/mgl32"

	"github.com/taigrr/tablescene/pkg/math3d"
	"github.com/taigrr/tablescene/pkg/render"
)

const (
	uniformHasBump   = "hasBump"
	uniformBumpScale = "bumpScale"
)

// ErrMissingSource is returned by NewProgram when a GLSL stage is empty.
var ErrMissingSource = errors.New("gldevice: program needs vertex and fragment source")

// program is a linked GL program. Uniforms are written with
// glProgramUniform so they can be set while another program is bound.
type program struct {
	id        uint32
	desc      render.ProgramDesc
	d         *Device
	locations map[string]int32
}

// NewProgram implements render.Device.
func (d *Device) NewProgram(desc render.ProgramDesc) (render.Program, error) {
	if desc.VertexSource == "" || desc.FragmentSource == "" {
		return nil, fmt.Errorf("%s: %w", desc.Name, ErrMissingSource)
	}

	vs, err := compileShader(desc.VertexSource, gl.VERTEX_SHADER)
	if err != nil {
		return nil, fmt.Errorf("%s vertex shader: %w", desc.Name, err)
	}
	defer gl.DeleteShader(vs)

	fs, err := compileShader(desc.FragmentSource, gl.FRAGMENT_SHADER)
	if err != nil {
		return nil, fmt.Errorf("%s fragment shader: %w", desc.Name, err)
	}
	defer gl.DeleteShader(fs)

	id := gl.CreateProgram()
	gl.AttachShader(id, vs)
	gl.AttachShader(id, fs)
	gl.LinkProgram(id)

	var status int32
	gl.GetProgramiv(id, gl.LINK_STATUS, &status)
	if status == gl.FALSE {
		log := infoLog(id, gl.GetProgramiv, gl.GetProgramInfoLog)
		gl.DeleteProgram(id)
		return nil, fmt.Errorf("failed to link program %s: %s", desc.Name, log)
	}

	p := &program{id: id, desc: desc, d: d, locations: make(map[string]int32)}
	if desc.Shading == render.ShadingPhong {
		p.SetInt(string(render.TextureDecal), decalUnit)
		p.SetInt(string(render.TextureBump), bumpUnit)
		p.SetFloat(uniformBumpScale, render.BumpScale)
		p.SetFloat(render.UniformFogStart, render.DefaultFogStart)
		p.SetFloat(render.UniformFogEnd, render.DefaultFogEnd)
	} else {
		p.SetVec4(render.UniformShadowColor, render.DefaultShadowColor)
	}
	return p, nil
}

func compileShader(source string, kind uint32) (uint32, error) {
	shader := gl.CreateShader(kind)

	csources, free := gl.Strs(source + "\x00")
	gl.ShaderSource(shader, 1, csources, nil)
	free()
	gl.CompileShader(shader)

	var status int32
	gl.GetShaderiv(shader, gl.COMPILE_STATUS, &status)
	if status == gl.FALSE {
		log := infoLog(shader, gl.GetShaderiv, gl.GetShaderInfoLog)
		gl.DeleteShader(shader)
		return 0, fmt.Errorf("compile failed: %s", log)
	}
	return shader, nil
}

func infoLog(
	id uint32,
	getiv func(uint32, uint32, *int32),
	getLog func(uint32, int32, *int32, *uint8),
) string {
	var n int32
	getiv(id, gl.INFO_LOG_LENGTH, &n)
	if n <= 0 {
		return "no info log"
	}
	log := strings.Repeat("\x00", int(n+1))
	getLog(id, n, nil, gl.Str(log))
	return strings.TrimRight(log, "\x00\n")
}

func (p *program) location(name string) int32 {
	if loc, ok := p.locations[name]; ok {
		return loc
	}
	loc := gl.GetUniformLocation(p.id, gl.Str(name+"\x00"))
	p.locations[name] = loc
	return loc
}

func (p *program) Desc() render.ProgramDesc { return p.desc }

func (p *program) Use() {
	gl.UseProgram(p.id)
	p.d.current = p
}

func (p *program) Unuse() {
	if p.d.current == p {
		gl.UseProgram(0)
		p.d.current = nil
	}
}

func (p *program) SetInt(name string, v int) {
	if loc := p.location(name); loc >= 0 {
		gl.ProgramUniform1i(p.id, loc, int32(v))
	}
}

func (p *program) SetFloat(name string, v float64) {
	if loc := p.location(name); loc >= 0 {
		gl.ProgramUniform1f(p.id, loc, float32(v))
	}
}

func (p *program) SetVec3(name string, v math3d.Vec3) {
	if loc := p.location(name); loc >= 0 {
		gv := vec3(v)
		gl.ProgramUniform3f(p.id, loc, gv.X(), gv.Y(), gv.Z())
	}
}

func (p *program) SetVec4(name string, v math3d.Vec4) {
	if loc := p.location(name); loc >= 0 {
		gv := vec4(v)
		gl.ProgramUniform4f(p.id, loc, gv.X(), gv.Y(), gv.Z(), gv.W())
	}
}

func (p *program) SetMat4(name string, m math3d.Mat4) {
	if loc := p.location(name); loc >= 0 {
		gm := mat4(m)
		gl.ProgramUniformMatrix4fv(p.id, loc, 1, false, &gm[0])
	}
}

func vec3(v math3d.Vec3) mgl32.Vec3 {
	return mgl32.Vec3{float32(v.X), float32(v.Y), float32(v.Z)}
}

func vec4(v math3d.Vec4) mgl32.Vec4 {
	return mgl32.Vec4{float32(v.X), float32(v.Y), float32(v.Z), float32(v.W)}
}

// mat4 narrows m. Both layouts are column-major.
func mat4(m math3d.Mat4) mgl32.Mat4 {
	var out mgl32.Mat4
	for i, v := range m {
		out[i] = float32(v)
	}
	return out
}
