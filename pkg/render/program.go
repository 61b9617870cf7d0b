package render

import (
	"github.com/taigrr/tablescene/pkg/math3d"
)

// Uniforms is a name-keyed uniform store.
type Uniforms struct {
	ints   map[string]int
	floats map[string]float64
	vec3s  map[string]math3d.Vec3
	vec4s  map[string]math3d.Vec4
	mat4s  map[string]math3d.Mat4
}

// NewUniforms creates an empty store.
func NewUniforms() *Uniforms {
	return &Uniforms{
		ints:   make(map[string]int),
		floats: make(map[string]float64),
		vec3s:  make(map[string]math3d.Vec3),
		vec4s:  make(map[string]math3d.Vec4),
		mat4s:  make(map[string]math3d.Mat4),
	}
}

func (u *Uniforms) SetInt(name string, v int) { u.ints[name] = v }
func (u *Uniforms) SetFloat(name string, v float64) { u.floats[name] = v }
func (u *Uniforms) SetVec3(name string, v math3d.Vec3) { u.vec3s[name] = v }
func (u *Uniforms) SetVec4(name string, v math3d.Vec4) { u.vec4s[name] = v }
func (u *Uniforms) SetMat4(name string, m math3d.Mat4) { u.mat4s[name] = m }
func (u *Uniforms) Int(name string) int { return u.ints[name] }
func (u *Uniforms) Float(name string) float64 { return u.floats[name] }
func (u *Uniforms) Vec3(name string) math3d.Vec3 { return u.vec3s[name] }
func (u *Uniforms) Vec4(name string) math3d.Vec4 { return u.vec4s[name] }

// Mat4 returns the named matrix, or identity if it was never set.
func (u *Uniforms) Mat4(name string) math3d.Mat4 {
	if m, ok := u.mat4s[name]; ok {
		return m
	}
	return math3d.Identity()
}

// softProgram is the Rasterizer's Program. Shading is done in Go by the
// model named in the description.
type softProgram struct {
	*Uniforms
	desc ProgramDesc
	r    *Rasterizer
}

func (p *softProgram) Desc() ProgramDesc { return p.desc }

func (p *softProgram) Use() { p.r.current = p }

func (p *softProgram) Unuse() {
	if p.r.current == p {
		p.r.current = nil
	}
}
