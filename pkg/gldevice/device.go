// Package gldevice implements render.Device on an OpenGL 4.1 core context.
//
// All methods must be called from the goroutine that owns the context.
package gldevice

import (
	"fmt"

	"github.com/go-gl/gl/v4.1-core/gl"

	"github.com/taigrr/tablescene/pkg/math3d"
	"github.com/taigrr/tablescene/pkg/models"
	"github.com/taigrr/tablescene/pkg/render"
)

// Texture units used for the named bindings.
const (
	decalUnit = 0
	bumpUnit  = 1
)

// Device draws with OpenGL. It caches one vertex array per mesh and one
// GL texture per render.Texture.
type Device struct {
	width, height int
	state         render.State
	clearColor    math3d.Vec4

	current  *program
	meshes   map[*models.Mesh]*meshBuffers
	textures map[*render.Texture]uint32
	white    *render.Texture
}

// New loads the GL entry points for the current context and returns a
// device drawing into a width x height viewport.
func New(width, height int) (*Device, error) {
	if err := gl.Init(); err != nil {
		return nil, fmt.Errorf("failed to initialize OpenGL: %w", err)
	}
	d := &Device{
		meshes:   make(map[*models.Mesh]*meshBuffers),
		textures: make(map[*render.Texture]uint32),
		white:    render.NewSolidTexture(render.RGB(255, 255, 255)),
	}
	d.Resize(width, height)
	d.Apply(render.DefaultState())
	return d, nil
}

// Version returns the GL version string of the context.
func (d *Device) Version() string {
	return gl.GoStr(gl.GetString(gl.VERSION))
}

// Resize sets the viewport.
func (d *Device) Resize(width, height int) {
	d.width, d.height = width, height
	gl.Viewport(0, 0, int32(width), int32(height))
}

// Size implements render.Device.
func (d *Device) Size() (int, int) {
	return d.width, d.height
}

// State implements render.Device.
func (d *Device) State() render.State {
	return d.state
}

// Apply implements render.Device.
func (d *Device) Apply(s render.State) {
	d.state = s

	gl.ColorMask(s.ColorWrite, s.ColorWrite, s.ColorWrite, s.ColorWrite)

	enable(gl.DEPTH_TEST, s.DepthTest)
	gl.DepthMask(s.DepthWrite)
	gl.DepthFunc(compareFunc(s.DepthFunc))

	enable(gl.STENCIL_TEST, s.Stencil.Enabled)
	gl.StencilFunc(compareFunc(s.Stencil.Func), int32(s.Stencil.Ref), uint32(s.Stencil.ReadMask))
	gl.StencilOp(stencilOp(s.Stencil.Fail), stencilOp(s.Stencil.DepthFail), stencilOp(s.Stencil.Pass))
	gl.StencilMask(uint32(s.Stencil.WriteMask))

	switch s.Cull {
	case render.CullNone:
		gl.Disable(gl.CULL_FACE)
	case render.CullFront:
		gl.Enable(gl.CULL_FACE)
		gl.CullFace(gl.FRONT)
	default:
		gl.Enable(gl.CULL_FACE)
		gl.CullFace(gl.BACK)
	}
	gl.FrontFace(gl.CCW)

	enable(gl.BLEND, s.Blend.Enabled)
	gl.BlendFunc(blendFactor(s.Blend.Src), blendFactor(s.Blend.Dst))

	enable(gl.POLYGON_OFFSET_FILL, s.Offset.Enabled)
	gl.PolygonOffset(float32(s.Offset.Factor), float32(s.Offset.Units))
}

// SetClearColor implements render.Device.
func (d *Device) SetClearColor(c math3d.Vec4) {
	d.clearColor = c
	gl.ClearColor(float32(c.X), float32(c.Y), float32(c.Z), float32(c.W))
}

// Clear implements render.Device.
func (d *Device) Clear(mask render.ClearMask) {
	var bits uint32
	if mask&render.ClearColor != 0 {
		bits |= gl.COLOR_BUFFER_BIT
	}
	if mask&render.ClearDepth != 0 {
		bits |= gl.DEPTH_BUFFER_BIT
	}
	if mask&render.ClearStencil != 0 {
		bits |= gl.STENCIL_BUFFER_BIT
	}
	if bits != 0 {
		gl.ClearStencil(0)
		gl.ClearDepth(1)
		gl.Clear(bits)
	}
}

// Draw implements render.Device.
func (d *Device) Draw(call render.DrawCall) {
	if call.Mesh == nil || len(call.Mesh.Faces) == 0 {
		return
	}
	p := d.current
	if call.Program != nil {
		gp, ok := call.Program.(*program)
		if !ok {
			return
		}
		p = gp
	}
	if p == nil {
		return
	}

	gl.UseProgram(p.id)
	p.SetMat4(render.UniformModel, call.Model)
	if p.desc.Shading == render.ShadingPhong {
		p.SetVec4(render.UniformMaterialAmbient, call.Material.Ambient)
		p.SetVec4(render.UniformMaterialDiffuse, call.Material.Diffuse)
		p.SetVec4(render.UniformMaterialSpecular, call.Material.Specular)
		p.SetFloat(render.UniformMaterialShininess, call.Material.Shininess)

		decal := call.Textures[render.TextureDecal]
		if decal == nil {
			decal = d.white
		}
		d.bindTexture(decalUnit, decal)

		bump := call.Textures[render.TextureBump]
		if bump != nil {
			d.bindTexture(bumpUnit, bump)
			p.SetInt(uniformHasBump, 1)
		} else {
			p.SetInt(uniformHasBump, 0)
		}
	}

	mb := d.meshBuffers(call.Mesh)
	gl.BindVertexArray(mb.vao)
	gl.DrawElements(gl.TRIANGLES, mb.count, gl.UNSIGNED_INT, nil)
	gl.BindVertexArray(0)
}

// Release frees the cached GL objects.
func (d *Device) Release() {
	for _, mb := range d.meshes {
		mb.release()
	}
	clear(d.meshes)
	for _, id := range d.textures {
		gl.DeleteTextures(1, &id)
	}
	clear(d.textures)
}

func enable(capability uint32, on bool) {
	if on {
		gl.Enable(capability)
	} else {
		gl.Disable(capability)
	}
}

func compareFunc(f render.CompareFunc) uint32 {
	switch f {
	case render.Never:
		return gl.NEVER
	case render.Less:
		return gl.LESS
	case render.LessEqual:
		return gl.LEQUAL
	case render.Equal:
		return gl.EQUAL
	case render.Greater:
		return gl.GREATER
	case render.NotEqual:
		return gl.NOTEQUAL
	case render.GreaterEqual:
		return gl.GEQUAL
	default:
		return gl.ALWAYS
	}
}

func stencilOp(op render.StencilOp) uint32 {
	switch op {
	case render.Zero:
		return gl.ZERO
	case render.Replace:
		return gl.REPLACE
	case render.Incr:
		return gl.INCR
	case render.Decr:
		return gl.DECR
	case render.Invert:
		return gl.INVERT
	default:
		return gl.KEEP
	}
}

func blendFactor(f render.BlendFactor) uint32 {
	switch f {
	case render.BlendZero:
		return gl.ZERO
	case render.BlendSrcAlpha:
		return gl.SRC_ALPHA
	case render.BlendOneMinusSrcAlpha:
		return gl.ONE_MINUS_SRC_ALPHA
	default:
		return gl.ONE
	}
}
