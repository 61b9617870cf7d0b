package scene

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/taigrr/tablescene/pkg/math3d"
	"github.com/taigrr/tablescene/pkg/models"
	"github.com/taigrr/tablescene/pkg/render"
)

type fakeProgram struct {
	*render.Uniforms
	desc  render.ProgramDesc
	inUse bool
}

func (p *fakeProgram) Desc() render.ProgramDesc { return p.desc }
func (p *fakeProgram) Use() { p.inUse = true }
func (p *fakeProgram) Unuse() { p.inUse = false }

// recordingDevice records draw calls instead of rasterizing.
type recordingDevice struct {
	state    render.State
	calls    []render.DrawCall
	programs []*fakeProgram
	linkErr  error
}

func (d *recordingDevice) Apply(s render.State) { d.state = s }
func (d *recordingDevice) State() render.State { return d.state }
func (d *recordingDevice) SetClearColor(math3d.Vec4) {}
func (d *recordingDevice) Clear(render.ClearMask) {}
func (d *recordingDevice) Draw(call render.DrawCall) { d.calls = append(d.calls, call) }
func (d *recordingDevice) Size() (int, int) { return 64, 48 }

func (d *recordingDevice) NewProgram(desc render.ProgramDesc) (render.Program, error) {
	if d.linkErr != nil {
		return nil, d.linkErr
	}
	p := &fakeProgram{Uniforms: render.NewUniforms(), desc: desc}
	d.programs = append(d.programs, p)
	return p, nil
}

func linkedShader(t *testing.T, dev render.Device, light *Light) *Shader {
	t.Helper()
	sh := NewShader("test", render.ShadingPhong, light).
		AttachVertexSource("void main() {}").
		AttachFragmentSource("void main() {}")
	require.NoError(t, sh.Link(dev))
	return sh
}

func TestTransformOrder(t *testing.T) {
	m := NewTransform().Translate(0, 1, 0).Scale(3, 0.1, 2).Matrix()

	// Scaled first, then translated.
	got := m.MulVec3(math3d.V3(1, 1, 1))
	assert.True(t, got.ApproxEqual(math3d.V3(3, 1.1, 2), 1e-12), "got %v", got)
}

func TestTransformRotate(t *testing.T) {
	m := NewTransform().Rotate(90, 0, 0, 1).Matrix()
	got := m.MulVec3(math3d.V3(1, 0, 0))
	assert.True(t, got.ApproxEqual(math3d.V3(0, 1, 0), 1e-12), "got %v", got)
}

func TestMirrorTransformIsInvolution(t *testing.T) {
	mirror := NewTransform().Translate(0, 2.2, 0).Scale(1, -1, 1).Matrix()
	assert.True(t, mirror.Mul(mirror).ApproxEqual(math3d.Identity(), 1e-12))
	assert.True(t, mirror.ApproxEqual(math3d.MirrorY(1.1), 1e-12))
}

func TestNewNodeRejectsMeshesAndChildren(t *testing.T) {
	child := NewNode("child")
	assert.Panics(t, func() {
		NewNode("bad", WithMeshes(models.NewCube()), WithChildren(child))
	})
}

func TestNodeIDsAreStable(t *testing.T) {
	a := NewNode("table-top")
	b := NewNode("table-top")
	c := NewNode("leg-0")

	assert.Equal(t, a.ID, b.ID)
	assert.NotEqual(t, a.ID, c.ID)
}

func TestSharedSubtreeRendersPerParent(t *testing.T) {
	dev := &recordingDevice{}
	sh := linkedShader(t, dev, nil)
	cube := models.NewCube()

	objects := NewNode("objects", WithChildren(
		NewNode("box", WithTransform(NewTransform().Translate(1, 0, 0)), WithMeshes(cube)),
	))
	mirrored := NewNode("mirror",
		WithShader(sh),
		WithTransform(NewTransform().MultMatrix(math3d.MirrorY(0))),
		WithChildren(objects),
	)
	plain := NewNode("plain", WithShader(sh), WithChildren(objects))

	st := NewState(dev, nil)
	mirrored.Render(st)
	plain.Render(st)

	require.Len(t, dev.calls, 2)
	assert.Same(t, dev.calls[0].Mesh, dev.calls[1].Mesh)

	want := math3d.MirrorY(0).Mul(math3d.Translate(math3d.V3(1, 0, 0)))
	assert.True(t, dev.calls[0].Model.ApproxEqual(want, 1e-12))
	assert.True(t, dev.calls[1].Model.ApproxEqual(math3d.Translate(math3d.V3(1, 0, 0)), 1e-12))

	assert.True(t, st.Matrix().ApproxEqual(math3d.Identity(), 0))
	assert.Nil(t, st.Shader())
	assert.Equal(t, 2, st.Draws)
	assert.Equal(t, 3, mirrored.Count())
}

func TestAppearanceScoping(t *testing.T) {
	dev := &recordingDevice{}
	sh := linkedShader(t, dev, nil)

	outerTex := render.NewSolidTexture(render.RGB(10, 10, 10))
	innerTex := render.NewSolidTexture(render.RGB(20, 20, 20))
	bump := render.NewSolidTexture(render.RGB(30, 30, 30))
	red := NewMaterial(1, 0, 0, 1)
	green := NewMaterial(0, 1, 0, 0.5).SetShininess(64)

	mesh := models.NewCube()
	root := NewNode("root",
		WithShader(sh),
		WithAppearance(red, NewTexture(render.TextureDecal, outerTex)),
		WithChildren(
			NewNode("inner",
				WithAppearance(green, NewTexture(render.TextureDecal, innerTex), NewTexture(render.TextureBump, bump)),
				WithMeshes(mesh),
			),
			NewNode("sibling", WithMeshes(mesh)),
		),
	)

	st := NewState(dev, nil)
	root.Render(st)

	require.Len(t, dev.calls, 2)
	inner, sibling := dev.calls[0], dev.calls[1]

	assert.Equal(t, green.Material, inner.Material)
	assert.Same(t, innerTex, inner.Textures[render.TextureDecal])
	assert.Same(t, bump, inner.Textures[render.TextureBump])

	assert.Equal(t, red.Material, sibling.Material)
	assert.Same(t, outerTex, sibling.Textures[render.TextureDecal])
	assert.NotContains(t, sibling.Textures, render.TextureBump)

	assert.Equal(t, DefaultMaterial, st.Material())
	assert.Nil(t, st.Texture(render.TextureDecal))
}

func TestUnlinkedShaderDrawsNothing(t *testing.T) {
	dev := &recordingDevice{}
	sh := NewShader("idle", render.ShadingFlat, nil)
	n := NewNode("n", WithShader(sh), WithMeshes(models.NewCube()))

	n.Render(NewState(dev, nil))
	assert.Empty(t, dev.calls)
}

func TestShaderLoadUploadsCameraAndLight(t *testing.T) {
	dev := &recordingDevice{}
	light := NewLight(0.65, 1.7, 0.3, SpaceWorld)
	light.Diffuse = math3d.V3(2.5, 2.5, 2.5)
	sh := linkedShader(t, dev, light)

	cam := render.NewCamera(math3d.V3(4, 3.5, 5), math3d.V3(0, 0, 0))
	st := NewState(dev, cam)

	sh.Load(st)
	p := dev.programs[0]
	assert.True(t, p.inUse)
	assert.Equal(t, cam.ViewMatrix(), p.Mat4(render.UniformView))
	assert.Equal(t, cam.ProjectionMatrix(), p.Mat4(render.UniformProjection))
	assert.True(t, p.Vec3(render.UniformEye).ApproxEqual(cam.Eye, 1e-9))
	assert.Equal(t, light.Position, p.Vec3(render.UniformLightPosition))
	assert.Equal(t, light.Diffuse, p.Vec3(render.UniformLightDiffuse))

	sh.Unload(st)
	assert.False(t, p.inUse)
}

func TestNestedShaderRestoresOuter(t *testing.T) {
	dev := &recordingDevice{}
	outer := linkedShader(t, dev, nil)
	inner := linkedShader(t, dev, nil)

	st := NewState(dev, nil)
	outer.Load(st)
	inner.Load(st)
	assert.Same(t, inner, st.Shader())
	inner.Unload(st)

	assert.Same(t, outer, st.Shader())
	assert.True(t, dev.programs[0].inUse)
	assert.False(t, dev.programs[1].inUse)
}

func TestShaderErrors(t *testing.T) {
	dev := &recordingDevice{}
	sh := NewShader("phong", render.ShadingPhong, nil)

	assert.ErrorIs(t, sh.SetInt(render.UniformUseFog, 1), ErrNotLinked)
	assert.ErrorIs(t, sh.SetVec3(render.UniformFogColor, 0.1, 0.1, 0.1), ErrNotLinked)
	assert.ErrorIs(t, sh.Link(dev), ErrNoSource)
	assert.False(t, sh.Linked())

	boom := errors.New("compile failed")
	dev.linkErr = boom
	sh.AttachVertexSource("v").AttachFragmentSource("f")
	assert.ErrorIs(t, sh.Link(dev), boom)

	dev.linkErr = nil
	require.NoError(t, sh.Link(dev))
	require.NoError(t, sh.SetInt(render.UniformUseFog, 1))
	require.NoError(t, sh.SetFloat(render.UniformFogEnd, 20))
	require.NoError(t, sh.SetVec4(render.UniformShadowColor, 0, 0, 0, 0.5))
	assert.Equal(t, 1, dev.programs[0].Int(render.UniformUseFog))
	assert.Equal(t, 20.0, dev.programs[0].Float(render.UniformFogEnd))
}

func TestLightSpaces(t *testing.T) {
	view := math3d.LookAt(math3d.V3(0, 0, 5), math3d.V3(0, 0, 0), math3d.V3(0, 1, 0))

	world := NewLight(1, 2, 3, SpaceWorld)
	assert.Equal(t, world.Position, world.WorldPosition(view))

	// A light at the camera origin sits at the eye.
	headlight := NewLight(0, 0, 0, SpaceCamera)
	assert.True(t, headlight.WorldPosition(view).ApproxEqual(math3d.V3(0, 0, 5), 1e-12))

	s, ok := ParseSpace("camera")
	assert.True(t, ok)
	assert.Equal(t, SpaceCamera, s)
	_, ok = ParseSpace("screen")
	assert.False(t, ok)
}

func TestExport(t *testing.T) {
	cube := models.NewCube()
	leaf := NewNode("top",
		WithTransform(NewTransform().Translate(0, 1, 0)),
		WithAppearance(NewMaterial(0.6, 0.4, 0.2, 0.3)),
		WithMeshes(cube),
	)
	root := NewNode("root", WithChildren(leaf))

	out := root.Export()
	require.Len(t, out.Children, 1)
	got := out.Children[0]
	assert.Equal(t, "top", got.Name)
	assert.Equal(t, leaf.ID.String(), got.ID)
	assert.Equal(t, [4]float64{0.6, 0.4, 0.2, 0.3}, got.Color)
	assert.Equal(t, []*models.Mesh{cube}, got.Meshes)
	assert.True(t, got.Matrix.ApproxEqual(math3d.Translate(math3d.V3(0, 1, 0)), 0))
}
