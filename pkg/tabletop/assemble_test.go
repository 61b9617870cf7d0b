package tabletop

import (
	"errors"
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/taigrr/tablescene/pkg/math3d"
	"github.com/taigrr/tablescene/pkg/models"
	"github.com/taigrr/tablescene/pkg/render"
	"github.com/taigrr/tablescene/pkg/scene"
	"github.com/taigrr/tablescene/pkg/shadow"
)

var sharedTextures = ProceduralTextures()

func assemble(t *testing.T, cfg Config) (*Scene, *render.Rasterizer) {
	t.Helper()
	dev := render.NewRasterizer(render.NewFramebuffer(64, 48))
	a := NewAssembler(cfg, nil)
	a.Textures = sharedTextures
	s, err := a.Assemble(dev)
	require.NoError(t, err)
	return s, dev
}

func find(t *testing.T, root *scene.Node, name string) *scene.Node {
	t.Helper()
	var found *scene.Node
	root.Walk(func(n *scene.Node, _ math3d.Mat4) bool {
		if n.Name == name {
			found = n
			return false
		}
		return found == nil
	})
	require.NotNil(t, found, "node %s", name)
	return found
}

func TestAssembleSubtrees(t *testing.T) {
	s, _ := assemble(t, DefaultConfig())

	require.NotNil(t, s.TableTop)
	require.NotNil(t, s.Legs)
	require.NotNil(t, s.Objects)
	require.NotNil(t, s.Reflection)
	require.NotNil(t, s.ShadowProjected)

	assert.Len(t, s.Legs.Children(), 4)
	assert.Len(t, s.Objects.Children(), 7)

	// Both effect nodes reference the one objects group.
	require.Len(t, s.Reflection.Children(), 1)
	require.Len(t, s.ShadowProjected.Children(), 1)
	assert.Same(t, s.Objects, s.Reflection.Children()[0])
	assert.Same(t, s.Objects, s.ShadowProjected.Children()[0])

	assert.Same(t, s.Phong, s.Reflection.Shader())
	assert.Same(t, s.Shadow, s.ShadowProjected.Shader())
	assert.Nil(t, s.TableTop.Shader())
	assert.True(t, s.Phong.Linked())
	assert.True(t, s.Shadow.Linked())
}

func TestAssembleTransforms(t *testing.T) {
	s, _ := assemble(t, DefaultConfig())

	top := math3d.Translate(math3d.V3(0, 1, 0)).Mul(math3d.Scale(math3d.V3(3, 0.1, 2)))
	assert.True(t, s.TableTop.Matrix().ApproxEqual(top, 1e-12))

	// The table surface is the top face of the scaled unit cube.
	surface := s.TableTop.Matrix().MulVec3(math3d.V3(0, 1, 0))
	assert.InDelta(t, 1.1, surface.Y, 1e-12)

	var legs []math3d.Vec3
	for _, leg := range s.Legs.Children() {
		legs = append(legs, leg.Matrix().Translation())
	}
	assert.ElementsMatch(t, []math3d.Vec3{
		math3d.V3(1.3, 0, 0.85), math3d.V3(-1.3, 0, 0.85),
		math3d.V3(1.3, 0, -0.85), math3d.V3(-1.3, 0, -0.85),
	}, roundVecs(legs))

	assert.True(t, s.Reflection.Matrix().ApproxEqual(math3d.MirrorY(1.1), 1e-12))
	assert.True(t, s.ShadowProjected.Matrix().ApproxEqual(shadow.Matrix(math3d.V3(0.65, 1.7, 0.3), 1.1), 1e-12))

	paper := find(t, s.Objects, "paper").Matrix().Translation()
	assert.True(t, paper.ApproxEqual(math3d.V3(-0.8, 1.11, 0.3), 1e-12))
	head := find(t, s.Objects, "lamp-head").Matrix().Translation()
	assert.True(t, head.ApproxEqual(math3d.V3(0.65, 1.9, 0.3), 1e-12))
}

func roundVecs(vs []math3d.Vec3) []math3d.Vec3 {
	out := make([]math3d.Vec3, len(vs))
	for i, v := range vs {
		out[i] = math3d.V3(round(v.X), round(v.Y), round(v.Z))
	}
	return out
}

func round(f float64) float64 {
	return math.Round(f*1e9) / 1e9
}

func TestAssembleIsIdempotent(t *testing.T) {
	a, _ := assemble(t, DefaultConfig())
	b, _ := assemble(t, DefaultConfig())

	type entry struct {
		name   string
		id     string
		matrix math3d.Mat4
		meshes int
	}
	flatten := func(s *Scene) []entry {
		var out []entry
		for _, root := range s.Roots() {
			root.Walk(func(n *scene.Node, m math3d.Mat4) bool {
				out = append(out, entry{n.Name, n.ID.String(), m, len(n.Meshes())})
				return true
			})
		}
		return out
	}

	ea, eb := flatten(a), flatten(b)
	require.Equal(t, len(ea), len(eb))
	for i := range ea {
		assert.Equal(t, ea[i].name, eb[i].name)
		assert.Equal(t, ea[i].id, eb[i].id)
		assert.Equal(t, ea[i].meshes, eb[i].meshes)
		assert.True(t, ea[i].matrix.ApproxEqual(eb[i].matrix, 1e-12), ea[i].name)
	}
	assert.Equal(t, a.NodeCount(), b.NodeCount())
}

func TestAssembleUniforms(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Bump = false
	s, _ := assemble(t, cfg)

	phong, ok := s.Phong.Program().(interface{ Int(string) int })
	require.True(t, ok)
	assert.Equal(t, 1, phong.Int(render.UniformUseFog))
	assert.Equal(t, 0, phong.Int(render.UniformUseBump))

	flat, ok := s.Shadow.Program().(interface{ Vec4(string) math3d.Vec4 })
	require.True(t, ok)
	assert.Equal(t, math3d.V4(0, 0, 0, 0.5), flat.Vec4(render.UniformShadowColor))
}

type failingDevice struct {
	*render.Rasterizer
}

func (failingDevice) NewProgram(render.ProgramDesc) (render.Program, error) {
	return nil, errors.New("no compiler")
}

func TestAssembleLinkFailure(t *testing.T) {
	a := NewAssembler(DefaultConfig(), nil)
	a.Textures = sharedTextures
	_, err := a.Assemble(failingDevice{render.NewRasterizer(render.NewFramebuffer(4, 4))})
	assert.ErrorContains(t, err, "no compiler")
}

func TestAssembleInvalidConfig(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Light.Position[1] = 0.5
	_, err := NewAssembler(cfg, nil).Assemble(render.NewRasterizer(render.NewFramebuffer(4, 4)))
	assert.ErrorIs(t, err, shadow.ErrLightBelowPlane)
}

func TestAssembleMissingAssets(t *testing.T) {
	cfg := DefaultConfig()
	cfg.AssetDir = t.TempDir()
	_, err := NewAssembler(cfg, nil).Assemble(render.NewRasterizer(render.NewFramebuffer(4, 4)))
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestSceneCamera(t *testing.T) {
	s, _ := assemble(t, DefaultConfig())
	cam := s.Camera(1024, 768)

	assert.Equal(t, math3d.V3(4, 3.5, 5), cam.Eye)
	assert.InDelta(t, math3d.Radians(30), cam.FOV, 1e-12)
	assert.InDelta(t, 1024.0/768.0, cam.AspectRatio, 1e-12)
}

func TestSceneExport(t *testing.T) {
	s, _ := assemble(t, DefaultConfig())

	doc := models.BuildDocument(s.Export())
	// The projective shadow subtree has no glTF form.
	assert.Len(t, doc.Scenes[0].Nodes, 4)

	path := filepath.Join(t.TempDir(), "scene.glb")
	require.NoError(t, s.ExportGLB(path))
	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Positive(t, info.Size())
}
