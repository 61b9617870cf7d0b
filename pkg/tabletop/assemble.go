// Package tabletop assembles the table scene: a semi-transparent table
// top, four legs, the objects on the table, and two extra parents of the
// objects group, one mirrored across the table surface and one flattened
// onto it by the shadow projector.
package tabletop

import (
	"fmt"
	"log/slog"

	"github.com/taigrr/tablescene/pkg/math3d"
	"github.com/taigrr/tablescene/pkg/models"
	"github.com/taigrr/tablescene/pkg/render"
	"github.com/taigrr/tablescene/pkg/scene"
	"github.com/taigrr/tablescene/pkg/shaders"
	"github.com/taigrr/tablescene/pkg/shadow"
)

// Table geometry. The top is a unit cube scaled to the table size, so
// its surface is at TableHeight.
const (
	tableWidth     = 3.0
	tableDepth     = 2.0
	tableThickness = 0.1
	legWidth       = 0.08
	legInsetX      = 0.2
	legInsetZ      = 0.15
	sphereSegments = 64
)

// Scene is an assembled table scene. The five subtrees are drawn
// independently by the frame pipeline; Reflection and ShadowProjected
// both reference Objects.
type Scene struct {
	TableTop        *scene.Node
	Legs            *scene.Node
	Objects         *scene.Node
	Reflection      *scene.Node
	ShadowProjected *scene.Node

	// Phong shades everything but the shadow; Shadow is the flat shader
	// bound by ShadowProjected.
	Phong  *scene.Shader
	Shadow *scene.Shader
	Light  *scene.Light

	ShadowMatrix math3d.Mat4
	Config       Config
}

// Assembler builds Scenes.
type Assembler struct {
	Config Config
	Logger *slog.Logger
	// Textures overrides loading from Config.AssetDir when set.
	Textures *TextureSet
}

// NewAssembler returns an assembler for cfg.
func NewAssembler(cfg Config, logger *slog.Logger) *Assembler {
	return &Assembler{Config: cfg, Logger: logger}
}

// Assemble validates the config, loads textures, links the shaders on dev
// and builds the graph. Any failure is a setup failure.
func (a *Assembler) Assemble(dev render.Device) (*Scene, error) {
	log := a.Logger
	if log == nil {
		log = slog.New(slog.DiscardHandler)
	}
	cfg := a.Config
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	tex := a.Textures
	if tex == nil {
		var err error
		if tex, err = LoadTextures(cfg.AssetDir); err != nil {
			return nil, err
		}
	}

	light := &scene.Light{
		Position: cfg.LightPosition(),
		Space:    scene.SpaceWorld,
		Ambient:  gray(cfg.Light.Ambient),
		Diffuse:  gray(cfg.Light.Diffuse),
		Specular: gray(cfg.Light.Specular),
	}

	phong, shadowShader, err := linkShaders(dev, cfg, light)
	if err != nil {
		return nil, err
	}

	s := &Scene{
		Phong:        phong,
		Shadow:       shadowShader,
		Light:        light,
		ShadowMatrix: shadow.Matrix(light.Position, cfg.TableHeight),
		Config:       cfg,
	}
	s.build(tex)

	log.Info("scene assembled",
		"nodes", s.NodeCount(),
		"table_height", cfg.TableHeight,
		"light", light.Position,
		"textures", textureSource(cfg.AssetDir, a.Textures != nil),
	)
	log.Debug("shadow projector", "matrix", s.ShadowMatrix)
	return s, nil
}

func textureSource(dir string, override bool) string {
	switch {
	case override:
		return "provided"
	case dir == "":
		return "procedural"
	default:
		return dir
	}
}

func linkShaders(dev render.Device, cfg Config, light *scene.Light) (phong, flat *scene.Shader, err error) {
	phong = scene.NewShader("phong", render.ShadingPhong, light).
		AttachVertexSource(shaders.PhongVertex).
		AttachFragmentSource(shaders.PhongFragment)
	if err := phong.Link(dev); err != nil {
		return nil, nil, err
	}

	fc := cfg.Fog.Color
	for _, err := range []error{
		phong.SetVec3(render.UniformFogColor, fc[0], fc[1], fc[2]),
		phong.SetFloat(render.UniformFogStart, cfg.Fog.Start),
		phong.SetFloat(render.UniformFogEnd, cfg.Fog.End),
		phong.SetInt(render.UniformUseFog, boolInt(cfg.Fog.Enabled)),
		phong.SetInt(render.UniformUseBump, boolInt(cfg.Bump)),
	} {
		if err != nil {
			return nil, nil, err
		}
	}

	flat = scene.NewShader("shadow", render.ShadingFlat, light).
		AttachVertexSource(shaders.ShadowVertex).
		AttachFragmentSource(shaders.ShadowFragment)
	if err := flat.Link(dev); err != nil {
		return nil, nil, err
	}
	sc := cfg.ShadowColor
	if err := flat.SetVec4(render.UniformShadowColor, sc[0], sc[1], sc[2], sc[3]); err != nil {
		return nil, nil, err
	}
	return phong, flat, nil
}

func (s *Scene) build(tex *TextureSet) {
	cfg := s.Config
	h := cfg.TableHeight

	cube := models.NewCube()
	sphere := models.NewSphere(sphereSegments, sphereSegments)
	cylinder := models.NewCylinder(cfg.Slices, true, false)
	cup := models.NewCylinder(cfg.Slices, false, true)
	cone := models.NewCone(cfg.Slices, true, true)

	tableMat := scene.NewMaterial(0.6, 0.4, 0.2, 0.3).SetSpecular(0.8, 0.8, 0.8, 1).SetShininess(64)
	white := scene.NewMaterial(1, 1, 1, 1).SetSpecular(0.5, 0.5, 0.5, 1).SetShininess(32)
	green := scene.NewMaterial(0.1, 0.8, 0.1, 1).SetSpecular(1, 1, 1, 1).SetShininess(64)
	cupMat := scene.NewMaterial(0.7, 0.7, 0.7, 1).SetSpecular(0.8, 0.8, 0.8, 1).SetShininess(128)
	blue := scene.NewMaterial(0.1, 0.3, 0.8, 1).SetSpecular(1, 1, 1, 1).SetShininess(64)

	whiteTex := scene.NewTexture(render.TextureDecal, tex.White)
	woodTex := scene.NewTexture(render.TextureDecal, tex.Wood)
	paperTex := scene.NewTexture(render.TextureDecal, tex.Paper)
	noiseTex := scene.NewTexture(render.TextureBump, tex.Noise)

	s.TableTop = scene.NewNode("table-top",
		scene.WithTransform(scene.NewTransform().
			Translate(0, h-tableThickness, 0).
			Scale(tableWidth, tableThickness, tableDepth)),
		scene.WithAppearance(tableMat, whiteTex),
		scene.WithMeshes(cube),
	)

	legX := tableWidth/2 - legInsetX
	legZ := tableDepth/2 - legInsetZ
	var legs []*scene.Node
	for i, corner := range [][2]float64{{1, 1}, {-1, 1}, {1, -1}, {-1, -1}} {
		legs = append(legs, scene.NewNode(fmt.Sprintf("leg-%d", i),
			scene.WithTransform(scene.NewTransform().
				Translate(corner[0]*legX, 0, corner[1]*legZ).
				Scale(legWidth, h-tableThickness, legWidth)),
			scene.WithAppearance(white, woodTex),
			scene.WithMeshes(cube),
		))
	}
	s.Legs = scene.NewNode("legs", scene.WithChildren(legs...))

	s.Objects = scene.NewNode("objects", scene.WithChildren(
		scene.NewNode("paper",
			scene.WithTransform(scene.NewTransform().Translate(-0.8, h+0.01, 0.3).Scale(0.4, 0.02, 0.3)),
			scene.WithAppearance(white, paperTex),
			scene.WithMeshes(cube),
		),
		scene.NewNode("cup",
			scene.WithTransform(scene.NewTransform().Translate(0.8, h+0.1, -0.3).Scale(0.15, 0.2, 0.15)),
			scene.WithAppearance(cupMat, whiteTex),
			scene.WithMeshes(cup),
		),
		scene.NewNode("bump-sphere",
			scene.WithTransform(scene.NewTransform().Translate(-0.3, h+0.3, -0.2).Scale(0.3, 0.3, 0.3)),
			scene.WithAppearance(green, noiseTex),
			scene.WithMeshes(sphere),
		),
		scene.NewNode("lamp-base",
			scene.WithTransform(scene.NewTransform().Translate(1.15, h, 0.5).Scale(0.2, 0.04, 0.2)),
			scene.WithAppearance(blue, whiteTex),
			scene.WithMeshes(cylinder),
		),
		scene.NewNode("lamp-stem-1",
			scene.WithTransform(scene.NewTransform().Translate(1.15, h+0.04, 0.5).Scale(0.05, 0.6, 0.05)),
			scene.WithAppearance(blue, whiteTex),
			scene.WithMeshes(cylinder),
		),
		scene.NewNode("lamp-stem-2",
			scene.WithTransform(scene.NewTransform().
				Translate(1.15, h+0.64, 0.5).
				Rotate(45, 0, 0, 1).
				Scale(0.05, 0.5, 0.05)),
			scene.WithAppearance(blue, whiteTex),
			scene.WithMeshes(cylinder),
		),
		scene.NewNode("lamp-head",
			scene.WithTransform(scene.NewTransform().
				Translate(0.65, h+0.8, 0.3).
				Rotate(45, 1, 0, 0).
				Rotate(-35, 0, 0, 1).
				Scale(0.25, 0.3, 0.25)),
			scene.WithAppearance(blue, whiteTex),
			scene.WithMeshes(cone),
		),
	))

	// Mirror about y = h: scaling by -1 reflects about y = 0, the
	// translation moves the image back onto the table plane.
	s.Reflection = scene.NewNode("reflection",
		scene.WithShader(s.Phong),
		scene.WithTransform(scene.NewTransform().Translate(0, 2*h, 0).Scale(1, -1, 1)),
		scene.WithChildren(s.Objects),
	)

	s.ShadowProjected = scene.NewNode("shadow",
		scene.WithShader(s.Shadow),
		scene.WithTransform(scene.NewTransform().MultMatrix(s.ShadowMatrix)),
		scene.WithChildren(s.Objects),
	)
}

// Roots returns the five subtrees in drawing order of their first use.
func (s *Scene) Roots() []*scene.Node {
	return []*scene.Node{s.TableTop, s.Reflection, s.ShadowProjected, s.Legs, s.Objects}
}

// NodeCount counts nodes over all roots, shared subtrees once per parent.
func (s *Scene) NodeCount() int {
	n := 0
	for _, r := range s.Roots() {
		n += r.Count()
	}
	return n
}

// Camera returns a camera for the configured view and viewport size.
func (s *Scene) Camera(width, height int) *render.Camera {
	cam := render.NewCamera(vec3(s.Config.Eye), vec3(s.Config.Target))
	cam.SetFOV(math3d.Radians(s.Config.FOV))
	if height > 0 {
		cam.SetAspectRatio(float64(width) / float64(height))
	}
	return cam
}

// Export converts the scene for glTF export. The shadow subtree is
// projective and is left out by the exporter.
func (s *Scene) Export() []*models.ExportNode {
	roots := make([]*models.ExportNode, 0, 5)
	for _, r := range []*scene.Node{s.TableTop, s.Legs, s.Objects, s.Reflection, s.ShadowProjected} {
		roots = append(roots, r.Export())
	}
	return roots
}

// ExportGLB writes the scene to a binary glTF file.
func (s *Scene) ExportGLB(path string) error {
	return models.ExportGLB(path, s.Export())
}

func gray(v float64) math3d.Vec3 {
	return math3d.V3(v, v, v)
}

func boolInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
