// Package pipeline renders a frame of the table scene in six passes. The
// stencil buffer confines the reflection and the shadow to the table top
// and keeps overlapping shadow geometry from darkening a pixel twice.
package pipeline

import (
	"log/slog"

	"github.com/taigrr/tablescene/pkg/math3d"
	"github.com/taigrr/tablescene/pkg/render"
	"github.com/taigrr/tablescene/pkg/scene"
	"github.com/taigrr/tablescene/pkg/tabletop"
)

// Phase tells a Probe whether a pass is about to run or has run.
type Phase int

const (
	BeforePass Phase = iota
	AfterPass
)

// Probe observes the device between passes.
type Probe func(pass Pass, phase Phase, dev render.Device)

// Pipeline draws assembled table scenes.
type Pipeline struct {
	scene  *tabletop.Scene
	logger *slog.Logger
	probe  Probe
	frames uint64
}

// Option configures a Pipeline.
type Option func(*Pipeline)

// WithLogger logs frames at debug level.
func WithLogger(l *slog.Logger) Option {
	return func(p *Pipeline) { p.logger = l }
}

// WithProbe calls fn around every pass.
func WithProbe(fn Probe) Option {
	return func(p *Pipeline) { p.probe = fn }
}

// New returns a pipeline for s.
func New(s *tabletop.Scene, opts ...Option) *Pipeline {
	p := &Pipeline{scene: s, logger: slog.New(slog.DiscardHandler)}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Frames returns the number of frames rendered.
func (p *Pipeline) Frames() uint64 {
	return p.frames
}

// RenderFrame clears the target and runs the six passes. The device is
// left in render.DefaultState.
func (p *Pipeline) RenderFrame(st *scene.State) {
	dev := st.Device
	bg := p.scene.Config.Background
	dev.SetClearColor(colorVec(bg))

	dev.Apply(render.DefaultState())
	dev.Clear(render.ClearAll)

	draws := st.Draws
	for _, pass := range Passes() {
		if p.probe != nil {
			p.probe(pass, BeforePass, dev)
		}

		dev.Apply(pass.State())
		// Applied first: a depth clear is masked by DepthWrite.
		if pass.clearsDepth() {
			dev.Clear(render.ClearDepth)
		}
		p.draw(pass, st)

		if p.probe != nil {
			p.probe(pass, AfterPass, dev)
		}
	}
	dev.Apply(render.DefaultState())

	p.frames++
	p.logger.Debug("frame", "n", p.frames, "draws", st.Draws-draws)
}

// draw renders the subtrees of a pass. Passes whose subtree carries its
// own shader run it bare; the others run under the Phong shader.
func (p *Pipeline) draw(pass Pass, st *scene.State) {
	s := p.scene
	switch pass {
	case PassStencilMark, PassTableBlend:
		withShader(st, s.Phong, s.TableTop)
	case PassReflection:
		s.Reflection.Render(st)
	case PassShadow:
		s.ShadowProjected.Render(st)
	case PassLegs:
		withShader(st, s.Phong, s.Legs)
	case PassObjects:
		withShader(st, s.Phong, s.Objects)
	}
}

func withShader(st *scene.State, sh *scene.Shader, n *scene.Node) {
	sh.Load(st)
	defer sh.Unload(st)
	n.Render(st)
}

func colorVec(c [3]float64) math3d.Vec4 {
	return math3d.V4(c[0], c[1], c[2], 1)
}
