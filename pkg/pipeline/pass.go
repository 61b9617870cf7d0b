package pipeline

import (
	"github.com/taigrr/tablescene/pkg/render"
)

// Pass is one step of a frame.
type Pass int

const (
	// PassStencilMark writes 1 into the stencil buffer under the table
	// top. Nothing else is written.
	PassStencilMark Pass = iota
	// PassReflection draws the mirrored objects inside the mark, after a
	// depth clear, culling front faces since mirroring flips winding.
	PassReflection
	// PassTableBlend draws the translucent table top over the reflection.
	PassTableBlend
	// PassShadow blends the projected objects onto the table. Each marked
	// pixel is darkened at most once: the first hit bumps it to 2.
	PassShadow
	// PassLegs draws the legs.
	PassLegs
	// PassObjects draws the objects at their real position.
	PassObjects
)

// NumPasses is the number of passes in a frame.
const NumPasses = int(PassObjects) + 1

var passNames = [...]string{
	PassStencilMark: "stencil-mark",
	PassReflection:  "reflection",
	PassTableBlend:  "table-blend",
	PassShadow:      "shadow",
	PassLegs:        "legs",
	PassObjects:     "objects",
}

func (p Pass) String() string {
	if p < 0 || int(p) >= len(passNames) {
		return "unknown"
	}
	return passNames[p]
}

// Passes returns the passes in frame order.
func Passes() []Pass {
	out := make([]Pass, NumPasses)
	for i := range out {
		out[i] = Pass(i)
	}
	return out
}

// stencilMark is the stencil value of table-top pixels.
const stencilMark = 1

// State returns the fixed-function state of the pass.
func (p Pass) State() render.State {
	s := render.DefaultState()
	switch p {
	case PassStencilMark:
		s.ColorWrite = false
		s.DepthWrite = false
		s.Stencil = render.StencilState{
			Enabled:   true,
			Func:      render.Always,
			Ref:       stencilMark,
			ReadMask:  0xFF,
			WriteMask: 0xFF,
			Fail:      render.Keep,
			DepthFail: render.Keep,
			Pass:      render.Replace,
		}
	case PassReflection:
		s.Stencil = render.StencilState{
			Enabled:   true,
			Func:      render.Equal,
			Ref:       stencilMark,
			ReadMask:  0xFF,
			WriteMask: 0x00,
			Fail:      render.Keep,
			DepthFail: render.Keep,
			Pass:      render.Keep,
		}
		s.Cull = render.CullFront
	case PassTableBlend:
		s.Blend = render.BlendState{
			Enabled: true,
			Src:     render.BlendSrcAlpha,
			Dst:     render.BlendOneMinusSrcAlpha,
		}
	case PassShadow:
		s.DepthWrite = false
		s.Stencil = render.StencilState{
			Enabled:   true,
			Func:      render.Equal,
			Ref:       stencilMark,
			ReadMask:  0xFF,
			WriteMask: 0xFF,
			Fail:      render.Keep,
			DepthFail: render.Keep,
			Pass:      render.Incr,
		}
		s.Blend = render.BlendState{
			Enabled: true,
			Src:     render.BlendSrcAlpha,
			Dst:     render.BlendOneMinusSrcAlpha,
		}
		s.Offset = render.OffsetState{Enabled: true, Factor: -1, Units: -1}
	}
	return s
}

// clearsDepth reports whether the depth buffer is cleared on entry.
func (p Pass) clearsDepth() bool {
	return p == PassReflection
}
