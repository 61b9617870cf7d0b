package render

import "fmt"

// CompareFunc is a depth or stencil comparison.
type CompareFunc int

const (
	Never CompareFunc = iota
	Less
	LessEqual
	Equal
	Greater
	NotEqual
	GreaterEqual
	Always
)

// StencilOp is applied to the stencil value after a test.
type StencilOp int

const (
	Keep StencilOp = iota
	Zero
	Replace
	Incr // saturates at 0xFF
	Decr // saturates at 0
	Invert
)

// CullMode selects which triangle faces are discarded.
type CullMode int

const (
	CullNone CullMode = iota
	CullBack
	CullFront
)

// BlendFactor scales the source or destination color when blending.
type BlendFactor int

const (
	BlendZero BlendFactor = iota
	BlendOne
	BlendSrcAlpha
	BlendOneMinusSrcAlpha
)

// StencilState configures the stencil test and its write operations.
type StencilState struct {
	Enabled   bool
	Func      CompareFunc
	Ref       uint8
	ReadMask  uint8
	WriteMask uint8
	Fail      StencilOp // stencil test failed
	DepthFail StencilOp // stencil passed, depth failed
	Pass      StencilOp // both passed
}

// BlendState configures color blending.
type BlendState struct {
	Enabled bool
	Src     BlendFactor
	Dst     BlendFactor
}

// OffsetState configures polygon depth offset.
type OffsetState struct {
	Enabled bool
	Factor  float64
	Units   float64
}

// State is the complete fixed-function state a draw call runs under.
// It is a plain value: devices copy it on Apply.
type State struct {
	ColorWrite bool
	DepthTest  bool
	DepthWrite bool
	DepthFunc  CompareFunc
	Stencil    StencilState
	Cull       CullMode
	Blend      BlendState
	Offset     OffsetState
}

// DefaultState returns the state every frame starts from and ends in:
// color and depth writes on, depth test LESS, back faces culled, stencil,
// blending and polygon offset off.
func DefaultState() State {
	return State{
		ColorWrite: true,
		DepthTest:  true,
		DepthWrite: true,
		DepthFunc:  Less,
		Stencil: StencilState{
			Func:      Always,
			ReadMask:  0xFF,
			WriteMask: 0xFF,
			Fail:      Keep,
			DepthFail: Keep,
			Pass:      Keep,
		},
		Cull: CullBack,
		Blend: BlendState{
			Src: BlendOne,
			Dst: BlendZero,
		},
	}
}

// ClearMask selects the buffers Device.Clear resets.
type ClearMask uint8

const (
	ClearColor ClearMask = 1 << iota
	ClearDepth
	ClearStencil

	ClearAll = ClearColor | ClearDepth | ClearStencil
)

// compare evaluates a against b with f, following the OpenGL convention
// that the incoming value is on the left.
func compare[T uint8 | float64](f CompareFunc, a, b T) bool {
	switch f {
	case Never:
		return false
	case Less:
		return a < b
	case LessEqual:
		return a <= b
	case Equal:
		return a == b
	case Greater:
		return a > b
	case NotEqual:
		return a != b
	case GreaterEqual:
		return a >= b
	default:
		return true
	}
}

// apply returns the stencil value after op, honoring the write mask.
func (s StencilState) apply(op StencilOp, old uint8) uint8 {
	var v uint8
	switch op {
	case Keep:
		return old
	case Zero:
		v = 0
	case Replace:
		v = s.Ref
	case Incr:
		v = old
		if v < 0xFF {
			v++
		}
	case Decr:
		v = old
		if v > 0 {
			v--
		}
	case Invert:
		v = ^old
	}
	return old&^s.WriteMask | v&s.WriteMask
}

func (f CompareFunc) String() string {
	switch f {
	case Never:
		return "never"
	case Less:
		return "less"
	case LessEqual:
		return "lequal"
	case Equal:
		return "equal"
	case Greater:
		return "greater"
	case NotEqual:
		return "notequal"
	case GreaterEqual:
		return "gequal"
	case Always:
		return "always"
	}
	return fmt.Sprintf("CompareFunc(%d)", int(f))
}

func (c CullMode) String() string {
	switch c {
	case CullNone:
		return "none"
	case CullBack:
		return "back"
	case CullFront:
		return "front"
	}
	return fmt.Sprintf("CullMode(%d)", int(c))
}
