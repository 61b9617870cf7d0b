// Package render is the rendering library the table scene is drawn with:
// fixed-function State, the Device and Program contracts, CPU textures,
// a look-at camera with arcball control, and Rasterizer, a software Device
// with color, depth and stencil buffers that presents to a terminal.
package render

import (
	"fmt"
	"math"

	"github.com/taigrr/tablescene/pkg/math3d"
)

// Rasterizer is a software Device. It follows OpenGL conventions:
// counter-clockwise front faces, depth in [0,1] cleared to 1, and the
// per-fragment order stencil test, depth test, stencil update, depth
// write, blend, color write.
type Rasterizer struct {
	fb      *Framebuffer
	depth   []float64
	stencil []uint8

	state      State
	clearColor Color
	current    *softProgram

	Stats Stats // Statistics for debugging/benchmarking
}

// Stats counts work done since the last ResetStats.
type Stats struct {
	DrawCalls          int
	MeshesCulled       int // rejected by the frustum test
	TrianglesSubmitted int
	TrianglesCulled    int // back or front face culled
	TrianglesClipped   int // entirely outside the clip volume
	FragmentsWritten   int
}

// NewRasterizer creates a rasterizer drawing into fb.
func NewRasterizer(fb *Framebuffer) *Rasterizer {
	r := &Rasterizer{
		fb:    fb,
		state: DefaultState(),
	}
	r.Resize()
	return r
}

// Resize reallocates the depth and stencil buffers to match the framebuffer.
func (r *Rasterizer) Resize() {
	if r.fb == nil {
		r.depth, r.stencil = nil, nil
		return
	}
	n := r.fb.Width * r.fb.Height
	r.depth = make([]float64, n)
	r.stencil = make([]uint8, n)
	fill(r.depth, 1)
}

// Framebuffer returns the color target.
func (r *Rasterizer) Framebuffer() *Framebuffer {
	return r.fb
}

// Width returns the framebuffer width.
func (r *Rasterizer) Width() int {
	if r.fb == nil {
		return 0
	}
	return r.fb.Width
}

// Height returns the framebuffer height.
func (r *Rasterizer) Height() int {
	if r.fb == nil {
		return 0
	}
	return r.fb.Height
}

// Size implements Device.
func (r *Rasterizer) Size() (width, height int) {
	return r.Width(), r.Height()
}

// Apply implements Device.
func (r *Rasterizer) Apply(s State) {
	r.state = s
}

// State implements Device.
func (r *Rasterizer) State() State {
	return r.state
}

// SetClearColor implements Device.
func (r *Rasterizer) SetClearColor(c math3d.Vec4) {
	r.clearColor = Vec4ToColor(c)
}

// Clear implements Device. Like glClear, it ignores the tests but honors
// the color, depth and stencil write masks.
func (r *Rasterizer) Clear(mask ClearMask) {
	if r.fb == nil {
		return
	}
	if mask&ClearColor != 0 && r.state.ColorWrite {
		r.fb.Clear(r.clearColor)
	}
	if mask&ClearDepth != 0 && r.state.DepthWrite {
		fill(r.depth, 1)
	}
	if mask&ClearStencil != 0 {
		wm := r.state.Stencil.WriteMask
		for i, v := range r.stencil {
			r.stencil[i] = v &^ wm
		}
	}
}

// fill uses copy-doubling for faster clearing.
func fill[T any](buf []T, v T) {
	n := len(buf)
	if n == 0 {
		return
	}
	buf[0] = v
	for i := 1; i < n; i *= 2 {
		copy(buf[i:], buf[:i])
	}
}

// NewProgram implements Device.
func (r *Rasterizer) NewProgram(desc ProgramDesc) (Program, error) {
	switch desc.Shading {
	case ShadingPhong, ShadingFlat:
	default:
		return nil, fmt.Errorf("program %q: unknown shading model %d", desc.Name, desc.Shading)
	}
	return &softProgram{Uniforms: NewUniforms(), desc: desc, r: r}, nil
}

// StencilAt returns the stencil value at (x, y), or 0 out of bounds.
func (r *Rasterizer) StencilAt(x, y int) uint8 {
	if x < 0 || x >= r.Width() || y < 0 || y >= r.Height() {
		return 0
	}
	return r.stencil[y*r.Width()+x]
}

// StencilSnapshot returns a copy of the stencil buffer, row-major.
func (r *Rasterizer) StencilSnapshot() []uint8 {
	out := make([]uint8, len(r.stencil))
	copy(out, r.stencil)
	return out
}

// DepthAt returns the depth at (x, y), or 1 out of bounds.
func (r *Rasterizer) DepthAt(x, y int) float64 {
	if x < 0 || x >= r.Width() || y < 0 || y >= r.Height() {
		return 1
	}
	return r.depth[y*r.Width()+x]
}

// ResetStats resets the statistics (call once per frame).
func (r *Rasterizer) ResetStats() {
	r.Stats = Stats{}
}

// clipVertex is a vertex after the vertex stage.
type clipVertex struct {
	Clip    math3d.Vec4
	World   math3d.Vec3
	Normal  math3d.Vec3
	Tangent math3d.Vec3
	UV      math3d.Vec2
}

func lerpClipVertex(a, b clipVertex, t float64) clipVertex {
	return clipVertex{
		Clip:    a.Clip.Lerp(b.Clip, t),
		World:   a.World.Lerp(b.World, t),
		Normal:  a.Normal.Lerp(b.Normal, t),
		Tangent: a.Tangent.Lerp(b.Tangent, t),
		UV:      a.UV.Add(b.UV.Sub(a.UV).Scale(t)),
	}
}

// Draw implements Device.
func (r *Rasterizer) Draw(call DrawCall) {
	prog := r.current
	if call.Program != nil {
		p, ok := call.Program.(*softProgram)
		if !ok {
			return
		}
		prog = p
	}
	if prog == nil || call.Mesh == nil || r.fb == nil {
		return
	}
	r.Stats.DrawCalls++

	viewProj := prog.Mat4(UniformProjection).Mul(prog.Mat4(UniformView))
	model := call.Model

	// Projective models (planar shadows) can flip bounds through infinity,
	// so only affine ones are tested against the frustum.
	if model.IsAffine() {
		bounds := MeshBounds(call.Mesh).Transform(model)
		if !NewFrustum(viewProj).Intersects(bounds) {
			r.Stats.MeshesCulled++
			return
		}
	}

	mvp := viewProj.Mul(model)
	normalMat := model.NormalMatrix()

	verts := make([]clipVertex, len(call.Mesh.Vertices))
	for i, v := range call.Mesh.Vertices {
		p := math3d.V4FromV3(v.Position, 1)
		verts[i] = clipVertex{
			Clip:    mvp.MulVec4(p),
			World:   model.MulVec4(p).PerspectiveDivide(),
			Normal:  normalMat.MulVec3Dir(v.Normal),
			Tangent: model.MulVec3Dir(v.Tangent),
			UV:      v.UV,
		}
	}

	shade := newFragmentShader(prog, call)
	for _, f := range call.Mesh.Faces {
		r.Stats.TrianglesSubmitted++
		r.drawTriangle([3]clipVertex{verts[f.V[0]], verts[f.V[1]], verts[f.V[2]]}, shade)
	}
}

// clipEpsilon keeps clipped vertices strictly in front of the eye.
const clipEpsilon = 1e-5

// clipPlanes are the homogeneous half-spaces a vertex must lie in:
// w > ε, near (z >= -w) and far (z <= w).
var clipPlanes = [...]func(v math3d.Vec4) float64{
	func(v math3d.Vec4) float64 { return v.W - clipEpsilon },
	func(v math3d.Vec4) float64 { return v.Z + v.W },
	func(v math3d.Vec4) float64 { return v.W - v.Z },
}

// clipPolygon clips a convex polygon against the clip planes
// (Sutherland-Hodgman). Clipping happens before the perspective divide,
// so vertices behind the eye never wrap around.
func clipPolygon(poly []clipVertex) []clipVertex {
	for _, dist := range clipPlanes {
		if len(poly) == 0 {
			return nil
		}
		out := make([]clipVertex, 0, len(poly)+2)
		prev := poly[len(poly)-1]
		dPrev := dist(prev.Clip)
		for _, cur := range poly {
			dCur := dist(cur.Clip)
			if dCur >= 0 {
				if dPrev < 0 {
					out = append(out, lerpClipVertex(prev, cur, dPrev/(dPrev-dCur)))
				}
				out = append(out, cur)
			} else if dPrev >= 0 {
				out = append(out, lerpClipVertex(prev, cur, dPrev/(dPrev-dCur)))
			}
			prev, dPrev = cur, dCur
		}
		poly = out
	}
	return poly
}

func (r *Rasterizer) drawTriangle(tri [3]clipVertex, shade fragmentShader) {
	inside := true
	for _, v := range tri {
		for _, dist := range clipPlanes {
			if dist(v.Clip) < 0 {
				inside = false
			}
		}
	}

	if inside {
		r.rasterize(tri[0], tri[1], tri[2], shade)
		return
	}

	poly := clipPolygon(tri[:])
	if len(poly) < 3 {
		r.Stats.TrianglesClipped++
		return
	}
	for i := 1; i+1 < len(poly); i++ {
		r.rasterize(poly[0], poly[i], poly[i+1], shade)
	}
}

// screenVertex holds a vertex transformed to screen space.
type screenVertex struct {
	X, Y float64 // Screen coordinates, y down
	Z    float64 // Window depth in [0,1]
	InvW float64 // 1/w for perspective-correct interpolation
	clipVertex
}

func (r *Rasterizer) toScreen(v clipVertex) screenVertex {
	invW := 1 / v.Clip.W
	return screenVertex{
		X:          (v.Clip.X*invW + 1) * 0.5 * float64(r.Width()),
		Y:          (1 - v.Clip.Y*invW) * 0.5 * float64(r.Height()), // Y flipped
		Z:          v.Clip.Z*invW*0.5 + 0.5,
		InvW:       invW,
		clipVertex: v,
	}
}

// edgeCoeffs returns A, B, C for edge(x,y) = A*x + B*y + C, positive to
// the left of the directed edge (x0,y0)->(x1,y1) in y-down coordinates.
func edgeCoeffs(x0, y0, x1, y1 float64) (A, B, C float64) {
	A = y0 - y1 // dy
	B = x1 - x0 // -dx
	C = x0*y1 - x1*y0
	return
}

// ownsEdge is the tie-break for pixels exactly on an edge. Reversing the
// edge flips the answer, so a pixel on an edge shared by two triangles is
// drawn once.
func ownsEdge(A, B float64) bool {
	return A > 0 || (A == 0 && B > 0)
}

// rasterize fills one clipped triangle.
func (r *Rasterizer) rasterize(c0, c1, c2 clipVertex, shade fragmentShader) {
	sv := [3]screenVertex{r.toScreen(c0), r.toScreen(c1), r.toScreen(c2)}

	area := (sv[1].X-sv[0].X)*(sv[2].Y-sv[0].Y) - (sv[1].Y-sv[0].Y)*(sv[2].X-sv[0].X)
	if area == 0 || math.IsNaN(area) {
		return
	}

	// Counter-clockwise in NDC is clockwise on the y-down screen.
	front := area < 0
	switch r.state.Cull {
	case CullBack:
		if !front {
			r.Stats.TrianglesCulled++
			return
		}
	case CullFront:
		if front {
			r.Stats.TrianglesCulled++
			return
		}
	}

	if area < 0 {
		sv[1], sv[2] = sv[2], sv[1]
		area = -area
	}
	invArea := 1 / area

	var offset float64
	if r.state.Offset.Enabled {
		dzdx := ((sv[1].Z-sv[0].Z)*(sv[2].Y-sv[0].Y) - (sv[2].Z-sv[0].Z)*(sv[1].Y-sv[0].Y)) * invArea
		dzdy := ((sv[1].X-sv[0].X)*(sv[2].Z-sv[0].Z) - (sv[2].X-sv[0].X)*(sv[1].Z-sv[0].Z)) * invArea
		slope := math.Max(math.Abs(dzdx), math.Abs(dzdy))
		offset = r.state.Offset.Factor*slope + r.state.Offset.Units*depthResolution
	}

	// Bounding box (clamped to screen)
	minX := int(math.Max(0, math.Floor(min3(sv[0].X, sv[1].X, sv[2].X))))
	maxX := int(math.Min(float64(r.Width()-1), math.Ceil(max3(sv[0].X, sv[1].X, sv[2].X))))
	minY := int(math.Max(0, math.Floor(min3(sv[0].Y, sv[1].Y, sv[2].Y))))
	maxY := int(math.Min(float64(r.Height()-1), math.Ceil(max3(sv[0].Y, sv[1].Y, sv[2].Y))))
	if minX > maxX || minY > maxY {
		return
	}

	// Edge i is opposite vertex i.
	a0, b0, k0 := edgeCoeffs(sv[1].X, sv[1].Y, sv[2].X, sv[2].Y)
	a1, b1, k1 := edgeCoeffs(sv[2].X, sv[2].Y, sv[0].X, sv[0].Y)
	a2, b2, k2 := edgeCoeffs(sv[0].X, sv[0].Y, sv[1].X, sv[1].Y)
	own0, own1, own2 := ownsEdge(a0, b0), ownsEdge(a1, b1), ownsEdge(a2, b2)

	width := r.Width()
	for y := minY; y <= maxY; y++ {
		py := float64(y) + 0.5
		px := float64(minX) + 0.5
		e0 := a0*px + b0*py + k0
		e1 := a1*px + b1*py + k1
		e2 := a2*px + b2*py + k2

		for x := minX; x <= maxX; x, e0, e1, e2 = x+1, e0+a0, e1+a1, e2+a2 {
			if e0 < 0 || e1 < 0 || e2 < 0 {
				continue
			}
			if (e0 == 0 && !own0) || (e1 == 0 && !own1) || (e2 == 0 && !own2) {
				continue
			}

			w0, w1, w2 := e0*invArea, e1*invArea, e2*invArea
			z := w0*sv[0].Z + w1*sv[1].Z + w2*sv[2].Z + offset
			z = math.Max(0, math.Min(1, z))

			idx := y*width + x
			if !r.testAndUpdate(idx, z) {
				continue
			}
			if !r.state.ColorWrite {
				continue
			}

			// Perspective-correct weights
			p0, p1, p2 := w0*sv[0].InvW, w1*sv[1].InvW, w2*sv[2].InvW
			sum := p0 + p1 + p2
			if sum == 0 {
				continue
			}
			p0, p1, p2 = p0/sum, p1/sum, p2/sum

			frag := fragment{
				World:   sv[0].World.Scale(p0).Add(sv[1].World.Scale(p1)).Add(sv[2].World.Scale(p2)),
				Normal:  sv[0].Normal.Scale(p0).Add(sv[1].Normal.Scale(p1)).Add(sv[2].Normal.Scale(p2)),
				Tangent: sv[0].Tangent.Scale(p0).Add(sv[1].Tangent.Scale(p1)).Add(sv[2].Tangent.Scale(p2)),
				UV:      sv[0].UV.Scale(p0).Add(sv[1].UV.Scale(p1)).Add(sv[2].UV.Scale(p2)),
			}
			r.writeColor(idx, shade(frag))
		}
	}
}

// depthResolution is the smallest depth step polygon offset units scale,
// matching a 24-bit depth buffer.
const depthResolution = 1.0 / (1 << 24)

// testAndUpdate runs the stencil and depth tests for one fragment and
// applies the resulting stencil op and depth write. It reports whether the
// fragment survives to the color stage.
func (r *Rasterizer) testAndUpdate(idx int, z float64) bool {
	st := &r.state
	s := st.Stencil

	if s.Enabled {
		cur := r.stencil[idx]
		if !compare(s.Func, s.Ref&s.ReadMask, cur&s.ReadMask) {
			r.stencil[idx] = s.apply(s.Fail, cur)
			return false
		}
	}

	if st.DepthTest && !compare(st.DepthFunc, z, r.depth[idx]) {
		if s.Enabled {
			r.stencil[idx] = s.apply(s.DepthFail, r.stencil[idx])
		}
		return false
	}

	if s.Enabled {
		r.stencil[idx] = s.apply(s.Pass, r.stencil[idx])
	}
	// As in OpenGL, a disabled depth test also disables depth writes.
	if st.DepthTest && st.DepthWrite {
		r.depth[idx] = z
	}
	return true
}

// writeColor blends src over the framebuffer pixel at idx.
func (r *Rasterizer) writeColor(idx int, src math3d.Vec4) {
	out := src
	if r.state.Blend.Enabled {
		dst := colorToVec4(r.fb.Pixels[idx])
		fs := blendFactor(r.state.Blend.Src, src.W)
		fd := blendFactor(r.state.Blend.Dst, src.W)
		out = src.Scale(fs).Add(dst.Scale(fd))
	}
	r.fb.Pixels[idx] = Vec4ToColor(out)
	r.Stats.FragmentsWritten++
}

func blendFactor(f BlendFactor, srcAlpha float64) float64 {
	switch f {
	case BlendZero:
		return 0
	case BlendSrcAlpha:
		return srcAlpha
	case BlendOneMinusSrcAlpha:
		return 1 - srcAlpha
	default:
		return 1
	}
}

func min3(a, b, c float64) float64 {
	return math.Min(a, math.Min(b, c))
}

func max3(a, b, c float64) float64 {
	return math.Max(a, math.Max(b, c))
}
