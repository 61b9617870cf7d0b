package render

import (
	"math"

	"github.com/taigrr/tablescene/pkg/math3d"
)

// BumpScale converts height-map texel differences into normal tilt.
const BumpScale = 6.0

// DefaultShadowColor is the flat shadow color when none is set.
var DefaultShadowColor = math3d.V4(0, 0, 0, 0.5)

// fragment holds interpolated attributes for one pixel.
type fragment struct {
	World   math3d.Vec3
	Normal  math3d.Vec3
	Tangent math3d.Vec3
	UV      math3d.Vec2
}

// fragmentShader returns the RGBA color of a fragment.
type fragmentShader func(f fragment) math3d.Vec4

// newFragmentShader snapshots the uniforms and bindings of a draw call
// into a shading function for its shading model.
func newFragmentShader(p *softProgram, call DrawCall) fragmentShader {
	if p.desc.Shading == ShadingFlat {
		c, ok := p.vec4s[UniformShadowColor]
		if !ok {
			c = DefaultShadowColor
		}
		return func(fragment) math3d.Vec4 { return c }
	}

	ph := phong{
		mat:      call.Material,
		decal:    call.Textures[TextureDecal],
		eye:      p.Vec3(UniformEye),
		light:    p.Vec3(UniformLightPosition),
		ambient:  p.Vec3(UniformLightAmbient),
		diffuse:  p.Vec3(UniformLightDiffuse),
		specular: p.Vec3(UniformLightSpecular),
		fogColor: p.Vec3(UniformFogColor),
		fogStart: p.floatOr(UniformFogStart, DefaultFogStart),
		fogEnd:   p.floatOr(UniformFogEnd, DefaultFogEnd),
		useFog:   p.Int(UniformUseFog) != 0,
	}
	if p.Int(UniformUseBump) != 0 {
		ph.bump = call.Textures[TextureBump]
	}
	return ph.shade
}

func (u *Uniforms) floatOr(name string, def float64) float64 {
	if v, ok := u.floats[name]; ok {
		return v
	}
	return def
}

// phong is per-fragment Phong lighting in world space.
type phong struct {
	mat   Material
	decal *Texture
	bump  *Texture

	eye, light                 math3d.Vec3
	ambient, diffuse, specular math3d.Vec3

	fogColor         math3d.Vec3
	fogStart, fogEnd float64
	useFog           bool
}

func (ph *phong) shade(f fragment) math3d.Vec4 {
	n := f.Normal.Normalize()
	if ph.bump != nil {
		n = ph.perturb(n, f)
	}

	tex := math3d.V4(1, 1, 1, 1)
	if ph.decal != nil {
		tex = ph.decal.SampleVec4(f.UV.X, f.UV.Y)
	}
	texRGB := tex.Vec3()

	l := ph.light.Sub(f.World).Normalize()
	v := ph.eye.Sub(f.World).Normalize()

	color := ph.ambient.Mul(ph.mat.Ambient.Vec3()).Mul(texRGB)

	diff := n.Dot(l)
	if diff > 0 {
		color = color.Add(ph.diffuse.Mul(ph.mat.Diffuse.Vec3()).Mul(texRGB).Scale(diff))

		refl := l.Negate().Reflect(n)
		if s := refl.Dot(v); s > 0 {
			color = color.Add(ph.specular.Mul(ph.mat.Specular.Vec3()).Scale(math.Pow(s, ph.mat.Shininess)))
		}
	}

	if ph.useFog {
		d := f.World.Distance(ph.eye)
		k := clamp01((ph.fogEnd - d) / (ph.fogEnd - ph.fogStart))
		color = ph.fogColor.Lerp(color, k)
	}

	return math3d.V4(clamp01(color.X), clamp01(color.Y), clamp01(color.Z), ph.mat.Diffuse.W*tex.W)
}

// perturb tilts n by the height-map gradient along the surface tangent
// frame.
func (ph *phong) perturb(n math3d.Vec3, f fragment) math3d.Vec3 {
	t := f.Tangent.Sub(n.Scale(n.Dot(f.Tangent)))
	if t.LenSq() < 1e-12 {
		return n
	}
	t = t.Normalize()
	b := n.Cross(t)

	du := 1 / float64(ph.bump.Width)
	dv := 1 / float64(ph.bump.Height)
	h := ph.bump.Luminance(f.UV.X, f.UV.Y)
	dhu := ph.bump.Luminance(f.UV.X+du, f.UV.Y) - h
	dhv := ph.bump.Luminance(f.UV.X, f.UV.Y+dv) - h

	return n.Sub(t.Scale(dhu * BumpScale)).Sub(b.Scale(dhv * BumpScale)).Normalize()
}

func clamp01(x float64) float64 {
	return math.Max(0, math.Min(1, x))
}
