// Package colorspace implements the per-level transform stage of spec.md
// S4.6: gamma linearize/encode, the optional color-space transforms (none,
// YCoCg-R, scaled YCoCg, linear 4x4 matrix, swizzle), and normal-map
// renormalization.
package colorspace

import (
	"math"

	"github.com/nvtex/gotexturetools/pkg/colorblock"
)

// Transform selects InputCfg.color_transform.
type Transform int

const (
	TransformNone Transform = iota
	TransformLinear
	TransformSwizzle
	TransformYCoCg
	TransformScaledYCoCg
)

// Linearize converts each RGB channel of fi from gamma-encoded to linear
// space using the classic power-law approximation (x^gamma); alpha is left
// untouched. gamma <= 0 or == 1 is a no-op.
func Linearize(fi *colorblock.FloatImage, gamma float64) {
	if gamma <= 0 || gamma == 1 {
		return
	}
	applyPerTexel(fi, 3, func(v float32) float32 {
		return float32(math.Pow(float64(v), gamma))
	})
}

// Encode converts each RGB channel of fi from linear to gamma-encoded
// space (x^(1/gamma)). gamma <= 0 or == 1 is a no-op.
func Encode(fi *colorblock.FloatImage, gamma float64) {
	if gamma <= 0 || gamma == 1 {
		return
	}
	applyPerTexel(fi, 3, func(v float32) float32 {
		return float32(math.Pow(float64(v), 1/gamma))
	})
}

// applyPerTexel applies f to the first n channels (or all channels, if
// fewer than n are present) of every texel in fi, in place.
func applyPerTexel(fi *colorblock.FloatImage, n int, f func(float32) float32) {
	if n > fi.Channels {
		n = fi.Channels
	}
	for c := 0; c < n; c++ {
		plane := fi.Data[c]
		for i, v := range plane {
			plane[i] = f(v)
		}
	}
}

// Mat4 is a row-major 4x4 matrix applied to (R, G, B, A) column vectors by
// the Linear color transform.
type Mat4 [16]float64

// Identity4 is the no-op linear transform.
func Identity4() Mat4 {
	return Mat4{
		1, 0, 0, 0,
		0, 1, 0, 0,
		0, 0, 1, 0,
		0, 0, 0, 1,
	}
}

// ApplyLinear multiplies every texel's (R,G,B,A) vector by m in place.
func ApplyLinear(fi *colorblock.FloatImage, m Mat4) {
	if fi.Channels < 4 {
		return
	}
	r, g, b, a := fi.Data[0], fi.Data[1], fi.Data[2], fi.Data[3]
	for i := range r {
		v0, v1, v2, v3 := float64(r[i]), float64(g[i]), float64(b[i]), float64(a[i])
		r[i] = float32(m[0]*v0 + m[1]*v1 + m[2]*v2 + m[3]*v3)
		g[i] = float32(m[4]*v0 + m[5]*v1 + m[6]*v2 + m[7]*v3)
		b[i] = float32(m[8]*v0 + m[9]*v1 + m[10]*v2 + m[11]*v3)
		a[i] = float32(m[12]*v0 + m[13]*v1 + m[14]*v2 + m[15]*v3)
	}
}

// ApplySwizzle reorders (or zeros) channels: each of r,g,b,a selects a
// source channel index 0..3, or -1 to force zero.
func ApplySwizzle(fi *colorblock.FloatImage, r, g, b, a int) {
	if fi.Channels < 4 {
		return
	}
	src := [4][]float32{fi.Data[0], fi.Data[1], fi.Data[2], fi.Data[3]}
	pick := func(idx int, i int) float32 {
		if idx < 0 {
			return 0
		}
		return src[idx][i]
	}
	n := len(src[0])
	outR, outG, outB, outA := make([]float32, n), make([]float32, n), make([]float32, n), make([]float32, n)
	for i := 0; i < n; i++ {
		outR[i] = pick(r, i)
		outG[i] = pick(g, i)
		outB[i] = pick(b, i)
		outA[i] = pick(a, i)
	}
	fi.Data[0], fi.Data[1], fi.Data[2], fi.Data[3] = outR, outG, outB, outA
}

// ToYCoCg converts RGB in place to the reversible YCoCg-R transform:
// Co = R - B; t = B + Co/2; Cg = G - t; Y = t + Cg/2.
func ToYCoCg(fi *colorblock.FloatImage) {
	if fi.Channels < 3 {
		return
	}
	r, g, b := fi.Data[0], fi.Data[1], fi.Data[2]
	for i := range r {
		R, G, B := float64(r[i]), float64(g[i]), float64(b[i])
		co := R - B
		t := B + co/2
		cg := G - t
		y := t + cg/2
		r[i] = float32(y)
		g[i] = float32(co)
		b[i] = float32(cg)
	}
}

// FromYCoCg is the inverse of ToYCoCg.
func FromYCoCg(fi *colorblock.FloatImage) {
	if fi.Channels < 3 {
		return
	}
	y, co, cg := fi.Data[0], fi.Data[1], fi.Data[2]
	for i := range y {
		Y, Co, Cg := float64(y[i]), float64(co[i]), float64(cg[i])
		t := Y - Cg/2
		g := Cg + t
		b := t - Co/2
		r := b + Co
		y[i] = float32(r)
		co[i] = float32(g)
		cg[i] = float32(b)
	}
}

// ToScaledYCoCg applies ToYCoCg then rescales Co and Cg from [-1,1] into
// [0,1] so the result fits unsigned 8-bit storage, matching NVTT's
// "scaled" variant used when chroma must round-trip through a UNORM block
// format.
func ToScaledYCoCg(fi *colorblock.FloatImage) {
	ToYCoCg(fi)
	if fi.Channels < 3 {
		return
	}
	co, cg := fi.Data[1], fi.Data[2]
	for i := range co {
		co[i] = co[i]/2 + 0.5
		cg[i] = cg[i]/2 + 0.5
	}
}

// FromScaledYCoCg is the inverse of ToScaledYCoCg.
func FromScaledYCoCg(fi *colorblock.FloatImage) {
	if fi.Channels >= 3 {
		co, cg := fi.Data[1], fi.Data[2]
		for i := range co {
			co[i] = (co[i] - 0.5) * 2
			cg[i] = (cg[i] - 0.5) * 2
		}
	}
	FromYCoCg(fi)
}

// RenormalizeNormalMap rescales each texel's (R,G,B) vector, interpreted as
// a signed direction packed into [0,1], back to unit length. Used after
// mipmap downsampling of normal maps per spec.md S4.6 step b.
func RenormalizeNormalMap(fi *colorblock.FloatImage) {
	if fi.Channels < 3 {
		return
	}
	r, g, b := fi.Data[0], fi.Data[1], fi.Data[2]
	for i := range r {
		x := float64(r[i])*2 - 1
		y := float64(g[i])*2 - 1
		z := float64(b[i])*2 - 1
		length := math.Sqrt(x*x + y*y + z*z)
		if length < 1e-8 {
			r[i], g[i], b[i] = 0.5, 0.5, 1
			continue
		}
		x, y, z = x/length, y/length, z/length
		r[i] = float32(x/2 + 0.5)
		g[i] = float32(y/2 + 0.5)
		b[i] = float32(z/2 + 0.5)
	}
}
