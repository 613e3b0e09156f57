// Package quantize implements spec.md S4.6's final per-level step: reducing
// a FloatImage's per-channel precision to the output format's bit depth,
// with optional Floyd-Steinberg error diffusion, and thresholding or
// diffusing alpha to a binary 0/255 for punch-through formats.
//
// Grounded on nvimage/Quantize.h's per-channel dither/truncate API.
package quantize

import "github.com/nvtex/gotexturetools/pkg/colorblock"

// Precision is the target bit depth for one channel.
type Precision struct {
	R, G, B, A uint
}

// RGB565 is BC1/BC2/BC3's native color precision.
var RGB565 = Precision{R: 5, G: 6, B: 5, A: 8}

func maxValue(bits uint) float32 {
	if bits == 0 {
		return 0
	}
	return float32((uint32(1) << bits) - 1)
}

// Channels quantizes each of fi's first min(4, fi.Channels) channels to the
// given bit precision, in place, with optional Floyd-Steinberg diffusion of
// the rounding residual across each scanline.
func Channels(fi *colorblock.FloatImage, p Precision, dither bool) {
	bits := [4]uint{p.R, p.G, p.B, p.A}
	n := fi.Channels
	if n > 4 {
		n = 4
	}
	for c := 0; c < n; c++ {
		if bits[c] == 0 {
			continue
		}
		if dither {
			ditherChannel(fi, c, bits[c])
		} else {
			truncateChannel(fi, c, bits[c])
		}
	}
}

func truncateChannel(fi *colorblock.FloatImage, c int, bits uint) {
	max := maxValue(bits)
	plane := fi.Data[c]
	for i, v := range plane {
		plane[i] = quantizeValue(v, max)
	}
}

func quantizeValue(v float32, max float32) float32 {
	if v < 0 {
		v = 0
	}
	if v > 1 {
		v = 1
	}
	level := float32(int(v*max + 0.5))
	return level / max
}

// ditherChannel applies Floyd-Steinberg error diffusion while quantizing
// channel c to bits of precision: the rounding error at each texel is
// pushed 7/16 right, 3/16 down-left, 5/16 down, 1/16 down-right, matching
// the classic serpentine-free raster-order diffusion pattern.
func ditherChannel(fi *colorblock.FloatImage, c int, bits uint) {
	max := maxValue(bits)
	w, h := fi.Width, fi.Height
	plane := fi.Data[c]
	errRow := make([]float32, w)
	nextErrRow := make([]float32, w)
	for y := 0; y < h; y++ {
		for i := range nextErrRow {
			nextErrRow[i] = 0
		}
		for x := 0; x < w; x++ {
			idx := y*w + x
			v := plane[idx] + errRow[x]
			q := quantizeValue(v, max)
			diff := v - q
			if x+1 < w {
				errRow[x+1] += diff * 7.0 / 16.0
			}
			if x-1 >= 0 {
				nextErrRow[x-1] += diff * 3.0 / 16.0
			}
			nextErrRow[x] += diff * 5.0 / 16.0
			if x+1 < w {
				nextErrRow[x+1] += diff * 1.0 / 16.0
			}
			plane[idx] = q
		}
		errRow, nextErrRow = nextErrRow, errRow
	}
}

// BinaryAlphaThreshold sets alpha to 0 or 1 (pre-scale) by comparison
// against threshold (an 8-bit-scale value in [0,255]), with no diffusion.
func BinaryAlphaThreshold(fi *colorblock.FloatImage, threshold uint8) {
	if fi.Channels < 4 {
		return
	}
	cut := float32(threshold) / 255
	a := fi.Data[3]
	for i, v := range a {
		if v >= cut {
			a[i] = 1
		} else {
			a[i] = 0
		}
	}
}

// BinaryAlphaDiffuse thresholds alpha to 0/1 using Floyd-Steinberg error
// diffusion so the average coverage across a neighborhood is preserved,
// matching the "alpha_dithering" InputCfg option for formats with a
// punch-through (one-bit) alpha channel.
func BinaryAlphaDiffuse(fi *colorblock.FloatImage, threshold uint8) {
	if fi.Channels < 4 {
		return
	}
	cut := float32(threshold) / 255
	w, h := fi.Width, fi.Height
	a := fi.Data[3]
	errRow := make([]float32, w)
	nextErrRow := make([]float32, w)
	for y := 0; y < h; y++ {
		for i := range nextErrRow {
			nextErrRow[i] = 0
		}
		for x := 0; x < w; x++ {
			idx := y*w + x
			v := a[idx] + errRow[x]
			var q float32
			if v >= cut {
				q = 1
			}
			diff := v - q
			if x+1 < w {
				errRow[x+1] += diff * 7.0 / 16.0
			}
			if x-1 >= 0 {
				nextErrRow[x-1] += diff * 3.0 / 16.0
			}
			nextErrRow[x] += diff * 5.0 / 16.0
			if x+1 < w {
				nextErrRow[x+1] += diff * 1.0 / 16.0
			}
			a[idx] = q
		}
		errRow, nextErrRow = nextErrRow, errRow
	}
}

// PremultiplyAlpha scales RGB by alpha in place, per InputCfg.premultiply_alpha.
func PremultiplyAlpha(fi *colorblock.FloatImage) {
	if fi.Channels < 4 {
		return
	}
	r, g, b, a := fi.Data[0], fi.Data[1], fi.Data[2], fi.Data[3]
	for i := range r {
		r[i] *= a[i]
		g[i] *= a[i]
		b[i] *= a[i]
	}
}
