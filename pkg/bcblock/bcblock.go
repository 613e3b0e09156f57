// Package bcblock implements the on-disk block layouts of the BC/DXT family
// and the pure functions that pack, unpack, and score them: BlockDXT1 (and
// the BlockDXT3/BlockDXT5 color sub-block embedded in it), AlphaBlockDXT3,
// AlphaBlockDXT5, and the two-AlphaBlockDXT5 BlockATI2 (BC5) layout.
//
// Grounded on nvtt/BlockCompressor.cpp and nvtt/FastCompressDXT.cpp's
// palette-evaluation and color-distance routines.
package bcblock

import "github.com/nvtex/gotexturetools/pkg/colorblock"

// Endpoints565 is a pair of 16-bit 5:6:5 endpoint colors.
type Endpoints565 struct {
	Col0, Col1 uint16
}

// BlockDXT1 is the 8-byte two-endpoint, 16-index color block shared by
// BC1/BC1a and embedded (forced to four-color mode) inside BC2/BC3/BC3n.
type BlockDXT1 struct {
	Endpoints Endpoints565
	Indices   uint32 // 16 x 2-bit indices, row-major, LSB first
}

// FourColorMode reports whether this block interpolates in four-color mode
// (col0 > col1) as opposed to three-color-plus-transparent mode.
func (b BlockDXT1) FourColorMode() bool {
	return b.Endpoints.Col0 > b.Endpoints.Col1
}

// Index returns the 2-bit palette index of texel i (0..15).
func (b BlockDXT1) Index(i int) uint8 {
	return uint8((b.Indices >> uint(2*i)) & 0x3)
}

// SetIndex writes the 2-bit palette index of texel i (0..15).
func (b *BlockDXT1) SetIndex(i int, idx uint8) {
	shift := uint(2 * i)
	b.Indices = (b.Indices &^ (0x3 << shift)) | (uint32(idx&0x3) << shift)
}

// PackDXT1 serializes a BlockDXT1 to its 8-byte little-endian wire form.
func PackDXT1(b BlockDXT1) [8]byte {
	var out [8]byte
	out[0] = byte(b.Endpoints.Col0)
	out[1] = byte(b.Endpoints.Col0 >> 8)
	out[2] = byte(b.Endpoints.Col1)
	out[3] = byte(b.Endpoints.Col1 >> 8)
	out[4] = byte(b.Indices)
	out[5] = byte(b.Indices >> 8)
	out[6] = byte(b.Indices >> 16)
	out[7] = byte(b.Indices >> 24)
	return out
}

// UnpackDXT1 parses an 8-byte BlockDXT1 and reports whether it is in
// four-color mode.
func UnpackDXT1(data [8]byte) (b BlockDXT1, fourColor bool) {
	b.Endpoints.Col0 = uint16(data[0]) | uint16(data[1])<<8
	b.Endpoints.Col1 = uint16(data[2]) | uint16(data[3])<<8
	b.Indices = uint32(data[4]) | uint32(data[5])<<8 | uint32(data[6])<<16 | uint32(data[7])<<24
	return b, b.FourColorMode()
}

// expand5 and expand6 expand a 5-bit (or 6-bit for green) channel to 8 bits
// by bit replication: (x<<3)|(x>>2) and (x<<2)|(x>>4) respectively.
func expand5(x uint16) uint8 {
	v := uint8(x & 0x1f)
	return (v << 3) | (v >> 2)
}

func expand6(x uint16) uint8 {
	v := uint8(x & 0x3f)
	return (v << 2) | (v >> 4)
}

// unpack565 splits a 16-bit 5:6:5 color into 8-bit R, G, B.
func unpack565(c uint16) (r, g, b uint8) {
	r = expand5(c >> 11)
	g = expand6(c >> 5)
	b = expand5(c)
	return
}

// lerpThird computes (2*a+b)/3 with integer rounding: 1 is added before the
// integer division by 3, i.e. (2a+b+1)/3.
func lerpThird(a, b uint8) uint8 {
	return uint8((2*int(a) + int(b) + 1) / 3)
}

func lerpHalf(a, b uint8) uint8 {
	return uint8((int(a) + int(b) + 1) / 2)
}

// EvaluatePalette4 computes the four-color-mode palette: the two endpoints
// plus the 1/3 and 2/3 interpolants, per spec.md S4.1.
func EvaluatePalette4(e Endpoints565) [4]colorblock.Color {
	r0, g0, b0 := unpack565(e.Col0)
	r1, g1, b1 := unpack565(e.Col1)
	return [4]colorblock.Color{
		{R: r0, G: g0, B: b0, A: 255},
		{R: r1, G: g1, B: b1, A: 255},
		{R: lerpThird(r0, r1), G: lerpThird(g0, g1), B: lerpThird(b0, b1), A: 255},
		{R: lerpThird(r1, r0), G: lerpThird(g1, g0), B: lerpThird(b1, b0), A: 255},
	}
}

// EvaluatePalette3 computes the three-color-plus-transparent palette: the
// two endpoints, their midpoint, and transparent black at index 3.
func EvaluatePalette3(e Endpoints565) [4]colorblock.Color {
	r0, g0, b0 := unpack565(e.Col0)
	r1, g1, b1 := unpack565(e.Col1)
	return [4]colorblock.Color{
		{R: r0, G: g0, B: b0, A: 255},
		{R: r1, G: g1, B: b1, A: 255},
		{R: lerpHalf(r0, r1), G: lerpHalf(g0, g1), B: lerpHalf(b0, b1), A: 255},
		{R: 0, G: 0, B: 0, A: 0},
	}
}

// Palette returns the effective 4-entry palette for a BlockDXT1, selecting
// four-color or three-color-plus-transparent mode per b.FourColorMode().
func (b BlockDXT1) Palette() [4]colorblock.Color {
	if b.FourColorMode() {
		return EvaluatePalette4(b.Endpoints)
	}
	return EvaluatePalette3(b.Endpoints)
}

// AlphaBlockDXT3 holds sixteen 4-bit alpha values, row-major.
type AlphaBlockDXT3 struct {
	Alpha [16]uint8 // values 0..15
}

// PackDXT3Alpha serializes the 4-bit alphas to 8 little-endian bytes.
func PackDXT3Alpha(a AlphaBlockDXT3) [8]byte {
	var out [8]byte
	for i := 0; i < 16; i++ {
		nibble := a.Alpha[i] & 0xf
		byteIdx := i / 2
		if i%2 == 0 {
			out[byteIdx] = (out[byteIdx] &^ 0x0f) | nibble
		} else {
			out[byteIdx] = (out[byteIdx] &^ 0xf0) | (nibble << 4)
		}
	}
	return out
}

// UnpackDXT3Alpha parses 8 bytes into sixteen 4-bit alpha values.
func UnpackDXT3Alpha(data [8]byte) AlphaBlockDXT3 {
	var a AlphaBlockDXT3
	for i := 0; i < 16; i++ {
		byteIdx := i / 2
		if i%2 == 0 {
			a.Alpha[i] = data[byteIdx] & 0x0f
		} else {
			a.Alpha[i] = (data[byteIdx] >> 4) & 0x0f
		}
	}
	return a
}

// AlphaBlockDXT5 holds two 8-bit endpoints and sixteen 3-bit indices.
type AlphaBlockDXT5 struct {
	A0, A1  uint8
	Indices uint64 // 16 x 3-bit indices, row-major, packed LSB-first in 48 bits
}

// Index returns the 3-bit palette index of texel i (0..15).
func (a AlphaBlockDXT5) Index(i int) uint8 {
	return uint8((a.Indices >> uint(3*i)) & 0x7)
}

// SetIndex writes the 3-bit palette index of texel i (0..15).
func (a *AlphaBlockDXT5) SetIndex(i int, idx uint8) {
	shift := uint(3 * i)
	a.Indices = (a.Indices &^ (0x7 << shift)) | (uint64(idx&0x7) << shift)
}

// EightAlphaMode reports whether this block uses the eight-level
// interpolated palette (a0 > a1) as opposed to the six-interpolated-alpha
// mode with explicit 0/255 constants.
func (a AlphaBlockDXT5) EightAlphaMode() bool {
	return a.A0 > a.A1
}

// EvaluatePalette8 computes the eight-level alpha palette used when a0 > a1:
// index 0 is a0, index 1 is a1, and index i in 2..7 interpolates with weight
// (8-i)/7 on a0 and (i-1)/7 on a1, rounded to nearest.
func EvaluatePalette8(a0, a1 uint8) [8]uint8 {
	var p [8]uint8
	p[0], p[1] = a0, a1
	for i := 2; i < 8; i++ {
		p[i] = uint8((int(a0)*(8-i) + int(a1)*(i-1) + 3) / 7)
	}
	return p
}

// EvaluatePalette6 computes the six-interpolated-alpha palette used when
// a0 <= a1: index 0 is a0, index 1 is a1, index i in 2..5 interpolates with
// weight (6-i)/5 on a0 and (i-1)/5 on a1, and indices 6 and 7 hold the
// constants 0 and 255.
func EvaluatePalette6(a0, a1 uint8) [8]uint8 {
	var p [8]uint8
	p[0], p[1] = a0, a1
	for i := 2; i < 6; i++ {
		p[i] = uint8((int(a0)*(6-i) + int(a1)*(i-1) + 2) / 5)
	}
	p[6] = 0
	p[7] = 255
	return p
}

// Palette returns the effective 8-entry alpha palette for a block.
func (a AlphaBlockDXT5) Palette() [8]uint8 {
	if a.EightAlphaMode() {
		return EvaluatePalette8(a.A0, a.A1)
	}
	return EvaluatePalette6(a.A0, a.A1)
}

// PackDXT5Alpha serializes an AlphaBlockDXT5 to 8 little-endian bytes: two
// endpoint bytes followed by 48 bits of indices.
func PackDXT5Alpha(a AlphaBlockDXT5) [8]byte {
	var out [8]byte
	out[0] = a.A0
	out[1] = a.A1
	bits := a.Indices
	out[2] = byte(bits)
	out[3] = byte(bits >> 8)
	out[4] = byte(bits >> 16)
	out[5] = byte(bits >> 24)
	out[6] = byte(bits >> 32)
	out[7] = byte(bits >> 40)
	return out
}

// UnpackDXT5Alpha parses 8 bytes into an AlphaBlockDXT5.
func UnpackDXT5Alpha(data [8]byte) AlphaBlockDXT5 {
	var a AlphaBlockDXT5
	a.A0 = data[0]
	a.A1 = data[1]
	a.Indices = uint64(data[2]) | uint64(data[3])<<8 | uint64(data[4])<<16 |
		uint64(data[5])<<24 | uint64(data[6])<<32 | uint64(data[7])<<40
	a.Indices &= (1 << 48) - 1
	return a
}

// BlockDXT3 is an AlphaBlockDXT3 followed by a BlockDXT1 required to be in
// four-color mode.
type BlockDXT3 struct {
	Alpha AlphaBlockDXT3
	Color BlockDXT1
}

// PackDXT3 serializes a 16-byte BC2 block.
func PackDXT3(b BlockDXT3) [16]byte {
	var out [16]byte
	a := PackDXT3Alpha(b.Alpha)
	c := PackDXT1(b.Color)
	copy(out[0:8], a[:])
	copy(out[8:16], c[:])
	return out
}

// UnpackDXT3 parses a 16-byte BC2 block.
func UnpackDXT3(data [16]byte) BlockDXT3 {
	var a [8]byte
	var c [8]byte
	copy(a[:], data[0:8])
	copy(c[:], data[8:16])
	color, _ := UnpackDXT1(c)
	return BlockDXT3{Alpha: UnpackDXT3Alpha(a), Color: color}
}

// BlockDXT5 is an AlphaBlockDXT5 followed by a BlockDXT1 in four-color mode.
type BlockDXT5 struct {
	Alpha AlphaBlockDXT5
	Color BlockDXT1
}

// PackDXT5 serializes a 16-byte BC3 block.
func PackDXT5(b BlockDXT5) [16]byte {
	var out [16]byte
	a := PackDXT5Alpha(b.Alpha)
	c := PackDXT1(b.Color)
	copy(out[0:8], a[:])
	copy(out[8:16], c[:])
	return out
}

// UnpackDXT5 parses a 16-byte BC3 block.
func UnpackDXT5(data [16]byte) BlockDXT5 {
	var a [8]byte
	var c [8]byte
	copy(a[:], data[0:8])
	copy(c[:], data[8:16])
	color, _ := UnpackDXT1(c)
	return BlockDXT5{Alpha: UnpackDXT5Alpha(a), Color: color}
}

// BlockATI2 (BC5) is two independent AlphaBlockDXT5 structures encoding the
// X and Y channels.
type BlockATI2 struct {
	X, Y AlphaBlockDXT5
}

// PackATI2 serializes a 16-byte BC5 block.
func PackATI2(b BlockATI2) [16]byte {
	var out [16]byte
	x := PackDXT5Alpha(b.X)
	y := PackDXT5Alpha(b.Y)
	copy(out[0:8], x[:])
	copy(out[8:16], y[:])
	return out
}

// UnpackATI2 parses a 16-byte BC5 block.
func UnpackATI2(data [16]byte) BlockATI2 {
	var x [8]byte
	var y [8]byte
	copy(x[:], data[0:8])
	copy(y[:], data[8:16])
	return BlockATI2{X: UnpackDXT5Alpha(x), Y: UnpackDXT5Alpha(y)}
}

// ColorWeights are the per-channel weights used by BlockError's distance
// metric; the zero value is equivalent to unweighted (1,1,1).
type ColorWeights struct {
	R, G, B float64
}

func sqr(v float64) float64 { return v * v }

// BlockError sums, over the 16 texels of reference, the squared color
// distance to the palette entry selected by block's index word. With zero
// ColorWeights it defaults to unweighted (Δr)²+(Δg)²+(Δb)².
func BlockError(reference *colorblock.ColorBlock, block BlockDXT1, weights ColorWeights) uint32 {
	if weights == (ColorWeights{}) {
		weights = ColorWeights{1, 1, 1}
	}
	palette := block.Palette()
	var total float64
	for i := 0; i < 16; i++ {
		ref := reference.Color(i)
		p := palette[block.Index(i)]
		total += weights.R*sqr(float64(ref.R)-float64(p.R)) +
			weights.G*sqr(float64(ref.G)-float64(p.G)) +
			weights.B*sqr(float64(ref.B)-float64(p.B))
	}
	return uint32(total + 0.5)
}

// AlphaBlockError sums, over 16 texels, the squared difference between a
// reference 8-bit alpha channel and the palette entry selected by the
// block's index word.
func AlphaBlockError(reference [16]uint8, block AlphaBlockDXT5) uint32 {
	palette := block.Palette()
	var total uint32
	for i := 0; i < 16; i++ {
		d := int32(reference[i]) - int32(palette[block.Index(i)])
		total += uint32(d * d)
	}
	return total
}
