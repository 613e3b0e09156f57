// Package bcenc implements the per-format block encoders of spec.md S4.4:
// BC1/DXT1, BC1a/DXT1a, BC2/DXT3, BC3/DXT5, BC3n/DXT5n, BC4, and BC5. Each
// encoder decomposes a tile into the color and/or alpha sub-problems solved
// by packages colorfit and alphafit and emits the format's byte layout.
//
// Grounded on nvtt/BlockCompressor.cpp and nvtt/CompressDXT.cpp's per-format
// compressBlock dispatch.
package bcenc

import (
	"github.com/nvtex/gotexturetools/pkg/alphafit"
	"github.com/nvtex/gotexturetools/pkg/bcblock"
	"github.com/nvtex/gotexturetools/pkg/colorblock"
	"github.com/nvtex/gotexturetools/pkg/colorfit"
)

// Quality is the compression quality dial; it maps onto colorfit/alphafit
// tiers per-format below.
type Quality int

const (
	Fastest Quality = iota
	NormalQuality
	Production
	HighestQuality
)

// Format identifies a BC/DXT block-compression format.
type Format int

const (
	BC1 Format = iota
	BC1a
	BC1n
	BC2
	BC3
	BC3n
	BC4
	BC5
)

// Options carries the per-call tuning knobs shared by all encoders.
type Options struct {
	Quality        Quality
	ChannelWeights bcblock.ColorWeights
	// AlphaThreshold is the BC1a cutoff below which a texel is treated as
	// fully transparent (punch-through).
	AlphaThreshold uint8
}

// Encoder is the stateless per-block compressor the tile dispatcher (S4.5)
// drives: BlockSize reports the on-disk block size in bytes, CompressBlock
// writes exactly that many bytes to out.
type Encoder interface {
	BlockSize() int
	CompressBlock(tile *colorblock.ColorBlock, opts Options, out []byte)
}

// New returns the Encoder for the given format.
func New(format Format) Encoder {
	switch format {
	case BC1:
		return bc1Encoder{}
	case BC1a:
		return bc1aEncoder{}
	case BC1n:
		return bc1nEncoder{}
	case BC2:
		return bc2Encoder{}
	case BC3:
		return bc3Encoder{}
	case BC3n:
		return bc3nEncoder{}
	case BC4:
		return bc4Encoder{}
	case BC5:
		return bc5Encoder{}
	default:
		return bc1Encoder{}
	}
}

func colorTier(q Quality) colorfit.Tier {
	switch q {
	case Fastest:
		return colorfit.Fast
	case HighestQuality:
		return colorfit.Highest
	default:
		return colorfit.Normal
	}
}

func alphaTier(q Quality) alphafit.Tier {
	switch q {
	case Fastest:
		return alphafit.Fast
	case HighestQuality:
		return alphafit.Highest
	default:
		return alphafit.Iterative
	}
}

func alphaChannel(tile *colorblock.ColorBlock, pick func(colorblock.Color) uint8) [16]uint8 {
	var a [16]uint8
	for i := 0; i < 16; i++ {
		a[i] = pick(tile.Color(i))
	}
	return a
}

func colorOnly(tile *colorblock.ColorBlock, opts Options) bcblock.BlockDXT1 {
	return colorfit.Fit(tile, colorTier(opts.Quality), colorfit.Options{ChannelWeights: opts.ChannelWeights})
}

// bc1Encoder implements BC1/DXT1.
type bc1Encoder struct{}

func (bc1Encoder) BlockSize() int { return 8 }
func (bc1Encoder) CompressBlock(tile *colorblock.ColorBlock, opts Options, out []byte) {
	block := colorOnly(tile, opts)
	writeDXT1(block, out)
}

// bc1nEncoder is BC1 with the block forced into a DXT1n-friendly palette;
// normal-map-specific swizzling happens upstream (pipeline color-transform
// stage), so the block encode itself is identical to BC1.
type bc1nEncoder struct{ bc1Encoder }

// bc1aEncoder implements BC1a/DXT1a: texels below AlphaThreshold are
// weighted to zero color contribution, the block is forced to three-color
// mode, and their index is forced to the punch-through entry (3).
type bc1aEncoder struct{}

func (bc1aEncoder) BlockSize() int { return 8 }
func (bc1aEncoder) CompressBlock(tile *colorblock.ColorBlock, opts Options, out []byte) {
	var weights [16]float64
	var transparent [16]bool
	anyTransparent := false
	for i := 0; i < 16; i++ {
		c := tile.Color(i)
		if c.A < opts.AlphaThreshold {
			weights[i] = 0
			transparent[i] = true
			anyTransparent = true
		} else {
			weights[i] = 1
		}
	}
	fitOpts := colorfit.Options{
		Weights:           &weights,
		ChannelWeights:    opts.ChannelWeights,
		AllowPunchThrough: anyTransparent,
	}
	if anyTransparent {
		fitOpts.Transparent = &transparent
	}
	block := colorfit.Fit(tile, colorTier(opts.Quality), fitOpts)
	if anyTransparent {
		if block.FourColorMode() {
			// Swap into three-color mode: the endpoints trade indices and
			// both third-point interpolants map to the midpoint.
			block.Endpoints.Col0, block.Endpoints.Col1 = block.Endpoints.Col1, block.Endpoints.Col0
			remap := [4]uint8{1, 0, 2, 2}
			for i := 0; i < 16; i++ {
				block.SetIndex(i, remap[block.Index(i)])
			}
		}
		for i := 0; i < 16; i++ {
			if transparent[i] {
				block.SetIndex(i, 3)
			}
		}
	}
	writeDXT1(block, out)
}

// bc2Encoder implements BC2/DXT3: four-color-forced color block plus a
// plain 4-bit-per-texel alpha block (no dithering).
type bc2Encoder struct{}

func (bc2Encoder) BlockSize() int { return 16 }
func (bc2Encoder) CompressBlock(tile *colorblock.ColorBlock, opts Options, out []byte) {
	block := forceFourColor(colorOnly(tile, opts))
	var alpha bcblock.AlphaBlockDXT3
	for i := 0; i < 16; i++ {
		alpha.Alpha[i] = tile.Color(i).A >> 4
	}
	full := bcblock.BlockDXT3{Alpha: alpha, Color: block}
	packed := bcblock.PackDXT3(full)
	copy(out, packed[:])
}

// bc3Encoder implements BC3/DXT5: four-color-forced color block plus an
// alphafit-searched alpha block at the tier implied by the quality dial.
type bc3Encoder struct{}

func (bc3Encoder) BlockSize() int { return 16 }
func (bc3Encoder) CompressBlock(tile *colorblock.ColorBlock, opts Options, out []byte) {
	block := forceFourColor(colorOnly(tile, opts))
	a := alphaChannel(tile, func(c colorblock.Color) uint8 { return c.A })
	alphaBlock := alphafit.Fit(a, alphaTier(opts.Quality))
	full := bcblock.BlockDXT5{Alpha: alphaBlock, Color: block}
	packed := bcblock.PackDXT5(full)
	copy(out, packed[:])
}

// bc3nEncoder implements BC3n/DXT5n: swizzle red->alpha, keep green->green,
// zero red and blue, then encode as BC3.
type bc3nEncoder struct{}

func (bc3nEncoder) BlockSize() int { return 16 }
func (bc3nEncoder) CompressBlock(tile *colorblock.ColorBlock, opts Options, out []byte) {
	swizzled := *tile
	swizzled.SwizzleXYZW(-1, 1, -1, 2) // R:=0, G:=src G, B:=0, A:=src R
	bc3Encoder{}.CompressBlock(&swizzled, opts, out)
}

// bc4Encoder implements BC4: the red channel alone, alphafit-searched.
type bc4Encoder struct{}

func (bc4Encoder) BlockSize() int { return 8 }
func (bc4Encoder) CompressBlock(tile *colorblock.ColorBlock, opts Options, out []byte) {
	r := alphaChannel(tile, func(c colorblock.Color) uint8 { return c.R })
	block := alphafit.Fit(r, alphaTier(opts.Quality))
	packed := bcblock.PackDXT5Alpha(block)
	copy(out, packed[:])
}

// bc5Encoder implements BC5: red and green channels as two independent
// AlphaBlockDXT5 structures.
type bc5Encoder struct{}

func (bc5Encoder) BlockSize() int { return 16 }
func (bc5Encoder) CompressBlock(tile *colorblock.ColorBlock, opts Options, out []byte) {
	r := alphaChannel(tile, func(c colorblock.Color) uint8 { return c.R })
	g := alphaChannel(tile, func(c colorblock.Color) uint8 { return c.G })
	block := bcblock.BlockATI2{
		X: alphafit.Fit(r, alphaTier(opts.Quality)),
		Y: alphafit.Fit(g, alphaTier(opts.Quality)),
	}
	packed := bcblock.PackATI2(block)
	copy(out, packed[:])
}

func writeDXT1(block bcblock.BlockDXT1, out []byte) {
	packed := bcblock.PackDXT1(block)
	copy(out, packed[:])
}

// forceFourColor swaps endpoints if needed so the block is in four-color
// mode, swapping indices 0 and 1 so those texels keep their endpoint color.
// Index 2 is left as is: the three-color midpoint becomes the four-color
// third-point nearer the new col0, so its decoded color shifts slightly. The
// three-color punch-through entry (index 3) has no four-color equivalent,
// so callers that need it (BC1a) must not call this.
func forceFourColor(block bcblock.BlockDXT1) bcblock.BlockDXT1 {
	if block.FourColorMode() {
		return block
	}
	block.Endpoints.Col0, block.Endpoints.Col1 = block.Endpoints.Col1, block.Endpoints.Col0
	if block.Endpoints.Col0 == block.Endpoints.Col1 {
		// Swap alone is a no-op when both endpoints quantized to the same
		// 565 value; nudge blue by one step so col0 > col1 actually holds.
		b := block.Endpoints.Col0 & 0x1f
		if b > 0 {
			block.Endpoints.Col1--
		} else {
			block.Endpoints.Col0++
		}
	}
	for i := 0; i < 16; i++ {
		idx := block.Index(i)
		if idx == 0 {
			block.SetIndex(i, 1)
		} else if idx == 1 {
			block.SetIndex(i, 0)
		}
		// idx 2 (midpoint) stays valid in four-color mode too (it's the
		// 1/3 or 2/3 interpolant either way); idx 3 (transparent) cannot
		// occur here because BC2/BC3 tiles have no alpha-driven punch
		// through in the color block.
	}
	return block
}
