// Package colorblock provides the raster data types consumed by the block
// compression engine: a clamped 4x4 pixel tile, a fixed-size BGRA image, and
// a planar float image used for color-space work and mipmap resampling.
package colorblock

// PixelOrder indicates whether an Image's alpha channel carries meaningful
// data or is an opaque placeholder.
type PixelOrder int

const (
	// OrderRGB means alpha is not meaningful.
	OrderRGB PixelOrder = iota
	// OrderARGB means alpha is meaningful.
	OrderARGB
)

// WrapMode controls how out-of-range texel coordinates are resolved.
type WrapMode int

const (
	WrapClamp WrapMode = iota
	WrapRepeat
	WrapMirror
)

// Color is a 32-bit BGRA pixel, matching the on-disk/in-memory layout the
// spec's ColorBlock and Image types are built from.
type Color struct {
	B, G, R, A uint8
}

// Image is a fixed width x height array of BGRA pixels with edge-sampling
// helpers for the three wrap modes.
type Image struct {
	Width, Height int
	Order         PixelOrder
	Pixels        []Color
}

// NewImage allocates a zeroed image of the given size.
func NewImage(width, height int, order PixelOrder) *Image {
	return &Image{
		Width:  width,
		Height: height,
		Order:  order,
		Pixels: make([]Color, width*height),
	}
}

// At returns the pixel at (x, y) with no bounds adjustment.
func (img *Image) At(x, y int) Color {
	return img.Pixels[y*img.Width+x]
}

// Set writes the pixel at (x, y) with no bounds adjustment.
func (img *Image) Set(x, y int, c Color) {
	img.Pixels[y*img.Width+x] = c
}

// wrapCoord resolves a possibly out-of-range coordinate against [0, n) under
// the given wrap mode.
func wrapCoord(v, n int, mode WrapMode) int {
	if n <= 1 {
		return 0
	}
	switch mode {
	case WrapRepeat:
		v %= n
		if v < 0 {
			v += n
		}
		return v
	case WrapMirror:
		period := 2 * n
		v %= period
		if v < 0 {
			v += period
		}
		if v >= n {
			v = period - 1 - v
		}
		return v
	default: // WrapClamp
		if v < 0 {
			return 0
		}
		if v >= n {
			return n - 1
		}
		return v
	}
}

// Sample returns the pixel at (x, y), wrapping out-of-range coordinates
// according to mode. Tile construction does not go through it
// (NewColorBlockFromImage clamps on its own), and neither does mipmap
// downsampling: resample.Resize cuts the filter support off at the image
// border, so InputCfg.WrapMode has no effect on the mip chain.
func (img *Image) Sample(x, y int, mode WrapMode) Color {
	x = wrapCoord(x, img.Width, mode)
	y = wrapCoord(y, img.Height, mode)
	return img.At(x, y)
}

// ColorBlock is one 4x4 BGRA tile in row-major order.
type ColorBlock struct {
	Pixels [16]Color
}

// Color returns the texel at row-major index i (0..15).
func (b *ColorBlock) Color(i int) Color {
	return b.Pixels[i]
}

// At returns the texel at (x, y) with 0 <= x,y < 4.
func (b *ColorBlock) At(x, y int) Color {
	return b.Pixels[y*4+x]
}

// NewColorBlockFromImage extracts the 4x4 tile whose top-left corner is at
// (originX, originY), clamping to the image edge for tiles that straddle the
// right or bottom boundary when width or height is not a multiple of four.
func NewColorBlockFromImage(img *Image, originX, originY int) *ColorBlock {
	block := &ColorBlock{}
	for y := 0; y < 4; y++ {
		sy := originY + y
		if sy >= img.Height {
			sy = img.Height - 1
		}
		for x := 0; x < 4; x++ {
			sx := originX + x
			if sx >= img.Width {
				sx = img.Width - 1
			}
			block.Pixels[y*4+x] = img.At(sx, sy)
		}
	}
	return block
}

// SwizzleXYZW reorders and optionally zeros channels in place. Each of r, g,
// b, a selects a source channel index (0=B,1=G,2=R,3=A) or -1 to force zero;
// this is the primitive BC3n's red->alpha/green->green swizzle (spec.md
// S4.4) and InputCfg.ColorTransform's Swizzle mode (spec.md S6) are built
// from.
func (b *ColorBlock) SwizzleXYZW(r, g, bch, a int) {
	channel := func(c Color, idx int) uint8 {
		switch idx {
		case 0:
			return c.B
		case 1:
			return c.G
		case 2:
			return c.R
		case 3:
			return c.A
		default:
			return 0
		}
	}
	for i := range b.Pixels {
		src := b.Pixels[i]
		b.Pixels[i] = Color{
			R: channel(src, r),
			G: channel(src, g),
			B: channel(src, bch),
			A: channel(src, a),
		}
	}
}

// FloatImage is a planar multi-channel float image: each of Channels holds
// an independently addressable Width*Height array.
type FloatImage struct {
	Width, Height, Channels int
	Data                    [][]float32 // Data[channel][y*Width+x]
}

// NewFloatImage allocates a zeroed planar image with the given channel count.
func NewFloatImage(width, height, channels int) *FloatImage {
	fi := &FloatImage{Width: width, Height: height, Channels: channels}
	fi.Data = make([][]float32, channels)
	for c := range fi.Data {
		fi.Data[c] = make([]float32, width*height)
	}
	return fi
}

// At returns the scalar value of channel c at (x, y).
func (fi *FloatImage) At(c, x, y int) float32 {
	return fi.Data[c][y*fi.Width+x]
}

// Set writes the scalar value of channel c at (x, y).
func (fi *FloatImage) Set(c, x, y int, v float32) {
	fi.Data[c][y*fi.Width+x] = v
}

// FromImage converts a BGRA Image into a 4-channel (R,G,B,A) FloatImage
// normalized to [0,1].
func FromImage(img *Image) *FloatImage {
	fi := NewFloatImage(img.Width, img.Height, 4)
	for y := 0; y < img.Height; y++ {
		for x := 0; x < img.Width; x++ {
			c := img.At(x, y)
			i := y*img.Width + x
			fi.Data[0][i] = float32(c.R) / 255
			fi.Data[1][i] = float32(c.G) / 255
			fi.Data[2][i] = float32(c.B) / 255
			fi.Data[3][i] = float32(c.A) / 255
		}
	}
	return fi
}

// ToImage converts a 4-channel FloatImage back to an 8-bit BGRA Image,
// clamping each channel to [0,1] before scaling. NaN is treated as 0.
func ToImage(fi *FloatImage, order PixelOrder) *Image {
	img := NewImage(fi.Width, fi.Height, order)
	quant := func(v float32) uint8 {
		if v != v { // NaN
			v = 0
		}
		if v < 0 {
			v = 0
		}
		if v > 1 {
			v = 1
		}
		return uint8(v*255 + 0.5)
	}
	for y := 0; y < fi.Height; y++ {
		for x := 0; x < fi.Width; x++ {
			i := y*fi.Width + x
			a := uint8(255)
			if fi.Channels > 3 {
				a = quant(fi.Data[3][i])
			}
			img.Set(x, y, Color{
				R: quant(fi.Data[0][i]),
				G: quant(fi.Data[1][i]),
				B: quant(fi.Data[2][i]),
				A: a,
			})
		}
	}
	return img
}
