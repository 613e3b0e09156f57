// Package bcdec decodes BC1/BC1a/BC2/BC3/BC3n/BC4/BC5 block data back to a
// full *colorblock.Image, the inverse of pkg/bcenc. It exists so bcconv can
// round-trip a compressed DDS back to a viewable/editable image without
// depending on an external decoder.
//
// Grounded on cmd/texconv's decompressBC1/decompressBC3 block-unpack loops,
// generalized to every format pkg/bcenc produces and driven off the same
// bcblock.Unpack*/Palette helpers the encoder's tests exercise.
package bcdec

import (
	"fmt"

	"github.com/nvtex/gotexturetools/pkg/bcblock"
	"github.com/nvtex/gotexturetools/pkg/colorblock"
	"github.com/nvtex/gotexturetools/pkg/dds"
)

// Decode decompresses a block-compressed surface of the given format and
// pixel dimensions back to a colorblock.Image.
func Decode(format dds.Format, width, height int, data []byte) (*colorblock.Image, error) {
	blockSize := format.BlockSize()
	if blockSize == 0 {
		return nil, fmt.Errorf("bcdec: %s is not a block-compressed format", format)
	}
	blocksWide := (width + 3) / 4
	blocksHigh := (height + 3) / 4
	need := blocksWide * blocksHigh * blockSize
	if len(data) < need {
		return nil, fmt.Errorf("bcdec: need %d bytes, got %d", need, len(data))
	}

	img := colorblock.NewImage(width, height, colorblock.OrderARGB)

	decodeBlock, err := blockDecoderFor(format)
	if err != nil {
		return nil, err
	}

	offset := 0
	var raw [16]byte
	for by := 0; by < blocksHigh; by++ {
		for bx := 0; bx < blocksWide; bx++ {
			copy(raw[:blockSize], data[offset:offset+blockSize])
			colors := decodeBlock(raw)
			for py := 0; py < 4; py++ {
				for px := 0; px < 4; px++ {
					x, y := bx*4+px, by*4+py
					if x >= width || y >= height {
						continue
					}
					img.Set(x, y, colors[py*4+px])
				}
			}
			offset += blockSize
		}
	}

	return img, nil
}

// blockDecoderFor returns a function decoding one 4x4 block's raw bytes
// (left-padded into a 16-byte array regardless of the format's actual
// block size) into its 16 texel colors, row-major.
func blockDecoderFor(format dds.Format) (func(raw [16]byte) [16]colorblock.Color, error) {
	switch format {
	case dds.FormatBC1UNorm, dds.FormatBC1UNormSRGB:
		return decodeBC1, nil
	case dds.FormatBC2UNorm, dds.FormatBC2UNormSRGB:
		return decodeBC2, nil
	case dds.FormatBC3UNorm, dds.FormatBC3UNormSRGB:
		return decodeBC3, nil
	case dds.FormatBC4UNorm:
		return decodeBC4, nil
	case dds.FormatBC5UNorm:
		return decodeBC5, nil
	default:
		return nil, fmt.Errorf("bcdec: unsupported format %s", format)
	}
}

func blockBytes8(raw [16]byte) (out [8]byte) {
	copy(out[:], raw[:8])
	return
}

func decodeBC1(raw [16]byte) [16]colorblock.Color {
	block, _ := bcblock.UnpackDXT1(blockBytes8(raw))
	palette := block.Palette()
	var out [16]colorblock.Color
	for i := range out {
		out[i] = palette[block.Index(i)]
	}
	return out
}

func decodeBC2(raw [16]byte) [16]colorblock.Color {
	block := bcblock.UnpackDXT3(raw)
	palette := block.Color.Palette()
	var out [16]colorblock.Color
	for i := range out {
		c := palette[block.Color.Index(i)]
		c.A = block.Alpha.Alpha[i]<<4 | block.Alpha.Alpha[i]
		out[i] = c
	}
	return out
}

func decodeBC3(raw [16]byte) [16]colorblock.Color {
	block := bcblock.UnpackDXT5(raw)
	colorPalette := block.Color.Palette()
	alphaPalette := block.Alpha.Palette()
	var out [16]colorblock.Color
	for i := range out {
		c := colorPalette[block.Color.Index(i)]
		c.A = alphaPalette[block.Alpha.Index(i)]
		out[i] = c
	}
	return out
}

func decodeBC4(raw [16]byte) [16]colorblock.Color {
	block := bcblock.UnpackDXT5Alpha(blockBytes8(raw))
	palette := block.Palette()
	var out [16]colorblock.Color
	for i := range out {
		v := palette[block.Index(i)]
		out[i] = colorblock.Color{R: v, G: v, B: v, A: 255}
	}
	return out
}

func decodeBC5(raw [16]byte) [16]colorblock.Color {
	block := bcblock.UnpackATI2(raw)
	xPalette := block.X.Palette()
	yPalette := block.Y.Palette()
	var out [16]colorblock.Color
	for i := range out {
		out[i] = colorblock.Color{R: xPalette[block.X.Index(i)], G: yPalette[block.Y.Index(i)], B: 0, A: 255}
	}
	return out
}
