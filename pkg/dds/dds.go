// Package dds reads and writes the DirectDraw Surface container: the
// 4-byte magic, 124-byte legacy header, optional 20-byte DX10 extension,
// and the concatenated mip/face payload that follows. It generalizes the
// single-direction raw-to-DDS conversion of the EVR texture tooling into a
// full read/write codec covering 2D textures, mip chains, and cube maps.
package dds

import (
	"encoding/binary"
	"fmt"
)

// Format identifies a DXGI_FORMAT value relevant to BC/DXT compression.
type Format uint32

const (
	FormatUnknown       Format = 0
	FormatR8G8B8A8UNorm Format = 28
	FormatR8G8B8A8SRGB  Format = 29
	FormatBC1UNorm      Format = 71
	FormatBC1UNormSRGB  Format = 72
	FormatBC2UNorm      Format = 74
	FormatBC2UNormSRGB  Format = 75
	FormatBC3UNorm      Format = 77
	FormatBC3UNormSRGB  Format = 78
	FormatBC4UNorm      Format = 80
	FormatBC4SNorm      Format = 81
	FormatBC5UNorm      Format = 83
	FormatBC5SNorm      Format = 84
	FormatBC6HUF16      Format = 95
	FormatBC6HSF16      Format = 96
	FormatBC7UNorm      Format = 98
	FormatBC7UNormSRGB  Format = 99
)

// String returns the DXGI_FORMAT name, or an UNKNOWN(0x..) placeholder.
func (f Format) String() string {
	switch f {
	case FormatR8G8B8A8UNorm:
		return "R8G8B8A8_UNORM"
	case FormatR8G8B8A8SRGB:
		return "R8G8B8A8_UNORM_SRGB"
	case FormatBC1UNorm:
		return "BC1_UNORM"
	case FormatBC1UNormSRGB:
		return "BC1_UNORM_SRGB"
	case FormatBC2UNorm:
		return "BC2_UNORM"
	case FormatBC2UNormSRGB:
		return "BC2_UNORM_SRGB"
	case FormatBC3UNorm:
		return "BC3_UNORM"
	case FormatBC3UNormSRGB:
		return "BC3_UNORM_SRGB"
	case FormatBC4UNorm:
		return "BC4_UNORM"
	case FormatBC4SNorm:
		return "BC4_SNORM"
	case FormatBC5UNorm:
		return "BC5_UNORM"
	case FormatBC5SNorm:
		return "BC5_SNORM"
	case FormatBC6HUF16:
		return "BC6H_UF16"
	case FormatBC6HSF16:
		return "BC6H_SF16"
	case FormatBC7UNorm:
		return "BC7_UNORM"
	case FormatBC7UNormSRGB:
		return "BC7_UNORM_SRGB"
	default:
		return fmt.Sprintf("UNKNOWN(0x%x)", uint32(f))
	}
}

// BlockSize returns the compressed block size in bytes for BC formats, or 0
// for uncompressed formats.
func (f Format) BlockSize() int {
	switch f {
	case FormatBC1UNorm, FormatBC1UNormSRGB, FormatBC4UNorm, FormatBC4SNorm:
		return 8
	case FormatBC2UNorm, FormatBC2UNormSRGB, FormatBC3UNorm, FormatBC3UNormSRGB,
		FormatBC5UNorm, FormatBC5SNorm, FormatBC6HUF16, FormatBC6HSF16,
		FormatBC7UNorm, FormatBC7UNormSRGB:
		return 16
	default:
		return 0
	}
}

// Compressed reports whether f is one of the BC block-compressed formats.
func (f Format) Compressed() bool { return f.BlockSize() > 0 }

// legacy FourCC codes recognized on decode and preferred on encode when the
// format has one, so files stay readable by tools predating DX10.
const (
	fourCCDXT1 = 0x31545844 // "DXT1"
	fourCCDXT3 = 0x33545844 // "DXT3"
	fourCCDXT5 = 0x35545844 // "DXT5"
	fourCCATI1 = 0x31495441 // "ATI1" (BC4)
	fourCCATI2 = 0x32495441 // "ATI2" (BC5)
	fourCCDX10 = 0x30315844 // "DX10"
)

func legacyFourCC(f Format) (uint32, bool) {
	switch f {
	case FormatBC1UNorm:
		return fourCCDXT1, true
	case FormatBC2UNorm:
		return fourCCDXT3, true
	case FormatBC3UNorm:
		return fourCCDXT5, true
	case FormatBC4UNorm:
		return fourCCATI1, true
	case FormatBC5UNorm:
		return fourCCATI2, true
	default:
		return 0, false
	}
}

func formatFromFourCC(cc uint32) (Format, bool) {
	switch cc {
	case fourCCDXT1:
		return FormatBC1UNorm, true
	case fourCCDXT3:
		return FormatBC2UNorm, true
	case fourCCDXT5:
		return FormatBC3UNorm, true
	case fourCCATI1:
		return FormatBC4UNorm, true
	case fourCCATI2:
		return FormatBC5UNorm, true
	default:
		return FormatUnknown, false
	}
}

const (
	magic           = 0x20534444 // "DDS "
	headerSize      = 124
	pixelFormatSize = 32
	dx10HeaderSize  = 20

	flagCaps        = 0x1
	flagHeight      = 0x2
	flagWidth       = 0x4
	flagPixelFormat = 0x1000
	flagMipmapCount = 0x20000
	flagLinearSize  = 0x80000

	pfFourCC = 0x4

	capsTexture = 0x1000
	capsMipmap  = 0x400000
	caps2Cubemap = 0x200

	resourceDimensionTexture2D = 3
)

// CubeFace is a bitmask of the six DDS cube-map face flags.
type CubeFace uint32

const (
	FacePositiveX CubeFace = 0x400
	FaceNegativeX CubeFace = 0x800
	FacePositiveY CubeFace = 0x1000
	FaceNegativeY CubeFace = 0x2000
	FacePositiveZ CubeFace = 0x4000
	FaceNegativeZ CubeFace = 0x8000
	AllFaces      CubeFace = FacePositiveX | FaceNegativeX | FacePositiveY | FaceNegativeY | FacePositiveZ | FaceNegativeZ
)

// Header describes a DDS texture's dimensions and layout. It covers both
// the plain 2D+mipmap case and cube maps (ArraySize counts cube-map units,
// each contributing six faces when IsCubeMap is set).
type Header struct {
	Width, Height uint32
	MipLevels     uint32
	ArraySize     uint32
	Format        Format
	IsCubeMap     bool
}

// NewHeader builds a Header for a single 2D texture or texture array with
// the given mip count (1 disables the mipmap flag).
func NewHeader(width, height, mipLevels uint32, format Format) Header {
	return Header{Width: width, Height: height, MipLevels: mipLevels, ArraySize: 1, Format: format}
}

// NewCubeHeader builds a Header for a cube map with the given per-face mip
// count.
func NewCubeHeader(edge, mipLevels uint32, format Format) Header {
	return Header{Width: edge, Height: edge, MipLevels: mipLevels, ArraySize: 1, Format: format, IsCubeMap: true}
}

// mipDim returns the extent of mip level i (0 = base) of an edge-length
// dimension, per the standard floor(dim >> i, min 1) chain.
func mipDim(dim uint32, level uint32) uint32 {
	d := dim >> level
	if d < 1 {
		d = 1
	}
	return d
}

// linearSize returns the byte size of one mip level's surface data.
func linearSize(w, h uint32, format Format) uint32 {
	if format.Compressed() {
		blocksWide := (w + 3) / 4
		blocksHigh := (h + 3) / 4
		return blocksWide * blocksHigh * uint32(format.BlockSize())
	}
	return w * h * 4
}

// SurfaceSizes returns the byte size of every mip level for one face/array
// slice, base level first.
func (h Header) SurfaceSizes() []uint32 {
	sizes := make([]uint32, h.MipLevels)
	for i := range sizes {
		w := mipDim(h.Width, uint32(i))
		ht := mipDim(h.Height, uint32(i))
		sizes[i] = linearSize(w, ht, h.Format)
	}
	return sizes
}

// Faces returns 1 for a non-cube-map header, 6 for a cube map.
func (h Header) Faces() int {
	if h.IsCubeMap {
		return 6
	}
	return 1
}

// headerByteSize returns the byte length of the magic+header(+DX10
// extension) prefix for h, without any surface data.
func headerByteSize(h Header) int {
	total := 4 + headerSize
	if !hasLegacyFourCC(h.Format) || h.ArraySize > 1 {
		total += dx10HeaderSize
	}
	return total
}

// EncodeHeader serializes just the magic, legacy header, and (if needed)
// DX10 extension for h, using its base-level linear size for the
// pitch-or-linear-size field. Used by streaming output handlers that write
// the header once up front and then stream each mip's bytes separately
// (spec.md S4.6 step 3), rather than building the whole file in memory via
// Encode.
func EncodeHeader(h Header) []byte {
	sizes := h.SurfaceSizes()
	baseSize := uint32(0)
	if len(sizes) > 0 {
		baseSize = sizes[0]
	}
	out := make([]byte, headerByteSize(h))
	binary.LittleEndian.PutUint32(out[0:4], magic)
	off := 4
	needsDX10 := !hasLegacyFourCC(h.Format) || h.ArraySize > 1

	flags := uint32(flagCaps | flagHeight | flagWidth | flagPixelFormat | flagLinearSize)
	if h.MipLevels > 1 {
		flags |= flagMipmapCount
	}
	putU32 := func(v uint32) {
		binary.LittleEndian.PutUint32(out[off:off+4], v)
		off += 4
	}
	putU32(headerSize)
	putU32(flags)
	putU32(h.Height)
	putU32(h.Width)
	putU32(baseSize)
	putU32(0) // depth
	putU32(h.MipLevels)
	off += 44 // reserved1

	putU32(pixelFormatSize)
	if needsDX10 {
		putU32(pfFourCC)
		putU32(fourCCDX10)
		off += 20 // rgb bit counts/masks, unused under DX10
	} else {
		cc, _ := legacyFourCC(h.Format)
		putU32(pfFourCC)
		putU32(cc)
		off += 20
	}

	caps := uint32(capsTexture)
	if h.MipLevels > 1 {
		caps |= capsMipmap
	}
	putU32(caps)
	caps2 := uint32(0)
	if h.IsCubeMap {
		caps2 = caps2Cubemap | uint32(AllFaces)
	}
	putU32(caps2)
	off += 8 // caps3, caps4
	off += 4 // reserved2

	if needsDX10 {
		putU32(uint32(h.Format))
		resourceDim := uint32(resourceDimensionTexture2D)
		if h.IsCubeMap {
			putU32(resourceDim)
			putU32(0x4) // DDS_RESOURCE_MISC_TEXTURECUBE
		} else {
			putU32(resourceDim)
			putU32(0)
		}
		putU32(h.ArraySize)
		putU32(0)
	}
	return out
}

// Encode serializes header and its surface data into a complete DDS file.
// surfaces must be ordered array-slice-major, then face-major (1 or 6
// faces), then mip-major, matching Header.SurfaceSizes() per face.
func Encode(h Header, surfaces [][]byte) ([]byte, error) {
	wantCount := int(h.ArraySize) * h.Faces() * int(h.MipLevels)
	if len(surfaces) != wantCount {
		return nil, fmt.Errorf("dds: expected %d surfaces, got %d", wantCount, len(surfaces))
	}
	sizes := h.SurfaceSizes()
	total := headerByteSize(h)
	for i, s := range surfaces {
		mipIdx := i % int(h.MipLevels)
		if uint32(len(s)) != sizes[mipIdx] {
			return nil, fmt.Errorf("dds: surface %d is %d bytes, want %d", i, len(s), sizes[mipIdx])
		}
		total += len(s)
	}

	out := make([]byte, total)
	headerBytes := EncodeHeader(h)
	off := copy(out, headerBytes)
	for _, s := range surfaces {
		off += copy(out[off:], s)
	}
	return out, nil
}

func hasLegacyFourCC(f Format) bool {
	_, ok := legacyFourCC(f)
	return ok
}

// Decode parses a DDS file, returning its Header and the surface slices in
// the same array-slice/face/mip-major order Encode expects.
func Decode(data []byte) (Header, [][]byte, error) {
	if len(data) < 4+headerSize {
		return Header{}, nil, fmt.Errorf("dds: truncated file (%d bytes)", len(data))
	}
	if binary.LittleEndian.Uint32(data[0:4]) != magic {
		return Header{}, nil, fmt.Errorf("dds: bad magic")
	}
	off := 4
	getU32 := func() uint32 {
		v := binary.LittleEndian.Uint32(data[off : off+4])
		off += 4
		return v
	}
	if sz := getU32(); sz != headerSize {
		return Header{}, nil, fmt.Errorf("dds: unexpected header size %d", sz)
	}
	flags := getU32()
	height := getU32()
	width := getU32()
	_ = flags
	getU32() // pitchOrLinearSize
	getU32() // depth
	mipCount := getU32()
	if mipCount == 0 {
		mipCount = 1
	}
	off += 44 // reserved1

	getU32() // pixel format size
	pfFlags := getU32()
	fourCC := getU32()
	off += 20 // rgb bit counts/masks

	caps := getU32()
	caps2 := getU32()
	off += 8 // caps3, caps4
	off += 4 // reserved2

	h := Header{Width: width, Height: height, MipLevels: mipCount, ArraySize: 1}
	h.IsCubeMap = caps2&caps2Cubemap != 0
	_ = caps

	if pfFlags&pfFourCC != 0 && fourCC == fourCCDX10 {
		if len(data) < off+dx10HeaderSize {
			return Header{}, nil, fmt.Errorf("dds: truncated DX10 header")
		}
		h.Format = Format(getU32())
		getU32() // resourceDimension
		misc := getU32()
		h.ArraySize = getU32()
		getU32() // miscFlags2
		if misc&0x4 != 0 {
			h.IsCubeMap = true
		}
	} else {
		resolved, ok := formatFromFourCC(fourCC)
		if !ok {
			return Header{}, nil, fmt.Errorf("dds: unsupported FourCC 0x%x (no DX10 extension present)", fourCC)
		}
		h.Format = resolved
	}

	sizes := h.SurfaceSizes()
	count := int(h.ArraySize) * h.Faces() * int(h.MipLevels)
	surfaces := make([][]byte, 0, count)
	for i := 0; i < count; i++ {
		mipIdx := i % int(h.MipLevels)
		size := int(sizes[mipIdx])
		if off+size > len(data) {
			return Header{}, nil, fmt.Errorf("dds: truncated surface data at index %d", i)
		}
		surfaces = append(surfaces, data[off:off+size])
		off += size
	}
	return h, surfaces, nil
}
