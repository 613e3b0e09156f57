// Package config defines the three immutable option records that drive a
// compression run (spec.md S6): InputCfg, CompressionCfg, and OutputCfg,
// plus the shared enums and the ErrorKind taxonomy of spec.md S7.
package config

import "github.com/nvtex/gotexturetools/pkg/colorspace"

// TextureType selects a 2D texture or a six-face cube map.
type TextureType int

const (
	Texture2D TextureType = iota
	TextureCube
)

// PixelFormat is the storage format of a per-mip input buffer.
type PixelFormat int

const (
	PixelBGRA8 PixelFormat = iota
	PixelRGBA16F
	PixelRGBA32F
)

// AlphaMode describes how the alpha channel should be interpreted.
type AlphaMode int

const (
	AlphaNone AlphaMode = iota
	AlphaTransparency
	AlphaPremultiplied
)

// WrapMode mirrors colorblock.WrapMode at the configuration layer.
type WrapMode int

const (
	WrapClamp WrapMode = iota
	WrapRepeat
	WrapMirror
)

// MipmapFilter selects the resampling kernel used to generate mip levels.
type MipmapFilter int

const (
	FilterBox MipmapFilter = iota
	FilterTriangle
	FilterKaiser
)

// RoundMode controls how a requested extent is rounded to the nearest
// power of two (or left alone).
type RoundMode int

const (
	RoundNone RoundMode = iota
	RoundToNext
	RoundToNearest
	RoundToPrev
)

// Quantization groups the per-level dithering options.
type Quantization struct {
	ColorDithering bool
	AlphaDithering bool
	BinaryAlpha    bool
	AlphaThreshold uint8
}

// InputCfg is the immutable description of the source texture and how it
// should be preprocessed before block compression (spec.md S6).
type InputCfg struct {
	TextureType TextureType
	Width       int
	Height      int
	Depth       int
	FaceCount   int

	// Images holds one base-level buffer per face; PixelFormats[i] tells how
	// to interpret Images[i]. pipeline.Compress reads Images[face] (the last
	// buffer when there are fewer buffers than faces) and generates every
	// further mip level by downsampling; it does not read caller-supplied
	// buffers for levels above 0.
	Images       [][]byte
	PixelFormats []PixelFormat

	AlphaMode   AlphaMode
	InputGamma  float64
	OutputGamma float64
	WrapMode    WrapMode

	GenerateMipmaps bool
	MipmapFilter    MipmapFilter
	KaiserWidth     float64
	KaiserAlpha     float64
	KaiserStretch   float64
	MaxLevel        int

	IsNormalMap         bool
	NormalizeMipmaps    bool
	ConvertToNormalMap  bool
	HeightFactors       [4]float64
	BumpFrequencyScale  [4]float64

	ColorTransform  colorspace.Transform
	LinearTransform colorspace.Mat4
	SwizzleTransform [4]int

	Quantization Quantization

	PremultiplyAlpha bool
	MaxExtent        int
	RoundMode        RoundMode
}

// CompressionFormat selects the output pixel/block format.
type CompressionFormat int

const (
	FormatRGBA CompressionFormat = iota
	FormatBC1
	FormatBC1a
	FormatBC1n
	FormatBC2
	FormatBC3
	FormatBC3n
	FormatBC4
	FormatBC5
	FormatCTX1
	FormatRGBE
)

// Quality selects the encoder's speed/quality tradeoff.
type Quality int

const (
	Fastest Quality = iota
	Normal
	Production
	Highest
)

// PixelType is the numeric interpretation of an uncompressed RGBA output.
type PixelType int

const (
	PixelUNorm PixelType = iota
	PixelSNorm
	PixelUInt
	PixelSInt
	PixelFloat
	PixelUFloat
)

// TargetDecoder names a hardware decode path CompressionCfg may need to
// stay compatible with. It is recorded only: no encoder path reads it, so
// BC1 output is the same for every value.
type TargetDecoder int

const (
	DecoderD3D10 TargetDecoder = iota
	DecoderD3D9
	DecoderNV5x
)

// ColorWeights are the per-channel perceptual weights fed to colorfit.
type ColorWeights [4]float64

// CompressionCfg is the immutable description of the target format and
// encoder tuning (spec.md S6).
type CompressionCfg struct {
	Format       CompressionFormat
	Quality      Quality
	ColorWeights ColorWeights
	PixelType    PixelType

	// RGBA-format-only bitfield layout.
	BitCount                   uint
	RMask, GMask, BMask, AMask uint32
	RSize, GSize, BSize, ASize uint

	PitchAlignment uint

	BinaryAlpha    bool
	AlphaThreshold uint8

	TargetDecoder TargetDecoder
}

// Container selects the legacy or DX10-extended DDS layout.
type Container int

const (
	ContainerDDS Container = iota
	ContainerDDS10
)

// OutputHandler is the polymorphic sink of spec.md S6: BeginImage is
// called once per mip before its bytes are written, WriteData streams the
// bytes and reports success.
type OutputHandler interface {
	BeginImage(sizeBytes, width, height, depth, faceIndex, mipLevel int)
	WriteData(p []byte) bool
}

// ErrorKind is the taxonomy of spec.md S7.
type ErrorKind int

const (
	ErrUnknown ErrorKind = iota
	ErrInvalidInput
	ErrUnsupportedFeature
	ErrCudaError
	ErrFileOpen
	ErrFileWrite
	ErrUnsupportedOutputFormat
)

func (k ErrorKind) String() string {
	switch k {
	case ErrInvalidInput:
		return "InvalidInput"
	case ErrUnsupportedFeature:
		return "UnsupportedFeature"
	case ErrCudaError:
		return "CudaError"
	case ErrFileOpen:
		return "FileOpen"
	case ErrFileWrite:
		return "FileWrite"
	case ErrUnsupportedOutputFormat:
		return "UnsupportedOutputFormat"
	default:
		return "Unknown"
	}
}

// ErrorHandler is the polymorphic callback invoked on any non-fatal error;
// the pipeline continues or aborts depending on the error's class (spec.md
// S7), but the handler itself is a pure observer.
type ErrorHandler func(kind ErrorKind)

// OutputCfg is the immutable description of where and how compressed
// output is written (spec.md S6).
type OutputCfg struct {
	FileName      string
	OutputHandler OutputHandler
	ErrorHandler  ErrorHandler
	OutputHeader  bool
	Container     Container
	UserVersion   int32
	SRGB          bool
}
