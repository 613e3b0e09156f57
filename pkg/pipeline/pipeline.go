// Package pipeline drives a full compression run per spec.md S4.6: open
// the output sink, derive the mip chain, and for each face and mip level
// resample/transform/quantize/encode the surface before streaming its
// bytes to the output handler.
//
// Grounded on the TexImage-driven compress loop of nvtt/Context.cpp and
// nvtt/TexImage.cpp.
package pipeline

import (
	"encoding/binary"
	"math"
	"math/bits"
	"os"

	"github.com/nvtex/gotexturetools/pkg/bcblock"
	"github.com/nvtex/gotexturetools/pkg/bcenc"
	"github.com/nvtex/gotexturetools/pkg/colorblock"
	"github.com/nvtex/gotexturetools/pkg/colorspace"
	"github.com/nvtex/gotexturetools/pkg/config"
	"github.com/nvtex/gotexturetools/pkg/dds"
	"github.com/nvtex/gotexturetools/pkg/dispatch"
	"github.com/nvtex/gotexturetools/pkg/quantize"
	"github.com/nvtex/gotexturetools/pkg/resample"
)

// fileSink adapts an *os.File to config.OutputHandler for the
// file_name-only configuration path.
type fileSink struct {
	f   *os.File
	err bool
}

func (s *fileSink) BeginImage(int, int, int, int, int, int) {}
func (s *fileSink) WriteData(p []byte) bool {
	if s.err {
		return false
	}
	if _, err := s.f.Write(p); err != nil {
		s.err = true
		return false
	}
	return true
}

func reportError(out config.OutputCfg, kind config.ErrorKind) {
	if out.ErrorHandler != nil {
		out.ErrorHandler(kind)
	}
}

// ddsFormat maps a CompressionFormat to its on-disk dds.Format. CTX1 and
// RGBE have no DXGI equivalent in this table and resolve to FormatUnknown;
// callers asking for them get UnsupportedOutputFormat.
func ddsFormat(f config.CompressionFormat) (dds.Format, bool) {
	switch f {
	case config.FormatRGBA:
		return dds.FormatR8G8B8A8UNorm, true
	case config.FormatBC1, config.FormatBC1a, config.FormatBC1n:
		return dds.FormatBC1UNorm, true
	case config.FormatBC2:
		return dds.FormatBC2UNorm, true
	case config.FormatBC3, config.FormatBC3n:
		return dds.FormatBC3UNorm, true
	case config.FormatBC4:
		return dds.FormatBC4UNorm, true
	case config.FormatBC5:
		return dds.FormatBC5UNorm, true
	default:
		return dds.FormatUnknown, false
	}
}

func bcFormat(f config.CompressionFormat) (bcenc.Format, bool) {
	switch f {
	case config.FormatBC1:
		return bcenc.BC1, true
	case config.FormatBC1a:
		return bcenc.BC1a, true
	case config.FormatBC1n:
		return bcenc.BC1n, true
	case config.FormatBC2:
		return bcenc.BC2, true
	case config.FormatBC3:
		return bcenc.BC3, true
	case config.FormatBC3n:
		return bcenc.BC3n, true
	case config.FormatBC4:
		return bcenc.BC4, true
	case config.FormatBC5:
		return bcenc.BC5, true
	default:
		return 0, false
	}
}

func bcQuality(q config.Quality) bcenc.Quality {
	switch q {
	case config.Fastest:
		return bcenc.Fastest
	case config.Production:
		return bcenc.Production
	case config.Highest:
		return bcenc.HighestQuality
	default:
		return bcenc.NormalQuality
	}
}

// naturalMipCount is 1 + floor(log2(max(w,h,d))), per spec.md S4.6 step 2.
func naturalMipCount(w, h, d int) int {
	m := w
	if h > m {
		m = h
	}
	if d > m {
		m = d
	}
	if m < 1 {
		m = 1
	}
	return 1 + bits.Len(uint(m)) - 1
}

func resolveMipCount(in config.InputCfg) int {
	natural := 1
	if in.GenerateMipmaps {
		natural = naturalMipCount(in.Width, in.Height, in.Depth)
	}
	if in.MaxLevel > 0 && in.MaxLevel < natural {
		return in.MaxLevel
	}
	return natural
}

func mipExtent(dim, level int) int {
	d := dim >> uint(level)
	if d < 1 {
		d = 1
	}
	return d
}

func filterFor(in config.InputCfg) resample.Filter {
	switch in.MipmapFilter {
	case config.FilterTriangle:
		return resample.Triangle{}
	case config.FilterKaiser:
		k := resample.NewKaiser()
		if in.KaiserWidth > 0 {
			k.WidthValue = in.KaiserWidth
		}
		if in.KaiserAlpha > 0 {
			k.Alpha = in.KaiserAlpha
		}
		if in.KaiserStretch > 0 {
			k.Stretch = in.KaiserStretch
		}
		return k
	default:
		return resample.Box{}
	}
}

// decodeBase reads the base-level image for one face out of InputCfg's
// flat buffer list. Only BGRA8 is decoded with full fidelity; RGBA16F and
// RGBA32F buffers are interpreted as packed little-endian float16/float32
// quadruples and converted directly to a FloatImage, bypassing the BGRA8
// intermediate.
func decodeBase(in config.InputCfg, index int, w, h int) *colorblock.FloatImage {
	data := in.Images[index]
	format := PixelFormat(in, index)
	fi := colorblock.NewFloatImage(w, h, 4)
	switch format {
	case config.PixelRGBA32F:
		for i := 0; i < w*h; i++ {
			off := i * 16
			if off+16 > len(data) {
				break
			}
			fi.Data[0][i] = math.Float32frombits(binary.LittleEndian.Uint32(data[off:]))
			fi.Data[1][i] = math.Float32frombits(binary.LittleEndian.Uint32(data[off+4:]))
			fi.Data[2][i] = math.Float32frombits(binary.LittleEndian.Uint32(data[off+8:]))
			fi.Data[3][i] = math.Float32frombits(binary.LittleEndian.Uint32(data[off+12:]))
		}
	case config.PixelRGBA16F:
		for i := 0; i < w*h; i++ {
			off := i * 8
			if off+8 > len(data) {
				break
			}
			fi.Data[0][i] = float16ToFloat32(binary.LittleEndian.Uint16(data[off:]))
			fi.Data[1][i] = float16ToFloat32(binary.LittleEndian.Uint16(data[off+2:]))
			fi.Data[2][i] = float16ToFloat32(binary.LittleEndian.Uint16(data[off+4:]))
			fi.Data[3][i] = float16ToFloat32(binary.LittleEndian.Uint16(data[off+6:]))
		}
	default: // BGRA8
		img := colorblock.NewImage(w, h, colorblock.OrderARGB)
		for i := 0; i < w*h; i++ {
			off := i * 4
			if off+4 > len(data) {
				break
			}
			img.Pixels[i] = colorblock.Color{B: data[off], G: data[off+1], R: data[off+2], A: data[off+3]}
		}
		fi = colorblock.FromImage(img)
	}
	return fi
}

// PixelFormat returns the pixel format recorded for buffer index, or BGRA8
// if the caller didn't supply one per-buffer.
func PixelFormat(in config.InputCfg, index int) config.PixelFormat {
	if index < len(in.PixelFormats) {
		return in.PixelFormats[index]
	}
	return config.PixelBGRA8
}

func float16ToFloat32(h uint16) float32 {
	sign := uint32(h&0x8000) << 16
	exp := (h >> 10) & 0x1f
	frac := uint32(h & 0x3ff)
	switch exp {
	case 0:
		if frac == 0 {
			return math.Float32frombits(sign)
		}
		// subnormal
		e := -1
		for frac&0x400 == 0 {
			frac <<= 1
			e--
		}
		frac &= 0x3ff
		bits := sign | uint32(int32(e+127-15))<<23 | (frac << 13)
		return math.Float32frombits(bits)
	case 0x1f:
		bits := sign | 0xff<<23 | (frac << 13)
		return math.Float32frombits(bits)
	default:
		bits := sign | (uint32(exp)+112)<<23 | (frac << 13)
		return math.Float32frombits(bits)
	}
}

func applyColorTransform(in config.InputCfg, fi *colorblock.FloatImage) {
	switch in.ColorTransform {
	case colorspace.TransformYCoCg:
		colorspace.ToYCoCg(fi)
	case colorspace.TransformScaledYCoCg:
		colorspace.ToScaledYCoCg(fi)
	case colorspace.TransformLinear:
		colorspace.ApplyLinear(fi, in.LinearTransform)
	case colorspace.TransformSwizzle:
		s := in.SwizzleTransform
		colorspace.ApplySwizzle(fi, s[0], s[1], s[2], s[3])
	}
}

// Compress runs the full pipeline and returns whether it completed
// successfully; failures are also reported through out.ErrorHandler per
// spec.md S7's non-exception error model.
func Compress(in config.InputCfg, comp config.CompressionCfg, out config.OutputCfg) bool {
	if in.Width <= 0 || in.Height <= 0 {
		return true // zero-area surfaces succeed trivially
	}

	ddsFmt, ok := ddsFormat(comp.Format)
	if !ok {
		reportError(out, config.ErrUnsupportedOutputFormat)
		return false
	}

	var sink config.OutputHandler
	var file *os.File
	if out.OutputHandler != nil {
		sink = out.OutputHandler
	} else {
		f, err := os.Create(out.FileName)
		if err != nil {
			reportError(out, config.ErrFileOpen)
			return false
		}
		file = f
		sink = &fileSink{f: f}
	}
	if file != nil {
		defer file.Close()
	}

	mipCount := resolveMipCount(in)
	faceCount := in.FaceCount
	if faceCount <= 0 {
		faceCount = 1
	}
	isCube := in.TextureType == config.TextureCube
	if isCube && faceCount < 6 {
		faceCount = 6
	}

	var header dds.Header
	if isCube {
		header = dds.NewCubeHeader(uint32(in.Width), uint32(mipCount), ddsFmt)
		header.ArraySize = uint32(faceCount / 6)
	} else {
		header = dds.NewHeader(uint32(in.Width), uint32(in.Height), uint32(mipCount), ddsFmt)
		header.ArraySize = uint32(faceCount)
	}

	encoder, encOK := resolveEncoder(comp)
	if !encOK && comp.Format != config.FormatRGBA {
		reportError(out, config.ErrUnsupportedFeature)
		if out.OutputHeader {
			sink.WriteData(dds.EncodeHeader(header))
		}
		return false
	}

	if out.OutputHeader {
		if !sink.WriteData(dds.EncodeHeader(header)) {
			reportError(out, config.ErrFileWrite)
			return false
		}
	}

	filter := filterFor(in)
	dispatcher := dispatch.Pool{}

	for face := 0; face < faceCount; face++ {
		srcIdx := face
		if srcIdx >= len(in.Images) {
			srcIdx = len(in.Images) - 1
		}
		base := decodeBase(in, srcIdx, in.Width, in.Height)
		current := base

		for level := 0; level < mipCount; level++ {
			w := mipExtent(in.Width, level)
			h := mipExtent(in.Height, level)
			if level > 0 {
				current = resample.Resize(current, w, h, filter)
				if in.IsNormalMap && in.NormalizeMipmaps {
					colorspace.RenormalizeNormalMap(current)
				}
			}

			work := cloneFloatImage(current)
			colorspace.Linearize(work, in.InputGamma)
			applyColorTransform(in, work)
			colorspace.Encode(work, in.OutputGamma)

			if in.PremultiplyAlpha {
				quantize.PremultiplyAlpha(work)
			}
			if comp.BinaryAlpha || in.Quantization.BinaryAlpha {
				threshold := comp.AlphaThreshold
				if in.Quantization.AlphaThreshold != 0 {
					threshold = in.Quantization.AlphaThreshold
				}
				if in.Quantization.AlphaDithering {
					quantize.BinaryAlphaDiffuse(work, threshold)
				} else {
					quantize.BinaryAlphaThreshold(work, threshold)
				}
			}
			precision := quantize.RGB565
			switch comp.Format {
			case config.FormatRGBA, config.FormatBC4, config.FormatBC5:
				precision = quantize.Precision{R: 8, G: 8, B: 8, A: 8}
			}
			quantize.Channels(work, precision, in.Quantization.ColorDithering)

			img := colorblock.ToImage(work, colorblock.OrderARGB)

			var bytes []byte
			if comp.Format == config.FormatRGBA {
				bytes = packRGBA(img)
			} else {
				bytes = dispatcher.Run(img, encoder, bcenc.Options{
					Quality:        bcQuality(comp.Quality),
					ChannelWeights: channelWeights(comp.ColorWeights),
					AlphaThreshold: comp.AlphaThreshold,
				})
			}

			sink.BeginImage(len(bytes), w, h, 1, face, level)
			if !sink.WriteData(bytes) {
				reportError(out, config.ErrFileWrite)
				return false
			}
		}
	}

	return true
}

func resolveEncoder(comp config.CompressionCfg) (bcenc.Encoder, bool) {
	f, ok := bcFormat(comp.Format)
	if !ok {
		return nil, false
	}
	return bcenc.New(f), true
}

func channelWeights(w config.ColorWeights) bcblock.ColorWeights {
	return bcblock.ColorWeights{R: w[0], G: w[1], B: w[2]}
}

func cloneFloatImage(fi *colorblock.FloatImage) *colorblock.FloatImage {
	out := colorblock.NewFloatImage(fi.Width, fi.Height, fi.Channels)
	for c := range fi.Data {
		copy(out.Data[c], fi.Data[c])
	}
	return out
}

func packRGBA(img *colorblock.Image) []byte {
	out := make([]byte, len(img.Pixels)*4)
	for i, p := range img.Pixels {
		out[i*4] = p.R
		out[i*4+1] = p.G
		out[i*4+2] = p.B
		out[i*4+3] = p.A
	}
	return out
}
