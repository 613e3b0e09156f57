// bcconv - native BC1/BC1a/BC2/BC3/BC3n/BC4/BC5 texture compressor and DDS
// tool, replacing cmd/texconv's cgo+libsquish path with pkg/pipeline.
//
// Usage:
//
//	bcconv encode <input.png> <output.dds> [format]   # PNG -> DDS
//	bcconv decode <input.dds> <output.png>            # DDS -> PNG
//	bcconv info <input.dds>                           # show header info
//	bcconv batch <encode|decode> <dir> <out_dir>      # batch convert
//	bcconv pack <manifest> <data> <dds_dir>           # bundle *.dds into a pack
//	bcconv unpack <manifest> <data> <out_dir>         # extract a pack
package main

import (
	"fmt"
	"image"
	"image/png"
	"os"
	"path/filepath"
	"strings"

	"github.com/nvtex/gotexturetools/pkg/bcdec"
	"github.com/nvtex/gotexturetools/pkg/colorblock"
	"github.com/nvtex/gotexturetools/pkg/config"
	"github.com/nvtex/gotexturetools/pkg/dds"
	"github.com/nvtex/gotexturetools/pkg/pipeline"
	"github.com/nvtex/gotexturetools/pkg/texpack"
)

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	var err error
	switch os.Args[1] {
	case "encode":
		if len(os.Args) < 4 {
			fmt.Fprintln(os.Stderr, "Usage: bcconv encode <input.png> <output.dds> [format]")
			os.Exit(1)
		}
		format := "bc3"
		if len(os.Args) >= 5 {
			format = os.Args[4]
		}
		err = encodeCmd(os.Args[2], os.Args[3], format)
	case "decode":
		if len(os.Args) != 4 {
			fmt.Fprintln(os.Stderr, "Usage: bcconv decode <input.dds> <output.png>")
			os.Exit(1)
		}
		err = decodeCmd(os.Args[2], os.Args[3])
	case "info":
		if len(os.Args) != 3 {
			fmt.Fprintln(os.Stderr, "Usage: bcconv info <input.dds>")
			os.Exit(1)
		}
		err = infoCmd(os.Args[2])
	case "batch":
		if len(os.Args) != 5 {
			fmt.Fprintln(os.Stderr, "Usage: bcconv batch <encode|decode> <dir> <out_dir>")
			os.Exit(1)
		}
		err = batchCmd(os.Args[2], os.Args[3], os.Args[4])
	case "pack":
		if len(os.Args) != 5 {
			fmt.Fprintln(os.Stderr, "Usage: bcconv pack <manifest> <data> <dds_dir>")
			os.Exit(1)
		}
		err = packCmd(os.Args[2], os.Args[3], os.Args[4])
	case "unpack":
		if len(os.Args) != 5 {
			fmt.Fprintln(os.Stderr, "Usage: bcconv unpack <manifest> <data> <out_dir>")
			os.Exit(1)
		}
		err = unpackCmd(os.Args[2], os.Args[3], os.Args[4])
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n", os.Args[1])
		printUsage()
		os.Exit(1)
	}

	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Println("bcconv - BC1/BC1a/BC2/BC3/BC3n/BC4/BC5 texture compressor")
	fmt.Println()
	fmt.Println("Usage:")
	fmt.Println("  bcconv encode <in.png> <out.dds> [format]  # PNG -> DDS")
	fmt.Println("  bcconv decode <in.dds> <out.png>           # DDS -> PNG")
	fmt.Println("  bcconv info <in.dds>                       # show header info")
	fmt.Println("  bcconv batch <encode|decode> <dir> <out>   # batch convert")
	fmt.Println("  bcconv pack <manifest> <data> <dds_dir>    # bundle a directory of .dds files")
	fmt.Println("  bcconv unpack <manifest> <data> <out_dir>  # extract a pack")
	fmt.Println()
	fmt.Println("Formats: bc1, bc1a, bc1n, bc2, bc3, bc3n, bc4, bc5")
}

func formatFromName(name string) (config.CompressionFormat, error) {
	switch strings.ToLower(name) {
	case "bc1":
		return config.FormatBC1, nil
	case "bc1a":
		return config.FormatBC1a, nil
	case "bc1n":
		return config.FormatBC1n, nil
	case "bc2":
		return config.FormatBC2, nil
	case "bc3":
		return config.FormatBC3, nil
	case "bc3n":
		return config.FormatBC3n, nil
	case "bc4":
		return config.FormatBC4, nil
	case "bc5":
		return config.FormatBC5, nil
	default:
		return 0, fmt.Errorf("unknown format %q", name)
	}
}

func imageToBGRA8(img image.Image) (data []byte, w, h int) {
	bounds := img.Bounds()
	w, h = bounds.Dx(), bounds.Dy()
	data = make([]byte, w*h*4)
	i := 0
	for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
		for x := bounds.Min.X; x < bounds.Max.X; x++ {
			r, g, b, a := img.At(x, y).RGBA()
			data[i] = byte(b >> 8)
			data[i+1] = byte(g >> 8)
			data[i+2] = byte(r >> 8)
			data[i+3] = byte(a >> 8)
			i += 4
		}
	}
	return data, w, h
}

func encodeCmd(inputPath, outputPath, formatName string) error {
	f, err := os.Open(inputPath)
	if err != nil {
		return fmt.Errorf("open input: %w", err)
	}
	img, _, err := image.Decode(f)
	f.Close()
	if err != nil {
		return fmt.Errorf("decode image: %w", err)
	}

	format, err := formatFromName(formatName)
	if err != nil {
		return err
	}

	data, w, h := imageToBGRA8(img)

	in := config.InputCfg{
		Width:           w,
		Height:          h,
		FaceCount:       1,
		Images:          [][]byte{data},
		PixelFormats:    []config.PixelFormat{config.PixelBGRA8},
		GenerateMipmaps: true,
		MipmapFilter:    config.FilterBox,
		InputGamma:      1,
		OutputGamma:     1,
		Quantization:    config.Quantization{ColorDithering: true},
	}
	comp := config.CompressionCfg{Format: format, Quality: config.Normal}
	out := config.OutputCfg{FileName: outputPath, OutputHeader: true}

	var firstErr error
	out.ErrorHandler = func(kind config.ErrorKind) {
		if firstErr == nil {
			firstErr = fmt.Errorf("pipeline error: %s", kind)
		}
	}

	if !pipeline.Compress(in, comp, out) {
		if firstErr != nil {
			return firstErr
		}
		return fmt.Errorf("compression failed")
	}

	fmt.Printf("Encoded %s -> %s (%s)\n", inputPath, outputPath, formatName)
	return nil
}

func decodeCmd(inputPath, outputPath string) error {
	raw, err := os.ReadFile(inputPath)
	if err != nil {
		return fmt.Errorf("read input: %w", err)
	}
	header, surfaces, err := dds.Decode(raw)
	if err != nil {
		return fmt.Errorf("parse dds: %w", err)
	}
	if len(surfaces) == 0 {
		return fmt.Errorf("no surfaces in %s", inputPath)
	}

	var img *colorblock.Image
	if header.Format.Compressed() {
		img, err = bcdec.Decode(header.Format, int(header.Width), int(header.Height), surfaces[0])
		if err != nil {
			return fmt.Errorf("decompress: %w", err)
		}
	} else {
		img = colorblock.NewImage(int(header.Width), int(header.Height), colorblock.OrderARGB)
		plane := surfaces[0]
		for i := 0; i < int(header.Width)*int(header.Height); i++ {
			off := i * 4
			if off+4 > len(plane) {
				break
			}
			img.Pixels[i] = colorblock.Color{B: plane[off], G: plane[off+1], R: plane[off+2], A: plane[off+3]}
		}
	}

	nrgba := image.NewNRGBA(image.Rect(0, 0, img.Width, img.Height))
	for y := 0; y < img.Height; y++ {
		for x := 0; x < img.Width; x++ {
			c := img.At(x, y)
			o := nrgba.PixOffset(x, y)
			nrgba.Pix[o] = c.R
			nrgba.Pix[o+1] = c.G
			nrgba.Pix[o+2] = c.B
			nrgba.Pix[o+3] = c.A
		}
	}

	outFile, err := os.Create(outputPath)
	if err != nil {
		return fmt.Errorf("create output: %w", err)
	}
	defer outFile.Close()

	if err := png.Encode(outFile, nrgba); err != nil {
		return fmt.Errorf("encode png: %w", err)
	}

	fmt.Printf("Decoded %s -> %s\n", inputPath, outputPath)
	return nil
}

func infoCmd(inputPath string) error {
	raw, err := os.ReadFile(inputPath)
	if err != nil {
		return fmt.Errorf("read input: %w", err)
	}
	header, surfaces, err := dds.Decode(raw)
	if err != nil {
		return fmt.Errorf("parse dds: %w", err)
	}

	fmt.Printf("File: %s\n", inputPath)
	fmt.Printf("Dimensions: %dx%d\n", header.Width, header.Height)
	fmt.Printf("Mip levels: %d\n", header.MipLevels)
	fmt.Printf("Array size: %d\n", header.ArraySize)
	fmt.Printf("Cube map: %v\n", header.IsCubeMap)
	fmt.Printf("Format: %s\n", header.Format)
	fmt.Printf("Surfaces: %d\n", len(surfaces))
	total := 0
	for _, s := range surfaces {
		total += len(s)
	}
	fmt.Printf("Data size: %d bytes (%.2f KB)\n", total, float64(total)/1024)
	return nil
}

func batchCmd(mode, inputDir, outputDir string) error {
	if mode != "encode" && mode != "decode" {
		return fmt.Errorf("batch mode must be encode or decode, got %q", mode)
	}
	if err := os.MkdirAll(outputDir, 0755); err != nil {
		return fmt.Errorf("create output dir: %w", err)
	}

	srcExt, dstExt := ".dds", ".png"
	if mode == "encode" {
		srcExt, dstExt = ".png", ".dds"
	}

	count, failures := 0, 0
	err := filepath.Walk(inputDir, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if info.IsDir() || !strings.EqualFold(filepath.Ext(path), srcExt) {
			return nil
		}

		rel, _ := filepath.Rel(inputDir, path)
		outPath := filepath.Join(outputDir, strings.TrimSuffix(rel, srcExt)+dstExt)
		if err := os.MkdirAll(filepath.Dir(outPath), 0755); err != nil {
			fmt.Fprintf(os.Stderr, "mkdir %s: %v\n", filepath.Dir(outPath), err)
			failures++
			return nil
		}

		var convErr error
		if mode == "encode" {
			convErr = encodeCmd(path, outPath, "bc3")
		} else {
			convErr = decodeCmd(path, outPath)
		}
		if convErr != nil {
			fmt.Fprintf(os.Stderr, "convert %s: %v\n", path, convErr)
			failures++
		} else {
			count++
		}
		return nil
	})
	if err != nil {
		return err
	}

	fmt.Printf("Completed: %d converted, %d errors\n", count, failures)
	return nil
}

func packCmd(manifestPath, dataPath, ddsDir string) error {
	entries, err := os.ReadDir(ddsDir)
	if err != nil {
		return fmt.Errorf("read dir: %w", err)
	}

	var textures []texpack.Texture
	for _, e := range entries {
		if e.IsDir() || !strings.EqualFold(filepath.Ext(e.Name()), ".dds") {
			continue
		}
		path := filepath.Join(ddsDir, e.Name())
		raw, err := os.ReadFile(path)
		if err != nil {
			return fmt.Errorf("read %s: %w", path, err)
		}
		header, _, err := dds.Decode(raw)
		if err != nil {
			return fmt.Errorf("parse %s: %w", path, err)
		}
		textures = append(textures, texpack.Texture{
			Name:      strings.TrimSuffix(e.Name(), filepath.Ext(e.Name())),
			DDS:       raw,
			Width:     int(header.Width),
			Height:    int(header.Height),
			Depth:     1,
			MipLevels: int(header.MipLevels),
			FaceCount: header.Faces(),
			Format:    header.Format,
			IsCubeMap: header.IsCubeMap,
		})
	}

	builder := texpack.NewBuilder(dataPath)
	manifest, err := builder.Build(textures)
	if err != nil {
		return fmt.Errorf("build pack: %w", err)
	}
	if err := texpack.WriteManifestFile(manifestPath, manifest); err != nil {
		return fmt.Errorf("write manifest: %w", err)
	}

	fmt.Printf("Packed %d textures -> %s + %s\n", len(textures), manifestPath, dataPath)
	return nil
}

func unpackCmd(manifestPath, dataPath, outDir string) error {
	pack, err := texpack.Open(manifestPath, dataPath)
	if err != nil {
		return fmt.Errorf("open pack: %w", err)
	}
	defer pack.Close()

	if err := pack.Extract(outDir); err != nil {
		return fmt.Errorf("extract: %w", err)
	}

	fmt.Printf("Extracted %d textures -> %s\n", len(pack.Entries()), outDir)
	return nil
}
