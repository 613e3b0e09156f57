package texpack

import (
	"fmt"
	"os"
	"runtime"

	"github.com/DataDog/zstd"

	"github.com/nvtex/gotexturetools/pkg/dds"
)

// DefaultCompressionLevel is the zstd level used when packing texture
// frames, matching pkg/manifest's package-building default.
const DefaultCompressionLevel = zstd.BestSpeed

// Texture is one already-compressed DDS file to add to a pack.
type Texture struct {
	Name      string
	DDS       []byte
	Width     int
	Height    int
	Depth     int
	MipLevels int
	FaceCount int
	Format    dds.Format
	IsCubeMap bool
}

// Builder writes a texpack data file and its manifest from a set of
// already block-compressed textures.
type Builder struct {
	dataPath         string
	compressionLevel int
}

// NewBuilder creates a builder that writes its data frames to dataPath.
func NewBuilder(dataPath string) *Builder {
	return &Builder{dataPath: dataPath, compressionLevel: DefaultCompressionLevel}
}

// SetCompressionLevel overrides the zstd level used for frame compression.
func (b *Builder) SetCompressionLevel(level int) {
	b.compressionLevel = level
}

type frameResult struct {
	index      int
	compressed []byte
	err        error
}

// Build zstd-compresses each texture's DDS bytes concurrently (bounded
// lookahead, row-major output order) and appends the resulting frames to
// the data file, returning a Manifest recording each entry's offset.
//
// The concurrency shape is the channel-of-channels ordered-futures idiom
// of pkg/manifest's Repack: a producer launches one compress goroutine per
// texture after reserving its result slot, and the consumer drains results
// in submission order so frame offsets stay deterministic regardless of
// which goroutine finishes first.
func (b *Builder) Build(textures []Texture) (*Manifest, error) {
	f, err := os.Create(b.dataPath)
	if err != nil {
		return nil, fmt.Errorf("texpack: create data file: %w", err)
	}
	defer f.Close()

	lookahead := runtime.NumCPU() * 4
	if lookahead < 1 {
		lookahead = 1
	}
	futures := make(chan chan frameResult, lookahead)

	go func() {
		defer close(futures)
		for i, t := range textures {
			ch := make(chan frameResult, 1)
			futures <- ch
			go func(idx int, data []byte) {
				compressed, err := zstd.CompressLevel(nil, data, b.compressionLevel)
				ch <- frameResult{index: idx, compressed: compressed, err: err}
			}(i, t.DDS)
		}
	}()

	manifest := &Manifest{Entries: make([]Entry, 0, len(textures))}
	var offset uint64
	for res := range futures {
		r := <-res
		if r.err != nil {
			return nil, fmt.Errorf("texpack: compress %q: %w", textures[r.index].Name, r.err)
		}
		t := textures[r.index]

		if _, err := f.Write(r.compressed); err != nil {
			return nil, fmt.Errorf("texpack: write frame %q: %w", t.Name, err)
		}

		manifest.Entries = append(manifest.Entries, Entry{
			Name:           t.Name,
			Width:          t.Width,
			Height:         t.Height,
			Depth:          t.Depth,
			MipLevels:      t.MipLevels,
			FaceCount:      t.FaceCount,
			Format:         t.Format,
			IsCubeMap:      t.IsCubeMap,
			Offset:         offset,
			CompressedSize: uint64(len(r.compressed)),
			Size:           uint64(len(t.DDS)),
		})
		offset += uint64(len(r.compressed))
	}

	return manifest, nil
}
