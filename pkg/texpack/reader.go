package texpack

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/DataDog/zstd"
)

// Pack is an opened texpack archive: a parsed manifest plus the data file
// holding each entry's compressed frame, grounded on pkg/manifest's
// Package type.
type Pack struct {
	manifest *Manifest
	file     *os.File
	byName   map[string]Entry
}

// Open opens a texpack archive given its manifest and data file paths.
func Open(manifestPath, dataPath string) (*Pack, error) {
	m, err := ReadManifestFile(manifestPath)
	if err != nil {
		return nil, err
	}

	f, err := os.Open(dataPath)
	if err != nil {
		return nil, fmt.Errorf("texpack: open data file: %w", err)
	}

	byName := make(map[string]Entry, len(m.Entries))
	for _, e := range m.Entries {
		byName[e.Name] = e
	}

	return &Pack{manifest: m, file: f, byName: byName}, nil
}

// Close closes the underlying data file.
func (p *Pack) Close() error {
	return p.file.Close()
}

// Manifest returns the pack's parsed manifest.
func (p *Pack) Manifest() *Manifest {
	return p.manifest
}

// Entries returns every texture recorded in the pack.
func (p *Pack) Entries() []Entry {
	return p.manifest.Entries
}

// ReadTexture returns the decompressed DDS bytes for the named texture.
func (p *Pack) ReadTexture(name string) ([]byte, error) {
	e, ok := p.byName[name]
	if !ok {
		return nil, fmt.Errorf("texpack: no entry named %q", name)
	}
	return p.readEntry(e)
}

func (p *Pack) readEntry(e Entry) ([]byte, error) {
	compressed := make([]byte, e.CompressedSize)
	if _, err := p.file.ReadAt(compressed, int64(e.Offset)); err != nil {
		return nil, fmt.Errorf("texpack: read frame %q: %w", e.Name, err)
	}
	data, err := zstd.Decompress(nil, compressed)
	if err != nil {
		return nil, fmt.Errorf("texpack: decompress frame %q: %w", e.Name, err)
	}
	if uint64(len(data)) != e.Size {
		return nil, fmt.Errorf("texpack: frame %q decompressed to %d bytes, want %d", e.Name, len(data), e.Size)
	}
	return data, nil
}

// Extract writes every packed texture to outputDir as "<name>.dds".
func (p *Pack) Extract(outputDir string) error {
	if err := os.MkdirAll(outputDir, 0755); err != nil {
		return fmt.Errorf("texpack: create output dir: %w", err)
	}
	for _, e := range p.manifest.Entries {
		data, err := p.readEntry(e)
		if err != nil {
			return err
		}
		path := filepath.Join(outputDir, e.Name+".dds")
		if err := os.WriteFile(path, data, 0644); err != nil {
			return fmt.Errorf("texpack: write %q: %w", path, err)
		}
	}
	return nil
}

var _ io.Closer = (*Pack)(nil)
