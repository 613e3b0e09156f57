package texpack

import (
	"path/filepath"
	"testing"

	"github.com/nvtex/gotexturetools/pkg/dds"
)

func TestManifestMarshalUnmarshalRoundTrip(t *testing.T) {
	m := &Manifest{Entries: []Entry{
		{Name: "wall_diffuse", Width: 256, Height: 256, MipLevels: 9, FaceCount: 1, Format: dds.FormatBC1UNorm, Offset: 0, CompressedSize: 100, Size: 500},
		{Name: "skybox", Width: 512, Height: 512, MipLevels: 1, FaceCount: 6, Format: dds.FormatBC3UNorm, IsCubeMap: true, Offset: 100, CompressedSize: 900, Size: 4000},
	}}

	data, err := m.MarshalBinary()
	if err != nil {
		t.Fatalf("MarshalBinary: %v", err)
	}

	var got Manifest
	if err := got.UnmarshalBinary(data); err != nil {
		t.Fatalf("UnmarshalBinary: %v", err)
	}

	if len(got.Entries) != len(m.Entries) {
		t.Fatalf("got %d entries, want %d", len(got.Entries), len(m.Entries))
	}
	for i, want := range m.Entries {
		if got.Entries[i] != want {
			t.Fatalf("entry %d = %+v, want %+v", i, got.Entries[i], want)
		}
	}
}

func TestManifestByName(t *testing.T) {
	m := &Manifest{Entries: []Entry{{Name: "a"}, {Name: "b"}}}
	if _, ok := m.ByName("missing"); ok {
		t.Fatalf("ByName(missing) should report not found")
	}
	e, ok := m.ByName("b")
	if !ok || e.Name != "b" {
		t.Fatalf("ByName(b) = %+v, %v", e, ok)
	}
}

func TestManifestRejectsOverlongName(t *testing.T) {
	long := make([]byte, nameSize)
	for i := range long {
		long[i] = 'x'
	}
	m := &Manifest{Entries: []Entry{{Name: string(long)}}}
	if _, err := m.MarshalBinary(); err == nil {
		t.Fatalf("expected error marshaling an over-long name")
	}
}

func TestWriteReadManifestFileRoundTrip(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "manifest.bin")
	m := &Manifest{Entries: []Entry{
		{Name: "tex0", Width: 64, Height: 64, MipLevels: 1, FaceCount: 1, Format: dds.FormatBC1UNorm, Size: 2048, CompressedSize: 512},
	}}
	if err := WriteManifestFile(path, m); err != nil {
		t.Fatalf("WriteManifestFile: %v", err)
	}
	got, err := ReadManifestFile(path)
	if err != nil {
		t.Fatalf("ReadManifestFile: %v", err)
	}
	if len(got.Entries) != 1 || got.Entries[0].Name != "tex0" {
		t.Fatalf("round-tripped manifest = %+v", got.Entries)
	}
}

func TestBuildAndExtractRoundTrip(t *testing.T) {
	dir := t.TempDir()
	dataPath := filepath.Join(dir, "data.bin")
	manifestPath := filepath.Join(dir, "manifest.bin")

	textures := []Texture{
		{Name: "one", DDS: []byte("texture-one-bytes-abc"), Width: 4, Height: 4, MipLevels: 1, FaceCount: 1, Format: dds.FormatBC1UNorm},
		{Name: "two", DDS: []byte("texture-two-bytes-defgh"), Width: 8, Height: 8, MipLevels: 2, FaceCount: 1, Format: dds.FormatBC3UNorm},
		{Name: "three", DDS: []byte("texture-three-data-xyz"), Width: 16, Height: 16, MipLevels: 1, FaceCount: 6, Format: dds.FormatBC5UNorm, IsCubeMap: true},
	}

	builder := NewBuilder(dataPath)
	manifest, err := builder.Build(textures)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	if err := WriteManifestFile(manifestPath, manifest); err != nil {
		t.Fatalf("WriteManifestFile: %v", err)
	}

	pack, err := Open(manifestPath, dataPath)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer pack.Close()

	if len(pack.Entries()) != len(textures) {
		t.Fatalf("got %d entries, want %d", len(pack.Entries()), len(textures))
	}

	for _, tex := range textures {
		got, err := pack.ReadTexture(tex.Name)
		if err != nil {
			t.Fatalf("ReadTexture(%q): %v", tex.Name, err)
		}
		if string(got) != string(tex.DDS) {
			t.Fatalf("ReadTexture(%q) = %q, want %q", tex.Name, got, tex.DDS)
		}
	}

	if _, err := pack.ReadTexture("missing"); err == nil {
		t.Fatalf("expected error reading a missing texture")
	}

	outDir := filepath.Join(dir, "extracted")
	if err := pack.Extract(outDir); err != nil {
		t.Fatalf("Extract: %v", err)
	}
}
