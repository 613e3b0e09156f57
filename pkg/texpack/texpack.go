// Package texpack bundles many compressed DDS textures produced by
// pkg/pipeline into a single archive: a small manifest file listing each
// texture's name, dimensions, and format, and a data file holding each
// texture's bytes as its own independently zstd-compressed frame so any
// one texture can be fetched without touching the others.
//
// Grounded on pkg/manifest's Header/Section/FrameContent record shape and
// pkg/archive's zstd framing, generalized from EVR asset symbols to named
// textures.
package texpack

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"os"

	"github.com/nvtex/gotexturetools/pkg/archive"
	"github.com/nvtex/gotexturetools/pkg/dds"
)

// Magic identifies a texpack manifest, distinct from a bare archive.Magic
// payload so a reader can tell the two apart before parsing.
var Magic = [4]byte{'T', 'P', 'A', 'K'}

const manifestVersion = 1

// nameSize bounds a texture's name to a fixed-width field so the entry
// table can be marshaled as one flat array, matching the teacher's
// fixed-size-struct sections.
const nameSize = 64

// header is the fixed-size preamble of a texpack manifest.
type header struct {
	Magic      [4]byte
	Version    uint32
	EntryCount uint32
	_          uint32 // padding to 16 bytes
}

// rawEntry is Entry's on-disk layout: a zero-padded name array followed by
// fixed-width fields, written with encoding/binary like manifest.Section.
type rawEntry struct {
	Name           [nameSize]byte
	Width          uint32
	Height         uint32
	Depth          uint32
	MipLevels      uint32
	FaceCount      uint32
	Format         uint32 // dds.Format
	IsCubeMap      uint32 // 0/1
	_              uint32 // padding
	Offset         uint64 // byte offset of the compressed frame in the data file
	CompressedSize uint64
	Size           uint64 // uncompressed DDS byte size
}

// Entry describes one packed texture.
type Entry struct {
	Name           string
	Width          int
	Height         int
	Depth          int
	MipLevels      int
	FaceCount      int
	Format         dds.Format
	IsCubeMap      bool
	Offset         uint64
	CompressedSize uint64
	Size           uint64
}

func (e Entry) toRaw() (rawEntry, error) {
	if len(e.Name) >= nameSize {
		return rawEntry{}, fmt.Errorf("texpack: name %q exceeds %d bytes", e.Name, nameSize-1)
	}
	var r rawEntry
	copy(r.Name[:], e.Name)
	r.Width = uint32(e.Width)
	r.Height = uint32(e.Height)
	r.Depth = uint32(e.Depth)
	r.MipLevels = uint32(e.MipLevels)
	r.FaceCount = uint32(e.FaceCount)
	r.Format = uint32(e.Format)
	if e.IsCubeMap {
		r.IsCubeMap = 1
	}
	r.Offset = e.Offset
	r.CompressedSize = e.CompressedSize
	r.Size = e.Size
	return r, nil
}

func (r rawEntry) toEntry() Entry {
	end := bytes.IndexByte(r.Name[:], 0)
	if end < 0 {
		end = len(r.Name)
	}
	return Entry{
		Name:           string(r.Name[:end]),
		Width:          int(r.Width),
		Height:         int(r.Height),
		Depth:          int(r.Depth),
		MipLevels:      int(r.MipLevels),
		FaceCount:      int(r.FaceCount),
		Format:         dds.Format(r.Format),
		IsCubeMap:      r.IsCubeMap != 0,
		Offset:         r.Offset,
		CompressedSize: r.CompressedSize,
		Size:           r.Size,
	}
}

// Manifest is the parsed entry table of a texpack archive.
type Manifest struct {
	Entries []Entry
}

// MarshalBinary encodes the manifest (not zstd-compressed; callers
// typically pass this through archive.Encode, see WriteManifestFile).
func (m *Manifest) MarshalBinary() ([]byte, error) {
	buf := new(bytes.Buffer)
	h := header{Magic: Magic, Version: manifestVersion, EntryCount: uint32(len(m.Entries))}
	if err := binary.Write(buf, binary.LittleEndian, h); err != nil {
		return nil, fmt.Errorf("texpack: write header: %w", err)
	}
	raw := make([]rawEntry, len(m.Entries))
	for i, e := range m.Entries {
		r, err := e.toRaw()
		if err != nil {
			return nil, err
		}
		raw[i] = r
	}
	if err := binary.Write(buf, binary.LittleEndian, raw); err != nil {
		return nil, fmt.Errorf("texpack: write entries: %w", err)
	}
	return buf.Bytes(), nil
}

// UnmarshalBinary decodes a manifest previously produced by MarshalBinary.
func (m *Manifest) UnmarshalBinary(data []byte) error {
	r := bytes.NewReader(data)
	var h header
	if err := binary.Read(r, binary.LittleEndian, &h); err != nil {
		return fmt.Errorf("texpack: read header: %w", err)
	}
	if h.Magic != Magic {
		return fmt.Errorf("texpack: bad magic %x", h.Magic)
	}
	raw := make([]rawEntry, h.EntryCount)
	if err := binary.Read(r, binary.LittleEndian, &raw); err != nil {
		return fmt.Errorf("texpack: read entries: %w", err)
	}
	m.Entries = make([]Entry, len(raw))
	for i, e := range raw {
		m.Entries[i] = e.toEntry()
	}
	return nil
}

// ByName returns the entry with the given name, if present.
func (m *Manifest) ByName(name string) (Entry, bool) {
	for _, e := range m.Entries {
		if e.Name == name {
			return e, true
		}
	}
	return Entry{}, false
}

// WriteManifestFile encodes m and writes it, zstd-framed, to path.
func WriteManifestFile(path string, m *Manifest) error {
	data, err := m.MarshalBinary()
	if err != nil {
		return err
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("texpack: create manifest: %w", err)
	}
	defer f.Close()

	if err := archive.Encode(f, data); err != nil {
		return fmt.Errorf("texpack: encode manifest: %w", err)
	}
	return nil
}

// ReadManifestFile reads and decodes a manifest previously written by
// WriteManifestFile.
func ReadManifestFile(path string) (*Manifest, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("texpack: open manifest: %w", err)
	}
	defer f.Close()

	data, err := archive.ReadAll(f)
	if err != nil {
		return nil, fmt.Errorf("texpack: read manifest: %w", err)
	}

	m := &Manifest{}
	if err := m.UnmarshalBinary(data); err != nil {
		return nil, err
	}
	return m, nil
}
