package dds

import "testing"

func TestEncodeDecodeBC1RoundTrip(t *testing.T) {
	h := NewHeader(8, 8, 2, FormatBC1UNorm)
	sizes := h.SurfaceSizes()
	surfaces := make([][]byte, len(sizes))
	for i, sz := range sizes {
		buf := make([]byte, sz)
		for j := range buf {
			buf[j] = byte(i*7 + j)
		}
		surfaces[i] = buf
	}

	data, err := Encode(h, surfaces)
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}

	gotHeader, gotSurfaces, err := Decode(data)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if gotHeader.Width != h.Width || gotHeader.Height != h.Height || gotHeader.MipLevels != h.MipLevels {
		t.Fatalf("header = %+v, want dims matching %+v", gotHeader, h)
	}
	if gotHeader.Format != FormatBC1UNorm {
		t.Fatalf("format = %v, want BC1UNorm (legacy FourCC path)", gotHeader.Format)
	}
	if len(gotSurfaces) != len(surfaces) {
		t.Fatalf("got %d surfaces, want %d", len(gotSurfaces), len(surfaces))
	}
	for i := range surfaces {
		if len(gotSurfaces[i]) != len(surfaces[i]) {
			t.Fatalf("surface %d len = %d, want %d", i, len(gotSurfaces[i]), len(surfaces[i]))
		}
		for j := range surfaces[i] {
			if gotSurfaces[i][j] != surfaces[i][j] {
				t.Fatalf("surface %d byte %d = %x, want %x", i, j, gotSurfaces[i][j], surfaces[i][j])
			}
		}
	}
}

func TestEncodeDecodeCubeMapRoundTrip(t *testing.T) {
	h := NewCubeHeader(4, 1, FormatBC3UNorm)
	surfaces := make([][]byte, h.Faces())
	for i := range surfaces {
		surfaces[i] = make([]byte, linearSize(h.Width, h.Height, h.Format))
		surfaces[i][0] = byte(i + 1)
	}

	data, err := Encode(h, surfaces)
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}
	gotHeader, gotSurfaces, err := Decode(data)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if !gotHeader.IsCubeMap {
		t.Fatalf("expected IsCubeMap=true")
	}
	if len(gotSurfaces) != 6 {
		t.Fatalf("got %d surfaces, want 6", len(gotSurfaces))
	}
	for i, s := range gotSurfaces {
		if s[0] != byte(i+1) {
			t.Fatalf("face %d marker = %d, want %d", i, s[0], i+1)
		}
	}
}

func TestEncodeDecodeUncompressedUsesDX10(t *testing.T) {
	h := NewHeader(2, 2, 1, FormatR8G8B8A8UNorm)
	surfaces := [][]byte{make([]byte, 2*2*4)}
	data, err := Encode(h, surfaces)
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}
	got, _, err := Decode(data)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if got.Format != FormatR8G8B8A8UNorm {
		t.Fatalf("format = %v, want R8G8B8A8_UNORM", got.Format)
	}
}

func TestEncodeRejectsWrongSurfaceCount(t *testing.T) {
	h := NewHeader(4, 4, 1, FormatBC1UNorm)
	if _, err := Encode(h, nil); err == nil {
		t.Fatalf("expected error for missing surfaces")
	}
}

func TestDecodeRejectsBadMagic(t *testing.T) {
	if _, _, err := Decode(make([]byte, 200)); err == nil {
		t.Fatalf("expected error for bad magic")
	}
}

func TestFormatBlockSizeAndCompressed(t *testing.T) {
	if FormatBC1UNorm.BlockSize() != 8 {
		t.Fatalf("BC1 block size = %d, want 8", FormatBC1UNorm.BlockSize())
	}
	if FormatBC3UNorm.BlockSize() != 16 {
		t.Fatalf("BC3 block size = %d, want 16", FormatBC3UNorm.BlockSize())
	}
	if FormatR8G8B8A8UNorm.Compressed() {
		t.Fatalf("R8G8B8A8 should not report Compressed")
	}
	if !FormatBC5UNorm.Compressed() {
		t.Fatalf("BC5 should report Compressed")
	}
}

func TestMipDimFloorsAtOne(t *testing.T) {
	h := NewHeader(8, 8, 4, FormatBC1UNorm)
	sizes := h.SurfaceSizes()
	if len(sizes) != 4 {
		t.Fatalf("got %d mip sizes, want 4", len(sizes))
	}
	// 8 -> 4 -> 2 -> 1: 2x2, 1x1, 1x1, 1x1 blocks, 8 bytes/BC1 block.
	want := []uint32{32, 8, 8, 8}
	for i, w := range want {
		if sizes[i] != w {
			t.Errorf("mip %d size = %d, want %d", i, sizes[i], w)
		}
	}
}
