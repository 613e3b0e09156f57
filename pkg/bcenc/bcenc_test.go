package bcenc

import (
	"testing"

	"github.com/nvtex/gotexturetools/pkg/bcdec"
	"github.com/nvtex/gotexturetools/pkg/colorblock"
	"github.com/nvtex/gotexturetools/pkg/dds"
)

func solidTile(c colorblock.Color) *colorblock.ColorBlock {
	block := &colorblock.ColorBlock{}
	for i := range block.Pixels {
		block.Pixels[i] = c
	}
	return block
}

func TestBC1SolidColorRoundTripsExactly(t *testing.T) {
	c := colorblock.Color{R: 200, G: 40, B: 90, A: 255}
	tile := solidTile(c)
	enc := New(BC1)
	out := make([]byte, enc.BlockSize())
	enc.CompressBlock(tile, Options{Quality: NormalQuality}, out)

	var raw [16]byte
	copy(raw[:8], out)
	decoded := decodeViaBcdec(t, dds.FormatBC1UNorm, raw)
	for i, px := range decoded {
		if absDiff(px.R, c.R) > 4 || absDiff(px.G, c.G) > 4 || absDiff(px.B, c.B) > 4 {
			t.Fatalf("texel %d = %+v, want close to %+v", i, px, c)
		}
	}
}

func TestBC3SolidColorAndAlphaRoundTrip(t *testing.T) {
	c := colorblock.Color{R: 10, G: 220, B: 128, A: 77}
	tile := solidTile(c)
	enc := New(BC3)
	out := make([]byte, enc.BlockSize())
	enc.CompressBlock(tile, Options{Quality: NormalQuality}, out)

	var raw [16]byte
	copy(raw[:], out)
	decoded := decodeViaBcdec(t, dds.FormatBC3UNorm, raw)
	for i, px := range decoded {
		if absDiff(px.R, c.R) > 4 || absDiff(px.G, c.G) > 4 || absDiff(px.B, c.B) > 4 || absDiff(px.A, c.A) > 4 {
			t.Fatalf("texel %d = %+v, want close to %+v", i, px, c)
		}
	}
}

func TestBC4SingleChannelRoundTrip(t *testing.T) {
	tile := &colorblock.ColorBlock{}
	for i := range tile.Pixels {
		tile.Pixels[i] = colorblock.Color{R: uint8(i * 16), G: 0, B: 0, A: 255}
	}
	enc := New(BC4)
	out := make([]byte, enc.BlockSize())
	enc.CompressBlock(tile, Options{Quality: NormalQuality}, out)

	var raw [16]byte
	copy(raw[:8], out)
	decoded := decodeViaBcdec(t, dds.FormatBC4UNorm, raw)
	for i, px := range decoded {
		want := tile.Pixels[i].R
		if absDiff(px.R, want) > 8 {
			t.Fatalf("texel %d red = %d, want close to %d", i, px.R, want)
		}
	}
}

func TestBC5TwoChannelRoundTrip(t *testing.T) {
	tile := &colorblock.ColorBlock{}
	for i := range tile.Pixels {
		tile.Pixels[i] = colorblock.Color{R: uint8(i * 16), G: uint8(255 - i*16), B: 0, A: 255}
	}
	enc := New(BC5)
	out := make([]byte, enc.BlockSize())
	enc.CompressBlock(tile, Options{Quality: NormalQuality}, out)

	var raw [16]byte
	copy(raw[:], out)
	decoded := decodeViaBcdec(t, dds.FormatBC5UNorm, raw)
	for i, px := range decoded {
		wantR, wantG := tile.Pixels[i].R, tile.Pixels[i].G
		if absDiff(px.R, wantR) > 8 || absDiff(px.G, wantG) > 8 {
			t.Fatalf("texel %d = (%d,%d), want close to (%d,%d)", i, px.R, px.G, wantR, wantG)
		}
	}
}

func TestBlockSizesMatchFormat(t *testing.T) {
	cases := []struct {
		format Format
		size   int
	}{
		{BC1, 8}, {BC1a, 8}, {BC1n, 8}, {BC2, 16}, {BC3, 16}, {BC3n, 16}, {BC4, 8}, {BC5, 16},
	}
	for _, c := range cases {
		if got := New(c.format).BlockSize(); got != c.size {
			t.Errorf("format %d block size = %d, want %d", c.format, got, c.size)
		}
	}
}

func decodeViaBcdec(t *testing.T, format dds.Format, raw [16]byte) [16]colorblock.Color {
	t.Helper()
	blockSize := format.BlockSize()
	img, err := bcdec.Decode(format, 4, 4, raw[:blockSize])
	if err != nil {
		t.Fatalf("bcdec.Decode: %v", err)
	}
	var out [16]colorblock.Color
	for y := 0; y < 4; y++ {
		for x := 0; x < 4; x++ {
			out[y*4+x] = img.At(x, y)
		}
	}
	return out
}

func absDiff(a, b uint8) int {
	if int(a) > int(b) {
		return int(a) - int(b)
	}
	return int(b) - int(a)
}
