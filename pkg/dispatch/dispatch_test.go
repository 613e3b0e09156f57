package dispatch

import (
	"bytes"
	"testing"

	"github.com/nvtex/gotexturetools/pkg/bcenc"
	"github.com/nvtex/gotexturetools/pkg/colorblock"
)

func checkerboardImage(w, h int) *colorblock.Image {
	img := colorblock.NewImage(w, h, colorblock.OrderARGB)
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			c := colorblock.Color{R: uint8(x * 7), G: uint8(y * 11), B: uint8((x + y) * 3), A: 255}
			img.Set(x, y, c)
		}
	}
	return img
}

func TestDispatchersAgree(t *testing.T) {
	img := checkerboardImage(16, 12)
	encoder := bcenc.New(bcenc.BC1)
	opts := bcenc.Options{Quality: bcenc.NormalQuality}

	seq := Sequential{}.Run(img, encoder, opts)
	pool := Pool{Workers: 3}.Run(img, encoder, opts)
	ordered := Ordered{Lookahead: 2}.Run(img, encoder, opts)

	if !bytes.Equal(seq, pool) {
		t.Fatalf("Pool output diverged from Sequential output")
	}
	if !bytes.Equal(seq, ordered) {
		t.Fatalf("Ordered output diverged from Sequential output")
	}
}

func TestDispatchOutputSizeMatchesBlockGrid(t *testing.T) {
	img := checkerboardImage(10, 6) // not a multiple of 4, needs edge clamping
	encoder := bcenc.New(bcenc.BC3)
	opts := bcenc.Options{Quality: bcenc.NormalQuality}

	out := Sequential{}.Run(img, encoder, opts)
	bw, bh := blocksAcross(img.Width), blocksAcross(img.Height)
	want := bw * bh * encoder.BlockSize()
	if len(out) != want {
		t.Fatalf("output size = %d, want %d (%dx%d blocks)", len(out), want, bw, bh)
	}
}

func TestBlocksAcrossRoundsUp(t *testing.T) {
	cases := map[int]int{1: 1, 4: 1, 5: 2, 8: 2, 9: 3}
	for n, want := range cases {
		if got := blocksAcross(n); got != want {
			t.Errorf("blocksAcross(%d) = %d, want %d", n, got, want)
		}
	}
}
