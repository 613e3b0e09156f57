package colorfit

import (
	"testing"

	"github.com/nvtex/gotexturetools/pkg/bcblock"
	"github.com/nvtex/gotexturetools/pkg/colorblock"
)

func solidTile(c colorblock.Color) *colorblock.ColorBlock {
	block := &colorblock.ColorBlock{}
	for i := range block.Pixels {
		block.Pixels[i] = c
	}
	return block
}

func TestFitSingleColorIsNearExact(t *testing.T) {
	c := colorblock.Color{R: 123, G: 45, B: 67, A: 255}
	tile := solidTile(c)
	for _, tier := range []Tier{Fast, Normal, Highest} {
		block := Fit(tile, tier, Options{})
		palette := block.Palette()
		for i := 0; i < 16; i++ {
			got := palette[block.Index(i)]
			if absDiff(got.R, c.R) > 2 || absDiff(got.G, c.G) > 2 || absDiff(got.B, c.B) > 2 {
				t.Errorf("tier %d texel %d = %+v, want close to %+v", tier, i, got, c)
			}
		}
	}
}

func TestFitGradientTileErrorShrinksWithTier(t *testing.T) {
	block := &colorblock.ColorBlock{}
	for i := range block.Pixels {
		block.Pixels[i] = colorblock.Color{R: uint8(i * 16), G: uint8(255 - i*16), B: uint8(i * 8), A: 255}
	}

	fast := Fit(block, Fast, Options{})
	highest := Fit(block, Highest, Options{})

	fastErr := bcblock.BlockError(block, fast, bcblock.ColorWeights{R: 1, G: 1, B: 1})
	highestErr := bcblock.BlockError(block, highest, bcblock.ColorWeights{R: 1, G: 1, B: 1})

	if highestErr > fastErr {
		t.Fatalf("highest-tier error %d should not exceed fast-tier error %d", highestErr, fastErr)
	}
}

func TestFitNormalBeatsOrMatchesFastOnStructuredTile(t *testing.T) {
	block := &colorblock.ColorBlock{}
	colors := []colorblock.Color{
		{R: 255, G: 0, B: 0, A: 255},
		{R: 0, G: 255, B: 0, A: 255},
		{R: 0, G: 0, B: 255, A: 255},
		{R: 255, G: 255, B: 0, A: 255},
	}
	for i := range block.Pixels {
		block.Pixels[i] = colors[i%len(colors)]
	}

	fast := Fit(block, Fast, Options{})
	normal := Fit(block, Normal, Options{})

	fastErr := bcblock.BlockError(block, fast, bcblock.ColorWeights{R: 1, G: 1, B: 1})
	normalErr := bcblock.BlockError(block, normal, bcblock.ColorWeights{R: 1, G: 1, B: 1})

	if normalErr > fastErr {
		t.Fatalf("normal-tier error %d should not exceed fast-tier error %d", normalErr, fastErr)
	}
}

func absDiff(a, b uint8) int {
	if int(a) > int(b) {
		return int(a) - int(b)
	}
	return int(b) - int(a)
}
