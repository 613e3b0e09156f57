package alphafit

import (
	"testing"

	"github.com/nvtex/gotexturetools/pkg/bcblock"
)

func TestFitConstantTileIsExact(t *testing.T) {
	var tile [16]uint8
	for i := range tile {
		tile[i] = 128
	}
	for _, tier := range []Tier{Fast, Iterative, Highest} {
		block := Fit(tile, tier)
		palette := block.Palette()
		for i := 0; i < 16; i++ {
			got := palette[block.Index(i)]
			if absDiff(got, 128) > 1 {
				t.Errorf("tier %d: texel %d = %d, want close to 128", tier, i, got)
			}
		}
	}
}

func TestFitMinMaxTileUsesEndpoints(t *testing.T) {
	var tile [16]uint8
	for i := range tile {
		if i%2 == 0 {
			tile[i] = 0
		} else {
			tile[i] = 255
		}
	}
	for _, tier := range []Tier{Fast, Iterative, Highest} {
		// The fast tier insets both endpoints by 1/32 of the range (255/32 = 7).
		inset := 0
		if tier == Fast {
			inset = 255 / 32
		}
		block := Fit(tile, tier)
		palette := block.Palette()
		for i := 0; i < 16; i++ {
			got := palette[block.Index(i)]
			want := uint8(int(tile[i]) + inset)
			if tile[i] == 255 {
				want = uint8(255 - inset)
			}
			if absDiff(got, want) > 1 {
				t.Errorf("tier %d: texel %d decoded to %d, want close to %d", tier, i, got, want)
			}
		}
	}
}

func TestMinMaxHelper(t *testing.T) {
	tile := [16]uint8{5, 250, 10, 0, 100, 99, 98, 97, 96, 95, 94, 93, 92, 91, 90, 1}
	min, max := minMax(tile)
	if min != 0 || max != 250 {
		t.Fatalf("minMax = (%d,%d), want (0,250)", min, max)
	}
}

func TestAlphaBlockErrorDecreasesWithBetterFit(t *testing.T) {
	var tile [16]uint8
	for i := range tile {
		tile[i] = uint8(i * 16)
	}
	fast := Fit(tile, Fast)
	highest := Fit(tile, Highest)

	fastErr := bcblock.AlphaBlockError(tile, fast)
	highestErr := bcblock.AlphaBlockError(tile, highest)
	if highestErr > fastErr {
		t.Fatalf("highest-tier error %d should not exceed fast-tier error %d", highestErr, fastErr)
	}
}
