// Package alphafit implements the alpha-endpoint search of spec.md S4.3:
// given a 4x4 alpha tile, choose two 8-bit endpoints and sixteen 3-bit
// indices of an AlphaBlockDXT5 that minimize squared error, at one of three
// quality tiers (fast, iterative, and brute-force highest).
package alphafit

import "github.com/nvtex/gotexturetools/pkg/bcblock"

// Tier selects the search strategy.
type Tier int

const (
	Fast Tier = iota
	Iterative
	Highest
)

// Fit searches for the lowest-error AlphaBlockDXT5 encoding of the 16
// alpha values in tile at the given tier.
func Fit(tile [16]uint8, tier Tier) bcblock.AlphaBlockDXT5 {
	switch tier {
	case Fast:
		return fitFast(tile)
	case Highest:
		return fitHighest(tile)
	default:
		return fitIterative(tile)
	}
}

func minMax(tile [16]uint8) (min, max uint8) {
	min, max = tile[0], tile[0]
	for _, v := range tile[1:] {
		if v < min {
			min = v
		}
		if v > max {
			max = v
		}
	}
	return
}

// fitFast nudges the tile's min/max inward by 1/32 of the range and assigns
// indices by nearest palette entry.
func fitFast(tile [16]uint8) bcblock.AlphaBlockDXT5 {
	min, max := minMax(tile)
	inset := (int(max) - int(min)) / 32
	a0 := clampByte(int(max) - inset)
	a1 := clampByte(int(min) + inset)
	if a0 < a1 {
		a0, a1 = a1, a0
	}
	block := bcblock.AlphaBlockDXT5{A0: a0, A1: a1}
	assignNearest(tile, &block)
	return block
}

func clampByte(v int) uint8 {
	if v < 0 {
		return 0
	}
	if v > 255 {
		return 255
	}
	return uint8(v)
}

func assignNearest(tile [16]uint8, block *bcblock.AlphaBlockDXT5) {
	palette := block.Palette()
	for i, v := range tile {
		best := 0
		bestErr := absDiff(v, palette[0])
		for j := 1; j < 8; j++ {
			if d := absDiff(v, palette[j]); d < bestErr {
				bestErr = d
				best = j
			}
		}
		block.SetIndex(i, uint8(best))
	}
}

func absDiff(a, b uint8) int {
	d := int(a) - int(b)
	if d < 0 {
		return -d
	}
	return d
}

// fitHighest brute-forces ordered endpoint pairs (a0, a1) in
// [min+9..max] x [min..a0-9], pruning pairs whose endpoint-side penalties
// already exceed the running best error.
func fitHighest(tile [16]uint8) bcblock.AlphaBlockDXT5 {
	min, max := minMax(tile)
	best := fitFast(tile)
	bestErr := bcblock.AlphaBlockError(tile, best)

	for a0 := int(min) + 9; a0 <= int(max); a0++ {
		penaltyA0 := uint32(max) - uint32(a0)
		if penaltyA0*penaltyA0 >= bestErr {
			continue
		}
		for a1 := int(min); a1 <= a0-9; a1++ {
			penalty := (uint32(max) - uint32(a0)) + (uint32(a1) - uint32(min))
			if penalty*penalty >= bestErr {
				continue
			}
			cand := bcblock.AlphaBlockDXT5{A0: uint8(a0), A1: uint8(a1)}
			assignNearest(tile, &cand)
			if e := bcblock.AlphaBlockError(tile, cand); e < bestErr {
				bestErr = e
				best = cand
			}
		}
	}
	return best
}

// fitIterative least-squares refines endpoints given an initial fast-tier
// assignment: alpha=1 for index 0, alpha=0 for index 1, alpha=(8-k)/7 for
// indices 2..7 (the weights of bcblock.EvaluatePalette8). A resulting a0 < a1 is swapped and
// indices remapped; a0 == a1 collapses all indices to zero.
func fitIterative(tile [16]uint8) bcblock.AlphaBlockDXT5 {
	block := fitFast(tile)

	for iter := 0; iter < 4; iter++ {
		var saa, sab, sbb, sax, sbx float64
		for i, v := range tile {
			idx := block.Index(i)
			a := alphaWeight(idx)
			b := 1 - a
			saa += a * a
			sab += a * b
			sbb += b * b
			sax += a * float64(v)
			sbx += b * float64(v)
		}
		det := saa*sbb - sab*sab
		if det == 0 {
			break
		}
		A := (sax*sbb - sbx*sab) / det
		B := (sbx*saa - sax*sab) / det
		a0 := clampRound(A)
		a1 := clampRound(B)

		if a0 < a1 {
			a0, a1 = a1, a0
			remapSwapped(&block)
		} else if a0 == a1 {
			for i := range tile {
				block.SetIndex(i, 0)
			}
		}
		changed := block.A0 != a0 || block.A1 != a1
		block.A0, block.A1 = a0, a1
		assignNearest(tile, &block)
		if !changed {
			break
		}
	}
	return block
}

// alphaWeight returns the endpoint-A interpolation weight for palette index
// idx under the eight-level (0..7) DXT5 alpha mode.
func alphaWeight(idx uint8) float64 {
	switch idx {
	case 0:
		return 1
	case 1:
		return 0
	default:
		return float64(8-int(idx)) / 7
	}
}

// remapSwapped remaps indices after an endpoint swap: i in {0,1} -> 1-i,
// others -> 9-i, per spec.md S4.3.
func remapSwapped(block *bcblock.AlphaBlockDXT5) {
	for i := 0; i < 16; i++ {
		idx := block.Index(i)
		if idx < 2 {
			block.SetIndex(i, 1-idx)
		} else {
			block.SetIndex(i, uint8(9-int(idx)))
		}
	}
}

func clampRound(v float64) uint8 {
	if v < 0 {
		v = 0
	}
	if v > 255 {
		v = 255
	}
	return uint8(v + 0.5)
}
