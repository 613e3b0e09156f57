// Package colorfit implements the color-endpoint search of spec.md S4.2:
// given a 4x4 tile, choose the two 5:6:5 endpoints and sixteen 2-bit
// indices of a BlockDXT1 that minimize weighted squared error, at one of
// three quality tiers.
//
// Grounded on nvmath/Fitting.cpp (centroid/covariance, power-method
// principal component) and nvtt/FastCompressDXT.cpp (bounding-box fast
// path, palette/index assignment, endpoint quantization).
package colorfit

import (
	"github.com/nvtex/gotexturetools/pkg/bcblock"
	"github.com/nvtex/gotexturetools/pkg/colorblock"
)

// Tier selects the search strategy.
type Tier int

const (
	Fast Tier = iota
	Normal
	Highest
)

// vec3 is an RGB point in [0,255] float space.
type vec3 struct{ x, y, z float64 }

func (a vec3) sub(b vec3) vec3  { return vec3{a.x - b.x, a.y - b.y, a.z - b.z} }
func (a vec3) add(b vec3) vec3  { return vec3{a.x + b.x, a.y + b.y, a.z + b.z} }
func (a vec3) scale(s float64) vec3 { return vec3{a.x * s, a.y * s, a.z * s} }

func tilePoints(tile *colorblock.ColorBlock) [16]vec3 {
	var pts [16]vec3
	for i := 0; i < 16; i++ {
		c := tile.Color(i)
		pts[i] = vec3{float64(c.R), float64(c.G), float64(c.B)}
	}
	return pts
}

func quantize565(p vec3) uint16 {
	r := clampRound(p.x, 31, 3)
	g := clampRound(p.y, 63, 2)
	b := clampRound(p.z, 31, 3)
	return uint16(r)<<11 | uint16(g)<<5 | uint16(b)
}

// clampRound converts an 8-bit-scale value to an n-bit scale (max is the
// n-bit max, shift is the bit width dropped: 3 for 5-bit, 2 for 6-bit) with
// clamping and rounding.
func clampRound(v float64, max float64, shift uint) uint32 {
	scaled := v / float64(uint32(1)<<shift)
	if scaled < 0 {
		scaled = 0
	}
	if scaled > max {
		scaled = max
	}
	return uint32(scaled + 0.5)
}

func unpack565Point(c uint16) vec3 {
	r := (c >> 11) & 0x1f
	g := (c >> 5) & 0x3f
	b := c & 0x1f
	return vec3{
		float64((r << 3) | (r >> 2)),
		float64((g << 2) | (g >> 4)),
		float64((b << 3) | (b >> 2)),
	}
}

// Options carries the per-call tuning knobs for Fit.
type Options struct {
	// Weights is a per-texel weight (e.g. from alpha or an explicit mask);
	// nil means all-ones.
	Weights *[16]float64
	// ChannelWeights scales each squared color term; zero value means
	// unweighted (1,1,1).
	ChannelWeights bcblock.ColorWeights
	// AllowPunchThrough enables the three-color-plus-transparent tie-break
	// for tiles containing fully-transparent texels (BC1a).
	AllowPunchThrough bool
	// Transparent marks which of the 16 texels must map to the
	// punch-through alpha index (only consulted when AllowPunchThrough).
	Transparent *[16]bool
}

func (o Options) weight(i int) float64 {
	if o.Weights == nil {
		return 1
	}
	return o.Weights[i]
}

// Fit searches for the lowest-error BlockDXT1 encoding of tile at the given
// tier.
func Fit(tile *colorblock.ColorBlock, tier Tier, opts Options) bcblock.BlockDXT1 {
	if block, ok := trySingleColor(tile, opts); ok {
		return block
	}

	switch tier {
	case Fast:
		return fitFast(tile, opts)
	case Normal:
		return fitNormal(tile, opts)
	default:
		return fitHighest(tile, opts)
	}
}

// trySingleColor short-circuits tiles whose 16 texels all share the same RGB
// (per-texel weights are not consulted): the fast path for every tier, per
// spec.md S4.2/S4.4.
func trySingleColor(tile *colorblock.ColorBlock, opts Options) (bcblock.BlockDXT1, bool) {
	first := tile.Color(0)
	for i := 1; i < 16; i++ {
		c := tile.Color(i)
		if c.R != first.R || c.G != first.G || c.B != first.B {
			return bcblock.BlockDXT1{}, false
		}
	}
	e0 := quantizeSingleColor(float64(first.R), 31, 3)
	e1r := e0
	g0 := quantizeSingleColor(float64(first.G), 63, 2)
	b0 := quantizeSingleColor(float64(first.B), 31, 3)
	endpoints := bcblock.Endpoints565{
		Col0: uint16(e1r)<<11 | uint16(g0)<<5 | uint16(b0),
		Col1: uint16(e1r)<<11 | uint16(g0)<<5 | uint16(b0),
	}
	// Force four-color mode (col0 > col1 required) unless this is a
	// punch-through tile; bump col1 down by perturbing blue by one step
	// when the two would otherwise tie and punch-through isn't requested.
	block := bcblock.BlockDXT1{Endpoints: endpoints}
	needsPunch := opts.AllowPunchThrough && opts.Transparent != nil && opts.Transparent[0]
	if needsPunch {
		block.Endpoints.Col1 = endpoints.Col0
		for i := 0; i < 16; i++ {
			block.SetIndex(i, 0)
		}
		return block, true
	}
	if endpoints.Col0 == endpoints.Col1 {
		if b0 > 0 {
			block.Endpoints.Col1 = uint16(e1r)<<11 | uint16(g0)<<5 | uint16(b0-1)
		} else {
			block.Endpoints.Col0 = uint16(e1r)<<11 | uint16(g0)<<5 | uint16(b0+1)
		}
	}
	if !block.FourColorMode() {
		block.Endpoints.Col0, block.Endpoints.Col1 = block.Endpoints.Col1, block.Endpoints.Col0
	}
	palette := block.Palette()
	best := 0
	bestErr := colorDist(first, palette[0])
	for i := 1; i < 4; i++ {
		if d := colorDist(first, palette[i]); d < bestErr {
			bestErr = d
			best = i
		}
	}
	for i := 0; i < 16; i++ {
		block.SetIndex(i, uint8(best))
	}
	return block, true
}

// quantizeSingleColor returns the level in [0, max] whose bit-replicated
// 8-bit expansion is closest to v, by exhaustive search over every level
// (shift is 3 for a 5-bit channel, 2 for a 6-bit one).
func quantizeSingleColor(v float64, max float64, shift uint) uint32 {
	best, bestErr := uint32(0), -1.0
	for q := uint32(0); q <= uint32(max); q++ {
		d := float64(q<<shift|q>>(8-2*shift)) - v
		if d < 0 {
			d = -d
		}
		if bestErr < 0 || d < bestErr {
			best, bestErr = q, d
		}
	}
	return best
}

func colorDist(a colorblock.Color, b colorblock.Color) float64 {
	dr := float64(a.R) - float64(b.R)
	dg := float64(a.G) - float64(b.G)
	db := float64(a.B) - float64(b.B)
	return dr*dr + dg*dg + db*db
}

// fitFast implements the bounding-box fast tier.
func fitFast(tile *colorblock.ColorBlock, opts Options) bcblock.BlockDXT1 {
	pts := tilePoints(tile)
	min := vec3{255, 255, 255}
	max := vec3{0, 0, 0}
	for _, p := range pts {
		min.x, max.x = minf(min.x, p.x), maxf(max.x, p.x)
		min.y, max.y = minf(min.y, p.y), maxf(max.y, p.y)
		min.z, max.z = minf(min.z, p.z), maxf(max.z, p.z)
	}
	// Shrink the box by 1/16 on each side to compensate for endpoint
	// extrapolation under the 1/3-2/3 interpolation rule.
	inset := max.sub(min).scale(1.0 / 16.0)
	min = min.add(inset)
	max = max.sub(inset)

	c0 := quantize565(max)
	c1 := quantize565(min)
	block := bcblock.BlockDXT1{Endpoints: bcblock.Endpoints565{Col0: c0, Col1: c1}}
	if c0 <= c1 {
		block.Endpoints.Col0, block.Endpoints.Col1 = block.Endpoints.Col1, block.Endpoints.Col0
	}
	assignNearestIndices(tile, &block, opts)
	return block
}

func minf(a, b float64) float64 {
	if a < b {
		return a
	}
	return b
}
func maxf(a, b float64) float64 {
	if a > b {
		return a
	}
	return b
}

// assignNearestIndices picks, for each texel, the palette entry minimizing
// weighted squared error, honoring the punch-through contract when active.
func assignNearestIndices(tile *colorblock.ColorBlock, block *bcblock.BlockDXT1, opts Options) {
	palette := block.Palette()
	for i := 0; i < 16; i++ {
		if opts.AllowPunchThrough && opts.Transparent != nil && opts.Transparent[i] && !block.FourColorMode() {
			block.SetIndex(i, 3)
			continue
		}
		c := tile.Color(i)
		best := 0
		bestErr := weightedDist(c, palette[0], opts.ChannelWeights)
		for j := 1; j < 4; j++ {
			if opts.AllowPunchThrough && j == 3 && block.FourColorMode() {
				continue
			}
			if d := weightedDist(c, palette[j], opts.ChannelWeights); d < bestErr {
				bestErr = d
				best = j
			}
		}
		block.SetIndex(i, uint8(best))
	}
}

func weightedDist(a, b colorblock.Color, w bcblock.ColorWeights) float64 {
	if w == (bcblock.ColorWeights{}) {
		w = bcblock.ColorWeights{1, 1, 1}
	}
	dr := float64(a.R) - float64(b.R)
	dg := float64(a.G) - float64(b.G)
	db := float64(a.B) - float64(b.B)
	return w.R*dr*dr + w.G*dg*dg + w.B*db*db
}

// computeCovariance returns the weighted centroid and the upper-triangular
// 3x3 covariance matrix [xx, xy, xz, yy, yz, zz].
func computeCovariance(pts [16]vec3, weights [16]float64) (centroid vec3, cov [6]float64) {
	var total float64
	for i, p := range pts {
		total += weights[i]
		centroid = centroid.add(p.scale(weights[i]))
	}
	if total == 0 {
		total = 1
	}
	centroid = centroid.scale(1 / total)
	for i, p := range pts {
		v := p.sub(centroid)
		w := weights[i]
		cov[0] += w * v.x * v.x
		cov[1] += w * v.x * v.y
		cov[2] += w * v.x * v.z
		cov[3] += w * v.y * v.y
		cov[4] += w * v.y * v.z
		cov[5] += w * v.z * v.z
	}
	return centroid, cov
}

// principalComponent extracts the dominant eigenvector of cov via eight
// iterations of the power method, seeded from the largest covariance row.
func principalComponent(cov [6]float64) vec3 {
	if cov[0] == 0 && cov[3] == 0 && cov[5] == 0 {
		return vec3{0, 0, 0}
	}
	row0 := vec3{cov[0], cov[1], cov[2]}
	row1 := vec3{cov[1], cov[3], cov[4]}
	row2 := vec3{cov[2], cov[4], cov[5]}
	len2 := func(v vec3) float64 { return v.x*v.x + v.y*v.y + v.z*v.z }
	v := row0
	if len2(row1) > len2(v) {
		v = row1
	}
	if len2(row2) > len2(v) {
		v = row2
	}
	for i := 0; i < 8; i++ {
		x := v.x*cov[0] + v.y*cov[1] + v.z*cov[2]
		y := v.x*cov[1] + v.y*cov[3] + v.z*cov[4]
		z := v.x*cov[2] + v.y*cov[4] + v.z*cov[5]
		norm := maxf(maxf(x, y), z)
		if norm == 0 {
			break
		}
		v = vec3{x / norm, y / norm, z / norm}
	}
	return v
}

// fitNormal implements the cluster-fit tier: project onto the principal
// axis, sort, and sweep contiguous 2/3/4-group partitions of the sorted
// texels, solving the weighted least-squares endpoint pair per partition
// and keeping the lowest-error one.
func fitNormal(tile *colorblock.ColorBlock, opts Options) bcblock.BlockDXT1 {
	pts := tilePoints(tile)
	var weights [16]float64
	for i := range weights {
		weights[i] = opts.weight(i)
	}
	centroid, cov := computeCovariance(pts, weights)
	axis := principalComponent(cov)

	order := make([]sortedPoint, 16)
	for i, p := range pts {
		d := p.sub(centroid)
		order[i] = sortedPoint{i, d.x*axis.x + d.y*axis.y + d.z*axis.z}
	}
	// insertion sort by projection (16 elements)
	for i := 1; i < 16; i++ {
		j := i
		for j > 0 && order[j-1].proj > order[j].proj {
			order[j-1], order[j] = order[j], order[j-1]
			j--
		}
	}

	best := fitFast(tile, opts)
	bestErr := float64(bcblock.BlockError(tile, best, opts.ChannelWeights))

	tryPartition := func(bounds []int) {
		// bounds has len(groups)-1 split points in [0,16]; group g covers
		// order[bounds[g-1]:bounds[g]] with alpha clusterAlphas selected
		// to span endpoints 1..0 evenly across however many groups exist.
		numGroups := len(bounds) + 1
		block, ok := solveGroups(pts, weights, order, bounds, numGroups)
		if !ok {
			return
		}
		assignNearestIndices(tile, &block, opts)
		if e := float64(bcblock.BlockError(tile, block, opts.ChannelWeights)); e < bestErr {
			bestErr = e
			best = block
		}
	}

	for i := 1; i < 16; i++ {
		tryPartition([]int{i})
	}
	for i := 1; i < 16; i++ {
		for j := i + 1; j < 16; j++ {
			tryPartition([]int{i, j})
		}
	}
	for i := 1; i < 16; i++ {
		for j := i + 1; j < 16; j++ {
			for k := j + 1; k < 16; k++ {
				tryPartition([]int{i, j, k})
			}
		}
	}
	return best
}

type sortedPoint struct {
	idx  int
	proj float64
}

// solveGroups assigns each sorted texel an alpha weight according to which
// contiguous group it falls in (evenly spanning clusterAlphas across
// numGroups groups), then solves the 2x2 normal equations of spec.md
// S4.2(a) for the optimal endpoint pair, quantizing with a 2x2x2
// neighborhood snap search.
func solveGroups(pts [16]vec3, weights [16]float64, order []sortedPoint, bounds []int, numGroups int) (bcblock.BlockDXT1, bool) {
	alphaFor := func(g int) float64 {
		// Map group index [0,numGroups) onto clusterAlphas [0,4) evenly.
		if numGroups == 1 {
			return 1
		}
		pos := float64(g) * 3.0 / float64(numGroups-1)
		return 1 - pos/3.0
	}

	var saa, sab, sbb float64
	var sax, sbx vec3
	group := 0
	for i := 0; i < 16; i++ {
		for group < len(bounds) && i >= bounds[group] {
			group++
		}
		a := alphaFor(group)
		b := 1 - a
		idx := order[i].idx
		w := weights[idx]
		p := pts[idx]
		saa += w * a * a
		sab += w * a * b
		sbb += w * b * b
		sax = sax.add(p.scale(w * a))
		sbx = sbx.add(p.scale(w * b))
	}

	det := saa*sbb - sab*sab
	if det == 0 {
		return bcblock.BlockDXT1{}, false
	}
	// Solve [saa sab; sab sbb] [A;B] = [sax; sbx] per-channel.
	solveEndpoint := func(sax, sbx float64) (float64, float64) {
		A := (sax*sbb - sbx*sab) / det
		B := (sbx*saa - sax*sab) / det
		return A, B
	}
	ar, br := solveEndpoint(sax.x, sbx.x)
	ag, bg := solveEndpoint(sax.y, sbx.y)
	ab, bb := solveEndpoint(sax.z, sbx.z)

	c0 := snapQuantize(vec3{ar, ag, ab})
	c1 := snapQuantize(vec3{br, bg, bb})
	if c0 == c1 {
		return bcblock.BlockDXT1{}, false
	}
	block := bcblock.BlockDXT1{Endpoints: bcblock.Endpoints565{Col0: c0, Col1: c1}}
	if !block.FourColorMode() {
		block.Endpoints.Col0, block.Endpoints.Col1 = block.Endpoints.Col1, block.Endpoints.Col0
	}
	return block, true
}

// snapQuantize quantizes a continuous RGB point to 5:6:5, searching the
// surrounding 2x2x2 integer neighborhood for the rounding that minimizes
// distance to the continuous target.
func snapQuantize(p vec3) uint16 {
	clamp := func(v, max float64) int {
		if v < 0 {
			v = 0
		}
		if v > max {
			v = max
		}
		return int(v)
	}
	rf := p.x / 8
	gf := p.y / 4
	bf := p.z / 8
	r0 := clamp(rf, 31)
	g0 := clamp(gf, 63)
	b0 := clamp(bf, 31)

	best := -1.0
	var bestR, bestG, bestB int
	first := true
	for dr := 0; dr <= 1; dr++ {
		r := r0 + dr
		if r > 31 {
			continue
		}
		for dg := 0; dg <= 1; dg++ {
			g := g0 + dg
			if g > 63 {
				continue
			}
			for db := 0; db <= 1; db++ {
				b := b0 + db
				if b > 31 {
					continue
				}
				rr := float64((r << 3) | (r >> 2))
				gg := float64((g << 2) | (g >> 4))
				bb := float64((b << 3) | (b >> 2))
				d := sqrf(rr-p.x) + sqrf(gg-p.y) + sqrf(bb-p.z)
				if first || d < best {
					first = false
					best = d
					bestR, bestG, bestB = r, g, b
				}
			}
		}
	}
	return uint16(bestR)<<11 | uint16(bestG)<<5 | uint16(bestB)
}

func sqrf(v float64) float64 { return v * v }

// fitHighest runs the normal tier then iteratively refines endpoints: first
// by re-solving the continuous-optimal endpoints for the currently assigned
// indices and requantizing, then by a +-1 local search over each of the six
// endpoint channels in turn, stopping at a local minimum or after eight
// rounds.
func fitHighest(tile *colorblock.ColorBlock, opts Options) bcblock.BlockDXT1 {
	block := fitNormal(tile, opts)
	bestErr := float64(bcblock.BlockError(tile, block, opts.ChannelWeights))

	for iter := 0; iter < 8; iter++ {
		improved := false

		if refined, ok := refineFromIndices(tile, block, opts); ok {
			assignNearestIndices(tile, &refined, opts)
			if e := float64(bcblock.BlockError(tile, refined, opts.ChannelWeights)); e < bestErr {
				bestErr = e
				block = refined
				improved = true
			}
		}

		if refined, ok := localSearch(tile, block, opts, bestErr); ok {
			block = refined
			bestErr = float64(bcblock.BlockError(tile, block, opts.ChannelWeights))
			improved = true
		}

		if !improved {
			break
		}
	}
	return block
}

// refineFromIndices recomputes the continuous-optimal endpoints given the
// block's currently assigned indices, per spec.md S4.2(a), and requantizes.
func refineFromIndices(tile *colorblock.ColorBlock, block bcblock.BlockDXT1, opts Options) (bcblock.BlockDXT1, bool) {
	alphaOf := func(idx uint8) float64 {
		switch idx {
		case 0:
			return 1
		case 2:
			return 2.0 / 3.0
		case 3:
			return 1.0 / 3.0
		default:
			return 0
		}
	}
	var saa, sab, sbb float64
	var sax, sbx vec3
	for i := 0; i < 16; i++ {
		c := tile.Color(i)
		p := vec3{float64(c.R), float64(c.G), float64(c.B)}
		w := opts.weight(i)
		a := alphaOf(block.Index(i))
		b := 1 - a
		saa += w * a * a
		sab += w * a * b
		sbb += w * b * b
		sax = sax.add(p.scale(w * a))
		sbx = sbx.add(p.scale(w * b))
	}
	det := saa*sbb - sab*sab
	if det == 0 {
		return bcblock.BlockDXT1{}, false
	}
	solve := func(sax, sbx float64) (float64, float64) {
		A := (sax*sbb - sbx*sab) / det
		B := (sbx*saa - sax*sab) / det
		return A, B
	}
	ar, br := solve(sax.x, sbx.x)
	ag, bg := solve(sax.y, sbx.y)
	ab, bb := solve(sax.z, sbx.z)

	c0 := snapQuantize(vec3{ar, ag, ab})
	c1 := snapQuantize(vec3{br, bg, bb})
	if c0 == c1 {
		return bcblock.BlockDXT1{}, false
	}
	out := bcblock.BlockDXT1{Endpoints: bcblock.Endpoints565{Col0: c0, Col1: c1}}
	if !out.FourColorMode() {
		out.Endpoints.Col0, out.Endpoints.Col1 = out.Endpoints.Col1, out.Endpoints.Col0
	}
	return out, true
}

// localSearch accepts any per-channel +-1 perturbation of either endpoint
// that reduces total block error, one channel at a time, one pass.
func localSearch(tile *colorblock.ColorBlock, block bcblock.BlockDXT1, opts Options, currentErr float64) (bcblock.BlockDXT1, bool) {
	improved := false
	try := func(candEndpoints bcblock.Endpoints565) {
		if candEndpoints.Col0 == candEndpoints.Col1 {
			return
		}
		cand := bcblock.BlockDXT1{Endpoints: candEndpoints}
		if !cand.FourColorMode() {
			cand.Endpoints.Col0, cand.Endpoints.Col1 = cand.Endpoints.Col1, cand.Endpoints.Col0
		}
		assignNearestIndices(tile, &cand, opts)
		if e := float64(bcblock.BlockError(tile, cand, opts.ChannelWeights)); e < currentErr {
			currentErr = e
			block = cand
			improved = true
		}
	}

	perturbChannel := func(c uint16, shift uint, max uint16, delta int) uint16 {
		v := int((c >> shift) & max)
		v += delta
		if v < 0 || v > int(max) {
			return c
		}
		return (c &^ (max << shift)) | uint16(v)<<shift
	}

	for _, delta := range []int{-1, 1} {
		try(bcblock.Endpoints565{Col0: perturbChannel(block.Endpoints.Col0, 11, 0x1f, delta), Col1: block.Endpoints.Col1})
		try(bcblock.Endpoints565{Col0: perturbChannel(block.Endpoints.Col0, 5, 0x3f, delta), Col1: block.Endpoints.Col1})
		try(bcblock.Endpoints565{Col0: perturbChannel(block.Endpoints.Col0, 0, 0x1f, delta), Col1: block.Endpoints.Col1})
		try(bcblock.Endpoints565{Col0: block.Endpoints.Col0, Col1: perturbChannel(block.Endpoints.Col1, 11, 0x1f, delta)})
		try(bcblock.Endpoints565{Col0: block.Endpoints.Col0, Col1: perturbChannel(block.Endpoints.Col1, 5, 0x3f, delta)})
		try(bcblock.Endpoints565{Col0: block.Endpoints.Col0, Col1: perturbChannel(block.Endpoints.Col1, 0, 0x1f, delta)})
	}
	return block, improved
}
