// Package dispatch tiles an image into 4x4 blocks and drives a block
// encoder over them, sequentially or across a worker pool, per spec.md
// S4.5. The Ordered path reuses the teacher's ordered-futures idiom
// (pkg/manifest/repack.go): a channel of per-block result channels bounds
// how far the producer can run ahead of the consumer while still letting
// blocks complete out of order and be collected back in row-major order.
//
// Grounded on nvtt/TaskDispatcher.h's Dispatcher/Task interface shape.
package dispatch

import (
	"runtime"
	"sync"

	"github.com/nvtex/gotexturetools/pkg/bcenc"
	"github.com/nvtex/gotexturetools/pkg/colorblock"
)

// Dispatcher runs one BlockFunc invocation per 4x4 tile of an image whose
// dimensions need not be multiples of four (edge tiles are clamp-extended by
// colorblock.NewColorBlockFromImage).
type Dispatcher interface {
	Run(img *colorblock.Image, encoder bcenc.Encoder, opts bcenc.Options) []byte
}

// blocksAcross returns the number of 4x4 tiles needed to cover n texels.
func blocksAcross(n int) int {
	return (n + 3) / 4
}

// Sequential runs block compression on the calling goroutine, in row-major
// order. It is the single-threaded baseline the dispatcher tests compare
// Pool and Ordered output against; pipeline.Compress always uses Pool.
type Sequential struct{}

func (Sequential) Run(img *colorblock.Image, encoder bcenc.Encoder, opts bcenc.Options) []byte {
	bw, bh := blocksAcross(img.Width), blocksAcross(img.Height)
	blockSize := encoder.BlockSize()
	out := make([]byte, bw*bh*blockSize)
	for by := 0; by < bh; by++ {
		for bx := 0; bx < bw; bx++ {
			tile := colorblock.NewColorBlockFromImage(img, bx*4, by*4)
			idx := by*bw + bx
			encoder.CompressBlock(tile, opts, out[idx*blockSize:(idx+1)*blockSize])
		}
	}
	return out
}

// Pool runs block compression across a bounded worker pool. Workers is the
// number of concurrent goroutines; zero selects runtime.NumCPU(). Block
// order in the output is always row-major, independent of completion order.
type Pool struct {
	Workers int
}

func (p Pool) Run(img *colorblock.Image, encoder bcenc.Encoder, opts bcenc.Options) []byte {
	workers := p.Workers
	if workers <= 0 {
		workers = runtime.NumCPU()
	}
	bw, bh := blocksAcross(img.Width), blocksAcross(img.Height)
	blockSize := encoder.BlockSize()
	total := bw * bh
	out := make([]byte, total*blockSize)

	type job struct {
		index int
		tile  *colorblock.ColorBlock
	}
	jobs := make(chan job, workers*4)

	var wg sync.WaitGroup
	wg.Add(workers)
	for w := 0; w < workers; w++ {
		go func() {
			defer wg.Done()
			for j := range jobs {
				encoder.CompressBlock(j.tile, opts, out[j.index*blockSize:(j.index+1)*blockSize])
			}
		}()
	}

	for by := 0; by < bh; by++ {
		for bx := 0; bx < bw; bx++ {
			idx := by*bw + bx
			jobs <- job{index: idx, tile: colorblock.NewColorBlockFromImage(img, bx*4, by*4)}
		}
	}
	close(jobs)
	wg.Wait()
	return out
}

// blockResult is one tile's encoded bytes, tagged with its row-major index
// so the ordered collector below can place it regardless of completion
// order.
type blockResult struct {
	index int
	data  []byte
}

// Ordered runs block compression with bounded lookahead using the
// channel-of-channels idiom: the producer goroutine launches one encode
// goroutine per tile but only after reserving its result slot in
// futureResults, so the consumer drains results in strict row-major order
// while at most lookahead+1 tiles are in flight at once (lookahead queued
// plus the one the consumer is waiting on). This trades the
// Pool's raw throughput for a bounded, predictable memory footprint,
// useful when encoder.CompressBlock itself is expensive (Highest tier).
type Ordered struct {
	Lookahead int
}

func (o Ordered) Run(img *colorblock.Image, encoder bcenc.Encoder, opts bcenc.Options) []byte {
	lookahead := o.Lookahead
	if lookahead <= 0 {
		lookahead = runtime.NumCPU() * 4
	}
	bw, bh := blocksAcross(img.Width), blocksAcross(img.Height)
	blockSize := encoder.BlockSize()
	total := bw * bh
	out := make([]byte, total*blockSize)

	futureResults := make(chan chan blockResult, lookahead)

	go func() {
		defer close(futureResults)
		for by := 0; by < bh; by++ {
			for bx := 0; bx < bw; bx++ {
				idx := by*bw + bx
				resultChan := make(chan blockResult, 1)
				futureResults <- resultChan

				go func(idx, bx, by int, ch chan blockResult) {
					tile := colorblock.NewColorBlockFromImage(img, bx*4, by*4)
					buf := make([]byte, blockSize)
					encoder.CompressBlock(tile, opts, buf)
					ch <- blockResult{index: idx, data: buf}
				}(idx, bx, by, resultChan)
			}
		}
	}()

	for resultChan := range futureResults {
		res := <-resultChan
		copy(out[res.index*blockSize:(res.index+1)*blockSize], res.data)
	}
	return out
}
