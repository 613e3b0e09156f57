package metrics

import (
	"math"
	"testing"

	"github.com/nvtex/gotexturetools/pkg/colorblock"
)

func TestRMSZeroForIdenticalImages(t *testing.T) {
	a := colorblock.NewImage(4, 4, colorblock.OrderARGB)
	b := colorblock.NewImage(4, 4, colorblock.OrderARGB)
	for i := range a.Pixels {
		c := colorblock.Color{R: uint8(i), G: uint8(i * 2), B: uint8(i * 3), A: 255}
		a.Pixels[i], b.Pixels[i] = c, c
	}
	if got := RMS(a, b); got != 0 {
		t.Fatalf("RMS of identical images = %v, want 0", got)
	}
}

func TestRMSKnownConstantOffset(t *testing.T) {
	a := colorblock.NewImage(1, 1, colorblock.OrderARGB)
	b := colorblock.NewImage(1, 1, colorblock.OrderARGB)
	a.Set(0, 0, colorblock.Color{R: 10, G: 10, B: 10, A: 255})
	b.Set(0, 0, colorblock.Color{R: 20, G: 20, B: 20, A: 255})
	// each channel differs by 10, so mean squared error per channel = 100
	got := RMS(a, b)
	want := math.Sqrt(100)
	if math.Abs(got-want) > 1e-9 {
		t.Fatalf("RMS = %v, want %v", got, want)
	}
}

func TestRMSMismatchedSizeIsInfinite(t *testing.T) {
	a := colorblock.NewImage(2, 2, colorblock.OrderARGB)
	b := colorblock.NewImage(3, 3, colorblock.OrderARGB)
	if got := RMS(a, b); !math.IsInf(got, 1) {
		t.Fatalf("RMS of mismatched sizes = %v, want +Inf", got)
	}
}

func TestAlphaWeightedRMSIgnoresTransparentTexels(t *testing.T) {
	a := colorblock.NewImage(2, 1, colorblock.OrderARGB)
	b := colorblock.NewImage(2, 1, colorblock.OrderARGB)
	a.Set(0, 0, colorblock.Color{R: 0, G: 0, B: 0, A: 0})
	b.Set(0, 0, colorblock.Color{R: 255, G: 255, B: 255, A: 0}) // huge diff, but zero weight
	a.Set(1, 0, colorblock.Color{R: 10, G: 10, B: 10, A: 255})
	b.Set(1, 0, colorblock.Color{R: 10, G: 10, B: 10, A: 255})

	if got := AlphaWeightedRMS(a, b); got != 0 {
		t.Fatalf("AlphaWeightedRMS = %v, want 0 (transparent texel excluded)", got)
	}
}

func TestAlphaWeightedRMSFallsBackWhenFullyTransparent(t *testing.T) {
	a := colorblock.NewImage(1, 1, colorblock.OrderARGB)
	b := colorblock.NewImage(1, 1, colorblock.OrderARGB)
	a.Set(0, 0, colorblock.Color{R: 5, A: 0})
	b.Set(0, 0, colorblock.Color{R: 25, A: 0})

	got := AlphaWeightedRMS(a, b)
	want := RMS(a, b)
	if got != want {
		t.Fatalf("AlphaWeightedRMS fallback = %v, want RMS() = %v", got, want)
	}
}

func TestChannelAverage(t *testing.T) {
	img := colorblock.NewImage(2, 1, colorblock.OrderARGB)
	img.Set(0, 0, colorblock.Color{R: 10})
	img.Set(1, 0, colorblock.Color{R: 30})
	if got := ChannelAverage(img, 0); got != 20 {
		t.Fatalf("ChannelAverage(R) = %v, want 20", got)
	}
}

func TestPeakSignalToNoiseRatioPerfectMatch(t *testing.T) {
	if got := PeakSignalToNoiseRatio(0); !math.IsInf(got, 1) {
		t.Fatalf("PSNR(0) = %v, want +Inf", got)
	}
}

func TestPeakSignalToNoiseRatioDecreasesWithError(t *testing.T) {
	low := PeakSignalToNoiseRatio(1)
	high := PeakSignalToNoiseRatio(10)
	if !(low > high) {
		t.Fatalf("PSNR(1)=%v should exceed PSNR(10)=%v", low, high)
	}
}
