package colorspace

import (
	"math"
	"testing"

	"github.com/nvtex/gotexturetools/pkg/colorblock"
)

func almostEqual(a, b, tol float64) bool {
	return math.Abs(a-b) <= tol
}

func TestLinearizeEncodeRoundTrip(t *testing.T) {
	fi := colorblock.NewFloatImage(1, 1, 4)
	fi.Set(0, 0, 0, 0.5)
	fi.Set(1, 0, 0, 0.25)
	fi.Set(2, 0, 0, 0.75)
	fi.Set(3, 0, 0, 1.0)

	Linearize(fi, 2.2)
	Encode(fi, 2.2)

	if !almostEqual(float64(fi.At(0, 0, 0)), 0.5, 1e-5) {
		t.Fatalf("R round trip = %v, want ~0.5", fi.At(0, 0, 0))
	}
	if !almostEqual(float64(fi.At(3, 0, 0)), 1.0, 1e-5) {
		t.Fatalf("alpha should be untouched, got %v", fi.At(3, 0, 0))
	}
}

func TestGammaOneIsNoOp(t *testing.T) {
	fi := colorblock.NewFloatImage(1, 1, 4)
	fi.Set(0, 0, 0, 0.33)
	Linearize(fi, 1)
	if fi.At(0, 0, 0) != 0.33 {
		t.Fatalf("gamma=1 should be a no-op, got %v", fi.At(0, 0, 0))
	}
}

func TestYCoCgRoundTrip(t *testing.T) {
	fi := colorblock.NewFloatImage(1, 1, 4)
	fi.Set(0, 0, 0, 0.8)
	fi.Set(1, 0, 0, 0.2)
	fi.Set(2, 0, 0, 0.4)

	ToYCoCg(fi)
	FromYCoCg(fi)

	if !almostEqual(float64(fi.At(0, 0, 0)), 0.8, 1e-5) ||
		!almostEqual(float64(fi.At(1, 0, 0)), 0.2, 1e-5) ||
		!almostEqual(float64(fi.At(2, 0, 0)), 0.4, 1e-5) {
		t.Fatalf("YCoCg round trip = (%v,%v,%v), want (0.8,0.2,0.4)",
			fi.At(0, 0, 0), fi.At(1, 0, 0), fi.At(2, 0, 0))
	}
}

func TestScaledYCoCgRoundTrip(t *testing.T) {
	fi := colorblock.NewFloatImage(1, 1, 4)
	fi.Set(0, 0, 0, 0.9)
	fi.Set(1, 0, 0, 0.1)
	fi.Set(2, 0, 0, 0.6)

	ToScaledYCoCg(fi)
	co, cg := fi.At(1, 0, 0), fi.At(2, 0, 0)
	if co < 0 || co > 1 || cg < 0 || cg > 1 {
		t.Fatalf("scaled chroma out of [0,1]: co=%v cg=%v", co, cg)
	}
	FromScaledYCoCg(fi)
	if !almostEqual(float64(fi.At(0, 0, 0)), 0.9, 1e-4) ||
		!almostEqual(float64(fi.At(1, 0, 0)), 0.1, 1e-4) ||
		!almostEqual(float64(fi.At(2, 0, 0)), 0.6, 1e-4) {
		t.Fatalf("scaled YCoCg round trip = (%v,%v,%v), want (0.9,0.1,0.6)",
			fi.At(0, 0, 0), fi.At(1, 0, 0), fi.At(2, 0, 0))
	}
}

func TestApplyLinearIdentity(t *testing.T) {
	fi := colorblock.NewFloatImage(1, 1, 4)
	fi.Set(0, 0, 0, 0.1)
	fi.Set(1, 0, 0, 0.2)
	fi.Set(2, 0, 0, 0.3)
	fi.Set(3, 0, 0, 0.4)

	ApplyLinear(fi, Identity4())

	if fi.At(0, 0, 0) != 0.1 || fi.At(1, 0, 0) != 0.2 || fi.At(2, 0, 0) != 0.3 || fi.At(3, 0, 0) != 0.4 {
		t.Fatalf("identity matrix changed values: %v %v %v %v",
			fi.At(0, 0, 0), fi.At(1, 0, 0), fi.At(2, 0, 0), fi.At(3, 0, 0))
	}
}

func TestApplySwizzleSwapsChannels(t *testing.T) {
	fi := colorblock.NewFloatImage(1, 1, 4)
	fi.Set(0, 0, 0, 0.1) // R
	fi.Set(1, 0, 0, 0.2) // G
	fi.Set(2, 0, 0, 0.3) // B
	fi.Set(3, 0, 0, 0.4) // A

	ApplySwizzle(fi, 2, 1, 0, 3) // R<-B, G<-G, B<-R, A<-A

	if fi.At(0, 0, 0) != 0.3 || fi.At(1, 0, 0) != 0.2 || fi.At(2, 0, 0) != 0.1 || fi.At(3, 0, 0) != 0.4 {
		t.Fatalf("swizzled = %v %v %v %v, want 0.3 0.2 0.1 0.4",
			fi.At(0, 0, 0), fi.At(1, 0, 0), fi.At(2, 0, 0), fi.At(3, 0, 0))
	}
}

func TestRenormalizeNormalMapUnitLength(t *testing.T) {
	fi := colorblock.NewFloatImage(1, 1, 4)
	fi.Set(0, 0, 0, 0.9) // x skewed, not unit length once decoded
	fi.Set(1, 0, 0, 0.6)
	fi.Set(2, 0, 0, 0.8)

	RenormalizeNormalMap(fi)

	x := float64(fi.At(0, 0, 0))*2 - 1
	y := float64(fi.At(1, 0, 0))*2 - 1
	z := float64(fi.At(2, 0, 0))*2 - 1
	length := math.Sqrt(x*x + y*y + z*z)
	if !almostEqual(length, 1.0, 1e-4) {
		t.Fatalf("renormalized vector length = %v, want 1.0", length)
	}
}
