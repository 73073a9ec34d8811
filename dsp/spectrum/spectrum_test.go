package spectrum

import (
	"math"
	"testing"
)

func TestScratchMagnitudes(t *testing.T) {
	t.Parallel()

	s := NewScratch(4)
	dst := make([]float64, 8)

	n := s.Magnitudes(dst, []complex128{3 + 4i, -1, 2i, 0, 5})
	if n != 4 {
		t.Fatalf("wrote %d, want 4", n)
	}

	want := []float64{5, 1, 2, 0}
	for i, w := range want {
		if math.Abs(dst[i]-w) > 1e-12 {
			t.Fatalf("dst[%d]=%v, want %v", i, dst[i], w)
		}
	}
}

func TestLevels(t *testing.T) {
	t.Parallel()

	x := []float64{1, -3, 2, 0}
	if Peak(x) != 3 {
		t.Fatalf("peak %v", Peak(x))
	}

	if e := Energy(x); e != 14 {
		t.Fatalf("energy %v", e)
	}

	if r := RMS(x); math.Abs(r-math.Sqrt(3.5)) > 1e-12 {
		t.Fatalf("rms %v", r)
	}

	if Peak(nil) != 0 || RMS(nil) != 0 {
		t.Fatal("empty input should read zero")
	}
}
