package design

import (
	"math"
	"testing"

	"github.com/cwbudde/bassforge/dsp/filter/biquad"
)

const sr = 48000.0

func magDB(c biquad.Coefficients, f float64) float64 {
	return c.MagnitudeDB(f, sr)
}

func TestSecondOrderShapes(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name        string
		c           biquad.Coefficients
		low, centre float64
		high        float64
		check       func(low, centre, high float64) bool
	}{
		{
			name: "lowpass", c: Lowpass(1000, DefaultQ, sr),
			check: func(l, c, h float64) bool { return math.Abs(l) < 0.1 && math.Abs(c+3.01) < 0.05 && h < -30 },
		},
		{
			name: "highpass", c: Highpass(1000, DefaultQ, sr),
			check: func(l, c, h float64) bool { return l < -30 && math.Abs(c+3.01) < 0.05 && math.Abs(h) < 0.1 },
		},
		{
			name: "bandpass", c: Bandpass(1000, 2, sr),
			check: func(l, c, h float64) bool { return l < -20 && math.Abs(c) < 0.01 && h < -20 },
		},
		{
			name: "notch", c: Notch(1000, 2, sr),
			check: func(l, c, h float64) bool { return math.Abs(l) < 0.1 && c < -60 && math.Abs(h) < 0.1 },
		},
		{
			name: "allpass", c: Allpass(1000, 2, sr),
			check: func(l, c, h float64) bool { return math.Abs(l) < 1e-9 && math.Abs(c) < 1e-9 && math.Abs(h) < 1e-9 },
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			l, c, h := magDB(tc.c, 20), magDB(tc.c, 1000), magDB(tc.c, 20000)
			if !tc.check(l, c, h) {
				t.Fatalf("unexpected response low=%.2f centre=%.2f high=%.2f", l, c, h)
			}

			if !tc.c.IsStable() {
				t.Fatalf("unstable coefficients %+v", tc.c)
			}
		})
	}
}

func TestEQDesigners(t *testing.T) {
	t.Parallel()

	if g := magDB(Peak(500, 6, 1, sr), 500); math.Abs(g-6) > 0.01 {
		t.Fatalf("peak gain at centre %.3f, want 6", g)
	}

	if g := magDB(Peak(500, -9, 1, sr), 500); math.Abs(g+9) > 0.01 {
		t.Fatalf("peak cut at centre %.3f, want -9", g)
	}

	if g := magDB(LowShelf(200, 6, DefaultQ, sr), 10); math.Abs(g-6) > 0.1 {
		t.Fatalf("low shelf plateau %.3f, want 6", g)
	}

	if g := magDB(HighShelf(4000, -6, DefaultQ, sr), 20000); math.Abs(g+6) > 0.3 {
		t.Fatalf("high shelf plateau %.3f, want -6", g)
	}

	if g := magDB(Peak(500, 0, 1, sr), 1234); math.Abs(g) > 1e-9 {
		t.Fatalf("0 dB peak should be flat, got %.3g", g)
	}
}

func TestInvalidInputsYieldZero(t *testing.T) {
	t.Parallel()

	for _, c := range []biquad.Coefficients{
		Lowpass(0, 1, sr),
		Highpass(30000, 1, sr),
		Bandpass(100, 1, 0),
		Peak(math.NaN(), 3, 1, sr),
	} {
		if c != (biquad.Coefficients{}) {
			t.Fatalf("expected zero coefficients, got %+v", c)
		}
	}

	// Non-positive Q falls back to the Butterworth value.
	if Lowpass(1000, -1, sr) != Lowpass(1000, DefaultQ, sr) {
		t.Fatal("invalid Q should fall back to DefaultQ")
	}
}

func TestButterworthCascades(t *testing.T) {
	t.Parallel()

	for order := 1; order <= 6; order++ {
		lp := biquad.NewChain(ButterworthLP(2000, order, sr))

		if lp.NumSections() != (order+1)/2 {
			t.Fatalf("order %d: %d sections", order, lp.NumSections())
		}

		if g := lp.MagnitudeDB(2000, sr); math.Abs(g+3.01) > 0.05 {
			t.Fatalf("order %d LP: %.3f dB at cutoff", order, g)
		}
	}

	if ButterworthLP(1000, 0, sr) != nil {
		t.Fatal("order 0 should return nil")
	}
}

func TestAppendButterworthLPReusesStorage(t *testing.T) {
	buf := make([]biquad.Coefficients, 0, 2)

	allocs := testing.AllocsPerRun(20, func() {
		buf = AppendButterworthLP(buf[:0], 3000, 4, sr)
	})

	if allocs != 0 {
		t.Fatalf("AppendButterworthLP allocated %.0f times", allocs)
	}

	want := ButterworthLP(3000, 4, sr)
	for i := range want {
		if buf[i] != want[i] {
			t.Fatalf("section %d = %+v, want %+v", i, buf[i], want[i])
		}
	}
}
