package svf

import (
	"math"
	"testing"
)

func sineRMS(f *Filter, m Mode, freq, sr float64) float64 {
	f.Reset()

	sum := 0.0
	n := int(sr / 2)

	for i := range n {
		y := f.Process(math.Sin(2*math.Pi*freq*float64(i)/sr), m)
		if i >= n/2 {
			sum += y * y
		}
	}

	return math.Sqrt(sum / float64(n-n/2))
}

func TestResponses(t *testing.T) {
	t.Parallel()

	const sr = 48000.0

	f := New(1000, 0.707, sr)
	ref := math.Sqrt(0.5)

	tests := []struct {
		mode      Mode
		freq      float64
		wantAbove bool
		bound     float64
	}{
		{Lowpass, 50, true, 0.95 * ref},
		{Lowpass, 15000, false, 0.05 * ref},
		{Highpass, 50, false, 0.05 * ref},
		{Highpass, 15000, true, 0.95 * ref},
		{Bandpass, 20, false, 0.1 * ref},
		{Notch, 1000, false, 0.05 * ref},
	}

	for _, tc := range tests {
		rms := sineRMS(f, tc.mode, tc.freq, sr)
		if tc.wantAbove && rms < tc.bound {
			t.Errorf("%s at %v Hz: rms %.4f < %.4f", tc.mode, tc.freq, rms, tc.bound)
		}

		if !tc.wantAbove && rms > tc.bound {
			t.Errorf("%s at %v Hz: rms %.4f > %.4f", tc.mode, tc.freq, rms, tc.bound)
		}
	}
}

func TestStableUnderModulation(t *testing.T) {
	t.Parallel()

	const sr = 44100.0

	f := New(100, 40, sr)
	for i := range 200000 {
		cut := 100 + 19000*(0.5+0.5*math.Sin(float64(i)*0.01))
		f.SetParams(cut, 40, sr)

		y := f.Process(math.Sin(float64(i)*0.05), Bandpass)
		if math.IsNaN(y) || math.Abs(y) > 1e3 {
			t.Fatalf("sample %d diverged: %v", i, y)
		}
	}
}

func TestClampsExtremeParams(t *testing.T) {
	t.Parallel()

	f := New(1e9, 0, 48000)
	y := f.Process(1, Lowpass)

	if math.IsNaN(y) || math.IsInf(y, 0) {
		t.Fatalf("non-finite output %v", y)
	}
}
