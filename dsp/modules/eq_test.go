package modules

import (
	"math"
	"testing"

	"github.com/cwbudde/bassforge/dsp/module"
	"github.com/cwbudde/bassforge/dsp/spectrum"
	"github.com/cwbudde/bassforge/internal/testutil"
)

func TestEQFlatByDefault(t *testing.T) {
	t.Parallel()

	e := NewEQ()
	prepared(t, e, testSpec)

	for _, f := range []float64{50, 200, 1000, 5000, 15000} {
		if got := e.MagnitudeDB(f); math.Abs(got) > 1e-6 {
			t.Fatalf("MagnitudeDB(%v) = %v, want 0", f, got)
		}
	}
}

func TestEQBands(t *testing.T) {
	t.Parallel()

	tests := []struct {
		param string
		freq  float64
	}{
		{"lowGain", 40},
		{"midGain", 1000},
		{"highGain", 16000},
	}

	for _, tt := range tests {
		e := NewEQ()
		prepared(t, e, testSpec)
		e.ApplyParam(tt.param, 6)
		e.Process(module.Context{}, module.NewBuffer(2, testBlock))

		if got := e.MagnitudeDB(tt.freq); math.Abs(got-6) > 0.5 {
			t.Fatalf("%s: MagnitudeDB(%v) = %.2f, want about 6", tt.param, tt.freq, got)
		}
	}
}

func TestEQMidFrequencyMovesPeak(t *testing.T) {
	t.Parallel()

	e := NewEQ()
	e.ApplyParam("midGain", -12)
	e.ApplyParam("midFreq", 400)
	prepared(t, e, module.Spec{SampleRate: testRate, MaxBlockSize: 4800, Channels: 1})

	x := testutil.DeterministicSine(400, testRate, 1, 4800*10)
	for i := 0; i < len(x); i += 4800 {
		e.Process(module.Context{}, module.Buffer{x[i : i+4800]})
	}

	got := spectrum.Amplitude(x[len(x)/2:], 400, testRate)
	if want := math.Pow(10, -12.0/20); math.Abs(got-want) > 0.02 {
		t.Fatalf("400 Hz level = %.4f, want %.4f", got, want)
	}
}
