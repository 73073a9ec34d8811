package modules

import (
	"math"
	"testing"

	"github.com/cwbudde/bassforge/dsp/module"
	"github.com/cwbudde/bassforge/internal/testutil"
)

func TestBitCrusherFullDepthIsBitExact(t *testing.T) {
	t.Parallel()

	b := NewBitCrusher()
	b.ApplyParam("bits", 16)
	b.ApplyParam("rate", 1)
	b.ApplyParam("filterCutoff", 1000)
	prepared(t, b, testSpec)

	for block := range 4 {
		buf := noiseBlock(int64(block), 0.9)
		want := noiseBlock(int64(block), 0.9)
		b.Process(module.Context{}, buf)

		for ch := range buf {
			for i := range buf[ch] {
				if buf[ch][i] != want[ch][i] {
					t.Fatalf("ch %d sample %d: got %v, want %v", ch, i, buf[ch][i], want[ch][i])
				}
			}
		}
	}
}

func TestBitCrusherOneBitGrid(t *testing.T) {
	t.Parallel()

	b := NewBitCrusher()
	b.ApplyParam("bits", 1)
	prepared(t, b, testSpec)

	buf := noiseBlock(7, 0.5)
	b.Process(module.Context{}, buf)

	for ch := range buf {
		for i, v := range buf[ch] {
			if v != -1 && v != 0 && v != 1 {
				t.Fatalf("ch %d sample %d: %v not in {-1, 0, 1}", ch, i, v)
			}
		}
	}
}

func TestBitCrusherGrid(t *testing.T) {
	t.Parallel()

	b := NewBitCrusher()
	b.ApplyParam("bits", 8)
	prepared(t, b, testSpec)

	buf := noiseBlock(11, 0.5)
	b.Process(module.Context{}, buf)

	for i, v := range buf[0] {
		steps := v * 128
		if math.Abs(steps-math.Round(steps)) > 1e-9 {
			t.Fatalf("sample %d: %v is off the 8-bit grid", i, v)
		}
	}
}

func TestBitCrusherRateHoldsSamples(t *testing.T) {
	t.Parallel()

	b := NewBitCrusher()
	b.ApplyParam("bits", 16)
	b.ApplyParam("rate", 0.25)
	prepared(t, b, module.Spec{SampleRate: testRate, MaxBlockSize: 256, Channels: 1})

	buf := module.Buffer{testutil.DeterministicNoise(2, 0.5, 256)}
	b.Process(module.Context{}, buf)

	changes := 0
	for i := 1; i < len(buf[0]); i++ {
		if buf[0][i] != buf[0][i-1] {
			changes++
		}
	}

	if changes > 256/4+1 {
		t.Fatalf("got %d value changes at quarter rate", changes)
	}
}

func TestQuantize(t *testing.T) {
	t.Parallel()

	tests := []struct {
		x, bits, want float64
	}{
		{0.3, 0, 0},
		{0.6, 0, 1},
		{-0.6, 0, -1},
		{0.3, 1, 0.5},
		{0.126, 3, 0.125},
	}

	for _, tt := range tests {
		if got := quantize(tt.x, tt.bits); got != tt.want {
			t.Fatalf("quantize(%v, %v) = %v, want %v", tt.x, tt.bits, got, tt.want)
		}
	}
}
