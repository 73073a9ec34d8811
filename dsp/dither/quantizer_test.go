package dither

import (
	"math"
	"testing"

	"github.com/cwbudde/bassforge/internal/testutil"
)

func TestNewQuantizerValidation(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		sr   float64
		opts []Option
	}{
		{"zero sr", 0, nil},
		{"NaN sr", math.NaN(), nil},
		{"Inf sr", math.Inf(1), nil},
		{"low bit depth", 44100, []Option{WithBitDepth(4)}},
		{"high bit depth", 44100, []Option{WithBitDepth(33)}},
		{"bad type", 44100, []Option{WithType(Type(9))}},
		{"negative amplitude", 44100, []Option{WithAmplitude(-1)}},
		{"shelf above nyquist", 44100, []Option{WithShelf(30000)}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			if _, err := NewQuantizer(tt.sr, tt.opts...); err == nil {
				t.Fatal("expected error")
			}
		})
	}
}

func TestQuantizerDefaults(t *testing.T) {
	t.Parallel()

	q, err := NewQuantizer(48000, nil)
	if err != nil {
		t.Fatal(err)
	}

	if q.BitDepth() != 16 || q.Type() != Triangular {
		t.Fatalf("defaults = %d bit %v", q.BitDepth(), q.Type())
	}

	if q.Scale() != 32767 {
		t.Fatalf("Scale() = %v", q.Scale())
	}
}

func TestQuantizerWithoutDitherRounds(t *testing.T) {
	t.Parallel()

	q, err := NewQuantizer(48000, WithType(None))
	if err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		in   float64
		want int
	}{
		{0, 0},
		{1, 32767},
		{-1, -32767},
		{0.5, 16384},
		{2, 32767},
		{-2, -32768},
		{math.NaN(), 0},
	}

	for _, tt := range tests {
		if got := q.Quantize(tt.in); got != tt.want {
			t.Fatalf("Quantize(%v) = %d, want %d", tt.in, got, tt.want)
		}
	}

	if q.Clips() != 2 {
		t.Fatalf("Clips() = %d, want 2", q.Clips())
	}

	q.Reset()

	if q.Clips() != 0 {
		t.Fatal("Reset kept the clip counter")
	}
}

func TestQuantizerTPDFIsUnbiasedAndBounded(t *testing.T) {
	t.Parallel()

	q, err := NewQuantizer(48000, WithSeed(7))
	if err != nil {
		t.Fatal(err)
	}

	const n = 20000

	in := 0.25 / q.Scale()
	sum := 0

	for range n {
		v := q.Quantize(in)
		if v < -1 || v > 2 {
			t.Fatalf("TPDF output %d outside ±1 LSB of input", v)
		}

		sum += v
	}

	if mean := float64(sum) / n; math.Abs(mean-0.25) > 0.02 {
		t.Fatalf("mean = %v, want 0.25", mean)
	}
}

func TestQuantizerSeedIsReproducible(t *testing.T) {
	t.Parallel()

	src := testutil.DeterministicNoise(3, 0.5, 512)

	run := func() []int {
		q, err := NewQuantizer(48000, WithSeed(11), WithShelf(4000), WithBitDepth(24))
		if err != nil {
			t.Fatal(err)
		}

		dst := make([]int, len(src))
		q.QuantizeBlock(dst, src)

		return dst
	}

	a, b := run(), run()
	for i := range a {
		if a[i] != b[i] {
			t.Fatalf("sample %d differs: %d vs %d", i, a[i], b[i])
		}
	}
}

func TestQuantizerShelfTracksInput(t *testing.T) {
	t.Parallel()

	q, err := NewQuantizer(48000, WithSeed(1), WithShelf(2000), WithBitDepth(8))
	if err != nil {
		t.Fatal(err)
	}

	src := testutil.DeterministicSine(100, 48000, 0.5, 4800)
	dst := make([]int, len(src))
	q.QuantizeBlock(dst, src)

	for i, v := range dst {
		if d := math.Abs(float64(v)/q.Scale() - src[i]); d > 0.1 {
			t.Fatalf("sample %d off by %v", i, d)
		}
	}
}

func TestParseType(t *testing.T) {
	t.Parallel()

	for typ := None; typ < typeCount; typ++ {
		got, err := ParseType(typ.String())
		if err != nil || got != typ {
			t.Fatalf("ParseType(%q) = %v, %v", typ.String(), got, err)
		}
	}

	if got, _ := ParseType("Triangular"); got != Triangular {
		t.Fatal("long form not accepted")
	}

	if _, err := ParseType("blue"); err == nil {
		t.Fatal("unknown type accepted")
	}
}
