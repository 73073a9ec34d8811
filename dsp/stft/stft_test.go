package stft

import (
	"errors"
	"math"
	"math/rand"
	"testing"
)

func noise(seed int64, n int) []float64 {
	rng := rand.New(rand.NewSource(seed))
	out := make([]float64, n)

	for i := range out {
		out[i] = rng.Float64()*2 - 1
	}

	return out
}

func runBlocks(e *Engine, in []float64, block int, fp FrameProcessor) []float64 {
	out := append([]float64(nil), in...)
	for start := 0; start < len(out); start += block {
		end := min(start+block, len(out))
		e.ProcessBlock(out[start:end], fp)
	}

	return out
}

func TestIdentityReconstruction(t *testing.T) {
	t.Parallel()

	for _, tc := range []struct{ size, hop, block int }{
		{2048, 512, 100},
		{256, 64, 64},
		{512, 128, 37},
	} {
		e, err := New(WithSize(tc.size), WithHop(tc.hop))
		if err != nil {
			t.Fatalf("New(%d, %d): %v", tc.size, tc.hop, err)
		}

		in := noise(7, 4*tc.size+333)
		out := runBlocks(e, in, tc.block, nil)
		lat := e.Latency()

		for i := range lat {
			if math.Abs(out[i]) > 1e-12 {
				t.Fatalf("size %d: sample %d before latency = %v", tc.size, i, out[i])
			}
		}

		for i := lat; i < len(out); i++ {
			if d := math.Abs(out[i] - in[i-lat]); d > 1e-9 {
				t.Fatalf("size %d: sample %d differs by %g", tc.size, i, d)
			}
		}

		if e.Errors() != 0 {
			t.Fatalf("unexpected FFT errors: %d", e.Errors())
		}
	}
}

func TestZeroingProcessorSilences(t *testing.T) {
	t.Parallel()

	e, err := New()
	if err != nil {
		t.Fatal(err)
	}

	zero := FrameFunc(func(bins []complex128) {
		if len(bins) != e.Bins() {
			t.Errorf("got %d bins, want %d", len(bins), e.Bins())
		}

		clear(bins)
	})

	out := runBlocks(e, noise(3, 8192), 512, zero)
	for i, v := range out {
		if v != 0 {
			t.Fatalf("sample %d = %v, want silence", i, v)
		}
	}
}

func TestResetClearsHistory(t *testing.T) {
	t.Parallel()

	e, err := New(WithSize(256), WithHop(64))
	if err != nil {
		t.Fatal(err)
	}

	runBlocks(e, noise(1, 1000), 128, nil)
	e.Reset()

	out := runBlocks(e, make([]float64, 1000), 128, nil)
	for i, v := range out {
		if v != 0 {
			t.Fatalf("sample %d = %v after reset", i, v)
		}
	}
}

func TestInvalidConfig(t *testing.T) {
	t.Parallel()

	for _, opts := range [][]Option{
		{WithSize(1000)},
		{WithSize(32)},
		{WithHop(0)},
		{WithSize(256), WithHop(512)},
	} {
		if _, err := New(opts...); !errors.Is(err, ErrConfig) {
			t.Fatalf("expected ErrConfig, got %v", err)
		}
	}
}

func TestBinFrequency(t *testing.T) {
	t.Parallel()

	e, err := New()
	if err != nil {
		t.Fatal(err)
	}

	if f := e.BinFrequency(64, 48000); math.Abs(f-1500) > 1e-9 {
		t.Fatalf("bin 64 at %v Hz, want 1500", f)
	}
}
