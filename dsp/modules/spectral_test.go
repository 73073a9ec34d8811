package modules

import (
	"errors"
	"testing"

	"github.com/cwbudde/bassforge/dsp/module"
	"github.com/cwbudde/bassforge/dsp/spectrum"
	"github.com/cwbudde/bassforge/internal/testutil"
)

func runMono(m module.Module, x []float64, block int) {
	for i := 0; i < len(x); i += block {
		m.Process(module.Context{}, module.Buffer{x[i:min(i+block, len(x))]})
	}
}

func TestSpectralNotchRemovesTone(t *testing.T) {
	t.Parallel()

	s := NewSpectral()
	s.ApplyParam("freq", 1000)
	s.ApplyParam("bandwidth", 200)
	prepared(t, s, module.Spec{SampleRate: testRate, MaxBlockSize: 512, Channels: 1})

	keep := testutil.DeterministicSine(3000, testRate, 0.5, 48000)
	notch := testutil.DeterministicSine(1000, testRate, 0.5, 48000)
	x := testutil.Sum(keep, notch)
	runMono(s, x, 512)

	tail := x[24000:]
	if got := spectrum.Amplitude(tail, 1000, testRate); got > 0.05 {
		t.Fatalf("1 kHz level after notch = %.4f", got)
	}

	if got := spectrum.Amplitude(tail, 3000, testRate); got < 0.4 {
		t.Fatalf("3 kHz level after notch = %.4f, want about 0.5", got)
	}
}

func TestSpectralMixZeroIsDelayAligned(t *testing.T) {
	t.Parallel()

	s := NewSpectral()
	s.ApplyParam("mix", 0)
	prepared(t, s, module.Spec{SampleRate: testRate, MaxBlockSize: 256, Channels: 1})

	x := testutil.DeterministicNoise(4, 0.5, 8192)
	in := append([]float64(nil), x...)
	runMono(s, x, 256)

	lat := s.Latency()
	testutil.RequireSliceNearlyEqual(t, x[lat:], in[:len(in)-lat], 1e-12)
}

func TestSpectralMorphSnapshots(t *testing.T) {
	t.Parallel()

	s := NewSpectralMorph()

	if err := s.CaptureSnapshot(0); !errors.Is(err, ErrNotPrepared) {
		t.Fatalf("CaptureSnapshot() before prepare error = %v", err)
	}

	prepared(t, s, module.Spec{SampleRate: testRate, MaxBlockSize: 256, Channels: 1})

	for _, slot := range []int{-1, MorphSnapshots} {
		if err := s.CaptureSnapshot(slot); !errors.Is(err, ErrSnapshotSlot) {
			t.Fatalf("CaptureSnapshot(%d) error = %v", slot, err)
		}
	}

	if err := s.CaptureSnapshot(1); err != nil {
		t.Fatalf("CaptureSnapshot(1) error = %v", err)
	}

	runMono(s, testutil.DeterministicSine(200, testRate, 0.5, 4096), 256)

	if !s.HasSnapshot(1) || s.HasSnapshot(2) {
		t.Fatal("only slot 1 should hold a snapshot")
	}

	dst := make([]float64, 4096)
	if n := s.Spectrum(dst); n != 512/2+1 {
		t.Fatalf("Spectrum() = %d bins, want %d", n, 512/2+1)
	}

	// A different analysis size invalidates the stored spectrum.
	s.ApplyParam("size", 3)
	if s.HasSnapshot(1) {
		t.Fatal("snapshot must not apply to another frame size")
	}
}

func TestSpectralMorphWithoutSnapshotsPassesMagnitude(t *testing.T) {
	t.Parallel()

	s := NewSpectralMorph()
	s.ApplyParam("morph", 0.5)
	prepared(t, s, module.Spec{SampleRate: testRate, MaxBlockSize: 256, Channels: 1})

	x := testutil.DeterministicSine(375, testRate, 0.5, 48000)
	runMono(s, x, 256)

	if got := spectrum.Amplitude(x[24000:], 375, testRate); got < 0.4 || got > 0.6 {
		t.Fatalf("375 Hz level = %.4f, want about 0.5", got)
	}
}
