package onepole

import (
	"math"
	"testing"
)

func TestLowPassConvergesToDC(t *testing.T) {
	t.Parallel()

	var f LowPass
	f.Configure(100, 48000)

	y := 0.0
	for range 48000 {
		y = f.Process(1)
	}

	if math.Abs(y-1) > 1e-9 {
		t.Fatalf("dc output %v, want 1", y)
	}

	f.Reset()
	if f.Value() != 0 {
		t.Fatal("reset should clear state")
	}
}

func TestLowPassDisabledPassesThrough(t *testing.T) {
	t.Parallel()

	var f LowPass
	f.Configure(0, 48000)

	if y := f.Process(0.75); y != 0.75 {
		t.Fatalf("got %v, want passthrough", y)
	}
}

func TestLowPassAttenuatesHighFrequency(t *testing.T) {
	t.Parallel()

	var f LowPass
	f.Configure(200, 48000)

	peak := 0.0
	for i := range 4800 {
		y := f.Process(math.Sin(2 * math.Pi * 10000 * float64(i) / 48000))
		if i > 2400 {
			peak = math.Max(peak, math.Abs(y))
		}
	}

	if peak > 0.05 {
		t.Fatalf("10 kHz peak %v through a 200 Hz low-pass", peak)
	}
}

func TestHighPassRemovesDC(t *testing.T) {
	t.Parallel()

	var f HighPass
	f.Configure(50, 48000)

	y := 1.0
	for range 48000 {
		y = f.Process(1)
	}

	if math.Abs(y) > 1e-6 {
		t.Fatalf("dc residue %v", y)
	}
}

func TestSmootherReachesTarget(t *testing.T) {
	t.Parallel()

	s := NewSmoother(0.01, 48000, 0)
	s.SetTarget(1)

	if !s.IsSmoothing() {
		t.Fatal("expected smoothing after target change")
	}

	v := s.Advance(480)
	if v < 0.98 || v > 1 {
		t.Fatalf("after 10 ms value=%v, want ~0.99", v)
	}

	s.Advance(48000)
	if s.IsSmoothing() || s.Value() != 1 {
		t.Fatalf("smoother did not settle: %v", s.Value())
	}
}

func TestSmootherSnapAndZeroTime(t *testing.T) {
	t.Parallel()

	s := NewSmoother(0, 48000, 3)
	s.SetTarget(5)

	if v := s.Next(); v != 5 {
		t.Fatalf("zero-time smoother should jump, got %v", v)
	}

	s.Snap(-2)
	if s.Value() != -2 || s.Target() != -2 {
		t.Fatal("snap should set value and target")
	}
}

func TestEnvelopeAttackFasterThanRelease(t *testing.T) {
	t.Parallel()

	e := NewEnvelope(0.01, 0.1, 48000)
	for range 480 {
		e.Process(1)
	}

	up := e.Level()
	if up < 0.6 {
		t.Fatalf("attack level %v after one time constant", up)
	}

	for range 480 {
		e.Process(0)
	}

	if down := e.Level(); down < 0.5*up {
		t.Fatalf("release too fast: %v -> %v", up, down)
	}

	e.Reset()
	if e.Level() != 0 {
		t.Fatal("reset should clear envelope")
	}
}
