package testutil

import "testing"

func TestDeterministicSignals(t *testing.T) {
	t.Parallel()

	a := DeterministicNoise(42, 0.5, 64)
	b := DeterministicNoise(42, 0.5, 64)
	RequireSliceNearlyEqual(t, a, b, 0)
	RequireBounded(t, a, 0.5)

	s := DeterministicSine(12000, 48000, 1, 4)
	RequireSliceNearlyEqual(t, s, []float64{0, 1, 0, -1}, 1e-12)
}

func TestBuilders(t *testing.T) {
	t.Parallel()

	sum := Sum([]float64{1, 2}, []float64{1, 1, 1})
	RequireSliceNearlyEqual(t, sum, []float64{2, 3, 1}, 0)

	imp := Impulse(4, 2)
	if imp[2] != 1 || Energy(imp) != 1 {
		t.Fatalf("impulse %v", imp)
	}

	src := []float64{1, 2}
	d := Duplicate(src, 2)
	d[0][0] = 9

	if src[0] != 1 || d[1][0] != 1 {
		t.Fatal("Duplicate must copy each channel")
	}

	p := Planar(src, DC(3, 2))
	if len(p) != 2 || p[1][1] != 3 {
		t.Fatalf("planar %v", p)
	}
}
