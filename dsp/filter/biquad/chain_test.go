package biquad

import "testing"

func TestChainMatchesManualCascade(t *testing.T) {
	t.Parallel()

	first := smoothing()
	second := Coefficients{B0: 0.5, B1: -0.5, A1: -0.5}

	c := NewChain([]Coefficients{first, second}, WithGain(2))
	s1 := NewSection(first)
	s2 := NewSection(second)

	for i, x := range []float64{1, 0, 0.5, -0.25, 0} {
		want := s2.ProcessSample(s1.ProcessSample(2 * x))
		if got := c.ProcessSample(x); !almostEqual(got, want, eps) {
			t.Fatalf("sample %d: got %v, want %v", i, got, want)
		}
	}
}

func TestChainProcessBlockMatchesSample(t *testing.T) {
	t.Parallel()

	coeffs := []Coefficients{smoothing(), smoothing()}
	a := NewChain(coeffs, WithGain(0.5))
	b := NewChain(coeffs, WithGain(0.5))

	buf := []float64{1, -1, 0.5, 0.25, 0, 0, 0.75}
	want := make([]float64, len(buf))
	for i, x := range buf {
		want[i] = a.ProcessSample(x)
	}

	b.ProcessBlock(buf)
	for i := range buf {
		if !almostEqual(buf[i], want[i], eps) {
			t.Fatalf("sample %d: got %v, want %v", i, buf[i], want[i])
		}
	}
}

func TestChainUpdateCoefficientsKeepsState(t *testing.T) {
	t.Parallel()

	c := NewChain([]Coefficients{smoothing()})
	c.ProcessSample(1)
	before := c.Section(0).State()

	c.UpdateCoefficients([]Coefficients{Identity()}, 1)
	if c.Section(0).State() != before {
		t.Fatal("state should survive same-size update")
	}

	c.UpdateCoefficients([]Coefficients{Identity(), Identity()}, 3)
	if c.NumSections() != 2 || c.Gain() != 3 {
		t.Fatalf("sections=%d gain=%v", c.NumSections(), c.Gain())
	}

	if c.Section(0).State() != [2]float64{} {
		t.Fatal("resized chain should start from zero state")
	}
}

func TestChainLongRunStaysBounded(t *testing.T) {
	t.Parallel()

	c := NewChain([]Coefficients{smoothing(), smoothing(), smoothing()})
	for i := range 100000 {
		x := 0.0
		if i%100 == 0 {
			x = 1
		}

		if y := c.ProcessSample(x); y > 10 || y < -10 {
			t.Fatalf("sample %d diverged: %v", i, y)
		}
	}
}
