package effectchain

import (
	"bytes"
	"math"
	"strings"
	"testing"

	"github.com/cwbudde/bassforge/dsp/module"
	"github.com/cwbudde/bassforge/internal/testutil"
)

func TestParseRouting(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in      string
		want    Routing
		wantErr bool
	}{
		{"serial", RoutingSerial, false},
		{"Parallel", RoutingParallel, false},
		{"midside", RoutingMidSide, false},
		{"mid-side", RoutingMidSide, false},
		{" feedback ", RoutingFeedback, false},
		{"ring", RoutingSerial, true},
		{"", RoutingSerial, true},
	}

	for _, tt := range tests {
		got, err := ParseRouting(tt.in)
		if (err != nil) != tt.wantErr {
			t.Fatalf("ParseRouting(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
		}

		if got != tt.want {
			t.Fatalf("ParseRouting(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}

	if s := Routing(9).String(); s != "Routing(9)" {
		t.Fatalf("String() = %q", s)
	}

	for r := RoutingSerial; r < numRoutings; r++ {
		back, err := ParseRouting(r.String())
		if err != nil || back != r {
			t.Fatalf("round trip %v -> %v, %v", r, back, err)
		}
	}
}

func TestRouteEmptyChainIsIdentity(t *testing.T) {
	t.Parallel()

	for r := RoutingSerial; r < numRoutings; r++ {
		c := preparedChain(t, stereoSpec)
		setParam(t, c, "routing", float64(r))

		in := testutil.Planar(
			testutil.DeterministicNoise(1, 0.5, testBlock),
			testutil.DeterministicNoise(2, 0.5, testBlock),
		)
		buf := module.Buffer(testutil.Planar(in...))

		if !c.Route(buf) {
			t.Fatalf("%v: Route() = false", r)
		}

		for ch := range buf {
			testutil.RequireSliceNearlyEqual(t, buf[ch], in[ch], 1e-12)
		}
	}
}

func TestRouteSerialOrder(t *testing.T) {
	t.Parallel()

	c := preparedChain(t, stereoSpec)
	setSlots(t, c, newOffset(1), nil, newGain(2))

	buf := constBuffer(2, testBlock, 0.25)
	c.Route(buf)

	// (0.25 + 1) * 2
	for ch := range buf {
		for i, v := range buf[ch] {
			if v != 2.5 {
				t.Fatalf("ch %d sample %d = %v, want 2.5", ch, i, v)
			}
		}
	}
}

func TestRouteSkipsBypassedSlots(t *testing.T) {
	t.Parallel()

	c := preparedChain(t, stereoSpec)
	g := newGain(3)
	setSlots(t, c, g)

	if err := c.SetBypassed(0, true); err != nil {
		t.Fatal(err)
	}

	if !c.Bypassed(0) {
		t.Fatal("Bypassed(0) = false")
	}

	buf := constBuffer(2, testBlock, 0.5)
	c.Route(buf)

	if g.calls != 0 || buf[0][0] != 0.5 {
		t.Fatalf("bypassed slot ran: calls=%d out=%v", g.calls, buf[0][0])
	}
}

func TestRouteParallelBranchesAreIndependent(t *testing.T) {
	t.Parallel()

	c := preparedChain(t, stereoSpec)
	a, b := newGain(2), newGain(4)
	setSlots(t, c, a, nil, b)
	setParam(t, c, "routing", float64(RoutingParallel))

	in := testutil.DeterministicNoise(3, 0.5, testBlock)
	buf := module.Buffer(testutil.Duplicate(in, 2))
	c.Route(buf)

	if a.first != in[0] || b.first != in[0] {
		t.Fatalf("branch inputs = %v, %v, want %v", a.first, b.first, in[0])
	}

	want := make([]float64, len(in))
	for i, x := range in {
		want[i] = 0.5 * (2*x + 4*x)
	}

	for ch := range buf {
		testutil.RequireSliceNearlyEqual(t, buf[ch], want, 1e-12)
	}
}

func TestRouteMidSide(t *testing.T) {
	t.Parallel()

	c := preparedChain(t, stereoSpec)
	setSlots(t, c, newGain(2), nil, newGain(0))
	setParam(t, c, "routing", float64(RoutingMidSide))

	buf := constBuffer(2, testBlock, 1, 0.5)
	c.Route(buf)

	// mid = 0.75 doubled, side removed
	for i := range testBlock {
		if buf[0][i] != 1.5 || buf[1][i] != 1.5 {
			t.Fatalf("sample %d = (%v, %v), want (1.5, 1.5)", i, buf[0][i], buf[1][i])
		}
	}
}

func TestRouteMidSideIdentityReconstructs(t *testing.T) {
	t.Parallel()

	c := preparedChain(t, stereoSpec)
	setParam(t, c, "routing", float64(RoutingMidSide))
	setSlots(t, c, newGain(1), nil, newGain(1))

	l := testutil.DeterministicNoise(4, 0.7, testBlock)
	r := testutil.DeterministicNoise(5, 0.7, testBlock)
	buf := module.Buffer(testutil.Planar(l, r))
	c.Route(buf)

	testutil.RequireSliceNearlyEqual(t, buf[0], l, 1e-12)
	testutil.RequireSliceNearlyEqual(t, buf[1], r, 1e-12)
}

func TestRouteMidSideFallsBackOnMono(t *testing.T) {
	t.Parallel()

	logger, out := captureLogger()
	spec := module.Spec{SampleRate: testRate, MaxBlockSize: testBlock, Channels: 1}
	c := preparedChain(t, spec, WithLogger(logger))
	setSlots(t, c, newGain(2), nil, newGain(3))
	setParam(t, c, "routing", float64(RoutingMidSide))

	for range 3 {
		buf := constBuffer(1, testBlock, 0.1)
		c.Route(buf)

		if math.Abs(buf[0][0]-0.6) > 1e-12 {
			t.Fatalf("fallback output = %v, want serial 0.6", buf[0][0])
		}
	}

	if n := strings.Count(out.String(), "mid/side routing"); n != 1 {
		t.Fatalf("fallback logged %d times, want 1\n%s", n, out.String())
	}

	// A new Prepare re-arms the warning.
	if err := c.Prepare(spec); err != nil {
		t.Fatal(err)
	}

	c.Route(constBuffer(1, testBlock, 0.1))

	if n := bytes.Count(out.Bytes(), []byte("mid/side routing")); n != 2 {
		t.Fatalf("after Prepare logged %d times, want 2", n)
	}
}

func TestRouteFeedbackDecays(t *testing.T) {
	t.Parallel()

	c := preparedChain(t, stereoSpec)
	setParam(t, c, "routing", float64(RoutingFeedback))
	setParam(t, c, "feedbackAmount", 0.5)
	setParam(t, c, "feedbackDamping", 15000)

	first := module.NewBuffer(2, testBlock)
	first[0][0], first[1][0] = 1, 1
	c.Route(first)

	if first[0][0] != 1 {
		t.Fatalf("first block altered by feedback: %v", first[0][0])
	}

	peaks := make([]float64, 0, 60)
	for range 60 {
		buf := module.NewBuffer(2, testBlock)
		c.Route(buf)
		testutil.RequireFinite(t, buf[0])

		peak := 0.0
		for _, v := range buf[0] {
			peak = max(peak, math.Abs(v))
		}

		peaks = append(peaks, peak)
	}

	if peaks[0] == 0 {
		t.Fatal("no regeneration in the block after the impulse")
	}

	for i := 1; i < len(peaks); i++ {
		if peaks[i] > peaks[i-1]+1e-15 {
			t.Fatalf("block %d peak %v grew from %v", i+1, peaks[i], peaks[i-1])
		}
	}

	if last := peaks[len(peaks)-1]; last > 1e-3 {
		t.Fatalf("feedback did not decay below -60 dB: %v", last)
	}
}

func TestRouteFeedbackGainIsCapped(t *testing.T) {
	t.Parallel()

	c := New(nil)
	setParam(t, c, "feedbackAmount", 5)

	v, _ := c.Param("feedbackAmount")
	if v != maxFeedback {
		t.Fatalf("feedbackAmount = %v, want %v", v, maxFeedback)
	}
}

func TestRouteFeedbackZeroGainIsSerial(t *testing.T) {
	t.Parallel()

	c := preparedChain(t, stereoSpec)
	setParam(t, c, "routing", float64(RoutingFeedback))
	setSlots(t, c, newGain(0.5))

	for range 4 {
		buf := constBuffer(2, testBlock, 0.8)
		c.Route(buf)

		if buf[0][testBlock-1] != 0.4 {
			t.Fatalf("output = %v, want 0.4", buf[0][testBlock-1])
		}
	}
}
