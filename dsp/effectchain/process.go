package effectchain

import (
	"github.com/cwbudde/algo-vecmath"
	"github.com/cwbudde/bassforge/dsp/keytrack"
	"github.com/cwbudde/bassforge/dsp/module"
)

// feedbackFloor is the loop gain below which the feedback path is skipped.
const feedbackFloor = 0.001

// ProcessBlock runs one host block in place: staged slots are committed,
// events update the key tracker, staged parameters are applied, then the
// block is routed and passed through the output stage. Blocks longer than
// the prepared MaxBlockSize are processed in chunks. It returns false and
// leaves buf untouched when the chain is not prepared.
func (c *Chain) ProcessBlock(buf module.Buffer, events []keytrack.Event) bool {
	c.commit()

	n := buf.NumSamples()
	c.tracker.ProcessEvents(events, n)

	if !c.prepared {
		return false
	}

	c.applyParams()

	channels := min(len(buf), c.spec.Channels)
	for off := 0; off < n; off += c.spec.MaxBlockSize {
		end := min(n, off+c.spec.MaxBlockSize)
		view := c.chunk(buf, channels, off, end)
		m := end - off

		if c.output.mix < 1 {
			for ch := range channels {
				copy(c.dry[ch][:m], view[ch])
			}
		}

		c.route(view, m)
		c.output.process(view, c.dry, channels, m)
	}

	return true
}

// Route runs only the routing step on buf. Staged slots and parameters
// are committed first; no events are consumed and the output stage is
// skipped.
func (c *Chain) Route(buf module.Buffer) bool {
	c.commit()

	if !c.prepared {
		return false
	}

	c.applyParams()

	n := buf.NumSamples()
	channels := min(len(buf), c.spec.Channels)

	for off := 0; off < n; off += c.spec.MaxBlockSize {
		end := min(n, off+c.spec.MaxBlockSize)
		c.route(c.chunk(buf, channels, off, end), end-off)
	}

	return true
}

func (c *Chain) chunk(buf module.Buffer, channels, off, end int) module.Buffer {
	view := c.view[:0]
	for ch := range channels {
		view = append(view, buf[ch][off:end])
	}

	c.view = view

	return view
}

func (c *Chain) route(buf module.Buffer, n int) {
	ctx := module.Context{Tracker: c.tracker}

	switch c.routing {
	case RoutingParallel:
		c.routeParallel(ctx, buf, n)
	case RoutingMidSide:
		if len(buf) != 2 {
			if !c.midSideWarned {
				c.midSideWarned = true
				c.logger.Warn("mid/side routing needs two channels, running serial",
					"channels", len(buf))
			}

			c.runSlots(ctx, buf, 0, NumSlots)

			return
		}

		c.routeMidSide(ctx, buf, n)
	case RoutingFeedback:
		c.routeFeedback(ctx, buf, n)
	default:
		c.runSlots(ctx, buf, 0, NumSlots)
	}
}

func (c *Chain) runSlots(ctx module.Context, buf module.Buffer, from, to int) {
	for i := from; i < to; i++ {
		if s := c.slots[i]; s.active() {
			s.module.Process(ctx, buf)
		}
	}
}

// routeParallel feeds slots 0-1 with buf and slots 2-3 with a copy taken
// before either branch runs, then averages the branches.
func (c *Chain) routeParallel(ctx module.Context, buf module.Buffer, n int) {
	branch := c.branchView[:0]
	for ch := range buf {
		b := c.branch[ch][:n]
		copy(b, buf[ch])
		branch = append(branch, b)
	}

	c.branchView = branch

	c.runSlots(ctx, buf, 0, 2)
	c.runSlots(ctx, branch, 2, NumSlots)

	for ch := range buf {
		vecmath.AddBlockInPlace(buf[ch], branch[ch])
		vecmath.ScaleBlockInPlace(buf[ch], 0.5)
	}
}

func (c *Chain) routeMidSide(ctx module.Context, buf module.Buffer, n int) {
	left, right := buf[0], buf[1]
	mid, side := c.mid[:n], c.side[:n]

	for i := range n {
		l, r := left[i], right[i]
		mid[i] = 0.5 * (l + r)
		side[i] = 0.5 * (l - r)
	}

	c.midView[0], c.sideView[0] = mid, side
	c.runSlots(ctx, c.midView, 0, 2)
	c.runSlots(ctx, c.sideView, 2, NumSlots)

	vecmath.AddBlock(left, mid, side)

	for i := range n {
		right[i] = mid[i] - side[i]
	}
}

// routeFeedback adds the damped previous output, runs the slots serially,
// and keeps the undamped result for the next block.
func (c *Chain) routeFeedback(ctx module.Context, buf module.Buffer, n int) {
	gain := c.values[paramFeedbackAmount]

	if gain > feedbackFloor && c.prevLen > 0 {
		k := min(n, c.prevLen)
		for ch := range buf {
			prev := c.prev[ch][:k]
			c.dampers[ch].ProcessBlock(prev)

			scaled := c.branch[ch][:k]
			vecmath.ScaleBlock(scaled, prev, gain)
			vecmath.AddBlockInPlace(buf[ch][:k], scaled)
		}
	}

	c.runSlots(ctx, buf, 0, NumSlots)

	for ch := range buf {
		copy(c.prev[ch], buf[ch])
	}

	c.prevLen = n
}

// SpectrumSnapshot copies the magnitudes of the first slot that keeps a
// spectrum into dst and zero-fills the rest. It returns the bins copied.
func (c *Chain) SpectrumSnapshot(dst []float64) int {
	for _, s := range c.slots {
		if s == nil || s.module == nil || !s.prepared {
			continue
		}

		src, ok := s.module.(module.SpectrumSource)
		if !ok {
			continue
		}

		n := src.Spectrum(dst)
		clear(dst[n:])

		return n
	}

	clear(dst)

	return 0
}
