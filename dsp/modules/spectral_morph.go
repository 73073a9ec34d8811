package modules

import (
	"fmt"
	"math"
	"math/cmplx"

	"github.com/cwbudde/bassforge/dsp/core"
	"github.com/cwbudde/bassforge/dsp/delay"
	"github.com/cwbudde/bassforge/dsp/filter/onepole"
	"github.com/cwbudde/bassforge/dsp/module"
	"github.com/cwbudde/bassforge/dsp/stft"
)

// MorphSnapshots is the number of capturable spectrum slots.
const MorphSnapshots = 4

// morphSizes are the selectable frame sizes; morphHops the hop divisors.
var (
	morphSizes = [...]int{256, 512, 1024, 2048}
	morphHops  = [...]int{2, 4}
)

const maxMorphBins = 2048/2 + 1

// Spectral weighting ranges.
const (
	RangeOff = iota
	RangeHigh
	RangeMid
	RangeLow
)

const (
	morphSource = iota
	morphTarget
	morphAmount
	morphTime
	morphPhaseBlend
	morphSize
	morphOverlap
	morphRange
	morphFormant
	morphSmoothing
	morphMix
)

type snapshot struct {
	mag   []float64
	phase []float64
	bins  int
	valid bool
}

func (s *snapshot) usable(bins int) bool { return s.valid && s.bins == bins }

// morphFrame is the per-channel frame processor.
type morphFrame struct {
	m  *SpectralMorph
	ch int
}

func (f *morphFrame) ProcessFrame(bins []complex128) { f.m.processFrame(f.ch, bins) }

// SpectralMorph resynthesises the input with magnitudes interpolated
// between two captured spectrum snapshots.
type SpectralMorph struct {
	base

	// engines[ch][size*len(morphHops)+hop]
	engines [][]*stft.Engine
	frames  []morphFrame
	align   []*delay.Line
	dry     module.Buffer
	snaps   [MorphSnapshots]snapshot
	morph   *onepole.Smoother
	mags    []float64
	smooth  []float64
	display []float64
	active  int
	capture int
	shown   int
}

// NewSpectralMorph returns a spectral morpher with 512-point frames.
func NewSpectralMorph() *SpectralMorph {
	return &SpectralMorph{
		base: newBase("spectral-morph", module.CategoryFilter, []module.ParamSpec{
			choice("sourceSlot", MorphSnapshots, 0),
			choice("targetSlot", MorphSnapshots, 1),
			param("morph", 0, 1, 0, ""),
			param("morphTime", 1, 1000, 50, "ms"),
			param("phaseBlend", 0, 1, 1, ""),
			choice("size", len(morphSizes), 1),
			param("overlap", 0.25, 0.75, 0.75, ""),
			enum("range", RangeOff, "off", "high", "mid", "low"),
			param("formant", 0, 1, 0, ""),
			param("smoothing", 0, 1, 0, ""),
			param("mix", 0, 1, 1, ""),
		}),
		capture: -1,
	}
}

// Prepare implements module.Module. Engines for every frame size and hop
// are built here so that size changes never allocate.
func (s *SpectralMorph) Prepare(spec module.Spec) error {
	if err := s.begin(spec); err != nil {
		return err
	}

	s.engines = make([][]*stft.Engine, spec.Channels)
	s.frames = make([]morphFrame, spec.Channels)
	s.align = make([]*delay.Line, spec.Channels)

	for ch := range spec.Channels {
		for _, size := range morphSizes {
			for _, div := range morphHops {
				e, err := stft.New(stft.WithSize(size), stft.WithHop(size/div))
				if err != nil {
					return fmt.Errorf("spectral-morph: %w", err)
				}

				s.engines[ch] = append(s.engines[ch], e)
			}
		}

		line, err := delay.New(morphSizes[len(morphSizes)-1] + 1)
		if err != nil {
			return fmt.Errorf("spectral-morph: %w", err)
		}

		s.align[ch] = line
		s.frames[ch] = morphFrame{m: s, ch: ch}
	}

	for i := range s.snaps {
		s.snaps[i] = snapshot{mag: make([]float64, maxMorphBins), phase: make([]float64, maxMorphBins)}
	}

	s.dry = module.NewBuffer(spec.Channels, spec.MaxBlockSize)
	s.mags = make([]float64, maxMorphBins)
	s.smooth = make([]float64, maxMorphBins)
	s.display = make([]float64, maxMorphBins)
	s.morph = onepole.NewSmoother(s.get(morphTime)/1000, spec.SampleRate, s.get(morphAmount))
	s.active = s.engineIndex()

	return nil
}

// Reset implements module.Module. Captured snapshots survive a reset.
func (s *SpectralMorph) Reset() {
	for ch := range s.engines {
		for _, e := range s.engines[ch] {
			e.Reset()
		}

		s.align[ch].Reset()
	}

	clear(s.display)

	if s.morph != nil {
		s.morph.Snap(s.get(morphAmount))
	}

	s.capture = -1
}

func (s *SpectralMorph) engineIndex() int {
	div := 0
	if s.get(morphOverlap) >= 0.625 {
		div = 1
	}

	return s.getInt(morphSize)*len(morphHops) + div
}

// Latency returns the current wet path delay in samples.
func (s *SpectralMorph) Latency() int { return morphSizes[s.getInt(morphSize)] }

// CaptureSnapshot implements module.Snapshotter. The next analysed frame
// of the first channel is stored in slot.
func (s *SpectralMorph) CaptureSnapshot(slot int) error {
	if slot < 0 || slot >= MorphSnapshots {
		return fmt.Errorf("%w: %d", ErrSnapshotSlot, slot)
	}

	if !s.prepared {
		return ErrNotPrepared
	}

	s.capture = slot

	return nil
}

// HasSnapshot reports whether slot holds a spectrum for the current size.
func (s *SpectralMorph) HasSnapshot(slot int) bool {
	if slot < 0 || slot >= MorphSnapshots || !s.prepared {
		return false
	}

	return s.snaps[slot].usable(morphSizes[s.getInt(morphSize)]/2 + 1)
}

// Spectrum implements module.SpectrumSource with the latest output
// magnitudes of the first channel.
func (s *SpectralMorph) Spectrum(dst []float64) int {
	return copy(dst, s.display[:s.shown])
}

func (s *SpectralMorph) weight(k, bins int) float64 {
	nf := float64(k) / float64(bins)
	w := 1.0

	switch s.getInt(morphRange) {
	case RangeHigh:
		w = 1 - nf
	case RangeMid:
		w = 1 - math.Abs(nf-0.5)*2
	case RangeLow:
		w = nf
	}

	if f := s.get(morphFormant); f > 0 {
		d := nf - 0.1
		w *= 1 - f*math.Exp(-d*d/0.01)
	}

	return w
}

func (s *SpectralMorph) processFrame(ch int, bins []complex128) {
	n := len(bins)

	if ch == 0 && s.capture >= 0 {
		snap := &s.snaps[s.capture]
		for k, v := range bins {
			snap.mag[k] = cmplx.Abs(v)
			snap.phase[k] = cmplx.Phase(v)
		}

		snap.bins = n
		snap.valid = true
		s.capture = -1
	}

	src := &s.snaps[s.getInt(morphSource)]
	tgt := &s.snaps[s.getInt(morphTarget)]
	srcOK, tgtOK := src.usable(n), tgt.usable(n)
	amount := s.morph.Value()

	mags := s.mags[:n]
	for k, v := range bins {
		live := cmplx.Abs(v)

		a, b := live, live
		if srcOK {
			a = src.mag[k]
		}

		if tgtOK {
			b = tgt.mag[k]
		}

		mags[k] = core.Lerp(a, b, amount) * s.weight(k, n)
	}

	if sm := s.get(morphSmoothing); sm > 0 && n > 2 {
		out := s.smooth[:n]
		copy(out, mags)

		for k := 1; k < n-1; k++ {
			out[k] = mags[k]*(1-sm) + (mags[k-1]+mags[k+1])*0.5*sm
		}

		mags = out
	}

	blend := s.get(morphPhaseBlend)

	for k, v := range bins {
		phase := cmplx.Phase(v)

		if blend < 1 {
			var ref float64

			switch {
			case tgtOK && amount >= 0.5:
				ref = tgt.phase[k]
			case srcOK:
				ref = src.phase[k]
			case tgtOK:
				ref = tgt.phase[k]
			default:
				ref = phase
			}

			phase = ref + blend*wrapPhase(phase-ref)
		}

		bins[k] = cmplx.Rect(mags[k], phase)
	}

	if ch == 0 {
		copy(s.display, mags)
		s.shown = n
	}
}

// wrapPhase maps p into (-π, π].
func wrapPhase(p float64) float64 {
	p = math.Mod(p+math.Pi, 2*math.Pi)
	if p <= 0 {
		p += 2 * math.Pi
	}

	return p - math.Pi
}

// Process implements module.Module.
func (s *SpectralMorph) Process(_ module.Context, buf module.Buffer) {
	if !s.prepared {
		return
	}

	if s.dirty {
		s.morph.SetTime(s.get(morphTime)/1000, s.sampleRate())
		s.morph.SetTarget(s.get(morphAmount))

		if idx := s.engineIndex(); idx != s.active {
			s.active = idx
			for ch := range s.engines {
				s.engines[ch][idx].Reset()
			}
		}

		s.dirty = false
	}

	channels, n := s.extent(buf)
	latency := s.engines[0][s.active].Latency()

	for ch := range channels {
		x := buf[ch][:n]
		d := s.dry[ch][:n]
		line := s.align[ch]

		for i, v := range x {
			d[i] = line.Read(latency)
			line.Write(v)
		}

		s.engines[ch][s.active].ProcessBlock(x, &s.frames[ch])
	}

	s.morph.Advance(n)
	mixBlock(buf, s.dry, channels, n, s.get(morphMix))
}
