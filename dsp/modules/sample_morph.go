package modules

import (
	"fmt"
	"math"

	"github.com/cwbudde/bassforge/dsp/core"
	"github.com/cwbudde/bassforge/dsp/interp"
	"github.com/cwbudde/bassforge/dsp/module"
)

// transientThreshold is the input level that starts the position envelope.
const transientThreshold = 0.1

const (
	smMorph = iota
	smGrainSize
	smPositionMod
	smKeyTrack
	smAttack
	smRelease
	smEnvDepth
)

// arEnvelope is a linear attack/release envelope started by transients.
type arEnvelope struct {
	level      float64
	attackInc  float64
	releaseInc float64
	attacking  bool
	active     bool
}

func (e *arEnvelope) configure(attack, release, sampleRate float64) {
	e.attackInc = 1 / math.Max(attack*sampleRate, 1)
	e.releaseInc = 1 / math.Max(release*sampleRate, 1)
}

func (e *arEnvelope) trigger() {
	e.active = true
	e.attacking = true
}

func (e *arEnvelope) next() float64 {
	if !e.active {
		return 0
	}

	if e.attacking {
		e.level += e.attackInc
		if e.level >= 1 {
			e.level = 1
			e.attacking = false
		}

		return e.level
	}

	e.level -= e.releaseInc
	if e.level <= 0 {
		e.level = 0
		e.active = false
	}

	return e.level
}

// SampleMorph blends the input with granular playback of a loaded sample.
// Two Hann-windowed grains half a grain apart read from a shared playback
// pointer whose speed follows the tracked pitch and input transients.
type SampleMorph struct {
	base

	sample     []float64
	srcRate    float64
	env        arEnvelope
	pos        float64
	grainPhase int
	starts     [2]float64
	wet        []float64
}

// NewSampleMorph returns a sample morpher with no sample loaded.
func NewSampleMorph() *SampleMorph {
	return &SampleMorph{base: newBase("sample-morph", module.CategoryFilter, []module.ParamSpec{
		param("morph", 0, 1, 0.5, ""),
		{Name: "grainSize", Min: 128, Max: 2048, Default: 1024, Unit: "samples", Discrete: true},
		param("positionMod", 0, 1, 0.5, ""),
		param("keyTrack", 0, 1, 1, ""),
		param("attack", 0.001, 1, 0.01, "s"),
		param("release", 0.01, 2, 0.2, "s"),
		param("envDepth", 0, 1, 0.5, ""),
	})}
}

// LoadSample implements module.SampleLoader.
func (s *SampleMorph) LoadSample(samples []float64, sampleRate float64) error {
	if len(samples) == 0 {
		return ErrEmptySample
	}

	if sampleRate <= 0 || !core.IsFinite(sampleRate) {
		return fmt.Errorf("%w: sample rate %v", ErrEmptySample, sampleRate)
	}

	for _, v := range samples {
		if !core.IsFinite(v) {
			return fmt.Errorf("%w: non-finite value", ErrEmptySample)
		}
	}

	s.sample = append([]float64(nil), samples...)
	s.srcRate = sampleRate
	s.pos = 0

	return nil
}

// Loaded reports whether a sample is available.
func (s *SampleMorph) Loaded() bool { return len(s.sample) > 0 }

// Prepare implements module.Module.
func (s *SampleMorph) Prepare(spec module.Spec) error {
	if err := s.begin(spec); err != nil {
		return err
	}

	s.wet = make([]float64, spec.MaxBlockSize)
	s.Reset()

	return nil
}

// Reset implements module.Module.
func (s *SampleMorph) Reset() {
	s.env = arEnvelope{}
	s.pos = 0
	s.grainPhase = 0
	s.starts = [2]float64{}
	s.dirty = true
}

func (s *SampleMorph) grainRate(ctx module.Context) float64 {
	if !ctx.HasTracker() {
		return 1
	}

	f := ctx.Frequency()
	if f <= 0 {
		return 1
	}

	return 1 / math.Pow(f/core.ReferenceFrequency, s.get(smKeyTrack)*0.5)
}

func (s *SampleMorph) read(start, offset float64) float64 {
	n := float64(len(s.sample))
	p := math.Mod(start+offset, n)

	return interp.Clamped(s.sample, p)
}

// Process implements module.Module.
func (s *SampleMorph) Process(ctx module.Context, buf module.Buffer) {
	if !s.prepared {
		return
	}

	if s.dirty {
		s.env.configure(s.get(smAttack), s.get(smRelease), s.sampleRate())
		s.dirty = false
	}

	morph := s.get(smMorph)
	if len(s.sample) == 0 || morph == 0 {
		return
	}

	channels, n := s.extent(buf)
	if channels == 0 {
		return
	}

	length := float64(len(s.sample))
	grain := s.getInt(smGrainSize)
	half := grain / 2
	rate := s.grainRate(ctx) * s.srcRate / s.sampleRate()
	modDepth := s.get(smEnvDepth) * s.get(smPositionMod) * 0.1

	wet := s.wet[:n]
	for i := range n {
		if math.Abs(buf[0][i]) > transientThreshold && !s.env.active {
			s.env.trigger()
		}

		step := rate * (1 + s.env.next()*modDepth)

		// Each grain restarts at the playback pointer when its window
		// reaches zero.
		if s.grainPhase == 0 {
			s.starts[0] = s.pos
		}

		if s.grainPhase == half {
			s.starts[1] = s.pos
		}

		pa := float64(s.grainPhase)
		pb := float64((s.grainPhase + half) % grain)
		wa := math.Sin(math.Pi * pa / float64(grain))
		wa *= wa

		wet[i] = wa*s.read(s.starts[0], pa*rate) + (1-wa)*s.read(s.starts[1], pb*rate)

		s.grainPhase++
		if s.grainPhase >= grain {
			s.grainPhase = 0
		}

		s.pos += step
		if s.pos >= length {
			s.pos -= length
		}
	}

	for ch := range channels {
		x := buf[ch][:n]
		for i, v := range x {
			x[i] = (1-morph)*v + morph*wet[i]
		}
	}
}
