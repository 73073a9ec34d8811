package modules

import (
	"fmt"
	"math"

	"github.com/cwbudde/bassforge/dsp/delay"
	"github.com/cwbudde/bassforge/dsp/module"
	"github.com/cwbudde/bassforge/dsp/stft"
)

const (
	spectralMode = iota
	spectralFreq
	spectralBandwidth
	spectralKeyTrack
	spectralMix
)

// Spectral bin-shaping modes.
const (
	SpectralNotch = iota
	SpectralComb
)

// binShaper edits STFT frames: a notch zeroes the band around freq, a comb
// boosts bins near harmonics of freq and cuts the rest.
type binShaper struct {
	mode      int
	freq      float64
	bandwidth float64
	binHz     float64
}

func (s *binShaper) ProcessFrame(bins []complex128) {
	half := s.bandwidth / 2

	switch s.mode {
	case SpectralComb:
		if s.freq <= 0 {
			return
		}

		for k := range bins {
			ratio := float64(k) * s.binHz / s.freq
			dist := math.Abs(ratio-math.Round(ratio)) * s.freq

			g := complex(0.5, 0)
			if dist < half {
				g = complex(1.5, 0)
			}

			bins[k] *= g
		}
	default:
		lo, hi := s.freq-half, s.freq+half
		for k := range bins {
			f := float64(k) * s.binHz
			if f >= lo && f <= hi {
				bins[k] = 0
			}
		}
	}
}

// Spectral is an FFT notch or harmonic comb filter. The wet path lags the
// input by one frame; the dry path is delayed to match.
type Spectral struct {
	base

	engines []*stft.Engine
	align   []*delay.Line
	dry     module.Buffer
	shaper  binShaper
}

// NewSpectral returns a spectral filter using 2048-point frames.
func NewSpectral() *Spectral {
	return &Spectral{base: newBase("spectral", module.CategoryFilter, []module.ParamSpec{
		enum("mode", SpectralNotch, "notch", "comb"),
		param("freq", 20, 20000, 440, "Hz"),
		param("bandwidth", 1, 2000, 100, "Hz"),
		param("keyTrack", 0, 1, 0, ""),
		param("mix", 0, 1, 1, ""),
	})}
}

// Prepare implements module.Module.
func (s *Spectral) Prepare(spec module.Spec) error {
	if err := s.begin(spec); err != nil {
		return err
	}

	s.engines = make([]*stft.Engine, spec.Channels)
	s.align = make([]*delay.Line, spec.Channels)

	for ch := range spec.Channels {
		e, err := stft.New(stft.WithSize(stft.DefaultSize), stft.WithHop(stft.DefaultHop))
		if err != nil {
			return fmt.Errorf("spectral: %w", err)
		}

		line, err := delay.New(e.Latency() + 1)
		if err != nil {
			return fmt.Errorf("spectral: %w", err)
		}

		s.engines[ch] = e
		s.align[ch] = line
	}

	s.dry = module.NewBuffer(spec.Channels, spec.MaxBlockSize)
	s.shaper.binHz = spec.SampleRate / stft.DefaultSize

	return nil
}

// Latency returns the wet path delay in samples.
func (s *Spectral) Latency() int { return stft.DefaultSize }

// Reset implements module.Module.
func (s *Spectral) Reset() {
	for ch := range s.engines {
		s.engines[ch].Reset()
		s.align[ch].Reset()
	}
}

// Process implements module.Module.
func (s *Spectral) Process(ctx module.Context, buf module.Buffer) {
	if !s.prepared {
		return
	}

	freq := s.get(spectralFreq)
	if kt := s.get(spectralKeyTrack); kt > 0 {
		freq += (ctx.Frequency() - freq) * kt
	}

	s.shaper.mode = s.getInt(spectralMode)
	s.shaper.freq = freq
	s.shaper.bandwidth = s.get(spectralBandwidth)
	s.dirty = false

	channels, n := s.extent(buf)
	latency := s.engines[0].Latency()

	for ch := range channels {
		x := buf[ch][:n]
		d := s.dry[ch][:n]
		line := s.align[ch]

		for i, v := range x {
			d[i] = line.Read(latency)
			line.Write(v)
		}

		s.engines[ch].ProcessBlock(x, &s.shaper)
	}

	mixBlock(buf, s.dry, channels, n, s.get(spectralMix))
}
