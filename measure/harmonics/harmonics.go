// Package harmonics measures the harmonic profile of a pitched signal: the
// level of the fundamental, the relative level of each overtone and the
// total harmonic distortion they add up to.
package harmonics

import (
	"errors"
	"fmt"
	"math"

	algofft "github.com/cwbudde/algo-fft"

	"github.com/cwbudde/bassforge/dsp/core"
	"github.com/cwbudde/bassforge/dsp/window"
)

const (
	defaultMaxHarmonics = 10
	defaultSearchLow    = 20.0
	defaultSearchHigh   = 1000.0

	// Hann main lobe half width.
	captureBins = 2
)

var (
	// ErrInvalidSize is returned for FFT sizes that are not a power of two
	// of at least 64.
	ErrInvalidSize = errors.New("harmonics: size must be a power of two >= 64")

	// ErrNoSignal is returned when no fundamental can be measured.
	ErrNoSignal = errors.New("harmonics: no fundamental found")
)

// Profile is the result of one analysis.
type Profile struct {
	Fundamental float64 // Hz
	Level       float64 // peak amplitude of the fundamental

	// Harmonics holds the amplitude of overtone k+2 relative to the
	// fundamental. It stops at the first overtone above Nyquist.
	Harmonics []float64

	THD  float64 // RSS of all overtones, relative
	Odd  float64 // RSS of odd overtones (3, 5, ...)
	Even float64 // RSS of even overtones (2, 4, ...)
}

// THDDB returns THD in dB relative to the fundamental.
func (p Profile) THDDB() float64 { return core.LinearToDB(p.THD) }

// Harmonic returns the relative level of harmonic k (k >= 2), or 0 if it
// was not measured.
func (p Profile) Harmonic(k int) float64 {
	if k < 2 || k-2 >= len(p.Harmonics) {
		return 0
	}

	return p.Harmonics[k-2]
}

// Option configures an Analyzer.
type Option func(*config)

type config struct {
	fundamental  float64
	maxHarmonics int
	searchLow    float64
	searchHigh   float64
}

// WithFundamental fixes the fundamental instead of searching for the
// strongest peak.
func WithFundamental(hz float64) Option {
	return func(c *config) { c.fundamental = hz }
}

// WithMaxHarmonics limits the number of overtones measured.
func WithMaxHarmonics(n int) Option {
	return func(c *config) {
		if n > 0 {
			c.maxHarmonics = n
		}
	}
}

// WithSearchRange sets the band searched for the fundamental.
func WithSearchRange(lo, hi float64) Option {
	return func(c *config) {
		if lo > 0 && hi > lo {
			c.searchLow, c.searchHigh = lo, hi
		}
	}
}

// Analyzer computes harmonic profiles with a fixed FFT size.
type Analyzer struct {
	cfg        config
	sampleRate float64
	size       int
	plan       *algofft.Plan[complex128]
	win        []float64
	winPower   float64
	capture    int
	spec       []complex128
	power      []float64
}

// NewAnalyzer returns an Analyzer for frames of size samples.
func NewAnalyzer(sampleRate float64, size int, opts ...Option) (*Analyzer, error) {
	if sampleRate <= 0 || math.IsNaN(sampleRate) || math.IsInf(sampleRate, 0) {
		return nil, fmt.Errorf("harmonics: invalid sample rate %g", sampleRate)
	}

	if size < 64 || size&(size-1) != 0 {
		return nil, ErrInvalidSize
	}

	cfg := config{
		maxHarmonics: defaultMaxHarmonics,
		searchLow:    defaultSearchLow,
		searchHigh:   defaultSearchHigh,
	}
	for _, o := range opts {
		o(&cfg)
	}

	if cfg.fundamental < 0 || cfg.fundamental >= sampleRate/2 {
		return nil, fmt.Errorf("harmonics: fundamental %g Hz outside (0, Nyquist)", cfg.fundamental)
	}

	plan, err := algofft.NewPlan64(size)
	if err != nil {
		return nil, fmt.Errorf("harmonics: create FFT plan: %w", err)
	}

	return &Analyzer{
		cfg:        cfg,
		sampleRate: sampleRate,
		size:       size,
		plan:       plan,
		spec:       make([]complex128, size),
		power:      make([]float64, size/2+1),
	}, nil
}

// Size returns the FFT frame size.
func (a *Analyzer) Size() int { return a.size }

// Analyze measures the first Size samples of x. Shorter input is windowed
// over its own length and zero padded.
func (a *Analyzer) Analyze(x []float64) (Profile, error) {
	n := min(len(x), a.size)
	if n == 0 {
		return Profile{}, ErrNoSignal
	}

	if len(a.win) != n {
		a.win = window.Generate(window.TypeHann, n)
		a.winPower = 0

		for _, w := range a.win {
			a.winPower += w * w
		}

		// zero padding widens the main lobe
		a.capture = captureBins * ((a.size + n - 1) / n)
	}

	for i := range a.spec {
		if i < n {
			a.spec[i] = complex(x[i]*a.win[i], 0)
		} else {
			a.spec[i] = 0
		}
	}

	if err := a.plan.Forward(a.spec, a.spec); err != nil {
		return Profile{}, fmt.Errorf("harmonics: forward FFT: %w", err)
	}

	for i := range a.power {
		re, im := real(a.spec[i]), imag(a.spec[i])
		a.power[i] = re*re + im*im
	}

	binHz := a.sampleRate / float64(a.size)

	f0, bin := a.findFundamental(binHz)
	if bin < 1 {
		return Profile{}, ErrNoSignal
	}

	level := a.amplitude(bin)
	if level <= 1e-12 {
		return Profile{}, ErrNoSignal
	}

	p := Profile{Fundamental: f0, Level: level}

	var sum, odd, even float64

	maxBin := len(a.power) - 1 - a.capture
	for k := 2; k-1 <= a.cfg.maxHarmonics; k++ {
		hb := int(math.Round(float64(k) * f0 / binHz))
		if hb > maxBin {
			break
		}

		r := a.amplitude(hb) / level
		p.Harmonics = append(p.Harmonics, r)

		sum += r * r
		if k%2 == 0 {
			even += r * r
		} else {
			odd += r * r
		}
	}

	p.THD = math.Sqrt(sum)
	p.Odd = math.Sqrt(odd)
	p.Even = math.Sqrt(even)

	return p, nil
}

// findFundamental returns the fundamental frequency and its nearest bin.
// A searched peak is refined by parabolic interpolation of the log power.
func (a *Analyzer) findFundamental(binHz float64) (float64, int) {
	last := len(a.power) - 1

	if a.cfg.fundamental > 0 {
		bin := int(math.Round(a.cfg.fundamental / binHz))
		if bin < 1 || bin > last {
			return 0, 0
		}

		return a.cfg.fundamental, bin
	}

	lo := max(int(math.Ceil(a.cfg.searchLow/binHz)), 1)
	hi := min(int(math.Floor(a.cfg.searchHigh/binHz)), last-1)

	best, bestPow := 0, 0.0
	for i := lo; i <= hi; i++ {
		if a.power[i] > bestPow {
			best, bestPow = i, a.power[i]
		}
	}

	if best == 0 {
		return 0, 0
	}

	l := math.Log(a.power[best-1] + 1e-300)
	c := math.Log(bestPow)
	r := math.Log(a.power[best+1] + 1e-300)

	delta := 0.0
	if d := l - 2*c + r; d < 0 {
		delta = 0.5 * (l - r) / d
	}

	return (float64(best) + core.Clamp(delta, -0.5, 0.5)) * binHz, best
}

// amplitude returns the peak amplitude of the sinusoid centred on bin from
// the power captured by the window main lobe.
func (a *Analyzer) amplitude(bin int) float64 {
	lo := max(bin-a.capture, 1)
	hi := min(bin+a.capture, len(a.power)-1)

	var sum float64
	for i := lo; i <= hi; i++ {
		sum += a.power[i]
	}

	return 2 * math.Sqrt(sum/(float64(a.size)*a.winPower))
}
