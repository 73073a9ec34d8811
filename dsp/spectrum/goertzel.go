package spectrum

import (
	"fmt"
	"math"
)

// Probe measures a single frequency with the Goertzel recursion. It
// accumulates every sample passed in since the last Reset.
type Probe struct {
	frequency  float64
	sampleRate float64
	coeff      float64
	cos, sin   float64
	s0, s1     float64
	n          int
}

// NewProbe returns a probe for frequency, which must lie in [0, sampleRate/2].
func NewProbe(frequency, sampleRate float64) (*Probe, error) {
	if sampleRate <= 0 || math.IsNaN(sampleRate) || math.IsInf(sampleRate, 0) {
		return nil, fmt.Errorf("spectrum: sample rate must be > 0: %v", sampleRate)
	}

	if frequency < 0 || frequency > sampleRate/2 || math.IsNaN(frequency) {
		return nil, fmt.Errorf("spectrum: probe frequency must be in [0, %v]: %v", sampleRate/2, frequency)
	}

	w := 2 * math.Pi * frequency / sampleRate
	sin, cos := math.Sincos(w)

	return &Probe{
		frequency:  frequency,
		sampleRate: sampleRate,
		coeff:      2 * cos,
		cos:        cos,
		sin:        sin,
	}, nil
}

// Frequency returns the probed frequency.
func (p *Probe) Frequency() float64 { return p.frequency }

// Process feeds a block of samples.
func (p *Probe) Process(x []float64) {
	s0, s1, c := p.s0, p.s1, p.coeff
	for _, v := range x {
		s0, s1 = v+c*s0-s1, s0
	}

	p.s0, p.s1 = s0, s1
	p.n += len(x)
}

// Power returns |X(f)|^2 over the samples seen so far.
func (p *Probe) Power() float64 {
	return p.s0*p.s0 + p.s1*p.s1 - p.coeff*p.s0*p.s1
}

// Phase returns the phase of the probed component in radians.
func (p *Probe) Phase() float64 {
	re := p.s0 - p.s1*p.cos
	im := p.s1 * p.sin

	return math.Atan2(im, re)
}

// Amplitude returns the estimated peak amplitude of a sinusoid at the probe
// frequency, 2·|X|/N. It is exact when the block spans whole periods.
func (p *Probe) Amplitude() float64 {
	if p.n == 0 {
		return 0
	}

	pw := p.Power()
	if pw <= 0 {
		return 0
	}

	return 2 * math.Sqrt(pw) / float64(p.n)
}

// LevelDB returns Amplitude in dBFS with a -300 dB floor.
func (p *Probe) LevelDB() float64 {
	a := p.Amplitude()
	if a <= 1e-15 {
		return -300
	}

	return 20 * math.Log10(a)
}

// Reset clears accumulated state.
func (p *Probe) Reset() {
	p.s0, p.s1, p.n = 0, 0, 0
}

// Amplitude probes x at frequency in one shot. Invalid frequencies yield 0.
func Amplitude(x []float64, frequency, sampleRate float64) float64 {
	p, err := NewProbe(frequency, sampleRate)
	if err != nil {
		return 0
	}

	p.Process(x)

	return p.Amplitude()
}

// Bank runs several probes over the same signal.
type Bank struct {
	probes []*Probe
}

// NewBank builds one probe per frequency.
func NewBank(frequencies []float64, sampleRate float64) (*Bank, error) {
	b := &Bank{probes: make([]*Probe, len(frequencies))}

	for i, f := range frequencies {
		p, err := NewProbe(f, sampleRate)
		if err != nil {
			return nil, err
		}

		b.probes[i] = p
	}

	return b, nil
}

// Process feeds the block to every probe.
func (b *Bank) Process(x []float64) {
	for _, p := range b.probes {
		p.Process(x)
	}
}

// Probes returns the probes in construction order.
func (b *Bank) Probes() []*Probe { return b.probes }

// Reset clears every probe.
func (b *Bank) Reset() {
	for _, p := range b.probes {
		p.Reset()
	}
}
