// Package level accumulates block-wise level statistics of rendered audio.
package level

import (
	"math"

	"github.com/cwbudde/algo-vecmath"

	"github.com/cwbudde/bassforge/dsp/core"
)

// Stats summarizes a signal in the time domain.
type Stats struct {
	Frames        int
	DC            float64
	RMS           float64
	Peak          float64
	PeakPos       int
	Crest         float64 // peak / RMS, 0 for silence
	ZeroCrossings int
}

// PeakDB returns the peak level in dBFS.
func (s Stats) PeakDB() float64 { return core.LinearToDB(s.Peak) }

// RMSDB returns the RMS level in dBFS.
func (s Stats) RMSDB() float64 { return core.LinearToDB(s.RMS) }

// CrestDB returns the crest factor in dB.
func (s Stats) CrestDB() float64 {
	if s.Crest == 0 {
		return 0
	}

	return core.LinearToDB(s.Crest)
}

// ZeroCrossingRate estimates the fundamental of a periodic signal from its
// sign changes. It is only meaningful for signals with one crossing pair per
// period, such as a low-passed bass note.
func (s Stats) ZeroCrossingRate(sampleRate float64) float64 {
	if s.Frames < 2 || sampleRate <= 0 {
		return 0
	}

	return float64(s.ZeroCrossings) * sampleRate / (2 * float64(s.Frames))
}

// Meter accumulates Stats across consecutive blocks.
// The zero value is ready to use.
type Meter struct {
	n       int
	sum     float64
	comp    float64 // Kahan compensation for sum
	sumSq   float64
	peak    float64
	peakPos int
	zc      int
	last    float64
	started bool
}

// Update adds a block of samples.
func (m *Meter) Update(x []float64) {
	if len(x) == 0 {
		return
	}

	if p := vecmath.MaxAbs(x); p > m.peak {
		m.peak = p
		for i, v := range x {
			if math.Abs(v) == p {
				m.peakPos = m.n + i
				break
			}
		}
	}

	m.sumSq += vecmath.DotProduct(x, x)

	prev := m.last
	for i, v := range x {
		y := v - m.comp
		t := m.sum + y
		m.comp = (t - m.sum) - y
		m.sum = t

		if (m.started || i > 0) && prev*v < 0 {
			m.zc++
		}

		prev = v
	}

	m.last = prev
	m.started = true
	m.n += len(x)
}

// Stats returns the statistics of everything seen since the last Reset.
func (m *Meter) Stats() Stats {
	if m.n == 0 {
		return Stats{}
	}

	nf := float64(m.n)
	s := Stats{
		Frames:        m.n,
		DC:            m.sum / nf,
		RMS:           math.Sqrt(m.sumSq / nf),
		Peak:          m.peak,
		PeakPos:       m.peakPos,
		ZeroCrossings: m.zc,
	}

	if s.RMS > 0 {
		s.Crest = s.Peak / s.RMS
	}

	return s
}

// Reset clears the accumulated statistics.
func (m *Meter) Reset() { *m = Meter{} }

// Calculate is a one-shot Meter over a single slice.
func Calculate(x []float64) Stats {
	var m Meter

	m.Update(x)

	return m.Stats()
}
