package dither

import (
	"github.com/cwbudde/bassforge/dsp/filter/biquad"
	"github.com/cwbudde/bassforge/dsp/filter/design"
)

const (
	shelfGainDB = -5.0
	shelfQ      = 0.707
)

// shelfShaper feeds the quantization error back through a low shelf,
// moving noise above the corner frequency.
type shelfShaper struct {
	filter    biquad.Section
	lastError float64
}

func newShelfShaper(freq, sampleRate float64) *shelfShaper {
	return &shelfShaper{
		filter: biquad.Section{Coefficients: design.LowShelf(freq, shelfGainDB, shelfQ, sampleRate)},
	}
}

// shape subtracts the filtered previous error from input.
func (s *shelfShaper) shape(input float64) float64 {
	return input - s.filter.ProcessSample(s.lastError)
}

func (s *shelfShaper) record(err float64) { s.lastError = err }

func (s *shelfShaper) reset() {
	s.filter.Reset()
	s.lastError = 0
}
