package module

import (
	"errors"
	"fmt"

	"github.com/cwbudde/bassforge/dsp/core"
	"github.com/cwbudde/bassforge/dsp/keytrack"
)

// ErrInvalidSpec is returned by Prepare for an unusable audio configuration.
var ErrInvalidSpec = errors.New("module: invalid spec")

// Category groups modules for display and selection.
type Category int

const (
	CategoryFilter Category = iota
	CategoryDistortion
)

// String returns the lowercase category name.
func (c Category) String() string {
	switch c {
	case CategoryFilter:
		return "filter"
	case CategoryDistortion:
		return "distortion"
	default:
		return fmt.Sprintf("Category(%d)", int(c))
	}
}

// Spec describes the audio configuration passed to Prepare.
type Spec struct {
	SampleRate   float64
	MaxBlockSize int
	Channels     int
}

// SpecFromConfig builds a Spec from processor options.
func SpecFromConfig(cfg core.ProcessorConfig) Spec {
	return Spec{SampleRate: cfg.SampleRate, MaxBlockSize: cfg.BlockSize, Channels: cfg.Channels}
}

// Validate reports whether the spec can be prepared.
func (s Spec) Validate() error {
	if s.SampleRate <= 0 || !core.IsFinite(s.SampleRate) {
		return fmt.Errorf("%w: sample rate %v", ErrInvalidSpec, s.SampleRate)
	}

	if s.MaxBlockSize <= 0 {
		return fmt.Errorf("%w: max block size %d", ErrInvalidSpec, s.MaxBlockSize)
	}

	if s.Channels <= 0 {
		return fmt.Errorf("%w: channels %d", ErrInvalidSpec, s.Channels)
	}

	return nil
}

// Context carries per-block shared state into Process. It never owns the
// tracker.
type Context struct {
	Tracker *keytrack.Tracker
}

// HasTracker reports whether a key tracker is attached.
func (c Context) HasTracker() bool { return c.Tracker != nil }

// Frequency returns the tracked frequency, or 440 Hz without a tracker.
func (c Context) Frequency() float64 {
	if c.Tracker == nil {
		return core.ReferenceFrequency
	}

	return c.Tracker.Frequency()
}

// Module is one processing unit.
type Module interface {
	Name() string
	Category() Category
	// Prepare sizes all internal buffers and resets state. It may be called
	// again whenever the configuration changes.
	Prepare(spec Spec) error
	// Process transforms buf in place. It must not allocate.
	Process(ctx Context, buf Buffer)
	// Reset returns the module to its post-Prepare state.
	Reset()
	Params() []ParamSpec
	// ApplyParam clamps value into range and applies it. It returns false
	// for names the module does not declare.
	ApplyParam(name string, value float64) bool
}

// SpectrumSource is implemented by modules that keep a magnitude spectrum.
type SpectrumSource interface {
	// Spectrum copies the latest magnitudes into dst and returns the count.
	Spectrum(dst []float64) int
}

// SampleLoader is implemented by modules that play or scan loaded audio.
type SampleLoader interface {
	LoadSample(samples []float64, sampleRate float64) error
}

// Trigger is implemented by modules that can be excited on demand.
type Trigger interface {
	Trigger()
}

// LatencyReporter is implemented by modules whose output lags their input.
type LatencyReporter interface {
	// Latency returns the lag in samples.
	Latency() int
}

// Snapshotter is implemented by modules that capture spectral snapshots.
type Snapshotter interface {
	CaptureSnapshot(slot int) error
}
