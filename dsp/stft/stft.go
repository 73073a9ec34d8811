// Package stft provides a streaming short-time Fourier transform engine.
//
// An [Engine] buffers input one hop at a time, windows the latest frame with
// a periodic Hann window, hands the positive-frequency bins to a
// [FrameProcessor], and overlap-adds the resynthesised frame into its output
// queue. Output lags input by exactly one frame size.
package stft

import (
	"errors"
	"fmt"

	algofft "github.com/cwbudde/algo-fft"
	"github.com/cwbudde/bassforge/dsp/window"
)

const (
	DefaultSize = 2048
	DefaultHop  = 512
	MinSize     = 64
)

// ErrConfig is returned for an invalid frame or hop size.
var ErrConfig = errors.New("stft: invalid configuration")

// FrameProcessor edits one analysed frame in place. bins holds DC through
// Nyquist (size/2+1 values); the mirrored half is rebuilt by the engine.
type FrameProcessor interface {
	ProcessFrame(bins []complex128)
}

// FrameFunc adapts a function to FrameProcessor.
type FrameFunc func(bins []complex128)

// ProcessFrame calls f.
func (f FrameFunc) ProcessFrame(bins []complex128) { f(bins) }

// Option configures an Engine.
type Option func(*config)

type config struct {
	size int
	hop  int
}

// WithSize sets the frame size. It must be a power of two >= MinSize.
func WithSize(n int) Option {
	return func(c *config) { c.size = n }
}

// WithHop sets the hop between frames. It must be in [1, size].
func WithHop(n int) Option {
	return func(c *config) { c.hop = n }
}

// Engine is a single-channel streaming STFT. It is not safe for concurrent
// use.
type Engine struct {
	size, hop int
	plan      *algofft.Plan[complex128]
	win       []float64
	norm      float64

	input  []float64
	accum  []float64
	queue  []float64
	pos    int
	spec   []complex128
	frame  []complex128
	errors int
}

// New builds an engine. All buffers are allocated here.
func New(opts ...Option) (*Engine, error) {
	cfg := config{size: DefaultSize, hop: DefaultHop}
	for _, opt := range opts {
		if opt != nil {
			opt(&cfg)
		}
	}

	if cfg.size < MinSize || cfg.size&(cfg.size-1) != 0 {
		return nil, fmt.Errorf("%w: size %d must be a power of two >= %d", ErrConfig, cfg.size, MinSize)
	}

	if cfg.hop <= 0 || cfg.hop > cfg.size {
		return nil, fmt.Errorf("%w: hop %d must be in [1, %d]", ErrConfig, cfg.hop, cfg.size)
	}

	plan, err := algofft.NewPlan64(cfg.size)
	if err != nil {
		return nil, fmt.Errorf("stft: create FFT plan: %w", err)
	}

	win := window.Generate(window.TypeHann, cfg.size, window.WithPeriodic())

	e := &Engine{
		size:  cfg.size,
		hop:   cfg.hop,
		plan:  plan,
		win:   win,
		input: make([]float64, cfg.size),
		accum: make([]float64, cfg.size),
		queue: make([]float64, cfg.hop),
		spec:  make([]complex128, cfg.size),
		frame: make([]complex128, cfg.size),
	}

	if g := window.OverlapAddGain(win, cfg.hop); g > 1e-12 {
		e.norm = 1 / g
	}

	return e, nil
}

// Size returns the frame size.
func (e *Engine) Size() int { return e.size }

// Hop returns the hop size.
func (e *Engine) Hop() int { return e.hop }

// Bins returns the number of positive-frequency bins passed to processors.
func (e *Engine) Bins() int { return e.size/2 + 1 }

// Latency returns the input-to-output delay in samples.
func (e *Engine) Latency() int { return e.size }

// BinFrequency returns the centre frequency of bin k.
func (e *Engine) BinFrequency(k int, sampleRate float64) float64 {
	return float64(k) * sampleRate / float64(e.size)
}

// Errors returns how many frames were dropped because of FFT failures.
func (e *Engine) Errors() int { return e.errors }

// ProcessBlock runs buf through the engine in place. fp may be nil for an
// identity transform.
func (e *Engine) ProcessBlock(buf []float64, fp FrameProcessor) {
	for i, x := range buf {
		buf[i] = e.queue[e.pos]
		e.input[e.size-e.hop+e.pos] = x
		e.pos++

		if e.pos == e.hop {
			e.pos = 0
			e.runFrame(fp)
		}
	}
}

// Reset clears all buffered audio.
func (e *Engine) Reset() {
	clear(e.input)
	clear(e.accum)
	clear(e.queue)
	e.pos = 0
}

func (e *Engine) runFrame(fp FrameProcessor) {
	n, hop := e.size, e.hop

	for i := range n {
		e.spec[i] = complex(e.input[i]*e.win[i], 0)
	}

	if err := e.plan.Forward(e.spec, e.spec); err != nil {
		e.errors++
		e.advance()

		return
	}

	half := n / 2
	if fp != nil {
		fp.ProcessFrame(e.spec[:half+1])
	}

	e.spec[0] = complex(real(e.spec[0]), 0)
	e.spec[half] = complex(real(e.spec[half]), 0)

	for k := 1; k < half; k++ {
		v := e.spec[k]
		e.spec[n-k] = complex(real(v), -imag(v))
	}

	if err := e.plan.Inverse(e.frame, e.spec); err != nil {
		e.errors++
		e.advance()

		return
	}

	for i := range n {
		e.accum[i] += real(e.frame[i]) * e.win[i] * e.norm
	}

	copy(e.queue, e.accum[:hop])
	e.advance()
}

// advance shifts the input window and accumulator by one hop.
func (e *Engine) advance() {
	n, hop := e.size, e.hop

	copy(e.input, e.input[hop:])
	copy(e.accum, e.accum[hop:])
	clear(e.accum[n-hop:])
}
