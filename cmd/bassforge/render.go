package main

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/cwbudde/algo-vecmath"
	"github.com/spf13/cobra"
	"gitlab.com/gomidi/midi/v2"

	"github.com/cwbudde/bassforge/dsp/core"
	"github.com/cwbudde/bassforge/dsp/dither"
	"github.com/cwbudde/bassforge/dsp/effectchain"
	"github.com/cwbudde/bassforge/dsp/keytrack"
	"github.com/cwbudde/bassforge/dsp/module"
	"github.com/cwbudde/bassforge/internal/wavio"
)

type renderOptions struct {
	in         string
	out        string
	config     string
	preset     string
	routing    string
	notes      []int
	params     []string
	sample     string
	blockSize  int
	bits       int
	ditherType string
	shelf      float64
	seed       uint64
}

func newRenderCmd() *cobra.Command {
	var opts renderOptions

	cmd := &cobra.Command{
		Use:   "render",
		Short: "Render a WAV file through the chain",
		Long: `Render decodes the input, runs it through the configured chain block by
block and writes the result with dither.

Notes given with --note are sent as MIDI note-on messages before the
first block, so key-tracked modules follow them.

Examples:
  bassforge render --in di.wav --out wet.wav --config chain.json
  bassforge render -i di.wav -o wet.wav --preset neurofunk --note 31
  bassforge render -i di.wav -o wet.wav --routing feedback --param feedbackAmount=0.6
  bassforge render -i di.wav -o wet.wav --config morph.json --sample pad.wav`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runRender(opts)
		},
	}

	f := cmd.Flags()
	f.StringVarP(&opts.in, "in", "i", "", "Input WAV file")
	f.StringVarP(&opts.out, "out", "o", "", "Output WAV file")
	f.StringVarP(&opts.config, "config", "c", "", "Chain configuration JSON")
	f.StringVar(&opts.preset, "preset", "", "Built-in preset applied before --config (see 'bassforge presets')")
	f.StringVar(&opts.routing, "routing", "", "Override routing (serial, parallel, midside, feedback)")
	f.IntSliceVarP(&opts.notes, "note", "n", nil, "MIDI note held from the start (repeatable)")
	f.StringArrayVarP(&opts.params, "param", "p", nil, "Parameter override name=value (repeatable)")
	f.StringVar(&opts.sample, "sample", "", "WAV file loaded into every slot that accepts samples")
	f.IntVar(&opts.blockSize, "block-size", 512, "Processing block size")
	f.IntVar(&opts.bits, "bits", 16, "Output bit depth (16, 24, 32)")
	f.StringVar(&opts.ditherType, "dither", "tpdf", "Dither type (none, rpdf, tpdf)")
	f.Float64Var(&opts.shelf, "shelf", 0, "Noise-shaping shelf frequency in Hz (0 disables)")
	f.Uint64Var(&opts.seed, "seed", 1, "Dither noise seed")

	_ = cmd.MarkFlagRequired("in")
	_ = cmd.MarkFlagRequired("out")

	return cmd
}

func runRender(opts renderOptions) error {
	if opts.blockSize <= 0 {
		return fmt.Errorf("block size must be positive: %d", opts.blockSize)
	}

	dt, err := dither.ParseType(opts.ditherType)
	if err != nil {
		return err
	}

	in, err := wavio.ReadFile(opts.in)
	if err != nil {
		return err
	}

	logger.Info("input loaded",
		"path", opts.in,
		"sampleRate", in.SampleRate,
		"channels", len(in.Channels),
		"frames", in.Frames())

	chain := effectchain.New(nil, effectchain.WithLogger(logger))

	if err := configureChain(chain, opts); err != nil {
		return err
	}

	spec := module.SpecFromConfig(core.ApplyProcessorOptions(
		core.WithSampleRate(in.SampleRate),
		core.WithBlockSize(opts.blockSize),
		core.WithChannels(len(in.Channels)),
	))

	if err := chain.Prepare(spec); err != nil {
		return err
	}

	if opts.sample != "" {
		if err := loadSample(chain, opts.sample); err != nil {
			return err
		}
	}

	events, err := noteEvents(opts.notes)
	if err != nil {
		return err
	}

	if tail := renderInPlace(chain, in, opts.blockSize, events); tail > 0 {
		logger.Debug("latency tail rendered", "frames", tail)
	}

	peak := 0.0
	for _, ch := range in.Channels {
		peak = max(peak, vecmath.MaxAbs(ch))
	}

	in.BitDepth = opts.bits

	clips, err := wavio.WriteFile(opts.out, in,
		dither.WithType(dt),
		dither.WithShelf(opts.shelf),
		dither.WithSeed(opts.seed),
	)
	if err != nil {
		return err
	}

	logger.Info("render complete",
		"path", opts.out,
		"peakDb", core.LinearToDB(peak),
		"clipped", clips)

	if clips > 0 {
		logger.Warn("output clipped; lower outputGain", "samples", clips)
	}

	return nil
}

// configureChain applies preset, config file, routing and parameter
// overrides in that order. A config file replaces the preset's slots.
func configureChain(chain *effectchain.Chain, opts renderOptions) error {
	if opts.preset != "" {
		if err := chain.LoadPreset(opts.preset); err != nil {
			return err
		}
	}

	if opts.config != "" {
		if err := chain.LoadConfigFile(opts.config); err != nil {
			return err
		}
	}

	if opts.routing != "" {
		r, err := effectchain.ParseRouting(opts.routing)
		if err != nil {
			return err
		}

		if err := chain.SetRouting(r); err != nil {
			return err
		}
	}

	for _, p := range opts.params {
		if err := applyParam(chain, p); err != nil {
			return err
		}
	}

	return nil
}

// applyParam handles one name=value override. Values that do not parse as
// numbers are treated as choice labels.
func applyParam(chain *effectchain.Chain, arg string) error {
	name, value, ok := strings.Cut(arg, "=")
	if !ok || name == "" || value == "" {
		return fmt.Errorf("invalid --param %q, want name=value", arg)
	}

	if v, err := strconv.ParseFloat(value, 64); err == nil {
		return chain.SetParam(name, v)
	}

	return chain.SetParamLabel(name, value)
}

func loadSample(chain *effectchain.Chain, path string) error {
	sample, err := wavio.ReadFile(path)
	if err != nil {
		return err
	}

	mono := sample.Mono()
	loaded := 0

	for i := range effectchain.NumSlots {
		err := chain.LoadSample(i, mono, sample.SampleRate)
		if errors.Is(err, effectchain.ErrUnsupported) {
			continue
		}

		if err != nil {
			return err
		}

		loaded++

		logger.Debug("sample loaded", "slot", i+1, "type", chain.SlotType(i), "path", path)
	}

	if loaded == 0 {
		logger.Warn("no slot accepts samples", "path", path)
	}

	return nil
}

// noteEvents converts held notes to tracker events via MIDI note-on
// messages.
func noteEvents(notes []int) ([]keytrack.Event, error) {
	msgs := make([]midi.Message, 0, len(notes))

	for _, n := range notes {
		if n < 0 || n > 127 {
			return nil, fmt.Errorf("note out of range: %d", n)
		}

		msgs = append(msgs, midi.NoteOn(0, uint8(n), 100))
	}

	return keytrack.EventsFromMIDI(msgs, nil), nil
}

// renderInPlace processes a's channels block by block. Events are
// delivered with the first block. Silence matching the chain latency is
// appended and rendered so delayed output is not cut off; it returns the
// number of tail frames.
func renderInPlace(chain *effectchain.Chain, a *wavio.Audio, blockSize int, events []keytrack.Event) int {
	frames := a.Frames()
	buf := make(module.Buffer, len(a.Channels))

	run := func(from, to int) {
		for off := from; off < to; off += blockSize {
			end := min(to, off+blockSize)
			for ch := range buf {
				buf[ch] = a.Channels[ch][off:end]
			}

			chain.ProcessBlock(buf, events)
			events = nil
		}
	}

	run(0, frames)

	tail := chain.Latency()
	if tail > 0 {
		a.Pad(tail)
		run(frames, frames+tail)
	}

	return tail
}
