package main

import (
	"errors"
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/cwbudde/bassforge/dsp/core"
	"github.com/cwbudde/bassforge/dsp/filter/weighting"
	"github.com/cwbudde/bassforge/dsp/spectrum"
	"github.com/cwbudde/bassforge/internal/wavio"
	"github.com/cwbudde/bassforge/measure/harmonics"
	"github.com/cwbudde/bassforge/measure/level"
)

type analyzeOptions struct {
	freqs       []float64
	weighting   string
	harmonics   bool
	fundamental float64
	fftSize     int
}

func newAnalyzeCmd() *cobra.Command {
	var (
		in   string
		opts analyzeOptions
	)

	cmd := &cobra.Command{
		Use:   "analyze",
		Short: "Report levels, tone probes and harmonic content of a WAV file",
		Long: `Analyze prints peak, RMS, crest factor, DC offset and a zero-crossing
pitch estimate per channel. --weighting adds an A or C weighted RMS column.
Each --freq adds a Goertzel level of the channel average and --harmonics
prints its harmonic profile.

Example:
  bassforge analyze --in wet.wav --weighting c --harmonics --freq 110`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := wavio.ReadFile(in)
			if err != nil {
				return err
			}

			return analyze(cmd.OutOrStdout(), a, opts)
		},
	}

	f := cmd.Flags()
	f.StringVarP(&in, "in", "i", "", "Input WAV file")
	f.Float64SliceVarP(&opts.freqs, "freq", "f", nil, "Probe frequency in Hz (repeatable)")
	f.StringVarP(&opts.weighting, "weighting", "w", "z", "Weighted RMS column: a, c or z (none)")
	f.BoolVar(&opts.harmonics, "harmonics", false, "Print the harmonic profile of the channel average")
	f.Float64Var(&opts.fundamental, "fundamental", 0, "Fundamental for --harmonics in Hz (0 searches 20 Hz-1 kHz)")
	f.IntVar(&opts.fftSize, "fft-size", 16384, "FFT size for --harmonics (power of two)")
	_ = cmd.MarkFlagRequired("in")

	return cmd
}

func analyze(w io.Writer, a *wavio.Audio, opts analyzeOptions) error {
	wt, err := weighting.ParseType(opts.weighting)
	if err != nil {
		return err
	}

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)

	fmt.Fprintf(tw, "file\t%g Hz\t%d bit\t%d frames\n", a.SampleRate, a.BitDepth, a.Frames())

	header := "CHANNEL\tPEAK dBFS\tRMS dBFS\tCREST dB\tDC\tZC Hz"
	if wt != weighting.TypeZ {
		header += fmt.Sprintf("\tRMS dB(%v)", wt)
	}

	fmt.Fprintln(tw, header)

	for ch, data := range a.Channels {
		s := level.Calculate(data)
		fmt.Fprintf(tw, "%d\t%.2f\t%.2f\t%.2f\t%+.4f\t%.1f", ch+1,
			s.PeakDB(), s.RMSDB(), s.CrestDB(), s.DC, s.ZeroCrossingRate(a.SampleRate))

		if wt != weighting.TypeZ {
			db, err := weightedRMS(wt, data, a.SampleRate)
			if err != nil {
				return err
			}

			fmt.Fprintf(tw, "\t%.2f", db)
		}

		fmt.Fprintln(tw)
	}

	mono := a.Mono()

	if len(opts.freqs) > 0 {
		bank, err := spectrum.NewBank(opts.freqs, a.SampleRate)
		if err != nil {
			return err
		}

		bank.Process(mono)

		fmt.Fprintln(tw, "FREQ Hz\tLEVEL dB")

		for _, p := range bank.Probes() {
			fmt.Fprintf(tw, "%.1f\t%.2f\n", p.Frequency(), p.LevelDB())
		}
	}

	if opts.harmonics {
		if err := harmonicReport(tw, mono, a.SampleRate, opts); err != nil {
			return err
		}
	}

	return tw.Flush()
}

func weightedRMS(t weighting.Type, data []float64, sampleRate float64) (float64, error) {
	filter, err := weighting.New(t, sampleRate)
	if err != nil {
		return 0, err
	}

	var m level.Meter

	block := make([]float64, 1024)
	for off := 0; off < len(data); off += len(block) {
		n := copy(block, data[off:])
		filter.ProcessBlock(block[:n])
		m.Update(block[:n])
	}

	return m.Stats().RMSDB(), nil
}

func harmonicReport(w io.Writer, mono []float64, sampleRate float64, opts analyzeOptions) error {
	var hopts []harmonics.Option
	if opts.fundamental > 0 {
		hopts = append(hopts, harmonics.WithFundamental(opts.fundamental))
	}

	an, err := harmonics.NewAnalyzer(sampleRate, opts.fftSize, hopts...)
	if err != nil {
		return err
	}

	// skip the attack when the file is long enough
	start := 0
	if len(mono) > 2*an.Size() {
		start = len(mono)/2 - an.Size()/2
	}

	p, err := an.Analyze(mono[start:])
	if errors.Is(err, harmonics.ErrNoSignal) {
		fmt.Fprintln(w, "harmonics\tno fundamental found")
		return nil
	}

	if err != nil {
		return err
	}

	fmt.Fprintf(w, "fundamental\t%.2f Hz\t%.2f dBFS\n", p.Fundamental, core.LinearToDB(p.Level))
	fmt.Fprintf(w, "THD\t%.2f %%\t%.2f dB\n", 100*p.THD, p.THDDB())
	fmt.Fprintf(w, "odd/even\t%.2f dB\t%.2f dB\n", core.LinearToDB(p.Odd), core.LinearToDB(p.Even))
	fmt.Fprintln(w, "HARMONIC\tRELATIVE dB")

	for i, r := range p.Harmonics {
		fmt.Fprintf(w, "H%d\t%.2f\n", i+2, core.LinearToDB(r))
	}

	return nil
}
