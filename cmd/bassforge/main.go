// Command bassforge renders audio files through a bass effects chain and
// inspects the available modules.
//
// Examples:
//
//	bassforge modules
//	bassforge presets
//	bassforge render --in di.wav --out wet.wav --config chain.json --note 36
//	bassforge render -i di.wav -o wet.wav --routing parallel --param slot1.depth=6
//	bassforge analyze --in wet.wav --weighting c --harmonics --freq 100
package main

import (
	"log/slog"
	"os"

	"github.com/spf13/cobra"
)

var version = "0.1.0"

var (
	verbose bool
	logger  = slog.Default()
)

// initLogger configures the shared text logger on stderr.
func initLogger(debug bool) {
	level := slog.LevelInfo
	if debug {
		level = slog.LevelDebug
	}

	h := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})
	logger = slog.New(h)
	slog.SetDefault(logger)
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "bassforge",
		Short: "Modular bass effects chain",
		Long: `bassforge runs audio through four module slots (fractal and spectral
filters, resonators, distortions) combined in serial, parallel, mid/side
or feedback routing, with key tracking driven by MIDI notes.`,
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(*cobra.Command, []string) {
			initLogger(verbose)
		},
	}

	root.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Debug logging")

	root.AddCommand(newRenderCmd())
	root.AddCommand(newModulesCmd())
	root.AddCommand(newPresetsCmd())
	root.AddCommand(newAnalyzeCmd())

	return root
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		logger.Error("bassforge failed", "err", err)
		os.Exit(1)
	}
}
