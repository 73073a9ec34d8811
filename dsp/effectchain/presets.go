package effectchain

import (
	"errors"
	"fmt"
	"strings"
)

// ErrUnknownPreset is returned by LookupPreset.
var ErrUnknownPreset = errors.New("effectchain: unknown preset")

// Preset is a named factory configuration.
type Preset struct {
	Name        string
	Description string
	Config      Config
}

func ptr(v float64) *float64 { return &v }

// Every preset runs comb stack, formant, distortion and bitcrush in that
// order. They differ in comb density, drive character and output trim.
func presetSlots(count, delay, feedback, lfoRate, lfoDepth, formant float64,
	algorithm string, drive, bits float64,
) []SlotConfig {
	return []SlotConfig{
		{Type: "comb-stack", Params: map[string]any{
			"count": count, "delay": delay, "feedback": feedback,
			"lfoRate": lfoRate, "lfoDepth": lfoDepth, "keyTrack": 1.0,
		}},
		{Type: "formant", Params: map[string]any{"baseFreq": formant}},
		{Type: "distortion", Params: map[string]any{"algorithm": algorithm, "drive": drive}},
		{Type: "bitcrush", Params: map[string]any{"bits": bits, "filterCutoff": 12000.0}},
	}
}

// Presets returns the built-in presets. The slice is freshly built on every
// call, so callers may modify it.
func Presets() []Preset {
	return []Preset{
		{
			Name:        "dubstep-wobble",
			Description: "slow deep comb sweep into a light wavefold",
			Config: Config{
				Routing:  RoutingSerial.String(),
				Output:   &OutputConfig{GainDB: ptr(0), HPF: ptr(40), DryWet: ptr(1)},
				KeyTrack: &KeyTrackConfig{Mode: "latest", Amount: ptr(1)},
				Slots:    presetSlots(6, 2, 0.8, 0.5, 0.7, 300, "fold", 6, 14),
			},
		},
		{
			Name:        "trap-forge",
			Description: "fast shallow combs and hot soft clipping",
			Config: Config{
				Routing:  RoutingSerial.String(),
				Output:   &OutputConfig{GainDB: ptr(-3), HPF: ptr(60), DryWet: ptr(1)},
				KeyTrack: &KeyTrackConfig{Mode: "latest", Amount: ptr(1)},
				Slots:    presetSlots(4, 1.5, 0.6, 2, 0.4, 500, "soft", 18, 12),
			},
		},
		{
			Name:        "neurofunk",
			Description: "dense resonant combs with damped chain feedback",
			Config: Config{
				Routing:  RoutingFeedback.String(),
				Feedback: &FeedbackConfig{Amount: ptr(0.3), Damping: ptr(3000)},
				Output:   &OutputConfig{GainDB: ptr(-2), HPF: ptr(50), DryWet: ptr(1)},
				KeyTrack: &KeyTrackConfig{Mode: "highest", Amount: ptr(1)},
				Slots:    presetSlots(8, 1, 0.9, 1.5, 0.8, 350, "fold", 12, 13),
			},
		},
		{
			Name:        "bass-house",
			Description: "wide comb chorus and moderate drive",
			Config: Config{
				Routing:  RoutingSerial.String(),
				Output:   &OutputConfig{GainDB: ptr(1), HPF: ptr(35), DryWet: ptr(1)},
				KeyTrack: &KeyTrackConfig{Mode: "latest", Amount: ptr(0.8)},
				Slots:    presetSlots(5, 3, 0.7, 0.8, 0.5, 400, "soft", 12, 14),
			},
		},
	}
}

// LookupPreset finds a preset by name. Case, spaces and underscores are
// ignored, so "Dubstep Wobble" finds "dubstep-wobble".
func LookupPreset(name string) (Preset, error) {
	key := presetKey(name)
	for _, p := range Presets() {
		if presetKey(p.Name) == key {
			return p, nil
		}
	}

	return Preset{}, fmt.Errorf("%w %q", ErrUnknownPreset, name)
}

// LoadPreset applies the named preset to the chain.
func (c *Chain) LoadPreset(name string) error {
	p, err := LookupPreset(name)
	if err != nil {
		return err
	}

	if err := c.ApplyConfig(&p.Config); err != nil {
		return fmt.Errorf("effectchain: preset %s: %w", p.Name, err)
	}

	c.logger.Info("preset loaded", "name", p.Name)

	return nil
}

func presetKey(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	return strings.NewReplacer(" ", "-", "_", "-").Replace(s)
}
