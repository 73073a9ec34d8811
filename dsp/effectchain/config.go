package effectchain

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"os"
	"strconv"
	"strings"

	"github.com/cwbudde/bassforge/dsp/keytrack"
	"github.com/cwbudde/bassforge/dsp/module"
)

// Config is the JSON form of a chain setup.
type Config struct {
	Routing  string          `json:"routing,omitempty"`
	Feedback *FeedbackConfig `json:"feedback,omitempty"`
	Output   *OutputConfig   `json:"output,omitempty"`
	KeyTrack *KeyTrackConfig `json:"keyTrack,omitempty"`
	Slots    []SlotConfig    `json:"slots"`
}

// FeedbackConfig holds the feedback routing controls.
type FeedbackConfig struct {
	Amount  *float64 `json:"amount,omitempty"`
	Damping *float64 `json:"damping,omitempty"`
}

// OutputConfig holds the output stage controls.
type OutputConfig struct {
	GainDB *float64 `json:"gainDb,omitempty"`
	HPF    *float64 `json:"hpf,omitempty"`
	DryWet *float64 `json:"dryWet,omitempty"`
}

// KeyTrackConfig holds the key tracker controls.
type KeyTrackConfig struct {
	Mode   string   `json:"mode,omitempty"`
	Amount *float64 `json:"amount,omitempty"`
}

// SlotConfig describes one slot. An empty Type leaves the slot empty.
type SlotConfig struct {
	Type     string         `json:"type,omitempty"`
	Bypassed bool           `json:"bypassed,omitempty"`
	Params   map[string]any `json:"params,omitempty"`
}

// ParamReader is implemented by modules that report their current
// parameter values. Config uses it to export slot settings.
type ParamReader interface {
	Param(name string) (float64, bool)
}

// ParseConfig decodes a JSON chain configuration.
func ParseConfig(data []byte) (*Config, error) {
	var cfg Config

	err := json.Unmarshal(data, &cfg)
	if err != nil {
		return nil, fmt.Errorf("effectchain: invalid config json: %w", err)
	}

	if len(cfg.Slots) > NumSlots {
		return nil, fmt.Errorf("effectchain: %d slots configured, at most %d supported", len(cfg.Slots), NumSlots)
	}

	return &cfg, nil
}

// LoadConfig parses data and applies it to the chain.
func (c *Chain) LoadConfig(data []byte) error {
	cfg, err := ParseConfig(data)
	if err != nil {
		return err
	}

	return c.ApplyConfig(cfg)
}

// LoadConfigFile reads and applies a JSON configuration file.
func (c *Chain) LoadConfigFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("effectchain: read config: %w", err)
	}

	err = c.LoadConfig(data)
	if err != nil {
		return fmt.Errorf("%s: %w", path, err)
	}

	c.logger.Info("chain config loaded", "path", path)

	return nil
}

type stagedSlot struct {
	moduleType string
	module     module.Module
	bypassed   bool
	values     map[string]float64
}

// ApplyConfig validates cfg completely, then stages the slots and
// parameters it describes. Slots not listed in cfg are cleared. A config
// that fails validation leaves the chain unchanged.
func (c *Chain) ApplyConfig(cfg *Config) error {
	if cfg == nil {
		return errors.New("effectchain: nil config")
	}

	if len(cfg.Slots) > NumSlots {
		return fmt.Errorf("effectchain: %d slots configured, at most %d supported", len(cfg.Slots), NumSlots)
	}

	chainValues, err := cfg.chainValues()
	if err != nil {
		return err
	}

	var built [NumSlots]stagedSlot

	for i, sc := range cfg.Slots {
		if sc.Type == "" {
			continue
		}

		m, err := c.registry.New(sc.Type)
		if err != nil {
			return fmt.Errorf("effectchain: slot %d (%s): %w", i+1, sc.Type, err)
		}

		values, err := parseSlotParams(m.Params(), sc.Params)
		if err != nil {
			return fmt.Errorf("effectchain: slot %d (%s): %w", i+1, sc.Type, err)
		}

		built[i] = stagedSlot{moduleType: sc.Type, module: m, bypassed: sc.Bypassed, values: values}
	}

	for i := range built {
		b := built[i]
		if err := c.stage(i, b.moduleType, b.module); err != nil {
			return err
		}

		s := c.target(i)
		s.bypassed = b.bypassed

		for name, v := range b.values {
			c.stageSlotParam(s, name, v)
		}
	}

	for i, v := range chainValues {
		if !isUnset(v) {
			c.pending[i] = chainParams[i].Clamp(v)
		}
	}

	c.logger.Debug("chain config applied", "routing", cfg.Routing, "slots", len(cfg.Slots))

	return nil
}

// chainValues resolves the chain-level settings. Unset entries are NaN.
func (cfg *Config) chainValues() ([numChainParams]float64, error) {
	var out [numChainParams]float64
	for i := range out {
		out[i] = unset()
	}

	if cfg.Routing != "" {
		r, err := ParseRouting(cfg.Routing)
		if err != nil {
			return out, err
		}

		out[paramRouting] = float64(r)
	}

	if f := cfg.Feedback; f != nil {
		setOpt(&out[paramFeedbackAmount], f.Amount)
		setOpt(&out[paramFeedbackDamping], f.Damping)
	}

	if o := cfg.Output; o != nil {
		setOpt(&out[paramOutputGain], o.GainDB)
		setOpt(&out[paramHPFCutoff], o.HPF)
		setOpt(&out[paramDryWet], o.DryWet)
	}

	if k := cfg.KeyTrack; k != nil {
		if k.Mode != "" {
			m, err := keytrack.ParseMode(k.Mode)
			if err != nil {
				return out, fmt.Errorf("effectchain: %w", err)
			}

			out[paramKeyTrackMode] = float64(m)
		}

		setOpt(&out[paramKeyTrackAmount], k.Amount)
	}

	return out, nil
}

func setOpt(dst *float64, v *float64) {
	if v != nil {
		*dst = *v
	}
}

// parseSlotParams converts raw JSON values against the module's specs:
// numbers pass through, bools become 0/1, strings name a choice or hold a
// number.
func parseSlotParams(specs []module.ParamSpec, raw map[string]any) (map[string]float64, error) {
	out := make(map[string]float64, len(raw))

	for name, v := range raw {
		spec, ok := module.FindParam(specs, name)
		if !ok {
			return nil, fmt.Errorf("%w: %s", ErrUnknownParam, name)
		}

		switch t := v.(type) {
		case float64:
			out[name] = t
		case bool:
			if t {
				out[name] = 1
			} else {
				out[name] = 0
			}
		case string:
			if f, ok := spec.Choice(t); ok {
				out[name] = f
				continue
			}

			f, err := strconv.ParseFloat(strings.TrimSpace(t), 64)
			if err != nil {
				return nil, fmt.Errorf("param %s: unknown choice %q", name, t)
			}

			out[name] = f
		default:
			return nil, fmt.Errorf("param %s: unsupported value %v", name, v)
		}
	}

	return out, nil
}

// Config exports the chain's current setup, including staged changes.
// Enumerated values are written as labels.
func (c *Chain) Config() *Config {
	value := func(i int) *float64 {
		v, _ := c.Param(chainParams[i].Name)
		return &v
	}

	mode, _ := c.Param("keyTrackMode")
	routing, _ := c.Param("routing")

	cfg := &Config{
		Routing: Routing(routing).String(),
		Feedback: &FeedbackConfig{
			Amount:  value(paramFeedbackAmount),
			Damping: value(paramFeedbackDamping),
		},
		Output: &OutputConfig{
			GainDB: value(paramOutputGain),
			HPF:    value(paramHPFCutoff),
			DryWet: value(paramDryWet),
		},
		KeyTrack: &KeyTrackConfig{
			Mode:   keytrack.Mode(mode).String(),
			Amount: value(paramKeyTrackAmount),
		},
	}

	last := -1
	for i := range NumSlots {
		if s := c.target(i); s != nil && s.module != nil {
			last = i
		}
	}

	for i := 0; i <= last; i++ {
		cfg.Slots = append(cfg.Slots, slotConfig(c.target(i)))
	}

	return cfg
}

func slotConfig(s *slot) SlotConfig {
	if s == nil || s.module == nil {
		return SlotConfig{}
	}

	sc := SlotConfig{Type: s.moduleType, Bypassed: s.bypassed, Params: map[string]any{}}
	pr, _ := s.module.(ParamReader)

	for i, spec := range s.specs {
		v := s.pending[i]
		if isUnset(v) {
			if pr == nil {
				continue
			}

			cur, ok := pr.Param(spec.Name)
			if !ok {
				continue
			}

			v = cur
		}

		if label := spec.Label(v); label != "" {
			sc.Params[spec.Name] = label
		} else {
			sc.Params[spec.Name] = v
		}
	}

	return sc
}

func unset() float64 { return math.NaN() }

func isUnset(v float64) bool { return math.IsNaN(v) }
