package effectchain

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/cwbudde/bassforge/dsp/keytrack"
	"github.com/cwbudde/bassforge/dsp/module"
)

// Chain-level parameter indices.
const (
	paramRouting = iota
	paramFeedbackAmount
	paramFeedbackDamping
	paramHPFCutoff
	paramOutputGain
	paramDryWet
	paramKeyTrackMode
	paramKeyTrackAmount
	numChainParams
)

// maxFeedback keeps the loop gain below unity.
const maxFeedback = 0.99

// ErrUnknownParam is returned by SetParam for names no target accepts.
var ErrUnknownParam = errors.New("unknown parameter")

var chainParams = [numChainParams]module.ParamSpec{
	paramRouting: {
		Name: "routing", Min: 0, Max: float64(numRoutings - 1), Discrete: true,
		Choices: routingNames[:],
	},
	paramFeedbackAmount:  {Name: "feedbackAmount", Min: 0, Max: maxFeedback},
	paramFeedbackDamping: {Name: "feedbackDamping", Min: 500, Max: 15000, Default: 5000, Unit: "Hz"},
	paramHPFCutoff:       {Name: "hpfCutoff", Min: 20, Max: 1000, Default: 20, Unit: "Hz"},
	paramOutputGain:      {Name: "outputGain", Min: -20, Max: 12, Unit: "dB"},
	paramDryWet:          {Name: "dryWet", Min: 0, Max: 1, Default: 1},
	paramKeyTrackMode: {
		Name: "keyTrackMode", Min: 0, Max: float64(keytrack.ModeAverage), Discrete: true,
		Choices: []string{"latest", "highest", "lowest", "average"},
	},
	paramKeyTrackAmount: {Name: "keyTrackAmount", Min: 0, Max: 1, Default: 1},
}

// paramAliases maps alternative spellings onto chain parameters.
var paramAliases = map[string]int{
	"feedbackGain": paramFeedbackAmount,
}

// Params returns the chain-level parameter specs.
func (c *Chain) Params() []module.ParamSpec {
	return chainParams[:]
}

// SlotParams returns the parameter specs of the module in slot i.
func (c *Chain) SlotParams(i int) []module.ParamSpec {
	if checkSlot(i) != nil {
		return nil
	}

	if s := c.target(i); s != nil {
		return s.specs
	}

	return nil
}

// Param returns the current or staged value of a chain-level parameter.
func (c *Chain) Param(name string) (float64, bool) {
	i := chainParamIndex(name)
	if i < 0 {
		return 0, false
	}

	if v := c.pending[i]; !math.IsNaN(v) {
		return v, true
	}

	return c.values[i], true
}

func chainParamIndex(name string) int {
	for i := range chainParams {
		if chainParams[i].Name == name {
			return i
		}
	}

	if i, ok := paramAliases[name]; ok {
		return i
	}

	return -1
}

// SetParam validates name, clamps value and stages it for the next block.
// name is one of:
//
//   - a chain parameter such as "routing" or "outputGain"
//   - "slot<N>.<param>" addressing the module in slot N (1-based)
//   - a bare module parameter, sent to every slot that declares it
func (c *Chain) SetParam(name string, value float64) error {
	if i := chainParamIndex(name); i >= 0 {
		c.pending[i] = chainParams[i].Clamp(value)
		return nil
	}

	if idx, param, ok := splitSlotParam(name); ok {
		if err := checkSlot(idx); err != nil {
			return err
		}

		if !c.stageSlotParam(c.target(idx), param, value) {
			return fmt.Errorf("effectchain: slot %d: %w: %s", idx+1, ErrUnknownParam, param)
		}

		return nil
	}

	found := false
	for i := range NumSlots {
		if c.stageSlotParam(c.target(i), name, value) {
			found = true
		}
	}

	if !found {
		return fmt.Errorf("effectchain: %w: %s", ErrUnknownParam, name)
	}

	return nil
}

// SetParamLabel sets an enumerated parameter by its choice label.
func (c *Chain) SetParamLabel(name, label string) error {
	spec, ok := c.findSpec(name)
	if !ok {
		return fmt.Errorf("effectchain: %w: %s", ErrUnknownParam, name)
	}

	v, ok := spec.Choice(label)
	if !ok {
		return fmt.Errorf("effectchain: %s: unknown choice %q", name, label)
	}

	return c.SetParam(name, v)
}

// findSpec resolves the spec behind a SetParam name. Broadcast names
// resolve to the first slot that declares them.
func (c *Chain) findSpec(name string) (module.ParamSpec, bool) {
	if i := chainParamIndex(name); i >= 0 {
		return chainParams[i], true
	}

	if idx, param, ok := splitSlotParam(name); ok {
		if checkSlot(idx) != nil {
			return module.ParamSpec{}, false
		}

		if s := c.target(idx); s != nil {
			return module.FindParam(s.specs, param)
		}

		return module.ParamSpec{}, false
	}

	for i := range NumSlots {
		if s := c.target(i); s != nil {
			if p, ok := module.FindParam(s.specs, name); ok {
				return p, true
			}
		}
	}

	return module.ParamSpec{}, false
}

// splitSlotParam parses "slot<N>.<param>" into a 0-based index.
func splitSlotParam(name string) (int, string, bool) {
	head, param, ok := strings.Cut(name, ".")
	if !ok || param == "" {
		return 0, "", false
	}

	digits, ok := strings.CutPrefix(head, "slot")
	if !ok {
		return 0, "", false
	}

	n, err := strconv.Atoi(digits)
	if err != nil {
		return 0, "", false
	}

	return n - 1, param, true
}

func (c *Chain) stageSlotParam(s *slot, name string, value float64) bool {
	if s == nil || s.module == nil {
		return false
	}

	for i := range s.specs {
		if s.specs[i].Name == name {
			s.pending[i] = s.specs[i].Clamp(value)
			return true
		}
	}

	return false
}

// applyParams pushes staged values into the chain and its modules. It
// runs once per block on the audio thread.
func (c *Chain) applyParams() {
	for i := range numChainParams {
		v := c.pending[i]
		if math.IsNaN(v) {
			continue
		}

		c.pending[i] = math.NaN()
		if v == c.values[i] {
			continue
		}

		c.values[i] = v
		c.applyChainParam(i)
	}

	for _, s := range c.slots {
		if s == nil || s.module == nil {
			continue
		}

		for i, v := range s.pending {
			if math.IsNaN(v) {
				continue
			}

			s.pending[i] = math.NaN()
			s.module.ApplyParam(s.specs[i].Name, v)
		}
	}
}

func (c *Chain) applyChainParam(i int) {
	v := c.values[i]

	switch i {
	case paramRouting:
		r := Routing(v)
		if r != c.routing {
			c.routing = r
			c.clearFeedback()
		}
	case paramFeedbackDamping:
		c.configureDampers()
	case paramHPFCutoff:
		c.output.setCutoff(v)
	case paramOutputGain:
		c.output.setGainDB(v)
	case paramDryWet:
		c.output.mix = v
	case paramKeyTrackMode:
		c.tracker.SetMode(keytrack.Mode(v))
	case paramKeyTrackAmount:
		c.tracker.SetAmount(v)
	}
}

// SetRouting stages a routing change.
func (c *Chain) SetRouting(r Routing) error {
	if !r.Valid() {
		return fmt.Errorf("effectchain: invalid routing %d", int(r))
	}

	return c.SetParam("routing", float64(r))
}

func (c *Chain) clearFeedback() {
	for ch := range c.prev {
		clear(c.prev[ch])
	}

	c.prevLen = 0

	for ch := range c.dampers {
		c.dampers[ch].Reset()
	}
}
