package effectchain

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math"

	"github.com/cwbudde/bassforge/dsp/filter/onepole"
	"github.com/cwbudde/bassforge/dsp/keytrack"
	"github.com/cwbudde/bassforge/dsp/module"
)

// NumSlots is the number of module slots in a chain.
const NumSlots = 4

var (
	// ErrUnknownModule is returned when a slot references an unregistered
	// module type.
	ErrUnknownModule = errors.New("unknown module type")
	// ErrSlotIndex is returned for slot indices outside [0, NumSlots).
	ErrSlotIndex = errors.New("slot index out of range")
	// ErrNotPrepared is returned by operations that need a prepared chain.
	ErrNotPrepared = errors.New("chain not prepared")
	// ErrUnsupported is returned when a slot's module lacks an optional
	// capability such as sample loading.
	ErrUnsupported = errors.New("operation not supported by module")
)

// slot owns at most one module together with its staged parameter
// values. A NaN entry in pending means nothing is staged.
type slot struct {
	module     module.Module
	moduleType string
	bypassed   bool
	prepared   bool
	specs      []module.ParamSpec
	pending    []float64
}

func newSlot(moduleType string, m module.Module) *slot {
	s := &slot{module: m, moduleType: moduleType}
	if m != nil {
		s.specs = m.Params()
		s.pending = make([]float64, len(s.specs))
		for i := range s.pending {
			s.pending[i] = math.NaN()
		}
	}

	return s
}

func (s *slot) active() bool {
	return s != nil && s.module != nil && s.prepared && !s.bypassed
}

// Option configures a Chain.
type Option func(*Chain)

// WithLogger sets the logger for setup events. The audio path only logs
// the one-time mid/side fallback.
func WithLogger(l *slog.Logger) Option {
	return func(c *Chain) {
		if l != nil {
			c.logger = l
		}
	}
}

// WithTracker shares an existing key tracker instead of creating one.
func WithTracker(t *keytrack.Tracker) Option {
	return func(c *Chain) {
		if t != nil {
			c.tracker = t
		}
	}
}

// Chain owns four module slots, routes audio through them, and applies
// the output stage. Setup methods (Prepare, LoadSlot, SetParam, ...) must
// not run concurrently with ProcessBlock; slot swaps and parameter values
// are staged and take effect at the start of the next block.
type Chain struct {
	registry *Registry
	logger   *slog.Logger
	tracker  *keytrack.Tracker

	slots  [NumSlots]*slot
	staged [NumSlots]*slot
	swap   [NumSlots]bool

	values  [numChainParams]float64
	pending [numChainParams]float64
	routing Routing

	spec     module.Spec
	prepared bool

	view       module.Buffer
	branchView module.Buffer
	dry        module.Buffer
	branch     module.Buffer
	mid        []float64
	side       []float64
	midView    module.Buffer
	sideView   module.Buffer
	prev       module.Buffer
	prevLen    int
	dampers    []onepole.LowPass

	output        outputStage
	midSideWarned bool
}

// New creates a Chain that builds modules from registry. A nil registry
// uses DefaultRegistry.
func New(registry *Registry, opts ...Option) *Chain {
	if registry == nil {
		registry = DefaultRegistry()
	}

	c := &Chain{
		registry: registry,
		logger:   slog.New(slog.NewTextHandler(io.Discard, nil)),
	}

	for _, opt := range opts {
		if opt != nil {
			opt(c)
		}
	}

	if c.tracker == nil {
		c.tracker = keytrack.New()
	}

	for i, p := range chainParams {
		c.values[i] = p.Default
		c.pending[i] = math.NaN()
	}

	c.values[paramKeyTrackMode] = float64(c.tracker.Mode())
	c.values[paramKeyTrackAmount] = c.tracker.Amount()

	for i := range numChainParams {
		c.applyChainParam(i)
	}

	return c
}

// Tracker returns the chain's key tracker.
func (c *Chain) Tracker() *keytrack.Tracker { return c.tracker }

// Registry returns the registry used by LoadSlot.
func (c *Chain) Registry() *Registry { return c.registry }

// Spec returns the prepared audio configuration.
func (c *Chain) Spec() module.Spec { return c.spec }

// Prepared reports whether Prepare succeeded.
func (c *Chain) Prepared() bool { return c.prepared }

// Routing returns the active routing.
func (c *Chain) Routing() Routing { return c.routing }

// Prepare sizes every buffer for spec and prepares all loaded modules.
// It is the only place the chain allocates audio buffers.
func (c *Chain) Prepare(spec module.Spec) error {
	if err := spec.Validate(); err != nil {
		return fmt.Errorf("effectchain: %w", err)
	}

	c.prepared = false
	c.spec = spec

	for i := range NumSlots {
		for _, s := range []*slot{c.slots[i], c.staged[i]} {
			if err := c.prepareSlot(i, s); err != nil {
				return err
			}
		}
	}

	c.view = make(module.Buffer, 0, spec.Channels)
	c.branchView = make(module.Buffer, 0, spec.Channels)
	c.dry = module.NewBuffer(spec.Channels, spec.MaxBlockSize)
	c.branch = module.NewBuffer(spec.Channels, spec.MaxBlockSize)
	c.mid = make([]float64, spec.MaxBlockSize)
	c.side = make([]float64, spec.MaxBlockSize)
	c.midView = make(module.Buffer, 1)
	c.sideView = make(module.Buffer, 1)
	c.prev = module.NewBuffer(spec.Channels, spec.MaxBlockSize)
	c.prevLen = 0
	c.dampers = make([]onepole.LowPass, spec.Channels)
	c.configureDampers()
	c.output.prepare(spec)
	c.midSideWarned = false
	c.prepared = true

	c.logger.Debug("chain prepared",
		"sampleRate", spec.SampleRate,
		"maxBlockSize", spec.MaxBlockSize,
		"channels", spec.Channels)

	return nil
}

func (c *Chain) prepareSlot(i int, s *slot) error {
	if s == nil || s.module == nil {
		return nil
	}

	if err := s.module.Prepare(c.spec); err != nil {
		s.prepared = false
		return fmt.Errorf("effectchain: slot %d (%s): %w", i, s.moduleType, err)
	}

	s.prepared = true

	return nil
}

func (c *Chain) configureDampers() {
	for ch := range c.dampers {
		c.dampers[ch].Configure(c.values[paramFeedbackDamping], c.spec.SampleRate)
	}
}

func checkSlot(i int) error {
	if i < 0 || i >= NumSlots {
		return fmt.Errorf("effectchain: %w: %d", ErrSlotIndex, i)
	}

	return nil
}

// target returns the slot that the next block will see.
func (c *Chain) target(i int) *slot {
	if c.swap[i] {
		return c.staged[i]
	}

	return c.slots[i]
}

// LoadSlot builds a module from the registry and stages it into slot i.
func (c *Chain) LoadSlot(i int, moduleType string) error {
	if err := checkSlot(i); err != nil {
		return err
	}

	m, err := c.registry.New(moduleType)
	if err != nil {
		return fmt.Errorf("effectchain: slot %d: %w", i, err)
	}

	return c.stage(i, moduleType, m)
}

// SetSlot stages m into slot i. A nil module clears the slot.
func (c *Chain) SetSlot(i int, m module.Module) error {
	if err := checkSlot(i); err != nil {
		return err
	}

	name := ""
	if m != nil {
		name = m.Name()
	}

	return c.stage(i, name, m)
}

// ClearSlot stages an empty slot i.
func (c *Chain) ClearSlot(i int) error {
	return c.SetSlot(i, nil)
}

func (c *Chain) stage(i int, moduleType string, m module.Module) error {
	s := newSlot(moduleType, m)
	if c.prepared {
		if err := c.prepareSlot(i, s); err != nil {
			return err
		}
	}

	c.staged[i] = s
	c.swap[i] = true

	c.logger.Debug("slot staged", "slot", i, "type", moduleType)

	return nil
}

// Slot returns the module the next block will run in slot i, or nil.
func (c *Chain) Slot(i int) module.Module {
	if checkSlot(i) != nil {
		return nil
	}

	if s := c.target(i); s != nil {
		return s.module
	}

	return nil
}

// SlotType returns the registry type of slot i, or "".
func (c *Chain) SlotType(i int) string {
	if checkSlot(i) != nil {
		return ""
	}

	if s := c.target(i); s != nil {
		return s.moduleType
	}

	return ""
}

// SetBypassed toggles pass-through for slot i.
func (c *Chain) SetBypassed(i int, bypassed bool) error {
	if err := checkSlot(i); err != nil {
		return err
	}

	if s := c.target(i); s != nil {
		s.bypassed = bypassed
	}

	return nil
}

// Bypassed reports whether slot i is bypassed.
func (c *Chain) Bypassed(i int) bool {
	if checkSlot(i) != nil {
		return false
	}

	s := c.target(i)

	return s != nil && s.bypassed
}

// Latency returns the summed lag of the active, non-bypassed slots as the
// next block will see them. With parallel routing this overstates the lag
// of the slowest branch, which is enough to size a render tail.
func (c *Chain) Latency() int {
	total := 0

	for i := range NumSlots {
		s := c.target(i)
		if s == nil || s.module == nil || s.bypassed {
			continue
		}

		if l, ok := s.module.(module.LatencyReporter); ok {
			total += l.Latency()
		}
	}

	return total
}

// commit swaps staged slots in. It runs at the start of a block.
func (c *Chain) commit() {
	for i := range NumSlots {
		if !c.swap[i] {
			continue
		}

		c.slots[i] = c.staged[i]
		c.staged[i] = nil
		c.swap[i] = false
	}
}

// Reset clears module state, feedback memory and the output stage.
func (c *Chain) Reset() {
	c.commit()

	for _, s := range c.slots {
		if s != nil && s.module != nil && s.prepared {
			s.module.Reset()
		}
	}

	c.clearFeedback()
	c.output.reset()
}

// slotModule returns the module the next block will run in slot i.
func (c *Chain) slotModule(i int) (module.Module, error) {
	if err := checkSlot(i); err != nil {
		return nil, err
	}

	s := c.target(i)
	if s == nil || s.module == nil {
		return nil, fmt.Errorf("effectchain: slot %d is empty: %w", i+1, ErrUnsupported)
	}

	if !s.prepared {
		return nil, fmt.Errorf("effectchain: slot %d: %w", i+1, ErrNotPrepared)
	}

	return s.module, nil
}

// LoadSample hands audio to the module in slot i. Not for the audio
// thread.
func (c *Chain) LoadSample(i int, samples []float64, sampleRate float64) error {
	m, err := c.slotModule(i)
	if err != nil {
		return err
	}

	loader, ok := m.(module.SampleLoader)
	if !ok {
		return fmt.Errorf("effectchain: slot %d (%s): %w", i+1, m.Name(), ErrUnsupported)
	}

	if err := loader.LoadSample(samples, sampleRate); err != nil {
		return fmt.Errorf("effectchain: slot %d (%s): %w", i+1, m.Name(), err)
	}

	return nil
}

// CaptureSnapshot asks the module in slot i to capture the next analysed
// frame into snapshot slot snap.
func (c *Chain) CaptureSnapshot(i, snap int) error {
	m, err := c.slotModule(i)
	if err != nil {
		return err
	}

	snapshotter, ok := m.(module.Snapshotter)
	if !ok {
		return fmt.Errorf("effectchain: slot %d (%s): %w", i+1, m.Name(), ErrUnsupported)
	}

	if err := snapshotter.CaptureSnapshot(snap); err != nil {
		return fmt.Errorf("effectchain: slot %d (%s): %w", i+1, m.Name(), err)
	}

	return nil
}

// Trigger excites the module in slot i.
func (c *Chain) Trigger(i int) error {
	m, err := c.slotModule(i)
	if err != nil {
		return err
	}

	trig, ok := m.(module.Trigger)
	if !ok {
		return fmt.Errorf("effectchain: slot %d (%s): %w", i+1, m.Name(), ErrUnsupported)
	}

	trig.Trigger()

	return nil
}
