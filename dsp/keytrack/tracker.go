package keytrack

import (
	"math"

	"github.com/cwbudde/bassforge/dsp/core"
	"gitlab.com/gomidi/midi/v2"
)

const (
	numNotes         = 128
	defaultBendRange = 2.0
)

// Option configures a Tracker.
type Option func(*Tracker)

// WithMode sets the initial tracking mode.
func WithMode(m Mode) Option {
	return func(t *Tracker) {
		if m.Valid() {
			t.mode = m
		}
	}
}

// WithAmount sets the blend between tracked and reference frequency.
func WithAmount(a float64) Option {
	return func(t *Tracker) { t.amount = core.Clamp(a, 0, 1) }
}

// WithBendRange sets the pitch-bend range in semitones.
func WithBendRange(semitones float64) Option {
	return func(t *Tracker) {
		if semitones >= 0 && core.IsFinite(semitones) {
			t.bendRange = semitones
		}
	}
}

// Tracker resolves held notes into a tracked frequency.
type Tracker struct {
	mode      Mode
	amount    float64
	bendRange float64

	held  [numNotes]bool
	stack [numNotes]int8
	depth int

	sustained bool
	lastNote  int
	frequency float64
}

// New returns a tracker in ModeLatest with full tracking amount.
func New(opts ...Option) *Tracker {
	t := &Tracker{
		mode:      ModeLatest,
		amount:    1,
		bendRange: defaultBendRange,
	}

	for _, opt := range opts {
		if opt != nil {
			opt(t)
		}
	}

	t.Reset()

	return t
}

// Reset releases all notes, lifts the pedal, and returns to 440 Hz.
func (t *Tracker) Reset() {
	t.clearNotes()
	t.sustained = false
	t.lastNote = -1
	t.frequency = core.ReferenceFrequency
}

// Frequency returns the tracked frequency in Hz.
func (t *Tracker) Frequency() float64 { return t.frequency }

// Mode returns the tracking mode.
func (t *Tracker) Mode() Mode { return t.mode }

// SetMode changes the tracking mode and recomputes. Unknown modes are ignored.
func (t *Tracker) SetMode(m Mode) {
	if !m.Valid() || m == t.mode {
		return
	}

	t.mode = m
	t.recompute()
}

// Amount returns the tracking blend in [0, 1].
func (t *Tracker) Amount() float64 { return t.amount }

// SetAmount sets the tracking blend, clamped to [0, 1], and recomputes.
func (t *Tracker) SetAmount(a float64) {
	a = core.Clamp(a, 0, 1)
	if a == t.amount {
		return
	}

	t.amount = a
	t.recompute()
}

// LastNote returns the note driving the frequency, or -1 when none.
func (t *Tracker) LastNote() int { return t.lastNote }

// Sustained reports whether the sustain pedal is down.
func (t *Tracker) Sustained() bool { return t.sustained }

// HeldNotes appends the held notes in ascending order to dst.
func (t *Tracker) HeldNotes(dst []int) []int {
	for n, on := range t.held {
		if on {
			dst = append(dst, n)
		}
	}

	return dst
}

// ProcessEvents applies events in order. blockLength is accepted for
// symmetry with the audio callback; event timing within the block is not
// sample accurate.
func (t *Tracker) ProcessEvents(events []Event, blockLength int) {
	_ = blockLength

	for i := range events {
		t.apply(events[i])
	}
}

// HandleMIDI applies one MIDI message and reports whether it was used.
func (t *Tracker) HandleMIDI(msg midi.Message) bool {
	ev, ok := EventFromMIDI(msg)
	if ok {
		t.apply(ev)
	}

	return ok
}

func (t *Tracker) apply(ev Event) {
	switch ev.Kind {
	case NoteOn:
		if !validNote(ev.Note) {
			return
		}

		if ev.Velocity == 0 {
			t.noteOff(ev.Note)
			return
		}

		t.noteOn(ev.Note)
	case NoteOff:
		if validNote(ev.Note) {
			t.noteOff(ev.Note)
		}
	case Sustain:
		t.setSustain(ev.Value >= 64)
	case PitchBend:
		t.pitchBend(ev.Value)
	}
}

func (t *Tracker) noteOn(n int) {
	if t.held[n] {
		t.removeFromStack(n)
	}

	t.held[n] = true
	t.stack[t.depth] = int8(n)
	t.depth++
	t.lastNote = n
	t.recompute()
}

func (t *Tracker) noteOff(n int) {
	if !t.held[n] {
		return
	}

	// Held notes stay in the set until the pedal comes up.
	if t.sustained {
		return
	}

	t.held[n] = false
	t.removeFromStack(n)
	t.recompute()
}

func (t *Tracker) setSustain(down bool) {
	if down {
		t.sustained = true
		return
	}

	if !t.sustained {
		return
	}

	// Pedal up behaves as a deferred note-off for everything.
	t.sustained = false
	t.clearNotes()
	t.recompute()
}

func (t *Tracker) pitchBend(value int) {
	value = core.ClampInt(value, 0, 16383)
	semis := float64(value-BendCenter) / BendCenter * t.bendRange
	ratio := core.SemitonesToRatio(semis)

	note := t.lastNote
	if note < 0 {
		note = core.ReferenceNote
	}

	base := core.NoteToFrequency(float64(note))
	t.setFrequency(base*ratio*t.amount + base*(1-t.amount))
}

func (t *Tracker) recompute() {
	if t.depth == 0 {
		t.lastNote = -1
		t.frequency = core.ReferenceFrequency

		return
	}

	note := t.resolve()
	t.lastNote = note
	f := core.NoteToFrequency(float64(note))
	t.setFrequency(f*t.amount + core.ReferenceFrequency*(1-t.amount))
}

func (t *Tracker) resolve() int {
	switch t.mode {
	case ModeHighest:
		for n := numNotes - 1; n >= 0; n-- {
			if t.held[n] {
				return n
			}
		}
	case ModeLowest:
		for n := range numNotes {
			if t.held[n] {
				return n
			}
		}
	case ModeAverage:
		sum := 0
		for n, on := range t.held {
			if on {
				sum += n
			}
		}

		return int(math.Round(float64(sum) / float64(t.depth)))
	}

	return int(t.stack[t.depth-1])
}

func (t *Tracker) setFrequency(f float64) {
	if !core.IsFinite(f) || f < 0 {
		f = core.ReferenceFrequency
	}

	t.frequency = f
}

func (t *Tracker) removeFromStack(n int) {
	for i := 0; i < t.depth; i++ {
		if int(t.stack[i]) == n {
			copy(t.stack[i:t.depth-1], t.stack[i+1:t.depth])
			t.depth--

			return
		}
	}
}

func (t *Tracker) clearNotes() {
	t.held = [numNotes]bool{}
	t.depth = 0
}

func validNote(n int) bool { return n >= 0 && n < numNotes }
