package keytrack

import "gitlab.com/gomidi/midi/v2"

// EventKind identifies a performance event.
type EventKind int

const (
	NoteOn EventKind = iota
	NoteOff
	Sustain
	PitchBend
)

// BendCenter is the 14-bit pitch-bend value for no bend.
const BendCenter = 8192

// sustainController is the MIDI damper-pedal controller number.
const sustainController = 64

// Event is one performance event inside a block.
type Event struct {
	Kind     EventKind
	Note     int
	Velocity int
	// Value carries the 14-bit bend (0..16383) or the sustain CC value
	// (>= 64 is pedal down).
	Value int
	// Offset is the sample position within the block. Only ordering
	// matters to the tracker.
	Offset int
}

// EventFromMIDI converts one MIDI message. ok is false for messages the
// tracker does not use.
func EventFromMIDI(msg midi.Message) (ev Event, ok bool) {
	var ch, key, vel, cc, val uint8

	var rel int16

	var abs uint16

	switch {
	case msg.GetNoteStart(&ch, &key, &vel):
		return Event{Kind: NoteOn, Note: int(key), Velocity: int(vel)}, true
	case msg.GetNoteEnd(&ch, &key):
		return Event{Kind: NoteOff, Note: int(key)}, true
	case msg.GetControlChange(&ch, &cc, &val):
		if cc != sustainController {
			return Event{}, false
		}

		return Event{Kind: Sustain, Value: int(val)}, true
	case msg.GetPitchBend(&ch, &rel, &abs):
		return Event{Kind: PitchBend, Value: int(abs)}, true
	default:
		return Event{}, false
	}
}

// EventsFromMIDI appends the tracker events found in msgs to dst.
func EventsFromMIDI(msgs []midi.Message, dst []Event) []Event {
	for i, msg := range msgs {
		if ev, ok := EventFromMIDI(msg); ok {
			ev.Offset = i
			dst = append(dst, ev)
		}
	}

	return dst
}
