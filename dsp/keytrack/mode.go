package keytrack

import (
	"fmt"
	"strings"
)

// Mode selects how the held-note set resolves to one note.
type Mode int

const (
	// ModeLatest follows the most recently triggered note still held.
	ModeLatest Mode = iota
	// ModeHighest follows the highest held note.
	ModeHighest
	// ModeLowest follows the lowest held note.
	ModeLowest
	// ModeAverage follows the rounded mean of the held notes.
	ModeAverage
)

var modeNames = [...]string{"latest", "highest", "lowest", "average"}

// String returns the lowercase mode name.
func (m Mode) String() string {
	if m < 0 || int(m) >= len(modeNames) {
		return fmt.Sprintf("Mode(%d)", int(m))
	}

	return modeNames[m]
}

// Valid reports whether m is a known mode.
func (m Mode) Valid() bool {
	return m >= ModeLatest && m <= ModeAverage
}

// ParseMode parses a mode name (case-insensitive).
func ParseMode(s string) (Mode, error) {
	key := strings.ToLower(strings.TrimSpace(s))
	for i, name := range modeNames {
		if key == name {
			return Mode(i), nil
		}
	}

	return ModeLatest, fmt.Errorf("keytrack: unknown mode %q", s)
}
