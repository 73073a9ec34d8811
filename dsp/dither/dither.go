// Package dither converts rendered float audio to integer PCM with dither
// noise and optional noise shaping.
package dither

import (
	"fmt"
	"strings"
)

// Type selects the probability distribution of the dither noise.
type Type int

const (
	// None rounds without dither.
	None Type = iota
	// Rectangular adds uniform noise one LSB wide.
	Rectangular
	// Triangular adds TPDF noise, the difference of two uniform draws.
	Triangular

	typeCount
)

var typeNames = [typeCount]string{"none", "rpdf", "tpdf"}

// String returns the lowercase type name.
func (t Type) String() string {
	if t >= 0 && t < typeCount {
		return typeNames[t]
	}

	return fmt.Sprintf("Type(%d)", int(t))
}

// Valid reports whether t is a known dither type.
func (t Type) Valid() bool {
	return t >= 0 && t < typeCount
}

// ParseType converts a type name. "rectangular" and "triangular" are
// accepted as long forms.
func ParseType(s string) (Type, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "none", "off":
		return None, nil
	case "rpdf", "rectangular":
		return Rectangular, nil
	case "tpdf", "triangular":
		return Triangular, nil
	}

	return None, fmt.Errorf("dither: unknown type %q", s)
}
