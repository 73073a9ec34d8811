package core

import "math"

const (
	// ReferenceNote is the MIDI note number of A4.
	ReferenceNote = 69
	// ReferenceFrequency is the frequency of A4 in Hz.
	ReferenceFrequency = 440.0
	// GoldenRatio is used for geometric stage spacing.
	GoldenRatio = 1.6180339887498949
)

// NoteToFrequency converts a (possibly fractional) MIDI note number to Hz in
// 12-tone equal temperament with A4 = 440 Hz.
func NoteToFrequency(note float64) float64 {
	return ReferenceFrequency * math.Pow(2, (note-ReferenceNote)/12)
}

// FrequencyToNote is the inverse of NoteToFrequency. Non-positive input
// returns NaN.
func FrequencyToNote(freq float64) float64 {
	if freq <= 0 {
		return math.NaN()
	}

	return ReferenceNote + 12*math.Log2(freq/ReferenceFrequency)
}

// SemitonesToRatio returns the frequency ratio for an interval in semitones.
func SemitonesToRatio(semitones float64) float64 {
	return math.Pow(2, semitones/12)
}
