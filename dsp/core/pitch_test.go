package core

import "testing"

func TestNoteToFrequency(t *testing.T) {
	t.Parallel()

	tests := []struct {
		note float64
		want float64
	}{
		{note: 69, want: 440},
		{note: 57, want: 220},
		{note: 81, want: 880},
		{note: 60, want: 261.6255653005986},
		{note: 33, want: 55},
	}

	for _, tt := range tests {
		got := NoteToFrequency(tt.note)
		if !NearlyEqual(got, tt.want, 1e-9) {
			t.Fatalf("NoteToFrequency(%v) = %v, want %v", tt.note, got, tt.want)
		}

		back := FrequencyToNote(got)
		if !NearlyEqual(back, tt.note, 1e-9) {
			t.Fatalf("FrequencyToNote(%v) = %v, want %v", got, back, tt.note)
		}
	}
}

func TestSemitonesToRatio(t *testing.T) {
	t.Parallel()

	if got := SemitonesToRatio(12); !NearlyEqual(got, 2, 1e-12) {
		t.Fatalf("octave ratio = %v", got)
	}
	if got := SemitonesToRatio(-2); !NearlyEqual(got, 0.8908987181403393, 1e-12) {
		t.Fatalf("-2 semitone ratio = %v", got)
	}
}
