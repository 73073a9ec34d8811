package core

import (
	"math"
	"testing"
)

func TestClamp(t *testing.T) {
	tests := []struct {
		name     string
		value    float64
		min      float64
		max      float64
		expected float64
	}{
		{name: "inside", value: 0.5, min: 0, max: 1, expected: 0.5},
		{name: "below", value: -1, min: 0, max: 1, expected: 0},
		{name: "above", value: 2, min: 0, max: 1, expected: 1},
		{name: "swapped", value: 2, min: 1, max: 0, expected: 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Clamp(tt.value, tt.min, tt.max)
			if got != tt.expected {
				t.Fatalf("Clamp() = %v, want %v", got, tt.expected)
			}
		})
	}
}

func TestClampInt(t *testing.T) {
	if got := ClampInt(9, 1, 8); got != 8 {
		t.Fatalf("ClampInt(9,1,8) = %d", got)
	}
	if got := ClampInt(0, 1, 8); got != 1 {
		t.Fatalf("ClampInt(0,1,8) = %d", got)
	}
	if got := ClampInt(3, 8, 1); got != 3 {
		t.Fatalf("ClampInt(3,8,1) = %d", got)
	}
}

func TestNearlyEqual(t *testing.T) {
	if !NearlyEqual(1.0, 1.0+1e-13, 1e-12) {
		t.Fatal("expected values to be nearly equal")
	}
	if NearlyEqual(1.0, 1.1, 1e-3) {
		t.Fatal("expected values to differ")
	}
}

func TestDBConversions(t *testing.T) {
	linear := DBToLinear(-6)
	db := LinearToDB(linear)
	if !NearlyEqual(db, -6, 1e-10) {
		t.Fatalf("LinearToDB(DBToLinear(-6)) = %v, want -6", db)
	}
	if !math.IsInf(LinearToDB(0), -1) {
		t.Fatal("expected -Inf for zero")
	}
	if !math.IsNaN(LinearToDB(-1)) {
		t.Fatal("expected NaN for negative amplitude")
	}
}

func TestFlushUnderflow(t *testing.T) {
	if FlushUnderflow(5e-11) != 0 || FlushUnderflow(-5e-11) != 0 {
		t.Fatal("expected tiny values to flush to zero")
	}
	if FlushUnderflow(2e-10) != 2e-10 {
		t.Fatal("values above the threshold must pass through")
	}
	if FlushDenormals(1e-31) != 0 {
		t.Fatal("expected denormal-range value to flush")
	}
}

func TestLerpAndMapRange(t *testing.T) {
	if got := Lerp(2, 4, 0.25); got != 2.5 {
		t.Fatalf("Lerp = %v, want 2.5", got)
	}
	// decay 0 -> 8000 Hz, decay 1 -> 100 Hz
	if got := MapRange(1, 8000, 100); got != 100 {
		t.Fatalf("MapRange(1) = %v, want 100", got)
	}
	if got := MapRange(0, 8000, 100); got != 8000 {
		t.Fatalf("MapRange(0) = %v, want 8000", got)
	}
}

func TestIsFinite(t *testing.T) {
	if IsFinite(math.NaN()) || IsFinite(math.Inf(1)) {
		t.Fatal("expected non-finite values to be rejected")
	}
	if !IsFinite(0) {
		t.Fatal("zero is finite")
	}
}
