package mathutil

import (
	"math"
	"testing"
)

func TestRound(t *testing.T) {
	tests := []struct {
		name     string
		input    float64
		expected float64
	}{
		{"already rounded", 100.25, 100.25},
		{"round down", 100.234, 100.23},
		{"round up", 100.236, 100.24},
		{"half away from zero", 2.675, 2.68},
		{"negative", -100.236, -100.24},
		{"zero", 0, 0},
		{"large value", 117195.00000001, 117195},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Round(tt.input); got != tt.expected {
				t.Errorf("Round(%v) = %v, expected %v", tt.input, got, tt.expected)
			}
		})
	}
}

func TestToleranceHelpers(t *testing.T) {
	if !WithinTolerance(100.0, 100.4, 0.5) {
		t.Error("expected values within tolerance")
	}
	if WithinTolerance(100.0, 101, 0.5) {
		t.Error("expected values outside tolerance")
	}
}

func TestIsFinite(t *testing.T) {
	if IsFinite(math.NaN()) || IsFinite(math.Inf(1)) || IsFinite(math.Inf(-1)) {
		t.Error("expected NaN and Inf to be non-finite")
	}
	if !IsFinite(42) {
		t.Error("expected 42 to be finite")
	}
}

func TestClamp(t *testing.T) {
	if got := Clamp(5, 0, 1); got != 1 {
		t.Errorf("Clamp(5, 0, 1) = %v", got)
	}
	if got := Clamp(-5, 0, 1); got != 0 {
		t.Errorf("Clamp(-5, 0, 1) = %v", got)
	}
	if got := Clamp(0.5, 0, 1); got != 0.5 {
		t.Errorf("Clamp(0.5, 0, 1) = %v", got)
	}
}

func TestToFraction(t *testing.T) {
	tests := []struct {
		input    float64
		fraction float64
	}{
		{0.95, 0.95},
		{95, 0.95},
		{0, 0},
		{1, 1},
		{50, 0.5},
	}

	for _, tt := range tests {
		if got := ToFraction(tt.input); math.Abs(got-tt.fraction) > 1e-12 {
			t.Errorf("ToFraction(%v) = %v, expected %v", tt.input, got, tt.fraction)
		}
	}
}
