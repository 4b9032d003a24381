package units

import (
	"math"
	"testing"
)

func TestConvertAngle(t *testing.T) {
	tests := []struct {
		name     string
		degrees  float64
		units    string
		expected float64
	}{
		{"90 deg to rad", 90, Radians, math.Pi / 2},
		{"180 deg to rad", 180, Radians, math.Pi},
		{"0 deg to rad", 0, Radians, 0},
		{"45 deg stays deg", 45, Degrees, 45},
		{"unknown units default to deg", 30, "grad", 30},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := ConvertAngle(tt.degrees, tt.units)
			if math.Abs(result-tt.expected) > 1e-12 {
				t.Errorf("ConvertAngle(%f, %s) = %f, want %f", tt.degrees, tt.units, result, tt.expected)
			}
		})
	}
}

func TestIsValid(t *testing.T) {
	for _, u := range ValidUnits {
		if !IsValid(u) {
			t.Errorf("IsValid(%q) = false, want true", u)
		}
	}
	for _, u := range []string{"", "mph", "DEG"} {
		if IsValid(u) {
			t.Errorf("IsValid(%q) = true, want false", u)
		}
	}
}
