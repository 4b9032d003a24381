// Package units provides shared constants and conversion for angle units
package units

import "math"

// Unit constants
const (
	Degrees = "deg"
	Radians = "rad"
)

// ValidUnits contains all valid unit values
var ValidUnits = []string{Degrees, Radians}

// IsValid checks if the given unit is in the list of valid units
func IsValid(unit string) bool {
	for _, validUnit := range ValidUnits {
		if unit == validUnit {
			return true
		}
	}
	return false
}

// GetValidUnitsString returns a comma-separated string of valid units for error messages
func GetValidUnitsString() string {
	return "deg, rad"
}

// ConvertAngle converts an angle from degrees to the target units.
// Samples are always derived and stored in degrees.
func ConvertAngle(degrees float64, targetUnits string) float64 {
	switch targetUnits {
	case Radians:
		return degrees * math.Pi / 180
	default:
		return degrees
	}
}
