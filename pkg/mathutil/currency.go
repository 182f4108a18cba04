// Package mathutil provides common mathematical utility functions.
package mathutil

import (
	"math"

	"github.com/iwvelando/finance-montecarlo/pkg/constants"
	"github.com/shopspring/decimal"
)

// Round rounds a value to two decimals, i.e. to represent real currency.
// Halves round away from zero, which plain float formatting does not guarantee.
func Round(val float64) float64 {
	return decimal.NewFromFloat(val).Round(2).InexactFloat64()
}

// WithinTolerance checks if two values are within a specified tolerance
func WithinTolerance(val1, val2, tolerance float64) bool {
	return math.Abs(val1-val2) <= tolerance
}

// IsFinite reports whether val is neither NaN nor infinite.
func IsFinite(val float64) bool {
	return !math.IsNaN(val) && !math.IsInf(val, 0)
}

// Clamp bounds val to [lo, hi].
func Clamp(val, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, val))
}

// ToFraction accepts either a fraction (0.95) or a percentage (95) and
// returns the fraction.
func ToFraction(val float64) float64 {
	if val > 1 {
		return val / constants.PercentageMultiplier
	}
	return val
}
