// Package logscale applies base-10 logarithmic scaling to chart axis values.
package logscale

import (
	"math"

	"modelcharts/internal/models"
)

// Transform returns log10(v). ok is false when v is not a finite positive number.
func Transform(v float64) (float64, bool) {
	if !Eligible(v) {
		return 0, false
	}

	return math.Log10(v), true
}

// TransformValue converts a driver value to a number and scales it.
func TransformValue(v any) (float64, bool) {
	f, ok := models.Number(v)
	if !ok {
		return 0, false
	}

	return Transform(f)
}

// Eligible reports whether v can be log-scaled.
func Eligible(v float64) bool {
	return v > 0 && !math.IsInf(v, 1)
}

// Inverse maps a scaled value back to the original magnitude.
func Inverse(x float64) float64 {
	return math.Pow(10, x)
}
