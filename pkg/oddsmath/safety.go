package oddsmath

import "math"

// Clamp bounds value to [lo, hi]. NaN collapses to lo.
func Clamp(value, lo, hi float64) float64 {
	if math.IsNaN(value) || value < lo {
		return lo
	}
	if value > hi {
		return hi
	}
	return value
}

// SafeDivide returns numerator/denominator, or fallback when the denominator is zero
// or the quotient is not finite
func SafeDivide(numerator, denominator, fallback float64) float64 {
	if denominator == 0 {
		return fallback
	}
	return FiniteOr(numerator/denominator, fallback)
}

// FiniteOr returns value unless it is NaN or ±Inf
func FiniteOr(value, fallback float64) float64 {
	if math.IsNaN(value) || math.IsInf(value, 0) {
		return fallback
	}
	return value
}

// PercentileIndex returns the lower-tail index floor(n*rank)-1 clamped to [0, n-1]
func PercentileIndex(n int, rank float64) int {
	if n <= 0 {
		return 0
	}
	idx := int(math.Floor(float64(n)*rank)) - 1
	return clampIndex(idx, n)
}

// UpperPercentileIndex returns floor(n*rank) clamped to [0, n-1]
func UpperPercentileIndex(n int, rank float64) int {
	if n <= 0 {
		return 0
	}
	idx := int(math.Floor(float64(n) * rank))
	return clampIndex(idx, n)
}

func clampIndex(idx, n int) int {
	if idx < 0 {
		return 0
	}
	if idx > n-1 {
		return n - 1
	}
	return idx
}

// Normalize rescales weights to sum to 1. A zero or non-finite total gives all zeros.
func Normalize(weights []float64) []float64 {
	total := 0.0
	for _, w := range weights {
		total += w
	}
	out := make([]float64, len(weights))
	for i, w := range weights {
		out[i] = SafeDivide(w, total, 0)
	}
	return out
}
