package calculator

import "github.com/XavierBriggs/fortuna/services/arb-analytics/pkg/oddsmath"

// KellyFraction returns the single-bet Kelly stake f* = (bp - q) / b clipped to [0, 1]
// b = decimal - 1 (net odds), p = win probability, q = 1 - p
// Zero net odds or a non-finite result give 0.
func KellyFraction(probability, decimal float64) float64 {
	b := decimal - 1.0
	if b == 0 {
		return 0
	}

	q := 1.0 - probability
	f := oddsmath.FiniteOr((b*probability-q)/b, 0)
	return oddsmath.Clamp(f, 0, 1)
}

// MaxKellyFraction evaluates Kelly per outcome and returns the largest.
// This is not a joint multi-outcome Kelly solution.
func MaxKellyFraction(probabilities, odds []float64) float64 {
	best := 0.0
	for i := range probabilities {
		if i >= len(odds) {
			break
		}
		if f := KellyFraction(probabilities[i], odds[i]); f > best {
			best = f
		}
	}
	return best
}
