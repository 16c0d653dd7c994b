package oddsmath

import (
	"errors"
	"fmt"
	"math"
)

// ErrInvalidOdds is returned for decimal odds that cannot be priced
var ErrInvalidOdds = errors.New("invalid decimal odds")

// ValidateDecimal checks that decimal odds are finite and strictly above 1.0
// Odds at or below 1.0 return nothing on a winning bet and can never be part of an arbitrage
func ValidateDecimal(decimal float64) error {
	if math.IsNaN(decimal) || math.IsInf(decimal, 0) {
		return fmt.Errorf("%w: %v is not finite", ErrInvalidOdds, decimal)
	}
	if decimal <= 1.0 {
		return fmt.Errorf("%w: %.4f must be greater than 1.0", ErrInvalidOdds, decimal)
	}
	return nil
}

// DecimalToImpliedProbability converts decimal odds to implied probability
// Decimal 2.00 → 0.50 (50%)
// Decimal 1.50 → 0.667 (66.7%)
func DecimalToImpliedProbability(decimal float64) (float64, error) {
	if err := ValidateDecimal(decimal); err != nil {
		return 0, err
	}

	return 1.0 / decimal, nil
}

// ProfitFraction returns the guaranteed return of a fully hedged book: 1/inverseSum - 1
// Example: 2.10 / 2.05 → inverse sum 0.96399 → 0.03736 (3.7%)
func ProfitFraction(inverseSum float64) float64 {
	return FiniteOr(SafeDivide(1.0, inverseSum, 0)-1.0, 0)
}
