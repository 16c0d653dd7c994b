package calculator

import (
	"math"
	"sort"

	"github.com/XavierBriggs/fortuna/services/arb-analytics/pkg/models"
	"github.com/XavierBriggs/fortuna/services/arb-analytics/pkg/oddsmath"
)

const (
	// DefaultRiskFreeRate is the annual rate used for the Sharpe ratio
	DefaultRiskFreeRate = 0.01
	// TradingDaysPerYear converts the annual risk-free rate to a per-period rate
	TradingDaysPerYear = 252.0
	// VaRRank is the tail rank for value at risk
	VaRRank = 0.05
)

// RiskAnalyzer computes risk metrics for a stake allocation
type RiskAnalyzer struct {
	riskFreeRate float64
}

// NewRiskAnalyzer creates an analyzer using an annual risk-free rate
func NewRiskAnalyzer(annualRiskFreeRate float64) *RiskAnalyzer {
	return &RiskAnalyzer{riskFreeRate: annualRiskFreeRate}
}

// NormalizedProbabilities rescales implied probabilities so they sum to 1
func NormalizedProbabilities(quotes []models.Quote) []float64 {
	implied := make([]float64, len(quotes))
	for i, q := range quotes {
		implied[i] = q.ImpliedProbability
	}
	return oddsmath.Normalize(implied)
}

// Analyze computes expectation, dispersion, win probability, Kelly, Sharpe and VaR.
// quotes and stakes are index aligned.
func (a *RiskAnalyzer) Analyze(quotes []models.Quote, stakes []models.Stake, bankroll float64) models.RiskMetrics {
	probs := NormalizedProbabilities(quotes)

	n := len(stakes)
	if len(probs) < n {
		n = len(probs)
	}

	profits := make([]float64, n)
	odds := make([]float64, n)
	for i := 0; i < n; i++ {
		profits[i] = stakes[i].Payout - bankroll
		odds[i] = stakes[i].Odds
	}

	ev := 0.0
	for i := 0; i < n; i++ {
		ev += probs[i] * profits[i]
	}

	variance := 0.0
	winProbability := 0.0
	for i := 0; i < n; i++ {
		d := profits[i] - ev
		variance += probs[i] * d * d
		if profits[i] > 0 {
			winProbability += probs[i]
		}
	}
	sd := math.Sqrt(math.Max(variance, 0))

	metrics := models.RiskMetrics{
		ExpectedValue:     ev,
		StandardDeviation: sd,
		WinProbability:    oddsmath.Clamp(winProbability, 0, 1),
		KellyFraction:     MaxKellyFraction(probs[:n], odds),
		ValueAtRisk:       ValueAtRisk(profits),
		SharpeRatio:       models.None(),
		MaxDrawdown:       models.None(),
	}

	if sd > 0 {
		periodRiskFree := a.riskFreeRate / TradingDaysPerYear
		excess := oddsmath.SafeDivide(ev, bankroll, 0) - periodRiskFree
		volatility := oddsmath.SafeDivide(sd, bankroll, 0)
		if volatility > 0 {
			metrics.SharpeRatio = models.Some(oddsmath.FiniteOr(excess/volatility, 0))
		}
	}

	return metrics
}

// ValueAtRisk returns the empirical 5th percentile of a profit distribution.
// An empty distribution is treated as a single zero.
func ValueAtRisk(profits []float64) float64 {
	if len(profits) == 0 {
		return 0
	}

	sorted := append([]float64(nil), profits...)
	sort.Float64s(sorted)
	return sorted[oddsmath.PercentileIndex(len(sorted), VaRRank)]
}
