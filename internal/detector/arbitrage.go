package detector

import (
	"sort"
	"time"

	"github.com/XavierBriggs/fortuna/services/arb-analytics/internal/aggregator"
	"github.com/XavierBriggs/fortuna/services/arb-analytics/internal/calculator"
	"github.com/XavierBriggs/fortuna/services/arb-analytics/pkg/models"
	"github.com/XavierBriggs/fortuna/services/arb-analytics/pkg/oddsmath"
)

// DefaultBankroll replaces a non-positive bankroll
const DefaultBankroll = 1000.0

// Config holds detection thresholds
type Config struct {
	Bankroll         float64 // <= 0 uses DefaultBankroll
	MinimumEdge      float64 // Minimum guaranteed profit fraction (0.01 = 1%)
	MinimumProviders int     // Minimum distinct providers across kept quotes, 0 = any
}

// Candidate is an accepted market with its opportunity and the quotes it was built from.
// Quotes and Opportunity.Stakes are index aligned.
type Candidate struct {
	Opportunity models.Opportunity
	Quotes      []models.Quote
}

// ArbitrageDetector finds markets whose best prices guarantee a profit
type ArbitrageDetector struct {
	config Config
}

// NewArbitrageDetector creates a new arbitrage detector
func NewArbitrageDetector(config Config) *ArbitrageDetector {
	if config.Bankroll <= 0 {
		config.Bankroll = DefaultBankroll
	}
	return &ArbitrageDetector{config: config}
}

// Bankroll returns the effective bankroll
func (d *ArbitrageDetector) Bankroll() float64 {
	return d.config.Bankroll
}

// Detect tests every candidate market and returns accepted ones sorted by
// guaranteed profit descending. Rejected markets are dropped silently.
func (d *ArbitrageDetector) Detect(markets []aggregator.Market, createdAt time.Time) []Candidate {
	var candidates []Candidate

	for _, market := range markets {
		if c, ok := d.detectMarket(market, createdAt); ok {
			candidates = append(candidates, c)
		}
	}

	sort.SliceStable(candidates, func(i, j int) bool {
		return candidates[i].Opportunity.GuaranteedProfitFraction > candidates[j].Opportunity.GuaranteedProfitFraction
	})

	return candidates
}

func (d *ArbitrageDetector) detectMarket(market aggregator.Market, createdAt time.Time) (Candidate, bool) {
	// Quotes are already one per outcome
	if len(market.Quotes) < 2 {
		return Candidate{}, false
	}
	if d.config.MinimumProviders > 0 && market.ProviderCount() < d.config.MinimumProviders {
		return Candidate{}, false
	}

	sumImplied := 0.0
	for _, q := range market.Quotes {
		sumImplied += q.ImpliedProbability
	}

	// Arbitrage exists if inverse sum < 1.0
	if sumImplied >= 1.0 {
		return Candidate{}, false
	}

	profit := oddsmath.ProfitFraction(sumImplied)
	if profit < d.config.MinimumEdge {
		return Candidate{}, false
	}

	first := market.Quotes[0]
	opp := models.Opportunity{
		EventID:                  first.EventID,
		EventName:                first.EventName,
		MarketName:               first.MarketName,
		Sport:                    first.Sport,
		League:                   first.League,
		SumImpliedProbability:    sumImplied,
		GuaranteedProfitFraction: profit,
		Bankroll:                 d.config.Bankroll,
		CreatedAt:                createdAt,
		Stakes:                   calculator.AllocateStakes(market.Quotes, d.config.Bankroll, sumImplied),
	}

	return Candidate{Opportunity: opp, Quotes: market.Quotes}, true
}
