package calculator

import (
	"github.com/XavierBriggs/fortuna/services/arb-analytics/pkg/models"
	"github.com/XavierBriggs/fortuna/services/arb-analytics/pkg/oddsmath"
)

// AllocateStakes splits bankroll across a market's quotes so every outcome pays the same.
// stakeFraction = implied / sumImplied, so payout = bankroll / sumImplied for all outcomes.
// Amounts are not rounded; rounding would break the equal payout.
func AllocateStakes(quotes []models.Quote, bankroll, sumImplied float64) []models.Stake {
	stakes := make([]models.Stake, len(quotes))

	for i, q := range quotes {
		fraction := oddsmath.SafeDivide(q.ImpliedProbability, sumImplied, 0)
		amount := fraction * bankroll

		stakes[i] = models.Stake{
			OutcomeID:     q.OutcomeID,
			OutcomeName:   q.OutcomeName,
			ProviderID:    q.ProviderID,
			ProviderName:  q.ProviderName,
			Odds:          q.OddsDecimal,
			StakeFraction: fraction,
			StakeAmount:   amount,
			Payout:        amount * q.OddsDecimal,
		}
	}

	return stakes
}
