package models

import (
	"fmt"

	"github.com/XavierBriggs/fortuna/services/arb-analytics/pkg/oddsmath"
)

// Quote is one provider's price for one outcome of one market.
// Quotes are only built through NewQuote so ImpliedProbability always equals 1/OddsDecimal.
type Quote struct {
	EventID            string
	EventName          string
	MarketName         string
	Sport              string
	League             string
	OutcomeID          string
	OutcomeName        string
	ProviderID         string
	ProviderName       string
	OddsDecimal        float64
	ImpliedProbability float64
}

// NewQuote builds a Quote from a snapshot record, deriving implied probability from the odds
func NewQuote(mq MarketQuote) (Quote, error) {
	implied, err := oddsmath.DecimalToImpliedProbability(mq.OddsDecimal)
	if err != nil {
		return Quote{}, fmt.Errorf("quote %s/%s/%s from %s: %w",
			mq.EventID, mq.MarketName, mq.Outcome.ID, mq.Provider.ID, err)
	}

	return Quote{
		EventID:            mq.EventID,
		EventName:          mq.EventName,
		MarketName:         mq.MarketName,
		Sport:              mq.Sport,
		League:             mq.League,
		OutcomeID:          mq.Outcome.ID,
		OutcomeName:        mq.Outcome.Name,
		ProviderID:         mq.Provider.ID,
		ProviderName:       mq.Provider.Name,
		OddsDecimal:        mq.OddsDecimal,
		ImpliedProbability: implied,
	}, nil
}

// NewQuotes converts a snapshot, failing on the first malformed record
func NewQuotes(markets []MarketQuote) ([]Quote, error) {
	quotes := make([]Quote, 0, len(markets))
	for i, mq := range markets {
		q, err := NewQuote(mq)
		if err != nil {
			return nil, fmt.Errorf("markets[%d]: %w", i, err)
		}
		quotes = append(quotes, q)
	}
	return quotes, nil
}
