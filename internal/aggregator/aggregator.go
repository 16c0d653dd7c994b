package aggregator

import (
	"strings"

	"github.com/XavierBriggs/fortuna/services/arb-analytics/pkg/models"
)

// QuoteKey identifies one outcome of one market. Market names compare case-insensitively.
type QuoteKey struct {
	EventID   string
	Market    string
	OutcomeID string
}

// MarketKey identifies one candidate market
type MarketKey struct {
	EventID string
	Market  string
}

// Market is a candidate market with its best quote per outcome, in first-seen order
type Market struct {
	Key    MarketKey
	Quotes []models.Quote
}

func normalizeMarket(name string) string {
	return strings.ToLower(name)
}

func quoteKey(q models.Quote) QuoteKey {
	return QuoteKey{EventID: q.EventID, Market: normalizeMarket(q.MarketName), OutcomeID: q.OutcomeID}
}

func marketKey(k QuoteKey) MarketKey {
	return MarketKey{EventID: k.EventID, Market: k.Market}
}

// BestQuotes keeps the quote with the strictly greatest odds for every outcome key.
// Ties keep the first quote seen. The result preserves first-seen key order.
func BestQuotes(quotes []models.Quote) []models.Quote {
	index := make(map[QuoteKey]int, len(quotes))
	best := make([]models.Quote, 0, len(quotes))

	for _, q := range quotes {
		key := quoteKey(q)
		i, ok := index[key]
		if !ok {
			index[key] = len(best)
			best = append(best, q)
			continue
		}
		if q.OddsDecimal > best[i].OddsDecimal {
			best[i] = q
		}
	}

	return best
}

// GroupByMarket groups deduplicated quotes into candidate markets, dropping the outcome key
func GroupByMarket(best []models.Quote) []Market {
	index := make(map[MarketKey]int)
	var markets []Market

	for _, q := range best {
		key := marketKey(quoteKey(q))
		i, ok := index[key]
		if !ok {
			index[key] = len(markets)
			markets = append(markets, Market{Key: key})
			i = len(markets) - 1
		}
		markets[i].Quotes = append(markets[i].Quotes, q)
	}

	return markets
}

// Aggregate runs both passes: best quote per outcome, then grouping into markets
func Aggregate(quotes []models.Quote) []Market {
	return GroupByMarket(BestQuotes(quotes))
}

// ProviderCount returns the number of distinct providers quoting a market's kept prices
func (m Market) ProviderCount() int {
	seen := make(map[string]struct{}, len(m.Quotes))
	for _, q := range m.Quotes {
		seen[q.ProviderID] = struct{}{}
	}
	return len(seen)
}
