package aggregator_test

import (
	"testing"

	"github.com/XavierBriggs/fortuna/services/arb-analytics/internal/aggregator"
	"github.com/XavierBriggs/fortuna/services/arb-analytics/pkg/models"
)

func quote(event, market, outcome, provider string, odds float64) models.Quote {
	return models.Quote{
		EventID:            event,
		EventName:          event,
		MarketName:         market,
		OutcomeID:          outcome,
		OutcomeName:        outcome,
		ProviderID:         provider,
		ProviderName:       provider,
		OddsDecimal:        odds,
		ImpliedProbability: 1.0 / odds,
	}
}

func TestBestQuotes_KeepsHighestOdds(t *testing.T) {
	quotes := []models.Quote{
		quote("evt-1", "Match Winner", "home", "draftkings", 1.80),
		quote("evt-1", "Match Winner", "home", "fanduel", 1.95),
	}

	best := aggregator.BestQuotes(quotes)

	if len(best) != 1 {
		t.Fatalf("expected 1 quote, got %d", len(best))
	}
	if best[0].OddsDecimal != 1.95 || best[0].ProviderID != "fanduel" {
		t.Errorf("expected fanduel at 1.95, got %s at %.2f", best[0].ProviderID, best[0].OddsDecimal)
	}
}

func TestBestQuotes_TieKeepsFirst(t *testing.T) {
	quotes := []models.Quote{
		quote("evt-1", "Match Winner", "home", "draftkings", 2.00),
		quote("evt-1", "Match Winner", "home", "fanduel", 2.00),
	}

	best := aggregator.BestQuotes(quotes)

	if len(best) != 1 || best[0].ProviderID != "draftkings" {
		t.Errorf("expected first-seen draftkings quote, got %+v", best)
	}
}

func TestBestQuotes_MarketNameCaseInsensitive(t *testing.T) {
	quotes := []models.Quote{
		quote("evt-1", "Match Winner", "home", "draftkings", 1.90),
		quote("evt-1", "MATCH WINNER", "home", "fanduel", 2.05),
		quote("EVT-1", "match winner", "home", "betmgm", 2.50),
	}

	best := aggregator.BestQuotes(quotes)

	// Event ids compare exactly so EVT-1 is a separate key
	if len(best) != 2 {
		t.Fatalf("expected 2 keys, got %d", len(best))
	}
	if best[0].ProviderID != "fanduel" {
		t.Errorf("expected fanduel to win evt-1, got %s", best[0].ProviderID)
	}
}

func TestGroupByMarket(t *testing.T) {
	quotes := []models.Quote{
		quote("evt-1", "Match Winner", "home", "draftkings", 2.10),
		quote("evt-2", "Totals", "over", "fanduel", 1.90),
		quote("evt-1", "match winner", "away", "fanduel", 2.05),
		quote("evt-2", "Totals", "under", "betmgm", 1.95),
		quote("evt-1", "Match Winner", "home", "betmgm", 2.00),
	}

	markets := aggregator.Aggregate(quotes)

	if len(markets) != 2 {
		t.Fatalf("expected 2 markets, got %d", len(markets))
	}

	first := markets[0]
	want := aggregator.MarketKey{EventID: "evt-1", Market: "match winner"}
	if first.Key != want {
		t.Errorf("first market key = %+v, want %+v", first.Key, want)
	}
	if len(first.Quotes) != 2 {
		t.Fatalf("expected 2 outcomes in evt-1, got %d", len(first.Quotes))
	}
	if first.Quotes[0].OutcomeID != "home" || first.Quotes[0].OddsDecimal != 2.10 {
		t.Errorf("unexpected home quote: %+v", first.Quotes[0])
	}
	if first.Quotes[1].OutcomeID != "away" {
		t.Errorf("expected away second, got %s", first.Quotes[1].OutcomeID)
	}
	if first.ProviderCount() != 2 {
		t.Errorf("provider count = %d, want 2", first.ProviderCount())
	}
}

func TestAggregate_Empty(t *testing.T) {
	if markets := aggregator.Aggregate(nil); len(markets) != 0 {
		t.Errorf("expected no markets, got %d", len(markets))
	}
}
