package models

import (
	"errors"
	"fmt"
	"math"
	"strings"
)

// ErrInvalidRequest marks request validation failures
var ErrInvalidRequest = errors.New("invalid request")

func invalid(format string, args ...interface{}) error {
	return fmt.Errorf("%w: %s", ErrInvalidRequest, fmt.Sprintf(format, args...))
}

// Validate checks the analyze request shape. Odds are validated when quotes are built.
func (r AnalyzeRequest) Validate() error {
	if r.SnapshotTime.IsZero() {
		return invalid("snapshotTime is required")
	}
	if r.Bankroll < 0 || math.IsNaN(r.Bankroll) || math.IsInf(r.Bankroll, 0) {
		return invalid("bankroll must be a finite number >= 0")
	}
	if e := r.MinimumEdge; e != nil && (*e < 0 || math.IsNaN(*e) || math.IsInf(*e, 0)) {
		return invalid("minimumEdge must be a finite number >= 0")
	}
	if r.MinimumProviders < 0 {
		return invalid("minimumProviders must be >= 0")
	}
	if len(r.Markets) == 0 {
		return invalid("markets must not be empty")
	}

	for i, m := range r.Markets {
		if err := m.Validate(); err != nil {
			return fmt.Errorf("markets[%d]: %w", i, err)
		}
	}

	return nil
}

// Validate checks the required fields of a snapshot record
func (m MarketQuote) Validate() error {
	required := []struct {
		field string
		value string
	}{
		{"eventId", m.EventID},
		{"eventName", m.EventName},
		{"marketName", m.MarketName},
		{"runner.id", m.Outcome.ID},
		{"runner.name", m.Outcome.Name},
		{"provider.id", m.Provider.ID},
		{"provider.name", m.Provider.Name},
	}

	for _, r := range required {
		if strings.TrimSpace(r.value) == "" {
			return invalid("%s is required", r.field)
		}
	}

	return nil
}

// Validate checks a re-simulation request
func (r SimulateRequest) Validate() error {
	if r.Trials != nil && *r.Trials < 1 {
		return invalid("trials must be >= 1")
	}
	if r.Bankroll != nil && (*r.Bankroll < 0 || math.IsNaN(*r.Bankroll) || math.IsInf(*r.Bankroll, 0)) {
		return invalid("bankroll must be a finite number >= 0")
	}
	return r.Opportunity.ValidateForSimulation()
}

// ValidateForSimulation checks that an opportunity carries what a re-simulation needs
func (o Opportunity) ValidateForSimulation() error {
	if len(o.Stakes) < 2 {
		return invalid("opportunity must have at least 2 stakes")
	}
	if !(o.SumImpliedProbability > 0) || math.IsInf(o.SumImpliedProbability, 0) {
		return invalid("opportunity sumImpliedProbability must be > 0")
	}
	for i, s := range o.Stakes {
		if s.StakeFraction < 0 || math.IsNaN(s.StakeFraction) || math.IsInf(s.StakeFraction, 0) {
			return invalid("stakes[%d].stakeFraction must be a finite number >= 0", i)
		}
		if math.IsNaN(s.Payout) || math.IsInf(s.Payout, 0) {
			return invalid("stakes[%d].payout must be finite", i)
		}
	}
	return nil
}
