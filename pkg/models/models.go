package models

import "time"

// AnalyzeRequest is the request for snapshot analysis
type AnalyzeRequest struct {
	SnapshotTime     time.Time     `json:"snapshotTime"`
	Bankroll         float64       `json:"bankroll"`
	MinimumEdge      *float64      `json:"minimumEdge,omitempty"`      // nil = service default, 0 = any edge
	MinimumProviders int           `json:"minimumProviders,omitempty"` // 0 = any
	Markets          []MarketQuote `json:"markets"`
}

// AnalyzeResponse wraps detected opportunities
type AnalyzeResponse struct {
	Opportunities []Opportunity `json:"opportunities"`
}

// SimulateRequest re-simulates a previously produced opportunity
type SimulateRequest struct {
	Opportunity Opportunity `json:"opportunity"`
	Trials      *int        `json:"trials,omitempty"`   // Optional, default 2000
	Bankroll    *float64    `json:"bankroll,omitempty"` // Optional, default opportunity bankroll
}

// MarketQuote is one raw snapshot record as sent by callers
type MarketQuote struct {
	EventID            string   `json:"eventId"`
	EventName          string   `json:"eventName"`
	MarketName         string   `json:"marketName"`
	Sport              string   `json:"sport,omitempty"`
	League             string   `json:"league,omitempty"`
	Outcome            Outcome  `json:"runner"`
	Provider           Provider `json:"provider"`
	OddsDecimal        float64  `json:"oddsDecimal"`
	ImpliedProbability float64  `json:"impliedProbability"` // Ignored, recomputed from odds
}

// Outcome identifies one mutually exclusive result of a market
type Outcome struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// Provider identifies the bookmaker quoting a price
type Provider struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	Slug string `json:"slug,omitempty"`
}

// Opportunity is a market whose best prices guarantee a profit
type Opportunity struct {
	ID                       string             `json:"id,omitempty"`
	EventID                  string             `json:"eventId"`
	EventName                string             `json:"eventName"`
	MarketName               string             `json:"marketName"`
	Sport                    string             `json:"sport,omitempty"`
	League                   string             `json:"league,omitempty"`
	SumImpliedProbability    float64            `json:"sumImpliedProbability"`
	GuaranteedProfitFraction float64            `json:"guaranteedProfitFraction"`
	Bankroll                 float64            `json:"bankroll"`
	CreatedAt                time.Time          `json:"createdAt"`
	Stakes                   []Stake            `json:"stakes"`
	Metrics                  *RiskMetrics       `json:"metrics,omitempty"`
	Simulation               *SimulationSummary `json:"simulation,omitempty"`
}

// Stake is the allocation for one outcome within an opportunity
type Stake struct {
	OutcomeID     string  `json:"runnerId,omitempty"`
	OutcomeName   string  `json:"runner"`
	ProviderID    string  `json:"providerId"`
	ProviderName  string  `json:"providerName"`
	Odds          float64 `json:"odds"`
	StakeFraction float64 `json:"stakeFraction"`
	StakeAmount   float64 `json:"stakeAmount"`
	Payout        float64 `json:"payout"`
}

// RiskMetrics are derived statistics for one opportunity's allocation
type RiskMetrics struct {
	ExpectedValue     float64  `json:"expectedValue"`
	StandardDeviation float64  `json:"standardDeviation"`
	WinProbability    float64  `json:"winProbability"`
	KellyFraction     float64  `json:"kellyFraction"`
	SharpeRatio       Optional `json:"sharpeRatio,omitzero"` // Absent when standard deviation is zero
	ValueAtRisk       float64  `json:"valueAtRisk"`
	MaxDrawdown       Optional `json:"maxDrawdown,omitzero"` // Needs a time series, never populated
}

// SimulationSummary is the result of a Monte Carlo run
type SimulationSummary struct {
	Trials              int     `json:"trials"`
	Mean                float64 `json:"mean"`
	Stddev              float64 `json:"stddev"`
	ProbabilityPositive float64 `json:"pPositive"`
	Percentile5         float64 `json:"percentile5"`
	Percentile95        float64 `json:"percentile95"`
}
