package writer

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/XavierBriggs/fortuna/services/arb-analytics/pkg/models"
)

// Schema creates the opportunity log tables if they are missing
const Schema = `
CREATE TABLE IF NOT EXISTS arb_opportunities (
	id                         TEXT PRIMARY KEY,
	event_id                   TEXT NOT NULL,
	event_name                 TEXT NOT NULL,
	market_name                TEXT NOT NULL,
	sport                      TEXT,
	league                     TEXT,
	sum_implied_probability    DOUBLE PRECISION NOT NULL,
	guaranteed_profit_fraction DOUBLE PRECISION NOT NULL,
	bankroll                   DOUBLE PRECISION NOT NULL,
	expected_value             DOUBLE PRECISION,
	standard_deviation         DOUBLE PRECISION,
	win_probability            DOUBLE PRECISION,
	kelly_fraction             DOUBLE PRECISION,
	sharpe_ratio               DOUBLE PRECISION,
	value_at_risk              DOUBLE PRECISION,
	sim_trials                 INTEGER,
	sim_mean                   DOUBLE PRECISION,
	sim_p_positive             DOUBLE PRECISION,
	created_at                 TIMESTAMPTZ NOT NULL
);

CREATE TABLE IF NOT EXISTS arb_opportunity_stakes (
	opportunity_id TEXT NOT NULL REFERENCES arb_opportunities(id) ON DELETE CASCADE,
	position       INTEGER NOT NULL,
	runner_id      TEXT,
	runner         TEXT NOT NULL,
	provider_id    TEXT NOT NULL,
	provider_name  TEXT NOT NULL,
	odds           DOUBLE PRECISION NOT NULL,
	stake_fraction DOUBLE PRECISION NOT NULL,
	stake_amount   DOUBLE PRECISION NOT NULL,
	payout         DOUBLE PRECISION NOT NULL,
	PRIMARY KEY (opportunity_id, position)
);
`

// HolocronWriter logs produced opportunities to the Holocron database
type HolocronWriter struct {
	db *sql.DB
}

// NewHolocronWriter creates a new Holocron writer
func NewHolocronWriter(db *sql.DB) *HolocronWriter {
	return &HolocronWriter{
		db: db,
	}
}

// EnsureSchema creates the tables used by the writer
func (w *HolocronWriter) EnsureSchema(ctx context.Context) error {
	if _, err := w.db.ExecContext(ctx, Schema); err != nil {
		return fmt.Errorf("failed to create schema: %w", err)
	}
	return nil
}

// WriteOpportunity writes an opportunity and its stakes in one transaction
func (w *HolocronWriter) WriteOpportunity(ctx context.Context, opp models.Opportunity) error {
	if opp.ID == "" {
		return fmt.Errorf("opportunity for %s/%s has no id", opp.EventID, opp.MarketName)
	}

	tx, err := w.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback() // Rollback if commit doesn't happen

	opportunityQuery := `
		INSERT INTO arb_opportunities (
			id, event_id, event_name, market_name, sport, league,
			sum_implied_probability, guaranteed_profit_fraction, bankroll,
			expected_value, standard_deviation, win_probability, kelly_fraction,
			sharpe_ratio, value_at_risk, sim_trials, sim_mean, sim_p_positive, created_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19)
		ON CONFLICT (id) DO NOTHING
	`

	_, err = tx.ExecContext(ctx, opportunityQuery, OpportunityArgs(opp)...)
	if err != nil {
		return fmt.Errorf("failed to insert opportunity: %w", err)
	}

	stakeQuery := `
		INSERT INTO arb_opportunity_stakes (
			opportunity_id, position, runner_id, runner, provider_id, provider_name,
			odds, stake_fraction, stake_amount, payout
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		ON CONFLICT (opportunity_id, position) DO NOTHING
	`

	for i, s := range opp.Stakes {
		_, err = tx.ExecContext(
			ctx,
			stakeQuery,
			opp.ID,
			i,
			nullString(s.OutcomeID),
			s.OutcomeName,
			s.ProviderID,
			s.ProviderName,
			s.Odds,
			s.StakeFraction,
			s.StakeAmount,
			s.Payout,
		)
		if err != nil {
			return fmt.Errorf("failed to insert stake %d: %w", i, err)
		}
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	return nil
}

// Publish writes every opportunity, stopping at the first failure
func (w *HolocronWriter) Publish(ctx context.Context, opportunities []models.Opportunity) error {
	for _, opp := range opportunities {
		if err := w.WriteOpportunity(ctx, opp); err != nil {
			return err
		}
	}
	return nil
}

// OpportunityArgs returns the insert arguments for one opportunity row.
// Missing metrics, simulation and an absent Sharpe ratio become NULL.
func OpportunityArgs(opp models.Opportunity) []interface{} {
	var (
		ev, sd, win, kelly, sharpe, vaR sql.NullFloat64
		trials                          sql.NullInt64
		mean, pPositive                 sql.NullFloat64
	)

	if m := opp.Metrics; m != nil {
		ev = sql.NullFloat64{Float64: m.ExpectedValue, Valid: true}
		sd = sql.NullFloat64{Float64: m.StandardDeviation, Valid: true}
		win = sql.NullFloat64{Float64: m.WinProbability, Valid: true}
		kelly = sql.NullFloat64{Float64: m.KellyFraction, Valid: true}
		vaR = sql.NullFloat64{Float64: m.ValueAtRisk, Valid: true}
		sharpe = nullOptional(m.SharpeRatio)
	}
	if s := opp.Simulation; s != nil {
		trials = sql.NullInt64{Int64: int64(s.Trials), Valid: true}
		mean = sql.NullFloat64{Float64: s.Mean, Valid: true}
		pPositive = sql.NullFloat64{Float64: s.ProbabilityPositive, Valid: true}
	}

	return []interface{}{
		opp.ID,
		opp.EventID,
		opp.EventName,
		opp.MarketName,
		nullString(opp.Sport),
		nullString(opp.League),
		opp.SumImpliedProbability,
		opp.GuaranteedProfitFraction,
		opp.Bankroll,
		ev,
		sd,
		win,
		kelly,
		sharpe,
		vaR,
		trials,
		mean,
		pPositive,
		opp.CreatedAt,
	}
}

func nullOptional(o models.Optional) sql.NullFloat64 {
	v, ok := o.Get()
	return sql.NullFloat64{Float64: v, Valid: ok}
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
