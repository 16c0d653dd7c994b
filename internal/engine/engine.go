package engine

import (
	"context"
	"fmt"
	"math"
	"math/rand/v2"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/XavierBriggs/fortuna/services/arb-analytics/internal/aggregator"
	"github.com/XavierBriggs/fortuna/services/arb-analytics/internal/calculator"
	"github.com/XavierBriggs/fortuna/services/arb-analytics/internal/detector"
	"github.com/XavierBriggs/fortuna/services/arb-analytics/internal/simulator"
	"github.com/XavierBriggs/fortuna/services/arb-analytics/pkg/models"
)

// impliedTolerance is how far a caller-supplied implied probability may drift from 1/odds before it is logged
const impliedTolerance = 1e-6

// Config configures the analytics engine
type Config struct {
	Trials       int     // Monte Carlo trials per opportunity, default 2000
	Workers      int     // Goroutines for simulation chunks and per-opportunity fan-out
	Seed         uint64  // 0 = fresh random seed per call
	RiskFreeRate float64 // Annual rate for Sharpe
}

// Engine runs the analytics pipeline: aggregate, detect, allocate, analyze risk, simulate
type Engine struct {
	config    Config
	risk      *calculator.RiskAnalyzer
	simulator *simulator.Simulator
	logger    logrus.FieldLogger
	seeder    func() uint64
	now       func() time.Time
	newID     func() string
}

// Option customizes an Engine
type Option func(*Engine)

// WithSeeder overrides the per-call seed source
func WithSeeder(seeder func() uint64) Option {
	return func(e *Engine) { e.seeder = seeder }
}

// WithClock overrides the clock used for createdAt
func WithClock(now func() time.Time) Option {
	return func(e *Engine) { e.now = now }
}

// WithIDGenerator overrides opportunity id generation
func WithIDGenerator(newID func() string) Option {
	return func(e *Engine) { e.newID = newID }
}

// New creates a new analytics engine
func New(config Config, logger logrus.FieldLogger, opts ...Option) *Engine {
	if config.Trials < 1 {
		config.Trials = simulator.DefaultTrials
	}
	if config.Workers < 1 {
		config.Workers = 1
	}
	if logger == nil {
		logger = logrus.StandardLogger()
	}

	e := &Engine{
		config:    config,
		risk:      calculator.NewRiskAnalyzer(config.RiskFreeRate),
		simulator: simulator.New(config.Workers),
		logger:    logger.WithField("component", "engine"),
		seeder:    rand.Uint64,
		now:       time.Now,
		newID:     func() string { return uuid.New().String() },
	}
	if config.Seed != 0 {
		seed := config.Seed
		e.seeder = func() uint64 { return seed }
	}

	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Analyze runs the full pipeline over a snapshot and returns opportunities sorted by
// guaranteed profit descending
func (e *Engine) Analyze(ctx context.Context, req models.AnalyzeRequest) ([]models.Opportunity, error) {
	start := time.Now()

	if err := req.Validate(); err != nil {
		return nil, err
	}

	quotes, err := models.NewQuotes(req.Markets)
	if err != nil {
		return nil, err
	}
	e.logImpliedMismatches(req.Markets, quotes)

	markets := aggregator.Aggregate(quotes)

	minimumEdge := 0.0
	if req.MinimumEdge != nil {
		minimumEdge = *req.MinimumEdge
	}

	d := detector.NewArbitrageDetector(detector.Config{
		Bankroll:         req.Bankroll,
		MinimumEdge:      minimumEdge,
		MinimumProviders: req.MinimumProviders,
	})

	candidates := d.Detect(markets, e.now().UTC())

	opportunities := make([]models.Opportunity, len(candidates))
	baseSeed := e.seeder()
	seeds := rand.New(rand.NewPCG(baseSeed, uint64(len(candidates))))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(e.config.Workers)

	for i, c := range candidates {
		seed := seeds.Uint64()
		g.Go(func() error {
			opp, err := e.enrich(gctx, c, seed)
			if err != nil {
				return fmt.Errorf("opportunity %s/%s: %w", c.Opportunity.EventID, c.Opportunity.MarketName, err)
			}
			opportunities[i] = opp
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}

	e.logger.WithFields(logrus.Fields{
		"quotes":        len(quotes),
		"markets":       len(markets),
		"opportunities": len(opportunities),
		"bankroll":      d.Bankroll(),
		"latency_ms":    time.Since(start).Milliseconds(),
	}).Info("analysis complete")

	return opportunities, nil
}

// enrich adds an id, risk metrics and a simulation summary. Risk and simulation are
// independent given the stakes and run concurrently.
func (e *Engine) enrich(ctx context.Context, c detector.Candidate, seed uint64) (models.Opportunity, error) {
	opp := c.Opportunity
	opp.ID = e.newID()

	probabilities := calculator.NormalizedProbabilities(c.Quotes)
	outcomes := simulator.OutcomesFromStakes(probabilities, opp.Stakes)

	var metrics models.RiskMetrics
	var summary models.SimulationSummary

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		metrics = e.risk.Analyze(c.Quotes, opp.Stakes, opp.Bankroll)
		return nil
	})
	g.Go(func() error {
		var err error
		summary, err = e.simulator.RunSeeded(gctx, seed, outcomes, opp.Bankroll, e.config.Trials)
		return err
	})
	if err := g.Wait(); err != nil {
		return models.Opportunity{}, err
	}

	opp.Metrics = &metrics
	opp.Simulation = &summary
	return opp, nil
}

// Simulate re-runs the Monte Carlo stage for a previously produced opportunity
func (e *Engine) Simulate(ctx context.Context, req models.SimulateRequest) (models.SimulationSummary, error) {
	if err := req.Validate(); err != nil {
		return models.SimulationSummary{}, err
	}

	trials := e.config.Trials
	if req.Trials != nil {
		trials = *req.Trials
	}
	bankroll := req.Opportunity.Bankroll
	if req.Bankroll != nil {
		bankroll = *req.Bankroll
	}

	outcomes := simulator.OutcomesFromOpportunity(req.Opportunity)
	summary, err := e.simulator.RunSeeded(ctx, e.seeder(), outcomes, bankroll, trials)
	if err != nil {
		return models.SimulationSummary{}, err
	}

	e.logger.WithFields(logrus.Fields{
		"event_id": req.Opportunity.EventID,
		"market":   req.Opportunity.MarketName,
		"trials":   trials,
	}).Debug("re-simulation complete")

	return summary, nil
}

// logImpliedMismatches reports caller-supplied implied probabilities that disagree with 1/odds.
// The caller value is never used.
func (e *Engine) logImpliedMismatches(raw []models.MarketQuote, quotes []models.Quote) {
	for i, mq := range raw {
		if mq.ImpliedProbability == 0 {
			continue
		}
		if math.Abs(mq.ImpliedProbability-quotes[i].ImpliedProbability) > impliedTolerance {
			e.logger.WithFields(logrus.Fields{
				"event_id": mq.EventID,
				"market":   mq.MarketName,
				"runner":   mq.Outcome.ID,
				"provider": mq.Provider.ID,
				"supplied": mq.ImpliedProbability,
				"derived":  quotes[i].ImpliedProbability,
			}).Debug("ignoring supplied implied probability")
		}
	}
}
