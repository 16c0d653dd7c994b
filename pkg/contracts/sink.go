package contracts

import (
	"context"

	"github.com/XavierBriggs/fortuna/services/arb-analytics/pkg/models"
)

// OpportunitySink receives opportunities produced by an analysis
type OpportunitySink interface {
	Publish(ctx context.Context, opportunities []models.Opportunity) error
}

// Analyzer is the engine surface consumed by the HTTP layer
type Analyzer interface {
	Analyze(ctx context.Context, req models.AnalyzeRequest) ([]models.Opportunity, error)
	Simulate(ctx context.Context, req models.SimulateRequest) (models.SimulationSummary, error)
}
