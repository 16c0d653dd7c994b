package simulator

import (
	"context"
	"fmt"
	"math"
	"math/rand/v2"
	"sort"

	"golang.org/x/sync/errgroup"

	"github.com/XavierBriggs/fortuna/services/arb-analytics/pkg/models"
	"github.com/XavierBriggs/fortuna/services/arb-analytics/pkg/oddsmath"
)

const (
	// DefaultTrials is used when the caller does not set a trial count
	DefaultTrials = 2000
	// ChunkSize is the number of trials drawn from one chunk generator
	ChunkSize = 4096

	lowerRank = 0.05
	upperRank = 0.95
)

// Outcome is one possible result of an opportunity
type Outcome struct {
	Probability float64
	Payout      float64
}

// Simulator draws Monte Carlo samples of realized profit
type Simulator struct {
	workers int
}

// New creates a simulator that generates chunks on up to workers goroutines
func New(workers int) *Simulator {
	if workers < 1 {
		workers = 1
	}
	return &Simulator{workers: workers}
}

// OutcomesFromOpportunity rebuilds outcome probabilities from a produced opportunity.
// stakeFraction_i * sumImpliedProbability recovers each implied probability, which is
// then normalised exactly as the analysis normalises its quotes.
func OutcomesFromOpportunity(opp models.Opportunity) []Outcome {
	implied := make([]float64, len(opp.Stakes))
	for i, s := range opp.Stakes {
		implied[i] = s.StakeFraction * opp.SumImpliedProbability
	}
	return OutcomesFromStakes(oddsmath.Normalize(implied), opp.Stakes)
}

// OutcomesFromStakes pairs normalized probabilities with stake payouts
func OutcomesFromStakes(probabilities []float64, stakes []models.Stake) []Outcome {
	n := len(stakes)
	if len(probabilities) < n {
		n = len(probabilities)
	}

	outcomes := make([]Outcome, n)
	for i := 0; i < n; i++ {
		outcomes[i] = Outcome{Probability: probabilities[i], Payout: stakes[i].Payout}
	}
	return outcomes
}

// Draw samples one trial profit. u in [0,1) selects the first outcome whose
// cumulative probability reaches u; the last outcome absorbs any rounding shortfall.
func Draw(rng *rand.Rand, outcomes []Outcome, bankroll float64) float64 {
	if len(outcomes) == 0 {
		return 0
	}

	u := rng.Float64()
	cumulative := 0.0
	for _, o := range outcomes {
		cumulative += o.Probability
		if u <= cumulative {
			return o.Payout - bankroll
		}
	}
	return outcomes[len(outcomes)-1].Payout - bankroll
}

// RunSeeded draws exactly trials samples in fixed-size chunks. Chunk k uses a
// generator seeded from (seed, k) and fills its own range of one buffer, so the
// samples are identical for any worker count.
func (s *Simulator) RunSeeded(ctx context.Context, seed uint64, outcomes []Outcome, bankroll float64, trials int) (models.SimulationSummary, error) {
	if trials < 1 {
		return models.SimulationSummary{}, fmt.Errorf("trials must be >= 1, got %d", trials)
	}

	samples := make([]float64, trials)
	chunks := (trials + ChunkSize - 1) / ChunkSize

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.workers)

	for k := 0; k < chunks; k++ {
		start := k * ChunkSize
		end := start + ChunkSize
		if end > trials {
			end = trials
		}
		chunk := uint64(k)

		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			rng := ChunkRand(seed, chunk)
			for i := start; i < end; i++ {
				samples[i] = Draw(rng, outcomes, bankroll)
			}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return models.SimulationSummary{}, fmt.Errorf("simulation interrupted: %w", err)
	}

	return Summarize(samples), nil
}

// ChunkRand returns the generator for chunk k of a run seeded with seed
func ChunkRand(seed, chunk uint64) *rand.Rand {
	return rand.New(rand.NewPCG(seed, chunk))
}

// Summarize computes mean, population stddev, tail percentiles and the share of
// positive samples. samples is sorted in place.
func Summarize(samples []float64) models.SimulationSummary {
	n := len(samples)
	if n == 0 {
		return models.SimulationSummary{}
	}

	sum := 0.0
	positive := 0
	for _, x := range samples {
		sum += x
		if x > 0 {
			positive++
		}
	}
	mean := sum / float64(n)

	sq := 0.0
	for _, x := range samples {
		d := x - mean
		sq += d * d
	}
	variance := sq / float64(n)

	sort.Float64s(samples)

	return models.SimulationSummary{
		Trials:              n,
		Mean:                mean,
		Stddev:              math.Sqrt(math.Max(variance, 0)),
		ProbabilityPositive: float64(positive) / float64(n),
		Percentile5:         samples[oddsmath.PercentileIndex(n, lowerRank)],
		Percentile95:        samples[oddsmath.UpperPercentileIndex(n, upperRank)],
	}
}
