package rebalancing

import (
	"context"
	"crypto/sha256"
	"encoding/json"
	"fmt"
	"time"

	"github.com/aristath/taxfolio/internal/domain"
	"github.com/aristath/taxfolio/internal/events"
	"github.com/aristath/taxfolio/internal/modules/costs"
	"github.com/aristath/taxfolio/internal/modules/drift"
	"github.com/aristath/taxfolio/internal/modules/ordering"
	"github.com/aristath/taxfolio/internal/workers"
	"github.com/rs/zerolog"
)

// RatesProvider resolves a location to its tax rate profile
type RatesProvider interface {
	GetRates(location string) (domain.TaxRates, error)
}

// SnapshotStore caches full analysis results between requests, keyed by
// portfolio ID plus input digest.
type SnapshotStore interface {
	Get(key string, out interface{}) (bool, error)
	Put(key string, value interface{}) error
}

// AnalyzeRequest is one portfolio analysis call
type AnalyzeRequest struct {
	PortfolioID   string                     `json:"portfolio_id"`
	Location      string                     `json:"location"`
	Assets        []domain.AssetClass        `json:"assets"`
	TotalValue    float64                    `json:"total_value"`
	Strategy      domain.RebalancingStrategy `json:"strategy"`
	Lots          []domain.TaxLot            `json:"lots,omitempty"`
	CashAvailable float64                    `json:"cash_available"`
	Refresh       bool                       `json:"refresh,omitempty"`
	AsOf          time.Time                  `json:"as_of,omitempty"`
}

// Analysis is the full result of a rebalancing analysis
type Analysis struct {
	PortfolioID     string                     `json:"portfolio_id" msgpack:"portfolio_id"`
	GeneratedAt     time.Time                  `json:"generated_at" msgpack:"generated_at"`
	Metrics         domain.PortfolioMetrics    `json:"metrics" msgpack:"metrics"`
	Drifts          []drift.AssetDrift         `json:"drifts" msgpack:"drifts"`
	Actions         []domain.RebalancingAction `json:"actions" msgpack:"actions"`
	TaxImpactSource TaxImpactSource            `json:"tax_impact_source" msgpack:"tax_impact_source"`
	Plan            ordering.Plan              `json:"plan" msgpack:"plan"`
	Costs           costs.Estimate             `json:"costs" msgpack:"costs"`
	Cached          bool                       `json:"cached" msgpack:"-"`
}

// BatchResult pairs one batch entry with its analysis or error
type BatchResult struct {
	PortfolioID string    `json:"portfolio_id"`
	Analysis    *Analysis `json:"analysis,omitempty"`
	Error       string    `json:"error,omitempty"`
}

// Service orchestrates drift analysis, action generation, trade ordering
// and cost estimation for the API layer.
type Service struct {
	generator *Generator
	evaluator *TriggerEvaluator
	rates     RatesProvider
	store     SnapshotStore
	bus       *events.Bus
	pool      *workers.Pool
	fees      domain.FeeSchedule
	log       zerolog.Logger
}

// NewService creates the rebalancing service. store and bus may be nil,
// in which case caching and event publishing are skipped.
func NewService(
	generator *Generator,
	evaluator *TriggerEvaluator,
	rates RatesProvider,
	store SnapshotStore,
	bus *events.Bus,
	pool *workers.Pool,
	fees domain.FeeSchedule,
	log zerolog.Logger,
) *Service {
	return &Service{
		generator: generator,
		evaluator: evaluator,
		rates:     rates,
		store:     store,
		bus:       bus,
		pool:      pool,
		fees:      fees,
		log:       log.With().Str("service", "rebalancing").Logger(),
	}
}

// cacheKey derives the snapshot key from the portfolio ID and a digest of
// the financial inputs. A request carrying different assets, lots, strategy
// or cash must never resolve to a cached analysis of the old inputs.
func cacheKey(req AnalyzeRequest) string {
	inputs, err := json.Marshal(struct {
		Location      string                     `json:"location"`
		Assets        []domain.AssetClass        `json:"assets"`
		TotalValue    float64                    `json:"total_value"`
		Strategy      domain.RebalancingStrategy `json:"strategy"`
		Lots          []domain.TaxLot            `json:"lots"`
		CashAvailable float64                    `json:"cash_available"`
	}{req.Location, req.Assets, req.TotalValue, req.Strategy, req.Lots, req.CashAvailable})
	if err != nil {
		// Marshal of plain value types cannot fail; fall back to the bare ID.
		return req.PortfolioID
	}
	digest := sha256.Sum256(inputs)
	return fmt.Sprintf("%s:%x", req.PortfolioID, digest[:8])
}

// AnalyzePortfolio runs the full pipeline for one portfolio: metrics,
// actions, execution ordering and cost estimate. Results are cached per
// portfolio and input digest until the snapshot TTL expires; Refresh
// bypasses the cache.
func (s *Service) AnalyzePortfolio(req AnalyzeRequest) (*Analysis, error) {
	start := time.Now()
	key := cacheKey(req)

	if s.store != nil && !req.Refresh {
		var cached Analysis
		found, err := s.store.Get(key, &cached)
		if err != nil {
			s.log.Warn().Err(err).Str("portfolio_id", req.PortfolioID).Msg("Snapshot lookup failed")
		} else if found {
			cached.Cached = true
			return &cached, nil
		}
	}

	rates, err := s.rates.GetRates(req.Location)
	if err != nil {
		return nil, err
	}

	metrics, err := drift.ComputeMetrics(req.Assets, req.TotalValue)
	if err != nil {
		return nil, err
	}

	asOf := req.AsOf
	if asOf.IsZero() {
		asOf = time.Now().UTC()
	}

	generated, err := s.generator.Generate(req.Assets, req.TotalValue, req.Strategy, req.Lots, rates, asOf)
	if err != nil {
		return nil, err
	}

	plan := ordering.Optimize(generated.Actions, req.CashAvailable)
	estimate := costs.EstimateActions(plan.Ordered, s.fees)

	analysis := &Analysis{
		PortfolioID:     req.PortfolioID,
		GeneratedAt:     asOf,
		Metrics:         metrics,
		Drifts:          drift.ComputeDrifts(req.Assets),
		Actions:         generated.Actions,
		TaxImpactSource: generated.TaxImpactSource,
		Plan:            plan,
		Costs:           estimate,
	}

	if s.store != nil {
		if err := s.store.Put(key, analysis); err != nil {
			s.log.Warn().Err(err).Str("portfolio_id", req.PortfolioID).Msg("Snapshot store failed")
		}
	}

	if s.bus != nil {
		s.bus.Publish(events.EventAnalysisComplete, events.AnalysisCompleteData{
			PortfolioID:      req.PortfolioID,
			ActionCount:      len(analysis.Actions),
			NeedsRebalancing: metrics.Status != domain.StatusBalanced,
			MaxDeviation:     metrics.MaxDeviation,
			EstimatedCost:    estimate.TotalCost,
			DurationMs:       time.Since(start).Milliseconds(),
		})
	}

	s.log.Info().
		Str("portfolio_id", req.PortfolioID).
		Int("actions", len(analysis.Actions)).
		Str("status", string(metrics.Status)).
		Dur("elapsed", time.Since(start)).
		Msg("Portfolio analyzed")

	return analysis, nil
}

// AnalyzeBatch analyzes independent portfolios in parallel through the
// worker pool. Entries keep their input order.
func (s *Service) AnalyzeBatch(ctx context.Context, reqs []AnalyzeRequest) []BatchResult {
	jobs := make([]workers.Job, len(reqs))
	for i, req := range reqs {
		req := req
		jobs[i] = func(ctx context.Context) (interface{}, error) {
			return s.AnalyzePortfolio(req)
		}
	}

	results := s.pool.Map(ctx, jobs)

	out := make([]BatchResult, len(reqs))
	for i, result := range results {
		entry := BatchResult{PortfolioID: reqs[i].PortfolioID}
		if result.Err != nil {
			entry.Error = result.Err.Error()
		} else {
			entry.Analysis = result.Value.(*Analysis)
		}
		out[i] = entry
	}
	return out
}

// EvaluateTrigger runs one trigger evaluation and publishes an event when
// it fires.
func (s *Service) EvaluateTrigger(
	portfolioID string,
	assets []domain.AssetClass,
	req TriggerRequest,
	now time.Time,
) (TriggerDecision, error) {
	decision, err := s.evaluator.ShouldRebalance(assets, req, now)
	if err != nil {
		return TriggerDecision{}, err
	}

	if decision.Fire && s.bus != nil {
		s.bus.Publish(events.EventTriggerFired, events.TriggerFiredData{
			PortfolioID: portfolioID,
			TriggerType: string(req.Type),
			Urgency:     string(decision.Urgency),
			Reason:      decision.Reason,
			EvaluatedAt: now,
		})
	}

	return decision, nil
}
