// Package summary assembles the portfolio-wide tax-optimization report
// from the harvesting, capital-gains and schedule components.
package summary

import (
	"sort"
	"time"

	"github.com/aristath/taxfolio/internal/domain"
	"github.com/aristath/taxfolio/internal/modules/harvesting"
	"github.com/aristath/taxfolio/internal/modules/schedule"
	"github.com/rs/zerolog"
)

// nearTermConversionDays bounds the look-ahead for gains that become
// long-term soon enough to be worth waiting for.
const nearTermConversionDays = 90

// WashSaleAvoidance lists tickers that should not be repurchased and the
// substitutes to use instead.
type WashSaleAvoidance struct {
	BlockedTickers             []string          `json:"blocked_tickers"`
	AlternativeRecommendations map[string]string `json:"alternative_recommendations"`
}

// TaxOptimizationSummary is the portfolio-wide tax report
type TaxOptimizationSummary struct {
	PortfolioID              string            `json:"portfolio_id"`
	TaxSavings               float64           `json:"tax_savings"`
	HarvestableLosses        float64           `json:"harvestable_losses"`
	EstimatedTaxBill         float64           `json:"estimated_tax_bill"`
	OptimalRebalanceDate     time.Time         `json:"optimal_rebalance_date"`
	LongTermGainsOpportunity float64           `json:"long_term_gains_opportunity"`
	WashSaleAvoidance        WashSaleAvoidance `json:"wash_sale_avoidance"`
	TaxLotOptimization       string            `json:"tax_lot_optimization"`
}

// BuildRequest carries the inputs for one summary build
type BuildRequest struct {
	PortfolioID      string                     `json:"portfolio_id"`
	Holdings         []domain.Holding           `json:"holdings"`
	Rates            domain.TaxRates            `json:"rates"`
	Strategy         domain.RebalancingStrategy `json:"strategy"`
	MinLossThreshold float64                    `json:"min_loss_threshold"`
	History          []domain.TradeEvent        `json:"history,omitempty"`
	AsOf             time.Time                  `json:"as_of"`
}

// Service builds tax-optimization summaries
type Service struct {
	scanner   *harvesting.Scanner
	scheduler *schedule.Generator
	log       zerolog.Logger
}

// NewService creates a summary service
func NewService(scanner *harvesting.Scanner, scheduler *schedule.Generator, log zerolog.Logger) *Service {
	return &Service{
		scanner:   scanner,
		scheduler: scheduler,
		log:       log.With().Str("service", "summary").Logger(),
	}
}

// Build assembles the full tax-optimization summary for a portfolio.
func (s *Service) Build(req BuildRequest) (*TaxOptimizationSummary, error) {
	opportunities, err := s.scanner.Scan(req.Holdings, req.Rates, req.MinLossThreshold, req.History, req.AsOf)
	if err != nil {
		return nil, err
	}

	result := &TaxOptimizationSummary{
		PortfolioID:          req.PortfolioID,
		OptimalRebalanceDate: s.scheduler.OptimalRebalanceDate(req.Holdings),
		WashSaleAvoidance: WashSaleAvoidance{
			BlockedTickers:             []string{},
			AlternativeRecommendations: map[string]string{},
		},
	}

	blocked := make(map[string]bool)
	for _, opp := range opportunities {
		result.HarvestableLosses += opp.UnrealizedLoss
		result.TaxSavings += opp.TaxBenefit

		if opp.WashSale == domain.WashSaleAtRisk {
			// Multiple lots of the same ticker may each be at risk; list it once.
			if !blocked[opp.Ticker] {
				blocked[opp.Ticker] = true
				result.WashSaleAvoidance.BlockedTickers = append(result.WashSaleAvoidance.BlockedTickers, opp.Ticker)
			}
			if opp.ReplacementTicker != "" {
				result.WashSaleAvoidance.AlternativeRecommendations[opp.Ticker] = opp.ReplacementTicker
			}
		}
	}
	sort.Strings(result.WashSaleAvoidance.BlockedTickers)

	result.EstimatedTaxBill = s.estimatedTaxBill(req.Holdings, req.Rates, req.AsOf)
	result.LongTermGainsOpportunity = s.longTermOpportunity(req.Holdings, req.Rates, req.AsOf)
	result.TaxLotOptimization = lotAdvice(req.Strategy)

	s.log.Debug().
		Str("portfolio_id", req.PortfolioID).
		Float64("harvestable_losses", result.HarvestableLosses).
		Float64("estimated_tax_bill", result.EstimatedTaxBill).
		Msg("Tax summary built")

	return result, nil
}

// estimatedTaxBill is the tax due if every appreciated holding were sold
// as of the given date, at the rate matching its holding period.
func (s *Service) estimatedTaxBill(holdings []domain.Holding, rates domain.TaxRates, asOf time.Time) float64 {
	var bill float64
	for _, holding := range holdings {
		gain := holding.CurrentValue() - holding.CostBasis
		if gain <= 0 {
			continue
		}
		isLongTerm := asOf.Sub(holding.PurchaseDate).Hours()/24 > 365
		bill += gain * rates.EffectiveCapitalGainsRate(isLongTerm)
	}
	return bill
}

// longTermOpportunity is the tax saved by deferring sales of appreciated
// short-term holdings that convert to long-term within the look-ahead
// window: gain times the short/long rate spread.
func (s *Service) longTermOpportunity(holdings []domain.Holding, rates domain.TaxRates, asOf time.Time) float64 {
	spread := rates.EffectiveCapitalGainsRate(false) - rates.EffectiveCapitalGainsRate(true)
	if spread <= 0 {
		return 0
	}

	var opportunity float64
	for _, holding := range holdings {
		gain := holding.CurrentValue() - holding.CostBasis
		if gain <= 0 {
			continue
		}
		conversion := holding.PurchaseDate.AddDate(0, 0, 366)
		daysUntil := conversion.Sub(asOf).Hours() / 24
		if daysUntil > 0 && daysUntil <= nearTermConversionDays {
			opportunity += gain * spread
		}
	}
	return opportunity
}

func lotAdvice(strategy domain.RebalancingStrategy) string {
	if strategy.TaxOptimized {
		return "HIFO lot selection in effect: sales realize the smallest possible gains"
	}
	return "FIFO lot selection in effect: enable tax optimization to prefer high-basis lots"
}
