// Package rebalancing turns allocation drift into prioritized, tax-aware
// trade actions and decides when rebalancing should happen at all.
package rebalancing

import (
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/aristath/taxfolio/internal/domain"
	"github.com/aristath/taxfolio/internal/modules/taxlots"
	"github.com/rs/zerolog"
)

// allocationSumTolerance is how far target weights may drift from 1.0
// before the allocation is rejected as invalid.
const allocationSumTolerance = 0.001

// toleranceEpsilon keeps a deviation exactly at the strategy tolerance
// firing despite float arithmetic (0.25 - 0.20 < 0.05 in float64).
const toleranceEpsilon = 1e-9

// TaxImpactSource records which tax-impact computation produced an action
// set. A single Generate call uses exactly one source, never a mix.
type TaxImpactSource string

const (
	// TaxImpactLots means impacts were computed lot-accurately via the
	// capital-gains calculator.
	TaxImpactLots TaxImpactSource = "lots"
	// TaxImpactHeuristic means impacts used the flat assumed-gain fraction.
	TaxImpactHeuristic TaxImpactSource = "heuristic"
)

// GenerateResult is the action set plus how tax impacts were derived
type GenerateResult struct {
	Actions         []domain.RebalancingAction `json:"actions"`
	TaxImpactSource TaxImpactSource            `json:"tax_impact_source"`
}

// Generator produces buy/sell actions for assets drifted past a
// strategy's tolerance.
type Generator struct {
	calculator          *taxlots.Calculator
	assumedGainFraction float64
	log                 zerolog.Logger
}

// NewGenerator creates an action generator. assumedGainFraction is the
// fraction of a sell's dollar amount treated as gain when no lot data is
// supplied (the documented fallback heuristic).
func NewGenerator(calculator *taxlots.Calculator, assumedGainFraction float64, log zerolog.Logger) *Generator {
	return &Generator{
		calculator:          calculator,
		assumedGainFraction: assumedGainFraction,
		log:                 log.With().Str("service", "action_generator").Logger(),
	}
}

// Generate computes the trades needed to close drift beyond the strategy's
// threshold tolerance.
//
// When lots are supplied, sell-side tax impacts route through the
// capital-gains calculator (HIFO when the strategy is tax-optimized, FIFO
// otherwise) and an insufficient-lot condition is an error, never a
// fallback to the heuristic. Without lots the flat assumed-gain heuristic
// applies. Buys always carry zero tax impact.
func (g *Generator) Generate(
	assets []domain.AssetClass,
	totalValue float64,
	strategy domain.RebalancingStrategy,
	lots []domain.TaxLot,
	rates domain.TaxRates,
	asOf time.Time,
) (*GenerateResult, error) {
	if err := validateAssets(assets); err != nil {
		return nil, err
	}
	if strategy.ThresholdTolerance < 0 || strategy.ThresholdTolerance > 1 {
		return nil, domain.NewValidationError("threshold_tolerance", "must be between 0 and 1")
	}
	if strategy.TargetAllocation != nil {
		if err := validateAllocation(strategy.TargetAllocation); err != nil {
			return nil, err
		}
	}

	source := TaxImpactHeuristic
	if len(lots) > 0 {
		source = TaxImpactLots
	}

	result := &GenerateResult{
		Actions:         []domain.RebalancingAction{},
		TaxImpactSource: source,
	}
	if totalValue <= 0 {
		return result, nil
	}

	tolerance := strategy.ThresholdTolerance
	for _, asset := range assets {
		deviation := math.Abs(asset.CurrentWeight - asset.TargetWeight)
		if deviation < tolerance-toleranceEpsilon {
			continue
		}
		if asset.CurrentShares == 0 {
			// No position means no derivable price per share.
			g.log.Debug().Str("ticker", asset.Ticker).Msg("Skipping asset with no current shares")
			continue
		}

		price := asset.CurrentValue / asset.CurrentShares
		if price <= 0 {
			continue
		}

		targetValue := totalValue * asset.TargetWeight
		targetShares := math.Floor(targetValue / price)
		sharesToTrade := math.Abs(targetShares - asset.CurrentShares)
		if sharesToTrade == 0 {
			continue
		}
		dollarAmount := sharesToTrade * price

		side := domain.ActionBuy
		if asset.CurrentWeight > asset.TargetWeight {
			side = domain.ActionSell
		}

		priority := domain.PriorityMedium
		if deviation > 2*tolerance {
			priority = domain.PriorityHigh
		}

		var taxImpact float64
		if side == domain.ActionSell {
			var err error
			taxImpact, err = g.sellTaxImpact(asset, sharesToTrade, price, dollarAmount, strategy, lots, rates, asOf, source)
			if err != nil {
				return nil, err
			}
		}

		result.Actions = append(result.Actions, domain.RebalancingAction{
			// Deterministic ID: identical inputs must produce identical output.
			ID:            fmt.Sprintf("%s:%s", side, asset.Ticker),
			Side:          side,
			Ticker:        asset.Ticker,
			CurrentShares: asset.CurrentShares,
			TargetShares:  targetShares,
			SharesToTrade: sharesToTrade,
			DollarAmount:  dollarAmount,
			CurrentPrice:  price,
			Priority:      priority,
			TaxImpact:     taxImpact,
			Reason: fmt.Sprintf("%s drifted %.1f%% from its %.1f%% target",
				asset.Ticker, deviation*100, asset.TargetWeight*100),
		})
	}

	sort.SliceStable(result.Actions, func(i, j int) bool {
		a, b := result.Actions[i], result.Actions[j]
		if a.Priority != b.Priority {
			return a.Priority == domain.PriorityHigh
		}
		return a.TaxImpact < b.TaxImpact
	})

	return result, nil
}

func (g *Generator) sellTaxImpact(
	asset domain.AssetClass,
	sharesToTrade, price, dollarAmount float64,
	strategy domain.RebalancingStrategy,
	lots []domain.TaxLot,
	rates domain.TaxRates,
	asOf time.Time,
	source TaxImpactSource,
) (float64, error) {
	if source == TaxImpactLots {
		method := domain.LotMethodFIFO
		if strategy.TaxOptimized {
			method = domain.LotMethodHIFO
		}
		gain, err := g.calculator.ComputeSale(taxlots.SaleRequest{
			Ticker:    asset.Ticker,
			Shares:    sharesToTrade,
			SalePrice: price,
			SaleDate:  asOf,
			Method:    method,
		}, lots, rates)
		if err != nil {
			return 0, err
		}
		return gain.TaxOwed, nil
	}

	assumedGain := dollarAmount * g.assumedGainFraction
	return assumedGain * rates.EffectiveCapitalGainsRate(strategy.TaxOptimized), nil
}

// validateAllocation checks that a target allocation sums to 1.0 within
// tolerance and contains no negative weights.
func validateAllocation(allocation map[string]float64) error {
	var sum float64
	for category, weight := range allocation {
		if weight < 0 {
			return domain.NewValidationError("target_allocation", fmt.Sprintf("negative weight for %q", category))
		}
		sum += weight
	}
	if math.Abs(sum-1.0) > allocationSumTolerance {
		return domain.NewValidationError("target_allocation", fmt.Sprintf("weights sum to %.4f, expected 1.0", sum))
	}
	return nil
}

func validateAssets(assets []domain.AssetClass) error {
	var targetSum float64
	for _, asset := range assets {
		if asset.CurrentShares < 0 {
			return domain.NewValidationError("current_shares", "must not be negative")
		}
		if asset.CurrentValue < 0 {
			return domain.NewValidationError("current_value", "must not be negative")
		}
		if asset.TargetWeight < 0 {
			return domain.NewValidationError("target_weight", "must not be negative")
		}
		targetSum += asset.TargetWeight
	}
	if len(assets) > 0 && math.Abs(targetSum-1.0) > allocationSumTolerance {
		return domain.NewValidationError("target_weight", fmt.Sprintf("weights sum to %.4f, expected 1.0", targetSum))
	}
	return nil
}
