// Package drift computes per-asset and portfolio-level deviation from
// target allocation.
package drift

import (
	"math"

	"github.com/aristath/taxfolio/internal/domain"
)

// reportingThreshold is the fixed 5% deviation above which an asset counts
// as needing rebalancing in portfolio metrics. This is a reporting
// threshold, distinct from any strategy's action-trigger tolerance.
const reportingThreshold = 0.05

// AssetDrift is the per-asset deviation breakdown
type AssetDrift struct {
	Ticker           string  `json:"ticker"`
	CurrentWeight    float64 `json:"current_weight"`
	TargetWeight     float64 `json:"target_weight"`
	Deviation        float64 `json:"deviation"`
	NeedsRebalancing bool    `json:"needs_rebalancing"`
}

// ComputeDrifts returns the deviation of each asset from its target weight
func ComputeDrifts(assets []domain.AssetClass) []AssetDrift {
	drifts := make([]AssetDrift, 0, len(assets))
	for _, asset := range assets {
		deviation := math.Abs(asset.CurrentWeight - asset.TargetWeight)
		drifts = append(drifts, AssetDrift{
			Ticker:           asset.Ticker,
			CurrentWeight:    asset.CurrentWeight,
			TargetWeight:     asset.TargetWeight,
			Deviation:        deviation,
			NeedsRebalancing: deviation > reportingThreshold,
		})
	}
	return drifts
}

// ComputeMetrics summarizes allocation drift for a whole portfolio.
//
// A zero total value yields neutral zero metrics with a balanced status
// rather than an error: an empty portfolio has nothing to rebalance.
func ComputeMetrics(assets []domain.AssetClass, totalValue float64) (domain.PortfolioMetrics, error) {
	for _, asset := range assets {
		if asset.CurrentShares < 0 {
			return domain.PortfolioMetrics{}, domain.NewValidationError("current_shares", "must not be negative")
		}
		if asset.CurrentValue < 0 {
			return domain.PortfolioMetrics{}, domain.NewValidationError("current_value", "must not be negative")
		}
	}

	if totalValue <= 0 || len(assets) == 0 {
		return domain.PortfolioMetrics{
			TotalValue: math.Max(totalValue, 0),
			Status:     domain.StatusBalanced,
		}, nil
	}

	var (
		maxDeviation     float64
		needsRebalancing int
		weightedTaxEff   float64
	)
	for _, d := range ComputeDrifts(assets) {
		if d.Deviation > maxDeviation {
			maxDeviation = d.Deviation
		}
		if d.NeedsRebalancing {
			needsRebalancing++
		}
	}
	for _, asset := range assets {
		weightedTaxEff += asset.CurrentWeight * asset.TaxEfficiency
	}

	efficiency := (1 - maxDeviation) * 100 * weightedTaxEff
	if efficiency < 0 {
		efficiency = 0
	}

	status := domain.StatusBalanced
	switch {
	case needsRebalancing > len(assets)/2:
		status = domain.StatusCritical
	case needsRebalancing > 0:
		status = domain.StatusNeedsRebalancing
	}

	return domain.PortfolioMetrics{
		TotalValue:            totalValue,
		Efficiency:            efficiency,
		MaxDeviation:          maxDeviation,
		NeedsRebalancingCount: needsRebalancing,
		Status:                status,
	}, nil
}
