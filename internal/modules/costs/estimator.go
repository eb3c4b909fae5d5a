// Package costs estimates the trading and tax costs of a batch of
// rebalancing actions.
package costs

import (
	"github.com/aristath/taxfolio/internal/domain"
)

// Estimate is the cost breakdown for a batch of actions
type Estimate struct {
	TradingCosts  float64 `json:"trading_costs"`
	TaxCosts      float64 `json:"tax_costs"`
	TotalCost     float64 `json:"total_cost"`
	CostPerAction float64 `json:"cost_per_action"`
}

// EstimateActions computes the cost of executing a batch of actions under
// a fee schedule. Tax losses do not subtract from cost: they are a
// harvested benefit reported elsewhere, so only positive tax impacts count.
func EstimateActions(actions []domain.RebalancingAction, fees domain.FeeSchedule) Estimate {
	var trading, tax float64
	for _, action := range actions {
		trading += fees.CommissionPerTrade + action.DollarAmount*fees.SpreadPct
		if action.TaxImpact > 0 {
			tax += action.TaxImpact
		}
	}

	est := Estimate{
		TradingCosts: trading,
		TaxCosts:     tax,
		TotalCost:    trading + tax,
	}
	if len(actions) > 0 {
		est.CostPerAction = est.TotalCost / float64(len(actions))
	}

	return est
}
