package costs

import (
	"testing"

	"github.com/aristath/taxfolio/internal/domain"
	"github.com/stretchr/testify/assert"
)

func TestEstimateActions(t *testing.T) {
	actions := []domain.RebalancingAction{
		{Side: domain.ActionSell, DollarAmount: 10000, TaxImpact: 500},
		{Side: domain.ActionSell, DollarAmount: 5000, TaxImpact: -200}, // harvested loss
		{Side: domain.ActionBuy, DollarAmount: 12000, TaxImpact: 0},
	}
	fees := domain.FeeSchedule{CommissionPerTrade: 1.0, SpreadPct: 0.001}

	est := EstimateActions(actions, fees)

	// 3 commissions + 0.1% of 27000 traded
	assert.InDelta(t, 30.0, est.TradingCosts, 1e-9)
	// Only the positive tax impact counts; the loss is a benefit, not a cost
	assert.InDelta(t, 500.0, est.TaxCosts, 1e-9)
	assert.InDelta(t, 530.0, est.TotalCost, 1e-9)
	assert.InDelta(t, 530.0/3, est.CostPerAction, 1e-9)
}

func TestEstimateActions_Empty(t *testing.T) {
	est := EstimateActions(nil, domain.FeeSchedule{CommissionPerTrade: 1.0})
	assert.Zero(t, est.TradingCosts)
	assert.Zero(t, est.TaxCosts)
	assert.Zero(t, est.TotalCost)
	assert.Zero(t, est.CostPerAction)
}

func TestEstimateActions_ZeroFeeSchedule(t *testing.T) {
	actions := []domain.RebalancingAction{
		{Side: domain.ActionSell, DollarAmount: 10000, TaxImpact: 100},
	}

	est := EstimateActions(actions, domain.FeeSchedule{})
	assert.Zero(t, est.TradingCosts)
	assert.InDelta(t, 100.0, est.TaxCosts, 1e-9)
}
