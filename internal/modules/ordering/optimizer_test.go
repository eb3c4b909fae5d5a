package ordering

import (
	"testing"

	"github.com/aristath/taxfolio/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fixtureActions() []domain.RebalancingAction {
	return []domain.RebalancingAction{
		{ID: "buy-vxus", Side: domain.ActionBuy, Ticker: "VXUS", DollarAmount: 8000, Priority: domain.PriorityMedium},
		{ID: "sell-qqq", Side: domain.ActionSell, Ticker: "QQQ", DollarAmount: 5000, Priority: domain.PriorityMedium, TaxImpact: 450},
		{ID: "buy-bnd", Side: domain.ActionBuy, Ticker: "BND", DollarAmount: 2000, Priority: domain.PriorityHigh},
		{ID: "sell-vti", Side: domain.ActionSell, Ticker: "VTI", DollarAmount: 3000, Priority: domain.PriorityHigh, TaxImpact: 200},
		{ID: "sell-arkk", Side: domain.ActionSell, Ticker: "ARKK", DollarAmount: 1500, Priority: domain.PriorityMedium, TaxImpact: -120},
	}
}

func TestOptimize_SellsBeforeBuys(t *testing.T) {
	plan := Optimize(fixtureActions(), 0)
	require.Len(t, plan.Ordered, 5)

	for i := 0; i < 3; i++ {
		assert.Equal(t, domain.ActionSell, plan.Ordered[i].Side, "position %d should be a sell", i)
	}
	for i := 3; i < 5; i++ {
		assert.Equal(t, domain.ActionBuy, plan.Ordered[i].Side, "position %d should be a buy", i)
	}
}

func TestOptimize_TaxLossSellsLead(t *testing.T) {
	plan := Optimize(fixtureActions(), 0)

	// The loss sell goes first despite its medium priority, then the
	// high-priority sell, then the remaining sell by ascending tax impact.
	assert.Equal(t, "sell-arkk", plan.Ordered[0].ID)
	assert.Equal(t, "sell-vti", plan.Ordered[1].ID)
	assert.Equal(t, "sell-qqq", plan.Ordered[2].ID)
}

func TestOptimize_BuysHighPriorityThenSmallestFirst(t *testing.T) {
	actions := []domain.RebalancingAction{
		{ID: "buy-large-med", Side: domain.ActionBuy, DollarAmount: 9000, Priority: domain.PriorityMedium},
		{ID: "buy-small-med", Side: domain.ActionBuy, DollarAmount: 1000, Priority: domain.PriorityMedium},
		{ID: "buy-high", Side: domain.ActionBuy, DollarAmount: 5000, Priority: domain.PriorityHigh},
	}

	plan := Optimize(actions, 0)

	assert.Equal(t, "buy-high", plan.Ordered[0].ID)
	assert.Equal(t, "buy-small-med", plan.Ordered[1].ID)
	assert.Equal(t, "buy-large-med", plan.Ordered[2].ID)
}

func TestOptimize_RequiredCash(t *testing.T) {
	t.Run("buys exceed proceeds plus cash", func(t *testing.T) {
		plan := Optimize(fixtureActions(), 100)
		// buys 10000 - sells 9500 - cash 100
		assert.InDelta(t, 400, plan.RequiredCash, 1e-9)
	})

	t.Run("sufficient cash clamps to zero", func(t *testing.T) {
		plan := Optimize(fixtureActions(), 5000)
		assert.Zero(t, plan.RequiredCash)
	})
}

func TestOptimize_Reasoning(t *testing.T) {
	plan := Optimize(fixtureActions(), 0)
	assert.NotEmpty(t, plan.Reasoning)
	assert.Contains(t, plan.Reasoning[0], "3 sells executed first")
}

func TestOptimize_DoesNotMutateInput(t *testing.T) {
	actions := fixtureActions()
	_ = Optimize(actions, 0)

	assert.Equal(t, "buy-vxus", actions[0].ID)
	assert.Equal(t, "sell-qqq", actions[1].ID)
}

func TestOptimize_EmptyActions(t *testing.T) {
	plan := Optimize(nil, 1000)
	assert.Empty(t, plan.Ordered)
	assert.Zero(t, plan.RequiredCash)
	assert.Equal(t, []string{"no external cash required"}, plan.Reasoning)
}
