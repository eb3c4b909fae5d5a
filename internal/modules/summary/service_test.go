package summary

import (
	"testing"
	"time"

	"github.com/aristath/taxfolio/internal/domain"
	"github.com/aristath/taxfolio/internal/modules/harvesting"
	"github.com/aristath/taxfolio/internal/modules/schedule"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeSubstitutions struct {
	entries map[string]harvesting.Substitution
}

func (f fakeSubstitutions) GetByTicker(ticker string) (*harvesting.Substitution, error) {
	sub, ok := f.entries[ticker]
	if !ok {
		return nil, nil
	}
	return &sub, nil
}

var testRates = domain.TaxRates{
	Location: "CA",
	Federal: domain.FederalRates{
		ShortTermCapitalGains: 0.24,
		LongTermCapitalGains:  0.15,
	},
	State: domain.StateRates{CapitalGains: 0.093},
}

func newTestService() *Service {
	scanner := harvesting.NewScanner(fakeSubstitutions{
		entries: map[string]harvesting.Substitution{
			"VTI": {Ticker: "VTI", Category: "total_market", ReplacementTicker: "ITOT"},
		},
	}, zerolog.Nop())
	return NewService(scanner, schedule.NewGenerator(zerolog.Nop()), zerolog.Nop())
}

func TestBuildSummary(t *testing.T) {
	service := newTestService()
	asOf := time.Date(2026, 6, 1, 0, 0, 0, 0, time.UTC)

	holdings := []domain.Holding{
		// $1000 short-term loss, harvestable.
		{Ticker: "VTI", Shares: 100, CurrentPrice: 90, CostBasis: 10000,
			PurchaseDate: asOf.AddDate(0, -6, 0), PortfolioID: "port-1"},
		// $2000 long-term gain.
		{Ticker: "BND", Shares: 200, CurrentPrice: 60, CostBasis: 10000,
			PurchaseDate: asOf.AddDate(-2, 0, 0), PortfolioID: "port-1"},
	}

	// VTI was repurchased ten days ago, inside the wash-sale window.
	history := []domain.TradeEvent{
		{Ticker: "VTI", Side: domain.ActionBuy, Shares: 10, ExecutedAt: asOf.AddDate(0, 0, -10)},
	}

	result, err := service.Build(BuildRequest{
		PortfolioID:      "port-1",
		Holdings:         holdings,
		Rates:            testRates,
		Strategy:         domain.RebalancingStrategy{TaxOptimized: true},
		MinLossThreshold: 500,
		History:          history,
		AsOf:             asOf,
	})
	require.NoError(t, err)

	assert.Equal(t, "port-1", result.PortfolioID)
	assert.InDelta(t, 1000, result.HarvestableLosses, 1e-6)
	// Short-term loss at the 33.3% combined rate.
	assert.InDelta(t, 333, result.TaxSavings, 1e-6)
	// BND long-term gain of $2000 at the 24.3% combined rate.
	assert.InDelta(t, 2000*0.243, result.EstimatedTaxBill, 1e-6)

	assert.Equal(t, []string{"VTI"}, result.WashSaleAvoidance.BlockedTickers)
	assert.Equal(t, "ITOT", result.WashSaleAvoidance.AlternativeRecommendations["VTI"])
	assert.Contains(t, result.TaxLotOptimization, "HIFO")
	assert.False(t, result.OptimalRebalanceDate.IsZero())
}

func TestBuildLongTermOpportunity(t *testing.T) {
	service := newTestService()
	asOf := time.Date(2026, 6, 1, 0, 0, 0, 0, time.UTC)

	holdings := []domain.Holding{
		// $1000 gain converting to long-term in ~36 days.
		{Ticker: "QQQ", Shares: 10, CurrentPrice: 600, CostBasis: 5000,
			PurchaseDate: asOf.AddDate(0, 0, -330), PortfolioID: "port-1"},
		// Gain already long-term, no deferral benefit.
		{Ticker: "BND", Shares: 100, CurrentPrice: 60, CostBasis: 5000,
			PurchaseDate: asOf.AddDate(-3, 0, 0), PortfolioID: "port-1"},
	}

	result, err := service.Build(BuildRequest{
		PortfolioID: "port-1",
		Holdings:    holdings,
		Rates:       testRates,
		AsOf:        asOf,
	})
	require.NoError(t, err)

	// $1000 gain times the 9% short/long rate spread.
	assert.InDelta(t, 1000*(0.333-0.243), result.LongTermGainsOpportunity, 1e-6)
}

func TestBuildBlocksTickerOnceAcrossLots(t *testing.T) {
	service := newTestService()
	asOf := time.Date(2026, 6, 1, 0, 0, 0, 0, time.UTC)

	// Two separate VTI lots, both underwater, both inside the wash-sale
	// window. The blocked list must still carry VTI a single time.
	holdings := []domain.Holding{
		{Ticker: "VTI", Shares: 100, CurrentPrice: 90, CostBasis: 10000,
			PurchaseDate: asOf.AddDate(0, -6, 0), PortfolioID: "port-1"},
		{Ticker: "VTI", Shares: 50, CurrentPrice: 90, CostBasis: 6000,
			PurchaseDate: asOf.AddDate(0, -3, 0), PortfolioID: "port-1"},
	}
	history := []domain.TradeEvent{
		{Ticker: "VTI", Side: domain.ActionBuy, Shares: 10, ExecutedAt: asOf.AddDate(0, 0, -10)},
	}

	result, err := service.Build(BuildRequest{
		PortfolioID:      "port-1",
		Holdings:         holdings,
		Rates:            testRates,
		MinLossThreshold: 500,
		History:          history,
		AsOf:             asOf,
	})
	require.NoError(t, err)

	assert.Equal(t, []string{"VTI"}, result.WashSaleAvoidance.BlockedTickers)
	assert.InDelta(t, 2500, result.HarvestableLosses, 1e-6)
}

func TestBuildNoHistoryLeavesWashSaleUnevaluated(t *testing.T) {
	service := newTestService()
	asOf := time.Date(2026, 6, 1, 0, 0, 0, 0, time.UTC)

	holdings := []domain.Holding{
		{Ticker: "VTI", Shares: 100, CurrentPrice: 90, CostBasis: 10000,
			PurchaseDate: asOf.AddDate(0, -6, 0), PortfolioID: "port-1"},
	}

	result, err := service.Build(BuildRequest{
		PortfolioID:      "port-1",
		Holdings:         holdings,
		Rates:            testRates,
		MinLossThreshold: 500,
		AsOf:             asOf,
	})
	require.NoError(t, err)

	// Without history nothing can be flagged at risk.
	assert.Empty(t, result.WashSaleAvoidance.BlockedTickers)
	assert.InDelta(t, 1000, result.HarvestableLosses, 1e-6)
}
