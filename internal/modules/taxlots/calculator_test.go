package taxlots

import (
	"errors"
	"testing"
	"time"

	"github.com/aristath/taxfolio/internal/domain"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var saleDate = time.Date(2026, 6, 15, 0, 0, 0, 0, time.UTC)

// threeLotFixture: oldest is cheapest, newest is mid-priced, the
// middle purchase carries the highest cost basis.
func threeLotFixture() []domain.TaxLot {
	return []domain.TaxLot{
		{ID: "lot-a", Ticker: "VTI", Shares: 100, CostBasis: 50, PurchaseDate: saleDate.AddDate(-3, 0, 0)},
		{ID: "lot-b", Ticker: "VTI", Shares: 100, CostBasis: 90, PurchaseDate: saleDate.AddDate(-2, 0, 0)},
		{ID: "lot-c", Ticker: "VTI", Shares: 100, CostBasis: 70, PurchaseDate: saleDate.AddDate(-1, 0, 0)},
		// Different ticker, must never be touched
		{ID: "lot-x", Ticker: "BND", Shares: 500, CostBasis: 80, PurchaseDate: saleDate.AddDate(-2, 0, 0)},
	}
}

func usRates() domain.TaxRates {
	return domain.TaxRates{
		Location: "US",
		Federal: domain.FederalRates{
			ShortTermCapitalGains: 0.24,
			LongTermCapitalGains:  0.15,
		},
	}
}

func caRates() domain.TaxRates {
	r := usRates()
	r.Location = "CA"
	r.State.CapitalGains = 0.093
	return r
}

func prRates() domain.TaxRates {
	r := usRates()
	r.Location = "PR"
	r.SpecialRules.ZeroInvestmentIncome = true
	return r
}

func TestOrderLots_ConsumptionOrder(t *testing.T) {
	tests := []struct {
		name     string
		method   domain.LotMethod
		expected []string
	}{
		{"FIFO oldest first", domain.LotMethodFIFO, []string{"lot-a", "lot-b", "lot-c"}},
		{"LIFO newest first", domain.LotMethodLIFO, []string{"lot-c", "lot-b", "lot-a"}},
		{"HIFO highest basis first", domain.LotMethodHIFO, []string{"lot-b", "lot-c", "lot-a"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ordered, err := OrderLots(threeLotFixture(), "VTI", tt.method, nil)
			require.NoError(t, err)
			require.Len(t, ordered, 3)

			ids := make([]string, len(ordered))
			for i, lot := range ordered {
				ids[i] = lot.ID
			}
			assert.Equal(t, tt.expected, ids)
		})
	}
}

func TestOrderLots_SpecificID(t *testing.T) {
	ordered, err := OrderLots(threeLotFixture(), "VTI", domain.LotMethodSpecificID, []string{"lot-c", "lot-a"})
	require.NoError(t, err)
	require.Len(t, ordered, 2)
	assert.Equal(t, "lot-c", ordered[0].ID)
	assert.Equal(t, "lot-a", ordered[1].ID)
}

func TestOrderLots_SpecificIDUnknownLot(t *testing.T) {
	_, err := OrderLots(threeLotFixture(), "VTI", domain.LotMethodSpecificID, []string{"lot-z"})
	var validationErr *domain.ValidationError
	require.ErrorAs(t, err, &validationErr)
}

func TestOrderLots_SpecificIDDuplicateLot(t *testing.T) {
	_, err := OrderLots(threeLotFixture(), "VTI", domain.LotMethodSpecificID, []string{"lot-a", "lot-a"})
	var validationErr *domain.ValidationError
	require.ErrorAs(t, err, &validationErr)
}

func TestComputeSale_SpecificIDDuplicateLotDoesNotDoubleCount(t *testing.T) {
	calc := NewCalculator(zerolog.Nop())

	// A duplicated lot ID must not make 100 available shares look like 200.
	_, err := calc.ComputeSale(SaleRequest{
		Ticker:        "VTI",
		Shares:        150,
		SalePrice:     100,
		SaleDate:      saleDate,
		Method:        domain.LotMethodSpecificID,
		SpecificOrder: []string{"lot-a", "lot-a"},
	}, threeLotFixture(), usRates())

	var validationErr *domain.ValidationError
	require.ErrorAs(t, err, &validationErr)
}

func TestOrderLots_DoesNotMutateInput(t *testing.T) {
	lots := threeLotFixture()
	_, err := OrderLots(lots, "VTI", domain.LotMethodHIFO, nil)
	require.NoError(t, err)

	assert.Equal(t, "lot-a", lots[0].ID)
	assert.Equal(t, "lot-b", lots[1].ID)
	assert.Equal(t, "lot-c", lots[2].ID)
}

func TestComputeSale_FIFOConsumesOldestFirst(t *testing.T) {
	calc := NewCalculator(zerolog.Nop())

	result, err := calc.ComputeSale(SaleRequest{
		Ticker:    "VTI",
		Shares:    150,
		SalePrice: 100,
		SaleDate:  saleDate,
		Method:    domain.LotMethodFIFO,
	}, threeLotFixture(), usRates())
	require.NoError(t, err)

	assert.Equal(t, []string{"lot-a", "lot-b"}, result.LotsConsumed)
	// 100 @ 50 + 50 @ 90
	assert.InDelta(t, 9500, result.CostBasis, 1e-9)
	assert.InDelta(t, 15000, result.Proceeds, 1e-9)
	assert.InDelta(t, 5500, result.GainLoss, 1e-9)
	assert.True(t, result.IsLongTerm)
}

func TestComputeSale_HIFORealizesSmallestGain(t *testing.T) {
	calc := NewCalculator(zerolog.Nop())

	req := SaleRequest{
		Ticker:    "VTI",
		Shares:    100,
		SalePrice: 100,
		SaleDate:  saleDate,
	}

	req.Method = domain.LotMethodFIFO
	fifo, err := calc.ComputeSale(req, threeLotFixture(), usRates())
	require.NoError(t, err)

	req.Method = domain.LotMethodHIFO
	hifo, err := calc.ComputeSale(req, threeLotFixture(), usRates())
	require.NoError(t, err)

	// HIFO consumes the highest-cost lot, so the realized gain and the
	// tax owed can never exceed FIFO's for the same appreciated lots.
	assert.LessOrEqual(t, hifo.GainLoss, fifo.GainLoss)
	assert.LessOrEqual(t, hifo.TaxOwed, fifo.TaxOwed)
}

func TestComputeSale_InsufficientShares(t *testing.T) {
	calc := NewCalculator(zerolog.Nop())

	_, err := calc.ComputeSale(SaleRequest{
		Ticker:    "VTI",
		Shares:    301, // fixture holds 300 VTI shares
		SalePrice: 100,
		SaleDate:  saleDate,
		Method:    domain.LotMethodFIFO,
	}, threeLotFixture(), usRates())

	var insufficientErr *domain.InsufficientLotSharesError
	require.ErrorAs(t, err, &insufficientErr)
	assert.Equal(t, "VTI", insufficientErr.Ticker)
	assert.InDelta(t, 300, insufficientErr.Available, 1e-9)
}

func TestComputeSale_HoldingPeriodBoundary(t *testing.T) {
	calc := NewCalculator(zerolog.Nop())

	tests := []struct {
		name       string
		daysHeld   int
		isLongTerm bool
	}{
		{"364 days is short-term", 364, false},
		{"exactly 365 days is short-term", 365, false},
		{"366 days is long-term", 366, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			lots := []domain.TaxLot{{
				ID:           "lot-1",
				Ticker:       "SPY",
				Shares:       10,
				CostBasis:    400,
				PurchaseDate: saleDate.AddDate(0, 0, -tt.daysHeld),
			}}

			result, err := calc.ComputeSale(SaleRequest{
				Ticker:    "SPY",
				Shares:    10,
				SalePrice: 500,
				SaleDate:  saleDate,
				Method:    domain.LotMethodFIFO,
			}, lots, usRates())
			require.NoError(t, err)
			assert.Equal(t, tt.isLongTerm, result.IsLongTerm)
		})
	}
}

func TestComputeSale_ZeroInvestmentIncomeRegime(t *testing.T) {
	calc := NewCalculator(zerolog.Nop())

	// Long-term lot with a $10,000 gain: 100 shares, $100/share gain
	lots := []domain.TaxLot{{
		ID:           "lot-1",
		Ticker:       "VOO",
		Shares:       100,
		CostBasis:    300,
		PurchaseDate: saleDate.AddDate(-2, 0, 0),
	}}

	result, err := calc.ComputeSale(SaleRequest{
		Ticker:    "VOO",
		Shares:    100,
		SalePrice: 400,
		SaleDate:  saleDate,
		Method:    domain.LotMethodFIFO,
	}, lots, prRates())
	require.NoError(t, err)

	assert.InDelta(t, 10000, result.GainLoss, 1e-9)
	assert.True(t, result.IsLongTerm)
	assert.Zero(t, result.TaxOwed)
	assert.Zero(t, result.TaxRate)
}

func TestComputeSale_ShortTermFederalPlusState(t *testing.T) {
	calc := NewCalculator(zerolog.Nop())

	// Short-term lot with a $1,000 gain in a 24% + 9.3% jurisdiction
	lots := []domain.TaxLot{{
		ID:           "lot-1",
		Ticker:       "QQQ",
		Shares:       100,
		CostBasis:    90,
		PurchaseDate: saleDate.AddDate(0, 0, -100),
	}}

	result, err := calc.ComputeSale(SaleRequest{
		Ticker:    "QQQ",
		Shares:    100,
		SalePrice: 100,
		SaleDate:  saleDate,
		Method:    domain.LotMethodFIFO,
	}, lots, caRates())
	require.NoError(t, err)

	assert.InDelta(t, 1000, result.GainLoss, 1e-9)
	assert.False(t, result.IsLongTerm)
	assert.InDelta(t, 333.00, result.TaxOwed, 0.01)
}

func TestComputeSale_LossYieldsNegativeTaxOwed(t *testing.T) {
	calc := NewCalculator(zerolog.Nop())

	lots := []domain.TaxLot{{
		ID:           "lot-1",
		Ticker:       "VXUS",
		Shares:       100,
		CostBasis:    60,
		PurchaseDate: saleDate.AddDate(0, 0, -100),
	}}

	result, err := calc.ComputeSale(SaleRequest{
		Ticker:    "VXUS",
		Shares:    100,
		SalePrice: 50,
		SaleDate:  saleDate,
		Method:    domain.LotMethodFIFO,
	}, lots, caRates())
	require.NoError(t, err)

	assert.InDelta(t, -1000, result.GainLoss, 1e-9)
	// Loss produces a tax benefit, reported as negative tax owed
	assert.InDelta(t, -333.00, result.TaxOwed, 0.01)
}

func TestComputeSale_WeightedHoldingPeriod(t *testing.T) {
	calc := NewCalculator(zerolog.Nop())

	// Equal shares from a 100-day and a 500-day lot average to 300 days:
	// short-term despite the older lot being long-term on its own.
	lots := []domain.TaxLot{
		{ID: "old", Ticker: "BND", Shares: 50, CostBasis: 70, PurchaseDate: saleDate.AddDate(0, 0, -500)},
		{ID: "new", Ticker: "BND", Shares: 50, CostBasis: 75, PurchaseDate: saleDate.AddDate(0, 0, -100)},
	}

	result, err := calc.ComputeSale(SaleRequest{
		Ticker:    "BND",
		Shares:    100,
		SalePrice: 72,
		SaleDate:  saleDate,
		Method:    domain.LotMethodFIFO,
	}, lots, usRates())
	require.NoError(t, err)

	assert.InDelta(t, 300, result.HoldingPeriodDays, 0.5)
	assert.False(t, result.IsLongTerm)
}

func TestComputeSale_InputValidation(t *testing.T) {
	calc := NewCalculator(zerolog.Nop())

	tests := []struct {
		name string
		req  SaleRequest
	}{
		{"zero shares", SaleRequest{Ticker: "VTI", Shares: 0, SalePrice: 10, SaleDate: saleDate, Method: domain.LotMethodFIFO}},
		{"negative shares", SaleRequest{Ticker: "VTI", Shares: -5, SalePrice: 10, SaleDate: saleDate, Method: domain.LotMethodFIFO}},
		{"negative price", SaleRequest{Ticker: "VTI", Shares: 5, SalePrice: -10, SaleDate: saleDate, Method: domain.LotMethodFIFO}},
		{"missing sale date", SaleRequest{Ticker: "VTI", Shares: 5, SalePrice: 10, Method: domain.LotMethodFIFO}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := calc.ComputeSale(tt.req, threeLotFixture(), usRates())
			var validationErr *domain.ValidationError
			assert.True(t, errors.As(err, &validationErr), "expected ValidationError, got %v", err)
		})
	}
}
