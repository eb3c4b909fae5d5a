package taxlots

import (
	"time"

	"github.com/aristath/taxfolio/internal/domain"
	"github.com/rs/zerolog"
)

// longTermThresholdDays is the holding-period boundary: a weighted holding
// period of exactly 365 days is still short-term, 366+ is long-term.
const longTermThresholdDays = 365

// SaleRequest describes a requested sale to be matched against lots
type SaleRequest struct {
	Ticker        string           `json:"ticker"`
	Shares        float64          `json:"shares"`
	SalePrice     float64          `json:"sale_price"`
	SaleDate      time.Time        `json:"sale_date"`
	Method        domain.LotMethod `json:"method"`
	SpecificOrder []string         `json:"specific_order,omitempty"`
}

// Calculator computes realized capital gains for lot-matched sales
type Calculator struct {
	log zerolog.Logger
}

// NewCalculator creates a new capital-gains calculator
func NewCalculator(log zerolog.Logger) *Calculator {
	return &Calculator{
		log: log.With().Str("service", "capital_gains").Logger(),
	}
}

// ComputeSale matches a sale against the available lots and computes the
// realized gain or loss, the shares-weighted holding period, and the tax
// owed under the given rate profile.
//
// If the lots for the ticker hold fewer shares than requested the sale
// fails with InsufficientLotSharesError - it is never partially filled.
func (c *Calculator) ComputeSale(
	req SaleRequest,
	lots []domain.TaxLot,
	rates domain.TaxRates,
) (*domain.CapitalGainLoss, error) {
	if req.Shares <= 0 {
		return nil, domain.NewValidationError("shares", "must be greater than zero")
	}
	if req.SalePrice < 0 {
		return nil, domain.NewValidationError("sale_price", "must not be negative")
	}
	if req.SaleDate.IsZero() {
		return nil, domain.NewValidationError("sale_date", "is required")
	}

	ordered, err := OrderLots(lots, req.Ticker, req.Method, req.SpecificOrder)
	if err != nil {
		return nil, err
	}

	var available float64
	for _, lot := range ordered {
		if lot.Shares < 0 {
			return nil, domain.NewValidationError("lots", "lot shares must not be negative")
		}
		available += lot.Shares
	}
	if available < req.Shares {
		return nil, &domain.InsufficientLotSharesError{
			Ticker:    req.Ticker,
			Requested: req.Shares,
			Available: available,
		}
	}

	// Greedily consume ordered lots, accumulating cost basis and a
	// shares-weighted holding period.
	var (
		remaining    = req.Shares
		costBasis    float64
		weightedDays float64
		consumed     []string
	)
	for _, lot := range ordered {
		if remaining <= 0 {
			break
		}
		take := lot.Shares
		if take > remaining {
			take = remaining
		}
		if take <= 0 {
			continue
		}

		costBasis += take * lot.CostBasis
		days := req.SaleDate.Sub(lot.PurchaseDate).Hours() / 24
		weightedDays += take * days
		consumed = append(consumed, lot.ID)
		remaining -= take
	}

	holdingDays := weightedDays / req.Shares
	isLongTerm := holdingDays > longTermThresholdDays

	proceeds := req.Shares * req.SalePrice
	gainLoss := proceeds - costBasis
	rate := rates.EffectiveCapitalGainsRate(isLongTerm)

	// Sign convention: a gain yields positive tax owed; a loss yields a
	// negative figure, i.e. a tax benefit. gainLoss * rate preserves the
	// sign in both cases.
	taxOwed := gainLoss * rate

	c.log.Debug().
		Str("ticker", req.Ticker).
		Float64("shares", req.Shares).
		Float64("gain_loss", gainLoss).
		Float64("holding_days", holdingDays).
		Bool("long_term", isLongTerm).
		Float64("tax_owed", taxOwed).
		Msg("Sale computed")

	return &domain.CapitalGainLoss{
		Ticker:            req.Ticker,
		Shares:            req.Shares,
		Proceeds:          proceeds,
		CostBasis:         costBasis,
		GainLoss:          gainLoss,
		HoldingPeriodDays: holdingDays,
		IsLongTerm:        isLongTerm,
		TaxRate:           rate,
		TaxOwed:           taxOwed,
		Method:            req.Method,
		LotsConsumed:      consumed,
	}, nil
}
