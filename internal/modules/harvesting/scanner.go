package harvesting

import (
	"fmt"
	"sort"
	"time"

	"github.com/aristath/taxfolio/internal/domain"
	"github.com/rs/zerolog"
)

// washSaleWindowDays is the repurchase window checked against the supplied
// trade history.
const washSaleWindowDays = 30

// Opportunity is a harvestable unrealized loss with its estimated tax benefit
type Opportunity struct {
	ID                string                    `json:"id"`
	Ticker            string                    `json:"ticker"`
	Shares            float64                   `json:"shares"`
	CostBasis         float64                   `json:"cost_basis"`
	CurrentValue      float64                   `json:"current_value"`
	UnrealizedLoss    float64                   `json:"unrealized_loss"`
	HoldingPeriodDays float64                   `json:"holding_period_days"`
	IsLongTerm        bool                      `json:"is_long_term"`
	TaxBenefit        float64                   `json:"tax_benefit"`
	WashSale          domain.WashSaleAssessment `json:"wash_sale"`
	ReplacementTicker string                    `json:"replacement_ticker,omitempty"`
	Category          string                    `json:"category,omitempty"`
}

// SubstitutionSource abstracts the replacement-security lookup
type SubstitutionSource interface {
	GetByTicker(ticker string) (*Substitution, error)
}

// Scanner identifies tax-loss-harvesting opportunities.
// The scan is fully deterministic over its inputs: the wash-sale assessment
// only consults the explicit trade history passed by the caller, and is a
// heuristic, not an authoritative wash-sale determination.
type Scanner struct {
	substitutions SubstitutionSource
	log           zerolog.Logger
}

// NewScanner creates a new harvesting scanner
func NewScanner(substitutions SubstitutionSource, log zerolog.Logger) *Scanner {
	return &Scanner{
		substitutions: substitutions,
		log:           log.With().Str("service", "harvesting").Logger(),
	}
}

// Scan returns harvesting opportunities sorted by tax benefit, largest
// first. Holdings whose unrealized loss does not exceed minLossThreshold
// are skipped. history may be nil, in which case every opportunity carries
// a "not_evaluated" wash-sale assessment.
func (s *Scanner) Scan(
	holdings []domain.Holding,
	rates domain.TaxRates,
	minLossThreshold float64,
	history []domain.TradeEvent,
	asOf time.Time,
) ([]Opportunity, error) {
	var opportunities []Opportunity

	for _, holding := range holdings {
		if holding.Shares < 0 || holding.CurrentPrice < 0 {
			return nil, domain.NewValidationError("holdings", "shares and prices must not be negative")
		}

		unrealizedLoss := holding.CostBasis - holding.CurrentValue()
		if unrealizedLoss <= minLossThreshold {
			continue
		}

		holdingDays := asOf.Sub(holding.PurchaseDate).Hours() / 24
		isLongTerm := holdingDays > 365

		rate := rates.EffectiveCapitalGainsRate(isLongTerm)
		taxBenefit := unrealizedLoss * rate

		// Deterministic ID: identical inputs must produce identical output
		opp := Opportunity{
			ID:                fmt.Sprintf("%s:%s", holding.PortfolioID, holding.Ticker),
			Ticker:            holding.Ticker,
			Shares:            holding.Shares,
			CostBasis:         holding.CostBasis,
			CurrentValue:      holding.CurrentValue(),
			UnrealizedLoss:    unrealizedLoss,
			HoldingPeriodDays: holdingDays,
			IsLongTerm:        isLongTerm,
			TaxBenefit:        taxBenefit,
			WashSale:          assessWashSale(holding.Ticker, history, asOf),
		}

		if sub, err := s.substitutions.GetByTicker(holding.Ticker); err != nil {
			return nil, err
		} else if sub != nil {
			opp.ReplacementTicker = sub.ReplacementTicker
			opp.Category = sub.Category
		}

		opportunities = append(opportunities, opp)
	}

	sort.SliceStable(opportunities, func(i, j int) bool {
		return opportunities[i].TaxBenefit > opportunities[j].TaxBenefit
	})

	s.log.Debug().
		Int("holdings", len(holdings)).
		Int("opportunities", len(opportunities)).
		Float64("min_loss_threshold", minLossThreshold).
		Msg("Harvesting scan complete")

	return opportunities, nil
}

// assessWashSale checks the supplied trade history for a purchase of the
// same ticker inside the wash-sale window ending at asOf. Without history
// there is nothing to assess and the flag stays "not_evaluated" - it is
// never guessed.
func assessWashSale(ticker string, history []domain.TradeEvent, asOf time.Time) domain.WashSaleAssessment {
	if history == nil {
		return domain.WashSaleNotEvaluated
	}

	windowStart := asOf.AddDate(0, 0, -washSaleWindowDays)
	for _, event := range history {
		if event.Ticker != ticker || event.Side != domain.ActionBuy {
			continue
		}
		if !event.ExecutedAt.Before(windowStart) && !event.ExecutedAt.After(asOf) {
			return domain.WashSaleAtRisk
		}
	}

	return domain.WashSaleClear
}
