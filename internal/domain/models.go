// Package domain provides core domain models and types.
package domain

import "time"

// ActionSide represents the direction of a rebalancing action.
// There is deliberately no "hold" case: assets within tolerance
// simply produce no action.
type ActionSide string

const (
	ActionBuy  ActionSide = "BUY"
	ActionSell ActionSide = "SELL"
)

// Priority represents the urgency of a rebalancing action
type Priority string

const (
	PriorityHigh   Priority = "high"
	PriorityMedium Priority = "medium"
	PriorityLow    Priority = "low"
)

// LotMethod represents a tax-lot selection method
type LotMethod string

const (
	// LotMethodFIFO consumes the chronologically oldest lots first
	LotMethodFIFO LotMethod = "FIFO"
	// LotMethodLIFO consumes the most recently purchased lots first
	LotMethodLIFO LotMethod = "LIFO"
	// LotMethodHIFO consumes the highest-cost-basis lots first
	LotMethodHIFO LotMethod = "HIFO"
	// LotMethodSpecificID consumes lots in a caller-supplied order
	LotMethodSpecificID LotMethod = "SPECIFIC_ID"
)

// PortfolioStatus classifies overall allocation health
type PortfolioStatus string

const (
	StatusBalanced         PortfolioStatus = "balanced"
	StatusNeedsRebalancing PortfolioStatus = "needs_rebalancing"
	StatusCritical         PortfolioStatus = "critical"
)

// RiskLevel represents a strategy's risk posture
type RiskLevel string

const (
	RiskConservative RiskLevel = "conservative"
	RiskModerate     RiskLevel = "moderate"
	RiskAggressive   RiskLevel = "aggressive"
)

// RebalanceFrequency represents how often a strategy rebalances
type RebalanceFrequency string

const (
	FrequencyMonthly   RebalanceFrequency = "monthly"
	FrequencyQuarterly RebalanceFrequency = "quarterly"
	FrequencyAnnually  RebalanceFrequency = "annually"
)

// WashSaleAssessment is the result of the deterministic wash-sale heuristic.
// It is a heuristic, not an authoritative determination: it only looks at the
// explicit trade history supplied by the caller.
type WashSaleAssessment string

const (
	// WashSaleNotEvaluated means no trade history was supplied
	WashSaleNotEvaluated WashSaleAssessment = "not_evaluated"
	// WashSaleClear means the supplied history shows no repurchase in the window
	WashSaleClear WashSaleAssessment = "clear"
	// WashSaleAtRisk means the supplied history shows a purchase of the same
	// ticker inside the 30-day window
	WashSaleAtRisk WashSaleAssessment = "at_risk"
)

// AssetClass represents one asset in a portfolio snapshot with its
// current and target allocation weights.
type AssetClass struct {
	Ticker        string  `json:"ticker"`
	Sector        string  `json:"sector"`
	TargetWeight  float64 `json:"target_weight"`  // 0-1
	CurrentWeight float64 `json:"current_weight"` // 0-1
	CurrentValue  float64 `json:"current_value"`
	CurrentShares float64 `json:"current_shares"`
	TaxEfficiency float64 `json:"tax_efficiency"` // 0-1
}

// TaxLot is a discrete purchase record of a security.
// Lots are immutable: the engine never mutates a snapshot, callers own
// lot bookkeeping after trade execution.
type TaxLot struct {
	ID           string    `json:"id"`
	Ticker       string    `json:"ticker"`
	Shares       float64   `json:"shares"`
	CostBasis    float64   `json:"cost_basis"` // per share
	PurchaseDate time.Time `json:"purchase_date"`
}

// FederalRates holds federal tax rates, all as fractions in [0,1]
type FederalRates struct {
	OrdinaryIncome        float64 `json:"ordinary_income"`
	ShortTermCapitalGains float64 `json:"short_term_capital_gains"`
	LongTermCapitalGains  float64 `json:"long_term_capital_gains"`
	QualifiedDividends    float64 `json:"qualified_dividends"`
}

// StateRates holds state tax rates, all as fractions in [0,1]
type StateRates struct {
	OrdinaryIncome float64 `json:"ordinary_income"`
	CapitalGains   float64 `json:"capital_gains"`
	Dividends      float64 `json:"dividends"`
}

// SpecialRules holds jurisdiction-specific overrides.
// When ZeroInvestmentIncome is set, capital-gains and dividend rates are
// zero regardless of holding period.
type SpecialRules struct {
	ZeroInvestmentIncome bool `json:"zero_investment_income"`
}

// TaxRates is the full tax-rate profile for a jurisdiction
type TaxRates struct {
	Location     string       `json:"location"`
	Federal      FederalRates `json:"federal"`
	State        StateRates   `json:"state"`
	SpecialRules SpecialRules `json:"special_rules"`
}

// EffectiveCapitalGainsRate returns the combined federal + state rate for a
// sale. A zero-investment-income regime zeroes the whole rate.
func (r TaxRates) EffectiveCapitalGainsRate(isLongTerm bool) float64 {
	if r.SpecialRules.ZeroInvestmentIncome {
		return 0
	}
	if isLongTerm {
		return r.Federal.LongTermCapitalGains + r.State.CapitalGains
	}
	return r.Federal.ShortTermCapitalGains + r.State.CapitalGains
}

// CapitalGainLoss is the result of matching a sale against tax lots.
//
// Sign convention for TaxOwed: positive means tax due on a gain, negative
// means a tax benefit from a realized loss. Callers must not flip this.
type CapitalGainLoss struct {
	Ticker            string    `json:"ticker"`
	Shares            float64   `json:"shares"`
	Proceeds          float64   `json:"proceeds"`
	CostBasis         float64   `json:"cost_basis"`
	GainLoss          float64   `json:"gain_loss"`
	HoldingPeriodDays float64   `json:"holding_period_days"`
	IsLongTerm        bool      `json:"is_long_term"`
	TaxRate           float64   `json:"tax_rate"`
	TaxOwed           float64   `json:"tax_owed"`
	Method            LotMethod `json:"method"`
	LotsConsumed      []string  `json:"lots_consumed"`
}

// RebalancingAction is a single buy or sell needed to close drift
type RebalancingAction struct {
	ID            string     `json:"id"`
	Side          ActionSide `json:"side"`
	Ticker        string     `json:"ticker"`
	CurrentShares float64    `json:"current_shares"`
	TargetShares  float64    `json:"target_shares"`
	SharesToTrade float64    `json:"shares_to_trade"`
	DollarAmount  float64    `json:"dollar_amount"`
	CurrentPrice  float64    `json:"current_price"`
	Priority      Priority   `json:"priority"`
	TaxImpact     float64    `json:"tax_impact"`
	Reason        string     `json:"reason"`
}

// RebalancingStrategy is an immutable strategy record from the registry
type RebalancingStrategy struct {
	ID                 string             `json:"id"`
	Name               string             `json:"name"`
	RiskLevel          RiskLevel          `json:"risk_level"`
	RebalanceFrequency RebalanceFrequency `json:"rebalance_frequency"`
	ThresholdTolerance float64            `json:"threshold_tolerance"` // 0-1
	TaxOptimized       bool               `json:"tax_optimized"`
	TargetAllocation   map[string]float64 `json:"target_allocation"` // category -> weight, sums to 1.0
}

// PortfolioMetrics summarizes drift for a whole portfolio
type PortfolioMetrics struct {
	TotalValue            float64         `json:"total_value"`
	Efficiency            float64         `json:"efficiency"` // 0-100
	MaxDeviation          float64         `json:"max_deviation"`
	NeedsRebalancingCount int             `json:"needs_rebalancing_count"`
	Status                PortfolioStatus `json:"status"`
}

// Holding is a read-only portfolio position snapshot supplied by the caller
type Holding struct {
	Ticker       string    `json:"ticker"`
	Shares       float64   `json:"shares"`
	CurrentPrice float64   `json:"current_price"`
	CostBasis    float64   `json:"cost_basis"` // total cost for the position
	PurchaseDate time.Time `json:"purchase_date"`
	PortfolioID  string    `json:"portfolio_id"`
	Category     string    `json:"category,omitempty"`
}

// CurrentValue returns the market value of the holding
func (h Holding) CurrentValue() float64 {
	return h.Shares * h.CurrentPrice
}

// TradeEvent is one entry of the caller-supplied recent trade history,
// used only for the deterministic wash-sale assessment.
type TradeEvent struct {
	Ticker     string     `json:"ticker"`
	Side       ActionSide `json:"side"`
	Shares     float64    `json:"shares"`
	ExecutedAt time.Time  `json:"executed_at"`
}

// FeeSchedule holds trading cost parameters
type FeeSchedule struct {
	CommissionPerTrade float64 `json:"commission_per_trade"`
	SpreadPct          float64 `json:"spread_pct"`
}

// ScheduleEventType classifies forward-schedule entries
type ScheduleEventType string

const (
	ScheduleEventScheduled       ScheduleEventType = "scheduled"
	ScheduleEventThresholdCheck  ScheduleEventType = "threshold_check"
	ScheduleEventTaxOptimization ScheduleEventType = "tax_optimization"
)

// ScheduleEvent is one entry in the forward rebalancing calendar
type ScheduleEvent struct {
	Date        time.Time         `json:"date"`
	Type        ScheduleEventType `json:"type"`
	Description string            `json:"description"`
}
