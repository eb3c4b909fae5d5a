package rebalancing

import (
	"fmt"
	"math"
	"time"

	"github.com/aristath/taxfolio/internal/domain"
	"github.com/aristath/taxfolio/internal/modules/volatility"
	"github.com/rs/zerolog"
)

// TriggerType identifies the kind of rebalancing trigger being evaluated
type TriggerType string

const (
	TriggerThreshold   TriggerType = "threshold"
	TriggerCalendar    TriggerType = "calendar"
	TriggerVolatility  TriggerType = "volatility"
	TriggerOpportunity TriggerType = "opportunity"
)

// highUrgencyDeviation is the drift beyond which a threshold trigger fires
// with high rather than medium urgency.
const highUrgencyDeviation = 0.15

// TriggerRequest carries the inputs for one trigger evaluation. Only the
// fields relevant to the requested trigger type are consulted.
type TriggerRequest struct {
	Type TriggerType `json:"type"`

	// Threshold trigger: deviation fraction above which to fire.
	Threshold float64 `json:"threshold,omitempty"`

	// Calendar trigger: cadence and last rebalance date if any.
	Frequency     domain.RebalanceFrequency `json:"frequency,omitempty"`
	LastRebalance *time.Time                `json:"last_rebalance,omitempty"`

	// Volatility trigger: caller-supplied market signal. A nil signal
	// never fires, it is not a substitute for measurement.
	Volatility *volatility.Signal `json:"volatility,omitempty"`

	// Opportunity trigger: fraction below cost basis a holding must fall.
	LossProxyPct float64          `json:"loss_proxy_pct,omitempty"`
	Holdings     []domain.Holding `json:"holdings,omitempty"`
}

// TriggerDecision is the outcome of a trigger evaluation
type TriggerDecision struct {
	Fire    bool            `json:"fire"`
	Reason  string          `json:"reason"`
	Urgency domain.Priority `json:"urgency"`
}

// TriggerEvaluator decides whether rebalancing should happen now.
// Evaluations are deterministic over their inputs.
type TriggerEvaluator struct {
	log zerolog.Logger
}

// NewTriggerEvaluator creates a trigger evaluator
func NewTriggerEvaluator(log zerolog.Logger) *TriggerEvaluator {
	return &TriggerEvaluator{
		log: log.With().Str("service", "trigger_evaluator").Logger(),
	}
}

// ShouldRebalance evaluates one trigger against the portfolio state as of
// the given time.
func (e *TriggerEvaluator) ShouldRebalance(
	assets []domain.AssetClass,
	req TriggerRequest,
	now time.Time,
) (TriggerDecision, error) {
	switch req.Type {
	case TriggerThreshold:
		return e.evaluateThreshold(assets, req.Threshold), nil
	case TriggerCalendar:
		return e.evaluateCalendar(req.Frequency, req.LastRebalance, now)
	case TriggerVolatility:
		return e.evaluateVolatility(req.Volatility), nil
	case TriggerOpportunity:
		return e.evaluateOpportunity(req.Holdings, req.LossProxyPct), nil
	default:
		return TriggerDecision{}, domain.NewValidationError("type", fmt.Sprintf("unknown trigger type %q", req.Type))
	}
}

func (e *TriggerEvaluator) evaluateThreshold(assets []domain.AssetClass, threshold float64) TriggerDecision {
	var maxDeviation float64
	var worst string
	for _, asset := range assets {
		deviation := math.Abs(asset.CurrentWeight - asset.TargetWeight)
		if deviation > maxDeviation {
			maxDeviation = deviation
			worst = asset.Ticker
		}
	}

	if maxDeviation <= threshold {
		return TriggerDecision{
			Fire:   false,
			Reason: fmt.Sprintf("max deviation %.1f%% within %.1f%% threshold", maxDeviation*100, threshold*100),
		}
	}

	urgency := domain.PriorityMedium
	if maxDeviation > highUrgencyDeviation {
		urgency = domain.PriorityHigh
	}
	return TriggerDecision{
		Fire:    true,
		Reason:  fmt.Sprintf("%s deviates %.1f%% from target, above %.1f%% threshold", worst, maxDeviation*100, threshold*100),
		Urgency: urgency,
	}
}

func (e *TriggerEvaluator) evaluateCalendar(
	frequency domain.RebalanceFrequency,
	lastRebalance *time.Time,
	now time.Time,
) (TriggerDecision, error) {
	var intervalDays int
	switch frequency {
	case domain.FrequencyMonthly:
		intervalDays = 30
	case domain.FrequencyQuarterly:
		intervalDays = 90
	case domain.FrequencyAnnually:
		intervalDays = 365
	default:
		return TriggerDecision{}, domain.NewValidationError("frequency", fmt.Sprintf("unknown frequency %q", frequency))
	}

	if lastRebalance == nil {
		return TriggerDecision{
			Fire:    true,
			Reason:  "no prior rebalance on record",
			Urgency: domain.PriorityMedium,
		}, nil
	}

	elapsed := int(now.Sub(*lastRebalance).Hours() / 24)
	if elapsed >= intervalDays {
		return TriggerDecision{
			Fire:    true,
			Reason:  fmt.Sprintf("%d days since last rebalance, %s cadence is %d days", elapsed, frequency, intervalDays),
			Urgency: domain.PriorityMedium,
		}, nil
	}
	return TriggerDecision{
		Fire:   false,
		Reason: fmt.Sprintf("%d of %d cadence days elapsed", elapsed, intervalDays),
	}, nil
}

func (e *TriggerEvaluator) evaluateVolatility(signal *volatility.Signal) TriggerDecision {
	if signal == nil {
		return TriggerDecision{
			Fire:   false,
			Reason: "no volatility signal supplied",
		}
	}
	if !signal.Elevated {
		return TriggerDecision{
			Fire:   false,
			Reason: fmt.Sprintf("recent volatility %.1f%% annualized is not elevated", signal.RecentAnnualized*100),
		}
	}
	return TriggerDecision{
		Fire:    true,
		Reason:  fmt.Sprintf("recent volatility %.1f%% annualized is elevated", signal.RecentAnnualized*100),
		Urgency: domain.PriorityMedium,
	}
}

func (e *TriggerEvaluator) evaluateOpportunity(holdings []domain.Holding, lossProxyPct float64) TriggerDecision {
	for _, holding := range holdings {
		if holding.CostBasis <= 0 {
			continue
		}
		if holding.CurrentValue() < holding.CostBasis*(1-lossProxyPct) {
			return TriggerDecision{
				Fire: true,
				Reason: fmt.Sprintf("%s is more than %.1f%% below cost basis, harvestable loss likely",
					holding.Ticker, lossProxyPct*100),
				Urgency: domain.PriorityLow,
			}
		}
	}
	return TriggerDecision{
		Fire:   false,
		Reason: "no holding below the harvestable-loss proxy",
	}
}
