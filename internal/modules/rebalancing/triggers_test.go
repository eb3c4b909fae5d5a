package rebalancing

import (
	"testing"
	"time"

	"github.com/aristath/taxfolio/internal/domain"
	"github.com/aristath/taxfolio/internal/modules/volatility"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestThresholdTrigger(t *testing.T) {
	evaluator := NewTriggerEvaluator(zerolog.Nop())
	now := time.Date(2026, 6, 1, 0, 0, 0, 0, time.UTC)

	assets := func(deviation float64) []domain.AssetClass {
		return []domain.AssetClass{
			{Ticker: "VTI", TargetWeight: 0.50, CurrentWeight: 0.50 + deviation},
			{Ticker: "BND", TargetWeight: 0.50, CurrentWeight: 0.50 - deviation},
		}
	}

	t.Run("within threshold does not fire", func(t *testing.T) {
		decision, err := evaluator.ShouldRebalance(assets(0.03), TriggerRequest{
			Type: TriggerThreshold, Threshold: 0.05,
		}, now)
		require.NoError(t, err)
		assert.False(t, decision.Fire)
	})

	t.Run("moderate drift fires with medium urgency", func(t *testing.T) {
		decision, err := evaluator.ShouldRebalance(assets(0.08), TriggerRequest{
			Type: TriggerThreshold, Threshold: 0.05,
		}, now)
		require.NoError(t, err)
		assert.True(t, decision.Fire)
		assert.Equal(t, domain.PriorityMedium, decision.Urgency)
		assert.Contains(t, decision.Reason, "VTI")
	})

	t.Run("severe drift fires with high urgency", func(t *testing.T) {
		decision, err := evaluator.ShouldRebalance(assets(0.20), TriggerRequest{
			Type: TriggerThreshold, Threshold: 0.05,
		}, now)
		require.NoError(t, err)
		assert.True(t, decision.Fire)
		assert.Equal(t, domain.PriorityHigh, decision.Urgency)
	})
}

func TestCalendarTrigger(t *testing.T) {
	evaluator := NewTriggerEvaluator(zerolog.Nop())
	now := time.Date(2026, 6, 1, 0, 0, 0, 0, time.UTC)

	t.Run("no prior rebalance fires immediately", func(t *testing.T) {
		decision, err := evaluator.ShouldRebalance(nil, TriggerRequest{
			Type: TriggerCalendar, Frequency: domain.FrequencyMonthly,
		}, now)
		require.NoError(t, err)
		assert.True(t, decision.Fire)
		assert.Contains(t, decision.Reason, "no prior rebalance")
	})

	tests := []struct {
		name      string
		frequency domain.RebalanceFrequency
		daysAgo   int
		fire      bool
	}{
		{"monthly at 29 days", domain.FrequencyMonthly, 29, false},
		{"monthly at 30 days", domain.FrequencyMonthly, 30, true},
		{"quarterly at 89 days", domain.FrequencyQuarterly, 89, false},
		{"quarterly at 90 days", domain.FrequencyQuarterly, 90, true},
		{"annual at 364 days", domain.FrequencyAnnually, 364, false},
		{"annual at 365 days", domain.FrequencyAnnually, 365, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			last := now.AddDate(0, 0, -tt.daysAgo)
			decision, err := evaluator.ShouldRebalance(nil, TriggerRequest{
				Type:          TriggerCalendar,
				Frequency:     tt.frequency,
				LastRebalance: &last,
			}, now)
			require.NoError(t, err)
			assert.Equal(t, tt.fire, decision.Fire)
		})
	}

	t.Run("unknown frequency is rejected", func(t *testing.T) {
		_, err := evaluator.ShouldRebalance(nil, TriggerRequest{
			Type: TriggerCalendar, Frequency: "fortnightly",
		}, now)
		var validationErr *domain.ValidationError
		assert.ErrorAs(t, err, &validationErr)
	})
}

func TestVolatilityTrigger(t *testing.T) {
	evaluator := NewTriggerEvaluator(zerolog.Nop())
	now := time.Date(2026, 6, 1, 0, 0, 0, 0, time.UTC)

	t.Run("nil signal never fires", func(t *testing.T) {
		decision, err := evaluator.ShouldRebalance(nil, TriggerRequest{Type: TriggerVolatility}, now)
		require.NoError(t, err)
		assert.False(t, decision.Fire)
		assert.Contains(t, decision.Reason, "no volatility signal")
	})

	t.Run("calm signal does not fire", func(t *testing.T) {
		decision, err := evaluator.ShouldRebalance(nil, TriggerRequest{
			Type:       TriggerVolatility,
			Volatility: &volatility.Signal{Annualized: 0.12, RecentAnnualized: 0.10},
		}, now)
		require.NoError(t, err)
		assert.False(t, decision.Fire)
	})

	t.Run("elevated signal fires", func(t *testing.T) {
		decision, err := evaluator.ShouldRebalance(nil, TriggerRequest{
			Type:       TriggerVolatility,
			Volatility: &volatility.Signal{Annualized: 0.20, RecentAnnualized: 0.35, Elevated: true},
		}, now)
		require.NoError(t, err)
		assert.True(t, decision.Fire)
		assert.Equal(t, domain.PriorityMedium, decision.Urgency)
	})
}

func TestOpportunityTrigger(t *testing.T) {
	evaluator := NewTriggerEvaluator(zerolog.Nop())
	now := time.Date(2026, 6, 1, 0, 0, 0, 0, time.UTC)

	t.Run("holding below proxy fires", func(t *testing.T) {
		decision, err := evaluator.ShouldRebalance(nil, TriggerRequest{
			Type:         TriggerOpportunity,
			LossProxyPct: 0.10,
			Holdings: []domain.Holding{
				{Ticker: "VTI", Shares: 100, CurrentPrice: 80, CostBasis: 10000},
			},
		}, now)
		require.NoError(t, err)
		assert.True(t, decision.Fire)
		assert.Contains(t, decision.Reason, "VTI")
	})

	t.Run("shallow loss does not fire", func(t *testing.T) {
		decision, err := evaluator.ShouldRebalance(nil, TriggerRequest{
			Type:         TriggerOpportunity,
			LossProxyPct: 0.10,
			Holdings: []domain.Holding{
				{Ticker: "VTI", Shares: 100, CurrentPrice: 95, CostBasis: 10000},
			},
		}, now)
		require.NoError(t, err)
		assert.False(t, decision.Fire)
	})
}

func TestUnknownTriggerType(t *testing.T) {
	evaluator := NewTriggerEvaluator(zerolog.Nop())

	_, err := evaluator.ShouldRebalance(nil, TriggerRequest{Type: "lunar"}, time.Now())
	var validationErr *domain.ValidationError
	assert.ErrorAs(t, err, &validationErr)
}
