// Package schedule builds the forward-looking rebalancing calendar and
// the long-term-conversion optimal rebalance date.
package schedule

import (
	"fmt"
	"sort"
	"time"

	"github.com/aristath/taxfolio/internal/domain"
	"github.com/rs/zerolog"
	"gonum.org/v1/gonum/stat"
)

// longTermConversionDays is when a holding becomes long-term: one day
// past the 365-day short-term boundary.
const longTermConversionDays = 366

// horizonMonths is how far ahead the calendar extends
const horizonMonths = 12

// Generator produces forward rebalance calendars
type Generator struct {
	log zerolog.Logger
}

// NewGenerator creates a schedule generator
func NewGenerator(log zerolog.Logger) *Generator {
	return &Generator{
		log: log.With().Str("service", "schedule").Logger(),
	}
}

// Generate builds the next 12 months of schedule entries for a strategy:
// periodic rebalances at the strategy's cadence, weekly threshold checks
// for aggressive strategies, and quarterly tax-optimization reviews.
// Events are returned in chronological order.
func (g *Generator) Generate(strategy domain.RebalancingStrategy, startDate time.Time) ([]domain.ScheduleEvent, error) {
	var stepMonths int
	switch strategy.RebalanceFrequency {
	case domain.FrequencyMonthly:
		stepMonths = 1
	case domain.FrequencyQuarterly:
		stepMonths = 3
	case domain.FrequencyAnnually:
		stepMonths = 12
	default:
		return nil, domain.NewValidationError("rebalance_frequency", fmt.Sprintf("unknown frequency %q", strategy.RebalanceFrequency))
	}

	horizon := startDate.AddDate(0, horizonMonths, 0)
	events := []domain.ScheduleEvent{}

	for date := startDate.AddDate(0, stepMonths, 0); !date.After(horizon); date = date.AddDate(0, stepMonths, 0) {
		events = append(events, domain.ScheduleEvent{
			Date:        date,
			Type:        domain.ScheduleEventScheduled,
			Description: fmt.Sprintf("%s rebalance for strategy %s", strategy.RebalanceFrequency, strategy.Name),
		})
	}

	if strategy.RiskLevel == domain.RiskAggressive {
		for date := startDate.AddDate(0, 0, 7); !date.After(horizon); date = date.AddDate(0, 0, 7) {
			events = append(events, domain.ScheduleEvent{
				Date:        date,
				Type:        domain.ScheduleEventThresholdCheck,
				Description: "Weekly drift check for aggressive strategy",
			})
		}
	}

	for date := startDate.AddDate(0, 3, 0); !date.After(horizon); date = date.AddDate(0, 3, 0) {
		events = append(events, domain.ScheduleEvent{
			Date:        date,
			Type:        domain.ScheduleEventTaxOptimization,
			Description: "Quarterly tax-optimization review",
		})
	}

	sort.SliceStable(events, func(i, j int) bool {
		return events[i].Date.Before(events[j].Date)
	})

	g.log.Debug().
		Str("strategy", strategy.ID).
		Int("events", len(events)).
		Msg("Schedule generated")

	return events, nil
}

// OptimalRebalanceDate returns the median of the dates at which the
// holdings convert to long-term treatment. Rebalancing at that date
// maximizes the share of positions sold with long-term rates.
// Returns the zero time when there are no holdings.
func (g *Generator) OptimalRebalanceDate(holdings []domain.Holding) time.Time {
	if len(holdings) == 0 {
		return time.Time{}
	}

	base := holdings[0].PurchaseDate
	offsets := make([]float64, 0, len(holdings))
	for _, holding := range holdings {
		conversion := holding.PurchaseDate.AddDate(0, 0, longTermConversionDays)
		offsets = append(offsets, conversion.Sub(base).Hours()/24)
	}
	sort.Float64s(offsets)

	median := stat.Quantile(0.5, stat.Empirical, offsets, nil)
	return base.AddDate(0, 0, int(median))
}
