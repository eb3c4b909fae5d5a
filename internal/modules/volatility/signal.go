// Package volatility derives a deterministic market-volatility signal from
// caller-supplied close-price history. The engine performs no market-data
// I/O: the hosting layer decides where the closes come from.
package volatility

import (
	"math"

	"github.com/aristath/taxfolio/internal/domain"
	"github.com/markcheno/go-talib"
	"gonum.org/v1/gonum/stat"
)

const (
	// tradingDaysPerYear annualizes daily return volatility
	tradingDaysPerYear = 252
	// recentWindow is the rolling window used for the recent-volatility leg
	recentWindow = 20
	// minObservations below which no signal can be computed
	minObservations = recentWindow + 1
)

// Signal is an annualized volatility reading over a close-price series
type Signal struct {
	Annualized       float64 `json:"annualized"`        // full-series annualized volatility
	RecentAnnualized float64 `json:"recent_annualized"` // rolling 20-day annualized volatility
	Elevated         bool    `json:"elevated"`          // recent volatility above the elevation threshold
}

// Evaluate computes the volatility signal from daily closes.
// elevationThreshold is the annualized volatility (e.g. 0.25 for 25%)
// above which the signal counts as elevated.
func Evaluate(closes []float64, elevationThreshold float64) (*Signal, error) {
	if len(closes) < minObservations {
		return nil, domain.NewValidationError("closes",
			"insufficient history for a volatility signal")
	}
	for _, c := range closes {
		if c <= 0 {
			return nil, domain.NewValidationError("closes", "prices must be positive")
		}
	}

	returns := make([]float64, len(closes)-1)
	for i := 1; i < len(closes); i++ {
		returns[i-1] = math.Log(closes[i] / closes[i-1])
	}

	annualized := stat.StdDev(returns, nil) * math.Sqrt(tradingDaysPerYear)

	// Rolling stddev over the last window; talib returns NaN-free values
	// from index recentWindow-1 onward.
	rolling := talib.StdDev(returns, recentWindow, 1.0)
	recent := rolling[len(rolling)-1] * math.Sqrt(tradingDaysPerYear)

	return &Signal{
		Annualized:       annualized,
		RecentAnnualized: recent,
		Elevated:         recent > elevationThreshold,
	}, nil
}
