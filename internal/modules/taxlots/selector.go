// Package taxlots matches sale requests against tax lots and computes
// realized capital gains, holding periods, and tax owed.
package taxlots

import (
	"fmt"
	"sort"

	"github.com/aristath/taxfolio/internal/domain"
)

// OrderLots filters lots by ticker and orders them according to the
// selection method. The input slice is never mutated; the result is a
// fresh slice of copies.
//
// FIFO: purchase date ascending. LIFO: purchase date descending.
// HIFO: cost basis descending. SpecificID: caller-supplied lot-ID order,
// which must reference only lots belonging to the ticker.
func OrderLots(
	lots []domain.TaxLot,
	ticker string,
	method domain.LotMethod,
	specificOrder []string,
) ([]domain.TaxLot, error) {
	filtered := make([]domain.TaxLot, 0, len(lots))
	for _, lot := range lots {
		if lot.Ticker == ticker {
			filtered = append(filtered, lot)
		}
	}

	switch method {
	case domain.LotMethodFIFO:
		sort.SliceStable(filtered, func(i, j int) bool {
			return filtered[i].PurchaseDate.Before(filtered[j].PurchaseDate)
		})

	case domain.LotMethodLIFO:
		sort.SliceStable(filtered, func(i, j int) bool {
			return filtered[i].PurchaseDate.After(filtered[j].PurchaseDate)
		})

	case domain.LotMethodHIFO:
		sort.SliceStable(filtered, func(i, j int) bool {
			return filtered[i].CostBasis > filtered[j].CostBasis
		})

	case domain.LotMethodSpecificID:
		byID := make(map[string]domain.TaxLot, len(filtered))
		for _, lot := range filtered {
			byID[lot.ID] = lot
		}
		ordered := make([]domain.TaxLot, 0, len(specificOrder))
		seen := make(map[string]bool, len(specificOrder))
		for _, id := range specificOrder {
			if seen[id] {
				return nil, domain.NewValidationError("specific_order",
					fmt.Sprintf("lot %s listed more than once", id))
			}
			seen[id] = true
			lot, ok := byID[id]
			if !ok {
				return nil, domain.NewValidationError("specific_order",
					fmt.Sprintf("lot %s not found for ticker %s", id, ticker))
			}
			ordered = append(ordered, lot)
		}
		filtered = ordered

	default:
		return nil, domain.NewValidationError("method",
			fmt.Sprintf("unknown lot selection method %q", method))
	}

	return filtered, nil
}
