// Package ordering sequences rebalancing actions to minimize required
// external cash and execute tax-advantaged trades first.
package ordering

import (
	"fmt"
	"sort"

	"github.com/aristath/taxfolio/internal/domain"
)

// Plan is an ordered execution plan for a batch of actions
type Plan struct {
	Ordered      []domain.RebalancingAction `json:"ordered"`
	RequiredCash float64                    `json:"required_cash"`
	Reasoning    []string                   `json:"reasoning"`
}

// priorityRank orders priorities for sorting, high first
func priorityRank(p domain.Priority) int {
	switch p {
	case domain.PriorityHigh:
		return 0
	case domain.PriorityMedium:
		return 1
	default:
		return 2
	}
}

// Optimize partitions actions into sells and buys and orders them:
// sells first (tax-loss sells, then high priority, then ascending tax
// impact), buys after (high priority first, then smallest dollar amount
// first so cash is conserved for the largest trades). The input slice is
// not mutated.
func Optimize(actions []domain.RebalancingAction, cashAvailable float64) Plan {
	var sells, buys []domain.RebalancingAction
	for _, action := range actions {
		switch action.Side {
		case domain.ActionSell:
			sells = append(sells, action)
		case domain.ActionBuy:
			buys = append(buys, action)
		}
	}

	sort.SliceStable(sells, func(i, j int) bool {
		// Tax-loss sells (negative tax impact) always lead
		iLoss, jLoss := sells[i].TaxImpact < 0, sells[j].TaxImpact < 0
		if iLoss != jLoss {
			return iLoss
		}
		if priorityRank(sells[i].Priority) != priorityRank(sells[j].Priority) {
			return priorityRank(sells[i].Priority) < priorityRank(sells[j].Priority)
		}
		return sells[i].TaxImpact < sells[j].TaxImpact
	})

	sort.SliceStable(buys, func(i, j int) bool {
		if priorityRank(buys[i].Priority) != priorityRank(buys[j].Priority) {
			return priorityRank(buys[i].Priority) < priorityRank(buys[j].Priority)
		}
		return buys[i].DollarAmount < buys[j].DollarAmount
	})

	var sellProceeds, buyAmount float64
	var lossSells int
	for _, s := range sells {
		sellProceeds += s.DollarAmount
		if s.TaxImpact < 0 {
			lossSells++
		}
	}
	for _, b := range buys {
		buyAmount += b.DollarAmount
	}

	requiredCash := buyAmount - sellProceeds - cashAvailable
	if requiredCash < 0 {
		requiredCash = 0
	}

	ordered := make([]domain.RebalancingAction, 0, len(sells)+len(buys))
	ordered = append(ordered, sells...)
	ordered = append(ordered, buys...)

	var reasoning []string
	if len(sells) > 0 {
		reasoning = append(reasoning, fmt.Sprintf(
			"%d sells executed first to generate $%.2f in cash", len(sells), sellProceeds))
	}
	if lossSells > 0 {
		reasoning = append(reasoning, fmt.Sprintf(
			"%d tax-loss sells prioritized for their tax benefit", lossSells))
	}
	if len(buys) > 0 {
		reasoning = append(reasoning, fmt.Sprintf(
			"%d buys follow, smallest first to conserve cash for high-priority trades", len(buys)))
	}
	if requiredCash > 0 {
		reasoning = append(reasoning, fmt.Sprintf(
			"$%.2f of external cash required beyond sale proceeds and available cash", requiredCash))
	} else {
		reasoning = append(reasoning, "no external cash required")
	}

	return Plan{
		Ordered:      ordered,
		RequiredCash: requiredCash,
		Reasoning:    reasoning,
	}
}
