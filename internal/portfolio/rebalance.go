// Turnover-capped rebalancing from current toward target characteristics.
package portfolio

import (
	"math"

	"github.com/veldtworks/underwriters/internal/domain"
)

// RebalanceResult reports a capped rebalancing step.
type RebalanceResult struct {
	Achieved          domain.PortfolioCharacteristics `json:"achieved"`
	Allocation        domain.AssetAllocation          `json:"allocation"`
	Turnover          float64                         `json:"turnover"`           // Fraction of portfolio traded
	TransactionCost   float64                         `json:"transaction_cost"`   // Fraction of portfolio value
	ReturnImprovement float64                         `json:"return_improvement"` // Achieved minus current expected return
}

// Rebalance moves the posture from current toward target, capped by the
// configured maximum turnover. The step is a linear interpolation in
// characteristic space scaled down until the implied allocation turnover
// fits under the cap. Transaction cost is proportional to realized turnover
// and is reported against the expected return improvement.
func (o *Optimizer) Rebalance(current, target domain.PortfolioCharacteristics) RebalanceResult {
	curAlloc := o.Allocate(current)
	fullTurnover := allocationTurnover(curAlloc, o.Allocate(target))

	factor := 1.0
	maxTurnover := o.cfg.Portfolio.MaxTurnover
	if fullTurnover > maxTurnover && fullTurnover > 0 {
		factor = maxTurnover / fullTurnover
	}

	achieved := lerp(current, target, factor)
	achievedAlloc := o.Allocate(achieved)
	turnover := allocationTurnover(curAlloc, achievedAlloc)

	return RebalanceResult{
		Achieved:          achieved,
		Allocation:        achievedAlloc,
		Turnover:          turnover,
		TransactionCost:   turnover * o.cfg.Portfolio.TransactionCost,
		ReturnImprovement: o.ExpectedReturn(achieved) - o.ExpectedReturn(current),
	}
}

// allocationTurnover is the one-way turnover between two allocations: half
// the sum of absolute weight changes.
func allocationTurnover(from, to domain.AssetAllocation) float64 {
	classes := make(map[domain.AssetClass]bool, len(from)+len(to))
	for c := range from {
		classes[c] = true
	}
	for c := range to {
		classes[c] = true
	}
	sum := 0.0
	for c := range classes {
		sum += math.Abs(to[c] - from[c])
	}
	return sum / 2
}

func lerp(a, b domain.PortfolioCharacteristics, f float64) domain.PortfolioCharacteristics {
	return domain.PortfolioCharacteristics{
		Risk:            a.Risk + f*(b.Risk-a.Risk),
		Duration:        a.Duration + f*(b.Duration-a.Duration),
		Liquidity:       a.Liquidity + f*(b.Liquidity-a.Liquidity),
		Credit:          a.Credit + f*(b.Credit-a.Credit),
		Diversification: a.Diversification + f*(b.Diversification-a.Diversification),
	}.Clamp()
}
