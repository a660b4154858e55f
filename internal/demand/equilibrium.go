// Multi-round share equilibrium and concentration metrics.
package demand

import (
	"math"
	"sort"

	"github.com/veldtworks/underwriters/internal/domain"
)

// Equilibrium iterates the share computation until the maximum share delta
// between consecutive rounds drops below the configured tolerance or the
// round cap is hit. The cap bounds runtime and guarantees a result even
// without convergence.
func (e *Engine) Equilibrium(seg domain.MarketSegment, comps []Competitor, cond domain.MarketConditions) map[domain.CompanyID]float64 {
	shares := e.Shares(seg, comps, cond, nil, true)
	if len(comps) < 2 {
		return shares
	}

	for round := 1; round < e.cfg.Demand.EquilibriumMaxRounds; round++ {
		next := e.Shares(seg, comps, cond, shares, true)

		maxDelta := 0.0
		for id, s := range next {
			if d := math.Abs(s - shares[id]); d > maxDelta {
				maxDelta = d
			}
		}
		shares = next
		if maxDelta < e.cfg.Demand.EquilibriumTolerance {
			break
		}
	}
	return shares
}

// Herfindahl returns the Herfindahl–Hirschman index of a share vector: the
// sum of squared shares. Reporting only, never control flow.
func Herfindahl(shares map[domain.CompanyID]float64) float64 {
	hhi := 0.0
	for _, s := range shares {
		hhi += s * s
	}
	return hhi
}

// ConcentrationRatio returns the combined share of the top n companies.
func ConcentrationRatio(shares map[domain.CompanyID]float64, n int) float64 {
	if n <= 0 || len(shares) == 0 {
		return 0
	}
	vals := make([]float64, 0, len(shares))
	for _, s := range shares {
		vals = append(vals, s)
	}
	sort.Sort(sort.Reverse(sort.Float64Slice(vals)))
	if n > len(vals) {
		n = len(vals)
	}
	total := 0.0
	for _, s := range vals[:n] {
		total += s
	}
	return total
}
