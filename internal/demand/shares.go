// Package demand converts competitor prices and tiers into market shares per
// segment using a discrete-choice (logit) model, with loyalty blending,
// new-entrant penalties, and an iterative multi-round equilibrium.
package demand

import (
	"math"

	"github.com/veldtworks/underwriters/config"
	"github.com/veldtworks/underwriters/internal/domain"
)

// Competitor is one company's offer into a segment.
type Competitor struct {
	Company domain.CompanyID
	Price   float64
	Tier    domain.Tier
}

// SegmentOutcome is one company's demand-side result in a segment.
type SegmentOutcome struct {
	Share         float64 `json:"share"`
	PremiumVolume float64 `json:"premium_volume"`
	PolicyCount   int     `json:"policy_count"`
}

// Engine computes market shares. Stateless between calls; all parameters
// come from the validated config.
type Engine struct {
	cfg *config.Config
}

// NewEngine creates a demand engine over a validated config.
func NewEngine(cfg *config.Config) *Engine {
	return &Engine{cfg: cfg}
}

// utility returns a competitor's base (own-offer) utility in a segment.
// Prices at or below the floor are clamped before the logarithm so a zero or
// negative price cannot blow up the logit.
func (e *Engine) utility(seg domain.MarketSegment, c Competitor) float64 {
	price := c.Price
	if price < e.cfg.Demand.PriceFloor {
		price = e.cfg.Demand.PriceFloor
	}
	elasticity := e.cfg.Line(seg.Key.Line).Elasticity
	quality := e.cfg.Tier(c.Tier).QualityPerception
	return elasticity*math.Log(price) + e.cfg.Demand.QualityCoefficient*math.Log(quality)
}

// Shares computes each competitor's market share in a segment. Shares are
// non-negative and sum to at most 1; with normalize they sum to exactly 1.
// prior carries the previous round's shares for cross-competitor dampening;
// nil means equal weighting.
func (e *Engine) Shares(seg domain.MarketSegment, comps []Competitor, cond domain.MarketConditions, prior map[domain.CompanyID]float64, normalize bool) map[domain.CompanyID]float64 {
	shares := make(map[domain.CompanyID]float64, len(comps))
	if len(comps) == 0 {
		return shares
	}
	if len(comps) == 1 {
		shares[comps[0].Company] = 1.0
		return shares
	}

	base := make([]float64, len(comps))
	for i, c := range comps {
		base[i] = e.utility(seg, c)
	}

	// Cross-competitor dampening: each utility is pushed down by the
	// share-weighted utility of the rest of the field.
	weights := make([]float64, len(comps))
	for i, c := range comps {
		w := 1.0 / float64(len(comps))
		if prior != nil {
			if s, ok := prior[c.Company]; ok && s > 0 {
				w = s
			}
		}
		weights[i] = w
	}

	utils := make([]float64, len(comps))
	for i := range comps {
		otherSum, otherW := 0.0, 0.0
		for j := range comps {
			if j == i {
				continue
			}
			otherSum += weights[j] * base[j]
			otherW += weights[j]
		}
		cross := 0.0
		if otherW > 0 {
			cross = otherSum / otherW
		}
		utils[i] = base[i] - e.cfg.Demand.CrossElasticity*cross
	}

	// Softmax, shifted by the max utility for numerical stability.
	maxU := utils[0]
	for _, u := range utils[1:] {
		if u > maxU {
			maxU = u
		}
	}
	expSum := 0.0
	exps := make([]float64, len(comps))
	for i, u := range utils {
		exps[i] = math.Exp(u - maxU)
		expSum += exps[i]
	}

	for i, c := range comps {
		shares[c.Company] = exps[i] / expSum
	}

	if normalize {
		normalizeShares(shares)
		return shares
	}

	// The demand multiplier scales the whole vector, but the result must
	// stay a valid share distribution: a hot market cannot allocate more
	// than the full segment, so a sum past 1 is rescaled back onto it.
	total := 0.0
	for id, s := range shares {
		s *= cond.DemandMultiplier
		if s < 0 {
			s = 0
		}
		shares[id] = s
		total += s
	}
	if total > 1 {
		for id := range shares {
			shares[id] /= total
		}
	}
	return shares
}

// ApplyLoyalty blends computed shares with the prior turn's shares and
// renormalizes. Companies without a prior share are treated as zero.
func (e *Engine) ApplyLoyalty(shares, prior map[domain.CompanyID]float64) map[domain.CompanyID]float64 {
	if len(prior) == 0 || e.cfg.Demand.LoyaltyWeight <= 0 {
		return shares
	}
	w := e.cfg.Demand.LoyaltyWeight
	out := make(map[domain.CompanyID]float64, len(shares))
	for id, s := range shares {
		out[id] = w*prior[id] + (1-w)*s
	}
	normalizeShares(out)
	return out
}

// ApplyEntrantPenalty withholds a fraction of each new entrant's share and
// redistributes the released share proportionally among incumbents. With no
// incumbents the penalty is a no-op.
func (e *Engine) ApplyEntrantPenalty(shares map[domain.CompanyID]float64, entrants map[domain.CompanyID]bool) map[domain.CompanyID]float64 {
	penalty := e.cfg.Demand.EntrantPenalty
	if penalty <= 0 || len(entrants) == 0 {
		return shares
	}

	incumbentTotal := 0.0
	for id, s := range shares {
		if !entrants[id] {
			incumbentTotal += s
		}
	}
	if incumbentTotal <= 0 {
		return shares
	}

	released := 0.0
	out := make(map[domain.CompanyID]float64, len(shares))
	for id, s := range shares {
		if entrants[id] {
			out[id] = s * (1 - penalty)
			released += s * penalty
		} else {
			out[id] = s
		}
	}
	for id, s := range out {
		if !entrants[id] {
			out[id] = s + released*(s/incumbentTotal)
		}
	}
	return out
}

// Outcomes converts shares into premium volumes and policy-count estimates
// for a segment.
func (e *Engine) Outcomes(seg domain.MarketSegment, comps []Competitor, shares map[domain.CompanyID]float64, cond domain.MarketConditions) map[domain.CompanyID]SegmentOutcome {
	pool := seg.BaseDemand * seg.Seasonal * (1 + seg.GrowthRate*float64(seg.Turn)) * cond.DemandMultiplier
	if pool < 0 {
		pool = 0
	}

	out := make(map[domain.CompanyID]SegmentOutcome, len(comps))
	for _, c := range comps {
		share := shares[c.Company]
		premium := share * pool
		count := 0
		if c.Price > 0 {
			count = int(premium / c.Price)
		}
		out[c.Company] = SegmentOutcome{
			Share:         share,
			PremiumVolume: premium,
			PolicyCount:   count,
		}
	}
	return out
}

func normalizeShares(shares map[domain.CompanyID]float64) {
	total := 0.0
	for _, s := range shares {
		total += s
	}
	if total <= 0 {
		return
	}
	for id := range shares {
		shares[id] /= total
	}
}
