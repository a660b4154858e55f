package domain

import "math"

// AssetClass names one investable asset class.
type AssetClass string

const (
	AssetCash          AssetClass = "cash"
	AssetGovtBonds     AssetClass = "govt_bonds"
	AssetCorpBonds     AssetClass = "corp_bonds"
	AssetPublicEquity  AssetClass = "public_equity"
	AssetRealEstate    AssetClass = "real_estate"
	AssetHedgeFunds    AssetClass = "hedge_funds"
	AssetPrivateEquity AssetClass = "private_equity"
)

// LiquidityOrder lists asset classes from most to least liquid. A skilled
// liquidator sells in exactly this order.
var LiquidityOrder = []AssetClass{
	AssetCash,
	AssetGovtBonds,
	AssetCorpBonds,
	AssetPublicEquity,
	AssetRealEstate,
	AssetHedgeFunds,
	AssetPrivateEquity,
}

// AssetAllocation maps asset class to portfolio weight. Weights are
// non-negative and sum to 1; allocations are always derived from
// characteristics, never hand-authored.
type AssetAllocation map[AssetClass]float64

// Normalize rescales weights to sum to 1, dropping negatives. An empty or
// fully non-positive allocation becomes 100% cash.
func (a AssetAllocation) Normalize() AssetAllocation {
	out := make(AssetAllocation, len(a))
	total := 0.0
	for class, w := range a {
		if w > 0 {
			out[class] = w
			total += w
		}
	}
	if total <= 0 {
		return AssetAllocation{AssetCash: 1}
	}
	for class := range out {
		out[class] /= total
	}
	return out
}

// Clone returns a copy of the allocation.
func (a AssetAllocation) Clone() AssetAllocation {
	out := make(AssetAllocation, len(a))
	for class, w := range a {
		out[class] = w
	}
	return out
}

// PortfolioCharacteristics describes an investment posture along five
// abstract dimensions, each bounded in [0, 1]. Targets come from company
// decisions; achieved values come from the optimizer.
type PortfolioCharacteristics struct {
	Risk            float64 `json:"risk"`
	Duration        float64 `json:"duration"`
	Liquidity       float64 `json:"liquidity"`
	Credit          float64 `json:"credit"`
	Diversification float64 `json:"diversification"`
}

// Clamp bounds every dimension to [0, 1].
func (p PortfolioCharacteristics) Clamp() PortfolioCharacteristics {
	return PortfolioCharacteristics{
		Risk:            clamp01(p.Risk),
		Duration:        clamp01(p.Duration),
		Liquidity:       clamp01(p.Liquidity),
		Credit:          clamp01(p.Credit),
		Diversification: clamp01(p.Diversification),
	}
}

// Vector returns the characteristics as a 5-element slice in the canonical
// dimension order (risk, duration, liquidity, credit, diversification).
func (p PortfolioCharacteristics) Vector() []float64 {
	return []float64{p.Risk, p.Duration, p.Liquidity, p.Credit, p.Diversification}
}

// FromVector rebuilds characteristics from a canonical-order slice.
func FromVector(v []float64) PortfolioCharacteristics {
	return PortfolioCharacteristics{
		Risk:            v[0],
		Duration:        v[1],
		Liquidity:       v[2],
		Credit:          v[3],
		Diversification: v[4],
	}
}

// MeanAbsDiff returns the mean absolute difference to another vector,
// the basis of the information-quality score.
func (p PortfolioCharacteristics) MeanAbsDiff(o PortfolioCharacteristics) float64 {
	a, b := p.Vector(), o.Vector()
	sum := 0.0
	for i := range a {
		sum += math.Abs(a[i] - b[i])
	}
	return sum / float64(len(a))
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
