// Package domain holds the shared entity types of the market simulation:
// companies, segments, pricing decisions, portfolios, catastrophes, crises,
// and turn results. Everything here is a plain value type; behavior lives
// in the engine packages that consume them.
package domain

// LineOfBusiness identifies an insurance product line.
type LineOfBusiness string

const (
	LineAuto       LineOfBusiness = "auto"
	LineHome       LineOfBusiness = "home"
	LineCommercial LineOfBusiness = "commercial"
	LineLiability  LineOfBusiness = "liability"
	LineLife       LineOfBusiness = "life"
)

// Lines lists every line of business in a stable order.
var Lines = []LineOfBusiness{LineAuto, LineHome, LineCommercial, LineLiability, LineLife}

// Tier is a product quality tier. Higher tiers attract better risks and
// support higher prices.
type Tier string

const (
	TierBasic    Tier = "basic"
	TierStandard Tier = "standard"
	TierPremium  Tier = "premium"
	TierElite    Tier = "elite"
)

// Tiers lists every product tier from lowest to highest quality.
var Tiers = []Tier{TierBasic, TierStandard, TierPremium, TierElite}

// Valid reports whether the line is a known line of business.
func (l LineOfBusiness) Valid() bool {
	switch l {
	case LineAuto, LineHome, LineCommercial, LineLiability, LineLife:
		return true
	}
	return false
}

// Valid reports whether the tier is a known product tier.
func (t Tier) Valid() bool {
	switch t {
	case TierBasic, TierStandard, TierPremium, TierElite:
		return true
	}
	return false
}
