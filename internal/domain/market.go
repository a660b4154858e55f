package domain

import "fmt"

// SegmentKey identifies a market segment: one state × line pair.
type SegmentKey struct {
	State string         `json:"state"`
	Line  LineOfBusiness `json:"line"`
}

func (k SegmentKey) String() string {
	return fmt.Sprintf("%s/%s", k.State, k.Line)
}

// MarketSegment is the demand-side description of one state × line market
// for one turn. Created per segment per turn, immutable during simulation.
type MarketSegment struct {
	Key        SegmentKey `json:"key"`
	Turn       int        `json:"turn"`
	BaseDemand float64    `json:"base_demand"` // Total premium pool at reference prices
	Elasticity float64    `json:"elasticity"`  // Own-price elasticity, negative
	Intensity  float64    `json:"intensity"`   // Competitive intensity >= 0
	GrowthRate float64    `json:"growth_rate"` // Per-turn demand drift
	Seasonal   float64    `json:"seasonal"`    // Seasonality multiplier, ~1.0
}

// PricingDecision is a company's declared price posture for one segment on
// one turn. Written by the decision-submission layer before the simulation
// starts; read-only during simulation.
type PricingDecision struct {
	Company           CompanyID      `json:"company"`
	Turn              int            `json:"turn"`
	State             string         `json:"state"`
	Line              LineOfBusiness `json:"line"`
	BasePrice         float64        `json:"base_price"`
	PriceMultiplier   float64        `json:"price_multiplier"`
	Tier              Tier           `json:"tier"`
	ExpectedLossRatio float64        `json:"expected_loss_ratio"`
}

// EffectivePrice is the price actually offered to the segment.
func (p PricingDecision) EffectivePrice() float64 {
	return p.BasePrice * p.PriceMultiplier
}

// MarketConditions is the economy-wide backdrop for one turn, derived from
// the econ cycle. Immutable during the turn.
type MarketConditions struct {
	Turn             int     `json:"turn"`
	EconomicIndex    float64 `json:"economic_index"`    // [-1, 1], smooth cycle
	DemandMultiplier float64 `json:"demand_multiplier"` // Scales segment demand
	EquityReturn     float64 `json:"equity_return"`     // Per-turn equity market return
	InterestRate     float64 `json:"interest_rate"`     // Annualized risk-free level
	StressLevel      float64 `json:"stress_level"`      // [0, 1], feeds liquidation discounts
}
