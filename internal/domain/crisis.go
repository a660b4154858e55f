package domain

// CrisisState tracks a company through a crisis. Detection moves it from
// Normal to Triggered, forced sales execute under Liquidating, and the turn
// settles on Resolved or Shortfall. Turn results carry the settled state.
type CrisisState string

const (
	CrisisNormal      CrisisState = "normal"
	CrisisTriggered   CrisisState = "triggered"
	CrisisLiquidating CrisisState = "liquidating"
	CrisisResolved    CrisisState = "resolved"
	CrisisShortfall   CrisisState = "shortfall"
)

// TriggerType names one independent crisis check.
type TriggerType string

const (
	TriggerCapitalBreach    TriggerType = "capital_breach"
	TriggerCatastrophicLoss TriggerType = "catastrophic_loss"
	TriggerMarketDecline    TriggerType = "market_decline"
	TriggerLiquidity        TriggerType = "liquidity_shortfall"
	TriggerOperational      TriggerType = "operational_distress"
)

// Urgency tiers order how fast a liquidation must execute.
type Urgency int

const (
	UrgencyFlexible Urgency = iota
	UrgencyNormal
	UrgencyUrgent
	UrgencyImmediate
)

func (u Urgency) String() string {
	switch u {
	case UrgencyImmediate:
		return "immediate"
	case UrgencyUrgent:
		return "urgent"
	case UrgencyNormal:
		return "normal"
	default:
		return "flexible"
	}
}

// TimePressure maps an urgency tier to the liquidation time-pressure
// multiplier used in discount pricing.
func (u Urgency) TimePressure() float64 {
	switch u {
	case UrgencyImmediate:
		return 2.0
	case UrgencyUrgent:
		return 1.5
	case UrgencyNormal:
		return 1.2
	default:
		return 1.0
	}
}

// CrisisTrigger is one fired crisis check. Several may coexist for a company
// in a turn; they are aggregated into a single liquidation need.
type CrisisTrigger struct {
	Type     TriggerType `json:"type"`
	Severity float64     `json:"severity"` // [0, 1]
	Urgency  Urgency     `json:"urgency"`
	Need     float64     `json:"need"` // Capital to raise, dollars
	Detail   string      `json:"detail"`
}

// AssetSale is one executed forced sale within a liquidation plan.
type AssetSale struct {
	Asset     AssetClass `json:"asset"`
	Amount    float64    `json:"amount"`     // Gross value sold
	Discount  float64    `json:"discount"`   // Haircut fraction [0, 0.5]
	Proceeds  float64    `json:"proceeds"`   // Amount × (1 − Discount)
	WholeSale bool       `json:"whole_sale"` // Entire position dumped
}

// LiquidationPlan is the ordered outcome of a forced liquidation. Computed
// fresh per crisis event; kept only as display history.
type LiquidationPlan struct {
	Company    CompanyID   `json:"company"`
	Turn       int         `json:"turn"`
	Need       float64     `json:"need"`
	Sales      []AssetSale `json:"sales"`
	Raised     float64     `json:"raised"`    // Net proceeds
	Shortfall  float64     `json:"shortfall"` // max(0, Need − Raised)
	FinalState CrisisState `json:"final_state"`
	ImpactCost float64     `json:"impact_cost"` // Value lost to discounts
}
