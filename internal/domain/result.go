package domain

// SegmentResult is a company's outcome in one market segment for one turn.
type SegmentResult struct {
	Key           SegmentKey `json:"key"`
	Share         float64    `json:"share"`
	PremiumVolume float64    `json:"premium_volume"`
	PolicyCount   int        `json:"policy_count"`
	Claims        float64    `json:"claims"`
	ClaimCount    int        `json:"claim_count"`
}

// TurnResult is the sole durable output of one simulated turn for one
// company. Once the aggregation stage completes it is final and immutable.
type TurnResult struct {
	Company CompanyID `json:"company"`
	Turn    int       `json:"turn"`

	PremiumIncome      float64 `json:"premium_income"`
	Claims             float64 `json:"claims"`
	Expenses           float64 `json:"expenses"`
	UnderwritingResult float64 `json:"underwriting_result"`
	InvestmentIncome   float64 `json:"investment_income"`
	EndingCapital      float64 `json:"ending_capital"`

	CombinedRatio float64 `json:"combined_ratio"`
	LossRatio     float64 `json:"loss_ratio"`

	CrisisState          CrisisState `json:"crisis_state"`
	LiquidationShortfall float64     `json:"liquidation_shortfall"`

	Segments []SegmentResult `json:"segments,omitempty"`
}
