package domain

import "github.com/google/uuid"

// CompanyID uniquely identifies an insurance company.
type CompanyID = uuid.UUID

// Company is the mutable per-company state carried between turns. The
// orchestrator owns it; stages read a snapshot and write back through the
// aggregator only.
type Company struct {
	ID   CompanyID `json:"id"`
	Name string    `json:"name"`

	// Capital position.
	Capital         float64 `json:"capital"`          // Available capital
	RequiredCapital float64 `json:"required_capital"` // Regulatory minimum

	// Investment portfolio.
	PortfolioValue     float64                  `json:"portfolio_value"`
	PortfolioValuePrev float64                  `json:"portfolio_value_prev"`
	Allocation         AssetAllocation          `json:"allocation"`
	Characteristics    PortfolioCharacteristics `json:"characteristics"` // Achieved posture
	Target             PortfolioCharacteristics `json:"target"`          // Decision input for the turn

	// CFO skill score 0-100, supplied by the progression subsystem.
	CFOSkill float64 `json:"cfo_skill"`

	// EntryTurn is the turn the company entered the market. Recent entrants
	// pay a share penalty in the demand engine.
	EntryTurn int `json:"entry_turn"`

	// ConsecutiveLossTurns counts unbroken underwriting-loss turns, used by
	// the operational-distress crisis check.
	ConsecutiveLossTurns int `json:"consecutive_loss_turns"`
}

// SolvencyRatio returns available capital over regulatory required capital.
// A company with no capital requirement is treated as fully solvent.
func (c *Company) SolvencyRatio() float64 {
	if c.RequiredCapital <= 0 {
		return 10
	}
	return c.Capital / c.RequiredCapital
}
