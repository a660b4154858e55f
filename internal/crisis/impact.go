// Aggregate market impact of forced selling, contagion amplification, and
// the bounded cascade of secondary fire sales.
package crisis

import (
	"math"

	"github.com/veldtworks/underwriters/config"
	"github.com/veldtworks/underwriters/internal/domain"
)

// MarketImpact is the price impact of aggregate forced selling, split into a
// temporary component that decays and a permanent repricing.
type MarketImpact struct {
	Total     float64 `json:"total"`
	Temporary float64 `json:"temporary"`
	Permanent float64 `json:"permanent"`
	Contagion bool    `json:"contagion"`
}

// Impact split: most of a fire-sale dislocation mean-reverts.
const (
	temporaryShare = 0.6
	permanentShare = 0.4
)

// Participant is one market participant exposed to cascade dynamics.
type Participant struct {
	ID             domain.CompanyID
	PortfolioValue float64
	RiskyExposure  float64 // Fraction of portfolio exposed to impacted assets
	Forced         bool    // Already selling this round
}

// CascadeResult reports a bounded cascade simulation.
type CascadeResult struct {
	Rounds    int                `json:"rounds"`
	TotalSold float64            `json:"total_sold"`
	Impact    MarketImpact       `json:"impact"`
	Secondary []domain.CompanyID `json:"secondary"` // Participants forced by the cascade
}

// ImpactModel prices aggregate liquidation impact.
type ImpactModel struct {
	cfg *config.Config
}

// NewImpactModel creates an impact model over a validated config.
func NewImpactModel(cfg *config.Config) *ImpactModel {
	return &ImpactModel{cfg: cfg}
}

// PriceImpact applies the square-root impact model to an aggregate sold
// amount against a market depth, amplified by the contagion multiplier once
// the threshold is crossed.
func (m *ImpactModel) PriceImpact(totalSold, marketDepth, volatility float64) MarketImpact {
	if totalSold <= 0 || marketDepth <= 0 {
		return MarketImpact{}
	}

	impact := m.cfg.Crisis.ImpactCoefficient * volatility * math.Sqrt(totalSold/marketDepth)

	contagion := impact > m.cfg.Crisis.ContagionThreshold
	if contagion {
		impact *= m.cfg.Crisis.ContagionMultiplier
	}

	return MarketImpact{
		Total:     impact,
		Temporary: impact * temporaryShare,
		Permanent: impact * permanentShare,
		Contagion: contagion,
	}
}

// Cascade simulates secondary forced selling: participants whose impact loss
// exceeds their margin threshold join the sale, deepening the impact, for a
// bounded number of rounds. The rounds couple every participant through the
// shared impact, so the loop cannot be parallelized.
func (m *ImpactModel) Cascade(initialSold, marketDepth, volatility float64, participants []Participant) CascadeResult {
	cc := m.cfg.Crisis

	result := CascadeResult{TotalSold: initialSold}
	forced := make(map[domain.CompanyID]bool, len(participants))
	for _, p := range participants {
		if p.Forced {
			forced[p.ID] = true
		}
	}

	for round := 0; round < cc.CascadeMaxRounds; round++ {
		impact := m.PriceImpact(result.TotalSold, marketDepth, volatility)
		result.Impact = impact
		result.Rounds = round + 1

		newSales := 0.0
		for _, p := range participants {
			if forced[p.ID] || p.PortfolioValue <= 0 {
				continue
			}
			loss := impact.Total * p.RiskyExposure * p.PortfolioValue
			if loss <= cc.CascadeMarginFraction*p.PortfolioValue {
				continue
			}
			// Margin breach: the participant must raise the loss amount,
			// selling into the same stressed market.
			forced[p.ID] = true
			result.Secondary = append(result.Secondary, p.ID)
			newSales += loss
		}

		if newSales == 0 {
			break
		}
		result.TotalSold += newSales
	}
	return result
}
