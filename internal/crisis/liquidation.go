// Forced liquidation: skill-dependent sale ordering and sizing, with
// discount pricing per sale.
package crisis

import (
	"math"

	"golang.org/x/exp/rand"

	"github.com/veldtworks/underwriters/config"
	"github.com/veldtworks/underwriters/internal/domain"
)

// Skill thresholds for liquidation behavior. Sizing switches hard at 50:
// whole positions below, minimum-needed above.
const (
	skillCanonicalOrder = 70
	skillRandomOrder    = 40
	skillMinimumSizing  = 50
)

// Liquidator executes forced sales against a company's allocation.
type Liquidator struct {
	cfg *config.Config
}

// NewLiquidator creates a liquidation engine over a validated config.
func NewLiquidator(cfg *config.Config) *Liquidator {
	return &Liquidator{cfg: cfg}
}

// Request is one liquidation run for one company.
type Request struct {
	Company        domain.CompanyID
	Turn           int
	Allocation     domain.AssetAllocation
	PortfolioValue float64
	Need           float64 // Net proceeds required
	Skill          float64 // CFO skill 0-100
	TimePressure   float64 // From the urgency tier
	MarketStress   float64 // [0, 1] from market conditions
}

// Execute selects, sizes, and prices forced sales until the need is covered
// or the portfolio runs out. A shortfall is reported in the plan, never
// returned as an error; it is a valid game outcome that moves the company
// to the Shortfall state.
func (l *Liquidator) Execute(req Request, rng *rand.Rand) domain.LiquidationPlan {
	plan := domain.LiquidationPlan{
		Company: req.Company,
		Turn:    req.Turn,
		Need:    req.Need,
	}
	if req.Need <= 0 {
		plan.FinalState = domain.CrisisResolved
		return plan
	}

	order := l.saleOrder(req.Skill, rng)
	wholePositions := req.Skill < skillMinimumSizing

	remaining := req.Need
	for _, class := range order {
		if remaining <= 0 {
			break
		}
		position := req.Allocation[class] * req.PortfolioValue
		if position <= 0 {
			continue
		}

		var amount float64
		if wholePositions {
			// Low-skill actors dump the whole position rather than sizing
			// the sale to the remaining need.
			amount = position
		} else {
			// Gross up by the expected haircut so net proceeds meet the need.
			est := l.Discount(class, remaining, req.TimePressure, req.MarketStress, req.Skill)
			amount = math.Min(position, remaining/(1-est))
		}

		discount := l.Discount(class, amount, req.TimePressure, req.MarketStress, req.Skill)
		proceeds := amount * (1 - discount)

		plan.Sales = append(plan.Sales, domain.AssetSale{
			Asset:     class,
			Amount:    amount,
			Discount:  discount,
			Proceeds:  proceeds,
			WholeSale: wholePositions && amount == position,
		})
		plan.Raised += proceeds
		plan.ImpactCost += amount - proceeds
		remaining -= proceeds
	}

	if plan.Raised >= req.Need {
		plan.FinalState = domain.CrisisResolved
	} else {
		plan.Shortfall = req.Need - plan.Raised
		plan.FinalState = domain.CrisisShortfall
	}
	return plan
}

// saleOrder returns the asset-class sale sequence for a skill level. High
// skill follows the canonical liquidity order exactly; mid skill partially
// scrambles it; low skill is effectively random.
func (l *Liquidator) saleOrder(skill float64, rng *rand.Rand) []domain.AssetClass {
	order := make([]domain.AssetClass, len(domain.LiquidityOrder))
	copy(order, domain.LiquidityOrder)

	switch {
	case skill >= skillCanonicalOrder:
		return order
	case skill >= skillRandomOrder:
		swaps := int(math.Round((100 - skill) / 100 * float64(len(order))))
		for i := 0; i < swaps; i++ {
			a, b := rng.Intn(len(order)), rng.Intn(len(order))
			order[a], order[b] = order[b], order[a]
		}
		return order
	default:
		rng.Shuffle(len(order), func(i, j int) {
			order[i], order[j] = order[j], order[i]
		})
		return order
	}
}

// Discount prices one sale's haircut: asset illiquidity, scaled by sale size
// relative to the class's market depth (impact accelerates past depth), time
// pressure, market stress, and a skill reduction of up to half. Capped at
// the configured maximum.
func (l *Liquidator) Discount(class domain.AssetClass, amount, timePressure, marketStress, skill float64) float64 {
	ac := l.cfg.AssetClasses[class]

	sizeFactor := 1.0
	if ac.MarketDepth > 0 {
		if amount <= ac.MarketDepth {
			sizeFactor = 1 + 0.5*amount/ac.MarketDepth
		} else {
			sizeFactor = 1.5 + math.Sqrt((amount-ac.MarketDepth)/ac.MarketDepth)
		}
	}

	if timePressure < 1 {
		timePressure = 1
	}
	marketMult := 1 + marketStress

	discount := ac.Illiquidity * sizeFactor * timePressure * marketMult
	discount *= 1 - l.cfg.Crisis.SkillDiscountCut*clampSkillFrac(skill)

	if discount > l.cfg.Crisis.MaxDiscount {
		discount = l.cfg.Crisis.MaxDiscount
	}
	if discount < 0 {
		discount = 0
	}
	return discount
}

func clampSkillFrac(skill float64) float64 {
	if skill < 0 {
		return 0
	}
	if skill > 100 {
		return 1
	}
	return skill / 100
}
