// Investment stage: optimize posture, apply skill perception, rebalance,
// detect crises, and execute forced liquidations. Sequential within a
// company; the cascade at the end couples all participants and runs once.
package engine

import (
	"log/slog"

	"golang.org/x/exp/rand"

	"github.com/veldtworks/underwriters/internal/crisis"
	"github.com/veldtworks/underwriters/internal/domain"
	"github.com/veldtworks/underwriters/internal/portfolio"
)

// companyInvest is the Investment stage output for one company.
type companyInvest struct {
	income      float64 // Investment income net of transaction costs
	crisisState domain.CrisisState
	shortfall   float64
	impactCost  float64 // Value lost to liquidation discounts
	plan        *domain.LiquidationPlan
	fallback    bool
}

func (o *Orchestrator) investmentStage(turn int, cond domain.MarketConditions, ops map[domain.CompanyID]*companyOps) (map[domain.CompanyID]*companyInvest, error) {
	out := make(map[domain.CompanyID]*companyInvest, len(o.companies))
	totalForcedSales := 0.0

	for _, company := range o.companies {
		rng := rand.New(rand.NewSource(o.subSeed(turn, "invest|"+company.ID.String())))
		co := ops[company.ID]
		if co == nil {
			co = &companyOps{}
		}

		inv := &companyInvest{crisisState: domain.CrisisNormal}
		out[company.ID] = inv

		truth := company.Characteristics

		// Optimize toward the company's declared target posture.
		opt := o.optimizer.Optimize(portfolio.Request{
			RiskTolerance: company.Target.Risk,
			LiquidityNeed: company.Target.Liquidity,
		})
		inv.fallback = opt.Fallback

		// The company steers by what it believes its portfolio looks like,
		// not by the truth. Low skill widens the gap.
		perc := o.perceiver.Perceive(truth, company.CFOSkill, rng)
		steered := portfolio.DistortTarget(opt.Characteristics, perc.Perceived, truth)

		rb := o.optimizer.Rebalance(truth, steered)

		company.PortfolioValuePrev = company.PortfolioValue

		// Weekly return: per-class carry plus the equity cycle surprise on
		// the risky sleeve, net of rebalancing costs.
		riskyWeight := rb.Allocation[domain.AssetPublicEquity] +
			rb.Allocation[domain.AssetHedgeFunds] +
			rb.Allocation[domain.AssetPrivateEquity]
		weeklyCarry := o.optimizer.AllocationReturn(rb.Allocation) / 52
		tilt := (cond.EquityReturn - o.cfg.Econ.EquityBaseReturn) * riskyWeight
		inv.income = company.PortfolioValue*(weeklyCarry+tilt) - rb.TransactionCost*company.PortfolioValue

		company.PortfolioValue += inv.income
		company.Allocation = rb.Allocation
		company.Characteristics = rb.Achieved

		// Crisis detection over the post-claims, post-return position.
		uw := co.premium - co.claims - co.expenses
		interim := company.Capital + uw + inv.income

		lossTurns := company.ConsecutiveLossTurns
		if uw < 0 {
			lossTurns++
		}

		combined := 0.0
		if co.premium > 0 {
			combined = (co.claims + co.expenses) / co.premium
		}

		assessment := o.detector.Evaluate(crisis.Snapshot{
			Capital:              interim,
			RequiredCapital:      company.RequiredCapital,
			LargestEventLoss:     co.largestEventLoss,
			PortfolioValue:       company.PortfolioValue,
			PortfolioValuePrev:   company.PortfolioValuePrev,
			LiquidAssets:         o.liquidValue(company),
			NearTermObligations:  co.claims,
			PremiumIncome:        co.premium,
			CombinedRatio:        combined,
			ConsecutiveLossTurns: lossTurns,
		})
		inv.crisisState = assessment.State
		if assessment.State == domain.CrisisNormal {
			continue
		}

		// Sales execute under the in-flight state; the plan's final state
		// replaces it once the liquidation settles.
		inv.crisisState = domain.CrisisLiquidating
		slog.Info("liquidation started",
			"company", company.Name,
			"turn", turn,
			"state", inv.crisisState,
			"need", assessment.Need,
		)

		plan := o.liquidator.Execute(crisis.Request{
			Company:        company.ID,
			Turn:           turn,
			Allocation:     company.Allocation,
			PortfolioValue: company.PortfolioValue,
			Need:           assessment.Need,
			Skill:          company.CFOSkill,
			TimePressure:   assessment.Urgency.TimePressure(),
			MarketStress:   cond.StressLevel,
		}, rng)

		inv.plan = &plan
		inv.crisisState = plan.FinalState
		inv.shortfall = plan.Shortfall
		inv.impactCost = plan.ImpactCost

		o.applyLiquidation(company, &plan)
		for _, sale := range plan.Sales {
			totalForcedSales += sale.Amount
		}

		slog.Warn("crisis liquidation",
			"company", company.Name,
			"turn", turn,
			"severity", assessment.Severity,
			"urgency", assessment.Urgency.String(),
			"need", assessment.Need,
			"raised", plan.Raised,
			"shortfall", plan.Shortfall,
			"state", plan.FinalState,
		)
	}

	if totalForcedSales > 0 {
		o.applyCascade(turn, totalForcedSales, out)
	}
	return out, nil
}

// liquidValue is the liquidity-weighted portfolio value available for
// near-term obligations.
func (o *Orchestrator) liquidValue(company *domain.Company) float64 {
	total := 0.0
	for class, w := range company.Allocation {
		total += company.PortfolioValue * w * o.cfg.AssetClasses[class].Characteristics.Liquidity
	}
	return total
}

// applyLiquidation moves sold value out of the portfolio. Proceeds become
// available capital; the discount is a realized loss carried by impactCost.
func (o *Orchestrator) applyLiquidation(company *domain.Company, plan *domain.LiquidationPlan) {
	if company.PortfolioValue <= 0 {
		return
	}
	values := make(map[domain.AssetClass]float64, len(company.Allocation))
	for class, w := range company.Allocation {
		values[class] = w * company.PortfolioValue
	}
	sold := 0.0
	for _, sale := range plan.Sales {
		values[sale.Asset] -= sale.Amount
		if values[sale.Asset] < 0 {
			values[sale.Asset] = 0
		}
		sold += sale.Amount
	}

	company.PortfolioValue -= sold
	if company.PortfolioValue < 0 {
		company.PortfolioValue = 0
	}

	alloc := make(domain.AssetAllocation, len(values))
	for class, v := range values {
		alloc[class] = v
	}
	company.Allocation = alloc.Normalize()
}

// applyCascade runs the bounded contagion loop over aggregate forced sales
// and applies the permanent price impact to every participant's risky
// sleeve.
func (o *Orchestrator) applyCascade(turn int, totalSold float64, invest map[domain.CompanyID]*companyInvest) {
	depth := 0.0
	for _, class := range []domain.AssetClass{domain.AssetPublicEquity, domain.AssetCorpBonds, domain.AssetHedgeFunds} {
		depth += o.cfg.AssetClasses[class].MarketDepth
	}
	equityVol := o.cfg.AssetClasses[domain.AssetPublicEquity].Volatility

	participants := make([]crisis.Participant, 0, len(o.companies))
	for _, c := range o.companies {
		inv := invest[c.ID]
		participants = append(participants, crisis.Participant{
			ID:             c.ID,
			PortfolioValue: c.PortfolioValue,
			RiskyExposure: c.Allocation[domain.AssetPublicEquity] +
				c.Allocation[domain.AssetHedgeFunds] +
				c.Allocation[domain.AssetPrivateEquity],
			Forced: inv != nil && inv.plan != nil,
		})
	}

	cascade := o.impact.Cascade(totalSold, depth, equityVol, participants)
	if cascade.Impact.Total <= 0 {
		return
	}

	slog.Info("market impact",
		"turn", turn,
		"total_sold", cascade.TotalSold,
		"impact", cascade.Impact.Total,
		"permanent", cascade.Impact.Permanent,
		"contagion", cascade.Impact.Contagion,
		"cascade_rounds", cascade.Rounds,
		"secondary_sellers", len(cascade.Secondary),
	)

	// The permanent component reprices every risky sleeve.
	for i, c := range o.companies {
		loss := cascade.Impact.Permanent * participants[i].RiskyExposure * c.PortfolioValue
		if loss <= 0 {
			continue
		}
		c.PortfolioValue -= loss
		if inv := invest[c.ID]; inv != nil {
			inv.income -= loss
		}
	}
}
