// Aggregation stage: merge stage outputs into per-company turn results and
// advance company state. Once this stage completes the results are final.
package engine

import (
	"log/slog"

	"github.com/veldtworks/underwriters/internal/domain"
)

func (o *Orchestrator) aggregate(turn int, cond domain.MarketConditions, ops map[domain.CompanyID]*companyOps, invest map[domain.CompanyID]*companyInvest) []domain.TurnResult {
	results := make([]domain.TurnResult, 0, len(o.companies))

	for _, company := range o.companies {
		co := ops[company.ID]
		if co == nil {
			co = &companyOps{}
		}
		inv := invest[company.ID]
		if inv == nil {
			inv = &companyInvest{crisisState: domain.CrisisNormal}
		}

		uw := co.premium - co.claims - co.expenses
		company.Capital += uw + inv.income - inv.impactCost

		if uw < 0 {
			company.ConsecutiveLossTurns++
		} else {
			company.ConsecutiveLossTurns = 0
		}

		lossRatio, combined := 0.0, 0.0
		if co.premium > 0 {
			lossRatio = co.claims / co.premium
			combined = (co.claims + co.expenses) / co.premium
		}

		results = append(results, domain.TurnResult{
			Company:              company.ID,
			Turn:                 turn,
			PremiumIncome:        co.premium,
			Claims:               co.claims,
			Expenses:             co.expenses,
			UnderwritingResult:   uw,
			InvestmentIncome:     inv.income,
			EndingCapital:        company.Capital,
			CombinedRatio:        combined,
			LossRatio:            lossRatio,
			CrisisState:          inv.crisisState,
			LiquidationShortfall: inv.shortfall,
			Segments:             co.segments,
		})
	}

	slog.Info("weekly report",
		"turn", turn,
		"economic_index", cond.EconomicIndex,
		"stress", cond.StressLevel,
		"companies", len(results),
		"active_catastrophes", len(o.activeCats),
	)
	return results
}
