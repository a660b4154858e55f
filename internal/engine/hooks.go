// Result hooks: external consumers invoked after aggregation. The progression
// subsystem and any plugin bus attach here; the core only fans results out.
package engine

import (
	"log/slog"

	"github.com/dustin/go-humanize"

	"github.com/veldtworks/underwriters/internal/domain"
)

// ResultHook consumes finalized turn results. Hooks run after the
// aggregation stage completes; results are immutable by then.
type ResultHook interface {
	OnTurnResult(result domain.TurnResult)
}

// ResultHookFunc adapts a function to the ResultHook interface.
type ResultHookFunc func(domain.TurnResult)

func (f ResultHookFunc) OnTurnResult(result domain.TurnResult) { f(result) }

// LogHook logs a one-line summary per company result.
type LogHook struct{}

func (LogHook) OnTurnResult(r domain.TurnResult) {
	slog.Debug("turn result",
		"company", r.Company,
		"turn", r.Turn,
		"premium", humanize.Commaf(r.PremiumIncome),
		"claims", humanize.Commaf(r.Claims),
		"combined_ratio", r.CombinedRatio,
		"capital", humanize.Commaf(r.EndingCapital),
		"crisis", r.CrisisState,
	)
}
