// Package crisis detects capital, liquidity, and loss distress per company,
// executes skill-dependent forced liquidations, and models the market impact
// and cascades that aggregate fire sales produce.
//
// Per company per turn the state machine is
// Normal → Triggered → Liquidating → (Resolved | Shortfall).
package crisis

import (
	"fmt"

	"github.com/veldtworks/underwriters/config"
	"github.com/veldtworks/underwriters/internal/domain"
)

// Snapshot is the post-claims financial state the detector evaluates. All
// fields are already materialized; detection does no I/O.
type Snapshot struct {
	Capital              float64
	RequiredCapital      float64
	LargestEventLoss     float64 // Biggest single-event loss this turn
	PortfolioValue       float64
	PortfolioValuePrev   float64
	LiquidAssets         float64 // Value held in liquid classes
	NearTermObligations  float64 // Claims payable this turn
	PremiumIncome        float64
	CombinedRatio        float64
	ConsecutiveLossTurns int
}

// Assessment is the aggregated crisis picture for one company.
type Assessment struct {
	State    domain.CrisisState     `json:"state"`
	Triggers []domain.CrisisTrigger `json:"triggers"`
	Severity float64                `json:"severity"` // [0, 1]
	Need     float64                `json:"need"`     // Max of individual needs
	Urgency  domain.Urgency         `json:"urgency"`  // Most urgent tier fired
}

// Detector runs the independent trigger checks.
type Detector struct {
	cfg *config.Config
}

// NewDetector creates a crisis detector over a validated config.
func NewDetector(cfg *config.Config) *Detector {
	return &Detector{cfg: cfg}
}

// Evaluate runs every trigger check and aggregates the result. With no
// trigger fired the assessment is Normal with severity 0 and need 0.
func (d *Detector) Evaluate(s Snapshot) Assessment {
	var triggers []domain.CrisisTrigger
	for _, check := range []func(Snapshot) *domain.CrisisTrigger{
		d.checkCapital,
		d.checkCatastrophicLoss,
		d.checkMarketDecline,
		d.checkLiquidity,
		d.checkOperational,
	} {
		if t := check(s); t != nil {
			triggers = append(triggers, *t)
		}
	}

	severity, need, urgency := d.Aggregate(triggers)
	state := domain.CrisisNormal
	if len(triggers) > 0 {
		state = domain.CrisisTriggered
	}
	return Assessment{
		State:    state,
		Triggers: triggers,
		Severity: severity,
		Need:     need,
		Urgency:  urgency,
	}
}

// Aggregate combines fired triggers: severity is the mean scaled by a
// compounding factor that grows with trigger count (capped at 1), and the
// liquidation need is the maximum of individual needs, not the sum, since
// the triggers largely describe the same capital shortfall.
func (d *Detector) Aggregate(triggers []domain.CrisisTrigger) (severity, need float64, urgency domain.Urgency) {
	if len(triggers) == 0 {
		return 0, 0, domain.UrgencyFlexible
	}

	sum := 0.0
	for _, t := range triggers {
		sum += t.Severity
		if t.Need > need {
			need = t.Need
		}
		if t.Urgency > urgency {
			urgency = t.Urgency
		}
	}
	severity = sum / float64(len(triggers))
	severity *= 1 + d.cfg.Crisis.CompoundingFactor*float64(len(triggers)-1)
	if severity > 1 {
		severity = 1
	}
	return severity, need, urgency
}

func (d *Detector) checkCapital(s Snapshot) *domain.CrisisTrigger {
	if s.RequiredCapital <= 0 {
		return nil
	}
	minRatio := d.cfg.Crisis.MinSolvencyRatio
	solvency := s.Capital / s.RequiredCapital
	if solvency >= minRatio {
		return nil
	}

	urgency := domain.UrgencyUrgent
	if solvency < minRatio/2 {
		urgency = domain.UrgencyImmediate
	}
	return &domain.CrisisTrigger{
		Type:     domain.TriggerCapitalBreach,
		Severity: clamp01(1 - solvency/minRatio),
		Urgency:  urgency,
		Need:     s.RequiredCapital*minRatio - s.Capital,
		Detail:   fmt.Sprintf("solvency ratio %.2f below minimum %.2f", solvency, minRatio),
	}
}

func (d *Detector) checkCatastrophicLoss(s Snapshot) *domain.CrisisTrigger {
	if s.Capital <= 0 {
		return nil
	}
	threshold := d.cfg.Crisis.CatLossCapitalPct * s.Capital
	if s.LargestEventLoss <= threshold {
		return nil
	}
	return &domain.CrisisTrigger{
		Type:     domain.TriggerCatastrophicLoss,
		Severity: clamp01(s.LargestEventLoss / s.Capital),
		Urgency:  domain.UrgencyUrgent,
		Need:     s.LargestEventLoss - threshold,
		Detail:   fmt.Sprintf("single-event loss %.0f exceeds %.0f%% of capital", s.LargestEventLoss, d.cfg.Crisis.CatLossCapitalPct*100),
	}
}

func (d *Detector) checkMarketDecline(s Snapshot) *domain.CrisisTrigger {
	if s.PortfolioValuePrev <= 0 {
		return nil
	}
	decline := (s.PortfolioValuePrev - s.PortfolioValue) / s.PortfolioValuePrev
	if decline <= d.cfg.Crisis.MarketDeclinePct {
		return nil
	}
	// Only a crisis when the drawdown pushes capital below the minimum.
	if s.Capital >= s.RequiredCapital*d.cfg.Crisis.MinSolvencyRatio {
		return nil
	}
	return &domain.CrisisTrigger{
		Type:     domain.TriggerMarketDecline,
		Severity: clamp01(decline / (2 * d.cfg.Crisis.MarketDeclinePct)),
		Urgency:  domain.UrgencyNormal,
		Need:     s.RequiredCapital*d.cfg.Crisis.MinSolvencyRatio - s.Capital,
		Detail:   fmt.Sprintf("portfolio declined %.1f%%", decline*100),
	}
}

func (d *Detector) checkLiquidity(s Snapshot) *domain.CrisisTrigger {
	required := d.cfg.Crisis.LiquidityCoverage * s.NearTermObligations
	if required <= 0 || s.LiquidAssets >= required {
		return nil
	}
	return &domain.CrisisTrigger{
		Type:     domain.TriggerLiquidity,
		Severity: clamp01(1 - s.LiquidAssets/required),
		Urgency:  domain.UrgencyImmediate,
		Need:     required - s.LiquidAssets,
		Detail:   fmt.Sprintf("liquid assets %.0f cover %.0f obligations at ratio below %.2f", s.LiquidAssets, s.NearTermObligations, d.cfg.Crisis.LiquidityCoverage),
	}
}

func (d *Detector) checkOperational(s Snapshot) *domain.CrisisTrigger {
	cc := d.cfg.Crisis
	ratioBreach := s.CombinedRatio > cc.CombinedRatioCeiling
	lossStreak := s.ConsecutiveLossTurns >= cc.MaxLossTurns
	if !ratioBreach && !lossStreak {
		return nil
	}
	// Sufficient runway keeps a bad quarter from being a crisis.
	if s.Capital > 1.5*s.RequiredCapital {
		return nil
	}

	severity := 0.0
	if ratioBreach {
		severity = clamp01((s.CombinedRatio - cc.CombinedRatioCeiling) * 2)
	}
	if lossStreak {
		severity = clamp01(severity + 0.1*float64(s.ConsecutiveLossTurns-cc.MaxLossTurns+1))
	}
	need := 0.0
	if s.CombinedRatio > 1 {
		// Runway to absorb the underwriting bleed for two more turns.
		need = 2 * (s.CombinedRatio - 1) * s.PremiumIncome
	}
	return &domain.CrisisTrigger{
		Type:     domain.TriggerOperational,
		Severity: severity,
		Urgency:  domain.UrgencyNormal,
		Need:     need,
		Detail:   fmt.Sprintf("combined ratio %.2f, %d consecutive loss turns", s.CombinedRatio, s.ConsecutiveLossTurns),
	}
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
