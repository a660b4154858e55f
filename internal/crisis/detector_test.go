package crisis_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/veldtworks/underwriters/config"
	"github.com/veldtworks/underwriters/internal/crisis"
	"github.com/veldtworks/underwriters/internal/domain"
)

// healthySnapshot is a company in no distress whatsoever.
func healthySnapshot() crisis.Snapshot {
	return crisis.Snapshot{
		Capital:             50_000_000,
		RequiredCapital:     20_000_000,
		PortfolioValue:      50_000_000,
		PortfolioValuePrev:  49_000_000,
		LiquidAssets:        30_000_000,
		NearTermObligations: 2_000_000,
		PremiumIncome:       5_000_000,
		CombinedRatio:       0.95,
	}
}

func TestEvaluateHealthyCompanyIsNormal(t *testing.T) {
	d := crisis.NewDetector(config.Default())

	a := d.Evaluate(healthySnapshot())

	assert.Equal(t, domain.CrisisNormal, a.State)
	assert.Empty(t, a.Triggers)
	assert.Zero(t, a.Severity)
	assert.Zero(t, a.Need)
	assert.Equal(t, domain.UrgencyFlexible, a.Urgency)
}

func TestEvaluateCapitalBreach(t *testing.T) {
	d := crisis.NewDetector(config.Default())

	s := healthySnapshot()
	s.Capital = 15_000_000 // solvency 0.75 against minimum 1.0

	a := d.Evaluate(s)

	require.Equal(t, domain.CrisisTriggered, a.State)
	require.Len(t, a.Triggers, 1)
	assert.Equal(t, domain.TriggerCapitalBreach, a.Triggers[0].Type)
	assert.Equal(t, domain.UrgencyUrgent, a.Triggers[0].Urgency)
	assert.InDelta(t, 5_000_000, a.Need, 1)
}

func TestEvaluateDeepCapitalBreachIsImmediate(t *testing.T) {
	d := crisis.NewDetector(config.Default())

	s := healthySnapshot()
	s.Capital = 8_000_000 // solvency 0.4, below half the minimum

	a := d.Evaluate(s)

	require.NotEmpty(t, a.Triggers)
	assert.Equal(t, domain.UrgencyImmediate, a.Urgency)
}

func TestEvaluateCatastrophicLoss(t *testing.T) {
	d := crisis.NewDetector(config.Default())

	s := healthySnapshot()
	s.LargestEventLoss = 20_000_000 // 40% of capital, threshold is 25%

	a := d.Evaluate(s)

	require.Len(t, a.Triggers, 1)
	assert.Equal(t, domain.TriggerCatastrophicLoss, a.Triggers[0].Type)
	assert.InDelta(t, 20_000_000-0.25*50_000_000, a.Need, 1)
}

func TestEvaluateMarketDeclineNeedsCapitalWeakness(t *testing.T) {
	d := crisis.NewDetector(config.Default())

	// A 20% drawdown alone is not a crisis with strong capital.
	s := healthySnapshot()
	s.PortfolioValuePrev = 50_000_000
	s.PortfolioValue = 40_000_000
	assert.Empty(t, d.Evaluate(s).Triggers)

	// The same drawdown with capital below requirement is.
	s.Capital = 18_000_000
	a := d.Evaluate(s)
	found := false
	for _, tr := range a.Triggers {
		if tr.Type == domain.TriggerMarketDecline {
			found = true
		}
	}
	assert.True(t, found)
}

func TestEvaluateLiquidityShortfallIsImmediate(t *testing.T) {
	d := crisis.NewDetector(config.Default())

	s := healthySnapshot()
	s.LiquidAssets = 1_000_000
	s.NearTermObligations = 5_000_000 // requires 6M at 1.2 coverage

	a := d.Evaluate(s)

	require.Len(t, a.Triggers, 1)
	tr := a.Triggers[0]
	assert.Equal(t, domain.TriggerLiquidity, tr.Type)
	assert.Equal(t, domain.UrgencyImmediate, tr.Urgency)
	assert.InDelta(t, 5_000_000, tr.Need, 1)
}

func TestEvaluateOperationalDistressNeedsThinCapital(t *testing.T) {
	d := crisis.NewDetector(config.Default())

	// Bad combined ratio with a fat capital cushion: not a crisis.
	s := healthySnapshot()
	s.CombinedRatio = 1.3
	assert.Empty(t, d.Evaluate(s).Triggers)

	// Same ratio with thin capital fires the operational trigger.
	s.Capital = 25_000_000
	a := d.Evaluate(s)
	require.Len(t, a.Triggers, 1)
	assert.Equal(t, domain.TriggerOperational, a.Triggers[0].Type)
	assert.Positive(t, a.Triggers[0].Need)
}

func TestEvaluateLossStreakFires(t *testing.T) {
	d := crisis.NewDetector(config.Default())

	s := healthySnapshot()
	s.Capital = 25_000_000
	s.ConsecutiveLossTurns = 3

	a := d.Evaluate(s)
	require.Len(t, a.Triggers, 1)
	assert.Equal(t, domain.TriggerOperational, a.Triggers[0].Type)
}

func TestAggregateNeedIsMaxNotSum(t *testing.T) {
	d := crisis.NewDetector(config.Default())

	triggers := []domain.CrisisTrigger{
		{Type: domain.TriggerCapitalBreach, Severity: 0.4, Need: 5_000_000, Urgency: domain.UrgencyUrgent},
		{Type: domain.TriggerLiquidity, Severity: 0.6, Need: 3_000_000, Urgency: domain.UrgencyImmediate},
	}

	severity, need, urgency := d.Aggregate(triggers)

	assert.InDelta(t, 5_000_000, need, 1)
	assert.Equal(t, domain.UrgencyImmediate, urgency)
	// Mean 0.5 compounded by 15% for the second trigger.
	assert.InDelta(t, 0.5*1.15, severity, 1e-9)
}

func TestAggregateSeverityCappedAtOne(t *testing.T) {
	d := crisis.NewDetector(config.Default())

	triggers := []domain.CrisisTrigger{
		{Severity: 1.0}, {Severity: 1.0}, {Severity: 1.0}, {Severity: 0.9},
	}
	severity, _, _ := d.Aggregate(triggers)
	assert.LessOrEqual(t, severity, 1.0)
}

func TestAggregateEmptyIsZero(t *testing.T) {
	d := crisis.NewDetector(config.Default())

	severity, need, urgency := d.Aggregate(nil)
	assert.Zero(t, severity)
	assert.Zero(t, need)
	assert.Equal(t, domain.UrgencyFlexible, urgency)
}
