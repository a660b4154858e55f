package engine_test

import (
	"context"
	"log/slog"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/veldtworks/underwriters/config"
	"github.com/veldtworks/underwriters/internal/domain"
	"github.com/veldtworks/underwriters/internal/engine"
	"github.com/veldtworks/underwriters/internal/portfolio"
)

func testConfig() *config.Config {
	cfg := config.Default()
	cfg.Simulation.Seed = 7
	cfg.Simulation.Turns = 4
	// Keep the default catastrophe perils but make them impossible so the
	// baseline pipeline tests are fully deterministic in shape.
	for typ, cc := range cfg.Catastrophes {
		cc.Probability = 0
		cfg.Catastrophes[typ] = cc
	}
	return cfg
}

func testCompany(cfg *config.Config, name string, skill float64) *domain.Company {
	target := domain.PortfolioCharacteristics{
		Risk: 0.5, Duration: 0.5, Liquidity: 0.4, Credit: 0.4, Diversification: 0.6,
	}
	opt := portfolio.NewOptimizer(cfg)
	res := opt.Optimize(portfolio.Request{RiskTolerance: target.Risk, LiquidityNeed: target.Liquidity})

	return &domain.Company{
		ID:                 uuid.NewSHA1(uuid.NameSpaceOID, []byte(name)),
		Name:               name,
		Capital:            50_000_000,
		RequiredCapital:    20_000_000,
		PortfolioValue:     50_000_000,
		PortfolioValuePrev: 50_000_000,
		Allocation:         res.Allocation,
		Characteristics:    res.Characteristics,
		Target:             target,
		CFOSkill:           skill,
	}
}

func testDecisions(cfg *config.Config, companies []*domain.Company, turn int) []domain.PricingDecision {
	var decisions []domain.PricingDecision
	for _, c := range companies {
		for _, state := range cfg.States {
			decisions = append(decisions, domain.PricingDecision{
				Company:         c.ID,
				Turn:            turn,
				State:           state,
				Line:            domain.LineAuto,
				BasePrice:       1200,
				PriceMultiplier: 1.0,
				Tier:            domain.TierStandard,
			})
		}
	}
	return decisions
}

func TestRunTurnProducesResultPerCompany(t *testing.T) {
	cfg := testConfig()
	companies := []*domain.Company{
		testCompany(cfg, "Alpha Mutual", 80),
		testCompany(cfg, "Beta Casualty", 50),
		testCompany(cfg, "Gamma Direct", 30),
	}
	orch := engine.New(cfg, companies)

	results, err := orch.RunTurn(context.Background(), 1, testDecisions(cfg, companies, 1))
	require.NoError(t, err)
	require.Len(t, results, 3)

	for _, r := range results {
		assert.Equal(t, 1, r.Turn)
		assert.Positive(t, r.PremiumIncome)
		assert.GreaterOrEqual(t, r.Claims, 0.0)
		assert.NotEmpty(t, r.Segments)
	}
}

func TestRunTurnUpdatesCompanyState(t *testing.T) {
	cfg := testConfig()
	companies := []*domain.Company{
		testCompany(cfg, "Alpha Mutual", 80),
		testCompany(cfg, "Beta Casualty", 50),
	}
	orch := engine.New(cfg, companies)

	results, err := orch.RunTurn(context.Background(), 1, testDecisions(cfg, companies, 1))
	require.NoError(t, err)

	for i, c := range companies {
		assert.InDelta(t, results[i].EndingCapital, c.Capital, 1e-6)
		assert.NotEqual(t, 50_000_000.0, c.PortfolioValue, "investment stage must move the portfolio")
	}
}

func TestRunReproducibleAcrossOrchestrators(t *testing.T) {
	run := func() []domain.TurnResult {
		cfg := testConfig()
		companies := []*domain.Company{
			testCompany(cfg, "Alpha Mutual", 80),
			testCompany(cfg, "Beta Casualty", 50),
			testCompany(cfg, "Gamma Direct", 30),
		}
		orch := engine.New(cfg, companies)

		var last []domain.TurnResult
		for turn := 1; turn <= cfg.Simulation.Turns; turn++ {
			results, err := orch.RunTurn(context.Background(), turn, testDecisions(cfg, companies, turn))
			require.NoError(t, err)
			last = results
		}
		return last
	}

	first := run()
	second := run()

	require.Equal(t, len(first), len(second))
	for i := range first {
		assert.Equal(t, first[i].Company, second[i].Company)
		assert.InDelta(t, first[i].EndingCapital, second[i].EndingCapital, 1e-6)
		assert.InDelta(t, first[i].Claims, second[i].Claims, 1e-6)
	}
}

func TestRunTurnCancelledContextAborts(t *testing.T) {
	cfg := testConfig()
	companies := []*domain.Company{testCompany(cfg, "Alpha Mutual", 80)}
	orch := engine.New(cfg, companies)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := orch.RunTurn(ctx, 1, testDecisions(cfg, companies, 1))
	assert.Error(t, err)
}

func TestRunTurnNoDecisionsNoPremium(t *testing.T) {
	cfg := testConfig()
	companies := []*domain.Company{testCompany(cfg, "Alpha Mutual", 80)}
	orch := engine.New(cfg, companies)

	results, err := orch.RunTurn(context.Background(), 1, nil)
	require.NoError(t, err)
	require.Len(t, results, 1)

	r := results[0]
	assert.Zero(t, r.PremiumIncome)
	assert.Zero(t, r.Claims)
	// Fixed overhead still accrues.
	assert.InDelta(t, cfg.Simulation.FixedExpense, r.Expenses, 1e-9)
}

func TestRunTurnHooksReceiveResults(t *testing.T) {
	cfg := testConfig()
	companies := []*domain.Company{
		testCompany(cfg, "Alpha Mutual", 80),
		testCompany(cfg, "Beta Casualty", 50),
	}
	orch := engine.New(cfg, companies)

	var seen []domain.TurnResult
	orch.RegisterHook(engine.ResultHookFunc(func(r domain.TurnResult) {
		seen = append(seen, r)
	}))

	_, err := orch.RunTurn(context.Background(), 1, testDecisions(cfg, companies, 1))
	require.NoError(t, err)
	assert.Len(t, seen, 2)
}

func TestCatastrophesExpireAfterDuration(t *testing.T) {
	cfg := testConfig()
	// A certain one-turn wildfire on turn 1.
	cc := cfg.Catastrophes[domain.CatWildfire]
	cc.Probability = 1.0
	cc.DurationMin = 1
	cc.DurationMax = 1
	cfg.Catastrophes[domain.CatWildfire] = cc

	companies := []*domain.Company{testCompany(cfg, "Alpha Mutual", 80)}
	orch := engine.New(cfg, companies)

	_, err := orch.RunTurn(context.Background(), 1, testDecisions(cfg, companies, 1))
	require.NoError(t, err)
	assert.Len(t, orch.ActiveCatastrophes(), 1)

	// Make follow-up rolls impossible; the turn-1 event must expire.
	cc.Probability = 0
	cfg.Catastrophes[domain.CatWildfire] = cc

	_, err = orch.RunTurn(context.Background(), 2, testDecisions(cfg, companies, 2))
	require.NoError(t, err)
	assert.Empty(t, orch.ActiveCatastrophes())
}

func TestUnderpricingErodesResults(t *testing.T) {
	cfg := testConfig()
	companies := []*domain.Company{
		testCompany(cfg, "Fair Price Co", 70),
		testCompany(cfg, "Cut Rate Co", 70),
	}
	orch := engine.New(cfg, companies)

	var fair, cheap domain.TurnResult
	for turn := 1; turn <= 4; turn++ {
		decisions := []domain.PricingDecision{}
		for _, state := range cfg.States {
			decisions = append(decisions,
				domain.PricingDecision{
					Company: companies[0].ID, Turn: turn, State: state,
					Line: domain.LineAuto, BasePrice: 1200, PriceMultiplier: 1.0,
					Tier: domain.TierStandard,
				},
				domain.PricingDecision{
					Company: companies[1].ID, Turn: turn, State: state,
					Line: domain.LineAuto, BasePrice: 1200, PriceMultiplier: 0.7,
					Tier: domain.TierStandard,
				},
			)
		}
		results, err := orch.RunTurn(context.Background(), turn, decisions)
		require.NoError(t, err)
		fair, cheap = results[0], results[1]
	}

	// The deep discounter buys more volume but a worse book.
	assert.Greater(t, cheap.PremiumIncome, fair.PremiumIncome)
	assert.Greater(t, cheap.LossRatio, fair.LossRatio)
}

// recordingHandler captures slog records for assertions.
type recordingHandler struct {
	mu      sync.Mutex
	records []slog.Record
}

func (h *recordingHandler) Enabled(context.Context, slog.Level) bool { return true }

func (h *recordingHandler) Handle(_ context.Context, r slog.Record) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.records = append(h.records, r.Clone())
	return nil
}

func (h *recordingHandler) WithAttrs([]slog.Attr) slog.Handler { return h }
func (h *recordingHandler) WithGroup(string) slog.Handler      { return h }

func TestCrisisPassesThroughLiquidatingState(t *testing.T) {
	cfg := testConfig()

	distressed := testCompany(cfg, "Thin Capital Co", 60)
	distressed.Capital = 2_000_000
	distressed.RequiredCapital = 40_000_000
	companies := []*domain.Company{distressed}
	orch := engine.New(cfg, companies)

	rec := &recordingHandler{}
	prev := slog.Default()
	slog.SetDefault(slog.New(rec))
	defer slog.SetDefault(prev)

	results, err := orch.RunTurn(context.Background(), 1, testDecisions(cfg, companies, 1))
	require.NoError(t, err)
	require.Len(t, results, 1)

	// The settled result carries a terminal state, never the in-flight one.
	assert.Contains(t,
		[]domain.CrisisState{domain.CrisisResolved, domain.CrisisShortfall},
		results[0].CrisisState)

	sawLiquidating := false
	for _, r := range rec.records {
		if r.Message != "liquidation started" {
			continue
		}
		r.Attrs(func(a slog.Attr) bool {
			if a.Key == "state" && a.Value.String() == string(domain.CrisisLiquidating) {
				sawLiquidating = true
			}
			return true
		})
	}
	assert.True(t, sawLiquidating, "forced sales must execute under the liquidating state")
}
