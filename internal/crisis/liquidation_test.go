package crisis_test

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/exp/rand"

	"github.com/veldtworks/underwriters/config"
	"github.com/veldtworks/underwriters/internal/crisis"
	"github.com/veldtworks/underwriters/internal/domain"
)

func balancedAllocation() domain.AssetAllocation {
	return domain.AssetAllocation{
		domain.AssetCash:          0.10,
		domain.AssetGovtBonds:     0.25,
		domain.AssetCorpBonds:     0.20,
		domain.AssetPublicEquity:  0.25,
		domain.AssetRealEstate:    0.10,
		domain.AssetHedgeFunds:    0.05,
		domain.AssetPrivateEquity: 0.05,
	}
}

func liquidationRequest(need, skill float64) crisis.Request {
	return crisis.Request{
		Company:        uuid.New(),
		Turn:           5,
		Allocation:     balancedAllocation(),
		PortfolioValue: 40_000_000,
		Need:           need,
		Skill:          skill,
		TimePressure:   1.2,
		MarketStress:   0.2,
	}
}

func TestExecuteZeroNeedResolvesImmediately(t *testing.T) {
	l := crisis.NewLiquidator(config.Default())

	plan := l.Execute(liquidationRequest(0, 80), rand.New(rand.NewSource(1)))

	assert.Equal(t, domain.CrisisResolved, plan.FinalState)
	assert.Empty(t, plan.Sales)
	assert.Zero(t, plan.Raised)
}

func TestExecuteSkilledActorCoversNeedExactly(t *testing.T) {
	l := crisis.NewLiquidator(config.Default())

	// Skill 60: ordered-enough sales with minimum-needed sizing grossed up
	// for the haircut, so net proceeds land on the need with no shortfall.
	plan := l.Execute(liquidationRequest(5_000_000, 60), rand.New(rand.NewSource(2)))

	require.Equal(t, domain.CrisisResolved, plan.FinalState)
	assert.Zero(t, plan.Shortfall)
	assert.GreaterOrEqual(t, plan.Raised, plan.Need)
	assert.InDelta(t, plan.Need, plan.Raised, plan.Need*0.05)
}

func TestExecuteHighSkillFollowsLiquidityOrder(t *testing.T) {
	l := crisis.NewLiquidator(config.Default())

	plan := l.Execute(liquidationRequest(10_000_000, 85), rand.New(rand.NewSource(3)))
	require.NotEmpty(t, plan.Sales)

	// Sales walk the canonical order: each sold class appears no earlier
	// than the previous one in the liquidity ranking.
	rank := make(map[domain.AssetClass]int, len(domain.LiquidityOrder))
	for i, class := range domain.LiquidityOrder {
		rank[class] = i
	}
	prev := -1
	for _, sale := range plan.Sales {
		assert.Greater(t, rank[sale.Asset], prev)
		prev = rank[sale.Asset]
	}
	assert.Equal(t, domain.AssetCash, plan.Sales[0].Asset)
}

func TestExecuteLowSkillDumpsWholePositions(t *testing.T) {
	l := crisis.NewLiquidator(config.Default())

	req := liquidationRequest(5_000_000, 30)
	plan := l.Execute(req, rand.New(rand.NewSource(4)))

	require.NotEmpty(t, plan.Sales)
	for _, sale := range plan.Sales {
		position := req.Allocation[sale.Asset] * req.PortfolioValue
		assert.InDelta(t, position, sale.Amount, 1e-6, "low skill sells entire positions")
		assert.True(t, sale.WholeSale)
	}
	// Whole-position dumping overshoots the need.
	assert.Greater(t, plan.Raised, plan.Need)
}

func TestExecuteShortfallWhenPortfolioTooSmall(t *testing.T) {
	l := crisis.NewLiquidator(config.Default())

	req := liquidationRequest(100_000_000, 90) // more than the whole portfolio
	plan := l.Execute(req, rand.New(rand.NewSource(5)))

	assert.Equal(t, domain.CrisisShortfall, plan.FinalState)
	assert.Positive(t, plan.Shortfall)
	assert.InDelta(t, plan.Need-plan.Raised, plan.Shortfall, 1e-6)
}

func TestExecuteImpactCostIsDiscountLoss(t *testing.T) {
	l := crisis.NewLiquidator(config.Default())

	plan := l.Execute(liquidationRequest(8_000_000, 70), rand.New(rand.NewSource(6)))

	gross, net := 0.0, 0.0
	for _, sale := range plan.Sales {
		gross += sale.Amount
		net += sale.Proceeds
	}
	assert.InDelta(t, gross-net, plan.ImpactCost, 1e-6)
	assert.InDelta(t, net, plan.Raised, 1e-6)
}

func TestDiscountMonotonicInPressureAndStress(t *testing.T) {
	l := crisis.NewLiquidator(config.Default())
	amount := 5_000_000.0

	calm := l.Discount(domain.AssetCorpBonds, amount, 1.0, 0.0, 60)
	rushed := l.Discount(domain.AssetCorpBonds, amount, 2.0, 0.0, 60)
	stressed := l.Discount(domain.AssetCorpBonds, amount, 1.0, 0.8, 60)

	assert.Greater(t, rushed, calm)
	assert.Greater(t, stressed, calm)
}

func TestDiscountDecreasesWithSkill(t *testing.T) {
	l := crisis.NewLiquidator(config.Default())
	amount := 5_000_000.0

	novice := l.Discount(domain.AssetRealEstate, amount, 1.5, 0.3, 10)
	expert := l.Discount(domain.AssetRealEstate, amount, 1.5, 0.3, 90)

	assert.Greater(t, novice, expert)
}

func TestDiscountCappedAtMaximum(t *testing.T) {
	cfg := config.Default()
	l := crisis.NewLiquidator(cfg)

	// Illiquid class, huge sale, maximum pressure and stress, no skill.
	worst := l.Discount(domain.AssetPrivateEquity, 500_000_000, 2.0, 1.0, 0)
	assert.InDelta(t, cfg.Crisis.MaxDiscount, worst, 1e-12)

	best := l.Discount(domain.AssetCash, 1000, 1.0, 0.0, 100)
	assert.GreaterOrEqual(t, best, 0.0)
	assert.Less(t, best, 0.02)
}

func TestDiscountGrowsWithSaleSize(t *testing.T) {
	l := crisis.NewLiquidator(config.Default())

	small := l.Discount(domain.AssetCorpBonds, 1_000_000, 1.2, 0.2, 60)
	large := l.Discount(domain.AssetCorpBonds, 60_000_000, 1.2, 0.2, 60)

	assert.Greater(t, large, small)
}
