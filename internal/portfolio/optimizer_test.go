package portfolio_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/veldtworks/underwriters/config"
	"github.com/veldtworks/underwriters/internal/domain"
	"github.com/veldtworks/underwriters/internal/portfolio"
)

// allocationDistance is the uncapped one-way turnover between two postures.
func allocationDistance(opt *portfolio.Optimizer, a, b domain.PortfolioCharacteristics) float64 {
	from, to := opt.Allocate(a), opt.Allocate(b)
	sum := 0.0
	for class := range from {
		d := to[class] - from[class]
		if d < 0 {
			d = -d
		}
		sum += d
	}
	return sum / 2
}

func moderatePosture() domain.PortfolioCharacteristics {
	return domain.PortfolioCharacteristics{
		Risk: 0.4, Duration: 0.5, Liquidity: 0.45, Credit: 0.4, Diversification: 0.6,
	}
}

func TestOptimizeRespectsBounds(t *testing.T) {
	cfg := config.Default()
	opt := portfolio.NewOptimizer(cfg)

	res := opt.Optimize(portfolio.Request{RiskTolerance: 0.5, LiquidityNeed: 0.3})

	assert.LessOrEqual(t, res.Characteristics.Risk, 0.5+1e-9)
	assert.GreaterOrEqual(t, res.Characteristics.Liquidity, 0.3-1e-9)
	assert.LessOrEqual(t, res.Characteristics.Credit, cfg.Portfolio.MaxCredit+1e-9)
	assert.Positive(t, res.Volatility)
	assert.Greater(t, res.ExpectedReturn, cfg.Portfolio.RiskFreeRate)
}

func TestOptimizeInfeasibleBoxFallsBack(t *testing.T) {
	cfg := config.Default()
	opt := portfolio.NewOptimizer(cfg)

	// A min above the max on the risk dimension empties the box.
	res := opt.Optimize(portfolio.Request{
		RiskTolerance: 0.2,
		Constraints: []portfolio.Constraint{
			{Dim: portfolio.DimRisk, Min: 0.9, Max: 1.0},
		},
	})

	assert.True(t, res.Fallback)
	// The fallback still respects the regulatory envelope.
	assert.GreaterOrEqual(t, res.Characteristics.Liquidity, cfg.Portfolio.MinLiquidity-1e-9)
	assert.LessOrEqual(t, res.Characteristics.Risk, cfg.Portfolio.MaxRisk+1e-9)
}

func TestOptimizeFallbackTiers(t *testing.T) {
	cfg := config.Default()
	cfg.Portfolio.MaxIterations = 0 // force non-convergence for every call
	opt := portfolio.NewOptimizer(cfg)

	conservative := opt.Optimize(portfolio.Request{RiskTolerance: 0.2})
	aggressive := opt.Optimize(portfolio.Request{RiskTolerance: 0.8})

	require.True(t, conservative.Fallback)
	require.True(t, aggressive.Fallback)
	assert.Less(t, conservative.Characteristics.Risk, aggressive.Characteristics.Risk)
	assert.Greater(t, conservative.Characteristics.Liquidity, aggressive.Characteristics.Liquidity)
}

func TestAllocateWeightsSumToOne(t *testing.T) {
	opt := portfolio.NewOptimizer(config.Default())

	alloc := opt.Allocate(moderatePosture())

	total := 0.0
	for _, w := range alloc {
		assert.GreaterOrEqual(t, w, 0.0)
		total += w
	}
	assert.InDelta(t, 1.0, total, 1e-9)
	assert.Len(t, alloc, len(domain.LiquidityOrder))
}

func TestAllocateTracksCharacteristics(t *testing.T) {
	opt := portfolio.NewOptimizer(config.Default())

	safe := opt.Allocate(domain.PortfolioCharacteristics{
		Risk: 0.05, Duration: 0.1, Liquidity: 0.95, Credit: 0.05, Diversification: 0.2,
	})
	risky := opt.Allocate(domain.PortfolioCharacteristics{
		Risk: 0.85, Duration: 0.7, Liquidity: 0.1, Credit: 0.5, Diversification: 0.6,
	})

	assert.Greater(t, safe[domain.AssetCash], risky[domain.AssetCash])
	assert.Greater(t, risky[domain.AssetPrivateEquity], safe[domain.AssetPrivateEquity])
}

func TestExpectedReturnIncreasesWithRisk(t *testing.T) {
	opt := portfolio.NewOptimizer(config.Default())

	low := moderatePosture()
	high := low
	high.Risk = 0.8

	assert.Greater(t, opt.ExpectedReturn(high), opt.ExpectedReturn(low))
	assert.Greater(t, opt.Volatility(high), opt.Volatility(low))
}

func TestVolatilityDampedByDiversification(t *testing.T) {
	opt := portfolio.NewOptimizer(config.Default())

	concentrated := moderatePosture()
	concentrated.Diversification = 0.1
	diversified := moderatePosture()
	diversified.Diversification = 0.9

	assert.Less(t, opt.Volatility(diversified), opt.Volatility(concentrated))
}

func TestCapitalChargeWeighted(t *testing.T) {
	cfg := config.Default()
	opt := portfolio.NewOptimizer(cfg)

	allCash := domain.AssetAllocation{domain.AssetCash: 1.0}
	allPE := domain.AssetAllocation{domain.AssetPrivateEquity: 1.0}

	assert.InDelta(t, cfg.AssetClasses[domain.AssetCash].CapitalCharge, opt.CapitalCharge(allCash), 1e-9)
	assert.InDelta(t, cfg.AssetClasses[domain.AssetPrivateEquity].CapitalCharge, opt.CapitalCharge(allPE), 1e-9)
	assert.Greater(t, opt.CapitalCharge(allPE), opt.CapitalCharge(allCash))
}

func TestRebalanceTurnoverCapped(t *testing.T) {
	cfg := config.Default()
	opt := portfolio.NewOptimizer(cfg)

	current := domain.PortfolioCharacteristics{
		Risk: 0.1, Duration: 0.2, Liquidity: 0.9, Credit: 0.1, Diversification: 0.3,
	}
	target := domain.PortfolioCharacteristics{
		Risk: 0.8, Duration: 0.8, Liquidity: 0.15, Credit: 0.7, Diversification: 0.7,
	}

	res := opt.Rebalance(current, target)

	// The cap scales the characteristic step linearly; the allocation map is
	// mildly nonlinear, so allow a modest overshoot.
	assert.LessOrEqual(t, res.Turnover, cfg.Portfolio.MaxTurnover*1.3)
	assert.Less(t, res.Turnover, allocationDistance(opt, current, target))
	assert.InDelta(t, res.Turnover*cfg.Portfolio.TransactionCost, res.TransactionCost, 1e-12)

	// The achieved posture lands strictly between current and target.
	assert.Greater(t, res.Achieved.Risk, current.Risk)
	assert.Less(t, res.Achieved.Risk, target.Risk)
}

func TestRebalanceNoOpWhenAtTarget(t *testing.T) {
	opt := portfolio.NewOptimizer(config.Default())

	posture := moderatePosture()
	res := opt.Rebalance(posture, posture)

	assert.InDelta(t, 0.0, res.Turnover, 1e-9)
	assert.InDelta(t, 0.0, res.TransactionCost, 1e-12)
	assert.InDelta(t, 0.0, res.ReturnImprovement, 1e-12)
}
