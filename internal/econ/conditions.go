// Package econ produces the economy-wide market conditions for each turn:
// a smooth stochastic cycle for demand appetite, equity returns, interest
// rates, and market stress. Conditions are deterministic from the seed and
// immutable once generated for a turn.
package econ

import (
	"math"

	opensimplex "github.com/ojrac/opensimplex-go"

	"github.com/veldtworks/underwriters/config"
	"github.com/veldtworks/underwriters/internal/domain"
)

// Channel offsets keep the noise channels decorrelated while sharing one
// seeded noise field.
const (
	channelDemand = 0.0
	channelEquity = 37.0
	channelRates  = 74.0
	channelStress = 111.0
)

// Cycle generates market conditions along the turn axis.
type Cycle struct {
	cfg   config.EconConfig
	noise opensimplex.Noise
}

// NewCycle creates a market-condition cycle from a seed.
func NewCycle(cfg config.EconConfig, seed int64) *Cycle {
	return &Cycle{
		cfg:   cfg,
		noise: opensimplex.NewNormalized(seed),
	}
}

// At returns the market conditions for a turn.
func (c *Cycle) At(turn int) domain.MarketConditions {
	x := float64(turn) * c.cfg.CycleScale

	// Normalized noise is in [0,1]; recenter to [-1,1].
	idx := 2*c.noise.Eval2(x, channelDemand) - 1
	equityNoise := 2*c.noise.Eval2(x, channelEquity) - 1
	rateNoise := 2*c.noise.Eval2(x, channelRates) - 1
	stressNoise := c.noise.Eval2(x, channelStress)

	// Stress rises when the economic index is depressed and the stress
	// channel runs hot.
	stress := 0.5*stressNoise + 0.5*math.Max(0, -idx)
	if stress > 1 {
		stress = 1
	}

	return domain.MarketConditions{
		Turn:             turn,
		EconomicIndex:    idx,
		DemandMultiplier: 1 + c.cfg.DemandSwing*idx,
		EquityReturn:     c.cfg.EquityBaseReturn + c.cfg.EquitySwing*equityNoise,
		InterestRate:     math.Max(0, c.cfg.BaseInterestRate+c.cfg.RateSwing*rateNoise),
		StressLevel:      stress,
	}
}
