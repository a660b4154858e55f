package econ_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/veldtworks/underwriters/config"
	"github.com/veldtworks/underwriters/internal/econ"
)

func TestCycleDeterministicFromSeed(t *testing.T) {
	cfg := config.Default().Econ

	a := econ.NewCycle(cfg, 42)
	b := econ.NewCycle(cfg, 42)

	for turn := 1; turn <= 52; turn++ {
		assert.Equal(t, a.At(turn), b.At(turn))
	}
}

func TestCycleSeedsDiffer(t *testing.T) {
	cfg := config.Default().Econ

	a := econ.NewCycle(cfg, 1)
	b := econ.NewCycle(cfg, 2)

	differ := false
	for turn := 1; turn <= 20; turn++ {
		if a.At(turn).EconomicIndex != b.At(turn).EconomicIndex {
			differ = true
			break
		}
	}
	assert.True(t, differ)
}

func TestCycleStaysInBounds(t *testing.T) {
	cfg := config.Default().Econ
	cycle := econ.NewCycle(cfg, 7)

	for turn := 1; turn <= 520; turn++ {
		cond := cycle.At(turn)

		assert.GreaterOrEqual(t, cond.EconomicIndex, -1.0)
		assert.LessOrEqual(t, cond.EconomicIndex, 1.0)

		assert.GreaterOrEqual(t, cond.DemandMultiplier, 1-cfg.DemandSwing-1e-9)
		assert.LessOrEqual(t, cond.DemandMultiplier, 1+cfg.DemandSwing+1e-9)

		assert.GreaterOrEqual(t, cond.StressLevel, 0.0)
		assert.LessOrEqual(t, cond.StressLevel, 1.0)

		assert.GreaterOrEqual(t, cond.InterestRate, 0.0)
		assert.Equal(t, turn, cond.Turn)
	}
}

func TestCycleIsSmooth(t *testing.T) {
	cfg := config.Default().Econ
	cycle := econ.NewCycle(cfg, 9)

	// Adjacent turns move the index by a small step, never a jump.
	prev := cycle.At(1).EconomicIndex
	for turn := 2; turn <= 200; turn++ {
		cur := cycle.At(turn).EconomicIndex
		assert.Less(t, abs(cur-prev), 0.35, "turn %d jumped", turn)
		prev = cur
	}
}

func abs(v float64) float64 {
	if v < 0 {
		return -v
	}
	return v
}
