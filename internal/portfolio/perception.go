// Skill-driven perception: a company never sees its true portfolio
// characteristics, only a noisy, slightly biased view whose accuracy
// improves with CFO skill. Skill shapes information and decision quality,
// never the true market return.
package portfolio

import (
	"math"

	"golang.org/x/exp/rand"
	"gonum.org/v1/gonum/stat/distuv"

	"github.com/veldtworks/underwriters/config"
	"github.com/veldtworks/underwriters/internal/domain"
)

// Perception is a company's distorted view of its portfolio.
type Perception struct {
	Perceived   domain.PortfolioCharacteristics `json:"perceived"`
	NoiseLevel  float64                         `json:"noise_level"`
	InfoQuality float64                         `json:"info_quality"` // 1 − mean absolute error
}

// Perceiver produces skill-dependent perceptions.
type Perceiver struct {
	cfg config.PerceptionConfig
}

// NewPerceiver creates a perceiver from perception config.
func NewPerceiver(cfg config.PerceptionConfig) *Perceiver {
	return &Perceiver{cfg: cfg}
}

// NoiseLevel returns the perception noise standard deviation for a skill
// score. It decays exponentially from base_noise at skill 0 to exactly
// noise_floor at skill 100, strictly decreasing in between and never zero.
func (p *Perceiver) NoiseLevel(skill float64) float64 {
	s := clampSkill(skill) / 100
	lambda := p.cfg.DecayRate
	// Rescaled exponential so the endpoints land exactly on base and floor.
	frac := (math.Exp(-lambda*s) - math.Exp(-lambda)) / (1 - math.Exp(-lambda))
	return p.cfg.NoiseFloor + (p.cfg.BaseNoise-p.cfg.NoiseFloor)*frac
}

// Perceive builds the perceived characteristics for a company: Gaussian
// noise at the skill's noise level plus a small systematic bias (optimism on
// risk, overestimation of liquidity) that also shrinks with skill. The true
// values are never modified.
func (p *Perceiver) Perceive(truth domain.PortfolioCharacteristics, skill float64, rng *rand.Rand) Perception {
	sigma := p.NoiseLevel(skill)
	biasScale := 1 - clampSkill(skill)/100

	noise := distuv.Normal{Mu: 0, Sigma: sigma, Src: rng}

	perceived := domain.PortfolioCharacteristics{
		Risk:            truth.Risk - p.cfg.RiskOptimism*biasScale + noise.Rand(),
		Duration:        truth.Duration + noise.Rand(),
		Liquidity:       truth.Liquidity + p.cfg.LiquidityOverestimate*biasScale + noise.Rand(),
		Credit:          truth.Credit + noise.Rand(),
		Diversification: truth.Diversification + noise.Rand(),
	}.Clamp()

	return Perception{
		Perceived:   perceived,
		NoiseLevel:  sigma,
		InfoQuality: 1 - perceived.MeanAbsDiff(truth),
	}
}

// DistortTarget shifts a decision target by the company's perception error,
// so low-skill actors steer toward postures that look right to them but are
// off in truth. High skill means a small error and a near-untouched target.
func DistortTarget(target, perceived, truth domain.PortfolioCharacteristics) domain.PortfolioCharacteristics {
	return domain.PortfolioCharacteristics{
		Risk:            target.Risk + (perceived.Risk - truth.Risk),
		Duration:        target.Duration + (perceived.Duration - truth.Duration),
		Liquidity:       target.Liquidity + (perceived.Liquidity - truth.Liquidity),
		Credit:          target.Credit + (perceived.Credit - truth.Credit),
		Diversification: target.Diversification + (perceived.Diversification - truth.Diversification),
	}.Clamp()
}

func clampSkill(skill float64) float64 {
	if skill < 0 {
		return 0
	}
	if skill > 100 {
		return 100
	}
	return skill
}
