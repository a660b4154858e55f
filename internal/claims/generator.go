// Package claims generates stochastic claim counts and severities per
// exposure pool, including the catastrophe regime and the adverse-selection
// price response. All sampling draws from an explicitly threaded random
// source, so results are reproducible per (turn, company, line) unit of work
// even under parallel execution.
package claims

import (
	"math"

	"golang.org/x/exp/rand"
	"gonum.org/v1/gonum/stat/distuv"

	"github.com/veldtworks/underwriters/config"
	"github.com/veldtworks/underwriters/internal/domain"
)

// Input is one claims-generation request: a company's exposure in one
// state × line pool for one turn.
type Input struct {
	Exposure          float64
	State             string
	Line              domain.LineOfBusiness
	Tier              domain.Tier
	SelectionModifier float64 // From SelectionModifier; 1.0 if unset
	Turn              int
	Catastrophe       *domain.CatastropheEvent // Optional active event
}

// Summary is the generated claim batch with its statistics.
type Summary struct {
	Count      int       `json:"count"`
	Total      float64   `json:"total"`
	Average    float64   `json:"average"`
	Severities []float64 `json:"severities"`
}

// Generator produces claim batches. No parameter set errors: unknown lines
// and tiers fall back to config defaults, non-positive exposure yields an
// empty batch.
type Generator struct {
	cfg *config.Config
}

// NewGenerator creates a claims generator over a validated config.
func NewGenerator(cfg *config.Config) *Generator {
	return &Generator{cfg: cfg}
}

// Generate samples a claim batch for one exposure pool.
func (g *Generator) Generate(in Input, rng *rand.Rand) Summary {
	if in.Exposure <= 0 {
		return Summary{}
	}

	lc := g.cfg.Line(in.Line)
	tc := g.cfg.Tier(in.Tier)

	selection := in.SelectionModifier
	if selection <= 0 {
		selection = 1.0
	}

	lambda := in.Exposure * lc.BaseClaimRate * tc.RiskSelection * selection
	sevScale := tc.SeverityModifier * (1 + g.cfg.Claims.InflationPerTurn*float64(in.Turn))

	// Catastrophe regime: boost frequency and severity for exposure inside
	// the affected-region set, decayed away from the epicenter.
	if ev := in.Catastrophe; ev != nil && ev.ActiveAt(in.Turn) && ev.Affects(in.State, in.Line) {
		proximity := 1.0
		if !ev.IsEpicenter(in.State) {
			// Neighboring states take a randomly decayed hit.
			proximity = 0.3 + 0.4*rng.Float64()
		}
		lambda *= 1 + (g.cfg.Claims.CatFrequencyMult-1)*proximity
		sevScale *= 1 + (g.cfg.Claims.CatSeverityMult*ev.Severity-1)*proximity
	}

	count := g.sampleCount(lambda, lc, rng)
	if count <= 0 {
		return Summary{}
	}

	severities := make([]float64, count)
	total := 0.0
	for i := 0; i < count; i++ {
		severities[i] = g.sampleSeverity(lc, sevScale, rng)
		total += severities[i]
	}

	return Summary{
		Count:      count,
		Total:      total,
		Average:    total / float64(count),
		Severities: severities,
	}
}

// sampleCount draws the claim count: Poisson by default, Gamma–Poisson
// mixture (negative binomial) for overdispersed lines.
func (g *Generator) sampleCount(lambda float64, lc config.LineConfig, rng *rand.Rand) int {
	if lambda <= 0 {
		return 0
	}

	if lc.Dispersion > 0 {
		// NB(mean m, dispersion d) as Poisson with Gamma-mixed rate:
		// shape 1/d, rate 1/(d·m) gives mean m and variance m + d·m².
		gamma := distuv.Gamma{
			Alpha: 1 / lc.Dispersion,
			Beta:  1 / (lc.Dispersion * lambda),
			Src:   rng,
		}
		lambda = gamma.Rand()
		if lambda <= 0 {
			return 0
		}
	}

	poisson := distuv.Poisson{Lambda: lambda, Src: rng}
	return int(poisson.Rand())
}

// sampleSeverity draws one claim amount: log-normal by default, Pareto for
// heavy-tail lines. The configured minimum claim is a hard floor.
func (g *Generator) sampleSeverity(lc config.LineConfig, scale float64, rng *rand.Rand) float64 {
	var amount float64
	if lc.HeavyTail {
		// Scale parameter chosen so the unadjusted mean is exp(severity_mean).
		xm := math.Exp(lc.SeverityMean) * (lc.ParetoAlpha - 1) / lc.ParetoAlpha * scale
		pareto := distuv.Pareto{Xm: xm, Alpha: lc.ParetoAlpha, Src: rng}
		amount = pareto.Rand()
	} else {
		lognorm := distuv.LogNormal{
			Mu:    lc.SeverityMean + math.Log(scale),
			Sigma: lc.SeveritySigma,
			Src:   rng,
		}
		amount = lognorm.Rand()
	}

	if amount < g.cfg.Claims.MinClaim {
		amount = g.cfg.Claims.MinClaim
	}
	return amount
}
