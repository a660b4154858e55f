// Package portfolio maps target investment characteristics to feasible
// postures and concrete asset allocations, and models how CFO skill distorts
// what a company believes about its own portfolio. The optimizer works in
// characteristic space (five bounded dimensions), so no per-asset simulation
// is needed at this level.
package portfolio

import (
	"math"

	"github.com/veldtworks/underwriters/config"
	"github.com/veldtworks/underwriters/internal/domain"
)

// Dim indexes a characteristic dimension in canonical vector order.
type Dim int

const (
	DimRisk Dim = iota
	DimDuration
	DimLiquidity
	DimCredit
	DimDiversification
	numDims
)

// Return and volatility coefficients of the closed-form characteristic
// model. Risk carries the equity premium; duration and credit carry term and
// spread premia; liquidity costs a little carry; diversification damps
// volatility.
const (
	retRisk     = 0.060
	retDuration = 0.015
	retCredit   = 0.025
	retLiqDrag  = 0.010
	retDiv      = 0.005

	volBase     = 0.01
	volRisk     = 0.16
	volDuration = 0.06
	volCredit   = 0.08
	volDivDamp  = 0.35
)

// Constraint bounds one characteristic dimension beyond the regulatory
// defaults.
type Constraint struct {
	Dim Dim
	Min float64
	Max float64
}

// Request describes one optimization call.
type Request struct {
	RiskTolerance float64 // [0, 1] ceiling on the risk dimension
	LiquidityNeed float64 // [0, 1] floor on the liquidity dimension
	TargetReturn  float64 // Optional; 0 disables the return penalty
	Constraints   []Constraint
}

// Result is a feasible posture with its derived quantities.
type Result struct {
	Characteristics domain.PortfolioCharacteristics `json:"characteristics"`
	Allocation      domain.AssetAllocation          `json:"allocation"`
	ExpectedReturn  float64                         `json:"expected_return"`
	Volatility      float64                         `json:"volatility"`
	Sharpe          float64                         `json:"sharpe"`
	CapitalCharge   float64                         `json:"capital_charge"`
	Fallback        bool                            `json:"fallback"` // Heuristic allocation used
}

// Optimizer computes characteristic postures under regulatory and caller
// constraints.
type Optimizer struct {
	cfg *config.Config
}

// NewOptimizer creates an optimizer over a validated config.
func NewOptimizer(cfg *config.Config) *Optimizer {
	return &Optimizer{cfg: cfg}
}

// ExpectedReturn evaluates the closed-form return of a posture.
func (o *Optimizer) ExpectedReturn(c domain.PortfolioCharacteristics) float64 {
	return o.cfg.Portfolio.RiskFreeRate +
		retRisk*c.Risk +
		retDuration*c.Duration +
		retCredit*c.Credit -
		retLiqDrag*c.Liquidity +
		retDiv*c.Diversification
}

// Volatility evaluates the closed-form volatility of a posture.
func (o *Optimizer) Volatility(c domain.PortfolioCharacteristics) float64 {
	quad := volBase*volBase +
		volRisk*volRisk*c.Risk*c.Risk +
		volDuration*volDuration*c.Duration*c.Duration +
		volCredit*volCredit*c.Credit*c.Credit
	return math.Sqrt(quad) * (1 - volDivDamp*c.Diversification)
}

// objective is the Sharpe-like score being maximized, with a soft penalty
// when a target return is requested and missed.
func (o *Optimizer) objective(v []float64, targetReturn float64) float64 {
	c := domain.FromVector(v)
	ret := o.ExpectedReturn(c)
	vol := o.Volatility(c)
	if vol < 1e-9 {
		vol = 1e-9
	}
	score := (ret - o.cfg.Portfolio.RiskFreeRate) / vol
	if targetReturn > 0 && ret < targetReturn {
		miss := targetReturn - ret
		score -= 50 * miss * miss
	}
	return score
}

// bounds merges regulatory limits, the request's tolerance and need, and any
// caller constraints into per-dimension [lo, hi] boxes. Returns ok=false
// when a box is empty, which routes the call to the heuristic fallback.
func (o *Optimizer) bounds(req Request) (lo, hi []float64, ok bool) {
	p := o.cfg.Portfolio
	lo = make([]float64, numDims)
	hi = []float64{1, 1, 1, 1, 1}

	hi[DimRisk] = math.Min(p.MaxRisk, math.Max(0, req.RiskTolerance))
	lo[DimLiquidity] = math.Max(p.MinLiquidity, math.Min(1, req.LiquidityNeed))
	hi[DimCredit] = p.MaxCredit

	for _, c := range req.Constraints {
		if c.Dim < 0 || c.Dim >= numDims {
			continue
		}
		if c.Min > lo[c.Dim] {
			lo[c.Dim] = c.Min
		}
		if c.Max > 0 && c.Max < hi[c.Dim] {
			hi[c.Dim] = c.Max
		}
	}

	for d := 0; d < int(numDims); d++ {
		if lo[d] > hi[d] {
			return nil, nil, false
		}
	}
	return lo, hi, true
}

// Optimize maximizes the Sharpe-like objective by projected gradient ascent
// over the characteristic box. Non-convergence is not an error: the
// documented heuristic posture for the risk-tolerance tier is returned
// instead, flagged via Result.Fallback.
func (o *Optimizer) Optimize(req Request) Result {
	lo, hi, ok := o.bounds(req)
	if !ok {
		return o.fallback(req)
	}

	p := o.cfg.Portfolio

	// Start from the box midpoint.
	v := make([]float64, numDims)
	for d := range v {
		v[d] = (lo[d] + hi[d]) / 2
	}

	const h = 1e-5
	prev := o.objective(v, req.TargetReturn)
	converged := false

	for iter := 0; iter < p.MaxIterations; iter++ {
		// Central-difference gradient.
		grad := make([]float64, numDims)
		for d := range v {
			orig := v[d]
			v[d] = orig + h
			up := o.objective(v, req.TargetReturn)
			v[d] = orig - h
			down := o.objective(v, req.TargetReturn)
			v[d] = orig
			grad[d] = (up - down) / (2 * h)
		}

		for d := range v {
			v[d] += p.StepSize * grad[d]
			if v[d] < lo[d] {
				v[d] = lo[d]
			}
			if v[d] > hi[d] {
				v[d] = hi[d]
			}
		}

		cur := o.objective(v, req.TargetReturn)
		if math.Abs(cur-prev) < p.Tolerance {
			converged = true
			break
		}
		prev = cur
	}

	if !converged {
		return o.fallback(req)
	}

	chars := domain.FromVector(v).Clamp()
	return o.finish(chars, false)
}

// fallback returns the documented heuristic posture for the request's
// risk-tolerance tier, clipped into regulatory bounds.
func (o *Optimizer) fallback(req Request) Result {
	var chars domain.PortfolioCharacteristics
	switch {
	case req.RiskTolerance < 0.35: // conservative
		chars = domain.PortfolioCharacteristics{Risk: 0.15, Duration: 0.4, Liquidity: 0.7, Credit: 0.2, Diversification: 0.5}
	case req.RiskTolerance < 0.65: // moderate
		chars = domain.PortfolioCharacteristics{Risk: 0.4, Duration: 0.5, Liquidity: 0.45, Credit: 0.4, Diversification: 0.6}
	default: // aggressive
		chars = domain.PortfolioCharacteristics{Risk: 0.65, Duration: 0.55, Liquidity: 0.3, Credit: 0.55, Diversification: 0.65}
	}

	p := o.cfg.Portfolio
	if chars.Risk > p.MaxRisk {
		chars.Risk = p.MaxRisk
	}
	if chars.Risk > req.RiskTolerance {
		chars.Risk = req.RiskTolerance
	}
	if chars.Liquidity < p.MinLiquidity {
		chars.Liquidity = p.MinLiquidity
	}
	if chars.Liquidity < req.LiquidityNeed {
		chars.Liquidity = req.LiquidityNeed
	}
	if chars.Credit > p.MaxCredit {
		chars.Credit = p.MaxCredit
	}

	return o.finish(chars.Clamp(), true)
}

func (o *Optimizer) finish(chars domain.PortfolioCharacteristics, fallback bool) Result {
	alloc := o.Allocate(chars)
	ret := o.ExpectedReturn(chars)
	vol := o.Volatility(chars)
	sharpe := 0.0
	if vol > 0 {
		sharpe = (ret - o.cfg.Portfolio.RiskFreeRate) / vol
	}
	return Result{
		Characteristics: chars,
		Allocation:      alloc,
		ExpectedReturn:  ret,
		Volatility:      vol,
		Sharpe:          sharpe,
		CapitalCharge:   o.CapitalCharge(alloc),
		Fallback:        fallback,
	}
}

// Allocate converts a characteristic posture into asset-class weights via
// similarity weighting against each class's characteristic vector. Weights
// are non-negative and sum to 1.
func (o *Optimizer) Allocate(chars domain.PortfolioCharacteristics) domain.AssetAllocation {
	const temperature = 0.12

	target := chars.Vector()
	alloc := make(domain.AssetAllocation, len(o.cfg.AssetClasses))
	for _, class := range domain.LiquidityOrder {
		cv := o.cfg.AssetClasses[class].Characteristics.Vector()
		dist := 0.0
		for i := range target {
			d := target[i] - cv[i]
			dist += d * d
		}
		alloc[class] = math.Exp(-dist / temperature)
	}
	return alloc.Normalize()
}

// CapitalCharge returns the regulatory capital charge per portfolio dollar.
func (o *Optimizer) CapitalCharge(alloc domain.AssetAllocation) float64 {
	charge := 0.0
	for class, w := range alloc {
		charge += w * o.cfg.AssetClasses[class].CapitalCharge
	}
	return charge
}

// AllocationReturn returns the annualized expected return of an allocation
// from the per-class assumptions.
func (o *Optimizer) AllocationReturn(alloc domain.AssetAllocation) float64 {
	ret := 0.0
	for class, w := range alloc {
		ret += w * o.cfg.AssetClasses[class].ExpectedReturn
	}
	return ret
}
