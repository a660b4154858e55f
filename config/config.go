// Package config defines the typed simulation configuration. Everything the
// engines consume (line parameters, tier effects, asset classes, catastrophe
// perils, crisis thresholds) is declared here, loaded once, and validated
// once at startup. No engine reads ad-hoc maps or environment state at
// simulation time.
package config

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/veldtworks/underwriters/internal/domain"
)

// Config is the complete simulation configuration.
type Config struct {
	Simulation   SimulationConfig                       `yaml:"simulation"`
	Log          LogConfig                              `yaml:"log"`
	Demand       DemandConfig                           `yaml:"demand"`
	Claims       ClaimsConfig                           `yaml:"claims"`
	Portfolio    PortfolioConfig                        `yaml:"portfolio"`
	Perception   PerceptionConfig                       `yaml:"perception"`
	Crisis       CrisisConfig                           `yaml:"crisis"`
	Econ         EconConfig                             `yaml:"econ"`
	Lines        map[domain.LineOfBusiness]LineConfig   `yaml:"lines"`
	Tiers        map[domain.Tier]TierConfig             `yaml:"tiers"`
	AssetClasses map[domain.AssetClass]AssetClassConfig `yaml:"asset_classes"`
	Catastrophes map[domain.CatastropheType]CatConfig   `yaml:"catastrophes"`
	States       []string                               `yaml:"states"`
	Adjacency    map[string][]string                    `yaml:"adjacency"`
	Companies    []CompanyConfig                        `yaml:"companies"`
}

// SimulationConfig controls the overall run.
type SimulationConfig struct {
	Seed              int64   `yaml:"seed"`
	Turns             int     `yaml:"turns"`
	DSN               string  `yaml:"dsn"` // SQLite path, or ":memory:"
	StartingCapital   float64 `yaml:"starting_capital"`
	RequiredCapital   float64 `yaml:"required_capital"`
	FixedExpense      float64 `yaml:"fixed_expense"`      // Per-company overhead per turn
	ExposurePerPolicy float64 `yaml:"exposure_per_policy"` // Exposure units per policy
}

// LogConfig controls log output.
type LogConfig struct {
	Level  string `yaml:"level"`  // debug | info | warn | error
	Format string `yaml:"format"` // text | json
}

// DemandConfig parameterizes the market-share engine.
type DemandConfig struct {
	QualityCoefficient   float64 `yaml:"quality_coefficient"`
	CrossElasticity      float64 `yaml:"cross_elasticity"` // Dampening of cross-competitor utility
	PriceFloor           float64 `yaml:"price_floor"`      // Guard before ln(price)
	LoyaltyWeight        float64 `yaml:"loyalty_weight"`   // Blend with prior-turn shares
	EntrantPenalty       float64 `yaml:"entrant_penalty"`  // Share fraction withheld from entrants
	EntrantWindowTurns   int     `yaml:"entrant_window_turns"`
	EquilibriumTolerance float64 `yaml:"equilibrium_tolerance"`
	EquilibriumMaxRounds int     `yaml:"equilibrium_max_rounds"`
}

// ClaimsConfig parameterizes the claims generator.
type ClaimsConfig struct {
	MinClaim            float64 `yaml:"min_claim"` // Hard severity floor
	InflationPerTurn    float64 `yaml:"inflation_per_turn"`
	CatFrequencyMult    float64 `yaml:"cat_frequency_mult"` // ~5× during a catastrophe
	CatSeverityMult     float64 `yaml:"cat_severity_mult"`  // ~2× at the epicenter
	UnderpricingAmp     float64 `yaml:"underpricing_amp"`   // Adverse-selection amplification
	OverpricingRelief   float64 `yaml:"overpricing_relief"` // Weaker inverse response
	SelectionClampLow   float64 `yaml:"selection_clamp_low"`
	SelectionClampHigh  float64 `yaml:"selection_clamp_high"`
}

// LineConfig holds per-line actuarial and demand parameters.
type LineConfig struct {
	SegmentDemand        float64 `yaml:"segment_demand"`  // Premium pool per state segment
	BaseClaimRate        float64 `yaml:"base_claim_rate"` // Claims per exposure unit per turn
	SeverityMean         float64 `yaml:"severity_mean"`   // LogNormal μ (log-dollars)
	SeveritySigma        float64 `yaml:"severity_sigma"`  // LogNormal σ
	HeavyTail            bool    `yaml:"heavy_tail"`      // Pareto severity instead of LogNormal
	ParetoAlpha          float64 `yaml:"pareto_alpha"`
	Dispersion           float64 `yaml:"dispersion"` // >0 switches frequency to negative binomial
	Elasticity           float64 `yaml:"elasticity"` // Own-price elasticity, negative
	SelectionSensitivity float64 `yaml:"selection_sensitivity"`
	ExpenseRatio         float64 `yaml:"expense_ratio"`
}

// TierConfig holds per-tier market and risk effects.
type TierConfig struct {
	QualityPerception float64 `yaml:"quality_perception"` // Demand-side appeal, ~1.0
	RiskSelection     float64 `yaml:"risk_selection"`     // Frequency multiplier, <1 = better pool
	SeverityModifier  float64 `yaml:"severity_modifier"`
	Segmentation      float64 `yaml:"segmentation"` // Adverse-selection dampening, <=1
}

// AssetClassConfig describes one investable asset class.
type AssetClassConfig struct {
	Characteristics domain.PortfolioCharacteristics `yaml:"characteristics"`
	ExpectedReturn  float64                         `yaml:"expected_return"` // Annualized
	Volatility      float64                         `yaml:"volatility"`      // Annualized
	Illiquidity     float64                         `yaml:"illiquidity"`     // [0, 1] haircut base
	MarketDepth     float64                         `yaml:"market_depth"`    // Dollars absorbable without impact acceleration
	CapitalCharge   float64                         `yaml:"capital_charge"`  // Regulatory charge per dollar
}

// PortfolioConfig parameterizes the characteristic optimizer.
type PortfolioConfig struct {
	RiskFreeRate    float64 `yaml:"risk_free_rate"`
	MaxRisk         float64 `yaml:"max_risk"`      // Regulatory ceiling
	MinLiquidity    float64 `yaml:"min_liquidity"` // Regulatory floor
	MaxCredit       float64 `yaml:"max_credit"`
	MaxIterations   int     `yaml:"max_iterations"`
	Tolerance       float64 `yaml:"tolerance"`
	StepSize        float64 `yaml:"step_size"`
	TransactionCost float64 `yaml:"transaction_cost"` // Per unit turnover
	MaxTurnover     float64 `yaml:"max_turnover"`     // Per rebalance
}

// PerceptionConfig parameterizes the skill-perception model.
type PerceptionConfig struct {
	BaseNoise             float64 `yaml:"base_noise"`  // σ at skill 0
	NoiseFloor            float64 `yaml:"noise_floor"` // σ at skill 100, never zero
	DecayRate             float64 `yaml:"decay_rate"`  // Exponential shape
	RiskOptimism          float64 `yaml:"risk_optimism"`
	LiquidityOverestimate float64 `yaml:"liquidity_overestimate"`
}

// CrisisConfig parameterizes detection, liquidation, and contagion.
type CrisisConfig struct {
	MinSolvencyRatio      float64 `yaml:"min_solvency_ratio"`
	CatLossCapitalPct     float64 `yaml:"cat_loss_capital_pct"` // Single-event loss trigger
	MarketDeclinePct      float64 `yaml:"market_decline_pct"`
	LiquidityCoverage     float64 `yaml:"liquidity_coverage"` // Coverage-ratio multiple
	CombinedRatioCeiling  float64 `yaml:"combined_ratio_ceiling"`
	MaxLossTurns          int     `yaml:"max_loss_turns"`
	CompoundingFactor     float64 `yaml:"compounding_factor"` // Multi-trigger severity growth
	MaxDiscount           float64 `yaml:"max_discount"`
	SkillDiscountCut      float64 `yaml:"skill_discount_cut"` // Max fractional discount reduction
	ImpactCoefficient     float64 `yaml:"impact_coefficient"` // Square-root impact scale
	ContagionThreshold    float64 `yaml:"contagion_threshold"`
	ContagionMultiplier   float64 `yaml:"contagion_multiplier"`
	CascadeMaxRounds      int     `yaml:"cascade_max_rounds"`
	CascadeMarginFraction float64 `yaml:"cascade_margin_fraction"`
}

// EconConfig parameterizes the market-condition cycle.
type EconConfig struct {
	CycleScale       float64 `yaml:"cycle_scale"`       // Noise frequency along the turn axis
	DemandSwing      float64 `yaml:"demand_swing"`      // Demand multiplier amplitude
	EquityBaseReturn float64 `yaml:"equity_base_return"` // Per-turn baseline
	EquitySwing      float64 `yaml:"equity_swing"`
	BaseInterestRate float64 `yaml:"base_interest_rate"`
	RateSwing        float64 `yaml:"rate_swing"`
}

// CatConfig describes one catastrophe peril.
type CatConfig struct {
	Probability       float64                 `yaml:"probability"` // Per turn
	SeverityMin       float64                 `yaml:"severity_min"`
	SeverityMax       float64                 `yaml:"severity_max"`
	AffectedLines     []domain.LineOfBusiness `yaml:"affected_lines"`
	EpicenterStates   []string                `yaml:"epicenter_states"` // Candidate epicenters
	EpicenterCount    int                     `yaml:"epicenter_count"`
	CorrelationRadius int                     `yaml:"correlation_radius"` // Adjacency hops
	DurationMin       int                     `yaml:"duration_min"`
	DurationMax       int                     `yaml:"duration_max"`
}

// CompanyConfig seeds one simulated company.
type CompanyConfig struct {
	Name            string      `yaml:"name"`
	Capital         float64     `yaml:"capital"`
	CFOSkill        float64     `yaml:"cfo_skill"`
	Tier            domain.Tier `yaml:"tier"`
	PriceMultiplier float64     `yaml:"price_multiplier"`
	RiskTolerance   float64     `yaml:"risk_tolerance"`
}

// Load reads configuration from a YAML file layered over defaults, applying
// .env overrides if present. An empty path returns pure defaults.
func Load(path string) (*Config, error) {
	_ = godotenv.Load()

	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("config.Load: read %q: %w", path, err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("config.Load: parse YAML: %w", err)
		}
	}

	applyEnvOverrides(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config.Load: %w", err)
	}
	return cfg, nil
}

func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		cfg.Log.Level = v
	}
	if v := os.Getenv("LOG_FORMAT"); v != "" {
		cfg.Log.Format = v
	}
	if v := os.Getenv("MARKETSIM_DSN"); v != "" {
		cfg.Simulation.DSN = v
	}
}

// Validate checks the configuration once at startup. Missing required
// sections are fatal; the engines assume a validated config and never
// re-check per call.
func (c *Config) Validate() error {
	if c.Simulation.Turns <= 0 {
		return fmt.Errorf("simulation.turns must be positive")
	}
	if len(c.States) == 0 {
		return fmt.Errorf("no states configured")
	}
	for _, line := range domain.Lines {
		lc, ok := c.Lines[line]
		if !ok {
			return fmt.Errorf("missing line config for %q", line)
		}
		if lc.BaseClaimRate <= 0 {
			return fmt.Errorf("line %q: base_claim_rate must be positive", line)
		}
		if lc.Elasticity >= 0 {
			return fmt.Errorf("line %q: elasticity must be negative", line)
		}
		if lc.HeavyTail && lc.ParetoAlpha <= 1 {
			return fmt.Errorf("line %q: pareto_alpha must exceed 1", line)
		}
	}
	for _, tier := range domain.Tiers {
		tc, ok := c.Tiers[tier]
		if !ok {
			return fmt.Errorf("missing tier config for %q", tier)
		}
		if tc.QualityPerception <= 0 {
			return fmt.Errorf("tier %q: quality_perception must be positive", tier)
		}
	}
	for _, class := range domain.LiquidityOrder {
		ac, ok := c.AssetClasses[class]
		if !ok {
			return fmt.Errorf("missing asset class config for %q", class)
		}
		if ac.MarketDepth <= 0 {
			return fmt.Errorf("asset class %q: market_depth must be positive", class)
		}
	}
	if c.Claims.MinClaim <= 0 {
		return fmt.Errorf("claims.min_claim must be positive")
	}
	if c.Perception.NoiseFloor <= 0 || c.Perception.NoiseFloor >= c.Perception.BaseNoise {
		return fmt.Errorf("perception: need 0 < noise_floor < base_noise")
	}
	if c.Perception.DecayRate <= 0 {
		return fmt.Errorf("perception.decay_rate must be positive")
	}
	if c.Crisis.MaxDiscount <= 0 || c.Crisis.MaxDiscount > 0.5 {
		return fmt.Errorf("crisis.max_discount must be in (0, 0.5]")
	}
	if c.Demand.EquilibriumMaxRounds <= 0 {
		return fmt.Errorf("demand.equilibrium_max_rounds must be positive")
	}
	for state, neighbors := range c.Adjacency {
		if !c.hasState(state) {
			return fmt.Errorf("adjacency references unknown state %q", state)
		}
		for _, n := range neighbors {
			if !c.hasState(n) {
				return fmt.Errorf("adjacency of %q references unknown state %q", state, n)
			}
		}
	}
	return nil
}

func (c *Config) hasState(state string) bool {
	for _, s := range c.States {
		if s == state {
			return true
		}
	}
	return false
}

// Line returns the config for a line, falling back to the auto line for
// unknown input. Unknown lines are a recoverable domain condition, not an
// error.
func (c *Config) Line(line domain.LineOfBusiness) LineConfig {
	if lc, ok := c.Lines[line]; ok {
		return lc
	}
	return c.Lines[domain.LineAuto]
}

// Tier returns the config for a tier, falling back to standard for unknown
// input.
func (c *Config) Tier(tier domain.Tier) TierConfig {
	if tc, ok := c.Tiers[tier]; ok {
		return tc
	}
	return c.Tiers[domain.TierStandard]
}
