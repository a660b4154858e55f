package config

import "github.com/veldtworks/underwriters/internal/domain"

// Default returns the full default configuration: a ten-state market, five
// lines, four tiers, seven asset classes, and five catastrophe perils.
// Values are calibrated for a weekly turn cadence.
func Default() *Config {
	return &Config{
		Simulation: SimulationConfig{
			Seed:              42,
			Turns:             52,
			DSN:               "data/marketsim.db",
			StartingCapital:   50_000_000,
			RequiredCapital:   20_000_000,
			FixedExpense:      150_000,
			ExposurePerPolicy: 1.0,
		},
		Log: LogConfig{Level: "info", Format: "text"},
		Demand: DemandConfig{
			QualityCoefficient:   0.8,
			CrossElasticity:      0.3,
			PriceFloor:           1.0,
			LoyaltyWeight:        0.35,
			EntrantPenalty:       0.4,
			EntrantWindowTurns:   8,
			EquilibriumTolerance: 1e-3,
			EquilibriumMaxRounds: 20,
		},
		Claims: ClaimsConfig{
			MinClaim:           500,
			InflationPerTurn:   0.0006, // ~3%/year
			CatFrequencyMult:   5.0,
			CatSeverityMult:    2.0,
			UnderpricingAmp:    1.6,
			OverpricingRelief:  0.6,
			SelectionClampLow:  0.5,
			SelectionClampHigh: 2.0,
		},
		Portfolio: PortfolioConfig{
			RiskFreeRate:    0.03,
			MaxRisk:         0.85,
			MinLiquidity:    0.15,
			MaxCredit:       0.80,
			MaxIterations:   200,
			Tolerance:       1e-6,
			StepSize:        0.05,
			TransactionCost: 0.002,
			MaxTurnover:     0.25,
		},
		Perception: PerceptionConfig{
			BaseNoise:             0.15,
			NoiseFloor:            0.01,
			DecayRate:             3.0,
			RiskOptimism:          0.06,
			LiquidityOverestimate: 0.05,
		},
		Crisis: CrisisConfig{
			MinSolvencyRatio:      1.0,
			CatLossCapitalPct:     0.25,
			MarketDeclinePct:      0.15,
			LiquidityCoverage:     1.2,
			CombinedRatioCeiling:  1.15,
			MaxLossTurns:          3,
			CompoundingFactor:     0.15,
			MaxDiscount:           0.5,
			SkillDiscountCut:      0.5,
			ImpactCoefficient:     0.3,
			ContagionThreshold:    0.05,
			ContagionMultiplier:   1.5,
			CascadeMaxRounds:      5,
			CascadeMarginFraction: 0.08,
		},
		Econ: EconConfig{
			CycleScale:       0.035,
			DemandSwing:      0.12,
			EquityBaseReturn: 0.0015, // ~8%/year
			EquitySwing:      0.02,
			BaseInterestRate: 0.03,
			RateSwing:        0.015,
		},
		Lines: map[domain.LineOfBusiness]LineConfig{
			domain.LineAuto: {
				SegmentDemand:        4_000_000,
				BaseClaimRate:        0.0045,
				SeverityMean:         8.6, // e^8.6 ≈ $5,400
				SeveritySigma:        0.9,
				Elasticity:           -1.4,
				SelectionSensitivity: 1.0,
				ExpenseRatio:         0.26,
			},
			domain.LineHome: {
				SegmentDemand:        3_000_000,
				BaseClaimRate:        0.0018,
				SeverityMean:         9.4, // ≈ $12,000
				SeveritySigma:        1.1,
				Elasticity:           -1.1,
				SelectionSensitivity: 0.9,
				ExpenseRatio:         0.28,
			},
			domain.LineCommercial: {
				SegmentDemand:        2_500_000,
				BaseClaimRate:        0.0022,
				SeverityMean:         9.9, // ≈ $20,000
				SeveritySigma:        1.3,
				Dispersion:           0.5,
				Elasticity:           -0.9,
				SelectionSensitivity: 1.1,
				ExpenseRatio:         0.30,
			},
			domain.LineLiability: {
				SegmentDemand:        1_800_000,
				BaseClaimRate:        0.0012,
				SeverityMean:         9.2,
				SeveritySigma:        1.2,
				HeavyTail:            true,
				ParetoAlpha:          1.8,
				Dispersion:           0.8,
				Elasticity:           -0.8,
				SelectionSensitivity: 1.3,
				ExpenseRatio:         0.32,
			},
			domain.LineLife: {
				SegmentDemand:        2_200_000,
				BaseClaimRate:        0.0006,
				SeverityMean:         11.0, // ≈ $60,000
				SeveritySigma:        0.5,
				Elasticity:           -1.2,
				SelectionSensitivity: 1.2,
				ExpenseRatio:         0.22,
			},
		},
		Tiers: map[domain.Tier]TierConfig{
			domain.TierBasic: {
				QualityPerception: 0.85,
				RiskSelection:     1.20,
				SeverityModifier:  1.05,
				Segmentation:      1.0,
			},
			domain.TierStandard: {
				QualityPerception: 1.0,
				RiskSelection:     1.0,
				SeverityModifier:  1.0,
				Segmentation:      0.9,
			},
			domain.TierPremium: {
				QualityPerception: 1.18,
				RiskSelection:     0.85,
				SeverityModifier:  0.95,
				Segmentation:      0.75,
			},
			domain.TierElite: {
				QualityPerception: 1.35,
				RiskSelection:     0.72,
				SeverityModifier:  0.92,
				Segmentation:      0.6,
			},
		},
		AssetClasses: map[domain.AssetClass]AssetClassConfig{
			domain.AssetCash: {
				Characteristics: domain.PortfolioCharacteristics{Risk: 0.02, Duration: 0.02, Liquidity: 1.0, Credit: 0.0, Diversification: 0.1},
				ExpectedReturn:  0.025,
				Volatility:      0.005,
				Illiquidity:     0.01,
				MarketDepth:     500_000_000,
				CapitalCharge:   0.0,
			},
			domain.AssetGovtBonds: {
				Characteristics: domain.PortfolioCharacteristics{Risk: 0.12, Duration: 0.55, Liquidity: 0.9, Credit: 0.05, Diversification: 0.3},
				ExpectedReturn:  0.035,
				Volatility:      0.05,
				Illiquidity:     0.03,
				MarketDepth:     300_000_000,
				CapitalCharge:   0.01,
			},
			domain.AssetCorpBonds: {
				Characteristics: domain.PortfolioCharacteristics{Risk: 0.30, Duration: 0.60, Liquidity: 0.6, Credit: 0.55, Diversification: 0.45},
				ExpectedReturn:  0.048,
				Volatility:      0.08,
				Illiquidity:     0.08,
				MarketDepth:     120_000_000,
				CapitalCharge:   0.04,
			},
			domain.AssetPublicEquity: {
				Characteristics: domain.PortfolioCharacteristics{Risk: 0.70, Duration: 0.25, Liquidity: 0.8, Credit: 0.25, Diversification: 0.6},
				ExpectedReturn:  0.08,
				Volatility:      0.17,
				Illiquidity:     0.05,
				MarketDepth:     200_000_000,
				CapitalCharge:   0.25,
			},
			domain.AssetRealEstate: {
				Characteristics: domain.PortfolioCharacteristics{Risk: 0.55, Duration: 0.75, Liquidity: 0.2, Credit: 0.35, Diversification: 0.5},
				ExpectedReturn:  0.065,
				Volatility:      0.12,
				Illiquidity:     0.25,
				MarketDepth:     40_000_000,
				CapitalCharge:   0.18,
			},
			domain.AssetHedgeFunds: {
				Characteristics: domain.PortfolioCharacteristics{Risk: 0.75, Duration: 0.4, Liquidity: 0.25, Credit: 0.4, Diversification: 0.75},
				ExpectedReturn:  0.075,
				Volatility:      0.14,
				Illiquidity:     0.30,
				MarketDepth:     30_000_000,
				CapitalCharge:   0.30,
			},
			domain.AssetPrivateEquity: {
				Characteristics: domain.PortfolioCharacteristics{Risk: 0.90, Duration: 0.85, Liquidity: 0.05, Credit: 0.5, Diversification: 0.55},
				ExpectedReturn:  0.11,
				Volatility:      0.22,
				Illiquidity:     0.45,
				MarketDepth:     15_000_000,
				CapitalCharge:   0.40,
			},
		},
		Catastrophes: map[domain.CatastropheType]CatConfig{
			domain.CatHurricane: {
				Probability:       0.02,
				SeverityMin:       1.5,
				SeverityMax:       4.0,
				AffectedLines:     []domain.LineOfBusiness{domain.LineHome, domain.LineCommercial, domain.LineAuto},
				EpicenterStates:   []string{"FL", "TX", "NC"},
				EpicenterCount:    1,
				CorrelationRadius: 1,
				DurationMin:       1,
				DurationMax:       2,
			},
			domain.CatEarthquake: {
				Probability:       0.008,
				SeverityMin:       2.0,
				SeverityMax:       5.0,
				AffectedLines:     []domain.LineOfBusiness{domain.LineHome, domain.LineCommercial},
				EpicenterStates:   []string{"CA", "WA"},
				EpicenterCount:    1,
				CorrelationRadius: 1,
				DurationMin:       1,
				DurationMax:       1,
			},
			domain.CatWildfire: {
				Probability:       0.025,
				SeverityMin:       1.2,
				SeverityMax:       3.0,
				AffectedLines:     []domain.LineOfBusiness{domain.LineHome, domain.LineCommercial},
				EpicenterStates:   []string{"CA", "TX"},
				EpicenterCount:    1,
				CorrelationRadius: 0,
				DurationMin:       1,
				DurationMax:       3,
			},
			domain.CatFlood: {
				Probability:       0.03,
				SeverityMin:       1.2,
				SeverityMax:       2.5,
				AffectedLines:     []domain.LineOfBusiness{domain.LineHome, domain.LineCommercial, domain.LineAuto},
				EpicenterStates:   []string{"TX", "FL", "NY"},
				EpicenterCount:    1,
				CorrelationRadius: 1,
				DurationMin:       1,
				DurationMax:       2,
			},
			domain.CatWinterStorm: {
				Probability:       0.02,
				SeverityMin:       1.1,
				SeverityMax:       2.2,
				AffectedLines:     []domain.LineOfBusiness{domain.LineAuto, domain.LineHome},
				EpicenterStates:   []string{"NY", "IL", "PA"},
				EpicenterCount:    2,
				CorrelationRadius: 2,
				DurationMin:       1,
				DurationMax:       2,
			},
		},
		States: []string{"CA", "TX", "FL", "NY", "IL", "PA", "OH", "GA", "NC", "WA"},
		Adjacency: map[string][]string{
			"CA": {"WA"},
			"WA": {"CA"},
			"TX": {"GA"},
			"FL": {"GA"},
			"GA": {"FL", "NC", "TX"},
			"NC": {"GA"},
			"NY": {"PA"},
			"PA": {"NY", "OH"},
			"OH": {"PA", "IL"},
			"IL": {"OH"},
		},
		Companies: []CompanyConfig{
			{Name: "Granite Mutual", Capital: 60_000_000, CFOSkill: 85, Tier: domain.TierPremium, PriceMultiplier: 1.05, RiskTolerance: 0.4},
			{Name: "Atlas Casualty", Capital: 50_000_000, CFOSkill: 60, Tier: domain.TierStandard, PriceMultiplier: 1.0, RiskTolerance: 0.55},
			{Name: "Pioneer Underwriters", Capital: 45_000_000, CFOSkill: 45, Tier: domain.TierStandard, PriceMultiplier: 0.95, RiskTolerance: 0.65},
			{Name: "Beacon Assurance", Capital: 55_000_000, CFOSkill: 75, Tier: domain.TierElite, PriceMultiplier: 1.12, RiskTolerance: 0.35},
			{Name: "Redline Direct", Capital: 35_000_000, CFOSkill: 30, Tier: domain.TierBasic, PriceMultiplier: 0.88, RiskTolerance: 0.8},
		},
	}
}
