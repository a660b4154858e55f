// Command marketsim runs the weekly insurance market simulation.
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"math"
	"os"
	"os/signal"
	"path/filepath"
	"sort"
	"syscall"

	"github.com/dustin/go-humanize"
	"github.com/google/uuid"
	"github.com/olekukonko/tablewriter"

	"github.com/veldtworks/underwriters/config"
	"github.com/veldtworks/underwriters/internal/domain"
	"github.com/veldtworks/underwriters/internal/engine"
	"github.com/veldtworks/underwriters/internal/persistence"
	"github.com/veldtworks/underwriters/internal/portfolio"
)

func main() {
	var (
		configPath = flag.String("config", "", "path to YAML config (empty = defaults)")
		turns      = flag.Int("turns", 0, "override number of turns")
		seed       = flag.Int("seed", 0, "override random seed")
		dbPath     = flag.String("db", "", "override SQLite path (\":memory:\" for none on disk)")
	)
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	if *turns > 0 {
		cfg.Simulation.Turns = *turns
	}
	if *seed != 0 {
		cfg.Simulation.Seed = int64(*seed)
	}
	if *dbPath != "" {
		cfg.Simulation.DSN = *dbPath
	}

	setupLogging(cfg.Log)

	slog.Info("market simulation starting",
		"seed", cfg.Simulation.Seed,
		"turns", cfg.Simulation.Turns,
		"companies", len(cfg.Companies),
		"states", len(cfg.States),
		"lines", len(domain.Lines),
	)

	if dir := filepath.Dir(cfg.Simulation.DSN); dir != "." && cfg.Simulation.DSN != ":memory:" {
		os.MkdirAll(dir, 0755)
	}
	db, err := persistence.Open(cfg.Simulation.DSN)
	if err != nil {
		slog.Error("failed to open database", "error", err)
		os.Exit(1)
	}
	defer db.Close()
	slog.Info("database opened", "path", cfg.Simulation.DSN)

	companies := buildCompanies(cfg)
	orch := engine.New(cfg, companies)
	orch.RegisterHook(engine.LogHook{})

	db.SaveMeta("seed", fmt.Sprintf("%d", cfg.Simulation.Seed))

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	lastResults := runSimulation(ctx, cfg, orch, db)

	printStandings(cfg, orch, lastResults)
}

func runSimulation(ctx context.Context, cfg *config.Config, orch *engine.Orchestrator, db *persistence.DB) []domain.TurnResult {
	prices := basePrices(cfg)

	var lastResults []domain.TurnResult
	for turn := 1; turn <= cfg.Simulation.Turns; turn++ {
		if ctx.Err() != nil {
			slog.Info("interrupted", "turn", turn)
			break
		}

		decisions := buildDecisions(cfg, orch.Companies(), prices, turn)

		results, err := orch.RunTurn(ctx, turn, decisions)
		if err != nil {
			slog.Error("turn failed", "turn", turn, "error", err)
			break
		}
		lastResults = results

		if err := db.SaveTurn(turn, results, orch.ActiveCatastrophes()); err != nil {
			slog.Error("persist failed", "turn", turn, "error", err)
			break
		}
	}
	return lastResults
}

func setupLogging(lc config.LogConfig) {
	var level slog.Level
	switch lc.Level {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}

	opts := &slog.HandlerOptions{Level: level}
	var handler slog.Handler
	if lc.Format == "json" {
		handler = slog.NewJSONHandler(os.Stdout, opts)
	} else {
		handler = slog.NewTextHandler(os.Stdout, opts)
	}
	slog.SetDefault(slog.New(handler))
}

// buildCompanies materializes the configured roster. IDs derive from the
// company name so reruns with the same config are reproducible end to end.
func buildCompanies(cfg *config.Config) []*domain.Company {
	optimizer := portfolio.NewOptimizer(cfg)

	companies := make([]*domain.Company, 0, len(cfg.Companies))
	for _, cc := range cfg.Companies {
		target := targetPosture(cfg, cc.RiskTolerance)
		opt := optimizer.Optimize(portfolio.Request{
			RiskTolerance: target.Risk,
			LiquidityNeed: target.Liquidity,
		})

		companies = append(companies, &domain.Company{
			ID:                 uuid.NewSHA1(uuid.NameSpaceOID, []byte(cc.Name)),
			Name:               cc.Name,
			Capital:            cc.Capital,
			RequiredCapital:    cfg.Simulation.RequiredCapital,
			PortfolioValue:     cc.Capital,
			PortfolioValuePrev: cc.Capital,
			Allocation:         opt.Allocation,
			Characteristics:    opt.Characteristics,
			Target:             target,
			CFOSkill:           cc.CFOSkill,
		})

		slog.Info("company seeded",
			"name", cc.Name,
			"capital", humanize.Commaf(cc.Capital),
			"cfo_skill", cc.CFOSkill,
			"tier", cc.Tier,
			"risk_tolerance", cc.RiskTolerance,
		)
	}
	return companies
}

// targetPosture maps a scalar risk tolerance onto a full characteristic
// target. Riskier companies run longer, less liquid, lower-grade books.
func targetPosture(cfg *config.Config, riskTolerance float64) domain.PortfolioCharacteristics {
	liquidity := 0.8 - 0.6*riskTolerance
	if liquidity < cfg.Portfolio.MinLiquidity {
		liquidity = cfg.Portfolio.MinLiquidity
	}
	return domain.PortfolioCharacteristics{
		Risk:            riskTolerance,
		Duration:        0.3 + 0.4*riskTolerance,
		Liquidity:       liquidity,
		Credit:          0.3 + 0.3*riskTolerance,
		Diversification: 0.55,
	}.Clamp()
}

// basePrices computes the loaded actuarial breakeven price per line and tier:
// expected claims per policy grossed up for expenses plus a flat margin.
func basePrices(cfg *config.Config) map[domain.LineOfBusiness]map[domain.Tier]float64 {
	const margin = 0.05

	prices := make(map[domain.LineOfBusiness]map[domain.Tier]float64, len(domain.Lines))
	for _, line := range domain.Lines {
		lc := cfg.Line(line)
		expectedSeverity := math.Exp(lc.SeverityMean + lc.SeveritySigma*lc.SeveritySigma/2)

		prices[line] = make(map[domain.Tier]float64, len(domain.Tiers))
		for _, tier := range domain.Tiers {
			tc := cfg.Tier(tier)
			pure := lc.BaseClaimRate * cfg.Simulation.ExposurePerPolicy *
				tc.RiskSelection * tc.SeverityModifier * expectedSeverity
			prices[line][tier] = pure / (1 - lc.ExpenseRatio - margin)
		}
	}
	return prices
}

// buildDecisions prices every company into every segment at its configured
// tier and multiplier. A richer decision layer would vary posture per turn;
// the runner holds it fixed and lets market feedback do the differentiating.
func buildDecisions(cfg *config.Config, companies []*domain.Company, prices map[domain.LineOfBusiness]map[domain.Tier]float64, turn int) []domain.PricingDecision {
	decisions := make([]domain.PricingDecision, 0, len(companies)*len(cfg.States)*len(domain.Lines))
	for _, company := range companies {
		cc := companyConfig(cfg, company.Name)
		for _, state := range cfg.States {
			for _, line := range domain.Lines {
				decisions = append(decisions, domain.PricingDecision{
					Company:         company.ID,
					Turn:            turn,
					State:           state,
					Line:            line,
					BasePrice:       prices[line][cc.Tier],
					PriceMultiplier: cc.PriceMultiplier,
					Tier:            cc.Tier,
				})
			}
		}
	}
	return decisions
}

func companyConfig(cfg *config.Config, name string) config.CompanyConfig {
	for _, cc := range cfg.Companies {
		if cc.Name == name {
			return cc
		}
	}
	return config.CompanyConfig{Tier: domain.TierStandard, PriceMultiplier: 1.0}
}

// printStandings renders the final leaderboard sorted by ending capital.
func printStandings(cfg *config.Config, orch *engine.Orchestrator, lastResults []domain.TurnResult) {
	companies := orch.Companies()

	byID := make(map[domain.CompanyID]domain.TurnResult, len(lastResults))
	for _, r := range lastResults {
		byID[r.Company] = r
	}

	ranked := make([]*domain.Company, len(companies))
	copy(ranked, companies)
	sort.Slice(ranked, func(i, j int) bool {
		return ranked[i].Capital > ranked[j].Capital
	})

	fmt.Printf("\nFinal standings after %d turns:\n\n", cfg.Simulation.Turns)

	table := tablewriter.NewWriter(os.Stdout)
	table.Header("#", "Company", "Capital", "Portfolio", "Solvency", "Combined", "Skill", "State")

	for i, c := range ranked {
		r := byID[c.ID]
		state := string(r.CrisisState)
		if state == "" {
			state = string(domain.CrisisNormal)
		}
		table.Append(
			fmt.Sprintf("%d", i+1),
			c.Name,
			"$"+humanize.Commaf(math.Round(c.Capital)),
			"$"+humanize.Commaf(math.Round(c.PortfolioValue)),
			fmt.Sprintf("%.2f", c.SolvencyRatio()),
			fmt.Sprintf("%.1f%%", r.CombinedRatio*100),
			fmt.Sprintf("%.0f", c.CFOSkill),
			state,
		)
	}
	table.Render()
	fmt.Println()
}
