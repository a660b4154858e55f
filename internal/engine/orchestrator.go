// Package engine runs the weekly simulation pipeline. Each turn executes a
// fixed five-stage sequence (market, operations, investment, aggregation,
// hooks) where every stage consumes only the previous stage's output plus
// read-only entities. A stage failure aborts the whole turn; partial results
// are never published.
package engine

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"golang.org/x/exp/rand"
	"golang.org/x/sync/errgroup"

	"github.com/veldtworks/underwriters/config"
	"github.com/veldtworks/underwriters/internal/claims"
	"github.com/veldtworks/underwriters/internal/crisis"
	"github.com/veldtworks/underwriters/internal/demand"
	"github.com/veldtworks/underwriters/internal/domain"
	"github.com/veldtworks/underwriters/internal/econ"
	"github.com/veldtworks/underwriters/internal/entropy"
	"github.com/veldtworks/underwriters/internal/portfolio"
)

// Orchestrator owns the turn-scoped simulation state and wires the stage
// engines together. All entities consumed by a turn are materialized in
// memory before the turn starts; the pipeline itself does no I/O.
type Orchestrator struct {
	cfg *config.Config

	demand     *demand.Engine
	claimGen   *claims.Generator
	catGen     *claims.CatGenerator
	optimizer  *portfolio.Optimizer
	perceiver  *portfolio.Perceiver
	detector   *crisis.Detector
	liquidator *crisis.Liquidator
	impact     *crisis.ImpactModel
	cycle      *econ.Cycle

	companies []*domain.Company
	hooks     []ResultHook
	seed      uint64

	// Cross-turn carry state.
	priorShares map[domain.SegmentKey]map[domain.CompanyID]float64
	activeCats  []*domain.CatastropheEvent
}

// New builds an orchestrator for a set of companies.
func New(cfg *config.Config, companies []*domain.Company) *Orchestrator {
	return &Orchestrator{
		cfg:         cfg,
		demand:      demand.NewEngine(cfg),
		claimGen:    claims.NewGenerator(cfg),
		catGen:      claims.NewCatGenerator(cfg),
		optimizer:   portfolio.NewOptimizer(cfg),
		perceiver:   portfolio.NewPerceiver(cfg.Perception),
		detector:    crisis.NewDetector(cfg),
		liquidator:  crisis.NewLiquidator(cfg),
		impact:      crisis.NewImpactModel(cfg),
		cycle:       econ.NewCycle(cfg.Econ, cfg.Simulation.Seed),
		companies:   companies,
		seed:        uint64(cfg.Simulation.Seed),
		priorShares: make(map[domain.SegmentKey]map[domain.CompanyID]float64),
	}
}

// RegisterHook adds a result consumer invoked after each aggregation.
func (o *Orchestrator) RegisterHook(h ResultHook) {
	o.hooks = append(o.hooks, h)
}

// Companies returns the orchestrator's company roster.
func (o *Orchestrator) Companies() []*domain.Company {
	return o.companies
}

// ActiveCatastrophes returns the catastrophes in effect for the current turn.
func (o *Orchestrator) ActiveCatastrophes() []*domain.CatastropheEvent {
	return o.activeCats
}

// companyOps accumulates the Operations stage output for one company.
type companyOps struct {
	premium          float64
	claims           float64
	claimCount       int
	expenses         float64
	largestEventLoss float64
	segments         []domain.SegmentResult
}

// RunTurn executes one full weekly turn. decisions are the pricing decisions
// submitted for this turn; companies without a decision in a segment simply
// do not compete there. The returned results are final and immutable.
func (o *Orchestrator) RunTurn(ctx context.Context, turn int, decisions []domain.PricingDecision) ([]domain.TurnResult, error) {
	cond := o.cycle.At(turn)
	o.rollCatastrophes(turn)

	marketOut, avgPrices, err := o.marketStage(ctx, turn, cond, decisions)
	if err != nil {
		return nil, fmt.Errorf("market stage: %w", err)
	}

	ops, err := o.operationsStage(ctx, turn, decisions, marketOut, avgPrices)
	if err != nil {
		return nil, fmt.Errorf("operations stage: %w", err)
	}

	invest, err := o.investmentStage(turn, cond, ops)
	if err != nil {
		return nil, fmt.Errorf("investment stage: %w", err)
	}

	results := o.aggregate(turn, cond, ops, invest)

	for _, hook := range o.hooks {
		for _, r := range results {
			hook.OnTurnResult(r)
		}
	}
	return results, nil
}

// rollCatastrophes expires finished events and rolls new ones for the turn.
func (o *Orchestrator) rollCatastrophes(turn int) {
	kept := o.activeCats[:0]
	for _, ev := range o.activeCats {
		if ev.ActiveAt(turn) {
			kept = append(kept, ev)
		}
	}
	o.activeCats = kept

	rng := rand.New(rand.NewSource(o.subSeed(turn, "catastrophes")))
	for _, ev := range o.catGen.Generate(turn, rng) {
		slog.Info("catastrophe generated",
			"type", ev.Type,
			"epicenters", ev.Epicenters,
			"affected", len(ev.AffectedAll),
			"severity", ev.Severity,
			"duration", ev.DurationTurns,
		)
		o.activeCats = append(o.activeCats, ev)
	}
}

// marketStage computes shares and premium volumes per segment. Segments are
// independent and run in parallel; within a segment all competitor prices
// are visible simultaneously.
func (o *Orchestrator) marketStage(ctx context.Context, turn int, cond domain.MarketConditions, decisions []domain.PricingDecision) (map[domain.SegmentKey]map[domain.CompanyID]demand.SegmentOutcome, map[domain.SegmentKey]float64, error) {
	type segWork struct {
		key   domain.SegmentKey
		comps []demand.Competitor
	}

	bySegment := make(map[domain.SegmentKey][]demand.Competitor)
	for _, dec := range decisions {
		key := domain.SegmentKey{State: dec.State, Line: dec.Line}
		bySegment[key] = append(bySegment[key], demand.Competitor{
			Company: dec.Company,
			Price:   dec.EffectivePrice(),
			Tier:    dec.Tier,
		})
	}

	entrants := make(map[domain.CompanyID]bool)
	for _, c := range o.companies {
		if turn-c.EntryTurn < o.cfg.Demand.EntrantWindowTurns {
			entrants[c.ID] = true
		}
	}

	work := make([]segWork, 0, len(bySegment))
	for key, comps := range bySegment {
		work = append(work, segWork{key: key, comps: comps})
	}

	out := make(map[domain.SegmentKey]map[domain.CompanyID]demand.SegmentOutcome, len(work))
	avg := make(map[domain.SegmentKey]float64, len(work))
	var mu sync.Mutex

	g, _ := errgroup.WithContext(ctx)
	for _, w := range work {
		w := w
		g.Go(func() error {
			seg := o.segment(w.key, turn)
			shares := o.demand.Equilibrium(seg, w.comps, cond)
			shares = o.demand.ApplyLoyalty(shares, o.priorShares[w.key])
			shares = o.demand.ApplyEntrantPenalty(shares, entrants)
			outcomes := o.demand.Outcomes(seg, w.comps, shares, cond)

			priceSum := 0.0
			for _, c := range w.comps {
				priceSum += c.Price
			}

			mu.Lock()
			out[w.key] = outcomes
			avg[w.key] = priceSum / float64(len(w.comps))
			o.priorShares[w.key] = shares
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, nil, err
	}
	return out, avg, nil
}

// segment materializes the turn's segment parameters from config.
func (o *Orchestrator) segment(key domain.SegmentKey, turn int) domain.MarketSegment {
	lc := o.cfg.Line(key.Line)
	return domain.MarketSegment{
		Key:        key,
		Turn:       turn,
		BaseDemand: lc.SegmentDemand,
		Elasticity: lc.Elasticity,
		Intensity:  1,
		GrowthRate: 0,
		Seasonal:   econ.SeasonalDemand(turn, key.Line),
	}
}

// operationsStage generates claims and expenses per company. Companies are
// independent here and run in parallel; every claims call gets its own
// derived random source so results do not depend on scheduling.
func (o *Orchestrator) operationsStage(ctx context.Context, turn int, decisions []domain.PricingDecision, marketOut map[domain.SegmentKey]map[domain.CompanyID]demand.SegmentOutcome, avgPrices map[domain.SegmentKey]float64) (map[domain.CompanyID]*companyOps, error) {
	decByCompany := make(map[domain.CompanyID][]domain.PricingDecision)
	for _, dec := range decisions {
		decByCompany[dec.Company] = append(decByCompany[dec.Company], dec)
	}

	ops := make(map[domain.CompanyID]*companyOps, len(o.companies))
	var mu sync.Mutex

	g, _ := errgroup.WithContext(ctx)
	for _, company := range o.companies {
		company := company
		g.Go(func() error {
			co := &companyOps{expenses: o.cfg.Simulation.FixedExpense}

			for _, dec := range decByCompany[company.ID] {
				key := domain.SegmentKey{State: dec.State, Line: dec.Line}
				outcome, ok := marketOut[key][company.ID]
				if !ok || outcome.PremiumVolume <= 0 {
					continue
				}

				selection := o.claimGen.SelectionModifier(dec.EffectivePrice(), avgPrices[key], dec.Tier, dec.Line)

				rng := rand.New(rand.NewSource(o.claimSeed(turn, company.ID, key)))
				summary := o.claimGen.Generate(claims.Input{
					Exposure:          float64(outcome.PolicyCount) * o.cfg.Simulation.ExposurePerPolicy,
					State:             dec.State,
					Line:              dec.Line,
					Tier:              dec.Tier,
					SelectionModifier: selection,
					Turn:              turn,
					Catastrophe:       o.catastropheFor(dec.State, dec.Line, turn),
				}, rng)

				co.premium += outcome.PremiumVolume
				co.claims += summary.Total
				co.claimCount += summary.Count
				co.expenses += outcome.PremiumVolume * o.cfg.Line(dec.Line).ExpenseRatio
				if o.catastropheFor(dec.State, dec.Line, turn) != nil && summary.Total > co.largestEventLoss {
					co.largestEventLoss = summary.Total
				}

				co.segments = append(co.segments, domain.SegmentResult{
					Key:           key,
					Share:         outcome.Share,
					PremiumVolume: outcome.PremiumVolume,
					PolicyCount:   outcome.PolicyCount,
					Claims:        summary.Total,
					ClaimCount:    summary.Count,
				})
			}

			mu.Lock()
			ops[company.ID] = co
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return ops, nil
}

// catastropheFor returns the first active catastrophe touching a state and
// line, or nil.
func (o *Orchestrator) catastropheFor(state string, line domain.LineOfBusiness, turn int) *domain.CatastropheEvent {
	for _, ev := range o.activeCats {
		if ev.ActiveAt(turn) && ev.Affects(state, line) {
			return ev
		}
	}
	return nil
}

// subSeed derives a reproducible seed for a labeled unit of work.
func (o *Orchestrator) subSeed(turn int, label string) uint64 {
	return entropy.SubSeed(o.seed, turn, label)
}

// claimSeed derives the per-(turn, company, segment) claims seed.
func (o *Orchestrator) claimSeed(turn int, company domain.CompanyID, key domain.SegmentKey) uint64 {
	return entropy.SubSeedf(o.seed, turn, "claims|%s|%s|%s", company, key.State, key.Line)
}
