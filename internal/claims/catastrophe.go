// Catastrophe event generation: probabilistic perils with regional
// correlation over the state adjacency graph.
package claims

import (
	"sort"

	"golang.org/x/exp/rand"

	"github.com/veldtworks/underwriters/config"
	"github.com/veldtworks/underwriters/internal/domain"
)

// CatGenerator rolls for catastrophe events each turn. At most one event per
// peril type is generated per turn; events are immutable once generated.
type CatGenerator struct {
	cfg *config.Config
}

// NewCatGenerator creates a catastrophe generator over a validated config.
func NewCatGenerator(cfg *config.Config) *CatGenerator {
	return &CatGenerator{cfg: cfg}
}

// Generate rolls every configured peril for the turn. Peril types are
// visited in sorted order so a fixed seed yields a fixed event set.
func (g *CatGenerator) Generate(turn int, rng *rand.Rand) []*domain.CatastropheEvent {
	types := make([]domain.CatastropheType, 0, len(g.cfg.Catastrophes))
	for t := range g.cfg.Catastrophes {
		types = append(types, t)
	}
	sort.Slice(types, func(i, j int) bool { return types[i] < types[j] })

	var events []*domain.CatastropheEvent
	for _, t := range types {
		cc := g.cfg.Catastrophes[t]
		if rng.Float64() >= cc.Probability {
			continue
		}
		events = append(events, g.build(t, cc, turn, rng))
	}
	return events
}

func (g *CatGenerator) build(t domain.CatastropheType, cc config.CatConfig, turn int, rng *rand.Rand) *domain.CatastropheEvent {
	n := cc.EpicenterCount
	if n < 1 {
		n = 1
	}
	if n > len(cc.EpicenterStates) {
		n = len(cc.EpicenterStates)
	}

	// Pick epicenters without replacement from the candidate list.
	perm := rng.Perm(len(cc.EpicenterStates))
	epicenters := make([]string, n)
	for i := 0; i < n; i++ {
		epicenters[i] = cc.EpicenterStates[perm[i]]
	}

	duration := cc.DurationMin
	if cc.DurationMax > cc.DurationMin {
		duration += rng.Intn(cc.DurationMax - cc.DurationMin + 1)
	}
	if duration < 1 {
		duration = 1
	}

	return &domain.CatastropheEvent{
		Type:          t,
		Epicenters:    epicenters,
		AffectedAll:   g.correlatedStates(epicenters, cc.CorrelationRadius),
		Severity:      cc.SeverityMin + rng.Float64()*(cc.SeverityMax-cc.SeverityMin),
		AffectedLines: cc.AffectedLines,
		StartTurn:     turn,
		DurationTurns: duration,
	}
}

// correlatedStates expands the epicenter set by breadth-first traversal of
// the adjacency graph out to the correlation radius. Radius zero returns
// exactly the epicenter set.
func (g *CatGenerator) correlatedStates(epicenters []string, radius int) []string {
	affected := make(map[string]bool, len(epicenters))
	frontier := make([]string, 0, len(epicenters))
	for _, s := range epicenters {
		affected[s] = true
		frontier = append(frontier, s)
	}

	for hop := 0; hop < radius; hop++ {
		var next []string
		for _, s := range frontier {
			for _, neighbor := range g.cfg.Adjacency[s] {
				if !affected[neighbor] {
					affected[neighbor] = true
					next = append(next, neighbor)
				}
			}
		}
		frontier = next
	}

	out := make([]string, 0, len(affected))
	for s := range affected {
		out = append(out, s)
	}
	sort.Strings(out)
	return out
}
