package domain

// CatastropheType names a catastrophe peril.
type CatastropheType string

const (
	CatHurricane   CatastropheType = "hurricane"
	CatEarthquake  CatastropheType = "earthquake"
	CatWildfire    CatastropheType = "wildfire"
	CatFlood       CatastropheType = "flood"
	CatWinterStorm CatastropheType = "winter_storm"
)

// CatastropheEvent is a generated catastrophe. At most one event per type is
// generated per turn; the event is immutable once generated and consumed by
// the claims generator for its duration window.
type CatastropheEvent struct {
	Type          CatastropheType  `json:"type"`
	Epicenters    []string         `json:"epicenters"`      // States at full severity
	AffectedAll   []string         `json:"affected_all"`    // Epicenters ∪ correlated neighbors
	Severity      float64          `json:"severity"`        // Scalar >= 1, scales claim severity
	AffectedLines []LineOfBusiness `json:"affected_lines"`  // Lines the peril touches
	StartTurn     int              `json:"start_turn"`
	DurationTurns int              `json:"duration_turns"`
}

// ActiveAt reports whether the event is still in its duration window at the
// given turn.
func (e *CatastropheEvent) ActiveAt(turn int) bool {
	return turn >= e.StartTurn && turn < e.StartTurn+e.DurationTurns
}

// Affects reports whether the event touches the given state and line.
func (e *CatastropheEvent) Affects(state string, line LineOfBusiness) bool {
	lineHit := false
	for _, l := range e.AffectedLines {
		if l == line {
			lineHit = true
			break
		}
	}
	if !lineHit {
		return false
	}
	for _, s := range e.AffectedAll {
		if s == state {
			return true
		}
	}
	return false
}

// IsEpicenter reports whether the state takes the full event severity.
func (e *CatastropheEvent) IsEpicenter(state string) bool {
	for _, s := range e.Epicenters {
		if s == state {
			return true
		}
	}
	return false
}
