// Seasonal demand effects on a weekly turn cadence.
package econ

import "github.com/veldtworks/underwriters/internal/domain"

// Season constants.
const (
	SeasonWinter = 0
	SeasonSpring = 1
	SeasonSummer = 2
	SeasonAutumn = 3

	turnsPerSeason = 13
)

// SeasonOf maps a turn to its season, starting the year in winter.
func SeasonOf(turn int) int {
	if turn < 1 {
		turn = 1
	}
	return ((turn - 1) / turnsPerSeason) % 4
}

// SeasonName returns a human-readable season name.
func SeasonName(season int) string {
	switch season {
	case SeasonWinter:
		return "Winter"
	case SeasonSpring:
		return "Spring"
	case SeasonSummer:
		return "Summer"
	case SeasonAutumn:
		return "Autumn"
	default:
		return "Unknown"
	}
}

// SeasonalDemand returns the demand multiplier for a line in the given turn's
// season. Auto sells into the spring and summer driving season, home follows
// the moving season, commercial renews around year end, life is steady with a
// small new-year resolution bump.
func SeasonalDemand(turn int, line domain.LineOfBusiness) float64 {
	switch SeasonOf(turn) {
	case SeasonWinter:
		switch line {
		case domain.LineAuto:
			return 0.92
		case domain.LineHome:
			return 0.90
		case domain.LineCommercial:
			return 1.10
		case domain.LineLife:
			return 1.08
		default:
			return 1.0
		}
	case SeasonSpring:
		switch line {
		case domain.LineAuto:
			return 1.05
		case domain.LineHome:
			return 1.08
		default:
			return 1.0
		}
	case SeasonSummer:
		switch line {
		case domain.LineAuto:
			return 1.08
		case domain.LineHome:
			return 1.06
		case domain.LineLife:
			return 0.95
		default:
			return 0.98
		}
	case SeasonAutumn:
		switch line {
		case domain.LineAuto:
			return 0.95
		case domain.LineCommercial:
			return 1.05
		default:
			return 1.0
		}
	}
	return 1.0
}
