package eligibility

import (
	"github.com/pointsmarket/daily-draw-backend/internal/leaderboard"
)

// Policy holds the qualification thresholds for a round.
type Policy struct {
	// MinimumTotalPoints is the lowest current total a participant may hold
	// and still qualify.
	MinimumTotalPoints int

	// MinimumGain is the lowest point gain over the baseline that qualifies.
	// Ignored in baseline mode.
	MinimumGain int
}

// QualifiedEntry is one participant deemed eligible for the current round.
// It is derived data, recomputed per round and never persisted on its own.
type QualifiedEntry struct {
	Username          string
	TotalPoints       int
	GainSinceBaseline int
}

// Resolve computes the qualified set for a round from the current snapshot
// contents and an optional baseline lookup table (normalized username ->
// participant). A nil baseline selects baseline mode: every participant at or
// above MinimumTotalPoints qualifies with gain 0.
//
// In gain mode a participant absent from the baseline is treated as having
// held 0 points, so their gain equals their current total. A participant who
// lost points has a negative gain and can never qualify. The returned order
// is not significant; the selector imposes its own deterministic ordering.
func Resolve(current []leaderboard.Participant, baseline map[string]leaderboard.Participant, policy Policy) []QualifiedEntry {
	qualified := make([]QualifiedEntry, 0, len(current))
	seen := make(map[string]bool, len(current))

	for _, p := range current {
		key := leaderboard.NormalizeUsername(p.Username)
		if key == "" || seen[key] {
			// The provider occasionally repeats entries; the first one stands.
			continue
		}
		seen[key] = true

		if p.Points < policy.MinimumTotalPoints {
			continue
		}

		if baseline == nil {
			qualified = append(qualified, QualifiedEntry{
				Username:    p.Username,
				TotalPoints: p.Points,
			})
			continue
		}

		baselinePoints := 0
		if prev, ok := baseline[key]; ok {
			baselinePoints = prev.Points
		}
		gain := p.Points - baselinePoints
		if gain < policy.MinimumGain {
			continue
		}

		qualified = append(qualified, QualifiedEntry{
			Username:          p.Username,
			TotalPoints:       p.Points,
			GainSinceBaseline: gain,
		})
	}

	return qualified
}
