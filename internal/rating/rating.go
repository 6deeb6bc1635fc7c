// Package rating implements the logistic (Elo) rating update used at
// settlement. It is a pure calculation; persistence happens elsewhere.
package rating

import "math"

const (
	// KFactor is fixed for all matches.
	KFactor = 32
	// Default is the rating assigned to a player with no history.
	Default = 1000
)

// Score is the actual result from one player's perspective.
type Score float64

const (
	Win  Score = 1
	Draw Score = 0.5
	Loss Score = 0
)

// Expected returns the expected score of player against opponent.
func Expected(player, opponent int) float64 {
	return 1 / (1 + math.Pow(10, float64(opponent-player)/400))
}

// Delta returns the signed rating adjustment for player given the actual
// score against opponent.
func Delta(player, opponent int, actual Score) int {
	return int(math.Round(KFactor * (float64(actual) - Expected(player, opponent))))
}

// Deltas computes both adjustments from the same pre-match rating pair.
// scoreA is the first player's actual score; the second player receives the
// mirrored score.
func Deltas(a, b int, scoreA Score) (deltaA, deltaB int) {
	return Delta(a, b, scoreA), Delta(b, a, mirror(scoreA))
}

func mirror(s Score) Score {
	switch s {
	case Win:
		return Loss
	case Loss:
		return Win
	default:
		return Draw
	}
}
