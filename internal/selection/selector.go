package selection

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"math/rand"
	"sort"
	"strconv"

	"github.com/pointsmarket/daily-draw-backend/internal/eligibility"
	"github.com/pointsmarket/daily-draw-backend/internal/leaderboard"
)

// seedBound keeps the derived seed in a small, human-checkable range.
const seedBound = 1_000_000

// hashLength is the length in hex characters of the stored selection hash.
const hashLength = 16

// ErrEmptyQualifiedSet is returned when there is nobody to draw from.
// Callers treat it as "no winner this round", not as a failure.
var ErrEmptyQualifiedSet = errors.New("qualified set is empty")

// Result binds a round's inputs to its selected winner.
type Result struct {
	WinnerUsername string
	WinnerPoints   int
	RandomSeed     uint32
	SelectionHash  string
	TotalEligible  int
}

// Select picks exactly one winner from the qualified set.
//
// The function is pure: given the same (roundDate, entropyContext, qualified
// set contents) it returns the same winner and hash on every invocation,
// which is the auditability contract. The entropy context should carry a
// non-replayable input such as the selection wall-clock timestamp, so the
// outcome cannot be computed ahead of time.
//
// The seeded generator is local to this call and discarded before returning;
// no other code path can observe or be influenced by its state.
func Select(roundDate, entropyContext string, qualified []eligibility.QualifiedEntry) (Result, error) {
	if len(qualified) == 0 {
		return Result{}, ErrEmptyQualifiedSet
	}

	// Fix the ordering so the provider's fetch order cannot change the
	// outcome for an identical qualified set.
	entries := make([]eligibility.QualifiedEntry, len(qualified))
	copy(entries, qualified)
	sort.Slice(entries, func(i, j int) bool {
		a := leaderboard.NormalizeUsername(entries[i].Username)
		b := leaderboard.NormalizeUsername(entries[j].Username)
		if a != b {
			return a < b
		}
		return entries[i].Username < entries[j].Username
	})

	seed := deriveSeed(roundDate, entropyContext, len(entries))

	rng := rand.New(rand.NewSource(int64(seed)))
	winner := entries[rng.Intn(len(entries))]

	return Result{
		WinnerUsername: winner.Username,
		WinnerPoints:   winner.TotalPoints,
		RandomSeed:     seed,
		SelectionHash:  ComputeHash(roundDate, winner.Username, winner.TotalPoints, seed, len(entries)),
		TotalEligible:  len(entries),
	}, nil
}

// deriveSeed reduces a digest of the seed string to a seed in [0, seedBound).
func deriveSeed(roundDate, entropyContext string, totalEligible int) uint32 {
	seedString := roundDate + entropyContext + strconv.Itoa(totalEligible)
	digest := sha256.Sum256([]byte(seedString))
	prefix := hex.EncodeToString(digest[:])[:8]
	// The prefix is 8 hex characters and always parses.
	value, _ := strconv.ParseUint(prefix, 16, 64)
	return uint32(value % seedBound)
}

// ComputeHash derives the audit hash binding a round's inputs to its outcome.
// Recomputing it from a stored record must reproduce the stored value; any
// mismatch signals tampering or corruption.
func ComputeHash(roundDate, winnerUsername string, winnerPoints int, randomSeed uint32, totalEligible int) string {
	input := fmt.Sprintf("%s%s%d%d%d", roundDate, winnerUsername, winnerPoints, randomSeed, totalEligible)
	digest := sha256.Sum256([]byte(input))
	return hex.EncodeToString(digest[:])[:hashLength]
}

// Verify recomputes the selection hash for a stored outcome and reports
// whether it matches the stored value.
func Verify(roundDate, winnerUsername string, winnerPoints int, randomSeed uint32, totalEligible int, storedHash string) bool {
	return ComputeHash(roundDate, winnerUsername, winnerPoints, randomSeed, totalEligible) == storedHash
}
