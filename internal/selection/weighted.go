package selection

import "math/rand"

// WeightedEntry is one candidate in an engagement-weighted draw. This variant
// backs the simpler keyword sub-lottery, where heavier engagement buys a
// proportionally larger share of the odds; the primary daily round stays
// uniform over the qualified set.
type WeightedEntry struct {
	Username string
	// Weight must be >= 1; callers typically use 1 + engagement count.
	Weight int
}

// SelectWeighted draws one entry with probability proportional to its weight,
// using a local generator seeded from the supplied seed. Like Select, it is
// deterministic for identical inputs and leaves no shared generator state
// behind. Returns the zero value when the candidate list is empty.
func SelectWeighted(seed uint32, entries []WeightedEntry) (WeightedEntry, bool) {
	if len(entries) == 0 {
		return WeightedEntry{}, false
	}

	totalWeight := 0
	for _, e := range entries {
		if e.Weight > 0 {
			totalWeight += e.Weight
		}
	}

	rng := rand.New(rand.NewSource(int64(seed)))
	if totalWeight == 0 {
		return entries[rng.Intn(len(entries))], true
	}

	target := rng.Intn(totalWeight)
	running := 0
	for _, e := range entries {
		if e.Weight <= 0 {
			continue
		}
		running += e.Weight
		if target < running {
			return e, true
		}
	}
	// Unreachable: target < totalWeight by construction.
	return entries[len(entries)-1], true
}
