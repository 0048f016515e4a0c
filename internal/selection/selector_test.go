package selection

import (
	"math/rand"
	"testing"

	"github.com/pointsmarket/daily-draw-backend/internal/eligibility"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleQualified() []eligibility.QualifiedEntry {
	return []eligibility.QualifiedEntry{
		{Username: "alice", TotalPoints: 5, GainSinceBaseline: 2},
		{Username: "dave", TotalPoints: 1, GainSinceBaseline: 1},
		{Username: "carol", TotalPoints: 9, GainSinceBaseline: 3},
	}
}

// 相同输入必须产生完全相同的结果，这是可审计性契约
func TestSelectIsDeterministic(t *testing.T) {
	const roundDate = "2026-08-25"
	const entropy = "2026-08-25T00:10:03.123456789-04:00"

	first, err := Select(roundDate, entropy, sampleQualified())
	require.NoError(t, err)

	for i := 0; i < 10; i++ {
		again, err := Select(roundDate, entropy, sampleQualified())
		require.NoError(t, err)
		assert.Equal(t, first, again)
	}
}

// 抓取顺序不能影响结果：选取器内部会施加确定性排序
func TestSelectIsOrderIndependent(t *testing.T) {
	const roundDate = "2026-08-25"
	const entropy = "entropy-context"

	base, err := Select(roundDate, entropy, sampleQualified())
	require.NoError(t, err)

	shuffled := sampleQualified()
	rng := rand.New(rand.NewSource(42))
	for i := 0; i < 20; i++ {
		rng.Shuffle(len(shuffled), func(a, b int) {
			shuffled[a], shuffled[b] = shuffled[b], shuffled[a]
		})
		result, err := Select(roundDate, entropy, shuffled)
		require.NoError(t, err)
		assert.Equal(t, base, result)
	}
}

func TestSelectWinnerComesFromQualifiedSet(t *testing.T) {
	qualified := sampleQualified()
	result, err := Select("2026-08-25", "ctx", qualified)
	require.NoError(t, err)

	found := false
	for _, q := range qualified {
		if q.Username == result.WinnerUsername {
			found = true
			assert.Equal(t, q.TotalPoints, result.WinnerPoints)
		}
	}
	assert.True(t, found)
	assert.Equal(t, len(qualified), result.TotalEligible)
	assert.Less(t, result.RandomSeed, uint32(seedBound))
	assert.Len(t, result.SelectionHash, hashLength)
}

func TestSelectEmptySet(t *testing.T) {
	_, err := Select("2026-08-25", "ctx", nil)
	assert.ErrorIs(t, err, ErrEmptyQualifiedSet)
}

func TestVerifyRoundTrip(t *testing.T) {
	result, err := Select("2026-08-25", "ctx", sampleQualified())
	require.NoError(t, err)

	assert.True(t, Verify("2026-08-25", result.WinnerUsername, result.WinnerPoints,
		result.RandomSeed, result.TotalEligible, result.SelectionHash))

	// 任何字段被篡改都必须导致校验失败
	assert.False(t, Verify("2026-08-26", result.WinnerUsername, result.WinnerPoints,
		result.RandomSeed, result.TotalEligible, result.SelectionHash))
	assert.False(t, Verify("2026-08-25", result.WinnerUsername, result.WinnerPoints+1,
		result.RandomSeed, result.TotalEligible, result.SelectionHash))
	assert.False(t, Verify("2026-08-25", result.WinnerUsername, result.WinnerPoints,
		result.RandomSeed+1, result.TotalEligible, result.SelectionHash))
}

func TestDifferentEntropyCanChangeSeed(t *testing.T) {
	a, err := Select("2026-08-25", "entropy-a", sampleQualified())
	require.NoError(t, err)
	b, err := Select("2026-08-25", "entropy-b", sampleQualified())
	require.NoError(t, err)

	// 种子由熵上下文派生；不同上下文几乎必然得到不同种子
	assert.NotEqual(t, a.RandomSeed, b.RandomSeed)
}

func TestSelectWeightedDeterministic(t *testing.T) {
	entries := []WeightedEntry{
		{Username: "alice", Weight: 1},
		{Username: "bob", Weight: 5},
		{Username: "carol", Weight: 2},
	}

	first, ok := SelectWeighted(12345, entries)
	require.True(t, ok)
	for i := 0; i < 10; i++ {
		again, ok := SelectWeighted(12345, entries)
		require.True(t, ok)
		assert.Equal(t, first, again)
	}
}

func TestSelectWeightedZeroWeights(t *testing.T) {
	entries := []WeightedEntry{
		{Username: "alice", Weight: 0},
		{Username: "bob", Weight: 0},
	}
	picked, ok := SelectWeighted(7, entries)
	require.True(t, ok)
	assert.Contains(t, []string{"alice", "bob"}, picked.Username)
}

func TestSelectWeightedEmpty(t *testing.T) {
	_, ok := SelectWeighted(7, nil)
	assert.False(t, ok)
}

func TestSelectWeightedFavorsHeavierEntries(t *testing.T) {
	entries := []WeightedEntry{
		{Username: "light", Weight: 1},
		{Username: "heavy", Weight: 99},
	}

	heavyWins := 0
	for seed := uint32(0); seed < 200; seed++ {
		picked, ok := SelectWeighted(seed, entries)
		require.True(t, ok)
		if picked.Username == "heavy" {
			heavyWins++
		}
	}
	assert.Greater(t, heavyWins, 150)
}
