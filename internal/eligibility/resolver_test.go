package eligibility

import (
	"testing"

	"github.com/pointsmarket/daily-draw-backend/internal/leaderboard"
	"github.com/stretchr/testify/assert"
)

func defaultPolicy() Policy {
	return Policy{MinimumTotalPoints: 1, MinimumGain: 1}
}

func index(participants ...leaderboard.Participant) map[string]leaderboard.Participant {
	m := make(map[string]leaderboard.Participant, len(participants))
	for _, p := range participants {
		m[leaderboard.NormalizeUsername(p.Username)] = p
	}
	return m
}

func usernames(entries []QualifiedEntry) []string {
	names := make([]string, 0, len(entries))
	for _, e := range entries {
		names = append(names, e.Username)
	}
	return names
}

// 基线模式：没有上一轮快照时，所有积分达标者入围，增量记0
func TestResolveBaselineMode(t *testing.T) {
	current := []leaderboard.Participant{
		{Username: "alice", Points: 5},
		{Username: "bob", Points: 0},
		{Username: "carol", Points: 2},
	}

	qualified := Resolve(current, nil, defaultPolicy())

	assert.ElementsMatch(t, []string{"alice", "carol"}, usernames(qualified))
	for _, q := range qualified {
		assert.Equal(t, 0, q.GainSinceBaseline)
	}
}

// 增量模式：未涨分者出局，新参与者按基线0分计
func TestResolveGainMode(t *testing.T) {
	baseline := index(
		leaderboard.Participant{Username: "alice", Points: 3},
		leaderboard.Participant{Username: "bob", Points: 2},
	)
	current := []leaderboard.Participant{
		{Username: "alice", Points: 5},
		{Username: "bob", Points: 2},
		{Username: "dave", Points: 1},
	}

	qualified := Resolve(current, baseline, defaultPolicy())

	assert.ElementsMatch(t, []string{"alice", "dave"}, usernames(qualified))
	byName := make(map[string]QualifiedEntry)
	for _, q := range qualified {
		byName[q.Username] = q
	}
	assert.Equal(t, 2, byName["alice"].GainSinceBaseline)
	assert.Equal(t, 1, byName["dave"].GainSinceBaseline)
}

func TestResolveNegativeGainNeverQualifies(t *testing.T) {
	baseline := index(leaderboard.Participant{Username: "alice", Points: 10})
	current := []leaderboard.Participant{
		{Username: "alice", Points: 7}, // 掉分，即使总分达标也出局
	}

	qualified := Resolve(current, baseline, defaultPolicy())
	assert.Empty(t, qualified)
}

func TestResolveNewEntrantBelowThresholds(t *testing.T) {
	baseline := index(leaderboard.Participant{Username: "alice", Points: 3})
	current := []leaderboard.Participant{
		{Username: "newbie", Points: 0},
	}

	qualified := Resolve(current, baseline, defaultPolicy())
	assert.Empty(t, qualified)
}

func TestResolveCaseInsensitiveBaselineLookup(t *testing.T) {
	baseline := index(leaderboard.Participant{Username: "Alice", Points: 3})
	current := []leaderboard.Participant{
		{Username: "ALICE", Points: 4},
	}

	qualified := Resolve(current, baseline, defaultPolicy())
	assert.Len(t, qualified, 1)
	assert.Equal(t, 1, qualified[0].GainSinceBaseline)
	// 展示用的大小写保留当前快照的形式
	assert.Equal(t, "ALICE", qualified[0].Username)
}

func TestResolveDeduplicatesCurrentEntries(t *testing.T) {
	current := []leaderboard.Participant{
		{Username: "alice", Points: 5},
		{Username: "Alice", Points: 3},
	}

	qualified := Resolve(current, nil, defaultPolicy())
	assert.Len(t, qualified, 1)
	assert.Equal(t, 5, qualified[0].TotalPoints)
}

func TestResolveEmptyQualifiedSetIsValid(t *testing.T) {
	qualified := Resolve(nil, nil, defaultPolicy())
	assert.Empty(t, qualified)

	qualified = Resolve([]leaderboard.Participant{{Username: "bob", Points: 0}}, nil, defaultPolicy())
	assert.Empty(t, qualified)
}

func TestResolveHigherThresholds(t *testing.T) {
	policy := Policy{MinimumTotalPoints: 10, MinimumGain: 3}
	baseline := index(
		leaderboard.Participant{Username: "alice", Points: 8},
		leaderboard.Participant{Username: "bob", Points: 20},
	)
	current := []leaderboard.Participant{
		{Username: "alice", Points: 12}, // 增量4，总分12，双达标
		{Username: "bob", Points: 22},   // 总分达标但增量只有2
	}

	qualified := Resolve(current, baseline, policy)
	assert.ElementsMatch(t, []string{"alice"}, usernames(qualified))
}
