package lottery

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/pointsmarket/daily-draw-backend/internal/platform/config"
	"github.com/pointsmarket/daily-draw-backend/internal/platform/database"
	"github.com/pointsmarket/daily-draw-backend/internal/platform/metadata"
	"github.com/pointsmarket/daily-draw-backend/internal/snapshot"
	"github.com/pointsmarket/daily-draw-backend/internal/winner"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// fakeLeaderboard 是可变的排行榜桩，按调用时的内容响应JSON接口
type fakeLeaderboard struct {
	mu      sync.Mutex
	entries []map[string]any
}

func (f *fakeLeaderboard) set(entries []map[string]any) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.entries = entries
}

func (f *fakeLeaderboard) handler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		f.mu.Lock()
		defer f.mu.Unlock()
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]any{"leaderboard": f.entries})
	})
}

func entry(username string, points int) map[string]any {
	return map[string]any{"username": username, "points": points}
}

// setupPipeline 装配一套完整的测试流水线：内存数据库 + 排行榜桩
func setupPipeline(t *testing.T, mode config.EligibilityMode) *fakeLeaderboard {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", strings.ReplaceAll(t.Name(), "/", "_"))
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
	})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	database.DB = db
	database.UpdateStatus(false, "")
	require.NoError(t, metadata.MigrateSchema(db))
	require.NoError(t, snapshot.MigrateSchema())
	require.NoError(t, winner.MigrateSchema())

	board := &fakeLeaderboard{}
	server := httptest.NewServer(board.handler())
	t.Cleanup(server.Close)

	cfg := &config.Config{
		Draw: config.DrawConfig{
			Timezone:           "America/New_York",
			BoundaryTime:       "00:05",
			GraceMinutes:       5,
			TickSeconds:        60,
			MinimumTotalPoints: 1,
			MinimumGain:        1,
			EligibilityMode:    mode,
		},
		Leaderboard: config.LeaderboardConfig{
			BaseURL:        server.URL,
			TimeoutSeconds: 5,
			UserAgent:      "draw-backend-test",
		},
	}
	require.NoError(t, PrimeModule(cfg))
	return board
}

func TestRunSelectionFirstRoundCreatesRecord(t *testing.T) {
	board := setupPipeline(t, config.ModeSinceLastRound)
	board.set([]map[string]any{entry("alice", 5), entry("bob", 0), entry("carol", 2)})

	result, err := RunSelection(context.Background(), "2026-08-25")
	require.NoError(t, err)
	require.NotNil(t, result)
	assert.True(t, result.Created)
	assert.False(t, result.NoEligible)
	require.NotNil(t, result.Winner)

	// 首轮没有上一轮可引用，走基线模式：bob积分为0被排除
	assert.Equal(t, 2, result.Winner.TotalEligible)
	assert.Contains(t, []string{"alice", "carol"}, result.Winner.WinnerUsername)
	assert.Empty(t, result.Winner.BaselineSnapshotDate)
	assert.True(t, result.Winner.IsCurrent)
	assert.True(t, result.Winner.HashVerified)

	// 快照同步落库
	snap, err := snapshot.Load("2026-08-25")
	require.NoError(t, err)
	require.NotNil(t, snap)
	assert.Equal(t, 3, snap.TotalParticipants)
}

// 同一轮的重复触发是幂等的：第二次返回已有结果而不重新开奖
func TestRunSelectionIsIdempotentForSameRound(t *testing.T) {
	board := setupPipeline(t, config.ModeSinceLastRound)
	board.set([]map[string]any{entry("alice", 5)})

	first, err := RunSelection(context.Background(), "2026-08-25")
	require.NoError(t, err)
	require.True(t, first.Created)

	second, err := RunSelection(context.Background(), "2026-08-25")
	require.NoError(t, err)
	assert.False(t, second.Created)
	require.NotNil(t, second.Winner)
	assert.Equal(t, first.Winner.WinnerUsername, second.Winner.WinnerUsername)
	assert.Equal(t, first.Winner.SelectionHash, second.Winner.SelectionHash)
}

func TestRunSelectionConcurrentTriggersSingleRecord(t *testing.T) {
	board := setupPipeline(t, config.ModeSinceLastRound)
	board.set([]map[string]any{entry("alice", 5), entry("carol", 2)})

	const triggers = 4
	var wg sync.WaitGroup
	results := make([]*TriggerResult, triggers)
	errs := make([]error, triggers)
	for i := 0; i < triggers; i++ {
		wg.Add(1)
		go func(idx int) {
			defer wg.Done()
			results[idx], errs[idx] = RunSelection(context.Background(), "2026-08-25")
		}(i)
	}
	wg.Wait()

	createdCount := 0
	for i := 0; i < triggers; i++ {
		require.NoError(t, errs[i])
		require.NotNil(t, results[i].Winner)
		if results[i].Created {
			createdCount++
		}
	}
	assert.Equal(t, 1, createdCount)

	var count int64
	require.NoError(t, database.DB.Model(&winner.RoundRecord{}).Count(&count).Error)
	assert.EqualValues(t, 1, count)
}

// 合格集为空不是错误：不写台账，上游恢复后同一轮可以重试成功
func TestRunSelectionEmptyQualifiedSetThenRetry(t *testing.T) {
	board := setupPipeline(t, config.ModeSinceLastRound)
	board.set([]map[string]any{entry("bob", 0)})

	result, err := RunSelection(context.Background(), "2026-08-25")
	require.NoError(t, err)
	assert.True(t, result.NoEligible)
	assert.Nil(t, result.Winner)

	rec, err := winner.GetWinnerForRound("2026-08-25")
	require.NoError(t, err)
	assert.Nil(t, rec)

	// 排行榜更新后重试
	board.set([]map[string]any{entry("bob", 3)})
	result, err = RunSelection(context.Background(), "2026-08-25")
	require.NoError(t, err)
	assert.True(t, result.Created)
	assert.Equal(t, "bob", result.Winner.WinnerUsername)
}

// since-last-round 策略：第二轮以第一轮的快照为基线，只有涨分者入围
func TestRunSelectionChainsBaselineAcrossRounds(t *testing.T) {
	board := setupPipeline(t, config.ModeSinceLastRound)

	board.set([]map[string]any{entry("alice", 5), entry("bob", 3)})
	first, err := RunSelection(context.Background(), "2026-08-24")
	require.NoError(t, err)
	require.True(t, first.Created)

	// 第二轮只有alice涨了分
	board.set([]map[string]any{entry("alice", 8), entry("bob", 3)})
	second, err := RunSelection(context.Background(), "2026-08-25")
	require.NoError(t, err)
	require.True(t, second.Created)
	assert.Equal(t, "alice", second.Winner.WinnerUsername)
	assert.Equal(t, 1, second.Winner.TotalEligible)
	assert.Equal(t, "2026-08-24", second.Winner.BaselineSnapshotDate)
}

// fixed-24h 策略：基线是前一日历日的快照，缺失时回退到基线模式
func TestRunSelectionFixed24hFallsBackWhenSnapshotMissing(t *testing.T) {
	board := setupPipeline(t, config.ModeFixed24h)
	board.set([]map[string]any{entry("alice", 5)})

	result, err := RunSelection(context.Background(), "2026-08-25")
	require.NoError(t, err)
	require.True(t, result.Created)
	assert.Empty(t, result.Winner.BaselineSnapshotDate)
}

func TestRunSelectionFetchFailureIsTransient(t *testing.T) {
	setupPipeline(t, config.ModeSinceLastRound)

	// 指向一个已关闭的服务器地址
	dead := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	deadURL := dead.URL
	dead.Close()
	require.NoError(t, PrimeModule(&config.Config{
		Draw: config.DrawConfig{
			Timezone:           "America/New_York",
			BoundaryTime:       "00:05",
			MinimumTotalPoints: 1,
			MinimumGain:        1,
			EligibilityMode:    config.ModeSinceLastRound,
		},
		Leaderboard: config.LeaderboardConfig{BaseURL: deadURL, TimeoutSeconds: 1},
	}))

	_, err := RunSelection(context.Background(), "2026-08-25")
	require.Error(t, err)

	// 失败的轮次不留任何台账痕迹，下一个tick可以干净地重试
	rec, err := winner.GetWinnerForRound("2026-08-25")
	require.NoError(t, err)
	assert.Nil(t, rec)
}
