package lottery

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/pointsmarket/daily-draw-backend/internal/eligibility"
	"github.com/pointsmarket/daily-draw-backend/internal/leaderboard"
	"github.com/pointsmarket/daily-draw-backend/internal/platform/config"
	"github.com/pointsmarket/daily-draw-backend/internal/platform/database"
	"github.com/pointsmarket/daily-draw-backend/internal/platform/metadata"
	"github.com/pointsmarket/daily-draw-backend/internal/selection"
	"github.com/pointsmarket/daily-draw-backend/internal/snapshot"
	"github.com/pointsmarket/daily-draw-backend/internal/winner"
)

// pipelineMutex 粗粒度地串行化进程内的开奖流水线，避免两个触发者
// 同时抓取外部排行榜。这只是性能优化：跨进程的正确性
// 完全由台账的事务排他写保证。
var pipelineMutex sync.Mutex

// TriggerResult 是一次流水线执行的结果
type TriggerResult struct {
	// Created 表示本次调用创建了中奖记录；false且Winner非空表示
	// 其他触发者已先完成本轮开奖
	Created bool `json:"created"`

	// NoEligible 表示合格集为空，本轮暂无赢家（有效结果，不是错误）
	NoEligible bool `json:"no_eligible,omitempty"`

	Winner *winner.RecordDTO `json:"winner,omitempty"`
}

// RunSelection 执行一轮完整的开奖流水线：
// 抓取排行榜 → 写快照 → 资格判定 → 可验证选取 → 台账排他写。
// 对任何轮次重复调用都是安全的。
func RunSelection(ctx context.Context, roundDate string) (*TriggerResult, error) {
	pipelineMutex.Lock()
	defer pipelineMutex.Unlock()

	runID := uuid.NewString()[:8]

	// 0. 快速路径：本轮已有记录，直接返回
	existing, err := winner.GetWinnerForRound(roundDate)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return &TriggerResult{Created: false, Winner: existing}, nil
	}

	fmt.Printf("流水线[%s]: 开始 %s 轮次的开奖流程...\n", runID, roundDate)

	// 流水线结束时记录本次执行时刻，无论成败，供状态接口展示
	defer func() {
		if err := metadata.SetLastPipelineRunAt(database.DB, time.Now()); err != nil {
			fmt.Printf("流水线[%s]警告: 无法记录执行时刻: %v\n", runID, err)
		}
	}()

	// 1. 抓取当前排行榜（带超时，失败属于瞬态错误，由调用方决定重试）
	participants, err := moduleClient.FetchLeaderboard(ctx)
	if err != nil {
		return nil, fmt.Errorf("流水线[%s]: 抓取排行榜失败: %w", runID, err)
	}
	fmt.Printf("流水线[%s]: 抓取到 %d 名参与者。\n", runID, len(participants))

	// 2. 写入本轮快照（按日期覆盖写）
	takenAt := moduleClock.Now()
	if err := snapshot.Save(roundDate, takenAt, participants); err != nil {
		return nil, fmt.Errorf("流水线[%s]: %w", runID, err)
	}
	if err := metadata.SetLastSnapshotDate(database.DB, roundDate); err != nil {
		fmt.Printf("流水线[%s]警告: 无法记录快照日期: %v\n", runID, err)
	}

	// 3. 确定基线并做资格判定
	baselineDate, baselineIndex, err := resolveBaseline(roundDate)
	if err != nil {
		return nil, fmt.Errorf("流水线[%s]: %w", runID, err)
	}
	qualified := eligibility.Resolve(participants, baselineIndex, modulePolicy)

	if len(qualified) == 0 {
		// 有效的"本轮无赢家"结果：不写台账，当天晚些时候可以重试
		fmt.Printf("流水线[%s]: %s 轮次没有合格参与者，跳过开奖。\n", runID, roundDate)
		return &TriggerResult{NoEligible: true}, nil
	}
	fmt.Printf("流水线[%s]: %d 名参与者符合资格（基线: %s）。\n", runID, len(qualified), baselineLabel(baselineDate))

	// 4. 可验证选取。熵上下文使用选取时刻的挂钟时间戳：
	// 给定该上下文结果完全可复现，但上下文本身无法被提前预测
	selectedAt := time.Now()
	result, err := selection.Select(roundDate, selectedAt.Format(time.RFC3339Nano), qualified)
	if err != nil {
		return nil, fmt.Errorf("流水线[%s]: 选取失败: %w", runID, err)
	}

	// 5. 台账排他写；输掉竞争时回读已有记录
	created, dto, err := winner.CommitResult(roundDate, result, baselineDate, selectedAt)
	if err != nil {
		return nil, fmt.Errorf("流水线[%s]: %w", runID, err)
	}

	if created {
		fmt.Printf("流水线[%s]: %s 轮次开奖完成，中奖者 @%s（%d 积分，种子 %d，摘要 %s）。\n",
			runID, roundDate, dto.WinnerUsername, dto.WinnerPoints, dto.RandomSeed, dto.SelectionHash)
	} else {
		fmt.Printf("流水线[%s]: %s 轮次已由其他触发者完成，中奖者 @%s。\n",
			runID, roundDate, dto.WinnerUsername)
	}

	return &TriggerResult{Created: created, Winner: dto}, nil
}

// resolveBaseline 根据配置的策略确定基线快照。
// 返回的索引为nil表示基线模式（首轮、或引用的基线快照缺失）。
func resolveBaseline(roundDate string) (string, map[string]leaderboard.Participant, error) {
	var baselineDate string

	switch moduleMode {
	case config.ModeBaseline:
		return "", nil, nil

	case config.ModeFixed24h:
		day, err := time.Parse(RoundDateLayout, roundDate)
		if err != nil {
			return "", nil, fmt.Errorf("无法解析轮次日期 '%s': %w", roundDate, err)
		}
		baselineDate = day.AddDate(0, 0, -1).Format(RoundDateLayout)

	default: // config.ModeSinceLastRound
		prev, err := winner.LatestBefore(roundDate)
		if err != nil {
			return "", nil, err
		}
		if prev == nil {
			// 首轮：没有可链式引用的上一轮快照
			return "", nil, nil
		}
		baselineDate = prev.RoundDate
	}

	snap, err := snapshot.Load(baselineDate)
	if err != nil {
		return "", nil, err
	}
	if snap == nil {
		// 引用的基线快照缺失，回退到基线模式
		fmt.Printf("流水线: 基线快照 %s 缺失，回退到基线模式。\n", baselineDate)
		return "", nil, nil
	}

	index, err := snap.ByUser()
	if err != nil {
		return "", nil, err
	}
	return baselineDate, index, nil
}

func baselineLabel(baselineDate string) string {
	if baselineDate == "" {
		return "无，基线模式"
	}
	return baselineDate
}
