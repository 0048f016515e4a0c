package winner

import (
	"fmt"
	"time"

	"github.com/pointsmarket/daily-draw-backend/internal/platform/database"
	"github.com/pointsmarket/daily-draw-backend/internal/selection"
)

// --- Service-Level Data Transfer Objects (DTOs) ---

// RecordDTO 是向控制器层暴露的中奖记录视图。
// 在读取时重新计算审计摘要：摘要不匹配意味着数据被篡改或损坏，
// 这样的记录绝不能被静默信任。
type RecordDTO struct {
	RoundDate            string    `json:"drawing_date"`
	WinnerUsername       string    `json:"username"`
	WinnerPoints         int       `json:"points"`
	TotalEligible        int       `json:"total_eligible"`
	RandomSeed           uint32    `json:"random_seed"`
	SelectionHash        string    `json:"selection_hash"`
	SelectedAt           time.Time `json:"selected_at"`
	IsCurrent            bool      `json:"is_current"`
	BaselineSnapshotDate string    `json:"baseline_snapshot_date,omitempty"`

	// HashVerified 为false时表示完整性校验失败，属于需要运维关注的严重问题
	HashVerified bool `json:"hash_verified"`
}

func toDTO(rec *RoundRecord) RecordDTO {
	verified := selection.Verify(
		rec.RoundDate, rec.WinnerUsername, rec.WinnerPoints,
		rec.RandomSeed, rec.TotalEligible, rec.SelectionHash,
	)
	if !verified {
		fmt.Printf("完整性错误: 轮次 %s 的中奖记录摘要校验失败，数据可能已被篡改！\n", rec.RoundDate)
	}
	return RecordDTO{
		RoundDate:            rec.RoundDate,
		WinnerUsername:       rec.WinnerUsername,
		WinnerPoints:         rec.WinnerPoints,
		TotalEligible:        rec.TotalEligible,
		RandomSeed:           rec.RandomSeed,
		SelectionHash:        rec.SelectionHash,
		SelectedAt:           rec.SelectedAt,
		IsCurrent:            rec.IsCurrent,
		BaselineSnapshotDate: rec.BaselineSnapshotDate,
		HashVerified:         verified,
	}
}

// GetCurrentWinner 返回当前轮次的中奖记录；台账为空时返回 (nil, nil)。
// Redis可用时优先走缓存，缓存缺失或不可用时回源台账并尽力回填。
func GetCurrentWinner() (*RecordDTO, error) {
	if database.IsRedisHealthy() {
		if cached, err := loadCachedCurrent(); err == nil && cached != nil {
			dto := toDTO(cached)
			return &dto, nil
		}
		// 缓存读取失败只降级，不影响结果
	}

	rec, err := Current()
	if err != nil {
		return nil, err
	}
	if rec == nil {
		return nil, nil
	}

	if database.IsRedisHealthy() {
		if err := storeCachedCurrent(rec); err != nil {
			fmt.Printf("警告: 回填当前中奖缓存失败: %v\n", err)
		}
	}

	dto := toDTO(rec)
	return &dto, nil
}

// GetWinnerForRound 返回指定轮次日期的中奖记录；不存在时返回 (nil, nil)。
func GetWinnerForRound(roundDate string) (*RecordDTO, error) {
	rec, err := ForRound(roundDate)
	if err != nil {
		return nil, err
	}
	if rec == nil {
		return nil, nil
	}
	dto := toDTO(rec)
	return &dto, nil
}

// GetAllWinners 返回按轮次日期升序排列的全部中奖记录。
func GetAllWinners() ([]RecordDTO, error) {
	records, err := All()
	if err != nil {
		return nil, err
	}
	dtos := make([]RecordDTO, 0, len(records))
	for i := range records {
		dtos = append(dtos, toDTO(&records[i]))
	}
	return dtos, nil
}

// CommitResult 把选取结果写入台账并刷新缓存，返回最终生效的记录。
// created=false 表示其他触发者先完成了写入，此时回读已有记录。
func CommitResult(roundDate string, result selection.Result, baselineSnapshotDate string, selectedAt time.Time) (bool, *RecordDTO, error) {
	rec := &RoundRecord{
		RoundDate:            roundDate,
		WinnerUsername:       result.WinnerUsername,
		WinnerPoints:         result.WinnerPoints,
		TotalEligible:        result.TotalEligible,
		RandomSeed:           result.RandomSeed,
		SelectionHash:        result.SelectionHash,
		SelectedAt:           selectedAt,
		BaselineSnapshotDate: baselineSnapshotDate,
	}

	created, err := Record(rec)
	if err != nil {
		return false, nil, err
	}

	if !created {
		existing, err := ForRound(roundDate)
		if err != nil {
			return false, nil, err
		}
		if existing == nil {
			// 竞争者写入后又被管理员删除，极端情况，按失败处理
			return false, nil, fmt.Errorf("轮次 %s 的记录在竞争后消失", roundDate)
		}
		rec = existing
	}

	if database.IsRedisHealthy() {
		if err := WarmupCache(); err != nil {
			fmt.Printf("警告: 开奖后刷新中奖缓存失败: %v\n", err)
		}
	}

	dto := toDTO(rec)
	return created, &dto, nil
}
