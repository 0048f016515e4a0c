package winner

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/pointsmarket/daily-draw-backend/internal/platform/database"
	"gorm.io/gorm"
)

// errAlreadyRecorded 是事务内部使用的哨兵错误，
// 表示本轮已有中奖记录，事务应整体回滚。
var errAlreadyRecorded = errors.New("本轮已有中奖记录")

// Record 尝试为一个轮次写入中奖记录，返回是否由本次调用创建。
//
// 幂等契约：该轮已有记录时返回 (false, nil) 而不是错误，
// 因此后台调度器和手动触发接口可以放心地重复调用。
// 并发契约：两个调用者同时写同一轮时，恰好一个成功；
// 输掉竞争的一方依靠唯一索引冲突被识别，同样得到 (false, nil)。
func Record(rec *RoundRecord) (bool, error) {
	const maxRetry = 3
	const delay = 50 * time.Millisecond

	var err error
	for i := 0; i < maxRetry; i++ {
		err = database.DB.Transaction(func(tx *gorm.DB) error {
			// 1. 事务内先检查是否已有记录（快速路径）
			var existing RoundRecord
			findErr := tx.Where("round_date = ?", rec.RoundDate).First(&existing).Error
			if findErr == nil {
				return errAlreadyRecorded
			}
			if !errors.Is(findErr, gorm.ErrRecordNotFound) {
				return fmt.Errorf("无法检查 %s 的已有记录: %w", rec.RoundDate, findErr)
			}

			// 2. 清除其他轮次的当前标志，保证全表至多一条 is_current
			clearErr := tx.Model(&RoundRecord{}).
				Where("is_current = ? AND round_date <> ?", true, rec.RoundDate).
				Update("is_current", false).Error
			if clearErr != nil {
				return fmt.Errorf("无法清除旧的当前中奖标志: %w", clearErr)
			}

			// 3. 插入新记录；round_date 上的唯一索引兜底并发竞争
			rec.IsCurrent = true
			if createErr := tx.Create(rec).Error; createErr != nil {
				return createErr
			}
			return nil
		})

		if err == nil {
			return true, nil
		}
		if errors.Is(err, errAlreadyRecorded) || isDuplicateKeyError(err) {
			// 其他写入者赢得了竞争，视为正常结果而非错误
			return false, nil
		}
		if !database.IsRetryableError(err) {
			break
		}
		time.Sleep(delay)
	}
	return false, fmt.Errorf("无法写入 %s 的中奖记录: %w", rec.RoundDate, err)
}

// isDuplicateKeyError 识别唯一约束冲突。
// TranslateError 覆盖了主流驱动；字符串匹配兜底SQLite的原始错误。
func isDuplicateKeyError(err error) bool {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	msg := err.Error()
	return strings.Contains(msg, "UNIQUE constraint failed") ||
		strings.Contains(msg, "duplicate key value")
}

// ForRound 返回指定轮次日期的中奖记录；不存在时返回 (nil, nil)。
func ForRound(roundDate string) (*RoundRecord, error) {
	var rec RoundRecord
	err := database.DB.Where("round_date = ?", roundDate).First(&rec).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("无法读取 %s 的中奖记录: %w", roundDate, err)
	}
	return &rec, nil
}

// Current 返回当前轮次的中奖记录；台账为空时返回 (nil, nil)。
func Current() (*RoundRecord, error) {
	var rec RoundRecord
	err := database.DB.Where("is_current = ?", true).
		Order("selected_at desc").First(&rec).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("无法读取当前中奖记录: %w", err)
	}
	return &rec, nil
}

// All 返回全部中奖记录，按轮次日期升序。
func All() ([]RoundRecord, error) {
	var records []RoundRecord
	if err := database.DB.Order("round_date asc").Find(&records).Error; err != nil {
		return nil, fmt.Errorf("无法读取中奖历史: %w", err)
	}
	return records, nil
}

// LatestBefore 返回早于指定轮次日期的最近一条记录；不存在时返回 (nil, nil)。
// 资格判定用它来确定"自上一轮以来"的基线快照日期。
func LatestBefore(roundDate string) (*RoundRecord, error) {
	var rec RoundRecord
	err := database.DB.Where("round_date < ?", roundDate).
		Order("round_date desc").First(&rec).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("无法读取 %s 之前的中奖记录: %w", roundDate, err)
	}
	return &rec, nil
}

// RepairCurrentFlag 修复 is_current 不变量：只保留日期最新的记录为当前。
// 历史版本的写入路径存在过先清零再插入失败的窗口，启动时统一纠正。
func RepairCurrentFlag() error {
	return database.DB.Transaction(func(tx *gorm.DB) error {
		var latest RoundRecord
		err := tx.Order("round_date desc").First(&latest).Error
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil // 台账为空
			}
			return err
		}

		if err := tx.Model(&RoundRecord{}).
			Where("round_date <> ?", latest.RoundDate).
			Where("is_current = ?", true).
			Update("is_current", false).Error; err != nil {
			return err
		}
		return tx.Model(&RoundRecord{}).
			Where("round_date = ?", latest.RoundDate).
			Update("is_current", true).Error
	})
}

// MigrateSchema 创建台账表
func MigrateSchema() error {
	return database.DB.AutoMigrate(&RoundRecord{})
}
