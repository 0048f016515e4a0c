package snapshot

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/pointsmarket/daily-draw-backend/internal/leaderboard"
	"github.com/pointsmarket/daily-draw-backend/internal/platform/database"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Save 为指定轮次日期写入一份快照。
// 同一日期的旧快照会被整体覆盖（last-write-wins），调用方不能假设追加语义。
func Save(roundDate string, takenAt time.Time, participants []leaderboard.Participant) error {
	payload, err := json.Marshal(participants)
	if err != nil {
		return fmt.Errorf("无法序列化快照参与者数据: %w", err)
	}

	snap := Snapshot{
		RoundDate:         roundDate,
		TakenAt:           takenAt,
		TotalParticipants: len(participants),
		Participants:      string(payload),
	}

	// OnConflict 按 round_date 执行UPSERT，实现按日期覆盖写
	err = database.DB.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "round_date"}},
		DoUpdates: clause.AssignmentColumns([]string{"taken_at", "total_participants", "participants", "updated_at"}),
	}).Create(&snap).Error
	if err != nil {
		return fmt.Errorf("无法持久化 %s 的快照: %w", roundDate, err)
	}
	return nil
}

// Load 读取指定轮次日期的快照；不存在时返回 (nil, nil)。
func Load(roundDate string) (*Snapshot, error) {
	var snap Snapshot
	err := database.DB.Where("round_date = ?", roundDate).First(&snap).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("无法读取 %s 的快照: %w", roundDate, err)
	}
	return &snap, nil
}

// MigrateSchema 创建快照表
func MigrateSchema() error {
	return database.DB.AutoMigrate(&Snapshot{})
}
