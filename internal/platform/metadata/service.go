package metadata

import (
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// --- Generic Accessors ---

// GetValue retrieves a value for a given key from the metadata table.
func GetValue(db *gorm.DB, key string) (string, error) {
	var meta Metadata
	err := db.Where("key = ?", key).First(&meta).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			// If the key doesn't exist, return an empty string, which is a valid default.
			return "", nil
		}
		return "", err
	}
	return meta.Value, nil
}

// SetValue creates or updates a value for a given key.
func SetValue(db *gorm.DB, key, value string) error {
	// Use GORM's OnConflict clause for an efficient and atomic "upsert" operation.
	meta := Metadata{
		Key:   key,
		Value: value,
	}
	return db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "key"}},
		DoUpdates: clause.AssignmentColumns([]string{"value"}),
	}).Create(&meta).Error
}

// --- Specific Helpers for Type Conversion ---

// GetLastPipelineRunAt retrieves and parses the time of the last pipeline run.
// The zero time is returned when no run has been recorded yet.
func GetLastPipelineRunAt(db *gorm.DB) (time.Time, error) {
	valueStr, err := GetValue(db, LastPipelineRunAtKey)
	if err != nil {
		return time.Time{}, err
	}
	if valueStr == "" {
		return time.Time{}, nil
	}
	t, err := time.Parse(time.RFC3339, valueStr)
	if err != nil {
		return time.Time{}, fmt.Errorf("无法解析元数据 '%s' 的值: %w", LastPipelineRunAtKey, err)
	}
	return t, nil
}

// SetLastPipelineRunAt formats and sets the time of the last pipeline run.
func SetLastPipelineRunAt(db *gorm.DB, t time.Time) error {
	return SetValue(db, LastPipelineRunAtKey, t.Format(time.RFC3339))
}

// GetLastSnapshotDate retrieves the round date of the most recent snapshot.
func GetLastSnapshotDate(db *gorm.DB) (string, error) {
	return GetValue(db, LastSnapshotDateKey)
}

// SetLastSnapshotDate sets the round date of the most recent snapshot.
func SetLastSnapshotDate(db *gorm.DB, roundDate string) error {
	return SetValue(db, LastSnapshotDateKey, roundDate)
}

// MigrateSchema 创建元数据表
func MigrateSchema(db *gorm.DB) error {
	return db.AutoMigrate(&Metadata{})
}
