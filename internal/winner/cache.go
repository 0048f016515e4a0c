package winner

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/pointsmarket/daily-draw-backend/internal/platform/database"
	"github.com/redis/go-redis/v9"
)

// --- Redis 键名常量 ---

const (
	// CurrentWinnerKey 是一个 Redis String 的键，
	// 缓存当前中奖记录的JSON序列化，供面板接口高频读取。
	// SQLite/Postgres中的台账才是权威数据，缓存允许随时丢失。
	CurrentWinnerKey = "winner:current"
)

// loadCachedCurrent 从Redis读取当前中奖记录；缓存未命中时返回 (nil, nil)。
func loadCachedCurrent() (*RoundRecord, error) {
	payload, err := database.RDB.Get(database.Ctx, CurrentWinnerKey).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return nil, fmt.Errorf("无法从Redis读取当前中奖缓存: %w", err)
	}

	var rec RoundRecord
	if err := json.Unmarshal([]byte(payload), &rec); err != nil {
		return nil, fmt.Errorf("无法解析当前中奖缓存: %w", err)
	}
	return &rec, nil
}

// storeCachedCurrent 把当前中奖记录写入Redis缓存。
func storeCachedCurrent(rec *RoundRecord) error {
	payload, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("无法序列化当前中奖记录: %w", err)
	}
	if err := database.RDB.Set(database.Ctx, CurrentWinnerKey, payload, 0).Err(); err != nil {
		return fmt.Errorf("无法写入当前中奖缓存: %w", err)
	}
	return nil
}

// WarmupCache 用台账中的权威数据重建Redis缓存。
// 在启动时和Redis从故障中恢复后各执行一次。
func WarmupCache() error {
	rec, err := Current()
	if err != nil {
		return err
	}
	if rec == nil {
		return database.RDB.Del(database.Ctx, CurrentWinnerKey).Err()
	}
	return storeCachedCurrent(rec)
}
