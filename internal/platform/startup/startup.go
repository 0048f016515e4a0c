package startup

import (
	"fmt"

	"github.com/pointsmarket/daily-draw-backend/internal/lottery"
	"github.com/pointsmarket/daily-draw-backend/internal/platform/config"
	"github.com/pointsmarket/daily-draw-backend/internal/platform/database"
	"github.com/pointsmarket/daily-draw-backend/internal/platform/metadata"
	"github.com/pointsmarket/daily-draw-backend/internal/snapshot"
	"github.com/pointsmarket/daily-draw-backend/internal/winner"
)

// InitializeApplication 是应用首次启动时执行的总入口
func InitializeApplication(cfg *config.Config) error {
	fmt.Println("开始应用首次初始化...")

	if err := metadata.MigrateSchema(database.DB); err != nil {
		return fmt.Errorf("无法迁移元数据表结构: %w", err)
	}
	if err := snapshot.MigrateSchema(); err != nil {
		return fmt.Errorf("无法迁移快照表结构: %w", err)
	}
	if err := winner.PrimeModule(); err != nil {
		return err
	}
	if err := lottery.PrimeModule(cfg); err != nil {
		return err
	}

	fmt.Println("应用初始化完成！")
	return nil
}

// HandleRedisRecovery 在Redis从不健康状态恢复时，重建它承载的缓存。
// 台账是权威数据源，重建只是把权威数据重新灌回缓存。
func HandleRedisRecovery() {
	fmt.Println("检测到Redis已恢复，正在重建中奖缓存...")
	if err := winner.WarmupCache(); err != nil {
		fmt.Printf("警告: Redis恢复后的缓存重建失败: %v\n", err)
		return
	}
	fmt.Println("恢复后操作完成。")
}
