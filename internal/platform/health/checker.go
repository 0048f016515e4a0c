package health

import (
	"context"
	"fmt"
	"regexp"
	"time"

	"github.com/pointsmarket/daily-draw-backend/internal/platform/database"
	"github.com/pointsmarket/daily-draw-backend/internal/platform/startup"
	"github.com/pointsmarket/daily-draw-backend/pkg/lifecycle"
)

const (
	checkInterval = 5 * time.Second
	pingTimeout   = 2 * time.Second
)

var runIDPattern = regexp.MustCompile(`run_id:([a-f0-9]+)`)

// getRedisRunID 从Redis服务器信息中提取run_id
func getRedisRunID() (string, error) {
	ctx, cancel := context.WithTimeout(database.Ctx, pingTimeout)
	defer cancel()
	info, err := database.RDB.Info(ctx, "server").Result()
	if err != nil {
		return "", err
	}
	matches := runIDPattern.FindStringSubmatch(info)
	if len(matches) < 2 {
		return "", fmt.Errorf("无法在Redis INFO中找到run_id")
	}
	return matches[1], nil
}

// InitializeRunID 在应用启动时执行一次，获取并设置初始的run_id。
func InitializeRunID() {
	fmt.Println("正在获取初始Redis Run ID...")
	runID, err := getRedisRunID()
	if err != nil {
		panic(fmt.Sprintf("无法在启动时获取Redis Run ID，请检查Redis服务: %v", err))
	}
	database.SetInitialRunID(runID)
	fmt.Printf("获取初始Redis Run ID成功: %s\n", runID)
}

// PerformCheck 执行一次完整的健康检查和可能的恢复操作。
// run_id发生变化意味着Redis经历了重启，它承载的缓存已经丢失，需要重建。
func PerformCheck() {
	currentRunID, err := getRedisRunID()
	if err != nil {
		// 无法连接到Redis，直接标记为不可用
		database.UpdateStatus(false, "")
		return
	}

	lastKnownRunID := database.GetLastKnownRunID()
	wasUnhealthy := !database.IsRedisHealthy()
	restarted := lastKnownRunID != "" && lastKnownRunID != currentRunID

	database.UpdateStatus(true, currentRunID)

	if wasUnhealthy || restarted {
		startup.HandleRedisRecovery()

		// 重建后再次核对run_id，确认期间Redis没有又一次重启
		idAfter, err := getRedisRunID()
		if err != nil || idAfter != currentRunID {
			fmt.Println("健康检查警告: 缓存重建期间Redis状态再次变化，重建结果不可信。")
			database.UpdateStatus(false, "")
		}
	}
}

// StartRedisHealthCheck 启动后台的持续健康检查循环。
func StartRedisHealthCheck(handle *lifecycle.Handle) {
	defer handle.Close()
	fmt.Println("Redis健康检查器已启动。")

	for {
		if err := handle.Sleep(checkInterval); err != nil {
			fmt.Println("Redis健康检查器: 收到停机信号，正在关闭...")
			return
		}
		PerformCheck()
	}
}
