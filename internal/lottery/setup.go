package lottery

import (
	"fmt"

	"github.com/pointsmarket/daily-draw-backend/internal/eligibility"
	"github.com/pointsmarket/daily-draw-backend/internal/leaderboard"
	"github.com/pointsmarket/daily-draw-backend/internal/platform/config"
)

// --- 模块级依赖 ---
// 启动时装配一次，之后只读

var (
	moduleClock  *RoundClock
	moduleClient *leaderboard.Client
	modulePolicy eligibility.Policy
	moduleMode   config.EligibilityMode
)

// PrimeModule 在应用启动时装配开奖模块的依赖。
// 时钟构造失败（时区/边界配置错误）是致命的，必须阻止应用启动。
func PrimeModule(cfg *config.Config) error {
	clock, err := NewRoundClock(cfg.Draw)
	if err != nil {
		return fmt.Errorf("无法初始化轮次时钟: %w", err)
	}

	moduleClock = clock
	moduleClient = leaderboard.NewClient(cfg.Leaderboard)
	modulePolicy = eligibility.Policy{
		MinimumTotalPoints: cfg.Draw.MinimumTotalPoints,
		MinimumGain:        cfg.Draw.MinimumGain,
	}
	moduleMode = cfg.Draw.EligibilityMode

	fmt.Printf("开奖模块初始化完成（时区 %s，边界 %s，策略 %s）。\n",
		cfg.Draw.Timezone, cfg.Draw.BoundaryTime, cfg.Draw.EligibilityMode)
	return nil
}

// Clock 暴露轮次时钟，供状态接口之外的调用方（如main）使用
func Clock() *RoundClock {
	return moduleClock
}
