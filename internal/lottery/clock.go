package lottery

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/pointsmarket/daily-draw-backend/internal/platform/config"
)

// RoundDateLayout 是轮次日期的统一格式
const RoundDateLayout = "2006-01-02"

// RoundClock 负责轮次边界的全部时间判定。
// 所有计算都在配置的固定民用时区内进行，绝不依赖宿主机的本地时区。
type RoundClock struct {
	loc            *time.Location
	boundaryHour   int
	boundaryMinute int
	grace          time.Duration
	tick           time.Duration
}

// NewRoundClock 根据配置构造轮次时钟。
// 时区或边界时刻无法解析属于致命配置错误：
// 调度器绝不能带着含糊的边界定义运行。
func NewRoundClock(cfg config.DrawConfig) (*RoundClock, error) {
	loc, err := time.LoadLocation(cfg.Timezone)
	if err != nil {
		return nil, fmt.Errorf("无法解析运营时区 '%s': %w", cfg.Timezone, err)
	}

	hour, minute, err := parseBoundaryTime(cfg.BoundaryTime)
	if err != nil {
		return nil, err
	}

	grace := time.Duration(cfg.GraceMinutes) * time.Minute
	tick := time.Duration(cfg.TickSeconds) * time.Second
	if tick <= 0 {
		tick = time.Minute
	}

	return &RoundClock{
		loc:            loc,
		boundaryHour:   hour,
		boundaryMinute: minute,
		grace:          grace,
		tick:           tick,
	}, nil
}

func parseBoundaryTime(value string) (int, int, error) {
	parts := strings.SplitN(value, ":", 2)
	if len(parts) != 2 {
		return 0, 0, fmt.Errorf("无法解析轮次边界时刻 '%s'，格式应为 HH:MM", value)
	}
	hour, err := strconv.Atoi(parts[0])
	if err != nil || hour < 0 || hour > 23 {
		return 0, 0, fmt.Errorf("无法解析轮次边界时刻 '%s'，格式应为 HH:MM", value)
	}
	minute, err := strconv.Atoi(parts[1])
	if err != nil || minute < 0 || minute > 59 {
		return 0, 0, fmt.Errorf("无法解析轮次边界时刻 '%s'，格式应为 HH:MM", value)
	}
	return hour, minute, nil
}

// Now 返回运营时区下的当前时刻
func (c *RoundClock) Now() time.Time {
	return time.Now().In(c.loc)
}

// TickInterval 返回调度器的轮询间隔
func (c *RoundClock) TickInterval() time.Duration {
	return c.tick
}

// RoundDate 返回指定时刻所属轮次的日历日期
func (c *RoundClock) RoundDate(now time.Time) string {
	return now.In(c.loc).Format(RoundDateLayout)
}

// BoundaryFor 返回指定轮次日期的边界时刻（民用时区挂钟时间）。
// time.Date 会自动完成标准时/夏令时的偏移解析。
func (c *RoundClock) BoundaryFor(roundDate string) (time.Time, error) {
	day, err := time.ParseInLocation(RoundDateLayout, roundDate, c.loc)
	if err != nil {
		return time.Time{}, fmt.Errorf("无法解析轮次日期 '%s': %w", roundDate, err)
	}
	return time.Date(day.Year(), day.Month(), day.Day(), c.boundaryHour, c.boundaryMinute, 0, 0, c.loc), nil
}

// CurrentRound 返回指定时刻所属的轮次日期，以及该轮允许开奖的最早时刻
// （边界过后再留出宽限期，等上游排行榜完成自己的更新周期）。
// 时刻早于fireAfter表示处于 armed/grace-wait 状态；
// 日期翻过去之后本轮就不再有机会，错过即跳过。
func (c *RoundClock) CurrentRound(now time.Time) (roundDate string, fireAfter time.Time) {
	roundDate = c.RoundDate(now)
	boundary, _ := c.BoundaryFor(roundDate) // 自身生成的日期必然可解析
	return roundDate, boundary.Add(c.grace)
}

// NextBoundary 返回下一次轮次边界的时刻，供状态接口展示
func (c *RoundClock) NextBoundary(now time.Time) time.Time {
	now = now.In(c.loc)
	boundary, _ := c.BoundaryFor(c.RoundDate(now))
	if !now.Before(boundary) {
		nextDay := now.AddDate(0, 0, 1)
		boundary, _ = c.BoundaryFor(c.RoundDate(nextDay))
	}
	return boundary
}
