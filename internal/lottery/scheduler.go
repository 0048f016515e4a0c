package lottery

import (
	"context"
	"errors"
	"fmt"

	"github.com/pointsmarket/daily-draw-backend/internal/winner"
	"github.com/pointsmarket/daily-draw-backend/pkg/lifecycle"
)

// StartScheduler 启动轮次时钟的后台轮询循环。
// 它持有自己的全部状态；"已处理到哪一轮"在进程重启后
// 通过查询台账重新推导，而不是信任内存记忆。
func StartScheduler(handle *lifecycle.Handle) {
	defer handle.Close()
	fmt.Println("开奖调度器已启动。")

	// 空串表示尚未处理任何轮次
	lastProcessed := ""

	for {
		// 可中断的休眠：收到停机信号时立刻退出，绝不忙等
		if err := handle.Sleep(moduleClock.TickInterval()); err != nil {
			fmt.Println("开奖调度器: 收到停机信号，正在关闭...")
			return
		}
		lastProcessed = tickOnce(handle.Ctx(), lastProcessed)
	}
}

// tickOnce 执行一次调度检查，返回新的"最近已处理轮次"。
// 任何瞬态失败都不推进该标记，从而保证下一个tick继续重试，
// 直到成功开奖或轮次日期翻篇（错过的轮次按业务约定直接跳过）。
func tickOnce(ctx context.Context, lastProcessed string) string {
	now := moduleClock.Now()
	roundDate, fireAfter := moduleClock.CurrentRound(now)

	if roundDate == lastProcessed {
		// cool-down: 等待下一个轮次边界
		return lastProcessed
	}
	if now.Before(fireAfter) {
		// armed / grace-wait: 边界未到或仍在宽限期内
		return lastProcessed
	}

	// 重启恢复 / 多副本场景：先查台账，已有记录则直接推进
	existing, err := winner.ForRound(roundDate)
	if err != nil {
		fmt.Printf("开奖调度器错误: 无法查询 %s 的台账记录: %v\n", roundDate, err)
		return lastProcessed
	}
	if existing != nil {
		fmt.Printf("开奖调度器: %s 轮次已有中奖记录（@%s），跳过。\n", roundDate, existing.WinnerUsername)
		return roundDate
	}

	result, err := RunSelection(ctx, roundDate)
	if err != nil {
		// 停机导致的取消静默退出，其余瞬态错误等下一个tick重试
		if !errors.Is(err, context.Canceled) {
			fmt.Printf("开奖调度器错误: %v，将在下一个tick重试。\n", err)
		}
		return lastProcessed
	}
	if result.NoEligible {
		// 合格集为空不算处理完成，同一轮次内晚些时候继续重试
		return lastProcessed
	}

	return roundDate
}
