package winner

import "fmt"

// PrimeModule 在应用启动时初始化台账模块：
// 建表、修复 is_current 不变量、预热当前中奖缓存。
func PrimeModule() error {
	if err := MigrateSchema(); err != nil {
		return fmt.Errorf("无法迁移台账表结构: %w", err)
	}
	if err := RepairCurrentFlag(); err != nil {
		return fmt.Errorf("无法修复当前中奖标志: %w", err)
	}
	if err := WarmupCache(); err != nil {
		// 缓存预热失败不阻塞启动，台账本身仍然可用
		fmt.Printf("警告: 中奖缓存预热失败: %v\n", err)
	}
	fmt.Println("台账模块初始化完成。")
	return nil
}
