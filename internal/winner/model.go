package winner

import (
	"time"

	"gorm.io/gorm"
)

// RoundRecord 是开奖台账的基本单元：每个轮次日期至多一条中奖记录。
// 记录一旦写入便不再变更，唯一的例外是后续轮次创建时清除 IsCurrent 标志。
type RoundRecord struct {
	// gorm.Model 包含 ID, CreatedAt, UpdatedAt, DeletedAt
	gorm.Model

	// RoundDate 是轮次的日历日期（固定运营时区），格式 "2006-01-02"。
	// 数据库层的唯一索引是单轮单一中奖者不变量的最终防线，
	// 应用层的检查只是快速路径。
	RoundDate string `gorm:"uniqueIndex;not null;type:varchar(10)" json:"roundDate"`

	// WinnerUsername 是中奖者用户名，保留抓取时的原始大小写
	WinnerUsername string `gorm:"not null" json:"winnerUsername"`

	// WinnerPoints 是中奖者在开奖时刻的总积分
	WinnerPoints int `json:"winnerPoints"`

	// TotalEligible 是本轮合格参与者总数
	TotalEligible int `json:"totalEligible"`

	// RandomSeed 是可复现的选取种子
	RandomSeed uint32 `json:"randomSeed"`

	// SelectionHash 是绑定本轮输入与结果的审计摘要（16位hex）
	SelectionHash string `gorm:"type:varchar(16)" json:"selectionHash"`

	// SelectedAt 是完成选取的时刻
	SelectedAt time.Time `json:"selectedAt"`

	// IsCurrent 标记最新一轮的记录；全表中至多一条为true
	IsCurrent bool `gorm:"index" json:"isCurrent"`

	// BaselineSnapshotDate 记录本轮资格判定所使用的基线快照日期，
	// 空串表示基线模式（无基线）。下一轮将以本轮的快照为基线链式推进。
	BaselineSnapshotDate string `gorm:"type:varchar(10)" json:"baselineSnapshotDate"`
}
