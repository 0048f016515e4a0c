package snapshot

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/pointsmarket/daily-draw-backend/internal/leaderboard"
	"gorm.io/gorm"
)

// Snapshot 定义了数据库中排行榜快照的数据结构。
// 每个轮次日期最多保留一份快照，重复写入时后写的覆盖先写的。
type Snapshot struct {
	// gorm.Model 包含 ID, CreatedAt, UpdatedAt, DeletedAt
	gorm.Model

	// RoundDate 是快照所属轮次的日历日期，格式 "2006-01-02"，
	// 以固定运营时区计算。它是业务逻辑中的主键。
	RoundDate string `gorm:"uniqueIndex;not null;type:varchar(10)" json:"roundDate"`

	// TakenAt 是实际抓取排行榜的时刻
	TakenAt time.Time `json:"takenAt"`

	// TotalParticipants 是快照内的参与者总数
	TotalParticipants int `json:"totalParticipants"`

	// Participants 是参与者列表的JSON序列化，保留原始大小写
	Participants string `gorm:"type:text" json:"-"`
}

// Decode 反序列化快照中的参与者列表
func (s *Snapshot) Decode() ([]leaderboard.Participant, error) {
	var participants []leaderboard.Participant
	if err := json.Unmarshal([]byte(s.Participants), &participants); err != nil {
		return nil, fmt.Errorf("无法解析快照 %s 的参与者数据: %w", s.RoundDate, err)
	}
	return participants, nil
}

// ByUser 把快照内容建立为按规范化用户名索引的查找表。
// 资格判定需要不区分大小写地按用户名配对两份快照。
func (s *Snapshot) ByUser() (map[string]leaderboard.Participant, error) {
	participants, err := s.Decode()
	if err != nil {
		return nil, err
	}
	index := make(map[string]leaderboard.Participant, len(participants))
	for _, p := range participants {
		index[leaderboard.NormalizeUsername(p.Username)] = p
	}
	return index, nil
}
