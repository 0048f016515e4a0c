package leaderboard

import "strings"

// Participant 是一次抓取周期内从外部排行榜取回的单个参与者。
// 它是瞬态数据，核心模块不会在抓取周期之外持有它。
type Participant struct {
	// Username 是参与者的唯一标识，比较时不区分大小写，展示时保留原始大小写
	Username string `json:"username"`

	// Points 是当前总积分
	Points int `json:"total_points"`

	// Rank 是排行榜名次，从1开始；抓取源未提供时为条目顺序
	Rank int `json:"rank"`

	// Transactions 是积分流水数，仅用于资格查询接口的展示
	Transactions int `json:"transactions"`

	// Upvotes / Downvotes 来自社区评分，仅用于资格查询接口的展示
	Upvotes   int `json:"upvotes"`
	Downvotes int `json:"downvotes"`
}

// NormalizeUsername 返回用于身份比较的规范形式。
// 排行榜方偶尔会改变用户名的大小写，身份判定必须不受影响。
func NormalizeUsername(username string) string {
	return strings.ToLower(strings.TrimSpace(strings.TrimPrefix(username, "@")))
}
