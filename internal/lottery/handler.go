package lottery

import (
	"fmt"
	"net/http"
	"sort"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/pointsmarket/daily-draw-backend/internal/eligibility"
	"github.com/pointsmarket/daily-draw-backend/internal/leaderboard"
	"github.com/pointsmarket/daily-draw-backend/internal/platform/database"
	"github.com/pointsmarket/daily-draw-backend/internal/platform/metadata"
)

// --- API 响应模型 ---

type TriggerResponse struct {
	Success    bool   `json:"success"`
	Created    bool   `json:"created"`
	NoEligible bool   `json:"no_eligible,omitempty"`
	Winner     any    `json:"winner,omitempty"`
	Error      string `json:"error,omitempty"`
}

type QualifiedUserResponse struct {
	Username    string `json:"username"`
	TotalPoints int    `json:"total_points"`
	Gain        int    `json:"gain"`
	Rank        int    `json:"rank"`
}

type QualifiedListResponse struct {
	Success   bool                    `json:"success"`
	Qualified []QualifiedUserResponse `json:"qualified"`
	Total     int                     `json:"total"`
}

type QualificationCheckResponse struct {
	Success      bool   `json:"success"`
	Username     string `json:"username"`
	TotalPoints  int    `json:"total_points,omitempty"`
	Rank         int    `json:"rank,omitempty"`
	Upvotes      int    `json:"upvotes,omitempty"`
	Downvotes    int    `json:"downvotes,omitempty"`
	Transactions int    `json:"transactions,omitempty"`
	Qualifies    bool   `json:"qualifies"`
	Message      string `json:"message"`
}

type StatusResponse struct {
	Success           bool   `json:"success"`
	Timezone          string `json:"timezone"`
	CurrentRound      string `json:"current_round"`
	NextBoundary      string `json:"next_boundary"`
	FireAfter         string `json:"fire_after"`
	LastPipelineRunAt string `json:"last_pipeline_run_at,omitempty"`
	LastSnapshotDate  string `json:"last_snapshot_date,omitempty"`
	RedisHealthy      bool   `json:"redis_healthy"`
}

// TriggerSelectionHandler 处理 POST /api/lottery/trigger —— 手动触发开奖。
// 授权校验由上游网关完成；与后台调度器并发调用是安全的，
// 台账的排他写保证同一轮次绝不会产生第二个中奖者。
func TriggerSelectionHandler(c *gin.Context) {
	roundDate := moduleClock.RoundDate(moduleClock.Now())

	result, err := RunSelection(c.Request.Context(), roundDate)
	if err != nil {
		c.JSON(http.StatusBadGateway, TriggerResponse{Success: false, Error: err.Error()})
		return
	}
	if result.NoEligible {
		c.JSON(http.StatusOK, TriggerResponse{Success: false, NoEligible: true, Error: "本轮没有合格参与者"})
		return
	}
	c.JSON(http.StatusOK, TriggerResponse{Success: true, Created: result.Created, Winner: result.Winner})
}

// GetQualifiedHandler 处理 GET /api/lottery/qualified —— 当前合格参与者预览。
// 每次调用实时抓取排行榜并按当前策略做资格判定，结果按积分降序编号。
func GetQualifiedHandler(c *gin.Context) {
	roundDate := moduleClock.RoundDate(moduleClock.Now())

	participants, err := moduleClient.FetchLeaderboard(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusBadGateway, gin.H{"success": false, "error": err.Error()})
		return
	}

	_, baselineIndex, err := resolveBaseline(roundDate)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "error": err.Error()})
		return
	}

	qualified := eligibility.Resolve(participants, baselineIndex, modulePolicy)
	sort.Slice(qualified, func(i, j int) bool {
		return qualified[i].TotalPoints > qualified[j].TotalPoints
	})

	users := make([]QualifiedUserResponse, 0, len(qualified))
	for i, q := range qualified {
		users = append(users, QualifiedUserResponse{
			Username:    q.Username,
			TotalPoints: q.TotalPoints,
			Gain:        q.GainSinceBaseline,
			Rank:        i + 1,
		})
	}

	c.JSON(http.StatusOK, QualifiedListResponse{Success: true, Qualified: users, Total: len(users)})
}

// CheckQualificationHandler 处理 GET /api/lottery/qualification?username=...
// 这是一个预览接口：只检查总积分门槛，最终资格以开奖时的基线判定为准。
func CheckQualificationHandler(c *gin.Context) {
	username := leaderboard.NormalizeUsername(c.Query("username"))
	if username == "" {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": "缺少username参数"})
		return
	}

	participant, err := moduleClient.GetUser(c.Request.Context(), username)
	if err != nil {
		c.JSON(http.StatusBadGateway, gin.H{"success": false, "error": err.Error()})
		return
	}
	if participant == nil {
		c.JSON(http.StatusOK, QualificationCheckResponse{
			Success:   false,
			Username:  username,
			Qualifies: false,
			Message:   fmt.Sprintf("@%s 不在排行榜上", username),
		})
		return
	}

	qualifies := participant.Points >= modulePolicy.MinimumTotalPoints
	verdict := "不符合资格"
	if qualifies {
		verdict = "符合资格"
	}
	c.JSON(http.StatusOK, QualificationCheckResponse{
		Success:      true,
		Username:     participant.Username,
		TotalPoints:  participant.Points,
		Rank:         participant.Rank,
		Upvotes:      participant.Upvotes,
		Downvotes:    participant.Downvotes,
		Transactions: participant.Transactions,
		Qualifies:    qualifies,
		Message:      fmt.Sprintf("@%s %s（%d 积分）", participant.Username, verdict, participant.Points),
	})
}

// GetStatusHandler 处理 GET /api/status —— 调度器与流水线的运维状态。
func GetStatusHandler(c *gin.Context) {
	now := moduleClock.Now()
	roundDate, fireAfter := moduleClock.CurrentRound(now)

	resp := StatusResponse{
		Success:      true,
		Timezone:     now.Location().String(),
		CurrentRound: roundDate,
		NextBoundary: moduleClock.NextBoundary(now).Format(time.RFC3339),
		FireAfter:    fireAfter.Format(time.RFC3339),
		RedisHealthy: database.IsRedisHealthy(),
	}

	if lastRun, err := metadata.GetLastPipelineRunAt(database.DB); err == nil && !lastRun.IsZero() {
		resp.LastPipelineRunAt = lastRun.Format(time.RFC3339)
	}
	if lastSnap, err := metadata.GetLastSnapshotDate(database.DB); err == nil {
		resp.LastSnapshotDate = lastSnap
	}

	c.JSON(http.StatusOK, resp)
}
