package leaderboard

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/pointsmarket/daily-draw-backend/internal/platform/config"
)

// Client 封装了对外部积分排行榜服务的访问。
// 排行榜方的失败都是瞬态的，由调用方（调度器）在下一个tick重试。
type Client struct {
	baseURL   string
	userAgent string
	http      *http.Client
}

// NewClient 根据配置创建排行榜客户端。
// 超时是强制的：卡死的网络调用绝不允许拖住调度器。
func NewClient(cfg config.LeaderboardConfig) *Client {
	timeout := time.Duration(cfg.TimeoutSeconds) * time.Second
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Client{
		baseURL:   cfg.BaseURL,
		userAgent: cfg.UserAgent,
		http:      &http.Client{Timeout: timeout},
	}
}

// apiLeaderboardResponse 对应排行榜JSON接口的响应结构
type apiLeaderboardResponse struct {
	Leaderboard []apiLeaderboardEntry `json:"leaderboard"`
}

type apiLeaderboardEntry struct {
	Username       string `json:"username"`
	Points         int    `json:"points"`
	Rank           int    `json:"rank"`
	Transactions   int    `json:"transactions"`
	CommunityScore struct {
		Upvotes   int `json:"upvotes"`
		Downvotes int `json:"downvotes"`
	} `json:"community_score"`
}

// FetchLeaderboard 返回当前的完整排行榜。
// 优先走JSON接口；接口不可用时回退到抓取HTML页面。
func (c *Client) FetchLeaderboard(ctx context.Context) ([]Participant, error) {
	participants, apiErr := c.fetchFromAPI(ctx)
	if apiErr == nil {
		return participants, nil
	}

	fmt.Printf("排行榜客户端: JSON接口不可用 (%v)，回退到HTML抓取。\n", apiErr)
	participants, htmlErr := c.fetchFromHTML(ctx)
	if htmlErr != nil {
		return nil, fmt.Errorf("排行榜抓取失败: api: %v; html: %w", apiErr, htmlErr)
	}
	return participants, nil
}

func (c *Client) fetchFromAPI(ctx context.Context) ([]Participant, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/api/leaderboard", nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", c.userAgent)

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("排行榜接口返回状态码 %d", resp.StatusCode)
	}

	var body apiLeaderboardResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, fmt.Errorf("无法解析排行榜JSON: %w", err)
	}

	participants := make([]Participant, 0, len(body.Leaderboard))
	for i, entry := range body.Leaderboard {
		if entry.Username == "" {
			continue
		}
		rank := entry.Rank
		if rank == 0 {
			rank = i + 1
		}
		participants = append(participants, Participant{
			Username:     entry.Username,
			Points:       entry.Points,
			Rank:         rank,
			Transactions: entry.Transactions,
			Upvotes:      entry.CommunityScore.Upvotes,
			Downvotes:    entry.CommunityScore.Downvotes,
		})
	}
	return participants, nil
}

func (c *Client) fetchFromHTML(ctx context.Context) ([]Participant, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/leaderboard", nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", c.userAgent)

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("排行榜页面返回状态码 %d", resp.StatusCode)
	}

	return parseLeaderboardHTML(resp.Body)
}

// GetUser 在当前排行榜中查找单个参与者（不区分大小写）。
// 供资格查询接口使用；找不到时返回 (nil, nil)。
func (c *Client) GetUser(ctx context.Context, username string) (*Participant, error) {
	participants, err := c.FetchLeaderboard(ctx)
	if err != nil {
		return nil, err
	}
	target := NormalizeUsername(username)
	for i := range participants {
		if NormalizeUsername(participants[i].Username) == target {
			return &participants[i], nil
		}
	}
	return nil, nil
}
