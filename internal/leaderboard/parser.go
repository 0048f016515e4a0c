package leaderboard

import (
	"fmt"
	"io"
	"regexp"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

var digitsPattern = regexp.MustCompile(`\d+`)

// parseLeaderboardHTML 从排行榜页面的HTML中提取参与者。
// 页面结构：表格行或 .user-item 块，用户名在 .username 或首个链接里，
// 积分在 .points 或首个单元格里。
func parseLeaderboardHTML(body io.Reader) ([]Participant, error) {
	doc, err := goquery.NewDocumentFromReader(body)
	if err != nil {
		return nil, fmt.Errorf("无法解析排行榜HTML: %w", err)
	}

	rows := doc.Find("tr")
	if rows.Length() == 0 {
		rows = doc.Find("div.user-item")
	}

	var participants []Participant
	rows.Each(func(i int, row *goquery.Selection) {
		username := firstText(row, "span.username", "a")
		pointsText := firstText(row, "span.points", "td")
		points, ok := extractInt(pointsText)
		if username == "" || !ok {
			return
		}
		participants = append(participants, Participant{
			Username: username,
			Points:   points,
			Rank:     len(participants) + 1,
		})
	})

	return participants, nil
}

// firstText 依次尝试多个选择器，返回第一个非空的文本内容
func firstText(sel *goquery.Selection, selectors ...string) string {
	for _, s := range selectors {
		if text := strings.TrimSpace(sel.Find(s).First().Text()); text != "" {
			return text
		}
	}
	return ""
}

func extractInt(text string) (int, bool) {
	match := digitsPattern.FindString(strings.ReplaceAll(text, ",", ""))
	if match == "" {
		return 0, false
	}
	n, err := strconv.Atoi(match)
	if err != nil {
		return 0, false
	}
	return n, true
}
