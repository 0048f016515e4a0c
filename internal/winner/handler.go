package winner

import (
	"net/http"
	"regexp"

	"github.com/gin-gonic/gin"
)

// roundDatePattern 校验路径参数中的轮次日期格式
var roundDatePattern = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}$`)

// --- API 响应模型 ---

type CurrentWinnerResponse struct {
	Success bool       `json:"success"`
	Winner  *RecordDTO `json:"winner"`
}

type WinnerForRoundResponse struct {
	Success bool       `json:"success"`
	Winner  *RecordDTO `json:"winner"`
	Error   string     `json:"error,omitempty"`
}

type AllWinnersResponse struct {
	Success bool        `json:"success"`
	Winners []RecordDTO `json:"winners"`
	Total   int         `json:"total"`
}

// GetCurrentWinnerHandler 处理 GET /api/winners/current
func GetCurrentWinnerHandler(c *gin.Context) {
	dto, err := GetCurrentWinner()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, CurrentWinnerResponse{Success: dto != nil, Winner: dto})
}

// GetWinnerForRoundHandler 处理 GET /api/winners/:date
func GetWinnerForRoundHandler(c *gin.Context) {
	roundDate := c.Param("date")
	if !roundDatePattern.MatchString(roundDate) {
		c.JSON(http.StatusBadRequest, WinnerForRoundResponse{Success: false, Error: "日期格式应为 YYYY-MM-DD"})
		return
	}

	dto, err := GetWinnerForRound(roundDate)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "error": err.Error()})
		return
	}
	if dto == nil {
		c.JSON(http.StatusNotFound, WinnerForRoundResponse{Success: false, Error: "该轮次没有中奖记录"})
		return
	}
	c.JSON(http.StatusOK, WinnerForRoundResponse{Success: true, Winner: dto})
}

// GetAllWinnersHandler 处理 GET /api/winners
func GetAllWinnersHandler(c *gin.Context) {
	dtos, err := GetAllWinners()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, AllWinnersResponse{Success: true, Winners: dtos, Total: len(dtos)})
}
