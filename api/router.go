package api

import (
	"github.com/gin-gonic/gin"
	"github.com/pointsmarket/daily-draw-backend/internal/lottery"
	"github.com/pointsmarket/daily-draw-backend/internal/winner"
)

// SetupRoutes 注册项目的所有API路由
func SetupRoutes(router *gin.Engine) {
	api := router.Group("/api")
	{
		// 中奖记录相关的路由组（面板只读接口）
		winnerRoutes := api.Group("/winners")
		{
			winnerRoutes.GET("", winner.GetAllWinnersHandler)
			winnerRoutes.GET("/current", winner.GetCurrentWinnerHandler)
			winnerRoutes.GET("/:date", winner.GetWinnerForRoundHandler)
		}

		// 开奖相关的路由组
		lotteryRoutes := api.Group("/lottery")
		{
			// 手动触发开奖；授权校验由上游网关完成
			lotteryRoutes.POST("/trigger", lottery.TriggerSelectionHandler)
			lotteryRoutes.GET("/qualified", lottery.GetQualifiedHandler)
			lotteryRoutes.GET("/qualification", lottery.CheckQualificationHandler)
		}

		// 运维状态
		api.GET("/status", lottery.GetStatusHandler)
	}
}
