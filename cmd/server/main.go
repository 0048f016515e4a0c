package main

import (
	"fmt"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/pointsmarket/daily-draw-backend/api"
	"github.com/pointsmarket/daily-draw-backend/internal/lottery"
	"github.com/pointsmarket/daily-draw-backend/internal/platform/config"
	"github.com/pointsmarket/daily-draw-backend/internal/platform/database"
	"github.com/pointsmarket/daily-draw-backend/internal/platform/health"
	"github.com/pointsmarket/daily-draw-backend/internal/platform/shutdown"
	"github.com/pointsmarket/daily-draw-backend/internal/platform/startup"
	"github.com/pointsmarket/daily-draw-backend/pkg/lifecycle"
)

func main() {
	// 1. 加载配置；时区等配置错误在这里和PrimeModule中尽早暴露
	cfg, err := config.LoadConfig()
	if err != nil {
		panic(fmt.Sprintf("无法加载配置: %v", err))
	}

	database.InitDB(cfg.Database)
	database.InitRedis(cfg.Database.Redis)

	// 2. 阻塞式获取初始Run ID
	health.InitializeRunID()

	// 3. 执行应用首次启动初始化流程
	if err := startup.InitializeApplication(cfg); err != nil {
		panic(fmt.Sprintf("应用初始化失败，无法启动: %v", err))
	}

	// 4. 阻塞式执行一次启动后健康检查
	fmt.Println("正在执行启动后健康检查...")
	health.PerformCheck()

	// 5. 创建生命周期管理器并启动后台服务
	gracefulMgr := lifecycle.NewManager()
	forcefulMgr := lifecycle.NewManager()

	schedulerHandle, err := gracefulMgr.NewServiceHandle("开奖调度器")
	if err != nil {
		panic(err)
	}
	go lottery.StartScheduler(schedulerHandle)

	healthHandle, err := gracefulMgr.NewServiceHandle("Redis健康检查器")
	if err != nil {
		panic(err)
	}
	go health.StartRedisHealthCheck(healthHandle)

	// 6. 装配HTTP服务
	gin.SetMode(cfg.Server.Mode)
	r := gin.Default()
	r.Use(cors.New(cors.Config{
		AllowOrigins:     cfg.Server.Cors.AllowedOrigins,
		AllowMethods:     []string{"GET", "POST", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	api.SetupRoutes(r)

	server := &http.Server{
		Addr:    cfg.Server.Address,
		Handler: r,
	}

	go func() {
		fmt.Printf("服务器已准备就绪，开始监听 %s\n", cfg.Server.Address)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			panic("Failed to start server: " + err.Error())
		}
	}()

	// 7. 阻塞等待停机信号，编排两阶段优雅停机
	coordinator := shutdown.NewCoordinator(gracefulMgr, forcefulMgr)
	coordinator.ListenForSignalsAndShutdown(server)
}
