package database

import (
	"fmt"
	"log"
	"os"

	"github.com/pointsmarket/daily-draw-backend/internal/platform/config"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// DB 是一个全局的数据库句柄，供项目其他部分使用
var DB *gorm.DB

// InitDB 根据配置初始化数据库连接
// 开奖台账要求可跨进程共享的事务性存储，sqlite用于单机部署，postgres用于多副本部署
func InitDB(cfg config.DatabaseConfig) {
	var err error

	// GORM日志配置
	newLogger := logger.New(
		log.New(os.Stdout, "\r\n", log.LstdFlags),
		logger.Config{
			SlowThreshold: 0,
			LogLevel:      logger.Silent, // 在生产环境中可以设为Silent
			Colorful:      true,
		},
	)

	gormCfg := &gorm.Config{
		Logger: newLogger,
		// 把驱动的唯一约束冲突翻译为 gorm.ErrDuplicatedKey，
		// 台账依赖它来识别并发写入竞争
		TranslateError: true,
	}

	switch cfg.Driver {
	case "postgres":
		DB, err = gorm.Open(postgres.Open(cfg.Postgres.DSN), gormCfg)
	default:
		DB, err = gorm.Open(sqlite.Open(cfg.Sqlite.Path), gormCfg)
	}

	if err != nil {
		fmt.Println("连接数据库失败", err)
		panic(err)
	}

	if cfg.Driver == "sqlite" {
		// WAL模式允许后台调度器与HTTP触发器并发读写
		DB.Exec("PRAGMA journal_mode=WAL")
		DB.Exec("PRAGMA busy_timeout=5000")
	}

	fmt.Println("数据库连接成功！")
}
