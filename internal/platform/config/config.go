package config

import (
	"fmt"
	"strings"

	"github.com/spf13/viper"
)

// Cfg 是一个全局变量，用于存储所有应用程序的配置
var Cfg *Config

// EligibilityMode 表示资格判定使用的基线策略
type EligibilityMode string

const (
	// ModeBaseline 只要求当前积分达标，不比较基线（首轮或无历史数据时的策略）
	ModeBaseline EligibilityMode = "baseline"
	// ModeSinceLastRound 以上一轮开奖记录引用的快照为基线（默认策略）
	ModeSinceLastRound EligibilityMode = "since-last-round"
	// ModeFixed24h 以前一个日历日的快照为基线
	ModeFixed24h EligibilityMode = "fixed-24h"
)

// Config 结构体定义了应用程序的所有配置项
// 它与 config.yaml 文件的结构完全对应
type Config struct {
	Server      ServerConfig      `mapstructure:"server"`
	Database    DatabaseConfig    `mapstructure:"database"`
	Draw        DrawConfig        `mapstructure:"draw"`
	Leaderboard LeaderboardConfig `mapstructure:"leaderboard"`
}

// ServerConfig 定义了HTTP服务器相关的配置
type ServerConfig struct {
	Mode    string     `mapstructure:"mode"`
	Address string     `mapstructure:"address"`
	Cors    CorsConfig `mapstructure:"cors"`
}

// CorsConfig 定义了CORS相关的配置
type CorsConfig struct {
	AllowedOrigins []string `mapstructure:"allowedOrigins"`
}

// DatabaseConfig 定义了持久化存储和缓存相关的配置
type DatabaseConfig struct {
	// Driver 可以是 "sqlite" 或 "postgres"
	Driver   string         `mapstructure:"driver"`
	Sqlite   SqliteConfig   `mapstructure:"sqlite"`
	Postgres PostgresConfig `mapstructure:"postgres"`
	Redis    RedisConfig    `mapstructure:"redis"`
}

// SqliteConfig 定义了SQLite的配置
type SqliteConfig struct {
	Path string `mapstructure:"path"`
}

// PostgresConfig 定义了PostgreSQL的配置
type PostgresConfig struct {
	DSN string `mapstructure:"dsn"`
}

// RedisConfig 定义了Redis的配置
type RedisConfig struct {
	Address  string `mapstructure:"address"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

// DrawConfig 定义了每日开奖的全部业务参数
type DrawConfig struct {
	// Timezone 是轮次边界所使用的固定民用时区，例如 "America/New_York"。
	// 绝不使用宿主机的本地时区。
	Timezone string `mapstructure:"timezone"`

	// BoundaryTime 是每日轮次边界的挂钟时刻，格式 "HH:MM"
	BoundaryTime string `mapstructure:"boundaryTime"`

	// GraceMinutes 是边界过后、触发选取前的等待时间，
	// 用于等待上游排行榜完成自己的更新周期
	GraceMinutes int `mapstructure:"graceMinutes"`

	// TickSeconds 是调度器轮询间隔
	TickSeconds int `mapstructure:"tickSeconds"`

	// MinimumTotalPoints 是参与资格要求的最低总积分
	MinimumTotalPoints int `mapstructure:"minimumTotalPoints"`

	// MinimumGain 是参与资格要求的最低积分增量
	MinimumGain int `mapstructure:"minimumGain"`

	// EligibilityMode 选择基线策略，见 EligibilityMode 常量
	EligibilityMode EligibilityMode `mapstructure:"eligibilityMode"`
}

// LeaderboardConfig 定义了外部积分排行榜数据源的配置
type LeaderboardConfig struct {
	BaseURL        string `mapstructure:"baseUrl"`
	TimeoutSeconds int    `mapstructure:"timeoutSeconds"`
	UserAgent      string `mapstructure:"userAgent"`
}

// LoadConfig 函数负责查找、加载和解析配置文件
// 它会在指定的路径中查找名为 config.yaml 的文件
func LoadConfig() (*Config, error) {
	v := viper.New()

	v.SetConfigName("config")
	v.SetConfigType("yaml")

	// 可以添加多个路径，Viper会按顺序查找
	v.AddConfigPath("./config")
	v.AddConfigPath(".")

	// 允许通过环境变量覆盖配置，例如 DATABASE_REDIS_ADDRESS=...
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		return nil, err
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, err
	}

	if err := validate(&cfg); err != nil {
		return nil, err
	}

	Cfg = &cfg
	return Cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.mode", "debug")
	v.SetDefault("server.address", ":8080")
	v.SetDefault("database.driver", "sqlite")
	v.SetDefault("database.sqlite.path", "lottery.db")
	v.SetDefault("draw.timezone", "America/New_York")
	v.SetDefault("draw.boundaryTime", "00:05")
	v.SetDefault("draw.graceMinutes", 5)
	v.SetDefault("draw.tickSeconds", 60)
	v.SetDefault("draw.minimumTotalPoints", 1)
	v.SetDefault("draw.minimumGain", 1)
	v.SetDefault("draw.eligibilityMode", string(ModeSinceLastRound))
	v.SetDefault("leaderboard.timeoutSeconds", 10)
	v.SetDefault("leaderboard.userAgent", "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36")
}

// validate 检查无法在运行期兜底的配置错误
func validate(cfg *Config) error {
	switch cfg.Database.Driver {
	case "sqlite", "postgres":
	default:
		return fmt.Errorf("不支持的数据库驱动: %s", cfg.Database.Driver)
	}

	switch cfg.Draw.EligibilityMode {
	case ModeBaseline, ModeSinceLastRound, ModeFixed24h:
	default:
		return fmt.Errorf("未知的资格判定模式: %s", cfg.Draw.EligibilityMode)
	}

	if cfg.Leaderboard.BaseURL == "" {
		return fmt.Errorf("leaderboard.baseUrl 不能为空")
	}
	return nil
}
