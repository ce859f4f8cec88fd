package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	defaultHost           = "0.0.0.0"
	defaultPort           = 1790
	defaultMaxConnections = 2000
	defaultWireFormat     = "json"
	defaultRedisAddr      = "localhost:6379"
	defaultNATSURL        = "nats://localhost:4222"
	defaultSubjectPrefix  = "tron"

	defaultGridSize          = 80
	minGridSize              = 8
	defaultTickRate          = 30
	defaultCountdown         = 5
	defaultEndGrace          = 5
	defaultMaxPlayers        = 2
	defaultRoomTimeout       = 10
	defaultShutdownTimeout   = 120
	defaultShutdownCheckSecs = 5
)

// Config 服务端配置
type Config struct {
	Server   ServerConfig   `yaml:"server"`
	Redis    RedisConfig    `yaml:"redis"`
	NATS     NATSConfig     `yaml:"nats"`
	Game     GameConfig     `yaml:"game"`
	Security SecurityConfig `yaml:"security"`
	Log      LogConfig      `yaml:"log"`
}

// ServerConfig WebSocket 服务器配置
type ServerConfig struct {
	Host           string `yaml:"host"`
	Port           int    `yaml:"port"`
	MaxConnections int    `yaml:"max_connections"`
	WireFormat     string `yaml:"wire_format"` // json / protobuf
}

// RedisConfig Redis 配置（房间在线镜像）
type RedisConfig struct {
	Enabled  bool   `yaml:"enabled"`
	Addr     string `yaml:"addr"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
}

// NATSConfig 房间生命周期事件总线
type NATSConfig struct {
	Enabled       bool   `yaml:"enabled"`
	URL           string `yaml:"url"`
	SubjectPrefix string `yaml:"subject_prefix"`
}

// GameConfig 游戏配置
type GameConfig struct {
	GridSize              int `yaml:"grid_size"`               // 网格边长
	TickRate              int `yaml:"tick_rate"`               // 每秒 tick 数
	Countdown             int `yaml:"countdown"`               // 开局倒计时（秒）
	EndGrace              int `yaml:"end_grace"`               // 结束后保留房间（秒）
	DefaultMaxPlayers     int `yaml:"default_max_players"`     // 创建房间未指定人数时
	RoomTimeout           int `yaml:"room_timeout"`            // 大厅等待超时（分钟）
	ShutdownTimeout       int `yaml:"shutdown_timeout"`        // 优雅关闭等待（秒）
	ShutdownCheckInterval int `yaml:"shutdown_check_interval"` // 关闭检查间隔（秒）
}

// SecurityConfig 安全配置
type SecurityConfig struct {
	AllowedOrigins []string           `yaml:"allowed_origins"`
	RateLimit      RateLimitConfig    `yaml:"rate_limit"`
	MessageLimit   MessageLimitConfig `yaml:"message_limit"`
	DirectionLimit MessageLimitConfig `yaml:"direction_limit"`
}

// RateLimitConfig 连接速率限制（按 IP）
type RateLimitConfig struct {
	MaxPerSecond int `yaml:"max_per_second"`
	MaxPerMinute int `yaml:"max_per_minute"`
	BanDuration  int `yaml:"ban_duration"` // 秒
}

// MessageLimitConfig 消息速率限制（按连接）
type MessageLimitConfig struct {
	MaxPerSecond int `yaml:"max_per_second"`
}

// LogConfig 日志配置
type LogConfig struct {
	File       string `yaml:"file"`
	Level      string `yaml:"level"`
	MaxSizeMB  int    `yaml:"max_size_mb"`
	MaxBackups int    `yaml:"max_backups"`
	MaxAgeDays int    `yaml:"max_age_days"`
}

// TickIntervalDuration 返回每个 tick 的间隔
func (c *GameConfig) TickIntervalDuration() time.Duration {
	return time.Second / time.Duration(c.TickRate)
}

// CountdownDuration 返回开局倒计时
func (c *GameConfig) CountdownDuration() time.Duration {
	return time.Duration(c.Countdown) * time.Second
}

// EndGraceDuration 返回结束后的保留时长
func (c *GameConfig) EndGraceDuration() time.Duration {
	return time.Duration(c.EndGrace) * time.Second
}

// RoomTimeoutDuration 返回房间等待超时时长
func (c *GameConfig) RoomTimeoutDuration() time.Duration {
	return time.Duration(c.RoomTimeout) * time.Minute
}

// ShutdownTimeoutDuration 返回优雅关闭的最长等待
func (c *GameConfig) ShutdownTimeoutDuration() time.Duration {
	return time.Duration(c.ShutdownTimeout) * time.Second
}

// ShutdownCheckIntervalDuration 返回关闭检查间隔
func (c *GameConfig) ShutdownCheckIntervalDuration() time.Duration {
	return time.Duration(c.ShutdownCheckInterval) * time.Second
}

// BanDurationTime 返回封禁时长
func (c *RateLimitConfig) BanDurationTime() time.Duration {
	return time.Duration(c.BanDuration) * time.Second
}

// Load 加载配置文件，环境变量优先于文件内容
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}

	cfg.applyEnv()
	cfg.applyDefaults()
	return &cfg, nil
}

// Default 返回默认配置
func Default() *Config {
	cfg := &Config{}
	cfg.applyEnv()
	cfg.applyDefaults()
	return cfg
}

// applyEnv 读取环境变量覆盖
func (cfg *Config) applyEnv() {
	if v := os.Getenv("SERVER_HOST"); v != "" {
		cfg.Server.Host = v
	}
	if v, ok := envInt("SERVER_PORT"); ok {
		cfg.Server.Port = v
	}
	if v := os.Getenv("SERVER_WIRE_FORMAT"); v != "" {
		cfg.Server.WireFormat = v
	}
	if v := os.Getenv("REDIS_ADDR"); v != "" {
		cfg.Redis.Addr = v
		cfg.Redis.Enabled = true
	}
	if v := os.Getenv("REDIS_PASSWORD"); v != "" {
		cfg.Redis.Password = v
	}
	if v := os.Getenv("NATS_URL"); v != "" {
		cfg.NATS.URL = v
		cfg.NATS.Enabled = true
	}
	if v, ok := envInt("GAME_GRID_SIZE"); ok {
		cfg.Game.GridSize = v
	}
	if v, ok := envInt("GAME_TICK_RATE"); ok {
		cfg.Game.TickRate = v
	}
	if v := os.Getenv("SECURITY_ALLOWED_ORIGINS"); v != "" {
		origins := strings.Split(v, ",")
		for i := range origins {
			origins[i] = strings.TrimSpace(origins[i])
		}
		cfg.Security.AllowedOrigins = origins
	}
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		cfg.Log.Level = v
	}
}

func envInt(key string) (int, bool) {
	v := os.Getenv(key)
	if v == "" {
		return 0, false
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, false
	}
	return n, true
}

// applyDefaults 为未设置的字段填充默认值
func (cfg *Config) applyDefaults() {
	if cfg.Server.Host == "" {
		cfg.Server.Host = defaultHost
	}
	if cfg.Server.Port == 0 {
		cfg.Server.Port = defaultPort
	}
	if cfg.Server.MaxConnections == 0 {
		cfg.Server.MaxConnections = defaultMaxConnections
	}
	if cfg.Server.WireFormat == "" {
		cfg.Server.WireFormat = defaultWireFormat
	}
	if cfg.Redis.Addr == "" {
		cfg.Redis.Addr = defaultRedisAddr
	}
	if cfg.NATS.URL == "" {
		cfg.NATS.URL = defaultNATSURL
	}
	if cfg.NATS.SubjectPrefix == "" {
		cfg.NATS.SubjectPrefix = defaultSubjectPrefix
	}

	switch {
	case cfg.Game.GridSize <= 0:
		cfg.Game.GridSize = defaultGridSize
	case cfg.Game.GridSize < minGridSize:
		cfg.Game.GridSize = minGridSize
	}
	if cfg.Game.TickRate <= 0 {
		cfg.Game.TickRate = defaultTickRate
	}
	if cfg.Game.Countdown == 0 {
		cfg.Game.Countdown = defaultCountdown
	}
	if cfg.Game.EndGrace == 0 {
		cfg.Game.EndGrace = defaultEndGrace
	}
	if cfg.Game.DefaultMaxPlayers == 0 {
		cfg.Game.DefaultMaxPlayers = defaultMaxPlayers
	}
	if cfg.Game.RoomTimeout == 0 {
		cfg.Game.RoomTimeout = defaultRoomTimeout
	}
	if cfg.Game.ShutdownTimeout == 0 {
		cfg.Game.ShutdownTimeout = defaultShutdownTimeout
	}
	if cfg.Game.ShutdownCheckInterval == 0 {
		cfg.Game.ShutdownCheckInterval = defaultShutdownCheckSecs
	}

	if len(cfg.Security.AllowedOrigins) == 0 {
		cfg.Security.AllowedOrigins = []string{"*"}
	}
	if cfg.Security.RateLimit.MaxPerSecond == 0 {
		cfg.Security.RateLimit.MaxPerSecond = 10
	}
	if cfg.Security.RateLimit.MaxPerMinute == 0 {
		cfg.Security.RateLimit.MaxPerMinute = 60
	}
	if cfg.Security.RateLimit.BanDuration == 0 {
		cfg.Security.RateLimit.BanDuration = 60
	}
	if cfg.Security.MessageLimit.MaxPerSecond == 0 {
		cfg.Security.MessageLimit.MaxPerSecond = 60
	}
	if cfg.Security.DirectionLimit.MaxPerSecond == 0 {
		cfg.Security.DirectionLimit.MaxPerSecond = 20
	}

	if cfg.Log.File == "" {
		cfg.Log.File = "logs/tron-server.log"
	}
	if cfg.Log.Level == "" {
		cfg.Log.Level = "info"
	}
	if cfg.Log.MaxSizeMB == 0 {
		cfg.Log.MaxSizeMB = 10
	}
	if cfg.Log.MaxBackups == 0 {
		cfg.Log.MaxBackups = 3
	}
	if cfg.Log.MaxAgeDays == 0 {
		cfg.Log.MaxAgeDays = 7
	}
}
