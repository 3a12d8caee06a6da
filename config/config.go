package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config 应用全局配置结构体
type Config struct {
	Server       ServerConfig       `mapstructure:"server"`
	Database     DatabaseConfig     `mapstructure:"db"`
	Redis        RedisConfig        `mapstructure:"redis"`
	Auth         AuthConfig         `mapstructure:"auth"`
	Log          LogConfig          `mapstructure:"log"`
	Availability AvailabilityConfig `mapstructure:"availability"`
	Metrics      MetricsConfig      `mapstructure:"metrics"`
}

// ServerConfig HTTP 服务器配置
type ServerConfig struct {
	Port         int        `mapstructure:"port"`
	CORS         CORSConfig `mapstructure:"cors"`
	BodyLimit    int64      `mapstructure:"body_limit"`     // 请求体上限（字节）
	PullRateMax  int        `mapstructure:"pull_rate_max"`  // 拉取接口窗口内最大请求数
	PullRateSpan string     `mapstructure:"pull_rate_span"` // 拉取接口限流窗口，如 "1m"
}

// CORSConfig 跨域配置
type CORSConfig struct {
	AllowOrigins []string `mapstructure:"allow_origins"`
}

// DatabaseConfig PostgreSQL 数据库配置
type DatabaseConfig struct {
	Host            string `mapstructure:"host"`
	Port            int    `mapstructure:"port"`
	Name            string `mapstructure:"name"`
	User            string `mapstructure:"user"`
	Password        string `mapstructure:"password"`
	SSLMode         string `mapstructure:"sslmode"`
	Timezone        string `mapstructure:"timezone"`
	MaxOpenConns    int    `mapstructure:"max_open_conns"`
	MaxIdleConns    int    `mapstructure:"max_idle_conns"`
	ConnMaxLifetime int    `mapstructure:"conn_max_lifetime"` // 分钟
}

// DSN 生成 PostgreSQL 连接字符串
func (c *DatabaseConfig) DSN() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s TimeZone=%s",
		c.Host, c.Port, c.User, c.Password, c.Name, c.SSLMode, c.Timezone,
	)
}

// RedisConfig Redis 配置（分布式锁 + 限流）
type RedisConfig struct {
	Addr     string `mapstructure:"addr"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

// AuthConfig JWT 认证配置
type AuthConfig struct {
	JWTSecret      string        `mapstructure:"jwt_secret"`
	AccessTokenTTL time.Duration `mapstructure:"access_token_ttl"`
}

// LogConfig 日志配置
type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// SourceConfig 单个预约平台适配器配置
type SourceConfig struct {
	Name          string  `mapstructure:"name"`
	Kind          string  `mapstructure:"kind"` // "rest" | "ics"
	BaseURL       string  `mapstructure:"base_url"`
	RatePerSecond float64 `mapstructure:"rate_per_second"`
}

// AvailabilityConfig 可预约时段聚合引擎配置
type AvailabilityConfig struct {
	Timezone        string         `mapstructure:"timezone"`
	CacheTTL        time.Duration  `mapstructure:"cache_ttl"`
	ProviderTimeout time.Duration  `mapstructure:"provider_timeout"`
	LockTTL         time.Duration  `mapstructure:"lock_ttl"`
	CapacitySource  string         `mapstructure:"capacity_source"`
	Sources         []SourceConfig `mapstructure:"sources"` // 顺序即偏好顺序
	RefreshCron     string         `mapstructure:"refresh_cron"`
}

// MetricsConfig 监控配置
type MetricsConfig struct {
	Enabled bool `mapstructure:"enabled"`
}

// Location 加载业务时区
func (c *AvailabilityConfig) Location() (*time.Location, error) {
	return time.LoadLocation(c.Timezone)
}

// SourceOrder 返回平台偏好顺序
func (c *AvailabilityConfig) SourceOrder() []string {
	names := make([]string, 0, len(c.Sources))
	for _, s := range c.Sources {
		names = append(names, s.Name)
	}
	return names
}

// Load 从配置文件与环境变量加载配置
// 优先级：环境变量 > 配置文件 > 默认值
func Load(path string) (*Config, error) {
	v := viper.New()

	// ── 默认值 ──
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.cors.allow_origins", []string{"http://localhost:3000"})
	v.SetDefault("server.body_limit", 16<<10)
	v.SetDefault("server.pull_rate_max", 30)
	v.SetDefault("server.pull_rate_span", "1m")

	v.SetDefault("db.host", "localhost")
	v.SetDefault("db.port", 5432)
	v.SetDefault("db.name", "shearwork")
	v.SetDefault("db.user", "postgres")
	v.SetDefault("db.password", "")
	v.SetDefault("db.sslmode", "disable")
	v.SetDefault("db.timezone", "UTC")
	v.SetDefault("db.max_open_conns", 25)
	v.SetDefault("db.max_idle_conns", 10)
	v.SetDefault("db.conn_max_lifetime", 60)

	v.SetDefault("redis.addr", "localhost:6379")
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)

	v.SetDefault("auth.jwt_secret", "")
	v.SetDefault("auth.access_token_ttl", "15m")

	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")

	v.SetDefault("availability.timezone", "America/Toronto")
	v.SetDefault("availability.cache_ttl", "5m")
	v.SetDefault("availability.provider_timeout", "15s")
	v.SetDefault("availability.lock_ttl", "2m")
	v.SetDefault("availability.capacity_source", "acuity")
	v.SetDefault("availability.sources", []map[string]interface{}{
		{"name": "acuity", "kind": "rest", "base_url": "http://localhost:9101", "rate_per_second": 5},
		{"name": "square", "kind": "rest", "base_url": "http://localhost:9102", "rate_per_second": 5},
		{"name": "booksy", "kind": "ics", "rate_per_second": 2},
	})
	v.SetDefault("availability.refresh_cron", "*/30 * * * *")

	v.SetDefault("metrics.enabled", true)

	// ── 配置文件 ──
	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath("./config")
		v.AddConfigPath(".")
	}

	// ── 环境变量 ──
	v.SetEnvPrefix("SHEARWORK")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("读取配置文件失败: %w", err)
		}
		// 配置文件不存在时仅依赖默认值和环境变量
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("解析配置失败: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// Validate 校验关键配置项
func (c *Config) Validate() error {
	if c.Auth.JWTSecret == "" {
		return fmt.Errorf("配置校验失败: auth.jwt_secret 不能为空")
	}
	if len(c.Auth.JWTSecret) < 16 {
		return fmt.Errorf("配置校验失败: auth.jwt_secret 长度不能少于 16 字符")
	}
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("配置校验失败: server.port 必须在 1-65535 之间")
	}
	if _, err := c.Availability.Location(); err != nil {
		return fmt.Errorf("配置校验失败: availability.timezone 无效: %w", err)
	}
	if c.Availability.CacheTTL <= 0 {
		return fmt.Errorf("配置校验失败: availability.cache_ttl 必须大于 0")
	}
	seen := make(map[string]bool, len(c.Availability.Sources))
	for _, s := range c.Availability.Sources {
		if s.Name == "" {
			return fmt.Errorf("配置校验失败: availability.sources 存在未命名的平台")
		}
		if seen[s.Name] {
			return fmt.Errorf("配置校验失败: availability.sources 平台 %q 重复", s.Name)
		}
		seen[s.Name] = true
		if s.Kind != "rest" && s.Kind != "ics" {
			return fmt.Errorf("配置校验失败: 平台 %q 的 kind 必须为 rest 或 ics", s.Name)
		}
	}
	return nil
}
