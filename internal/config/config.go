package config

import (
	"fmt"
	"os"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// 默认榜单地址，config.yaml 未配置 feeds 时使用
const (
	DefaultAndroidFeedURL = "https://interview-marketing-eng-dev.s3.eu-west-1.amazonaws.com/android.top100.json"
	DefaultIOSFeedURL     = "https://interview-marketing-eng-dev.s3.eu-west-1.amazonaws.com/ios.top100.json"
)

// Config 全局配置结构体（对应 config/config.yaml）
type Config struct {
	Server   ServerConfig          `mapstructure:"server"`   // 服务器配置
	Postgres PostgresConfig        `mapstructure:"postgres"` // 数据库配置
	Log      LogConfig             `mapstructure:"log"`      // 日志配置
	Import   ImportConfig          `mapstructure:"import"`   // 批量导入配置
	Feeds    map[string]FeedConfig `mapstructure:"feeds"`    // 各平台榜单配置，key 为平台名
	CORS     CORSConfig            `mapstructure:"cors"`     // 跨域配置
}

// ServerConfig 服务器配置
type ServerConfig struct {
	Port            int           `mapstructure:"port"`             // 服务端口
	Mode            string        `mapstructure:"mode"`             // Gin运行模式：debug/release/test
	Pprof           bool          `mapstructure:"pprof"`            // 是否注册 pprof 路由
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"` // 优雅退出等待时间
}

// PostgresConfig 数据库配置
type PostgresConfig struct {
	DSN             string        `mapstructure:"dsn"`               // 连接DSN（URL 形式）
	MaxOpenConns    int           `mapstructure:"max_open_conns"`    // 最大打开连接数
	MaxIdleConns    int           `mapstructure:"max_idle_conns"`    // 最大空闲连接数
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"` // 连接最大存活时间
	LogLevel        string        `mapstructure:"log_level"`         // GORM日志级别：silent/error/warn/info
}

// LogConfig 日志配置
type LogConfig struct {
	Level  string `mapstructure:"level"`  // debug/info/warn/error
	Format string `mapstructure:"format"` // text/json
}

// ImportConfig 批量导入配置
type ImportConfig struct {
	Platforms []string `mapstructure:"platforms"` // 参与导入的平台，为空时取 feeds 的全部 key
}

// FeedConfig 单个平台榜单配置
type FeedConfig struct {
	URL     string `mapstructure:"url"`     // 榜单地址
	Format  string `mapstructure:"format"`  // 榜单格式，目前只有 top100
	Timeout int    `mapstructure:"timeout"` // 请求超时（秒）
	Proxy   string `mapstructure:"proxy"`   // 代理地址
}

// CORSConfig 跨域配置
type CORSConfig struct {
	AllowOrigins []string `mapstructure:"allow_origins"`
}

// LoadConfig 加载配置文件（config/config.yaml），敏感项从 .env / 环境变量覆盖
func LoadConfig() (*Config, error) {
	return LoadConfigFrom("./config")
}

// LoadConfigFrom 从指定目录加载 config.yaml
func LoadConfigFrom(dir string) (*Config, error) {
	// 1. 加载 .env（若存在），env 中的值会覆盖 config.yaml 中同名字段
	_ = godotenv.Load() // 忽略错误（.env 可不存在）

	// 2. 读取 config.yaml
	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(dir)
	setDefaults(v)
	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("读取配置文件失败: %w", err)
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("解析配置文件失败: %w", err)
	}

	// 3. env 覆盖（优先级 env > yaml）
	overrideFromEnv(&cfg)
	cfg.normalize()
	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", 3000)
	v.SetDefault("server.mode", "release")
	v.SetDefault("server.shutdown_timeout", 10*time.Second)
	v.SetDefault("postgres.max_open_conns", 20)
	v.SetDefault("postgres.max_idle_conns", 5)
	v.SetDefault("postgres.conn_max_lifetime", time.Hour)
	v.SetDefault("postgres.log_level", "warn")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "text")
	v.SetDefault("feeds.android.url", DefaultAndroidFeedURL)
	v.SetDefault("feeds.ios.url", DefaultIOSFeedURL)
}

// overrideFromEnv 用环境变量覆盖部署相关配置
func overrideFromEnv(cfg *Config) {
	if v := os.Getenv("POSTGRES_DSN"); v != "" {
		cfg.Postgres.DSN = v
	}
	if v := os.Getenv("SERVER_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			cfg.Server.Port = port
		}
	}
	if cfg.Feeds == nil {
		cfg.Feeds = make(map[string]FeedConfig)
	}
	for env, platform := range map[string]string{
		"ANDROID_FEED_URL": "android",
		"IOS_FEED_URL":     "ios",
	} {
		if v := os.Getenv(env); v != "" {
			f := cfg.Feeds[platform]
			f.URL = v
			cfg.Feeds[platform] = f
		}
	}
}

// normalize 平台名统一小写，补齐默认值
func (c *Config) normalize() {
	feeds := make(map[string]FeedConfig, len(c.Feeds))
	for name, f := range c.Feeds {
		if f.Format == "" {
			f.Format = "top100"
		}
		if f.Timeout <= 0 {
			f.Timeout = 30
		}
		feeds[strings.ToLower(name)] = f
	}
	c.Feeds = feeds
	for i, p := range c.Import.Platforms {
		c.Import.Platforms[i] = strings.ToLower(strings.TrimSpace(p))
	}
}

// FeedURLs 参与导入的平台 → 榜单地址
func (c *Config) FeedURLs() map[string]string {
	platforms := c.Import.Platforms
	if len(platforms) == 0 {
		for name := range c.Feeds {
			platforms = append(platforms, name)
		}
		sort.Strings(platforms)
	}
	urls := make(map[string]string, len(platforms))
	for _, p := range platforms {
		if f, ok := c.Feeds[p]; ok && f.URL != "" {
			urls[p] = f.URL
		}
	}
	return urls
}

// Feed 返回平台榜单配置，未配置时给出默认值
func (c *Config) Feed(platform string) FeedConfig {
	if f, ok := c.Feeds[platform]; ok {
		return f
	}
	return FeedConfig{Format: "top100", Timeout: 30}
}
