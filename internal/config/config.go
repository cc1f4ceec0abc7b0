// internal/config/config.go
package config

import (
	"fmt"
	"log"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

// 当前配置的单例实例
var (
	currentConfig *Config
	configMutex   sync.RWMutex
)

// Config 存储应用配置
type Config struct {
	// 基础配置
	Port         string `env:"PORT" envDefault:"8080"`
	DataDir      string `env:"DATA_DIR" envDefault:"data"`
	StaticDir    string `env:"STATIC_DIR"`    // 为空时使用内置静态资源
	TemplatesDir string `env:"TEMPLATES_DIR"` // 为空时使用内置模板
	LogDir       string `env:"LOG_DIR" envDefault:"logs"`
	LogLevel     string `env:"LOG_LEVEL" envDefault:"info"`
	LogEncoding  string `env:"LOG_ENCODING" envDefault:"console"`
	DebugMode    bool   `env:"DEBUG_MODE" envDefault:"true"`

	// 后端协作方
	BackendURL     string        `env:"BACKEND_URL" envDefault:"http://localhost:5000"`
	BackendTimeout time.Duration `env:"BACKEND_TIMEOUT" envDefault:"0s"` // 0 表示不设超时

	// 冷知识面板
	FactsFile  string `env:"FACTS_FILE"` // 为空时使用内置数据
	FactCount  int    `env:"FACT_COUNT" envDefault:"3"`
	FactLocale string `env:"FACT_LOCALE" envDefault:"zh"`

	// 会话
	SessionSecret string        `env:"SESSION_SECRET"`
	SessionTTL    time.Duration `env:"SESSION_TTL" envDefault:"6h"`

	// 人生回顾存档
	RedisURL   string        `env:"REDIS_URL"`
	ArchiveTTL time.Duration `env:"ARCHIVE_TTL" envDefault:"720h"`

	// HTTP 周边
	MetricsEnabled     bool     `env:"METRICS_ENABLED" envDefault:"true"`
	RateLimitPerMinute int      `env:"RATE_LIMIT_PER_MINUTE" envDefault:"30"`
	CORSOrigins        []string `env:"CORS_ORIGINS" envSeparator:","`
}

// Load 从环境变量加载配置
func Load() (*Config, error) {
	// 尝试加载.env文件（可选）
	_ = godotenv.Load()

	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("解析环境变量失败: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	if cfg.SessionSecret == "" {
		// 只记录警告，不返回错误
		log.Println("警告: 未设置 SESSION_SECRET，将使用随机密钥，重启后旧会话失效")
	}

	return cfg, nil
}

// Validate 校验配置项
func (c *Config) Validate() error {
	u, err := url.Parse(c.BackendURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return fmt.Errorf("BACKEND_URL 无效: %q", c.BackendURL)
	}
	c.BackendURL = strings.TrimRight(c.BackendURL, "/")

	if c.BackendTimeout < 0 {
		return fmt.Errorf("BACKEND_TIMEOUT 不能为负数")
	}
	if c.FactCount < 0 {
		return fmt.Errorf("FACT_COUNT 不能为负数")
	}
	if c.SessionTTL <= 0 {
		return fmt.Errorf("SESSION_TTL 必须为正数")
	}
	return nil
}

// LogFile 返回日志文件路径
func (c *Config) LogFile() string {
	if c.LogDir == "" {
		return ""
	}
	return filepath.Join(c.LogDir, "lifejourney.log")
}

// ArchiveDir 返回文件存档目录
func (c *Config) ArchiveDir() string {
	return filepath.Join(c.DataDir, "journeys")
}

// EnsureDirectories 创建应用所需的目录结构
func (c *Config) EnsureDirectories() error {
	for _, dir := range []string{c.DataDir, c.ArchiveDir(), c.LogDir} {
		if dir == "" {
			continue
		}
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("创建目录失败 %s: %w", dir, err)
		}
	}
	return nil
}

// SetCurrentConfig 设置全局配置
func SetCurrentConfig(cfg *Config) {
	configMutex.Lock()
	defer configMutex.Unlock()
	currentConfig = cfg
}

// GetCurrentConfig 返回当前配置的副本
func GetCurrentConfig() *Config {
	configMutex.RLock()
	defer configMutex.RUnlock()

	if currentConfig == nil {
		// 紧急情况，返回一个基本配置
		cfg, err := Load()
		if err != nil {
			cfg = &Config{}
			_ = env.Parse(cfg)
		}
		return cfg
	}

	configCopy := *currentConfig
	return &configCopy
}
