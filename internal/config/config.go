package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/dushixiang/augur/pkg/indicator"
	"gopkg.in/yaml.v3"
)

type Config struct {
	Server    ServerConf          `json:"server" yaml:"server"`
	Analysis  AnalysisConf        `json:"analysis" yaml:"analysis"`
	LLM       LlmConf             `json:"llm" yaml:"llm"`
	NameCache NameCacheConf       `json:"name_cache" yaml:"name_cache"`
	Binance   BinanceConf         `json:"binance" yaml:"binance"`
	Yahoo     SourceConf          `json:"yahoo" yaml:"yahoo"`
	Sina      SourceConf          `json:"sina" yaml:"sina"`
	Markets   map[string][]string `json:"markets" yaml:"markets"` // 各市场自选列表，为空时使用内置目录
	ScanJob   ScanJobConf         `json:"scan_job" yaml:"scan_job"`
	Telegram  TelegramConf        `json:"telegram" yaml:"telegram"`
	Tracing   TracingConf         `json:"tracing" yaml:"tracing"`
}

type ServerConf struct {
	TokenHash   string   `json:"token_hash" yaml:"token_hash"` // API 令牌的 bcrypt 哈希，为空时不校验
	CORSOrigins []string `json:"cors_origins" yaml:"cors_origins"`
}

type AnalysisConf struct {
	HistoryDays     int              `json:"history_days" yaml:"history_days"`           // 拉取的历史天数，默认365
	MinRows         int              `json:"min_rows" yaml:"min_rows"`                   // 最少数据行数，默认为最大窗口+2
	ClampStockScore bool             `json:"clamp_stock_score" yaml:"clamp_stock_score"` // 股票评分是否限制在 [0,100]
	DefaultMinScore *int             `json:"default_min_score" yaml:"default_min_score"` // 批量分析默认最低分，默认60，可显式设为0
	Indicators      indicator.Config `json:"indicators" yaml:"indicators"`
}

type LlmConf struct {
	Provider    string  `json:"provider" yaml:"provider"` // openai | azure | custom | gemini | none
	BaseURL     string  `json:"base_url" yaml:"base_url"`
	APIKey      string  `json:"api_key" yaml:"api_key"`
	Model       string  `json:"model" yaml:"model"`
	ProxyURL    string  `json:"proxy_url" yaml:"proxy_url"` // 代理地址，例如: http://127.0.0.1:7890
	Timeout     int     `json:"timeout" yaml:"timeout"`     // 秒，默认30
	Temperature float64 `json:"temperature" yaml:"temperature"`
	MaxTokens   int     `json:"max_tokens" yaml:"max_tokens"`
	APIVersion  string  `json:"api_version" yaml:"api_version"` // azure api-version
	LogCalls    bool    `json:"log_calls" yaml:"log_calls"`     // 是否记录调用日志
}

type NameCacheConf struct {
	Backend     string `json:"backend" yaml:"backend"` // memory | file | database | redis
	Dir         string `json:"dir" yaml:"dir"`
	RedisAddr   string `json:"redis_addr" yaml:"redis_addr"`
	RedisDB     int    `json:"redis_db" yaml:"redis_db"`
	RedisPrefix string `json:"redis_prefix" yaml:"redis_prefix"`
}

type BinanceConf struct {
	ProxyURL string `json:"proxy_url" yaml:"proxy_url"`
	Testnet  bool   `json:"testnet" yaml:"testnet"`
}

type SourceConf struct {
	BaseURL  string `json:"base_url" yaml:"base_url"`
	ProxyURL string `json:"proxy_url" yaml:"proxy_url"`
	Timeout  int    `json:"timeout" yaml:"timeout"` // 秒，默认15
}

type ScanJobConf struct {
	Enabled  bool     `json:"enabled" yaml:"enabled"`
	Cron     string   `json:"cron" yaml:"cron"` // 例如: 30 15 * * 1-5
	Markets  []string `json:"markets" yaml:"markets"`
	MinScore *int     `json:"min_score" yaml:"min_score"` // 未设置时沿用 analysis.default_min_score
	TopN     int      `json:"top_n" yaml:"top_n"`
}

type TracingConf struct {
	Enabled bool `json:"enabled" yaml:"enabled"` // 输出到 stdout 的链路追踪
}

type TelegramConf struct {
	Enabled bool   `json:"enabled" yaml:"enabled"`
	Token   string `json:"token" yaml:"token"`
	ChatID  string `json:"chat_id" yaml:"chat_id"`
}

// ApplyDefaults 填充默认值
func (c *Config) ApplyDefaults() {
	if c.Analysis.HistoryDays <= 0 {
		c.Analysis.HistoryDays = 365
	}
	c.Analysis.Indicators = c.Analysis.Indicators.WithDefaults()
	if c.Analysis.MinRows <= 0 {
		c.Analysis.MinRows = c.Analysis.Indicators.MinRows()
	}
	if c.Analysis.DefaultMinScore == nil {
		score := 60
		c.Analysis.DefaultMinScore = &score
	}

	c.LLM.Provider = strings.ToLower(strings.TrimSpace(c.LLM.Provider))
	if c.LLM.Provider == "" {
		c.LLM.Provider = "openai"
	}
	if c.LLM.BaseURL == "" && c.LLM.Provider == "openai" {
		c.LLM.BaseURL = "https://api.openai.com/v1"
	}
	if c.LLM.Model == "" {
		if c.LLM.Provider == "gemini" {
			c.LLM.Model = "gemini-2.0-flash"
		} else {
			c.LLM.Model = "gpt-4o-mini"
		}
	}
	if c.LLM.Timeout <= 0 {
		c.LLM.Timeout = 30
	}
	if c.LLM.Temperature == 0 {
		c.LLM.Temperature = 0.7
	}
	if c.LLM.MaxTokens <= 0 {
		c.LLM.MaxTokens = 1000
	}
	if c.LLM.APIVersion == "" {
		c.LLM.APIVersion = "2023-05-15"
	}

	if c.NameCache.Backend == "" {
		c.NameCache.Backend = "file"
	}
	if c.NameCache.Dir == "" {
		c.NameCache.Dir = "cache"
	}
	if c.NameCache.RedisPrefix == "" {
		c.NameCache.RedisPrefix = "augur:names:"
	}

	if c.ScanJob.Cron == "" {
		c.ScanJob.Cron = "30 15 * * 1-5"
	}
	if c.ScanJob.MinScore == nil {
		score := *c.Analysis.DefaultMinScore
		c.ScanJob.MinScore = &score
	}
	if c.ScanJob.TopN <= 0 {
		c.ScanJob.TopN = 10
	}
}

// ScoreThreshold 批量分析默认最低分
func (a AnalysisConf) ScoreThreshold() int {
	if a.DefaultMinScore == nil {
		return 60
	}
	return *a.DefaultMinScore
}

// ScoreThreshold 定时扫描的最低分
func (s ScanJobConf) ScoreThreshold() int {
	if s.MinScore == nil {
		return 60
	}
	return *s.MinScore
}

// LLMTimeout 生成超时
func (c *Config) LLMTimeout() time.Duration {
	return c.LLM.TimeoutDuration()
}

// TimeoutDuration 生成超时
func (l LlmConf) TimeoutDuration() time.Duration {
	if l.Timeout <= 0 {
		return 30 * time.Second
	}
	return time.Duration(l.Timeout) * time.Second
}

// TimeoutDuration 数据源超时
func (s SourceConf) TimeoutDuration() time.Duration {
	if s.Timeout <= 0 {
		return 15 * time.Second
	}
	return time.Duration(s.Timeout) * time.Second
}

// ApplyEnv 使用环境变量覆盖配置
func (c *Config) ApplyEnv() {
	setString := func(dst *string, key string) {
		if v, ok := os.LookupEnv(key); ok && v != "" {
			*dst = v
		}
	}
	setString(&c.LLM.APIKey, "LLM_API_KEY")
	setString(&c.LLM.BaseURL, "LLM_API_BASE_URL")
	setString(&c.LLM.Model, "LLM_MODEL_NAME")
	setString(&c.LLM.Provider, "LLM_API_TYPE")
	if c.LLM.Provider == "gemini" {
		setString(&c.LLM.APIKey, "GEMINI_API_KEY")
	}
	setString(&c.Telegram.Token, "TELEGRAM_BOT_TOKEN")
	setString(&c.Telegram.ChatID, "TELEGRAM_CHAT_ID")
	if v, ok := os.LookupEnv("TELEGRAM_ENABLED"); ok {
		if b, err := strconv.ParseBool(v); err == nil {
			c.Telegram.Enabled = b
		}
	}
}

type fileConfig struct {
	App Config `yaml:"app"`
}

// Load 读取配置文件中的 app 段并应用环境变量与默认值
// 文件不存在时返回默认配置。
func Load(path string) (*Config, error) {
	var fc fileConfig
	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(data, &fc); err != nil {
			return nil, fmt.Errorf("failed to parse config %s: %w", path, err)
		}
	case os.IsNotExist(err):
	default:
		return nil, fmt.Errorf("failed to read config %s: %w", path, err)
	}

	conf := fc.App
	conf.ApplyEnv()
	conf.ApplyDefaults()
	return &conf, nil
}
