package config

import (
	"encoding/json"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

// Config 应用配置（进程启动时读取一次，运行期间不支持重新加载）
type Config struct {
	APIURL         string        // /trading-status 所在后端
	TradingAPIURL  string        // /api/*、/execute-trade、/close-position 所在后端
	RequestTimeout time.Duration // 单次 HTTP 超时，0 表示使用 transport 默认值

	StatusPollInterval       time.Duration // 交易状态轮询间隔，默认 5s
	BotsPollInterval         time.Duration // bot 列表/详情轮询间隔，默认 5s
	IntelligencePollInterval time.Duration // 市场情报轮询间隔，默认 5min

	DefaultBot        string  // 默认选中的 bot
	TradeQuantity     float64 // 买卖按钮下单数量
	TradeSubmitPerSec int     // 下单/平仓意图的令牌桶速率

	LogLevel string // 日志级别
	LogFile  string // 日志文件路径
}

// ConfigFile 配置文件结构（用于 YAML/JSON 解析）
type ConfigFile struct {
	APIURL             string  `yaml:"api_url" json:"api_url"`
	TradingAPIURL      string  `yaml:"trading_api_url" json:"trading_api_url"`
	RequestTimeoutMs   int     `yaml:"request_timeout_ms" json:"request_timeout_ms"`
	StatusPollMs       int     `yaml:"status_poll_ms" json:"status_poll_ms"`
	BotsPollMs         int     `yaml:"bots_poll_ms" json:"bots_poll_ms"`
	IntelligencePollMs int     `yaml:"intelligence_poll_ms" json:"intelligence_poll_ms"`
	DefaultBot         string  `yaml:"default_bot" json:"default_bot"`
	TradeQuantity      float64 `yaml:"trade_quantity" json:"trade_quantity"`
	TradeSubmitPerSec  int     `yaml:"trade_submit_per_sec" json:"trade_submit_per_sec"`
	LogLevel           string  `yaml:"log_level" json:"log_level"`
	LogFile            string  `yaml:"log_file" json:"log_file"`
}

const (
	defaultAPIURL     = "http://localhost:5001"
	defaultBot        = "ema_strategy"
	defaultTradeQty   = 1000
	defaultLogFile    = "logs/botdash.log"
	defaultStatusPoll = 5000
	defaultBotsPoll   = 5000
	defaultIntelPoll  = 300000
)

var globalConfig *Config
var configFilePath string

// SetConfigPath 设置配置文件路径
func SetConfigPath(path string) {
	configFilePath = path
}

// GetConfigPath 获取配置文件路径
func GetConfigPath() string {
	return configFilePath
}

// Load 加载配置（首次调用后缓存）
func Load() (*Config, error) {
	if globalConfig != nil {
		return globalConfig, nil
	}
	cfg, err := LoadFromFile(configFilePath)
	if err != nil {
		return nil, err
	}
	globalConfig = cfg
	return cfg, nil
}

// Get 返回已加载的配置，未加载时为 nil
func Get() *Config {
	return globalConfig
}

// LoadFromFile 从指定文件加载配置，filePath 为空时只使用环境变量和默认值。
// 优先级：配置文件 > 环境变量 > 默认值
func LoadFromFile(filePath string) (*Config, error) {
	var cf *ConfigFile
	if filePath != "" {
		var err error
		cf, err = loadConfigFile(filePath)
		if err != nil {
			return nil, errors.Wrapf(err, "load config file %s", filePath)
		}
	}
	if cf == nil {
		cf = &ConfigFile{}
	}

	apiURL := firstNonEmpty(cf.APIURL, getEnv("BOTDASH_API_URL", ""), getEnv("REACT_APP_API_URL", ""), defaultAPIURL)

	cfg := &Config{
		APIURL:         strings.TrimRight(apiURL, "/"),
		TradingAPIURL:  strings.TrimRight(firstNonEmpty(cf.TradingAPIURL, getEnv("BOTDASH_TRADING_API_URL", ""), apiURL), "/"),
		RequestTimeout: msFromSources(cf.RequestTimeoutMs, "BOTDASH_REQUEST_TIMEOUT_MS", 0),

		StatusPollInterval:       msFromSources(cf.StatusPollMs, "BOTDASH_STATUS_POLL_MS", defaultStatusPoll),
		BotsPollInterval:         msFromSources(cf.BotsPollMs, "BOTDASH_BOTS_POLL_MS", defaultBotsPoll),
		IntelligencePollInterval: msFromSources(cf.IntelligencePollMs, "BOTDASH_INTEL_POLL_MS", defaultIntelPoll),

		DefaultBot:        firstNonEmpty(cf.DefaultBot, getEnv("BOTDASH_DEFAULT_BOT", ""), defaultBot),
		TradeQuantity:     getFloatFromSources(cf.TradeQuantity, parseFloatEnv("BOTDASH_TRADE_QUANTITY", defaultTradeQty)),
		TradeSubmitPerSec: getIntFromSources(cf.TradeSubmitPerSec, parseIntEnv("BOTDASH_TRADE_SUBMIT_PER_SEC", 2)),

		LogLevel: firstNonEmpty(cf.LogLevel, getEnv("LOG_LEVEL", ""), "info"),
		LogFile:  firstNonEmpty(cf.LogFile, getEnv("LOG_FILE", ""), defaultLogFile),
	}

	if err := cfg.Validate(); err != nil {
		return nil, errors.Wrap(err, "config invalid")
	}
	return cfg, nil
}

// Validate 校验配置
func (c *Config) Validate() error {
	for name, raw := range map[string]string{"api_url": c.APIURL, "trading_api_url": c.TradingAPIURL} {
		u, err := url.Parse(raw)
		if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
			return fmt.Errorf("%s must be an http(s) URL, got %q", name, raw)
		}
	}
	if c.StatusPollInterval <= 0 || c.BotsPollInterval <= 0 || c.IntelligencePollInterval <= 0 {
		return errors.New("poll intervals must be positive")
	}
	if c.RequestTimeout < 0 {
		return errors.New("request_timeout_ms must not be negative")
	}
	if c.TradeQuantity <= 0 {
		return errors.New("trade_quantity must be positive")
	}
	if c.TradeSubmitPerSec <= 0 {
		return errors.New("trade_submit_per_sec must be positive")
	}
	return nil
}

func loadConfigFile(filePath string) (*ConfigFile, error) {
	data, err := os.ReadFile(filePath)
	if err != nil {
		return nil, fmt.Errorf("读取配置文件失败: %w", err)
	}

	var cf ConfigFile
	switch strings.ToLower(filepath.Ext(filePath)) {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, &cf); err != nil {
			return nil, fmt.Errorf("解析 YAML 配置文件失败: %w", err)
		}
	case ".json":
		if err := json.Unmarshal(data, &cf); err != nil {
			return nil, fmt.Errorf("解析 JSON 配置文件失败: %w", err)
		}
	default:
		return nil, fmt.Errorf("不支持的配置文件格式: %s (支持 .yaml, .yml, .json)", filepath.Ext(filePath))
	}
	return &cf, nil
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return strings.TrimSpace(v)
		}
	}
	return ""
}

func msFromSources(fileValue int, envKey string, defaultMs int) time.Duration {
	return time.Duration(getIntFromSources(fileValue, parseIntEnv(envKey, defaultMs))) * time.Millisecond
}

func getIntFromSources(configValue, envValue int) int {
	if configValue > 0 {
		return configValue
	}
	return envValue
}

func getFloatFromSources(configValue, envValue float64) float64 {
	if configValue > 0 {
		return configValue
	}
	return envValue
}

// getEnv 获取环境变量，不存在时返回默认值
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// parseIntEnv 解析整数环境变量
func parseIntEnv(key string, defaultValue int) int {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return defaultValue
	}
	return parsed
}

// parseFloatEnv 解析浮点数环境变量
func parseFloatEnv(key string, defaultValue float64) float64 {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	parsed, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return defaultValue
	}
	return parsed
}
