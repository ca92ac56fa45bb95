package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/aman-zulfiqar/token-ratio-chart/internal/constants"
	"gopkg.in/yaml.v3"
)

type Config struct {
	// Market data settings
	Network           string        `yaml:"network"`
	APIBaseURL        string        `yaml:"api_base_url"`
	HTTPTimeout       time.Duration `yaml:"http_timeout"`
	MaxRetries        int           `yaml:"max_retries"`
	RetryBackoff      time.Duration `yaml:"retry_backoff"`
	RequestsPerMinute float64       `yaml:"requests_per_minute"`

	// Selection and chart defaults
	PoolLimit   int `yaml:"pool_limit"`
	DefaultDays int `yaml:"default_days"`
	TickCount   int `yaml:"tick_count"`
	ChartHeight int `yaml:"chart_height"`

	// Redis cache (disabled when RedisAddr is empty)
	RedisAddr string        `yaml:"redis_addr"`
	RedisDB   int           `yaml:"redis_db"`
	CacheTTL  time.Duration `yaml:"cache_ttl"`

	// API server settings
	APIAddr        string        `yaml:"api_addr"`
	APIKey         string        `yaml:"api_key"`
	DevMode        bool          `yaml:"dev_mode"`
	RatioRate      float64       `yaml:"ratio_rate"`
	RequestTimeout time.Duration `yaml:"request_timeout"`

	LogLevel string `yaml:"log_level"`
}

func Load() *Config {
	return &Config{
		// Market data
		Network:           getEnv("NETWORK", constants.DefaultNetwork),
		APIBaseURL:        getEnv("API_BASE_URL", constants.DefaultAPIBaseURL),
		HTTPTimeout:       getDurationEnv("HTTP_TIMEOUT", constants.GeckoRequestTimeout),
		MaxRetries:        getIntEnv("MAX_RETRIES", 3),
		RetryBackoff:      getDurationEnv("RETRY_BACKOFF", 2*time.Second),
		RequestsPerMinute: getFloatEnv("REQUESTS_PER_MINUTE", constants.GeckoRequestsPerMin),

		// Defaults
		PoolLimit:   getIntEnv("POOL_LIMIT", constants.DefaultPoolLimit),
		DefaultDays: getIntEnv("DEFAULT_DAYS", constants.DefaultDays),
		TickCount:   getIntEnv("TICK_COUNT", constants.DefaultTickCount),
		ChartHeight: getIntEnv("CHART_HEIGHT", constants.DefaultChartHeight),

		// Redis
		RedisAddr: getEnv("REDIS_ADDR", ""),
		RedisDB:   getIntEnv("REDIS_DB", 0),
		CacheTTL:  getDurationEnv("CACHE_TTL", 5*time.Minute),

		// API
		APIAddr:        getEnv("API_ADDR", ":8090"),
		APIKey:         getEnv("API_KEY", ""),
		DevMode:        getBoolEnv("DEV_MODE", false),
		RatioRate:      getFloatEnv("RATIO_RATE", constants.DefaultRatioRate),
		RequestTimeout: getDurationEnv("REQUEST_TIMEOUT", constants.DefaultRequestTimeout),

		LogLevel: getEnv("LOG_LEVEL", "info"),
	}
}

// LoadFile applies a YAML file on top of the environment configuration.
// Keys missing from the file keep their environment or default value.
func LoadFile(path string) (*Config, error) {
	cfg := Load()
	if strings.TrimSpace(path) == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config file: %w", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config file: %w", err)
	}
	return cfg, nil
}

// Validate returns the first invalid setting.
func (c *Config) Validate() error {
	if strings.TrimSpace(c.Network) == "" {
		return fmt.Errorf("NETWORK is required")
	}
	if !strings.HasPrefix(c.APIBaseURL, "http://") && !strings.HasPrefix(c.APIBaseURL, "https://") {
		return fmt.Errorf("API_BASE_URL must be an http(s) URL, got %q", c.APIBaseURL)
	}
	if c.HTTPTimeout <= 0 {
		return fmt.Errorf("HTTP_TIMEOUT must be > 0")
	}
	if c.MaxRetries < 0 {
		return fmt.Errorf("MAX_RETRIES must be >= 0")
	}
	if c.RequestsPerMinute <= 0 {
		return fmt.Errorf("REQUESTS_PER_MINUTE must be > 0")
	}
	if c.PoolLimit < 1 {
		return fmt.Errorf("POOL_LIMIT must be >= 1")
	}
	if c.DefaultDays < 1 {
		return fmt.Errorf("DEFAULT_DAYS must be >= 1")
	}
	if c.TickCount < 2 {
		return fmt.Errorf("TICK_COUNT must be >= 2")
	}
	if c.ChartHeight < 2 {
		return fmt.Errorf("CHART_HEIGHT must be >= 2")
	}
	if c.RatioRate <= 0 {
		return fmt.Errorf("RATIO_RATE must be > 0")
	}
	if c.RequestTimeout <= 0 {
		return fmt.Errorf("REQUEST_TIMEOUT must be > 0")
	}
	if c.RedisAddr != "" && c.CacheTTL <= 0 {
		return fmt.Errorf("CACHE_TTL must be > 0 when REDIS_ADDR is set")
	}
	return nil
}

func getEnv(key, defaultVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defaultVal
}

func getIntEnv(key string, defaultVal int) int {
	if val := os.Getenv(key); val != "" {
		if i, err := strconv.Atoi(val); err == nil {
			return i
		}
	}
	return defaultVal
}

func getFloatEnv(key string, defaultVal float64) float64 {
	if val := os.Getenv(key); val != "" {
		if f, err := strconv.ParseFloat(val, 64); err == nil {
			return f
		}
	}
	return defaultVal
}

func getBoolEnv(key string, defaultVal bool) bool {
	if val := os.Getenv(key); val != "" {
		if b, err := strconv.ParseBool(val); err == nil {
			return b
		}
	}
	return defaultVal
}

func getDurationEnv(key string, defaultVal time.Duration) time.Duration {
	if val := os.Getenv(key); val != "" {
		if d, err := time.ParseDuration(val); err == nil {
			return d
		}
	}
	return defaultVal
}
