package config

import (
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/xxxsen/common/logger"
)

type Config struct {
	Port          int              `json:"port"`
	JWTSecret     string           `json:"jwt_secret"`
	JWTTTLMinutes int              `json:"jwt_ttl_minutes"`
	LogConfig     logger.LogConfig `json:"log_config"`
	Database      DatabaseConfig   `json:"database"`
	FileStore     FileStoreConfig  `json:"file_store"`
	Dataset       DatasetConfig    `json:"dataset"`
	AI            AIConfig         `json:"ai"`
	CORSOrigins   []string         `json:"cors_origins"`
	RateLimit     RateLimitConfig  `json:"rate_limit"`
	TempSweep     TempSweepConfig  `json:"temp_sweep"`
}

type DatabaseConfig struct {
	Driver   string `json:"driver"`
	Path     string `json:"path"`
	DSN      string `json:"dsn"`
	Host     string `json:"host"`
	Port     int    `json:"port"`
	User     string `json:"user"`
	Password string `json:"password"`
	DBName   string `json:"dbname"`
	SSLMode  string `json:"sslmode"`
}

type FileStoreConfig struct {
	Type string      `json:"type"`
	Data interface{} `json:"data"`
}

type DatasetConfig struct {
	MaxRows         int   `json:"max_rows"`
	ContextRows     int   `json:"context_rows"`
	ListLimit       int   `json:"list_limit"`
	MaxUploadSize   int64 `json:"max_upload_size"`
	CacheSize       int   `json:"cache_size"`
	CacheTTLSeconds int   `json:"cache_ttl_seconds"`
}

type AIConfig struct {
	Provider    string             `json:"provider"`
	Model       string             `json:"model"`
	APIKey      string             `json:"api_key"`
	BaseURL     string             `json:"base_url"`
	Temperature float32            `json:"temperature"`
	Timeout     int                `json:"timeout"`
	Fallbacks   []AIProviderConfig `json:"fallbacks"`
}

type AIProviderConfig struct {
	Provider    string  `json:"provider"`
	Model       string  `json:"model"`
	APIKey      string  `json:"api_key"`
	BaseURL     string  `json:"base_url"`
	Temperature float32 `json:"temperature"`
}

type RateLimitConfig struct {
	RequestsPerMinute int `json:"requests_per_minute"`
	Burst             int `json:"burst"`
}

type TempSweepConfig struct {
	Spec          string `json:"spec"`
	MaxAgeMinutes int    `json:"max_age_minutes"`
}

const (
	DefaultMaxRows     = 10000
	DefaultContextRows = 30
	DefaultListLimit   = 5
	DefaultModel       = "gemini-2.5-pro"
)

func Load(path string) (*Config, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open config: %w", err)
	}
	defer file.Close()

	var cfg Config
	if err := json.NewDecoder(file).Decode(&cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	if err := cfg.applyEnv(os.LookupEnv); err != nil {
		return nil, err
	}
	if err := cfg.normalize(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// applyEnv lets deployment secrets and limits override the file.
func (c *Config) applyEnv(lookup func(string) (string, bool)) error {
	if v, ok := lookup("GOOGLE_API_KEY"); ok && strings.TrimSpace(v) != "" {
		c.AI.APIKey = strings.TrimSpace(v)
	}
	if v, ok := lookup("JWT_SECRET"); ok && strings.TrimSpace(v) != "" {
		c.JWTSecret = strings.TrimSpace(v)
	}
	if v, ok := lookup("MAX_DF_ROWS"); ok && strings.TrimSpace(v) != "" {
		n, err := strconv.Atoi(strings.TrimSpace(v))
		if err != nil {
			return fmt.Errorf("MAX_DF_ROWS must be an integer: %w", err)
		}
		c.Dataset.MaxRows = n
	}
	return nil
}

func (c *Config) normalize() error {
	if c.JWTSecret == "" {
		return fmt.Errorf("jwt_secret is required")
	}
	if c.Port == 0 {
		return fmt.Errorf("port is required")
	}
	if c.JWTTTLMinutes <= 0 {
		c.JWTTTLMinutes = 60
	}
	if c.LogConfig.Level == "" {
		c.LogConfig.Level = "info"
	}

	if c.Database.Driver == "" {
		c.Database.Driver = "sqlite"
	}
	switch c.Database.Driver {
	case "sqlite":
		if c.Database.Path == "" {
			return fmt.Errorf("database.path is required for sqlite")
		}
	case "postgres":
		if c.Database.DSN == "" && c.Database.Host == "" {
			return fmt.Errorf("database.dsn or database.host is required for postgres")
		}
		if c.Database.Port == 0 {
			c.Database.Port = 5432
		}
	default:
		return fmt.Errorf("database.driver must be sqlite or postgres")
	}

	if c.FileStore.Type == "" {
		c.FileStore.Type = "local"
	}
	if c.FileStore.Data == nil {
		return fmt.Errorf("file_store.data is required")
	}

	if c.Dataset.MaxRows <= 0 {
		c.Dataset.MaxRows = DefaultMaxRows
	}
	if c.Dataset.ContextRows <= 0 {
		c.Dataset.ContextRows = DefaultContextRows
	}
	if c.Dataset.ListLimit <= 0 {
		c.Dataset.ListLimit = DefaultListLimit
	}
	if c.Dataset.MaxUploadSize <= 0 {
		c.Dataset.MaxUploadSize = 20 * 1024 * 1024
	}
	if c.Dataset.CacheSize <= 0 {
		c.Dataset.CacheSize = 64
	}
	if c.Dataset.CacheTTLSeconds <= 0 {
		c.Dataset.CacheTTLSeconds = 600
	}

	if c.AI.Provider == "" {
		c.AI.Provider = "gemini"
	}
	if c.AI.Model == "" {
		c.AI.Model = DefaultModel
	}
	if c.AI.Temperature == 0 {
		c.AI.Temperature = 0.7
	}
	if c.AI.Timeout <= 0 {
		c.AI.Timeout = 60
	}

	if c.TempSweep.Spec == "" {
		c.TempSweep.Spec = "*/30 * * * *"
	}
	if c.TempSweep.MaxAgeMinutes <= 0 {
		c.TempSweep.MaxAgeMinutes = 60
	}
	return nil
}
