package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

type RuntimeConfig struct {
	Dev bool
}

type HTTPConfig struct {
	Port           int           `yaml:"port"`
	RequestTimeout time.Duration `yaml:"request_timeout"`
}

type LogConfig struct {
	Level    string `yaml:"level"`    // trace|debug|info|warn|error
	Format   string `yaml:"format"`   // json|console
	Sampling bool   `yaml:"sampling"` // enable sampling in prod
}

type DatabaseConfig struct {
	URL      string `yaml:"url"`
	PoolSize int    `yaml:"pool_size"`
}

type RedisConfig struct {
	Addr     string        `yaml:"addr"`
	Password string        `yaml:"password"`
	DB       int           `yaml:"db"`
	CacheTTL time.Duration `yaml:"cache_ttl"`
}

// AdminConfig holds the fixed operator credential. The password is a
// bcrypt hash; sessions issued against it live in Postgres with a
// 24-hour expiry.
type AdminConfig struct {
	Username     string        `yaml:"username"`
	PasswordHash string        `yaml:"password_hash"`
	SessionTTL   time.Duration `yaml:"session_ttl"`
}

type AuthConfig struct {
	JWTSecret string        `yaml:"jwt_secret"`
	TokenTTL  time.Duration `yaml:"token_ttl"`
}

type SyncConfig struct {
	RequestTimeout time.Duration `yaml:"request_timeout"`
}

type ReconcilerConfig struct {
	Interval   time.Duration `yaml:"interval"`
	StaleAfter time.Duration `yaml:"stale_after"`
	BatchSize  int           `yaml:"batch_size"`
}

type RateLimitConfig struct {
	OrdersPerMinute int `yaml:"orders_per_minute"`
}

type I18nConfig struct {
	Language string `yaml:"language"` // tr|en
}

type Config struct {
	HTTP       HTTPConfig       `yaml:"http"`
	Log        LogConfig        `yaml:"log"`
	Database   DatabaseConfig   `yaml:"database"`
	Redis      RedisConfig      `yaml:"redis"`
	Admin      AdminConfig      `yaml:"admin"`
	Auth       AuthConfig       `yaml:"auth"`
	Sync       SyncConfig       `yaml:"sync"`
	Reconciler ReconcilerConfig `yaml:"reconciler"`
	RateLimit  RateLimitConfig  `yaml:"rate_limit"`
	I18n       I18nConfig       `yaml:"i18n"`

	Runtime RuntimeConfig `yaml:"-"`
}

func LoadConfig(path string, dev bool) (*Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	var cfg Config
	if err := yaml.Unmarshal(b, &cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	// defaults
	if cfg.HTTP.Port <= 0 {
		cfg.HTTP.Port = 8080
	}
	if cfg.HTTP.RequestTimeout <= 0 {
		cfg.HTTP.RequestTimeout = 30 * time.Second
	}
	if cfg.Log.Level == "" {
		cfg.Log.Level = "info"
	}
	if cfg.Log.Format == "" {
		cfg.Log.Format = "json"
	}
	if cfg.Database.PoolSize <= 0 {
		cfg.Database.PoolSize = 10
	}
	if cfg.Redis.CacheTTL <= 0 {
		cfg.Redis.CacheTTL = time.Hour
	}
	if cfg.Admin.SessionTTL <= 0 {
		cfg.Admin.SessionTTL = 24 * time.Hour
	}
	if cfg.Auth.TokenTTL <= 0 {
		cfg.Auth.TokenTTL = 12 * time.Hour
	}
	if cfg.Sync.RequestTimeout <= 0 {
		cfg.Sync.RequestTimeout = 30 * time.Second
	}
	if cfg.Reconciler.Interval <= 0 {
		cfg.Reconciler.Interval = time.Minute
	}
	if cfg.Reconciler.StaleAfter <= 0 {
		cfg.Reconciler.StaleAfter = 5 * time.Minute
	}
	if cfg.Reconciler.BatchSize <= 0 {
		cfg.Reconciler.BatchSize = 200
	}
	if cfg.RateLimit.OrdersPerMinute <= 0 {
		cfg.RateLimit.OrdersPerMinute = 60
	}
	if cfg.I18n.Language == "" {
		cfg.I18n.Language = "tr"
	}

	// Minimal validation
	if cfg.Database.URL == "" {
		return nil, errors.New("database.url is required")
	}
	if cfg.Redis.Addr == "" {
		return nil, errors.New("redis.addr is required")
	}
	if cfg.Admin.Username == "" || cfg.Admin.PasswordHash == "" {
		return nil, errors.New("admin.username and admin.password_hash are required")
	}
	if cfg.Auth.JWTSecret == "" {
		return nil, errors.New("auth.jwt_secret is required")
	}

	cfg.Runtime.Dev = dev
	return &cfg, nil
}
