package main

import (
	"fmt"
	"os"
	"time"

	"revtrack/internal/common/cache"
	"revtrack/internal/common/db"
	"revtrack/pkg/utils/logger"

	"gopkg.in/yaml.v3"
)

const (
	defaultHTTPAddr        = "0.0.0.0:8080"
	defaultReadTimeout     = 5 * time.Second
	defaultWriteTimeout    = 10 * time.Second
	defaultIdleTimeout     = 60 * time.Second
	defaultShutdownTimeout = 10 * time.Second
)

// Storage backends selectable at deployment time.
const (
	BackendMySQL    = "mysql"
	BackendPostgres = "postgres"
	BackendRedis    = "redis"
)

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Addr         string        `yaml:"addr"`
	ReadTimeout  time.Duration `yaml:"readTimeout"`
	WriteTimeout time.Duration `yaml:"writeTimeout"`
	IdleTimeout  time.Duration `yaml:"idleTimeout"`
}

// StorageConfig selects the repository backend and read caching behaviour.
type StorageConfig struct {
	// Backend is one of mysql, postgres, redis.
	Backend string `yaml:"backend"`
	// CacheReads serves relational point reads through Redis. Ignored for
	// the redis backend, which is its own store.
	CacheReads    bool          `yaml:"cacheReads"`
	CacheTTL      time.Duration `yaml:"cacheTTL"`
	CacheEmptyTTL time.Duration `yaml:"cacheEmptyTTL"`
}

// AppConfig holds the review-service configuration.
type AppConfig struct {
	Server  ServerConfig  `yaml:"server"`
	Logger  logger.Config `yaml:"logger"`
	Storage StorageConfig `yaml:"storage"`

	MySQL    db.MySQLConfig      `yaml:"mysql"`
	Postgres db.PostgreSQLConfig `yaml:"postgres"`
	Redis    cache.RedisConfig   `yaml:"redis"`
}

func loadYAML(path string, out interface{}) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config file failed: %w", err)
	}
	if err := yaml.Unmarshal(data, out); err != nil {
		return fmt.Errorf("parse config file failed: %w", err)
	}
	return nil
}

func loadAppConfig(path string) (*AppConfig, error) {
	var cfg AppConfig
	if err := loadYAML(path, &cfg); err != nil {
		return nil, err
	}

	if cfg.Storage.Backend == "" {
		cfg.Storage.Backend = BackendMySQL
	}
	switch cfg.Storage.Backend {
	case BackendMySQL:
		if cfg.MySQL.DSN == "" {
			return nil, fmt.Errorf("mysql dsn is required")
		}
	case BackendPostgres:
		if cfg.Postgres.DSN == "" {
			return nil, fmt.Errorf("postgres dsn is required")
		}
	case BackendRedis:
		if cfg.Redis.Addr == "" {
			return nil, fmt.Errorf("redis addr is required")
		}
	default:
		return nil, fmt.Errorf("unknown storage backend: %s", cfg.Storage.Backend)
	}

	if cfg.Storage.CacheReads && cfg.Redis.Addr == "" {
		return nil, fmt.Errorf("redis addr is required when cacheReads is enabled")
	}
	if cfg.Redis.Addr != "" {
		applyRedisDefaults(&cfg.Redis)
	}

	if cfg.Server.Addr == "" {
		cfg.Server.Addr = defaultHTTPAddr
	}
	if cfg.Server.ReadTimeout == 0 {
		cfg.Server.ReadTimeout = defaultReadTimeout
	}
	if cfg.Server.WriteTimeout == 0 {
		cfg.Server.WriteTimeout = defaultWriteTimeout
	}
	if cfg.Server.IdleTimeout == 0 {
		cfg.Server.IdleTimeout = defaultIdleTimeout
	}

	return &cfg, nil
}

func applyRedisDefaults(cfg *cache.RedisConfig) {
	defaults := cache.DefaultRedisConfig()
	if cfg.MaxRetries == 0 {
		cfg.MaxRetries = defaults.MaxRetries
	}
	if cfg.MinRetryBackoff == 0 {
		cfg.MinRetryBackoff = defaults.MinRetryBackoff
	}
	if cfg.MaxRetryBackoff == 0 {
		cfg.MaxRetryBackoff = defaults.MaxRetryBackoff
	}
	if cfg.DialTimeout == 0 {
		cfg.DialTimeout = defaults.DialTimeout
	}
	if cfg.ReadTimeout == 0 {
		cfg.ReadTimeout = defaults.ReadTimeout
	}
	if cfg.WriteTimeout == 0 {
		cfg.WriteTimeout = defaults.WriteTimeout
	}
	if cfg.PoolSize == 0 {
		cfg.PoolSize = defaults.PoolSize
	}
	if cfg.MinIdleConns == 0 {
		cfg.MinIdleConns = defaults.MinIdleConns
	}
	if cfg.PoolTimeout == 0 {
		cfg.PoolTimeout = defaults.PoolTimeout
	}
	if cfg.ConnMaxIdleTime == 0 {
		cfg.ConnMaxIdleTime = defaults.ConnMaxIdleTime
	}
	if cfg.ConnMaxLifetime == 0 {
		cfg.ConnMaxLifetime = defaults.ConnMaxLifetime
	}
}
