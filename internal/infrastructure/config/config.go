package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"time"

	"github.com/caarlos0/env/v10"
	"github.com/joho/godotenv"
)

// Storage backends.
const (
	BackendMemory   = "memory"
	BackendCSV      = "csv"
	BackendSQLite   = "sqlite"
	BackendPostgres = "postgres"
)

// Export header sets.
const (
	HeadersKorean  = "ko"
	HeadersEnglish = "en"
)

// Config holds all application configuration.
type Config struct {
	// Storage
	StoreBackend string `env:"STORE_BACKEND" envDefault:"memory"`
	CSVPath      string `env:"CSV_PATH"      envDefault:"./data/wedding_list.csv"`
	CSVWatch     bool   `env:"CSV_WATCH"     envDefault:"false"`
	SQLitePath   string `env:"SQLITE_PATH"   envDefault:"./data/giftledger.db"`

	// Database
	DatabaseURL      string `env:"DATABASE_URL"       envDefault:""`
	DatabaseMaxConns int    `env:"DATABASE_MAX_CONNS" envDefault:"5"`
	DatabaseMinConns int    `env:"DATABASE_MIN_CONNS" envDefault:"1"`
	MigrationsPath   string `env:"MIGRATIONS_PATH"    envDefault:"internal/infrastructure/postgres/migrations"`

	// Redis (optional - leave empty to disable idempotency keys)
	RedisURL       string        `env:"REDIS_URL"       envDefault:""`
	IdempotencyTTL time.Duration `env:"IDEMPOTENCY_TTL" envDefault:"24h"`

	// Kafka change feed (optional)
	KafkaBrokers []string `env:"KAFKA_BROKERS" envSeparator:","`
	KafkaTopic   string   `env:"KAFKA_TOPIC"   envDefault:"giftledger.entries"`

	// HTTP Server
	HTTPPort            string        `env:"HTTP_PORT"             envDefault:"8080"`
	HTTPReadTimeout     time.Duration `env:"HTTP_READ_TIMEOUT"     envDefault:"30s"`
	HTTPWriteTimeout    time.Duration `env:"HTTP_WRITE_TIMEOUT"    envDefault:"30s"`
	HTTPIdleTimeout     time.Duration `env:"HTTP_IDLE_TIMEOUT"     envDefault:"60s"`
	HTTPShutdownTimeout time.Duration `env:"HTTP_SHUTDOWN_TIMEOUT" envDefault:"10s"`
	RateLimitRPS        float64       `env:"RATE_LIMIT_RPS"        envDefault:"20"`
	RateLimitBurst      int           `env:"RATE_LIMIT_BURST"      envDefault:"40"`

	// Logging
	LogLevel  string `env:"LOG_LEVEL"  envDefault:"info"`
	LogFormat string `env:"LOG_FORMAT" envDefault:"json"`

	// Export
	ExportHeaders  string `env:"EXPORT_HEADERS"  envDefault:"ko"`
	ExportFilename string `env:"EXPORT_FILENAME" envDefault:"wedding_list_final.csv"`
	AmountUnit     string `env:"AMOUNT_UNIT"     envDefault:"만원"`
	Timezone       string `env:"TIMEZONE"        envDefault:"Local"`
}

// Load reads an optional .env file and then parses environment variables.
// Variables already present in the environment win over the file.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}

	cfg := &Config{}
	err := env.Parse(cfg)
	if err != nil {
		return nil, err
	}

	cfg.StoreBackend = strings.ToLower(strings.TrimSpace(cfg.StoreBackend))
	cfg.ExportHeaders = strings.ToLower(strings.TrimSpace(cfg.ExportHeaders))

	return cfg, nil
}

// Validate checks combinations that env tags cannot express.
func (c *Config) Validate() error {
	switch c.StoreBackend {
	case BackendMemory:
	case BackendCSV:
		if c.CSVPath == "" {
			return errors.New("CSV_PATH is required for the csv backend")
		}
	case BackendSQLite:
		if c.SQLitePath == "" {
			return errors.New("SQLITE_PATH is required for the sqlite backend")
		}
	case BackendPostgres:
		if c.DatabaseURL == "" {
			return errors.New("DATABASE_URL is required for the postgres backend")
		}
	default:
		return fmt.Errorf("unknown STORE_BACKEND %q", c.StoreBackend)
	}

	switch c.ExportHeaders {
	case HeadersKorean, HeadersEnglish:
	default:
		return fmt.Errorf("unknown EXPORT_HEADERS %q", c.ExportHeaders)
	}

	if c.RateLimitRPS < 0 || c.RateLimitBurst < 0 {
		return errors.New("rate limit settings must not be negative")
	}

	if _, err := c.Location(); err != nil {
		return err
	}

	return nil
}

// Location resolves Timezone. "Local" and "" mean the process time zone.
func (c *Config) Location() (*time.Location, error) {
	switch c.Timezone {
	case "", "Local":
		return time.Local, nil
	}

	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return nil, fmt.Errorf("invalid TIMEZONE %q: %w", c.Timezone, err)
	}
	return loc, nil
}

// RateLimitEnabled reports whether the HTTP rate limiter should be installed.
func (c *Config) RateLimitEnabled() bool {
	return c.RateLimitRPS > 0 && c.RateLimitBurst > 0
}
