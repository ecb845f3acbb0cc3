// Package config loads service configuration from the environment.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
	"go.uber.org/zap"
)

// Storage drivers
const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
	DriverR2       = "r2"
	DriverMemory   = "memory"
)

// Config is everything main needs to wire the service.
type Config struct {
	Port           string   `env:"PORT" envDefault:"5200"`
	AllowedOrigins []string `env:"ALLOWED_ORIGINS" envSeparator:"," envDefault:"http://localhost:3000"`

	StoreDriver string `env:"STORE_DRIVER" envDefault:"sqlite"`
	SQLitePath  string `env:"SQLITE_PATH" envDefault:"data/bread-daily.db"`
	DatabaseURL string `env:"DATABASE_URL"`

	R2AccountID       string `env:"CLOUDFLARE_ACCOUNT_ID"`
	R2AccessKeyID     string `env:"R2_ACCESS_KEY_ID"`
	R2AccessKeySecret string `env:"R2_ACCESS_KEY_SECRET"`
	R2Bucket          string `env:"R2_BUCKET_NAME"`
	R2Prefix          string `env:"R2_PREFIX"`
	R2Endpoint        string `env:"R2_ENDPOINT"`

	GeminiAPIKey string `env:"GEMINI_API_KEY"`
	GeminiModel  string `env:"GEMINI_MODEL" envDefault:"gemini-3-flash-preview"`

	GatewayTimeout    time.Duration `env:"GATEWAY_TIMEOUT" envDefault:"15s"`
	CommunityCooldown time.Duration `env:"COMMUNITY_COOLDOWN" envDefault:"30s"`

	RequestsPerSecond int `env:"REQUESTS_PER_SECOND" envDefault:"20"`
	RequestBurst      int `env:"REQUEST_BURST" envDefault:"40"`
}

// Load reads an optional .env file, then parses the environment.
func Load(logger *zap.Logger) (*Config, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	if err := godotenv.Load(); err != nil {
		logger.Info("⚠️  No .env file found, reading environment variables directly")
	}
	return Parse()
}

// Parse reads the environment without touching .env.
func Parse() (*Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks driver-specific requirements.
func (c *Config) Validate() error {
	for i, origin := range c.AllowedOrigins {
		c.AllowedOrigins[i] = strings.TrimSpace(origin)
	}
	switch c.StoreDriver {
	case DriverSQLite:
		if strings.TrimSpace(c.SQLitePath) == "" {
			return fmt.Errorf("SQLITE_PATH is required for the sqlite driver")
		}
	case DriverPostgres:
		if c.DatabaseURL == "" {
			return fmt.Errorf("DATABASE_URL is required for the postgres driver")
		}
	case DriverR2:
		if c.R2Bucket == "" {
			return fmt.Errorf("R2_BUCKET_NAME is required for the r2 driver")
		}
	case DriverMemory:
	default:
		return fmt.Errorf("unknown STORE_DRIVER %q", c.StoreDriver)
	}
	if c.GatewayTimeout <= 0 {
		return fmt.Errorf("GATEWAY_TIMEOUT must be positive")
	}
	if c.CommunityCooldown < time.Second {
		return fmt.Errorf("COMMUNITY_COOLDOWN must be at least 1s")
	}
	return nil
}
