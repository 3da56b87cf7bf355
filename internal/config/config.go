// Package config loads the API configuration from the environment.
// A .env file in the working directory is read first when present.
package config

import (
	"fmt"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	Port string `envconfig:"PORT" default:"3333"`
	Env  string `envconfig:"APP_ENV" default:"development"`

	// "memory" selects the in-process store for local runs.
	DatabaseURL      string        `envconfig:"DATABASE_URL" required:"true"`
	DBMaxConns       int32         `envconfig:"DB_MAX_CONNS" default:"25"`
	DBMinConns       int32         `envconfig:"DB_MIN_CONNS" default:"5"`
	DBConnectTimeout time.Duration `envconfig:"DB_CONNECT_TIMEOUT" default:"10s"`
	DBMigrateOnStart bool          `envconfig:"DB_MIGRATE_ON_START" default:"true"`

	// Exactly one of these must be set. The dev secret switches auth to HS256
	// tokens and is meant for local runs only.
	ClerkSecretKey string `envconfig:"CLERK_SECRET_KEY"`
	AuthDevSecret  string `envconfig:"AUTH_DEV_SECRET"`

	RedisAddr      string        `envconfig:"REDIS_ADDR"`
	RedisPassword  string        `envconfig:"REDIS_PASSWORD"`
	RedisDB        int           `envconfig:"REDIS_DB" default:"0"`
	LeaderboardTTL time.Duration `envconfig:"LEADERBOARD_CACHE_TTL" default:"30s"`

	RateLimitPerSecond float64 `envconfig:"RATE_LIMIT_RPS" default:"5"`
	RateLimitBurst     int     `envconfig:"RATE_LIMIT_BURST" default:"30"`

	MetricsUser string `envconfig:"METRICS_USER"`
	MetricsPass string `envconfig:"METRICS_PASS"`

	CORSOrigins []string `envconfig:"CORS_ORIGINS" default:"*"`

	StreakExpirySchedule string `envconfig:"STREAK_EXPIRY_SCHEDULE" default:"5 0 * * *"`

	LogLevel      string `envconfig:"LOG_LEVEL" default:"info"`
	LogPath       string `envconfig:"LOG_PATH"`
	LogMaxSizeMB  int    `envconfig:"LOG_MAX_SIZE_MB" default:"100"`
	LogMaxBackups int    `envconfig:"LOG_MAX_BACKUPS" default:"3"`
	LogMaxAgeDays int    `envconfig:"LOG_MAX_AGE_DAYS" default:"7"`
	LogCompress   bool   `envconfig:"LOG_COMPRESS" default:"false"`
}

func (c *Config) Validate() error {
	if c.DatabaseURL == "" {
		return fmt.Errorf("DATABASE_URL environment variable is not set")
	}
	if c.ClerkSecretKey == "" && c.AuthDevSecret == "" {
		return fmt.Errorf("CLERK_SECRET_KEY environment variable is not set")
	}
	if c.ClerkSecretKey != "" && c.AuthDevSecret != "" {
		return fmt.Errorf("set only one of CLERK_SECRET_KEY and AUTH_DEV_SECRET")
	}
	if c.AuthDevSecret != "" && c.Env == "production" {
		return fmt.Errorf("AUTH_DEV_SECRET must not be set in production")
	}
	if c.DBMaxConns <= 0 || c.DBMinConns < 0 || c.DBMinConns > c.DBMaxConns {
		return fmt.Errorf("invalid DB_MIN_CONNS/DB_MAX_CONNS")
	}
	if c.RateLimitPerSecond <= 0 || c.RateLimitBurst <= 0 {
		return fmt.Errorf("RATE_LIMIT_RPS and RATE_LIMIT_BURST must be > 0")
	}
	return nil
}

func (c *Config) Addr() string {
	return ":" + c.Port
}

// Load reads .env (if any) and the process environment into a Config.
func Load() (*Config, bool, error) {
	dotenv := godotenv.Load() == nil

	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, dotenv, fmt.Errorf("failed to load config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, dotenv, err
	}
	return &cfg, dotenv, nil
}
