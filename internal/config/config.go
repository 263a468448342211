// Package config loads service configuration from an optional .env file
// and the process environment.
package config

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/Rhymond/go-money"
	"github.com/joho/godotenv"
)

type Config struct {
	Port string
	Env  string // development, staging, production

	LogLevel  string // debug, info, warn, error
	LogFormat string // json, text

	DatabaseURL string // empty → in-memory KV
	Redis       RedisConfig

	Session   SessionConfig
	RateLimit RateLimitConfig

	BreakerTimeout  time.Duration
	DisplayCurrency string
}

type RedisConfig struct {
	URL      string // empty → no cache
	CacheTTL time.Duration
}

type SessionConfig struct {
	IdleTimeout   time.Duration
	SweepSchedule string // cron spec, e.g. "@every 5m"
}

type RateLimitConfig struct {
	RPS   float64
	Burst int
}

// Load reads .env (when present) and the environment. Variables already
// set in the environment win over .env values.
func Load() (*Config, error) {
	loadEnvFile(defaultEnvPaths()...)
	return fromEnv()
}

// LoadFrom is Load with an explicit list of .env candidates; the first
// existing file is used.
func LoadFrom(paths ...string) (*Config, error) {
	loadEnvFile(paths...)
	return fromEnv()
}

func fromEnv() (*Config, error) {
	cfg := &Config{
		Port: getEnv("PORT", "8080"),
		Env:  getEnv("ENV", "development"),

		LogLevel:  strings.ToLower(getEnv("LOG_LEVEL", "info")),
		LogFormat: strings.ToLower(getEnv("LOG_FORMAT", "json")),

		DatabaseURL: getEnv("DATABASE_URL", ""),
		Redis: RedisConfig{
			URL:      getEnv("REDIS_URL", ""),
			CacheTTL: getEnvAsDuration("REDIS_CACHE_TTL", "30s"),
		},

		Session: SessionConfig{
			IdleTimeout:   getEnvAsDuration("SESSION_IDLE_TIMEOUT", "2h"),
			SweepSchedule: getEnv("SESSION_SWEEP_SCHEDULE", "@every 5m"),
		},
		RateLimit: RateLimitConfig{
			RPS:   getEnvAsFloat("RATE_LIMIT_RPS", 50),
			Burst: getEnvAsInt("RATE_LIMIT_BURST", 100),
		},

		BreakerTimeout:  getEnvAsDuration("BREAKER_TIMEOUT", "30s"),
		DisplayCurrency: strings.ToUpper(getEnv("DISPLAY_CURRENCY", money.USD)),
	}

	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}
	return cfg, nil
}

func (c *Config) validate() error {
	if c.Env != "development" && c.Env != "staging" && c.Env != "production" {
		return fmt.Errorf("ENV must be one of: development, staging, production")
	}
	if _, err := parseLevel(c.LogLevel); err != nil {
		return err
	}
	if c.LogFormat != "json" && c.LogFormat != "text" {
		return fmt.Errorf("LOG_FORMAT must be json or text")
	}
	if money.GetCurrency(c.DisplayCurrency) == nil {
		return fmt.Errorf("DISPLAY_CURRENCY %q is not an ISO 4217 code", c.DisplayCurrency)
	}
	if c.RateLimit.RPS <= 0 || c.RateLimit.Burst <= 0 {
		return fmt.Errorf("RATE_LIMIT_RPS and RATE_LIMIT_BURST must be positive")
	}
	if c.Session.IdleTimeout <= 0 {
		return fmt.Errorf("SESSION_IDLE_TIMEOUT must be positive")
	}
	return nil
}

// Logger builds the structured logger described by the config.
func (c *Config) Logger(w io.Writer) *slog.Logger {
	level, _ := parseLevel(c.LogLevel)
	opts := &slog.HandlerOptions{Level: level}
	if c.LogFormat == "text" {
		return slog.New(slog.NewTextHandler(w, opts))
	}
	return slog.New(slog.NewJSONHandler(w, opts))
}

func parseLevel(s string) (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(s)); err != nil {
		return 0, fmt.Errorf("LOG_LEVEL %q: %w", s, err)
	}
	return level, nil
}

func defaultEnvPaths() []string {
	paths := []string{".env"}
	if exe, err := os.Executable(); err == nil {
		exeDir := filepath.Dir(exe)
		paths = append(paths,
			filepath.Join(exeDir, ".env"),
			filepath.Join(exeDir, "..", ".env"),
		)
	}
	return paths
}

func loadEnvFile(paths ...string) {
	for _, path := range paths {
		if _, err := os.Stat(path); err == nil {
			_ = godotenv.Load(path)
			return
		}
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	value, err := strconv.Atoi(os.Getenv(key))
	if err != nil {
		return defaultValue
	}
	return value
}

func getEnvAsFloat(key string, defaultValue float64) float64 {
	value, err := strconv.ParseFloat(os.Getenv(key), 64)
	if err != nil {
		return defaultValue
	}
	return value
}

func getEnvAsDuration(key string, defaultValue string) time.Duration {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		valueStr = defaultValue
	}

	duration, err := time.ParseDuration(valueStr)
	if err != nil {
		duration, _ = time.ParseDuration(defaultValue)
	}
	return duration
}
