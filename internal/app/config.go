// Package app assembles the document services from environment configuration.
package app

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"gestcom/internal/core/numerator"
)

// Storage backends.
const (
	StorageMemory   = "memory"
	StoragePostgres = "postgres"
)

// Config holds process configuration.
type Config struct {
	Port     string
	Env      string
	LogLevel string

	Storage     string
	DatabaseURL string
	AutoMigrate bool
	DBMaxConns  int

	NumeratorStrategy  numerator.Strategy
	NumeratorRangeSize int64
	NumeratorReset     numerator.ResetPeriod

	SettingsCacheTTL time.Duration
	IdempotencyTTL   time.Duration
}

// Development reports whether APP_ENV is development.
func (c Config) Development() bool {
	return c.Env == "development"
}

// NumeratorOptions returns the reference numbering options.
func (c Config) NumeratorOptions() *numerator.Options {
	return &numerator.Options{Strategy: c.NumeratorStrategy, RangeSize: c.NumeratorRangeSize}
}

// LoadConfig reads an optional .env file and then the environment.
func LoadConfig(envFiles ...string) (Config, error) {
	if err := godotenv.Load(envFiles...); err != nil && !os.IsNotExist(err) {
		return Config{}, fmt.Errorf("load env file: %w", err)
	}

	cfg := Config{
		Port:               getEnv("APP_PORT", "8080"),
		Env:                getEnv("APP_ENV", "development"),
		LogLevel:           getEnv("LOG_LEVEL", "info"),
		Storage:            strings.ToLower(getEnv("STORAGE", StorageMemory)),
		DatabaseURL:        os.Getenv("DATABASE_URL"),
		AutoMigrate:        getEnvBool("DB_AUTO_MIGRATE", false),
		DBMaxConns:         getEnvInt("DB_MAX_CONNS", 10),
		NumeratorRangeSize: int64(getEnvInt("NUMERATOR_RANGE_SIZE", 50)),
		SettingsCacheTTL:   getEnvDuration("SETTINGS_CACHE_TTL", 5*time.Minute),
		IdempotencyTTL:     getEnvDuration("IDEMPOTENCY_TTL", 24*time.Hour),
	}

	var err error
	if cfg.NumeratorStrategy, err = numerator.ParseStrategy(getEnv("NUMERATOR_STRATEGY", "strict")); err != nil {
		return Config{}, err
	}
	if cfg.NumeratorReset, err = numerator.ParseResetPeriod(getEnv("NUMERATOR_RESET", "never")); err != nil {
		return Config{}, err
	}

	switch cfg.Storage {
	case StorageMemory:
	case StoragePostgres:
		if cfg.DatabaseURL == "" {
			return Config{}, fmt.Errorf("DATABASE_URL is required when STORAGE=postgres")
		}
	default:
		return Config{}, fmt.Errorf("unknown STORAGE %q (memory or postgres)", cfg.Storage)
	}
	return cfg, nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if n, err := strconv.Atoi(value); err == nil {
			return n
		}
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}
