// Package config gathers server settings from the environment, after
// loading an optional .env file.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

type ClickHouse struct {
	Host       string
	NativePort int
	Database   string
	Username   string
	Password   string
}

type Config struct {
	Port        string
	GinMode     string
	LogLevel    string
	DatabaseURL string
	ClickHouse  ClickHouse

	JWTSecret      string
	TrackingAPIKey string
	FEOrigin       string

	RateLimitRPS   float64
	RateLimitBurst int
	AutoMigrate    bool
}

// Load reads .env (when present) and the process environment. The returned
// bool reports whether a .env file was found.
func Load() (*Config, bool, error) {
	envLoaded := godotenv.Load() == nil

	cfg := &Config{
		Port:        getenv("PORT", "8080"),
		GinMode:     os.Getenv("GIN_MODE"),
		LogLevel:    getenv("LOG_LEVEL", "info"),
		DatabaseURL: os.Getenv("DATABASE_URL"),
		ClickHouse: ClickHouse{
			Host:     os.Getenv("CLICKHOUSE_HOST"),
			Database: os.Getenv("CLICKHOUSE_DB_NAME"),
			Username: os.Getenv("CLICKHOUSE_USERNAME"),
			Password: os.Getenv("CLICKHOUSE_PASSWORD"),
		},
		JWTSecret:      os.Getenv("JWT_SECRET_KEY"),
		TrackingAPIKey: os.Getenv("TRACKING_API_KEY"),
		FEOrigin:       getenv("FE_ORIGIN", "http://localhost:3000"),
	}

	var missing []string
	if cfg.DatabaseURL == "" {
		missing = append(missing, "DATABASE_URL")
	}
	if cfg.ClickHouse.Host == "" {
		missing = append(missing, "CLICKHOUSE_HOST")
	}
	if cfg.ClickHouse.Database == "" {
		missing = append(missing, "CLICKHOUSE_DB_NAME")
	}
	if cfg.JWTSecret == "" {
		missing = append(missing, "JWT_SECRET_KEY")
	}
	if cfg.TrackingAPIKey == "" {
		missing = append(missing, "TRACKING_API_KEY")
	}
	if len(missing) > 0 {
		return nil, envLoaded, fmt.Errorf("missing required environment variables: %s", strings.Join(missing, ", "))
	}

	var err error
	if cfg.ClickHouse.NativePort, err = strconv.Atoi(getenv("CLICKHOUSE_NATIVE_PORT", "9000")); err != nil {
		return nil, envLoaded, fmt.Errorf("invalid CLICKHOUSE_NATIVE_PORT: %w", err)
	}
	if cfg.RateLimitRPS, err = strconv.ParseFloat(getenv("RATE_LIMIT_RPS", "20"), 64); err != nil {
		return nil, envLoaded, fmt.Errorf("invalid RATE_LIMIT_RPS: %w", err)
	}
	if cfg.RateLimitBurst, err = strconv.Atoi(getenv("RATE_LIMIT_BURST", "40")); err != nil {
		return nil, envLoaded, fmt.Errorf("invalid RATE_LIMIT_BURST: %w", err)
	}
	if cfg.AutoMigrate, err = strconv.ParseBool(getenv("AUTO_MIGRATE", "false")); err != nil {
		return nil, envLoaded, fmt.Errorf("invalid AUTO_MIGRATE: %w", err)
	}

	return cfg, envLoaded, nil
}

func getenv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
