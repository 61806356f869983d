package config

import (
	"fmt"
	"net/url"
	"os"
	"strconv"
	"time"
)

type Config struct {
	Server  ServerConfig
	Ledger  LedgerConfig
	Session SessionConfig
	Logging LoggingConfig
}

type ServerConfig struct {
	Port string
	Mode string // gin mode: debug, release, test
}

type LedgerConfig struct {
	// BaseURL is the root of the remote ledger API, e.g.
	// http://localhost:8080/api. All collaborator endpoints are relative
	// to it, including the market-data passthroughs.
	BaseURL string
	Timeout time.Duration
}

type SessionConfig struct {
	// Secret signs session tokens. The gateway is a demo client; the
	// default only exists so it runs out of the box.
	Secret   string
	TokenTTL time.Duration
}

type LoggingConfig struct {
	Level  string
	Format string // "console" or "json"
}

func Load() (*Config, error) {
	cfg := &Config{
		Server: ServerConfig{
			Port: getEnv("PORT", "8090"),
			Mode: getEnv("GIN_MODE", "release"),
		},
		Ledger: LedgerConfig{
			BaseURL: getEnv("LEDGER_API_URL", "http://localhost:8080/api"),
			Timeout: getEnvDuration("LEDGER_TIMEOUT", 15*time.Second),
		},
		Session: SessionConfig{
			Secret:   getEnv("SESSION_SECRET", "securepay-demo-secret"),
			TokenTTL: getEnvDuration("SESSION_TTL", 24*time.Hour),
		},
		Logging: LoggingConfig{
			Level:  getEnv("LOG_LEVEL", "info"),
			Format: getEnv("LOG_FORMAT", "console"),
		},
	}

	if _, err := url.Parse(cfg.Ledger.BaseURL); err != nil {
		return nil, fmt.Errorf("invalid LEDGER_API_URL %q: %w", cfg.Ledger.BaseURL, err)
	}
	return cfg, nil
}

func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok {
		return value
	}
	return fallback
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	if value, ok := os.LookupEnv(key); ok {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
		if secs, err := strconv.Atoi(value); err == nil {
			return time.Duration(secs) * time.Second
		}
	}
	return fallback
}
