// Package config centralises configuration parsing for the aggregator service.
package config

import (
	"os"
	"strings"
	"time"
)

// Config captures runtime configuration values.
type Config struct {
	HTTPAddress     string
	PostgresURL     string // empty selects the in-memory stores
	KafkaBrokers    []string
	JWTSecret       string
	JWTIssuer       string
	SessionTTL      time.Duration
	ProviderTimeout time.Duration // per upstream call inside one aggregation
	FitbitURL       string
	GoogleFitURL    string
	StravaURL       string
}

// Load reads environment variables into Config, applying sensible defaults
// for local dev.
func Load() Config {
	cfg := Config{
		HTTPAddress:     getEnv("HTTP_ADDRESS", ":8080"),
		PostgresURL:     getEnv("POSTGRES_URL", ""),
		JWTSecret:       getEnv("JWT_SECRET", "dev-secret-change-me"),
		JWTIssuer:       getEnv("JWT_ISSUER", "aggregator"),
		SessionTTL:      getDurationEnv("SESSION_TTL", 24*time.Hour),
		ProviderTimeout: getDurationEnv("PROVIDER_TIMEOUT", 10*time.Second),
		FitbitURL:       getEnv("FITBIT_URL", "https://api.fitbit.com/1"),
		GoogleFitURL:    getEnv("GOOGLE_FIT_URL", "https://www.googleapis.com/fitness/v1"),
		StravaURL:       getEnv("STRAVA_URL", "https://www.strava.com/api/v3"),
	}

	if brokers := getEnv("KAFKA_BROKERS", ""); brokers != "" {
		cfg.KafkaBrokers = splitAndTrim(brokers)
	}
	return cfg
}

func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok && value != "" {
		return value
	}
	return fallback
}

func splitAndTrim(value string) []string {
	parts := strings.Split(value, ",")
	out := make([]string, 0, len(parts))
	for _, part := range parts {
		trimmed := strings.TrimSpace(part)
		if trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}

func getDurationEnv(key string, fallback time.Duration) time.Duration {
	if value, ok := os.LookupEnv(key); ok && value != "" {
		if parsed, err := time.ParseDuration(value); err == nil {
			return parsed
		}
	}
	return fallback
}
