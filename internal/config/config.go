// Package config centralises configuration parsing for the physique services.
package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// Config captures runtime configuration values for the physique binaries.
type Config struct {
	HTTPAddress    string
	MetricsAddress string
	HTTPTimeout    time.Duration
	CORSOrigin     string
	// PostgresURL selects the Postgres repository; empty runs in memory.
	PostgresURL string

	KafkaBrokers    []string
	ConsumerGroupID string
	ConsumerTopics  []string
	ScoresTopic     string

	JWTSecret string
	JWTIssuer string

	CacheInvalidationURL   string
	CacheInvalidationToken string

	ModelDir        string
	DefaultModelKey string
	ChunkSize       int
	ChunkDelay      time.Duration
	PreloadDelay    time.Duration

	RefreshSchedule string

	SentryDSN   string
	Environment string
	Release     string
	LogLevel    string
}

// Load reads environment variables into Config, applying sensible defaults for local dev.
func Load() Config {
	cfg := Config{
		HTTPAddress:            getEnv("HTTP_ADDRESS", ":8080"),
		MetricsAddress:         getEnv("METRICS_ADDRESS", ":9102"),
		HTTPTimeout:            getDurationEnv("HTTP_TIMEOUT", 5*time.Second),
		CORSOrigin:             getEnv("CORS_ORIGIN", "http://localhost:5173"),
		PostgresURL:            os.Getenv("POSTGRES_URL"),
		ConsumerGroupID:        getEnv("CONSUMER_GROUP_ID", "physique-consumer"),
		ScoresTopic:            getEnv("SCORES_TOPIC", "physique_events"),
		JWTSecret:              getEnv("JWT_SECRET", "dev-secret-change-me"),
		JWTIssuer:              getEnv("JWT_ISSUER", "physique.identity"),
		CacheInvalidationURL:   os.Getenv("CACHE_INVALIDATION_URL"),
		CacheInvalidationToken: os.Getenv("CACHE_INVALIDATION_TOKEN"),
		ModelDir:               getEnv("MODEL_DIR", "assets/models"),
		DefaultModelKey:        getEnv("DEFAULT_MODEL_KEY", "male"),
		ChunkSize:              getIntEnv("CHUNK_SIZE", 256*1024),
		ChunkDelay:             getDurationEnv("CHUNK_DELAY", 16*time.Millisecond),
		PreloadDelay:           getDurationEnv("PRELOAD_DELAY", 2*time.Second),
		RefreshSchedule:        getEnv("REFRESH_SCHEDULE", "0 0 3 * * *"),
		SentryDSN:              os.Getenv("SENTRY_DSN"),
		Environment:            getEnv("ENVIRONMENT", "development"),
		Release:                os.Getenv("RELEASE"),
		LogLevel:               getEnv("LOG_LEVEL", "info"),
	}

	cfg.KafkaBrokers = splitAndTrim(getEnv("KAFKA_BROKERS", "kafka:9092"))
	cfg.ConsumerTopics = splitAndTrim(getEnv("CONSUMER_TOPICS", "workout_events"))
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

func getIntEnv(key string, fallback int) int {
	if value, ok := os.LookupEnv(key); ok && value != "" {
		if parsed, err := strconv.Atoi(value); err == nil {
			return parsed
		}
	}
	return fallback
}
