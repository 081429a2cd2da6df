package config

import (
	"fmt"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

type Config struct {
	Server     ServerConfig
	Database   DatabaseConfig
	EventStore EventStoreConfig
	Redis      RedisConfig
	Auth       AuthConfig
	Legacy     LegacyConfig
}

type ServerConfig struct {
	Port int
	Env  string
}

type DatabaseConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	Database string
	SSLMode  string
}

func (d DatabaseConfig) DSN() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		d.Host, d.Port, d.User, d.Password, d.Database, d.SSLMode,
	)
}

// EventStoreConfig holds configuration for the EventStoreDB event bus.
type EventStoreConfig struct {
	// Enabled controls whether domain events go to EventStoreDB.
	// When false the in-process bus is used instead.
	Enabled bool
	// Host is the EventStoreDB server hostname
	Host string
	// Port is the gRPC port (default 2113)
	Port int
	// Insecure disables TLS (for development)
	Insecure bool
	// Username for authentication (optional)
	Username string
	// Password for authentication (optional)
	Password string
}

// RedisConfig holds configuration for the stats cache.
type RedisConfig struct {
	// Addr is host:port; empty disables caching
	Addr     string
	Password string
	DB       int
	// StatsTTLSeconds bounds staleness of cached dashboard aggregates
	StatsTTLSeconds int
}

type AuthConfig struct {
	// JWTSecret signs and verifies API bearer tokens
	JWTSecret string
	// ClerkWebhookSecret is the shared secret for identity webhook signatures
	ClerkWebhookSecret string
	// WebhookToleranceSeconds rejects webhook timestamps older than this
	WebhookToleranceSeconds int
}

// LegacyConfig holds configuration for the legacy occurrence-book importer.
type LegacyConfig struct {
	Enabled  bool
	Host     string
	Port     int
	Database string
	User     string
	Password string
	// StationCode maps imported rows to a station
	StationCode string
	// PollIntervalSeconds between import sweeps
	PollIntervalSeconds int
}

func Load() (*Config, error) {
	// Best effort: a missing .env is fine, env vars win either way.
	_ = godotenv.Load()

	return &Config{
		Server: ServerConfig{
			Port: getEnvInt("SERVER_PORT", 8080),
			Env:  getEnv("ENV", "development"),
		},
		Database: DatabaseConfig{
			Host:     getEnv("DB_HOST", "localhost"),
			Port:     getEnvInt("DB_PORT", 5432),
			User:     getEnv("DB_USER", "crimeease"),
			Password: getEnv("DB_PASSWORD", "crimeease"),
			Database: getEnv("DB_NAME", "crimeease"),
			SSLMode:  getEnv("DB_SSLMODE", "disable"),
		},
		EventStore: EventStoreConfig{
			Enabled:  getEnvBool("EVENTSTORE_ENABLED", false),
			Host:     getEnv("EVENTSTORE_HOST", "localhost"),
			Port:     getEnvInt("EVENTSTORE_PORT", 2113),
			Insecure: getEnvBool("EVENTSTORE_INSECURE", true),
			Username: getEnv("EVENTSTORE_USERNAME", ""),
			Password: getEnv("EVENTSTORE_PASSWORD", ""),
		},
		Redis: RedisConfig{
			Addr:            getEnv("REDIS_ADDR", ""),
			Password:        getEnv("REDIS_PASSWORD", ""),
			DB:              getEnvInt("REDIS_DB", 0),
			StatsTTLSeconds: getEnvInt("STATS_CACHE_TTL_SECONDS", 60),
		},
		Auth: AuthConfig{
			JWTSecret:               getEnv("JWT_SECRET", "dev-secret-change-in-prod"),
			ClerkWebhookSecret:      getEnv("CLERK_WEBHOOK_SECRET", ""),
			WebhookToleranceSeconds: getEnvInt("WEBHOOK_TOLERANCE_SECONDS", 300),
		},
		Legacy: LegacyConfig{
			Enabled:             getEnvBool("LEGACY_IMPORT_ENABLED", false),
			Host:                getEnv("LEGACY_DB_HOST", "localhost"),
			Port:                getEnvInt("LEGACY_DB_PORT", 1433),
			Database:            getEnv("LEGACY_DB_NAME", "OccurrenceBook"),
			User:                getEnv("LEGACY_DB_USER", ""),
			Password:            getEnv("LEGACY_DB_PASSWORD", ""),
			StationCode:         getEnv("LEGACY_STATION_CODE", ""),
			PollIntervalSeconds: getEnvInt("LEGACY_POLL_INTERVAL_SECONDS", 300),
		},
	}, nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if i, err := strconv.Atoi(value); err == nil {
			return i
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
