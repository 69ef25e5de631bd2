// Package config loads ganttline settings from the environment and an
// optional .env file.
package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds application configuration.
type Config struct {
	// Application
	AppEnv    string
	LogLevel  string
	LogFormat string

	// Database. An empty DatabaseURL selects local SQLite at SQLitePath.
	DatabaseURL string
	SQLitePath  string
	DBMaxConns  int

	// Redis. Empty keeps undo logs in the database.
	RedisURL string

	// RabbitMQ. Empty makes the worker use the in-process bus.
	RabbitMQURL      string
	RabbitMQExchange string

	// Rescheduling
	PastTolerance  time.Duration
	UndoLogTTL     time.Duration
	WorkDayStart   time.Duration
	WorkDayEnd     time.Duration
	SkipWeekends   bool
	CalendarModels []string

	// Outbox
	OutboxPollInterval     time.Duration
	OutboxBatchSize        int
	OutboxMaxRetries       int
	OutboxStatsInterval    time.Duration
	OutboxRetentionDays    int
	OutboxCleanupInterval  time.Duration
	OutboxProcessorEnabled bool

	// Publisher circuit breaker
	BreakerMaxFailures int
	BreakerTimeout     time.Duration

	// Worker
	WorkerHealthAddr string

	// MCP
	MCPAddr      string
	MCPAuthToken string
}

// Load loads configuration from environment variables.
func Load() (*Config, error) {
	// A missing .env file is not an error.
	_ = godotenv.Load()

	cfg := &Config{
		AppEnv:    getEnv("APP_ENV", "development"),
		LogLevel:  getEnv("LOG_LEVEL", "info"),
		LogFormat: getEnv("LOG_FORMAT", "text"),

		DatabaseURL: getEnv("DATABASE_URL", ""),
		SQLitePath:  getEnv("GANTTLINE_SQLITE_PATH", ""),
		DBMaxConns:  getIntEnv("DATABASE_MAX_CONNS", 10),

		RedisURL: getEnv("REDIS_URL", ""),

		RabbitMQURL:      getEnv("RABBITMQ_URL", ""),
		RabbitMQExchange: getEnv("RABBITMQ_EXCHANGE", "ganttline.events"),

		PastTolerance:  getDurationEnv("RESCHEDULE_PAST_TOLERANCE", 30*time.Second),
		UndoLogTTL:     getDurationEnv("UNDO_LOG_TTL", 24*time.Hour),
		WorkDayStart:   getDurationEnv("WORK_DAY_START", 8*time.Hour),
		WorkDayEnd:     getDurationEnv("WORK_DAY_END", 17*time.Hour),
		SkipWeekends:   getBoolEnv("WORK_SKIP_WEEKENDS", true),
		CalendarModels: getListEnv("CALENDAR_MODELS"),

		OutboxPollInterval:     getDurationEnv("OUTBOX_POLL_INTERVAL", 500*time.Millisecond),
		OutboxBatchSize:        getIntEnv("OUTBOX_BATCH_SIZE", 100),
		OutboxMaxRetries:       getIntEnv("OUTBOX_MAX_RETRIES", 5),
		OutboxStatsInterval:    getDurationEnv("OUTBOX_STATS_INTERVAL", 30*time.Second),
		OutboxRetentionDays:    getIntEnv("OUTBOX_RETENTION_DAYS", 14),
		OutboxCleanupInterval:  getDurationEnv("OUTBOX_CLEANUP_INTERVAL", 24*time.Hour),
		OutboxProcessorEnabled: getBoolEnv("OUTBOX_PROCESSOR_ENABLED", true),

		BreakerMaxFailures: getIntEnv("PUBLISHER_BREAKER_MAX_FAILURES", 5),
		BreakerTimeout:     getDurationEnv("PUBLISHER_BREAKER_TIMEOUT", 30*time.Second),

		WorkerHealthAddr: getEnv("WORKER_HEALTH_ADDR", "0.0.0.0:8081"),

		MCPAddr:      getEnv("MCP_ADDR", "127.0.0.1:8082"),
		MCPAuthToken: getEnv("MCP_AUTH_TOKEN", ""),
	}

	return cfg, nil
}

// IsDevelopment returns true if running in development mode.
func (c *Config) IsDevelopment() bool {
	return c.AppEnv == "development"
}

// IsProduction returns true if running in production mode.
func (c *Config) IsProduction() bool {
	return c.AppEnv == "production"
}

// IsLocalMode reports whether the database is the local SQLite file.
func (c *Config) IsLocalMode() bool {
	return c.DatabaseURL == "" || strings.HasPrefix(c.DatabaseURL, "sqlite://")
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getIntEnv(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if i, err := strconv.Atoi(value); err == nil {
			return i
		}
	}
	return defaultValue
}

func getDurationEnv(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}

func getBoolEnv(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return defaultValue
}

func getListEnv(key string) []string {
	var out []string
	for _, item := range strings.Split(os.Getenv(key), ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}
