// Package config provides configuration for the dashboard server.
package config

import (
	"os"
	"strconv"
	"time"
)

// Config holds the dashboard server configuration.
type Config struct {
	// Server settings
	HTTPPort int

	// Debate engine backend
	BackendURL string

	// Storage
	TranscriptsDir string
	DatabaseURL    string

	// WebSocket settings
	PingInterval   time.Duration
	WriteTimeout   time.Duration
	ReadTimeout    time.Duration
	MaxMessageSize int64

	// Rate limiting for run starts
	RateLimitPerMinute int

	// Logging
	LogLevel string
}

// Load loads configuration from environment variables.
func Load() *Config {
	cfg := &Config{
		HTTPPort:           getEnvInt("HTTP_PORT", 8080),
		BackendURL:         getEnv("BACKEND_URL", "http://localhost:9000"),
		TranscriptsDir:     getEnv("TRANSCRIPTS_DIR", "transcripts"),
		DatabaseURL:        getEnv("DATABASE_URL", "file:dashboard.db?cache=shared&mode=rwc"),
		PingInterval:       time.Duration(getEnvInt("PING_INTERVAL_MS", 30000)) * time.Millisecond,
		WriteTimeout:       time.Duration(getEnvInt("WRITE_TIMEOUT_MS", 10000)) * time.Millisecond,
		ReadTimeout:        time.Duration(getEnvInt("READ_TIMEOUT_MS", 60000)) * time.Millisecond,
		MaxMessageSize:     int64(getEnvInt("MAX_MESSAGE_SIZE", 65536)),
		RateLimitPerMinute: getEnvInt("RATE_LIMIT_PER_MINUTE", 5),
		LogLevel:           getEnv("LOG_LEVEL", "info"),
	}
	return cfg
}

func getEnv(key, defaultVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defaultVal
}

func getEnvInt(key string, defaultVal int) int {
	if val := os.Getenv(key); val != "" {
		if intVal, err := strconv.Atoi(val); err == nil {
			return intVal
		}
	}
	return defaultVal
}
