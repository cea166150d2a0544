// Package config provides configuration for the marketplace server.
package config

import (
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config holds the server configuration.
type Config struct {
	// Server settings
	HTTPPort int

	// Database
	DatabaseURL string

	// Media storage for attached photos
	MediaDir     string
	MediaBaseURL string

	// Bootstrap admin account
	AdminPhone    string
	AdminNickname string
	AdminPassword string

	// Client-side polling cadence
	PollInterval time.Duration

	// Logging
	LogLevel string
}

// Load loads configuration from a .env file (when present) and the
// environment.
func Load() *Config {
	_ = godotenv.Load()

	return &Config{
		HTTPPort:      getEnvInt("PORT", 3007),
		DatabaseURL:   getEnv("DATABASE_URL", "file:itemsharing.db?cache=shared&mode=rwc"),
		MediaDir:      getEnv("MEDIA_DIR", "media"),
		MediaBaseURL:  getEnv("MEDIA_BASE_URL", "/media"),
		AdminPhone:    getEnv("ADMIN_PHONE", "19900000000"),
		AdminNickname: getEnv("ADMIN_NICKNAME", "系统管理员"),
		AdminPassword: getEnv("ADMIN_PASSWORD", "admin123"),
		PollInterval:  time.Duration(getEnvInt("POLL_INTERVAL_MS", 2000)) * time.Millisecond,
		LogLevel:      getEnv("LOG_LEVEL", "info"),
	}
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
