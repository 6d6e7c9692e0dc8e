package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"

	"tradeboard/internal/adapters/logger" // Import the logger package for LogLevel
)

// Config holds all application configuration.
type Config struct {
	// HTTP Server
	Port       int
	CORSOrigin string // Allowed CORS origin ("*" allows any)

	// Database
	DBPath string

	// Leaderboard
	DefaultLeaderboardLimit int

	// Logging
	LogLevel logger.LogLevel // Use the LogLevel type from the logger adapter
}

// LoadConfig loads configuration from environment variables (.env file).
func LoadConfig() (*Config, error) {
	// Load .env file, but don't fail if it doesn't exist (allow pure env vars)
	_ = godotenv.Load()

	cfg := &Config{}
	var err error
	var errs []string // Collect validation errors

	cfg.Port, err = getEnvAsInt("PORT", 8080)
	if err != nil {
		errs = append(errs, fmt.Sprintf("invalid PORT: %v", err))
	} else if cfg.Port <= 0 || cfg.Port > 65535 {
		errs = append(errs, "PORT must be between 1 and 65535")
	}

	cfg.CORSOrigin = getEnv("CORS_ORIGIN", "*")

	cfg.DBPath = getEnv("DB_PATH", "./data/tradeboard.db")
	if cfg.DBPath == "" {
		errs = append(errs, "DB_PATH must be set")
	}

	cfg.DefaultLeaderboardLimit, err = getEnvAsInt("DEFAULT_LEADERBOARD_LIMIT", 50)
	if err != nil {
		errs = append(errs, fmt.Sprintf("invalid DEFAULT_LEADERBOARD_LIMIT: %v", err))
	} else if cfg.DefaultLeaderboardLimit < 1 || cfg.DefaultLeaderboardLimit > 200 {
		errs = append(errs, "DEFAULT_LEADERBOARD_LIMIT must be between 1 and 200")
	}

	cfg.LogLevel = logger.ParseLevel(getEnv("LOG_LEVEL", "INFO"))

	if len(errs) > 0 {
		return nil, fmt.Errorf("configuration errors: %s", strings.Join(errs, "; "))
	}

	return cfg, nil
}

// --- Environment Variable Helpers ---

// getEnv retrieves an environment variable or returns a default value.
func getEnv(key, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultValue
}

// getEnvAsInt retrieves an environment variable as an integer or returns a default value.
func getEnvAsInt(key string, defaultValue int) (int, error) {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		return defaultValue, nil
	}
	value, err := strconv.Atoi(valueStr)
	if err != nil {
		return 0, fmt.Errorf("value %q is not a valid integer", valueStr)
	}
	return value, nil
}
