package env

import (
	"log/slog"
	"os"

	"github.com/joho/godotenv"
)

// Load attempts to load environment variables from a local .env file.
// Inside the Lambda sandbox no file exists and configuration comes from the
// function's environment, so a missing file is not an error.
func Load() {
	if err := godotenv.Load(".env"); err != nil {
		// Silent fail if missing
	}

	slog.Debug("env_load_attempt_complete")
}

// Get returns the value of key, or fallback when it is unset or empty.
func Get(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}
