// Package config provides configuration for the fintrack server and CLI.
// It loads from environment variables and .env files.
package config

import (
	"os"

	"github.com/joho/godotenv"
)

// Version is the semantic application version stamped on backup exports.
const Version = "1.2.0"

// Config represents the application configuration.
type Config struct {
	Port               string
	DBPath             string // bbolt entity database
	AuditDBPath        string // SQLite generation history
	CategoriesPath     string // YAML category taxonomy, optional
	GenerationSchedule string // cron spec for the auto-generation timer
	HistoryCapacity    int
}

// Load loads configuration from environment variables. A .env file in the
// current directory is applied first if present.
func Load(envPath ...string) (*Config, error) {
	if len(envPath) > 0 && envPath[0] != "" {
		if err := godotenv.Load(envPath[0]); err != nil {
			return nil, err
		}
	} else {
		// Ignore a missing .env; the environment may be set directly.
		_ = godotenv.Load()
	}

	cfg := &Config{
		Port:               getEnvOrDefault("PORT", "8080"),
		DBPath:             getEnvOrDefault("DB_PATH", "./data/fintrack.db"),
		AuditDBPath:        getEnvOrDefault("AUDIT_DB_PATH", "./data/audit.db"),
		CategoriesPath:     os.Getenv("CATEGORIES_PATH"),
		GenerationSchedule: getEnvOrDefault("GENERATION_SCHEDULE", "@hourly"),
		HistoryCapacity:    50,
	}
	return cfg, nil
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
