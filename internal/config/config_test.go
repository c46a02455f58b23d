package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadDefaults(t *testing.T) {
	for _, key := range []string{"PORT", "DB_PATH", "AUDIT_DB_PATH", "CATEGORIES_PATH", "GENERATION_SCHEDULE"} {
		t.Setenv(key, "")
	}

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.Port != "8080" {
		t.Errorf("expected default port 8080, got %q", cfg.Port)
	}
	if cfg.DBPath != "./data/fintrack.db" {
		t.Errorf("unexpected default db path: %q", cfg.DBPath)
	}
	if cfg.GenerationSchedule != "@hourly" {
		t.Errorf("unexpected default schedule: %q", cfg.GenerationSchedule)
	}
	if cfg.HistoryCapacity != 50 {
		t.Errorf("unexpected default history capacity: %d", cfg.HistoryCapacity)
	}
}

func TestLoadFromEnvFile(t *testing.T) {
	// godotenv never overrides variables already present in the
	// environment, so clear them outright. t.Setenv registers the restore.
	for _, key := range []string{"PORT", "GENERATION_SCHEDULE"} {
		t.Setenv(key, "")
		os.Unsetenv(key)
	}

	path := filepath.Join(t.TempDir(), ".env")
	content := "PORT=9090\nGENERATION_SCHEDULE=@daily\n"
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("WriteFile failed: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.Port != "9090" {
		t.Errorf("expected port 9090, got %q", cfg.Port)
	}
	if cfg.GenerationSchedule != "@daily" {
		t.Errorf("expected @daily, got %q", cfg.GenerationSchedule)
	}
}

func TestLoadMissingEnvFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "nope.env")); err == nil {
		t.Error("expected error for explicitly named missing .env file")
	}
}
