package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range []string{
		"CONFIG_FILE", "LISTEN_ADDR", "ALLOWED_ORIGIN", "REDIS_URL",
		"DATABASE_URL", "START_DELAY", "ROOM_MAX_AGE", "REAP_INTERVAL",
		"MSG_OVERRIDE_DIR",
	} {
		t.Setenv(k, "")
	}
}

func TestLoadDefaults(t *testing.T) {
	clearEnv(t)
	t.Setenv("DATABASE_URL", "postgres://localhost/chess")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.ListenAddr != ":3001" {
		t.Fatalf("ListenAddr = %q", cfg.ListenAddr)
	}
	if cfg.StartDelay != 5*time.Second || cfg.RoomMaxAge != 2*time.Hour || cfg.ReapInterval != time.Minute {
		t.Fatalf("unexpected duration defaults: %+v", cfg)
	}
}

func TestLoadRequiresDatabaseURL(t *testing.T) {
	clearEnv(t)
	if _, err := Load(); err == nil {
		t.Fatal("expected error without DATABASE_URL")
	}
}

func TestLoadEnvOverrides(t *testing.T) {
	clearEnv(t)
	t.Setenv("DATABASE_URL", "postgres://localhost/chess")
	t.Setenv("LISTEN_ADDR", ":9000")
	t.Setenv("START_DELAY", "10")   // bare seconds
	t.Setenv("ROOM_MAX_AGE", "90m") // Go duration

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.ListenAddr != ":9000" {
		t.Fatalf("ListenAddr = %q", cfg.ListenAddr)
	}
	if cfg.StartDelay != 10*time.Second {
		t.Fatalf("StartDelay = %v", cfg.StartDelay)
	}
	if cfg.RoomMaxAge != 90*time.Minute {
		t.Fatalf("RoomMaxAge = %v", cfg.RoomMaxAge)
	}
}

func TestLoadBadDuration(t *testing.T) {
	clearEnv(t)
	t.Setenv("DATABASE_URL", "postgres://localhost/chess")
	t.Setenv("REAP_INTERVAL", "soon")
	if _, err := Load(); err == nil {
		t.Fatal("expected duration parse error")
	}
}

func TestLoadConfigFileThenEnvWins(t *testing.T) {
	clearEnv(t)
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	body := "listen_addr: \":7000\"\ndatabase_url: \"postgres://file/chess\"\nstart_delay: 3s\n"
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatal(err)
	}
	t.Setenv("CONFIG_FILE", path)
	t.Setenv("LISTEN_ADDR", ":8000")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.ListenAddr != ":8000" {
		t.Fatalf("env should beat file: %q", cfg.ListenAddr)
	}
	if cfg.DatabaseURL != "postgres://file/chess" {
		t.Fatalf("DatabaseURL = %q", cfg.DatabaseURL)
	}
	if cfg.StartDelay != 3*time.Second {
		t.Fatalf("StartDelay = %v", cfg.StartDelay)
	}
}
