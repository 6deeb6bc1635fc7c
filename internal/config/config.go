package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	yaml "gopkg.in/yaml.v3"
)

// AppConfig carries all runtime settings for the coordinator.
type AppConfig struct {
	ListenAddr    string
	AllowedOrigin string

	RedisURL    string
	DatabaseURL string

	// StartDelay is the pause between the second join and the first accepted
	// move, giving both clients time to finish local setup.
	StartDelay   time.Duration
	RoomMaxAge   time.Duration
	ReapInterval time.Duration

	MsgOverrideDir string
}

// fileConfig mirrors the optional YAML config file. Every field is optional;
// environment variables override anything set here.
type fileConfig struct {
	ListenAddr     string `yaml:"listen_addr"`
	AllowedOrigin  string `yaml:"allowed_origin"`
	RedisURL       string `yaml:"redis_url"`
	DatabaseURL    string `yaml:"database_url"`
	StartDelay     string `yaml:"start_delay"`
	RoomMaxAge     string `yaml:"room_max_age"`
	ReapInterval   string `yaml:"reap_interval"`
	MsgOverrideDir string `yaml:"msg_override_dir"`
}

func Load() (*AppConfig, error) {
	cfg := &AppConfig{
		ListenAddr:   ":3001",
		StartDelay:   5 * time.Second,
		RoomMaxAge:   2 * time.Hour,
		ReapInterval: time.Minute,
	}

	if path := strings.TrimSpace(os.Getenv("CONFIG_FILE")); path != "" {
		if err := applyFile(cfg, path); err != nil {
			return nil, err
		}
	}

	if v := strings.TrimSpace(os.Getenv("LISTEN_ADDR")); v != "" {
		cfg.ListenAddr = v
	}
	if v := strings.TrimSpace(os.Getenv("ALLOWED_ORIGIN")); v != "" {
		cfg.AllowedOrigin = v
	}
	if v := strings.TrimSpace(os.Getenv("REDIS_URL")); v != "" {
		cfg.RedisURL = v
	}
	if v := strings.TrimSpace(os.Getenv("DATABASE_URL")); v != "" {
		cfg.DatabaseURL = v
	}
	if v := strings.TrimSpace(os.Getenv("START_DELAY")); v != "" {
		d, err := parseDuration(v)
		if err != nil {
			return nil, fmt.Errorf("START_DELAY: %w", err)
		}
		cfg.StartDelay = d
	}
	if v := strings.TrimSpace(os.Getenv("ROOM_MAX_AGE")); v != "" {
		d, err := parseDuration(v)
		if err != nil {
			return nil, fmt.Errorf("ROOM_MAX_AGE: %w", err)
		}
		cfg.RoomMaxAge = d
	}
	if v := strings.TrimSpace(os.Getenv("REAP_INTERVAL")); v != "" {
		d, err := parseDuration(v)
		if err != nil {
			return nil, fmt.Errorf("REAP_INTERVAL: %w", err)
		}
		cfg.ReapInterval = d
	}
	if v := strings.TrimSpace(os.Getenv("MSG_OVERRIDE_DIR")); v != "" {
		cfg.MsgOverrideDir = v
	}

	if cfg.DatabaseURL == "" {
		return nil, errors.New("DATABASE_URL is required")
	}
	if cfg.StartDelay < 0 || cfg.RoomMaxAge <= 0 || cfg.ReapInterval <= 0 {
		return nil, errors.New("durations must be positive")
	}

	return cfg, nil
}

func applyFile(cfg *AppConfig, path string) error {
	b, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config file: %w", err)
	}
	var fc fileConfig
	if err := yaml.Unmarshal(b, &fc); err != nil {
		return fmt.Errorf("parse config file: %w", err)
	}
	if fc.ListenAddr != "" {
		cfg.ListenAddr = fc.ListenAddr
	}
	if fc.AllowedOrigin != "" {
		cfg.AllowedOrigin = fc.AllowedOrigin
	}
	if fc.RedisURL != "" {
		cfg.RedisURL = fc.RedisURL
	}
	if fc.DatabaseURL != "" {
		cfg.DatabaseURL = fc.DatabaseURL
	}
	for _, f := range []struct {
		raw string
		dst *time.Duration
	}{
		{fc.StartDelay, &cfg.StartDelay},
		{fc.RoomMaxAge, &cfg.RoomMaxAge},
		{fc.ReapInterval, &cfg.ReapInterval},
	} {
		if strings.TrimSpace(f.raw) == "" {
			continue
		}
		d, err := parseDuration(f.raw)
		if err != nil {
			return fmt.Errorf("config file: %w", err)
		}
		*f.dst = d
	}
	if fc.MsgOverrideDir != "" {
		cfg.MsgOverrideDir = fc.MsgOverrideDir
	}
	return nil
}

// parseDuration accepts Go duration strings and bare integers (seconds).
func parseDuration(s string) (time.Duration, error) {
	s = strings.TrimSpace(s)
	if n, err := strconv.Atoi(s); err == nil {
		return time.Duration(n) * time.Second, nil
	}
	return time.ParseDuration(s)
}
