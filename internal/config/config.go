// Package config handles configuration loading and defaults.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
)

// Default values.
const (
	DefaultDBFile         = "todod.db"
	DefaultSnoozeMinutes  = 15
	DefaultAlarmBuffer    = 16
	DefaultApproxWindow   = 5 * time.Minute
	DefaultDeliveryWindow = 30 * time.Second
	DefaultLogLevel       = "info"
	DefaultLogFile        = "todod.log"
	DefaultExactTimers    = true
	DefaultDesktopNotify  = true
)

// Config holds the full configuration for todod.
type Config struct {
	// Paths
	DataDir string `toml:"data_dir"`
	DBFile  string `toml:"db_file"`

	// Reminders
	SnoozeMinutes         int  `toml:"snooze_minutes"`
	ExactTimers           bool `toml:"exact_timers"`
	DesktopNotify         bool `toml:"desktop_notifications"`
	AlarmBuffer           int  `toml:"alarm_buffer"`
	ApproxWindowSeconds   int  `toml:"approx_window_seconds"`
	DeliveryWindowSeconds int  `toml:"delivery_window_seconds"`

	// Logging
	LogLevel string `toml:"log_level"`
	LogFile  string `toml:"log_file"`
}

// Load loads configuration in priority order:
// 1. Defaults
// 2. Config file (TODOD_CONFIG, ./todod.toml, or the user config dir)
// 3. Environment variables
func Load() (*Config, error) {
	cfg := &Config{}
	setDefaults(cfg)

	if path := findConfigFile(); path != "" {
		if _, err := toml.DecodeFile(path, cfg); err != nil {
			return nil, fmt.Errorf("loading config file %s: %w", path, err)
		}
	}

	loadFromEnv(cfg)

	if err := finalize(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// SnoozeDuration returns the configured snooze interval.
func (c *Config) SnoozeDuration() time.Duration {
	return time.Duration(c.SnoozeMinutes) * time.Minute
}

// ApproxWindow returns the coalescing window for inexact timers.
func (c *Config) ApproxWindow() time.Duration {
	return time.Duration(c.ApproxWindowSeconds) * time.Second
}

// DeliveryWindow returns the per-firing delivery deadline.
func (c *Config) DeliveryWindow() time.Duration {
	return time.Duration(c.DeliveryWindowSeconds) * time.Second
}

// DBPath returns the absolute path of the sqlite database file.
func (c *Config) DBPath() string {
	return filepath.Join(c.DataDir, c.DBFile)
}

// LogPath returns the absolute path of the log file.
func (c *Config) LogPath() string {
	return filepath.Join(c.DataDir, c.LogFile)
}

func setDefaults(cfg *Config) {
	cfg.DBFile = DefaultDBFile
	cfg.SnoozeMinutes = DefaultSnoozeMinutes
	cfg.ExactTimers = DefaultExactTimers
	cfg.DesktopNotify = DefaultDesktopNotify
	cfg.AlarmBuffer = DefaultAlarmBuffer
	cfg.ApproxWindowSeconds = int(DefaultApproxWindow / time.Second)
	cfg.DeliveryWindowSeconds = int(DefaultDeliveryWindow / time.Second)
	cfg.LogLevel = DefaultLogLevel
	cfg.LogFile = DefaultLogFile
}

// findConfigFile checks TODOD_CONFIG, then ./todod.toml, then the
// user config directory.
func findConfigFile() string {
	if path := os.Getenv("TODOD_CONFIG"); path != "" {
		return path
	}
	if _, err := os.Stat("todod.toml"); err == nil {
		return "todod.toml"
	}
	if dir, err := os.UserConfigDir(); err == nil {
		path := filepath.Join(dir, "todod", "todod.toml")
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}
	return ""
}

func loadFromEnv(cfg *Config) {
	if v := os.Getenv("TODOD_DATA_DIR"); v != "" {
		cfg.DataDir = v
	}
	if v := os.Getenv("TODOD_DB_FILE"); v != "" {
		cfg.DBFile = v
	}
	if v := os.Getenv("TODOD_SNOOZE_MINUTES"); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			cfg.SnoozeMinutes = i
		}
	}
	if v := os.Getenv("TODOD_EXACT_TIMERS"); v != "" {
		cfg.ExactTimers = boolFromString(v)
	}
	if v := os.Getenv("TODOD_DESKTOP_NOTIFICATIONS"); v != "" {
		cfg.DesktopNotify = boolFromString(v)
	}
	if v := os.Getenv("TODOD_ALARM_BUFFER"); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			cfg.AlarmBuffer = i
		}
	}
	if v := os.Getenv("TODOD_APPROX_WINDOW_SECONDS"); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			cfg.ApproxWindowSeconds = i
		}
	}
	if v := os.Getenv("TODOD_DELIVERY_WINDOW_SECONDS"); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			cfg.DeliveryWindowSeconds = i
		}
	}
	if v := os.Getenv("TODOD_LOG_LEVEL"); v != "" {
		cfg.LogLevel = v
	}
	if v := os.Getenv("TODOD_LOG_FILE"); v != "" {
		cfg.LogFile = v
	}
}

// finalize validates values and resolves the data directory.
func finalize(cfg *Config) error {
	if cfg.SnoozeMinutes <= 0 {
		return fmt.Errorf("snooze_minutes must be positive, got %d", cfg.SnoozeMinutes)
	}
	if cfg.AlarmBuffer <= 0 {
		return fmt.Errorf("alarm_buffer must be positive, got %d", cfg.AlarmBuffer)
	}
	if cfg.ApproxWindowSeconds < 0 {
		return fmt.Errorf("approx_window_seconds must not be negative, got %d", cfg.ApproxWindowSeconds)
	}
	if cfg.DeliveryWindowSeconds <= 0 {
		return fmt.Errorf("delivery_window_seconds must be positive, got %d", cfg.DeliveryWindowSeconds)
	}
	switch strings.ToLower(cfg.LogLevel) {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("unknown log_level %q", cfg.LogLevel)
	}

	if cfg.DataDir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return fmt.Errorf("resolving home directory: %w", err)
		}
		cfg.DataDir = filepath.Join(home, ".todod")
	}
	cfg.DataDir = expandPath(cfg.DataDir)
	return nil
}

// expandPath expands a leading ~ and environment variables.
func expandPath(p string) string {
	p = os.ExpandEnv(p)
	if p == "~" {
		if home, err := os.UserHomeDir(); err == nil {
			return home
		}
		return p
	}
	if strings.HasPrefix(p, "~/") {
		if home, err := os.UserHomeDir(); err == nil {
			return filepath.Join(home, p[2:])
		}
	}
	return p
}

func boolFromString(s string) bool {
	s = strings.ToLower(strings.TrimSpace(s))
	return s == "1" || s == "true" || s == "yes" || s == "on"
}
