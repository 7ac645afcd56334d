// Package config loads and saves the obligo TOML configuration.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"
	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"
)

// Config holds all obligo configuration.
type Config struct {
	General    GeneralConfig    `toml:"general"`
	Appearance AppearanceConfig `toml:"appearance"`
	Daemon     DaemonConfig     `toml:"daemon"`
}

// GeneralConfig holds storage and reporting preferences.
type GeneralConfig struct {
	DBPath     string `toml:"db_path,omitempty"`
	WindowDays int    `toml:"window_days"`
	Currency   string `toml:"currency"`
	LogLevel   string `toml:"log_level"`
}

// AppearanceConfig holds theme settings.
type AppearanceConfig struct {
	Theme string `toml:"theme"`
}

// DaemonConfig holds background refresh settings. Schedule and Digest are cron specs.
type DaemonConfig struct {
	Addr         string `toml:"addr"`
	Schedule     string `toml:"schedule"`
	Digest       string `toml:"digest,omitempty"`
	EventsBuffer int    `toml:"events_buffer"`
}

// DefaultConfig returns the default configuration.
func DefaultConfig() Config {
	return Config{
		General: GeneralConfig{
			WindowDays: 15,
			Currency:   "₫",
			LogLevel:   "info",
		},
		Appearance: AppearanceConfig{
			Theme: "flexoki-dark",
		},
		Daemon: DaemonConfig{
			Addr:         "127.0.0.1:8787",
			Schedule:     "@every 5m",
			Digest:       "0 8 * * *",
			EventsBuffer: 200,
		},
	}
}

// Dir returns the XDG-compliant config directory.
func Dir() string {
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, "obligo")
	}
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".config", "obligo")
}

// Path returns the full path to the config file.
func Path() string {
	return filepath.Join(Dir(), "config.toml")
}

// DataDir returns the XDG-compliant data directory holding the database.
func DataDir() string {
	if xdg := os.Getenv("XDG_DATA_HOME"); xdg != "" {
		return filepath.Join(xdg, "obligo")
	}
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".local", "share", "obligo")
}

// DBPath returns the configured database path or the default under DataDir.
func (c Config) DBPath() string {
	if c.General.DBPath != "" {
		return c.General.DBPath
	}
	return filepath.Join(DataDir(), "obligo.db")
}

// Load reads the config file, returning defaults if it doesn't exist, then applies
// OBLIGO_* environment overrides.
func Load() (Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(Path())
	if err != nil {
		if !os.IsNotExist(err) {
			return cfg, fmt.Errorf("reading config: %w", err)
		}
	} else if err := toml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parsing config: %w", err)
	}

	cfg = ApplyEnv(cfg)
	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// Save writes the config to disk.
func Save(cfg Config) error {
	dir := Dir()
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating config dir: %w", err)
	}

	f, err := os.OpenFile(Path(), os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0o600)
	if err != nil {
		return fmt.Errorf("creating config file: %w", err)
	}
	defer func() { _ = f.Close() }()

	return toml.NewEncoder(f).Encode(cfg)
}

// Exists returns true if a config file exists on disk.
func Exists() bool {
	_, err := os.Stat(Path())
	return err == nil
}

// LoadDotEnv loads .env files into the process environment without overriding
// variables that are already set. Missing files are ignored.
func LoadDotEnv(paths ...string) error {
	if len(paths) == 0 {
		paths = []string{".env", filepath.Join(Dir(), ".env")}
	}
	for _, p := range paths {
		if _, err := os.Stat(p); err != nil {
			continue
		}
		if err := godotenv.Load(p); err != nil {
			return fmt.Errorf("loading %s: %w", p, err)
		}
	}
	return nil
}

// ApplyEnv overlays OBLIGO_* environment variables on cfg.
func ApplyEnv(cfg Config) Config {
	if v := os.Getenv("OBLIGO_DB"); v != "" {
		cfg.General.DBPath = v
	}
	if v := os.Getenv("OBLIGO_WINDOW_DAYS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.General.WindowDays = n
		}
	}
	if v := os.Getenv("OBLIGO_CURRENCY"); v != "" {
		cfg.General.Currency = v
	}
	if v := os.Getenv("OBLIGO_LOG_LEVEL"); v != "" {
		cfg.General.LogLevel = v
	}
	if v := os.Getenv("OBLIGO_THEME"); v != "" {
		cfg.Appearance.Theme = v
	}
	if v := os.Getenv("OBLIGO_DAEMON_ADDR"); v != "" {
		cfg.Daemon.Addr = v
	}
	return cfg
}

// Validate reports every invalid setting at once.
func (c Config) Validate() error {
	var errs []string
	if c.General.WindowDays < 0 {
		errs = append(errs, fmt.Sprintf("general.window_days must be >= 0, got %d", c.General.WindowDays))
	}
	if _, err := logrus.ParseLevel(c.General.LogLevel); err != nil {
		errs = append(errs, fmt.Sprintf("general.log_level: %v", err))
	}
	if c.Daemon.EventsBuffer < 1 {
		errs = append(errs, fmt.Sprintf("daemon.events_buffer must be >= 1, got %d", c.Daemon.EventsBuffer))
	}
	if _, err := cron.ParseStandard(c.Daemon.Schedule); err != nil {
		errs = append(errs, fmt.Sprintf("daemon.schedule %q: %v", c.Daemon.Schedule, err))
	}
	if c.Daemon.Digest != "" {
		if _, err := cron.ParseStandard(c.Daemon.Digest); err != nil {
			errs = append(errs, fmt.Sprintf("daemon.digest %q: %v", c.Daemon.Digest, err))
		}
	}
	if len(errs) > 0 {
		return errors.New("invalid config: " + strings.Join(errs, "; "))
	}
	return nil
}
