// Package config loads pokepet settings: embedded defaults, then an optional
// YAML file, then POKEPET_* environment variables.
package config

import (
	_ "embed"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"pokepet/internal/catalog"
	"pokepet/internal/engine"
	"pokepet/internal/pet"
	"pokepet/internal/store"
)

//go:embed defaults.yaml
var defaultsYAML []byte

// Backend names accepted by save.backend.
const (
	BackendFile   = "file"
	BackendSQLite = "sqlite"
	BackendMemory = "memory"
)

type Config struct {
	Game    GameConfig    `yaml:"game"`
	Catalog CatalogConfig `yaml:"catalog"`
	Save    SaveConfig    `yaml:"save"`
	Alerts  AlertsConfig  `yaml:"alerts"`
	Web     WebConfig     `yaml:"web"`
	Log     LogConfig     `yaml:"log"`
}

// GameConfig is the game balance.
type GameConfig struct {
	TickPeriod        time.Duration `yaml:"tick_period"`
	SleepDuration     time.Duration `yaml:"sleep_duration"`
	CriticalThreshold float64       `yaml:"critical_threshold"`
	Awake             pet.Delta     `yaml:"awake"`
	Asleep            pet.Delta     `yaml:"asleep"`
}

type CatalogConfig struct {
	BaseURL   string        `yaml:"base_url"`
	MinID     int           `yaml:"min_id"`
	MaxID     int           `yaml:"max_id"`
	Timeout   time.Duration `yaml:"timeout"`
	CacheSize int           `yaml:"cache_size"`
}

type SaveConfig struct {
	Backend    string        `yaml:"backend"`
	Path       string        `yaml:"path"` // directory for file, database file for sqlite
	Key        string        `yaml:"key"`
	StaleAfter time.Duration `yaml:"stale_after"`
}

// AlertsConfig gates desktop notifications. Enabled is the user's consent.
type AlertsConfig struct {
	Enabled bool `yaml:"enabled"`
}

type WebConfig struct {
	Addr string `yaml:"addr"`
}

type LogConfig struct {
	File  string `yaml:"file"`
	Level string `yaml:"level"`
}

// Default returns the embedded defaults.
func Default() *Config {
	cfg := &Config{}
	if err := yaml.Unmarshal(defaultsYAML, cfg); err != nil {
		panic(fmt.Sprintf("config: parsing embedded defaults: %v", err))
	}
	return cfg
}

// DefaultPath is ~/.config/pokepet/config.yaml.
func DefaultPath() string {
	dir, err := store.DefaultDir()
	if err != nil {
		return ""
	}
	return filepath.Join(dir, "config.yaml")
}

// Load merges the YAML file at path over the embedded defaults. An empty path
// uses only the defaults. When optional is set a missing file is not an error.
func Load(path string, optional bool) (*Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if optional && errors.Is(err, os.ErrNotExist) {
			return cfg, nil
		}
		return nil, fmt.Errorf("reading config file: %w", err)
	}
	// Only fields present in the file are overwritten.
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}
	return cfg, nil
}

// Validate reports every bad value at once.
func (c *Config) Validate() error {
	var errs []error
	check := func(ok bool, format string, args ...any) {
		if !ok {
			errs = append(errs, fmt.Errorf(format, args...))
		}
	}

	check(c.Game.TickPeriod > 0, "game.tick_period must be positive, got %s", c.Game.TickPeriod)
	check(c.Game.SleepDuration > 0, "game.sleep_duration must be positive, got %s", c.Game.SleepDuration)
	check(c.Game.CriticalThreshold >= pet.MinStat && c.Game.CriticalThreshold <= pet.MaxStat,
		"game.critical_threshold must be in [0, 100], got %v", c.Game.CriticalThreshold)

	check(c.Catalog.BaseURL != "", "catalog.base_url is required")
	check(c.Catalog.MinID >= 1, "catalog.min_id must be at least 1, got %d", c.Catalog.MinID)
	check(c.Catalog.MaxID >= c.Catalog.MinID, "catalog.max_id %d is below min_id %d", c.Catalog.MaxID, c.Catalog.MinID)
	check(c.Catalog.Timeout > 0, "catalog.timeout must be positive, got %s", c.Catalog.Timeout)
	check(c.Catalog.CacheSize > 0, "catalog.cache_size must be positive, got %d", c.Catalog.CacheSize)

	switch c.Save.Backend {
	case BackendFile, BackendSQLite, BackendMemory:
	default:
		errs = append(errs, fmt.Errorf("save.backend must be file, sqlite or memory, got %q", c.Save.Backend))
	}
	check(c.Save.Key != "", "save.key is required")
	check(c.Save.StaleAfter > 0, "save.stale_after must be positive, got %s", c.Save.StaleAfter)

	if _, err := parseLevel(c.Log.Level); err != nil {
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}

// Engine converts the game section to engine settings.
func (c *Config) Engine() engine.Config {
	return engine.Config{
		TickPeriod:        c.Game.TickPeriod,
		SleepDuration:     c.Game.SleepDuration,
		CriticalThreshold: c.Game.CriticalThreshold,
		Awake:             c.Game.Awake,
		Asleep:            c.Game.Asleep,
	}
}

// CatalogOptions converts the catalog section to client options.
func (c *Config) CatalogOptions() catalog.Options {
	return catalog.Options{
		BaseURL:   c.Catalog.BaseURL,
		MinID:     c.Catalog.MinID,
		MaxID:     c.Catalog.MaxID,
		Timeout:   c.Catalog.Timeout,
		CacheSize: c.Catalog.CacheSize,
	}
}

// LogLevel is the parsed log.level. Validate first.
func (c *Config) LogLevel() slog.Level {
	l, _ := parseLevel(c.Log.Level)
	return l
}

func parseLevel(s string) (slog.Level, error) {
	var l slog.Level
	if err := l.UnmarshalText([]byte(strings.TrimSpace(s))); err != nil {
		return slog.LevelInfo, fmt.Errorf("log.level: %w", err)
	}
	return l, nil
}

// WriteYAML writes the configuration to a YAML file.
func (c *Config) WriteYAML(path string) error {
	data, err := c.Marshal()
	if err != nil {
		return err
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("writing config file: %w", err)
	}
	return nil
}

// Marshal renders the configuration as YAML with durations as strings.
func (c *Config) Marshal() ([]byte, error) {
	data, err := yaml.Marshal(c)
	if err != nil {
		return nil, fmt.Errorf("marshaling config: %w", err)
	}
	return data, nil
}
