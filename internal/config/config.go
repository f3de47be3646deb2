// Package config loads tigo settings from defaults, a YAML file, TIGO_*
// environment variables and command line flags.
package config

import (
	"fmt"
	"time"

	"github.com/thiagokokada/tigo/internal/git/backend"
	"github.com/thiagokokada/tigo/internal/logging"
	"github.com/thiagokokada/tigo/internal/style"
	"github.com/thiagokokada/tigo/internal/watch"
)

// Config is the complete tigo configuration.
type Config struct {
	// Backend selects the repository access layer: cli or native.
	Backend string `yaml:"backend" mapstructure:"backend"`

	Refresh RefreshConfig `yaml:"refresh" mapstructure:"refresh"`
	Watch   WatchConfig   `yaml:"watch" mapstructure:"watch"`
	Graph   GraphConfig   `yaml:"graph" mapstructure:"graph"`
	UI      UIConfig      `yaml:"ui" mapstructure:"ui"`
	Log     LogConfig     `yaml:"log" mapstructure:"log"`
	Logging LoggingConfig `yaml:"logging" mapstructure:"logging"`
}

// RefreshConfig decides when stale views are reloaded.
type RefreshConfig struct {
	// Mode is one of manual, periodic, after-command or auto.
	Mode string `yaml:"mode" mapstructure:"mode"`

	// Interval between periodic probes.
	Interval time.Duration `yaml:"interval" mapstructure:"interval"`
}

type WatchConfig struct {
	// ProbeInterval rate limits the probes that run git.
	ProbeInterval time.Duration `yaml:"probe_interval" mapstructure:"probe_interval"`

	// FSNotify enables filesystem notifications on the git directory.
	FSNotify bool `yaml:"fsnotify" mapstructure:"fsnotify"`

	// Delay coalesces bursts of filesystem notifications.
	Delay time.Duration `yaml:"delay" mapstructure:"delay"`
}

type GraphConfig struct {
	Enabled bool `yaml:"enabled" mapstructure:"enabled"`
	ASCII   bool `yaml:"ascii" mapstructure:"ascii"`
}

type UIConfig struct {
	// Theme is auto, light or dark.
	Theme  string `yaml:"theme" mapstructure:"theme"`
	Syntax bool   `yaml:"syntax" mapstructure:"syntax"`
}

type LogConfig struct {
	// Limit caps the number of commits in the log view; 0 loads everything.
	Limit int `yaml:"limit" mapstructure:"limit"`
}

type LoggingConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`
	Format string `yaml:"format" mapstructure:"format"`
	File   string `yaml:"file" mapstructure:"file"`
}

// DefaultConfig returns the configuration used when nothing overrides it.
func DefaultConfig() *Config {
	return &Config{
		Backend: backend.KindCLI.String(),
		Refresh: RefreshConfig{
			Mode:     watch.Auto.String(),
			Interval: 10 * time.Second,
		},
		Watch: WatchConfig{
			ProbeInterval: time.Second,
			FSNotify:      true,
			Delay:         watch.DefaultNotifyDelay,
		},
		Graph: GraphConfig{Enabled: true},
		UI: UIConfig{
			Theme:  style.PreferenceAuto.String(),
			Syntax: true,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "console",
		},
	}
}

// Validate checks the configuration for invalid values.
func (c *Config) Validate() error {
	if _, err := backend.ParseKind(c.Backend); err != nil {
		return fmt.Errorf("backend: %w", err)
	}
	mode, err := watch.ParseMode(c.Refresh.Mode)
	if err != nil {
		return fmt.Errorf("refresh.mode: %w", err)
	}
	if c.Refresh.Interval < 0 {
		return fmt.Errorf("refresh.interval must not be negative")
	}
	if mode == watch.PeriodicMode && c.Refresh.Interval < 100*time.Millisecond {
		return fmt.Errorf("refresh.interval must be at least 100ms in periodic mode")
	}
	if c.Watch.ProbeInterval < 0 {
		return fmt.Errorf("watch.probe_interval must not be negative")
	}
	if c.Watch.Delay < 0 {
		return fmt.Errorf("watch.delay must not be negative")
	}
	switch c.UI.Theme {
	case style.PreferenceAuto.String(), style.PreferenceLight.String(), style.PreferenceDark.String():
	default:
		return fmt.Errorf("ui.theme must be one of auto, light, dark")
	}
	if c.Log.Limit < 0 {
		return fmt.Errorf("log.limit must not be negative")
	}
	if _, err := logging.ParseLevel(c.Logging.Level); err != nil {
		return fmt.Errorf("logging.level: %w", err)
	}
	switch c.Logging.Format {
	case "console", "json":
	default:
		return fmt.Errorf("logging.format must be one of console, json")
	}
	return nil
}

// BackendKind returns the parsed backend; Validate guarantees it parses.
func (c *Config) BackendKind() backend.Kind {
	kind, _ := backend.ParseKind(c.Backend)
	return kind
}

func (c *Config) RefreshMode() watch.Mode {
	mode, _ := watch.ParseMode(c.Refresh.Mode)
	return mode
}

func (c *Config) ThemePreference() style.Preference {
	return style.ParsePreference(c.UI.Theme)
}

// LoggingConfig converts the logging section for logging.Init.
func (c *Config) LoggingConfig() logging.Config {
	return logging.Config{
		Level:  c.Logging.Level,
		Format: c.Logging.Format,
		File:   c.Logging.File,
	}
}
