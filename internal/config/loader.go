package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

const envPrefix = "TIGO"

// Loader handles configuration loading with Viper.
type Loader struct {
	v          *viper.Viper
	configFile string
}

func NewLoader() *Loader {
	return &Loader{v: viper.New()}
}

// SetConfigFile sets an explicit config file path. A missing explicit file is
// an error; a missing default file is not.
func (l *Loader) SetConfigFile(path string) {
	l.configFile = path
}

// BindFlag makes a command line flag override key when the flag was set.
func (l *Loader) BindFlag(key string, flag *pflag.Flag) error {
	if flag == nil {
		return fmt.Errorf("bind %s: no such flag", key)
	}
	return l.v.BindPFlag(key, flag)
}

// ConfigFileUsed returns the file the last Load read, if any.
func (l *Loader) ConfigFileUsed() string {
	return l.v.ConfigFileUsed()
}

// Load resolves the configuration with this precedence:
// defaults < config file < env vars < flags.
func (l *Loader) Load() (*Config, error) {
	cfg := DefaultConfig()
	l.setupViper(cfg)

	if err := l.loadConfigFile(); err != nil {
		return nil, fmt.Errorf("load config file: %w", err)
	}
	if err := l.v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	cfg.Logging.File = expandTilde(cfg.Logging.File)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

func (l *Loader) setupViper(cfg *Config) {
	v := l.v
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	if xdgConfig := os.Getenv("XDG_CONFIG_HOME"); xdgConfig != "" {
		v.AddConfigPath(filepath.Join(xdgConfig, "tigo"))
	}
	if homeDir, _ := os.UserHomeDir(); homeDir != "" {
		v.AddConfigPath(filepath.Join(homeDir, ".config", "tigo"))
	}
	v.AddConfigPath(".")

	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	for _, d := range defaults(cfg) {
		v.SetDefault(d.key, d.value)
		// Unmarshal only sees env vars of keys viper knows about.
		_ = v.BindEnv(d.key)
	}
	v.AutomaticEnv()
}

type setting struct {
	key   string
	value any
}

func defaults(cfg *Config) []setting {
	return []setting{
		{"backend", cfg.Backend},
		{"refresh.mode", cfg.Refresh.Mode},
		{"refresh.interval", cfg.Refresh.Interval},
		{"watch.probe_interval", cfg.Watch.ProbeInterval},
		{"watch.fsnotify", cfg.Watch.FSNotify},
		{"watch.delay", cfg.Watch.Delay},
		{"graph.enabled", cfg.Graph.Enabled},
		{"graph.ascii", cfg.Graph.ASCII},
		{"ui.theme", cfg.UI.Theme},
		{"ui.syntax", cfg.UI.Syntax},
		{"log.limit", cfg.Log.Limit},
		{"logging.level", cfg.Logging.Level},
		{"logging.format", cfg.Logging.Format},
		{"logging.file", cfg.Logging.File},
	}
}

func (l *Loader) loadConfigFile() error {
	if l.configFile != "" {
		l.v.SetConfigFile(expandTilde(l.configFile))
	}
	err := l.v.ReadInConfig()
	var notFound viper.ConfigFileNotFoundError
	if err != nil && errors.As(err, &notFound) && l.configFile == "" {
		return nil
	}
	return err
}

// expandTilde expands ~ to the user's home directory.
func expandTilde(path string) string {
	if path == "~" || strings.HasPrefix(path, "~/") {
		home, err := os.UserHomeDir()
		if err != nil {
			return path
		}
		return filepath.Join(home, strings.TrimPrefix(path[1:], "/"))
	}
	return path
}
