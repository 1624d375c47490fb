// Package config loads engine configuration from file, environment
// and flags, in that order of increasing precedence.
//
// The config file lives at ~/.config/bpsync/config.yaml by default;
// every key can be overridden with a BPSYNC_* environment variable
// (nested keys use underscores, e.g. BPSYNC_LOG_FILE).
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/browserpair/bpsync/internal/logging"
)

// ProfileConfig names one profile root.
type ProfileConfig struct {
	Name string `mapstructure:"name" yaml:"name"`
	Path string `mapstructure:"path" yaml:"path"`
}

// Config is the full engine configuration.
type Config struct {
	ProfileA ProfileConfig  `mapstructure:"profile_a" yaml:"profile_a"`
	ProfileB ProfileConfig  `mapstructure:"profile_b" yaml:"profile_b"`
	StateDir string         `mapstructure:"state_dir" yaml:"state_dir"`
	Log      logging.Config `mapstructure:"log" yaml:"log"`
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		ProfileA: ProfileConfig{Name: "a"},
		ProfileB: ProfileConfig{Name: "b"},
		StateDir: defaultStateDir(),
		Log:      logging.DefaultConfig(),
	}
}

// DefaultPath returns the default config file location.
func DefaultPath() string {
	if dir, err := os.UserConfigDir(); err == nil {
		return filepath.Join(dir, "bpsync", "config.yaml")
	}
	return filepath.Join(".", "bpsync.yaml")
}

// Load reads configuration. path may be empty to use the default
// location; a missing file is not an error, defaults and environment
// still apply.
func Load(path string) (*Config, error) {
	v := viper.New()
	v.SetEnvPrefix("BPSYNC")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	def := Default()
	v.SetDefault("profile_a.name", def.ProfileA.Name)
	v.SetDefault("profile_b.name", def.ProfileB.Name)
	v.SetDefault("state_dir", def.StateDir)
	v.SetDefault("log.max_size_mb", def.Log.MaxSizeMB)
	v.SetDefault("log.max_backups", def.Log.MaxBackups)
	v.SetDefault("log.max_age_days", def.Log.MaxAgeDays)

	if path == "" {
		path = DefaultPath()
	}
	v.SetConfigFile(path)
	v.SetConfigType("yaml")
	if err := v.ReadInConfig(); err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("read config %s: %w", path, err)
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}
	if cfg.StateDir == "" {
		cfg.StateDir = defaultStateDir()
	}
	return &cfg, nil
}

// WriteDefault writes a starter config file. It refuses to overwrite
// an existing one.
func WriteDefault(path string) error {
	if path == "" {
		path = DefaultPath()
	}
	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("config file %s already exists", path)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create config directory: %w", err)
	}
	data, err := yaml.Marshal(Default())
	if err != nil {
		return fmt.Errorf("encode default config: %w", err)
	}
	header := []byte("# bpsync configuration. Every key can be overridden with a\n# BPSYNC_* environment variable, e.g. BPSYNC_STATE_DIR.\n")
	if err := os.WriteFile(path, append(header, data...), 0o644); err != nil {
		return fmt.Errorf("write config: %w", err)
	}
	return nil
}

func defaultStateDir() string {
	if dir := os.Getenv("XDG_STATE_HOME"); dir != "" {
		return filepath.Join(dir, "bpsync")
	}
	if home, err := os.UserHomeDir(); err == nil {
		return filepath.Join(home, ".local", "state", "bpsync")
	}
	return filepath.Join(".", ".bpsync-state")
}
