// Package logging builds the engine's structured log sink.
//
// Records are JSON, one per stage transition. The engine does not own
// rotation policy beyond size/age caps, and never owns transport; the
// file is the hand-off point to whatever collects it.
package logging

import (
	"io"
	"log/slog"
	"os"

	"gopkg.in/natefinch/lumberjack.v2"
)

// Config controls the sink.
type Config struct {
	// File is the log destination. Empty logs to stderr only.
	File string `mapstructure:"file" yaml:"file"`

	// MaxSizeMB, MaxBackups and MaxAgeDays bound the rotated file.
	MaxSizeMB  int `mapstructure:"max_size_mb" yaml:"max_size_mb"`
	MaxBackups int `mapstructure:"max_backups" yaml:"max_backups"`
	MaxAgeDays int `mapstructure:"max_age_days" yaml:"max_age_days"`

	// Verbose lowers the level to debug.
	Verbose bool `mapstructure:"verbose" yaml:"verbose"`
}

// DefaultConfig returns the sink defaults.
func DefaultConfig() Config {
	return Config{
		MaxSizeMB:  10,
		MaxBackups: 5,
		MaxAgeDays: 30,
	}
}

// New builds a logger for the run. The returned closer flushes the
// rotated file, if any.
func New(cfg Config) (*slog.Logger, io.Closer) {
	level := slog.LevelInfo
	if cfg.Verbose {
		level = slog.LevelDebug
	}

	var w io.Writer = os.Stderr
	var closer io.Closer = nopCloser{}
	if cfg.File != "" {
		lj := &lumberjack.Logger{
			Filename:   cfg.File,
			MaxSize:    cfg.MaxSizeMB,
			MaxBackups: cfg.MaxBackups,
			MaxAge:     cfg.MaxAgeDays,
		}
		w = io.MultiWriter(os.Stderr, lj)
		closer = lj
	}

	handler := slog.NewJSONHandler(w, &slog.HandlerOptions{Level: level})
	return slog.New(handler), closer
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }
