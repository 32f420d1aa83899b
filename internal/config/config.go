package config

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// Config is the run configuration read from nasal.yaml.
type Config struct {
	// Color selects coloured diagnostics: auto, always or never.
	Color string `yaml:"color"`

	// LogLevel is the minimum slog level written to stderr: debug, info, warn or error.
	LogLevel string `yaml:"log_level"`

	// TraceHeap logs every allocation, free and frame push/pop at debug level.
	TraceHeap bool `yaml:"trace_heap"`

	// History is the path of the SQLite run history. Empty disables recording.
	History string `yaml:"history,omitempty"`

	// MaxErrors caps how many failures are printed. Zero prints all of them.
	MaxErrors int `yaml:"max_errors"`
}

// Default returns the configuration used when no file is given.
func Default() *Config {
	return &Config{
		Color:    "auto",
		LogLevel: "warn",
	}
}

// LoadConfig reads and parses a nasal.yaml file.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config %s: %w", path, err)
	}
	return ParseConfig(data, path)
}

// ParseConfig parses nasal.yaml content from bytes. Fields missing from the
// document keep their defaults. The path argument is used only for error messages.
func ParseConfig(data []byte, path string) (*Config, error) {
	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, nil
}

// FindConfig searches for nasal.yaml starting from dir and walking up to
// parent directories. It returns an empty path and nil error when no file exists.
func FindConfig(dir string) (string, error) {
	dir, err := filepath.Abs(dir)
	if err != nil {
		return "", fmt.Errorf("resolving directory: %w", err)
	}
	for {
		for _, name := range ConfigFileNames {
			candidate := filepath.Join(dir, name)
			if _, err := os.Stat(candidate); err == nil {
				return candidate, nil
			}
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return "", nil
		}
		dir = parent
	}
}

// Validate checks the configuration for semantic errors.
func (c *Config) Validate() error {
	switch c.Color {
	case "auto", "always", "never":
	default:
		return fmt.Errorf("color: unknown mode %q (want auto, always or never)", c.Color)
	}
	if _, err := ParseLevel(c.LogLevel); err != nil {
		return err
	}
	if c.MaxErrors < 0 {
		return fmt.Errorf("max_errors: must not be negative, got %d", c.MaxErrors)
	}
	return nil
}

// Level returns the configured slog level.
func (c *Config) Level() slog.Level {
	lvl, err := ParseLevel(c.LogLevel)
	if err != nil {
		return slog.LevelWarn
	}
	return lvl
}

// ParseLevel converts a level name to a slog level.
func ParseLevel(name string) (slog.Level, error) {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(strings.ToUpper(name))); err != nil {
		return 0, fmt.Errorf("log_level: unknown level %q", name)
	}
	return lvl, nil
}
