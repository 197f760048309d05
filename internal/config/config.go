// ABOUTME: Configuration loading and parsing for branchsim
// ABOUTME: Supports YAML files with environment variable expansion and duration parsing

package config

import (
	"fmt"
	"os"
	"regexp"
	"time"

	"gopkg.in/yaml.v3"
)

// Config represents the complete branchsim configuration
type Config struct {
	Branches []string      `yaml:"branches"`
	Ticks    TicksConfig   `yaml:"ticks"`
	Storage  StorageConfig `yaml:"storage"`
	Script   ScriptConfig  `yaml:"script"`
	Logging  LoggingConfig `yaml:"logging"`
}

// TicksConfig holds the periodic activity and session timing configuration
type TicksConfig struct {
	SaleInterval     time.Duration `yaml:"-"`
	AutosaveInterval time.Duration `yaml:"-"`
	ObserveWindow    time.Duration `yaml:"-"`
	ShutdownGrace    time.Duration `yaml:"-"`

	// Raw string values for YAML unmarshaling
	SaleIntervalRaw     string `yaml:"sale_interval"`
	AutosaveIntervalRaw string `yaml:"autosave_interval"`
	ObserveWindowRaw    string `yaml:"observe_window"`
	ShutdownGraceRaw    string `yaml:"shutdown_grace"`
}

// StorageConfig selects and locates the snapshot backend
type StorageConfig struct {
	// Backend is "file" or "sqlite"
	Backend string `yaml:"backend"`
	// Path is the snapshot root directory (file) or database path (sqlite)
	Path string `yaml:"path"`
}

// ScriptConfig points at an optional operator-supplied command script
type ScriptConfig struct {
	Path string `yaml:"path"`
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// Default returns the configuration used when no config file is present:
// the classic three-branch roster with the original tick cadence.
func Default() *Config {
	return &Config{
		Branches: []string{"Ahmedabad", "Surat", "Vadodara"},
		Ticks: TicksConfig{
			SaleInterval:     300 * time.Millisecond,
			AutosaveInterval: 800 * time.Millisecond,
			ObserveWindow:    10 * time.Second,
			ShutdownGrace:    time.Second,
		},
		Storage: StorageConfig{
			Backend: "file",
			Path:    "data",
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "text",
		},
	}
}

// Load reads a configuration file from the given path and returns a parsed
// Config. Environment variables in the format ${VAR_NAME} are expanded.
// Duration strings are parsed into time.Duration values, and omitted
// settings fall back to the defaults.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	expandedData := expandEnvVars(string(data))

	cfg := Default()
	if err := yaml.Unmarshal([]byte(expandedData), cfg); err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}

	if err := parseDurations(cfg); err != nil {
		return nil, fmt.Errorf("parsing durations: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}

	return cfg, nil
}

// expandEnvVars replaces ${VAR_NAME} patterns with the corresponding
// environment variable values. Unset variables become empty strings.
func expandEnvVars(s string) string {
	re := regexp.MustCompile(`\$\{([^}]+)\}`)

	return re.ReplaceAllStringFunc(s, func(match string) string {
		varName := re.FindStringSubmatch(match)[1]
		return os.Getenv(varName)
	})
}

// Validate checks that all required configuration fields are present and
// valid. Returns an error describing the first failure encountered.
func (c *Config) Validate() error {
	if len(c.Branches) == 0 {
		return fmt.Errorf("at least one branch is required")
	}

	seen := make(map[string]bool, len(c.Branches))
	for _, name := range c.Branches {
		if name == "" {
			return fmt.Errorf("branch names must not be empty")
		}
		if seen[name] {
			return fmt.Errorf("duplicate branch name %q", name)
		}
		seen[name] = true
	}

	switch c.Storage.Backend {
	case "file", "sqlite":
	default:
		return fmt.Errorf("storage.backend must be \"file\" or \"sqlite\", got %q", c.Storage.Backend)
	}

	if c.Storage.Path == "" {
		return fmt.Errorf("storage.path is required")
	}

	return nil
}

// parseDurations converts the raw duration strings into time.Duration values
func parseDurations(cfg *Config) error {
	fields := []struct {
		name string
		raw  string
		dst  *time.Duration
	}{
		{"sale_interval", cfg.Ticks.SaleIntervalRaw, &cfg.Ticks.SaleInterval},
		{"autosave_interval", cfg.Ticks.AutosaveIntervalRaw, &cfg.Ticks.AutosaveInterval},
		{"observe_window", cfg.Ticks.ObserveWindowRaw, &cfg.Ticks.ObserveWindow},
		{"shutdown_grace", cfg.Ticks.ShutdownGraceRaw, &cfg.Ticks.ShutdownGrace},
	}

	for _, f := range fields {
		if f.raw == "" {
			continue
		}
		d, err := time.ParseDuration(f.raw)
		if err != nil {
			return fmt.Errorf("parsing %s %q: %w", f.name, f.raw, err)
		}
		*f.dst = d
	}

	return nil
}
