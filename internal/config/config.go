// Package config loads the optional installer configuration file.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"go.uber.org/zap/zapcore"
	"gopkg.in/yaml.v3"

	"github.com/plexsphere/hwservice/internal/service"
)

const (
	// DefaultLogLevel is the default log level.
	DefaultLogLevel = "info"

	// FileName is the config file looked up next to the executable.
	FileName = "install.yaml"
)

// executable is swapped out in tests.
var executable = os.Executable

// Config is the installer configuration. Every field is optional.
type Config struct {
	// LogLevel is the log level: "debug", "info", "warn", "error".
	// Default: "info"
	LogLevel string `yaml:"log_level"`

	service.Paths `yaml:",inline"`
}

// ApplyDefaults sets default values for zero-valued fields. InstallDir
// defaults to the directory of the running executable when it can be resolved.
func (c *Config) ApplyDefaults() {
	if c.LogLevel == "" {
		c.LogLevel = DefaultLogLevel
	}
	if c.InstallDir == "" {
		if dir, err := executableDir(); err == nil {
			c.InstallDir = dir
		}
	}
	c.Paths.ApplyDefaults()
}

// Validate checks that required fields are set and values are acceptable.
func (c *Config) Validate() error {
	if _, err := zapcore.ParseLevel(c.LogLevel); err != nil {
		return fmt.Errorf("config: invalid log_level %q", c.LogLevel)
	}
	return c.Paths.Validate()
}

// Load reads the YAML file at path. A missing file yields the defaults.
func Load(path string) (*Config, error) {
	var cfg Config

	data, err := os.ReadFile(path)
	switch {
	case errors.Is(err, os.ErrNotExist):
	case err != nil:
		return nil, fmt.Errorf("config: read %s: %w", path, err)
	default:
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("config: parse %s: %w", path, err)
		}
	}

	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// DefaultPath returns FileName in the directory of the running executable.
func DefaultPath() (string, error) {
	dir, err := executableDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, FileName), nil
}

func executableDir() (string, error) {
	exe, err := executable()
	if err != nil {
		return "", fmt.Errorf("config: resolve executable path: %w", err)
	}
	exe, err = filepath.EvalSymlinks(exe)
	if err != nil {
		return "", fmt.Errorf("config: resolve symlinks: %w", err)
	}
	return filepath.Dir(exe), nil
}
