// Package config loads reader settings from an optional YAML file and
// discovers the platform default log directory.
package config

import (
	"os"
	"strings"

	"github.com/pkg/errors"
	"go.uber.org/zap/zapcore"
	"gopkg.in/yaml.v3"

	"github.com/yamaru/aalog-reader/internal/bookmark"
	"github.com/yamaru/aalog-reader/internal/locator"
)

// Defaults
const (
	DefaultFileExtension = locator.DefaultExtension
	DefaultBookmarkFile  = bookmark.DefaultFileName
	DefaultMaxUnread     = 1000
	DefaultLogLevel      = "info"

	// LogDirectoryEnv names the environment variable holding the log
	// directory on platforms without a registry
	LogDirectoryEnv = "AALOG_DIR"
)

// Config holds reader settings
type Config struct {
	// LogDirectory holds the .aalog files; empty means the platform default
	LogDirectory  string `yaml:"log_directory"`
	FileExtension string `yaml:"file_extension"`
	BookmarkFile  string `yaml:"bookmark_file"`
	MaxUnread     int    `yaml:"max_unread"`
	LogLevel      string `yaml:"log_level"`
	// HostFQDN overrides host name resolution when set
	HostFQDN string `yaml:"host_fqdn"`
}

// Default returns the built-in configuration
func Default() Config {
	return Config{
		FileExtension: DefaultFileExtension,
		BookmarkFile:  DefaultBookmarkFile,
		MaxUnread:     DefaultMaxUnread,
		LogLevel:      DefaultLogLevel,
	}
}

// Load reads the YAML file at path over the defaults. An empty path
// returns the defaults.
func Load(path string) (Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, errors.Wrapf(err, "reading config %s", path)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, errors.Wrapf(err, "parsing config %s", path)
	}
	if err := cfg.Validate(); err != nil {
		return cfg, errors.Wrapf(err, "invalid config %s", path)
	}
	return cfg, nil
}

// Validate checks the settings and normalizes the file extension
func (c *Config) Validate() error {
	if c.MaxUnread < 0 {
		return errors.Errorf("max_unread must not be negative, got %d", c.MaxUnread)
	}
	if c.MaxUnread == 0 {
		c.MaxUnread = DefaultMaxUnread
	}
	if c.FileExtension == "" {
		c.FileExtension = DefaultFileExtension
	}
	if !strings.HasPrefix(c.FileExtension, ".") {
		c.FileExtension = "." + c.FileExtension
	}
	if c.BookmarkFile == "" {
		c.BookmarkFile = DefaultBookmarkFile
	}
	if _, err := c.Level(); err != nil {
		return err
	}
	return nil
}

// Level returns the configured log level
func (c Config) Level() (zapcore.Level, error) {
	if c.LogLevel == "" {
		return zapcore.InfoLevel, nil
	}
	level, err := zapcore.ParseLevel(c.LogLevel)
	if err != nil {
		return zapcore.InfoLevel, errors.Wrapf(err, "log_level")
	}
	return level, nil
}

// ResolveLogDirectory returns the configured directory or the platform default
func (c Config) ResolveLogDirectory() string {
	if c.LogDirectory != "" {
		return c.LogDirectory
	}
	return DefaultLogDirectory()
}
