// Package config loads treewalk settings from .treewalk/config.yaml and
// merges them with command-line flags.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/bmatcuk/doublestar/v4"
	"gopkg.in/yaml.v3"
)

// DefaultMaxParallelism mirrors the walker's default degree of parallelism.
const DefaultMaxParallelism = 5

// FilesystemConfig controls which entries a filesystem walk reaches.
type FilesystemConfig struct {
	// Include limits visited files to those matching one of these globs
	Include []string `yaml:"include"`

	// Exclude skips files and directories matching one of these globs
	Exclude []string `yaml:"exclude"`

	// ExcludeDirs lists directory names that are never descended into
	ExcludeDirs []string `yaml:"exclude_dirs"`

	// SkipHidden skips entries whose name starts with a dot
	SkipHidden bool `yaml:"skip_hidden"`

	// MaxDepth stops expansion below this depth (0 = unlimited)
	MaxDepth int `yaml:"max_depth"`
}

// HistoryConfig represents run history configuration
type HistoryConfig struct {
	// Enabled records every walk in the history database
	Enabled bool `yaml:"enabled"`

	// DBPath is the path to the history database (empty = $TREEWALK_HOME/history.db)
	DBPath string `yaml:"db_path"`

	// KeepDays removes runs older than this many days after each walk (0 = keep all)
	KeepDays int `yaml:"keep_days"`
}

// MetricsConfig represents metrics export configuration
type MetricsConfig struct {
	// Textfile is where walk metrics are written in textfile collector format
	Textfile string `yaml:"textfile"`
}

// LogRotationConfig controls rotation of the per-run log file
type LogRotationConfig struct {
	MaxSizeMB  int  `yaml:"max_size_mb"`
	MaxBackups int  `yaml:"max_backups"`
	Compress   bool `yaml:"compress"`
}

// Config represents treewalk configuration options
type Config struct {
	// MaxParallelism is the maximum number of concurrent child visits
	MaxParallelism int `yaml:"max_parallelism"`

	// Timeout bounds a whole walk (0 = no timeout)
	Timeout time.Duration `yaml:"timeout"`

	// LogLevel sets the logging verbosity (trace, debug, info, warn, error)
	LogLevel string `yaml:"log_level"`

	// LogDir is the directory where run logs are written (empty disables file logging)
	LogDir string `yaml:"log_dir"`

	// Order selects how pending containers are expanded: lifo or fifo
	Order string `yaml:"order"`

	// AbortSubtreeOnFailure skips the children of containers whose visit failed
	AbortSubtreeOnFailure bool `yaml:"abort_subtree_on_failure"`

	Filesystem  FilesystemConfig  `yaml:"filesystem"`
	History     HistoryConfig     `yaml:"history"`
	Metrics     MetricsConfig     `yaml:"metrics"`
	LogRotation LogRotationConfig `yaml:"log_rotation"`
}

// DefaultConfig returns a Config with sensible default values
func DefaultConfig() *Config {
	return &Config{
		MaxParallelism: DefaultMaxParallelism,
		Timeout:        0,
		LogLevel:       "info",
		LogDir:         filepath.Join(".treewalk", "logs"),
		Order:          "lifo",
		History: HistoryConfig{
			Enabled: true,
		},
		LogRotation: LogRotationConfig{
			MaxSizeMB:  100,
			MaxBackups: 3,
		},
	}
}

// LoadConfig loads configuration from the specified file path.
// A missing file yields the defaults; a malformed one is an error.
// Keys present in the file override defaults even when set to zero values.
func LoadConfig(path string) (*Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return cfg, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	// Decoding onto the defaults keeps values for absent keys. yaml.v3
	// parses durations such as "30m" into time.Duration.
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	return cfg, nil
}

// HistoryDBPath returns the configured history database path, falling back
// to the one under the treewalk home.
func (c *Config) HistoryDBPath() (string, error) {
	if c.History.DBPath != "" {
		return c.History.DBPath, nil
	}
	return GetHistoryDBPath()
}

// LoadConfigFromDir loads configuration from .treewalk/config.yaml in the specified directory
func LoadConfigFromDir(dir string) (*Config, error) {
	return LoadConfig(filepath.Join(dir, ".treewalk", "config.yaml"))
}

// Flags carries command-line overrides. Nil fields leave the configuration untouched.
type Flags struct {
	MaxParallelism *int
	Timeout        *time.Duration
	LogDir         *string
	LogLevel       *string
	Order          *string
	AbortSubtree   *bool
	Include        []string
	Exclude        []string
	NoHistory      *bool
	MetricsFile    *string
}

// MergeWithFlags merges CLI flags into the configuration so flags take
// precedence over config file settings. Include and exclude globs are appended.
func (c *Config) MergeWithFlags(f Flags) {
	if f.MaxParallelism != nil {
		c.MaxParallelism = *f.MaxParallelism
	}
	if f.Timeout != nil {
		c.Timeout = *f.Timeout
	}
	if f.LogDir != nil {
		c.LogDir = *f.LogDir
	}
	if f.LogLevel != nil {
		c.LogLevel = *f.LogLevel
	}
	if f.Order != nil {
		c.Order = *f.Order
	}
	if f.AbortSubtree != nil {
		c.AbortSubtreeOnFailure = *f.AbortSubtree
	}
	c.Filesystem.Include = append(c.Filesystem.Include, f.Include...)
	c.Filesystem.Exclude = append(c.Filesystem.Exclude, f.Exclude...)
	if f.NoHistory != nil && *f.NoHistory {
		c.History.Enabled = false
	}
	if f.MetricsFile != nil {
		c.Metrics.Textfile = *f.MetricsFile
	}
}

// Validate validates the configuration values
func (c *Config) Validate() error {
	if c.MaxParallelism < 0 {
		return fmt.Errorf("max_parallelism must be >= 0, got %d", c.MaxParallelism)
	}

	switch strings.ToLower(c.LogLevel) {
	case "trace", "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("invalid log_level %q, must be one of: trace, debug, info, warn, error", c.LogLevel)
	}

	if c.Timeout < 0 {
		return fmt.Errorf("timeout must be >= 0, got %v", c.Timeout)
	}

	switch strings.ToLower(c.Order) {
	case "", "lifo", "fifo":
	default:
		return fmt.Errorf("invalid order %q, must be lifo or fifo", c.Order)
	}

	if c.Filesystem.MaxDepth < 0 {
		return fmt.Errorf("filesystem.max_depth must be >= 0, got %d", c.Filesystem.MaxDepth)
	}
	for _, group := range [][]string{c.Filesystem.Include, c.Filesystem.Exclude} {
		for _, pattern := range group {
			if !doublestar.ValidatePattern(pattern) {
				return fmt.Errorf("invalid glob pattern %q", pattern)
			}
		}
	}

	if c.History.KeepDays < 0 {
		return fmt.Errorf("history.keep_days must be >= 0, got %d", c.History.KeepDays)
	}

	if c.LogRotation.MaxSizeMB < 0 {
		return fmt.Errorf("log_rotation.max_size_mb must be >= 0, got %d", c.LogRotation.MaxSizeMB)
	}
	if c.LogRotation.MaxBackups < 0 {
		return fmt.Errorf("log_rotation.max_backups must be >= 0, got %d", c.LogRotation.MaxBackups)
	}

	return nil
}
