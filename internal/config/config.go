package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/harrison/sar/internal/fileutil"
	"gopkg.in/yaml.v3"
)

// FileName is the name of the per-project configuration file
const FileName = ".sar.yaml"

// HistoryConfig represents run history configuration
type HistoryConfig struct {
	// Enabled records every run in the history database
	Enabled bool `yaml:"enabled"`

	// DBPath overrides the history database location (empty = $SAR_HOME/history/runs.db)
	DBPath string `yaml:"db_path"`
}

// Config represents sar configuration options
type Config struct {
	// Extensions are the default file name suffixes to include (empty = every file)
	Extensions []string `yaml:"extensions"`

	// IgnoredDirs are directory names that are never entered
	IgnoredDirs []string `yaml:"ignored_dirs"`

	// LogLevel sets the logging verbosity (trace, debug, info, warn, error)
	LogLevel string `yaml:"log_level"`

	// DryRun reports matches without modifying files
	DryRun bool `yaml:"dry_run"`

	// Literal treats the search text as plain text instead of a regular expression
	Literal bool `yaml:"literal"`

	// Gitignore skips paths matched by the root .gitignore
	Gitignore bool `yaml:"gitignore"`

	// Diff prints a unified diff for every matched file
	Diff bool `yaml:"diff"`

	// AssumeYes skips the confirmation prompt
	AssumeYes bool `yaml:"assume_yes"`

	// History contains run history configuration
	History HistoryConfig `yaml:"history"`
}

// FlagOverrides carries CLI flag values. Nil fields were not set on the command line.
type FlagOverrides struct {
	Extensions  *[]string
	IgnoredDirs *[]string
	LogLevel    *string
	DryRun      *bool
	Literal     *bool
	Gitignore   *bool
	Diff        *bool
	AssumeYes   *bool
	NoHistory   *bool
}

// DefaultConfig returns a Config with default values
func DefaultConfig() *Config {
	return &Config{
		Extensions:  nil, // All files
		IgnoredDirs: nil,
		LogLevel:    "info",
		DryRun:      false,
		Literal:     false,
		Gitignore:   false,
		Diff:        false,
		AssumeYes:   false,
		History: HistoryConfig{
			Enabled: true,
			DBPath:  "",
		},
	}
}

// LoadConfig loads configuration from the specified file path
// If the file doesn't exist, returns default configuration without error
// If the file exists but is malformed, returns an error
func LoadConfig(path string) (*Config, error) {
	cfg := DefaultConfig()

	if _, err := os.Stat(path); os.IsNotExist(err) {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var fileCfg Config
	if err := yaml.Unmarshal(data, &fileCfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	if len(fileCfg.Extensions) > 0 {
		cfg.Extensions = fileCfg.Extensions
	}
	if len(fileCfg.IgnoredDirs) > 0 {
		cfg.IgnoredDirs = fileCfg.IgnoredDirs
	}
	if fileCfg.LogLevel != "" {
		cfg.LogLevel = fileCfg.LogLevel
	}
	if fileCfg.DryRun {
		cfg.DryRun = true
	}
	if fileCfg.Literal {
		cfg.Literal = true
	}
	if fileCfg.Gitignore {
		cfg.Gitignore = true
	}
	if fileCfg.Diff {
		cfg.Diff = true
	}
	if fileCfg.AssumeYes {
		cfg.AssumeYes = true
	}

	// history.enabled defaults to true, so only an explicit key may change it
	var rawMap map[string]interface{}
	if err := yaml.Unmarshal(data, &rawMap); err == nil {
		if historySection, exists := rawMap["history"]; exists && historySection != nil {
			historyMap, _ := historySection.(map[string]interface{})
			if _, exists := historyMap["enabled"]; exists {
				cfg.History.Enabled = fileCfg.History.Enabled
			}
			if _, exists := historyMap["db_path"]; exists {
				cfg.History.DBPath = fileCfg.History.DBPath
			}
		}
	}

	return cfg, nil
}

// LoadConfigFromDir loads configuration from .sar.yaml in the specified directory
// If the directory or file doesn't exist, returns default configuration without error
func LoadConfigFromDir(dir string) (*Config, error) {
	return LoadConfig(filepath.Join(dir, FileName))
}

// MergeWithFlags merges CLI flags into the configuration
// Non-nil flag values override configuration values
func (c *Config) MergeWithFlags(flags FlagOverrides) {
	if flags.Extensions != nil {
		c.Extensions = *flags.Extensions
	}
	if flags.IgnoredDirs != nil {
		c.IgnoredDirs = *flags.IgnoredDirs
	}
	if flags.LogLevel != nil {
		c.LogLevel = *flags.LogLevel
	}
	if flags.DryRun != nil {
		c.DryRun = *flags.DryRun
	}
	if flags.Literal != nil {
		c.Literal = *flags.Literal
	}
	if flags.Gitignore != nil {
		c.Gitignore = *flags.Gitignore
	}
	if flags.Diff != nil {
		c.Diff = *flags.Diff
	}
	if flags.AssumeYes != nil {
		c.AssumeYes = *flags.AssumeYes
	}
	if flags.NoHistory != nil && *flags.NoHistory {
		c.History.Enabled = false
	}
}

// Validate validates the configuration values
// Returns an error if any values are invalid
func (c *Config) Validate() error {
	validLevels := map[string]bool{
		"trace": true,
		"debug": true,
		"info":  true,
		"warn":  true,
		"error": true,
	}
	if !validLevels[c.LogLevel] {
		return fmt.Errorf("invalid log_level %q, must be one of: trace, debug, info, warn, error", c.LogLevel)
	}

	if !fileutil.ValidateExtensions(c.Extensions) {
		return fmt.Errorf("invalid extensions %v: file extensions cannot contain '*' and cannot start with '.'", c.Extensions)
	}

	for _, dir := range c.IgnoredDirs {
		if dir == "" {
			return fmt.Errorf("ignored_dirs cannot contain an empty name")
		}
	}

	return nil
}

// HistoryDBPath returns the configured history database path, or the default under SAR_HOME
func (c *Config) HistoryDBPath() (string, error) {
	if c.History.DBPath != "" {
		return c.History.DBPath, nil
	}
	return GetHistoryDBPath()
}
