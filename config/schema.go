package config

import (
	"errors"
	"fmt"
	"time"
)

// Config holds the host-side settings for loading and numbering a ToC.
type Config struct {
	// TocPath is the ToC file, relative to the source directory.
	TocPath string `mapstructure:"toc_path" yaml:"toc_path"`
	// ExcludeMissing drops references to missing documents without warning.
	ExcludeMissing bool `mapstructure:"exclude_missing" yaml:"exclude_missing"`
	// MultitocNumbering numbers continuously across the root's trees.
	MultitocNumbering bool     `mapstructure:"multitoc_numbering" yaml:"multitoc_numbering"`
	SourceSuffixes    []string `mapstructure:"source_suffixes" yaml:"source_suffixes"`
	// MetaSchema is an optional JSON Schema file for the ToC meta block.
	MetaSchema     string        `mapstructure:"meta_schema" yaml:"meta_schema"`
	CacheSize      int           `mapstructure:"cache_size" yaml:"cache_size"`
	ReloadAttempts uint          `mapstructure:"reload_attempts" yaml:"reload_attempts"`
	ReloadDelay    time.Duration `mapstructure:"reload_delay" yaml:"reload_delay"`
}

// DefaultConfig returns configuration with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		TocPath:           "_toc.yml",
		ExcludeMissing:    false,
		MultitocNumbering: true,
		SourceSuffixes:    []string{".rst", ".md"},
		CacheSize:         64,
		ReloadAttempts:    3,
		ReloadDelay:       100 * time.Millisecond,
	}
}

// Validate reports every invalid setting.
func (c *Config) Validate() error {
	var errs []error
	if c.TocPath == "" {
		errs = append(errs, errors.New("toc_path must not be empty"))
	}
	if c.CacheSize < 0 {
		errs = append(errs, fmt.Errorf("cache_size must not be negative, got %d", c.CacheSize))
	}
	if c.ReloadAttempts == 0 {
		errs = append(errs, errors.New("reload_attempts must be at least 1"))
	}
	if c.ReloadDelay < 0 {
		errs = append(errs, fmt.Errorf("reload_delay must not be negative, got %s", c.ReloadDelay))
	}
	return errors.Join(errs...)
}
