// Package config loads host configuration for the ToC loader and numbering
// pass, with optional hot reload.
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"sync"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v2"
)

// EnvPrefix prefixes environment overrides, e.g. EXTTOC_TOC_PATH.
const EnvPrefix = "EXTTOC"

// Manager handles loading and hot-reloading configuration.
type Manager struct {
	v      *viper.Viper
	logger *slog.Logger

	mu        sync.RWMutex
	config    *Config
	callbacks []func(*Config)
}

// Option configures a Manager.
type Option func(*Manager)

// WithLogger sets the logger used to report failed reloads.
func WithLogger(logger *slog.Logger) Option {
	return func(cm *Manager) {
		if logger != nil {
			cm.logger = logger
		}
	}
}

// NewManager creates a new config manager and loads initial config.
// cfgFile may be empty, in which case exttoc.yaml is looked up in the
// working directory and its absence is not an error.
func NewManager(cfgFile string, opts ...Option) (*Manager, error) {
	cm := &Manager{
		v:         viper.New(),
		logger:    slog.New(slog.DiscardHandler),
		callbacks: make([]func(*Config), 0),
	}
	for _, opt := range opts {
		opt(cm)
	}

	if err := cm.initViper(cfgFile); err != nil {
		return nil, err
	}

	cfg, err := cm.load()
	if err != nil {
		return nil, err
	}
	cm.config = cfg

	return cm, nil
}

// initViper sets up viper with defaults and config file.
func (cm *Manager) initViper(cfgFile string) error {
	defaults := DefaultConfig()
	cm.v.SetDefault("toc_path", defaults.TocPath)
	cm.v.SetDefault("exclude_missing", defaults.ExcludeMissing)
	cm.v.SetDefault("multitoc_numbering", defaults.MultitocNumbering)
	cm.v.SetDefault("source_suffixes", defaults.SourceSuffixes)
	cm.v.SetDefault("meta_schema", defaults.MetaSchema)
	cm.v.SetDefault("cache_size", defaults.CacheSize)
	cm.v.SetDefault("reload_attempts", defaults.ReloadAttempts)
	cm.v.SetDefault("reload_delay", defaults.ReloadDelay)

	cm.v.SetEnvPrefix(EnvPrefix)
	cm.v.AutomaticEnv()

	if cfgFile != "" {
		cm.v.SetConfigFile(cfgFile)
	} else {
		cm.v.SetConfigName("exttoc")
		cm.v.SetConfigType("yaml")
		cm.v.AddConfigPath(".")
	}

	if err := cm.v.ReadInConfig(); err != nil {
		var configFileNotFoundError viper.ConfigFileNotFoundError
		if !errors.As(err, &configFileNotFoundError) {
			return fmt.Errorf("error reading config file: %w", err)
		}
	}

	return nil
}

// load parses the current viper state into a validated Config.
func (cm *Manager) load() (*Config, error) {
	var cfg Config
	if err := cm.v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return &cfg, nil
}

// Get returns the current configuration (thread-safe).
func (cm *Manager) Get() *Config {
	cm.mu.RLock()
	defer cm.mu.RUnlock()
	return cm.config
}

// OnChange registers a callback for config changes.
func (cm *Manager) OnChange(fn func(*Config)) {
	cm.mu.Lock()
	defer cm.mu.Unlock()
	cm.callbacks = append(cm.callbacks, fn)
}

// WatchConfig enables hot-reloading of configuration. An invalid file is
// logged and the previous configuration stays in effect.
func (cm *Manager) WatchConfig() {
	cm.v.OnConfigChange(func(e fsnotify.Event) {
		cfg, err := cm.load()
		if err != nil {
			cm.logger.Warn("config reload failed", "file", e.Name, "error", err)
			return
		}

		cm.mu.Lock()
		cm.config = cfg
		callbacks := make([]func(*Config), len(cm.callbacks))
		copy(callbacks, cm.callbacks)
		cm.mu.Unlock()

		cm.logger.Info("config reloaded", "file", e.Name)
		for _, fn := range callbacks {
			fn(cfg)
		}
	})
	cm.v.WatchConfig()
}

// WriteDefault writes the default configuration to the specified path.
func WriteDefault(path string) error {
	cfg := DefaultConfig()
	// MapSlice keeps the documented key order; durations are written in
	// their string form so viper parses them back.
	data, err := yaml.Marshal(yaml.MapSlice{
		{Key: "toc_path", Value: cfg.TocPath},
		{Key: "exclude_missing", Value: cfg.ExcludeMissing},
		{Key: "multitoc_numbering", Value: cfg.MultitocNumbering},
		{Key: "source_suffixes", Value: cfg.SourceSuffixes},
		{Key: "meta_schema", Value: cfg.MetaSchema},
		{Key: "cache_size", Value: cfg.CacheSize},
		{Key: "reload_attempts", Value: cfg.ReloadAttempts},
		{Key: "reload_delay", Value: cfg.ReloadDelay.String()},
	})
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	header := []byte(`# External ToC configuration
# Settings can be overridden with EXTTOC_<KEY> environment variables,
# e.g. EXTTOC_TOC_PATH=docs/_toc.yml

`)
	return os.WriteFile(path, append(header, data...), 0o644)
}
