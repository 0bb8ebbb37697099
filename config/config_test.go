package config

import (
	"os"
	"path/filepath"
	"slices"
	"sync/atomic"
	"testing"
	"time"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	if cfg.TocPath != "_toc.yml" {
		t.Errorf("expected _toc.yml, got %s", cfg.TocPath)
	}
	if !cfg.MultitocNumbering {
		t.Error("expected multitoc numbering to default to true")
	}
	if !slices.Equal(cfg.SourceSuffixes, []string{".rst", ".md"}) {
		t.Errorf("unexpected suffixes %v", cfg.SourceSuffixes)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("default config is invalid: %v", err)
	}
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name   string
		modify func(*Config)
	}{
		{"empty toc path", func(c *Config) { c.TocPath = "" }},
		{"negative cache", func(c *Config) { c.CacheSize = -1 }},
		{"no reload attempts", func(c *Config) { c.ReloadAttempts = 0 }},
		{"negative delay", func(c *Config) { c.ReloadDelay = -time.Second }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.modify(cfg)
			if err := cfg.Validate(); err == nil {
				t.Error("expected validation error")
			}
		})
	}
}

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	configFile := filepath.Join(t.TempDir(), "exttoc.yaml")
	if err := os.WriteFile(configFile, []byte(content), 0644); err != nil {
		t.Fatalf("failed to write config file: %v", err)
	}
	return configFile
}

func TestNewManager(t *testing.T) {
	t.Run("loads from config file", func(t *testing.T) {
		configFile := writeConfig(t, `
toc_path: docs/_toc.yml
exclude_missing: true
reload_delay: 250ms
source_suffixes: [".md"]
`)

		mgr, err := NewManager(configFile)
		if err != nil {
			t.Fatalf("failed to create manager: %v", err)
		}

		cfg := mgr.Get()
		if cfg.TocPath != "docs/_toc.yml" {
			t.Errorf("expected docs/_toc.yml, got %s", cfg.TocPath)
		}
		if !cfg.ExcludeMissing {
			t.Error("expected exclude_missing from file")
		}
		if cfg.ReloadDelay != 250*time.Millisecond {
			t.Errorf("expected 250ms, got %s", cfg.ReloadDelay)
		}
		if cfg.CacheSize != 64 {
			t.Errorf("expected default cache size, got %d", cfg.CacheSize)
		}
		if !slices.Equal(cfg.SourceSuffixes, []string{".md"}) {
			t.Errorf("unexpected suffixes %v", cfg.SourceSuffixes)
		}
	})

	t.Run("environment overrides file", func(t *testing.T) {
		t.Setenv("EXTTOC_TOC_PATH", "env/_toc.yml")
		configFile := writeConfig(t, "toc_path: file/_toc.yml\n")

		mgr, err := NewManager(configFile)
		if err != nil {
			t.Fatalf("failed to create manager: %v", err)
		}
		if got := mgr.Get().TocPath; got != "env/_toc.yml" {
			t.Errorf("expected env/_toc.yml, got %s", got)
		}
	})

	t.Run("rejects invalid config", func(t *testing.T) {
		configFile := writeConfig(t, "reload_attempts: 0\n")
		if _, err := NewManager(configFile); err == nil {
			t.Error("expected error for invalid config")
		}
	})

	t.Run("missing explicit file", func(t *testing.T) {
		if _, err := NewManager(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
			t.Error("expected error for missing config file")
		}
	})
}

func TestWriteDefault(t *testing.T) {
	path := filepath.Join(t.TempDir(), "exttoc.yaml")
	if err := WriteDefault(path); err != nil {
		t.Fatalf("WriteDefault error = %v", err)
	}

	mgr, err := NewManager(path)
	if err != nil {
		t.Fatalf("failed to load written default: %v", err)
	}

	got, want := mgr.Get(), DefaultConfig()
	if got.TocPath != want.TocPath || got.ReloadDelay != want.ReloadDelay || got.ReloadAttempts != want.ReloadAttempts {
		t.Errorf("round trip mismatch: got %+v, want %+v", got, want)
	}
}

func TestManager_OnChange_Multiple(t *testing.T) {
	mgr, err := NewManager(writeConfig(t, "toc_path: _toc.yml\n"))
	if err != nil {
		t.Fatalf("failed to create manager: %v", err)
	}

	mgr.OnChange(func(cfg *Config) {})
	mgr.OnChange(func(cfg *Config) {})
	mgr.OnChange(func(cfg *Config) {})

	mgr.mu.RLock()
	if len(mgr.callbacks) != 3 {
		t.Errorf("expected 3 callbacks, got %d", len(mgr.callbacks))
	}
	mgr.mu.RUnlock()
}

func TestManager_Get_ThreadSafe(t *testing.T) {
	mgr, err := NewManager(writeConfig(t, "toc_path: _toc.yml\n"))
	if err != nil {
		t.Fatalf("failed to create manager: %v", err)
	}

	done := make(chan struct{})
	for i := 0; i < 10; i++ {
		go func() {
			for j := 0; j < 100; j++ {
				_ = mgr.Get().TocPath
			}
			done <- struct{}{}
		}()
	}
	for i := 0; i < 10; i++ {
		<-done
	}
}

func TestManager_WatchConfig(t *testing.T) {
	configFile := writeConfig(t, "toc_path: initial.yml\n")

	mgr, err := NewManager(configFile)
	if err != nil {
		t.Fatalf("failed to create manager: %v", err)
	}

	var callbackCount atomic.Int32
	var lastValue atomic.Value

	mgr.OnChange(func(cfg *Config) {
		callbackCount.Add(1)
		lastValue.Store(cfg.TocPath)
	})

	mgr.WatchConfig()

	// Give fsnotify time to set up the watcher
	time.Sleep(100 * time.Millisecond)

	if err := os.WriteFile(configFile, []byte("toc_path: updated.yml\n"), 0644); err != nil {
		t.Fatalf("failed to write updated config file: %v", err)
	}

	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if callbackCount.Load() > 0 {
			break
		}
		time.Sleep(50 * time.Millisecond)
	}

	if callbackCount.Load() == 0 {
		t.Fatal("callback was not invoked after config file change")
	}
	if got := mgr.Get().TocPath; got != "updated.yml" {
		t.Errorf("config not updated: expected updated.yml, got %s", got)
	}
	if v := lastValue.Load(); v != "updated.yml" {
		t.Errorf("callback received wrong value: expected updated.yml, got %v", v)
	}
}
