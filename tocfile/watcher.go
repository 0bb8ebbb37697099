package tocfile

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"slices"
	"sync"
	"time"

	"github.com/avast/retry-go/v4"
	"github.com/fsnotify/fsnotify"

	"github.com/executablebooks/sphinx-external-toc/config"
	"github.com/executablebooks/sphinx-external-toc/toc"
)

// Change is delivered after the ToC file was reloaded.
type Change struct {
	// SiteMap is the newly loaded map, or nil when Err is set.
	SiteMap *toc.SiteMap
	// Changed lists the docnames that need rebuilding: documents whose title
	// or subtrees changed, plus documents that are new. Sorted.
	Changed []string
	Err     error
}

// Watcher reloads a ToC file when it changes on disk.
type Watcher struct {
	path     string
	loader   *Loader
	attempts uint
	delay    time.Duration
	logger   *slog.Logger

	mu        sync.Mutex
	current   *toc.SiteMap
	callbacks []func(Change)
}

// WatcherOption configures a Watcher.
type WatcherOption func(*Watcher)

// WithRetry sets how often a reload is attempted before the error is
// reported. Editors often write files in several steps.
func WithRetry(attempts uint, delay time.Duration) WatcherOption {
	return func(w *Watcher) {
		if attempts > 0 {
			w.attempts = attempts
		}
		w.delay = delay
	}
}

// WithWatcherLogger sets the logger for reload events.
func WithWatcherLogger(logger *slog.Logger) WatcherOption {
	return func(w *Watcher) {
		if logger != nil {
			w.logger = logger
		}
	}
}

// NewWatcher creates a watcher for the ToC file at path.
func NewWatcher(path string, loader *Loader, opts ...WatcherOption) *Watcher {
	w := &Watcher{
		path:     filepath.Clean(path),
		loader:   loader,
		attempts: 3,
		delay:    100 * time.Millisecond,
		logger:   slog.New(slog.DiscardHandler),
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// NewWatcherFromConfig watches cfg.TocPath, relative to srcDir, with the
// configured retry policy.
func NewWatcherFromConfig(cfg *config.Config, srcDir string, loader *Loader, opts ...WatcherOption) *Watcher {
	base := []WatcherOption{WithRetry(cfg.ReloadAttempts, cfg.ReloadDelay)}
	return NewWatcher(filepath.Join(srcDir, cfg.TocPath), loader, append(base, opts...)...)
}

// OnChange registers a callback invoked after every reload that changed
// something or failed.
func (w *Watcher) OnChange(fn func(Change)) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.callbacks = append(w.callbacks, fn)
}

// Current returns the last successfully loaded site map, or nil.
func (w *Watcher) Current() *toc.SiteMap {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.current
}

// Reload loads the file now, updates the current site map and notifies the
// callbacks. On failure the previous site map stays current.
func (w *Watcher) Reload(ctx context.Context) Change {
	var sm *toc.SiteMap
	err := retry.Do(
		func() error {
			var err error
			sm, err = w.loader.Load(w.path)
			return err
		},
		retry.Context(ctx),
		retry.Attempts(w.attempts),
		retry.Delay(w.delay),
		retry.LastErrorOnly(true),
		retry.OnRetry(func(n uint, err error) {
			w.logger.Debug("toc reload retry", "path", w.path, "attempt", n+1, "error", err)
		}),
	)

	w.mu.Lock()
	var change Change
	if err != nil {
		change = Change{Err: err}
	} else {
		change = Change{SiteMap: sm, Changed: changedDocs(w.current, sm)}
		w.current = sm
	}
	callbacks := make([]func(Change), len(w.callbacks))
	copy(callbacks, w.callbacks)
	w.mu.Unlock()

	if change.Err != nil {
		w.logger.Warn("toc reload failed", "path", w.path, "error", change.Err)
	} else {
		w.logger.Info("toc reloaded", "path", w.path, "documents", sm.Len(), "changed", len(change.Changed))
	}

	if change.Err == nil && len(change.Changed) == 0 {
		return change
	}
	for _, fn := range callbacks {
		fn(change)
	}
	return change
}

// Run loads the file and then reloads it on every write until ctx is done.
// The parent directory is watched so that editors replacing the file are
// noticed.
func (w *Watcher) Run(ctx context.Context) error {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create watcher: %w", err)
	}
	defer fw.Close()

	if err := fw.Add(filepath.Dir(w.path)); err != nil {
		return fmt.Errorf("failed to watch %s: %w", w.path, err)
	}

	w.Reload(ctx)

	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-fw.Events:
			if !ok {
				return nil
			}
			if w.relevant(ev) {
				w.Reload(ctx)
			}
		case err, ok := <-fw.Errors:
			if !ok {
				return nil
			}
			w.logger.Warn("watch error", "path", w.path, "error", err)
		}
	}
}

func (w *Watcher) relevant(ev fsnotify.Event) bool {
	if filepath.Clean(ev.Name) != w.path {
		return false
	}
	return ev.Has(fsnotify.Write) || ev.Has(fsnotify.Create)
}

// changedDocs lists documents that changed or are new in current.
func changedDocs(previous, current *toc.SiteMap) []string {
	changed := current.GetChanged(previous)
	if previous == nil {
		return changed
	}
	for name := range current.All() {
		if !previous.Has(name) {
			changed = append(changed, name)
		}
	}
	slices.Sort(changed)
	return changed
}
