package tocfile

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"log/slog"
	"os"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/executablebooks/sphinx-external-toc/config"
	"github.com/executablebooks/sphinx-external-toc/internal/schema"
	"github.com/executablebooks/sphinx-external-toc/toc"
)

const defaultCacheSize = 64

// Loader decodes and parses ToC files. Parsed site maps are cached by
// content digest and handed out as clones, so callers may modify them.
type Loader struct {
	cacheSize  int
	cache      *lru.Cache[string, *toc.SiteMap]
	metaSchema []byte
	logger     *slog.Logger
}

// LoaderOption configures a Loader.
type LoaderOption func(*Loader)

// WithCacheSize sets the number of parsed site maps kept in memory.
func WithCacheSize(n int) LoaderOption {
	return func(l *Loader) { l.cacheSize = n }
}

// WithMetaSchema adds a JSON Schema the meta block must satisfy, on top of
// the built-in one.
func WithMetaSchema(schemaJSON []byte) LoaderOption {
	return func(l *Loader) { l.metaSchema = schemaJSON }
}

// WithLoaderLogger sets the logger for cache and validation events.
func WithLoaderLogger(logger *slog.Logger) LoaderOption {
	return func(l *Loader) {
		if logger != nil {
			l.logger = logger
		}
	}
}

// NewLoader creates a loader.
func NewLoader(opts ...LoaderOption) (*Loader, error) {
	l := &Loader{
		cacheSize: defaultCacheSize,
		logger:    slog.New(slog.DiscardHandler),
	}
	for _, opt := range opts {
		opt(l)
	}
	if l.cacheSize <= 0 {
		l.cacheSize = 1
	}
	cache, err := lru.New[string, *toc.SiteMap](l.cacheSize)
	if err != nil {
		return nil, fmt.Errorf("failed to create cache: %w", err)
	}
	l.cache = cache
	return l, nil
}

// NewLoaderFromConfig creates a loader using the cache size and meta schema
// file of cfg. Explicit options are applied last.
func NewLoaderFromConfig(cfg *config.Config, opts ...LoaderOption) (*Loader, error) {
	base := []LoaderOption{WithCacheSize(cfg.CacheSize)}
	if cfg.MetaSchema != "" {
		b, err := os.ReadFile(cfg.MetaSchema)
		if err != nil {
			return nil, fmt.Errorf("failed to read meta schema: %w", err)
		}
		base = append(base, WithMetaSchema(b))
	}
	return NewLoader(append(base, opts...)...)
}

// Load reads, decodes and parses the ToC file at path.
func (l *Loader) Load(path string) (*toc.SiteMap, error) {
	src, err := SourceFor(path)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read toc: %w", err)
	}
	sm, err := l.Parse(data, src)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return sm, nil
}

// Parse decodes and parses ToC data in the given source format.
func (l *Loader) Parse(data []byte, src Source) (*toc.SiteMap, error) {
	key := digest(src, data)
	if sm, ok := l.cache.Get(key); ok {
		l.logger.Debug("toc cache hit", "digest", key[:12])
		return sm.Clone(), nil
	}

	raw, err := Decode(bytes.NewReader(data), src)
	if err != nil {
		return nil, err
	}
	sm, err := toc.Parse(raw)
	if err != nil {
		return nil, err
	}
	if err := l.validateMeta(sm.Meta()); err != nil {
		return nil, err
	}

	l.cache.Add(key, sm)
	l.logger.Debug("toc parsed", "digest", key[:12], "documents", sm.Len())
	return sm.Clone(), nil
}

// Len returns the number of cached site maps.
func (l *Loader) Len() int { return l.cache.Len() }

// Purge empties the cache.
func (l *Loader) Purge() { l.cache.Purge() }

func (l *Loader) validateMeta(meta map[string]any) error {
	if err := schema.Validate("meta", meta); err != nil {
		return fmt.Errorf("invalid meta: %w", err)
	}
	if l.metaSchema != nil {
		if err := schema.ValidateWith(l.metaSchema, meta); err != nil {
			return fmt.Errorf("invalid meta: %w", err)
		}
	}
	return nil
}

func digest(src Source, data []byte) string {
	h := sha256.New()
	h.Write([]byte(src))
	h.Write([]byte{0})
	h.Write(data)
	return hex.EncodeToString(h.Sum(nil))
}
