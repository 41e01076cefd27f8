package source

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/charmbracelet/log"

	"github.com/worldloom/worldloom/pkg/cache"
	"github.com/worldloom/worldloom/pkg/graph"
	"github.com/worldloom/worldloom/pkg/observability"
	"github.com/worldloom/worldloom/pkg/world"
)

// DefaultTTL is how long a cached world stays valid.
const DefaultTTL = 10 * time.Minute

// CachedSource serves Load from a cache before asking the wrapped source.
// List is never cached.
type CachedSource struct {
	Source
	DSN    string
	Cache  cache.Cache
	Keyer  cache.Keyer
	TTL    time.Duration
	Logger *log.Logger
}

// Cached wraps src. dsn identifies the source in cache keys; nil cache and
// keyer fall back to the null cache and default keyer.
func Cached(src Source, dsn string, c cache.Cache, keyer cache.Keyer, logger *log.Logger) *CachedSource {
	if c == nil {
		c = cache.NewNullCache()
	}
	if keyer == nil {
		keyer = cache.NewDefaultKeyer()
	}
	if logger == nil {
		logger = log.New(io.Discard)
	}
	return &CachedSource{Source: src, DSN: dsn, Cache: c, Keyer: keyer, TTL: DefaultTTL, Logger: logger}
}

// Load returns the cached world or loads and caches it. Cache failures are
// logged and never fail the load. Retryable backend errors are retried with
// backoff.
func (s *CachedSource) Load(ctx context.Context, id string) (*world.World, error) {
	key := s.Keyer.WorldKey(s.DSN, id)

	if data, hit, err := s.Cache.Get(ctx, key); err != nil {
		s.Logger.Warn("cache read failed", "key", key, "err", err)
	} else if hit {
		w, err := graph.UnmarshalWorld(data, graph.FormatJSON)
		if err == nil {
			observability.Cache().OnCacheHit(ctx, "world")
			s.Logger.Debug("world cache hit", "world", id)
			return &w, nil
		}
		s.Logger.Warn("discarding bad cache entry", "key", key, "err", err)
		_ = s.Cache.Delete(ctx, key)
	}
	observability.Cache().OnCacheMiss(ctx, "world")

	var w *world.World
	err := cache.RetryWithBackoff(ctx, func() error {
		var err error
		w, err = s.Source.Load(ctx, id)
		return err
	})
	if err != nil {
		return nil, err
	}

	data, err := graph.MarshalWorld(*w, graph.FormatJSON)
	if err != nil {
		return nil, fmt.Errorf("encode world for cache: %w", err)
	}
	if err := s.Cache.Set(ctx, key, data, s.TTL); err != nil {
		s.Logger.Warn("cache write failed", "key", key, "err", err)
	} else {
		observability.Cache().OnCacheSet(ctx, "world", len(data))
	}
	return w, nil
}

// Invalidate drops the cached copy of a world.
func (s *CachedSource) Invalidate(ctx context.Context, id string) error {
	return s.Cache.Delete(ctx, s.Keyer.WorldKey(s.DSN, id))
}

// Close closes the wrapped source. The cache belongs to the caller and is
// left open.
func (s *CachedSource) Close() error {
	return s.Source.Close()
}

// InstrumentedSource reports every load to the observability hooks.
type InstrumentedSource struct {
	Source
}

// Instrumented wraps src.
func Instrumented(src Source) *InstrumentedSource {
	return &InstrumentedSource{Source: src}
}

// Load calls the wrapped source and reports timing and outcome.
func (s *InstrumentedSource) Load(ctx context.Context, id string) (*world.World, error) {
	observability.Source().OnLoadStart(ctx, s.Kind(), id)
	start := time.Now()
	w, err := s.Source.Load(ctx, id)
	var elements, rels int
	if w != nil {
		elements, rels = len(w.Elements), len(w.Relationships)
	}
	observability.Source().OnLoadComplete(ctx, s.Kind(), id, elements, rels, time.Since(start), err)
	return w, err
}
