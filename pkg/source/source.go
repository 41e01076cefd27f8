// Package source loads worlds from storage backends.
//
// A [Source] is read-mostly: it lists the worlds it holds and loads one by
// id. Backends live in subpackages and register a URL scheme on import, in
// the style of database/sql drivers:
//
//	import (
//	    _ "github.com/worldloom/worldloom/pkg/source/file"
//	    _ "github.com/worldloom/worldloom/pkg/source/sqlite"
//	)
//
//	src, err := source.Open(ctx, "sqlite:///var/lib/worldloom.db")
//	w, err := src.Load(ctx, "eldoria")
//
// Registered schemes:
//
//	file://, bare paths   world files or a directory of them (pkg/source/file)
//	sqlite://             SQLite database (pkg/source/sqlite)
//	mongodb://            MongoDB "worlds" collection (pkg/source/mongo)
//	neo4j://, bolt://     Neo4j element graph (pkg/source/neo4j)
//
// [Cached] wraps any source with a [cache.Cache] and retries transient
// failures; [Instrumented] reports loads to the observability hooks.
package source

import (
	"context"
	"net/url"
	"slices"
	"strings"
	"sync"

	"github.com/worldloom/worldloom/pkg/errors"
	"github.com/worldloom/worldloom/pkg/world"
)

// Source loads worlds from one backend.
type Source interface {
	// Kind names the backend ("file", "sqlite", "mongo", "neo4j").
	Kind() string

	// List returns the ids of the worlds the source holds, sorted.
	List(ctx context.Context) ([]string, error)

	// Load returns the world with the given id. A missing world yields an
	// error with code WORLD_NOT_FOUND. The returned world has been validated.
	Load(ctx context.Context, id string) (*world.World, error)

	// Close releases connections held by the source.
	Close() error
}

// Writer is implemented by sources that can store worlds.
type Writer interface {
	Save(ctx context.Context, w *world.World) error
}

// OpenFunc opens a source from a parsed DSN.
type OpenFunc func(ctx context.Context, dsn *url.URL) (Source, error)

var (
	registryMu sync.RWMutex
	registry   = map[string]OpenFunc{}
)

// Register makes a backend available under scheme. It panics if the scheme
// is registered twice.
func Register(scheme string, open OpenFunc) {
	registryMu.Lock()
	defer registryMu.Unlock()
	if _, dup := registry[scheme]; dup {
		panic("source: Register called twice for scheme " + scheme)
	}
	registry[scheme] = open
}

// Schemes returns the registered schemes, sorted.
func Schemes() []string {
	registryMu.RLock()
	defer registryMu.RUnlock()
	out := make([]string, 0, len(registry))
	for s := range registry {
		out = append(out, s)
	}
	slices.Sort(out)
	return out
}

// Open parses dsn and opens the backend registered for its scheme. A DSN
// without a scheme is treated as a file path.
func Open(ctx context.Context, dsn string) (Source, error) {
	dsn = strings.TrimSpace(dsn)
	if dsn == "" {
		return nil, errors.New(errors.ErrCodeInvalidInput, "source DSN cannot be empty")
	}
	if !strings.Contains(dsn, "://") {
		dsn = "file://" + dsn
	}
	u, err := url.Parse(dsn)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidInput, err, "parse source DSN")
	}

	registryMu.RLock()
	open, ok := registry[u.Scheme]
	registryMu.RUnlock()
	if !ok {
		return nil, errors.New(errors.ErrCodeUnsupportedSource, "no source registered for scheme %q (have %s)",
			u.Scheme, strings.Join(Schemes(), ", "))
	}
	return open(ctx, u)
}

// NotFound returns the error sources report for a missing world.
func NotFound(kind, id string) error {
	return errors.New(errors.ErrCodeWorldNotFound, "world %q not found in %s source", id, kind)
}
