// Package cache provides byte-level caches for loaded worlds.
//
// Worlds pulled from remote sources (SQLite files on slow disks, MongoDB,
// Neo4j) are cached as encoded bytes so repeated CLI runs and server requests
// skip the round trip. Computed layouts are never cached: they are cheap to
// recompute and force-directed runs may be unseeded.
//
// # Backends
//
//   - [NullCache]: never stores anything (caching disabled)
//   - [FileCache]: one file per key under a directory, for the CLI
//   - [RedisCache]: shared cache for the HTTP server
//
// # Keys
//
// A [Keyer] builds keys from the source and world id; [ScopedKeyer] adds a
// namespace prefix so several deployments can share one Redis.
package cache

import (
	"context"
	"time"
)

// Cache stores opaque byte values under string keys.
type Cache interface {
	// Get returns the value and true on a hit. A miss is not an error.
	Get(ctx context.Context, key string) ([]byte, bool, error)

	// Set stores data under key. A ttl of zero means no expiry.
	Set(ctx context.Context, key string, data []byte, ttl time.Duration) error

	// Delete removes key. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error

	// Close releases backend resources.
	Close() error
}
