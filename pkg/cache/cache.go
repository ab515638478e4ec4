// Package cache provides pluggable byte caches for HTTP responses,
// fetched templates, and the rendered community index.
//
// Backends:
//   - FileCache: JSON entries with expiry under a directory, for CLI usage
//   - RedisCache: shared cache for multi-instance index serving
//   - NullCache: disables caching (tests, --no-cache)
//
// Keys are opaque strings; Key builds collision-safe keys from structured
// parts, and Scoped prefixes every key of an inner cache to namespace it.
package cache

import (
	"context"
	"errors"
	"time"
)

// Sentinel errors for caching operations.
var (
	// ErrNotFound is returned when a requested item does not exist.
	ErrNotFound = errors.New("not found")

	// ErrExpired is returned when an entry exists but its TTL has passed.
	ErrExpired = errors.New("cache entry expired")
)

// Cache stores opaque byte values under string keys with optional expiry.
type Cache interface {
	// Get retrieves a value. The second return reports whether the key was
	// present and fresh; expired or missing entries are a miss, not an error.
	Get(ctx context.Context, key string) ([]byte, bool, error)

	// Set stores a value. A zero ttl means the entry never expires.
	Set(ctx context.Context, key string, data []byte, ttl time.Duration) error

	// Delete removes a value. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error

	// Close releases backend resources.
	Close() error
}
