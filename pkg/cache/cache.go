// Package cache provides pluggable byte-oriented caching backends for API
// response data.
//
// The [MemoryCache] backend implements per-entry TTLs with least-recently-
// accessed eviction and a periodic maintenance sweep. The [RedisCache]
// backend delegates expiry to a Redis server and suits long-lived serve
// deployments. [NullCache] disables caching entirely.
package cache

import (
	"context"
	"errors"
	"time"
)

// Sentinel errors for caching operations.
var (
	// ErrClosed is returned when an operation is attempted on a closed cache.
	ErrClosed = errors.New("cache closed")
)

// Cache stores serialized values with a per-entry time-to-live.
//
// Implementations must be safe for concurrent use by multiple goroutines.
type Cache interface {
	// Get retrieves a value by key. The second return value reports whether
	// a fresh entry was found; expired entries are treated as misses.
	Get(ctx context.Context, key string) ([]byte, bool, error)

	// Set stores a value under key. A ttl of 0 means the entry never expires.
	// Set overwrites any existing entry, resetting its expiry.
	Set(ctx context.Context, key string, data []byte, ttl time.Duration) error

	// Delete removes a value. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error

	// Close releases any resources held by the cache.
	Close() error
}
