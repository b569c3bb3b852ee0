package cache

import (
	"context"
	"time"
)

// Cache is a key/value store with TTL and pattern deletion
// Values are opaque strings; callers serialize as needed. Keys follow the
// documented naming convention (e.g. products:{tenantId}:p{page}:{filtersHash},
// search_analytics:{queryId}, shipping_rate:{provider}:{from}:{to}:{weight})
// so a Redis-backed instance can interoperate with an existing cache during
// a staged migration
type Cache interface {
	// Get returns the value and whether the key was present and unexpired
	Get(ctx context.Context, key string) (string, bool, error)
	// Set stores the value with the given TTL; ttl <= 0 means no expiry
	Set(ctx context.Context, key, value string, ttl time.Duration) error
	// Delete removes a single key; deleting a missing key is not an error
	Delete(ctx context.Context, key string) error
	// DeletePattern removes all keys matching a glob pattern (e.g. "products:t1:*")
	DeletePattern(ctx context.Context, pattern string) error
	// Sweep removes expired entries in bulk and returns how many were evicted
	Sweep(ctx context.Context) (int, error)
	// Close releases any underlying resources
	Close() error
}
