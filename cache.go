package rowbase

import (
	"context"
	"time"
)

// Cache is the interface kernel uses to memoize COUNT/EXISTS results across
// calls. Cached scalars are msgpack-encoded (github.com/vmihailenco/msgpack/v5)
// before Set and decoded after Get. Users implement this with their
// preferred caching solution (e.g., Redis, Memcached, in-memory).
type Cache interface {
	// Get retrieves a value from the cache.
	// Returns nil, nil if the key doesn't exist.
	Get(ctx context.Context, key string) ([]byte, error)

	// Set stores a value in the cache with an optional TTL.
	// If ttl is 0, the value should not expire.
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error

	// Delete removes a value from the cache.
	Delete(ctx context.Context, key string) error

	// DeletePrefix removes all values with the given prefix.
	DeletePrefix(ctx context.Context, prefix string) error

	// Clear removes all values from the cache.
	Clear(ctx context.Context) error
}
