package providers

import (
	"context"
	"time"
)

// CacheProvider is the port for the response and catalog caches. Values are
// opaque byte payloads keyed by string; expiry is mandatory on writes.
type CacheProvider interface {
	// Get returns the cached payload for key, or an error on a miss.
	Get(ctx context.Context, key string) ([]byte, error)

	// Set stores value under key for at most ttl.
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error

	// Delete removes a single key.
	Delete(ctx context.Context, key string) error

	// Exists reports whether key is present.
	Exists(ctx context.Context, key string) (bool, error)

	// DeletePattern removes every key matching a glob pattern.
	DeletePattern(ctx context.Context, pattern string) error
}
