// Package cache caches rendered compound documents so repeated reads of the
// same resource and include combination skip resolution entirely.
package cache

import (
	"context"
	"time"
)

// Cache defines the interface for document cache backends
type Cache interface {
	// Get retrieves a cached value
	Get(ctx context.Context, key string) ([]byte, error)

	// Set stores a value with a TTL
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error

	// Delete removes a value
	Delete(ctx context.Context, key string) error
}

// Config holds common configuration for cache backends
type Config struct {
	// DefaultTTL is the time-to-live used when Set receives zero
	DefaultTTL time.Duration
	// Prefix is prepended to all cache keys
	Prefix string
}

// DefaultConfig returns a default cache configuration
func DefaultConfig() Config {
	return Config{
		DefaultTTL: 5 * time.Minute,
		Prefix:     "compound:",
	}
}

// ErrMiss is returned when a key is not cached
type ErrMiss struct {
	Key string
}

func (e ErrMiss) Error() string {
	return "cache miss: " + e.Key
}

// IsMiss checks if an error is a cache miss
func IsMiss(err error) bool {
	_, ok := err.(ErrMiss)
	return ok
}
