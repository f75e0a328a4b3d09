package cache

import (
	"context"
	"sync"
	"time"
)

// Memory implements an in-memory cache with TTL support
type Memory struct {
	data   sync.Map
	config Config
}

// item is one stored entry
type item struct {
	value      []byte
	expiration time.Time
}

// NewMemory creates an in-memory cache with the default configuration
func NewMemory() *Memory {
	return NewMemoryWithConfig(DefaultConfig())
}

// NewMemoryWithConfig creates an in-memory cache with custom configuration.
// Expired entries are evicted lazily on Get.
func NewMemoryWithConfig(config Config) *Memory {
	return &Memory{config: config}
}

// Get retrieves a cached value
func (m *Memory) Get(_ context.Context, key string) ([]byte, error) {
	fullKey := m.config.Prefix + key

	value, ok := m.data.Load(fullKey)
	if !ok {
		return nil, ErrMiss{Key: key}
	}

	entry := value.(item)
	if !entry.expiration.IsZero() && time.Now().After(entry.expiration) {
		m.data.Delete(fullKey)
		return nil, ErrMiss{Key: key}
	}

	return entry.value, nil
}

// Set stores a value with a TTL
func (m *Memory) Set(_ context.Context, key string, value []byte, ttl time.Duration) error {
	if ttl == 0 {
		ttl = m.config.DefaultTTL
	}

	entry := item{value: value}
	if ttl > 0 {
		entry.expiration = time.Now().Add(ttl)
	}

	m.data.Store(m.config.Prefix+key, entry)
	return nil
}

// Delete removes a value
func (m *Memory) Delete(_ context.Context, key string) error {
	m.data.Delete(m.config.Prefix + key)
	return nil
}
