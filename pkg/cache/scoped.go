package cache

import (
	"context"
	"time"
)

// ScopedCache prepends a prefix to every key of an inner cache.
//
// Example usage:
//
//	// One backend, separate digests per visualizer instance
//	digests := cache.Scoped(shared, "dsgviz:"+instance+":")
type ScopedCache struct {
	inner  Cache
	prefix string
}

// Scoped wraps inner so all keys live under prefix. A nil inner is
// replaced by a fresh [MemoryCache].
func Scoped(inner Cache, prefix string) Cache {
	if inner == nil {
		inner = NewMemoryCache()
	}
	return &ScopedCache{inner: inner, prefix: prefix}
}

// Get retrieves prefix+key from the inner cache.
func (c *ScopedCache) Get(ctx context.Context, key string) ([]byte, bool, error) {
	return c.inner.Get(ctx, c.prefix+key)
}

// Set stores prefix+key in the inner cache.
func (c *ScopedCache) Set(ctx context.Context, key string, data []byte, ttl time.Duration) error {
	return c.inner.Set(ctx, c.prefix+key, data, ttl)
}

// Delete removes prefix+key from the inner cache.
func (c *ScopedCache) Delete(ctx context.Context, key string) error {
	return c.inner.Delete(ctx, c.prefix+key)
}

// Close closes the inner cache.
func (c *ScopedCache) Close() error { return c.inner.Close() }

var _ Cache = (*ScopedCache)(nil)
