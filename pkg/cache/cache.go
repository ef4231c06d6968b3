// Package cache provides small key/value stores for render state.
//
// The visualizer keeps a digest of every marker it last published so that
// unchanged geometry is not re-sent on each redraw. That state lives behind
// the [Cache] interface, with implementations for different deployments:
//   - [MemoryCache]: process-local map, the default
//   - [RedisCache]: shared across visualizer instances publishing to the
//     same broker
//   - [FileCache]: survives restarts of a CLI process
//
// [Scoped] prefixes every key so several consumers can share one backend.
//
// # Digests
//
// [DigestStore] is the typed layer on top: it maps (scope, id) to a
// [Digest] under a per-scope epoch, and [DigestStore.Advance] drops a whole
// scope in one write no matter which process stored the digests. [Key]
// builds stable hashed keys from arbitrary parts, and [Sum] digests
// content.
package cache

import (
	"context"
	"time"
)

// Cache is a byte-oriented key/value store with optional expiry.
//
// Get reports a miss with ok=false and a nil error. A ttl of zero means the
// entry never expires. Implementations must be safe for concurrent use.
type Cache interface {
	Get(ctx context.Context, key string) (data []byte, ok bool, err error)
	Set(ctx context.Context, key string, data []byte, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
	Close() error
}
