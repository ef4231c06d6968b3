package cache

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// DigestStore remembers content digests per scope and id.
//
// Every scope has an epoch. Digests are stored under the epoch current at
// write time, so [DigestStore.Advance] invalidates all of them at once,
// including digests written by other processes sharing the backend. Before
// the first Advance a scope's epoch is empty.
type DigestStore struct {
	c   Cache
	ttl time.Duration
}

// NewDigestStore stores digests in c. A ttl of zero keeps digests until
// they are forgotten; epochs never expire.
func NewDigestStore(c Cache, ttl time.Duration) *DigestStore {
	if c == nil {
		c = NewMemoryCache()
	}
	return &DigestStore{c: c, ttl: ttl}
}

// Epoch returns the current epoch of scope.
func (s *DigestStore) Epoch(ctx context.Context, scope string) (string, error) {
	data, ok, err := s.c.Get(ctx, epochKey(scope))
	if err != nil || !ok {
		return "", err
	}
	return string(data), nil
}

// Advance starts a fresh epoch for scope and returns it.
func (s *DigestStore) Advance(ctx context.Context, scope string) (string, error) {
	epoch := uuid.NewString()
	if err := s.c.Set(ctx, epochKey(scope), []byte(epoch), 0); err != nil {
		return "", err
	}
	return epoch, nil
}

// Get returns the digest stored for id in the given epoch of scope.
func (s *DigestStore) Get(ctx context.Context, scope, epoch string, id any) (Digest, bool, error) {
	data, ok, err := s.c.Get(ctx, digestKey(scope, epoch, id))
	if err != nil || !ok {
		return "", false, err
	}
	return Digest(data), true, nil
}

// Put stores dg for id in the given epoch of scope.
func (s *DigestStore) Put(ctx context.Context, scope, epoch string, id any, dg Digest) error {
	return s.c.Set(ctx, digestKey(scope, epoch, id), []byte(dg), s.ttl)
}

// Forget removes the digest of id in the given epoch of scope.
func (s *DigestStore) Forget(ctx context.Context, scope, epoch string, id any) error {
	return s.c.Delete(ctx, digestKey(scope, epoch, id))
}

// Close closes the backing cache.
func (s *DigestStore) Close() error { return s.c.Close() }

func epochKey(scope string) string {
	return Key("epoch", scope)
}

func digestKey(scope, epoch string, id any) string {
	return Key("digest", scope, epoch, id)
}
