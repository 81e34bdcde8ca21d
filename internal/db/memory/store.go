// Package memory is an in-process db.Cache for single-node deployments and tests.
package memory

import (
	"context"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"

	"github.com/kailas-cloud/coursedex/internal/db"
)

// Compile-time check: Store implements db.Cache.
var _ db.Cache = (*Store)(nil)

type entry struct {
	value     []byte
	expiresAt time.Time
}

// Store keeps values in an expirable LRU. Each value carries its own expiry,
// checked on read against the store clock. The LRU bounds the entry count and,
// when a max TTL is set, drops stale entries in the background.
type Store struct {
	lru        *expirable.LRU[string, entry]
	now        func() time.Time
	maxEntries int
	maxTTL     time.Duration
}

// Option configures a Store.
type Option func(*Store)

// WithClock overrides the time source used for per-entry expiry.
func WithClock(now func() time.Time) Option {
	return func(s *Store) { s.now = now }
}

// WithMaxEntries bounds the entry count. The least recently used entry is
// evicted when a new key would exceed it. Zero means unbounded.
func WithMaxEntries(n int) Option {
	return func(s *Store) { s.maxEntries = n }
}

// WithMaxTTL caps how long any entry is kept, whatever its own ttl.
// Zero disables the cap.
func WithMaxTTL(d time.Duration) Option {
	return func(s *Store) { s.maxTTL = d }
}

// NewStore creates an empty store.
func NewStore(opts ...Option) *Store {
	s := &Store{now: time.Now}
	for _, o := range opts {
		o(s)
	}
	s.lru = expirable.NewLRU[string, entry](max(s.maxEntries, 0), nil, s.maxTTL)
	return s
}

// Ping always succeeds.
func (s *Store) Ping(context.Context) error { return nil }

// Close drops all entries.
func (s *Store) Close() { s.lru.Purge() }

// Get returns a copy of the value, or db.ErrKeyNotFound when absent or expired.
func (s *Store) Get(ctx context.Context, key string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, &db.Error{Op: db.OpGet, Err: err}
	}

	e, ok := s.lru.Get(key)
	if !ok {
		return nil, db.ErrKeyNotFound
	}
	if !s.now().Before(e.expiresAt) {
		s.lru.Remove(key)
		return nil, db.ErrKeyNotFound
	}
	return append([]byte(nil), e.value...), nil
}

// SetWithTTL stores a copy of value that expires after ttl. Overwriting an
// existing key never evicts another entry.
func (s *Store) SetWithTTL(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	if err := ctx.Err(); err != nil {
		return &db.Error{Op: db.OpSet, Err: err}
	}

	s.lru.Add(key, entry{value: append([]byte(nil), value...), expiresAt: s.now().Add(ttl)})
	return nil
}

// Len returns the number of stored entries, including expired ones not yet dropped.
func (s *Store) Len() int { return s.lru.Len() }
