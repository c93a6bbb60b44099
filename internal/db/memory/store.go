// Package memory implements db.Store as an in-process LRU.
package memory

import (
	"context"
	"slices"
	"sync/atomic"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/kailas-cloud/chatnoir-retrieve/internal/db"
)

// DefaultSize is the entry capacity used when none is configured.
const DefaultSize = 10000

// Compile-time check: Store implements db.Store.
var _ db.Store = (*Store)(nil)

type entry struct {
	value     []byte
	expiresAt time.Time // zero = no expiry
}

// Store keeps values in a bounded LRU. Least recently used keys are evicted
// once size is reached; expired keys are dropped on read.
type Store struct {
	cache  *lru.Cache[string, entry]
	now    func() time.Time
	closed atomic.Bool
}

// NewStore creates an in-memory store holding at most size keys.
func NewStore(size int) *Store {
	if size <= 0 {
		size = DefaultSize
	}
	cache, err := lru.New[string, entry](size)
	if err != nil {
		// Only fails for non-positive sizes.
		cache, _ = lru.New[string, entry](DefaultSize)
	}
	return &Store{cache: cache, now: time.Now}
}

// Ping reports whether the store is open.
func (s *Store) Ping(_ context.Context) error {
	if s.closed.Load() {
		return &db.Error{Op: db.OpPing, Err: db.ErrClosed}
	}
	return nil
}

// Close drops all entries; later calls fail with db.ErrClosed.
func (s *Store) Close() {
	s.closed.Store(true)
	s.cache.Purge()
}

// WaitForReady returns immediately: an in-process store is always ready.
func (s *Store) WaitForReady(ctx context.Context, _ time.Duration) error {
	return s.Ping(ctx)
}

// Get returns a copy of the value stored at key.
func (s *Store) Get(_ context.Context, key string) ([]byte, error) {
	if s.closed.Load() {
		return nil, &db.Error{Op: db.OpGet, Err: db.ErrClosed}
	}
	e, ok := s.cache.Get(key)
	if !ok {
		return nil, db.ErrKeyNotFound
	}
	if !e.expiresAt.IsZero() && !s.now().Before(e.expiresAt) {
		s.cache.Remove(key)
		return nil, db.ErrKeyNotFound
	}
	return slices.Clone(e.value), nil
}

// Set stores value at key without expiry.
func (s *Store) Set(ctx context.Context, key string, value []byte) error {
	return s.SetWithTTL(ctx, key, value, 0)
}

// SetWithTTL stores value at key. A non-positive ttl stores without expiry.
func (s *Store) SetWithTTL(_ context.Context, key string, value []byte, ttl time.Duration) error {
	if s.closed.Load() {
		return &db.Error{Op: db.OpSet, Err: db.ErrClosed}
	}
	e := entry{value: slices.Clone(value)}
	if ttl > 0 {
		e.expiresAt = s.now().Add(ttl)
	}
	s.cache.Add(key, e)
	return nil
}

// Del removes key.
func (s *Store) Del(_ context.Context, key string) error {
	if s.closed.Load() {
		return &db.Error{Op: db.OpDel, Err: db.ErrClosed}
	}
	s.cache.Remove(key)
	return nil
}

// Len returns the number of stored keys, expired ones included.
func (s *Store) Len() int {
	return s.cache.Len()
}
