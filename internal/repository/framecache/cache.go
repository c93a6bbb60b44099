// Package framecache caches the projected result rows of one query in a key-value store.
package framecache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/kailas-cloud/chatnoir-retrieve/internal/db"
	"github.com/kailas-cloud/chatnoir-retrieve/internal/domain/table"
)

// DefaultKeyPrefix namespaces cache keys when no prefix is configured.
const DefaultKeyPrefix = "chatnoir:"

// store is the consumer interface for the frame cache (ISP).
type store interface {
	Get(ctx context.Context, key string) ([]byte, error)
	SetWithTTL(ctx context.Context, key string, value []byte, ttl time.Duration) error
}

// Cache stores result rows keyed by configuration hash and query text.
// Store failures are logged and treated as misses.
type Cache struct {
	store      store
	ttl        time.Duration
	prefix     string
	rawColumns map[string]struct{}
	cacheTotal *prometheus.CounterVec
	logger     *zap.Logger
}

// New creates a frame cache. ttl <= 0 keeps entries until evicted.
// cacheTotal is a counter vec with label "result" ("hit"/"miss"), passed explicitly.
func New(s store, ttl time.Duration, cacheTotal *prometheus.CounterVec, logger *zap.Logger) *Cache {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Cache{
		store:      s,
		ttl:        ttl,
		prefix:     DefaultKeyPrefix,
		rawColumns: map[string]struct{}{},
		cacheTotal: cacheTotal,
		logger:     logger,
	}
}

// WithPrefix sets the key namespace.
func (c *Cache) WithPrefix(prefix string) *Cache {
	if prefix != "" {
		c.prefix = prefix
	}
	return c
}

// WithRawColumns marks columns whose values are raw JSON payloads and must be
// restored as json.RawMessage instead of decoded values.
func (c *Cache) WithRawColumns(cols ...string) *Cache {
	for _, col := range cols {
		c.rawColumns[col] = struct{}{}
	}
	return c
}

// Get returns the cached rows for query under configHash.
func (c *Cache) Get(ctx context.Context, configHash, query string) ([]table.Row, bool) {
	key := c.key(configHash, query)

	data, err := c.store.Get(ctx, key)
	if err != nil {
		if !errors.Is(err, db.ErrKeyNotFound) {
			c.logger.Warn("Failed to get cached frame", zap.String("key", key), zap.Error(err))
		}
		c.incCache("miss")
		return nil, false
	}

	rows, err := decodeRows(data, c.rawColumns)
	if err != nil {
		c.logger.Warn("Failed to parse cached frame", zap.String("key", key), zap.Error(err))
		c.incCache("miss")
		return nil, false
	}

	c.incCache("hit")
	return rows, true
}

// Put stores rows for query under configHash.
func (c *Cache) Put(ctx context.Context, configHash, query string, rows []table.Row) {
	key := c.key(configHash, query)

	data, err := encodeRows(rows)
	if err != nil {
		c.logger.Warn("Failed to encode frame", zap.String("key", key), zap.Error(err))
		return
	}
	if err := c.store.SetWithTTL(ctx, key, data, c.ttl); err != nil {
		c.logger.Warn("Failed to cache frame", zap.String("key", key), zap.Error(err))
	}
}

func (c *Cache) incCache(result string) {
	if c.cacheTotal != nil {
		c.cacheTotal.WithLabelValues(result).Inc()
	}
}

func (c *Cache) key(configHash, query string) string {
	h := sha256.Sum256([]byte(query))
	return c.prefix + "frame:" + configHash + ":" + hex.EncodeToString(h[:])
}
