// Package app assembles the retrieval stack from configuration.
package app

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/chatnoir-retrieve/internal/config"
	"github.com/kailas-cloud/chatnoir-retrieve/internal/db"
	"github.com/kailas-cloud/chatnoir-retrieve/internal/db/memory"
	dbRedis "github.com/kailas-cloud/chatnoir-retrieve/internal/db/redis"
	"github.com/kailas-cloud/chatnoir-retrieve/internal/domain/settings"
	"github.com/kailas-cloud/chatnoir-retrieve/internal/metrics"
	"github.com/kailas-cloud/chatnoir-retrieve/internal/repository/framecache"
	"github.com/kailas-cloud/chatnoir-retrieve/internal/transport/chatnoir"
	retrieveuc "github.com/kailas-cloud/chatnoir-retrieve/internal/usecase/retrieve"
)

// Stack holds the shared collaborators every retriever is built from.
type Stack struct {
	Client *chatnoir.Client
	// Store and Cache are nil when caching is disabled.
	Store  db.Store
	Cache  *framecache.Cache
	logger *zap.Logger
}

// NewClient creates the ChatNoir client for cfg.
func NewClient(cfg config.ChatNoirConfig, httpClient *http.Client, logger *zap.Logger) *chatnoir.Client {
	return chatnoir.New(&chatnoir.Config{
		BaseURL:           cfg.BaseURL,
		StagingBaseURL:    cfg.StagingBaseURL,
		Timeout:           time.Duration(cfg.TimeoutSec) * time.Second,
		RequestsPerSecond: cfg.RequestsPerSecond,
		HTTPClient:        httpClient,
		Logger:            logger,
	})
}

// NewStore creates the cache store for cfg and waits until it answers.
// It returns nil for the "none" driver.
func NewStore(ctx context.Context, cfg config.CacheConfig) (db.Store, error) {
	var store db.Store
	switch cfg.Driver {
	case "", config.CacheNone:
		return nil, nil
	case config.CacheMemory:
		store = memory.NewStore(cfg.Size)
	case config.CacheRedis, config.CacheValkey:
		s, err := dbRedis.NewStore(dbRedis.Config{
			Addrs:    cfg.Addrs,
			Username: cfg.Username,
			Password: cfg.Password,
			DB:       cfg.DB,
		})
		if err != nil {
			return nil, fmt.Errorf("create %s store: %w", cfg.Driver, err)
		}
		store = s
	default:
		return nil, fmt.Errorf("unknown cache driver %q", cfg.Driver)
	}

	timeout := time.Duration(cfg.ReadinessTimeout) * time.Second
	if err := store.WaitForReady(ctx, timeout); err != nil {
		store.Close()
		return nil, fmt.Errorf("cache store not ready: %w", err)
	}
	return store, nil
}

// NewStack wires the client, the optional cache store and the frame cache.
func NewStack(ctx context.Context, cfg config.Config, httpClient *http.Client, logger *zap.Logger) (*Stack, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	metrics.RegisterRetrievalMetrics()

	st := &Stack{
		Client: NewClient(cfg.ChatNoir, httpClient, logger),
		logger: logger,
	}

	store, err := NewStore(ctx, cfg.Cache)
	if err != nil {
		return nil, err
	}
	if store != nil {
		st.Store = store
		st.Cache = framecache.New(store, cfg.CacheTTL(), metrics.FrameCacheTotal, logger).
			WithPrefix(cfg.Cache.KeyPrefix).
			WithRawColumns(retrieveuc.RawColumns()...)
	}
	return st, nil
}

// Retriever builds a retrieval service for s on top of the stack.
func (st *Stack) Retriever(s settings.Settings) (*retrieveuc.Service, error) {
	svc, err := retrieveuc.New(s, st.Client, st.Client, st.logger)
	if err != nil {
		return nil, err
	}
	if st.Cache != nil {
		svc = svc.WithCache(st.Cache)
	}
	return svc, nil
}

// Close releases the cache store.
func (st *Stack) Close() {
	if st.Store != nil {
		st.Store.Close()
	}
}
