package retrieve

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/chatnoir-retrieve/internal/app"
	"github.com/kailas-cloud/chatnoir-retrieve/internal/config"
	"github.com/kailas-cloud/chatnoir-retrieve/internal/domain/settings"
	retrieveuc "github.com/kailas-cloud/chatnoir-retrieve/internal/usecase/retrieve"
)

// Retriever runs topic tables against ChatNoir. It is safe for concurrent use.
type Retriever struct {
	stack *app.Stack
	svc   *retrieveuc.Service
	obs   *observer
}

// New creates a Retriever for the given API key. Settings are validated
// before any connection is made.
func New(apiKey string, opts ...Option) (*Retriever, error) {
	cfg := &retrieverConfig{
		settings: settings.Default(apiKey),
		cache:    config.CacheConfig{Driver: config.CacheNone},
	}
	for _, o := range opts {
		o.apply(cfg)
	}
	if err := errors.Join(cfg.errs...); err != nil {
		return nil, fmt.Errorf("retrieve: %w", err)
	}
	if err := cfg.settings.Validate(); err != nil {
		return nil, fmt.Errorf("retrieve: %w", err)
	}

	logger := cfg.logger
	if logger == nil {
		logger = zap.NewNop()
	}
	obs, err := newObserver(cfg.logger, cfg.metricsReg)
	if err != nil {
		return nil, err
	}

	full := config.Config{ChatNoir: cfg.chatnoir, Cache: cfg.cache}
	full.Cache.TTLSec = int(cfg.cacheTTL / time.Second)
	full.ApplyDefaults()

	stack, err := app.NewStack(context.Background(), full, cfg.httpClient, logger)
	if err != nil {
		return nil, fmt.Errorf("retrieve: %w", err)
	}
	svc, err := stack.Retriever(cfg.settings)
	if err != nil {
		stack.Close()
		return nil, fmt.Errorf("retrieve: %w", err)
	}
	if cfg.progress != nil {
		svc = svc.WithProgress(cfg.progress)
	}
	return &Retriever{stack: stack, svc: svc, obs: obs}, nil
}

// Transform retrieves results for every topic. The table needs qid and query
// columns and at most one row per qid. Any failure aborts without output.
func (r *Retriever) Transform(ctx context.Context, topics Table) (Table, error) {
	start := time.Now()
	out, err := r.svc.Transform(ctx, topics)
	r.obs.observe("transform", start, out.Len(), err)
	return out, err
}

// Search retrieves results for one query under qid "1".
func (r *Retriever) Search(ctx context.Context, query string) (Table, error) {
	start := time.Now()
	out, err := r.svc.Search(ctx, query)
	r.obs.observe("search", start, out.Len(), err)
	return out, err
}

// Hash returns the configuration digest used as cache key.
func (r *Retriever) Hash() string { return r.svc.Hash() }

// Schema returns the output columns for topics with the given columns.
func (r *Retriever) Schema(topicColumns []string) []string {
	return r.svc.Schema(topicColumns)
}

// Features returns the enabled feature names, sorted.
func (r *Retriever) Features() []string {
	return r.svc.Settings().Features.Names()
}

// Ping checks that ChatNoir and the cache store, if any, are reachable.
func (r *Retriever) Ping(ctx context.Context) error {
	if err := r.stack.Client.HealthCheck(ctx); err != nil {
		return fmt.Errorf("retrieve: %w", err)
	}
	if r.stack.Store != nil {
		if err := r.stack.Store.Ping(ctx); err != nil {
			return fmt.Errorf("ping cache: %w", err)
		}
	}
	return nil
}

// Close releases the cache store.
func (r *Retriever) Close() {
	if r.stack != nil {
		r.stack.Close()
	}
}
