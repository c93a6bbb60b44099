package retrieve

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/kailas-cloud/chatnoir-retrieve/internal/config"
	"github.com/kailas-cloud/chatnoir-retrieve/internal/domain/feature"
	"github.com/kailas-cloud/chatnoir-retrieve/internal/domain/index"
	"github.com/kailas-cloud/chatnoir-retrieve/internal/domain/settings"
	retrieveuc "github.com/kailas-cloud/chatnoir-retrieve/internal/usecase/retrieve"
)

// Progress observes query groups as a transform processes them.
type Progress = retrieveuc.Progress

// Option configures the Retriever.
type Option interface {
	apply(*retrieverConfig)
}

// optionFunc adapts a function to the Option interface.
type optionFunc func(*retrieverConfig)

func (f optionFunc) apply(c *retrieverConfig) { f(c) }

type retrieverConfig struct {
	settings   settings.Settings
	chatnoir   config.ChatNoirConfig
	cache      config.CacheConfig
	cacheTTL   time.Duration
	httpClient *http.Client
	progress   Progress
	logger     *zap.Logger
	metricsReg prometheus.Registerer
	errs       []error
}

func (c *retrieverConfig) fail(err error) {
	c.errs = append(c.errs, err)
}

// WithIndices selects the indices to search. Default: cw12.
func WithIndices(names ...string) Option {
	return optionFunc(func(c *retrieverConfig) {
		s, err := index.ParseSet(names)
		if err != nil {
			c.fail(err)
			return
		}
		c.settings.Indices = s
	})
}

// WithFeatures selects the result attributes to populate. Names may be joined
// with "|" or ",". Default: none.
func WithFeatures(names ...string) Option {
	return optionFunc(func(c *retrieverConfig) {
		s, err := feature.ParseList(names)
		if err != nil {
			c.fail(err)
			return
		}
		c.settings.Features = s
	})
}

// WithPhrases switches to phrase search with the given slop (0-2).
func WithPhrases(slop int) Option {
	return optionFunc(func(c *retrieverConfig) {
		c.settings.Phrases = true
		c.settings.Slop = slop
	})
}

// WithNumResults caps results per query. Default: 10.
func WithNumResults(n int) Option {
	return optionFunc(func(c *retrieverConfig) {
		c.settings.NumResults = settings.Bounded(n)
	})
}

// WithAllResults retrieves every result the backend reports.
func WithAllResults() Option {
	return optionFunc(func(c *retrieverConfig) {
		c.settings.NumResults = nil
	})
}

// WithPageSize sets the backend page size. Default: 100.
func WithPageSize(n int) Option {
	return optionFunc(func(c *retrieverConfig) {
		c.settings.PageSize = n
	})
}

// WithRetries sets the retry count and initial backoff for search requests.
// Default: 5 retries starting at 1s.
func WithRetries(n int, backoff time.Duration) Option {
	return optionFunc(func(c *retrieverConfig) {
		c.settings.Retries = n
		c.settings.Backoff = backoff
	})
}

// WithFilterUnknown drops results without a TREC id.
func WithFilterUnknown() Option {
	return optionFunc(func(c *retrieverConfig) {
		c.settings.FilterUnknown = true
	})
}

// WithStaging uses the staging endpoint, which serves extra features.
func WithStaging() Option {
	return optionFunc(func(c *retrieverConfig) {
		c.settings.Staging = true
	})
}

// WithVerbose logs progress for every query at info level.
func WithVerbose() Option {
	return optionFunc(func(c *retrieverConfig) {
		c.settings.Verbose = true
	})
}

// WithBaseURLs overrides the production and staging API roots. Empty values keep the defaults.
func WithBaseURLs(production, staging string) Option {
	return optionFunc(func(c *retrieverConfig) {
		c.chatnoir.BaseURL = production
		c.chatnoir.StagingBaseURL = staging
	})
}

// WithHTTPClient sets the HTTP client used for backend requests.
func WithHTTPClient(hc *http.Client) Option {
	return optionFunc(func(c *retrieverConfig) {
		c.httpClient = hc
	})
}

// WithRateLimit caps outgoing backend requests per second. Default: unlimited.
func WithRateLimit(rps float64) Option {
	return optionFunc(func(c *retrieverConfig) {
		c.chatnoir.RequestsPerSecond = rps
	})
}

// WithTimeout sets the per-request HTTP timeout. Default: 60s.
func WithTimeout(d time.Duration) Option {
	return optionFunc(func(c *retrieverConfig) {
		c.chatnoir.TimeoutSec = max(int(d/time.Second), 1)
	})
}

// WithMemoryCache caches each query's results in process, keeping at most
// size queries for ttl (0 = until evicted).
func WithMemoryCache(size int, ttl time.Duration) Option {
	return optionFunc(func(c *retrieverConfig) {
		c.cache = config.CacheConfig{Driver: config.CacheMemory, Size: size}
		c.cacheTTL = ttl
	})
}

// WithRedisCache caches each query's results in Redis.
func WithRedisCache(addr, password string, ttl time.Duration) Option {
	return optionFunc(func(c *retrieverConfig) {
		c.cache = config.CacheConfig{Driver: config.CacheRedis, Addrs: []string{addr}, Password: password}
		c.cacheTTL = ttl
	})
}

// WithValkeyCache caches each query's results in Valkey.
func WithValkeyCache(addr, password string, ttl time.Duration) Option {
	return optionFunc(func(c *retrieverConfig) {
		c.cache = config.CacheConfig{Driver: config.CacheValkey, Addrs: []string{addr}, Password: password}
		c.cacheTTL = ttl
	})
}

// WithProgress sets the per-query progress observer.
func WithProgress(p Progress) Option {
	return optionFunc(func(c *retrieverConfig) {
		c.progress = p
	})
}

// WithLogger enables structured logging. Default: disabled.
func WithLogger(l *zap.Logger) Option {
	return optionFunc(func(c *retrieverConfig) {
		c.logger = l
	})
}

// WithPrometheus registers operation counts and durations on reg.
// Pass nil to disable (default).
func WithPrometheus(reg prometheus.Registerer) Option {
	return optionFunc(func(c *retrieverConfig) {
		c.metricsReg = reg
	})
}
