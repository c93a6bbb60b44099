// Package chatnoir is the HTTP client for the ChatNoir search API.
package chatnoir

import (
	"context"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

// Default endpoints and client settings.
const (
	DefaultBaseURL        = "https://www.chatnoir.eu"
	DefaultStagingBaseURL = "https://staging.chatnoir.eu"
	DefaultTimeout        = 60 * time.Second
	DefaultContentRetries = 1
	DefaultContentBackoff = 500 * time.Millisecond

	maxBackoff = time.Minute
)

// Endpoint labels used in logs and metrics.
const (
	EndpointSearch  = "search"
	EndpointPhrases = "phrases"
	EndpointCache   = "cache"
)

// Config holds the ChatNoir client settings.
type Config struct {
	BaseURL        string
	StagingBaseURL string
	Timeout        time.Duration
	// RequestsPerSecond limits outgoing requests; 0 disables limiting.
	RequestsPerSecond float64
	// Retry policy for cached-content fetches. Search retries come with each request.
	ContentRetries int
	ContentBackoff time.Duration
	HTTPClient     *http.Client
	Logger         *zap.Logger
}

// Client talks to the production or staging ChatNoir API.
type Client struct {
	http           *http.Client
	baseURL        string
	stagingBaseURL string
	limiter        *rate.Limiter
	contentRetries int
	contentBackoff time.Duration
	logger         *zap.Logger
	sleep          func(ctx context.Context, d time.Duration) error
}

// New creates a ChatNoir client.
func New(cfg *Config) *Client {
	c := &Client{
		http:           cfg.HTTPClient,
		baseURL:        strings.TrimRight(cfg.BaseURL, "/"),
		stagingBaseURL: strings.TrimRight(cfg.StagingBaseURL, "/"),
		contentRetries: cfg.ContentRetries,
		contentBackoff: cfg.ContentBackoff,
		logger:         cfg.Logger,
		sleep:          sleepCtx,
	}
	if c.baseURL == "" {
		c.baseURL = DefaultBaseURL
	}
	if c.stagingBaseURL == "" {
		c.stagingBaseURL = DefaultStagingBaseURL
	}
	if c.http == nil {
		timeout := cfg.Timeout
		if timeout <= 0 {
			timeout = DefaultTimeout
		}
		c.http = &http.Client{Timeout: timeout}
	}
	if c.contentRetries < 0 {
		c.contentRetries = 0
	}
	if c.contentBackoff <= 0 {
		c.contentBackoff = DefaultContentBackoff
	}
	if cfg.RequestsPerSecond > 0 {
		burst := max(1, int(cfg.RequestsPerSecond))
		c.limiter = rate.NewLimiter(rate.Limit(cfg.RequestsPerSecond), burst)
	}
	if c.logger == nil {
		c.logger = zap.NewNop()
	}
	return c
}

// HealthCheck verifies the production API host is reachable.
func (c *Client) HealthCheck(ctx context.Context) error {
	return c.ping(ctx, c.baseURL)
}

func (c *Client) base(staging bool) string {
	if staging {
		return c.stagingBaseURL
	}
	return c.baseURL
}

func (c *Client) wait(ctx context.Context) error {
	if c.limiter == nil {
		return nil
	}
	return c.limiter.Wait(ctx)
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
