package chatnoir

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/chatnoir-retrieve/internal/domain"
	"github.com/kailas-cloud/chatnoir-retrieve/internal/metrics"
)

// maxErrorBody bounds how much of an error response is kept for messages.
const maxErrorBody = 4 << 10

// policy is the retry policy of one call.
type policy struct {
	retries int
	backoff time.Duration
}

// do sends the request built by newReq and returns the body of the first
// successful response. Network errors, 429 and 5xx are retried with
// exponential backoff; other statuses fail immediately.
func (c *Client) do(
	ctx context.Context,
	endpoint string,
	p policy,
	newReq func(ctx context.Context) (*http.Request, error),
) ([]byte, error) {
	backoff := p.backoff
	var lastErr error

	for attempt := 0; attempt <= p.retries; attempt++ {
		if attempt > 0 {
			metrics.BackendRetriesTotal.WithLabelValues(endpoint).Inc()
			c.logger.Debug("Retrying ChatNoir request",
				zap.String("endpoint", endpoint),
				zap.Int("attempt", attempt),
				zap.Duration("backoff", backoff),
				zap.Error(lastErr),
			)
			if err := c.sleep(ctx, backoff); err != nil {
				return nil, err
			}
			backoff = min(backoff*2, maxBackoff)
		}

		body, retryable, err := c.once(ctx, endpoint, newReq)
		if err == nil {
			return body, nil
		}
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		lastErr = err
		if !retryable {
			break
		}
	}

	c.logger.Warn("ChatNoir request failed",
		zap.String("endpoint", endpoint),
		zap.Int("retries", p.retries),
		zap.Error(lastErr),
	)
	return nil, lastErr
}

// once performs a single attempt and classifies its failure.
func (c *Client) once(
	ctx context.Context,
	endpoint string,
	newReq func(ctx context.Context) (*http.Request, error),
) (body []byte, retryable bool, err error) {
	if err := c.wait(ctx); err != nil {
		return nil, false, fmt.Errorf("rate limiter: %w", err)
	}
	req, err := newReq(ctx)
	if err != nil {
		return nil, false, fmt.Errorf("build request: %w", err)
	}

	start := time.Now()
	resp, err := c.http.Do(req)
	metrics.BackendRequestDuration.WithLabelValues(endpoint).Observe(time.Since(start).Seconds())
	if err != nil {
		metrics.BackendRequestsTotal.WithLabelValues(endpoint, "network_error").Inc()
		return nil, true, fmt.Errorf("%w: %s request: %w", domain.ErrTransport, endpoint, err)
	}
	defer func() { _ = resp.Body.Close() }()

	metrics.BackendRequestsTotal.WithLabelValues(endpoint, strconv.Itoa(resp.StatusCode)).Inc()

	if resp.StatusCode >= http.StatusOK && resp.StatusCode < http.StatusMultipleChoices {
		data, err := io.ReadAll(resp.Body)
		if err != nil {
			return nil, true, fmt.Errorf("%w: read %s response: %w", domain.ErrTransport, endpoint, err)
		}
		return data, false, nil
	}

	data, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
	return nil, isRetryableStatus(resp.StatusCode), domain.NewStatusError(resp.StatusCode, extractMessage(data))
}

func isRetryableStatus(status int) bool {
	return status == http.StatusTooManyRequests || status >= http.StatusInternalServerError
}

