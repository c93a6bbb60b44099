package chatnoir

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"

	"github.com/kailas-cloud/chatnoir-retrieve/internal/domain/result"
)

const cachePath = "/cache"

// Content fetches the cached copy of a hit: full markup, or extracted plain text.
func (c *Client) Content(ctx context.Context, r *result.Result, plain, staging bool) (string, error) {
	if r.UUID == "" {
		return "", errors.New("cached content needs a uuid")
	}

	q := url.Values{}
	q.Set("uuid", r.UUID)
	if r.Index != "" {
		q.Set("index", r.Index)
	}
	// ChatNoir reads raw and plain as value-less switches.
	mode := "raw"
	if plain {
		mode = "plain"
	}
	target := c.base(staging) + cachePath + "?" + q.Encode() + "&" + mode

	data, err := c.do(ctx, EndpointCache, policy{retries: c.contentRetries, backoff: c.contentBackoff},
		func(ctx context.Context) (*http.Request, error) {
			return http.NewRequestWithContext(ctx, http.MethodGet, target, http.NoBody)
		})
	if err != nil {
		return "", fmt.Errorf("fetch cached content %s: %w", r.UUID, err)
	}
	return string(data), nil
}

// ping issues a HEAD request against base; any non-5xx answer counts as reachable.
func (c *Client) ping(ctx context.Context, base string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodHead, base+"/", http.NoBody)
	if err != nil {
		return fmt.Errorf("build ping request: %w", err)
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("ping chatnoir: %w", err)
	}
	_ = resp.Body.Close()
	if resp.StatusCode >= http.StatusInternalServerError {
		return fmt.Errorf("ping chatnoir: status %d", resp.StatusCode)
	}
	return nil
}
