package chatnoir

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"iter"
	"net/http"

	"go.uber.org/zap"

	"github.com/kailas-cloud/chatnoir-retrieve/internal/domain"
	"github.com/kailas-cloud/chatnoir-retrieve/internal/domain/request"
	"github.com/kailas-cloud/chatnoir-retrieve/internal/domain/result"
	"github.com/kailas-cloud/chatnoir-retrieve/internal/metrics"
)

const (
	searchPath  = "/api/v1/_search"
	phrasesPath = "/api/v1/_phrases"
)

// Search runs a plain query. Pages are fetched lazily as the sequence is consumed.
func (c *Client) Search(ctx context.Context, req request.Request) iter.Seq2[result.Result, error] {
	return c.paginate(ctx, EndpointSearch, searchPath, req, false)
}

// SearchPhrases runs a phrase query with req.Slop. Pages are fetched lazily.
func (c *Client) SearchPhrases(ctx context.Context, req request.Request) iter.Seq2[result.Result, error] {
	return c.paginate(ctx, EndpointPhrases, phrasesPath, req, true)
}

// paginate yields hits page by page until a short page, the reported total,
// or the consumer stops.
func (c *Client) paginate(
	ctx context.Context,
	endpoint, path string,
	req request.Request,
	phrases bool,
) iter.Seq2[result.Result, error] {
	return func(yield func(result.Result, error) bool) {
		size := max(req.PageSize, 1)
		for from := 0; ; {
			page, err := c.fetchPage(ctx, endpoint, path, req, phrases, from, size)
			if err != nil {
				yield(result.Result{}, err)
				return
			}
			metrics.PagesFetchedTotal.WithLabelValues(endpoint).Inc()

			for i := range page.Results {
				if !yield(page.Results[i].toResult(), nil) {
					return
				}
			}

			from += len(page.Results)
			if len(page.Results) < size {
				return
			}
			if page.Meta.TotalResults > 0 && from >= page.Meta.TotalResults {
				return
			}
		}
	}
}

func (c *Client) fetchPage(
	ctx context.Context,
	endpoint, path string,
	req request.Request,
	phrases bool,
	from, size int,
) (*searchResponse, error) {
	body := searchRequest{
		APIKey:  req.APIKey,
		Query:   req.Query,
		Index:   indexNames(req),
		From:    from,
		Size:    size,
		Explain: req.Explain,
	}
	if phrases {
		slop := req.Slop
		body.Slop = &slop
	}
	payload, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("marshal %s request: %w", endpoint, err)
	}

	url := c.base(req.Staging) + path
	data, err := c.do(ctx, endpoint, policy{retries: req.Retries, backoff: req.Backoff},
		func(ctx context.Context) (*http.Request, error) {
			r, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
			if err != nil {
				return nil, err
			}
			r.Header.Set("Content-Type", "application/json")
			r.Header.Set("Accept", "application/json")
			return r, nil
		})
	if err != nil {
		return nil, err
	}

	var resp searchResponse
	if err := json.Unmarshal(data, &resp); err != nil {
		return nil, fmt.Errorf("%w: decode %s response: %w", domain.ErrTransport, endpoint, err)
	}
	c.logger.Debug("ChatNoir page fetched",
		zap.String("endpoint", endpoint),
		zap.Bool("staging", req.Staging),
		zap.Int("from", from),
		zap.Int("size", size),
		zap.Int("results", len(resp.Results)),
		zap.Int("total", resp.Meta.TotalResults),
	)
	return &resp, nil
}

func indexNames(req request.Request) []string {
	out := make([]string, len(req.Indices))
	for i, idx := range req.Indices {
		out[i] = string(idx)
	}
	return out
}
