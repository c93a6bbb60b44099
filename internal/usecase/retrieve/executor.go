package retrieve

import (
	"context"
	"fmt"
	"iter"

	"github.com/kailas-cloud/chatnoir-retrieve/internal/domain"
	"github.com/kailas-cloud/chatnoir-retrieve/internal/domain/feature"
	"github.com/kailas-cloud/chatnoir-retrieve/internal/domain/request"
	"github.com/kailas-cloud/chatnoir-retrieve/internal/domain/result"
	"github.com/kailas-cloud/chatnoir-retrieve/internal/domain/settings"
	"github.com/kailas-cloud/chatnoir-retrieve/internal/metrics"
)

// Executor runs the search for a single query.
type Executor struct {
	searcher Searcher
	settings settings.Settings
}

// NewExecutor creates an executor bound to immutable settings.
func NewExecutor(searcher Searcher, s settings.Settings) *Executor {
	return &Executor{searcher: searcher, settings: s}
}

// Request builds the backend request for query.
func (e *Executor) Request(query string) request.Request {
	s := e.settings
	return request.Request{
		Query:    query,
		Indices:  s.Indices.Sorted(),
		Explain:  s.Features.Contains(feature.Explanation),
		Staging:  s.Staging,
		Slop:     s.Slop,
		PageSize: s.EffectivePageSize(),
		Retries:  s.Retries,
		Backoff:  s.Backoff,
		APIKey:   s.APIKey,
	}
}

// Execute lazily yields the hits for query. Unknown hits are dropped before
// counting when filtering is on, and iteration stops once the result cap is
// reached so no further pages are requested. Backend errors are yielded as-is.
func (e *Executor) Execute(ctx context.Context, query string) iter.Seq2[result.Result, error] {
	return func(yield func(result.Result, error) bool) {
		s := e.settings
		if bad := feature.Unsupported(s.Features, s.Staging); !bad.IsEmpty() {
			yield(result.Result{}, fmt.Errorf("%w: features %s not supported by the %s endpoint",
				domain.ErrShape, bad, s.Endpoint()))
			return
		}
		limit := -1
		if s.NumResults != nil {
			limit = *s.NumResults
		}
		if limit == 0 {
			return
		}

		req := e.Request(query)
		var hits iter.Seq2[result.Result, error]
		if s.Phrases {
			hits = e.searcher.SearchPhrases(ctx, req)
		} else {
			hits = e.searcher.Search(ctx, req)
		}

		taken := 0
		for r, err := range hits {
			if err != nil {
				yield(result.Result{}, err)
				return
			}
			if s.FilterUnknown && !r.HasKnownTrecID() {
				continue
			}
			metrics.ResultsYieldedTotal.Inc()
			if !yield(r, nil) {
				return
			}
			taken++
			if limit > 0 && taken >= limit {
				return
			}
		}
	}
}
