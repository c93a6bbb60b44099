package chatnoir

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/kailas-cloud/chatnoir-retrieve/internal/domain/index"
	"github.com/kailas-cloud/chatnoir-retrieve/internal/domain/request"
)

// fakeAPI serves a fixed number of hits per query through the search endpoints.
type fakeAPI struct {
	mu       sync.Mutex
	total    int
	bodies   []searchRequest
	failures []int // statuses returned before the first success
	paths    []string
}

func (f *fakeAPI) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.paths = append(f.paths, r.URL.Path)
	if len(f.failures) > 0 {
		status := f.failures[0]
		f.failures = f.failures[1:]
		w.WriteHeader(status)
		_, _ = w.Write([]byte(`{"message":"backend says no"}`))
		return
	}

	var body searchRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		w.WriteHeader(http.StatusBadRequest)
		return
	}
	f.bodies = append(f.bodies, body)

	resp := searchResponse{Meta: metaDTO{TotalResults: f.total}}
	for i := body.From; i < min(body.From+body.Size, f.total); i++ {
		title := fmt.Sprintf("<em>Result</em> %d &amp; more", i)
		trec := fmt.Sprintf("clueweb12-%04d", i)
		hit := hitDTO{
			Score:   float64(1000 - i),
			UUID:    fmt.Sprintf("uuid-%d", i),
			Index:   "cw12",
			TrecID:  &trec,
			Title:   &title,
			Snippet: &title,
		}
		if body.Explain {
			hit.Explanation = json.RawMessage(`{"value":1,"description":"sum of"}`)
		}
		resp.Results = append(resp.Results, hit)
	}
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(resp)
}

func (f *fakeAPI) requests() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.paths)
}

func newTestClient(t *testing.T, h http.Handler) (*Client, *httptest.Server) {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	c := New(&Config{BaseURL: srv.URL, StagingBaseURL: srv.URL + "/staging"})
	c.sleep = func(context.Context, time.Duration) error { return nil }
	return c, srv
}

func testRequest(query string, pageSize int) request.Request {
	return request.Request{
		Query:    query,
		Indices:  []index.Index{index.ClueWeb12},
		PageSize: pageSize,
		Retries:  3,
		Backoff:  time.Millisecond,
		APIKey:   "secret",
	}
}
