package chatnoir

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/kailas-cloud/chatnoir-retrieve/internal/domain"
	"github.com/kailas-cloud/chatnoir-retrieve/internal/domain/result"
)

func TestSearch_AllPages(t *testing.T) {
	api := &fakeAPI{total: 25}
	c, _ := newTestClient(t, api)

	var got []result.Result
	for r, err := range c.Search(context.Background(), testRequest("q", 10)) {
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		got = append(got, r)
	}
	if len(got) != 25 {
		t.Fatalf("expected 25 hits, got %d", len(got))
	}
	if api.requests() != 3 {
		t.Errorf("expected 3 page requests, got %d", api.requests())
	}
	if api.bodies[1].From != 10 || api.bodies[2].From != 20 {
		t.Errorf("unexpected offsets: %+v", api.bodies)
	}
}

func TestSearch_StopsWhenConsumerStops(t *testing.T) {
	api := &fakeAPI{total: 1000}
	c, _ := newTestClient(t, api)

	n := 0
	for _, err := range c.Search(context.Background(), testRequest("q", 10)) {
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		n++
		if n == 12 {
			break
		}
	}
	if api.requests() != 2 {
		t.Errorf("expected 2 page requests, got %d", api.requests())
	}
}

func TestSearch_StopsAtTotal(t *testing.T) {
	api := &fakeAPI{total: 20}
	c, _ := newTestClient(t, api)

	for _, err := range c.Search(context.Background(), testRequest("q", 10)) {
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	}
	if api.requests() != 2 {
		t.Errorf("expected 2 page requests, got %d", api.requests())
	}
}

func TestSearch_RequestBody(t *testing.T) {
	api := &fakeAPI{total: 1}
	c, _ := newTestClient(t, api)

	req := testRequest("python library", 5)
	req.Explain = true
	for r, err := range c.Search(context.Background(), req) {
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !r.HasExplanation() {
			t.Error("explanation missing from explain response")
		}
	}
	body := api.bodies[0]
	if body.APIKey != "secret" || body.Query != "python library" || !body.Explain || body.Size != 5 {
		t.Errorf("unexpected body: %+v", body)
	}
	if len(body.Index) != 1 || body.Index[0] != "cw12" {
		t.Errorf("unexpected index: %v", body.Index)
	}
	if body.Slop != nil {
		t.Error("slop sent for plain search")
	}
	if api.paths[0] != searchPath {
		t.Errorf("unexpected path %s", api.paths[0])
	}
}

func TestSearchPhrases_SendsSlop(t *testing.T) {
	api := &fakeAPI{total: 1}
	c, _ := newTestClient(t, api)

	req := testRequest("rust ownership", 5)
	req.Slop = 2
	for _, err := range c.SearchPhrases(context.Background(), req) {
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	}
	if api.paths[0] != phrasesPath {
		t.Errorf("unexpected path %s", api.paths[0])
	}
	if api.bodies[0].Slop == nil || *api.bodies[0].Slop != 2 {
		t.Errorf("unexpected slop: %v", api.bodies[0].Slop)
	}
}

func TestSearch_Staging(t *testing.T) {
	api := &fakeAPI{total: 1}
	c, _ := newTestClient(t, api)

	req := testRequest("q", 5)
	req.Staging = true
	for _, err := range c.Search(context.Background(), req) {
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	}
	if !strings.HasPrefix(api.paths[0], "/staging/") {
		t.Errorf("expected staging path, got %s", api.paths[0])
	}
}

func TestSearch_RetriesServerErrors(t *testing.T) {
	api := &fakeAPI{total: 3, failures: []int{http.StatusServiceUnavailable, http.StatusTooManyRequests}}
	c, _ := newTestClient(t, api)
	var slept []time.Duration
	c.sleep = func(_ context.Context, d time.Duration) error {
		slept = append(slept, d)
		return nil
	}

	n := 0
	for _, err := range c.Search(context.Background(), testRequest("q", 10)) {
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		n++
	}
	if n != 3 {
		t.Errorf("expected 3 hits, got %d", n)
	}
	if len(slept) != 2 || slept[0] != time.Millisecond || slept[1] != 2*time.Millisecond {
		t.Errorf("unexpected backoff sequence: %v", slept)
	}
}

func TestSearch_RetriesExhausted(t *testing.T) {
	api := &fakeAPI{total: 3, failures: []int{500, 500, 500, 500, 500}}
	c, _ := newTestClient(t, api)

	req := testRequest("q", 10)
	req.Retries = 2
	var gotErr error
	for _, err := range c.Search(context.Background(), req) {
		gotErr = err
	}
	if !errors.Is(gotErr, domain.ErrTransport) {
		t.Fatalf("expected ErrTransport, got %v", gotErr)
	}
	var se *domain.StatusError
	if !errors.As(gotErr, &se) || se.StatusCode != 500 || se.Message != "backend says no" {
		t.Errorf("unexpected status error: %v", gotErr)
	}
	if api.requests() != 3 {
		t.Errorf("expected 3 attempts, got %d", api.requests())
	}
}

func TestSearch_UnauthorizedNotRetried(t *testing.T) {
	api := &fakeAPI{total: 3, failures: []int{http.StatusUnauthorized}}
	c, _ := newTestClient(t, api)

	var gotErr error
	for _, err := range c.Search(context.Background(), testRequest("q", 10)) {
		gotErr = err
	}
	if !errors.Is(gotErr, domain.ErrUnauthorized) || !errors.Is(gotErr, domain.ErrTransport) {
		t.Fatalf("expected unauthorized transport error, got %v", gotErr)
	}
	if api.requests() != 1 {
		t.Errorf("expected a single attempt, got %d", api.requests())
	}
}

func TestSearch_ContextCanceledDuringBackoff(t *testing.T) {
	api := &fakeAPI{total: 3, failures: []int{503}}
	c, _ := newTestClient(t, api)
	c.sleep = func(context.Context, time.Duration) error { return context.Canceled }

	var gotErr error
	for _, err := range c.Search(context.Background(), testRequest("q", 10)) {
		gotErr = err
	}
	if !errors.Is(gotErr, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", gotErr)
	}
}

func TestSearch_RateLimited(t *testing.T) {
	api := &fakeAPI{total: 30}
	srv := httptest.NewServer(api)
	t.Cleanup(srv.Close)
	c := New(&Config{BaseURL: srv.URL, RequestsPerSecond: 1000})

	for _, err := range c.Search(context.Background(), testRequest("q", 10)) {
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	}
	if c.limiter == nil {
		t.Fatal("expected limiter to be configured")
	}
	if api.requests() != 3 {
		t.Errorf("expected 3 requests, got %d", api.requests())
	}
}
