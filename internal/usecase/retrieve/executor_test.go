package retrieve

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/kailas-cloud/chatnoir-retrieve/internal/domain"
	"github.com/kailas-cloud/chatnoir-retrieve/internal/domain/feature"
	"github.com/kailas-cloud/chatnoir-retrieve/internal/domain/index"
	"github.com/kailas-cloud/chatnoir-retrieve/internal/domain/result"
	"github.com/kailas-cloud/chatnoir-retrieve/internal/domain/settings"
)

func collect(t *testing.T, e *Executor, query string) ([]result.Result, error) {
	t.Helper()
	var out []result.Result
	for r, err := range e.Execute(context.Background(), query) {
		if err != nil {
			return out, err
		}
		out = append(out, r)
	}
	return out, nil
}

func TestExecute_TruncatesWithoutExtraPages(t *testing.T) {
	fs := &fakeSearcher{hits: map[string][]result.Result{"q": makeHits("q", 50)}}
	s := settings.Default("key")
	s.PageSize = 4
	s.NumResults = settings.Bounded(6)

	got, err := collect(t, NewExecutor(fs, s), "q")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(got) != 6 {
		t.Fatalf("expected 6 results, got %d", len(got))
	}
	if fs.pages != 2 {
		t.Errorf("expected 2 pages fetched, got %d", fs.pages)
	}
}

func TestExecute_PageSizeClampedToNumResults(t *testing.T) {
	fs := &fakeSearcher{hits: map[string][]result.Result{"q": makeHits("q", 50)}}
	s := settings.Default("key")
	s.PageSize = 100
	s.NumResults = settings.Bounded(3)

	if _, err := collect(t, NewExecutor(fs, s), "q"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if fs.requests[0].PageSize != 3 {
		t.Errorf("expected page size 3, got %d", fs.requests[0].PageSize)
	}
	if fs.pages != 1 {
		t.Errorf("expected 1 page, got %d", fs.pages)
	}
}

func TestExecute_Unbounded(t *testing.T) {
	fs := &fakeSearcher{hits: map[string][]result.Result{"q": makeHits("q", 23)}}
	s := settings.Default("key")
	s.PageSize = 10
	s.NumResults = nil

	got, err := collect(t, NewExecutor(fs, s), "q")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(got) != 23 {
		t.Errorf("expected all 23 results, got %d", len(got))
	}
	if fs.requests[0].PageSize != 10 {
		t.Errorf("expected configured page size, got %d", fs.requests[0].PageSize)
	}
}

func TestExecute_ZeroResultsIssuesNoRequest(t *testing.T) {
	fs := &fakeSearcher{hits: map[string][]result.Result{"q": makeHits("q", 5)}}
	s := settings.Default("key")
	s.NumResults = settings.Bounded(0)

	got, err := collect(t, NewExecutor(fs, s), "q")
	if err != nil || len(got) != 0 {
		t.Fatalf("expected no results, got %d, %v", len(got), err)
	}
	if fs.plainCalls != 0 {
		t.Errorf("expected no backend call, got %d", fs.plainCalls)
	}
}

func TestExecute_FilterUnknownBeforeCounting(t *testing.T) {
	hits := makeHits("q", 6)
	hits[0].TrecID = nil
	hits[2].TrecID = strPtr(result.UnknownTrecID)
	fs := &fakeSearcher{hits: map[string][]result.Result{"q": hits}}
	s := settings.Default("key")
	s.FilterUnknown = true
	s.NumResults = settings.Bounded(3)

	got, err := collect(t, NewExecutor(fs, s), "q")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(got) != 3 {
		t.Fatalf("expected 3 results, got %d", len(got))
	}
	for _, r := range got {
		if !r.HasKnownTrecID() {
			t.Errorf("unknown hit %s not filtered", r.UUID)
		}
	}
}

func TestExecute_PhraseModeForwardsSlop(t *testing.T) {
	fs := &fakeSearcher{hits: map[string][]result.Result{"q": makeHits("q", 2)}}
	s := settings.Default("key")
	s.Phrases = true
	s.Slop = 2

	if _, err := collect(t, NewExecutor(fs, s), "q"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if fs.phraseCalls != 1 || fs.plainCalls != 0 {
		t.Fatalf("expected phrase search, got phrase=%d plain=%d", fs.phraseCalls, fs.plainCalls)
	}
	if fs.requests[0].Slop != 2 {
		t.Errorf("expected slop 2, got %d", fs.requests[0].Slop)
	}
}

func TestExecute_ForwardsRequestSettings(t *testing.T) {
	fs := &fakeSearcher{hits: map[string][]result.Result{}}
	s := settings.Default("secret")
	s.Indices = index.NewSet(index.ClueWeb12, index.ClueWeb09)
	s.Features = feature.Explanation.Set()
	s.Retries = 7
	s.Backoff = 3 * time.Second
	s.Staging = true

	if _, err := collect(t, NewExecutor(fs, s), "q"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	req := fs.requests[0]
	if !req.Explain || !req.Staging || req.Retries != 7 || req.Backoff != 3*time.Second || req.APIKey != "secret" {
		t.Errorf("unexpected request: %+v", req)
	}
	if len(req.Indices) != 2 || req.Indices[0] != index.ClueWeb09 {
		t.Errorf("expected sorted indices, got %v", req.Indices)
	}
}

func TestExecute_RejectsUnsupportedBeforeRequest(t *testing.T) {
	fs := &fakeSearcher{}
	s := settings.Default("key")
	s.Features = feature.WarcID.Set()

	_, err := collect(t, NewExecutor(fs, s), "q")
	if !errors.Is(err, domain.ErrShape) {
		t.Fatalf("expected ErrShape, got %v", err)
	}
	if fs.plainCalls != 0 {
		t.Error("request issued despite unsupported feature")
	}
}

func TestExecute_PropagatesBackendError(t *testing.T) {
	fs := &fakeSearcher{hits: map[string][]result.Result{"q": makeHits("q", 20)}, err: errBackend, errAfter: 10}
	s := settings.Default("key")
	s.PageSize = 10
	s.NumResults = nil

	got, err := collect(t, NewExecutor(fs, s), "q")
	if !errors.Is(err, errBackend) || err != errBackend {
		t.Fatalf("expected unmodified backend error, got %v", err)
	}
	if len(got) != 10 {
		t.Errorf("expected 10 results before failure, got %d", len(got))
	}
}
