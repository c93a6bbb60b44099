package retrieve

import (
	"context"
	"errors"
	"fmt"
	"iter"
	"testing"

	"github.com/kailas-cloud/chatnoir-retrieve/internal/domain/request"
	"github.com/kailas-cloud/chatnoir-retrieve/internal/domain/result"
	"github.com/kailas-cloud/chatnoir-retrieve/internal/domain/settings"
	"github.com/kailas-cloud/chatnoir-retrieve/internal/domain/table"
)

func strPtr(s string) *string     { return &s }
func floatPtr(f float64) *float64 { return &f }

// fakeSearcher serves per-query hits in pages of req.PageSize and counts page fetches.
type fakeSearcher struct {
	hits        map[string][]result.Result
	err         error
	errAfter    int
	pages       int
	phraseCalls int
	plainCalls  int
	requests    []request.Request
}

func (f *fakeSearcher) Search(ctx context.Context, req request.Request) iter.Seq2[result.Result, error] {
	f.plainCalls++
	return f.serve(ctx, req)
}

func (f *fakeSearcher) SearchPhrases(ctx context.Context, req request.Request) iter.Seq2[result.Result, error] {
	f.phraseCalls++
	return f.serve(ctx, req)
}

func (f *fakeSearcher) serve(_ context.Context, req request.Request) iter.Seq2[result.Result, error] {
	f.requests = append(f.requests, req)
	return func(yield func(result.Result, error) bool) {
		all := f.hits[req.Query]
		for from := 0; ; from += req.PageSize {
			if f.err != nil && from >= f.errAfter {
				yield(result.Result{}, f.err)
				return
			}
			if from >= len(all) {
				return
			}
			f.pages++
			end := min(from+req.PageSize, len(all))
			for _, r := range all[from:end] {
				if req.Explain && r.Explanation == nil {
					r.Explanation = []byte(`{"value":1}`)
				}
				if !yield(r, nil) {
					return
				}
			}
			if end-from < req.PageSize {
				return
			}
		}
	}
}

// fakeContent returns canned content or an error.
type fakeContent struct {
	err   error
	calls int
}

func (f *fakeContent) Content(_ context.Context, r *result.Result, plain, _ bool) (string, error) {
	f.calls++
	if f.err != nil {
		return "", f.err
	}
	if plain {
		return "plain " + r.UUID, nil
	}
	return "<html>" + r.UUID + "</html>", nil
}

// fakeCache is an in-memory FrameCache.
type fakeCache struct {
	data map[string][]table.Row
	puts int
}

func (f *fakeCache) Get(_ context.Context, hash, query string) ([]table.Row, bool) {
	rows, ok := f.data[hash+"/"+query]
	return rows, ok
}

func (f *fakeCache) Put(_ context.Context, hash, query string, rows []table.Row) {
	if f.data == nil {
		f.data = make(map[string][]table.Row)
	}
	f.puts++
	f.data[hash+"/"+query] = rows
}

// recordingProgress records observer calls.
type recordingProgress struct {
	started  int
	advanced []string
	finished bool
}

func (p *recordingProgress) Start(total int)          { p.started = total }
func (p *recordingProgress) Advance(qid string, _ int) { p.advanced = append(p.advanced, qid) }
func (p *recordingProgress) Finish()                  { p.finished = true }

var errBackend = errors.New("backend down")

// makeHits builds n hits with descending scores.
func makeHits(prefix string, n int) []result.Result {
	out := make([]result.Result, n)
	for i := range out {
		out[i] = result.Result{
			UUID:               fmt.Sprintf("%s-uuid-%d", prefix, i),
			Index:              "cw12",
			Score:              float64(100 - i),
			TrecID:             strPtr(fmt.Sprintf("%s-doc-%d", prefix, i)),
			TargetHostname:     strPtr("example.com"),
			TargetURI:          strPtr(fmt.Sprintf("https://example.com/%s/%d", prefix, i)),
			PageRank:           floatPtr(1.5),
			SpamRank:           floatPtr(80),
			TitleHighlighted:   strPtr("<em>" + prefix + "</em> title"),
			TitleText:          strPtr(prefix + " title"),
			SnippetHighlighted: strPtr("a <em>" + prefix + "</em> snippet"),
			SnippetText:        strPtr("a " + prefix + " snippet"),
		}
	}
	return out
}

func topicsOf(queries ...string) table.Table {
	t := table.New(table.QID, table.Query)
	for i, q := range queries {
		t.Rows = append(t.Rows, table.Row{table.QID: i, table.Query: q})
	}
	return t
}

func newTestService(t *testing.T, s settings.Settings, searcher Searcher) *Service {
	t.Helper()
	svc, err := New(s, searcher, &fakeContent{}, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	return svc
}
