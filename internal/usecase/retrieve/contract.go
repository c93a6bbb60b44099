package retrieve

import (
	"context"
	"iter"

	"github.com/kailas-cloud/chatnoir-retrieve/internal/domain/request"
	"github.com/kailas-cloud/chatnoir-retrieve/internal/domain/result"
	"github.com/kailas-cloud/chatnoir-retrieve/internal/domain/table"
)

// Searcher is the search backend. Sequences are lazy: pages are fetched only
// while the consumer keeps iterating, and retries happen inside the backend.
type Searcher interface {
	Search(ctx context.Context, req request.Request) iter.Seq2[result.Result, error]
	SearchPhrases(ctx context.Context, req request.Request) iter.Seq2[result.Result, error]
}

// ContentSource fetches the cached copy of a hit, as markup or as plain text.
type ContentSource interface {
	Content(ctx context.Context, r *result.Result, plain, staging bool) (string, error)
}

// FrameCache stores the projected rows of one query under a config hash.
// Rows hold only result columns, never topic columns.
type FrameCache interface {
	Get(ctx context.Context, configHash, query string) ([]table.Row, bool)
	Put(ctx context.Context, configHash, query string, rows []table.Row)
}

// Progress observes query groups as they are processed.
type Progress interface {
	Start(total int)
	Advance(qid string, rows int)
	Finish()
}
