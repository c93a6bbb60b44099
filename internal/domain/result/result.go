// Package result holds the raw search hit returned by the search backend.
package result

import (
	"encoding/json"
	"strings"
	"time"
)

// UnknownTrecID is the placeholder the backend uses for documents without a TREC id.
const UnknownTrecID = "unknown"

// Result is a single search hit. Optional fields are nil when the request
// variant that produced the hit does not return them.
type Result struct {
	UUID   string
	Index  string
	Score  float64
	TrecID *string

	// Staging-only fields.
	WarcID      *string
	CrawlDate   *time.Time
	CacheURI    *string
	ContentType *string
	Language    *string

	TargetHostname *string
	TargetURI      *string
	PageRank       *float64
	SpamRank       *float64

	TitleHighlighted   *string
	TitleText          *string
	SnippetHighlighted *string
	SnippetText        *string

	// Explanation is set only by explain requests.
	Explanation json.RawMessage
}

// HasKnownTrecID reports whether the hit resolved to a TREC document id.
func (r *Result) HasKnownTrecID() bool {
	if r.TrecID == nil {
		return false
	}
	id := strings.TrimSpace(*r.TrecID)
	return id != "" && !strings.EqualFold(id, UnknownTrecID)
}

// Docno returns the canonical document identifier: the TREC id when known, else the UUID.
func (r *Result) Docno() string {
	if r.HasKnownTrecID() {
		return *r.TrecID
	}
	return r.UUID
}

// HasExplanation reports whether the hit carries an explanation payload.
func (r *Result) HasExplanation() bool {
	return len(r.Explanation) > 0 && string(r.Explanation) != "null"
}
