package chatnoir

import (
	"encoding/json"
	"strings"
	"time"

	"github.com/kailas-cloud/chatnoir-retrieve/internal/domain/result"
)

// searchRequest is the JSON body of _search and _phrases.
type searchRequest struct {
	APIKey  string   `json:"apikey"`
	Query   string   `json:"query"`
	Index   []string `json:"index"`
	From    int      `json:"from"`
	Size    int      `json:"size"`
	Explain bool     `json:"explain"`
	Slop    *int     `json:"slop,omitempty"`
}

type searchResponse struct {
	Meta    metaDTO  `json:"meta"`
	Results []hitDTO `json:"results"`
}

type metaDTO struct {
	QueryTime    int      `json:"query_time"`
	TotalResults int      `json:"total_results"`
	Indices      []string `json:"indices"`
}

// hitDTO covers every result variant. Staging-only and explain-only fields
// are absent from other variants and decode to nil.
type hitDTO struct {
	Score          float64         `json:"score"`
	UUID           string          `json:"uuid"`
	Index          string          `json:"index"`
	TrecID         *string         `json:"trec_id"`
	TargetHostname *string         `json:"target_hostname"`
	TargetURI      *string         `json:"target_uri"`
	PageRank       *float64        `json:"page_rank"`
	SpamRank       *float64        `json:"spam_rank"`
	Title          *string         `json:"title"`
	Snippet        *string         `json:"snippet"`
	Explanation    json.RawMessage `json:"explanation,omitempty"`

	WarcID      *string `json:"warc_id,omitempty"`
	CrawlDate   *string `json:"crawl_date,omitempty"`
	CacheURI    *string `json:"cache_uri,omitempty"`
	ContentType *string `json:"content_type,omitempty"`
	Lang        *string `json:"lang,omitempty"`
}

var crawlDateLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02",
}

func (h *hitDTO) toResult() result.Result {
	r := result.Result{
		UUID:               h.UUID,
		Index:              h.Index,
		Score:              h.Score,
		TrecID:             h.TrecID,
		WarcID:             h.WarcID,
		CacheURI:           h.CacheURI,
		ContentType:        h.ContentType,
		Language:           h.Lang,
		TargetHostname:     h.TargetHostname,
		TargetURI:          h.TargetURI,
		PageRank:           h.PageRank,
		SpamRank:           h.SpamRank,
		TitleHighlighted:   h.Title,
		TitleText:          plain(h.Title),
		SnippetHighlighted: h.Snippet,
		SnippetText:        plain(h.Snippet),
		Explanation:        h.Explanation,
	}
	if h.CrawlDate != nil {
		r.CrawlDate = parseCrawlDate(*h.CrawlDate)
	}
	return r
}

func plain(markup *string) *string {
	if markup == nil {
		return nil
	}
	text := StripMarkup(*markup)
	return &text
}

// parseCrawlDate returns nil for dates in an unknown layout.
func parseCrawlDate(s string) *time.Time {
	s = strings.TrimSpace(s)
	for _, layout := range crawlDateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			t = t.UTC()
			return &t
		}
	}
	return nil
}

// extractMessage pulls a readable message out of an error body.
func extractMessage(body []byte) string {
	var parsed struct {
		Message string `json:"message"`
		Error   any    `json:"error"`
	}
	if json.Unmarshal(body, &parsed) == nil {
		if parsed.Message != "" {
			return parsed.Message
		}
		switch e := parsed.Error.(type) {
		case string:
			return e
		case map[string]any:
			if m, ok := e["message"].(string); ok {
				return m
			}
		}
	}
	return strings.TrimSpace(string(body))
}
