package retrieve

import (
	"time"

	"github.com/kailas-cloud/chatnoir-retrieve/internal/domain/feature"
	"github.com/kailas-cloud/chatnoir-retrieve/internal/domain/result"
	"github.com/kailas-cloud/chatnoir-retrieve/internal/domain/table"
)

// Kind is the value type stored in a result column.
type Kind int

// Column value kinds.
const (
	KindString Kind = iota
	KindFloat
	// KindRaw holds a json.RawMessage.
	KindRaw
)

// Feature-dependent column names.
const (
	ColUUID               = "uuid"
	ColTrecID             = "trec_id"
	ColWarcID             = "warc_id"
	ColIndex              = "index"
	ColCrawlDate          = "crawl_date"
	ColTargetHostname     = "target_hostname"
	ColTargetURI          = "target_uri"
	ColCacheURI           = "cache_uri"
	ColPageRank           = "page_rank"
	ColSpamRank           = "spam_rank"
	ColTitleHighlighted   = "title_highlighted"
	ColTitleText          = "title_text"
	ColSnippetHighlighted = "snippet_highlighted"
	ColSnippetText        = "snippet_text"
	ColExplanation        = "explanation"
	ColContent            = "content"
	ColContentPlain       = "content_plain"
	ColText               = "text"
	ColContentType        = "content_type"
	ColLanguage           = "language"
)

// column describes one feature-dependent output column.
type column struct {
	Name string
	Flag feature.Flag
	Kind Kind
	// value extracts the column from a hit; nil for fetched content columns.
	value func(r *result.Result) any
}

// registry lists feature columns in output order.
var registry = []column{
	{ColUUID, feature.UUID, KindString, func(r *result.Result) any { return r.UUID }},
	{ColTrecID, feature.TrecID, KindString, func(r *result.Result) any { return optString(r.TrecID) }},
	{ColWarcID, feature.WarcID, KindString, func(r *result.Result) any { return optString(r.WarcID) }},
	{ColIndex, feature.Index, KindString, func(r *result.Result) any { return r.Index }},
	{ColCrawlDate, feature.CrawlDate, KindString, func(r *result.Result) any { return optTime(r.CrawlDate) }},
	{ColTargetHostname, feature.TargetHostname, KindString, func(r *result.Result) any { return optString(r.TargetHostname) }},
	{ColTargetURI, feature.TargetURI, KindString, func(r *result.Result) any { return optString(r.TargetURI) }},
	{ColCacheURI, feature.CacheURI, KindString, func(r *result.Result) any { return optString(r.CacheURI) }},
	{ColPageRank, feature.PageRank, KindFloat, func(r *result.Result) any { return optFloat(r.PageRank) }},
	{ColSpamRank, feature.SpamRank, KindFloat, func(r *result.Result) any { return optFloat(r.SpamRank) }},
	{ColTitleHighlighted, feature.TitleHighlighted, KindString, func(r *result.Result) any { return optString(r.TitleHighlighted) }},
	{ColTitleText, feature.TitleText, KindString, func(r *result.Result) any { return optString(r.TitleText) }},
	{ColSnippetHighlighted, feature.SnippetHighlighted, KindString, func(r *result.Result) any { return optString(r.SnippetHighlighted) }},
	{ColSnippetText, feature.SnippetText, KindString, func(r *result.Result) any { return optString(r.SnippetText) }},
	{ColExplanation, feature.Explanation, KindRaw, nil},
	{ColContent, feature.Content, KindString, nil},
	{ColContentPlain, feature.ContentPlain, KindString, nil},
	{ColText, feature.ContentPlain, KindString, nil},
	{ColContentType, feature.ContentType, KindString, func(r *result.Result) any { return optString(r.ContentType) }},
	{ColLanguage, feature.Language, KindString, func(r *result.Result) any { return optString(r.Language) }},
}

// Columns returns the result columns produced for the given features:
// docno and score first, then feature columns in registry order.
func Columns(features feature.Set) []string {
	out := []string{table.Docno, table.Score}
	for _, c := range registry {
		if features.Contains(c.Flag) {
			out = append(out, c.Name)
		}
	}
	return out
}

// RawColumns lists the columns holding raw JSON payloads, which stores must
// round-trip without decoding.
func RawColumns() []string {
	var out []string
	for _, c := range registry {
		if c.Kind == KindRaw {
			out = append(out, c.Name)
		}
	}
	return out
}

// Schema returns the full output schema for a topic table's columns.
func Schema(topicColumns []string, features feature.Set) []string {
	out := make([]string, 0, len(topicColumns)+len(registry)+3)
	seen := make(map[string]struct{}, cap(out))
	add := func(c string) {
		if _, ok := seen[c]; ok {
			return
		}
		seen[c] = struct{}{}
		out = append(out, c)
	}
	for _, c := range topicColumns {
		add(c)
	}
	for _, c := range Columns(features) {
		add(c)
	}
	add(table.Rank)
	return out
}

func optString(p *string) any {
	if p == nil {
		return nil
	}
	return *p
}

func optFloat(p *float64) any {
	if p == nil {
		return nil
	}
	return *p
}

func optTime(p *time.Time) any {
	if p == nil {
		return nil
	}
	return p.UTC().Format(time.RFC3339)
}
