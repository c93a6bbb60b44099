package retrieve

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/kailas-cloud/chatnoir-retrieve/internal/domain"
	"github.com/kailas-cloud/chatnoir-retrieve/internal/domain/feature"
	"github.com/kailas-cloud/chatnoir-retrieve/internal/domain/result"
	"github.com/kailas-cloud/chatnoir-retrieve/internal/domain/table"
	"github.com/kailas-cloud/chatnoir-retrieve/internal/metrics"
)

// Projector turns raw hits into output rows for a fixed feature set.
type Projector struct {
	features feature.Set
	staging  bool
	content  ContentSource
	logger   *zap.Logger
}

// NewProjector creates a projector. content may be nil when no content feature is enabled.
func NewProjector(features feature.Set, staging bool, content ContentSource, logger *zap.Logger) *Projector {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Projector{features: features, staging: staging, content: content, logger: logger}
}

// Project builds one output row: a copy of base plus the result columns of r.
func (p *Projector) Project(ctx context.Context, base table.Row, r *result.Result) (table.Row, error) {
	fields, err := p.Fields(ctx, r)
	if err != nil {
		return nil, err
	}
	return merge(base, fields), nil
}

// Fields builds only the result columns of r: docno, score and enabled features.
// A missing explanation is fatal; failed content fetches degrade to null.
func (p *Projector) Fields(ctx context.Context, r *result.Result) (table.Row, error) {
	row, _, err := p.fields(ctx, r)
	return row, err
}

// fields is Fields that also reports whether a content column degraded to null.
// A canceled context is returned as an error rather than degraded.
func (p *Projector) fields(ctx context.Context, r *result.Result) (table.Row, bool, error) {
	row := make(table.Row, p.features.Len()+3)
	row[table.Docno] = r.Docno()
	row[table.Score] = r.Score

	if p.features.Contains(feature.Explanation) {
		if !r.HasExplanation() {
			return nil, false, fmt.Errorf("%w: explanation requested but hit %s carries none", domain.ErrShape, r.Docno())
		}
		row[ColExplanation] = r.Explanation
	}

	for _, c := range registry {
		if c.value == nil || !p.features.Contains(c.Flag) {
			continue
		}
		row[c.Name] = c.value(r)
	}

	degraded := false
	if p.features.Contains(feature.Content) {
		v, err := p.fetch(ctx, r, false, ColContent)
		if err != nil {
			return nil, false, err
		}
		degraded = degraded || v == nil
		row[ColContent] = v
	}
	if p.features.Contains(feature.ContentPlain) {
		plain, err := p.fetch(ctx, r, true, ColContentPlain)
		if err != nil {
			return nil, false, err
		}
		degraded = degraded || plain == nil
		row[ColContentPlain] = plain
		row[ColText] = plain
	}
	return row, degraded, nil
}

// fetch returns the content of r, or nil when it cannot be fetched. Only
// context errors are returned.
func (p *Projector) fetch(ctx context.Context, r *result.Result, plain bool, col string) (any, error) {
	if p.content == nil {
		metrics.DegradedFieldsTotal.WithLabelValues(col).Inc()
		p.logger.Warn("No content source configured", zap.String("column", col))
		return nil, nil
	}
	text, err := p.content.Content(ctx, r, plain, p.staging)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		metrics.DegradedFieldsTotal.WithLabelValues(col).Inc()
		p.logger.Warn("Failed to fetch cached content",
			zap.String("uuid", r.UUID),
			zap.String("index", r.Index),
			zap.String("column", col),
			zap.Error(err),
		)
		return nil, nil
	}
	return text, nil
}

// merge overlays result fields on a copy of the topic row.
func merge(base, fields table.Row) table.Row {
	out := make(table.Row, len(base)+len(fields)+1)
	for k, v := range base {
		out[k] = v
	}
	for k, v := range fields {
		out[k] = v
	}
	return out
}
