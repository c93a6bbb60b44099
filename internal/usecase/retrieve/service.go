package retrieve

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/chatnoir-retrieve/internal/domain"
	"github.com/kailas-cloud/chatnoir-retrieve/internal/domain/settings"
	"github.com/kailas-cloud/chatnoir-retrieve/internal/domain/table"
	"github.com/kailas-cloud/chatnoir-retrieve/internal/metrics"
)

// SingleQueryID is the qid assigned by Search.
const SingleQueryID = "1"

// Service turns topic tables into ranked result tables.
type Service struct {
	settings  settings.Settings
	hash      string
	executor  *Executor
	projector *Projector
	cache     FrameCache
	// progress yields the observer for one Transform call.
	progress  func() Progress
	logger    *zap.Logger
}

// New validates the settings and creates a retrieval service.
func New(s settings.Settings, searcher Searcher, content ContentSource, logger *zap.Logger) (*Service, error) {
	if err := s.Validate(); err != nil {
		return nil, fmt.Errorf("invalid settings: %w", err)
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	s = s.Clone()
	progress := func() Progress { return NopProgress{} }
	if s.Verbose {
		progress = func() Progress { return NewLogProgress(logger) }
	}
	return &Service{
		settings:  s,
		hash:      s.Hash(),
		executor:  NewExecutor(searcher, s),
		projector: NewProjector(s.Features, s.Staging, content, logger),
		progress:  progress,
		logger:    logger,
	}, nil
}

// WithCache enables per-query frame caching.
func (s *Service) WithCache(c FrameCache) *Service {
	s.cache = c
	return s
}

// WithProgress sets the per-group progress observer, shared by every call.
// Verbose settings default to a fresh logging observer per call, otherwise
// progress is discarded.
func (s *Service) WithProgress(p Progress) *Service {
	if p == nil {
		p = NopProgress{}
	}
	s.progress = func() Progress { return p }
	return s
}

// Settings returns a copy of the service settings.
func (s *Service) Settings() settings.Settings { return s.settings.Clone() }

// Hash returns the configuration hash used as cache key.
func (s *Service) Hash() string { return s.hash }

// Schema returns the output columns for a topic table with the given columns.
func (s *Service) Schema(topicColumns []string) []string {
	return Schema(topicColumns, s.settings.Features)
}

// Search retrieves results for a single query.
func (s *Service) Search(ctx context.Context, query string) (table.Table, error) {
	topics := table.New(table.QID, table.Query)
	topics.Rows = []table.Row{{table.QID: SingleQueryID, table.Query: query}}
	return s.Transform(ctx, topics)
}

// Transform retrieves results for every topic. Topics are processed one at a
// time in first-appearance order; any failure aborts the call without output.
func (s *Service) Transform(ctx context.Context, topics table.Table) (table.Table, error) {
	if !topics.HasColumn(table.QID) || !topics.HasColumn(table.Query) {
		return table.Table{}, fmt.Errorf("%w: topics need %q and %q columns",
			domain.ErrConfiguration, table.QID, table.Query)
	}

	out := table.Table{Columns: s.Schema(topics.Columns), Rows: []table.Row{}}
	if topics.Len() == 0 {
		return out, nil
	}

	groups, err := partition(topics.Rows)
	if err != nil {
		return table.Table{}, err
	}

	progress := s.progress()
	progress.Start(len(groups))
	defer progress.Finish()

	frames := make([][]table.Row, 0, len(groups))
	total := 0
	for _, base := range groups {
		rows, err := s.transformQuery(ctx, base)
		if err != nil {
			metrics.QueriesTotal.WithLabelValues("error").Inc()
			return table.Table{}, err
		}
		metrics.QueriesTotal.WithLabelValues("ok").Inc()
		progress.Advance(base.QID(), len(rows))
		frames = append(frames, rows)
		total += len(rows)
	}

	merged := make([]table.Row, 0, total)
	for _, f := range frames {
		merged = append(merged, f...)
	}
	out.Rows = AssignRanks(merged)
	return out, nil
}

// partition groups rows by qid in first-appearance order and enforces one row per qid.
func partition(rows []table.Row) ([]table.Row, error) {
	order := make([]string, 0, len(rows))
	groups := make(map[string][]table.Row, len(rows))
	for _, r := range rows {
		qid := r.QID()
		if _, ok := groups[qid]; !ok {
			order = append(order, qid)
		}
		groups[qid] = append(groups[qid], r)
	}

	out := make([]table.Row, 0, len(order))
	for _, qid := range order {
		g := groups[qid]
		if len(g) != 1 {
			return nil, fmt.Errorf("%w: can only transform one query at a time, qid %q has %d rows",
				domain.ErrConfiguration, qid, len(g))
		}
		out = append(out, g[0])
	}
	return out, nil
}

// transformQuery retrieves and projects the hits of one topic.
func (s *Service) transformQuery(ctx context.Context, base table.Row) ([]table.Row, error) {
	start := time.Now()
	query := base.Query()

	fields, hit := s.cachedFields(ctx, query)
	if !hit {
		var (
			degraded bool
			err      error
		)
		fields, degraded, err = s.fetchFields(ctx, query)
		if err != nil {
			s.logger.Warn("Query failed",
				zap.String("qid", base.QID()),
				zap.Duration("duration", time.Since(start)),
				zap.Error(err),
			)
			return nil, err
		}
		// degraded frames are served once but never cached
		if s.cache != nil && !degraded {
			s.cache.Put(ctx, s.hash, query, fields)
		}
	}

	rows := make([]table.Row, len(fields))
	for i, f := range fields {
		rows[i] = merge(base, f)
	}

	duration := time.Since(start)
	metrics.QueryDuration.Observe(duration.Seconds())
	s.logger.Debug("Query transformed",
		zap.String("qid", base.QID()),
		zap.Int("results", len(rows)),
		zap.Bool("cached", hit),
		zap.Duration("duration", duration),
	)
	return rows, nil
}

func (s *Service) cachedFields(ctx context.Context, query string) ([]table.Row, bool) {
	if s.cache == nil {
		return nil, false
	}
	return s.cache.Get(ctx, s.hash, query)
}

func (s *Service) fetchFields(ctx context.Context, query string) ([]table.Row, bool, error) {
	var (
		fields   []table.Row
		degraded bool
	)
	for r, err := range s.executor.Execute(ctx, query) {
		if err != nil {
			return nil, false, err
		}
		f, d, err := s.projector.fields(ctx, &r)
		if err != nil {
			return nil, false, err
		}
		degraded = degraded || d
		fields = append(fields, f)
	}
	return fields, degraded, nil
}
