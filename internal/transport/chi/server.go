// Package chi exposes retrieval over HTTP with a chi router.
package chi

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/kailas-cloud/chatnoir-retrieve/internal/domain/feature"
	"github.com/kailas-cloud/chatnoir-retrieve/internal/domain/settings"
	"github.com/kailas-cloud/chatnoir-retrieve/internal/domain/table"
	"github.com/kailas-cloud/chatnoir-retrieve/internal/logger"
	healthuc "github.com/kailas-cloud/chatnoir-retrieve/internal/usecase/health"
)

const (
	maxTopics    = 1000
	maxBodyBytes = 8 << 20
)

// Retriever transforms topic tables.
type Retriever interface {
	Transform(ctx context.Context, topics table.Table) (table.Table, error)
	Hash() string
	Settings() settings.Settings
}

// BuildFunc creates a retriever for per-request settings.
type BuildFunc func(s settings.Settings) (Retriever, error)

// HealthChecker reports component health.
type HealthChecker interface {
	Check(ctx context.Context) healthuc.Report
}

// Server serves the retrieval API.
type Server struct {
	retriever Retriever
	build     BuildFunc
	health    HealthChecker
	logger    *zap.Logger
}

// NewServer creates an HTTP API server. build may be nil, in which case
// per-request options are rejected.
func NewServer(retriever Retriever, build BuildFunc, health HealthChecker, logger *zap.Logger) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Server{
		retriever: retriever,
		build:     build,
		health:    health,
		logger:    logger,
	}
}

// Mount registers the API routes on r.
func (s *Server) Mount(r chi.Router) {
	r.Get("/health", s.HealthCheck)
	r.Get("/metrics", s.Metrics)
	r.Route("/v1", func(r chi.Router) {
		r.Post("/retrieve", s.Retrieve)
		r.Get("/features", s.Features)
	})
}

// Retrieve handles POST /v1/retrieve.
func (s *Server) Retrieve(w http.ResponseWriter, r *http.Request) {
	req, err := decodeRetrieveRequest(w, r)
	if err != nil {
		writeError(w, http.StatusBadRequest, CodeBadRequest, "Invalid request body: "+err.Error())
		return
	}
	if len(req.Topics) > maxTopics {
		writeError(w, http.StatusBadRequest, CodeValidationFailed,
			fmt.Sprintf("at most %d topics per request, got %d", maxTopics, len(req.Topics)))
		return
	}

	ret, err := s.retrieverFor(req.Options)
	if err != nil {
		s.handleDomainError(r.Context(), w, err)
		return
	}

	topics, err := topicsTable(req.Topics)
	if err != nil {
		s.handleDomainError(r.Context(), w, err)
		return
	}
	out, err := ret.Transform(r.Context(), topics)
	if err != nil {
		s.handleDomainError(r.Context(), w, err)
		return
	}

	logger.FromContextOr(r.Context(), s.logger).Debug("retrieve completed",
		zap.Int("topics", len(req.Topics)),
		zap.Int("rows", out.Len()),
		zap.String("config_hash", ret.Hash()),
	)
	writeJSON(w, http.StatusOK, RetrieveResponse{
		Columns:    out.Columns,
		Rows:       out.Rows,
		ConfigHash: ret.Hash(),
	})
}

func (s *Server) retrieverFor(opts *RetrieveOptions) (Retriever, error) {
	if opts == nil {
		return s.retriever, nil
	}
	if s.build == nil {
		return nil, errOptionsDisabled
	}
	merged, err := opts.apply(s.retriever.Settings())
	if err != nil {
		return nil, err
	}
	return s.build(merged)
}

// Features handles GET /v1/features.
func (s *Server) Features(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, FeaturesResponse{
		Features:    feature.KnownNames(),
		StagingOnly: feature.StagingOnly.Names(),
	})
}

// HealthCheck handles GET /health.
func (s *Server) HealthCheck(w http.ResponseWriter, r *http.Request) {
	report := s.health.Check(r.Context())

	checks := make(map[string]string, len(report.Checks))
	for k, v := range report.Checks {
		checks[k] = string(v)
	}

	httpStatus := http.StatusOK
	if report.Status == healthuc.Unhealthy {
		httpStatus = http.StatusServiceUnavailable
	}
	writeJSON(w, httpStatus, HealthResponse{
		Status: string(report.Status),
		Checks: checks,
	})
}

// Metrics handles GET /metrics.
func (s *Server) Metrics(w http.ResponseWriter, r *http.Request) {
	promhttp.Handler().ServeHTTP(w, r)
}

// decodeRetrieveRequest reads the body keeping JSON numbers intact so numeric
// qids round-trip unchanged.
func decodeRetrieveRequest(w http.ResponseWriter, r *http.Request) (RetrieveRequest, error) {
	var req RetrieveRequest
	var buf bytes.Buffer
	if _, err := buf.ReadFrom(http.MaxBytesReader(w, r.Body, maxBodyBytes)); err != nil {
		return req, err
	}
	dec := json.NewDecoder(&buf)
	dec.UseNumber()
	dec.DisallowUnknownFields()
	if err := dec.Decode(&req); err != nil {
		return req, err
	}
	if req.Topics == nil {
		return req, errors.New("topics is required")
	}
	return req, nil
}
