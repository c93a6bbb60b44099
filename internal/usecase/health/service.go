package health

import (
	"context"

	"go.uber.org/zap"

	"github.com/kailas-cloud/chatnoir-retrieve/internal/logger"
)

// Status represents the aggregated health status.
type Status string

const (
	// Healthy indicates all components are operational.
	Healthy Status = "ok"
	// Degraded indicates the cache is down but retrieval still works.
	Degraded Status = "degraded"
	// Unhealthy indicates the search backend is unreachable.
	Unhealthy Status = "error"
)

// CheckResult represents an individual component health check outcome.
type CheckResult string

const (
	// CheckOK indicates a passing health check.
	CheckOK CheckResult = "ok"
	// CheckError indicates a failing health check.
	CheckError CheckResult = "error"
)

// Component names in Report.Checks.
const (
	ComponentChatNoir = "chatnoir"
	ComponentCache    = "cache"
)

// Report aggregates health check results.
type Report struct {
	Status Status
	Checks map[string]CheckResult
}

// Service coordinates health checks.
type Service struct {
	backend BackendChecker
	cache   StorePinger
}

// New creates a Service. cache can be nil when caching is disabled.
func New(backend BackendChecker, cache StorePinger) *Service {
	return &Service{backend: backend, cache: cache}
}

// Check runs health checks against all components.
func (s *Service) Check(ctx context.Context) Report {
	log := logger.FromContext(ctx)
	checks := make(map[string]CheckResult, 2)
	status := Healthy

	if err := s.backend.HealthCheck(ctx); err != nil {
		log.Warn("chatnoir health check failed", zap.Error(err))
		checks[ComponentChatNoir] = CheckError
		status = Unhealthy
	} else {
		checks[ComponentChatNoir] = CheckOK
	}

	if s.cache != nil {
		if err := s.cache.Ping(ctx); err != nil {
			log.Warn("cache health check failed", zap.Error(err))
			checks[ComponentCache] = CheckError
			if status == Healthy {
				status = Degraded
			}
		} else {
			checks[ComponentCache] = CheckOK
		}
	}

	return Report{Status: status, Checks: checks}
}
