package metrics

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestMiddleware_RecordsDurationAndCount(t *testing.T) {
	r := chi.NewRouter()
	r.Use(Middleware())
	r.Post("/v1/retrieve", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("ok"))
	})

	req := httptest.NewRequest("POST", "/v1/retrieve", http.NoBody)
	rr := httptest.NewRecorder()
	r.ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", rr.Code)
	}
	if v := testutil.ToFloat64(httpRequestsTotal.WithLabelValues("POST", "/v1/retrieve", "200")); v < 1 {
		t.Errorf("expected http_requests_total >= 1, got %f", v)
	}
	if testutil.CollectAndCount(httpRequestDuration) == 0 {
		t.Error("expected http_request_duration_seconds to have observations")
	}
	if v := testutil.ToFloat64(httpInFlight); v != 0 {
		t.Errorf("expected no in-flight requests after completion, got %f", v)
	}
}

func TestMiddleware_StatusCodes(t *testing.T) {
	r := chi.NewRouter()
	r.Use(Middleware())
	r.Get("/bad", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
	})
	r.Get("/upstream", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	})

	tests := []struct {
		path   string
		status string
	}{
		{"/bad", "400"},
		{"/upstream", "502"},
	}
	for _, tc := range tests {
		t.Run(tc.path, func(t *testing.T) {
			rr := httptest.NewRecorder()
			r.ServeHTTP(rr, httptest.NewRequest("GET", tc.path, http.NoBody))

			if v := testutil.ToFloat64(httpRequestsTotal.WithLabelValues("GET", tc.path, tc.status)); v < 1 {
				t.Errorf("expected requests_total for %s with status %s >= 1, got %f", tc.path, tc.status, v)
			}
		})
	}
}

func TestNormalizePath(t *testing.T) {
	if got := normalizePath(""); got != "unknown" {
		t.Errorf("normalizePath(\"\") = %q", got)
	}
	if got := normalizePath("/health"); got != "/health" {
		t.Errorf("normalizePath(/health) = %q", got)
	}
}

func TestRegisterRetrievalMetrics_Idempotent(t *testing.T) {
	RegisterRetrievalMetrics()
	RegisterRetrievalMetrics()

	FrameCacheTotal.WithLabelValues("hit").Inc()
	if v := testutil.ToFloat64(FrameCacheTotal.WithLabelValues("hit")); v < 1 {
		t.Errorf("expected frame cache hit counter >= 1, got %f", v)
	}
}
