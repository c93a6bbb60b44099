package chi

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"go.uber.org/zap"

	"github.com/kailas-cloud/chatnoir-retrieve/internal/domain"
	"github.com/kailas-cloud/chatnoir-retrieve/internal/logger"
)

// ErrorCode is the machine-readable error kind in error responses.
type ErrorCode string

// Error codes.
const (
	CodeBadRequest           ErrorCode = "bad_request"
	CodeValidationFailed     ErrorCode = "validation_failed"
	CodeUnauthorized         ErrorCode = "unauthorized"
	CodeUpstreamError        ErrorCode = "upstream_error"
	CodeUpstreamUnauthorized ErrorCode = "upstream_unauthorized"
	CodeTimeout              ErrorCode = "timeout"
	CodeInternalError        ErrorCode = "internal_error"
)

// ErrorResponse is the JSON body of every error.
type ErrorResponse struct {
	Code    ErrorCode `json:"code"`
	Message string    `json:"message"`
}

// errorHandler tries to handle a domain error. Returns true if handled.
type errorHandler func(w http.ResponseWriter, err error) bool

// validationSentinels are caller mistakes; their messages are safe to echo.
var validationSentinels = []error{
	domain.ErrConfiguration,
	domain.ErrShape,
	domain.ErrUnknownFeature,
	domain.ErrUnknownIndex,
}

var errorHandlers = []errorHandler{
	validationHandler,
	upstreamHandler,
	timeoutHandler,
}

func validationHandler(w http.ResponseWriter, err error) bool {
	for _, s := range validationSentinels {
		if errors.Is(err, s) {
			writeError(w, http.StatusBadRequest, CodeValidationFailed, err.Error())
			return true
		}
	}
	return false
}

// upstreamHandler maps backend failures to 502. Backend messages are not
// forwarded, only the status.
func upstreamHandler(w http.ResponseWriter, err error) bool {
	if !errors.Is(err, domain.ErrTransport) {
		return false
	}
	code := CodeUpstreamError
	if errors.Is(err, domain.ErrUnauthorized) {
		code = CodeUpstreamUnauthorized
	}
	msg := "chatnoir request failed"
	var se *domain.StatusError
	if errors.As(err, &se) {
		msg += ": status " + http.StatusText(se.StatusCode)
	}
	writeError(w, http.StatusBadGateway, code, msg)
	return true
}

func timeoutHandler(w http.ResponseWriter, err error) bool {
	if !errors.Is(err, context.DeadlineExceeded) {
		return false
	}
	writeError(w, http.StatusGatewayTimeout, CodeTimeout, "retrieval timed out")
	return true
}

func (s *Server) handleDomainError(ctx context.Context, w http.ResponseWriter, err error) {
	log := logger.FromContextOr(ctx, s.logger)
	log.Warn("domain error", zap.Error(err))
	for _, h := range errorHandlers {
		if h(w, err) {
			return
		}
	}
	log.Error("internal error", zap.Error(err))
	writeError(w, http.StatusInternalServerError, CodeInternalError, "internal error")
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code ErrorCode, message string) {
	writeJSON(w, status, ErrorResponse{Code: code, Message: message})
}

var errOptionsDisabled = fmt.Errorf("%w: request options are disabled on this server", domain.ErrConfiguration)
