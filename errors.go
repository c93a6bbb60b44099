package retrieve

import "github.com/kailas-cloud/chatnoir-retrieve/internal/domain"

// Sentinel errors re-exported from the domain layer.
// Use errors.Is() to check.
var (
	ErrConfiguration  = domain.ErrConfiguration
	ErrShape          = domain.ErrShape
	ErrUnknownFeature = domain.ErrUnknownFeature
	ErrUnknownIndex   = domain.ErrUnknownIndex
	ErrTransport      = domain.ErrTransport
	ErrUnauthorized   = domain.ErrUnauthorized
)

// StatusError carries the HTTP status of a failed backend request.
type StatusError = domain.StatusError
