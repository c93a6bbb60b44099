// Package request describes one search call handed to the search backend.
package request

import (
	"time"

	"github.com/kailas-cloud/chatnoir-retrieve/internal/domain/index"
)

// Request is a single query issued against the backend.
type Request struct {
	Query   string
	Indices []index.Index
	Explain bool
	Staging bool
	// Slop is the allowed term displacement, used only for phrase searches.
	Slop     int
	PageSize int

	// Retry policy, owned and applied by the backend client.
	Retries int
	Backoff time.Duration

	APIKey string
}
