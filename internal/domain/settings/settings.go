// Package settings holds the per-retriever configuration and its cache hash.
package settings

import (
	"fmt"
	"time"

	"github.com/kailas-cloud/chatnoir-retrieve/internal/domain"
	"github.com/kailas-cloud/chatnoir-retrieve/internal/domain/feature"
	"github.com/kailas-cloud/chatnoir-retrieve/internal/domain/index"
)

// Retrieval defaults.
const (
	DefaultNumResults = 10
	DefaultPageSize   = 100
	DefaultRetries    = 5
	DefaultBackoff    = time.Second
	MaxSlop           = 2
)

// Settings configures one retriever. Treat as read-only after Validate.
type Settings struct {
	APIKey        string
	Indices       index.Set
	Phrases       bool
	Slop          int
	Features      feature.Set
	FilterUnknown bool
	// NumResults caps results per query; nil means unbounded.
	NumResults *int
	PageSize   int
	Retries    int
	Backoff    time.Duration
	Verbose    bool
	Staging    bool
}

// Default returns settings with every default applied for the given API key.
func Default(apiKey string) Settings {
	n := DefaultNumResults
	return Settings{
		APIKey:     apiKey,
		Indices:    index.NewSet(index.Default),
		NumResults: &n,
		PageSize:   DefaultPageSize,
		Retries:    DefaultRetries,
		Backoff:    DefaultBackoff,
	}
}

// Bounded returns a NumResults value capping results at n.
func Bounded(n int) *int { return &n }

// Clone returns a deep copy so callers cannot mutate shared state.
func (s Settings) Clone() Settings {
	out := s
	out.Indices = s.Indices.Clone()
	if s.NumResults != nil {
		n := *s.NumResults
		out.NumResults = &n
	}
	return out
}

// EffectivePageSize is the page size sent to the backend.
func (s Settings) EffectivePageSize() int {
	size := s.PageSize
	if s.NumResults != nil && *s.NumResults < size {
		size = *s.NumResults
	}
	if size < 1 {
		size = 1
	}
	return size
}

// Validate checks the settings for correctness.
func (s Settings) Validate() error {
	if s.APIKey == "" {
		return fmt.Errorf("%w: api key is required", domain.ErrConfiguration)
	}
	if len(s.Indices) == 0 {
		return fmt.Errorf("%w: at least one index is required", domain.ErrConfiguration)
	}
	for i := range s.Indices {
		if !i.IsValid() {
			return fmt.Errorf("%w: %w: %q", domain.ErrConfiguration, domain.ErrUnknownIndex, i)
		}
	}
	if s.Slop < 0 || s.Slop > MaxSlop {
		return fmt.Errorf("%w: slop must be between 0 and %d, got %d", domain.ErrConfiguration, MaxSlop, s.Slop)
	}
	if s.NumResults != nil && *s.NumResults < 0 {
		return fmt.Errorf("%w: num_results must be >= 0, got %d", domain.ErrConfiguration, *s.NumResults)
	}
	if s.PageSize < 1 {
		return fmt.Errorf("%w: page_size must be >= 1, got %d", domain.ErrConfiguration, s.PageSize)
	}
	if s.Retries < 0 {
		return fmt.Errorf("%w: retries must be >= 0, got %d", domain.ErrConfiguration, s.Retries)
	}
	if s.Backoff < 0 {
		return fmt.Errorf("%w: backoff must be >= 0, got %s", domain.ErrConfiguration, s.Backoff)
	}
	if err := s.Features.Validate(); err != nil {
		return err
	}
	if bad := feature.Unsupported(s.Features, s.Staging); !bad.IsEmpty() {
		return fmt.Errorf("%w: features %s not supported by the %s endpoint",
			domain.ErrShape, bad, s.Endpoint())
	}
	return nil
}

// Endpoint names the selected backend mode.
func (s Settings) Endpoint() string {
	if s.Staging {
		return "staging"
	}
	return "production"
}
