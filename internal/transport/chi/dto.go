package chi

import (
	"fmt"

	"github.com/kailas-cloud/chatnoir-retrieve/internal/domain"
	"github.com/kailas-cloud/chatnoir-retrieve/internal/domain/feature"
	"github.com/kailas-cloud/chatnoir-retrieve/internal/domain/index"
	"github.com/kailas-cloud/chatnoir-retrieve/internal/domain/settings"
	"github.com/kailas-cloud/chatnoir-retrieve/internal/domain/table"
)

// unboundedResults in options.num_results disables truncation.
const unboundedResults = -1

// RetrieveRequest is the body of POST /v1/retrieve.
type RetrieveRequest struct {
	Topics  []table.Row      `json:"topics"`
	Options *RetrieveOptions `json:"options,omitempty"`
}

// RetrieveOptions overrides the server's default retrieval settings for one request.
type RetrieveOptions struct {
	APIKey        *string  `json:"api_key,omitempty"`
	Index         []string `json:"index,omitempty"`
	Features      []string `json:"features,omitempty"`
	Phrases       *bool    `json:"phrases,omitempty"`
	Slop          *int     `json:"slop,omitempty"`
	FilterUnknown *bool    `json:"filter_unknown,omitempty"`
	NumResults    *int     `json:"num_results,omitempty"`
	PageSize      *int     `json:"page_size,omitempty"`
	Staging       *bool    `json:"staging,omitempty"`
}

// RetrieveResponse is the body of a successful retrieval.
type RetrieveResponse struct {
	Columns    []string    `json:"columns"`
	Rows       []table.Row `json:"rows"`
	ConfigHash string      `json:"config_hash"`
}

// HealthResponse is the body of GET /health.
type HealthResponse struct {
	Status string            `json:"status"`
	Checks map[string]string `json:"checks"`
}

// FeaturesResponse is the body of GET /v1/features.
type FeaturesResponse struct {
	Features    []string `json:"features"`
	StagingOnly []string `json:"staging_only"`
}

// apply merges the options onto base. Retries and backoff stay server-owned.
func (o *RetrieveOptions) apply(base settings.Settings) (settings.Settings, error) {
	s := base.Clone()
	if o.APIKey != nil {
		s.APIKey = *o.APIKey
	}
	if len(o.Index) > 0 {
		indices, err := index.ParseSet(o.Index)
		if err != nil {
			return settings.Settings{}, err
		}
		s.Indices = indices
	}
	if o.Features != nil {
		features, err := feature.ParseList(o.Features)
		if err != nil {
			return settings.Settings{}, err
		}
		s.Features = features
	}
	if o.Phrases != nil {
		s.Phrases = *o.Phrases
	}
	if o.Slop != nil {
		s.Slop = *o.Slop
	}
	if o.FilterUnknown != nil {
		s.FilterUnknown = *o.FilterUnknown
	}
	if o.NumResults != nil {
		if *o.NumResults == unboundedResults {
			s.NumResults = nil
		} else {
			s.NumResults = settings.Bounded(*o.NumResults)
		}
	}
	if o.PageSize != nil {
		s.PageSize = *o.PageSize
	}
	if o.Staging != nil {
		s.Staging = *o.Staging
	}
	return s, nil
}

// topicsTable builds the topic table from decoded rows. An empty list still
// declares the required columns; every row must carry a non-null qid and query.
func topicsTable(rows []table.Row) (table.Table, error) {
	if len(rows) == 0 {
		return table.New(table.QID, table.Query), nil
	}
	for i, r := range rows {
		for _, col := range []string{table.QID, table.Query} {
			if r[col] == nil {
				return table.Table{}, fmt.Errorf("%w: topic %d has no %s", domain.ErrConfiguration, i, col)
			}
		}
	}
	return table.FromRows(rows, table.QID, table.Query), nil
}
