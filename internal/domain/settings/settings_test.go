package settings

import (
	"errors"
	"testing"
	"time"

	"github.com/kailas-cloud/chatnoir-retrieve/internal/domain"
	"github.com/kailas-cloud/chatnoir-retrieve/internal/domain/feature"
	"github.com/kailas-cloud/chatnoir-retrieve/internal/domain/index"
)

func TestDefault_Valid(t *testing.T) {
	s := Default("key")
	if err := s.Validate(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if *s.NumResults != DefaultNumResults || s.PageSize != DefaultPageSize {
		t.Errorf("unexpected defaults: %+v", s)
	}
	if !s.Indices.Contains(index.Default) {
		t.Error("default index missing")
	}
}

func TestValidate_Errors(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Settings)
		want   error
	}{
		{"no key", func(s *Settings) { s.APIKey = "" }, domain.ErrConfiguration},
		{"no index", func(s *Settings) { s.Indices = index.NewSet() }, domain.ErrConfiguration},
		{"bad index", func(s *Settings) { s.Indices = index.NewSet("cw99") }, domain.ErrUnknownIndex},
		{"slop", func(s *Settings) { s.Slop = 3 }, domain.ErrConfiguration},
		{"num results", func(s *Settings) { s.NumResults = Bounded(-1) }, domain.ErrConfiguration},
		{"page size", func(s *Settings) { s.PageSize = 0 }, domain.ErrConfiguration},
		{"retries", func(s *Settings) { s.Retries = -1 }, domain.ErrConfiguration},
		{"backoff", func(s *Settings) { s.Backoff = -time.Second }, domain.ErrConfiguration},
		{"staging feature", func(s *Settings) { s.Features = feature.Language.Set() }, domain.ErrShape},
		{"foreign bits", func(s *Settings) { s.Features = feature.Set(1 << 30) }, domain.ErrUnknownFeature},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			s := Default("key")
			tc.mutate(&s)
			if err := s.Validate(); !errors.Is(err, tc.want) {
				t.Errorf("Validate() = %v, want %v", err, tc.want)
			}
		})
	}
}

func TestValidate_StagingAcceptsAllStaging(t *testing.T) {
	s := Default("key")
	s.Staging = true
	s.Features = feature.AllStaging
	if err := s.Validate(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestEffectivePageSize(t *testing.T) {
	tests := []struct {
		pageSize   int
		numResults *int
		want       int
	}{
		{100, Bounded(10), 10},
		{5, Bounded(10), 5},
		{100, nil, 100},
		{100, Bounded(0), 1},
	}
	for _, tc := range tests {
		s := Default("key")
		s.PageSize = tc.pageSize
		s.NumResults = tc.numResults
		if got := s.EffectivePageSize(); got != tc.want {
			t.Errorf("EffectivePageSize(%d, %v) = %d, want %d", tc.pageSize, tc.numResults, got, tc.want)
		}
	}
}

func TestClone_Independent(t *testing.T) {
	s := Default("key")
	c := s.Clone()
	c.Indices[index.ClueWeb09] = struct{}{}
	*c.NumResults = 99
	if s.Indices.Contains(index.ClueWeb09) || *s.NumResults == 99 {
		t.Error("clone shares state with original")
	}
}
