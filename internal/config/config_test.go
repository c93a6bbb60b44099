package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/kailas-cloud/chatnoir-retrieve/internal/domain"
	"github.com/kailas-cloud/chatnoir-retrieve/internal/domain/feature"
	"github.com/kailas-cloud/chatnoir-retrieve/internal/domain/index"
)

func TestApplyDefaults(t *testing.T) {
	cfg := Config{}
	cfg.ApplyDefaults()

	if cfg.HTTP.Port != 8080 {
		t.Errorf("expected Port=8080, got %d", cfg.HTTP.Port)
	}
	if cfg.HTTP.ReadTimeoutSec != 10 {
		t.Errorf("expected ReadTimeoutSec=10, got %d", cfg.HTTP.ReadTimeoutSec)
	}
	if cfg.ChatNoir.TimeoutSec != 60 {
		t.Errorf("expected TimeoutSec=60, got %d", cfg.ChatNoir.TimeoutSec)
	}
	if cfg.Cache.Driver != CacheNone {
		t.Errorf("expected driver none, got %q", cfg.Cache.Driver)
	}
	if cfg.Cache.KeyPrefix != "chatnoir:" {
		t.Errorf("expected KeyPrefix='chatnoir:', got %q", cfg.Cache.KeyPrefix)
	}
	if *cfg.Retrieval.NumResults != 10 {
		t.Errorf("expected NumResults=10, got %d", *cfg.Retrieval.NumResults)
	}
	if *cfg.Retrieval.Retries != 5 {
		t.Errorf("expected Retries=5, got %d", *cfg.Retrieval.Retries)
	}
	if *cfg.Retrieval.BackoffSeconds != 1 {
		t.Errorf("expected BackoffSeconds=1, got %v", *cfg.Retrieval.BackoffSeconds)
	}
}

func TestApplyDefaults_NoOverride(t *testing.T) {
	zero := 0
	cfg := Config{
		HTTP:      HTTPConfig{Port: 9000, ReadTimeoutSec: 30},
		Retrieval: RetrievalConfig{NumResults: &zero, Retries: &zero, PageSize: 50},
		Cache:     CacheConfig{Driver: CacheMemory, KeyPrefix: "custom:"},
	}
	cfg.ApplyDefaults()

	if cfg.HTTP.Port != 9000 || cfg.HTTP.ReadTimeoutSec != 30 {
		t.Errorf("http overridden: %+v", cfg.HTTP)
	}
	if *cfg.Retrieval.NumResults != 0 {
		t.Errorf("explicit num_results 0 must survive, got %d", *cfg.Retrieval.NumResults)
	}
	if *cfg.Retrieval.Retries != 0 {
		t.Errorf("explicit retries 0 must survive, got %d", *cfg.Retrieval.Retries)
	}
	if cfg.Cache.KeyPrefix != "custom:" {
		t.Errorf("expected KeyPrefix='custom:', got %q", cfg.Cache.KeyPrefix)
	}
}

func validConfig() Config {
	cfg := Config{}
	cfg.ApplyDefaults()
	return cfg
}

func TestValidate_InvalidPort(t *testing.T) {
	cfg := validConfig()
	cfg.HTTP.Port = 70000
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error for invalid port")
	}
}

func TestValidate_CacheDriver(t *testing.T) {
	cases := []struct {
		driver  string
		addrs   []string
		wantErr bool
	}{
		{CacheNone, nil, false},
		{CacheMemory, nil, false},
		{CacheRedis, nil, true},
		{CacheValkey, []string{"localhost:6379"}, false},
		{"memcached", nil, true},
	}
	for _, tc := range cases {
		t.Run(tc.driver, func(t *testing.T) {
			cfg := validConfig()
			cfg.Cache.Driver = tc.driver
			cfg.Cache.Addrs = tc.addrs
			err := cfg.Validate()
			if (err != nil) != tc.wantErr {
				t.Fatalf("driver %q: err=%v, wantErr=%v", tc.driver, err, tc.wantErr)
			}
		})
	}
}

func TestValidate_Retrieval(t *testing.T) {
	cfg := validConfig()
	cfg.Retrieval.Slop = 3
	if err := cfg.Validate(); !errors.Is(err, domain.ErrConfiguration) {
		t.Fatalf("expected ErrConfiguration for slop 3, got %v", err)
	}

	cfg = validConfig()
	cfg.Retrieval.Index = []string{"cw99"}
	if err := cfg.Validate(); !errors.Is(err, domain.ErrUnknownIndex) {
		t.Fatalf("expected ErrUnknownIndex, got %v", err)
	}

	cfg = validConfig()
	cfg.Retrieval.Features = []string{"warc_id"}
	if err := cfg.Validate(); !errors.Is(err, domain.ErrShape) {
		t.Fatalf("expected ErrShape for staging-only feature, got %v", err)
	}
	cfg.Retrieval.Staging = true
	if err := cfg.Validate(); err != nil {
		t.Fatalf("staging-only feature on staging: %v", err)
	}

	cfg = validConfig()
	n := -2
	cfg.Retrieval.NumResults = &n
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error for num_results -2")
	}
}

func TestSettings(t *testing.T) {
	unbounded := Unbounded
	backoff := 0.25
	cfg := validConfig()
	cfg.ChatNoir.APIKey = "key"
	cfg.Retrieval.Index = []string{"cw09", "cw12"}
	cfg.Retrieval.Features = []string{"uuid|title_text", "page_rank"}
	cfg.Retrieval.NumResults = &unbounded
	cfg.Retrieval.BackoffSeconds = &backoff
	cfg.Retrieval.Phrases = true
	cfg.Retrieval.Slop = 2

	s, err := cfg.Settings()
	if err != nil {
		t.Fatalf("Settings: %v", err)
	}
	if s.APIKey != "key" {
		t.Errorf("expected api key, got %q", s.APIKey)
	}
	if len(s.Indices) != 2 || !s.Indices.Contains(index.ClueWeb09) {
		t.Errorf("unexpected indices %v", s.Indices.Strings())
	}
	if !s.Features.Contains(feature.UUID) || !s.Features.Contains(feature.TitleText) || !s.Features.Contains(feature.PageRank) {
		t.Errorf("unexpected features %s", s.Features)
	}
	if s.NumResults != nil {
		t.Errorf("expected unbounded, got %d", *s.NumResults)
	}
	if s.Backoff != 250*time.Millisecond {
		t.Errorf("expected 250ms backoff, got %s", s.Backoff)
	}
	if !s.Phrases || s.Slop != 2 {
		t.Errorf("phrase settings lost: %+v", s)
	}
}

func TestParse_EnvExpansion(t *testing.T) {
	t.Setenv("CHATNOIR_TEST_KEY", "secret")
	data := []byte(`
chatnoir:
  api_key: ${CHATNOIR_TEST_KEY}
  base_url: ${CHATNOIR_TEST_UNSET:-http://localhost:9999}
cache:
  driver: memory
  ttl_sec: 60
`)
	cfg, err := Parse(data)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if cfg.ChatNoir.APIKey != "secret" {
		t.Errorf("expected expanded api key, got %q", cfg.ChatNoir.APIKey)
	}
	if cfg.ChatNoir.BaseURL != "http://localhost:9999" {
		t.Errorf("expected default base url, got %q", cfg.ChatNoir.BaseURL)
	}
	if cfg.CacheTTL() != time.Minute {
		t.Errorf("expected 1m ttl, got %s", cfg.CacheTTL())
	}
}

func TestParse_Invalid(t *testing.T) {
	if _, err := Parse([]byte("http: [")); err == nil {
		t.Fatal("expected yaml error")
	}
	if _, err := Parse([]byte("cache:\n  driver: redis\n")); err == nil {
		t.Fatal("expected validation error")
	}
}

func TestLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.yaml")
	if err := os.WriteFile(path, []byte("retrieval:\n  num_results: 0\n"), 0o600); err != nil {
		t.Fatal(err)
	}
	cfg, err := LoadFile(path)
	if err != nil {
		t.Fatalf("LoadFile: %v", err)
	}
	s, err := cfg.Settings()
	if err != nil {
		t.Fatalf("Settings: %v", err)
	}
	if s.NumResults == nil || *s.NumResults != 0 {
		t.Errorf("expected num_results 0, got %v", s.NumResults)
	}

	if _, err := LoadFile(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Fatal("expected error for missing file")
	}
}
