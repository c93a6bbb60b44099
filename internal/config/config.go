package config

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"runtime"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/kailas-cloud/chatnoir-retrieve/internal/domain/feature"
	"github.com/kailas-cloud/chatnoir-retrieve/internal/domain/index"
	"github.com/kailas-cloud/chatnoir-retrieve/internal/domain/settings"
)

// Unbounded is the num_results value that disables truncation.
const Unbounded = -1

// Cache drivers.
const (
	CacheNone   = "none"
	CacheMemory = "memory"
	CacheRedis  = "redis"
	CacheValkey = "valkey"
)

// Config holds the chatnoir-retrieve configuration.
type Config struct {
	HTTP      HTTPConfig      `yaml:"http"`
	ChatNoir  ChatNoirConfig  `yaml:"chatnoir"`
	Retrieval RetrievalConfig `yaml:"retrieval"`
	Cache     CacheConfig     `yaml:"cache"`
	Auth      AuthConfig      `yaml:"auth"`
	Logging   LoggingConfig   `yaml:"logging"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level string `yaml:"level"` // debug, info, warn, error (default: determined by env)
}

// AuthConfig holds API authentication settings. No keys disables auth.
type AuthConfig struct {
	APIKeys []string `yaml:"api_keys"`
}

// HTTPConfig holds HTTP server settings.
type HTTPConfig struct {
	Port            int `yaml:"port"`
	ReadTimeoutSec  int `yaml:"read_timeout_sec"`
	WriteTimeoutSec int `yaml:"write_timeout_sec"`
	ShutdownSec     int `yaml:"shutdown_timeout_sec"`
}

// ChatNoirConfig holds backend connection settings.
type ChatNoirConfig struct {
	APIKey            string  `yaml:"api_key"`
	BaseURL           string  `yaml:"base_url"`
	StagingBaseURL    string  `yaml:"staging_base_url"`
	TimeoutSec        int     `yaml:"timeout_sec"`
	RequestsPerSecond float64 `yaml:"requests_per_second"` // 0 = unlimited
}

// RetrievalConfig holds the default retriever settings.
type RetrievalConfig struct {
	Index         []string `yaml:"index"`
	Phrases       bool     `yaml:"phrases"`
	Slop          int      `yaml:"slop"`
	Features      []string `yaml:"features"`
	FilterUnknown bool     `yaml:"filter_unknown"`
	// NumResults: nil = default, -1 = unbounded.
	NumResults     *int     `yaml:"num_results"`
	PageSize       int      `yaml:"page_size"`
	Retries        *int     `yaml:"retries"`
	BackoffSeconds *float64 `yaml:"backoff_seconds"`
	Verbose        bool     `yaml:"verbose"`
	Staging        bool     `yaml:"staging"`
}

// CacheConfig holds frame cache settings.
type CacheConfig struct {
	Driver           string   `yaml:"driver"` // none, memory, redis, valkey (default: none)
	Addrs            []string `yaml:"addrs"`
	Username         string   `yaml:"username"`
	Password         string   `yaml:"password"`
	DB               int      `yaml:"db"`
	Size             int      `yaml:"size"`
	TTLSec           int      `yaml:"ttl_sec"` // 0 = no expiry
	KeyPrefix        string   `yaml:"key_prefix"`
	ReadinessTimeout int      `yaml:"readiness_timeout_sec"`
}

// Load reads configuration from a YAML file by environment name (local, dev, prod).
func Load(env string) (Config, error) {
	return LoadFile(findConfigPath(env))
}

// LoadFile reads configuration from an explicit path.
func LoadFile(path string) (Config, error) {
	data, err := os.ReadFile(filepath.Clean(path))
	if err != nil {
		return Config{}, fmt.Errorf("failed to read config %s: %w", path, err)
	}
	return Parse(data)
}

// Parse expands env references in data, decodes it and applies defaults.
func Parse(data []byte) (Config, error) {
	data = expandEnvVars(data)

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("failed to parse config: %w", err)
	}

	cfg.ApplyDefaults()

	if err := cfg.Validate(); err != nil {
		return Config{}, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

// MustLoad loads configuration or panics.
func MustLoad(env string) Config {
	cfg, err := Load(env)
	if err != nil {
		panic(err)
	}
	return cfg
}

// GetEnv returns the current environment from the ENV variable, defaulting to "local".
func GetEnv() string {
	if env := os.Getenv("ENV"); env != "" {
		return env
	}
	return "local"
}

// ApplyDefaults fills empty fields with default values.
func (c *Config) ApplyDefaults() {
	if c.HTTP.Port == 0 {
		c.HTTP.Port = 8080
	}
	if c.HTTP.ReadTimeoutSec <= 0 {
		c.HTTP.ReadTimeoutSec = 10
	}
	if c.HTTP.WriteTimeoutSec <= 0 {
		c.HTTP.WriteTimeoutSec = 300
	}
	if c.HTTP.ShutdownSec <= 0 {
		c.HTTP.ShutdownSec = 10
	}
	if c.ChatNoir.TimeoutSec <= 0 {
		c.ChatNoir.TimeoutSec = 60
	}
	if len(c.Retrieval.Index) == 0 {
		c.Retrieval.Index = []string{string(index.Default)}
	}
	if c.Retrieval.NumResults == nil {
		c.Retrieval.NumResults = settings.Bounded(settings.DefaultNumResults)
	}
	if c.Retrieval.PageSize <= 0 {
		c.Retrieval.PageSize = settings.DefaultPageSize
	}
	if c.Retrieval.Retries == nil {
		n := settings.DefaultRetries
		c.Retrieval.Retries = &n
	}
	if c.Retrieval.BackoffSeconds == nil {
		b := settings.DefaultBackoff.Seconds()
		c.Retrieval.BackoffSeconds = &b
	}
	if c.Cache.Driver == "" {
		c.Cache.Driver = CacheNone
	}
	if c.Cache.Size <= 0 {
		c.Cache.Size = 10000
	}
	if c.Cache.ReadinessTimeout <= 0 {
		c.Cache.ReadinessTimeout = 10
	}
	if c.Cache.KeyPrefix == "" {
		c.Cache.KeyPrefix = "chatnoir:"
	}
}

// Validate checks the configuration for correctness. The API key is not required
// here since clients may supply it per request.
func (c *Config) Validate() error {
	if c.HTTP.Port <= 0 || c.HTTP.Port > 65535 {
		return fmt.Errorf("http.port must be between 1 and 65535, got %d", c.HTTP.Port)
	}
	if c.ChatNoir.RequestsPerSecond < 0 {
		return fmt.Errorf("chatnoir.requests_per_second must be >= 0, got %v", c.ChatNoir.RequestsPerSecond)
	}
	switch c.Cache.Driver {
	case CacheNone, CacheMemory:
	case CacheRedis, CacheValkey:
		if len(c.Cache.Addrs) == 0 {
			return fmt.Errorf("cache.addrs is required for driver %q", c.Cache.Driver)
		}
	default:
		return fmt.Errorf("cache.driver must be one of none, memory, redis, valkey, got %q", c.Cache.Driver)
	}
	if c.Cache.TTLSec < 0 {
		return fmt.Errorf("cache.ttl_sec must be >= 0, got %d", c.Cache.TTLSec)
	}
	if n := c.Retrieval.NumResults; n != nil && *n < Unbounded {
		return fmt.Errorf("retrieval.num_results must be >= 0 or -1, got %d", *n)
	}
	s, err := c.Retrieval.settings("placeholder")
	if err != nil {
		return fmt.Errorf("retrieval: %w", err)
	}
	if err := s.Validate(); err != nil {
		return fmt.Errorf("retrieval: %w", err)
	}
	return nil
}

// Settings builds retriever settings from the retrieval and chatnoir sections.
func (c *Config) Settings() (settings.Settings, error) {
	return c.Retrieval.settings(c.ChatNoir.APIKey)
}

// CacheTTL returns the cache entry lifetime; zero means no expiry.
func (c *Config) CacheTTL() time.Duration {
	return time.Duration(c.Cache.TTLSec) * time.Second
}

func (r RetrievalConfig) settings(apiKey string) (settings.Settings, error) {
	s := settings.Default(apiKey)

	indices, err := index.ParseSet(r.Index)
	if err != nil {
		return settings.Settings{}, err
	}
	if len(indices) > 0 {
		s.Indices = indices
	}
	features, err := feature.ParseList(r.Features)
	if err != nil {
		return settings.Settings{}, err
	}
	s.Features = features

	s.Phrases = r.Phrases
	s.Slop = r.Slop
	s.FilterUnknown = r.FilterUnknown
	s.Verbose = r.Verbose
	s.Staging = r.Staging
	if r.PageSize > 0 {
		s.PageSize = r.PageSize
	}
	if r.NumResults != nil {
		if *r.NumResults == Unbounded {
			s.NumResults = nil
		} else {
			s.NumResults = settings.Bounded(*r.NumResults)
		}
	}
	if r.Retries != nil {
		s.Retries = *r.Retries
	}
	if r.BackoffSeconds != nil {
		s.Backoff = time.Duration(*r.BackoffSeconds * float64(time.Second))
	}
	return s, nil
}

// findConfigPath locates the config file.
func findConfigPath(env string) string {
	filename := env + ".yaml"

	if path := filepath.Join("config", filename); fileExists(path) {
		return path
	}

	// relative to this source file, for tests and go run
	_, b, _, _ := runtime.Caller(0)
	projectRoot := filepath.Dir(filepath.Dir(filepath.Dir(b)))
	if path := filepath.Join(projectRoot, "config", filename); fileExists(path) {
		return path
	}

	return filepath.Join("config", filename)
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

// envVarRegex matches ${VAR} and ${VAR:-default}.
var envVarRegex = regexp.MustCompile(`\$\{([^}]+)\}`)

func expandEnvVars(data []byte) []byte {
	return envVarRegex.ReplaceAllFunc(data, func(match []byte) []byte {
		name, fallback, hasDefault := strings.Cut(string(match[2:len(match)-1]), ":-")
		val := os.Getenv(name)
		if val == "" && hasDefault {
			val = fallback
		}
		return []byte(val)
	})
}
