// Package config loads service configuration from an optional YAML file
// with environment variable overrides. Environment always wins, so a
// deployment can ship one config file and differ per environment without
// editing it.
package config

import (
	"os"
	"strconv"

	"github.com/cockroachdb/errors"
	"gopkg.in/yaml.v3"

	"github.com/studykit/docsearch/pkg/types"
)

// EnvConfigPath points at the YAML config file; unset means defaults plus
// environment overrides only.
const EnvConfigPath = "DOCSEARCH_CONFIG"

// Config is the full service configuration.
type Config struct {
	Server    ServerConfig    `yaml:"server"`
	Store     StoreConfig     `yaml:"store"`
	Embedding EmbeddingConfig `yaml:"embedding"`
	Reranker  RerankerConfig  `yaml:"reranker"`
	Search    SearchConfig    `yaml:"search"`
	Ingest    IngestConfig    `yaml:"ingest"`
	LogLevel  string          `yaml:"log_level"`
}

// ServerConfig configures the HTTP API.
type ServerConfig struct {
	Addr           string   `yaml:"addr"`
	AllowedOrigins []string `yaml:"allowed_origins"`
}

// StoreConfig configures the SQLite vector store.
type StoreConfig struct {
	Path string `yaml:"path"`
}

// EmbeddingConfig selects and configures the embedding provider.
type EmbeddingConfig struct {
	Provider  string `yaml:"provider"` // openai | titan | local; empty auto-detects
	Model     string `yaml:"model"`
	APIKey    string `yaml:"-"` // env only, never from file
	AWSRegion string `yaml:"aws_region"`
	CacheSize int    `yaml:"cache_size"`
}

// RerankerConfig configures the optional LLM reranking pass.
type RerankerConfig struct {
	Enabled   bool   `yaml:"enabled"`
	Model     string `yaml:"model"`
	AWSRegion string `yaml:"aws_region"`
}

// SearchConfig sets search-time defaults that callers can override per
// request.
type SearchConfig struct {
	DefaultLimit    int     `yaml:"default_limit"`
	DefaultMinScore float64 `yaml:"default_min_score"`
	KeywordWeight   float64 `yaml:"keyword_weight"`
	SemanticWeight  float64 `yaml:"semantic_weight"`
}

// IngestConfig tunes the ingest pipeline.
type IngestConfig struct {
	MaxChunkChars    int `yaml:"max_chunk_chars"`
	OverlapChars     int `yaml:"overlap_chars"`
	EmbedConcurrency int `yaml:"embed_concurrency"`
}

// Load reads configuration: defaults, then the YAML file named by
// DOCSEARCH_CONFIG (if set), then environment overrides.
func Load() (*Config, error) {
	cfg := defaults()

	if path := os.Getenv(EnvConfigPath); path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, errors.Wrapf(err, "read config file %s", path)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, errors.Wrapf(err, "parse config file %s", path)
		}
	}

	applyEnv(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func defaults() *Config {
	return &Config{
		Server: ServerConfig{
			Addr:           ":8080",
			AllowedOrigins: []string{"*"},
		},
		Store: StoreConfig{
			Path: "docsearch.db",
		},
		Embedding: EmbeddingConfig{
			CacheSize: 10000,
		},
		Search: SearchConfig{
			DefaultLimit:    types.DefaultLimit,
			DefaultMinScore: types.DefaultMinScore,
			KeywordWeight:   types.DefaultKeywordWeight,
			SemanticWeight:  types.DefaultSemanticWeight,
		},
		LogLevel: "info",
	}
}

// applyEnv overlays environment variables onto cfg.
func applyEnv(cfg *Config) {
	setString(&cfg.Server.Addr, "DOCSEARCH_ADDR")
	setString(&cfg.Store.Path, "DOCSEARCH_DB_PATH")
	setString(&cfg.Embedding.Provider, "DOCSEARCH_EMBEDDING_PROVIDER")
	setString(&cfg.Embedding.Model, "DOCSEARCH_EMBEDDING_MODEL")
	setString(&cfg.Embedding.APIKey, "OPENAI_API_KEY")
	setString(&cfg.Embedding.AWSRegion, "AWS_REGION")
	setString(&cfg.Reranker.Model, "DOCSEARCH_RERANKER_MODEL")
	setString(&cfg.LogLevel, "DOCSEARCH_LOG_LEVEL")
	setBool(&cfg.Reranker.Enabled, "DOCSEARCH_RERANKER_ENABLED")
	setInt(&cfg.Embedding.CacheSize, "DOCSEARCH_EMBEDDING_CACHE_SIZE")
	setInt(&cfg.Ingest.EmbedConcurrency, "DOCSEARCH_EMBED_CONCURRENCY")

	if cfg.Reranker.AWSRegion == "" {
		cfg.Reranker.AWSRegion = cfg.Embedding.AWSRegion
	}
}

// Validate rejects configurations the service cannot run with.
func (c *Config) Validate() error {
	if c.Server.Addr == "" {
		return errors.Wrap(types.ErrInvalidOption, "server addr is empty")
	}
	if c.Store.Path == "" {
		return errors.Wrap(types.ErrInvalidOption, "store path is empty")
	}
	if c.Search.DefaultLimit < 1 || c.Search.DefaultLimit > types.MaxLimit {
		return errors.Wrapf(types.ErrInvalidOption, "default_limit must be in [1,%d]", types.MaxLimit)
	}
	if c.Search.DefaultMinScore < 0 || c.Search.DefaultMinScore > 1 {
		return errors.Wrap(types.ErrInvalidOption, "default_min_score must be in [0,1]")
	}
	if c.Search.KeywordWeight < 0 || c.Search.SemanticWeight < 0 {
		return errors.Wrap(types.ErrInvalidOption, "score weights must be non-negative")
	}
	return nil
}

// SearchDefaults converts the configured search section into per-request
// option defaults.
func (c *Config) SearchDefaults() types.SearchOptions {
	opts := types.DefaultSearchOptions()
	opts.Limit = c.Search.DefaultLimit
	opts.MinScore = c.Search.DefaultMinScore
	opts.KeywordWeight = c.Search.KeywordWeight
	opts.SemanticWeight = c.Search.SemanticWeight
	return opts
}

func setString(dst *string, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}

func setBool(dst *bool, key string) {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			*dst = b
		}
	}
}

func setInt(dst *int, key string) {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			*dst = n
		}
	}
}
