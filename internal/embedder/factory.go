package embedder

import (
	"context"
	"os"
	"strings"

	"github.com/cockroachdb/errors"
)

// Config holds embedder configuration
type Config struct {
	Provider  string
	APIKey    string
	Model     string
	AWSRegion string
	CacheSize int
}

// NewFromEnv creates an embedder based on environment variables.
// Priority:
//  1. DOCSEARCH_EMBEDDING_PROVIDER (openai, titan, local)
//  2. OPENAI_API_KEY present -> OpenAI
//  3. AWS_REGION present -> Titan on Bedrock
//  4. Default to local (offline mode)
func NewFromEnv(ctx context.Context) (Embedder, error) {
	provider := os.Getenv("DOCSEARCH_EMBEDDING_PROVIDER")
	openaiKey := os.Getenv(EnvOpenAIAPIKey)
	region := os.Getenv("AWS_REGION")

	cache := NewCache(10000)

	if provider != "" {
		return New(ctx, Config{
			Provider:  strings.ToLower(provider),
			APIKey:    openaiKey,
			AWSRegion: region,
			CacheSize: 10000,
		})
	}

	if openaiKey != "" {
		return NewOpenAIProvider(openaiKey, cache)
	}
	if region != "" {
		return NewTitanProvider(ctx, region, "", cache)
	}

	return NewLocalProvider(cache)
}

// New creates an embedder with explicit configuration
func New(ctx context.Context, cfg Config) (Embedder, error) {
	var cache *Cache
	if cfg.CacheSize > 0 {
		cache = NewCache(cfg.CacheSize)
	}

	switch strings.ToLower(cfg.Provider) {
	case ProviderOpenAI:
		return NewOpenAIProvider(cfg.APIKey, cache)
	case ProviderTitan:
		return NewTitanProvider(ctx, cfg.AWSRegion, cfg.Model, cache)
	case ProviderLocal:
		return NewLocalProvider(cache)
	default:
		return nil, errors.Wrapf(ErrUnsupportedModel, "unknown provider %s", cfg.Provider)
	}
}

// DetectProvider returns the provider that would be used based on the
// current environment
func DetectProvider() string {
	if provider := os.Getenv("DOCSEARCH_EMBEDDING_PROVIDER"); provider != "" {
		return strings.ToLower(provider)
	}

	if os.Getenv(EnvOpenAIAPIKey) != "" {
		return ProviderOpenAI
	}
	if os.Getenv("AWS_REGION") != "" {
		return ProviderTitan
	}

	return ProviderLocal
}
