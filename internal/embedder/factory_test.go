package embedder

import (
	"context"
	"testing"

	"github.com/cockroachdb/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewLocalFromConfig(t *testing.T) {
	emb, err := New(context.Background(), Config{Provider: ProviderLocal, CacheSize: 100})
	require.NoError(t, err)
	defer func() { _ = emb.Close() }()

	assert.Equal(t, ProviderLocal, emb.Provider())
	assert.Equal(t, LocalDimension, emb.Dimension())
}

func TestNewUnknownProvider(t *testing.T) {
	_, err := New(context.Background(), Config{Provider: "does-not-exist"})
	assert.True(t, errors.Is(err, ErrUnsupportedModel))
}

func TestDetectProviderExplicit(t *testing.T) {
	t.Setenv("DOCSEARCH_EMBEDDING_PROVIDER", "OpenAI")
	assert.Equal(t, ProviderOpenAI, DetectProvider())
}

func TestDetectProviderFallsBackToLocal(t *testing.T) {
	t.Setenv("DOCSEARCH_EMBEDDING_PROVIDER", "")
	t.Setenv(EnvOpenAIAPIKey, "")
	t.Setenv("AWS_REGION", "")
	assert.Equal(t, ProviderLocal, DetectProvider())
}

func TestNewFromEnvDefaultsToLocal(t *testing.T) {
	t.Setenv("DOCSEARCH_EMBEDDING_PROVIDER", "")
	t.Setenv(EnvOpenAIAPIKey, "")
	t.Setenv("AWS_REGION", "")

	emb, err := NewFromEnv(context.Background())
	require.NoError(t, err)
	defer func() { _ = emb.Close() }()

	assert.Equal(t, ProviderLocal, emb.Provider())
}

func TestNewOpenAIRequiresKey(t *testing.T) {
	t.Setenv(EnvOpenAIAPIKey, "")
	_, err := NewOpenAIProvider("", nil)
	assert.True(t, errors.Is(err, ErrNoProviderEnabled))
}
