package embedder

import (
	"context"
	"math"
	"testing"

	"github.com/cockroachdb/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLocalProviderDeterministic(t *testing.T) {
	provider, err := NewLocalProvider(nil)
	require.NoError(t, err)

	ctx := context.Background()
	first, err := provider.GenerateEmbedding(ctx, EmbeddingRequest{Text: "hello world"})
	require.NoError(t, err)
	second, err := provider.GenerateEmbedding(ctx, EmbeddingRequest{Text: "hello world"})
	require.NoError(t, err)

	assert.Equal(t, first.Vector, second.Vector)
	assert.Equal(t, LocalDimension, first.Dimension)
	assert.Equal(t, ProviderLocal, first.Provider)
}

func TestLocalProviderDistinctTexts(t *testing.T) {
	provider, err := NewLocalProvider(nil)
	require.NoError(t, err)

	ctx := context.Background()
	a, err := provider.GenerateEmbedding(ctx, EmbeddingRequest{Text: "alpha"})
	require.NoError(t, err)
	b, err := provider.GenerateEmbedding(ctx, EmbeddingRequest{Text: "beta"})
	require.NoError(t, err)

	assert.NotEqual(t, a.Vector, b.Vector)
}

func TestLocalProviderEmptyText(t *testing.T) {
	provider, err := NewLocalProvider(nil)
	require.NoError(t, err)

	_, err = provider.GenerateEmbedding(context.Background(), EmbeddingRequest{Text: ""})
	assert.True(t, errors.Is(err, ErrEmptyText))
}

func TestLocalProviderBatch(t *testing.T) {
	provider, err := NewLocalProvider(nil)
	require.NoError(t, err)

	resp, err := provider.GenerateBatch(context.Background(), BatchEmbeddingRequest{
		Texts: []string{"one", "two", "three"},
	})
	require.NoError(t, err)
	require.Len(t, resp.Embeddings, 3)

	for _, emb := range resp.Embeddings {
		assert.Equal(t, LocalDimension, len(emb.Vector))
	}
}

func TestCacheRoundTrip(t *testing.T) {
	cache := NewCache(10)

	emb := &Embedding{
		Vector:    []float32{1, 2, 3},
		Dimension: 3,
		Provider:  "test",
		Model:     "test-model",
		Hash:      "abc",
	}
	cache.Set("abc", emb)

	got, ok := cache.Get("abc")
	require.True(t, ok)
	assert.Equal(t, emb.Vector, got.Vector)

	// Mutating the returned copy must not affect the cached value
	got.Vector[0] = 99
	again, ok := cache.Get("abc")
	require.True(t, ok)
	assert.Equal(t, float32(1), again.Vector[0])
}

func TestCacheMiss(t *testing.T) {
	cache := NewCache(10)
	_, ok := cache.Get("missing")
	assert.False(t, ok)
}

func TestValidateBatchRequest(t *testing.T) {
	err := ValidateBatchRequest(BatchEmbeddingRequest{})
	assert.True(t, errors.Is(err, ErrInvalidInput))

	err = ValidateBatchRequest(BatchEmbeddingRequest{Texts: []string{"ok", ""}})
	assert.True(t, errors.Is(err, ErrInvalidInput))

	err = ValidateBatchRequest(BatchEmbeddingRequest{Texts: []string{"ok"}})
	assert.NoError(t, err)
}

func TestNormalizeVector(t *testing.T) {
	v := NormalizeVector([]float32{3, 4})

	var sum float64
	for _, val := range v {
		sum += float64(val * val)
	}
	assert.InDelta(t, 1.0, math.Sqrt(sum), 1e-6)
}

func TestNormalizeVectorZero(t *testing.T) {
	v := []float32{0, 0, 0}
	assert.Equal(t, v, NormalizeVector(v))
}

func TestComputeHashStable(t *testing.T) {
	assert.Equal(t, ComputeHash("abc"), ComputeHash("abc"))
	assert.NotEqual(t, ComputeHash("abc"), ComputeHash("abd"))
}

func TestRetryWithBackoffSucceedsAfterFailure(t *testing.T) {
	attempts := 0
	config := RetryConfig{MaxRetries: 3, BaseDelay: 1, MaxDelay: 10, Multiplier: 2}

	result, err := retryWithBackoff(context.Background(), config, func() (string, error) {
		attempts++
		if attempts < 3 {
			return "", errors.New("transient")
		}
		return "ok", nil
	})

	require.NoError(t, err)
	assert.Equal(t, "ok", result)
	assert.Equal(t, 3, attempts)
}

func TestRetryWithBackoffExhausted(t *testing.T) {
	config := RetryConfig{MaxRetries: 2, BaseDelay: 1, MaxDelay: 10, Multiplier: 2}

	_, err := retryWithBackoff(context.Background(), config, func() (string, error) {
		return "", errors.New("always fails")
	})

	assert.Error(t, err)
}
