package ranker

import (
	"context"
	"testing"

	"github.com/cockroachdb/errors"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/studykit/docsearch/internal/embedder"
	"github.com/studykit/docsearch/internal/vectorstore"
	"github.com/studykit/docsearch/pkg/types"
)

// stubEmbedder returns a fixed vector or a configured error.
type stubEmbedder struct {
	embedder.Embedder
	vector []float32
	err    error
}

func (s *stubEmbedder) GenerateEmbedding(ctx context.Context, req embedder.EmbeddingRequest) (*embedder.Embedding, error) {
	if s.err != nil {
		return nil, s.err
	}
	return &embedder.Embedding{Vector: s.vector, Dimension: len(s.vector)}, nil
}

// stubStore serves canned candidates.
type stubStore struct {
	vectorstore.Store
	results []vectorstore.VectorResult
	err     error
	gotTopK int
}

func (s *stubStore) SearchVector(ctx context.Context, vector []float32, topK int, filter types.Filter) ([]vectorstore.VectorResult, error) {
	s.gotTopK = topK
	if s.err != nil {
		return nil, s.err
	}
	return s.results, nil
}

func candidate(id, text string, ordinal int, score float64) vectorstore.VectorResult {
	return vectorstore.VectorResult{
		Chunk: types.Chunk{ID: id, DocumentID: "doc-a", Text: text, Ordinal: ordinal},
		Score: score,
	}
}

func TestRankOrdersByCombinedScore(t *testing.T) {
	store := &stubStore{results: []vectorstore.VectorResult{
		candidate("c1", "Paris is the capital of France.", 0, 0.95),
		candidate("c2", "The weather today is sunny.", 1, 0.10),
		candidate("c3", "France and its capital are discussed in depth: capital, France.", 2, 0.50),
	}}
	r := New(store, &stubEmbedder{vector: []float32{1, 0}}, zerolog.Nop())

	hits, err := r.Rank(context.Background(), "capital of France", RankParams{
		TopK:           10,
		KeywordWeight:  0.3,
		SemanticWeight: 0.7,
	})
	require.NoError(t, err)
	require.Len(t, hits, 3)

	for i := 1; i < len(hits); i++ {
		assert.GreaterOrEqual(t, hits[i-1].Score, hits[i].Score, "descending order")
	}

	seen := map[string]bool{}
	for _, h := range hits {
		assert.False(t, seen[h.ChunkID], "no duplicate chunk ids")
		seen[h.ChunkID] = true
	}

	// The strong semantic match stays on top
	assert.Equal(t, "c1", hits[0].ChunkID)
	assert.InDelta(t, 0.7*hits[0].SemanticScore+0.3*hits[0].LexicalScore, hits[0].Score, 1e-9)
}

func TestRankWeightMonotonicity(t *testing.T) {
	// Candidate whose semantic score exceeds its lexical score: shifting
	// weight toward semantic must not decrease its combined score.
	store := &stubStore{results: []vectorstore.VectorResult{
		candidate("c1", "unrelated words entirely", 0, 0.9),
	}}
	r := New(store, &stubEmbedder{vector: []float32{1, 0}}, zerolog.Nop())
	ctx := context.Background()

	semanticHeavy, err := r.Rank(ctx, "capital of France", RankParams{TopK: 5, SemanticWeight: 0.7, KeywordWeight: 0.3})
	require.NoError(t, err)
	keywordHeavy, err := r.Rank(ctx, "capital of France", RankParams{TopK: 5, SemanticWeight: 0.3, KeywordWeight: 0.7})
	require.NoError(t, err)

	assert.GreaterOrEqual(t, semanticHeavy[0].Score, keywordHeavy[0].Score)
}

func TestRankOverfetches(t *testing.T) {
	store := &stubStore{}
	r := New(store, &stubEmbedder{vector: []float32{1, 0}}, zerolog.Nop())

	_, err := r.Rank(context.Background(), "query", RankParams{TopK: 10, SemanticWeight: 0.7, KeywordWeight: 0.3})
	require.NoError(t, err)
	assert.Equal(t, 30, store.gotTopK)
}

func TestRankTruncatesToTopK(t *testing.T) {
	var results []vectorstore.VectorResult
	for i := 0; i < 20; i++ {
		results = append(results, candidate(string(rune('a'+i)), "text", i, float64(20-i)/20))
	}
	store := &stubStore{results: results}
	r := New(store, &stubEmbedder{vector: []float32{1, 0}}, zerolog.Nop())

	hits, err := r.Rank(context.Background(), "query", RankParams{TopK: 5, SemanticWeight: 1, KeywordWeight: 0})
	require.NoError(t, err)
	assert.Len(t, hits, 5)
}

func TestRankEmptyCandidates(t *testing.T) {
	r := New(&stubStore{}, &stubEmbedder{vector: []float32{1, 0}}, zerolog.Nop())

	hits, err := r.Rank(context.Background(), "query", RankParams{TopK: 10, SemanticWeight: 0.7, KeywordWeight: 0.3})
	require.NoError(t, err)
	assert.Empty(t, hits)
}

func TestRankEmbedderFailureIsUnavailable(t *testing.T) {
	r := New(&stubStore{}, &stubEmbedder{err: errors.New("provider down")}, zerolog.Nop())

	_, err := r.Rank(context.Background(), "query", RankParams{TopK: 10})
	assert.True(t, errors.Is(err, types.ErrUnavailable))
}

func TestRankStoreFailureIsUnavailable(t *testing.T) {
	store := &stubStore{err: errors.New("index down")}
	r := New(store, &stubEmbedder{vector: []float32{1, 0}}, zerolog.Nop())

	_, err := r.Rank(context.Background(), "query", RankParams{TopK: 10})
	assert.True(t, errors.Is(err, types.ErrUnavailable))
}
