package search

import (
	"context"
	"fmt"
	"testing"

	"github.com/cockroachdb/errors"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/studykit/docsearch/internal/embedder"
	"github.com/studykit/docsearch/internal/ranker"
	"github.com/studykit/docsearch/internal/vectorstore"
	"github.com/studykit/docsearch/pkg/types"
)

// stubStore controls availability and serves neighbor lookups from a map.
type stubStore struct {
	vectorstore.Store
	available bool
	chunks    map[int]*types.Chunk // keyed by ordinal
}

func (s *stubStore) Available(ctx context.Context) bool {
	return s.available
}

func (s *stubStore) GetChunkByOrdinal(ctx context.Context, documentID string, ordinal int) (*types.Chunk, error) {
	if c, ok := s.chunks[ordinal]; ok && c.DocumentID == documentID {
		return c, nil
	}
	return nil, types.ErrNotFound
}

// stubRanker returns canned hits or an error.
type stubRanker struct {
	hits []types.ScoredHit
	err  error
}

func (r *stubRanker) Rank(ctx context.Context, query string, p ranker.RankParams) ([]types.ScoredHit, error) {
	if r.err != nil {
		return nil, r.err
	}
	return r.hits, nil
}

// reverseReranker reverses the window; contract-respecting.
type reverseReranker struct{}

func (reverseReranker) Rerank(ctx context.Context, query string, hits []types.ScoredHit) ([]types.ScoredHit, error) {
	out := make([]types.ScoredHit, len(hits))
	for i, h := range hits {
		out[len(hits)-1-i] = h
	}
	return out, nil
}

func (reverseReranker) Name() string { return "reverse" }

// failingReranker always errors.
type failingReranker struct{}

func (failingReranker) Rerank(ctx context.Context, query string, hits []types.ScoredHit) ([]types.ScoredHit, error) {
	return nil, errors.New("rerank exploded")
}

func (failingReranker) Name() string { return "failing" }

// droppingReranker breaks the permutation contract.
type droppingReranker struct{}

func (droppingReranker) Rerank(ctx context.Context, query string, hits []types.ScoredHit) ([]types.ScoredHit, error) {
	if len(hits) == 0 {
		return hits, nil
	}
	return hits[:len(hits)-1], nil
}

func (droppingReranker) Name() string { return "dropping" }

func scoredHits(scores ...float64) []types.ScoredHit {
	hits := make([]types.ScoredHit, len(scores))
	for i, s := range scores {
		hits[i] = types.ScoredHit{
			ChunkID:    fmt.Sprintf("c%d", i),
			DocumentID: "doc-a",
			Text:       fmt.Sprintf("chunk %d", i),
			Ordinal:    i,
			Score:      s,
		}
	}
	return hits
}

func newService(store *stubStore, rnk Ranker) *Service {
	return New(store, rnk, nil, zerolog.Nop())
}

func baseOptions() types.SearchOptions {
	opts := types.DefaultSearchOptions()
	opts.Filter.DocumentID = "doc-a"
	opts.Rerank = false
	opts.EnhanceContext = false
	return opts
}

func TestSearchRejectsEmptyQuery(t *testing.T) {
	svc := newService(&stubStore{available: true}, &stubRanker{})

	for _, query := range []string{"", "   ", "\t\n"} {
		_, err := svc.Search(context.Background(), query, baseOptions())
		assert.True(t, errors.Is(err, types.ErrInvalidQuery), "query %q", query)
	}
}

func TestSearchRejectsOversizedQuery(t *testing.T) {
	svc := newService(&stubStore{available: true}, &stubRanker{})

	long := make([]byte, types.MaxQueryLength+1)
	for i := range long {
		long[i] = 'a'
	}
	_, err := svc.Search(context.Background(), string(long), baseOptions())
	assert.True(t, errors.Is(err, types.ErrInvalidQuery))
}

func TestSearchRejectsInvalidOptions(t *testing.T) {
	svc := newService(&stubStore{available: true}, &stubRanker{})

	opts := baseOptions()
	opts.Limit = 0
	_, err := svc.Search(context.Background(), "query", opts)
	assert.True(t, errors.Is(err, types.ErrInvalidOption))
}

func TestSearchThresholdFiltering(t *testing.T) {
	// Scores [0.9,0.7,0.6,0.4,0.3] with minScore 0.5: totalResults is 3
	rnk := &stubRanker{hits: scoredHits(0.9, 0.7, 0.6, 0.4, 0.3)}
	svc := newService(&stubStore{available: true}, rnk)

	opts := baseOptions()
	opts.MinScore = 0.5

	result, err := svc.Search(context.Background(), "query", opts)
	require.NoError(t, err)

	assert.Equal(t, 3, result.TotalResults)
	assert.Len(t, result.Results, 3)
	for _, hit := range result.Results {
		assert.GreaterOrEqual(t, hit.Score, 0.5)
	}
}

func TestSearchPagination(t *testing.T) {
	full := scoredHits(0.9, 0.8, 0.7, 0.6, 0.55)
	rnk := &stubRanker{hits: full}
	svc := newService(&stubStore{available: true}, rnk)

	opts := baseOptions()
	opts.MinScore = 0.5
	opts.Limit = 2
	opts.Offset = 1

	result, err := svc.Search(context.Background(), "query", opts)
	require.NoError(t, err)

	assert.Equal(t, 5, result.TotalResults)
	require.Len(t, result.Results, 2)
	// Item i of the returned slice equals item i+offset of the full ranking
	assert.Equal(t, full[1].ChunkID, result.Results[0].ChunkID)
	assert.Equal(t, full[2].ChunkID, result.Results[1].ChunkID)
}

func TestSearchPaginationOffsetBeyondResults(t *testing.T) {
	rnk := &stubRanker{hits: scoredHits(0.9, 0.8)}
	svc := newService(&stubStore{available: true}, rnk)

	opts := baseOptions()
	opts.Offset = 10

	result, err := svc.Search(context.Background(), "query", opts)
	require.NoError(t, err)
	assert.Equal(t, 2, result.TotalResults)
	assert.Empty(t, result.Results)
}

func TestSearchDegradedWhenStoreUnavailable(t *testing.T) {
	svc := newService(&stubStore{available: false}, &stubRanker{})

	result, err := svc.Search(context.Background(), "any query", baseOptions())
	require.NoError(t, err, "degraded mode must not surface an error")

	assert.Equal(t, types.ModeMock, result.Mode)
	assert.NotEmpty(t, result.Results)
	assert.Equal(t, "any query", result.Query)
}

func TestSearchDegradedWhenRankerFails(t *testing.T) {
	rnk := &stubRanker{err: errors.Wrap(types.ErrUnavailable, "embedder down")}
	svc := newService(&stubStore{available: true}, rnk)

	result, err := svc.Search(context.Background(), "query", baseOptions())
	require.NoError(t, err)
	assert.Equal(t, types.ModeMock, result.Mode)
}

func TestSearchMockRespectsLimit(t *testing.T) {
	svc := newService(&stubStore{available: false}, &stubRanker{})

	opts := baseOptions()
	opts.Limit = 1

	result, err := svc.Search(context.Background(), "query", opts)
	require.NoError(t, err)
	assert.Len(t, result.Results, 1)
}

func TestSearchRerankAppliedToWindow(t *testing.T) {
	rnk := &stubRanker{hits: scoredHits(0.9, 0.8, 0.7)}
	svc := New(&stubStore{available: true}, rnk, reverseReranker{}, zerolog.Nop())

	opts := baseOptions()
	opts.Rerank = true

	result, err := svc.Search(context.Background(), "query", opts)
	require.NoError(t, err)
	require.Len(t, result.Results, 3)
	assert.Equal(t, "c2", result.Results[0].ChunkID)
	assert.Equal(t, "c0", result.Results[2].ChunkID)
}

func TestSearchRerankFailureKeepsOrder(t *testing.T) {
	rnk := &stubRanker{hits: scoredHits(0.9, 0.8, 0.7)}
	svc := New(&stubStore{available: true}, rnk, failingReranker{}, zerolog.Nop())

	opts := baseOptions()
	opts.Rerank = true

	result, err := svc.Search(context.Background(), "query", opts)
	require.NoError(t, err)
	require.Len(t, result.Results, 3)
	assert.Equal(t, "c0", result.Results[0].ChunkID)
	assert.Equal(t, types.ModeVector, result.Mode, "rerank failure must not degrade the whole search")
}

func TestSearchRerankContractViolationKeepsOrder(t *testing.T) {
	rnk := &stubRanker{hits: scoredHits(0.9, 0.8, 0.7)}
	svc := New(&stubStore{available: true}, rnk, droppingReranker{}, zerolog.Nop())

	opts := baseOptions()
	opts.Rerank = true

	result, err := svc.Search(context.Background(), "query", opts)
	require.NoError(t, err)
	assert.Len(t, result.Results, 3)
}

func TestSearchEnhancesContext(t *testing.T) {
	store := &stubStore{
		available: true,
		chunks: map[int]*types.Chunk{
			0: {ID: "c0", DocumentID: "doc-a", Text: "before", Ordinal: 0},
			1: {ID: "c1", DocumentID: "doc-a", Text: "the hit", Ordinal: 1},
			2: {ID: "c2", DocumentID: "doc-a", Text: "after", Ordinal: 2},
		},
	}
	rnk := &stubRanker{hits: []types.ScoredHit{
		{ChunkID: "c1", DocumentID: "doc-a", Text: "the hit", Ordinal: 1, Score: 0.9},
	}}
	svc := newService(store, rnk)

	opts := baseOptions()
	opts.EnhanceContext = true

	result, err := svc.Search(context.Background(), "hit", opts)
	require.NoError(t, err)
	require.Len(t, result.Results, 1)
	assert.Equal(t, "before", result.Results[0].PrecedingContext)
	assert.Equal(t, "after", result.Results[0].FollowingContext)
}

func TestSearchHighlightsQueryTerms(t *testing.T) {
	rnk := &stubRanker{hits: []types.ScoredHit{
		{ChunkID: "c0", DocumentID: "doc-a", Text: "Paris is the capital of France.", Score: 0.9},
	}}
	svc := newService(&stubStore{available: true}, rnk)

	result, err := svc.Search(context.Background(), "capital", baseOptions())
	require.NoError(t, err)
	require.Len(t, result.Results, 1)
	assert.Contains(t, result.Results[0].HighlightedText, "<mark>capital</mark>")
}

func TestSearchCachesResults(t *testing.T) {
	rnk := &stubRanker{hits: scoredHits(0.9)}
	svc := newService(&stubStore{available: true}, rnk)
	ctx := context.Background()

	first, err := svc.Search(ctx, "query", baseOptions())
	require.NoError(t, err)
	assert.False(t, first.CacheHit)

	second, err := svc.Search(ctx, "query", baseOptions())
	require.NoError(t, err)
	assert.True(t, second.CacheHit)
	assert.Equal(t, first.Results, second.Results)

	// Different options miss the cache
	opts := baseOptions()
	opts.Limit = 5
	third, err := svc.Search(ctx, "query", opts)
	require.NoError(t, err)
	assert.False(t, third.CacheHit)
}

func TestSearchDoesNotCacheMockResults(t *testing.T) {
	store := &stubStore{available: false}
	svc := newService(store, &stubRanker{hits: scoredHits(0.9)})
	ctx := context.Background()

	_, err := svc.Search(ctx, "query", baseOptions())
	require.NoError(t, err)

	// Backend recovers; the next call must not be served the cached mock
	store.available = true
	result, err := svc.Search(ctx, "query", baseOptions())
	require.NoError(t, err)
	assert.Equal(t, types.ModeVector, result.Mode)
	assert.False(t, result.CacheHit)
}

// fixedEmbedder returns per-text canned vectors so semantic scores are exact.
type fixedEmbedder struct {
	embedder.Embedder
	vectors map[string][]float32
}

func (f *fixedEmbedder) GenerateEmbedding(ctx context.Context, req embedder.EmbeddingRequest) (*embedder.Embedding, error) {
	v, ok := f.vectors[req.Text]
	if !ok {
		return nil, errors.Newf("no vector for %q", req.Text)
	}
	return &embedder.Embedding{Vector: v, Dimension: len(v)}, nil
}

// TestSearchEndToEnd runs the full stack: real store, real ranker, stub
// embedding provider with controlled similarities.
func TestSearchEndToEnd(t *testing.T) {
	store, err := vectorstore.NewSQLiteStore(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })

	ctx := context.Background()
	require.NoError(t, store.UpsertChunk(ctx, &types.Chunk{
		ID: "c0", DocumentID: "doc-a", Text: "Paris is the capital of France.", Ordinal: 0,
	}))
	require.NoError(t, store.UpsertEmbedding(ctx, "doc-a", "c0", []float32{1, 0, 0}))
	require.NoError(t, store.UpsertChunk(ctx, &types.Chunk{
		ID: "c1", DocumentID: "doc-a", Text: "The weather today is sunny.", Ordinal: 1,
	}))
	require.NoError(t, store.UpsertEmbedding(ctx, "doc-a", "c1", []float32{0, 1, 0}))

	// Query vector chosen so cosine similarity is 0.95 against c0 and 0.10
	// against c1.
	emb := &fixedEmbedder{vectors: map[string][]float32{
		"capital of France": {0.95, 0.10, 0.29580399},
	}}
	rnk := ranker.New(store, emb, zerolog.Nop())
	svc := New(store, rnk, nil, zerolog.Nop())

	opts := types.DefaultSearchOptions()
	opts.Filter.DocumentID = "doc-a"
	opts.MinScore = 0.5
	opts.KeywordWeight = 0.3
	opts.SemanticWeight = 0.7

	result, err := svc.Search(ctx, "capital of France", opts)
	require.NoError(t, err)

	assert.Equal(t, types.ModeVector, result.Mode)
	require.Len(t, result.Results, 1, "only the relevant chunk passes the threshold")
	hit := result.Results[0]
	assert.Equal(t, "c0", hit.ChunkID)
	assert.InDelta(t, 0.95, hit.SemanticScore, 1e-3)
	assert.InDelta(t, 0.7*hit.SemanticScore+0.3*hit.LexicalScore, hit.Score, 1e-9)
	assert.Equal(t, 1, result.TotalResults)
}
