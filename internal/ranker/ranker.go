// Package ranker combines semantic and lexical relevance into one hybrid
// ranking over a document's chunks.
package ranker

import (
	"context"
	"sort"

	"github.com/cockroachdb/errors"
	"github.com/rs/zerolog"

	"github.com/studykit/docsearch/internal/embedder"
	"github.com/studykit/docsearch/internal/lexical"
	"github.com/studykit/docsearch/internal/vectorstore"
	"github.com/studykit/docsearch/pkg/types"
)

// overfetchMultiplier widens the semantic candidate pool so lexical
// re-weighting has room to promote keyword-heavy chunks past the topK cut.
const overfetchMultiplier = 3

// RankParams configures a single ranking pass.
type RankParams struct {
	Filter         types.Filter
	TopK           int
	KeywordWeight  float64
	SemanticWeight float64
}

// Ranker issues the semantic query, scores the same candidates lexically,
// and merges both signals with a weighted sum.
type Ranker struct {
	store    vectorstore.Store
	embedder embedder.Embedder
	logger   zerolog.Logger
}

// New creates a Ranker.
func New(store vectorstore.Store, emb embedder.Embedder, logger zerolog.Logger) *Ranker {
	return &Ranker{
		store:    store,
		embedder: emb,
		logger:   logger,
	}
}

// Rank returns hits ordered by descending combined score. Ties keep the
// original semantic rank (the sort is stable over the store's ordering).
//
// Failures of the embedding provider or the vector index are wrapped with
// types.ErrUnavailable so the orchestrator can pattern-match on them and
// degrade instead of failing the request. An empty candidate set is a valid
// empty result, not an error.
func (r *Ranker) Rank(ctx context.Context, query string, p RankParams) ([]types.ScoredHit, error) {
	if r.embedder == nil || r.store == nil {
		return nil, errors.Wrap(types.ErrUnavailable, "ranker dependencies not initialized")
	}
	if p.TopK <= 0 {
		p.TopK = types.DefaultLimit
	}

	emb, err := r.embedder.GenerateEmbedding(ctx, embedder.EmbeddingRequest{Text: query})
	if err != nil {
		return nil, errors.Wrapf(types.ErrUnavailable, "embed query: %v", err)
	}

	candidates, err := r.store.SearchVector(ctx, emb.Vector, p.TopK*overfetchMultiplier, p.Filter)
	if err != nil {
		return nil, errors.Wrapf(types.ErrUnavailable, "vector search: %v", err)
	}
	if len(candidates) == 0 {
		return []types.ScoredHit{}, nil
	}

	hits := make([]types.ScoredHit, 0, len(candidates))
	for _, c := range candidates {
		lexScore := lexical.Score(query, c.Chunk.Text)
		hits = append(hits, types.ScoredHit{
			ChunkID:       c.Chunk.ID,
			DocumentID:    c.Chunk.DocumentID,
			Text:          c.Chunk.Text,
			Ordinal:       c.Chunk.Ordinal,
			Metadata:      c.Chunk.Metadata,
			SemanticScore: c.Score,
			LexicalScore:  lexScore,
			Score:         p.SemanticWeight*c.Score + p.KeywordWeight*lexScore,
		})
	}

	// Candidates arrive in semantic order; a stable sort preserves that
	// order as the tie-break.
	sort.SliceStable(hits, func(i, j int) bool {
		return hits[i].Score > hits[j].Score
	})

	r.logger.Debug().
		Int("candidates", len(candidates)).
		Int("top_k", p.TopK).
		Float64("keyword_weight", p.KeywordWeight).
		Float64("semantic_weight", p.SemanticWeight).
		Msg("hybrid rank complete")

	if len(hits) > p.TopK {
		hits = hits[:p.TopK]
	}
	return hits, nil
}
