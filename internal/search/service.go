package search

import (
	"context"
	"strings"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/studykit/docsearch/internal/enhancer"
	"github.com/studykit/docsearch/internal/lexical"
	"github.com/studykit/docsearch/internal/ranker"
	"github.com/studykit/docsearch/internal/reranker"
	"github.com/studykit/docsearch/internal/vectorstore"
	"github.com/studykit/docsearch/pkg/types"
)

// minOverfetch is the floor for the candidate pool handed to the ranker.
const minOverfetch = 30

// Ranker is the hybrid ranking dependency. Satisfied by *ranker.Ranker.
type Ranker interface {
	Rank(ctx context.Context, query string, p ranker.RankParams) ([]types.ScoredHit, error)
}

// Service orchestrates a search call: validation, availability probe,
// hybrid ranking, threshold filtering, pagination, optional reranking and
// context enhancement, and the degraded fallback when the vector backend
// cannot answer.
//
// A Service is stateless across calls apart from its read-through result
// cache; each Search invocation is an independent, idempotent read.
type Service struct {
	store    vectorstore.Store
	ranker   Ranker
	reranker reranker.Reranker
	cache    *resultCache
	logger   zerolog.Logger
}

// New creates a search Service. A nil reranker defaults to the identity
// strategy.
func New(store vectorstore.Store, rnk Ranker, rr reranker.Reranker, logger zerolog.Logger) *Service {
	if rr == nil {
		rr = reranker.Identity{}
	}
	return &Service{
		store:    store,
		ranker:   rnk,
		reranker: rr,
		cache:    newResultCache(defaultCacheSize, defaultCacheTTL),
		logger:   logger,
	}
}

// Search runs one search call. Only validation failures return an error;
// every backend failure degrades to a well-formed mock-mode result, so
// callers must check SearchResult.Mode before trusting the hits.
func (s *Service) Search(ctx context.Context, query string, opts types.SearchOptions) (*types.SearchResult, error) {
	start := time.Now()
	logger := s.logger.With().Str("search_id", uuid.NewString()).Logger()

	query = strings.TrimSpace(query)
	if query == "" {
		return nil, errors.Wrap(types.ErrInvalidQuery, "query is empty")
	}
	if len(query) > types.MaxQueryLength {
		return nil, errors.Wrapf(types.ErrInvalidQuery, "query exceeds %d characters", types.MaxQueryLength)
	}
	if err := opts.Validate(); err != nil {
		return nil, err
	}

	if cached, ok := s.cache.get(query, opts); ok {
		cached.CacheHit = true
		cached.Duration = time.Since(start)
		return cached, nil
	}

	if !s.store.Available(ctx) {
		logger.Warn().Str("query", query).Msg("vector store unavailable, serving mock results")
		return s.mockResult(query, opts, start), nil
	}

	result, err := s.vectorSearch(ctx, query, opts, logger)
	if err != nil {
		// Backend failures of any kind degrade; they are availability
		// problems, not caller errors.
		logger.Warn().Err(err).Str("query", query).Msg("hybrid search failed, serving mock results")
		return s.mockResult(query, opts, start), nil
	}

	result.Duration = time.Since(start)
	if len(result.Results) > 0 {
		s.cache.set(query, opts, result)
	}

	logger.Debug().
		Str("query", query).
		Str("document_id", opts.Filter.DocumentID).
		Int("total_results", result.TotalResults).
		Int("returned", len(result.Results)).
		Dur("duration", result.Duration).
		Msg("search complete")

	return result, nil
}

// vectorSearch is the happy path: rank, filter, paginate, rerank, enhance.
func (s *Service) vectorSearch(ctx context.Context, query string, opts types.SearchOptions, logger zerolog.Logger) (*types.SearchResult, error) {
	topK := overfetch(opts)
	ranked, err := s.ranker.Rank(ctx, query, ranker.RankParams{
		Filter:         opts.Filter,
		TopK:           topK,
		KeywordWeight:  opts.KeywordWeight,
		SemanticWeight: opts.SemanticWeight,
	})
	if err != nil {
		return nil, err
	}

	// Threshold filter before slicing; TotalResults reports the filtered
	// count, not the page size.
	filtered := ranked[:0:0]
	for _, hit := range ranked {
		if hit.Score >= opts.MinScore {
			filtered = append(filtered, hit)
		}
	}
	total := len(filtered)

	window := paginate(filtered, opts.Offset, opts.Limit)

	if opts.Rerank && len(window) > 1 {
		window = s.applyRerank(ctx, query, window, logger)
	}

	if opts.EnhanceContext {
		window = enhancer.EnhanceAll(ctx, window, s.chunkLookup())
	}

	for i := range window {
		window[i].HighlightedText = lexical.Highlight(query, window[i].Text)
	}

	return &types.SearchResult{
		Query:        query,
		Results:      window,
		TotalResults: total,
		Mode:         types.ModeVector,
	}, nil
}

// applyRerank runs the configured strategy over the returned window only,
// bounding cost to O(limit). A failing or contract-breaking strategy is
// logged and the pre-rerank order kept.
func (s *Service) applyRerank(ctx context.Context, query string, window []types.ScoredHit, logger zerolog.Logger) []types.ScoredHit {
	reordered, err := s.reranker.Rerank(ctx, query, window)
	if err != nil {
		logger.Warn().Err(err).Str("reranker", s.reranker.Name()).Msg("rerank failed, keeping hybrid order")
		return window
	}
	if err := reranker.ValidatePermutation(window, reordered); err != nil {
		logger.Warn().Err(err).Str("reranker", s.reranker.Name()).Msg("rerank broke permutation contract, keeping hybrid order")
		return window
	}
	return reordered
}

func (s *Service) chunkLookup() enhancer.ChunkLookup {
	return func(ctx context.Context, documentID string, ordinal int) (*types.Chunk, error) {
		return s.store.GetChunkByOrdinal(ctx, documentID, ordinal)
	}
}

// overfetch sizes the ranker's candidate pool: enough for the requested
// page plus headroom for threshold filtering.
func overfetch(opts types.SearchOptions) int {
	topK := 3 * (opts.Limit + opts.Offset)
	if topK < minOverfetch {
		topK = minOverfetch
	}
	return topK
}

func paginate(hits []types.ScoredHit, offset, limit int) []types.ScoredHit {
	if offset >= len(hits) {
		return []types.ScoredHit{}
	}
	end := offset + limit
	if end > len(hits) {
		end = len(hits)
	}
	return hits[offset:end]
}
