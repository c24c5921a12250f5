package search

import (
	"fmt"
	"time"

	"github.com/studykit/docsearch/pkg/types"
)

// mockHitCount is how many synthetic hits degraded mode fabricates.
const mockHitCount = 3

// mockResult builds a well-formed response when the vector backend cannot
// answer. The hits are synthetic placeholders derived from the query and
// tagged ModeMock; callers must check Mode before trusting them. This is a
// deliberate availability trade-off: deployments without an embedding
// backend still get a usable response shape instead of an error.
func (s *Service) mockResult(query string, opts types.SearchOptions, start time.Time) *types.SearchResult {
	count := mockHitCount
	if opts.Limit < count {
		count = opts.Limit
	}

	hits := make([]types.ScoredHit, 0, count)
	for i := 0; i < count; i++ {
		hits = append(hits, types.ScoredHit{
			ChunkID:       fmt.Sprintf("mock-%d", i),
			DocumentID:    opts.Filter.DocumentID,
			Text:          fmt.Sprintf("This is placeholder passage %d related to %q. The search backend is currently unavailable.", i+1, query),
			Ordinal:       i,
			Score:         0.95 - 0.1*float64(i),
			SemanticScore: 0.95 - 0.1*float64(i),
		})
	}

	return &types.SearchResult{
		Query:        query,
		Results:      hits,
		TotalResults: len(hits),
		Mode:         types.ModeMock,
		Duration:     time.Since(start),
	}
}
