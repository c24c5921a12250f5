// Package enhancer attaches neighboring chunk text to search hits so a
// reader sees the passage in its surrounding context without re-querying.
package enhancer

import (
	"context"

	"github.com/cockroachdb/errors"

	"github.com/studykit/docsearch/pkg/types"
)

// ChunkLookup fetches the chunk at a given ordinal within a document.
// Implementations return types.ErrNotFound when no such chunk exists.
type ChunkLookup func(ctx context.Context, documentID string, ordinal int) (*types.Chunk, error)

// Enhance returns a copy of hit with the preceding and following chunk's
// text attached when those neighbors exist in the same document. A missing
// neighbor is silently omitted; the input hit is never mutated.
func Enhance(ctx context.Context, hit types.ScoredHit, lookup ChunkLookup) types.ScoredHit {
	enhanced := hit.Clone()

	if hit.Ordinal > 0 {
		if prev, err := lookup(ctx, hit.DocumentID, hit.Ordinal-1); err == nil && prev != nil {
			enhanced.PrecedingContext = prev.Text
		} else if err != nil && !errors.Is(err, types.ErrNotFound) {
			// Lookup errors beyond a plain miss are also non-fatal: the hit
			// is still useful without context.
			enhanced.PrecedingContext = ""
		}
	}

	if next, err := lookup(ctx, hit.DocumentID, hit.Ordinal+1); err == nil && next != nil {
		enhanced.FollowingContext = next.Text
	}

	return enhanced
}

// EnhanceAll enhances every hit in place order, returning a new slice.
func EnhanceAll(ctx context.Context, hits []types.ScoredHit, lookup ChunkLookup) []types.ScoredHit {
	enhanced := make([]types.ScoredHit, len(hits))
	for i, hit := range hits {
		enhanced[i] = Enhance(ctx, hit, lookup)
	}
	return enhanced
}
