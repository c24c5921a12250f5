package enhancer

import (
	"context"
	"testing"

	"github.com/cockroachdb/errors"
	"github.com/stretchr/testify/assert"

	"github.com/studykit/docsearch/pkg/types"
)

// mapLookup serves chunks from an in-memory map keyed by ordinal.
func mapLookup(documentID string, chunks map[int]string) ChunkLookup {
	return func(ctx context.Context, docID string, ordinal int) (*types.Chunk, error) {
		if docID != documentID {
			return nil, types.ErrNotFound
		}
		text, ok := chunks[ordinal]
		if !ok {
			return nil, types.ErrNotFound
		}
		return &types.Chunk{
			ID:         "c",
			DocumentID: docID,
			Text:       text,
			Ordinal:    ordinal,
		}, nil
	}
}

func TestEnhanceAttachesBothNeighbors(t *testing.T) {
	lookup := mapLookup("doc-a", map[int]string{
		0: "before",
		1: "the hit itself",
		2: "after",
	})
	hit := types.ScoredHit{ChunkID: "c1", DocumentID: "doc-a", Text: "the hit itself", Ordinal: 1}

	enhanced := Enhance(context.Background(), hit, lookup)

	assert.Equal(t, "before", enhanced.PrecedingContext)
	assert.Equal(t, "after", enhanced.FollowingContext)
}

func TestEnhanceFirstChunkHasNoPredecessor(t *testing.T) {
	lookup := mapLookup("doc-a", map[int]string{
		0: "the hit itself",
		1: "after",
	})
	hit := types.ScoredHit{ChunkID: "c0", DocumentID: "doc-a", Text: "the hit itself", Ordinal: 0}

	enhanced := Enhance(context.Background(), hit, lookup)

	assert.Empty(t, enhanced.PrecedingContext)
	assert.Equal(t, "after", enhanced.FollowingContext)
}

func TestEnhanceLastChunkHasNoFollower(t *testing.T) {
	lookup := mapLookup("doc-a", map[int]string{
		3: "before",
		4: "the hit itself",
	})
	hit := types.ScoredHit{ChunkID: "c4", DocumentID: "doc-a", Text: "the hit itself", Ordinal: 4}

	enhanced := Enhance(context.Background(), hit, lookup)

	assert.Equal(t, "before", enhanced.PrecedingContext)
	assert.Empty(t, enhanced.FollowingContext)
}

func TestEnhanceDoesNotMutateInput(t *testing.T) {
	lookup := mapLookup("doc-a", map[int]string{0: "before", 1: "hit", 2: "after"})
	hit := types.ScoredHit{ChunkID: "c1", DocumentID: "doc-a", Text: "hit", Ordinal: 1}

	_ = Enhance(context.Background(), hit, lookup)

	assert.Empty(t, hit.PrecedingContext)
	assert.Empty(t, hit.FollowingContext)
}

func TestEnhanceLookupErrorIsNonFatal(t *testing.T) {
	failing := func(ctx context.Context, docID string, ordinal int) (*types.Chunk, error) {
		return nil, errors.New("store exploded")
	}
	hit := types.ScoredHit{ChunkID: "c1", DocumentID: "doc-a", Text: "hit", Ordinal: 1}

	enhanced := Enhance(context.Background(), hit, failing)

	assert.Empty(t, enhanced.PrecedingContext)
	assert.Empty(t, enhanced.FollowingContext)
	assert.Equal(t, hit.Text, enhanced.Text)
}

func TestEnhanceAll(t *testing.T) {
	lookup := mapLookup("doc-a", map[int]string{0: "zero", 1: "one", 2: "two"})
	hits := []types.ScoredHit{
		{ChunkID: "c0", DocumentID: "doc-a", Text: "zero", Ordinal: 0},
		{ChunkID: "c1", DocumentID: "doc-a", Text: "one", Ordinal: 1},
	}

	enhanced := EnhanceAll(context.Background(), hits, lookup)

	assert.Len(t, enhanced, 2)
	assert.Empty(t, enhanced[0].PrecedingContext)
	assert.Equal(t, "one", enhanced[0].FollowingContext)
	assert.Equal(t, "zero", enhanced[1].PrecedingContext)
	assert.Equal(t, "two", enhanced[1].FollowingContext)
}
