package vectorstore

import (
	"context"
	"time"

	"github.com/studykit/docsearch/pkg/types"
)

// VectorResult is a nearest-neighbor candidate with its similarity score.
// The full chunk rides along so ranking does not need a second lookup pass.
type VectorResult struct {
	Chunk types.Chunk
	Score float64 // Cosine similarity in [-1,1], typically [0,1] for text
}

// DocumentStats summarizes what is indexed for one document.
type DocumentStats struct {
	DocumentID    string
	ChunkCount    int
	EmbeddedCount int
	LastIndexedAt time.Time
}

// Store is the vector index and chunk store contract the search core needs:
// an availability probe, filtered nearest-neighbor queries, and ordinal
// lookups for context enhancement. Ingestion uses the upsert side.
type Store interface {
	// Available reports whether the index can serve queries right now.
	// The orchestrator degrades to mock mode when this returns false.
	Available(ctx context.Context) bool

	// Chunk operations
	UpsertChunk(ctx context.Context, chunk *types.Chunk) error
	GetChunk(ctx context.Context, documentID, chunkID string) (*types.Chunk, error)
	GetChunkByOrdinal(ctx context.Context, documentID string, ordinal int) (*types.Chunk, error)
	ListChunks(ctx context.Context, documentID string) ([]*types.Chunk, error)
	DeleteDocument(ctx context.Context, documentID string) error

	// Embedding operations
	UpsertEmbedding(ctx context.Context, documentID, chunkID string, vector []float32) error

	// SearchVector returns the topK nearest neighbors of vector under the
	// filter, ordered by descending similarity. Zero candidates is not an
	// error.
	SearchVector(ctx context.Context, vector []float32, topK int, filter types.Filter) ([]VectorResult, error)

	// DocumentStats reports index coverage for a document.
	DocumentStats(ctx context.Context, documentID string) (*DocumentStats, error)

	Close() error
}
