// Package ingest runs the indexing pipeline for a document: chunk the
// text, embed the passages, and persist both to the vector store.
package ingest

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/studykit/docsearch/internal/chunker"
	"github.com/studykit/docsearch/internal/embedder"
	"github.com/studykit/docsearch/internal/vectorstore"
	"github.com/studykit/docsearch/pkg/types"
)

// defaultEmbedConcurrency bounds parallel embedding batches; embedding
// providers rate-limit aggressively, so this stays small.
const defaultEmbedConcurrency = 4

// Ingestor coordinates the ingest pipeline: chunk -> embed -> store.
type Ingestor struct {
	chunker     *chunker.Chunker
	embedder    embedder.Embedder
	store       vectorstore.Store
	logger      zerolog.Logger
	concurrency int
}

// Config tunes the pipeline.
type Config struct {
	MaxChunkChars    int // passage size limit (default chunker.DefaultMaxChars)
	OverlapChars     int // inter-passage overlap (default chunker.DefaultOverlapChars)
	EmbedConcurrency int // parallel embedding batches (default 4)
}

// Stats reports what one ingest call did.
type Stats struct {
	DocumentID     string
	ChunksCreated  int
	ChunksEmbedded int
	Replaced       bool
	Duration       time.Duration
}

// New creates an Ingestor with default passage sizing.
func New(emb embedder.Embedder, store vectorstore.Store, logger zerolog.Logger) *Ingestor {
	return NewWithConfig(emb, store, logger, Config{})
}

// NewWithConfig creates an Ingestor with explicit tuning.
func NewWithConfig(emb embedder.Embedder, store vectorstore.Store, logger zerolog.Logger, cfg Config) *Ingestor {
	concurrency := cfg.EmbedConcurrency
	if concurrency <= 0 {
		concurrency = defaultEmbedConcurrency
	}
	return &Ingestor{
		chunker:     chunker.NewWithSize(cfg.MaxChunkChars, cfg.OverlapChars),
		embedder:    emb,
		store:       store,
		logger:      logger,
		concurrency: concurrency,
	}
}

// IngestDocument chunks, embeds, and stores one document's text. Re-ingesting
// an existing document ID replaces its previous chunks and embeddings.
func (ing *Ingestor) IngestDocument(ctx context.Context, documentID, text string, metadata map[string]string) (*Stats, error) {
	documentID = strings.TrimSpace(documentID)
	chunks, err := ing.chunker.ChunkDocument(documentID, text)
	if err != nil {
		return nil, err
	}
	for i := range chunks {
		chunks[i].Metadata = metadata
	}

	return ing.persist(ctx, documentID, chunks)
}

// IngestPassages stores pre-chunked passages as-is, embedding each one.
// Ordinals follow the given order. Used when an upstream pipeline already
// split the document.
func (ing *Ingestor) IngestPassages(ctx context.Context, documentID string, passages []string, metadata map[string]string) (*Stats, error) {
	documentID = strings.TrimSpace(documentID)
	if documentID == "" {
		return nil, errors.Wrap(types.ErrInvalidOption, "document ID is empty")
	}
	if len(passages) == 0 {
		return nil, errors.Wrap(types.ErrEmptyContent, "no passages given")
	}

	chunks := make([]types.Chunk, 0, len(passages))
	for i, passage := range passages {
		passage = strings.TrimSpace(passage)
		if passage == "" {
			return nil, errors.Wrapf(types.ErrEmptyContent, "passage %d is empty", i)
		}
		chunks = append(chunks, types.Chunk{
			ID:         fmt.Sprintf("%s-chunk-%04d", documentID, i),
			DocumentID: documentID,
			Text:       passage,
			Ordinal:    i,
			Metadata:   metadata,
		})
	}

	return ing.persist(ctx, documentID, chunks)
}

// persist replaces any prior version of the document, embeds the chunks,
// and writes chunks plus embeddings to the store.
func (ing *Ingestor) persist(ctx context.Context, documentID string, chunks []types.Chunk) (*Stats, error) {
	start := time.Now()

	replaced := false
	if existing, err := ing.store.DocumentStats(ctx, documentID); err == nil && existing.ChunkCount > 0 {
		if err := ing.store.DeleteDocument(ctx, documentID); err != nil {
			return nil, errors.Wrapf(err, "replace document %s", documentID)
		}
		replaced = true
	}

	embeddings, err := ing.embedChunks(ctx, chunks)
	if err != nil {
		return nil, errors.Wrap(err, "embed passages")
	}

	for i := range chunks {
		if err := ing.store.UpsertChunk(ctx, &chunks[i]); err != nil {
			return nil, errors.Wrapf(err, "store chunk %s", chunks[i].ID)
		}
		if err := ing.store.UpsertEmbedding(ctx, documentID, chunks[i].ID, embeddings[i]); err != nil {
			return nil, errors.Wrapf(err, "store embedding for %s", chunks[i].ID)
		}
	}

	stats := &Stats{
		DocumentID:     documentID,
		ChunksCreated:  len(chunks),
		ChunksEmbedded: len(embeddings),
		Replaced:       replaced,
		Duration:       time.Since(start),
	}

	ing.logger.Info().
		Str("document_id", documentID).
		Int("chunks", stats.ChunksCreated).
		Bool("replaced", replaced).
		Dur("duration", stats.Duration).
		Msg("document ingested")

	return stats, nil
}

// DeleteDocument removes a document's chunks and embeddings.
func (ing *Ingestor) DeleteDocument(ctx context.Context, documentID string) error {
	documentID = strings.TrimSpace(documentID)
	if documentID == "" {
		return errors.Wrap(types.ErrInvalidOption, "document ID is empty")
	}
	if err := ing.store.DeleteDocument(ctx, documentID); err != nil {
		return errors.Wrapf(err, "delete document %s", documentID)
	}
	ing.logger.Info().Str("document_id", documentID).Msg("document deleted")
	return nil
}

// embedChunks embeds passages in provider-sized batches, running batches
// concurrently. Results land at the same index as their source chunk.
func (ing *Ingestor) embedChunks(ctx context.Context, chunks []types.Chunk) ([][]float32, error) {
	vectors := make([][]float32, len(chunks))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(ing.concurrency)

	batchSize := embedder.MaxBatchSize
	for startIdx := 0; startIdx < len(chunks); startIdx += batchSize {
		endIdx := startIdx + batchSize
		if endIdx > len(chunks) {
			endIdx = len(chunks)
		}
		batch := chunks[startIdx:endIdx]
		offset := startIdx

		g.Go(func() error {
			texts := make([]string, len(batch))
			for i, c := range batch {
				texts[i] = c.Text
			}
			resp, err := ing.embedder.GenerateBatch(gctx, embedder.BatchEmbeddingRequest{Texts: texts})
			if err != nil {
				return err
			}
			if len(resp.Embeddings) != len(batch) {
				return errors.Newf("provider returned %d embeddings for %d passages", len(resp.Embeddings), len(batch))
			}
			for i, emb := range resp.Embeddings {
				vectors[offset+i] = emb.Vector
			}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return vectors, nil
}
