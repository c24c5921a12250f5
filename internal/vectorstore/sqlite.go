package vectorstore

import (
	"context"
	"database/sql"
	"encoding/json"
	"sort"
	"time"

	"github.com/cockroachdb/errors"

	"github.com/studykit/docsearch/pkg/types"
)

// SQLiteStore implements Store using SQLite. Vectors are stored as float32
// little-endian blobs and similarity is computed in Go, which keeps the
// store driver-agnostic across the cgo and purego builds.
type SQLiteStore struct {
	db *sql.DB
}

// openDatabase opens a SQLite database with appropriate settings
func openDatabase(dbPath string) (*sql.DB, error) {
	db, err := sql.Open(DriverName, dbPath)
	if err != nil {
		return nil, err
	}

	// WAL improves read concurrency under a single writer
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		_ = db.Close()
		return nil, errors.Wrap(err, "enable WAL mode")
	}

	// SQLite benefits from a single writer connection
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	if _, err := db.Exec("PRAGMA foreign_keys=ON"); err != nil {
		_ = db.Close()
		return nil, errors.Wrap(err, "enable foreign keys")
	}

	return db, nil
}

// NewSQLiteStore creates a SQLite-backed store at dbPath (":memory:" for
// tests) and applies migrations.
func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	db, err := openDatabase(dbPath)
	if err != nil {
		return nil, errors.Wrap(err, "open database")
	}

	if err := ApplyMigrations(context.Background(), db); err != nil {
		_ = db.Close()
		return nil, errors.Wrap(err, "apply migrations")
	}

	return &SQLiteStore{db: db}, nil
}

// Available probes the database with a trivial query.
func (s *SQLiteStore) Available(ctx context.Context) bool {
	if s == nil || s.db == nil {
		return false
	}
	var one int
	return s.db.QueryRowContext(ctx, "SELECT 1").Scan(&one) == nil
}

// Close closes the database connection
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// UpsertChunk inserts or replaces a chunk.
func (s *SQLiteStore) UpsertChunk(ctx context.Context, chunk *types.Chunk) error {
	if err := chunk.Validate(); err != nil {
		return err
	}

	metadata, err := encodeMetadata(chunk.Metadata)
	if err != nil {
		return err
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO chunks (document_id, chunk_id, ordinal, text, metadata, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(document_id, chunk_id) DO UPDATE SET
			ordinal = excluded.ordinal,
			text = excluded.text,
			metadata = excluded.metadata,
			updated_at = excluded.updated_at
	`, chunk.DocumentID, chunk.ID, chunk.Ordinal, chunk.Text, metadata, time.Now(), time.Now())
	if err != nil {
		return errors.Wrapf(err, "upsert chunk %s/%s", chunk.DocumentID, chunk.ID)
	}

	return nil
}

// GetChunk loads a chunk by document and chunk id.
func (s *SQLiteStore) GetChunk(ctx context.Context, documentID, chunkID string) (*types.Chunk, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT document_id, chunk_id, ordinal, text, metadata
		FROM chunks WHERE document_id = ? AND chunk_id = ?
	`, documentID, chunkID)
	return scanChunk(row)
}

// GetChunkByOrdinal loads the chunk at a given position within a document.
func (s *SQLiteStore) GetChunkByOrdinal(ctx context.Context, documentID string, ordinal int) (*types.Chunk, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT document_id, chunk_id, ordinal, text, metadata
		FROM chunks WHERE document_id = ? AND ordinal = ?
	`, documentID, ordinal)
	return scanChunk(row)
}

// ListChunks returns all chunks of a document ordered by ordinal.
func (s *SQLiteStore) ListChunks(ctx context.Context, documentID string) ([]*types.Chunk, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT document_id, chunk_id, ordinal, text, metadata
		FROM chunks WHERE document_id = ? ORDER BY ordinal
	`, documentID)
	if err != nil {
		return nil, errors.Wrapf(err, "list chunks for %s", documentID)
	}
	defer func() { _ = rows.Close() }()

	var chunks []*types.Chunk
	for rows.Next() {
		chunk, err := scanChunkRow(rows)
		if err != nil {
			return nil, err
		}
		chunks = append(chunks, chunk)
	}
	return chunks, rows.Err()
}

// DeleteDocument removes a document's chunks and embeddings.
func (s *SQLiteStore) DeleteDocument(ctx context.Context, documentID string) error {
	// Embeddings cascade from chunks
	_, err := s.db.ExecContext(ctx, `DELETE FROM chunks WHERE document_id = ?`, documentID)
	if err != nil {
		return errors.Wrapf(err, "delete document %s", documentID)
	}
	return nil
}

// UpsertEmbedding stores a chunk's vector.
func (s *SQLiteStore) UpsertEmbedding(ctx context.Context, documentID, chunkID string, vector []float32) error {
	if len(vector) == 0 {
		return errors.New("embedding vector cannot be empty")
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO embeddings (document_id, chunk_id, dimension, vector, created_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(document_id, chunk_id) DO UPDATE SET
			dimension = excluded.dimension,
			vector = excluded.vector,
			created_at = excluded.created_at
	`, documentID, chunkID, len(vector), serializeVector(vector), time.Now())
	if err != nil {
		return errors.Wrapf(err, "upsert embedding %s/%s", documentID, chunkID)
	}

	return nil
}

// SearchVector loads candidate embeddings under the filter, computes cosine
// similarity in Go, and returns the topK best matches in descending order.
func (s *SQLiteStore) SearchVector(ctx context.Context, vector []float32, topK int, filter types.Filter) ([]VectorResult, error) {
	if topK <= 0 {
		return []VectorResult{}, nil
	}

	query := `
		SELECT c.document_id, c.chunk_id, c.ordinal, c.text, c.metadata, e.vector
		FROM chunks c
		INNER JOIN embeddings e
			ON c.document_id = e.document_id AND c.chunk_id = e.chunk_id
	`
	var args []interface{}
	if filter.DocumentID != "" {
		query += ` WHERE c.document_id = ?`
		args = append(args, filter.DocumentID)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, errors.Wrap(err, "query embeddings")
	}
	defer func() { _ = rows.Close() }()

	var results []VectorResult
	for rows.Next() {
		var (
			chunk    types.Chunk
			metadata sql.NullString
			blob     []byte
		)
		if err := rows.Scan(&chunk.DocumentID, &chunk.ID, &chunk.Ordinal, &chunk.Text, &metadata, &blob); err != nil {
			return nil, errors.Wrap(err, "scan embedding row")
		}
		if chunk.Metadata, err = decodeMetadata(metadata); err != nil {
			return nil, err
		}
		if !filter.Matches(&chunk) {
			continue
		}
		candidate, err := deserializeVector(blob)
		if err != nil {
			return nil, errors.Wrapf(err, "chunk %s/%s", chunk.DocumentID, chunk.ID)
		}
		results = append(results, VectorResult{
			Chunk: chunk,
			Score: CosineSimilarity(vector, candidate),
		})
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	sort.SliceStable(results, func(i, j int) bool {
		return results[i].Score > results[j].Score
	})

	if len(results) > topK {
		results = results[:topK]
	}
	return results, nil
}

// DocumentStats reports chunk and embedding counts for a document.
func (s *SQLiteStore) DocumentStats(ctx context.Context, documentID string) (*DocumentStats, error) {
	stats := &DocumentStats{DocumentID: documentID}

	var lastIndexed sql.NullTime
	err := s.db.QueryRowContext(ctx, `
		SELECT COUNT(*), MAX(updated_at) FROM chunks WHERE document_id = ?
	`, documentID).Scan(&stats.ChunkCount, &lastIndexed)
	if err != nil {
		return nil, errors.Wrapf(err, "count chunks for %s", documentID)
	}
	if lastIndexed.Valid {
		stats.LastIndexedAt = lastIndexed.Time
	}

	err = s.db.QueryRowContext(ctx, `
		SELECT COUNT(*) FROM embeddings WHERE document_id = ?
	`, documentID).Scan(&stats.EmbeddedCount)
	if err != nil {
		return nil, errors.Wrapf(err, "count embeddings for %s", documentID)
	}

	return stats, nil
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanChunk(row *sql.Row) (*types.Chunk, error) {
	chunk, err := scanChunkRow(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, types.ErrNotFound
	}
	return chunk, err
}

func scanChunkRow(row rowScanner) (*types.Chunk, error) {
	var (
		chunk    types.Chunk
		metadata sql.NullString
	)
	if err := row.Scan(&chunk.DocumentID, &chunk.ID, &chunk.Ordinal, &chunk.Text, &metadata); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, errors.Wrap(err, "scan chunk")
	}
	var err error
	if chunk.Metadata, err = decodeMetadata(metadata); err != nil {
		return nil, err
	}
	return &chunk, nil
}

func encodeMetadata(metadata map[string]string) (sql.NullString, error) {
	if len(metadata) == 0 {
		return sql.NullString{}, nil
	}
	raw, err := json.Marshal(metadata)
	if err != nil {
		return sql.NullString{}, errors.Wrap(err, "encode metadata")
	}
	return sql.NullString{String: string(raw), Valid: true}, nil
}

func decodeMetadata(metadata sql.NullString) (map[string]string, error) {
	if !metadata.Valid || metadata.String == "" {
		return nil, nil
	}
	var decoded map[string]string
	if err := json.Unmarshal([]byte(metadata.String), &decoded); err != nil {
		return nil, errors.Wrap(err, "decode metadata")
	}
	return decoded, nil
}
