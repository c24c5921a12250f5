package vectorstore

import (
	"context"
	"database/sql"

	"github.com/cockroachdb/errors"
)

// CurrentSchemaVersion tracks the database schema version
const CurrentSchemaVersion = 1

// Migration represents a database schema migration
type Migration struct {
	Version int
	Up      string
}

// AllMigrations contains all database migrations in order
var AllMigrations = []Migration{
	{Version: 1, Up: migrationV1Up},
}

const migrationV1Up = `
-- Schema version tracking
CREATE TABLE IF NOT EXISTS schema_version (
    version INTEGER PRIMARY KEY,
    applied_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
);

-- Chunks: immutable units of extracted document text
CREATE TABLE IF NOT EXISTS chunks (
    document_id TEXT NOT NULL,
    chunk_id TEXT NOT NULL,
    ordinal INTEGER NOT NULL,
    text TEXT NOT NULL,
    metadata TEXT,
    created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
    updated_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
    PRIMARY KEY (document_id, chunk_id)
);

CREATE INDEX IF NOT EXISTS idx_chunks_document ON chunks(document_id);
CREATE UNIQUE INDEX IF NOT EXISTS idx_chunks_ordinal ON chunks(document_id, ordinal);

-- Embeddings: one vector per chunk, float32 little-endian blob
CREATE TABLE IF NOT EXISTS embeddings (
    document_id TEXT NOT NULL,
    chunk_id TEXT NOT NULL,
    dimension INTEGER NOT NULL,
    vector BLOB NOT NULL,
    created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
    PRIMARY KEY (document_id, chunk_id),
    FOREIGN KEY (document_id, chunk_id) REFERENCES chunks(document_id, chunk_id) ON DELETE CASCADE
);

CREATE INDEX IF NOT EXISTS idx_embeddings_document ON embeddings(document_id);
`

// ApplyMigrations brings the database schema up to the current version
func ApplyMigrations(ctx context.Context, db *sql.DB) error {
	if _, err := db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS schema_version (
			version INTEGER PRIMARY KEY,
			applied_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
		)
	`); err != nil {
		return errors.Wrap(err, "create schema_version table")
	}

	applied, err := appliedVersion(ctx, db)
	if err != nil {
		return err
	}

	for _, m := range AllMigrations {
		if m.Version <= applied {
			continue
		}
		if _, err := db.ExecContext(ctx, m.Up); err != nil {
			return errors.Wrapf(err, "apply migration %d", m.Version)
		}
		if _, err := db.ExecContext(ctx,
			`INSERT OR IGNORE INTO schema_version (version) VALUES (?)`, m.Version); err != nil {
			return errors.Wrapf(err, "record migration %d", m.Version)
		}
	}

	return nil
}

func appliedVersion(ctx context.Context, db *sql.DB) (int, error) {
	var version sql.NullInt64
	err := db.QueryRowContext(ctx, `SELECT MAX(version) FROM schema_version`).Scan(&version)
	if err != nil {
		return 0, errors.Wrap(err, "read schema version")
	}
	if !version.Valid {
		return 0, nil
	}
	return int(version.Int64), nil
}
