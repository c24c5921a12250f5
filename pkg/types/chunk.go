package types

import "github.com/cockroachdb/errors"

// Chunk is an indivisible unit of extracted document text. Chunks are
// produced by the ingestion pipeline and are immutable once indexed; the
// search core only ever reads them.
type Chunk struct {
	// Identification
	ID         string // Unique within a document
	DocumentID string

	// Content
	Text string

	// Ordinal is the chunk's position within the document. Neighboring
	// chunks (ordinal-1, ordinal+1) supply surrounding context for hits.
	Ordinal int

	// Metadata carries opaque key/value pairs such as page number or
	// section label. The core never interprets these beyond equality
	// filtering.
	Metadata map[string]string
}

// Validate checks that the chunk can be indexed.
func (c *Chunk) Validate() error {
	if c.ID == "" {
		return errors.New("chunk ID is required")
	}
	if c.DocumentID == "" {
		return errors.New("chunk document ID is required")
	}
	if c.Text == "" {
		return ErrEmptyContent
	}
	if c.Ordinal < 0 {
		return errors.New("chunk ordinal must be >= 0")
	}
	return nil
}

// Clone returns a deep copy of the chunk.
func (c *Chunk) Clone() *Chunk {
	dup := *c
	if c.Metadata != nil {
		dup.Metadata = make(map[string]string, len(c.Metadata))
		for k, v := range c.Metadata {
			dup.Metadata[k] = v
		}
	}
	return &dup
}
