package types

import "github.com/cockroachdb/errors"

// Domain errors shared across the search core. Callers match these with
// errors.Is; wrapping preserves the sentinel.
var (
	// ErrInvalidQuery indicates an empty or oversized query string.
	ErrInvalidQuery = errors.New("invalid query")
	// ErrInvalidOption indicates a search option outside its documented range.
	ErrInvalidOption = errors.New("invalid search option")
	// ErrUnavailable indicates the embedding provider or vector index could
	// not serve the request. The orchestrator degrades to mock mode on it.
	ErrUnavailable = errors.New("search backend unavailable")
	// ErrNotFound is returned when a requested chunk or document doesn't exist.
	ErrNotFound = errors.New("not found")
	// ErrEmptyContent is returned for chunks with no text.
	ErrEmptyContent = errors.New("content cannot be empty")
)
