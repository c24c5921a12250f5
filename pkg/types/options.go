package types

import "github.com/cockroachdb/errors"

// Option bounds and defaults.
const (
	MaxQueryLength = 500

	DefaultLimit = 10
	MaxLimit     = 100

	DefaultMinScore       = 0.5
	DefaultKeywordWeight  = 0.3
	DefaultSemanticWeight = 0.7
)

// Filter constrains search candidates. DocumentID is required in practice;
// Metadata entries must match the chunk's metadata exactly.
type Filter struct {
	DocumentID string            `json:"documentId"`
	Metadata   map[string]string `json:"metadata,omitempty"`
}

// Matches reports whether a chunk satisfies the filter.
func (f Filter) Matches(c *Chunk) bool {
	if f.DocumentID != "" && c.DocumentID != f.DocumentID {
		return false
	}
	for k, want := range f.Metadata {
		if got, ok := c.Metadata[k]; !ok || got != want {
			return false
		}
	}
	return true
}

// SearchOptions configures a single search call.
//
// KeywordWeight and SemanticWeight are independently configurable and are
// not forced to sum to 1. The combined score scales with their sum; callers
// wanting strict proportionality must normalize themselves. This mirrors the
// historical behavior and is intentionally not "fixed" here.
type SearchOptions struct {
	Limit          int     `json:"limit"`
	Offset         int     `json:"offset"`
	MinScore       float64 `json:"minScore"`
	Filter         Filter  `json:"filter"`
	EnhanceContext bool    `json:"enhanceContext"`
	Rerank         bool    `json:"rerank"`
	KeywordWeight  float64 `json:"keywordWeight"`
	SemanticWeight float64 `json:"semanticWeight"`
}

// DefaultSearchOptions returns the documented defaults.
func DefaultSearchOptions() SearchOptions {
	return SearchOptions{
		Limit:          DefaultLimit,
		Offset:         0,
		MinScore:       DefaultMinScore,
		EnhanceContext: true,
		Rerank:         true,
		KeywordWeight:  DefaultKeywordWeight,
		SemanticWeight: DefaultSemanticWeight,
	}
}

// Validate checks every numeric option against its documented bounds.
func (o SearchOptions) Validate() error {
	if o.Limit < 1 || o.Limit > MaxLimit {
		return errors.Wrapf(ErrInvalidOption, "limit must be 1-%d, got %d", MaxLimit, o.Limit)
	}
	if o.Offset < 0 {
		return errors.Wrapf(ErrInvalidOption, "offset must be >= 0, got %d", o.Offset)
	}
	if o.MinScore < 0 || o.MinScore > 1 {
		return errors.Wrapf(ErrInvalidOption, "minScore must be 0-1, got %g", o.MinScore)
	}
	if o.KeywordWeight < 0 || o.KeywordWeight > 1 {
		return errors.Wrapf(ErrInvalidOption, "keywordWeight must be 0-1, got %g", o.KeywordWeight)
	}
	if o.SemanticWeight < 0 || o.SemanticWeight > 1 {
		return errors.Wrapf(ErrInvalidOption, "semanticWeight must be 0-1, got %g", o.SemanticWeight)
	}
	return nil
}
