package types

import "time"

// Search result modes. Mode is the only signal that a response was served by
// the degraded fallback rather than the real index.
const (
	ModeVector = "vector"
	ModeMock   = "mock"
)

// ScoredHit is a single ranked passage. Constructed fresh per search call,
// never persisted.
type ScoredHit struct {
	ChunkID    string            `json:"chunkId"`
	DocumentID string            `json:"documentId"`
	Text       string            `json:"text"`
	Ordinal    int               `json:"ordinal"`
	Metadata   map[string]string `json:"metadata,omitempty"`

	// Score is the weighted combination of the semantic and lexical scores.
	// It is expected in [0,1] when the weights sum to 1 but is not clamped.
	Score         float64 `json:"score"`
	SemanticScore float64 `json:"semanticScore"`
	LexicalScore  float64 `json:"lexicalScore"`

	// HighlightedText has query terms wrapped in <mark> tags.
	HighlightedText string `json:"highlightedContent,omitempty"`

	// Neighboring chunk text, attached only when context enhancement is on
	// and the neighbor exists in the same document.
	PrecedingContext string `json:"precedingContext,omitempty"`
	FollowingContext string `json:"followingContext,omitempty"`
}

// Clone returns a deep copy of the hit.
func (h ScoredHit) Clone() ScoredHit {
	dup := h
	if h.Metadata != nil {
		dup.Metadata = make(map[string]string, len(h.Metadata))
		for k, v := range h.Metadata {
			dup.Metadata[k] = v
		}
	}
	return dup
}

// SearchResult is the response envelope for one search call.
type SearchResult struct {
	Query   string      `json:"query"`
	Results []ScoredHit `json:"results"`

	// TotalResults counts hits that met the score threshold before
	// offset/limit slicing.
	TotalResults int `json:"totalResults"`

	// Mode is ModeVector on the happy path, ModeMock when the backend was
	// unavailable and synthetic results were returned instead.
	Mode string `json:"mode"`

	Duration time.Duration `json:"-"`
	CacheHit bool          `json:"-"`
}
