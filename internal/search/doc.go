// Package search is the public entry point of the hybrid document search
// core. The Service validates options, probes the vector backend, runs
// hybrid ranking, applies score-threshold filtering and pagination, then
// optionally reranks and context-enhances the returned window.
//
// # Degraded mode
//
// When the vector store is unavailable or the embedding provider fails,
// Search never returns an error: it serves synthetic placeholder hits
// tagged Mode == types.ModeMock. The Mode field is the only signal that a
// response is degraded — callers deciding anything important must check it.
//
// # Cost model
//
// Ranking touches at most 3*(limit+offset) candidates; reranking and
// context enhancement run over the returned window only, so per-call cost
// is O(limit) regardless of corpus size.
package search
