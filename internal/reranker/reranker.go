// Package reranker reorders an already-ranked candidate window using a
// secondary, more expensive relevance signal.
//
// Reranking is a pluggable strategy: the orchestrator only depends on the
// Reranker interface and falls back to the pre-rerank order when a strategy
// fails. Strategies must return a permutation of their input — never drop
// or add hits.
package reranker

import (
	"context"

	"github.com/cockroachdb/errors"

	"github.com/studykit/docsearch/pkg/types"
)

// ErrNotPermutation is returned when a strategy's output does not contain
// exactly the input's chunk ids.
var ErrNotPermutation = errors.New("reranker output is not a permutation of its input")

// Reranker reorders candidates by relevance to the query.
type Reranker interface {
	// Rerank returns the candidates reordered. The output must have the
	// same length and chunk-id set as the input.
	Rerank(ctx context.Context, query string, candidates []types.ScoredHit) ([]types.ScoredHit, error)

	// Name identifies the strategy for logging.
	Name() string
}

// Identity is the default no-op strategy used when no stronger signal is
// configured.
type Identity struct{}

// Rerank returns the input unchanged.
func (Identity) Rerank(ctx context.Context, query string, candidates []types.ScoredHit) ([]types.ScoredHit, error) {
	return candidates, nil
}

// Name implements Reranker.
func (Identity) Name() string { return "identity" }

// ValidatePermutation checks the permutation contract between input and
// output. Strategies call this before returning.
func ValidatePermutation(input, output []types.ScoredHit) error {
	if len(input) != len(output) {
		return errors.Wrapf(ErrNotPermutation, "length %d != %d", len(output), len(input))
	}

	want := make(map[string]int, len(input))
	for _, h := range input {
		want[h.ChunkID]++
	}
	for _, h := range output {
		want[h.ChunkID]--
		if want[h.ChunkID] < 0 {
			return errors.Wrapf(ErrNotPermutation, "unexpected chunk id %s", h.ChunkID)
		}
	}
	for id, n := range want {
		if n != 0 {
			return errors.Wrapf(ErrNotPermutation, "missing chunk id %s", id)
		}
	}
	return nil
}
