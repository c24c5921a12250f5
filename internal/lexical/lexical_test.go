package lexical

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTokenize(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  []string
	}{
		{"simple", "Hello World", []string{"hello", "world"}},
		{"punctuation", "Paris, the capital of France!", []string{"paris", "the", "capital", "of", "france"}},
		{"numbers kept", "page 42 of chapter 3", []string{"page", "42", "of", "chapter", "3"}},
		{"empty", "", nil},
		{"only punctuation", "... !!! ---", nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Tokenize(tt.input)
			if len(tt.want) == 0 {
				assert.Empty(t, got)
				return
			}
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestScoreDeterministic(t *testing.T) {
	query := "capital of France"
	text := "Paris is the capital of France."

	first := Score(query, text)
	for i := 0; i < 10; i++ {
		assert.Equal(t, first, Score(query, text))
	}
}

func TestScoreBounds(t *testing.T) {
	tests := []struct {
		name  string
		query string
		text  string
	}{
		{"full overlap", "capital of France", "Paris is the capital of France."},
		{"partial overlap", "capital of Germany", "Paris is the capital of France."},
		{"no overlap", "quantum mechanics", "Paris is the capital of France."},
		{"repeated terms", "france", "France france FRANCE france france"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			score := Score(tt.query, tt.text)
			assert.GreaterOrEqual(t, score, 0.0)
			assert.LessOrEqual(t, score, 1.0)
		})
	}
}

func TestScoreZeroWhenNoSharedTokens(t *testing.T) {
	assert.Equal(t, 0.0, Score("quantum entanglement", "The weather today is sunny."))
	assert.Equal(t, 0.0, Score("", "some chunk text"))
	assert.Equal(t, 0.0, Score("some query", ""))
}

func TestScoreMaximalWhenAllTokensPresent(t *testing.T) {
	query := "capital France"
	full := Score(query, "The capital of France is Paris. France loves its capital.")
	partial := Score(query, "The capital city is large.")
	none := Score(query, "The weather today is sunny.")

	assert.Greater(t, full, partial)
	assert.Greater(t, partial, none)
}

func TestScoreTermFrequencySaturates(t *testing.T) {
	few := Score("france", "france france")
	many := Score("france", "france france france france france france france france")

	assert.GreaterOrEqual(t, many, few)
	assert.Equal(t, 1.0, many, "saturated term frequency with full overlap reaches 1")
}

func TestHighlight(t *testing.T) {
	got := Highlight("capital France", "Paris is the capital of France.")
	assert.Equal(t, "Paris is the <mark>capital</mark> of <mark>France</mark>.", got)
}

func TestHighlightNoMatch(t *testing.T) {
	text := "The weather today is sunny."
	assert.Equal(t, text, Highlight("quantum", text))
	assert.Equal(t, text, Highlight("", text))
}

func TestHighlightWholeWordsOnly(t *testing.T) {
	got := Highlight("cap", "The capital has a cap.")
	assert.Equal(t, "The capital has a <mark>cap</mark>.", got)
}
