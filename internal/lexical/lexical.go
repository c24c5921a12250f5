// Package lexical scores a chunk's text against a query using keyword
// overlap weighted by term frequency. Scoring is a pure function with no
// I/O, which keeps the lexical pass of hybrid ranking deterministic and
// cheap enough to run over every vector candidate.
package lexical

import (
	"regexp"
	"strings"
	"unicode"
)

// tfSaturation caps the term-frequency bonus. Beyond this many occurrences
// a term contributes no additional weight.
const tfSaturation = 4

// Tokenize lowercases text, strips punctuation, and splits on whitespace.
func Tokenize(text string) []string {
	lower := strings.ToLower(text)
	return strings.FieldsFunc(lower, func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
}

// Score returns the lexical relevance of chunkText to query in [0,1].
//
// Each unique query token present in the chunk contributes a base weight
// plus a term-frequency bonus saturating at tfSaturation occurrences; the
// sum is normalized by the number of unique query tokens. A chunk missing
// every query token scores 0; a chunk repeating every query token scores 1.
func Score(query, chunkText string) float64 {
	queryTokens := uniqueTokens(Tokenize(query))
	if len(queryTokens) == 0 {
		return 0
	}

	chunkTokens := Tokenize(chunkText)
	if len(chunkTokens) == 0 {
		return 0
	}

	freq := make(map[string]int, len(chunkTokens))
	for _, tok := range chunkTokens {
		freq[tok]++
	}

	var sum float64
	for tok := range queryTokens {
		tf := freq[tok]
		if tf == 0 {
			continue
		}
		if tf > tfSaturation {
			tf = tfSaturation
		}
		sum += 0.5 + 0.5*float64(tf)/tfSaturation
	}

	return sum / float64(len(queryTokens))
}

// Highlight wraps occurrences of query tokens in chunkText with <mark> tags.
// Matching is case-insensitive and bounded to whole words; the original
// casing of the chunk text is preserved.
func Highlight(query, chunkText string) string {
	tokens := uniqueTokens(Tokenize(query))
	if len(tokens) == 0 || chunkText == "" {
		return chunkText
	}

	quoted := make([]string, 0, len(tokens))
	for tok := range tokens {
		quoted = append(quoted, regexp.QuoteMeta(tok))
	}
	// Sort-free alternation is fine: \b anchors prevent partial overlap.
	re, err := regexp.Compile(`(?i)\b(` + strings.Join(quoted, "|") + `)\b`)
	if err != nil {
		return chunkText
	}

	return re.ReplaceAllString(chunkText, "<mark>$1</mark>")
}

func uniqueTokens(tokens []string) map[string]struct{} {
	set := make(map[string]struct{}, len(tokens))
	for _, tok := range tokens {
		set[tok] = struct{}{}
	}
	return set
}
