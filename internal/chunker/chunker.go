package chunker

import (
	"fmt"
	"strings"
	"unicode"

	"github.com/cockroachdb/errors"

	"github.com/studykit/docsearch/pkg/types"
)

const (
	// DefaultMaxChars is the target maximum passage size in characters.
	DefaultMaxChars = 1200

	// DefaultOverlapChars is how much of the previous passage's tail is
	// prepended to the next one so answers spanning a boundary survive.
	DefaultOverlapChars = 150

	// MinChunkChars drops fragments too small to be a useful passage on
	// their own; they get merged into a neighbor instead.
	MinChunkChars = 40
)

// Chunker splits document text into overlapping passages sized for
// embedding. Splitting prefers paragraph boundaries, then sentence
// boundaries, and only cuts mid-sentence when a single sentence exceeds
// the size limit.
type Chunker struct {
	maxChars     int
	overlapChars int
}

// New creates a Chunker with the default passage sizing.
func New() *Chunker {
	return &Chunker{maxChars: DefaultMaxChars, overlapChars: DefaultOverlapChars}
}

// NewWithSize creates a Chunker with explicit sizing. Non-positive values
// fall back to the defaults; overlap is capped at half the passage size.
func NewWithSize(maxChars, overlapChars int) *Chunker {
	if maxChars <= 0 {
		maxChars = DefaultMaxChars
	}
	if overlapChars < 0 {
		overlapChars = DefaultOverlapChars
	}
	if overlapChars > maxChars/2 {
		overlapChars = maxChars / 2
	}
	return &Chunker{maxChars: maxChars, overlapChars: overlapChars}
}

// ChunkDocument splits text into ordered passages for one document.
// Ordinals are assigned contiguously from zero; chunk IDs are derived
// from the document ID and the ordinal.
func (c *Chunker) ChunkDocument(documentID, text string) ([]types.Chunk, error) {
	if strings.TrimSpace(documentID) == "" {
		return nil, errors.Wrap(types.ErrInvalidOption, "document ID is empty")
	}
	if strings.TrimSpace(text) == "" {
		return nil, errors.Wrap(types.ErrEmptyContent, "document has no text")
	}

	passages := c.splitPassages(text)

	chunks := make([]types.Chunk, 0, len(passages))
	for i, passage := range passages {
		chunks = append(chunks, types.Chunk{
			ID:         fmt.Sprintf("%s-chunk-%04d", documentID, i),
			DocumentID: documentID,
			Text:       passage,
			Ordinal:    i,
		})
	}
	return chunks, nil
}

// splitPassages merges paragraphs up to maxChars, carrying overlap between
// consecutive passages.
func (c *Chunker) splitPassages(text string) []string {
	paragraphs := splitParagraphs(text)

	var passages []string
	var current strings.Builder
	for _, para := range paragraphs {
		if para == "" {
			continue
		}

		// A paragraph that cannot fit on its own gets sentence-level
		// treatment.
		if len(para) > c.maxChars {
			if current.Len() > 0 {
				passages = append(passages, current.String())
				current.Reset()
			}
			passages = append(passages, c.splitLongParagraph(para)...)
			continue
		}

		if current.Len() > 0 && current.Len()+len(para)+2 > c.maxChars {
			passages = append(passages, current.String())
			current.Reset()
		}
		if current.Len() > 0 {
			current.WriteString("\n\n")
		}
		current.WriteString(para)
	}
	if current.Len() > 0 {
		passages = append(passages, current.String())
	}

	passages = mergeTinyPassages(passages)
	return c.applyOverlap(passages)
}

// splitLongParagraph breaks an oversized paragraph at sentence boundaries,
// hard-cutting any single sentence that still exceeds the limit.
func (c *Chunker) splitLongParagraph(para string) []string {
	sentences := splitSentences(para)

	var out []string
	var current strings.Builder
	for _, sentence := range sentences {
		for len(sentence) > c.maxChars {
			if current.Len() > 0 {
				out = append(out, current.String())
				current.Reset()
			}
			cut := lastSpaceBefore(sentence, c.maxChars)
			out = append(out, strings.TrimSpace(sentence[:cut]))
			sentence = strings.TrimSpace(sentence[cut:])
		}
		if current.Len() > 0 && current.Len()+len(sentence)+1 > c.maxChars {
			out = append(out, current.String())
			current.Reset()
		}
		if current.Len() > 0 {
			current.WriteString(" ")
		}
		current.WriteString(sentence)
	}
	if current.Len() > 0 {
		out = append(out, current.String())
	}
	return out
}

// applyOverlap prepends the tail of each passage to its successor.
func (c *Chunker) applyOverlap(passages []string) []string {
	if c.overlapChars <= 0 || len(passages) < 2 {
		return passages
	}

	out := make([]string, len(passages))
	out[0] = passages[0]
	for i := 1; i < len(passages); i++ {
		prev := passages[i-1]
		tail := prev
		if len(prev) > c.overlapChars {
			// Start the overlap at a word boundary
			idx := strings.IndexFunc(prev[len(prev)-c.overlapChars:], unicode.IsSpace)
			if idx < 0 {
				idx = 0
			}
			tail = strings.TrimSpace(prev[len(prev)-c.overlapChars+idx:])
		}
		if tail == "" {
			out[i] = passages[i]
			continue
		}
		out[i] = tail + "\n" + passages[i]
	}
	return out
}

// mergeTinyPassages folds fragments below MinChunkChars into the previous
// passage.
func mergeTinyPassages(passages []string) []string {
	if len(passages) < 2 {
		return passages
	}

	out := make([]string, 0, len(passages))
	for _, p := range passages {
		if len(p) < MinChunkChars && len(out) > 0 {
			out[len(out)-1] = out[len(out)-1] + "\n\n" + p
			continue
		}
		out = append(out, p)
	}
	return out
}

// splitParagraphs splits on blank lines, normalizing line endings first.
func splitParagraphs(text string) []string {
	text = strings.ReplaceAll(text, "\r\n", "\n")

	raw := strings.Split(text, "\n\n")
	out := make([]string, 0, len(raw))
	for _, p := range raw {
		p = strings.TrimSpace(p)
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}

// splitSentences is a lightweight splitter: a terminator followed by
// whitespace ends a sentence. Abbreviations are not special-cased; a bad
// split only shifts a passage boundary.
func splitSentences(text string) []string {
	var sentences []string
	start := 0
	runes := []rune(text)
	for i := 0; i < len(runes)-1; i++ {
		if isTerminator(runes[i]) && unicode.IsSpace(runes[i+1]) {
			s := strings.TrimSpace(string(runes[start : i+1]))
			if s != "" {
				sentences = append(sentences, s)
			}
			start = i + 1
		}
	}
	if tail := strings.TrimSpace(string(runes[start:])); tail != "" {
		sentences = append(sentences, tail)
	}
	return sentences
}

func isTerminator(r rune) bool {
	return r == '.' || r == '!' || r == '?'
}

// lastSpaceBefore finds a cut point at or before limit, preferring a word
// boundary.
func lastSpaceBefore(s string, limit int) int {
	if limit >= len(s) {
		return len(s)
	}
	for i := limit; i > limit/2; i-- {
		if unicode.IsSpace(rune(s[i])) {
			return i
		}
	}
	return limit
}
