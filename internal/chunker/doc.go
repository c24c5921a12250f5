// Package chunker divides document text into overlapping passages for
// embedding and search.
//
// Splitting prefers natural boundaries: paragraphs first, then sentences,
// with a hard cut only when a single sentence exceeds the size limit.
// Consecutive passages share a short overlap so an answer that straddles
// a boundary remains findable from either side.
//
// # Basic Usage
//
//	c := chunker.New()
//	chunks, err := c.ChunkDocument("doc-42", text)
//	if err != nil {
//	    log.Fatal(err)
//	}
//
// Ordinals are contiguous from zero, which is what neighbor-context
// lookup relies on at search time.
package chunker
