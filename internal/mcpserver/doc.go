// Package mcpserver exposes document search over the Model Context
// Protocol so LLM assistants can ingest and query documents directly.
//
// Four tools are registered:
//
//   - ingest_document: chunk, embed, and index raw text or pre-chunked
//     passages for a document ID
//   - search_document: hybrid semantic + keyword search within one
//     document, with pagination and score thresholding
//   - delete_document: remove a document's chunks and embeddings
//   - get_status: index coverage and backend availability for a document
//
// The server speaks stdio; responses are indented JSON inside a text
// content block. Degraded search responses carry mode "mock" exactly as
// the search core produces them.
package mcpserver
