// Package vectorstore persists document chunks and their embeddings and
// serves filtered nearest-neighbor queries over them.
//
// The default implementation is SQLite-backed. Vectors are float32
// little-endian blobs and cosine similarity is computed in Go, so the same
// code runs under both the cgo driver (mattn/go-sqlite3, tag cgo_sqlite)
// and the pure Go driver (modernc.org/sqlite, the default).
//
// The Store interface doubles as the chunk lookup used by context
// enhancement: GetChunkByOrdinal fetches a hit's neighbors in O(1).
package vectorstore
