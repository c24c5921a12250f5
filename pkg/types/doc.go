// Package types defines the shared domain model for hybrid document search:
// chunks, search options, scored hits, and the sentinel errors the core's
// components agree on.
//
// Types here are plain data with no behavior beyond validation and copying,
// so every internal package can depend on them without cycles.
package types
