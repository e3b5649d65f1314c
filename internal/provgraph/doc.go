// Package provgraph implements the in-memory provenance graph and its
// traversal queries.
//
// A Graph is built fresh per query from already-fetched process steps and
// is never persisted. Nodes are keyed by process-step id; an edge runs from
// the step owning a predecessor batch to the step owning the successor
// batch.
//
// # Bounds
//
// Every traversal is bounded by Options.MaxDepth and Options.MaxNodes so
// it terminates on malformed or very large inputs. Hitting a bound
// truncates the result; it is not an error. Callers that need "all"
// results must size the bounds generously. Truncations are reported to
// the graph's Observer, if one is set.
//
// # Concurrency
//
// A Graph is immutable after construction and holds no locks. Traversal
// state (visited sets, memo tables) is local to each call, so concurrent
// queries on the same Graph are safe.
package provgraph
