// Package store provides SQLite-backed storage for process steps, batches,
// batch links and production units.
//
// The store is the boundary adapter the CLI drives the engines with. It
// implements every reader in internal/source, computes bounded provenance
// slices with a recursive query, and commits bottling allocations in a
// single transaction.
//
// # Deterministic reads
//
// Every multi-row query has an ORDER BY. Steps and inventory come back
// oldest first, units and links by id. Empty results are empty slices,
// never nil.
//
// # Database configuration
//
//   - WAL mode: concurrent reads during writes
//   - synchronous=NORMAL: balance durability/performance
//   - busy_timeout=5000: wait for locks up to 5 seconds
//   - foreign_keys=ON: batches must belong to a stored step
package store
