// Package store provides SQLite-backed durable storage for decomposition
// traces.
//
// The store is an append-only log with:
//   - Runs: one row per engine session
//   - Deconstructions: one row per executed decomposition request, with
//     the decompositions it resolved and the bindings it produced
//
// # Ordering
//
// All ordering uses seq INTEGER (logical clock), never timestamps. All
// queries include ORDER BY seq ASC, id ASC COLLATE BINARY so repeated
// reads and replays see identical results.
//
// # Idempotency
//
// Writes use ON CONFLICT DO NOTHING. Deconstruction IDs are content
// addressed (see ir.DeconstructionID), so writing the same record twice
// is a no-op.
//
// # Database Configuration
//
//   - WAL mode: Concurrent reads during writes
//   - synchronous=NORMAL: Balance durability/performance
//   - busy_timeout=5000: Wait for locks up to 5 seconds
//   - foreign_keys=ON: Enforce referential integrity
package store
