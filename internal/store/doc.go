// Package store provides the SQLite-backed quantq workspace.
//
// A workspace holds two tables:
//   - journal: an append-only log of registry mutations (register, rename,
//     remove), replayed in seq order to rebuild a registry
//   - reports: saved quantified query reports
//
// # Ordering
//
// Journal entries are ordered by seq, an autoincrement key, never by
// timestamp. Replaying the journal into an empty registry reproduces the
// registry that wrote it.
//
// # Integrity
//
// Every register entry stores the canonical JSON of its definition and
// the definition fingerprint (ir.DefinitionHash). Replay recomputes the
// fingerprint and refuses entries whose payload no longer matches.
//
// # Database Configuration
//
//   - WAL mode: Concurrent reads during writes
//   - synchronous=NORMAL: Balance durability/performance
//   - busy_timeout=5000: Wait for locks up to 5 seconds
//   - foreign_keys=ON: Enforce referential integrity
package store
