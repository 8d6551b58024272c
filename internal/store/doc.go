// Package store provides a SQLite-backed archive of finished runs.
//
// Each archived run records its configuration, counters, the per-symbol
// snapshot, the alerts in emission order, and the report digest. The archive
// is an output sink: the engine never reads it back.
//
// # Ordering
//
// Runs are numbered by seq, assigned at insert. Every listing uses
// ORDER BY seq ASC, id COLLATE BINARY ASC. Symbols are read back in ascending
// symbol order and alerts in their original order.
//
// # Idempotency
//
// WriteRun is keyed by run ID. Writing the same ID twice is a no-op that
// reports inserted=false.
//
// # Layout versions
//
// schema.sql holds the tables every archive has. Later changes are listed in
// archiveMigrations and tracked with PRAGMA user_version; Open applies the
// pending ones in a single transaction and refuses archives written by a
// newer version.
//
//   - 0: runs, run_symbols, run_alerts
//   - 1: idx_runs_digest, used by RunsWithDigest
//
// # Connection settings
//
// Set through the DSN so they hold on every connection: WAL journal,
// synchronous=NORMAL, busy_timeout=5000, foreign_keys=on.
package store
