// Package sql provides a bun-based SQL storage implementation for
// queuectl.
//
// This package implements queuectl.Store and queuectl.Cleaner using a
// relational database via github.com/uptrace/bun.
//
// # Overview
//
// The SQL backend provides:
//
//   - durable persistence of jobs and dead-lettered jobs, as two
//     separate relations (jobs, dlq)
//   - atomic claim transitions via UPDATE ... RETURNING
//   - atomic move-to-DLQ / retry-from-DLQ via single transactions
//
// It is compatible with SQLite, PostgreSQL and other bun-supported
// dialects, subject to their transactional guarantees. queuectl itself
// targets SQLite (modernc.org/sqlite, a pure-Go driver).
//
// # Concurrency Model
//
// Claim is implemented using a single atomic UPDATE statement with a
// subquery to avoid a race between selecting a job and transitioning
// its state. The caller (cmd/jobqctl, and the tests) serializes all
// access to the database through a single *sql.DB connection
// (SetMaxOpenConns(1)), which in combination with SQLite's WAL mode
// and a configured busy_timeout avoids SQLITE_BUSY under concurrent
// Claim calls from multiple workers.
//
// # Schema
//
// InitDB (or MustInitDB) creates:
//
//   - the jobs table (if not exists), corresponding to jobModel
//   - the dlq table (if not exists), corresponding to dlqModel
//   - index (status, run_at) on jobs, for Claim
//   - index (status, updated_at) on jobs, for Cleaner.CleanCompleted
//   - index (failed_at) on dlq, for Cleaner.CleanDLQ
//
// InitDB is idempotent and runs inside a transaction. It does not
// perform destructive migrations; schema evolution must be handled
// externally.
//
// # Database Lifecycle
//
// This package does not manage connection pooling, migrations, or
// database lifecycle. The caller is responsible for creating and
// configuring the *bun.DB, setting WAL mode and busy_timeout, and
// running InitDB before use.
//
// # Limitations
//
// There is no lease or visibility-timeout mechanism: once a job
// transitions to Processing, the SQL backend does not reclaim it on
// its own. A crashed worker's in-flight job stays Processing until an
// operator intervenes (see the root package's DESIGN.md for the
// reasoning behind not implementing automatic reclaim).
//
// # Summary
//
// Package sql provides a pragmatic, storage-backed implementation of
// queuectl.Store and queuectl.Cleaner suitable for a local,
// single-host deployment, while keeping queue logic storage-agnostic.
package sql
