// Package queuectl provides a local, single-host background job
// queue with durable storage, crash-safe multi-worker execution,
// exponential-backoff retry, and a dead-letter quarantine for
// permanently failing work.
//
// # Overview
//
// queuectl models a durable queue of shell-command jobs with explicit
// state transitions. It separates the job's scheduling state
// (job.Job, stored in the jobs relation) from its dead-letter
// snapshot (job.DeadJob, stored in a separate dlq relation), and
// defines a Store interface so storage backends can be swapped
// without coupling the queue logic to a specific database. The sql
// subpackage provides the SQLite-backed implementation.
//
// # Delivery Semantics
//
// A job is claimed by at most one worker at a time (Store.Claim is
// the single correctness fulcrum — see its doc comment). A worker
// that crashes between claim and settlement leaves its job stuck in
// Processing; queuectl does not reclaim it automatically (see
// DESIGN.md's discussion of a visibility-timeout reclaim pass).
//
// # State Machine
//
// Jobs in the jobs relation follow:
//
//	pending    -> processing
//	processing -> completed
//	processing -> failed       (ScheduleRetry)
//	failed     -> processing   (Claim, once RunAt elapses)
//	processing -> (removed, row appears in dlq)
//
// completed is terminal. A dlq row is never claimed; it is only
// reintroduced via Store.RetryDLQ.
//
// # Retry Policy
//
// When a job's command fails or times out:
//
//   - If attempts < max_retries, the job is rescheduled with a delay
//     of backoff_base^attempts seconds.
//   - Otherwise, the job is moved to the dlq relation.
//
// Attempts is incremented on every failed or timed-out execution.
//
// # Worker and Supervisor
//
// Worker implements the per-worker claim/execute/settle cycle.
// Supervisor spawns N Worker loops as goroutines sharing a stop
// channel, owns the PID-file single-instance lock, and relays
// SIGINT/SIGTERM as a cooperative shutdown signal: in-flight jobs run
// to completion or to their Executor timeout before a Worker exits.
//
// # Control API
//
// Control is the thin surface the CLI front end (cmd/jobqctl)
// consumes: Enqueue, Status, List, DLQList, DLQRetry, ConfigGet/Set,
// WorkerStart, WorkerStop.
//
// # Concurrency Model
//
// Each Worker is single-threaded and processes jobs sequentially; the
// Supervisor itself does no job work. The Store is the only
// coordination medium. Shutdown is graceful: an in-flight job finishes
// before its Worker goroutine exits.
//
// # Storage Expectations
//
// Implementations of Store must ensure atomic claim transitions,
// durable persistence, and the invariants documented on each method.
//
// # Summary
//
// queuectl provides a minimal yet structured foundation for a local
// background-processing system with explicit lifecycle control, retry
// semantics, dead-letter quarantine, and a pluggable storage backend.
package queuectl
