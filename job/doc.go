// Package job defines the stateful representation of a unit of work
// within the queuectl job queue lifecycle.
//
// A Job carries its shell command plus delivery and scheduling
// metadata: Status, Attempts, MaxRetries, and the timestamps that
// drive claiming and retry.
//
// Job values are typically returned by Store.Claim and passed back to
// the storage layer for state transitions (Complete, ScheduleRetry,
// MoveToDLQ). A DeadJob is the quarantine-side snapshot created once a
// Job exhausts its retries; it lives in a separate relation and is
// never claimed by a worker.
//
// Job and DeadJob are not intended to be constructed manually by user
// code. Their fields reflect the authoritative state stored by the
// queue backend.
package job
