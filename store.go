package queuectl

import (
	"context"
	"errors"
	"time"

	"github.com/kkpjssks/queuectl/job"
)

// ErrJobNotFound indicates that an operation referenced a job id
// that is not present in the jobs relation.
var ErrJobNotFound = errors.New("job not found")

// Spec describes a job to be enqueued.
//
// Id is optional; if empty, the caller (typically the Control API)
// assigns a fresh UUID before calling Store.Enqueue. MaxRetries, if
// non-zero, overrides the config's default for this job only.
type Spec struct {
	Id         string
	Command    string
	MaxRetries uint32
}

// Config holds the retry parameters applied at enqueue time and by
// the retry policy.
//
// MaxRetries is the default attempt ceiling for jobs that do not
// override it in their Spec. BackoffBase is the integer b >= 1 used
// by the retry policy to compute the k-th retry delay as b^k seconds.
type Config struct {
	MaxRetries  uint32
	BackoffBase uint32
}

// Store is the durable, transactional backing of the job queue.
//
// Store owns all persistent state. Implementations must provide
// write-exclusive transactions for Claim so that no two workers ever
// observe the same job id as claimed (see Claim's doc comment).
//
// All methods accept a context for cancellation of the storage
// operation itself; cancellation does not affect already-committed
// state.
type Store interface {
	// Enqueue inserts a new job with Status=Pending, Attempts=0,
	// RunAt=now, MaxRetries=spec.MaxRetries or config.MaxRetries if
	// the spec does not override it.
	//
	// If spec.Id is empty, implementations are not required to
	// generate one; the Control API is responsible for assigning a
	// fresh id before calling Enqueue.
	//
	// If spec.Id already exists in the jobs or dlq relation, Enqueue
	// returns an error and inserts nothing. A collision with the jobs
	// relation may surface as the backend's constraint-violation error
	// unwrapped.
	Enqueue(ctx context.Context, spec Spec, config Config) (string, error)

	// Claim atomically selects the oldest (CreatedAt ascending, ties
	// broken by Id) job whose Status is claimable (Pending or Failed)
	// and whose RunAt has elapsed, transitions it to Processing, bumps
	// UpdatedAt, and returns the resulting snapshot.
	//
	// Claim returns (nil, nil) if no eligible job exists, and also if
	// backend contention (a busy/locked write) prevents acquiring the
	// exclusive transaction within a bounded wait: such contention is
	// not a caller-visible error, it means "no job this tick".
	//
	// The select-then-update pair is one committed transaction: no two
	// concurrent Claim calls may return the same job id.
	Claim(ctx context.Context) (*job.Job, error)

	// Complete transitions a Processing job to Completed, increments
	// Attempts, and bumps UpdatedAt. It is a no-op, not an error, if
	// the row was removed
	// concurrently (for example by a DLQ promotion racing a crash
	// recovery path).
	Complete(ctx context.Context, id string) error

	// ScheduleRetry transitions a job to Failed, recording the new
	// attempt count and the next eligible run time.
	ScheduleRetry(ctx context.Context, id string, attempts uint32, nextRunAt time.Time) error

	// MoveToDLQ atomically inserts a dlq row derived from snapshot and
	// deletes the corresponding jobs row. FailedAt defaults to now.
	MoveToDLQ(ctx context.Context, snapshot *job.Job) error

	// RetryDLQ atomically reinstates a dlq row as a fresh jobs row:
	// Attempts=0, MaxRetries=config.MaxRetries, RunAt=now,
	// CreatedAt preserved from the dlq row, then deletes the dlq row.
	//
	// RetryDLQ returns (false, nil) if no dlq row with the given id
	// exists.
	RetryDLQ(ctx context.Context, id string, config Config) (bool, error)

	// List returns jobs in the jobs relation matching status. If
	// status is job.Unknown, no status filter is applied.
	List(ctx context.Context, status job.Status) ([]*job.Job, error)

	// ListDLQ returns all rows currently quarantined in the dlq
	// relation, ordered by FailedAt ascending.
	ListDLQ(ctx context.Context) ([]*job.DeadJob, error)

	// Counts returns the number of jobs rows grouped by Status, plus
	// the number of dlq rows.
	Counts(ctx context.Context) (Counts, error)
}

// Counts summarizes the state of the queue for the status CLI
// command.
type Counts struct {
	Pending    int64
	Processing int64
	Failed     int64
	Completed  int64
	Dead       int64
}
