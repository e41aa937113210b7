package job

import "time"

// Job is a snapshot of a unit of work managed by the queue storage.
//
// CreatedAt is set once at first insertion and is preserved across
// retries and DLQ re-admission. UpdatedAt records the last state
// transition.
//
// Status represents the current state in the job lifecycle.
// Attempts counts how many execution tries have completed (success or
// failure). MaxRetries is the number of failed attempts tolerated
// before the job is moved to the dead-letter queue. RunAt is the
// earliest time a worker may claim the job.
//
// Job instances are snapshots of storage state. Mutating fields
// directly does not change the underlying queue state; transitions
// must be performed through the Store interface.
type Job struct {
	Id      string
	Command string

	CreatedAt time.Time
	UpdatedAt time.Time

	Status     Status
	Attempts   uint32
	MaxRetries uint32
	RunAt      time.Time
}

// DeadJob is the dead-letter snapshot of a Job that has exhausted its
// retries. It mirrors the fields of Job, preserving CreatedAt, and adds
// FailedAt to record the moment of quarantine.
type DeadJob struct {
	Id         string
	Command    string
	Attempts   uint32
	MaxRetries uint32
	CreatedAt  time.Time
	FailedAt   time.Time
}
