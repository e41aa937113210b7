package queuectl

import (
	"context"
	"time"
)

// Cleaner provides an optional retention mechanism for permanently
// removing terminal rows from storage.
//
// Claim, Complete, and ScheduleRetry never delete a row themselves, so
// jobs.Completed and dlq rows accumulate forever unless something else
// removes them. Cleaner never touches Pending, Processing, or Failed
// rows.
type Cleaner interface {
	// CleanCompleted deletes rows from the jobs relation whose Status
	// is Completed and whose UpdatedAt is less than or equal to
	// before. If before is nil, no time filter is applied and every
	// Completed row is eligible.
	//
	// CleanCompleted returns the number of deleted rows.
	CleanCompleted(ctx context.Context, before *time.Time) (int64, error)

	// CleanDLQ deletes rows from the dlq relation whose FailedAt is
	// less than or equal to before. If before is nil, every dlq row is
	// eligible.
	//
	// CleanDLQ returns the number of deleted rows.
	CleanDLQ(ctx context.Context, before *time.Time) (int64, error)
}
