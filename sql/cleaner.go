package sql

import (
	"context"
	"time"

	"github.com/uptrace/bun"

	"github.com/kkpjssks/queuectl/job"
)

// Cleaner implements queuectl.Cleaner using a SQL backend.
//
// Cleaner permanently removes terminal rows from storage. It does not
// participate in claim or settlement logic, and never touches
// Pending, Processing, or Failed rows in the jobs table.
type Cleaner struct {
	db *bun.DB
}

// NewCleaner creates a new SQL-backed Cleaner.
//
// The provided *bun.DB must be properly configured and connected.
// Schema initialization must be completed before using Cleaner.
func NewCleaner(db *bun.DB) *Cleaner {
	return &Cleaner{db: db}
}

// CleanCompleted deletes Completed rows from the jobs table. If
// before is non-nil, only rows with updated_at <= *before are
// deleted.
func (c *Cleaner) CleanCompleted(ctx context.Context, before *time.Time) (int64, error) {
	query := c.db.NewDelete().
		Model((*jobModel)(nil)).
		Where("status = ?", job.Completed)
	if before != nil {
		query.Where("updated_at <= ?", before)
	}
	res, err := query.Exec(ctx)
	if err != nil {
		return 0, err
	}
	return getAffected(res), nil
}

// CleanDLQ deletes rows from the dlq table. If before is non-nil,
// only rows with failed_at <= *before are deleted.
func (c *Cleaner) CleanDLQ(ctx context.Context, before *time.Time) (int64, error) {
	query := c.db.NewDelete().Model((*dlqModel)(nil))
	if before != nil {
		query.Where("failed_at <= ?", before)
	}
	res, err := query.Exec(ctx)
	if err != nil {
		return 0, err
	}
	return getAffected(res), nil
}
