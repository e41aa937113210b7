package sql

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/uptrace/bun"

	"github.com/kkpjssks/queuectl"
	"github.com/kkpjssks/queuectl/job"
)

// Store implements queuectl.Store using a SQL backend.
//
// Store performs atomic state transitions using UPDATE ... RETURNING
// semantics to ensure safe concurrent access across multiple workers
// claiming from the same jobs table.
//
// The implementation assumes:
//
//   - durable writes
//   - transactional guarantees provided by the underlying database
//   - correct indexing of status and scheduling columns (see InitDB)
type Store struct {
	db *bun.DB
}

// NewStore creates a new SQL-backed Store.
//
// The provided *bun.DB must be properly configured and connected, and
// InitDB must have been run against it before use.
func NewStore(db *bun.DB) *Store {
	return &Store{db: db}
}

// Enqueue inserts a new job in the Pending state.
//
// If spec.MaxRetries is zero, config.MaxRetries is used as the job's
// retry budget. If spec.Id is already in the dlq table, Enqueue
// returns an error naming the id; a collision with the jobs table
// surfaces as the backend's primary-key constraint error.
func (s *Store) Enqueue(ctx context.Context, spec queuectl.Spec, config queuectl.Config) (string, error) {
	maxRetries := spec.MaxRetries
	if maxRetries == 0 {
		maxRetries = config.MaxRetries
	}
	dead, err := s.db.NewSelect().Model((*dlqModel)(nil)).Where("id = ?", spec.Id).Exists(ctx)
	if err != nil {
		return "", err
	}
	if dead {
		return "", fmt.Errorf("duplicate id %q: already in dlq", spec.Id)
	}
	model := fromSpec(spec.Id, spec.Command, maxRetries)
	if _, err := s.db.NewInsert().Model(model).Exec(ctx); err != nil {
		return "", err
	}
	return model.Id, nil
}

// Claim selects one eligible job and transitions it to Processing
// atomically.
//
// A job is eligible if status = Pending or status = Failed (a failed
// job whose retry delay has elapsed) and run_at <= now. run_at is
// only the eligibility filter; among eligible rows, the oldest by
// created_at (ties broken by id) is claimed first, so a job with a
// longer backoff never jumps ahead of one that was created earlier.
//
// Claim relies on a single UPDATE ... WHERE id IN (subquery) statement
// with RETURNING to avoid a race between selection and the state
// transition: two concurrent Claim calls can never return the same
// row, because the subquery and the UPDATE run as one atomic
// statement against the single SQLite connection.
//
// Claim returns (nil, nil) if no job is currently eligible, and also
// when SQLite reports SQLITE_BUSY or SQLITE_LOCKED for the claim.
func (s *Store) Claim(ctx context.Context) (*job.Job, error) {
	now := time.Now()
	subQuery := s.db.NewSelect().
		Model((*jobModel)(nil)).
		Column("id").
		Where("run_at <= ?", now).
		Where("status IN (?, ?)", job.Pending, job.Failed).
		Order("created_at ASC", "id ASC").
		Limit(1)
	var models []*jobModel
	err := s.db.NewUpdate().
		Model((*jobModel)(nil)).
		Set("status = ?", job.Processing).
		Set("updated_at = ?", now).
		Where("id IN (?)", subQuery).
		Returning("*").
		Scan(ctx, &models)
	if err != nil {
		if msg := err.Error(); strings.Contains(msg, "SQLITE_BUSY") || strings.Contains(msg, "SQLITE_LOCKED") {
			return nil, nil
		}
		return nil, err
	}
	if len(models) == 0 {
		return nil, nil
	}
	return models[0].toJob(), nil
}

// Complete transitions a Processing job to Completed and increments
// its attempts, since the successful run is itself an execution try.
//
// If the row no longer exists, Complete is a no-op and returns nil. If
// the row exists but is not Processing, Complete returns
// queuectl.ErrJobNotFound.
func (s *Store) Complete(ctx context.Context, id string) error {
	now := time.Now()
	res, err := s.db.NewUpdate().
		Model((*jobModel)(nil)).
		Set("status = ?", job.Completed).
		Set("attempts = attempts + 1").
		Set("updated_at = ?", now).
		Where("id = ?", id).
		Where("status = ?", job.Processing).
		Exec(ctx)
	if err != nil {
		return err
	}
	if !isAffected(res) {
		exists, err := s.db.NewSelect().Model((*jobModel)(nil)).Where("id = ?", id).Exists(ctx)
		if err != nil {
			return err
		}
		if !exists {
			return nil
		}
		return queuectl.ErrJobNotFound
	}
	return nil
}

// ScheduleRetry transitions a Processing job back to Failed,
// recording attempts and the next eligible run_at.
//
// If no row with id is currently Processing, ScheduleRetry returns
// queuectl.ErrJobNotFound.
func (s *Store) ScheduleRetry(ctx context.Context, id string, attempts uint32, nextRunAt time.Time) error {
	now := time.Now()
	res, err := s.db.NewUpdate().
		Model((*jobModel)(nil)).
		Set("status = ?", job.Failed).
		Set("attempts = ?", attempts).
		Set("run_at = ?", nextRunAt).
		Set("updated_at = ?", now).
		Where("id = ?", id).
		Where("status = ?", job.Processing).
		Exec(ctx)
	if err != nil {
		return err
	}
	if !isAffected(res) {
		return queuectl.ErrJobNotFound
	}
	return nil
}

// MoveToDLQ deletes snapshot's row from jobs and inserts a
// corresponding dlq row, within a single transaction.
//
// snapshot is the in-memory Job the worker observed right before
// giving up on it; its Attempts field (already incremented by the
// caller) is carried into the dlq row.
func (s *Store) MoveToDLQ(ctx context.Context, snapshot *job.Job) error {
	return s.db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		res, err := tx.NewDelete().
			Model((*jobModel)(nil)).
			Where("id = ?", snapshot.Id).
			Exec(ctx)
		if err != nil {
			return err
		}
		if !isAffected(res) {
			return queuectl.ErrJobNotFound
		}
		_, err = tx.NewInsert().Model(fromJobSnapshot(snapshot)).Exec(ctx)
		return err
	})
}

// RetryDLQ removes the dlq row identified by id and reinserts it into
// jobs as a fresh Pending job with zeroed Attempts.
//
// If config.MaxRetries is nonzero, it overrides the dead job's
// original MaxRetries. RetryDLQ returns (false, nil) if no dlq row
// with id exists.
func (s *Store) RetryDLQ(ctx context.Context, id string, config queuectl.Config) (bool, error) {
	var found bool
	err := s.db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		var dead dlqModel
		err := tx.NewSelect().
			Model(&dead).
			Where("id = ?", id).
			Scan(ctx)
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return nil
			}
			return err
		}
		found = true
		if _, err := tx.NewDelete().Model((*dlqModel)(nil)).Where("id = ?", id).Exec(ctx); err != nil {
			return err
		}
		maxRetries := config.MaxRetries
		if maxRetries == 0 {
			maxRetries = dead.MaxRetries
		}
		reinstated := fromSpecWithCreatedAt(dead.Id, dead.Command, maxRetries, dead.CreatedAt)
		_, err = tx.NewInsert().Model(reinstated).Exec(ctx)
		return err
	})
	if err != nil {
		return false, err
	}
	return found, nil
}

// List returns every job in the jobs table, optionally filtered by
// status. status may be job.Unknown to request no filter.
func (s *Store) List(ctx context.Context, status job.Status) ([]*job.Job, error) {
	var models []*jobModel
	query := s.db.NewSelect().Model(&models)
	if status != job.Unknown {
		query.Where("status = ?", status)
	}
	if err := query.Order("run_at ASC").Scan(ctx); err != nil {
		return nil, err
	}
	ret := make([]*job.Job, len(models))
	for i, m := range models {
		ret[i] = m.toJob()
	}
	return ret, nil
}

// ListDLQ returns every row currently quarantined in the dlq table.
func (s *Store) ListDLQ(ctx context.Context) ([]*job.DeadJob, error) {
	var models []*dlqModel
	if err := s.db.NewSelect().Model(&models).Order("failed_at ASC").Scan(ctx); err != nil {
		return nil, err
	}
	ret := make([]*job.DeadJob, len(models))
	for i, m := range models {
		ret[i] = m.toDeadJob()
	}
	return ret, nil
}

// Counts reports the number of jobs in each state plus the dlq size.
func (s *Store) Counts(ctx context.Context) (queuectl.Counts, error) {
	var ret queuectl.Counts
	pending, err := s.countStatus(ctx, job.Pending)
	if err != nil {
		return ret, err
	}
	processing, err := s.countStatus(ctx, job.Processing)
	if err != nil {
		return ret, err
	}
	failed, err := s.countStatus(ctx, job.Failed)
	if err != nil {
		return ret, err
	}
	completed, err := s.countStatus(ctx, job.Completed)
	if err != nil {
		return ret, err
	}
	dead, err := s.db.NewSelect().Model((*dlqModel)(nil)).Count(ctx)
	if err != nil {
		return ret, err
	}
	ret.Pending = pending
	ret.Processing = processing
	ret.Failed = failed
	ret.Completed = completed
	ret.Dead = int64(dead)
	return ret, nil
}

func (s *Store) countStatus(ctx context.Context, status job.Status) (int64, error) {
	n, err := s.db.NewSelect().Model((*jobModel)(nil)).Where("status = ?", status).Count(ctx)
	return int64(n), err
}
