package sql_test

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/kkpjssks/queuectl"
	"github.com/kkpjssks/queuectl/job"
	gsql "github.com/kkpjssks/queuectl/sql"
)

func testConfig() queuectl.Config {
	return queuectl.Config{MaxRetries: 3, BackoffBase: 2}
}

func TestEnqueueAndClaim(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	store := gsql.NewStore(db)

	id, err := store.Enqueue(ctx, queuectl.Spec{Id: uuid.NewString(), Command: "echo hi"}, testConfig())
	if err != nil {
		t.Fatal(err)
	}

	jb, err := store.Claim(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if jb == nil {
		t.Fatal("expected a claimable job")
	}
	if jb.Id != id {
		t.Fatalf("expected id %s, got %s", id, jb.Id)
	}
	if jb.Status != job.Processing {
		t.Fatalf("expected Processing, got %v", jb.Status)
	}

	if again, err := store.Claim(ctx); err != nil || again != nil {
		t.Fatalf("expected no further claimable job, got %v, %v", again, err)
	}
}

func TestComplete(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	store := gsql.NewStore(db)

	_, _ = store.Enqueue(ctx, queuectl.Spec{Id: uuid.NewString(), Command: "true"}, testConfig())
	jb, _ := store.Claim(ctx)

	if err := store.Complete(ctx, jb.Id); err != nil {
		t.Fatal(err)
	}

	jobs, err := store.List(ctx, job.Completed)
	if err != nil {
		t.Fatal(err)
	}
	if len(jobs) != 1 {
		t.Fatalf("expected 1 completed job, got %d", len(jobs))
	}

	if err := store.Complete(ctx, jb.Id); err != queuectl.ErrJobNotFound {
		t.Fatalf("expected ErrJobNotFound on double-complete, got %v", err)
	}
}

func TestScheduleRetry(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	store := gsql.NewStore(db)

	_, _ = store.Enqueue(ctx, queuectl.Spec{Id: uuid.NewString(), Command: "false"}, testConfig())
	jb, _ := store.Claim(ctx)

	future := time.Now().Add(time.Hour)
	if err := store.ScheduleRetry(ctx, jb.Id, 1, future); err != nil {
		t.Fatal(err)
	}

	if again, err := store.Claim(ctx); err != nil || again != nil {
		t.Fatalf("expected job not yet due, got %v, %v", again, err)
	}

	jobs, err := store.List(ctx, job.Failed)
	if err != nil {
		t.Fatal(err)
	}
	if len(jobs) != 1 || jobs[0].Attempts != 1 {
		t.Fatalf("expected one failed job with attempts=1, got %+v", jobs)
	}
}

func TestMoveToDLQAndRetry(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	store := gsql.NewStore(db)

	id, _ := store.Enqueue(ctx, queuectl.Spec{Id: uuid.NewString(), Command: "false", MaxRetries: 1}, testConfig())
	jb, _ := store.Claim(ctx)
	jb.Attempts = 1
	originalCreatedAt := jb.CreatedAt

	if err := store.MoveToDLQ(ctx, jb); err != nil {
		t.Fatal(err)
	}

	if jobs, err := store.List(ctx, job.Unknown); err != nil || len(jobs) != 0 {
		t.Fatalf("expected jobs table empty, got %v, %v", jobs, err)
	}

	dead, err := store.ListDLQ(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if len(dead) != 1 || dead[0].Id != id {
		t.Fatalf("expected one dead job with id %s, got %+v", id, dead)
	}

	ok, err := store.RetryDLQ(ctx, id, testConfig())
	if err != nil {
		t.Fatal(err)
	}
	if !ok {
		t.Fatal("expected RetryDLQ to report success")
	}

	jobs, err := store.List(ctx, job.Pending)
	if err != nil {
		t.Fatal(err)
	}
	if len(jobs) != 1 || jobs[0].Attempts != 0 {
		t.Fatalf("expected one pending job with attempts reset, got %+v", jobs)
	}
	if !jobs[0].CreatedAt.Equal(originalCreatedAt) {
		t.Fatalf("expected CreatedAt to survive DLQ round-trip: original %v, got %v", originalCreatedAt, jobs[0].CreatedAt)
	}

	if ok, err := store.RetryDLQ(ctx, id, testConfig()); err != nil || ok {
		t.Fatalf("expected no-op on repeat RetryDLQ, got %v, %v", ok, err)
	}
}

func TestCounts(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	store := gsql.NewStore(db)

	_, _ = store.Enqueue(ctx, queuectl.Spec{Id: uuid.NewString(), Command: "a"}, testConfig())
	_, _ = store.Enqueue(ctx, queuectl.Spec{Id: uuid.NewString(), Command: "b"}, testConfig())

	counts, err := store.Counts(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if counts.Pending != 2 {
		t.Fatalf("expected 2 pending, got %d", counts.Pending)
	}
}
