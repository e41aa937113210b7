package sql_test

import (
	"context"
	"testing"

	"github.com/google/uuid"

	"github.com/kkpjssks/queuectl"
	"github.com/kkpjssks/queuectl/job"
	gsql "github.com/kkpjssks/queuectl/sql"
)

func TestCleanCompleted(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	store := gsql.NewStore(db)
	cleaner := gsql.NewCleaner(db)

	_, _ = store.Enqueue(ctx, queuectl.Spec{Id: uuid.NewString(), Command: "true"}, testConfig())
	jb, _ := store.Claim(ctx)
	_ = store.Complete(ctx, jb.Id)

	count, err := cleaner.CleanCompleted(ctx, nil)
	if err != nil {
		t.Fatal(err)
	}
	if count != 1 {
		t.Fatalf("expected 1 deleted job, got %d", count)
	}

	jobs, err := store.List(ctx, job.Completed)
	if err != nil {
		t.Fatal(err)
	}
	if len(jobs) != 0 {
		t.Fatalf("expected no completed jobs left, got %d", len(jobs))
	}
}

func TestCleanDLQ(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	store := gsql.NewStore(db)
	cleaner := gsql.NewCleaner(db)

	_, _ = store.Enqueue(ctx, queuectl.Spec{Id: uuid.NewString(), Command: "false", MaxRetries: 1}, testConfig())
	jb, _ := store.Claim(ctx)
	jb.Attempts = 1
	if err := store.MoveToDLQ(ctx, jb); err != nil {
		t.Fatal(err)
	}

	count, err := cleaner.CleanDLQ(ctx, nil)
	if err != nil {
		t.Fatal(err)
	}
	if count != 1 {
		t.Fatalf("expected 1 deleted dlq row, got %d", count)
	}

	dead, err := store.ListDLQ(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if len(dead) != 0 {
		t.Fatalf("expected empty dlq, got %d", len(dead))
	}
}
