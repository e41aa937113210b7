package queuectl_test

import (
	"context"
	"database/sql"
	"log/slog"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/sqlitedialect"

	"github.com/kkpjssks/queuectl"
	"github.com/kkpjssks/queuectl/job"
	gsql "github.com/kkpjssks/queuectl/sql"

	_ "modernc.org/sqlite"
)

func newWorkerTestDB(t *testing.T) *bun.DB {
	t.Helper()
	sqlDB, err := sql.Open("sqlite", "file::memory:?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)")
	if err != nil {
		t.Fatal(err)
	}
	sqlDB.SetMaxOpenConns(1)
	db := bun.NewDB(sqlDB, sqlitedialect.New())
	if err := gsql.InitDB(context.Background(), db); err != nil {
		t.Fatal(err)
	}
	return db
}

func waitForStatus(t *testing.T, store queuectl.Store, status job.Status, timeout time.Duration) []*job.Job {
	t.Helper()
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		jobs, err := store.List(context.Background(), status)
		if err != nil {
			t.Fatal(err)
		}
		if len(jobs) > 0 {
			return jobs
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatalf("timed out waiting for a job in status %v", status)
	return nil
}

func TestWorkerCompletesJob(t *testing.T) {
	db := newWorkerTestDB(t)
	store := gsql.NewStore(db)
	logger := slog.Default()

	cfg := queuectl.WorkerConfig{
		LockTimeout: 200 * time.Millisecond,
		Config:      queuectl.Config{MaxRetries: 3, BackoffBase: 2},
	}
	w := queuectl.NewWorker(0, store, cfg, logger)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	stop := make(chan struct{})

	done := make(chan struct{})
	go func() {
		w.Run(ctx, stop)
		close(done)
	}()

	_, err := store.Enqueue(ctx, queuectl.Spec{Id: uuid.NewString(), Command: "true"}, cfg.Config)
	if err != nil {
		t.Fatal(err)
	}

	waitForStatus(t, store, job.Completed, 3*time.Second)

	close(stop)
	<-done
}

func TestWorkerSchedulesRetryOnFailure(t *testing.T) {
	db := newWorkerTestDB(t)
	store := gsql.NewStore(db)
	logger := slog.Default()

	cfg := queuectl.WorkerConfig{
		LockTimeout: 200 * time.Millisecond,
		Config:      queuectl.Config{MaxRetries: 3, BackoffBase: 2},
	}
	w := queuectl.NewWorker(0, store, cfg, logger)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	stop := make(chan struct{})

	done := make(chan struct{})
	go func() {
		w.Run(ctx, stop)
		close(done)
	}()

	_, err := store.Enqueue(ctx, queuectl.Spec{Id: uuid.NewString(), Command: "false"}, cfg.Config)
	if err != nil {
		t.Fatal(err)
	}

	jobs := waitForStatus(t, store, job.Failed, 3*time.Second)
	if jobs[0].Attempts != 1 {
		t.Fatalf("expected attempts=1, got %d", jobs[0].Attempts)
	}

	close(stop)
	<-done
}

func TestWorkerMovesToDLQAfterRetriesExhausted(t *testing.T) {
	db := newWorkerTestDB(t)
	store := gsql.NewStore(db)
	logger := slog.Default()

	cfg := queuectl.WorkerConfig{
		LockTimeout: 200 * time.Millisecond,
		Config:      queuectl.Config{MaxRetries: 1, BackoffBase: 2},
	}
	w := queuectl.NewWorker(0, store, cfg, logger)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	stop := make(chan struct{})

	done := make(chan struct{})
	go func() {
		w.Run(ctx, stop)
		close(done)
	}()

	_, err := store.Enqueue(ctx, queuectl.Spec{Id: uuid.NewString(), Command: "false", MaxRetries: 1}, cfg.Config)
	if err != nil {
		t.Fatal(err)
	}

	deadline := time.Now().Add(3 * time.Second)
	var dead []*job.DeadJob
	for time.Now().Before(deadline) {
		dead, err = store.ListDLQ(ctx)
		if err != nil {
			t.Fatal(err)
		}
		if len(dead) > 0 {
			break
		}
		time.Sleep(10 * time.Millisecond)
	}
	if len(dead) != 1 {
		t.Fatalf("expected job moved to dlq, got %d dlq rows", len(dead))
	}

	close(stop)
	<-done
}

func TestWorkerTimesOutLongRunningCommand(t *testing.T) {
	db := newWorkerTestDB(t)
	store := gsql.NewStore(db)
	logger := slog.Default()

	cfg := queuectl.WorkerConfig{
		LockTimeout: 50 * time.Millisecond,
		Config:      queuectl.Config{MaxRetries: 3, BackoffBase: 2},
	}
	w := queuectl.NewWorker(0, store, cfg, logger)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	stop := make(chan struct{})

	done := make(chan struct{})
	go func() {
		w.Run(ctx, stop)
		close(done)
	}()

	_, err := store.Enqueue(ctx, queuectl.Spec{Id: uuid.NewString(), Command: "sleep 5"}, cfg.Config)
	if err != nil {
		t.Fatal(err)
	}

	waitForStatus(t, store, job.Failed, 2*time.Second)

	close(stop)
	<-done
}
