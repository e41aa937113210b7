package queuectl_test

import (
	"context"
	"log/slog"
	"sync/atomic"
	"testing"
	"time"

	"github.com/kkpjssks/queuectl"
)

type mockCleaner struct {
	completedCalls atomic.Int64
	dlqCalls       atomic.Int64
}

func (m *mockCleaner) CleanCompleted(ctx context.Context, before *time.Time) (int64, error) {
	m.completedCalls.Add(1)
	return 1, nil
}

func (m *mockCleaner) CleanDLQ(ctx context.Context, before *time.Time) (int64, error) {
	m.dlqCalls.Add(1)
	return 1, nil
}

func TestCleanWorkerBasic(t *testing.T) {
	cleaner := &mockCleaner{}
	logger := slog.Default()

	cfg := &queuectl.CleanConfig{
		Interval: 50 * time.Millisecond,
		Before:   false,
	}

	w := queuectl.NewCleanWorker(cleaner, cfg, logger)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := w.Start(ctx); err != nil {
		t.Fatal(err)
	}

	time.Sleep(150 * time.Millisecond)

	if err := w.Stop(time.Second); err != nil {
		t.Fatal(err)
	}

	if cleaner.completedCalls.Load() == 0 {
		t.Fatal("expected cleaner.CleanCompleted to run at least once")
	}
	if cleaner.dlqCalls.Load() == 0 {
		t.Fatal("expected cleaner.CleanDLQ to run at least once")
	}
}

func TestCleanWorkerLifecycleErrors(t *testing.T) {
	cleaner := &mockCleaner{}
	logger := slog.Default()

	cfg := &queuectl.CleanConfig{
		Interval: time.Second,
	}

	w := queuectl.NewCleanWorker(cleaner, cfg, logger)

	ctx := context.Background()

	if err := w.Start(ctx); err != nil {
		t.Fatal(err)
	}

	if err := w.Start(ctx); err == nil {
		t.Fatal("expected ErrDoubleStarted")
	}

	if err := w.Stop(time.Second); err != nil {
		t.Fatal(err)
	}

	if err := w.Stop(time.Second); err == nil {
		t.Fatal("expected ErrDoubleStopped")
	}
}
