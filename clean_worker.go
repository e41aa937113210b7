package queuectl

import (
	"context"
	"log/slog"
	"time"

	"github.com/kkpjssks/queuectl/internal"
)

// CleanConfig defines the scheduling and age-filtering parameters for
// a CleanWorker.
//
// Interval defines how often the cleaner runs. If Before is true,
// deletion is restricted to rows older than now - Delta; otherwise no
// age filter is applied and every terminal row is eligible.
type CleanConfig struct {
	Interval time.Duration
	Before   bool
	Delta    time.Duration
}

// CleanWorker periodically invokes a Cleaner implementation according
// to the provided configuration, purging both completed jobs and dlq
// rows older than the configured threshold.
//
// CleanWorker does not participate in job processing and does not
// affect claim or retry semantics.
//
// CleanWorker has a strict lifecycle:
//   - Start may only be called once.
//   - Stop must be called to terminate the worker.
//   - Stop waits for the internal task to finish or until the timeout
//     expires.
type CleanWorker struct {
	lcBase
	cleaner  Cleaner
	task     internal.TimerTask
	log      *slog.Logger
	interval time.Duration
	before   bool
	delta    time.Duration
}

// NewCleanWorker creates a new CleanWorker using the provided Cleaner
// implementation and configuration.
//
// The worker is not started automatically. Call Start to begin
// periodic cleaning.
func NewCleanWorker(cleaner Cleaner, config *CleanConfig, log *slog.Logger) *CleanWorker {
	return &CleanWorker{
		cleaner:  cleaner,
		log:      log,
		interval: config.Interval,
		before:   config.Before,
		delta:    config.Delta,
	}
}

func (cw *CleanWorker) beforeStamp() *time.Time {
	if !cw.before {
		return nil
	}
	ret := time.Now()
	if cw.delta != 0 {
		ret = ret.Add(-cw.delta)
	}
	return &ret
}

func (cw *CleanWorker) clean(ctx context.Context) {
	before := cw.beforeStamp()
	completed, err := cw.cleaner.CleanCompleted(ctx, before)
	if err != nil {
		cw.log.Error("error while cleaning completed jobs", "error", err)
	}
	dead, err := cw.cleaner.CleanDLQ(ctx, before)
	if err != nil {
		cw.log.Error("error while cleaning dlq", "error", err)
	}
	cw.log.Info("cleaned rows", "completed", completed, "dead", dead)
}

// Start begins periodic execution of the cleaning task.
//
// Start returns ErrDoubleStarted if the worker has already been
// started. The provided context controls cancellation of the
// background task.
func (cw *CleanWorker) Start(ctx context.Context) error {
	if err := cw.tryStart(); err != nil {
		return err
	}
	cw.task.Start(ctx, cw.clean, cw.interval)
	return nil
}

// Stop terminates the background cleaning task.
//
// Stop waits until the task finishes or the specified timeout
// expires. If shutdown does not complete within the timeout,
// ErrStopTimeout is returned.
//
// Stop returns ErrDoubleStopped if the worker is not running.
func (cw *CleanWorker) Stop(timeout time.Duration) error {
	return cw.tryStop(timeout, cw.task.Stop)
}
