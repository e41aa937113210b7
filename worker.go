package queuectl

import (
	"context"
	"log/slog"
	"time"

	"github.com/kkpjssks/queuectl/job"
)

// idleWait is how long a worker sleeps on the stop signal after an
// empty Claim before polling again.
const idleWait = time.Second

// WorkerConfig defines runtime behavior of a single Worker loop.
//
// LockTimeout bounds how long the Executor lets a job's command run
// before treating it as TimedOut. Config carries the retry parameters
// applied when a job's command fails or times out.
type WorkerConfig struct {
	LockTimeout time.Duration
	Config      Config
}

// Worker implements the per-worker cycle: claim -> execute -> settle.
//
// One Worker processes one job at a time; parallelism comes from
// running multiple Worker loops concurrently over the same Store (see
// Supervisor). A Worker never terminates on job failure — a crashing
// or timing-out subprocess is just another failed attempt routed
// through the retry policy.
type Worker struct {
	id       int
	store    Store
	executor Executor
	policy   policy
	config   Config
	log      *slog.Logger
}

// NewWorker creates a Worker that claims jobs from store and executes
// them with the given configuration.
func NewWorker(id int, store Store, cfg WorkerConfig, log *slog.Logger) *Worker {
	return &Worker{
		id:       id,
		store:    store,
		executor: Executor{Timeout: cfg.LockTimeout},
		policy:   newPolicy(cfg.Config.BackoffBase),
		config:   cfg.Config,
		log:      log,
	}
}

// Run executes the worker loop until stop is closed.
//
// stop is polled between jobs and during the idle wait, never while a
// job is in flight: Run only returns once a claimed job, if any, has
// been settled in the Store.
func (w *Worker) Run(ctx context.Context, stop <-chan struct{}) {
	for {
		select {
		case <-stop:
			return
		default:
		}

		jb, err := w.store.Claim(ctx)
		if err != nil {
			w.log.Error("claim failed", "worker", w.id, "err", err)
			jb = nil
		}

		if jb == nil {
			select {
			case <-stop:
				return
			case <-time.After(idleWait):
			}
			continue
		}

		w.process(ctx, jb)
	}
}

func (w *Worker) process(ctx context.Context, jb *job.Job) {
	w.log.Info("executing job", "worker", w.id, "id", jb.Id, "command", jb.Command)
	result := w.executor.Run(ctx, jb.Command)

	switch result.Outcome {
	case Ok:
		if err := w.store.Complete(ctx, jb.Id); err != nil {
			w.log.Error("cannot complete job", "id", jb.Id, "err", err)
			return
		}
		w.log.Info("job completed", "id", jb.Id)
	case Failed, TimedOut:
		w.handleFailure(ctx, jb, result)
	}
}

func (w *Worker) handleFailure(ctx context.Context, jb *job.Job, result Result) {
	attempts := jb.Attempts + 1
	maxRetries := jb.MaxRetries
	if maxRetries == 0 {
		maxRetries = w.config.MaxRetries
	}

	delay, giveUp := w.policy.next(attempts, maxRetries)
	if giveUp {
		jb.Attempts = attempts
		if err := w.store.MoveToDLQ(ctx, jb); err != nil {
			w.log.Error("cannot move job to dlq", "id", jb.Id, "err", err)
		}
		w.log.Warn("job failed permanently, moved to dlq", "id", jb.Id, "attempts", attempts, "reason", result.Reason)
		return
	}

	nextRunAt := time.Now().Add(delay)
	if err := w.store.ScheduleRetry(ctx, jb.Id, attempts, nextRunAt); err != nil {
		w.log.Error("cannot schedule retry", "id", jb.Id, "err", err)
		return
	}
	w.log.Warn("job failed, scheduled retry", "id", jb.Id, "attempts", attempts, "delay", delay, "reason", result.Reason)
}
