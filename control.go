package queuectl

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/kkpjssks/queuectl/internal/appconfig"
	"github.com/kkpjssks/queuectl/job"
)

// ErrInvalidConfigKey is returned by Control.ConfigSet for any key
// other than "max_retries" or "backoff_base".
var ErrInvalidConfigKey = fmt.Errorf("invalid config key")

// StatusReport is the result of Control.Status: the job/DLQ counts
// plus a liveness probe of the supervisor.
type StatusReport struct {
	Counts         Counts
	WorkersRunning bool
}

// Control is the thin surface the CLI front end consumes: enqueue,
// list, status, DLQ retry, config get/set, prune, and worker
// start/stop.
//
// Control does not itself implement queue semantics; it composes a
// Store with the per-user state directory (for config and the lock
// file) and, for WorkerStart and Prune, a Cleaner.
type Control struct {
	store   Store
	cleaner Cleaner
	dir     string
	log     *slog.Logger
}

// NewControl creates a Control backed by store, using dir as the
// per-user state directory for config.json and worker.pid. cleaner
// may be nil if retention is not needed; Prune and the WorkerStart
// prune option then return an error instead of silently no-op'ing.
func NewControl(store Store, cleaner Cleaner, dir string, log *slog.Logger) *Control {
	return &Control{store: store, cleaner: cleaner, dir: dir, log: log}
}

func (c *Control) loadConfig() (Config, map[string]any, error) {
	cfg, raw, err := appconfig.Load(c.dir)
	if err != nil {
		return Config{}, nil, err
	}
	return Config{MaxRetries: cfg.MaxRetries, BackoffBase: cfg.BackoffBase}, raw, nil
}

// Enqueue assigns spec a fresh UUID if it does not already carry one,
// then inserts it into the Store. max_retries on spec overrides the
// current config's default for this job only.
func (c *Control) Enqueue(ctx context.Context, spec Spec) (string, error) {
	if spec.Command == "" {
		return "", fmt.Errorf("command is required")
	}
	if spec.Id == "" {
		spec.Id = uuid.NewString()
	}
	cfg, _, err := c.loadConfig()
	if err != nil {
		return "", err
	}
	return c.store.Enqueue(ctx, spec, cfg)
}

// Status returns the current job/DLQ counts plus whether a supervisor
// is currently recorded as running.
func (c *Control) Status(ctx context.Context) (StatusReport, error) {
	counts, err := c.store.Counts(ctx)
	if err != nil {
		return StatusReport{}, err
	}
	return StatusReport{Counts: counts, WorkersRunning: appconfig.IsRunning(c.dir)}, nil
}

// List returns jobs in the given state. status may be job.Unknown to
// request no filter; the CLI passes job.Unknown for --state unknown.
func (c *Control) List(ctx context.Context, status job.Status) ([]*job.Job, error) {
	return c.store.List(ctx, status)
}

// DLQList returns every row currently quarantined in the dead-letter
// queue.
func (c *Control) DLQList(ctx context.Context) ([]*job.DeadJob, error) {
	return c.store.ListDLQ(ctx)
}

// DLQRetry reinstates the dead-lettered job identified by id as a
// fresh pending job. It returns (false, nil) if no such id exists in
// the DLQ.
func (c *Control) DLQRetry(ctx context.Context, id string) (bool, error) {
	cfg, _, err := c.loadConfig()
	if err != nil {
		return false, err
	}
	return c.store.RetryDLQ(ctx, id, cfg)
}

// ConfigGet returns the current configuration.
func (c *Control) ConfigGet() (appconfig.Config, error) {
	cfg, _, err := appconfig.Load(c.dir)
	return cfg, err
}

// ConfigSet updates a single configuration key and persists it.
// Recognized keys are "max_retries" and "backoff_base"; any other key
// returns ErrInvalidConfigKey. Config is read fresh by Enqueue,
// DLQRetry, and WorkerStart on every call, so the new value takes
// effect for jobs enqueued or retried afterward and for the next
// WorkerStart; a supervisor already running keeps the config it was
// started with.
func (c *Control) ConfigSet(key string, value uint32) error {
	cfg, raw, err := appconfig.Load(c.dir)
	if err != nil {
		return err
	}
	switch key {
	case "max_retries":
		cfg.MaxRetries = value
	case "backoff_base":
		cfg.BackoffBase = value
	default:
		return fmt.Errorf("%w: %s", ErrInvalidConfigKey, key)
	}
	return appconfig.Save(c.dir, cfg, raw)
}

// WorkerStart blocks running count worker loops until the supervisor
// receives a shutdown signal or ctx is canceled. It returns
// ErrAlreadyRunning if a supervisor is already recorded under the
// state directory.
//
// If prune is non-nil, a CleanWorker also runs for the lifetime of
// the supervisor, purging terminal rows on prune's schedule. prune
// requires Control to have been built with a non-nil Cleaner.
func (c *Control) WorkerStart(ctx context.Context, count int, prune *CleanConfig) error {
	if count < 1 {
		return fmt.Errorf("count must be at least 1")
	}
	if prune != nil && c.cleaner == nil {
		return fmt.Errorf("prune requested but no cleaner is configured")
	}
	cfg, _, err := c.loadConfig()
	if err != nil {
		return err
	}
	workerCfg := WorkerConfig{LockTimeout: DefaultTimeout, Config: cfg}
	supervisor := NewSupervisor(c.store, c.dir, workerCfg, c.log)
	if prune != nil {
		supervisor = supervisor.WithCleaner(c.cleaner, prune)
	}
	return supervisor.Run(ctx, count)
}

// Prune runs a single retention pass immediately, deleting Completed
// jobs rows and dlq rows whose timestamp is at or before cutoff. A
// nil cutoff deletes every terminal row regardless of age. Prune
// returns an error if Control was built without a Cleaner.
func (c *Control) Prune(ctx context.Context, cutoff *time.Time) (completed, dead int64, err error) {
	if c.cleaner == nil {
		return 0, 0, fmt.Errorf("prune requested but no cleaner is configured")
	}
	completed, err = c.cleaner.CleanCompleted(ctx, cutoff)
	if err != nil {
		return 0, 0, err
	}
	dead, err = c.cleaner.CleanDLQ(ctx, cutoff)
	if err != nil {
		return completed, 0, err
	}
	return completed, dead, nil
}

// WorkerStop signals a running supervisor to begin graceful shutdown.
// It returns (false, nil), not an error, if no supervisor is
// currently recorded — "worker stop" against a stopped supervisor is
// an idempotent no-op.
func (c *Control) WorkerStop() (bool, error) {
	return Stop(c.dir)
}
