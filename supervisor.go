package queuectl

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/kkpjssks/queuectl/internal"
	"github.com/kkpjssks/queuectl/internal/appconfig"
)

// ErrAlreadyRunning is returned by Supervisor.Run when a live
// supervisor is already recorded in the lock file under the
// configured state directory.
var ErrAlreadyRunning = errors.New("workers already running")

// Supervisor owns the lock file, spawns N Worker loops as goroutines
// over a shared stop channel, and relays shutdown signals.
//
// Supervisor does no job work itself: it spawns Worker loops, waits
// for either an OS signal or context cancellation, and joins every
// Worker before returning. Workers never install their own signal
// handlers; the Supervisor is the sole goroutine watching for
// SIGINT/SIGTERM, so a single close(stop) reaches every Worker loop
// without each one needing its own handler.
//
// If cleaner and cleanConfig are both non-nil, Run also starts a
// CleanWorker alongside the Worker loops and stops it before removing
// the lock file, so retention runs only while the supervisor itself
// is alive.
type Supervisor struct {
	store       Store
	dir         string
	config      WorkerConfig
	log         *slog.Logger
	cleaner     Cleaner
	cleanConfig *CleanConfig
}

// NewSupervisor creates a Supervisor that claims jobs from store,
// using dir as the per-user state directory for its lock file.
func NewSupervisor(store Store, dir string, config WorkerConfig, log *slog.Logger) *Supervisor {
	return &Supervisor{store: store, dir: dir, config: config, log: log}
}

// WithCleaner enables periodic retention alongside the worker loops:
// Run starts a CleanWorker using cleaner and cleanConfig and stops it
// as part of shutdown. WithCleaner returns s for chaining.
func (s *Supervisor) WithCleaner(cleaner Cleaner, cleanConfig *CleanConfig) *Supervisor {
	s.cleaner = cleaner
	s.cleanConfig = cleanConfig
	return s
}

// Run performs the single-instance guard, acquires the lock file,
// spawns count Worker loops, and blocks until an interrupt/terminate
// signal arrives or ctx is canceled. It waits for every Worker to
// settle its in-flight job (if any) before removing the lock file and
// returning.
//
// Run returns ErrAlreadyRunning if a live supervisor is already
// recorded under dir.
func (s *Supervisor) Run(ctx context.Context, count int) error {
	if appconfig.IsRunning(s.dir) {
		return ErrAlreadyRunning
	}
	if err := appconfig.WritePID(s.dir); err != nil {
		return err
	}
	defer func() {
		if err := appconfig.RemovePID(s.dir); err != nil {
			s.log.Error("cannot remove lock file", "err", err)
		}
	}()

	stop := make(chan struct{})
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigCh)

	var wg sync.WaitGroup
	for i := 0; i < count; i++ {
		wg.Add(1)
		go func(id int) {
			defer wg.Done()
			worker := NewWorker(id, s.store, s.config, s.log)
			worker.Run(ctx, stop)
		}(i)
	}

	var cleanWorker *CleanWorker
	if s.cleaner != nil && s.cleanConfig != nil {
		cleanWorker = NewCleanWorker(s.cleaner, s.cleanConfig, s.log)
		if err := cleanWorker.Start(ctx); err != nil {
			s.log.Error("cannot start clean worker", "err", err)
			cleanWorker = nil
		}
	}

	s.log.Info("workers started", "count", count, "pid", os.Getpid())
	select {
	case sig := <-sigCh:
		s.log.Info("shutdown signal received", "signal", sig.String())
	case <-ctx.Done():
		s.log.Info("context canceled")
	}
	close(stop)
	<-internal.WaitGroupDone(&wg)
	if cleanWorker != nil {
		if err := cleanWorker.Stop(s.config.LockTimeout); err != nil {
			s.log.Error("cannot stop clean worker", "err", err)
		}
	}
	s.log.Info("all workers stopped")
	return nil
}

// Stop signals a running supervisor recorded under dir to begin
// graceful shutdown. It does not block on worker completion.
//
// Stop returns (false, nil) if no supervisor is currently recorded —
// the CLI treats this as an idempotent no-op rather than an error.
func Stop(dir string) (bool, error) {
	return appconfig.Signal(dir, syscall.SIGTERM)
}
