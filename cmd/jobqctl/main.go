// Command jobqctl is the CLI front end for the queuectl job queue: it
// wires enqueue, worker lifecycle, inspection, and DLQ management
// subcommands onto the Control API.
package main

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"time"

	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/sqlitedialect"

	"oss.nandlabs.io/golly/cli"

	_ "modernc.org/sqlite"

	"github.com/kkpjssks/queuectl"
	"github.com/kkpjssks/queuectl/internal/appconfig"
	"github.com/kkpjssks/queuectl/job"
	gsql "github.com/kkpjssks/queuectl/sql"
)

func openDB(dsn string) (*bun.DB, error) {
	sqlDB, err := sql.Open("sqlite", dsn+"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, err
	}
	sqlDB.SetMaxOpenConns(1)
	return bun.NewDB(sqlDB, sqlitedialect.New()), nil
}

func newControl(log *slog.Logger) (*queuectl.Control, string, error) {
	dir, err := appconfig.Dir()
	if err != nil {
		return nil, "", err
	}
	db, err := openDB(appconfig.DBPath(dir))
	if err != nil {
		return nil, "", err
	}
	if err := gsql.InitDB(context.Background(), db); err != nil {
		return nil, "", err
	}
	store := gsql.NewStore(db)
	cleaner := gsql.NewCleaner(db)
	return queuectl.NewControl(store, cleaner, dir, log), dir, nil
}

func main() {
	logger := slog.New(slog.NewTextHandler(os.Stderr, nil))

	app := cli.NewCLI()
	app.AddVersion("0.1.0")

	app.AddCommand(enqueueCommand(logger))
	app.AddCommand(workerCommand(logger))
	app.AddCommand(statusCommand(logger))
	app.AddCommand(listCommand(logger))
	app.AddCommand(dlqCommand(logger))
	app.AddCommand(configCommand(logger))
	app.AddCommand(pruneCommand(logger))

	if err := app.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func enqueueCommand(logger *slog.Logger) *cli.Command {
	cmd := cli.NewCommand("enqueue", "Enqueue a shell command as a job", "0.1.0", func(ctx *cli.Context) error {
		command, _ := ctx.GetFlag("command")
		if command == "" {
			return fmt.Errorf("--command is required")
		}
		maxRetries, _ := ctx.GetFlag("max-retries")
		var spec queuectl.Spec
		spec.Command = command
		if maxRetries != "" {
			n, err := strconv.ParseUint(maxRetries, 10, 32)
			if err != nil {
				return fmt.Errorf("invalid --max-retries: %w", err)
			}
			spec.MaxRetries = uint32(n)
		}

		control, _, err := newControl(logger)
		if err != nil {
			return err
		}
		id, err := control.Enqueue(context.Background(), spec)
		if err != nil {
			return err
		}
		fmt.Println(id)
		return nil
	})
	cmd.Flags = []*cli.Flag{
		{Name: "command", Usage: "shell command to run", Default: ""},
		{Name: "max-retries", Usage: "override the default retry ceiling for this job", Default: ""},
	}
	return cmd
}

// parsePruneFlags builds a queuectl.CleanConfig from the worker
// start command's --prune-interval/--prune-age flags. It returns nil
// if --prune-interval is empty, meaning retention stays disabled.
func parsePruneFlags(ctx *cli.Context) (*queuectl.CleanConfig, error) {
	intervalStr, _ := ctx.GetFlag("prune-interval")
	if intervalStr == "" {
		return nil, nil
	}
	interval, err := time.ParseDuration(intervalStr)
	if err != nil {
		return nil, fmt.Errorf("invalid --prune-interval: %w", err)
	}
	cfg := &queuectl.CleanConfig{Interval: interval}
	if ageStr, _ := ctx.GetFlag("prune-age"); ageStr != "" {
		age, err := time.ParseDuration(ageStr)
		if err != nil {
			return nil, fmt.Errorf("invalid --prune-age: %w", err)
		}
		cfg.Before = true
		cfg.Delta = age
	}
	return cfg, nil
}

func workerCommand(logger *slog.Logger) *cli.Command {
	cmd := cli.NewCommand("worker", "Manage the worker supervisor", "0.1.0", nil)

	start := cli.NewCommand("start", "Start N worker loops and block until shutdown", "0.1.0", func(ctx *cli.Context) error {
		countStr, _ := ctx.GetFlag("count")
		count := 1
		if countStr != "" {
			n, err := strconv.Atoi(countStr)
			if err != nil {
				return fmt.Errorf("invalid --count: %w", err)
			}
			count = n
		}
		prune, err := parsePruneFlags(ctx)
		if err != nil {
			return err
		}
		control, _, err := newControl(logger)
		if err != nil {
			return err
		}
		return control.WorkerStart(context.Background(), count, prune)
	})
	start.Flags = []*cli.Flag{
		{Name: "count", Usage: "number of worker loops to run", Default: "1"},
		{Name: "prune-interval", Usage: "run retention on this interval alongside the workers, e.g. 1h (disabled if empty)", Default: ""},
		{Name: "prune-age", Usage: "only delete terminal rows older than this duration (delete all if empty)", Default: ""},
	}

	stop := cli.NewCommand("stop", "Signal a running supervisor to shut down", "0.1.0", func(ctx *cli.Context) error {
		control, _, err := newControl(logger)
		if err != nil {
			return err
		}
		ok, err := control.WorkerStop()
		if err != nil {
			return err
		}
		if !ok {
			fmt.Println("no supervisor running")
			return nil
		}
		fmt.Println("stop signal sent")
		return nil
	})

	cmd.AddSubCommand(start)
	cmd.AddSubCommand(stop)
	return cmd
}

func statusCommand(logger *slog.Logger) *cli.Command {
	return cli.NewCommand("status", "Show queue counts and supervisor liveness", "0.1.0", func(ctx *cli.Context) error {
		control, _, err := newControl(logger)
		if err != nil {
			return err
		}
		report, err := control.Status(context.Background())
		if err != nil {
			return err
		}
		fmt.Printf("pending=%d processing=%d failed=%d completed=%d dead=%d workers_running=%v\n",
			report.Counts.Pending, report.Counts.Processing, report.Counts.Failed,
			report.Counts.Completed, report.Counts.Dead, report.WorkersRunning)
		return nil
	})
}

func listCommand(logger *slog.Logger) *cli.Command {
	cmd := cli.NewCommand("list", "List jobs in a given state", "0.1.0", func(ctx *cli.Context) error {
		state, _ := ctx.GetFlag("state")
		status, err := job.ParseStatus(state)
		if err != nil {
			return fmt.Errorf("invalid --state: %w", err)
		}
		control, _, err := newControl(logger)
		if err != nil {
			return err
		}
		jobs, err := control.List(context.Background(), status)
		if err != nil {
			return err
		}
		for _, jb := range jobs {
			fmt.Printf("%s\t%s\t%s\tattempts=%d\n", jb.Id, jb.Status, jb.Command, jb.Attempts)
		}
		return nil
	})
	cmd.Flags = []*cli.Flag{
		{Name: "state", Usage: "pending|processing|failed|completed", Default: "pending"},
	}
	return cmd
}

func dlqCommand(logger *slog.Logger) *cli.Command {
	cmd := cli.NewCommand("dlq", "Inspect and retry dead-lettered jobs", "0.1.0", nil)

	list := cli.NewCommand("list", "List dead-lettered jobs", "0.1.0", func(ctx *cli.Context) error {
		control, _, err := newControl(logger)
		if err != nil {
			return err
		}
		dead, err := control.DLQList(context.Background())
		if err != nil {
			return err
		}
		for _, d := range dead {
			fmt.Printf("%s\t%s\tattempts=%d\n", d.Id, d.Command, d.Attempts)
		}
		return nil
	})

	retry := cli.NewCommand("retry", "Reinstate a dead-lettered job as pending", "0.1.0", func(ctx *cli.Context) error {
		id, _ := ctx.GetFlag("id")
		if id == "" {
			return fmt.Errorf("--id is required")
		}
		control, _, err := newControl(logger)
		if err != nil {
			return err
		}
		ok, err := control.DLQRetry(context.Background(), id)
		if err != nil {
			return err
		}
		if !ok {
			return fmt.Errorf("no dlq entry with id %s", id)
		}
		fmt.Println("retried")
		return nil
	})
	retry.Flags = []*cli.Flag{
		{Name: "id", Usage: "id of the dead-lettered job", Default: ""},
	}

	cmd.AddSubCommand(list)
	cmd.AddSubCommand(retry)
	return cmd
}

func configCommand(logger *slog.Logger) *cli.Command {
	cmd := cli.NewCommand("config", "Inspect or change persisted configuration", "0.1.0", nil)

	show := cli.NewCommand("show", "Print the current configuration", "0.1.0", func(ctx *cli.Context) error {
		control, _, err := newControl(logger)
		if err != nil {
			return err
		}
		cfg, err := control.ConfigGet()
		if err != nil {
			return err
		}
		fmt.Printf("max_retries=%d backoff_base=%d\n", cfg.MaxRetries, cfg.BackoffBase)
		return nil
	})

	set := cli.NewCommand("set", "Set a single configuration key", "0.1.0", func(ctx *cli.Context) error {
		key, _ := ctx.GetFlag("key")
		value, _ := ctx.GetFlag("value")
		n, err := strconv.ParseUint(value, 10, 32)
		if err != nil {
			return fmt.Errorf("invalid --value: %w", err)
		}
		control, _, err := newControl(logger)
		if err != nil {
			return err
		}
		return control.ConfigSet(key, uint32(n))
	})
	set.Flags = []*cli.Flag{
		{Name: "key", Usage: "max_retries|backoff_base", Default: ""},
		{Name: "value", Usage: "new integer value", Default: ""},
	}

	cmd.AddSubCommand(show)
	cmd.AddSubCommand(set)
	return cmd
}

func pruneCommand(logger *slog.Logger) *cli.Command {
	cmd := cli.NewCommand("prune", "Delete completed jobs and dead-lettered rows", "0.1.0", func(ctx *cli.Context) error {
		var cutoff *time.Time
		if ageStr, _ := ctx.GetFlag("age"); ageStr != "" {
			age, err := time.ParseDuration(ageStr)
			if err != nil {
				return fmt.Errorf("invalid --age: %w", err)
			}
			t := time.Now().Add(-age)
			cutoff = &t
		}
		control, _, err := newControl(logger)
		if err != nil {
			return err
		}
		completed, dead, err := control.Prune(context.Background(), cutoff)
		if err != nil {
			return err
		}
		fmt.Printf("deleted completed=%d dead=%d\n", completed, dead)
		return nil
	})
	cmd.Flags = []*cli.Flag{
		{Name: "age", Usage: "only delete rows older than this duration, e.g. 24h (delete all if empty)", Default: ""},
	}
	return cmd
}
