// Command remind runs a single reminder cycle and exits, for hosts that
// schedule work with the system cron instead of the in-process scheduler.
//
//	remind            # send today's reminders
//	remind -dry-run   # print what would be sent, send nothing, mark nothing
//
// The exit status is 1 when the cycle could not run or any reminder failed
// to send, so cron's MAILTO or a monitoring wrapper notices.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/sakif/job-tracker/internal/config"
	"github.com/sakif/job-tracker/internal/model"
	"github.com/sakif/job-tracker/internal/reminder"
	"github.com/sakif/job-tracker/internal/server"
)

func main() {
	dryRun := flag.Bool("dry-run", false, "list due reminders without sending them")
	flag.Parse()

	envErr := godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		slog.Error("invalid configuration", slog.String("error", err.Error()))
		os.Exit(1)
	}
	logger := cfg.Log.NewLogger(os.Stderr)
	if envErr != nil && !errors.Is(envErr, fs.ErrNotExist) {
		logger.Warn("could not read .env", slog.String("error", envErr.Error()))
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, logger, *dryRun); err != nil {
		logger.Error("reminder run failed", slog.String("error", err.Error()))
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg *config.Config, logger *slog.Logger, dryRun bool) error {
	db, err := server.OpenDatabase(cfg.Database.Path)
	if err != nil {
		return err
	}
	defer db.Close()

	if dryRun {
		loc, err := cfg.Reminder.Location()
		if err != nil {
			return err
		}
		scanner := reminder.NewScanner(db, reminder.ScannerConfig{LeadDays: cfg.Reminder.LeadDays, Location: loc})
		target, due, err := scanner.Scan(ctx)
		if err != nil {
			return err
		}
		return writeDue(os.Stdout, target, due)
	}

	transport, err := server.NewTransport(cfg.Email, logger)
	if err != nil {
		return err
	}
	runner, err := server.NewRunner(cfg.Reminder, db, transport, nil, logger)
	if err != nil {
		return err
	}

	report, err := runner.RunCycle(ctx)
	if err != nil {
		return err
	}
	if report.SendFailures > 0 {
		return errors.New("some reminders could not be sent; they will be retried on the next run")
	}
	return nil
}

// dueList is the -dry-run output.
type dueList struct {
	Target model.Date       `json:"target"`
	Due    []model.Reminder `json:"due"`
}

func writeDue(w io.Writer, target model.Date, due []model.Reminder) error {
	if due == nil {
		due = []model.Reminder{}
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(dueList{Target: target, Due: due})
}
