package reminder

import (
	"context"
	"errors"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/sakif/job-tracker/internal/model"
)

// ErrCycleInProgress is returned by RunCycle when another cycle is still
// running. The overlapping trigger is skipped, not queued.
var ErrCycleInProgress = errors.New("reminder: cycle already in progress")

// CycleReport summarises one run of the pipeline.
type CycleReport struct {
	ID           string        `json:"id"`
	Target       model.Date    `json:"target"`
	StartedAt    time.Time     `json:"started_at"`
	Duration     time.Duration `json:"duration"`
	Matched      int           `json:"matched"`
	Sent         int           `json:"sent"`
	SendFailures int           `json:"send_failures"`
	FlagFailures int           `json:"flag_failures"`
	Skipped      bool          `json:"skipped"`
}

// Runner executes one scan → notify → mark cycle.
//
// STATES:
// Idle → Running on RunCycle, Running → Idle when the loop over matched
// jobs finishes, whatever the individual outcomes were. The running flag is
// an atomic.Bool: a second RunCycle while one is in flight returns
// ErrCycleInProgress immediately.
type Runner struct {
	scanner  *Scanner
	notifier *Notifier
	updater  *StateUpdater
	metrics  *Metrics
	logger   *slog.Logger

	running atomic.Bool
}

// NewRunner wires the pipeline. metrics may be nil.
func NewRunner(scanner *Scanner, notifier *Notifier, updater *StateUpdater, metrics *Metrics, logger *slog.Logger) *Runner {
	return &Runner{
		scanner:  scanner,
		notifier: notifier,
		updater:  updater,
		metrics:  metrics,
		logger:   logger,
	}
}

// Running reports whether a cycle is currently in flight.
func (r *Runner) Running() bool {
	return r.running.Load()
}

// RunCycle runs the pipeline once.
//
// ERROR POLICY:
//   - scan fails       → the cycle is aborted and the error returned
//   - a send fails     → logged with job id and address, flag untouched,
//     the loop moves on to the next job
//   - a flag write fails → logged and counted, the loop moves on; the job
//     will be emailed again next cycle
//
// Per-job failures are reported through the CycleReport, never as the
// returned error.
func (r *Runner) RunCycle(ctx context.Context) (CycleReport, error) {
	report := CycleReport{
		ID:        uuid.NewString(),
		StartedAt: time.Now(),
	}
	logger := r.logger.With(slog.String("cycle_id", report.ID))

	if !r.running.CompareAndSwap(false, true) {
		report.Skipped = true
		logger.Warn("reminder cycle skipped: previous cycle still running")
		r.metrics.observeCycle(outcomeSkipped, report)
		return report, ErrCycleInProgress
	}
	defer r.running.Store(false)

	logger.Info("reminder cycle started")

	target, reminders, err := r.scanner.Scan(ctx)
	report.Target = target
	if err != nil {
		report.Duration = time.Since(report.StartedAt)
		logger.Error("reminder cycle aborted: scan failed",
			slog.String("target", target.String()),
			slog.String("error", err.Error()),
		)
		r.metrics.observeCycle(outcomeAborted, report)
		return report, err
	}

	report.Matched = len(reminders)
	if len(reminders) == 0 {
		report.Duration = time.Since(report.StartedAt)
		logger.Info("no reminders to send", slog.String("target", target.String()))
		r.metrics.observeCycle(outcomeCompleted, report)
		return report, nil
	}

	// One send finishes before the next starts.
	for _, rem := range reminders {
		r.process(ctx, logger, rem, &report)
	}

	report.Duration = time.Since(report.StartedAt)
	logger.Info("reminder cycle finished",
		slog.String("target", target.String()),
		slog.Int("matched", report.Matched),
		slog.Int("sent", report.Sent),
		slog.Int("send_failures", report.SendFailures),
		slog.Int("flag_failures", report.FlagFailures),
		slog.Duration("duration", report.Duration),
	)
	r.metrics.observeCycle(outcomeCompleted, report)
	return report, nil
}

// process handles one job: send, then flag. It never returns an error so
// one bad job cannot stop the batch.
func (r *Runner) process(ctx context.Context, logger *slog.Logger, rem model.Reminder, report *CycleReport) {
	info, err := r.notifier.Notify(ctx, rem)
	if err != nil {
		report.SendFailures++
		r.metrics.observeSend(false)
		logger.Error("failed to send reminder",
			slog.String("job_id", rem.JobID),
			slog.String("email", rem.UserEmail),
			slog.String("error", err.Error()),
		)
		return
	}
	report.Sent++
	r.metrics.observeSend(true)
	logger.Info("reminder sent",
		slog.String("job_id", rem.JobID),
		slog.String("email", rem.UserEmail),
		slog.String("message_id", info.MessageID),
	)

	if err := r.updater.MarkSent(ctx, rem.JobID); err != nil {
		report.FlagFailures++
		r.metrics.observeFlagFailure()
		logger.Error("failed to update reminder_sent",
			slog.String("job_id", rem.JobID),
			slog.String("error", err.Error()),
		)
	}
}
