package reminder

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
)

// DefaultSpec fires the reminder cycle every day at 08:00.
const DefaultSpec = "0 8 * * *"

// ValidateSpec checks a standard five-field cron expression
// (minute hour day-of-month month day-of-week) or a descriptor like @daily.
func ValidateSpec(spec string) error {
	if _, err := cron.ParseStandard(spec); err != nil {
		return fmt.Errorf("invalid cron expression %q: %w", spec, err)
	}
	return nil
}

// Scheduler triggers Runner.RunCycle on a cron schedule.
//
// It is an owned object with an explicit Start/Stop lifecycle: nothing
// runs until Start, and Stop lets an in-flight cycle finish. Both are
// idempotent.
type Scheduler struct {
	cron    *cron.Cron
	entryID cron.EntryID
	spec    string
	loc     *time.Location
	runner  *Runner
	logger  *slog.Logger

	mu      sync.Mutex
	running bool
}

// NewScheduler registers runner under spec, evaluated in loc (time.Local
// when nil).
//
// cron.Recover turns a panicking cycle into a log line instead of a dead
// scheduler goroutine. Cron's own log output is routed through slog.
func NewScheduler(runner *Runner, spec string, loc *time.Location, logger *slog.Logger) (*Scheduler, error) {
	if spec == "" {
		spec = DefaultSpec
	}
	if err := ValidateSpec(spec); err != nil {
		return nil, err
	}
	if loc == nil {
		loc = time.Local
	}

	cronLogger := cron.PrintfLogger(slog.NewLogLogger(logger.Handler(), slog.LevelWarn))
	s := &Scheduler{
		cron: cron.New(
			cron.WithLocation(loc),
			cron.WithLogger(cronLogger),
			cron.WithChain(cron.Recover(cronLogger)),
		),
		spec:   spec,
		loc:    loc,
		runner: runner,
		logger: logger,
	}

	id, err := s.cron.AddFunc(spec, s.tick)
	if err != nil {
		return nil, fmt.Errorf("reminder: scheduling %q: %w", spec, err)
	}
	s.entryID = id
	return s, nil
}

// Start begins firing cycles in the background.
func (s *Scheduler) Start() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.running {
		return
	}
	s.running = true
	s.cron.Start()

	s.logger.Info("reminder scheduler started",
		slog.String("schedule", s.spec),
		slog.String("timezone", s.loc.String()),
		slog.Time("next_run", s.Next()),
	)
}

// Stop stops firing new cycles. The returned context is done once any
// in-flight cycle has finished; callers wait on it with their own timeout.
func (s *Scheduler) Stop() context.Context {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.running {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		return ctx
	}
	s.running = false
	s.logger.Info("reminder scheduler stopping")
	return s.cron.Stop()
}

// Running reports whether the scheduler has been started and not stopped.
func (s *Scheduler) Running() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.running
}

// Next returns the next time a cycle will fire.
func (s *Scheduler) Next() time.Time {
	entry := s.cron.Entry(s.entryID)
	if !entry.Next.IsZero() {
		return entry.Next
	}
	return entry.Schedule.Next(time.Now().In(s.loc))
}

// tick is the cron callback. RunCycle already logs every outcome, so only
// the skip case needs attention here.
func (s *Scheduler) tick() {
	_, err := s.runner.RunCycle(context.Background())
	if errors.Is(err, ErrCycleInProgress) {
		s.logger.Debug("reminder tick ignored", slog.String("reason", err.Error()))
	}
}
