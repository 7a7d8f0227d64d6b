// Package reminder implements the deadline reminder pipeline.
//
// PIPELINE OVERVIEW:
//
//	Scheduler (cron tick)
//	  → Runner.RunCycle
//	      → Scanner.Scan          which jobs are due?
//	      → Notifier.Notify       one email per job, sequentially
//	      → StateUpdater.MarkSent flag the job after a confirmed send
//
// Every collaborator is injected (store, transport, clock) so the whole
// pipeline runs in tests against fakes, with no timers and no SMTP server.
//
// DELIVERY GUARANTEE:
// At-least-once. A job is flagged only after its email went out, so a crash
// or a failed flag write can cause a second email on a later cycle, but a
// failed send never hides a reminder.
package reminder

import (
	"context"
	"fmt"
	"time"

	"github.com/sakif/job-tracker/internal/model"
	"github.com/sakif/job-tracker/internal/repository"
)

// DefaultLeadDays is how far ahead of a deadline the reminder goes out.
const DefaultLeadDays = 3

// Scanner finds the jobs that are due for a reminder today.
type Scanner struct {
	store    repository.ReminderRepository
	leadDays int
	loc      *time.Location
	now      func() time.Time
}

// ScannerConfig configures a Scanner. Zero values pick the defaults:
// DefaultLeadDays, time.Local and time.Now.
type ScannerConfig struct {
	LeadDays int
	Location *time.Location
	Now      func() time.Time
}

func NewScanner(store repository.ReminderRepository, cfg ScannerConfig) *Scanner {
	s := &Scanner{
		store:    store,
		leadDays: cfg.LeadDays,
		loc:      cfg.Location,
		now:      cfg.Now,
	}
	if s.leadDays <= 0 {
		s.leadDays = DefaultLeadDays
	}
	if s.loc == nil {
		s.loc = time.Local
	}
	if s.now == nil {
		s.now = time.Now
	}
	return s
}

// LeadDays returns the configured reminder window in days.
func (s *Scanner) LeadDays() int {
	return s.leadDays
}

// Target is the deadline that qualifies for a reminder right now:
// today (in the scanner's location) plus the lead time.
func (s *Scanner) Target() model.Date {
	return model.DateOf(s.now().In(s.loc)).AddDays(s.leadDays)
}

// Scan returns the target date and the reminders due for it, in the
// store's order. No matches is a normal, empty result. A store error is
// returned as-is for the caller to abort the cycle.
func (s *Scanner) Scan(ctx context.Context) (model.Date, []model.Reminder, error) {
	target := s.Target()

	reminders, err := s.store.DueReminders(ctx, target)
	if err != nil {
		return target, nil, fmt.Errorf("scanning reminders due %s: %w", target, err)
	}
	return target, reminders, nil
}
