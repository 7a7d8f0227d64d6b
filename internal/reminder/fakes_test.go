package reminder

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/sakif/job-tracker/internal/email"
	"github.com/sakif/job-tracker/internal/model"
)

// =========================================================================
// FAKES AND HELPERS
// =========================================================================

// fakeJob is one row of the fake store.
type fakeJob struct {
	reminder model.Reminder
	sent     bool
}

// fakeStore is an in-memory ReminderRepository. It applies the same
// selection rule as the SQL query: exact deadline match, flag unset.
type fakeStore struct {
	mu   sync.Mutex
	jobs []*fakeJob

	scanErr error
	markErr map[string]error // by job id
	scans   int
	marks   []string
}

func newFakeStore(reminders ...model.Reminder) *fakeStore {
	s := &fakeStore{markErr: map[string]error{}}
	for _, r := range reminders {
		s.jobs = append(s.jobs, &fakeJob{reminder: r})
	}
	return s
}

func (s *fakeStore) DueReminders(_ context.Context, deadline model.Date) ([]model.Reminder, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.scans++
	if s.scanErr != nil {
		return nil, s.scanErr
	}
	out := []model.Reminder{}
	for _, j := range s.jobs {
		if !j.sent && j.reminder.Deadline.Equal(deadline) {
			out = append(out, j.reminder)
		}
	}
	return out, nil
}

func (s *fakeStore) MarkReminderSent(_ context.Context, jobID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.marks = append(s.marks, jobID)
	if err := s.markErr[jobID]; err != nil {
		return err
	}
	for _, j := range s.jobs {
		if j.reminder.JobID == jobID {
			j.sent = true
			return nil
		}
	}
	return errors.New("no such job")
}

func (s *fakeStore) isSent(jobID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, j := range s.jobs {
		if j.reminder.JobID == jobID {
			return j.sent
		}
	}
	return false
}

// blockingTransport parks every Send until release is closed.
type blockingTransport struct {
	entered chan struct{}
	release chan struct{}
}

func (t *blockingTransport) Send(ctx context.Context, msg email.Message) (email.DeliveryInfo, error) {
	t.entered <- struct{}{}
	<-t.release
	return email.DeliveryInfo{Recipient: msg.To}, nil
}

// fixed clock: 2026-10-19 12:00 UTC, so "today + 3" is 2026-10-22.
var testNow = time.Date(2026, 10, 19, 12, 0, 0, 0, time.UTC)

func today() model.Date { return model.DateOf(testNow) }

func newTestLogger(w io.Writer) *slog.Logger {
	if w == nil {
		w = io.Discard
	}
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: slog.LevelDebug}))
}

func newReminder(id, company, role string, deadline model.Date, email string) model.Reminder {
	return model.Reminder{
		JobID:     id,
		Company:   company,
		Role:      role,
		Deadline:  deadline,
		UserName:  "Ada",
		UserEmail: email,
	}
}

// newTestRunner wires a Runner around store and transport with the fixed clock.
func newTestRunner(store *fakeStore, transport email.Transport, metrics *Metrics, logOut io.Writer) (*Runner, error) {
	notifier, err := NewNotifier(transport, DefaultLeadDays)
	if err != nil {
		return nil, err
	}
	scanner := NewScanner(store, ScannerConfig{
		LeadDays: DefaultLeadDays,
		Location: time.UTC,
		Now:      func() time.Time { return testNow },
	})
	return NewRunner(scanner, notifier, NewStateUpdater(store), metrics, newTestLogger(logOut)), nil
}
