package reminder

import (
	"context"
	"fmt"

	"github.com/sakif/job-tracker/internal/repository"
)

// StateUpdater persists the reminder-sent flag.
type StateUpdater struct {
	store repository.ReminderRepository
}

func NewStateUpdater(store repository.ReminderRepository) *StateUpdater {
	return &StateUpdater{store: store}
}

// MarkSent records that jobID's reminder was delivered. Call it only after
// a successful send. Each call is a single independent write.
func (u *StateUpdater) MarkSent(ctx context.Context, jobID string) error {
	if err := u.store.MarkReminderSent(ctx, jobID); err != nil {
		return fmt.Errorf("reminder: marking job %s as sent: %w", jobID, err)
	}
	return nil
}
