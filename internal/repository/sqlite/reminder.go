package sqlite

import (
	"context"
	"fmt"
	"time"

	"github.com/sakif/job-tracker/internal/apperror"
	"github.com/sakif/job-tracker/internal/model"
	"github.com/sakif/job-tracker/internal/repository"
)

var _ repository.ReminderRepository = (*DB)(nil)

// DueReminders returns every unsent reminder for jobs whose deadline falls
// on exactly the given day, joined with the owner's name and email.
//
// Jobs with a NULL deadline never match "deadline = ?", so they are never
// reminded. Rows come back oldest job first so a cycle's send order is stable.
func (db *DB) DueReminders(ctx context.Context, deadline model.Date) ([]model.Reminder, error) {
	rows, err := db.conn.QueryContext(ctx,
		`SELECT j.id, j.company, j.role, j.deadline, u.name, u.email
		 FROM jobs j
		 JOIN users u ON u.id = j.user_id
		 WHERE j.deadline = ? AND j.reminder_sent = 0
		 ORDER BY j.created_at, j.id`,
		deadline.String(),
	)
	if err != nil {
		return nil, fmt.Errorf("sqlite: querying due reminders for %s: %w", deadline, err)
	}
	defer rows.Close()

	reminders := []model.Reminder{}
	for rows.Next() {
		var r model.Reminder
		if err := rows.Scan(
			&r.JobID, &r.Company, &r.Role, &r.Deadline,
			&r.UserName, &r.UserEmail,
		); err != nil {
			return nil, fmt.Errorf("sqlite: scanning reminder row: %w", err)
		}
		reminders = append(reminders, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlite: iterating reminders: %w", err)
	}

	return reminders, nil
}

// MarkReminderSent flips reminder_sent to 1 for a single job.
//
// One UPDATE per job, no transaction: a cycle that fails halfway leaves the
// jobs it already handled marked. Marking an already-marked job succeeds
// and changes nothing but updated_at.
func (db *DB) MarkReminderSent(ctx context.Context, jobID string) error {
	result, err := db.conn.ExecContext(ctx,
		`UPDATE jobs SET reminder_sent = 1, updated_at = ? WHERE id = ?`,
		time.Now(), jobID,
	)
	if err != nil {
		return fmt.Errorf("sqlite: marking reminder sent for job %s: %w", jobID, err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("sqlite: checking rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return apperror.NotFound("job", jobID)
	}
	return nil
}
