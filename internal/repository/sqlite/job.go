package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rs/xid"
	"github.com/sakif/job-tracker/internal/apperror"
	"github.com/sakif/job-tracker/internal/model"
	"github.com/sakif/job-tracker/internal/repository"
)

// COMPILE-TIME INTERFACE CHECK:
// If *DB stops satisfying repository.JobRepository, this line fails to
// compile instead of the mismatch surfacing later in server wiring.
var _ repository.JobRepository = (*DB)(nil)

const jobColumns = `id, user_id, company, role, status, deadline, applied_through,
	interview_date, reminder_sent, created_at, updated_at`

const insertJobSQL = `INSERT INTO jobs (id, user_id, company, role, status, deadline,
	applied_through, interview_date, reminder_sent, created_at, updated_at)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?, 0, ?, ?)`

// CreateJob inserts a new job owned by job.UserID.
//
// The ID and timestamps are generated here and written back into the
// caller's struct. ReminderSent always starts false, whatever the caller set.
func (db *DB) CreateJob(ctx context.Context, job *model.Job) error {
	prepareNewJob(job, time.Now())

	_, err := db.conn.ExecContext(ctx, insertJobSQL, jobArgs(job)...)
	if err != nil {
		return fmt.Errorf("sqlite: creating job: %w", err)
	}
	return nil
}

// CreateJobs inserts a batch of jobs in a single transaction.
//
// TRANSACTIONS:
// BeginTx → stmt.Exec per row → Commit. If any insert fails the deferred
// Rollback undoes the whole batch, so a CSV import is all-or-nothing.
// Rollback after a successful Commit is a harmless no-op.
func (db *DB) CreateJobs(ctx context.Context, jobs []*model.Job) (int, error) {
	if len(jobs) == 0 {
		return 0, nil
	}

	tx, err := db.conn.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("sqlite: beginning import transaction: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, insertJobSQL)
	if err != nil {
		return 0, fmt.Errorf("sqlite: preparing job insert: %w", err)
	}
	defer stmt.Close()

	now := time.Now()
	for i, job := range jobs {
		prepareNewJob(job, now)
		if _, err := stmt.ExecContext(ctx, jobArgs(job)...); err != nil {
			return 0, fmt.Errorf("sqlite: inserting job %d of %d: %w", i+1, len(jobs), err)
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("sqlite: committing import: %w", err)
	}
	return len(jobs), nil
}

// GetJob returns one of the user's jobs.
// A job owned by someone else is reported as apperror.ErrNotFound.
func (db *DB) GetJob(ctx context.Context, userID, id string) (*model.Job, error) {
	row := db.conn.QueryRowContext(ctx,
		`SELECT `+jobColumns+` FROM jobs WHERE id = ? AND user_id = ?`,
		id, userID,
	)

	job, err := scanJob(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperror.NotFound("job", id)
		}
		return nil, fmt.Errorf("sqlite: getting job %s: %w", id, err)
	}
	return job, nil
}

// ListJobs returns one page of the user's jobs plus the total number of
// jobs matching the filter (ignoring Limit/Offset).
//
// DYNAMIC SQL, SAFELY:
// The WHERE clause is assembled from fixed fragments only; every user value
// goes through a ? placeholder. ORDER BY cannot be parameterised, so the
// sort column comes from a closed switch, never from the request.
func (db *DB) ListJobs(ctx context.Context, userID string, filter repository.JobFilter) ([]model.Job, int, error) {
	where := []string{"user_id = ?"}
	args := []any{userID}

	if filter.Company != "" {
		where = append(where, `company LIKE ? ESCAPE '\'`)
		args = append(args, likePattern(filter.Company))
	}
	if filter.Status != "" {
		where = append(where, "status = ?")
		args = append(args, filter.Status)
	}
	if filter.Query != "" {
		where = append(where, `(company LIKE ? ESCAPE '\' OR role LIKE ? ESCAPE '\')`)
		args = append(args, likePattern(filter.Query), likePattern(filter.Query))
	}
	whereSQL := strings.Join(where, " AND ")

	var total int
	err := db.conn.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM jobs WHERE `+whereSQL, args...,
	).Scan(&total)
	if err != nil {
		return nil, 0, fmt.Errorf("sqlite: counting jobs: %w", err)
	}

	direction := "ASC"
	if filter.Descending {
		direction = "DESC"
	}
	var orderSQL string
	switch filter.SortBy {
	case repository.SortByCreatedAt:
		orderSQL = "created_at " + direction + ", id " + direction
	default:
		// Jobs without a deadline always go last, whichever direction.
		orderSQL = "(deadline IS NULL), deadline " + direction + ", id " + direction
	}

	rows, err := db.conn.QueryContext(ctx,
		`SELECT `+jobColumns+` FROM jobs WHERE `+whereSQL+
			` ORDER BY `+orderSQL+` LIMIT ? OFFSET ?`,
		append(args, filter.Limit, filter.Offset)...,
	)
	if err != nil {
		return nil, 0, fmt.Errorf("sqlite: listing jobs: %w", err)
	}
	defer rows.Close()

	jobs := make([]model.Job, 0, filter.Limit)
	for rows.Next() {
		job, err := scanJob(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("sqlite: scanning job row: %w", err)
		}
		jobs = append(jobs, *job)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("sqlite: iterating jobs: %w", err)
	}

	return jobs, total, nil
}

// UpdateJob applies a partial update and returns the stored job.
//
// Only the columns present in the patch are written. reminder_sent is never
// part of the SET list: editing a job (even its deadline) does not re-arm
// a reminder that was already delivered.
func (db *DB) UpdateJob(ctx context.Context, userID, id string, patch repository.JobPatch) (*model.Job, error) {
	var (
		sets []string
		args []any
	)
	if patch.Company != nil {
		sets = append(sets, "company = ?")
		args = append(args, *patch.Company)
	}
	if patch.Role != nil {
		sets = append(sets, "role = ?")
		args = append(args, *patch.Role)
	}
	if patch.Status != nil {
		sets = append(sets, "status = ?")
		args = append(args, *patch.Status)
	}
	if patch.SetDeadline {
		sets = append(sets, "deadline = ?")
		args = append(args, dateArg(patch.Deadline))
	}
	if patch.SetAppliedThrough {
		sets = append(sets, "applied_through = ?")
		args = append(args, nullString(patch.AppliedThrough))
	}
	if patch.SetInterviewDate {
		sets = append(sets, "interview_date = ?")
		args = append(args, dateArg(patch.InterviewDate))
	}
	if len(sets) == 0 {
		return nil, apperror.ValidationFailed("", "no fields to update")
	}

	sets = append(sets, "updated_at = ?")
	args = append(args, time.Now(), id, userID)

	result, err := db.conn.ExecContext(ctx,
		`UPDATE jobs SET `+strings.Join(sets, ", ")+` WHERE id = ? AND user_id = ?`,
		args...,
	)
	if err != nil {
		return nil, fmt.Errorf("sqlite: updating job %s: %w", id, err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return nil, fmt.Errorf("sqlite: checking rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return nil, apperror.NotFound("job", id)
	}

	return db.GetJob(ctx, userID, id)
}

// DeleteJob removes one of the user's jobs.
// Same pattern as UpdateJob: RowsAffected == 0 means "not yours or gone".
func (db *DB) DeleteJob(ctx context.Context, userID, id string) error {
	result, err := db.conn.ExecContext(ctx,
		`DELETE FROM jobs WHERE id = ? AND user_id = ?`,
		id, userID,
	)
	if err != nil {
		return fmt.Errorf("sqlite: deleting job %s: %w", id, err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("sqlite: checking rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return apperror.NotFound("job", id)
	}
	return nil
}

// JobStats counts the user's jobs grouped by status.
func (db *DB) JobStats(ctx context.Context, userID string) (map[string]int, error) {
	rows, err := db.conn.QueryContext(ctx,
		`SELECT status, COUNT(*) FROM jobs WHERE user_id = ? GROUP BY status`,
		userID,
	)
	if err != nil {
		return nil, fmt.Errorf("sqlite: counting jobs by status: %w", err)
	}
	defer rows.Close()

	stats := make(map[string]int)
	for rows.Next() {
		var (
			status string
			count  int
		)
		if err := rows.Scan(&status, &count); err != nil {
			return nil, fmt.Errorf("sqlite: scanning job stats: %w", err)
		}
		stats[status] = count
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlite: iterating job stats: %w", err)
	}
	return stats, nil
}

func prepareNewJob(job *model.Job, now time.Time) {
	job.ID = xid.New().String()
	job.ReminderSent = false
	job.CreatedAt = now
	job.UpdatedAt = now
	if job.Status == "" {
		job.Status = model.StatusApplied
	}
}

// jobArgs returns the insertJobSQL arguments in column order.
func jobArgs(job *model.Job) []any {
	return []any{
		job.ID,
		job.UserID,
		job.Company,
		job.Role,
		job.Status,
		dateArg(job.Deadline),
		nullString(job.AppliedThrough),
		dateArg(job.InterviewDate),
		job.CreatedAt,
		job.UpdatedAt,
	}
}

// rowScanner is satisfied by both *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

func scanJob(row rowScanner) (*model.Job, error) {
	var (
		job            model.Job
		deadline       sql.Null[model.Date]
		appliedThrough sql.NullString
		interviewDate  sql.Null[model.Date]
	)
	err := row.Scan(
		&job.ID,
		&job.UserID,
		&job.Company,
		&job.Role,
		&job.Status,
		&deadline,
		&appliedThrough,
		&interviewDate,
		&job.ReminderSent,
		&job.CreatedAt,
		&job.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	job.Deadline = datePtr(deadline)
	job.AppliedThrough = stringPtr(appliedThrough)
	job.InterviewDate = datePtr(interviewDate)
	return &job, nil
}

// likePattern wraps s in % wildcards, escaping any LIKE metacharacters
// the user typed so "50%" matches literally.
func likePattern(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return "%" + r.Replace(s) + "%"
}
