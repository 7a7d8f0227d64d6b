// Package repository declares the storage interfaces the services depend on.
//
// Services accept these interfaces, never *sqlite.DB, so tests can pass
// in-memory fakes and the storage engine stays swappable.
package repository

import (
	"context"

	"github.com/sakif/job-tracker/internal/model"
)

type UserRepository interface {
	CreateUser(ctx context.Context, user *model.User) error
	GetUserByID(ctx context.Context, id string) (*model.User, error)
	GetUserByEmail(ctx context.Context, email string) (*model.User, error)
	// UpsertGitHubUser links a GitHub account to a user: by github id
	// first, then by email, otherwise a new user is created.
	UpsertGitHubUser(ctx context.Context, user *model.User) error
}

// Sort keys accepted by JobFilter.SortBy.
const (
	SortByDeadline  = "deadline"
	SortByCreatedAt = "created_at"
)

// JobFilter narrows and orders a ListJobs call. Empty strings mean
// "no filter". Limit and Offset must already be clamped by the caller.
type JobFilter struct {
	Company    string // substring match
	Status     string // exact match
	Query      string // substring match on company OR role
	SortBy     string // SortByDeadline (default) or SortByCreatedAt
	Descending bool
	Limit      int
	Offset     int
}

// JobPatch is a partial update. A nil pointer leaves the column alone.
//
// The nullable columns need a third state ("set to NULL"), so they carry
// an explicit Set flag: SetDeadline with Deadline == nil clears the column.
type JobPatch struct {
	Company *string
	Role    *string
	Status  *string

	SetDeadline bool
	Deadline    *model.Date

	SetAppliedThrough bool
	AppliedThrough    *string

	SetInterviewDate bool
	InterviewDate    *model.Date
}

// Empty reports whether the patch would change nothing.
func (p JobPatch) Empty() bool {
	return p.Company == nil && p.Role == nil && p.Status == nil &&
		!p.SetDeadline && !p.SetAppliedThrough && !p.SetInterviewDate
}

// JobRepository stores jobs. Every method that takes a userID only ever
// sees that user's rows; another user's job looks exactly like a missing one.
type JobRepository interface {
	CreateJob(ctx context.Context, job *model.Job) error
	// CreateJobs inserts all jobs in one transaction and returns how many
	// rows were written. Either every job is stored or none is.
	CreateJobs(ctx context.Context, jobs []*model.Job) (int, error)
	GetJob(ctx context.Context, userID, id string) (*model.Job, error)
	ListJobs(ctx context.Context, userID string, filter JobFilter) ([]model.Job, int, error)
	UpdateJob(ctx context.Context, userID, id string, patch JobPatch) (*model.Job, error)
	DeleteJob(ctx context.Context, userID, id string) error
	// JobStats counts the user's jobs per status.
	JobStats(ctx context.Context, userID string) (map[string]int, error)
}

// ReminderRepository is the narrow view of the store used by the reminder
// pipeline. Each flag write is its own statement, with no surrounding
// transaction.
type ReminderRepository interface {
	// DueReminders returns unsent reminders for jobs whose deadline is
	// exactly the given day. An empty slice is a normal result.
	DueReminders(ctx context.Context, deadline model.Date) ([]model.Reminder, error)
	// MarkReminderSent sets reminder_sent for one job. It never clears it.
	MarkReminderSent(ctx context.Context, jobID string) error
}
