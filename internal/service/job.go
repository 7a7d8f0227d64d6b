// Package service holds the business rules of the job tracker.
//
// THE THREE LAYERS:
//
//	Handler (HTTP)     → parses requests, writes responses
//	Service (business) → validates, enforces rules, orchestrates
//	Repository (data)  → reads/writes SQLite
//
// Services take repository interfaces and plain values, never HTTP types,
// and return apperror values that the handler layer maps to status codes.
package service

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"strings"

	"github.com/sakif/job-tracker/internal/apperror"
	"github.com/sakif/job-tracker/internal/model"
	"github.com/sakif/job-tracker/internal/repository"
)

// Validation and paging limits.
const (
	MaxFieldLength   = 255
	MaxStatusLength  = 50
	DefaultPageLimit = 20
	MaxPageLimit     = 100
)

// JobService handles business logic for tracked job applications.
// Every method is scoped to one user.
type JobService struct {
	repo   repository.JobRepository
	logger *slog.Logger
}

func NewJobService(repo repository.JobRepository, logger *slog.Logger) *JobService {
	return &JobService{
		repo:   repo,
		logger: logger,
	}
}

// JobInput is a new job as the client sends it. Empty optional fields
// are stored as NULL; an empty Status means Applied.
type JobInput struct {
	Company        string `json:"company"`
	Role           string `json:"role"`
	Status         string `json:"status"`
	Deadline       string `json:"deadline"`
	AppliedThrough string `json:"applied_through"`
	InterviewDate  string `json:"interview_date"`
}

// JobUpdate is a partial update. A missing field is left alone. The
// nullable fields are cleared by null or "", so a job read from the API
// can be sent back unchanged.
type JobUpdate struct {
	Company        *string   `json:"company"`
	Role           *string   `json:"role"`
	Status         *string   `json:"status"`
	Deadline       Clearable `json:"deadline"`
	AppliedThrough Clearable `json:"applied_through"`
	InterviewDate  Clearable `json:"interview_date"`
}

// ListQuery is the raw list request. Out-of-range values are corrected,
// not rejected.
type ListQuery struct {
	Company   string
	Status    string
	Query     string
	SortBy    string // "created_at" or anything else for deadline
	SortOrder string // "desc" or anything else for ascending
	Page      int
	Limit     int
}

// JobPage is one page of a list result.
type JobPage struct {
	Jobs       []model.Job `json:"jobs"`
	Total      int         `json:"total"`
	Page       int         `json:"page"`
	Limit      int         `json:"limit"`
	TotalPages int         `json:"totalPages"`
}

// Create validates and stores a new job for userID.
func (s *JobService) Create(ctx context.Context, userID string, in JobInput) (*model.Job, error) {
	job, err := buildJob(userID, in)
	if err != nil {
		return nil, err
	}

	if err := s.repo.CreateJob(ctx, job); err != nil {
		s.logger.Error("failed to create job",
			slog.String("user_id", userID),
			slog.String("error", err.Error()),
		)
		return nil, fmt.Errorf("creating job: %w", err)
	}

	s.logger.Info("job created",
		slog.String("id", job.ID),
		slog.String("user_id", userID),
	)
	return job, nil
}

// Get returns one of the user's jobs. Another user's job is NotFound.
func (s *JobService) Get(ctx context.Context, userID, id string) (*model.Job, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return nil, apperror.ValidationFailed("id", "job ID is required")
	}
	return s.repo.GetJob(ctx, userID, id)
}

// List returns a filtered, sorted page of the user's jobs.
//
// PAGING:
//   - page < 1 becomes 1
//   - limit outside 1..MaxPageLimit becomes DefaultPageLimit
//   - totalPages = ceil(total / limit)
func (s *JobService) List(ctx context.Context, userID string, q ListQuery) (*JobPage, error) {
	page := q.Page
	if page < 1 {
		page = 1
	}
	limit := q.Limit
	if limit < 1 || limit > MaxPageLimit {
		limit = DefaultPageLimit
	}

	sortBy := repository.SortByDeadline
	if q.SortBy == repository.SortByCreatedAt {
		sortBy = repository.SortByCreatedAt
	}

	jobs, total, err := s.repo.ListJobs(ctx, userID, repository.JobFilter{
		Company:    strings.TrimSpace(q.Company),
		Status:     strings.TrimSpace(q.Status),
		Query:      strings.TrimSpace(q.Query),
		SortBy:     sortBy,
		Descending: strings.EqualFold(q.SortOrder, "desc"),
		Limit:      limit,
		Offset:     (page - 1) * limit,
	})
	if err != nil {
		return nil, fmt.Errorf("listing jobs: %w", err)
	}
	if jobs == nil {
		jobs = []model.Job{}
	}

	return &JobPage{
		Jobs:       jobs,
		Total:      total,
		Page:       page,
		Limit:      limit,
		TotalPages: int(math.Ceil(float64(total) / float64(limit))),
	}, nil
}

// Update applies a partial update and returns the stored job.
// The reminder flag is never part of an update.
func (s *JobService) Update(ctx context.Context, userID, id string, upd JobUpdate) (*model.Job, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return nil, apperror.ValidationFailed("id", "job ID is required")
	}

	patch, err := buildPatch(upd)
	if err != nil {
		return nil, err
	}
	if patch.Empty() {
		return nil, apperror.ValidationFailed("", "No fields to update")
	}

	job, err := s.repo.UpdateJob(ctx, userID, id, patch)
	if err != nil {
		return nil, err
	}

	s.logger.Info("job updated", slog.String("id", id), slog.String("user_id", userID))
	return job, nil
}

// Delete removes one of the user's jobs.
func (s *JobService) Delete(ctx context.Context, userID, id string) error {
	id = strings.TrimSpace(id)
	if id == "" {
		return apperror.ValidationFailed("id", "job ID is required")
	}

	if err := s.repo.DeleteJob(ctx, userID, id); err != nil {
		return err
	}

	s.logger.Info("job deleted", slog.String("id", id), slog.String("user_id", userID))
	return nil
}

// Stats counts the user's jobs per status.
func (s *JobService) Stats(ctx context.Context, userID string) (map[string]int, error) {
	stats, err := s.repo.JobStats(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("counting jobs: %w", err)
	}
	return stats, nil
}

// buildJob validates in and turns it into a model.Job owned by userID.
func buildJob(userID string, in JobInput) (*model.Job, error) {
	company, err := requiredText("company", in.Company)
	if err != nil {
		return nil, err
	}
	role, err := requiredText("role", in.Role)
	if err != nil {
		return nil, err
	}

	status := strings.TrimSpace(in.Status)
	if status == "" {
		status = model.StatusApplied
	}
	if len(status) > MaxStatusLength {
		return nil, apperror.ValidationFailed("status",
			fmt.Sprintf("status must be %d characters or less", MaxStatusLength))
	}

	deadline, err := optionalDate("deadline", in.Deadline)
	if err != nil {
		return nil, err
	}
	interview, err := optionalDate("interview_date", in.InterviewDate)
	if err != nil {
		return nil, err
	}
	through, err := optionalText("applied_through", in.AppliedThrough)
	if err != nil {
		return nil, err
	}

	return &model.Job{
		UserID:         userID,
		Company:        company,
		Role:           role,
		Status:         status,
		Deadline:       deadline,
		AppliedThrough: through,
		InterviewDate:  interview,
	}, nil
}

func buildPatch(upd JobUpdate) (repository.JobPatch, error) {
	var patch repository.JobPatch

	if upd.Company != nil {
		v, err := requiredText("company", *upd.Company)
		if err != nil {
			return patch, err
		}
		patch.Company = &v
	}
	if upd.Role != nil {
		v, err := requiredText("role", *upd.Role)
		if err != nil {
			return patch, err
		}
		patch.Role = &v
	}
	if upd.Status != nil {
		v, err := requiredText("status", *upd.Status)
		if err != nil {
			return patch, err
		}
		if len(v) > MaxStatusLength {
			return patch, apperror.ValidationFailed("status",
				fmt.Sprintf("status must be %d characters or less", MaxStatusLength))
		}
		patch.Status = &v
	}
	if upd.Deadline.Set {
		d, err := optionalDate("deadline", upd.Deadline.Value)
		if err != nil {
			return patch, err
		}
		patch.SetDeadline, patch.Deadline = true, d
	}
	if upd.AppliedThrough.Set {
		v, err := optionalText("applied_through", upd.AppliedThrough.Value)
		if err != nil {
			return patch, err
		}
		patch.SetAppliedThrough, patch.AppliedThrough = true, v
	}
	if upd.InterviewDate.Set {
		d, err := optionalDate("interview_date", upd.InterviewDate.Value)
		if err != nil {
			return patch, err
		}
		patch.SetInterviewDate, patch.InterviewDate = true, d
	}

	return patch, nil
}

func requiredText(field, value string) (string, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return "", apperror.ValidationFailed(field, field+" is required")
	}
	if len(value) > MaxFieldLength {
		return "", apperror.ValidationFailed(field,
			fmt.Sprintf("%s must be %d characters or less", field, MaxFieldLength))
	}
	return value, nil
}

// optionalText returns nil for a blank value.
func optionalText(field, value string) (*string, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return nil, nil
	}
	if len(value) > MaxFieldLength {
		return nil, apperror.ValidationFailed(field,
			fmt.Sprintf("%s must be %d characters or less", field, MaxFieldLength))
	}
	return &value, nil
}

// optionalDate returns nil for a blank value and a validation error for
// anything that is not YYYY-MM-DD.
func optionalDate(field, value string) (*model.Date, error) {
	if strings.TrimSpace(value) == "" {
		return nil, nil
	}
	d, err := model.ParseDate(value)
	if err != nil {
		return nil, apperror.ValidationFailed(field,
			fmt.Sprintf("%s must be a date in YYYY-MM-DD format", field))
	}
	return &d, nil
}
