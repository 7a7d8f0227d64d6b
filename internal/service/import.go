package service

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/sakif/job-tracker/internal/apperror"
	"github.com/sakif/job-tracker/internal/model"
)

// MaxImportRows caps a single CSV import.
const MaxImportRows = 5000

// errEmptyCSV is the answer for a file with no header or no data rows.
var errEmptyCSV = apperror.ValidationFailed("file", "CSV is empty or invalid headers")

// importColumns are the recognised headers. Matching is case-insensitive
// after trimming; unknown columns are ignored.
var importColumns = []string{"company", "role", "status", "deadline", "applied_through", "interview_date"}

// Import reads a CSV of jobs and stores all of them for userID in one
// transaction. It returns the number of rows inserted.
//
// CSV FORMAT:
//
//	company,role,status,deadline,applied_through,interview_date
//	Acme,Backend Engineer,Applied,2026-11-01,LinkedIn,
//
// company and role columns are required. Values are trimmed, empty values
// become NULL and an empty status becomes Applied. The first bad row
// rejects the whole file with an error naming its line.
func (s *JobService) Import(ctx context.Context, userID string, r io.Reader) (int, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if errors.Is(err, io.EOF) {
		return 0, errEmptyCSV
	}
	if err != nil {
		return 0, apperror.ValidationFailed("file", fmt.Sprintf("CSV parse error: %v", err))
	}

	index := headerIndex(header)
	if _, ok := index["company"]; !ok {
		return 0, errEmptyCSV
	}
	if _, ok := index["role"]; !ok {
		return 0, errEmptyCSV
	}

	var jobs []*model.Job
	for {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return 0, apperror.ValidationFailed("file", fmt.Sprintf("CSV parse error: %v", err))
		}
		line, _ := reader.FieldPos(0)

		if len(jobs) == MaxImportRows {
			return 0, apperror.ValidationFailed("file",
				fmt.Sprintf("CSV has more than %d rows", MaxImportRows))
		}

		field := func(name string) string {
			i, ok := index[name]
			if !ok || i >= len(record) {
				return ""
			}
			return record[i]
		}

		job, err := buildJob(userID, JobInput{
			Company:        field("company"),
			Role:           field("role"),
			Status:         field("status"),
			Deadline:       field("deadline"),
			AppliedThrough: field("applied_through"),
			InterviewDate:  field("interview_date"),
		})
		if err != nil {
			var appErr *apperror.AppError
			if errors.As(err, &appErr) {
				return 0, apperror.ValidationFailed(appErr.Field,
					fmt.Sprintf("row %d: %s", line, appErr.Message))
			}
			return 0, err
		}
		jobs = append(jobs, job)
	}

	if len(jobs) == 0 {
		return 0, errEmptyCSV
	}

	n, err := s.repo.CreateJobs(ctx, jobs)
	if err != nil {
		s.logger.Error("failed to import jobs",
			slog.String("user_id", userID),
			slog.Int("rows", len(jobs)),
			slog.String("error", err.Error()),
		)
		return 0, fmt.Errorf("importing jobs: %w", err)
	}

	s.logger.Info("jobs imported", slog.String("user_id", userID), slog.Int("rows", n))
	return n, nil
}

// headerIndex maps each recognised column name to its position. A UTF-8
// byte order mark on the first header is dropped.
func headerIndex(header []string) map[string]int {
	index := make(map[string]int, len(importColumns))
	for i, h := range header {
		if i == 0 {
			h = strings.TrimPrefix(h, "\ufeff")
		}
		h = strings.ToLower(strings.TrimSpace(h))
		for _, col := range importColumns {
			if h == col {
				if _, seen := index[col]; !seen {
					index[col] = i
				}
			}
		}
	}
	return index
}
