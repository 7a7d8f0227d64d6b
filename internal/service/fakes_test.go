package service

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/sakif/job-tracker/internal/apperror"
	"github.com/sakif/job-tracker/internal/model"
	"github.com/sakif/job-tracker/internal/repository"
)

// =========================================================================
// FAKES AND HELPERS
// =========================================================================

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// fakeUserRepo is an in-memory repository.UserRepository. Set an *Err
// field to simulate a database failure.
type fakeUserRepo struct {
	mu        sync.Mutex
	users     map[string]*model.User // keyed by internal ID
	nextID    int
	createErr error
	getErr    error
	upsertErr error
}

func newFakeUserRepo() *fakeUserRepo {
	return &fakeUserRepo{users: make(map[string]*model.User), nextID: 1}
}

func (f *fakeUserRepo) CreateUser(_ context.Context, user *model.User) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.createErr != nil {
		return f.createErr
	}
	for _, u := range f.users {
		if u.Email == user.Email {
			return apperror.Conflict("user", user.Email)
		}
	}
	f.insertLocked(user)
	return nil
}

func (f *fakeUserRepo) insertLocked(user *model.User) {
	user.ID = fmt.Sprintf("user-%d", f.nextID)
	f.nextID++
	user.CreatedAt = time.Now()
	user.UpdatedAt = user.CreatedAt
	copied := *user
	f.users[user.ID] = &copied
}

func (f *fakeUserRepo) GetUserByID(_ context.Context, id string) (*model.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.getErr != nil {
		return nil, f.getErr
	}
	u, ok := f.users[id]
	if !ok {
		return nil, apperror.NotFound("user", id)
	}
	copied := *u
	return &copied, nil
}

func (f *fakeUserRepo) GetUserByEmail(_ context.Context, email string) (*model.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.getErr != nil {
		return nil, f.getErr
	}
	for _, u := range f.users {
		if u.Email == email {
			copied := *u
			return &copied, nil
		}
	}
	return nil, apperror.NotFound("user", email)
}

func (f *fakeUserRepo) UpsertGitHubUser(_ context.Context, user *model.User) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.upsertErr != nil {
		return f.upsertErr
	}
	var match *model.User
	for _, u := range f.users {
		if u.GitHubID != nil && *u.GitHubID == *user.GitHubID {
			match = u
			break
		}
	}
	if match == nil {
		for _, u := range f.users {
			if u.Email == user.Email {
				match = u
				break
			}
		}
	}
	if match == nil {
		f.insertLocked(user)
		return nil
	}
	match.Name = user.Name
	match.GitHubID = user.GitHubID
	*user = *match
	return nil
}

// fakeJobRepo is an in-memory repository.JobRepository. It records the
// last filter and patch so tests can assert on what the service passed.
type fakeJobRepo struct {
	mu     sync.Mutex
	jobs   []*model.Job
	nextID int

	lastFilter repository.JobFilter
	lastPatch  repository.JobPatch
	listTotal  int
	stats      map[string]int

	err error // returned by every method when set
}

func newFakeJobRepo() *fakeJobRepo {
	return &fakeJobRepo{nextID: 1}
}

func (f *fakeJobRepo) insertLocked(job *model.Job) {
	job.ID = fmt.Sprintf("job-%d", f.nextID)
	f.nextID++
	job.CreatedAt = time.Now()
	job.UpdatedAt = job.CreatedAt
	copied := *job
	f.jobs = append(f.jobs, &copied)
}

func (f *fakeJobRepo) CreateJob(_ context.Context, job *model.Job) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	f.insertLocked(job)
	return nil
}

func (f *fakeJobRepo) CreateJobs(_ context.Context, jobs []*model.Job) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return 0, f.err
	}
	for _, j := range jobs {
		f.insertLocked(j)
	}
	return len(jobs), nil
}

func (f *fakeJobRepo) find(userID, id string) *model.Job {
	for _, j := range f.jobs {
		if j.ID == id && j.UserID == userID {
			return j
		}
	}
	return nil
}

func (f *fakeJobRepo) GetJob(_ context.Context, userID, id string) (*model.Job, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	j := f.find(userID, id)
	if j == nil {
		return nil, apperror.NotFound("job", id)
	}
	copied := *j
	return &copied, nil
}

func (f *fakeJobRepo) ListJobs(_ context.Context, userID string, filter repository.JobFilter) ([]model.Job, int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.lastFilter = filter
	if f.err != nil {
		return nil, 0, f.err
	}
	var out []model.Job
	for _, j := range f.jobs {
		if j.UserID == userID {
			out = append(out, *j)
		}
	}
	total := len(out)
	if f.listTotal > 0 {
		total = f.listTotal
	}
	return out, total, nil
}

func (f *fakeJobRepo) UpdateJob(_ context.Context, userID, id string, patch repository.JobPatch) (*model.Job, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.lastPatch = patch
	if f.err != nil {
		return nil, f.err
	}
	j := f.find(userID, id)
	if j == nil {
		return nil, apperror.NotFound("job", id)
	}
	if patch.Company != nil {
		j.Company = *patch.Company
	}
	if patch.Role != nil {
		j.Role = *patch.Role
	}
	if patch.Status != nil {
		j.Status = *patch.Status
	}
	if patch.SetDeadline {
		j.Deadline = patch.Deadline
	}
	if patch.SetAppliedThrough {
		j.AppliedThrough = patch.AppliedThrough
	}
	if patch.SetInterviewDate {
		j.InterviewDate = patch.InterviewDate
	}
	copied := *j
	return &copied, nil
}

func (f *fakeJobRepo) DeleteJob(_ context.Context, userID, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	for i, j := range f.jobs {
		if j.ID == id && j.UserID == userID {
			f.jobs = append(f.jobs[:i], f.jobs[i+1:]...)
			return nil
		}
	}
	return apperror.NotFound("job", id)
}

func (f *fakeJobRepo) JobStats(_ context.Context, userID string) (map[string]int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	if f.stats != nil {
		return f.stats, nil
	}
	stats := map[string]int{}
	for _, j := range f.jobs {
		if j.UserID == userID {
			stats[j.Status]++
		}
	}
	return stats, nil
}

func strPtr(s string) *string { return &s }

func csvInput(lines ...string) *strings.Reader {
	return strings.NewReader(strings.Join(lines, "\n") + "\n")
}
