package handler_test

import (
	"bytes"
	"context"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sakif/job-tracker/internal/handler"
	"github.com/sakif/job-tracker/internal/model"
)

type jobBody struct {
	ID             string  `json:"id"`
	Company        string  `json:"company"`
	Role           string  `json:"role"`
	Status         string  `json:"status"`
	Deadline       *string `json:"deadline"`
	AppliedThrough *string `json:"applied_through"`
	ReminderSent   bool    `json:"reminder_sent"`
}

// =========================================================================
// CREATE / GET
// =========================================================================

func TestCreateJob(t *testing.T) {
	env := newTestEnv(t)
	token := env.signup(t, "Ada", "ada@example.com")

	w := env.do(t, http.MethodPost, "/api/jobs", map[string]string{
		"company": "Acme", "role": "Backend Engineer", "deadline": "2026-11-01",
	}, token)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	var job jobBody
	decode(t, w, &job)
	assert.NotEmpty(t, job.ID)
	assert.Equal(t, "Applied", job.Status)
	require.NotNil(t, job.Deadline)
	assert.Equal(t, "2026-11-01", *job.Deadline)
	assert.Nil(t, job.AppliedThrough)
	assert.False(t, job.ReminderSent)
}

func TestCreateJob_Validation(t *testing.T) {
	env := newTestEnv(t)
	token := env.signup(t, "Ada", "ada@example.com")

	tests := []struct {
		name      string
		body      map[string]string
		wantField string
	}{
		{"missing company", map[string]string{"role": "Dev"}, "company"},
		{"missing role", map[string]string{"company": "Acme"}, "role"},
		{"bad deadline", map[string]string{"company": "Acme", "role": "Dev", "deadline": "tomorrow"}, "deadline"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := env.do(t, http.MethodPost, "/api/jobs", tt.body, token)
			assert.Equal(t, http.StatusBadRequest, w.Code)
			assert.Equal(t, tt.wantField, decodeError(t, w).Field)
		})
	}
}

func TestGetJob_ScopedToOwner(t *testing.T) {
	env := newTestEnv(t)
	ada := env.signup(t, "Ada", "ada@example.com")
	bob := env.signup(t, "Bob", "bob@example.com")
	id := env.createJob(t, ada, map[string]string{"company": "Acme", "role": "Dev"})

	w := env.do(t, http.MethodGet, "/api/jobs/"+id, nil, ada)
	assert.Equal(t, http.StatusOK, w.Code)

	w = env.do(t, http.MethodGet, "/api/jobs/"+id, nil, bob)
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "not_found", decodeError(t, w).Error)
}

func TestJobs_RequireAuth(t *testing.T) {
	env := newTestEnv(t)

	w := env.do(t, http.MethodGet, "/api/jobs", nil, "")
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

// =========================================================================
// LIST / STATS
// =========================================================================

func TestListJobs_Pagination(t *testing.T) {
	env := newTestEnv(t)
	token := env.signup(t, "Ada", "ada@example.com")
	for _, c := range []string{"Acme", "Globex", "Initech", "Umbrella", "Acme Labs"} {
		env.createJob(t, token, map[string]string{"company": c, "role": "Dev"})
	}

	w := env.do(t, http.MethodGet, "/api/jobs?page=2&limit=2&sortBy=created_at&sortOrder=asc", nil, token)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var page struct {
		Jobs       []jobBody `json:"jobs"`
		Total      int       `json:"total"`
		Page       int       `json:"page"`
		Limit      int       `json:"limit"`
		TotalPages int       `json:"totalPages"`
	}
	decode(t, w, &page)
	assert.Equal(t, 5, page.Total)
	assert.Equal(t, 2, page.Page)
	assert.Equal(t, 2, page.Limit)
	assert.Equal(t, 3, page.TotalPages)
	require.Len(t, page.Jobs, 2)
	assert.Equal(t, "Initech", page.Jobs[0].Company)
	assert.Equal(t, "Umbrella", page.Jobs[1].Company)
}

func TestListJobs_FiltersAndBadParams(t *testing.T) {
	env := newTestEnv(t)
	token := env.signup(t, "Ada", "ada@example.com")
	env.createJob(t, token, map[string]string{"company": "Acme", "role": "Backend"})
	env.createJob(t, token, map[string]string{"company": "Acme Labs", "role": "Frontend", "status": "Interview"})
	env.createJob(t, token, map[string]string{"company": "Globex", "role": "Backend"})

	tests := []struct {
		query     string
		wantTotal int
	}{
		{"company=acme", 2},
		{"status=Interview", 1},
		{"q=backend", 2},
		{"q=100%25", 0},
		{"page=abc&limit=-4", 3},
	}

	for _, tt := range tests {
		t.Run(tt.query, func(t *testing.T) {
			w := env.do(t, http.MethodGet, "/api/jobs?"+tt.query, nil, token)
			require.Equal(t, http.StatusOK, w.Code)

			var page struct {
				Total int `json:"total"`
				Page  int `json:"page"`
				Limit int `json:"limit"`
			}
			decode(t, w, &page)
			assert.Equal(t, tt.wantTotal, page.Total)
			assert.Equal(t, 1, page.Page)
			assert.Equal(t, 20, page.Limit)
		})
	}
}

func TestListJobs_EmptyIsArray(t *testing.T) {
	env := newTestEnv(t)
	token := env.signup(t, "Ada", "ada@example.com")

	w := env.do(t, http.MethodGet, "/api/jobs", nil, token)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"jobs":[]`)
}

func TestJobStats(t *testing.T) {
	env := newTestEnv(t)
	token := env.signup(t, "Ada", "ada@example.com")
	env.createJob(t, token, map[string]string{"company": "A", "role": "Dev"})
	env.createJob(t, token, map[string]string{"company": "B", "role": "Dev"})
	env.createJob(t, token, map[string]string{"company": "C", "role": "Dev", "status": "Offer"})

	w := env.do(t, http.MethodGet, "/api/jobs/stats", nil, token)
	require.Equal(t, http.StatusOK, w.Code)

	var resp handler.StatsResponse
	decode(t, w, &resp)
	assert.Equal(t, map[string]int{"Applied": 2, "Offer": 1}, resp.Stats)
}

// =========================================================================
// UPDATE / DELETE
// =========================================================================

func TestUpdateJob(t *testing.T) {
	env := newTestEnv(t)
	token := env.signup(t, "Ada", "ada@example.com")
	id := env.createJob(t, token, map[string]string{
		"company": "Acme", "role": "Dev", "deadline": "2026-11-01", "applied_through": "LinkedIn",
	})

	w := env.do(t, http.MethodPut, "/api/jobs/"+id, map[string]string{
		"status": "Interview", "applied_through": "",
	}, token)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var job jobBody
	decode(t, w, &job)
	assert.Equal(t, "Interview", job.Status)
	assert.Nil(t, job.AppliedThrough, "empty string clears the field")
	require.NotNil(t, job.Deadline, "fields not sent are left alone")
	assert.Equal(t, "2026-11-01", *job.Deadline)
}

func TestUpdateJob_NullClearsDeadline(t *testing.T) {
	env := newTestEnv(t)
	token := env.signup(t, "Ada", "ada@example.com")
	deadline := model.NewDate(2026, 10, 22)

	tests := []struct {
		name string
		body string
	}{
		{"null only", `{"deadline":null}`},
		{"null with other fields", `{"status":"Interview","deadline":null}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			id := env.createJob(t, token, map[string]string{
				"company": "Acme", "role": "Dev", "deadline": deadline.String(),
			})

			w := env.do(t, http.MethodPut, "/api/jobs/"+id, tt.body, token)
			require.Equal(t, http.StatusOK, w.Code, w.Body.String())

			var job jobBody
			decode(t, w, &job)
			assert.Nil(t, job.Deadline)

			// A cleared deadline is no longer picked up by the reminder scan.
			due, err := env.db.DueReminders(context.Background(), deadline)
			require.NoError(t, err)
			for _, r := range due {
				assert.NotEqual(t, id, r.JobID)
			}
		})
	}
}

func TestUpdateJob_SendBackReadJob(t *testing.T) {
	env := newTestEnv(t)
	token := env.signup(t, "Ada", "ada@example.com")
	id := env.createJob(t, token, map[string]string{"company": "Acme", "role": "Dev", "deadline": "2026-11-01"})

	w := env.do(t, http.MethodPut, "/api/jobs/"+id,
		`{"company":"Acme","role":"Dev","status":"Offer","deadline":null,"applied_through":null,"interview_date":null}`, token)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var job jobBody
	decode(t, w, &job)
	assert.Equal(t, "Offer", job.Status)
	assert.Nil(t, job.Deadline)
	assert.Nil(t, job.AppliedThrough)
}

func TestUpdateJob_Errors(t *testing.T) {
	env := newTestEnv(t)
	ada := env.signup(t, "Ada", "ada@example.com")
	bob := env.signup(t, "Bob", "bob@example.com")
	id := env.createJob(t, ada, map[string]string{"company": "Acme", "role": "Dev"})

	w := env.do(t, http.MethodPut, "/api/jobs/"+id, map[string]string{}, ada)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "No fields to update", decodeError(t, w).Message)

	w = env.do(t, http.MethodPut, "/api/jobs/"+id, map[string]string{"status": "Offer"}, bob)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = env.do(t, http.MethodPut, "/api/jobs/"+id, `not json`, ada)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestDeleteJob(t *testing.T) {
	env := newTestEnv(t)
	ada := env.signup(t, "Ada", "ada@example.com")
	bob := env.signup(t, "Bob", "bob@example.com")
	id := env.createJob(t, ada, map[string]string{"company": "Acme", "role": "Dev"})

	w := env.do(t, http.MethodDelete, "/api/jobs/"+id, nil, bob)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = env.do(t, http.MethodDelete, "/api/jobs/"+id, nil, ada)
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"message":"Job deleted successfully"}`, w.Body.String())

	w = env.do(t, http.MethodGet, "/api/jobs/"+id, nil, ada)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

// =========================================================================
// IMPORT
// =========================================================================

// uploadCSV posts content as the "file" part of a multipart form.
func (e *testEnv) uploadCSV(t *testing.T, token, field, content string) *httptest.ResponseRecorder {
	t.Helper()

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	part, err := mw.CreateFormFile(field, "jobs.csv")
	require.NoError(t, err)
	_, err = part.Write([]byte(content))
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/jobs/import", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	req.Header.Set("Authorization", "Bearer "+token)

	w := httptest.NewRecorder()
	e.router.ServeHTTP(w, req)
	return w
}

func TestImportJobs(t *testing.T) {
	env := newTestEnv(t)
	token := env.signup(t, "Ada", "ada@example.com")

	csv := "Company, Role ,Status,Deadline\nAcme,Dev,,2026-11-01\nGlobex,QA,Offer,\n"
	w := env.uploadCSV(t, token, "file", csv)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.JSONEq(t, `{"message":"Import successful","insertedRows":2}`, w.Body.String())

	w = env.do(t, http.MethodGet, "/api/jobs/stats", nil, token)
	var resp handler.StatsResponse
	decode(t, w, &resp)
	assert.Equal(t, map[string]int{"Applied": 1, "Offer": 1}, resp.Stats)
}

func TestImportJobs_Errors(t *testing.T) {
	env := newTestEnv(t)
	token := env.signup(t, "Ada", "ada@example.com")

	tests := []struct {
		name    string
		field   string
		content string
		wantMsg string
	}{
		{"missing file part", "upload", "company,role\nAcme,Dev\n", "CSV file is required (form-data, key=file)"},
		{"header only", "file", "company,role\n", "CSV is empty or invalid headers"},
		{"bad row", "file", "company,role\nAcme,Dev\n,QA\n", "row 3: company is required"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := env.uploadCSV(t, token, tt.field, tt.content)
			assert.Equal(t, http.StatusBadRequest, w.Code)
			assert.Contains(t, decodeError(t, w).Message, tt.wantMsg)
		})
	}

	// A rejected file inserts nothing.
	w := env.do(t, http.MethodGet, "/api/jobs", nil, token)
	assert.Contains(t, w.Body.String(), `"total":0`)
}
