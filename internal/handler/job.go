package handler

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/sakif/job-tracker/internal/auth"
	"github.com/sakif/job-tracker/internal/service"
)

// maxImportSize caps the multipart body of a CSV import.
const maxImportSize = 10 << 20

// JobHandler handles HTTP requests for tracked job applications.
// Every route is behind RequireAuth and scoped to the caller.
type JobHandler struct {
	jobs   *service.JobService
	logger *slog.Logger
}

func NewJobHandler(jobs *service.JobService, logger *slog.Logger) *JobHandler {
	return &JobHandler{
		jobs:   jobs,
		logger: logger,
	}
}

// StatsResponse is the body of GET /api/jobs/stats.
type StatsResponse struct {
	Stats map[string]int `json:"stats"`
}

// ImportResponse is the body of a successful CSV import.
type ImportResponse struct {
	Message      string `json:"message"`
	InsertedRows int    `json:"insertedRows"`
}

// HandleCreate adds a job for the caller.
//
// HTTP: POST /api/jobs
// Response: 201 Created with the job
func (h *JobHandler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.userID(w, r)
	if !ok {
		return
	}

	var in service.JobInput
	if err := decodeJSON(w, r, &in); err != nil {
		writeError(w, err)
		return
	}

	job, err := h.jobs.Create(r.Context(), userID, in)
	if err != nil {
		logIfInternal(h.logger, "create job failed", err, slog.String("user_id", userID))
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, job)
}

// HandleList returns one page of the caller's jobs.
//
// HTTP: GET /api/jobs?company=&status=&q=&page=&limit=&sortBy=&sortOrder=
//
// Unparseable page or limit values fall back to their defaults.
func (h *JobHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.userID(w, r)
	if !ok {
		return
	}

	q := r.URL.Query()
	page, _ := strconv.Atoi(q.Get("page"))
	limit, _ := strconv.Atoi(q.Get("limit"))

	result, err := h.jobs.List(r.Context(), userID, service.ListQuery{
		Company:   q.Get("company"),
		Status:    q.Get("status"),
		Query:     q.Get("q"),
		SortBy:    q.Get("sortBy"),
		SortOrder: q.Get("sortOrder"),
		Page:      page,
		Limit:     limit,
	})
	if err != nil {
		logIfInternal(h.logger, "list jobs failed", err, slog.String("user_id", userID))
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, result)
}

// HandleStats counts the caller's jobs per status.
//
// HTTP: GET /api/jobs/stats
func (h *JobHandler) HandleStats(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.userID(w, r)
	if !ok {
		return
	}

	stats, err := h.jobs.Stats(r.Context(), userID)
	if err != nil {
		logIfInternal(h.logger, "job stats failed", err, slog.String("user_id", userID))
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, StatsResponse{Stats: stats})
}

// HandleGet returns one job.
//
// HTTP: GET /api/jobs/{id}
// Response: 404 when the job does not exist or belongs to someone else
func (h *JobHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.userID(w, r)
	if !ok {
		return
	}
	id := chi.URLParam(r, "id")

	job, err := h.jobs.Get(r.Context(), userID, id)
	if err != nil {
		logIfInternal(h.logger, "get job failed", err, slog.String("job_id", id))
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, job)
}

// HandleUpdate applies a partial update.
//
// HTTP: PUT /api/jobs/{id}
// Body: any subset of the job fields; null or "" clears deadline,
// applied_through and interview_date
func (h *JobHandler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.userID(w, r)
	if !ok {
		return
	}
	id := chi.URLParam(r, "id")

	var upd service.JobUpdate
	if err := decodeJSON(w, r, &upd); err != nil {
		writeError(w, err)
		return
	}

	job, err := h.jobs.Update(r.Context(), userID, id, upd)
	if err != nil {
		logIfInternal(h.logger, "update job failed", err, slog.String("job_id", id))
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, job)
}

// HandleDelete removes a job.
//
// HTTP: DELETE /api/jobs/{id}
func (h *JobHandler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.userID(w, r)
	if !ok {
		return
	}
	id := chi.URLParam(r, "id")

	if err := h.jobs.Delete(r.Context(), userID, id); err != nil {
		logIfInternal(h.logger, "delete job failed", err, slog.String("job_id", id))
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, MessageResponse{Message: "Job deleted successfully"})
}

// HandleImport bulk-creates jobs from an uploaded CSV file.
//
// HTTP: POST /api/jobs/import (multipart/form-data, key "file")
//
// The whole file is inserted in one transaction: one bad row rejects the
// upload and the response names that row.
func (h *JobHandler) HandleImport(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.userID(w, r)
	if !ok {
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, maxImportSize)
	file, _, err := r.FormFile("file")
	if err != nil {
		var maxErr *http.MaxBytesError
		msg := "CSV file is required (form-data, key=file)"
		if errors.As(err, &maxErr) {
			msg = "CSV file is too large"
		}
		writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: "validation_error", Message: msg, Field: "file"})
		return
	}
	defer file.Close()

	inserted, err := h.jobs.Import(r.Context(), userID, file)
	if err != nil {
		logIfInternal(h.logger, "import failed", err, slog.String("user_id", userID))
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, ImportResponse{
		Message:      "Import successful",
		InsertedRows: inserted,
	})
}

// userID reads the caller from the context and answers 401 when there is
// none, which only happens if the route was mounted without RequireAuth.
func (h *JobHandler) userID(w http.ResponseWriter, r *http.Request) (string, bool) {
	id, ok := auth.UserIDFromContext(r.Context())
	if !ok {
		writeJSON(w, http.StatusUnauthorized, ErrorResponse{
			Error:   "unauthorized",
			Message: "Access denied. Token missing.",
		})
	}
	return id, ok
}
