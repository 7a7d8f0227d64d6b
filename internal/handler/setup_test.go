package handler_test

import (
	"bytes"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/sakif/job-tracker/internal/auth"
	"github.com/sakif/job-tracker/internal/email"
	"github.com/sakif/job-tracker/internal/handler"
	"github.com/sakif/job-tracker/internal/repository/sqlite"
	"github.com/sakif/job-tracker/internal/service"
)

const (
	testSecret   = "handler-test-secret-0123456789"
	testPassword = "Str0ng!Pass"
)

// testEnv wires real services over an in-memory database, the same way
// the server does, so handler tests exercise the full request path.
type testEnv struct {
	router    http.Handler
	db        *sqlite.DB
	tokens    *auth.TokenService
	transport *email.MemoryTransport
}

func newTestEnv(t *testing.T) *testEnv {
	return newTestEnvWithGitHub(t, nil)
}

func newTestEnvWithGitHub(t *testing.T, github *auth.GitHubProvider) *testEnv {
	t.Helper()

	db, err := sqlite.New(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	tokens, err := auth.NewTokenService(testSecret, time.Hour)
	require.NoError(t, err)

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	transport := email.NewMemoryTransport()

	authSvc := service.NewAuthService(db, tokens, auth.NewPasswordServiceForTest(bcrypt.MinCost), logger)
	users := handler.NewUserHandler(authSvc, tokens.TTL(), logger)
	oauth := handler.NewAuthHandler(github, authSvc, tokens.TTL(), logger)
	jobs := handler.NewJobHandler(service.NewJobService(db, logger), logger)
	mail := handler.NewMailHandler(service.NewMailService(transport, logger), logger)
	health := handler.NewHealthHandler(db, logger)

	r := chi.NewRouter()
	r.Get("/", health.HandleRoot)
	r.Get("/healthz", health.HandleHealth)
	r.Route("/auth", func(r chi.Router) {
		r.Get("/github/login", oauth.HandleGitHubLogin)
		r.Get("/github/callback", oauth.HandleGitHubCallback)
		r.Post("/logout", oauth.HandleLogout)
	})
	r.Route("/api", func(r chi.Router) {
		r.Post("/users/signup", users.HandleSignup)
		r.Post("/users/login", users.HandleLogin)

		r.Group(func(r chi.Router) {
			r.Use(auth.RequireAuth(tokens))
			r.Get("/me", users.HandleMe)
			r.Post("/test-email/test", mail.HandleSendTest)
			r.Route("/jobs", func(r chi.Router) {
				r.Post("/", jobs.HandleCreate)
				r.Get("/", jobs.HandleList)
				r.Get("/stats", jobs.HandleStats)
				r.Post("/import", jobs.HandleImport)
				r.Get("/{id}", jobs.HandleGet)
				r.Put("/{id}", jobs.HandleUpdate)
				r.Delete("/{id}", jobs.HandleDelete)
			})
		})
	})

	return &testEnv{router: r, db: db, tokens: tokens, transport: transport}
}

// do sends a request with an optional JSON body and bearer token.
func (e *testEnv) do(t *testing.T, method, path string, body any, token string) *httptest.ResponseRecorder {
	t.Helper()

	var reader io.Reader
	if body != nil {
		if s, ok := body.(string); ok {
			reader = bytes.NewBufferString(s)
		} else {
			b, err := json.Marshal(body)
			require.NoError(t, err)
			reader = bytes.NewReader(b)
		}
	}

	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	w := httptest.NewRecorder()
	e.router.ServeHTTP(w, req)
	return w
}

// signup registers a user and returns a token for them.
func (e *testEnv) signup(t *testing.T, name, addr string) string {
	t.Helper()

	w := e.do(t, http.MethodPost, "/api/users/signup", map[string]string{
		"name": name, "email": addr, "password": testPassword,
	}, "")
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	w = e.do(t, http.MethodPost, "/api/users/login", map[string]string{
		"email": addr, "password": testPassword,
	}, "")
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var resp handler.TokenResponse
	decode(t, w, &resp)
	return resp.Token
}

// createJob posts a job and returns its id.
func (e *testEnv) createJob(t *testing.T, token string, in map[string]string) string {
	t.Helper()

	w := e.do(t, http.MethodPost, "/api/jobs", in, token)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	var job struct {
		ID string `json:"id"`
	}
	decode(t, w, &job)
	return job.ID
}

func decode(t *testing.T, w *httptest.ResponseRecorder, v any) {
	t.Helper()
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), v), w.Body.String())
}

func decodeError(t *testing.T, w *httptest.ResponseRecorder) handler.ErrorResponse {
	t.Helper()
	var resp handler.ErrorResponse
	decode(t, w, &resp)
	return resp
}
