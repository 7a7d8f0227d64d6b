package handler_test

import (
	"context"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sakif/job-tracker/internal/auth"
	"github.com/sakif/job-tracker/internal/handler"
	"github.com/sakif/job-tracker/internal/model"
)

func TestSignup_Created(t *testing.T) {
	env := newTestEnv(t)

	w := env.do(t, http.MethodPost, "/api/users/signup", map[string]string{
		"name": "Ada", "email": "Ada@Example.com", "password": testPassword,
	}, "")

	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	assert.Equal(t, "application/json", w.Header().Get("Content-Type"))
	assert.NotContains(t, w.Body.String(), "password")

	var resp handler.UserResponse
	decode(t, w, &resp)
	assert.Equal(t, "User registered successfully", resp.Message)
	assert.Equal(t, "ada@example.com", resp.User.Email)
	assert.NotEmpty(t, resp.User.ID)
}

func TestSignup_Errors(t *testing.T) {
	env := newTestEnv(t)
	env.signup(t, "Ada", "ada@example.com")

	tests := []struct {
		name       string
		body       any
		wantStatus int
		wantField  string
	}{
		{"duplicate email", map[string]string{"name": "Other", "email": "ada@example.com", "password": testPassword}, http.StatusConflict, "email"},
		{"weak password", map[string]string{"name": "Bob", "email": "bob@example.com", "password": "password"}, http.StatusBadRequest, "password"},
		{"bad email", map[string]string{"name": "Bob", "email": "not-an-email", "password": testPassword}, http.StatusBadRequest, "email"},
		{"missing name", map[string]string{"email": "bob@example.com", "password": testPassword}, http.StatusBadRequest, "name"},
		{"invalid json", `{"name":`, http.StatusBadRequest, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := env.do(t, http.MethodPost, "/api/users/signup", tt.body, "")
			assert.Equal(t, tt.wantStatus, w.Code, w.Body.String())
			assert.Equal(t, tt.wantField, decodeError(t, w).Field)
		})
	}
}

func TestLogin_SetsTokenCookie(t *testing.T) {
	env := newTestEnv(t)
	env.signup(t, "Ada", "ada@example.com")

	w := env.do(t, http.MethodPost, "/api/users/login", map[string]string{
		"email": "ada@example.com", "password": testPassword,
	}, "")
	require.Equal(t, http.StatusOK, w.Code)

	var resp handler.TokenResponse
	decode(t, w, &resp)
	assert.Equal(t, "Login successful", resp.Message)
	assert.Equal(t, "ada@example.com", resp.User.Email)

	identity, err := env.tokens.Validate(resp.Token)
	require.NoError(t, err)
	assert.Equal(t, resp.User.ID, identity.UserID)

	var cookie *http.Cookie
	for _, c := range w.Result().Cookies() {
		if c.Name == auth.TokenCookie {
			cookie = c
		}
	}
	require.NotNil(t, cookie, "token cookie not set")
	assert.Equal(t, resp.Token, cookie.Value)
	assert.True(t, cookie.HttpOnly)
	assert.Equal(t, 3600, cookie.MaxAge)
}

func TestLogin_InvalidCredentials(t *testing.T) {
	env := newTestEnv(t)
	env.signup(t, "Ada", "ada@example.com")

	ghID := int64(4242)
	require.NoError(t, env.db.UpsertGitHubUser(context.Background(), &model.User{
		Name: "octocat", Email: "octo@example.com", GitHubID: &ghID,
	}))

	tests := []struct {
		name string
		body map[string]string
	}{
		{"wrong password", map[string]string{"email": "ada@example.com", "password": "Wr0ng!Pass"}},
		{"unknown email", map[string]string{"email": "nobody@example.com", "password": testPassword}},
		{"github-only account", map[string]string{"email": "octo@example.com", "password": testPassword}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := env.do(t, http.MethodPost, "/api/users/login", tt.body, "")
			assert.Equal(t, http.StatusUnauthorized, w.Code)
			resp := decodeError(t, w)
			assert.Equal(t, "unauthorized", resp.Error)
			assert.Equal(t, "Invalid credentials", resp.Message)
		})
	}
}

func TestMe(t *testing.T) {
	env := newTestEnv(t)
	token := env.signup(t, "Ada", "ada@example.com")

	w := env.do(t, http.MethodGet, "/api/me", nil, token)
	require.Equal(t, http.StatusOK, w.Code)

	var user struct {
		Name  string `json:"name"`
		Email string `json:"email"`
	}
	decode(t, w, &user)
	assert.Equal(t, "Ada", user.Name)
	assert.Equal(t, "ada@example.com", user.Email)
}

func TestMe_RequiresToken(t *testing.T) {
	env := newTestEnv(t)

	w := env.do(t, http.MethodGet, "/api/me", nil, "")
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = env.do(t, http.MethodGet, "/api/me", nil, "not-a-token")
	assert.Equal(t, http.StatusForbidden, w.Code)
}
