package handler

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/sakif/job-tracker/internal/auth"
	"github.com/sakif/job-tracker/internal/model"
	"github.com/sakif/job-tracker/internal/service"
)

// UserHandler serves password sign-up, login and the current-user lookup.
//
// HANDLER RESPONSIBILITIES:
//   - HandleSignup → POST /api/users/signup
//   - HandleLogin  → POST /api/users/login
//   - HandleMe     → GET  /api/me
type UserHandler struct {
	users    *service.AuthService
	tokenTTL time.Duration
	logger   *slog.Logger
}

// NewUserHandler creates a UserHandler. tokenTTL sets the lifetime of the
// token cookie written on login and should match the token service.
func NewUserHandler(users *service.AuthService, tokenTTL time.Duration, logger *slog.Logger) *UserHandler {
	return &UserHandler{
		users:    users,
		tokenTTL: tokenTTL,
		logger:   logger,
	}
}

// SignupRequest is the body of POST /api/users/signup.
type SignupRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

// LoginRequest is the body of POST /api/users/login.
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// UserResponse wraps a user with a confirmation message.
type UserResponse struct {
	Message string      `json:"message"`
	User    *model.User `json:"user"`
}

// TokenResponse is returned by every endpoint that signs a user in.
type TokenResponse struct {
	Message string      `json:"message"`
	Token   string      `json:"token"`
	User    *model.User `json:"user"`
}

// HandleSignup registers a password account. It does not sign the user in.
//
// HTTP: POST /api/users/signup
// Body: {"name": "...", "email": "...", "password": "..."}
// Response: 201 Created, 400 on invalid input, 409 if the email is taken
func (h *UserHandler) HandleSignup(w http.ResponseWriter, r *http.Request) {
	var req SignupRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, err)
		return
	}

	user, err := h.users.Signup(r.Context(), req.Name, req.Email, req.Password)
	if err != nil {
		logIfInternal(h.logger, "signup failed", err)
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, UserResponse{
		Message: "User registered successfully",
		User:    user,
	})
}

// HandleLogin checks a password and issues a token.
//
// HTTP: POST /api/users/login
// Response: 200 with the token in the body and in the token cookie,
// 401 "Invalid credentials" for any credential mismatch
//
// An unknown email gets the same 401 as a wrong password or a GitHub-only
// account, so the endpoint does not reveal which emails are registered.
// Earlier versions of this API answered an unknown email with
// 400 "User not found"; clients that branched on that must treat 401 as
// the single failure case.
func (h *UserHandler) HandleLogin(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, err)
		return
	}

	result, err := h.users.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		logIfInternal(h.logger, "login failed", err)
		writeError(w, err)
		return
	}

	setTokenCookie(w, result.Token, h.tokenTTL)
	writeJSON(w, http.StatusOK, TokenResponse{
		Message: "Login successful",
		Token:   result.Token,
		User:    result.User,
	})
}

// HandleMe returns the profile of the authenticated caller.
//
// HTTP: GET /api/me
// Auth: Required
func (h *UserHandler) HandleMe(w http.ResponseWriter, r *http.Request) {
	userID, ok := auth.UserIDFromContext(r.Context())
	if !ok {
		writeJSON(w, http.StatusUnauthorized, ErrorResponse{
			Error:   "unauthorized",
			Message: "Access denied. Token missing.",
		})
		return
	}

	user, err := h.users.GetUserByID(r.Context(), userID)
	if err != nil {
		logIfInternal(h.logger, "loading current user failed", err, slog.String("user_id", userID))
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, user)
}

// setTokenCookie stores a token in an HttpOnly cookie. A ttl of zero or
// less deletes the cookie instead.
func setTokenCookie(w http.ResponseWriter, token string, ttl time.Duration) {
	maxAge := int(ttl.Seconds())
	if ttl <= 0 {
		token, maxAge = "", -1
	}
	http.SetCookie(w, &http.Cookie{
		Name:     auth.TokenCookie,
		Value:    token,
		Path:     "/",
		MaxAge:   maxAge,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
}
