package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/sakif/job-tracker/internal/apperror"
	"github.com/sakif/job-tracker/internal/auth"
	"github.com/sakif/job-tracker/internal/email"
	"github.com/sakif/job-tracker/internal/model"
	"github.com/sakif/job-tracker/internal/repository"
)

// MaxNameLength bounds a user's display name.
const MaxNameLength = 100

// weakPasswordMessage is shown for every strength rule violation.
const weakPasswordMessage = "Password must be 8+ characters, include uppercase, lowercase, number, and special character."

// AuthService handles sign-up, login and token checks.
//
//	UserHandler / AuthHandler (HTTP) → AuthService → UserRepository (DB)
//	                                             ↘ TokenService (JWT)
//	                                             ↘ PasswordService (bcrypt)
type AuthService struct {
	users     repository.UserRepository
	tokens    *auth.TokenService
	passwords *auth.PasswordService
	logger    *slog.Logger
}

func NewAuthService(
	users repository.UserRepository,
	tokens *auth.TokenService,
	passwords *auth.PasswordService,
	logger *slog.Logger,
) *AuthService {
	return &AuthService{
		users:     users,
		tokens:    tokens,
		passwords: passwords,
		logger:    logger,
	}
}

// AuthResult bundles a user with a freshly issued token so the handler can
// respond (and set the cookie) in one step.
type AuthResult struct {
	User  *model.User
	Token string
}

// Signup validates and stores a new password user.
//
// RULES:
//   - name is required, at most MaxNameLength characters
//   - email must be a bare address; it is stored lower-cased
//   - password must pass auth.CheckPasswordStrength
//   - an email already on file is a conflict
func (s *AuthService) Signup(ctx context.Context, name, emailAddr, password string) (*model.User, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, apperror.ValidationFailed("name", "name is required")
	}
	if len(name) > MaxNameLength {
		return nil, apperror.ValidationFailed("name",
			fmt.Sprintf("name must be %d characters or less", MaxNameLength))
	}

	addr, err := email.ParseAddress(emailAddr)
	if err != nil {
		return nil, apperror.ValidationFailed("email", "a valid email address is required")
	}

	if err := auth.CheckPasswordStrength(password); err != nil {
		return nil, apperror.ValidationFailed("password", weakPasswordMessage)
	}

	hash, err := s.passwords.Hash(password)
	if err != nil {
		return nil, fmt.Errorf("service/auth: %w", err)
	}

	user := &model.User{
		Name:         name,
		Email:        addr.Canonical().String(),
		PasswordHash: hash,
	}
	if err := s.users.CreateUser(ctx, user); err != nil {
		if errors.Is(err, apperror.ErrConflict) {
			return nil, &apperror.AppError{
				Err:     apperror.ErrConflict,
				Message: "Email already registered",
				Field:   "email",
			}
		}
		s.logger.Error("failed to create user", slog.String("error", err.Error()))
		return nil, fmt.Errorf("service/auth: creating user: %w", err)
	}

	s.logger.Info("user registered", slog.String("user_id", user.ID))
	return user, nil
}

// Login checks an email/password pair and issues a token.
//
// An unknown email, a GitHub-only account and a wrong password all return
// the same Unauthorized error so callers cannot probe which emails exist.
func (s *AuthService) Login(ctx context.Context, emailAddr, password string) (*AuthResult, error) {
	invalid := apperror.Unauthorized("Invalid credentials")

	emailAddr = strings.ToLower(strings.TrimSpace(emailAddr))
	if emailAddr == "" || password == "" {
		return nil, invalid
	}

	user, err := s.users.GetUserByEmail(ctx, emailAddr)
	if err != nil {
		if errors.Is(err, apperror.ErrNotFound) {
			return nil, invalid
		}
		return nil, fmt.Errorf("service/auth: looking up %s: %w", emailAddr, err)
	}
	if !user.HasPassword() {
		return nil, invalid
	}

	if err := s.passwords.Verify(user.PasswordHash, password); err != nil {
		if errors.Is(err, auth.ErrPasswordMismatch) {
			s.logger.Warn("failed login", slog.String("user_id", user.ID))
			return nil, invalid
		}
		return nil, fmt.Errorf("service/auth: %w", err)
	}

	return s.issue(user)
}

// LoginOrRegisterGitHub links the GitHub profile to a user (by GitHub id,
// then by email, else a new account) and issues a token.
func (s *AuthService) LoginOrRegisterGitHub(ctx context.Context, ghUser *auth.GitHubUser) (*AuthResult, error) {
	if ghUser == nil {
		return nil, errors.New("service/auth: GitHub user must not be nil")
	}
	addr, err := email.ParseAddress(ghUser.Email)
	if err != nil {
		return nil, apperror.ValidationFailed("email", "GitHub account has no usable email address")
	}

	ghID := ghUser.ID
	user := &model.User{
		Name:     ghUser.DisplayName(),
		Email:    addr.Canonical().String(),
		GitHubID: &ghID,
	}
	if err := s.users.UpsertGitHubUser(ctx, user); err != nil {
		return nil, fmt.Errorf("service/auth: upserting user (github_id=%d): %w", ghUser.ID, err)
	}

	s.logger.Info("user authenticated via GitHub",
		slog.String("user_id", user.ID),
		slog.String("login", ghUser.Login),
	)
	return s.issue(user)
}

// GetUserByID returns the user behind a validated token.
func (s *AuthService) GetUserByID(ctx context.Context, id string) (*model.User, error) {
	if id == "" {
		return nil, apperror.ValidationFailed("id", "user ID is required")
	}
	user, err := s.users.GetUserByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("service/auth: fetching user %s: %w", id, err)
	}
	return user, nil
}

// ValidateToken checks a token and returns the identity it carries.
func (s *AuthService) ValidateToken(token string) (auth.Identity, error) {
	id, err := s.tokens.Validate(token)
	if err != nil {
		return auth.Identity{}, fmt.Errorf("service/auth: %w", err)
	}
	return id, nil
}

func (s *AuthService) issue(user *model.User) (*AuthResult, error) {
	token, err := s.tokens.Generate(user.ID, user.Email)
	if err != nil {
		return nil, fmt.Errorf("service/auth: generating token for user %s: %w", user.ID, err)
	}
	return &AuthResult{User: user, Token: token}, nil
}
