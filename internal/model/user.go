// Package model defines the data structures used throughout the application.
package model

import "time"

// User represents a registered account.
//
// Accounts are created either by email/password signup or by the first
// GitHub sign-in. PasswordHash is empty for GitHub-only accounts, and
// GitHubID is nil for accounts that never linked GitHub.
//
// The json:"-" tag keeps the bcrypt hash out of every API response, even if
// a handler forgets to build a separate response type.
type User struct {
	ID           string    `json:"id"`
	Name         string    `json:"name"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	GitHubID     *int64    `json:"github_id,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// HasPassword reports whether the account can sign in with a password.
func (u *User) HasPassword() bool {
	return u.PasswordHash != ""
}
