// Package auth issues and checks the job tracker's access tokens, hashes
// passwords and runs the optional GitHub sign-in.
//
// AUTHENTICATION FLOW:
//  1. POST /api/users/login (or the GitHub callback) verifies the user
//  2. The server signs a JWT carrying the user id and email
//  3. The client sends it back as "Authorization: Bearer <token>"
//     (browsers may rely on the HttpOnly "token" cookie instead)
//  4. RequireAuth validates it and puts the identity in the request context
//
// Tokens are HS256 and stateless: validating one needs only the secret.
package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// issuer is stamped into every token and required on validation.
const issuer = "job-tracker"

// DefaultTokenTTL is the token lifetime when none is configured.
const DefaultTokenTTL = 2 * time.Hour

var (
	// ErrTokenExpired is returned by Validate for a token past its exp claim.
	ErrTokenExpired = errors.New("auth: token expired")
	// ErrTokenInvalid covers every other validation failure.
	ErrTokenInvalid = errors.New("auth: invalid token")
)

// Identity is what a valid token proves about its bearer.
type Identity struct {
	UserID string
	Email  string
}

// TokenService signs and validates access tokens with one HMAC secret.
type TokenService struct {
	secret []byte
	ttl    time.Duration
}

// NewTokenService creates a TokenService. The secret must be at least 16
// characters; a ttl of zero means DefaultTokenTTL.
// Example: JWT_SECRET=$(openssl rand -hex 32)
func NewTokenService(secret string, ttl time.Duration) (*TokenService, error) {
	if len(secret) < 16 {
		return nil, errors.New("auth: JWT secret must be at least 16 characters")
	}
	if ttl <= 0 {
		ttl = DefaultTokenTTL
	}
	return &TokenService{secret: []byte(secret), ttl: ttl}, nil
}

// TTL returns the lifetime of tokens from Generate.
func (s *TokenService) TTL() time.Duration {
	return s.ttl
}

// claims is the JWT payload: the user id goes in "sub", the email in a
// custom "email" claim so clients can show who is signed in.
type claims struct {
	Email string `json:"email,omitempty"`
	jwt.RegisteredClaims
}

// Generate signs a token for the user with the service's lifetime.
func (s *TokenService) Generate(userID, email string) (string, error) {
	return s.GenerateWithDuration(userID, email, s.ttl)
}

// GenerateWithDuration signs a token with a custom lifetime.
// A negative d yields an already expired token, which tests rely on.
func (s *TokenService) GenerateWithDuration(userID, email string, d time.Duration) (string, error) {
	now := time.Now()

	c := claims{
		Email: email,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(d)),
			Issuer:    issuer,
		},
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, c).SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("auth: signing token: %w", err)
	}
	return signed, nil
}

// Validate parses and verifies a token and returns the identity it carries.
//
// VALIDATION CHECKS:
//   - signature made with our secret, algorithm HS256 only
//   - exp present and in the future
//   - iss is "job-tracker"
//   - sub is not empty
func (s *TokenService) Validate(tokenStr string) (Identity, error) {
	token, err := jwt.ParseWithClaims(
		tokenStr,
		&claims{},
		func(token *jwt.Token) (any, error) {
			if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
			}
			return s.secret, nil
		},
		jwt.WithValidMethods([]string{"HS256"}),
		jwt.WithIssuer(issuer),
		jwt.WithExpirationRequired(),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return Identity{}, ErrTokenExpired
		}
		return Identity{}, fmt.Errorf("%w: %w", ErrTokenInvalid, err)
	}

	c, ok := token.Claims.(*claims)
	if !ok || !token.Valid {
		return Identity{}, fmt.Errorf("%w: bad claims", ErrTokenInvalid)
	}
	if c.Subject == "" {
		return Identity{}, fmt.Errorf("%w: no subject", ErrTokenInvalid)
	}

	return Identity{UserID: c.Subject, Email: c.Email}, nil
}
