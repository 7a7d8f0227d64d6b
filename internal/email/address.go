package email

import (
	"errors"
	"net/mail"
	"strings"
)

// MaxAddressLength is the longest address SMTP relays must accept
// (a 254 character forward path).
const MaxAddressLength = 254

// ErrInvalidEmail is returned for anything that is not a bare address.
var ErrInvalidEmail = errors.New("invalid email address")

// Address is a bare mailbox such as "ada@example.com", never a
// "Name <addr>" form.
type Address string

// ParseAddress trims raw and accepts it only when net/mail parses it back
// to exactly the same bare address. Display names, comments and angle
// brackets are rejected so a stored user email is always a plain mailbox.
func ParseAddress(raw string) (Address, error) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" || len(trimmed) > MaxAddressLength {
		return "", ErrInvalidEmail
	}

	parsed, err := mail.ParseAddress(trimmed)
	if err != nil || parsed.Address != trimmed {
		return "", ErrInvalidEmail
	}
	return Address(parsed.Address), nil
}

// Canonical returns the lower-cased form used as the account key, so
// "Ada@Example.com" and "ada@example.com" sign in to the same user.
func (a Address) Canonical() Address {
	return Address(strings.ToLower(string(a)))
}

func (a Address) String() string {
	return string(a)
}
