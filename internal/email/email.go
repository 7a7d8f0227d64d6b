// Package email defines the outbound mail transport used by the reminder
// pipeline and the test-email endpoint.
//
// TRANSPORT IMPLEMENTATIONS:
//   - smtp.Transport   → real delivery through an SMTP relay (internal/email/smtp)
//   - LogTransport     → logs the message instead of sending it (local development)
//   - MemoryTransport  → records messages in memory (tests)
package email

import (
	"context"
	"errors"
)

// ErrNoRecipient is returned when a message has no To address.
var ErrNoRecipient = errors.New("email: message has no recipient")

// Message is one outgoing email. Text is required; HTML is an optional
// alternative part for clients that render it.
type Message struct {
	To      Address
	Subject string
	Text    string
	HTML    string
}

// DeliveryInfo describes what the transport did with a message.
type DeliveryInfo struct {
	MessageID string  `json:"message_id"`
	Recipient Address `json:"recipient"`
}

// Transport sends a single message. Implementations must be safe for
// concurrent use; the reminder pipeline itself only calls Send sequentially.
type Transport interface {
	Send(ctx context.Context, msg Message) (DeliveryInfo, error)
}

// Validate checks the fields every transport needs.
func (m Message) Validate() error {
	if m.To == "" {
		return ErrNoRecipient
	}
	if m.Text == "" && m.HTML == "" {
		return errors.New("email: message has no body")
	}
	return nil
}
