package email

import (
	"context"
	"fmt"
	"sync"
)

// MemoryTransport records every message it is asked to send.
//
// Set Fail to make Send return an error for particular recipients; the
// failed messages are still counted in Attempts but not in Sent.
type MemoryTransport struct {
	mu       sync.Mutex
	sent     []Message
	attempts []Message

	// Fail, when non-nil, is consulted before each send.
	Fail func(msg Message) error
}

func NewMemoryTransport() *MemoryTransport {
	return &MemoryTransport{}
}

func (t *MemoryTransport) Send(_ context.Context, msg Message) (DeliveryInfo, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.attempts = append(t.attempts, msg)
	if err := msg.Validate(); err != nil {
		return DeliveryInfo{}, err
	}
	if t.Fail != nil {
		if err := t.Fail(msg); err != nil {
			return DeliveryInfo{}, err
		}
	}

	t.sent = append(t.sent, msg)
	return DeliveryInfo{
		MessageID: fmt.Sprintf("<memory-%d@local>", len(t.sent)),
		Recipient: msg.To,
	}, nil
}

// Sent returns a copy of the successfully delivered messages.
func (t *MemoryTransport) Sent() []Message {
	t.mu.Lock()
	defer t.mu.Unlock()
	return append([]Message(nil), t.sent...)
}

// Attempts returns a copy of every message passed to Send.
func (t *MemoryTransport) Attempts() []Message {
	t.mu.Lock()
	defer t.mu.Unlock()
	return append([]Message(nil), t.attempts...)
}
