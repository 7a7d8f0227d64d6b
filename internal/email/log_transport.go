package email

import (
	"context"
	"log/slog"

	"github.com/rs/xid"
)

// LogTransport is a Transport that logs the message instead of sending it.
// Not meant for production: it writes addresses and full bodies to the log.
type LogTransport struct {
	logger *slog.Logger
}

// NewLogTransport creates a new LogTransport.
func NewLogTransport(logger *slog.Logger) *LogTransport {
	return &LogTransport{logger: logger}
}

// Send logs the email and reports it as delivered.
func (t *LogTransport) Send(_ context.Context, msg Message) (DeliveryInfo, error) {
	if err := msg.Validate(); err != nil {
		return DeliveryInfo{}, err
	}

	info := DeliveryInfo{
		MessageID: "<" + xid.New().String() + "@log.local>",
		Recipient: msg.To,
	}
	t.logger.Info("send email",
		slog.String("message_id", info.MessageID),
		slog.String("to", msg.To.String()),
		slog.String("subject", msg.Subject),
		slog.String("body", msg.Text),
	)
	return info, nil
}
