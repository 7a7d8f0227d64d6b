package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/sakif/job-tracker/internal/apperror"
	"github.com/sakif/job-tracker/internal/email"
)

// The fixed message sent by SendTest.
const (
	testEmailSubject = "Test email from Job Tracker"
	testEmailText    = "This is a test email."
	testEmailHTML    = "<strong>This is a test email.</strong>"
)

// MailService sends operator-triggered mail through the same transport
// the reminder pipeline uses.
type MailService struct {
	transport email.Transport
	logger    *slog.Logger
}

func NewMailService(transport email.Transport, logger *slog.Logger) *MailService {
	return &MailService{transport: transport, logger: logger}
}

// SendTest delivers a fixed test message to one address so operators can
// check the SMTP settings.
func (s *MailService) SendTest(ctx context.Context, to string) (email.DeliveryInfo, error) {
	if strings.TrimSpace(to) == "" {
		return email.DeliveryInfo{}, apperror.ValidationFailed("to", `Provide "to" in body`)
	}
	addr, err := email.ParseAddress(to)
	if err != nil {
		return email.DeliveryInfo{}, apperror.ValidationFailed("to", "a valid email address is required")
	}

	info, err := s.transport.Send(ctx, email.Message{
		To:      addr,
		Subject: testEmailSubject,
		Text:    testEmailText,
		HTML:    testEmailHTML,
	})
	if err != nil {
		s.logger.Error("test email failed",
			slog.String("email", addr.String()),
			slog.String("error", err.Error()),
		)
		return email.DeliveryInfo{}, fmt.Errorf("sending test email: %w", err)
	}

	s.logger.Info("test email sent",
		slog.String("email", addr.String()),
		slog.String("message_id", info.MessageID),
	)
	return info, nil
}
