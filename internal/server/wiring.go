package server

import (
	"fmt"
	"log/slog"

	"github.com/sakif/job-tracker/internal/config"
	"github.com/sakif/job-tracker/internal/email"
	"github.com/sakif/job-tracker/internal/email/smtp"
	"github.com/sakif/job-tracker/internal/reminder"
	"github.com/sakif/job-tracker/internal/repository"
)

// NewTransport builds the mail transport selected by cfg.Transport.
//
// The log transport never touches the network; it is what an empty
// environment gets, so a local server works without an SMTP relay.
func NewTransport(cfg config.EmailConfig, logger *slog.Logger) (email.Transport, error) {
	switch cfg.Transport {
	case config.TransportSMTP:
		t, err := smtp.New(smtp.Config{
			Host:     cfg.SMTP.Host,
			Port:     cfg.SMTP.Port,
			Secure:   cfg.SMTP.Secure,
			Username: cfg.SMTP.Username,
			Password: cfg.SMTP.Password,
			From:     cfg.From,
			Timeout:  cfg.SMTP.Timeout,
		})
		if err != nil {
			return nil, fmt.Errorf("creating smtp transport: %w", err)
		}
		logger.Info("email transport: smtp",
			slog.String("host", cfg.SMTP.Host),
			slog.Int("port", cfg.SMTP.Port),
		)
		return t, nil
	case config.TransportLog, "":
		logger.Info("email transport: log (emails are not delivered)")
		return email.NewLogTransport(logger), nil
	default:
		return nil, fmt.Errorf("unknown email transport %q", cfg.Transport)
	}
}

// NewRunner assembles the scan → notify → mark pipeline over store.
// metrics may be nil.
func NewRunner(
	cfg config.ReminderConfig,
	store repository.ReminderRepository,
	transport email.Transport,
	metrics *reminder.Metrics,
	logger *slog.Logger,
) (*reminder.Runner, error) {
	loc, err := cfg.Location()
	if err != nil {
		return nil, fmt.Errorf("reminder timezone: %w", err)
	}

	notifier, err := reminder.NewNotifier(transport, cfg.LeadDays)
	if err != nil {
		return nil, fmt.Errorf("creating reminder notifier: %w", err)
	}

	scanner := reminder.NewScanner(store, reminder.ScannerConfig{
		LeadDays: cfg.LeadDays,
		Location: loc,
	})
	return reminder.NewRunner(scanner, notifier, reminder.NewStateUpdater(store), metrics, logger), nil
}
