// Package smtp delivers email.Message values through an SMTP relay using
// github.com/wneessen/go-mail.
package smtp

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/wneessen/go-mail"

	"github.com/sakif/job-tracker/internal/email"
)

// Config holds the relay settings, usually read from SMTP_* variables.
type Config struct {
	Host     string
	Port     int  // 587 for STARTTLS, 465 for implicit TLS
	Secure   bool // implicit TLS from the first byte (SMTPS)
	Username string
	Password string
	From     string // "Job Tracker <no-reply@example.com>" or a bare address
	Timeout  time.Duration
}

// Transport implements email.Transport over SMTP.
type Transport struct {
	client *mail.Client
	from   string
}

var _ email.Transport = (*Transport)(nil)

// New builds a Transport. No connection is made until the first Send.
//
// TLS POLICY:
// Secure=true → implicit TLS (WithSSL). Otherwise STARTTLS is used when the
// server offers it (TLSOpportunistic), which matches the usual port 587 setup.
func New(cfg Config) (*Transport, error) {
	if cfg.Host == "" {
		return nil, errors.New("smtp: host is required")
	}
	if strings.TrimSpace(cfg.From) == "" {
		return nil, errors.New("smtp: from address is required")
	}
	if cfg.Port == 0 {
		cfg.Port = 587
	}

	opts := []mail.Option{mail.WithPort(cfg.Port)}
	if cfg.Secure {
		opts = append(opts, mail.WithSSL())
	} else {
		opts = append(opts, mail.WithTLSPolicy(mail.TLSOpportunistic))
	}
	if cfg.Username != "" {
		opts = append(opts,
			mail.WithSMTPAuth(mail.SMTPAuthPlain),
			mail.WithUsername(cfg.Username),
			mail.WithPassword(cfg.Password),
		)
	}
	if cfg.Timeout > 0 {
		opts = append(opts, mail.WithTimeout(cfg.Timeout))
	}

	client, err := mail.NewClient(cfg.Host, opts...)
	if err != nil {
		return nil, fmt.Errorf("smtp: creating client: %w", err)
	}

	return &Transport{client: client, from: cfg.From}, nil
}

// Send dials the relay, delivers one message and hangs up.
func (t *Transport) Send(ctx context.Context, msg email.Message) (email.DeliveryInfo, error) {
	m, err := t.newMsg(msg)
	if err != nil {
		return email.DeliveryInfo{}, err
	}

	if err := t.client.DialAndSendWithContext(ctx, m); err != nil {
		return email.DeliveryInfo{}, fmt.Errorf("smtp: sending to %s: %w", msg.To, err)
	}

	return email.DeliveryInfo{
		MessageID: messageID(m),
		Recipient: msg.To,
	}, nil
}

// newMsg converts an email.Message into a go-mail message: plain text body
// with an optional HTML alternative.
func (t *Transport) newMsg(msg email.Message) (*mail.Msg, error) {
	if err := msg.Validate(); err != nil {
		return nil, err
	}

	m := mail.NewMsg()
	if err := m.From(t.from); err != nil {
		return nil, fmt.Errorf("smtp: invalid from address %q: %w", t.from, err)
	}
	if err := m.To(msg.To.String()); err != nil {
		return nil, fmt.Errorf("smtp: invalid recipient %q: %w", msg.To, err)
	}
	m.Subject(msg.Subject)
	m.SetDate()
	m.SetMessageID()

	if msg.Text != "" {
		m.SetBodyString(mail.TypeTextPlain, msg.Text)
		if msg.HTML != "" {
			m.AddAlternativeString(mail.TypeTextHTML, msg.HTML)
		}
	} else {
		m.SetBodyString(mail.TypeTextHTML, msg.HTML)
	}

	return m, nil
}

func messageID(m *mail.Msg) string {
	if ids := m.GetGenHeader(mail.HeaderMessageID); len(ids) > 0 {
		return ids[0]
	}
	return ""
}
