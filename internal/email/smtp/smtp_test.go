package smtp

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sakif/job-tracker/internal/email"
)

func TestNew_Validation(t *testing.T) {
	tests := []struct {
		name    string
		cfg     Config
		wantErr bool
	}{
		{name: "missing host", cfg: Config{From: "no-reply@example.com"}, wantErr: true},
		{name: "missing from", cfg: Config{Host: "smtp.example.com"}, wantErr: true},
		{name: "starttls with auth", cfg: Config{Host: "smtp.example.com", Port: 587, Username: "u", Password: "p", From: "no-reply@example.com"}},
		{name: "implicit tls", cfg: Config{Host: "smtp.example.com", Port: 465, Secure: true, From: "no-reply@example.com"}},
		{name: "default port", cfg: Config{Host: "smtp.example.com", From: "Job Tracker <no-reply@example.com>"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tr, err := New(tt.cfg)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.NotNil(t, tr)
		})
	}
}

func TestNewMsg_TextWithHTMLAlternative(t *testing.T) {
	tr, err := New(Config{Host: "smtp.example.com", From: "Job Tracker <no-reply@example.com>"})
	require.NoError(t, err)

	m, err := tr.newMsg(email.Message{
		To:      "ada@example.com",
		Subject: "Reminder: Acme - Backend Engineer (Deadline 2026-10-22)",
		Text:    "Hi Ada,",
		HTML:    "<p>Hi Ada,</p>",
	})
	require.NoError(t, err)

	var buf bytes.Buffer
	_, err = m.WriteTo(&buf)
	require.NoError(t, err)
	raw := buf.String()

	assert.Contains(t, raw, "ada@example.com")
	assert.Contains(t, raw, "no-reply@example.com")
	assert.Contains(t, raw, "Reminder: Acme - Backend Engineer")
	assert.Contains(t, raw, "multipart/alternative")
	assert.Contains(t, raw, "text/plain")
	assert.Contains(t, raw, "text/html")
	assert.NotEmpty(t, messageID(m))
}

func TestNewMsg_RejectsEmptyRecipient(t *testing.T) {
	tr, err := New(Config{Host: "smtp.example.com", From: "no-reply@example.com"})
	require.NoError(t, err)

	_, err = tr.newMsg(email.Message{Subject: "x", Text: "y"})
	assert.ErrorIs(t, err, email.ErrNoRecipient)
}
