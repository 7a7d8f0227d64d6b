package handler

import (
	"log/slog"
	"net/http"

	"github.com/sakif/job-tracker/internal/email"
	"github.com/sakif/job-tracker/internal/service"
)

// MailHandler exposes the operator's "does SMTP work?" check.
type MailHandler struct {
	mail   *service.MailService
	logger *slog.Logger
}

func NewMailHandler(mail *service.MailService, logger *slog.Logger) *MailHandler {
	return &MailHandler{mail: mail, logger: logger}
}

// TestEmailRequest is the body of POST /api/test-email/test.
type TestEmailRequest struct {
	To string `json:"to"`
}

// TestEmailResponse reports what the transport did with the message.
type TestEmailResponse struct {
	Message string             `json:"message"`
	Info    email.DeliveryInfo `json:"info"`
}

// HandleSendTest sends a fixed message to the given address.
//
// HTTP: POST /api/test-email/test
// Auth: Required
// Response: 200 on delivery, 400 without a usable "to", 500 when the
// transport fails (the transport error text is returned to help debugging)
func (h *MailHandler) HandleSendTest(w http.ResponseWriter, r *http.Request) {
	var req TestEmailRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, err)
		return
	}

	info, err := h.mail.SendTest(r.Context(), req.To)
	if err != nil {
		if isAppError(err) {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusInternalServerError, ErrorResponse{
			Error:   "send_failed",
			Message: "Send failed: " + err.Error(),
		})
		return
	}

	writeJSON(w, http.StatusOK, TestEmailResponse{Message: "Email sent", Info: info})
}
