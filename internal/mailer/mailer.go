// Package mailer provides the mail-transport collaborator: forwarding
// inbound emails to a rule's destination address via SendGrid.
package mailer

import (
	"context"
	"fmt"
	"net/http"

	"smartinbox/internal/models"

	"github.com/sendgrid/sendgrid-go"
	"github.com/sendgrid/sendgrid-go/helpers/mail"
)

// APIError is a non-2xx response from the SendGrid API.
type APIError struct {
	StatusCode int
	Body       string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("sendgrid API returned HTTP %d: %s", e.StatusCode, e.Body)
}

// Permanent reports whether retrying the send is pointless.
func (e *APIError) Permanent() bool {
	if e.StatusCode == http.StatusTooManyRequests {
		return false
	}
	return e.StatusCode >= 400 && e.StatusCode < 500
}

// Mailer forwards emails through SendGrid from the central inbox
// address.
type Mailer struct {
	apiKey      string
	fromAddress string
}

// NewMailer creates a new mailer instance
func NewMailer(apiKey, fromAddress string) *Mailer {
	return &Mailer{
		apiKey:      apiKey,
		fromAddress: fromAddress,
	}
}

// Forward relays an inbound email to the destination address. The
// original sender and subject are preserved in the forwarded body.
func (m *Mailer) Forward(ctx context.Context, destination string, email *models.InboundEmail) error {
	if m.apiKey == "" {
		return fmt.Errorf("SendGrid API key not configured")
	}

	from := mail.NewEmail("Smart Inbox", m.fromAddress)
	to := mail.NewEmail("", destination)
	subject := fmt.Sprintf("FWD: %s", email.Subject)

	body := fmt.Sprintf("From: %s\nSubject: %s\n\n%s", email.Sender, email.Subject, email.Body)

	message := mail.NewSingleEmail(from, subject, to, body, body)

	client := sendgrid.NewSendClient(m.apiKey)
	response, err := client.SendWithContext(ctx, message)
	if err != nil {
		return fmt.Errorf("failed to forward email: %w", err)
	}

	if response.StatusCode >= 400 {
		return &APIError{StatusCode: response.StatusCode, Body: response.Body}
	}

	return nil
}
