package mailer

import (
	"context"
	"log"
)

// Mailer delivers password reset tokens out-of-band. Actual email transport
// is an external collaborator; the service only needs the seam.
type Mailer interface {
	SendPasswordReset(ctx context.Context, email, token string) error
}

// LogMailer writes the delivery to the server log instead of sending mail.
// Used in development and as the fallback when no transport is configured.
type LogMailer struct{}

// NewLogMailer creates a log-only mailer.
func NewLogMailer() *LogMailer {
	return &LogMailer{}
}

// SendPasswordReset logs the recipient. The token itself is not logged.
func (m *LogMailer) SendPasswordReset(ctx context.Context, email, token string) error {
	log.Printf("password reset requested for %s (token issued)", email)
	return nil
}
