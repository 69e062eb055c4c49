package mailing

import (
	"context"
	"fmt"
	"strings"

	gomail "gopkg.in/gomail.v2"
)

// SMTPTransport delivers through a plain SMTP relay.
type SMTPTransport struct {
	dialer *gomail.Dialer
}

// NewSMTPTransport builds an SMTP transport. Credentials may be empty for an
// unauthenticated relay.
func NewSMTPTransport(host string, port int, username, password string) *SMTPTransport {
	return &SMTPTransport{dialer: gomail.NewDialer(host, port, username, password)}
}

// Send delivers a single email over SMTP. The HTML part carries an
// alternative text/plain part for clients that do not render HTML.
func (t *SMTPTransport) Send(ctx context.Context, msg *Message) error {
	m := gomail.NewMessage()
	m.SetAddressHeader("From", msg.FromEmail, msg.FromName)
	if msg.ToName != "" {
		m.SetAddressHeader("To", msg.To, msg.ToName)
	} else {
		m.SetHeader("To", msg.To)
	}
	m.SetHeader("Subject", msg.Subject)
	m.SetBody("text/plain", msg.PlainText)
	m.AddAlternative("text/html", msg.HTML)

	return sendWithRetry(ctx, func() error {
		if err := ctx.Err(); err != nil {
			return err
		}

		// gomail has no context support; a send that outlives the deadline
		// is abandoned and its goroutine finishes on the TCP timeout.
		done := make(chan error, 1)
		go func() { done <- t.dialer.DialAndSend(m) }()

		var err error
		select {
		case err = <-done:
		case <-ctx.Done():
			return ctx.Err()
		}
		if err != nil && (isConnectionError(err) || isDialFailure(err)) {
			return fmt.Errorf("%w: %v", ErrTransportUnavailable, err)
		}
		return err
	})
}

// isDialFailure catches gomail dial errors that are not typed net errors.
func isDialFailure(err error) bool {
	s := err.Error()
	return strings.Contains(s, "connection refused") ||
		strings.Contains(s, "no such host") ||
		strings.Contains(s, "i/o timeout")
}
