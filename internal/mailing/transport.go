package mailing

import (
	"context"
	"errors"
	"net"
	"time"

	"github.com/cenkalti/backoff/v4"
)

// Message is one fully prepared outbound email.
type Message struct {
	To        string
	ToName    string
	FromEmail string
	FromName  string
	Subject   string
	PlainText string
	HTML      string
}

// Transport delivers a single prepared message. Implementations return
// ErrTransportUnavailable (possibly wrapped) when the provider itself is
// unreachable, as opposed to a per-message rejection.
type Transport interface {
	Send(ctx context.Context, msg *Message) error
}

// sendWithRetry retries transient failures with exponential backoff. Hard
// unavailability is not retried here; the dispatcher decides whether to
// abort the run.
func sendWithRetry(ctx context.Context, fn func() error) error {
	bo := backoff.NewExponentialBackOff()
	bo.InitialInterval = 500 * time.Millisecond
	bo.MaxElapsedTime = 15 * time.Second

	return backoff.Retry(func() error {
		err := fn()
		if err == nil {
			return nil
		}
		if errors.Is(err, ErrTransportUnavailable) {
			return backoff.Permanent(err)
		}
		return err
	}, backoff.WithContext(bo, ctx))
}

// isConnectionError reports whether err looks like the provider endpoint is
// down rather than rejecting this particular message.
func isConnectionError(err error) bool {
	if err == nil {
		return false
	}
	var netErr net.Error
	if errors.As(err, &netErr) {
		return true
	}
	var opErr *net.OpError
	return errors.As(err, &opErr)
}
