package mailing

import (
	"errors"
	"fmt"
)

// ErrTransportUnavailable indicates the delivery transport could not be
// reached at all. The dispatcher aborts the run when the first send fails
// with this error, so a dead provider does not burn through a whole batch.
var ErrTransportUnavailable = errors.New("email service unavailable")

// TemplateError wraps a Liquid syntax error with the field it came from.
type TemplateError struct {
	Field string
	Err   error
}

func (e *TemplateError) Error() string {
	return fmt.Sprintf("template error in %s: %v", e.Field, e.Err)
}

func (e *TemplateError) Unwrap() error { return e.Err }

// Per-recipient failure reasons recorded in dispatch results.
const (
	ReasonInvalidEmail = "invalid email address"
	ReasonRenderFailed = "template rendering failed"
	ReasonSendFailed   = "send failed"
)
