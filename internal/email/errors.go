package email

import (
	"errors"
	"fmt"
)

// ============================================================================
// EMAIL ERRORS
// ============================================================================

var (
	// ErrNoRecipient is returned when a message has no To address.
	ErrNoRecipient = errors.New("email: no recipient")

	// ErrInvalidMessage is returned when a message cannot be built from its
	// fields, before any connection is made.
	ErrInvalidMessage = errors.New("email: invalid message")

	// ErrSendTimeout is returned when a send does not finish within the
	// configured timeout.
	ErrSendTimeout = errors.New("email: send timed out")

	// ErrCircuitOpen is returned while the breaker is rejecting sends.
	ErrCircuitOpen = errors.New("email: delivery suspended after repeated failures")
)

// IsInputError reports whether err was caused by the message itself rather
// than by the mail server.
func IsInputError(err error) bool {
	return errors.Is(err, ErrNoRecipient) || errors.Is(err, ErrInvalidMessage)
}

// ErrTemplateNotFound creates a template not found error.
func ErrTemplateNotFound(templateName string) error {
	return fmt.Errorf("email: template %s not found", templateName)
}
