package domain

import (
	"errors"
	"fmt"
)

// Application error codes.
// These map to HTTP status codes and determine user-facing messages.
const (
	EINTERNAL  = "internal"           // 500 - Internal server error (hide details)
	EINVALID   = "invalid"            // 400 - Validation error (bad input)
	EFORBIDDEN = "forbidden"          // 403 - Missing or mismatched form token
	ENOTFOUND  = "not_found"          // 404 - Resource not found
	EMETHOD    = "method_not_allowed" // 405 - Verb not handled by the route
	ETOOLARGE  = "too_large"          // 413 - Request body over the limit
	ERATELIMIT = "rate_limit"         // 429 - Too many requests
	EDELIVERY  = "delivery"           // 500 - Outbound mail could not be delivered
)

// GenericSubmissionMessage is shown whenever a submission fails for a reason
// the visitor cannot fix.
const GenericSubmissionMessage = "An error occured during your submission, please try again later!"

// Error represents an application error with a code and message.
type Error struct {
	// Code is a machine-readable error code (e.g., EINVALID, EDELIVERY).
	Code string

	// Message is a human-readable error message safe to show to users.
	Message string

	// Op is the operation where the error occurred (e.g., "contact.submit").
	// Used for debugging and logging, not shown to users.
	Op string

	// Err is the underlying error, if any.
	Err error
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Err != nil {
		if e.Op != "" {
			return fmt.Sprintf("%s: %s: %v", e.Op, e.Message, e.Err)
		}
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	if e.Op != "" {
		return fmt.Sprintf("%s: %s", e.Op, e.Message)
	}
	return e.Message
}

// Unwrap implements error unwrapping for errors.Is and errors.As.
func (e *Error) Unwrap() error {
	return e.Err
}

// ErrorCode extracts the error code from an error.
// Returns EINTERNAL for nil or non-domain errors.
func ErrorCode(err error) string {
	if err == nil {
		return ""
	}

	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}

	return EINTERNAL
}

// ErrorMessage extracts a user-facing message from an error.
// Internal and delivery errors always produce the generic submission message
// so transport details never reach the visitor.
func ErrorMessage(err error) string {
	if err == nil {
		return ""
	}

	var e *Error
	if errors.As(err, &e) {
		if e.Code == EINTERNAL || e.Code == EDELIVERY {
			return GenericSubmissionMessage
		}
		return e.Message
	}

	return GenericSubmissionMessage
}

// ErrorOp extracts the operation from an error (for logging).
func ErrorOp(err error) string {
	var e *Error
	if errors.As(err, &e) {
		return e.Op
	}
	return ""
}

// Errorf creates a new domain error with formatted message.
func Errorf(code, op, format string, args ...interface{}) error {
	return &Error{
		Code:    code,
		Op:      op,
		Message: fmt.Sprintf(format, args...),
	}
}

// IsCode returns true if err has the given error code.
func IsCode(err error, code string) bool {
	return ErrorCode(err) == code
}

// Invalid creates a validation error for a single issue.
// Example: domain.Invalid("contact.validate", `"name" is not allowed to be empty`)
func Invalid(op, message string) error {
	return &Error{
		Code:    EINVALID,
		Op:      op,
		Message: message,
	}
}

// Internal creates an internal error (wraps underlying error).
// The message shown to users will be generic; the underlying error is for logging.
func Internal(err error, op, message string) error {
	return &Error{
		Code:    EINTERNAL,
		Op:      op,
		Message: message,
		Err:     err,
	}
}

// Delivery wraps a failed outbound mail send.
func Delivery(err error, op string) error {
	return &Error{
		Code:    EDELIVERY,
		Op:      op,
		Message: "mail delivery failed",
		Err:     err,
	}
}
