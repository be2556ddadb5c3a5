package domain

import (
	"errors"
	"fmt"
	"testing"
)

func TestError_Error(t *testing.T) {
	tests := []struct {
		name     string
		err      *Error
		expected string
	}{
		{
			name: "message only",
			err: &Error{
				Code:    EINVALID,
				Message: `"name" is required`,
			},
			expected: `"name" is required`,
		},
		{
			name: "with operation",
			err: &Error{
				Code:    EINVALID,
				Op:      "contact.validate",
				Message: `"name" is required`,
			},
			expected: `contact.validate: "name" is required`,
		},
		{
			name: "with wrapped error",
			err: &Error{
				Code:    EDELIVERY,
				Op:      "contact.notify",
				Message: "mail delivery failed",
				Err:     errors.New("dial tcp: connection refused"),
			},
			expected: "contact.notify: mail delivery failed: dial tcp: connection refused",
		},
		{
			name: "wrapped error without op",
			err: &Error{
				Code:    EINTERNAL,
				Message: "failed to render",
				Err:     errors.New("template missing"),
			},
			expected: "failed to render: template missing",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.err.Error(); got != tt.expected {
				t.Errorf("Error.Error() = %q, want %q", got, tt.expected)
			}
		})
	}
}

func TestError_Unwrap(t *testing.T) {
	underlying := errors.New("smtp: 554 rejected")
	err := Delivery(underlying, "contact.notify")

	if !errors.Is(err, underlying) {
		t.Error("errors.Is should find underlying error")
	}
}

func TestErrorCode(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want string
	}{
		{"nil", nil, ""},
		{"domain error", Invalid("op", "bad"), EINVALID},
		{"wrapped domain error", fmt.Errorf("outer: %w", Delivery(errors.New("x"), "op")), EDELIVERY},
		{"plain error", errors.New("boom"), EINTERNAL},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ErrorCode(tt.err); got != tt.want {
				t.Errorf("ErrorCode() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestErrorMessage(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want string
	}{
		{"nil", nil, ""},
		{"validation message surfaced verbatim", Invalid("op", `"email" must be a valid email`), `"email" must be a valid email`},
		{"internal hidden", Internal(errors.New("secret"), "op", "details"), GenericSubmissionMessage},
		{"delivery hidden", Delivery(errors.New("535 auth failed for user"), "op"), GenericSubmissionMessage},
		{"unknown error hidden", errors.New("raw"), GenericSubmissionMessage},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ErrorMessage(tt.err); got != tt.want {
				t.Errorf("ErrorMessage() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestErrorOp(t *testing.T) {
	if got := ErrorOp(Invalid("contact.validate", "x")); got != "contact.validate" {
		t.Errorf("ErrorOp() = %q", got)
	}
	if got := ErrorOp(errors.New("x")); got != "" {
		t.Errorf("ErrorOp() on plain error = %q, want empty", got)
	}
}

func TestIsCode(t *testing.T) {
	err := Errorf(ERATELIMIT, "contact.limit", "Too many requests, please try again later.")
	if !IsCode(err, ERATELIMIT) {
		t.Error("IsCode should match rate limit code")
	}
	if IsCode(err, EINVALID) {
		t.Error("IsCode should not match a different code")
	}
}
