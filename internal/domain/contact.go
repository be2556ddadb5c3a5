package domain

// MessageMaxLength is the longest message body accepted, in characters.
const MessageMaxLength = 9048

// Submission is a single contact form entry. It is built once the payload
// has passed validation and is never modified afterwards.
type Submission struct {
	Email   string `json:"email"`
	Name    string `json:"name"`
	Message string `json:"message"`
}

// Outcome is the body returned for every contact submission.
type Outcome struct {
	Success bool   `json:"success"`
	Error   string `json:"error,omitempty"`
}

// Succeeded returns the outcome reported for a delivered submission.
func Succeeded() Outcome {
	return Outcome{Success: true}
}

// Failed returns the outcome reported for a rejected or failed submission.
func Failed(message string) Outcome {
	return Outcome{Success: false, Error: message}
}

// SubmissionState tracks a submission through the server-side pipeline.
//
//	idle -> validating -> rejected
//	                   -> rate_limited
//	                   -> delivering -> delivered -> confirming
//	                                 -> delivery_failed
type SubmissionState string

const (
	StateIdle           SubmissionState = "idle"
	StateValidating     SubmissionState = "validating"
	StateRejected       SubmissionState = "rejected"
	StateRateLimited    SubmissionState = "rate_limited"
	StateDelivering     SubmissionState = "delivering"
	StateDelivered      SubmissionState = "delivered"
	StateConfirming     SubmissionState = "confirming"
	StateDeliveryFailed SubmissionState = "delivery_failed"
)
