// Package contactform drives the contact form from outside the browser: it
// owns the three validated fields, the working/success/error status and the
// HTTP call to the submission endpoint.
package contactform

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/dukerupert/portfolio/internal/domain"
)

// DefaultTimeout bounds one submission round trip.
const DefaultTimeout = 60 * time.Second

// maxResponseSize caps how much of a response body is read.
const maxResponseSize = 64 * 1024

var (
	// ErrUnreachable is returned when no usable response came back: the
	// request failed in transit or the body was not an outcome.
	ErrUnreachable = errors.New("could not reach the contact server")

	// ErrInFlight is returned by View.Submit while a submission is running.
	ErrInFlight = errors.New("a submission is already in progress")
)

// UnreachableMessage is shown to the user for ErrUnreachable.
const UnreachableMessage = "Could not reach the server, please check your connection and try again."

// RejectedError is a structured rejection reported by the endpoint.
type RejectedError struct {
	Status  int
	Message string
}

func (e *RejectedError) Error() string {
	return fmt.Sprintf("submission rejected (%d): %s", e.Status, e.Message)
}

// Message returns the text to show the user for err.
// Server rejections are shown verbatim.
func Message(err error) string {
	var rejected *RejectedError
	switch {
	case err == nil:
		return ""
	case errors.As(err, &rejected):
		return rejected.Message
	case errors.Is(err, ErrUnreachable):
		return UnreachableMessage
	default:
		return err.Error()
	}
}

// Client posts submissions to the contact endpoint.
type Client struct {
	endpoint   string
	httpClient *http.Client
}

// NewClient creates a client for endpoint, e.g. https://example.com/api/contact.
// A nil httpClient uses one with DefaultTimeout.
func NewClient(endpoint string, httpClient *http.Client) *Client {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: DefaultTimeout}
	}
	return &Client{endpoint: endpoint, httpClient: httpClient}
}

// Send posts sub and returns the endpoint's outcome.
// A reported failure is returned as *RejectedError alongside the outcome.
func (c *Client) Send(ctx context.Context, sub domain.Submission) (domain.Outcome, error) {
	body, err := json.Marshal(sub)
	if err != nil {
		return domain.Outcome{}, fmt.Errorf("failed to encode submission: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return domain.Outcome{}, fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return domain.Outcome{}, fmt.Errorf("%w: %v", ErrUnreachable, err)
	}
	defer resp.Body.Close()

	var outcome domain.Outcome
	if err := json.NewDecoder(io.LimitReader(resp.Body, maxResponseSize)).Decode(&outcome); err != nil {
		return domain.Outcome{}, fmt.Errorf("%w: status %d with unreadable body: %v", ErrUnreachable, resp.StatusCode, err)
	}

	if !outcome.Success {
		msg := outcome.Error
		if msg == "" {
			msg = http.StatusText(resp.StatusCode)
		}
		return outcome, &RejectedError{Status: resp.StatusCode, Message: msg}
	}

	return outcome, nil
}
