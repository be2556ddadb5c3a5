package telemetry

import (
	"testing"

	"github.com/getsentry/sentry-go"
	"github.com/stretchr/testify/assert"
)

func TestScrubEvent(t *testing.T) {
	event := &sentry.Event{
		Message: "send to jane@example.com failed",
		Request: &sentry.Request{
			URL:         "https://example.com/api/contact",
			Data:        `{"email":"jane@example.com","message":"hi"}`,
			Cookies:     "csrf_token=abc",
			QueryString: "email=jane@example.com",
		},
		User: sentry.User{IPAddress: "192.0.2.1", Email: "jane@example.com"},
		Exception: []sentry.Exception{
			{Value: "failed to send email: 550 <jane.doe+site@mail.example.org>: mailbox unavailable"},
		},
		Extra: map[string]interface{}{"to": "owner@example.com", "attempt": 2},
	}

	out := scrubEvent(event)

	assert.Equal(t, "send to [email] failed", out.Message)
	assert.Empty(t, out.Request.Data)
	assert.Empty(t, out.Request.Cookies)
	assert.Empty(t, out.Request.QueryString)
	assert.Equal(t, "https://example.com/api/contact", out.Request.URL)
	assert.Equal(t, sentry.User{}, out.User)
	assert.Equal(t, "failed to send email: 550 <[email]>: mailbox unavailable", out.Exception[0].Value)
	assert.Equal(t, "[email]", out.Extra["to"])
	assert.Equal(t, 2, out.Extra["attempt"])
}
