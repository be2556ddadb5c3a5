package api

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/getsentry/sentry-go"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dukerupert/portfolio/internal/email"
	"github.com/dukerupert/portfolio/internal/service"
	"github.com/dukerupert/portfolio/internal/telemetry"
)

type outbox struct {
	mu     sync.Mutex
	emails []email.Email
}

func (o *outbox) Send(_ context.Context, e *email.Email) (string, error) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.emails = append(o.emails, *e)
	return "id", nil
}

func (o *outbox) sent() []email.Email {
	o.mu.Lock()
	defer o.mu.Unlock()
	return append([]email.Email(nil), o.emails...)
}

func TestContactHandler_MultilineNameIsDelivered(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	box := &outbox{}

	cfg := email.DefaultBreakerConfig()
	cfg.Timeout = time.Hour
	breaker := email.NewBreakerSender(box, cfg, logger)

	mailer, err := email.NewService(breaker, email.ServiceConfig{
		FromAddress: "contact@example.com",
		FromName:    "Site Owner",
		ForwardTo:   "owner@example.com",
	})
	require.NoError(t, err)

	metrics := telemetry.NewContactMetrics("test", prometheus.NewRegistry())
	dispatcher := service.NewContactService(mailer, service.ContactConfig{Metrics: metrics, Logger: logger})
	h := NewContactHandler(dispatcher, metrics, logger)

	for i := 0; i < 3; i++ {
		rec, out := serve(http.HandlerFunc(h.Submit), http.MethodPost,
			`{"email":"mia@example.com","name":"Mia\nBouman","message":"hi"}`)
		assert.Equal(t, http.StatusOK, rec.Code)
		assert.True(t, out.Success)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	require.NoError(t, dispatcher.Wait(ctx))

	assert.Equal(t, "closed", breaker.State())

	var notifications []email.Email
	for _, e := range box.sent() {
		if e.To[0] == "owner@example.com" {
			notifications = append(notifications, e)
		}
	}
	require.Len(t, notifications, 3)
	assert.Equal(t, "Mia Bouman", notifications[0].FromName)
	assert.Equal(t, "New Contact Form Entry from (Mia Bouman, mia@example.com)", notifications[0].Subject)
}

func TestContactHandler_DeliveryFailureReportedOnce(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	_, err := telemetry.InitSentry(telemetry.SentryConfig{Enabled: true, DSN: "https://key@sentry.example.com/1"}, logger)
	require.NoError(t, err)
	t.Cleanup(func() { _, _ = telemetry.InitSentry(telemetry.SentryConfig{}, logger) })

	var (
		mu     sync.Mutex
		events []*sentry.Event
	)
	client, err := sentry.NewClient(sentry.ClientOptions{
		BeforeSend: func(event *sentry.Event, _ *sentry.EventHint) *sentry.Event {
			mu.Lock()
			events = append(events, event)
			mu.Unlock()
			return nil
		},
	})
	require.NoError(t, err)
	hub := sentry.NewHub(client, sentry.NewScope())

	failing := email.SenderFunc(func(context.Context, *email.Email) (string, error) {
		return "", errors.New("dial tcp: connection refused")
	})
	mailer, err := email.NewService(failing, email.ServiceConfig{
		FromAddress: "contact@example.com",
		ForwardTo:   "owner@example.com",
	})
	require.NoError(t, err)

	metrics := telemetry.NewContactMetrics("test", prometheus.NewRegistry())
	dispatcher := service.NewContactService(mailer, service.ContactConfig{Metrics: metrics, Logger: logger})
	h := NewContactHandler(dispatcher, metrics, logger)

	req := httptest.NewRequest(http.MethodPost, "/api/contact",
		strings.NewReader(`{"email":"jane@example.com","name":"Jane","message":"Hello"}`))
	req = req.WithContext(sentry.SetHubOnContext(req.Context(), hub))
	rec := httptest.NewRecorder()
	h.Submit(rec, req)

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	mu.Lock()
	defer mu.Unlock()
	assert.Len(t, events, 1)
}
