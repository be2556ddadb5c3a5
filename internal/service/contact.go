package service

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/dukerupert/portfolio/internal/contact"
	"github.com/dukerupert/portfolio/internal/domain"
	"github.com/dukerupert/portfolio/internal/email"
	"github.com/dukerupert/portfolio/internal/telemetry"
)

// DefaultConfirmationTimeout bounds the background confirmation send.
const DefaultConfirmationTimeout = 30 * time.Second

// ContactService delivers validated contact submissions.
type ContactService interface {
	// Submit sends the owner notification and, once that succeeds, starts the
	// sender confirmation in the background. Only the notification decides
	// the result.
	Submit(ctx context.Context, sub domain.Submission) error

	// Wait blocks until every background confirmation has finished or ctx
	// is done.
	Wait(ctx context.Context) error
}

// ContactMailer composes and sends the two contact emails.
type ContactMailer interface {
	SendContactNotification(ctx context.Context, sub domain.Submission) error
	SendContactConfirmation(ctx context.Context, sub domain.Submission) error
}

// ContactConfig configures ContactDispatcher.
type ContactConfig struct {
	ConfirmationTimeout time.Duration
	Metrics             *telemetry.ContactMetrics
	Logger              *slog.Logger
}

// ContactDispatcher implements ContactService on top of a ContactMailer.
type ContactDispatcher struct {
	mailer         ContactMailer
	confirmTimeout time.Duration
	metrics        *telemetry.ContactMetrics
	logger         *slog.Logger

	wg sync.WaitGroup
}

// NewContactService creates a ContactDispatcher.
func NewContactService(mailer ContactMailer, cfg ContactConfig) *ContactDispatcher {
	if cfg.ConfirmationTimeout <= 0 {
		cfg.ConfirmationTimeout = DefaultConfirmationTimeout
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	return &ContactDispatcher{
		mailer:         mailer,
		confirmTimeout: cfg.ConfirmationTimeout,
		metrics:        cfg.Metrics,
		logger:         cfg.Logger,
	}
}

// Submit implements ContactService.
func (d *ContactDispatcher) Submit(ctx context.Context, sub domain.Submission) error {
	const op = "contact.submit"

	if err := contact.ValidateSubmission(sub); err != nil {
		return err
	}

	d.logger.Debug("contact submission", "state", domain.StateDelivering)
	telemetry.AddBreadcrumb("contact", "sending owner notification", nil)

	started := time.Now()
	err := d.mailer.SendContactNotification(ctx, sub)
	d.metrics.RecordEmail(telemetry.EmailNotification, started, err == nil, errorType(err))
	if err != nil {
		d.logger.Error("contact notification failed",
			"state", domain.StateDeliveryFailed,
			"error", err,
		)
		return domain.Delivery(err, op)
	}

	d.logger.Info("contact notification sent", "state", domain.StateDelivered)
	d.confirm(ctx, sub)
	return nil
}

// confirm sends the confirmation without holding up the caller. The send
// outlives ctx's cancellation but is still bounded by confirmTimeout.
func (d *ContactDispatcher) confirm(ctx context.Context, sub domain.Submission) {
	d.wg.Add(1)
	if d.metrics != nil {
		d.metrics.ConfirmationsInFlight.Inc()
	}

	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), d.confirmTimeout)

	go func() {
		defer d.wg.Done()
		defer cancel()
		if d.metrics != nil {
			defer d.metrics.ConfirmationsInFlight.Dec()
		}

		d.logger.Debug("contact confirmation started", "state", domain.StateConfirming)

		started := time.Now()
		err := d.mailer.SendContactConfirmation(ctx, sub)
		d.metrics.RecordEmail(telemetry.EmailConfirmation, started, err == nil, errorType(err))
		if err != nil {
			d.logger.Warn("contact confirmation failed", "error", err)
			telemetry.CaptureError(err, map[string]interface{}{
				"stage": telemetry.EmailConfirmation,
			})
			return
		}
		d.logger.Debug("contact confirmation sent")
	}()
}

// Wait implements ContactService.
func (d *ContactDispatcher) Wait(ctx context.Context) error {
	done := make(chan struct{})
	go func() {
		d.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func errorType(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, email.ErrSendTimeout), errors.Is(err, context.DeadlineExceeded):
		return "timeout"
	case errors.Is(err, email.ErrCircuitOpen):
		return "circuit_open"
	default:
		return "smtp"
	}
}
