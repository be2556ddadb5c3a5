package email

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/getsentry/sentry-go"
	"github.com/sony/gobreaker"

	"github.com/dukerupert/portfolio/internal/telemetry"
)

// BreakerConfig configures BreakerSender.
type BreakerConfig struct {
	Name string

	// MaxRequests is the number of trial sends allowed while half-open.
	MaxRequests uint32

	// Interval is the cyclic period for clearing counts while closed.
	Interval time.Duration

	// Timeout is how long the breaker stays open before trying again.
	Timeout time.Duration

	// MinRequests and FailureRatio decide when to trip.
	MinRequests  uint32
	FailureRatio float64
}

// DefaultBreakerConfig returns sensible defaults
func DefaultBreakerConfig() BreakerConfig {
	return BreakerConfig{
		Name:         "smtp",
		MaxRequests:  1,
		Interval:     time.Minute,
		Timeout:      30 * time.Second,
		MinRequests:  3,
		FailureRatio: 0.6,
	}
}

// BreakerSender stops calling a failing Sender for a while instead of letting
// every submission wait for the send timeout.
type BreakerSender struct {
	next Sender
	cb   *gobreaker.CircuitBreaker
}

// NewBreakerSender wraps next with a circuit breaker.
func NewBreakerSender(next Sender, config BreakerConfig, logger *slog.Logger) *BreakerSender {
	if logger == nil {
		logger = slog.Default()
	}
	cb := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        config.Name,
		MaxRequests: config.MaxRequests,
		Interval:    config.Interval,
		Timeout:     config.Timeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			if counts.Requests < config.MinRequests {
				return false
			}
			failureRatio := float64(counts.TotalFailures) / float64(counts.Requests)
			return failureRatio >= config.FailureRatio
		},
		// a message that cannot be built says nothing about the server
		IsSuccessful: func(err error) bool {
			return err == nil || IsInputError(err)
		},
		OnStateChange: func(name string, from gobreaker.State, to gobreaker.State) {
			logger.Warn("mail circuit breaker state changed",
				"name", name,
				"from", from.String(),
				"to", to.String(),
			)
			if to == gobreaker.StateOpen {
				telemetry.CaptureMessage("mail circuit breaker opened", sentry.LevelWarning, map[string]interface{}{
					"name": name,
					"from": from.String(),
				})
			}
		},
	})
	return &BreakerSender{next: next, cb: cb}
}

// Send delivers through the wrapped sender unless the breaker is open.
func (b *BreakerSender) Send(ctx context.Context, email *Email) (string, error) {
	res, err := b.cb.Execute(func() (interface{}, error) {
		return b.next.Send(ctx, email)
	})
	if err != nil {
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			return "", ErrCircuitOpen
		}
		return "", err
	}
	id, _ := res.(string)
	return id, nil
}

// State returns the breaker state name.
func (b *BreakerSender) State() string {
	return b.cb.State().String()
}
