package api

import (
	"log/slog"
	"net/http"

	"github.com/dukerupert/portfolio/internal/contact"
	"github.com/dukerupert/portfolio/internal/domain"
	"github.com/dukerupert/portfolio/internal/handler"
	"github.com/dukerupert/portfolio/internal/middleware"
	"github.com/dukerupert/portfolio/internal/service"
	"github.com/dukerupert/portfolio/internal/telemetry"
)

// ContactHandler serves the contact submission endpoint
type ContactHandler struct {
	service service.ContactService
	metrics *telemetry.ContactMetrics
	logger  *slog.Logger
}

// NewContactHandler creates a new contact handler
func NewContactHandler(
	service service.ContactService,
	metrics *telemetry.ContactMetrics,
	logger *slog.Logger,
) *ContactHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &ContactHandler{
		service: service,
		metrics: metrics,
		logger:  logger,
	}
}

// Submit handles /api/contact.
//
// The route is registered for every method so the rate limiter sees all
// traffic; anything but POST is answered with 405.
//
// Response codes:
//   - 200 {"success":true}: owner notification sent
//   - 400 {"success":false,"error":...}: body is not an object or fails the schema
//   - 405: method other than POST
//   - 413: body over the size limit
//   - 500 {"success":false,"error":...}: owner notification failed (generic message)
func (h *ContactHandler) Submit(w http.ResponseWriter, r *http.Request) {
	const op = "contact.submit"

	if r.Method != http.MethodPost {
		w.Header().Set("Allow", http.MethodPost)
		handler.ErrorResponse(w, r, domain.Errorf(domain.EMETHOD, op, "Method %s not allowed", r.Method))
		return
	}

	logger := middleware.GetLogger(r.Context(), h.logger)
	logger.Debug("contact submission", "state", domain.StateValidating)

	sub, err := contact.Decode(r.Body)
	if err != nil {
		if domain.IsCode(err, domain.ETOOLARGE) {
			h.metrics.RecordSubmission(telemetry.OutcomeTooLarge)
		} else {
			h.metrics.RecordSubmission(telemetry.OutcomeRejected)
			logger.Info("contact submission rejected", "state", domain.StateRejected)
		}
		handler.ErrorResponse(w, r, err)
		return
	}

	if err := h.service.Submit(r.Context(), sub); err != nil {
		h.metrics.RecordSubmission(telemetry.OutcomeDeliveryFailed)
		handler.ErrorResponse(w, r, err)
		return
	}

	h.metrics.RecordSubmission(telemetry.OutcomeDelivered)
	handler.WriteOutcome(w, http.StatusOK, domain.Succeeded())
}
