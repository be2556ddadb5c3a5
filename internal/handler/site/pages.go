// Package site serves the server-rendered pages: home, the contact form and
// the not-found page.
package site

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/dukerupert/portfolio/internal/contactform"
	"github.com/dukerupert/portfolio/internal/domain"
	"github.com/dukerupert/portfolio/internal/form"
	"github.com/dukerupert/portfolio/internal/handler"
	"github.com/dukerupert/portfolio/internal/middleware"
	"github.com/dukerupert/portfolio/internal/service"
	"github.com/dukerupert/portfolio/internal/telemetry"
)

// PageHandler renders the site pages.
type PageHandler struct {
	renderer *handler.Renderer
	service  service.ContactService
	metrics  *telemetry.ContactMetrics
	owner    string
	logger   *slog.Logger
}

// NewPageHandler creates a new page handler
func NewPageHandler(
	renderer *handler.Renderer,
	service service.ContactService,
	metrics *telemetry.ContactMetrics,
	owner string,
	logger *slog.Logger,
) *PageHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &PageHandler{
		renderer: renderer,
		service:  service,
		metrics:  metrics,
		owner:    owner,
		logger:   logger,
	}
}

// ContactPageData contains data for the contact page template
type ContactPageData struct {
	Owner     string
	Fields    []*form.Field
	Success   bool
	Error     string
	CSRFToken string
}

// ErrorPageData contains data for the error page template
type ErrorPageData struct {
	Owner   string
	Title   string
	Message string
}

// Home handles GET /
func (h *PageHandler) Home(w http.ResponseWriter, r *http.Request) {
	h.renderer.RenderHTTP(w, r, "home", struct{ Owner string }{h.owner})
}

// Contact handles GET /contact
func (h *PageHandler) Contact(w http.ResponseWriter, r *http.Request) {
	fields := contactform.NewFields()
	h.renderer.RenderHTTP(w, r, "contact", ContactPageData{
		Owner:     h.owner,
		Fields:    fields.All(),
		CSRFToken: middleware.GetCSRFToken(r.Context()),
	})
}

// SubmitContact handles POST /contact, the no-JavaScript form post.
//
// Invalid fields are rendered inline with a 400. A failed owner notification
// re-renders the form with its values and the generic error.
func (h *PageHandler) SubmitContact(w http.ResponseWriter, r *http.Request) {
	logger := middleware.GetLogger(r.Context(), h.logger)

	if err := r.ParseForm(); err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			h.metrics.RecordSubmission(telemetry.OutcomeTooLarge)
			h.renderError(w, r, http.StatusRequestEntityTooLarge, "Request too large", "Your message is too large to send.")
			return
		}
		h.metrics.RecordSubmission(telemetry.OutcomeRejected)
		h.renderError(w, r, http.StatusBadRequest, "Bad request", "The form could not be read.")
		return
	}

	fields := contactform.NewFields()
	for _, field := range fields.All() {
		field.Change(r.PostForm.Get(field.Name))
	}

	data := ContactPageData{
		Owner:     h.owner,
		Fields:    fields.All(),
		CSRFToken: middleware.GetCSRFToken(r.Context()),
	}

	if !fields.Validate() {
		h.metrics.RecordSubmission(telemetry.OutcomeRejected)
		logger.Info("contact submission rejected", "state", domain.StateRejected)
		h.renderer.RenderStatus(w, r, http.StatusBadRequest, "contact", data)
		return
	}

	if err := h.service.Submit(r.Context(), fields.Submission()); err != nil {
		h.metrics.RecordSubmission(telemetry.OutcomeDeliveryFailed)
		logger.Error("contact form delivery failed", "error", err, "code", domain.ErrorCode(err))
		telemetry.CaptureErrorFromContext(r.Context(), err, map[string]interface{}{
			"code": domain.ErrorCode(err),
		})
		data.Error = domain.ErrorMessage(err)
		h.renderer.RenderStatus(w, r, http.StatusInternalServerError, "contact", data)
		return
	}

	h.metrics.RecordSubmission(telemetry.OutcomeDelivered)
	fields.Reset()
	data.Success = true
	h.renderer.RenderHTTP(w, r, "contact", data)
}

// NotFound renders the 404 page
func (h *PageHandler) NotFound(w http.ResponseWriter, r *http.Request) {
	h.renderError(w, r, http.StatusNotFound, "Page not found", "The page you are looking for does not exist.")
}

func (h *PageHandler) renderError(w http.ResponseWriter, r *http.Request, status int, title, message string) {
	h.renderer.RenderStatus(w, r, status, "error", ErrorPageData{
		Owner:   h.owner,
		Title:   title,
		Message: message,
	})
}
