package routes

import (
	"net/http"
	"slices"

	"github.com/dukerupert/portfolio/internal/middleware"
	"github.com/dukerupert/portfolio/internal/router"
)

// Register registers every route of the site.
//
// Both contact submission routes share one rate limiter, so a visitor's
// quota covers the JSON endpoint and the plain form post together. The
// limiter runs before the body is read.
func Register(r *router.Router, deps Deps) {
	bodySize := deps.MaxBodySize
	if bodySize <= 0 {
		bodySize = middleware.DefaultMaxBodySize
	}

	submit := []router.Middleware{
		deps.RateLimiter.Middleware,
		middleware.MaxBodySize(bodySize),
	}

	RegisterAPIRoutes(r, deps.API, submit)
	RegisterSiteRoutes(r, deps.Site, submit)

	// Health check endpoint
	r.Get("/health", func(w http.ResponseWriter, req *http.Request) {
		if deps.Health != nil {
			if err := deps.Health(); err != nil {
				middleware.GetLogger(req.Context()).Warn("health check failed", "error", err)
				http.Error(w, "unavailable", http.StatusServiceUnavailable)
				return
			}
		}
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	})

	// Metrics endpoint (should be protected in production via firewall)
	if deps.Metrics != nil {
		r.Get("/metrics", deps.Metrics.Handler().ServeHTTP)
	}
}

// RegisterAPIRoutes registers the JSON contact endpoint.
// The route matches every method so the limiter counts all of them; the
// handler answers anything but POST with 405.
func RegisterAPIRoutes(r *router.Router, deps APIDeps, submit []router.Middleware) {
	mw := submit
	if len(deps.AllowedOrigins) > 0 {
		mw = append([]router.Middleware{router.CORS(deps.AllowedOrigins)}, submit...)
	}
	r.Any("/api/contact", deps.ContactHandler.Submit, mw...)
}

// RegisterSiteRoutes registers the pages and static assets.
func RegisterSiteRoutes(r *router.Router, deps SiteDeps, submit []router.Middleware) {
	csrf := middleware.CSRF(deps.CSRF)

	pages := r.Group(middleware.Timeout(middleware.ShortTimeout))
	pages.Get("/{$}", deps.Pages.Home)
	pages.Get("/contact", deps.Pages.Contact, csrf)

	// limiter first so a bad token still counts against the quota
	r.Post("/contact", deps.Pages.SubmitContact, append(slices.Clone(submit), csrf)...)

	if deps.Static != nil {
		r.Static("/static/", deps.Static)
	}

	r.NotFound(deps.Pages.NotFound)
}
