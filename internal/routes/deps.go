package routes

import (
	"io/fs"
	"net/http"

	"github.com/dukerupert/portfolio/internal/handler/api"
	"github.com/dukerupert/portfolio/internal/handler/site"
	"github.com/dukerupert/portfolio/internal/middleware"
)

// SiteDeps contains dependencies for the server-rendered pages
type SiteDeps struct {
	Pages  *site.PageHandler
	Static fs.FS

	// CSRF protects the form post
	CSRF middleware.CSRFConfig
}

// APIDeps contains dependencies for API routes
type APIDeps struct {
	ContactHandler *api.ContactHandler

	// AllowedOrigins enables CORS on the API when non-empty
	AllowedOrigins []string
}

// Deps contains everything Register needs
type Deps struct {
	Site SiteDeps
	API  APIDeps

	// RateLimiter guards every contact submission route
	RateLimiter *middleware.RateLimiter

	// MaxBodySize caps submission bodies. Zero means middleware.DefaultMaxBodySize.
	MaxBodySize int64

	// Metrics serves /metrics when set
	Metrics *middleware.Metrics

	// Health reports readiness for /health. Nil always reports OK.
	Health func() error
}
