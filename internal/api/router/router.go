// Package router assembles the storefront HTTP surface: public page data
// and health endpoints, plus tenant-scoped availability and booking routes.
package router

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"github.com/nightglass/storefront/internal/http/handlers"
	httpmiddleware "github.com/nightglass/storefront/internal/http/middleware"
	"github.com/nightglass/storefront/pkg/logging"
)

// Config holds router configuration.
type Config struct {
	Logger              *logging.Logger
	StorefrontHandler   *handlers.StorefrontHandler
	AvailabilityHandler *handlers.AvailabilityHandler
	WizardHandler       *handlers.WizardHandler
	MetricsHandler      http.Handler
	CORSAllowedOrigins  []string
}

// New creates a chi router with all routes configured.
func New(cfg *Config) http.Handler {
	r := chi.NewRouter()

	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(chimiddleware.Recoverer)
	r.Use(chimiddleware.Compress(5))
	if len(cfg.CORSAllowedOrigins) > 0 {
		r.Use(httpmiddleware.CORS(cfg.CORSAllowedOrigins))
	}
	if cfg.Logger != nil {
		r.Use(httpmiddleware.RequestLogger(cfg.Logger))
	}

	// Public endpoints.
	r.Group(func(public chi.Router) {
		public.Get("/health", healthCheck)
		if cfg.MetricsHandler != nil {
			public.Handle("/metrics", cfg.MetricsHandler)
		}
		if cfg.StorefrontHandler != nil {
			public.Mount("/storefront", cfg.StorefrontHandler.Routes())
		}
	})

	// Tenant-scoped endpoints require the X-Business-Id header.
	r.Group(func(tenant chi.Router) {
		tenant.Use(httpmiddleware.RequireBusinessID)
		if cfg.AvailabilityHandler != nil {
			tenant.Mount("/availability", cfg.AvailabilityHandler.Routes())
		}
		if cfg.WizardHandler != nil {
			tenant.Mount("/bookings", cfg.WizardHandler.Routes())
		}
	})

	return r
}

func healthCheck(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(`{"status": "ok"}`))
}
