// Package api assembles the HTTP surface: router, middleware and handler
// wiring.
package api

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"OpportunityRadar/internal/api/handlers"
	"OpportunityRadar/internal/fetcher"
	"OpportunityRadar/internal/ports"
	"OpportunityRadar/internal/registry"
	"OpportunityRadar/internal/report"
)

const (
	requestTimeout = 30 * time.Second
	// Fetch and report generation call external services and may run
	// longer than a normal request.
	slowRequestTimeout = 5 * time.Minute
)

// Deps lists everything the router serves.
type Deps struct {
	Opportunities ports.OpportunityStore
	Registry      *registry.Service
	Fetcher       *fetcher.Manager
	Reports       *report.Service
	Logger        *slog.Logger
}

// NewRouter builds the chi router with the full middleware chain and all
// API routes mounted under /api.
func NewRouter(deps Deps) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(requestLogger(deps.Logger))
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodDelete, http.MethodOptions},
		AllowedHeaders: []string{"Accept", "Content-Type"},
		MaxAge:         300,
	}))

	r.Get("/health", handleHealth)

	opportunities := handlers.NewOpportunities(deps.Opportunities, deps.Logger)
	sources := handlers.NewSources(deps.Registry, deps.Fetcher, deps.Logger)
	reports := handlers.NewReports(deps.Reports, deps.Logger)

	r.Route("/api", func(r chi.Router) {
		r.Group(func(r chi.Router) {
			r.Use(middleware.Timeout(requestTimeout))
			opportunities.Routes(r)
		})

		r.Group(func(r chi.Router) {
			r.Use(middleware.Timeout(slowRequestTimeout))
			sources.Routes(r)
			reports.Routes(r)
		})
	})

	return r
}

func handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	_, _ = w.Write([]byte(`{"status":"ok"}`))
}

// requestLogger logs each request with method, path, status and duration.
func requestLogger(logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if logger == nil {
				next.ServeHTTP(w, r)
				return
			}

			start := time.Now()
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

			next.ServeHTTP(ww, r)

			logger.Debug("http request",
				"method", r.Method,
				"path", r.URL.Path,
				"status", ww.Status(),
				"bytes", ww.BytesWritten(),
				"duration", time.Since(start),
				"request_id", middleware.GetReqID(r.Context()),
			)
		})
	}
}
