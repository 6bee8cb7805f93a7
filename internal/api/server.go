package api

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/gauge-analytics/influence/internal/domain"
	"github.com/gauge-analytics/influence/internal/view"
)

// Server represents the HTTP API server.
type Server struct {
	router  *chi.Mux
	handler *Handler
	server  *http.Server
	config  domain.ServerConfig
}

// NewServer creates a new API server.
func NewServer(cfg domain.ServerConfig, state *view.State, cache domain.Cache, bus domain.EventBus, source domain.DataSource, version string) *Server {
	handler := NewHandler(state, cache, bus, source, version)
	router := chi.NewRouter()

	// Global middleware stack
	router.Use(CORSMiddleware)         // CORS for the dashboard frontend
	router.Use(RecoverMiddleware)      // Recover from panics
	router.Use(TracingMiddleware)      // OpenTelemetry tracing
	router.Use(LoggingMiddleware)      // Request logging
	router.Use(middleware.RealIP)      // Extract real IP
	router.Use(middleware.Compress(5)) // Gzip compression

	// Health endpoints
	router.Get("/health", handler.Health)
	router.Get("/ready", handler.Ready)

	// View-model surface
	router.Get("/view", handler.GetView)
	router.Get("/brands", handler.ListBrands)
	router.Get("/types", handler.ListTypes)
	router.Get("/users/influential", handler.ListInfluentialUsers)
	router.Get("/users/filtered", handler.ListFilteredUsers)
	router.Get("/interactions/filtered", handler.ListFilteredInteractions)

	// Mutators
	router.Post("/filters/{category}/{value}/toggle", handler.ToggleFilter)
	router.Post("/brands/{id}/toggle", handler.ToggleBrand)
	router.Post("/types/{id}/toggle", handler.ToggleType)
	router.Put("/sort", handler.UpdateSort)
	router.Put("/segment", handler.UpdateSegment)

	// Export downloads
	router.Get("/export/csv", handler.ExportCSV)
	router.Get("/export/json", handler.ExportJSON)
	router.Get("/export/xlsx", handler.ExportXLSX)

	return &Server{
		router:  router,
		handler: handler,
		config:  cfg,
	}
}

// Start starts the HTTP server.
func (s *Server) Start() error {
	addr := fmt.Sprintf("%s:%d", s.config.Host, s.config.Port)

	s.server = &http.Server{
		Addr:         addr,
		Handler:      s.router,
		ReadTimeout:  time.Duration(s.config.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(s.config.WriteTimeout) * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	return s.server.ListenAndServe()
}

// Shutdown gracefully shuts down the server.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.server == nil {
		return nil
	}
	return s.server.Shutdown(ctx)
}

// Router returns the chi router for testing.
func (s *Server) Router() *chi.Mux {
	return s.router
}

// Handler returns the handler for testing.
func (s *Server) Handler() *Handler {
	return s.handler
}
