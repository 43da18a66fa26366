package api

import (
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
)

// SetupRoutes configures all API routes.
func SetupRoutes(h *Handlers) *chi.Mux {
	r := chi.NewRouter()

	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.RealIP)
	r.Use(middleware.RequestID)

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type", "X-Correlation-Id"},
		MaxAge:         300,
	}))

	r.Get("/health", h.HealthCheck)

	r.Route("/api/v1", func(r chi.Router) {
		r.Post("/edi/ingest", h.Ingest)
		r.Get("/mappings", h.ListMappings)
		r.Route("/audit", func(r chi.Router) {
			r.Get("/recent", h.RecentAudit)
			r.Get("/{correlationId}", h.AuditTrail)
		})
		r.Route("/dlq", func(r chi.Router) {
			r.Get("/", h.ListDeadLetters)
			r.Get("/{correlationId}", h.GetDeadLetter)
		})
	})

	return r
}
