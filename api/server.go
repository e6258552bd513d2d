/*
server.go - HTTP router and middleware configuration

PURPOSE:
  Configures the HTTP router (chi), middleware stack, and route definitions.
  This is the wiring layer that connects URLs to handlers.

ROUTER: chi
  Chi was chosen for:
  - Lightweight and fast
  - Context-based
  - Middleware support
  - RESTful route patterns

MIDDLEWARE STACK:
  1. Logger:     Request logging
  2. Recoverer:  Panic recovery (500 instead of crash)
  3. RequestID:  Unique ID per request for tracing
  4. CORS:       Cross-origin requests for frontend

ROUTE GROUPS:
  /api/scenarios/*      Scenario plans, actions, compute, results
  /api/projects         Baseline portfolio reads
  /api/demos/*          Demo portfolio loaders
  /api/reset            Database reset (dev only)

SECURITY NOTE:
  No authentication middleware. Tenancy comes from the X-Org-ID header,
  which an upstream gateway must authenticate and inject.

SEE ALSO:
  - handlers.go: Handler implementations
  - cmd/server/main.go: Server startup
*/
package api

import (
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
)

// NewRouter creates a new router with all routes configured.
func NewRouter(h *Handler) *chi.Mux {
	r := chi.NewRouter()

	// Middleware
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.RequestID)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"http://localhost:5173", "http://localhost:8080"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Org-ID"},
		AllowCredentials: true,
	}))

	// API routes
	r.Route("/api", func(r chi.Router) {
		// Scenario routes
		r.Route("/scenarios", func(r chi.Router) {
			r.Get("/", h.ListScenarios)
			r.Post("/", h.CreateScenario)
			r.Get("/{id}", h.GetScenario)
			r.Delete("/{id}", h.DeleteScenario)
			r.Get("/{id}/actions", h.ListActions)
			r.Post("/{id}/actions", h.AddAction)
			r.Delete("/{id}/actions/{actionId}", h.RemoveAction)
			r.Post("/{id}/compute", h.ComputeScenario)
			r.Get("/{id}/result", h.GetResult)
		})

		// Portfolio routes
		r.Get("/projects", h.ListProjects)

		// Demo routes
		r.Route("/demos", func(r chi.Router) {
			r.Get("/", h.ListDemos)
			r.Get("/current", h.GetCurrentDemo)
			r.Post("/load", h.LoadDemo)
		})
		r.Post("/reset", h.ResetDatabase)
	})

	return r
}
