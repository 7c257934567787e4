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
  /api/reservoirs/*   Reservoir management and forecasting
  /api/levels         Daily level entry
  /api/sales          Sale entry
  /api/reports/*      Loss and weekly reports
  /api/performance    Attendant ranking
  /api/alerts/*       Alert listing and acknowledgment

SECURITY NOTE:
  No authentication middleware currently. All endpoints are public.

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
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: true,
	}))

	// API routes
	r.Route("/api", func(r chi.Router) {
		// Reservoir routes
		r.Route("/reservoirs", func(r chi.Router) {
			r.Get("/", h.ListReservoirs)
			r.Post("/", h.CreateReservoir)
			r.Get("/{id}", h.GetReservoir)
			r.Get("/{id}/forecast", h.GetForecast)
		})

		// Ledger entry routes
		r.Post("/levels", h.RecordLevel)
		r.Post("/sales", h.RecordSale)

		// Report routes
		r.Route("/reports", func(r chi.Router) {
			r.Get("/daily", h.DailyReport)
			r.Get("/period", h.PeriodReport)
			r.Get("/weekly", h.WeeklyReport)
		})

		// Performance routes
		r.Get("/performance", h.Performance)

		// Alert routes
		r.Route("/alerts", func(r chi.Router) {
			r.Get("/", h.ListAlerts)
			r.Post("/check", h.CheckThresholds)
			r.Post("/{id}/read", h.MarkAlertRead)
		})
	})

	return r
}
