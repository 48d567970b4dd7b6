/*
server.go - HTTP router and middleware configuration

PURPOSE:
  Configures the chi router, middleware stack, and route definitions.
  This is the wiring layer that connects URLs to handlers.

MIDDLEWARE STACK:
  1. Logger:     Request logging
  2. Recoverer:  Panic recovery (500 instead of crash)
  3. RequestID:  Unique ID per request for tracing
  4. CORS:       Cross-origin requests for the dashboard frontend

ROUTE GROUPS:
  /api/donations/*    Donation CRUD
  /api/donors/*       Donor CRUD
  /api/advisors/*     Advisor CRUD + dismissal workflow
  /api/messengers/*   Messenger CRUD
  /api/commissions/*  Computed commissions, mark-paid, export
  /api/settings/*     Closing-day configuration
  /api/scenarios/*    Demo scenarios

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
func NewRouter(h *Handler, allowedOrigins []string) *chi.Mux {
	r := chi.NewRouter()

	// Middleware
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.RequestID)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   allowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: true,
	}))

	// API routes
	r.Route("/api", func(r chi.Router) {
		r.Route("/donations", func(r chi.Router) {
			r.Get("/", h.ListDonations)
			r.Post("/", h.SaveDonation)
			r.Get("/{id}", h.GetDonation)
			r.Put("/{id}", h.SaveDonation)
			r.Delete("/{id}", h.DeleteDonation)
		})

		r.Route("/donors", func(r chi.Router) {
			r.Get("/", h.ListDonors)
			r.Post("/", h.SaveDonor)
			r.Put("/{id}", h.SaveDonor)
			r.Delete("/{id}", h.DeleteDonor)
		})

		r.Route("/advisors", func(r chi.Router) {
			r.Get("/", h.ListAdvisors)
			r.Post("/", h.SaveAdvisor)
			r.Put("/{id}", h.SaveAdvisor)
			r.Delete("/{id}", h.DeleteAdvisor)
			r.Post("/{id}/dismiss", h.DismissAdvisor)
		})

		r.Route("/messengers", func(r chi.Router) {
			r.Get("/", h.ListMessengers)
			r.Post("/", h.SaveMessenger)
			r.Put("/{id}", h.SaveMessenger)
			r.Delete("/{id}", h.DeleteMessenger)
		})

		r.Route("/commissions", func(r chi.Router) {
			r.Get("/", h.ListCommissions)
			r.Get("/export", h.ExportCommissions)
			r.Post("/{id}/pay", h.MarkCommissionPaid)
			r.Delete("/{id}/pay", h.ClearCommissionPayment)
		})

		r.Route("/settings", func(r chi.Router) {
			r.Get("/closing-day", h.GetClosingDay)
			r.Put("/closing-day", h.SetClosingDay)
		})

		r.Route("/scenarios", func(r chi.Router) {
			r.Get("/", h.ListScenarios)
			r.Post("/load", h.LoadScenario)
			r.Post("/reset", h.ResetDatabase)
		})
	})

	return r
}
