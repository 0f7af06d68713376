/*
server.go - HTTP router and middleware configuration

PURPOSE:
  Configures the HTTP router (chi), middleware stack, and route definitions.
  This is the wiring layer that connects URLs to handlers.

MIDDLEWARE STACK:
  1. RequestID:  Unique ID per request for tracing
  2. Logger:     Request logging through the logrus logger
  3. Recoverer:  Panic recovery (500 instead of crash)
  4. CORS:       Cross-origin requests for frontend
  5. Locale:     Accept-Language -> message language
  6. Actor:      X-Actor-ID -> timeoff.Actor (all but scenarios)

ROUTE GROUPS:
  /api/me, /api/employees/*   Roster and balances
  /api/leave-types/*          Catalog
  /api/buckets/*              Manual bucket maintenance (HR)
  /api/requests/*             Request lifecycle
  /api/calendar/*             Working-day queries
  /api/holidays/*             Holiday table
  /api/saturdays/*            Saturday schedule
  /api/admin/*                Year generation, status refresh
  /api/scenarios/*            Demo scenarios (no actor needed)

SECURITY NOTE:
  The actor header is trusted as-is. Put an authenticating proxy in
  front of this server before exposing it.

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

// DefaultOrigins are allowed when no CORS origins are configured.
var DefaultOrigins = []string{"http://localhost:5173", "http://localhost:8080"}

// NewRouter creates a new router with all routes configured.
func NewRouter(h *Handler, origins ...string) *chi.Mux {
	if len(origins) == 0 {
		origins = DefaultOrigins
	}
	r := chi.NewRouter()

	// Middleware
	r.Use(middleware.RequestID)
	r.Use(middleware.RequestLogger(&middleware.DefaultLogFormatter{Logger: h.Log, NoColor: true}))
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   origins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Accept-Language", "Authorization", "Content-Type", ActorHeader},
		AllowCredentials: true,
	}))
	r.Use(WithLocale)

	r.Route("/api", func(r chi.Router) {
		// Scenario routes
		r.Route("/scenarios", func(r chi.Router) {
			r.Get("/", h.ListScenarios)
			r.Get("/current", h.GetCurrentScenario)
			r.Post("/load", h.LoadScenario)
			r.Post("/reset", h.ResetDatabase)
		})

		r.Group(func(r chi.Router) {
			r.Use(h.WithActor)

			r.Get("/me", h.Me)

			// Employee routes
			r.Route("/employees", func(r chi.Router) {
				r.Get("/", h.ListEmployees)
				r.Post("/", h.SaveEmployee)
				r.Get("/{id}", h.GetEmployee)
				r.Post("/{id}/deactivate", h.DeactivateEmployee)
				r.Get("/{id}/balance", h.GetBalance)
				r.Get("/{id}/balances", h.GetBalances)
				r.Get("/{id}/days-off", h.DaysOff)
				r.Post("/{id}/leave-types", h.AssignLeaveType)
			})

			// Leave type routes
			r.Route("/leave-types", func(r chi.Router) {
				r.Get("/", h.ListLeaveTypes)
				r.Post("/", h.CreateLeaveType)
				r.Delete("/{id}", h.DeleteLeaveType)
			})

			// Bucket routes
			r.Route("/buckets", func(r chi.Router) {
				r.Post("/", h.AddBucket)
				r.Put("/{employee}/{leaveType}/{year}", h.OverrideBucket)
			})

			// Request routes
			r.Route("/requests", func(r chi.Router) {
				r.Get("/", h.ListRequests)
				r.Post("/", h.CreateRequest)
				r.Post("/preview", h.PreviewRequest)
				r.Get("/inbox", h.Inbox)
				r.Get("/{id}", h.GetRequest)
				r.Get("/{id}/history", h.RequestHistory)
				r.Post("/{id}/approve", h.ManagerApprove)
				r.Post("/{id}/hr-approve", h.HRApprove)
				r.Post("/{id}/reject", h.Reject)
				r.Post("/{id}/cancel", h.RequestCancellation)
				r.Post("/{id}/cancel/approve", h.ManagerApproveCancellation)
				r.Post("/{id}/cancel/hr-approve", h.HRApproveCancellation)
				r.Post("/{id}/cancel/reject", h.RejectCancellation)
				r.Post("/{id}/interrupt", h.Interrupt)
				r.Post("/{id}/modify", h.Modify)
			})

			r.Post("/attachments", h.UploadAttachment)

			// Calendar routes
			r.Route("/calendar", func(r chi.Router) {
				r.Get("/working-days", h.WorkingDays)
				r.Get("/non-working-days", h.NonWorkingDays)
				r.Get("/team", h.TeamCalendar)
			})

			// Holiday routes
			r.Route("/holidays", func(r chi.Router) {
				r.Get("/", h.ListHolidays)
				r.Post("/", h.CreateHoliday)
				r.Post("/roll-forward", h.RollForwardHolidays)
				r.Delete("/{id}", h.DeleteHoliday)
			})

			// Saturday routes
			r.Route("/saturdays", func(r chi.Router) {
				r.Get("/", h.ListSaturdays)
				r.Put("/", h.SetSaturday)
				r.Post("/generate", h.GenerateSaturdays)
				r.Delete("/", h.ClearSaturdays)
			})

			// Admin routes
			r.Route("/admin", func(r chi.Router) {
				r.Post("/generate-year", h.GenerateYear)
				r.Post("/refresh-statuses", h.RefreshStatuses)
				r.Get("/stats", h.Stats)
			})
		})
	})

	return r
}
