package rest

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi"
	chiMiddleware "github.com/go-chi/chi/middleware"

	"github.com/frahmantamala/expense-console/internal/approval"
	"github.com/frahmantamala/expense-console/internal/auth"
	"github.com/frahmantamala/expense-console/internal/company"
	"github.com/frahmantamala/expense-console/internal/core/user"
	"github.com/frahmantamala/expense-console/internal/dashboard"
	"github.com/frahmantamala/expense-console/internal/employee"
	"github.com/frahmantamala/expense-console/internal/expense"
	"github.com/frahmantamala/expense-console/internal/modal"
	"github.com/frahmantamala/expense-console/internal/rule"
	"github.com/frahmantamala/expense-console/internal/transport"
	"github.com/frahmantamala/expense-console/internal/transport/middleware"
	"github.com/frahmantamala/expense-console/internal/transport/swagger"
)

// Handlers is everything the router mounts. Metrics may be nil.
type Handlers struct {
	Health    *HealthHandler
	Sessions  func(http.Handler) http.Handler
	Base      *transport.BaseHandler
	Modals    *modal.Handler
	Auth      *auth.Handler
	Dashboard *dashboard.Handler
	Expenses  *expense.Handler
	Approvals *approval.Handler
	Rules     *rule.Handler
	Employees *employee.Handler
	Companies *company.Handler

	Metrics     middleware.HTTPObserver
	MetricsPath string
	MetricsView http.Handler
}

var allRoles = []user.Role{user.RoleEmployee, user.RoleManager, user.RoleAdmin, user.RoleSuperUser}

func RegisterAllRoutes(router *chi.Mux, h Handlers, logger *slog.Logger) {
	// Apply global middleware
	router.Use(chiMiddleware.RequestID)
	router.Use(middleware.RequestID)
	router.Use(middleware.RecoveryMiddleware(logger))
	if h.Metrics != nil {
		router.Use(middleware.Metrics(h.Metrics))
	}

	router.Get("/ping", h.Health.pingHandler)
	router.Get("/healthz", h.Health.healthCheckHandler)
	if h.MetricsView != nil {
		router.Handle(h.MetricsPath, h.MetricsView)
	}

	// Contract of the remote API and its Swagger UI
	router.Get(swagger.SpecPath, swagger.Spec)
	router.Handle("/swagger/*", swagger.Handler())

	router.Group(func(r chi.Router) {
		r.Use(middleware.LoggingMiddleware(logger))
		r.Use(h.Sessions)

		r.Get("/", h.Dashboard.Home)
		r.Post("/logout", h.Auth.Logout)

		r.Route("/modals", func(mr chi.Router) {
			h.Modals.Routes(mr)

			mr.Post("/login/{id}", h.Auth.Login)
			mr.Post("/signup/{id}", h.Auth.Signup)
			mr.Post("/expense-submission/{id}", h.Expenses.Submit)
			mr.Post("/rule-manager/{id}/rules", h.Rules.CreateRule)
			mr.Post("/employees/{id}", h.Employees.Create)
			mr.Post("/employees/{id}/{userID}/toggle", h.Employees.Toggle)
			mr.Post("/create-company/{id}", h.Companies.Create)
		})

		r.Route("/dashboard", func(dr chi.Router) {
			dr.With(middleware.RequireRoles(h.Base, allRoles...)).Post("/notice/{feature}", h.Dashboard.Notice)

			dr.Group(func(ar chi.Router) {
				ar.Use(middleware.RequireRoles(h.Base, approval.Roles...))
				ar.Get("/manager/pending", h.Approvals.Pending)
				ar.Post("/approvals/{expenseID}", h.Approvals.Act)
			})

			dr.Group(func(sr chi.Router) {
				sr.Use(middleware.RequireRoles(h.Base, user.RoleSuperUser))
				sr.Get("/superuser/companies", h.Companies.List)
			})
		})
	})
}
