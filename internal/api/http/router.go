package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/lead-crm/internal/api/http/handlers"
	"github.com/spec-kit/lead-crm/internal/auth"
	"github.com/spec-kit/lead-crm/internal/domain"
)

// RouteConfig bundles dependencies for route registration.
type RouteConfig struct {
	Health         *handlers.HealthHandler
	Auth           *handlers.AuthHandler
	Accounts       *handlers.AccountsHandler
	Leads          *handlers.LeadsHandler
	Activity       *handlers.ActivityHandler
	Reminders      *handlers.RemindersHandler
	Reports        *handlers.ReportsHandler
	AuthMiddleware *auth.Middleware
}

// RegisterRoutes wires HTTP routes.
func RegisterRoutes(app *fiber.App, cfg RouteConfig) {
	app.Get("/health/live", cfg.Health.Live)
	app.Get("/health/ready", cfg.Health.Ready)

	authGroup := app.Group("/auth")
	authGroup.Post("/login", cfg.Auth.Login)

	authProtected := authGroup.Group("", cfg.AuthMiddleware.Handle)
	authProtected.Post("/logout", cfg.Auth.Logout)
	authProtected.Get("/session", cfg.Auth.Session)
	authProtected.Post("/password/change", cfg.Auth.ChangePassword)

	accounts := app.Group("/accounts", cfg.AuthMiddleware.Handle)
	accounts.Get("/reporting-options", cfg.Accounts.ReportingOptions)
	accounts.Get("/", cfg.Accounts.ListAccounts)
	accounts.Post("/", cfg.Accounts.CreateAccount)
	accounts.Get("/:id", cfg.Accounts.GetAccount)
	accounts.Patch("/:id", cfg.Accounts.UpdateAccount)
	accounts.Delete("/:id", auth.RequireAdmin(), cfg.Accounts.DeleteAccount)

	leads := app.Group("/leads", cfg.AuthMiddleware.Handle)
	leads.Get("/", cfg.Leads.ListLeads)
	leads.Post("/", cfg.Leads.CreateLead)
	leads.Get("/:id", cfg.Leads.GetLead)
	leads.Patch("/:id", cfg.Leads.UpdateLead)
	leads.Delete("/:id", cfg.Leads.DeleteLead)
	leads.Post("/:id/comments", cfg.Leads.AddComment)
	leads.Post("/:id/followups", cfg.Leads.AddFollowUp)

	app.Get("/activity", cfg.AuthMiddleware.Handle, cfg.Activity.ListActivity)
	app.Get("/reminders", cfg.AuthMiddleware.Handle, cfg.Reminders.Upcoming)
	app.Get("/calendar", cfg.AuthMiddleware.Handle, cfg.Reminders.Calendar)
	app.Get("/dashboard", cfg.AuthMiddleware.Handle, cfg.Reports.Dashboard)
	app.Get("/reports/team", cfg.AuthMiddleware.Handle,
		auth.RequireRole(domain.RoleManager, domain.RoleTeamLeader), cfg.Reports.TeamReport)
}
