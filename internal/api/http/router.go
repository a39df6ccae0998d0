package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/ticketflow/helpdesk/internal/api/http/handlers"
	"github.com/ticketflow/helpdesk/internal/auth"
	"github.com/ticketflow/helpdesk/internal/domain"
)

// RouteConfig bundles dependencies for route registration.
type RouteConfig struct {
	Health         *handlers.HealthHandler
	Auth           *handlers.AuthHandler
	Tickets        *handlers.TicketsHandler
	Users          *handlers.UsersHandler
	AuthMiddleware *auth.Middleware
}

// RegisterRoutes wires HTTP routes. Role gates here are a first
// filter; the services re-check the full policy per operation.
func RegisterRoutes(app *fiber.App, cfg RouteConfig) {
	app.Get("/health/live", cfg.Health.Live)
	app.Get("/health/ready", cfg.Health.Ready)

	authGroup := app.Group("/auth")
	authGroup.Post("/register", cfg.Auth.Register)
	authGroup.Post("/login", cfg.Auth.Login)

	authProtected := authGroup.Group("", cfg.AuthMiddleware.Handle, auth.RequireAuthenticated())
	authProtected.Get("/me", cfg.Auth.Me)
	authProtected.Post("/password/change", cfg.Auth.ChangePassword)

	tickets := app.Group("/tickets", cfg.AuthMiddleware.Handle, auth.RequireAuthenticated())
	tickets.Get("/catalog", cfg.Tickets.Catalog)
	tickets.Post("", cfg.Tickets.CreateTicket)
	tickets.Get("", cfg.Tickets.ListTickets)
	tickets.Get("/:id", cfg.Tickets.GetTicket)
	tickets.Post("/:id/comments", cfg.Tickets.AddComment)
	tickets.Patch("/:id/status", cfg.Tickets.ChangeStatus)

	staff := tickets.Group("", auth.RequireRole(domain.RoleAgent, domain.RoleAdmin))
	staff.Patch("/:id/priority", cfg.Tickets.ChangePriority)
	staff.Patch("/:id/assignee", cfg.Tickets.Assign)

	dashboard := app.Group("/dashboard", cfg.AuthMiddleware.Handle, auth.RequireRole(domain.RoleAgent, domain.RoleAdmin))
	dashboard.Get("/stats", cfg.Tickets.DashboardStats)

	admin := app.Group("/admin", cfg.AuthMiddleware.Handle, auth.RequireRole(domain.RoleAdmin))
	admin.Get("/users", cfg.Users.ListUsers)
	admin.Get("/users/:id", cfg.Users.GetUser)
	admin.Patch("/users/:id/role", cfg.Users.ChangeRole)
	admin.Delete("/users/:id", cfg.Users.DeleteUser)
}
