package admin

import (
	"github.com/go-chi/chi/v5"
)

// Routes returns admin router
func (h *Handler) Routes() chi.Router {
	r := chi.NewRouter()

	// Auth routes (no auth required)
	r.Post("/auth/login", h.Login)

	// Protected routes
	r.Group(func(r chi.Router) {
		r.Use(AuthMiddleware(h.jwtSvc, h.service))

		// Current admin
		r.Get("/auth/me", h.Me)

		// Admin management (super_admin only)
		r.Route("/admins", func(r chi.Router) {
			r.Use(RequirePermission(PermManageAdmins))
			r.Get("/", h.ListAdmins)
			r.Post("/", h.CreateAdmin)
			r.Patch("/{id}", h.UpdateAdmin)
		})

		// Platform settings
		r.Route("/settings", func(r chi.Router) {
			r.Use(RequirePermission(PermManageSettings))
			r.Get("/", h.GetSettings)
			r.Put("/", h.UpdateSettings)
		})

		// Dashboard
		r.With(RequirePermission(PermViewDashboard)).Get("/dashboard", h.Dashboard)

		// Audit logs
		r.With(RequirePermission(PermViewAuditLogs)).Get("/audit/logs", h.AuditLogs)

		// Reports
		r.With(RequirePermission(PermExportReports)).Post("/reports/transactions", h.ExportTransactions)

		// Bulk credit operations
		r.With(RequirePermission(PermBulkCredits)).Post("/bulk-credit-management", h.BulkAdjustCredits)

		// User management
		r.Route("/users", func(r chi.Router) {
			r.Use(RequirePermission(PermViewUsers))
			r.Get("/", h.ListUsers)
			r.Get("/{id}", h.GetUser)
			r.With(RequirePermission(PermManageUsers)).Patch("/{id}/status", h.UpdateUserStatus)

			r.Route("/{id}/credits", func(r chi.Router) {
				r.Use(RequirePermission(PermAdjustCredits))
				r.Post("/", h.AdjustCredits)
				r.Get("/", h.GetUserCredits)
			})
			r.With(RequirePermission(PermAdjustCredits)).Get("/{id}/transactions", h.UserTransactions)
		})
	})

	return r
}
