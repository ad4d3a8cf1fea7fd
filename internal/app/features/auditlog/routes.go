// internal/app/features/auditlog/routes.go
package auditlog

import (
	"github.com/go-chi/chi/v5"
	"github.com/haymanh/success/internal/app/system/auth"
	"github.com/haymanh/success/internal/domain/models"
)

// Routes is mounted under /api/admin/audit. Admins only.
func Routes(h *Handler, sm *auth.SessionManager) chi.Router {
	r := chi.NewRouter()
	r.Use(sm.RequireRole(models.RoleAdmin))
	r.Get("/", h.ServeList)
	r.Get("/failed-logins", h.ServeFailedLogins)
	r.Get("/users/{id}", h.ServeUser)
	return r
}
