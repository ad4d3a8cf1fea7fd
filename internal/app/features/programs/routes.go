// internal/app/features/programs/routes.go
package programs

import (
	"github.com/go-chi/chi/v5"
	"github.com/haymanh/success/internal/app/system/auth"
	"github.com/haymanh/success/internal/domain/models"
)

// Routes is mounted under /api/programs.
func Routes(h *Handler) chi.Router {
	r := chi.NewRouter()
	r.Get("/", h.List)
	r.Get("/{id}", h.Get)
	return r
}

// AdminRoutes is mounted under /api/admin/programs.
func AdminRoutes(h *Handler, sm *auth.SessionManager) chi.Router {
	r := chi.NewRouter()
	r.Use(sm.RequireRole(models.RoleAdmin))
	r.Post("/", h.Create)
	r.Put("/{id}", h.Update)
	r.Delete("/{id}", h.Delete)
	return r
}
