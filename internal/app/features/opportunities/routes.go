// internal/app/features/opportunities/routes.go
package opportunities

import (
	"github.com/go-chi/chi/v5"
	"github.com/haymanh/success/internal/app/system/auth"
	"github.com/haymanh/success/internal/domain/models"
)

// Routes is mounted under /api/opportunities and is public.
func Routes(h *Handler) chi.Router {
	r := chi.NewRouter()
	r.Get("/", h.List)
	r.Get("/slug/{slug}", h.GetBySlug)
	r.Get("/{id}", h.Get)
	return r
}

// AdminRoutes is mounted under /api/admin/opportunities.
func AdminRoutes(h *Handler, sm *auth.SessionManager) chi.Router {
	r := chi.NewRouter()
	r.Use(sm.RequireRole(models.RoleAdmin))
	r.Get("/", h.AdminList)
	r.Post("/", h.Create)
	r.Put("/{id}", h.Update)
	r.Delete("/{id}", h.Delete)
	r.Post("/{id}/status", h.UpdateStatus)
	r.Get("/{id}/stats", h.Stats)
	return r
}
