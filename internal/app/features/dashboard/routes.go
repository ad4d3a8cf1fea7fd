// internal/app/features/dashboard/routes.go
package dashboard

import (
	"github.com/go-chi/chi/v5"
	"github.com/haymanh/success/internal/app/system/auth"
)

// Routes is mounted under /api/dashboard. Every route requires a signed-in
// user.
func Routes(h *Handler, sm *auth.SessionManager) chi.Router {
	r := chi.NewRouter()
	r.Group(func(pr chi.Router) {
		pr.Use(sm.RequireSignedIn)
		pr.Get("/", h.Serve)
		pr.Post("/select-opportunity", h.SelectOpportunity)
		pr.Delete("/selected-opportunities/{id}", h.RemoveSelection)
		pr.Post("/enroll-program", h.EnrollProgram)
		pr.Delete("/enrolled-programs/{id}", h.Unenroll)
	})
	return r
}
