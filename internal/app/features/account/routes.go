// internal/app/features/account/routes.go
package account

import "github.com/go-chi/chi/v5"

// Routes is mounted under /api/auth.
func Routes(h *Handler) chi.Router {
	r := chi.NewRouter()
	r.Post("/register", h.Register)
	r.Post("/login", h.Login)
	r.Post("/logout", h.Logout)
	r.With(h.SessionMgr.RequireSignedIn).Get("/me", h.Me)
	return r
}
