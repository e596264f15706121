// internal/app/features/login/routes.go
package login

import (
	"github.com/dalemusser/cmsdesk/internal/app/system/auth"
	"github.com/go-chi/chi/v5"
)

// Routes mounts under /login.
func Routes(h *Handler) chi.Router {
	r := chi.NewRouter()
	r.Post("/", h.HandleLogin)
	return r
}

// MeRoutes mounts under /me.
func MeRoutes(h *Handler, sm *auth.SessionManager) chi.Router {
	r := chi.NewRouter()
	r.Use(sm.RequireSignedIn)
	r.Get("/", h.ServeMe)
	return r
}
