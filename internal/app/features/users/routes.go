// internal/app/features/users/routes.go
package users

import (
	"github.com/dalemusser/cmsdesk/internal/app/system/auth"
	"github.com/dalemusser/cmsdesk/internal/domain/models"
	"github.com/go-chi/chi/v5"
)

// Routes mounts under /users. Registration is open; listing needs a
// session and role changes need an admin.
func Routes(h *Handler, sm *auth.SessionManager) chi.Router {
	r := chi.NewRouter()
	r.Post("/", h.Create)

	r.Group(func(pr chi.Router) {
		pr.Use(sm.RequireSignedIn)
		pr.Get("/", h.List)
	})
	r.Group(func(ar chi.Router) {
		ar.Use(sm.RequireRole(models.RoleAdmin))
		ar.Patch("/{id}/role", h.UpdateRole)
	})
	return r
}
