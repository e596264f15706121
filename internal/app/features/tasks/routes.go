// internal/app/features/tasks/routes.go
package tasks

import (
	"github.com/dalemusser/cmsdesk/internal/app/system/auth"
	"github.com/dalemusser/cmsdesk/internal/domain/models"
	"github.com/go-chi/chi/v5"
)

// Routes mounts under /tasks. Any signed-in user can read and file
// tickets; changing or removing one is for admins.
func Routes(h *Handler, sm *auth.SessionManager) chi.Router {
	r := chi.NewRouter()
	r.Use(sm.RequireSignedIn)

	r.Get("/", h.List)
	r.Post("/", h.Create)
	r.Get("/options", h.Options)
	r.Get("/{id}", h.Get)

	r.Group(func(r chi.Router) {
		r.Use(sm.RequireRole(models.RoleAdmin))
		r.Patch("/{id}", h.Update)
		r.Delete("/{id}", h.Delete)
	})
	return r
}
