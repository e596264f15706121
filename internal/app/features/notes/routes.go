// internal/app/features/notes/routes.go
package notes

import (
	"github.com/dalemusser/cmsdesk/internal/app/system/auth"
	"github.com/go-chi/chi/v5"
)

func Routes(h *Handler, sm *auth.SessionManager) chi.Router {
	r := chi.NewRouter()
	r.Use(sm.RequireSignedIn)
	r.Get("/", h.List)
	r.Post("/", h.Create)
	r.Post("/{id}/toggle", h.Toggle)
	r.Delete("/{id}", h.Delete)
	return r
}
