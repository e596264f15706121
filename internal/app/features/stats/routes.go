// internal/app/features/stats/routes.go
package stats

import (
	"github.com/dalemusser/cmsdesk/internal/app/system/auth"
	"github.com/go-chi/chi/v5"
)

func Routes(h *Handler, sm *auth.SessionManager) chi.Router {
	r := chi.NewRouter()
	r.Use(sm.RequireSignedIn)
	r.Get("/", h.ServeStats)
	return r
}
