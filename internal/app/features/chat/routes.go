// internal/app/features/chat/routes.go
package chat

import (
	"github.com/dalemusser/cmsdesk/internal/app/system/auth"
	"github.com/go-chi/chi/v5"
)

// GroupChatRoutes mounts under /group-chats.
func GroupChatRoutes(h *Handler, sm *auth.SessionManager) chi.Router {
	r := chi.NewRouter()
	r.Use(sm.RequireSignedIn)
	r.Get("/", h.ListGroupChats)
	r.Post("/", h.CreateGroupChat)
	return r
}

// MessageRoutes mounts under /messages.
func MessageRoutes(h *Handler, sm *auth.SessionManager) chi.Router {
	r := chi.NewRouter()
	r.Use(sm.RequireSignedIn)
	r.Get("/", h.ListMessages)
	return r
}
