// internal/app/features/logout/handler.go
package logout

import (
	"net/http"

	"github.com/dalemusser/cmsdesk/internal/app/system/auth"
	"github.com/dalemusser/cmsdesk/internal/app/system/httpjson"
	"go.uber.org/zap"
)

type Handler struct {
	Log        *zap.Logger
	SessionMgr *auth.SessionManager
}

func NewHandler(sessionMgr *auth.SessionManager, logger *zap.Logger) *Handler {
	return &Handler{
		Log:        logger,
		SessionMgr: sessionMgr,
	}
}

// HandleLogout handles POST /logout. The cookie is expired even when the
// session could not be decoded.
func (h *Handler) HandleLogout(w http.ResponseWriter, r *http.Request) {
	if err := h.SessionMgr.SignOut(w, r); err != nil {
		h.Log.Error("logout: save session", zap.Error(err))
		httpjson.Error(w, http.StatusInternalServerError, "Logout failed")
		return
	}
	httpjson.Write(w, http.StatusOK, map[string]string{"message": "Signed out"})
}
