// internal/app/features/login/handler.go
package login

import (
	"errors"
	"math"
	"net/http"
	"strconv"

	"github.com/dalemusser/cmsdesk/internal/app/store"
	"github.com/dalemusser/cmsdesk/internal/app/system/apperr"
	"github.com/dalemusser/cmsdesk/internal/app/system/auth"
	"github.com/dalemusser/cmsdesk/internal/app/system/httpjson"
	"github.com/dalemusser/cmsdesk/internal/app/system/inputval"
	"github.com/dalemusser/cmsdesk/internal/app/system/normalize"
	"github.com/dalemusser/cmsdesk/internal/app/system/ratelimit"
	"github.com/dalemusser/cmsdesk/internal/app/system/timeouts"
	"go.uber.org/zap"
)

// Handler signs users in by email. There are no passwords: the service
// sits behind the team's network and trusts the address given, so every
// attempt is rate limited by IP and by address.
type Handler struct {
	Users      store.Users
	SessionMgr *auth.SessionManager
	Limiter    *ratelimit.LoginLimiter
	Log        *zap.Logger
}

func NewHandler(users store.Users, sessionMgr *auth.SessionManager, limiter *ratelimit.LoginLimiter, logger *zap.Logger) *Handler {
	return &Handler{
		Users:      users,
		SessionMgr: sessionMgr,
		Limiter:    limiter,
		Log:        logger,
	}
}

type loginRequest struct {
	Email string `json:"email"`
}

type userResponse struct {
	User any `json:"user"`
}

// HandleLogin handles POST /login.
func (h *Handler) HandleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := httpjson.Decode(r, &req); err != nil {
		httpjson.Fail(w, h.Log, err, "Login failed")
		return
	}
	email := normalize.Email(req.Email)

	if h.Limiter != nil {
		if v := h.Limiter.Check(r, email); !v.Allowed {
			h.Log.Warn("login rate limited",
				zap.String("email", email),
				zap.String("ip", ratelimit.ClientIP(r)))
			w.Header().Set("Retry-After", strconv.Itoa(int(math.Ceil(v.RetryAfter.Seconds()))))
			httpjson.Error(w, http.StatusTooManyRequests, v.Reason)
			return
		}
	}

	if !inputval.IsValidEmail(email) {
		httpjson.Error(w, http.StatusBadRequest, "A valid email address is required.")
		return
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Short(), h.Log, "login lookup")
	defer cancel()

	u, err := h.Users.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, apperr.ErrNotFound) {
			httpjson.Error(w, http.StatusUnauthorized, "No account found for that email.")
			return
		}
		httpjson.Fail(w, h.Log, err, "Login failed")
		return
	}

	if err := h.SessionMgr.SignIn(w, r, u); err != nil {
		h.Log.Error("login: save session", zap.Error(err))
		httpjson.Error(w, http.StatusInternalServerError, "Login failed")
		return
	}
	if h.Limiter != nil {
		h.Limiter.ResetEmail(email)
	}
	h.Log.Info("user signed in", zap.String("user_id", u.ID), zap.String("role", u.Role))
	httpjson.Write(w, http.StatusOK, userResponse{User: u})
}

// ServeMe handles GET /me with the signed-in user.
func (h *Handler) ServeMe(w http.ResponseWriter, r *http.Request) {
	su, ok := auth.CurrentUser(r)
	if !ok {
		httpjson.Error(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Short(), h.Log, "me lookup")
	defer cancel()

	u, err := h.Users.GetByID(ctx, su.ID)
	if err != nil {
		httpjson.Fail(w, h.Log, err, "Failed to load user")
		return
	}
	httpjson.Write(w, http.StatusOK, userResponse{User: u})
}
