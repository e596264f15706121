// internal/app/features/users/handler.go
package users

import (
	"net/http"

	"github.com/dalemusser/cmsdesk/internal/app/store"
	"github.com/dalemusser/cmsdesk/internal/app/system/apperr"
	"github.com/dalemusser/cmsdesk/internal/app/system/auth"
	"github.com/dalemusser/cmsdesk/internal/app/system/htmlsanitize"
	"github.com/dalemusser/cmsdesk/internal/app/system/httpjson"
	"github.com/dalemusser/cmsdesk/internal/app/system/inputval"
	"github.com/dalemusser/cmsdesk/internal/app/system/normalize"
	"github.com/dalemusser/cmsdesk/internal/app/system/timeouts"
	"github.com/dalemusser/cmsdesk/internal/domain/models"
	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

type Handler struct {
	Users store.Users
	Log   *zap.Logger
}

func NewHandler(users store.Users, logger *zap.Logger) *Handler {
	return &Handler{Users: users, Log: logger}
}

type createRequest struct {
	Name   string `json:"name"`
	Email  string `json:"email"`
	Role   string `json:"role"`
	Avatar string `json:"avatar"`
}

// createInput is what inputval checks after normalization.
type createInput struct {
	Name  string `validate:"required,max=200" label:"Name"`
	Email string `validate:"required,email" label:"Email"`
}

type listResponse struct {
	Users []models.User `json:"users"`
}

type userResponse struct {
	User models.User `json:"user"`
}

// List handles GET /users.
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Short(), h.Log, "list users")
	defer cancel()

	list, err := h.Users.List(ctx)
	if err != nil {
		httpjson.Fail(w, h.Log, err, "Failed to fetch users")
		return
	}
	httpjson.Write(w, http.StatusOK, listResponse{Users: list})
}

// Create handles POST /users. Anyone may register as an employee; only an
// admin may create another admin.
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	var req createRequest
	if err := httpjson.Decode(r, &req); err != nil {
		httpjson.Fail(w, h.Log, err, "Failed to create user")
		return
	}

	in := createInput{
		Name:  normalize.Name(htmlsanitize.Text(req.Name)),
		Email: normalize.Email(req.Email),
	}
	if res := inputval.Validate(in); res.HasErrors() {
		httpjson.Error(w, http.StatusBadRequest, res.First())
		return
	}

	role := normalize.Role(req.Role)
	if role == "" {
		role = models.RoleEmployee
	}
	if !models.IsValidRole(role) {
		httpjson.Error(w, http.StatusBadRequest, "Role must be admin or employee.")
		return
	}
	if role == models.RoleAdmin {
		if su, ok := auth.CurrentUser(r); !ok || !su.IsAdmin() {
			httpjson.Error(w, http.StatusForbidden, "Only an admin can create admins.")
			return
		}
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Short(), h.Log, "create user")
	defer cancel()

	u, err := h.Users.Create(ctx, models.User{
		Name:   in.Name,
		Email:  in.Email,
		Role:   role,
		Avatar: req.Avatar,
	})
	if err != nil {
		httpjson.Fail(w, h.Log, err, "Failed to create user")
		return
	}
	h.Log.Info("user created", zap.String("user_id", u.ID), zap.String("role", u.Role))
	httpjson.Write(w, http.StatusCreated, userResponse{User: u})
}

type roleRequest struct {
	Role string `json:"role"`
}

// UpdateRole handles PATCH /users/{id}/role. Admins cannot demote
// themselves, so a deployment never loses its last way back in by accident.
func (h *Handler) UpdateRole(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	var req roleRequest
	if err := httpjson.Decode(r, &req); err != nil {
		httpjson.Fail(w, h.Log, err, "Failed to update role")
		return
	}
	role := normalize.Role(req.Role)
	if !models.IsValidRole(role) {
		httpjson.Fail(w, h.Log, apperr.Validation("Role must be admin or employee."), "Failed to update role")
		return
	}
	if su, ok := auth.CurrentUser(r); ok && su.ID == id && role != models.RoleAdmin {
		httpjson.Error(w, http.StatusBadRequest, "You cannot remove your own admin role.")
		return
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Short(), h.Log, "update role")
	defer cancel()

	u, err := h.Users.UpdateRole(ctx, id, role)
	if err != nil {
		httpjson.Fail(w, h.Log, err, "Failed to update role")
		return
	}
	h.Log.Info("user role changed", zap.String("user_id", u.ID), zap.String("role", u.Role))
	httpjson.Write(w, http.StatusOK, userResponse{User: u})
}
