// internal/app/features/notes/handler.go
package notes

import (
	"net/http"

	"github.com/dalemusser/cmsdesk/internal/app/store"
	"github.com/dalemusser/cmsdesk/internal/app/system/htmlsanitize"
	"github.com/dalemusser/cmsdesk/internal/app/system/httpjson"
	"github.com/dalemusser/cmsdesk/internal/app/system/inputval"
	"github.com/dalemusser/cmsdesk/internal/app/system/timeouts"
	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// Handler serves the shared checklist. Notes have no owner; anyone
// signed in can add, tick or remove them.
type Handler struct {
	Notes store.Notes
	Log   *zap.Logger
}

func NewHandler(notes store.Notes, logger *zap.Logger) *Handler {
	return &Handler{Notes: notes, Log: logger}
}

type noteInput struct {
	Message string `json:"message" validate:"required,max=1000" label:"Message"`
}

// List handles GET /notes, newest first.
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Short(), h.Log, "list notes")
	defer cancel()

	list, err := h.Notes.List(ctx)
	if err != nil {
		httpjson.Fail(w, h.Log, err, "Failed to fetch notes")
		return
	}
	httpjson.Write(w, http.StatusOK, list)
}

// Create handles POST /notes.
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	var in noteInput
	if err := httpjson.Decode(r, &in); err != nil {
		httpjson.Fail(w, h.Log, err, "Failed to create note")
		return
	}
	in.Message = htmlsanitize.Text(in.Message)
	if res := inputval.Validate(in); res.HasErrors() {
		httpjson.Error(w, http.StatusBadRequest, res.First())
		return
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Short(), h.Log, "create note")
	defer cancel()

	n, err := h.Notes.Create(ctx, in.Message)
	if err != nil {
		httpjson.Fail(w, h.Log, err, "Failed to create note")
		return
	}
	httpjson.Write(w, http.StatusCreated, n)
}

// Toggle handles POST /notes/{id}/toggle.
func (h *Handler) Toggle(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Short(), h.Log, "toggle note")
	defer cancel()

	n, err := h.Notes.Toggle(ctx, chi.URLParam(r, "id"))
	if err != nil {
		httpjson.Fail(w, h.Log, err, "Failed to update note")
		return
	}
	httpjson.Write(w, http.StatusOK, n)
}

// Delete handles DELETE /notes/{id}.
func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Short(), h.Log, "delete note")
	defer cancel()

	if err := h.Notes.Delete(ctx, chi.URLParam(r, "id")); err != nil {
		httpjson.Fail(w, h.Log, err, "Failed to delete note")
		return
	}
	httpjson.Write(w, http.StatusOK, map[string]string{"message": "Note deleted"})
}
