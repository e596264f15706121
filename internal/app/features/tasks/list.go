package tasks

import (
	"net/http"

	"github.com/dalemusser/cmsdesk/internal/app/system/timeouts"
	"github.com/dalemusser/cmsdesk/internal/domain/models"
	"github.com/go-chi/chi/v5"
)

// List handles GET /tasks. It answers a JSON array, newest first.
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	f, err := parseFilter(r.URL.Query(), h.Statuses)
	if err != nil {
		h.fail(w, err, "Invalid filter")
		return
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Medium(), h.Log, "list tasks")
	defer cancel()

	rev := h.Revision.Current()
	list, err := h.Tasks.List(ctx, f)
	if err != nil {
		h.fail(w, err, "Failed to fetch tasks")
		return
	}
	h.respond(w, http.StatusOK, rev, list)
}

// Get handles GET /tasks/{id}.
func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Short(), h.Log, "get task")
	defer cancel()

	rev := h.Revision.Current()
	t, err := h.Tasks.GetByID(ctx, chi.URLParam(r, "id"))
	if err != nil {
		h.fail(w, err, "Failed to fetch task")
		return
	}
	h.respond(w, http.StatusOK, rev, t)
}

// Options handles GET /tasks/options.
func (h *Handler) Options(w http.ResponseWriter, r *http.Request) {
	h.respond(w, http.StatusOK, h.Revision.Current(), models.TaskOptions{
		LSA:       models.LSAOptions,
		TSP:       models.TSPOptions,
		DotAndLEA: models.DotLEAOptions,
		Statuses:  h.Statuses.Values(),
	})
}
