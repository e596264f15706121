package tasks

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/dalemusser/cmsdesk/internal/app/system/apperr"
	"github.com/dalemusser/cmsdesk/internal/app/system/htmlsanitize"
	"github.com/dalemusser/cmsdesk/internal/app/system/httpjson"
	"github.com/dalemusser/cmsdesk/internal/app/system/inputval"
	"github.com/dalemusser/cmsdesk/internal/app/system/notify"
	"github.com/dalemusser/cmsdesk/internal/app/system/timeouts"
	"github.com/dalemusser/cmsdesk/internal/domain/models"
	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// createInput is the sanitized draft checked by inputval.
type createInput struct {
	LSA                string `validate:"required,max=64" label:"LSA"`
	TSP                string `validate:"required,max=64" label:"TSP"`
	DotAndLEA          string `validate:"required,max=64" label:"DoT & LEA"`
	ProblemDescription string `validate:"required,min=10,max=5000" label:"Problem description"`
}

type createResponse struct {
	Task    models.Task `json:"task"`
	Success bool        `json:"success"`
}

type deleteResponse struct {
	Message string `json:"message"`
}

// Create handles POST /tasks. Server-assigned fields (id, timestamps,
// default status) are authoritative; clients requery rather than insert
// the draft locally.
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	var d models.TaskDraft
	if err := httpjson.Decode(r, &d); err != nil {
		h.fail(w, err, "Failed to create task")
		return
	}

	in := createInput{
		LSA:                htmlsanitize.Text(d.LSA),
		TSP:                htmlsanitize.Text(d.TSP),
		DotAndLEA:          htmlsanitize.Text(d.DotAndLEA),
		ProblemDescription: htmlsanitize.Text(d.ProblemDescription),
	}
	if res := inputval.Validate(in); res.HasErrors() {
		h.fail(w, apperr.Validation(res.First()), "Failed to create task")
		return
	}

	status := h.Statuses.Default()
	if strings.TrimSpace(d.Status) != "" {
		canon, ok := h.Statuses.Canonical(d.Status)
		if !ok {
			h.fail(w, apperr.Validation("Unknown status "+strings.TrimSpace(d.Status)), "Failed to create task")
			return
		}
		status = canon
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Short(), h.Log, "create task")
	defer cancel()

	var t models.Task
	rev, err := h.Revision.Commit(func() error {
		var err error
		t, err = h.Tasks.Create(ctx, models.Task{
			LSA:                in.LSA,
			TSP:                in.TSP,
			DotAndLEA:          in.DotAndLEA,
			ProblemDescription: in.ProblemDescription,
			Status:             status,
		})
		return err
	})
	if err != nil {
		h.fail(w, err, "Failed to create task")
		return
	}
	h.Log.Info("task created", zap.String("task_id", t.ID), zap.String("status", t.Status))
	h.notify(notify.Event{Kind: notify.TaskCreated, Task: t})

	h.respond(w, http.StatusCreated, rev, createResponse{Task: t, Success: true})
}

// Update handles PATCH /tasks/{id}. Only the fields present in the body
// change; the response is the stored task.
func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	var p models.TaskPatch
	if err := httpjson.Decode(r, &p); err != nil {
		h.fail(w, err, "Failed to update task")
		return
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Short(), h.Log, "update task")
	defer cancel()

	p, err := h.cleanPatch(ctx, p)
	if err != nil {
		h.fail(w, err, "Failed to update task")
		return
	}

	var before, t models.Task
	rev, err := h.Revision.Commit(func() error {
		var err error
		if before, err = h.Tasks.GetByID(ctx, id); err != nil {
			return err
		}
		t, err = h.Tasks.Update(ctx, id, p)
		return err
	})
	if err != nil {
		h.fail(w, err, "Failed to update task")
		return
	}
	if t.Status != before.Status {
		h.notify(notify.Event{Kind: notify.TaskStatusChanged, Task: t, PrevStatus: before.Status})
	}

	h.respond(w, http.StatusOK, rev, t)
}

// cleanPatch canonicalizes the status, strips markup from free text and
// checks that a new assignee exists.
func (h *Handler) cleanPatch(ctx context.Context, p models.TaskPatch) (models.TaskPatch, error) {
	if p.IsEmpty() {
		return p, apperr.Validation("No fields to update")
	}
	if p.Status != nil {
		canon, ok := h.Statuses.Canonical(*p.Status)
		if !ok {
			return p, apperr.Validation("Unknown status " + strings.TrimSpace(*p.Status))
		}
		p.Status = &canon
	}
	if p.SolutionProvided != nil {
		v := htmlsanitize.Text(*p.SolutionProvided)
		p.SolutionProvided = &v
	}
	if p.Remarks != nil {
		v := htmlsanitize.Text(*p.Remarks)
		p.Remarks = &v
	}
	if p.AssignedToID != nil {
		v := strings.TrimSpace(*p.AssignedToID)
		p.AssignedToID = &v
		if v != "" && h.Users != nil {
			if _, err := h.Users.GetByID(ctx, v); err != nil {
				if errors.Is(err, apperr.ErrNotFound) {
					return p, apperr.Validation("Assignee not found")
				}
				return p, err
			}
		}
	}
	return p, nil
}

// Delete handles DELETE /tasks/{id}.
func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Short(), h.Log, "delete task")
	defer cancel()

	rev, err := h.Revision.Commit(func() error { return h.Tasks.Delete(ctx, id) })
	if err != nil {
		h.fail(w, err, "Failed to delete task")
		return
	}
	h.Log.Info("task deleted", zap.String("task_id", id))
	h.notify(notify.Event{Kind: notify.TaskDeleted, Task: models.Task{ID: id}})

	h.respond(w, http.StatusOK, rev, deleteResponse{Message: "Task deleted successfully"})
}
