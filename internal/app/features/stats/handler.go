// internal/app/features/stats/handler.go
package stats

import (
	"context"
	"net/http"
	"time"

	"github.com/dalemusser/cmsdesk/internal/app/store"
	"github.com/dalemusser/cmsdesk/internal/app/system/httpjson"
	"github.com/dalemusser/cmsdesk/internal/app/system/timeouts"
	"github.com/dalemusser/cmsdesk/internal/domain/models"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

const (
	recentWindow = 7 * 24 * time.Hour
	recentLimit  = 5
)

// Handler serves the dashboard summary.
type Handler struct {
	Tasks    store.Tasks
	Users    store.Users
	Statuses models.StatusSet
	Log      *zap.Logger

	now func() time.Time
}

func NewHandler(tasks store.Tasks, users store.Users, statuses models.StatusSet, logger *zap.Logger) *Handler {
	return &Handler{
		Tasks:    tasks,
		Users:    users,
		Statuses: statuses,
		Log:      logger,
		now:      time.Now,
	}
}

// ServeStats handles GET /stats. The independent counts run concurrently;
// the first failure cancels the rest.
func (h *Handler) ServeStats(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Medium(), h.Log, "task stats")
	defer cancel()

	s, err := h.compute(ctx)
	if err != nil {
		httpjson.Fail(w, h.Log, err, "Failed to fetch statistics")
		return
	}
	w.Header().Set("Cache-Control", "no-cache, no-store, must-revalidate")
	httpjson.Write(w, http.StatusOK, s)
}

func (h *Handler) compute(ctx context.Context) (models.Stats, error) {
	now := h.now().UTC()
	monthStart := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC)
	pending := h.Statuses.Default()
	resolved, ok := h.Statuses.Canonical(models.StatusResolved)
	if !ok {
		vals := h.Statuses.Values()
		resolved = vals[len(vals)-1]
	}

	var (
		s       models.Stats
		recent  []models.Task
		byState []models.NameCount
	)
	g, gctx := errgroup.WithContext(ctx)
	count := func(dst *int64, f models.TaskFilter) {
		g.Go(func() error {
			n, err := h.Tasks.Count(gctx, f)
			*dst = n
			return err
		})
	}
	group := func(dst *[]models.NameCount, field models.TaskField) {
		g.Go(func() error {
			rows, err := h.Tasks.CountBy(gctx, field)
			*dst = rows
			return err
		})
	}

	count(&s.TotalTasks, models.TaskFilter{})
	count(&s.ResolvedTasks, models.TaskFilter{Status: resolved})
	count(&s.PendingTasks, models.TaskFilter{Status: pending})
	count(&s.MonthlyTasks, models.TaskFilter{From: &monthStart})
	group(&s.TSPStats, models.TaskFieldTSP)
	group(&s.LSAStats, models.TaskFieldLSA)
	group(&byState, models.TaskFieldStatus)
	g.Go(func() error {
		var err error
		recent, err = h.Tasks.Recent(gctx, now.Add(-recentWindow), recentLimit)
		return err
	})
	if err := g.Wait(); err != nil {
		return models.Stats{}, err
	}

	s.StatusDistribution = make([]models.StatusBucket, 0, len(byState))
	for _, nc := range byState {
		s.StatusDistribution = append(s.StatusDistribution, models.StatusBucket{Name: nc.Name, Value: nc.Count})
	}
	activity, err := h.withAssignees(ctx, recent)
	if err != nil {
		return models.Stats{}, err
	}
	s.RecentActivity = activity
	return s, nil
}

// withAssignees resolves assignee names in one lookup. A dangling
// assignee shows as unassigned.
func (h *Handler) withAssignees(ctx context.Context, tasks []models.Task) ([]models.RecentTask, error) {
	var ids []string
	for _, t := range tasks {
		if t.AssignedToID != nil {
			ids = append(ids, *t.AssignedToID)
		}
	}
	names := map[string]models.User{}
	if len(ids) > 0 {
		var err error
		if names, err = h.Users.GetMany(ctx, ids); err != nil {
			return nil, err
		}
	}

	out := make([]models.RecentTask, 0, len(tasks))
	for _, t := range tasks {
		rt := models.RecentTask{
			ID:                 t.ID,
			ProblemDescription: t.ProblemDescription,
			Status:             t.Status,
			CreatedAt:          t.CreatedAt,
			TSP:                t.TSP,
			LSA:                t.LSA,
		}
		if t.AssignedToID != nil {
			if u, ok := names[*t.AssignedToID]; ok {
				rt.AssignedTo = &models.Assignee{Name: u.Name}
			}
		}
		out = append(out, rt)
	}
	return out, nil
}
