package stats_test

import (
	"context"
	"errors"
	"net/http"
	"testing"
	"time"

	"github.com/dalemusser/cmsdesk/internal/app/features/stats"
	"github.com/dalemusser/cmsdesk/internal/app/store"
	"github.com/dalemusser/cmsdesk/internal/domain/models"
	"github.com/dalemusser/cmsdesk/internal/testutil"
	"go.uber.org/zap"
)

func strPtr(s string) *string { return &s }

func TestServeStats(t *testing.T) {
	b := testutil.SetupSQLBackend(t)
	fx := testutil.NewFixtures(t, b)
	ctx := context.Background()

	emp := fx.CreateEmployee(ctx, "Meera", "meera@example.com")
	fx.CreateTaskWith(ctx, models.Task{LSA: "KA", TSP: "Airtel", DotAndLEA: "Police", ProblemDescription: "first problem text", Status: models.StatusPending})
	fx.CreateTaskWith(ctx, models.Task{LSA: "KA", TSP: "BSNL", DotAndLEA: "CBI", ProblemDescription: "second problem text", Status: models.StatusResolved})
	assigned := fx.CreateTaskWith(ctx, models.Task{LSA: "MH", TSP: "Airtel", DotAndLEA: "IB", ProblemDescription: "third problem text", Status: models.StatusInProgress})
	if _, err := b.Tasks.Update(ctx, assigned.ID, models.TaskPatch{AssignedToID: strPtr(emp.ID)}); err != nil {
		t.Fatalf("assign: %v", err)
	}

	h := stats.NewHandler(b.Tasks, b.Users, models.DefaultStatuses(), zap.NewNop())
	rec := testutil.NewRecorder()
	h.ServeStats(rec, testutil.NewRequest(http.MethodGet, "/stats"))
	rec.AssertStatus(t, http.StatusOK)
	rec.AssertContains(t, `"statusDistribution"`)

	var s models.Stats
	rec.DecodeJSON(t, &s)

	if s.TotalTasks != 3 || s.ResolvedTasks != 1 || s.PendingTasks != 1 || s.MonthlyTasks != 3 {
		t.Errorf("counts: %+v", s)
	}
	if len(s.RecentActivity) != 3 {
		t.Fatalf("recentActivity: got %d", len(s.RecentActivity))
	}
	if s.RecentActivity[0].ID != assigned.ID {
		t.Errorf("recentActivity not newest first: %s", s.RecentActivity[0].ID)
	}
	if s.RecentActivity[0].AssignedTo == nil || s.RecentActivity[0].AssignedTo.Name != "Meera" {
		t.Errorf("assignee: %+v", s.RecentActivity[0].AssignedTo)
	}
	if s.RecentActivity[1].AssignedTo != nil {
		t.Errorf("unassigned task shows assignee")
	}

	tsp := map[string]int64{}
	for _, nc := range s.TSPStats {
		tsp[nc.Name] = nc.Count
	}
	if tsp["Airtel"] != 2 || tsp["BSNL"] != 1 {
		t.Errorf("tspStats: %+v", s.TSPStats)
	}
	if len(s.LSAStats) != 2 || len(s.StatusDistribution) != 3 {
		t.Errorf("lsa/status buckets: %+v %+v", s.LSAStats, s.StatusDistribution)
	}
}

func TestServeStats_MonthAndRecentWindows(t *testing.T) {
	b := testutil.SetupSQLBackend(t)
	testutil.NewFixtures(t, b).CreateTask(context.Background(), "ticket created today")

	h := stats.NewHandler(b.Tasks, b.Users, models.DefaultStatuses(), zap.NewNop())
	// Viewed from two months later, nothing is monthly or recent.
	h.SetNow(func() time.Time { return time.Now().AddDate(0, 2, 0) })

	rec := testutil.NewRecorder()
	h.ServeStats(rec, testutil.NewRequest(http.MethodGet, "/stats"))
	rec.AssertStatus(t, http.StatusOK)
	var s models.Stats
	rec.DecodeJSON(t, &s)
	if s.TotalTasks != 1 || s.MonthlyTasks != 0 || len(s.RecentActivity) != 0 {
		t.Errorf("windows: %+v", s)
	}
}

type brokenTasks struct{ store.Tasks }

func (brokenTasks) Count(context.Context, models.TaskFilter) (int64, error) {
	return 0, errors.New("connection reset")
}

func TestServeStats_StoreFailureIs500(t *testing.T) {
	b := testutil.SetupSQLBackend(t)
	h := stats.NewHandler(brokenTasks{b.Tasks}, b.Users, models.DefaultStatuses(), zap.NewNop())

	rec := testutil.NewRecorder()
	h.ServeStats(rec, testutil.NewRequest(http.MethodGet, "/stats"))
	rec.AssertStatus(t, http.StatusInternalServerError)
	rec.AssertContains(t, "Failed to fetch statistics")
	rec.AssertContains(t, `"error"`)
}
