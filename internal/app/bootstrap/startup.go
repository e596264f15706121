// internal/app/bootstrap/startup.go
package bootstrap

import (
	"context"
	"errors"
	"fmt"

	"github.com/dalemusser/cmsdesk/internal/app/store"
	"github.com/dalemusser/cmsdesk/internal/app/system/apperr"
	"github.com/dalemusser/cmsdesk/internal/app/system/timeouts"
	"github.com/dalemusser/cmsdesk/internal/domain/models"
	"github.com/dalemusser/waffle/config"
	"go.uber.org/zap"
)

// Startup runs one-time application initialization after DB connections and
// schema setup are complete, but before the HTTP handler is built.
//
// It applies the configured store deadlines and, when seed_demo is on,
// populates an empty database with demo data.
func Startup(ctx context.Context, coreCfg *config.CoreConfig, appCfg AppConfig, deps DBDeps, logger *zap.Logger) error {
	timeouts.Configure(timeouts.Config{
		Short:  appCfg.TimeoutShort,
		Medium: appCfg.TimeoutMedium,
		Long:   appCfg.TimeoutLong,
	})

	if !appCfg.SeedDemo {
		return nil
	}
	ctx, cancel := timeouts.WithTimeout(ctx, timeouts.Long(), logger, "seed demo data")
	defer cancel()
	return seedDemo(ctx, deps.Backend, models.NewStatusSet(appCfg.TaskStatuses), logger)
}

// demoAdminEmail marks a seeded database; its presence skips seeding.
const demoAdminEmail = "admin@cms.local"

var demoUsers = []models.User{
	{Name: "Admin User", Email: demoAdminEmail, Role: models.RoleAdmin},
	{Name: "Priya Sharma", Email: "priya@cms.local", Role: models.RoleEmployee},
	{Name: "Rahul Verma", Email: "rahul@cms.local", Role: models.RoleEmployee},
}

var demoTasks = []models.Task{
	{LSA: "Delhi", TSP: "Airtel", DotAndLEA: "DoT Delhi", ProblemDescription: "Subscriber records request pending since last week"},
	{LSA: "Mumbai", TSP: "Jio", DotAndLEA: "Mumbai Police", ProblemDescription: "CDR export failing for the requested date range"},
	{LSA: "Karnataka", TSP: "Vodafone Idea", DotAndLEA: "DoT Bangalore", ProblemDescription: "Lawful intercept link down after maintenance window"},
	{LSA: "Kolkata", TSP: "BSNL", DotAndLEA: "Kolkata Police", ProblemDescription: "Duplicate tickets raised for the same subscriber"},
}

// seedDemo creates an admin, two employees, a "General" group chat with all
// three, and a handful of tasks spread over the status vocabulary. It is a
// no-op when the demo admin already exists.
func seedDemo(ctx context.Context, b store.Backend, statuses models.StatusSet, logger *zap.Logger) error {
	_, err := b.Users.GetByEmail(ctx, demoAdminEmail)
	if err == nil {
		logger.Info("demo data already present; skipping seed")
		return nil
	}
	if !errors.Is(err, apperr.ErrNotFound) {
		return fmt.Errorf("seed: look up demo admin: %w", err)
	}

	ids := make([]string, 0, len(demoUsers))
	for _, u := range demoUsers {
		created, err := b.Users.Create(ctx, u)
		if err != nil {
			return fmt.Errorf("seed: create user %s: %w", u.Email, err)
		}
		ids = append(ids, created.ID)
	}

	if _, err := b.GroupChats.Create(ctx, models.GroupChat{Name: "General", ParticipantIDs: ids}); err != nil {
		return fmt.Errorf("seed: create group chat: %w", err)
	}

	values := statuses.Values()
	for i, t := range demoTasks {
		t.Status = values[i%len(values)]
		if i%2 == 1 {
			// Hand every other ticket to an employee.
			assignee := ids[1+(i/2)%(len(ids)-1)]
			t.AssignedToID = &assignee
		}
		if _, err := b.Tasks.Create(ctx, t); err != nil {
			return fmt.Errorf("seed: create task: %w", err)
		}
	}

	logger.Info("seeded demo data",
		zap.Int("users", len(ids)),
		zap.Int("tasks", len(demoTasks)))
	return nil
}
