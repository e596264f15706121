package bootstrap

import (
	"testing"

	"github.com/dalemusser/cmsdesk/internal/domain/models"
	"github.com/dalemusser/cmsdesk/internal/testutil"
	"go.uber.org/zap"
)

func testLogger() *zap.Logger {
	return zap.NewNop()
}

func TestSeedDemo_PopulatesEmptyDatabase(t *testing.T) {
	b := testutil.SetupSQLBackend(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	if err := seedDemo(ctx, b, models.DefaultStatuses(), testLogger()); err != nil {
		t.Fatalf("seedDemo failed: %v", err)
	}

	users, err := b.Users.List(ctx)
	if err != nil {
		t.Fatalf("list users: %v", err)
	}
	if len(users) != 3 {
		t.Fatalf("expected 3 users, got %d", len(users))
	}
	admin, err := b.Users.GetByEmail(ctx, demoAdminEmail)
	if err != nil {
		t.Fatalf("demo admin missing: %v", err)
	}
	if admin.Role != models.RoleAdmin {
		t.Errorf("expected admin role, got %q", admin.Role)
	}

	chats, err := b.GroupChats.List(ctx)
	if err != nil {
		t.Fatalf("list group chats: %v", err)
	}
	if len(chats) != 1 || chats[0].Name != "General" {
		t.Fatalf("expected one General chat, got %+v", chats)
	}
	for _, u := range users {
		if !chats[0].HasParticipant(u.ID) {
			t.Errorf("user %s not in General", u.Email)
		}
	}

	tasks, err := b.Tasks.List(ctx, models.TaskFilter{})
	if err != nil {
		t.Fatalf("list tasks: %v", err)
	}
	if len(tasks) != len(demoTasks) {
		t.Fatalf("expected %d tasks, got %d", len(demoTasks), len(tasks))
	}
	valid := map[string]bool{}
	for _, s := range models.DefaultStatuses().Values() {
		valid[s] = true
	}
	assigned := 0
	for _, task := range tasks {
		if !valid[task.Status] {
			t.Errorf("task %s has status %q outside the vocabulary", task.ID, task.Status)
		}
		if task.AssignedToID != nil {
			assigned++
			if *task.AssignedToID == admin.ID {
				t.Errorf("task %s assigned to the admin", task.ID)
			}
		}
	}
	if assigned != 2 {
		t.Errorf("expected 2 assigned tasks, got %d", assigned)
	}
}

func TestSeedDemo_SkipsWhenAlreadySeeded(t *testing.T) {
	b := testutil.SetupSQLBackend(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	for i := 0; i < 2; i++ {
		if err := seedDemo(ctx, b, models.DefaultStatuses(), testLogger()); err != nil {
			t.Fatalf("seedDemo run %d failed: %v", i+1, err)
		}
	}

	users, err := b.Users.List(ctx)
	if err != nil {
		t.Fatalf("list users: %v", err)
	}
	if len(users) != 3 {
		t.Errorf("expected 3 users after reseed, got %d", len(users))
	}
	tasks, err := b.Tasks.List(ctx, models.TaskFilter{})
	if err != nil {
		t.Fatalf("list tasks: %v", err)
	}
	if len(tasks) != len(demoTasks) {
		t.Errorf("expected %d tasks after reseed, got %d", len(demoTasks), len(tasks))
	}
}

func TestSeedDemo_UsesConfiguredStatuses(t *testing.T) {
	b := testutil.SetupSQLBackend(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	statuses := models.NewStatusSet([]string{"Open", "Closed"})
	if err := seedDemo(ctx, b, statuses, testLogger()); err != nil {
		t.Fatalf("seedDemo failed: %v", err)
	}

	tasks, err := b.Tasks.List(ctx, models.TaskFilter{})
	if err != nil {
		t.Fatalf("list tasks: %v", err)
	}
	for _, task := range tasks {
		if task.Status != "Open" && task.Status != "Closed" {
			t.Errorf("unexpected status %q", task.Status)
		}
	}
}
