package testutil

import (
	"context"
	"testing"

	"github.com/dalemusser/cmsdesk/internal/app/store"
	"github.com/dalemusser/cmsdesk/internal/domain/models"
)

// Fixtures creates test data through a store.Backend.
type Fixtures struct {
	b store.Backend
	t *testing.T
}

// NewFixtures creates a new Fixtures instance for the given backend.
func NewFixtures(t *testing.T, b store.Backend) *Fixtures {
	t.Helper()
	return &Fixtures{b: b, t: t}
}

// Backend returns the underlying stores for direct access in tests.
func (f *Fixtures) Backend() store.Backend {
	return f.b
}

// CreateUser creates a user with the given role.
func (f *Fixtures) CreateUser(ctx context.Context, name, email, role string) models.User {
	f.t.Helper()
	u, err := f.b.Users.Create(ctx, models.User{Name: name, Email: email, Role: role})
	if err != nil {
		f.t.Fatalf("create user %q: %v", email, err)
	}
	return u
}

// CreateAdmin creates an administrator.
func (f *Fixtures) CreateAdmin(ctx context.Context, name, email string) models.User {
	f.t.Helper()
	return f.CreateUser(ctx, name, email, models.RoleAdmin)
}

// CreateEmployee creates an employee.
func (f *Fixtures) CreateEmployee(ctx context.Context, name, email string) models.User {
	f.t.Helper()
	return f.CreateUser(ctx, name, email, models.RoleEmployee)
}

// CreateTask stores a pending task with the given description.
func (f *Fixtures) CreateTask(ctx context.Context, description string) models.Task {
	f.t.Helper()
	return f.CreateTaskWith(ctx, models.Task{
		LSA:                "KA",
		TSP:                "Airtel",
		DotAndLEA:          "Police",
		ProblemDescription: description,
		Status:             models.StatusPending,
	})
}

// CreateTaskWith stores t as given.
func (f *Fixtures) CreateTaskWith(ctx context.Context, t models.Task) models.Task {
	f.t.Helper()
	out, err := f.b.Tasks.Create(ctx, t)
	if err != nil {
		f.t.Fatalf("create task: %v", err)
	}
	return out
}

// CreateGroupChat creates a chat room with the given participants.
func (f *Fixtures) CreateGroupChat(ctx context.Context, name string, participantIDs ...string) models.GroupChat {
	f.t.Helper()
	g, err := f.b.GroupChats.Create(ctx, models.GroupChat{Name: name, ParticipantIDs: participantIDs})
	if err != nil {
		f.t.Fatalf("create group chat %q: %v", name, err)
	}
	return g
}
