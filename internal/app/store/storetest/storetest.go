// Package storetest is a conformance suite run against every store.Backend
// implementation.
package storetest

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/dalemusser/cmsdesk/internal/app/store"
	"github.com/dalemusser/cmsdesk/internal/app/system/apperr"
	"github.com/dalemusser/cmsdesk/internal/domain/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Factory returns a fresh, empty backend for one test.
type Factory func(t *testing.T) store.Backend

// Run executes the suite.
func Run(t *testing.T, newBackend Factory) {
	tests := []struct {
		name string
		fn   func(t *testing.T, b store.Backend)
	}{
		{"TaskCreateThenList", testTaskCreateThenList},
		{"TaskListNewestFirst", testTaskListNewestFirst},
		{"TaskUpdateStatusMovesFilter", testTaskUpdateStatusMovesFilter},
		{"TaskUpdateMergesOnlyPatch", testTaskUpdateMergesOnlyPatch},
		{"TaskUpdateClearsAssignee", testTaskUpdateClearsAssignee},
		{"TaskUpdateMissing", testTaskUpdateMissing},
		{"TaskDelete", testTaskDelete},
		{"TaskSearchIsCaseSensitive", testTaskSearchIsCaseSensitive},
		{"TaskDateRange", testTaskDateRange},
		{"TaskCountAndCountBy", testTaskCountAndCountBy},
		{"TaskRecent", testTaskRecent},
		{"UserCreateDefaults", testUserCreateDefaults},
		{"UserDuplicateEmail", testUserDuplicateEmail},
		{"UserLookups", testUserLookups},
		{"UserUpdateRole", testUserUpdateRole},
		{"MessagesGroupHistory", testMessagesGroupHistory},
		{"MessagesDirectHistory", testMessagesDirectHistory},
		{"GroupChats", testGroupChats},
		{"Notes", testNotes},
		{"NotesConcurrentToggle", testNotesConcurrentToggle},
		{"Ping", testPing},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.fn(t, newBackend(t))
		})
	}
}

func ctx(t *testing.T) context.Context {
	c, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	t.Cleanup(cancel)
	return c
}

func strp(s string) *string { return &s }

func draft(desc string) models.Task {
	return models.Task{
		LSA:                "KA",
		TSP:                "Airtel",
		DotAndLEA:          "Police",
		ProblemDescription: desc,
		Status:             models.StatusPending,
	}
}

func ids(tasks []models.Task) []string {
	out := make([]string, len(tasks))
	for i, t := range tasks {
		out[i] = t.ID
	}
	return out
}

func testTaskCreateThenList(t *testing.T, b store.Backend) {
	c := ctx(t)
	created, err := b.Tasks.Create(c, draft("Target not activated due to LIS failure"))
	require.NoError(t, err)
	assert.NotEmpty(t, created.ID)
	assert.False(t, created.CreatedAt.IsZero())

	all, err := b.Tasks.List(c, models.TaskFilter{})
	require.NoError(t, err)
	require.Len(t, all, 1)
	assert.Equal(t, created.ID, all[0].ID)
	assert.Equal(t, "Target not activated due to LIS failure", all[0].ProblemDescription)
	assert.Nil(t, all[0].SolutionProvided)

	got, err := b.Tasks.GetByID(c, created.ID)
	require.NoError(t, err)
	assert.True(t, created.CreatedAt.Equal(got.CreatedAt))
}

func testTaskListNewestFirst(t *testing.T, b store.Backend) {
	c := ctx(t)
	var want []string
	for _, d := range []string{"first problem here", "second problem here", "third problem here"} {
		created, err := b.Tasks.Create(c, draft(d))
		require.NoError(t, err)
		want = append([]string{created.ID}, want...)
		time.Sleep(2 * time.Millisecond)
	}
	all, err := b.Tasks.List(c, models.TaskFilter{})
	require.NoError(t, err)
	assert.Equal(t, want, ids(all))
}

func testTaskUpdateStatusMovesFilter(t *testing.T, b store.Backend) {
	c := ctx(t)
	task, err := b.Tasks.Create(c, draft("switch is down in the region"))
	require.NoError(t, err)

	_, err = b.Tasks.Update(c, task.ID, models.TaskPatch{Status: strp(models.StatusResolved)})
	require.NoError(t, err)

	resolved, err := b.Tasks.List(c, models.TaskFilter{Status: models.StatusResolved})
	require.NoError(t, err)
	assert.Contains(t, ids(resolved), task.ID)

	pending, err := b.Tasks.List(c, models.TaskFilter{Status: models.StatusPending})
	require.NoError(t, err)
	assert.NotContains(t, ids(pending), task.ID)
}

func testTaskUpdateMergesOnlyPatch(t *testing.T, b store.Backend) {
	c := ctx(t)
	task, err := b.Tasks.Create(c, draft("Target not activated due to LIS failure"))
	require.NoError(t, err)
	time.Sleep(2 * time.Millisecond)

	got, err := b.Tasks.Update(c, task.ID, models.TaskPatch{
		Status:           strp(models.StatusResolved),
		SolutionProvided: strp("Restarted LIS"),
	})
	require.NoError(t, err)
	assert.Equal(t, models.StatusResolved, got.Status)
	require.NotNil(t, got.SolutionProvided)
	assert.Equal(t, "Restarted LIS", *got.SolutionProvided)
	assert.Equal(t, task.ProblemDescription, got.ProblemDescription)
	assert.Equal(t, task.LSA, got.LSA)
	assert.Nil(t, got.Remarks)
	assert.True(t, got.UpdatedAt.After(task.UpdatedAt), "updatedAt must be bumped")
	assert.True(t, got.CreatedAt.Equal(task.CreatedAt))

	stored, err := b.Tasks.GetByID(c, task.ID)
	require.NoError(t, err)
	assert.Equal(t, got.Status, stored.Status)
	assert.Equal(t, *got.SolutionProvided, *stored.SolutionProvided)
}

func testTaskUpdateClearsAssignee(t *testing.T, b store.Backend) {
	c := ctx(t)
	task, err := b.Tasks.Create(c, draft("assignment round trip"))
	require.NoError(t, err)

	got, err := b.Tasks.Update(c, task.ID, models.TaskPatch{AssignedToID: strp("user-1")})
	require.NoError(t, err)
	require.NotNil(t, got.AssignedToID)
	assert.Equal(t, "user-1", *got.AssignedToID)

	got, err = b.Tasks.Update(c, task.ID, models.TaskPatch{AssignedToID: strp("")})
	require.NoError(t, err)
	assert.Nil(t, got.AssignedToID)

	stored, err := b.Tasks.GetByID(c, task.ID)
	require.NoError(t, err)
	assert.Nil(t, stored.AssignedToID)
}

func testTaskUpdateMissing(t *testing.T, b store.Backend) {
	_, err := b.Tasks.Update(ctx(t), "does-not-exist", models.TaskPatch{Status: strp(models.StatusResolved)})
	assert.True(t, errors.Is(err, apperr.ErrNotFound), "got %v", err)

	_, err = b.Tasks.GetByID(ctx(t), "does-not-exist")
	assert.True(t, errors.Is(err, apperr.ErrNotFound), "got %v", err)
}

func testTaskDelete(t *testing.T, b store.Backend) {
	c := ctx(t)
	task, err := b.Tasks.Create(c, draft("to be deleted shortly"))
	require.NoError(t, err)

	require.NoError(t, b.Tasks.Delete(c, task.ID))
	all, err := b.Tasks.List(c, models.TaskFilter{})
	require.NoError(t, err)
	assert.NotContains(t, ids(all), task.ID)

	err = b.Tasks.Delete(c, task.ID)
	assert.True(t, errors.Is(err, apperr.ErrNotFound), "got %v", err)
}

func testTaskSearchIsCaseSensitive(t *testing.T, b store.Backend) {
	c := ctx(t)
	a, err := b.Tasks.Create(c, draft("Router reboot needed"))
	require.NoError(t, err)
	bt, err := b.Tasks.Create(c, draft("nothing to see here"))
	require.NoError(t, err)
	_, err = b.Tasks.Update(c, bt.ID, models.TaskPatch{Remarks: strp("escalated to Router team")})
	require.NoError(t, err)
	_, err = b.Tasks.Create(c, draft("unrelated description"))
	require.NoError(t, err)

	hits, err := b.Tasks.List(c, models.TaskFilter{Search: "Router"})
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{a.ID, bt.ID}, ids(hits))

	hits, err = b.Tasks.List(c, models.TaskFilter{Search: "router"})
	require.NoError(t, err)
	assert.Empty(t, hits)

	hits, err = b.Tasks.List(c, models.TaskFilter{Search: "a.b*("})
	require.NoError(t, err)
	assert.Empty(t, hits, "search text is literal")
}

func testTaskDateRange(t *testing.T, b store.Backend) {
	c := ctx(t)
	task, err := b.Tasks.Create(c, draft("date range candidate"))
	require.NoError(t, err)

	at := task.CreatedAt
	before := at.Add(-time.Hour)
	after := at.Add(time.Hour)

	in, err := b.Tasks.List(c, models.TaskFilter{From: &at, To: &at})
	require.NoError(t, err)
	assert.Equal(t, []string{task.ID}, ids(in), "bounds are inclusive")

	out, err := b.Tasks.List(c, models.TaskFilter{To: &before})
	require.NoError(t, err)
	assert.Empty(t, out)

	out, err = b.Tasks.List(c, models.TaskFilter{From: &after})
	require.NoError(t, err)
	assert.Empty(t, out)
}

func testTaskCountAndCountBy(t *testing.T, b store.Backend) {
	c := ctx(t)
	for _, tc := range []struct{ lsa, status string }{
		{"KA", models.StatusPending},
		{"KA", models.StatusResolved},
		{"MH", models.StatusResolved},
	} {
		d := draft("counted task description")
		d.LSA = tc.lsa
		d.Status = tc.status
		_, err := b.Tasks.Create(c, d)
		require.NoError(t, err)
	}

	n, err := b.Tasks.Count(c, models.TaskFilter{})
	require.NoError(t, err)
	assert.EqualValues(t, 3, n)

	n, err = b.Tasks.Count(c, models.TaskFilter{Status: models.StatusResolved})
	require.NoError(t, err)
	assert.EqualValues(t, 2, n)

	byLSA, err := b.Tasks.CountBy(c, models.TaskFieldLSA)
	require.NoError(t, err)
	assert.Equal(t, []models.NameCount{{Name: "KA", Count: 2}, {Name: "MH", Count: 1}}, byLSA)

	_, err = b.Tasks.CountBy(c, models.TaskField("problem_description"))
	assert.Error(t, err)
}

func testTaskRecent(t *testing.T, b store.Backend) {
	c := ctx(t)
	start := time.Now().UTC().Add(-time.Minute)
	for i := 0; i < 7; i++ {
		_, err := b.Tasks.Create(c, draft("recent activity item"))
		require.NoError(t, err)
	}
	recent, err := b.Tasks.Recent(c, start, 5)
	require.NoError(t, err)
	assert.Len(t, recent, 5)

	none, err := b.Tasks.Recent(c, time.Now().UTC().Add(time.Hour), 5)
	require.NoError(t, err)
	assert.Empty(t, none)
}

func testUserCreateDefaults(t *testing.T, b store.Backend) {
	c := ctx(t)
	u, err := b.Users.Create(c, models.User{Name: "  Ada   Lovelace ", Email: " Ada@Example.COM "})
	require.NoError(t, err)
	assert.NotEmpty(t, u.ID)
	assert.Equal(t, "Ada Lovelace", u.Name)
	assert.Equal(t, "ada@example.com", u.Email)
	assert.Equal(t, models.RoleEmployee, u.Role)

	_, err = b.Users.Create(c, models.User{Name: "X", Email: "x@example.com", Role: "owner"})
	assert.True(t, errors.Is(err, apperr.ErrValidation), "got %v", err)
}

func testUserDuplicateEmail(t *testing.T, b store.Backend) {
	c := ctx(t)
	_, err := b.Users.Create(c, models.User{Name: "One", Email: "dup@example.com"})
	require.NoError(t, err)

	_, err = b.Users.Create(c, models.User{Name: "Two", Email: "DUP@example.com"})
	require.Error(t, err)
	assert.True(t, errors.Is(err, apperr.ErrDuplicate), "got %v", err)
	assert.Equal(t, "User with this email already exists", apperr.Message(err, ""))
}

func testUserLookups(t *testing.T, b store.Backend) {
	c := ctx(t)
	a, err := b.Users.Create(c, models.User{Name: "A", Email: "a@example.com", Role: models.RoleAdmin})
	require.NoError(t, err)
	bu, err := b.Users.Create(c, models.User{Name: "B", Email: "b@example.com"})
	require.NoError(t, err)

	got, err := b.Users.GetByEmail(c, "A@EXAMPLE.com")
	require.NoError(t, err)
	assert.Equal(t, a.ID, got.ID)

	many, err := b.Users.GetMany(c, []string{a.ID, bu.ID, "missing"})
	require.NoError(t, err)
	assert.Len(t, many, 2)
	assert.Equal(t, "B", many[bu.ID].Name)

	empty, err := b.Users.GetMany(c, nil)
	require.NoError(t, err)
	assert.Empty(t, empty)

	list, err := b.Users.List(c)
	require.NoError(t, err)
	assert.Len(t, list, 2)

	_, err = b.Users.GetByID(c, "missing")
	assert.True(t, errors.Is(err, apperr.ErrNotFound))
}

func testUserUpdateRole(t *testing.T, b store.Backend) {
	c := ctx(t)
	u, err := b.Users.Create(c, models.User{Name: "Emp", Email: "emp@example.com"})
	require.NoError(t, err)

	got, err := b.Users.UpdateRole(c, u.ID, "ADMIN")
	require.NoError(t, err)
	assert.Equal(t, models.RoleAdmin, got.Role)
	assert.Equal(t, u.Email, got.Email)

	_, err = b.Users.UpdateRole(c, u.ID, "root")
	assert.True(t, errors.Is(err, apperr.ErrValidation))

	_, err = b.Users.UpdateRole(c, "missing", models.RoleAdmin)
	assert.True(t, errors.Is(err, apperr.ErrNotFound))
}

func testMessagesGroupHistory(t *testing.T, b store.Backend) {
	c := ctx(t)
	g := "group-1"
	var sent []string
	for _, body := range []string{"one", "two", "three"} {
		m, err := b.Messages.Create(c, models.Message{Content: body, SenderID: "u1", GroupChatID: &g})
		require.NoError(t, err)
		sent = append(sent, m.ID)
		time.Sleep(2 * time.Millisecond)
	}
	other := "group-2"
	_, err := b.Messages.Create(c, models.Message{Content: "elsewhere", SenderID: "u1", GroupChatID: &other})
	require.NoError(t, err)

	hist, err := b.Messages.ListGroup(c, g, 10)
	require.NoError(t, err)
	require.Len(t, hist, 3)
	assert.Equal(t, sent, []string{hist[0].ID, hist[1].ID, hist[2].ID}, "oldest first")

	latest, err := b.Messages.ListGroup(c, g, 2)
	require.NoError(t, err)
	require.Len(t, latest, 2)
	assert.Equal(t, "two", latest[0].Content)
	assert.Equal(t, "three", latest[1].Content)
}

func testMessagesDirectHistory(t *testing.T, b store.Backend) {
	c := ctx(t)
	u1, u2, u3 := "u1", "u2", "u3"
	for _, m := range []models.Message{
		{Content: "hi", SenderID: u1, ReceiverID: &u2},
		{Content: "hello", SenderID: u2, ReceiverID: &u1},
		{Content: "other pair", SenderID: u1, ReceiverID: &u3},
	} {
		_, err := b.Messages.Create(c, m)
		require.NoError(t, err)
		time.Sleep(2 * time.Millisecond)
	}
	hist, err := b.Messages.ListDirect(c, u2, u1, 10)
	require.NoError(t, err)
	require.Len(t, hist, 2)
	assert.Equal(t, "hi", hist[0].Content)
	assert.Equal(t, "hello", hist[1].Content)
	assert.Nil(t, hist[0].GroupChatID)
}

func testGroupChats(t *testing.T, b store.Backend) {
	c := ctx(t)
	g, err := b.GroupChats.Create(c, models.GroupChat{Name: "Ops", ParticipantIDs: []string{"u1", "u2"}})
	require.NoError(t, err)
	_, err = b.GroupChats.Create(c, models.GroupChat{Name: "General"})
	require.NoError(t, err)

	got, err := b.GroupChats.GetByID(c, g.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{"u1", "u2"}, got.ParticipantIDs)
	assert.True(t, got.HasParticipant("u2"))

	list, err := b.GroupChats.List(c)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "General", list[0].Name)
	assert.NotNil(t, list[0].ParticipantIDs)

	_, err = b.GroupChats.GetByID(c, "missing")
	assert.True(t, errors.Is(err, apperr.ErrNotFound))
}

func testNotes(t *testing.T, b store.Backend) {
	c := ctx(t)
	n1, err := b.Notes.Create(c, "call the carrier")
	require.NoError(t, err)
	time.Sleep(2 * time.Millisecond)
	n2, err := b.Notes.Create(c, "file the report")
	require.NoError(t, err)
	assert.False(t, n1.Checked)

	list, err := b.Notes.List(c)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, n2.ID, list[0].ID, "newest first")

	toggled, err := b.Notes.Toggle(c, n1.ID)
	require.NoError(t, err)
	assert.True(t, toggled.Checked)
	toggled, err = b.Notes.Toggle(c, n1.ID)
	require.NoError(t, err)
	assert.False(t, toggled.Checked)

	require.NoError(t, b.Notes.Delete(c, n1.ID))
	assert.True(t, errors.Is(b.Notes.Delete(c, n1.ID), apperr.ErrNotFound))
	_, err = b.Notes.Toggle(c, n1.ID)
	assert.True(t, errors.Is(err, apperr.ErrNotFound))
}

func testNotesConcurrentToggle(t *testing.T, b store.Backend) {
	c := ctx(t)
	n, err := b.Notes.Create(c, "flip me")
	require.NoError(t, err)

	const flips = 6
	var wg sync.WaitGroup
	errs := make([]error, flips)
	for i := 0; i < flips; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = b.Notes.Toggle(c, n.ID)
		}(i)
	}
	wg.Wait()
	for _, err := range errs {
		require.NoError(t, err)
	}

	list, err := b.Notes.List(c)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.False(t, list[0].Checked, "an even number of flips restores the original state")
}

func testPing(t *testing.T, b store.Backend) {
	assert.NoError(t, b.Ping(ctx(t)))
	assert.NotEmpty(t, b.Driver)
}
