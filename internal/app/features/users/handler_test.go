package users_test

import (
	"context"
	"net/http"
	"testing"

	"github.com/dalemusser/cmsdesk/internal/app/features/users"
	"github.com/dalemusser/cmsdesk/internal/domain/models"
	"github.com/dalemusser/cmsdesk/internal/testutil"
	"go.uber.org/zap"
)

func setup(t *testing.T) (http.Handler, *testutil.Fixtures) {
	t.Helper()
	b := testutil.SetupSQLBackend(t)
	h := users.NewHandler(b.Users, zap.NewNop())
	return users.Routes(h, testutil.NewSessionManager(t)), testutil.NewFixtures(t, b)
}

func serve(h http.Handler, r *http.Request) *testutil.ResponseRecorder {
	rec := testutil.NewRecorder()
	h.ServeHTTP(rec, r)
	return rec
}

func TestCreate_DefaultsToEmployee(t *testing.T) {
	h, _ := setup(t)

	rec := serve(h, testutil.NewJSONRequest(t, http.MethodPost, "/", map[string]string{
		"name": "  Ravi   Kumar ", "email": "Ravi@Example.com",
	}))
	rec.AssertStatus(t, http.StatusCreated)

	var resp struct {
		User models.User `json:"user"`
	}
	rec.DecodeJSON(t, &resp)
	if resp.User.Role != models.RoleEmployee {
		t.Errorf("role: got %q", resp.User.Role)
	}
	if resp.User.Name != "Ravi Kumar" || resp.User.Email != "ravi@example.com" {
		t.Errorf("normalization: got %+v", resp.User)
	}
}

func TestCreate_DuplicateEmailIs400(t *testing.T) {
	h, fx := setup(t)
	fx.CreateEmployee(context.Background(), "First", "dup@example.com")

	rec := serve(h, testutil.NewJSONRequest(t, http.MethodPost, "/", map[string]string{
		"name": "Second", "email": "DUP@example.com",
	}))
	rec.AssertStatus(t, http.StatusBadRequest)
	rec.AssertContains(t, "already exists")
}

func TestCreate_Validation(t *testing.T) {
	h, _ := setup(t)
	tests := []struct {
		name string
		body map[string]string
		code int
	}{
		{"missing name", map[string]string{"email": "a@example.com"}, http.StatusBadRequest},
		{"bad email", map[string]string{"name": "A", "email": "a@"}, http.StatusBadRequest},
		{"bad role", map[string]string{"name": "A", "email": "a@example.com", "role": "owner"}, http.StatusBadRequest},
		{"anonymous admin", map[string]string{"name": "A", "email": "a@example.com", "role": "admin"}, http.StatusForbidden},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			serve(h, testutil.NewJSONRequest(t, http.MethodPost, "/", tt.body)).AssertStatus(t, tt.code)
		})
	}
}

func TestCreate_AdminMayCreateAdmin(t *testing.T) {
	h, fx := setup(t)
	admin := fx.CreateAdmin(context.Background(), "Root", "root@example.com")

	req := testutil.NewJSONRequest(t, http.MethodPost, "/", map[string]string{"name": "Ops", "email": "ops@example.com", "role": "ADMIN"})
	rec := serve(h, testutil.WithUser(req, admin))
	rec.AssertStatus(t, http.StatusCreated)
	rec.AssertContains(t, `"role":"admin"`)
}

func TestList(t *testing.T) {
	h, fx := setup(t)
	u := fx.CreateEmployee(context.Background(), "Emp", "emp@example.com")

	serve(h, testutil.NewRequest(http.MethodGet, "/")).AssertStatus(t, http.StatusUnauthorized)

	rec := serve(h, testutil.WithUser(testutil.NewRequest(http.MethodGet, "/"), u))
	rec.AssertStatus(t, http.StatusOK)
	var resp struct {
		Users []models.User `json:"users"`
	}
	rec.DecodeJSON(t, &resp)
	if len(resp.Users) != 1 || resp.Users[0].ID != u.ID {
		t.Errorf("users: got %+v", resp.Users)
	}
}

func TestUpdateRole(t *testing.T) {
	h, fx := setup(t)
	ctx := context.Background()
	admin := fx.CreateAdmin(ctx, "Root", "root@example.com")
	emp := fx.CreateEmployee(ctx, "Emp", "emp@example.com")

	body := map[string]string{"role": "admin"}

	rec := serve(h, testutil.WithUser(testutil.NewJSONRequest(t, http.MethodPatch, "/"+emp.ID+"/role", body), emp))
	rec.AssertStatus(t, http.StatusForbidden)

	rec = serve(h, testutil.WithUser(testutil.NewJSONRequest(t, http.MethodPatch, "/"+emp.ID+"/role", body), admin))
	rec.AssertStatus(t, http.StatusOK)
	rec.AssertContains(t, `"role":"admin"`)

	rec = serve(h, testutil.WithUser(testutil.NewJSONRequest(t, http.MethodPatch, "/missing/role", body), admin))
	rec.AssertStatus(t, http.StatusNotFound)

	rec = serve(h, testutil.WithUser(testutil.NewJSONRequest(t, http.MethodPatch, "/"+admin.ID+"/role", map[string]string{"role": "employee"}), admin))
	rec.AssertStatus(t, http.StatusBadRequest)

	rec = serve(h, testutil.WithUser(testutil.NewJSONRequest(t, http.MethodPatch, "/"+emp.ID+"/role", map[string]string{"role": "boss"}), admin))
	rec.AssertStatus(t, http.StatusBadRequest)
}
