package notes_test

import (
	"net/http"
	"testing"

	"github.com/dalemusser/cmsdesk/internal/app/features/notes"
	"github.com/dalemusser/cmsdesk/internal/domain/models"
	"github.com/dalemusser/cmsdesk/internal/testutil"
	"go.uber.org/zap"
)

func TestNotesLifecycle(t *testing.T) {
	b := testutil.SetupSQLBackend(t)
	sm := testutil.NewSessionManager(t)
	router := notes.Routes(notes.NewHandler(b.Notes, zap.NewNop()), sm)
	user := models.User{ID: "u1", Name: "Any", Role: models.RoleEmployee}

	serve := func(r *http.Request) *testutil.ResponseRecorder {
		rec := testutil.NewRecorder()
		router.ServeHTTP(rec, testutil.WithUser(r, user))
		return rec
	}

	rec := serve(testutil.NewJSONRequest(t, http.MethodPost, "/", map[string]string{"message": "Call <b>Airtel</b> NOC"}))
	rec.AssertStatus(t, http.StatusCreated)
	var n models.TaskNote
	rec.DecodeJSON(t, &n)
	if n.Message != "Call Airtel NOC" || n.Checked {
		t.Fatalf("created: %+v", n)
	}

	serve(testutil.NewJSONRequest(t, http.MethodPost, "/", map[string]string{"message": "  "})).
		AssertStatus(t, http.StatusBadRequest)

	rec = serve(testutil.NewRequest(http.MethodPost, "/"+n.ID+"/toggle"))
	rec.AssertStatus(t, http.StatusOK)
	rec.AssertContains(t, `"checked":true`)

	rec = serve(testutil.NewRequest(http.MethodGet, "/"))
	rec.AssertStatus(t, http.StatusOK)
	var list []models.TaskNote
	rec.DecodeJSON(t, &list)
	if len(list) != 1 || !list[0].Checked {
		t.Fatalf("list: %+v", list)
	}

	serve(testutil.NewRequest(http.MethodDelete, "/"+n.ID)).AssertStatus(t, http.StatusOK)
	serve(testutil.NewRequest(http.MethodDelete, "/"+n.ID)).AssertStatus(t, http.StatusNotFound)
	serve(testutil.NewRequest(http.MethodPost, "/"+n.ID+"/toggle")).AssertStatus(t, http.StatusNotFound)

	rec = testutil.NewRecorder()
	router.ServeHTTP(rec, testutil.NewRequest(http.MethodGet, "/"))
	rec.AssertStatus(t, http.StatusUnauthorized)
}
