package handlers

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"begroting/testhelpers"
)

func TestHandleProjectDelete_Success(t *testing.T) {
	app := testhelpers.NewTestApp(t)
	proj := testhelpers.CreateTestProject(t, app, "Delete Me")

	handler := HandleProjectDelete(app)

	req := httptest.NewRequest(http.MethodDelete, "/projects/"+proj.Id, nil)
	req.SetPathValue("id", proj.Id)
	rec := httptest.NewRecorder()

	e := newTestRequestEvent(app, req, rec)

	if err := handler(e); err != nil {
		t.Fatalf("handler returned error: %v", err)
	}

	if rec.Code != http.StatusNoContent {
		t.Errorf("expected 204, got %d", rec.Code)
	}

	if _, err := app.FindRecordById("projects", proj.Id); err == nil {
		t.Error("expected project to be deleted")
	}
}

func TestHandleProjectDelete_NotFound(t *testing.T) {
	app := testhelpers.NewTestApp(t)

	handler := HandleProjectDelete(app)

	req := httptest.NewRequest(http.MethodDelete, "/projects/nonexistent", nil)
	req.SetPathValue("id", "nonexistent")
	rec := httptest.NewRecorder()

	e := newTestRequestEvent(app, req, rec)

	if err := handler(e); err != nil {
		t.Fatalf("handler returned error: %v", err)
	}

	if rec.Code != http.StatusNotFound {
		t.Errorf("expected 404, got %d", rec.Code)
	}
}

func TestHandleProjectDelete_RefusesWithEstimates(t *testing.T) {
	app := testhelpers.NewTestApp(t)
	proj := testhelpers.CreateTestProject(t, app, "Has Estimates")
	est := testhelpers.CreateTestEstimate(t, app, proj.Id, "Begroting", 1)

	handler := HandleProjectDelete(app)

	req := httptest.NewRequest(http.MethodDelete, "/projects/"+proj.Id, nil)
	req.SetPathValue("id", proj.Id)
	rec := httptest.NewRecorder()

	if err := handler(newTestRequestEvent(app, req, rec)); err != nil {
		t.Fatalf("handler returned error: %v", err)
	}

	if rec.Code != http.StatusConflict {
		t.Errorf("expected 409, got %d", rec.Code)
	}
	if _, err := app.FindRecordById("projects", proj.Id); err != nil {
		t.Error("project should still exist")
	}
	if _, err := app.FindRecordById("estimates", est.Id); err != nil {
		t.Error("estimate should still exist")
	}
}
