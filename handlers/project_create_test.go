package handlers

import (
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"begroting/testhelpers"
)

func TestHandleProjectSave_ValidForm(t *testing.T) {
	app := testhelpers.NewTestApp(t)
	handler := HandleProjectSave(app)

	form := url.Values{}
	form.Set("name", "Test Project")
	form.Set("client_name", "Test Client")
	form.Set("reference_number", "REF-001")
	form.Set("status", "active")

	req := httptest.NewRequest(http.MethodPost, "/projects",
		strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	rec := httptest.NewRecorder()

	e := newTestRequestEvent(app, req, rec)

	if err := handler(e); err != nil {
		t.Fatalf("handler returned error: %v", err)
	}

	if rec.Code != http.StatusCreated {
		t.Fatalf("expected status 201, got %d: %s", rec.Code, rec.Body.String())
	}

	var got ProjectView
	decodeJSON(t, rec, &got)
	if got.ID == "" || got.Name != "Test Project" || got.ReferenceNumber != "REF-001" {
		t.Errorf("unexpected project in response: %+v", got)
	}

	records, err := app.FindRecordsByFilter("projects", "name = {:name}", "", 1, 0,
		map[string]any{"name": "Test Project"})
	if err != nil || len(records) == 0 {
		t.Error("expected project to be created in database")
	}
}

func TestHandleProjectSave_JSONDefaultsStatus(t *testing.T) {
	app := testhelpers.NewTestApp(t)
	handler := HandleProjectSave(app)

	req := jsonRequest(t, http.MethodPost, "/projects", map[string]string{"name": "  Kavel 7  "}, nil)
	rec := httptest.NewRecorder()

	if err := handler(newTestRequestEvent(app, req, rec)); err != nil {
		t.Fatalf("handler returned error: %v", err)
	}
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected status 201, got %d: %s", rec.Code, rec.Body.String())
	}

	var got ProjectView
	decodeJSON(t, rec, &got)
	if got.Name != "Kavel 7" {
		t.Errorf("expected trimmed name, got %q", got.Name)
	}
	if got.Status != "active" {
		t.Errorf("expected default status active, got %q", got.Status)
	}
}

func TestHandleProjectSave_MissingName(t *testing.T) {
	app := testhelpers.NewTestApp(t)
	handler := HandleProjectSave(app)

	form := url.Values{}
	form.Set("name", "")
	form.Set("status", "active")

	req := httptest.NewRequest(http.MethodPost, "/projects",
		strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	rec := httptest.NewRecorder()

	e := newTestRequestEvent(app, req, rec)

	if err := handler(e); err != nil {
		t.Fatalf("handler returned error: %v", err)
	}

	if rec.Code != http.StatusBadRequest {
		t.Errorf("expected status 400, got %d", rec.Code)
	}

	var body struct {
		Details map[string]string `json:"details"`
	}
	decodeJSON(t, rec, &body)
	if body.Details["name"] != "Project name is required" {
		t.Errorf("expected name error, got %v", body.Details)
	}
}

func TestHandleProjectSave_InvalidStatus(t *testing.T) {
	app := testhelpers.NewTestApp(t)
	handler := HandleProjectSave(app)

	req := jsonRequest(t, http.MethodPost, "/projects", map[string]string{"name": "X", "status": "archived"}, nil)
	rec := httptest.NewRecorder()

	if err := handler(newTestRequestEvent(app, req, rec)); err != nil {
		t.Fatalf("handler returned error: %v", err)
	}
	if rec.Code != http.StatusBadRequest {
		t.Errorf("expected status 400, got %d", rec.Code)
	}
}

func TestHandleProjectSave_DuplicateName(t *testing.T) {
	app := testhelpers.NewTestApp(t)

	testhelpers.CreateTestProject(t, app, "Existing Project")

	handler := HandleProjectSave(app)

	form := url.Values{}
	form.Set("name", "Existing Project")
	form.Set("status", "active")

	req := httptest.NewRequest(http.MethodPost, "/projects",
		strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	rec := httptest.NewRecorder()

	e := newTestRequestEvent(app, req, rec)

	if err := handler(e); err != nil {
		t.Fatalf("handler returned error: %v", err)
	}

	if rec.Code != http.StatusBadRequest {
		t.Errorf("expected status 400, got %d", rec.Code)
	}

	records, _ := app.FindRecordsByFilter("projects", "name = {:name}", "", 0, 0,
		map[string]any{"name": "Existing Project"})
	if len(records) != 1 {
		t.Errorf("expected exactly 1 project with the name, got %d", len(records))
	}
}
