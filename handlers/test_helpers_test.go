package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/pocketbase/pocketbase"
	"github.com/pocketbase/pocketbase/core"
	"github.com/shopspring/decimal"

	"begroting/config"
	"begroting/estimating"
	"begroting/testhelpers"
)

// newTestRequestEvent creates a RequestEvent suitable for handler tests.
func newTestRequestEvent(app *pocketbase.PocketBase, req *http.Request, rec *httptest.ResponseRecorder) *core.RequestEvent {
	e := &core.RequestEvent{}
	e.App = app
	e.Request = req
	e.Response = rec
	return e
}

// newTestEngine returns an engine over app with the default settings.
func newTestEngine(app *pocketbase.PocketBase) *estimating.Engine {
	return estimating.NewEngine(app, config.Default())
}

// jsonRequest builds a request with body marshalled as JSON and the given
// path values set.
func jsonRequest(t *testing.T, method, target string, body any, pathValues map[string]string) *http.Request {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encode request body: %v", err)
		}
	}
	req := httptest.NewRequest(method, target, &buf)
	req.Header.Set("Content-Type", "application/json")
	for k, v := range pathValues {
		req.SetPathValue(k, v)
	}
	return req
}

// decodeJSON unmarshals the recorded response body into dst.
func decodeJSON(t *testing.T, rec *httptest.ResponseRecorder, dst any) {
	t.Helper()

	if err := json.Unmarshal(rec.Body.Bytes(), dst); err != nil {
		t.Fatalf("response is not valid JSON: %v\nbody: %s", err, rec.Body.String())
	}
}

func dp(s string) *decimal.Decimal {
	d := decimal.RequireFromString(s)
	return &d
}

// estimateFixture is a project with one estimate "Ruwbouw" (VAT 21%), a
// chapter "21 Buitenwanden" and one line of 10 m2 at 100 material, so the
// subtotal is 1000 and the total incl. VAT 1210.
type estimateFixture struct {
	app        *pocketbase.PocketBase
	eng        *estimating.Engine
	projectID  string
	estimateID string
	chapterID  string
	lineID     string
}

func newEstimateFixture(t *testing.T) estimateFixture {
	t.Helper()

	app := testhelpers.NewTestApp(t)
	eng := newTestEngine(app)
	ctx := context.Background()
	proj := testhelpers.CreateTestProject(t, app, "Kavel 12")

	est, err := eng.CreateEstimate(ctx, estimating.EstimateDraft{ProjectID: proj.Id, Name: "Ruwbouw"})
	if err != nil {
		t.Fatalf("CreateEstimate: %v", err)
	}
	chapter, err := eng.AddChapter(ctx, est.ID, estimating.ChapterDraft{Code: "21", Name: "Buitenwanden"})
	if err != nil {
		t.Fatalf("AddChapter: %v", err)
	}
	line, err := eng.AddLine(ctx, est.ID, estimating.LineDraft{
		ChapterID:    chapter.ID,
		Description:  "Metselwerk",
		Unit:         "m2",
		Quantity:     dp("10"),
		MaterialCost: dp("100"),
	})
	if err != nil {
		t.Fatalf("AddLine: %v", err)
	}

	return estimateFixture{
		app:        app,
		eng:        eng,
		projectID:  proj.Id,
		estimateID: est.ID,
		chapterID:  chapter.ID,
		lineID:     line.ID,
	}
}

// serve runs handler against req and returns the recorder.
func (f estimateFixture) serve(t *testing.T, handler func(*core.RequestEvent) error, req *http.Request) *httptest.ResponseRecorder {
	t.Helper()

	rec := httptest.NewRecorder()
	if err := handler(newTestRequestEvent(f.app, req, rec)); err != nil {
		t.Fatalf("handler returned error: %v", err)
	}
	return rec
}

func assertDecimal(t *testing.T, what string, got decimal.Decimal, want string) {
	t.Helper()

	if !got.Equal(decimal.RequireFromString(want)) {
		t.Errorf("%s = %s, want %s", what, got, want)
	}
}
