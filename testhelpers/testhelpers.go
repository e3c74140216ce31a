// Package testhelpers provides utilities for testing PocketBase-based applications.
package testhelpers

import (
	"strings"
	"testing"

	"github.com/pocketbase/pocketbase"
	"github.com/pocketbase/pocketbase/core"
	"github.com/shopspring/decimal"

	"begroting/collections"
)

// decimalString formats a test amount the way decimal fields are stored.
func decimalString(v float64) string {
	return decimal.NewFromFloat(v).String()
}

// NewTestApp creates a PocketBase instance backed by a temporary directory.
// It bootstraps the app and runs collections.Setup to create all tables.
// The temporary directory is cleaned up automatically when the test finishes.
func NewTestApp(t *testing.T) *pocketbase.PocketBase {
	t.Helper()

	tmpDir := t.TempDir()
	app := pocketbase.NewWithConfig(pocketbase.Config{
		DefaultDataDir: tmpDir,
	})

	if err := app.Bootstrap(); err != nil {
		t.Fatalf("failed to bootstrap test app: %v", err)
	}

	collections.Setup(app)

	return app
}

// CreateTestProject creates a project record with the given name and returns it.
func CreateTestProject(t *testing.T, app *pocketbase.PocketBase, name string) *core.Record {
	t.Helper()

	col, err := app.FindCollectionByNameOrId("projects")
	if err != nil {
		t.Fatalf("failed to find projects collection: %v", err)
	}

	record := core.NewRecord(col)
	record.Set("name", name)
	record.Set("status", "active")

	if err := app.Save(record); err != nil {
		t.Fatalf("failed to save test project: %v", err)
	}

	return record
}

// CreateTestLibraryItem creates a library item with the given per-unit
// components and returns it.
func CreateTestLibraryItem(t *testing.T, app *pocketbase.PocketBase, code, description string, laborHours, laborRate, material float64) *core.Record {
	t.Helper()

	col, err := app.FindCollectionByNameOrId("library_items")
	if err != nil {
		t.Fatalf("failed to find library_items collection: %v", err)
	}

	record := core.NewRecord(col)
	record.Set("code", code)
	record.Set("description", description)
	record.Set("unit", "m2")
	record.Set("category", "Test")
	record.Set("labor_hours", decimalString(laborHours))
	record.Set("labor_rate", decimalString(laborRate))
	record.Set("material_cost", decimalString(material))

	if err := app.Save(record); err != nil {
		t.Fatalf("failed to save test library item: %v", err)
	}

	return record
}

// CreateTestEstimate stores an estimate row directly, bypassing the engine.
// Totals are left at zero; callers that need them recompute.
func CreateTestEstimate(t *testing.T, app *pocketbase.PocketBase, projectID, name string, version int) *core.Record {
	t.Helper()

	col, err := app.FindCollectionByNameOrId("estimates")
	if err != nil {
		t.Fatalf("failed to find estimates collection: %v", err)
	}

	record := core.NewRecord(col)
	record.Set("project", projectID)
	record.Set("name", name)
	record.Set("version", version)
	record.Set("status", "draft")
	record.Set("vat_percent", "21")

	if err := app.Save(record); err != nil {
		t.Fatalf("failed to save test estimate: %v", err)
	}

	return record
}

// CreateTestChapter stores a chapter row directly.
func CreateTestChapter(t *testing.T, app *pocketbase.PocketBase, estimateID, code, name string) *core.Record {
	t.Helper()

	col, err := app.FindCollectionByNameOrId("estimate_chapters")
	if err != nil {
		t.Fatalf("failed to find estimate_chapters collection: %v", err)
	}

	record := core.NewRecord(col)
	record.Set("estimate", estimateID)
	record.Set("code", code)
	record.Set("name", name)
	record.Set("sort_order", 1)

	if err := app.Save(record); err != nil {
		t.Fatalf("failed to save test chapter: %v", err)
	}

	return record
}

// CreateTestLine stores a line row directly with the given inputs and no
// derived prices, the way rows written by an older version look.
func CreateTestLine(t *testing.T, app *pocketbase.PocketBase, estimateID, chapterID, description string, qty, laborHours, laborRate, material float64) *core.Record {
	t.Helper()

	col, err := app.FindCollectionByNameOrId("estimate_lines")
	if err != nil {
		t.Fatalf("failed to find estimate_lines collection: %v", err)
	}

	record := core.NewRecord(col)
	record.Set("estimate", estimateID)
	record.Set("chapter", chapterID)
	record.Set("description", description)
	record.Set("unit", "st")
	record.Set("line_type", "normal")
	record.Set("sort_order", 1)
	record.Set("quantity", decimalString(qty))
	record.Set("labor_hours", decimalString(laborHours))
	record.Set("labor_rate", decimalString(laborRate))
	record.Set("material_cost", decimalString(material))

	if err := app.Save(record); err != nil {
		t.Fatalf("failed to save test line: %v", err)
	}

	return record
}

// AssertHTMLContains checks that body contains all specified fragments.
func AssertHTMLContains(t *testing.T, body string, fragments ...string) {
	t.Helper()

	for _, frag := range fragments {
		if !strings.Contains(body, frag) {
			t.Errorf("expected HTML to contain %q, but it was not found\nbody (first 500 chars): %s",
				frag, truncate(body, 500))
		}
	}
}

// AssertHXRedirect checks that the HX-Redirect header value matches the expected URL.
func AssertHXRedirect(t *testing.T, headerVal, expectedURL string) {
	t.Helper()

	if headerVal != expectedURL {
		t.Errorf("expected HX-Redirect %q, got %q", expectedURL, headerVal)
	}
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
