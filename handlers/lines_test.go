package handlers

import (
	"context"
	"net/http"
	"testing"

	"begroting/estimating"
	"begroting/testhelpers"
)

func TestHandleLineAdd(t *testing.T) {
	f := newEstimateFixture(t)

	req := jsonRequest(t, http.MethodPost, "/estimates/"+f.estimateID+"/lines", map[string]any{
		"chapter_id":     f.chapterID,
		"description":    "Steigerwerk",
		"unit":           "m2",
		"quantity":       40,
		"labor_hours":    "0.1",
		"equipment_cost": 6,
	}, map[string]string{"id": f.estimateID})
	rec := f.serve(t, HandleLineAdd(f.eng), req)
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body.String())
	}

	var got ChangeView
	decodeJSON(t, rec, &got)
	lines := got.Tree.Chapters[0].Lines
	if len(lines) != 2 || lines[1].ID != got.ID {
		t.Fatalf("expected the new line last in the chapter, got %+v", lines)
	}
	// 0.1 h at the default rate of 45 plus 6 equipment
	assertDecimal(t, "labor rate", lines[1].LaborRate, "45")
	assertDecimal(t, "unit price", lines[1].UnitPrice, "10.5")
	assertDecimal(t, "total price", lines[1].TotalPrice, "420")
	assertDecimal(t, "chapter subtotal", got.Tree.Chapters[0].Subtotal, "1420")
	assertDecimal(t, "estimate equipment", got.Tree.Estimate.Equipment, "240")
	assertDecimal(t, "total incl. vat", got.Tree.Estimate.TotalInclVAT, "1718.2")
}

func TestHandleLineAdd_FromLibrary(t *testing.T) {
	f := newEstimateFixture(t)
	item := testhelpers.CreateTestLibraryItem(t, f.app, "21.30", "Lateien plaatsen", 0.5, 0, 20)

	req := jsonRequest(t, http.MethodPost, "/estimates/"+f.estimateID+"/lines", map[string]any{
		"library_item_id": item.Id,
		"quantity":        2,
	}, map[string]string{"id": f.estimateID})
	rec := f.serve(t, HandleLineAdd(f.eng), req)
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body.String())
	}

	var got ChangeView
	decodeJSON(t, rec, &got)
	if len(got.Tree.Unassigned) != 1 {
		t.Fatalf("expected 1 unassigned line, got %d", len(got.Tree.Unassigned))
	}
	line := got.Tree.Unassigned[0]
	if line.Description != "Lateien plaatsen" || line.Code != "21.30" || line.LibraryItemID != item.Id {
		t.Errorf("library values not copied: %+v", line)
	}
	assertDecimal(t, "unit price", line.UnitPrice, "42.5")
	assertDecimal(t, "total price", line.TotalPrice, "85")
}

func TestHandleLineAdd_Invalid(t *testing.T) {
	f := newEstimateFixture(t)
	handler := HandleLineAdd(f.eng)

	tests := []struct {
		name string
		body map[string]any
		want int
	}{
		{"missing description", map[string]any{"unit": "m2"}, http.StatusBadRequest},
		{"zero quantity", map[string]any{"description": "X", "quantity": 0}, http.StatusBadRequest},
		{"negative material", map[string]any{"description": "X", "material_cost": -5}, http.StatusBadRequest},
		{"unknown line type", map[string]any{"description": "X", "line_type": "optional"}, http.StatusBadRequest},
		{"unknown chapter", map[string]any{"description": "X", "chapter_id": "missing"}, http.StatusNotFound},
		{"unknown library item", map[string]any{"library_item_id": "missing"}, http.StatusNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := jsonRequest(t, http.MethodPost, "/", tt.body, map[string]string{"id": f.estimateID})
			rec := f.serve(t, handler, req)
			if rec.Code != tt.want {
				t.Errorf("expected %d, got %d: %s", tt.want, rec.Code, rec.Body.String())
			}
		})
	}

	est, err := f.eng.Estimate(f.estimateID)
	if err != nil {
		t.Fatalf("Estimate: %v", err)
	}
	assertDecimal(t, "subtotal after failed adds", est.Costs().Subtotal, "1000")
}

func TestHandleLineUpdate(t *testing.T) {
	f := newEstimateFixture(t)
	handler := HandleLineUpdate(f.eng)
	path := map[string]string{"lineId": f.lineID}

	t.Run("quantity reprices", func(t *testing.T) {
		req := jsonRequest(t, http.MethodPatch, "/", map[string]any{"quantity": 12}, path)
		rec := f.serve(t, handler, req)
		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
		}
		var got ChangeView
		decodeJSON(t, rec, &got)
		assertDecimal(t, "line total", got.Tree.Chapters[0].Lines[0].TotalPrice, "1200")
		assertDecimal(t, "total incl. vat", got.Tree.Estimate.TotalInclVAT, "1452")
	})

	t.Run("negative rejected", func(t *testing.T) {
		req := jsonRequest(t, http.MethodPatch, "/", map[string]any{"labor_hours": -1}, path)
		rec := f.serve(t, handler, req)
		if rec.Code != http.StatusBadRequest {
			t.Errorf("expected 400, got %d", rec.Code)
		}
	})

	t.Run("unassign through chapter_id", func(t *testing.T) {
		req := jsonRequest(t, http.MethodPatch, "/", map[string]any{"chapter_id": ""}, path)
		rec := f.serve(t, handler, req)
		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
		}
		var got ChangeView
		decodeJSON(t, rec, &got)
		if len(got.Tree.Unassigned) != 1 || len(got.Tree.Chapters[0].Lines) != 0 {
			t.Fatalf("expected the line to be unassigned, got %+v", got.Tree)
		}
		assertDecimal(t, "chapter subtotal", got.Tree.Chapters[0].Subtotal, "0")
		assertDecimal(t, "estimate subtotal", got.Tree.Estimate.Subtotal, "1200")
	})

	t.Run("not found", func(t *testing.T) {
		req := jsonRequest(t, http.MethodPatch, "/", map[string]any{"quantity": 1}, map[string]string{"lineId": "missing"})
		rec := f.serve(t, handler, req)
		if rec.Code != http.StatusNotFound {
			t.Errorf("expected 404, got %d", rec.Code)
		}
	})
}

func TestHandleLineUpdate_CostsAndChapterTogether(t *testing.T) {
	t.Run("unknown chapter keeps the cost edit out", func(t *testing.T) {
		f := newEstimateFixture(t)
		req := jsonRequest(t, http.MethodPatch, "/",
			map[string]any{"material_cost": 150, "chapter_id": "missing"},
			map[string]string{"lineId": f.lineID})
		rec := f.serve(t, HandleLineUpdate(f.eng), req)
		if rec.Code != http.StatusNotFound {
			t.Fatalf("expected 404, got %d: %s", rec.Code, rec.Body.String())
		}

		tree, err := f.eng.Tree(f.estimateID)
		if err != nil {
			t.Fatalf("Tree: %v", err)
		}
		line := tree.Line(f.lineID)
		if line.ChapterID != f.chapterID {
			t.Errorf("line moved to %q", line.ChapterID)
		}
		assertDecimal(t, "material cost", line.MaterialCost, "100")
		assertDecimal(t, "estimate subtotal", tree.Estimate.Costs().Subtotal, "1000")
	})

	t.Run("both applied", func(t *testing.T) {
		f := newEstimateFixture(t)
		req := jsonRequest(t, http.MethodPatch, "/",
			map[string]any{"material_cost": 150, "chapter_id": ""},
			map[string]string{"lineId": f.lineID})
		rec := f.serve(t, HandleLineUpdate(f.eng), req)
		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
		}
		var got ChangeView
		decodeJSON(t, rec, &got)
		if len(got.Tree.Unassigned) != 1 {
			t.Fatalf("expected the line to be unassigned, got %+v", got.Tree)
		}
		assertDecimal(t, "line total", got.Tree.Unassigned[0].TotalPrice, "1500")
		assertDecimal(t, "chapter subtotal", got.Tree.Chapters[0].Subtotal, "0")
		assertDecimal(t, "estimate subtotal", got.Tree.Estimate.Subtotal, "1500")
	})
}

func TestHandleLineMove(t *testing.T) {
	f := newEstimateFixture(t)
	target, err := f.eng.AddChapter(context.Background(), f.estimateID, estimating.ChapterDraft{Code: "22", Name: "Binnenwanden"})
	if err != nil {
		t.Fatalf("AddChapter: %v", err)
	}

	req := jsonRequest(t, http.MethodPost, "/", map[string]any{"chapter_id": target.ID}, map[string]string{"lineId": f.lineID})
	rec := f.serve(t, HandleLineMove(f.eng), req)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}

	var got ChangeView
	decodeJSON(t, rec, &got)
	if len(got.Tree.Chapters) != 2 {
		t.Fatalf("expected 2 chapters, got %d", len(got.Tree.Chapters))
	}
	for _, c := range got.Tree.Chapters {
		switch c.ID {
		case f.chapterID:
			assertDecimal(t, "old chapter", c.Subtotal, "0")
		case target.ID:
			assertDecimal(t, "new chapter", c.Subtotal, "1000")
		}
	}
	assertDecimal(t, "estimate subtotal", got.Tree.Estimate.Subtotal, "1000")
}

func TestHandleLineDelete(t *testing.T) {
	f := newEstimateFixture(t)

	req := jsonRequest(t, http.MethodDelete, "/", nil, map[string]string{"lineId": f.lineID})
	rec := f.serve(t, HandleLineDelete(f.eng), req)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}

	var got ChangeView
	decodeJSON(t, rec, &got)
	if len(got.Tree.Chapters[0].Lines) != 0 {
		t.Error("expected the line to be gone")
	}
	assertDecimal(t, "estimate subtotal", got.Tree.Estimate.Subtotal, "0")

	rec = f.serve(t, HandleLineDelete(f.eng), jsonRequest(t, http.MethodDelete, "/", nil, map[string]string{"lineId": f.lineID}))
	if rec.Code != http.StatusNotFound {
		t.Errorf("expected 404 on second delete, got %d", rec.Code)
	}
}

func TestHandleLinePriceSync(t *testing.T) {
	f := newEstimateFixture(t)
	item := testhelpers.CreateTestLibraryItem(t, f.app, "21.30", "Lateien plaatsen", 0.5, 0, 20)
	added, err := f.eng.AddLineFromLibrary(context.Background(), f.estimateID, item.Id, estimating.LineDraft{ChapterID: f.chapterID, Quantity: dp("2")})
	if err != nil {
		t.Fatalf("AddLineFromLibrary: %v", err)
	}
	handler := HandleLinePriceSync(f.eng, estimating.NewLibraryPriceSource(f.app))

	t.Run("up to date", func(t *testing.T) {
		rec := f.serve(t, handler, jsonRequest(t, http.MethodPost, "/", nil, map[string]string{"lineId": added.ID}))
		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
		}
		var got PriceSyncView
		decodeJSON(t, rec, &got)
		if got.Updated || got.Tree != nil {
			t.Errorf("expected no update, got %+v", got)
		}
	})

	t.Run("library price changed", func(t *testing.T) {
		item.Set("material_cost", "30")
		if err := f.app.Save(item); err != nil {
			t.Fatalf("save library item: %v", err)
		}

		rec := f.serve(t, handler, jsonRequest(t, http.MethodPost, "/", nil, map[string]string{"lineId": added.ID}))
		var got PriceSyncView
		decodeJSON(t, rec, &got)
		if !got.Updated || got.Price == nil || got.Tree == nil {
			t.Fatalf("expected an update, got %+v", got)
		}
		assertDecimal(t, "new unit price", got.Price.UnitPrice, "52.5")
		assertDecimal(t, "chapter subtotal", got.Tree.Chapters[0].Subtotal, "1105")
	})

	t.Run("line without library item", func(t *testing.T) {
		rec := f.serve(t, handler, jsonRequest(t, http.MethodPost, "/", nil, map[string]string{"lineId": f.lineID}))
		var got PriceSyncView
		decodeJSON(t, rec, &got)
		if got.Updated {
			t.Error("a line without library item has nothing to sync")
		}
	})

	t.Run("unknown line", func(t *testing.T) {
		rec := f.serve(t, handler, jsonRequest(t, http.MethodPost, "/", nil, map[string]string{"lineId": "missing"}))
		if rec.Code != http.StatusNotFound {
			t.Errorf("expected 404, got %d", rec.Code)
		}
	})
}
