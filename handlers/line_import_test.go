package handlers

import (
	"bytes"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/xuri/excelize/v2"

	"begroting/services"
)

// multipartRequest posts content as the "file" form field.
func multipartRequest(t *testing.T, target, fileName, content string, pathValues map[string]string) *http.Request {
	t.Helper()

	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	part, err := w.CreateFormFile("file", fileName)
	if err != nil {
		t.Fatalf("create form file: %v", err)
	}
	if _, err := part.Write([]byte(content)); err != nil {
		t.Fatalf("write form file: %v", err)
	}
	if err := w.Close(); err != nil {
		t.Fatalf("close multipart writer: %v", err)
	}

	req := httptest.NewRequest(http.MethodPost, target, &buf)
	req.Header.Set("Content-Type", w.FormDataContentType())
	for k, v := range pathValues {
		req.SetPathValue(k, v)
	}
	return req
}

const importCSV = "Hoofdstuk;Omschrijving;Aantal;Eenheid;Materiaal\n" +
	"21;Lateien;4;st;37,50\n" +
	";Bouwplaatsinrichting;1;post;2500\n"

func TestHandleLineImport_CSV(t *testing.T) {
	f := newEstimateFixture(t)

	req := multipartRequest(t, "/estimates/"+f.estimateID+"/lines/import", "posten.csv", importCSV,
		map[string]string{"id": f.estimateID})
	rec := f.serve(t, HandleLineImport(f.eng), req)
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body.String())
	}

	var got ImportView
	decodeJSON(t, rec, &got)
	if got.Imported != 2 || got.Tree == nil {
		t.Fatalf("expected 2 imported lines with a tree, got %+v", got)
	}
	chapter := got.Tree.Chapters[0]
	if len(chapter.Lines) != 2 {
		t.Fatalf("expected 2 lines in chapter 21, got %d", len(chapter.Lines))
	}
	assertDecimal(t, "chapter subtotal", chapter.Subtotal, "1150")
	if len(got.Tree.Unassigned) != 1 {
		t.Errorf("expected 1 unassigned line, got %d", len(got.Tree.Unassigned))
	}
	assertDecimal(t, "estimate subtotal", got.Tree.Estimate.Subtotal, "3650")
}

func TestHandleLineImport_DryRun(t *testing.T) {
	f := newEstimateFixture(t)

	req := multipartRequest(t, "/estimates/"+f.estimateID+"/lines/import?dry_run=true", "posten.csv", importCSV,
		map[string]string{"id": f.estimateID})
	rec := f.serve(t, HandleLineImport(f.eng), req)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}

	var got ImportView
	decodeJSON(t, rec, &got)
	if got.ValidRows != 2 || got.Imported != 0 || got.Tree != nil {
		t.Errorf("expected a validated but not stored file, got %+v", got)
	}

	tree, err := f.eng.Tree(f.estimateID)
	if err != nil {
		t.Fatalf("Tree: %v", err)
	}
	if len(tree.Lines) != 1 {
		t.Errorf("dry run must not store lines, got %d", len(tree.Lines))
	}
}

func TestHandleLineImport_RowErrors(t *testing.T) {
	f := newEstimateFixture(t)
	csv := "Omschrijving;Aantal;Eenheid;Materiaal\n" +
		"Lateien;4;st;37,50\n" +
		";1;post;10\n" +
		"Kozijnen;twee;st;300\n"

	req := multipartRequest(t, "/", "posten.csv", csv, map[string]string{"id": f.estimateID})
	rec := f.serve(t, HandleLineImport(f.eng), req)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d: %s", rec.Code, rec.Body.String())
	}

	var got ImportView
	decodeJSON(t, rec, &got)
	if got.ErrorRows != 2 {
		t.Errorf("expected 2 rows with errors, got %d: %+v", got.ErrorRows, got.Errors)
	}
	rows := map[int]bool{}
	for _, e := range got.Errors {
		rows[e.Row] = true
	}
	if !rows[3] || !rows[4] {
		t.Errorf("expected errors on rows 3 and 4, got %+v", got.Errors)
	}
}

func TestHandleLineImport_UnknownChapterRejectsAll(t *testing.T) {
	f := newEstimateFixture(t)
	csv := "Hoofdstuk;Omschrijving;Eenheid;Materiaal\n" +
		"21;Lateien;st;37,50\n" +
		"99;Dakgoten;m1;45\n"

	req := multipartRequest(t, "/", "posten.csv", csv, map[string]string{"id": f.estimateID})
	rec := f.serve(t, HandleLineImport(f.eng), req)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d: %s", rec.Code, rec.Body.String())
	}

	var body struct {
		Details []services.ValidationError `json:"details"`
	}
	decodeJSON(t, rec, &body)
	if len(body.Details) != 1 || body.Details[0].Row != 3 || !strings.Contains(body.Details[0].Message, "99") {
		t.Errorf("expected the unknown chapter on row 3, got %+v", body.Details)
	}

	tree, err := f.eng.Tree(f.estimateID)
	if err != nil {
		t.Fatalf("Tree: %v", err)
	}
	if len(tree.Lines) != 1 {
		t.Errorf("a rejected import must not store any line, got %d", len(tree.Lines))
	}
}

func TestHandleLineImport_NoFile(t *testing.T) {
	f := newEstimateFixture(t)

	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(""))
	req.Header.Set("Content-Type", "multipart/form-data; boundary=x")
	req.SetPathValue("id", f.estimateID)
	rec := f.serve(t, HandleLineImport(f.eng), req)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("expected 400, got %d", rec.Code)
	}
}

func TestHandleLineTemplateDownload(t *testing.T) {
	f := newEstimateFixture(t)

	rec := f.serve(t, HandleLineTemplateDownload(), httptest.NewRequest(http.MethodGet, "/lines/template", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if ct := rec.Header().Get("Content-Type"); ct != xlsxContentType {
		t.Errorf("unexpected content type %q", ct)
	}
	if !strings.Contains(rec.Header().Get("Content-Disposition"), "Posten_Template_") {
		t.Errorf("unexpected disposition %q", rec.Header().Get("Content-Disposition"))
	}

	file, err := excelize.OpenReader(bytes.NewReader(rec.Body.Bytes()))
	if err != nil {
		t.Fatalf("template is not a valid xlsx: %v", err)
	}
	defer file.Close()
}

func TestHandleLineImportErrorReport(t *testing.T) {
	f := newEstimateFixture(t)

	req := jsonRequest(t, http.MethodPost, "/lines/import/errors", []services.ValidationError{
		{Row: 3, Field: "Omschrijving", Message: "is required"},
	}, nil)
	rec := f.serve(t, HandleLineImportErrorReport(), req)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	if rec.Body.Len() == 0 {
		t.Error("expected an xlsx body")
	}

	rec = f.serve(t, HandleLineImportErrorReport(), httptest.NewRequest(http.MethodPost, "/", strings.NewReader("{")))
	if rec.Code != http.StatusBadRequest {
		t.Errorf("expected 400 for invalid JSON, got %d", rec.Code)
	}
}
