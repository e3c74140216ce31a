package services

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/xuri/excelize/v2"

	"begroting/config"
	"begroting/estimating"
	"begroting/testhelpers"
)

func TestParseCSV_Valid(t *testing.T) {
	input := "Omschrijving,Eenheid,Aantal\nMetselwerk,m2,10\nStucwerk,m2,4\n"
	headers, rows, err := parseCSV(strings.NewReader(input))
	if err != nil {
		t.Fatalf("parseCSV() error = %v", err)
	}
	if len(headers) != 3 {
		t.Errorf("expected 3 headers, got %d", len(headers))
	}
	if len(rows) != 2 {
		t.Errorf("expected 2 data rows, got %d", len(rows))
	}
}

func TestParseCSV_Semicolon(t *testing.T) {
	input := "\xef\xbb\xbfOmschrijving;Eenheid;Aantal\nMetselwerk;m2;10,5\n"
	headers, rows, err := parseCSV(strings.NewReader(input))
	if err != nil {
		t.Fatalf("parseCSV() error = %v", err)
	}
	if len(headers) != 3 || headers[0] != "Omschrijving" {
		t.Errorf("unexpected headers %q", headers)
	}
	if rows[0][2] != "10,5" {
		t.Errorf("expected decimal comma kept in cell, got %q", rows[0][2])
	}
}

func TestParseCSV_HeaderOnly(t *testing.T) {
	_, _, err := parseCSV(strings.NewReader("Omschrijving,Eenheid\n"))
	if err == nil {
		t.Fatal("expected error for header-only file")
	}
	if !strings.Contains(err.Error(), "at least one data row") {
		t.Errorf("unexpected error: %v", err)
	}
}

func TestParseCSV_Empty(t *testing.T) {
	if _, _, err := parseCSV(strings.NewReader("")); err == nil {
		t.Error("expected error for empty file")
	}
}

func TestMapHeadersToFields(t *testing.T) {
	fields := LineTemplateFields()

	t.Run("labels", func(t *testing.T) {
		mapped, unrecognized := mapHeadersToFields([]string{"Omschrijving *", "Eenheid *", "Aantal"}, fields)
		if len(unrecognized) != 0 {
			t.Errorf("expected no unrecognized, got %v", unrecognized)
		}
		if mapped[0] != "description" || mapped[1] != "unit" || mapped[2] != "quantity" {
			t.Errorf("unexpected mapping: %v", mapped)
		}
	})

	t.Run("keys and case", func(t *testing.T) {
		mapped, _ := mapHeadersToFields([]string{"DESCRIPTION", " material_cost ", "chapter_code"}, fields)
		if mapped[0] != "description" || mapped[1] != "material_cost" || mapped[2] != "chapter_code" {
			t.Errorf("unexpected mapping: %v", mapped)
		}
	})

	t.Run("unrecognized columns", func(t *testing.T) {
		mapped, unrecognized := mapHeadersToFields([]string{"Omschrijving", "BTW", "Eenheid"}, fields)
		if len(unrecognized) != 1 || unrecognized[0] != "BTW" {
			t.Errorf("expected ['BTW'], got %v", unrecognized)
		}
		if mapped[1] != "" {
			t.Errorf("expected empty for unrecognized column, got %q", mapped[1])
		}
	})
}

func TestParseDutchDecimal(t *testing.T) {
	tests := []struct {
		input   string
		want    string
		wantErr bool
	}{
		{"10", "10", false},
		{"2,5", "2.5", false},
		{"2.5", "2.5", false},
		{"1.234,56", "1234.56", false},
		{"€ 18,50", "18.5", false},
		{"1 000", "1000", false},
		{"abc", "", true},
		{"", "", true},
	}
	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := ParseDutchDecimal(tt.input)
			if tt.wantErr {
				if err == nil {
					t.Errorf("ParseDutchDecimal(%q) expected error, got %s", tt.input, got)
				}
				return
			}
			if err != nil {
				t.Fatalf("ParseDutchDecimal(%q) error = %v", tt.input, err)
			}
			if !got.Equal(dec(tt.want)) {
				t.Errorf("ParseDutchDecimal(%q) = %s, want %s", tt.input, got, tt.want)
			}
		})
	}
}

func TestParseLineFile_CSV(t *testing.T) {
	input := "Hoofdstuk;Code;Omschrijving;Aantal;Eenheid;Arbeid uren;Materiaal;Soort\n" +
		"21;21.01;Metselwerk;42,5;m2;0,8;18,50;normal\n" +
		";;Stelpost keuken;;post;;5.000,00;provisional\n" +
		";;;;;;;\n"

	res, err := ParseLineFile([]byte(input), "posten.csv")
	if err != nil {
		t.Fatalf("ParseLineFile() error = %v", err)
	}
	if res.TotalRows != 2 || res.ValidRows != 2 || res.HasErrors() {
		t.Fatalf("unexpected result: total %d valid %d errors %v", res.TotalRows, res.ValidRows, res.Errors)
	}

	first := res.Rows[0]
	if first.Row != 2 || first.ChapterCode != "21" || first.Code != "21.01" {
		t.Errorf("first row = %+v", first)
	}
	if first.Quantity == nil || !first.Quantity.Equal(dec("42.5")) {
		t.Errorf("quantity = %v, want 42.5", first.Quantity)
	}
	if first.LaborRate != nil {
		t.Errorf("blank labor rate should stay nil for defaulting, got %s", first.LaborRate)
	}

	second := res.Rows[1]
	if second.Quantity != nil {
		t.Errorf("blank quantity should stay nil, got %s", second.Quantity)
	}
	if second.Type != estimating.LineTypeProvisional {
		t.Errorf("type = %q", second.Type)
	}
	if !second.MaterialCost.Equal(dec("5000")) {
		t.Errorf("material = %s, want 5000", second.MaterialCost)
	}
}

func TestParseLineFile_RowErrors(t *testing.T) {
	input := "Omschrijving,Eenheid,Aantal,Materiaal,Soort\n" +
		"Goed,m2,1,10,\n" +
		",m2,1,10,\n" +
		"Negatief,m2,-1,10,\n" +
		"Tekst,m2,veel,10,\n" +
		"Soort,m2,1,10,extra\n"

	res, err := ParseLineFile([]byte(input), "posten.csv")
	if err != nil {
		t.Fatalf("ParseLineFile() error = %v", err)
	}
	if res.TotalRows != 5 || res.ValidRows != 1 || res.ErrorRows != 4 {
		t.Fatalf("total %d valid %d error rows %d: %v", res.TotalRows, res.ValidRows, res.ErrorRows, res.Errors)
	}
	rows := map[int]string{}
	for _, e := range res.Errors {
		rows[e.Row] = e.Field
	}
	want := map[int]string{3: "Omschrijving", 4: "Aantal", 5: "Aantal", 6: "Soort"}
	for row, field := range want {
		if rows[row] != field {
			t.Errorf("row %d error field = %q, want %q", row, rows[row], field)
		}
	}
}

func TestParseLineFile_Unsupported(t *testing.T) {
	_, err := ParseLineFile([]byte("%PDF-1.4\n%\xe2\xe3\xcf\xd3\n"), "posten.pdf")
	if err == nil || !strings.Contains(err.Error(), "unsupported file format") {
		t.Errorf("expected unsupported format error, got %v", err)
	}
}

func TestParseLineFile_MissingDescriptionColumn(t *testing.T) {
	_, err := ParseLineFile([]byte("Eenheid,Aantal\nm2,1\n"), "posten.csv")
	if err == nil {
		t.Error("expected error for file without description column")
	}
}

func TestParseLineFile_XLSXFromTemplate(t *testing.T) {
	tmpl, err := GenerateLineTemplate()
	if err != nil {
		t.Fatalf("GenerateLineTemplate() error = %v", err)
	}
	f, err := excelize.OpenReader(bytesReader(tmpl))
	if err != nil {
		t.Fatalf("template is not valid Excel: %v", err)
	}
	// Columns follow LineTemplateFields: Hoofdstuk, Code, Omschrijving, Aantal, Eenheid, ...
	f.SetSheetRow("Posten", "A2", &[]any{"13", "13.01", "Fundering", "3", "m3", "2", "", "120"})
	data, err := f.WriteToBuffer()
	f.Close()
	if err != nil {
		t.Fatalf("write buffer: %v", err)
	}

	res, err := ParseLineFile(data.Bytes(), "posten.xlsx")
	if err != nil {
		t.Fatalf("ParseLineFile() error = %v", err)
	}
	if len(res.Rows) != 1 || res.HasErrors() {
		t.Fatalf("expected 1 valid row, got %+v", res)
	}
	r := res.Rows[0]
	if r.ChapterCode != "13" || r.Description != "Fundering" || !r.MaterialCost.Equal(dec("120")) || !r.LaborHours.Equal(dec("2")) {
		t.Errorf("unexpected row %+v", r)
	}
}

func TestParseLineFile_ImportsThroughEngine(t *testing.T) {
	app := testhelpers.NewTestApp(t)
	proj := testhelpers.CreateTestProject(t, app, "Import Project")
	eng := estimating.NewEngine(app, config.Default())
	ctx := context.Background()

	created, err := eng.CreateEstimate(ctx, estimating.EstimateDraft{ProjectID: proj.Id, Name: "Import"})
	if err != nil {
		t.Fatalf("CreateEstimate: %v", err)
	}
	if _, err := eng.AddChapter(ctx, created.ID, estimating.ChapterDraft{Code: "21", Name: "Buitenwanden"}); err != nil {
		t.Fatalf("AddChapter: %v", err)
	}

	input := "Hoofdstuk,Omschrijving,Aantal,Eenheid,Arbeid uren,Materiaal\n" +
		"21,Metselwerk,10,m2,1,20\n" +
		",Opruimen,1,post,0,50\n"
	res, err := ParseLineFile([]byte(input), "posten.csv")
	if err != nil || res.HasErrors() {
		t.Fatalf("ParseLineFile: %v %v", err, res)
	}

	ch, err := eng.ImportLines(ctx, created.ID, res.Rows)
	if err != nil {
		t.Fatalf("ImportLines: %v", err)
	}
	// 10 × (1 × 45 + 20) + 50
	if got := ch.Tree.Estimate.Costs().Subtotal; !got.Equal(dec("700")) {
		t.Errorf("subtotal = %s, want 700", got)
	}

	bad, err := ParseLineFile([]byte("Hoofdstuk,Omschrijving,Eenheid\n99,Onbekend,st\n"), "posten.csv")
	if err != nil {
		t.Fatalf("ParseLineFile: %v", err)
	}
	_, err = eng.ImportLines(ctx, created.ID, bad.Rows)
	var ie *estimating.ImportError
	if !errors.As(err, &ie) {
		t.Fatalf("expected *ImportError, got %v", err)
	}
	report := ImportErrorRows(ie)
	if len(report) != 1 || report[0].Row != 2 {
		t.Errorf("unexpected report rows %+v", report)
	}
}

func TestImportErrorRows_Sorted(t *testing.T) {
	ie := &estimating.ImportError{Rows: map[int]string{7: "b", 3: "a", 12: "c"}}
	got := ImportErrorRows(ie)
	if len(got) != 3 || got[0].Row != 3 || got[1].Row != 7 || got[2].Row != 12 {
		t.Errorf("rows not sorted: %+v", got)
	}
}

func TestGenerateErrorReport_WithErrors(t *testing.T) {
	errs := []ValidationError{
		{Row: 2, Field: "Omschrijving", Message: "Omschrijving is verplicht"},
		{Row: 3, Field: "Aantal", Message: "\"veel\" is geen geldig getal"},
	}

	result, err := GenerateErrorReport(errs)
	if err != nil {
		t.Fatalf("GenerateErrorReport() error = %v", err)
	}

	f, err := excelize.OpenReader(bytesReader(result))
	if err != nil {
		t.Fatalf("result is not valid Excel: %v", err)
	}
	defer f.Close()

	sheet := f.GetSheetList()[0]
	if sheet != "Fouten" {
		t.Errorf("expected sheet name 'Fouten', got %q", sheet)
	}
	a1, _ := f.GetCellValue(sheet, "A1")
	c1, _ := f.GetCellValue(sheet, "C1")
	if a1 != "Regel" || c1 != "Fout" {
		t.Errorf("unexpected headers: %q, %q", a1, c1)
	}
	a2, _ := f.GetCellValue(sheet, "A2")
	b2, _ := f.GetCellValue(sheet, "B2")
	if a2 != "2" || b2 != "Omschrijving" {
		t.Errorf("unexpected first row: %q, %q", a2, b2)
	}
}

func TestGenerateErrorReport_NoErrors(t *testing.T) {
	result, err := GenerateErrorReport(nil)
	if err != nil {
		t.Fatalf("GenerateErrorReport() error = %v", err)
	}
	if len(result) == 0 {
		t.Fatal("GenerateErrorReport() returned empty bytes")
	}
}
