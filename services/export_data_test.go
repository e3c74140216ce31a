package services

import (
	"testing"

	"github.com/shopspring/decimal"

	"begroting/estimating"
)

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func exportLine(id, chapterID, code string, sort int, qty, hours, material string) *estimating.Line {
	return &estimating.Line{
		ID:          id,
		ChapterID:   chapterID,
		Code:        code,
		Description: "Post " + id,
		Unit:        "m2",
		Type:        estimating.LineTypeNormal,
		SortOrder:   sort,
		LineInputs: estimating.LineInputs{
			Quantity:     dec(qty),
			LaborHours:   dec(hours),
			LaborRate:    dec("45"),
			MaterialCost: dec(material),
		},
	}
}

// exportTree: chapter 21 with sub-chapter 21.1, chapter 13, one unassigned
// line. The markup percentages match the worked example: 10/5/3/21.
func exportTree(t *testing.T) *estimating.Tree {
	t.Helper()
	est := &estimating.Estimate{
		ID: "est00000001", ProjectID: "p1", Name: "Begroting woning", Version: 2,
		Status: estimating.StatusDraft, Notes: "Prijzen excl. meerwerk",
		Percentages: estimating.Percentages{
			GeneralCosts: dec("10"), Profit: dec("5"), Risk: dec("3"), VAT: dec("21"),
		},
	}
	chapters := []*estimating.Chapter{
		{ID: "c21", EstimateID: est.ID, Code: "21", Name: "Buitenwanden", SortOrder: 2},
		{ID: "c211", EstimateID: est.ID, ParentID: "c21", Code: "21.1", Name: "Metselwerk", SortOrder: 1},
		{ID: "c13", EstimateID: est.ID, Code: "13", Name: "Funderingen", SortOrder: 1},
	}
	lines := []*estimating.Line{
		exportLine("l1", "c21", "", 1, "10", "1", "20"),     // 650
		exportLine("l2", "c211", "", 1, "2", "0", "100"),    // 200
		exportLine("l3", "c13", "13.01", 1, "1", "2", "10"), // 100
		exportLine("l4", "", "", 1, "1", "0", "50"),         // 50
	}
	lines[2].Type = estimating.LineTypeProvisional
	tree := estimating.NewTree(est, chapters, lines)
	if err := tree.RecomputeAll(); err != nil {
		t.Fatalf("RecomputeAll: %v", err)
	}
	return tree
}

func TestBuildExportData_RowOrder(t *testing.T) {
	data := BuildExportData(exportTree(t), ProjectInfo{Name: "Kavel 12", ClientName: "Fam. Jansen", ReferenceNumber: "2026-014"}, "16-10-2026")

	want := []struct {
		kind  RowKind
		level int
		index string
	}{
		{RowChapter, 0, "13"},
		{RowLine, 1, "13.01"},
		{RowChapter, 0, "21"},
		{RowLine, 1, "21.1"},
		{RowChapter, 1, "21.1"},
		{RowLine, 2, "21.1.1"},
		{RowChapter, 0, ""},
		{RowLine, 1, "1"},
	}
	if len(data.Rows) != len(want) {
		t.Fatalf("expected %d rows, got %d: %+v", len(want), len(data.Rows), data.Rows)
	}
	for i, w := range want {
		r := data.Rows[i]
		if r.Kind != w.kind || r.Level != w.level || r.Index != w.index {
			t.Errorf("row %d = {kind %d level %d index %q}, want {kind %d level %d index %q}",
				i, r.Kind, r.Level, r.Index, w.kind, w.level, w.index)
		}
	}

	if data.Rows[6].Description != unassignedLabel {
		t.Errorf("unassigned heading = %q", data.Rows[6].Description)
	}
	if !data.Rows[1].Total.Equal(dec("100")) {
		t.Errorf("line 13.01 total = %s, want 100", data.Rows[1].Total)
	}
	if data.Rows[1].Description != "Post l3 (stelpost)" {
		t.Errorf("provisional line description = %q", data.Rows[1].Description)
	}
	if !data.Rows[2].Total.Equal(dec("650")) {
		t.Errorf("chapter 21 total = %s, want 650 (direct lines only)", data.Rows[2].Total)
	}
}

func TestBuildExportData_Header(t *testing.T) {
	data := BuildExportData(exportTree(t), ProjectInfo{Name: "Kavel 12", ClientName: "Fam. Jansen", ReferenceNumber: "2026-014"}, "16-10-2026")

	if data.Title != "Begroting woning" {
		t.Errorf("Title = %q", data.Title)
	}
	if data.QuoteNumber != "OFF-2026-014-V02" {
		t.Errorf("QuoteNumber = %q", data.QuoteNumber)
	}
	if data.Version != 2 || data.Status != "draft" {
		t.Errorf("Version/Status = %d/%q", data.Version, data.Status)
	}
	if data.Notes != "Prijzen excl. meerwerk" {
		t.Errorf("Notes = %q", data.Notes)
	}
}

func TestBuildExportData_SummaryMatchesMarkupCascade(t *testing.T) {
	data := BuildExportData(exportTree(t), ProjectInfo{Name: "Kavel 12"}, "16-10-2026")

	// Subtotal 1000: general costs 100, profit 55, risk 34.65,
	// excl. VAT 1189.65, VAT 249.8265, incl. VAT 1439.4765.
	want := map[string]string{
		"Subtotaal":           "1000",
		"Algemene kosten 10%": "100",
		"Winst 5%":            "55",
		"Risico 3%":           "34.65",
		"Totaal excl. btw":    "1189.65",
		"Btw 21%":             "249.83",
		"Totaal incl. btw":    "1439.48",
	}
	got := map[string]decimal.Decimal{}
	for _, s := range data.Summary {
		got[s.Label] = s.Amount
	}
	for label, amount := range want {
		v, ok := got[label]
		if !ok {
			t.Errorf("summary row %q missing", label)
			continue
		}
		if !v.Equal(dec(amount)) {
			t.Errorf("summary %q = %s, want %s", label, v, amount)
		}
	}
	if !data.TotalInclVAT.Equal(dec("1439.48")) {
		t.Errorf("TotalInclVAT = %s", data.TotalInclVAT)
	}
}

func TestSummaryRows_SkipsZeroMarkups(t *testing.T) {
	rows := SummaryRows(estimating.EstimateTotals{}, estimating.Percentages{VAT: dec("21")})
	for _, r := range rows {
		switch r.Label {
		case "Winst 0%", "Risico 0%", "Algemene kosten 0%":
			t.Errorf("zero markup %q should be omitted", r.Label)
		}
	}
	if rows[len(rows)-1].Label != "Totaal incl. btw" || !rows[len(rows)-1].Bold {
		t.Errorf("last row = %+v", rows[len(rows)-1])
	}
}

func TestBuildExportData_UsesStoredTotals(t *testing.T) {
	tree := exportTree(t)
	// Change inputs without recomputing; the export must show what is stored.
	tree.Lines[0].MaterialCost = dec("9999")

	data := BuildExportData(tree, ProjectInfo{}, "")
	for _, r := range data.Rows {
		if r.Kind == RowChapter && r.Index == "21" && !r.Total.Equal(dec("650")) {
			t.Errorf("chapter 21 total = %s, want stored 650", r.Total)
		}
	}
}
