package services

import (
	"bytes"
	"context"
	"strings"
	"testing"
)

func TestEstimatePreview_RendersRowsAndSummary(t *testing.T) {
	data := BuildExportData(exportTree(t), ProjectInfo{Name: "Kavel 12", ClientName: "Fam. Jansen", ReferenceNumber: "2026-014"}, "16-10-2026")

	var buf bytes.Buffer
	if err := EstimatePreview(data).Render(context.Background(), &buf); err != nil {
		t.Fatalf("Render() error = %v", err)
	}
	html := buf.String()

	for _, frag := range []string{
		"<title>Begroting woning</title>",
		"Opdrachtgever: Fam. Jansen",
		"Offerte OFF-2026-014-V02",
		"Funderingen",
		"Post l3 (stelpost)",
		"€ 650,00",
		"Totaal incl. btw",
		"€ 1.439,48",
		"Prijzen excl. meerwerk",
	} {
		if !strings.Contains(html, frag) {
			t.Errorf("preview missing %q", frag)
		}
	}
}

func TestEstimatePreview_EscapesText(t *testing.T) {
	data := ExportData{
		Title: "<script>alert(1)</script>",
		Rows:  []ExportRow{{Kind: RowLine, Description: "a & b <i>"}},
	}

	var buf bytes.Buffer
	if err := EstimatePreview(data).Render(context.Background(), &buf); err != nil {
		t.Fatalf("Render() error = %v", err)
	}
	html := buf.String()

	if strings.Contains(html, "<script>") {
		t.Error("title was not escaped")
	}
	if !strings.Contains(html, "a &amp; b &lt;i&gt;") {
		t.Errorf("description was not escaped: %s", html)
	}
}

func TestEstimatePreview_RowMarkup(t *testing.T) {
	data := ExportData{
		Title: "Ruwbouw",
		Rows: []ExportRow{
			{Kind: RowChapter, Level: 0, Index: "21", Description: "Buitenwanden", Total: dec("1000")},
			{Kind: RowLine, Level: 1, Index: "21.1", Description: "Metselwerk", Qty: dec("10"), Unit: "m2", UnitPrice: dec("100"), Total: dec("1000")},
		},
		Summary: []SummaryRow{
			{Label: "Subtotaal", Amount: dec("1000")},
			{Label: "Totaal incl. btw", Amount: dec("1210"), Bold: true},
		},
	}

	var buf bytes.Buffer
	if err := EstimatePreview(data).Render(context.Background(), &buf); err != nil {
		t.Fatalf("Render() error = %v", err)
	}
	html := buf.String()

	for _, frag := range []string{
		`<tr data-kind="chapter"><td>21</td><td data-level="0">Buitenwanden</td><td></td><td></td><td></td>`,
		`<tr data-kind="line"><td>21.1</td><td data-level="1">Metselwerk</td>`,
		`<td>m2</td>`,
		`<tr><td>Subtotaal</td>`,
		`<tr data-bold><td>Totaal incl. btw</td>`,
	} {
		if !strings.Contains(html, frag) {
			t.Errorf("preview missing %q", frag)
		}
	}
	if strings.Contains(html, `class="notes"`) {
		t.Error("notes paragraph rendered without notes")
	}
	if strings.Contains(html, "Opdrachtgever") {
		t.Error("client label rendered without a client")
	}
}
