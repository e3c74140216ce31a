package services

import (
	"fmt"

	"github.com/shopspring/decimal"

	"begroting/estimating"
)

// RowKind distinguishes chapter header rows from line rows in an export.
type RowKind int

const (
	RowChapter RowKind = iota
	RowLine
)

// ExportRow represents a single row in the estimate export: a chapter
// heading carrying its subtotal, or a priced line.
type ExportRow struct {
	Kind        RowKind
	Level       int    // nesting depth; lines sit one level below their chapter
	Index       string // chapter code, or "21.3" style line number
	Description string
	Qty         decimal.Decimal
	Unit        string
	UnitPrice   decimal.Decimal
	Total       decimal.Decimal
	LineType    estimating.LineType
}

// SummaryRow is one line of the markup summary below the table.
type SummaryRow struct {
	Label  string
	Amount decimal.Decimal
	Bold   bool
}

// ExportData holds all data needed for export. It is built from stored
// totals only; exporters never recompute.
type ExportData struct {
	Title        string
	ProjectName  string
	ClientName   string
	QuoteNumber  string
	Version      int
	Status       string
	CreatedDate  string
	Notes        string
	Rows         []ExportRow
	Summary      []SummaryRow
	TotalExclVAT decimal.Decimal
	TotalInclVAT decimal.Decimal
}

// ProjectInfo is the project header shown on exports.
type ProjectInfo struct {
	Name            string
	ClientName      string
	ReferenceNumber string
}

// unassignedLabel heads the lines that belong to no chapter.
const unassignedLabel = "Overige posten"

// BuildExportData flattens an estimate tree into export rows: chapters in
// tree order with their lines beneath them, then the unassigned lines,
// followed by the markup summary.
func BuildExportData(tree *estimating.Tree, project ProjectInfo, createdDate string) ExportData {
	est := tree.Estimate
	totals := est.Totals()
	markups := totals.MarkupResult.Rounded()

	data := ExportData{
		Title:        est.Name,
		ProjectName:  project.Name,
		ClientName:   project.ClientName,
		QuoteNumber:  QuoteNumber(project.ReferenceNumber, est.ID, est.Version),
		Version:      est.Version,
		Status:       string(est.Status),
		CreatedDate:  createdDate,
		Notes:        est.Notes,
		TotalExclVAT: markups.TotalExclVAT,
		TotalInclVAT: markups.TotalInclVAT,
	}

	var walk func(chapters []*estimating.Chapter, level int)
	walk = func(chapters []*estimating.Chapter, level int) {
		for _, c := range chapters {
			data.Rows = append(data.Rows, ExportRow{
				Kind:        RowChapter,
				Level:       level,
				Index:       c.Code,
				Description: c.Name,
				Total:       c.Totals().Subtotal,
			})
			data.Rows = append(data.Rows, lineRows(tree.ChapterLines(c.ID), c.Code, level+1)...)
			walk(tree.Children(c.ID), level+1)
		}
	}
	walk(tree.Roots(), 0)

	if unassigned := tree.UnassignedLines(); len(unassigned) > 0 {
		var sum decimal.Decimal
		for _, l := range unassigned {
			sum = sum.Add(l.TotalPrice())
		}
		data.Rows = append(data.Rows, ExportRow{Kind: RowChapter, Description: unassignedLabel, Total: sum})
		data.Rows = append(data.Rows, lineRows(unassigned, "", 1)...)
	}

	data.Summary = SummaryRows(totals, est.Percentages)
	return data
}

func lineRows(lines []*estimating.Line, chapterCode string, level int) []ExportRow {
	rows := make([]ExportRow, 0, len(lines))
	for i, l := range lines {
		index := l.Code
		if index == "" {
			index = fmt.Sprintf("%d", i+1)
			if chapterCode != "" {
				index = chapterCode + "." + index
			}
		}
		desc := l.Description
		if l.Type == estimating.LineTypeProvisional {
			desc += " (stelpost)"
		}
		rows = append(rows, ExportRow{
			Kind:        RowLine,
			Level:       level,
			Index:       index,
			Description: desc,
			Qty:         l.Quantity,
			Unit:        l.Unit,
			UnitPrice:   l.UnitPrice(),
			Total:       l.TotalPrice(),
			LineType:    l.Type,
		})
	}
	return rows
}

// SummaryRows lays out the cost categories and the markup cascade, with
// amounts rounded to cents. Zero markups are left out.
func SummaryRows(t estimating.EstimateTotals, p estimating.Percentages) []SummaryRow {
	m := t.MarkupResult.Rounded()
	rows := []SummaryRow{
		{Label: "Arbeid", Amount: t.Labor.Round(2)},
		{Label: "Materiaal", Amount: t.Material.Round(2)},
		{Label: "Materieel", Amount: t.Equipment.Round(2)},
		{Label: "Onderaanneming", Amount: t.Subcontr.Round(2)},
		{Label: "Subtotaal", Amount: t.Subtotal.Round(2), Bold: true},
	}
	if !p.GeneralCosts.IsZero() {
		rows = append(rows, SummaryRow{Label: "Algemene kosten " + FormatPercent(p.GeneralCosts), Amount: m.GeneralCostsAmount})
	}
	if !p.Profit.IsZero() {
		rows = append(rows, SummaryRow{Label: "Winst " + FormatPercent(p.Profit), Amount: m.ProfitAmount})
	}
	if !p.Risk.IsZero() {
		rows = append(rows, SummaryRow{Label: "Risico " + FormatPercent(p.Risk), Amount: m.RiskAmount})
	}
	rows = append(rows, SummaryRow{Label: "Totaal excl. btw", Amount: m.TotalExclVAT, Bold: true})
	rows = append(rows, SummaryRow{Label: "Btw " + FormatPercent(p.VAT), Amount: m.VATAmount})
	rows = append(rows, SummaryRow{Label: "Totaal incl. btw", Amount: m.TotalInclVAT, Bold: true})
	return rows
}
