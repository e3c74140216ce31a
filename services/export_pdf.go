package services

import (
	"fmt"
	"strings"

	"github.com/johnfercher/maroto/v2"
	"github.com/johnfercher/maroto/v2/pkg/components/col"
	"github.com/johnfercher/maroto/v2/pkg/components/row"
	"github.com/johnfercher/maroto/v2/pkg/components/text"
	"github.com/johnfercher/maroto/v2/pkg/config"
	"github.com/johnfercher/maroto/v2/pkg/consts/align"
	"github.com/johnfercher/maroto/v2/pkg/consts/fontstyle"
	"github.com/johnfercher/maroto/v2/pkg/consts/orientation"
	"github.com/johnfercher/maroto/v2/pkg/consts/pagesize"
	"github.com/johnfercher/maroto/v2/pkg/core"
	"github.com/johnfercher/maroto/v2/pkg/props"
)

// GeneratePDF renders the estimate as a portrait A4 quotation using
// maroto/v2 and returns the raw PDF bytes.
func GeneratePDF(data ExportData) ([]byte, error) {
	cfg := config.NewBuilder().
		WithOrientation(orientation.Vertical).
		WithPageSize(pagesize.A4).
		WithLeftMargin(12).
		WithTopMargin(12).
		WithRightMargin(12).
		WithPageNumber(props.PageNumber{
			Pattern: "Pagina {current} van {total}",
			Place:   props.RightBottom,
			Size:    7,
			Color:   &props.Color{Red: 120, Green: 120, Blue: 120},
		}).
		Build()

	m := maroto.New(cfg)

	addHeader(m, data)
	addTableHeader(m)
	for _, r := range data.Rows {
		addTableRow(m, r)
	}
	addSummary(m, data.Summary)
	addFooter(m, data)

	doc, err := m.Generate()
	if err != nil {
		return nil, fmt.Errorf("failed to generate PDF: %w", err)
	}

	return doc.GetBytes(), nil
}

var greyText = &props.Color{Red: 80, Green: 80, Blue: 80}

// addHeader adds the title, project and quote reference to the PDF.
func addHeader(m core.Maroto, data ExportData) {
	m.AddRows(
		row.New(12).Add(
			col.New(12).Add(
				text.New(data.Title, props.Text{
					Size:  16,
					Style: fontstyle.Bold,
					Align: align.Left,
				}),
			),
		),
	)

	project := data.ProjectName
	if data.ClientName != "" {
		project += " | Opdrachtgever: " + data.ClientName
	}
	m.AddRows(
		row.New(6).Add(
			col.New(8).Add(
				text.New(project, props.Text{Size: 9, Align: align.Left, Color: greyText}),
			),
			col.New(4).Add(
				text.New(fmt.Sprintf("Offerte %s", data.QuoteNumber), props.Text{Size: 9, Align: align.Right, Color: greyText}),
			),
		),
		row.New(6).Add(
			col.New(8).Add(
				text.New(fmt.Sprintf("Versie %d (%s)", data.Version, data.Status), props.Text{Size: 9, Align: align.Left, Color: greyText}),
			),
			col.New(4).Add(
				text.New(fmt.Sprintf("Datum: %s", data.CreatedDate), props.Text{Size: 9, Align: align.Right, Color: greyText}),
			),
		),
	)

	m.AddRows(row.New(4))
}

// addTableHeader adds the column header row.
func addTableHeader(m core.Maroto) {
	headerBg := &props.Color{Red: 33, Green: 37, Blue: 41}
	headerText := props.Text{
		Size:  8,
		Style: fontstyle.Bold,
		Align: align.Center,
		Color: &props.Color{Red: 255, Green: 255, Blue: 255},
	}
	headerTextLeft := headerText
	headerTextLeft.Align = align.Left

	headerCell := props.Cell{BackgroundColor: headerBg}

	m.AddRows(
		row.New(8).Add(
			col.New(1).Add(text.New("Code", headerText)).WithStyle(&headerCell),
			col.New(5).Add(text.New("Omschrijving", headerTextLeft)).WithStyle(&headerCell),
			col.New(1).Add(text.New("Aantal", headerText)).WithStyle(&headerCell),
			col.New(1).Add(text.New("Eenh.", headerText)).WithStyle(&headerCell),
			col.New(2).Add(text.New("Eenheidsprijs", headerText)).WithStyle(&headerCell),
			col.New(2).Add(text.New("Totaal", headerText)).WithStyle(&headerCell),
		),
	)
}

// addTableRow adds a chapter heading or a line row.
func addTableRow(m core.Maroto, r ExportRow) {
	var cellStyle *props.Cell
	var textSize float64 = 7
	textStyle := fontstyle.Normal

	if r.Kind == RowChapter {
		textStyle = fontstyle.Bold
		textSize = 8
		cellStyle = &props.Cell{BackgroundColor: &props.Color{Red: 235, Green: 235, Blue: 235}}
	}

	baseText := props.Text{Size: textSize, Style: textStyle, Align: align.Center}
	leftText := baseText
	leftText.Align = align.Left
	rightText := baseText
	rightText.Align = align.Right

	indent := strings.Repeat("  ", r.Level)

	qty, unitPrice := "", ""
	if r.Kind == RowLine {
		qty = FormatQty(r.Qty)
		unitPrice = FormatEUR(r.UnitPrice)
	}

	cols := []core.Col{
		col.New(1).Add(text.New(r.Index, leftText)),
		col.New(5).Add(text.New(indent+r.Description, leftText)),
		col.New(1).Add(text.New(qty, rightText)),
		col.New(1).Add(text.New(r.Unit, baseText)),
		col.New(2).Add(text.New(unitPrice, rightText)),
		col.New(2).Add(text.New(FormatEUR(r.Total), rightText)),
	}
	if cellStyle != nil {
		for i := range cols {
			cols[i] = cols[i].WithStyle(cellStyle)
		}
	}

	m.AddRows(row.New(7).Add(cols...))
}

// addSummary adds the cost breakdown and markup cascade below the table.
func addSummary(m core.Maroto, rows []SummaryRow) {
	m.AddRows(row.New(6))

	summaryCell := &props.Cell{BackgroundColor: &props.Color{Red: 240, Green: 240, Blue: 240}}

	for _, s := range rows {
		style := fontstyle.Normal
		if s.Bold {
			style = fontstyle.Bold
		}
		t := props.Text{Size: 9, Style: style, Align: align.Right}
		m.AddRows(
			row.New(7).Add(
				col.New(8).Add(text.New(s.Label, t)).WithStyle(summaryCell),
				col.New(4).Add(text.New(FormatEUR(s.Amount), t)).WithStyle(summaryCell),
			),
		)
	}
}

// addFooter adds the notes and the generated-date line at the bottom.
func addFooter(m core.Maroto, data ExportData) {
	m.AddRows(row.New(6))
	if data.Notes != "" {
		m.AddRows(
			row.New(10).Add(
				col.New(12).Add(
					text.New(data.Notes, props.Text{Size: 8, Align: align.Left}),
				),
			),
		)
	}
	m.AddRows(
		row.New(6).Add(
			col.New(12).Add(
				text.New(
					fmt.Sprintf("Gegenereerd op %s", data.CreatedDate),
					props.Text{
						Size:  7,
						Align: align.Left,
						Color: &props.Color{Red: 140, Green: 140, Blue: 140},
					},
				),
			),
		),
	)
}
