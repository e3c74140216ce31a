package services

import (
	"context"
	"fmt"
	"log"

	"github.com/pocketbase/pocketbase/core"
	"github.com/shopspring/decimal"

	"begroting/collections"
	"begroting/estimating"
)

// DemoEstimateName is the estimate SeedDemoEstimate builds in the demo project.
const DemoEstimateName = "Begroting ruwbouw"

type demoChapter struct {
	code, name string
	parent     string // code of the parent chapter
	lines      []demoLine
}

type demoLine struct {
	libraryCode string
	quantity    string
}

var demoChapters = []demoChapter{
	{code: "13", name: "Funderingen", lines: []demoLine{
		{"13.10", "85"},
		{"16.20", "14.5"},
		{"16.30", "24"},
	}},
	{code: "21", name: "Buitenwanden", lines: []demoLine{
		{"21.10", "168"},
		{"21.40", "168"},
	}},
	{code: "21.2", name: "Gevelmetselwerk", parent: "21", lines: []demoLine{
		{"21.20", "142"},
	}},
	{code: "23", name: "Vloeren", lines: []demoLine{
		{"23.10", "96"},
	}},
	{code: "31", name: "Buitenwandopeningen", lines: []demoLine{
		{"31.10", "11"},
	}},
}

// SeedDemoEstimate builds a priced estimate in the seeded demo project
// through the engine, so every total in it is produced the same way as for
// user-entered data. It does nothing when the demo project is missing or
// already has an estimate.
func SeedDemoEstimate(ctx context.Context, app core.App, eng *estimating.Engine) error {
	project, err := app.FindFirstRecordByData("projects", "name", collections.DemoProjectName)
	if err != nil {
		return nil
	}
	existing, err := eng.ListEstimates(project.Id)
	if err != nil {
		return fmt.Errorf("demo: list estimates: %w", err)
	}
	if len(existing) > 0 {
		return nil
	}

	created, err := eng.CreateEstimate(ctx, estimating.EstimateDraft{
		ProjectID:   project.Id,
		Name:        DemoEstimateName,
		Description: "Ruwbouw vrijstaande woning, prijspeil 2026",
		Notes:       "Prijzen zijn exclusief meerwerk en stelposten tenzij anders vermeld.",
		Percentages: &estimating.Percentages{
			GeneralCosts: decimal.NewFromInt(10),
			Profit:       decimal.NewFromInt(5),
			Risk:         decimal.NewFromInt(3),
			VAT:          decimal.NewFromInt(21),
		},
	})
	if err != nil {
		return fmt.Errorf("demo: create estimate: %w", err)
	}
	estimateID := created.ID

	chapterIDs := make(map[string]string, len(demoChapters))
	for _, c := range demoChapters {
		ch, err := eng.AddChapter(ctx, estimateID, estimating.ChapterDraft{
			ParentID: chapterIDs[c.parent],
			Code:     c.code,
			Name:     c.name,
		})
		if err != nil {
			return fmt.Errorf("demo: chapter %s: %w", c.code, err)
		}
		chapterIDs[c.code] = ch.ID

		for _, l := range c.lines {
			item, err := app.FindFirstRecordByData("library_items", "code", l.libraryCode)
			if err != nil {
				return fmt.Errorf("demo: library item %s: %w", l.libraryCode, err)
			}
			qty := decimal.RequireFromString(l.quantity)
			if _, err := eng.AddLineFromLibrary(ctx, estimateID, item.Id, estimating.LineDraft{
				ChapterID: ch.ID,
				Quantity:  &qty,
			}); err != nil {
				return fmt.Errorf("demo: line %s: %w", l.libraryCode, err)
			}
		}
	}

	// A provisional sum outside any chapter.
	provisional := decimal.NewFromInt(7500)
	zero := decimal.Zero
	change, err := eng.AddLine(ctx, estimateID, estimating.LineDraft{
		Description:  "Stelpost keuken",
		Unit:         "post",
		Type:         estimating.LineTypeProvisional,
		LaborHours:   &zero,
		MaterialCost: &provisional,
	})
	if err != nil {
		return fmt.Errorf("demo: provisional line: %w", err)
	}

	log.Printf("demo: created estimate %q (%s), total incl. VAT %s",
		DemoEstimateName, estimateID, FormatEUR(change.Tree.Estimate.Markups().TotalInclVAT))
	return nil
}
