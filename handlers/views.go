package handlers

import (
	"github.com/shopspring/decimal"

	"begroting/estimating"
)

// EstimateView is the JSON shape of an estimate row with its stored totals.
type EstimateView struct {
	ID          string            `json:"id"`
	ProjectID   string            `json:"project_id"`
	Name        string            `json:"name"`
	Description string            `json:"description"`
	Notes       string            `json:"notes"`
	Version     int               `json:"version"`
	Status      estimating.Status `json:"status"`
	estimating.Percentages
	estimating.CostTotals
	estimating.MarkupResult
}

// ChapterView is a chapter with its direct lines and its sub-chapters.
type ChapterView struct {
	ID        string `json:"id"`
	ParentID  string `json:"parent_id"`
	Code      string `json:"code"`
	Name      string `json:"name"`
	SortOrder int    `json:"sort_order"`
	estimating.CostTotals
	Lines    []LineView    `json:"lines"`
	Children []ChapterView `json:"children"`
}

type LineView struct {
	ID            string              `json:"id"`
	ChapterID     string              `json:"chapter_id"`
	LibraryItemID string              `json:"library_item_id"`
	Code          string              `json:"code"`
	Description   string              `json:"description"`
	Specification string              `json:"specification"`
	Unit          string              `json:"unit"`
	Type          estimating.LineType `json:"line_type"`
	SortOrder     int                 `json:"sort_order"`
	estimating.LineInputs
	LaborCost  decimal.Decimal `json:"labor_cost"`
	UnitPrice  decimal.Decimal `json:"unit_price"`
	TotalPrice decimal.Decimal `json:"total_price"`
}

// TreeView is a whole estimate: the header, the chapter hierarchy and the
// lines that belong to no chapter.
type TreeView struct {
	Estimate   EstimateView  `json:"estimate"`
	Chapters   []ChapterView `json:"chapters"`
	Unassigned []LineView    `json:"unassigned_lines"`
}

// ChangeView answers a mutation: the id it created or touched plus the
// recomputed tree.
type ChangeView struct {
	ID   string   `json:"id"`
	Tree TreeView `json:"tree"`
}

func estimateView(est *estimating.Estimate) EstimateView {
	return EstimateView{
		ID:           est.ID,
		ProjectID:    est.ProjectID,
		Name:         est.Name,
		Description:  est.Description,
		Notes:        est.Notes,
		Version:      est.Version,
		Status:       est.Status,
		Percentages:  est.Percentages,
		CostTotals:   est.Costs(),
		MarkupResult: est.Markups(),
	}
}

func lineView(l *estimating.Line) LineView {
	return LineView{
		ID:            l.ID,
		ChapterID:     l.ChapterID,
		LibraryItemID: l.LibraryItemID,
		Code:          l.Code,
		Description:   l.Description,
		Specification: l.Specification,
		Unit:          l.Unit,
		Type:          l.Type,
		SortOrder:     l.SortOrder,
		LineInputs:    l.LineInputs,
		LaborCost:     l.LaborCost(),
		UnitPrice:     l.UnitPrice(),
		TotalPrice:    l.TotalPrice(),
	}
}

func lineViews(lines []*estimating.Line) []LineView {
	out := make([]LineView, 0, len(lines))
	for _, l := range lines {
		out = append(out, lineView(l))
	}
	return out
}

func chapterViews(t *estimating.Tree, chapters []*estimating.Chapter) []ChapterView {
	out := make([]ChapterView, 0, len(chapters))
	for _, c := range chapters {
		out = append(out, ChapterView{
			ID:         c.ID,
			ParentID:   c.ParentID,
			Code:       c.Code,
			Name:       c.Name,
			SortOrder:  c.SortOrder,
			CostTotals: c.Totals(),
			Lines:      lineViews(t.ChapterLines(c.ID)),
			Children:   chapterViews(t, t.Children(c.ID)),
		})
	}
	return out
}

func treeView(t *estimating.Tree) TreeView {
	return TreeView{
		Estimate:   estimateView(t.Estimate),
		Chapters:   chapterViews(t, t.Roots()),
		Unassigned: lineViews(t.UnassignedLines()),
	}
}

func changeView(c *estimating.Change) ChangeView {
	return ChangeView{ID: c.ID, Tree: treeView(c.Tree)}
}
