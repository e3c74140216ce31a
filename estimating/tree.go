package estimating

import (
	"cmp"
	"slices"
)

// Tree is an estimate with its chapters and lines held as flat collections
// indexed by id. Chapter nesting is expressed only through ParentID, so
// rollup never walks a pointer graph.
type Tree struct {
	Estimate *Estimate
	Chapters []*Chapter
	Lines    []*Line

	chapterByID map[string]*Chapter
	lineByID    map[string]*Line
}

// NewTree indexes the given rows. Rows are taken as-is; derived values are
// whatever the caller restored or later recomputes.
func NewTree(est *Estimate, chapters []*Chapter, lines []*Line) *Tree {
	t := &Tree{
		Estimate:    est,
		Chapters:    chapters,
		Lines:       lines,
		chapterByID: make(map[string]*Chapter, len(chapters)),
		lineByID:    make(map[string]*Line, len(lines)),
	}
	for _, c := range chapters {
		t.chapterByID[c.ID] = c
	}
	for _, l := range lines {
		t.lineByID[l.ID] = l
	}
	return t
}

func (t *Tree) Chapter(id string) *Chapter { return t.chapterByID[id] }

func (t *Tree) Line(id string) *Line { return t.lineByID[id] }

// ChapterLines returns the lines bound directly to the chapter, in sort order.
func (t *Tree) ChapterLines(chapterID string) []*Line {
	var out []*Line
	for _, l := range t.Lines {
		if l.ChapterID == chapterID {
			out = append(out, l)
		}
	}
	sortLines(out)
	return out
}

// UnassignedLines returns the lines that sit directly under the estimate.
// A line pointing at a chapter missing from the tree counts as unassigned so
// its cost is never dropped from the estimate.
func (t *Tree) UnassignedLines() []*Line {
	var out []*Line
	for _, l := range t.Lines {
		if !l.Assigned() || t.chapterByID[l.ChapterID] == nil {
			out = append(out, l)
		}
	}
	sortLines(out)
	return out
}

// Children returns the direct sub-chapters of parentID ("" for top level),
// in sort order.
func (t *Tree) Children(parentID string) []*Chapter {
	var out []*Chapter
	for _, c := range t.Chapters {
		if c.ParentID == parentID {
			out = append(out, c)
		}
	}
	slices.SortStableFunc(out, func(a, b *Chapter) int {
		if n := cmp.Compare(a.SortOrder, b.SortOrder); n != 0 {
			return n
		}
		return cmp.Compare(a.Code, b.Code)
	})
	return out
}

// Roots returns the top-level chapters in sort order. A chapter whose parent
// is missing from the tree is treated as top level.
func (t *Tree) Roots() []*Chapter {
	out := t.Children("")
	for _, c := range t.Chapters {
		if c.ParentID != "" && t.chapterByID[c.ParentID] == nil {
			out = append(out, c)
		}
	}
	return out
}

// Descendants returns the ids of every chapter nested below chapterID.
func (t *Tree) Descendants(chapterID string) []string {
	var out []string
	queue := []string{chapterID}
	seen := map[string]bool{chapterID: true}
	for len(queue) > 0 {
		id := queue[0]
		queue = queue[1:]
		for _, c := range t.Chapters {
			if c.ParentID == id && !seen[c.ID] {
				seen[c.ID] = true
				out = append(out, c.ID)
				queue = append(queue, c.ID)
			}
		}
	}
	return out
}

// ValidateParent rejects a parent that does not exist in this estimate, is
// the chapter itself, or is one of its descendants.
func (t *Tree) ValidateParent(chapterID, parentID string) error {
	if parentID == "" {
		return nil
	}
	if t.chapterByID[parentID] == nil {
		return notFound("chapter", parentID)
	}
	if parentID == chapterID {
		return invalidField("parent", "a chapter cannot be its own parent")
	}
	if chapterID == "" {
		return nil
	}
	for _, id := range t.Descendants(chapterID) {
		if id == parentID {
			return invalidField("parent", "parent is nested below this chapter")
		}
	}
	return nil
}

// RecomputeChapter sums the lines bound to the chapter into its totals.
func (t *Tree) RecomputeChapter(chapterID string) (CostTotals, error) {
	c := t.chapterByID[chapterID]
	if c == nil {
		return CostTotals{}, notFound("chapter", chapterID)
	}
	c.totals = sumLines(t.ChapterLines(chapterID))
	return c.totals, nil
}

// RecomputeEstimate sums every chapter's totals plus the unassigned lines
// into the estimate's cost totals. Chapter totals are used as stored, so
// chapters touched by a mutation must be recomputed first.
func (t *Tree) RecomputeEstimate() CostTotals {
	var total CostTotals
	for _, c := range t.Chapters {
		total = total.add(c.totals)
	}
	total = total.add(sumLines(t.UnassignedLines()))
	t.Estimate.costs = total
	return total
}

// ApplyMarkups runs the markup cascade on the estimate's current subtotal.
func (t *Tree) ApplyMarkups() MarkupResult {
	t.Estimate.markups = ApplyMarkups(t.Estimate.costs.Subtotal, t.Estimate.Percentages)
	return t.Estimate.markups
}

// RecomputeAll reprices every line and rebuilds all derived totals.
func (t *Tree) RecomputeAll() error {
	for _, l := range t.Lines {
		if err := l.recompute(); err != nil {
			return err
		}
	}
	for _, c := range t.Chapters {
		if _, err := t.RecomputeChapter(c.ID); err != nil {
			return err
		}
	}
	t.RecomputeEstimate()
	t.ApplyMarkups()
	return nil
}

func (t *Tree) addChapter(c *Chapter) {
	t.Chapters = append(t.Chapters, c)
	t.chapterByID[c.ID] = c
}

func (t *Tree) addLine(l *Line) {
	t.Lines = append(t.Lines, l)
	t.lineByID[l.ID] = l
}

func (t *Tree) removeLine(id string) {
	delete(t.lineByID, id)
	t.Lines = slices.DeleteFunc(t.Lines, func(l *Line) bool { return l.ID == id })
}

// removeChapter drops the chapter, its sub-chapters and all their lines,
// returning the removed line ids.
func (t *Tree) removeChapter(id string) []string {
	gone := map[string]bool{id: true}
	for _, d := range t.Descendants(id) {
		gone[d] = true
	}

	var removedLines []string
	t.Lines = slices.DeleteFunc(t.Lines, func(l *Line) bool {
		if l.Assigned() && gone[l.ChapterID] {
			removedLines = append(removedLines, l.ID)
			delete(t.lineByID, l.ID)
			return true
		}
		return false
	})
	t.Chapters = slices.DeleteFunc(t.Chapters, func(c *Chapter) bool {
		if gone[c.ID] {
			delete(t.chapterByID, c.ID)
			return true
		}
		return false
	})
	return removedLines
}

// chaptersParentFirst orders chapters so every parent precedes its children.
func (t *Tree) chaptersParentFirst() []*Chapter {
	out := make([]*Chapter, 0, len(t.Chapters))
	placed := make(map[string]bool, len(t.Chapters))
	var visit func(parentID string)
	visit = func(parentID string) {
		for _, c := range t.Children(parentID) {
			if placed[c.ID] {
				continue
			}
			placed[c.ID] = true
			out = append(out, c)
			visit(c.ID)
		}
	}
	visit("")
	// Chapters whose parent is missing from the tree.
	for _, c := range t.Chapters {
		if !placed[c.ID] {
			placed[c.ID] = true
			out = append(out, c)
			visit(c.ID)
		}
	}
	return out
}

func sumLines(lines []*Line) CostTotals {
	var total CostTotals
	for _, l := range lines {
		total = total.add(l.categoryTotals())
	}
	return total
}

func sortLines(lines []*Line) {
	slices.SortStableFunc(lines, func(a, b *Line) int {
		return cmp.Compare(a.SortOrder, b.SortOrder)
	})
}
