package estimating

import (
	"context"
	"strings"
)

// ChapterDraft describes a new chapter. SortOrder 0 appends after the
// existing siblings.
type ChapterDraft struct {
	ParentID  string
	Code      string
	Name      string
	SortOrder int
}

// ChapterPatch changes a chapter. Nil fields are left as they are; a
// non-nil empty ParentID moves the chapter to the top level.
type ChapterPatch struct {
	ParentID  *string
	Code      *string
	Name      *string
	SortOrder *int
}

func (e *Engine) AddChapter(ctx context.Context, estimateID string, d ChapterDraft) (*Change, error) {
	code := strings.TrimSpace(d.Code)
	name := strings.TrimSpace(d.Name)
	if err := validateChapterText(code, name); err != nil {
		return nil, err
	}

	var id string
	tree, err := e.mutate(ctx, estimateID, func(m *mutation) error {
		if err := m.tree.ValidateParent("", d.ParentID); err != nil {
			return err
		}
		sort := d.SortOrder
		if sort <= 0 {
			sort = m.nextChapterSort(d.ParentID)
		}
		c := &Chapter{
			ID:         NewID(),
			EstimateID: estimateID,
			ParentID:   d.ParentID,
			Code:       code,
			Name:       name,
			SortOrder:  sort,
		}
		m.addChapter(c)
		m.chapterStale(c.ID)
		id = c.ID
		return nil
	})
	if err != nil {
		return nil, err
	}
	e.logger().Debug("chapter added", "estimateId", estimateID, "chapterId", id)
	return &Change{Tree: tree, ID: id}, nil
}

// UpdateChapter renames, renumbers or re-parents a chapter. None of these
// affect any total, so the estimate's cost sums are left untouched.
func (e *Engine) UpdateChapter(ctx context.Context, estimateID, chapterID string, p ChapterPatch) (*Change, error) {
	tree, err := e.mutate(ctx, estimateID, func(m *mutation) error {
		c, err := m.chapter(chapterID)
		if err != nil {
			return err
		}

		code, name := c.Code, c.Name
		if p.Code != nil {
			code = strings.TrimSpace(*p.Code)
		}
		if p.Name != nil {
			name = strings.TrimSpace(*p.Name)
		}
		if err := validateChapterText(code, name); err != nil {
			return err
		}
		if p.ParentID != nil {
			if err := m.tree.ValidateParent(c.ID, *p.ParentID); err != nil {
				return err
			}
			c.ParentID = *p.ParentID
		}
		if p.SortOrder != nil {
			if *p.SortOrder < 0 {
				return invalidField("sort_order", "must not be negative")
			}
			c.SortOrder = *p.SortOrder
		}
		c.Code, c.Name = code, name
		m.chapterChanged(c)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &Change{Tree: tree, ID: chapterID}, nil
}

// DeleteChapter removes the chapter together with its sub-chapters and every
// line bound to any of them, then recomputes the estimate.
func (e *Engine) DeleteChapter(ctx context.Context, estimateID, chapterID string) (*Change, error) {
	var removed int
	tree, err := e.mutate(ctx, estimateID, func(m *mutation) error {
		c, err := m.chapter(chapterID)
		if err != nil {
			return err
		}
		before := len(m.tree.Lines)
		m.deleteChapter(c)
		removed = before - len(m.tree.Lines)
		return nil
	})
	if err != nil {
		return nil, err
	}
	e.logger().Info("chapter deleted", "estimateId", estimateID, "chapterId", chapterID, "linesRemoved", removed)
	return &Change{Tree: tree, ID: chapterID}, nil
}
