package estimating

import (
	"context"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// LineDraft describes a new line. Nil amounts take the creation defaults:
// quantity 1, the configured labor rate, zero for every other component.
type LineDraft struct {
	ChapterID     string
	Code          string
	Description   string
	Specification string
	Unit          string
	Type          LineType
	SortOrder     int

	Quantity      *decimal.Decimal
	LaborHours    *decimal.Decimal
	LaborRate     *decimal.Decimal
	MaterialCost  *decimal.Decimal
	EquipmentCost *decimal.Decimal
	SubcontrCost  *decimal.Decimal
}

// LinePatch changes a line. Nil fields are left as they are; a non-nil
// empty ChapterID unassigns the line.
type LinePatch struct {
	ChapterID     *string
	Code          *string
	Description   *string
	Specification *string
	Unit          *string
	Type          *LineType
	SortOrder     *int

	Quantity      *decimal.Decimal
	LaborHours    *decimal.Decimal
	LaborRate     *decimal.Decimal
	MaterialCost  *decimal.Decimal
	EquipmentCost *decimal.Decimal
	SubcontrCost  *decimal.Decimal
}

func (p LinePatch) touchesCosts() bool {
	return p.Quantity != nil || p.LaborHours != nil || p.LaborRate != nil ||
		p.MaterialCost != nil || p.EquipmentCost != nil || p.SubcontrCost != nil
}

// ImportRow is one line of a bulk import. Chapters are referenced by code
// because imported files do not know record ids.
type ImportRow struct {
	Row         int
	ChapterCode string
	LineDraft
}

// ImportError is returned by ImportLines when any row is rejected. Nothing
// is stored in that case.
type ImportError struct {
	Rows map[int]string
}

func (e *ImportError) Error() string {
	return fmt.Sprintf("%s: %d rejected rows", ErrValidation, len(e.Rows))
}

func (e *ImportError) Is(target error) bool {
	return target == ErrValidation
}

// newLine applies the creation defaults to d and builds a line for the
// estimate. The line is not yet priced.
func (e *Engine) newLine(estimateID string, d LineDraft) (*Line, error) {
	typ := d.Type
	if typ == "" {
		typ = LineTypeNormal
	}
	desc := strings.TrimSpace(d.Description)
	unit := strings.TrimSpace(d.Unit)
	if err := validateLineText(desc, unit, typ); err != nil {
		return nil, err
	}

	return &Line{
		ID:            NewID(),
		EstimateID:    estimateID,
		ChapterID:     d.ChapterID,
		Code:          strings.TrimSpace(d.Code),
		Description:   desc,
		Specification: d.Specification,
		Unit:          unit,
		Type:          typ,
		SortOrder:     d.SortOrder,
		LineInputs: LineInputs{
			Quantity:      orDefault(d.Quantity, decimal.NewFromInt(1)),
			LaborHours:    orDefault(d.LaborHours, decimal.Zero),
			LaborRate:     orDefault(d.LaborRate, e.cfg.DefaultLaborRate),
			MaterialCost:  orDefault(d.MaterialCost, decimal.Zero),
			EquipmentCost: orDefault(d.EquipmentCost, decimal.Zero),
			SubcontrCost:  orDefault(d.SubcontrCost, decimal.Zero),
		},
	}, nil
}

func orDefault(v *decimal.Decimal, def decimal.Decimal) decimal.Decimal {
	if v == nil {
		return def
	}
	return *v
}

// insertLine checks the chapter binding, assigns the sort order and adds
// the priced line to the mutation.
func (m *mutation) insertLine(l *Line) error {
	if l.ChapterID != "" {
		if _, err := m.chapter(l.ChapterID); err != nil {
			return err
		}
	}
	if l.SortOrder <= 0 {
		l.SortOrder = m.nextLineSort(l.ChapterID)
	}
	return m.addLine(l)
}

// AddLine creates a priced line and rolls it up into its chapter and the
// estimate.
func (e *Engine) AddLine(ctx context.Context, estimateID string, d LineDraft) (*Change, error) {
	l, err := e.newLine(estimateID, d)
	if err != nil {
		return nil, err
	}
	if err := validateInputs(l.LineInputs); err != nil {
		return nil, err
	}

	tree, err := e.mutate(ctx, estimateID, func(m *mutation) error {
		return m.insertLine(l)
	})
	if err != nil {
		return nil, err
	}
	e.logger().Debug("line added", "estimateId", estimateID, "lineId", l.ID)
	return &Change{Tree: tree, ID: l.ID}, nil
}

// AddLineFromLibrary creates a line whose description, unit and cost
// components are copied from a library item. Fields set on d override the
// library values.
func (e *Engine) AddLineFromLibrary(ctx context.Context, estimateID, libraryItemID string, d LineDraft) (*Change, error) {
	item, err := NewStore(e.app).LoadLibraryItem(libraryItemID)
	if err != nil {
		return nil, err
	}

	if strings.TrimSpace(d.Description) == "" {
		d.Description = item.Description
	}
	if strings.TrimSpace(d.Code) == "" {
		d.Code = item.Code
	}
	if strings.TrimSpace(d.Unit) == "" {
		d.Unit = item.Unit
	}
	if d.LaborHours == nil {
		d.LaborHours = &item.LaborHours
	}
	if d.LaborRate == nil && item.LaborRate.IsPositive() {
		d.LaborRate = &item.LaborRate
	}
	if d.MaterialCost == nil {
		d.MaterialCost = &item.MaterialCost
	}
	if d.EquipmentCost == nil {
		d.EquipmentCost = &item.EquipmentCost
	}
	if d.SubcontrCost == nil {
		d.SubcontrCost = &item.SubcontrCost
	}

	l, err := e.newLine(estimateID, d)
	if err != nil {
		return nil, err
	}
	l.LibraryItemID = item.ID
	if err := validateInputs(l.LineInputs); err != nil {
		return nil, err
	}

	tree, err := e.mutate(ctx, estimateID, func(m *mutation) error {
		return m.insertLine(l)
	})
	if err != nil {
		return nil, err
	}
	return &Change{Tree: tree, ID: l.ID}, nil
}

// UpdateLine applies p to the line. Cost changes reprice the line and roll
// up into its chapter and the estimate; text-only changes do not touch any
// total. A chapter change moves the line in the same mutation, so a bad
// chapter leaves the line untouched.
func (e *Engine) UpdateLine(ctx context.Context, lineID string, p LinePatch) (*Change, error) {
	estimateID, err := NewStore(e.app).EstimateOfLine(lineID)
	if err != nil {
		return nil, err
	}

	tree, err := e.mutate(ctx, estimateID, func(m *mutation) error {
		l, err := m.line(lineID)
		if err != nil {
			return err
		}

		desc, unit, typ := l.Description, l.Unit, l.Type
		if p.Description != nil {
			desc = strings.TrimSpace(*p.Description)
		}
		if p.Unit != nil {
			unit = strings.TrimSpace(*p.Unit)
		}
		if p.Type != nil {
			typ = *p.Type
		}
		if err := validateLineText(desc, unit, typ); err != nil {
			return err
		}

		in := l.LineInputs
		if p.Quantity != nil {
			in.Quantity = *p.Quantity
		}
		if p.LaborHours != nil {
			in.LaborHours = *p.LaborHours
		}
		if p.LaborRate != nil {
			in.LaborRate = *p.LaborRate
		}
		if p.MaterialCost != nil {
			in.MaterialCost = *p.MaterialCost
		}
		if p.EquipmentCost != nil {
			in.EquipmentCost = *p.EquipmentCost
		}
		if p.SubcontrCost != nil {
			in.SubcontrCost = *p.SubcontrCost
		}
		if err := validateInputs(in); err != nil {
			return err
		}
		if p.SortOrder != nil && *p.SortOrder < 0 {
			return invalidField("sort_order", "must not be negative")
		}
		if p.ChapterID != nil && *p.ChapterID != "" {
			if _, err := m.chapter(*p.ChapterID); err != nil {
				return err
			}
		}

		l.Description, l.Unit, l.Type = desc, unit, typ
		if p.Code != nil {
			l.Code = strings.TrimSpace(*p.Code)
		}
		if p.Specification != nil {
			l.Specification = *p.Specification
		}
		if p.SortOrder != nil {
			l.SortOrder = *p.SortOrder
		}
		l.LineInputs = in
		if p.ChapterID != nil && *p.ChapterID != l.ChapterID {
			if p.SortOrder == nil {
				l.SortOrder = m.nextLineSort(*p.ChapterID)
			}
			m.moveLine(l, *p.ChapterID)
		}

		if p.touchesCosts() {
			return m.linePriced(l)
		}
		m.dirtyLines[l.ID] = true
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &Change{Tree: tree, ID: lineID}, nil
}

// MoveLine rebinds a line to another chapter of the same estimate, or to
// the estimate itself when chapterID is empty. Both the old and the new
// chapter are recomputed.
func (e *Engine) MoveLine(ctx context.Context, lineID, chapterID string) (*Change, error) {
	estimateID, err := NewStore(e.app).EstimateOfLine(lineID)
	if err != nil {
		return nil, err
	}

	tree, err := e.mutate(ctx, estimateID, func(m *mutation) error {
		l, err := m.line(lineID)
		if err != nil {
			return err
		}
		if chapterID != "" {
			if _, err := m.chapter(chapterID); err != nil {
				return err
			}
		}
		if l.ChapterID != chapterID {
			l.SortOrder = m.nextLineSort(chapterID)
		}
		m.moveLine(l, chapterID)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &Change{Tree: tree, ID: lineID}, nil
}

func (e *Engine) DeleteLine(ctx context.Context, lineID string) (*Change, error) {
	estimateID, err := NewStore(e.app).EstimateOfLine(lineID)
	if err != nil {
		return nil, err
	}

	tree, err := e.mutate(ctx, estimateID, func(m *mutation) error {
		l, err := m.line(lineID)
		if err != nil {
			return err
		}
		m.deleteLine(l)
		return nil
	})
	if err != nil {
		return nil, err
	}
	e.logger().Debug("line deleted", "estimateId", estimateID, "lineId", lineID)
	return &Change{Tree: tree, ID: lineID}, nil
}

// ImportLines adds all rows to the estimate in one mutation. Rows name
// their chapter by code; an unknown code or invalid row rejects the whole
// import with an *ImportError listing every bad row.
func (e *Engine) ImportLines(ctx context.Context, estimateID string, rows []ImportRow) (*Change, error) {
	if len(rows) == 0 {
		return nil, invalid("import contains no lines")
	}

	tree, err := e.mutate(ctx, estimateID, func(m *mutation) error {
		byCode := make(map[string]string, len(m.tree.Chapters))
		for _, c := range m.tree.Chapters {
			if c.Code != "" {
				byCode[strings.ToLower(c.Code)] = c.ID
			}
		}

		rowErrs := make(map[int]string)
		lines := make([]*Line, 0, len(rows))
		for _, r := range rows {
			d := r.LineDraft
			if code := strings.TrimSpace(r.ChapterCode); code != "" {
				id, ok := byCode[strings.ToLower(code)]
				if !ok {
					rowErrs[r.Row] = fmt.Sprintf("unknown chapter code %q", code)
					continue
				}
				d.ChapterID = id
			}
			l, err := e.newLine(estimateID, d)
			if err == nil {
				err = validateInputs(l.LineInputs)
			}
			if err != nil {
				rowErrs[r.Row] = err.Error()
				continue
			}
			lines = append(lines, l)
		}
		if len(rowErrs) > 0 {
			return &ImportError{Rows: rowErrs}
		}

		for _, l := range lines {
			if err := m.insertLine(l); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	e.logger().Info("lines imported", "estimateId", estimateID, "count", len(rows))
	return &Change{Tree: tree, ID: estimateID}, nil
}
