package estimating

// BuildVersion constructs a new, independent estimate tree from src. Every
// chapter and line gets a fresh id from newID, chapter references are
// remapped to the new chapters, and all derived totals are computed from the
// copied lines rather than taken from src. The result has status draft.
func BuildVersion(src *Tree, targetProjectID string, version int, newID func() string) (*Tree, error) {
	if version < 1 {
		return nil, invalid("version must be at least 1, got %d", version)
	}
	if targetProjectID == "" {
		targetProjectID = src.Estimate.ProjectID
	}

	est := &Estimate{
		ID:          newID(),
		ProjectID:   targetProjectID,
		Name:        src.Estimate.Name,
		Description: src.Estimate.Description,
		Notes:       src.Estimate.Notes,
		Version:     version,
		Status:      StatusDraft,
		Percentages: src.Estimate.Percentages,
	}

	chapterIDs := make(map[string]string, len(src.Chapters))
	for _, c := range src.Chapters {
		chapterIDs[c.ID] = newID()
	}

	chapters := make([]*Chapter, 0, len(src.Chapters))
	for _, c := range src.Chapters {
		chapters = append(chapters, &Chapter{
			ID:         chapterIDs[c.ID],
			EstimateID: est.ID,
			ParentID:   chapterIDs[c.ParentID],
			Code:       c.Code,
			Name:       c.Name,
			SortOrder:  c.SortOrder,
		})
	}

	lines := make([]*Line, 0, len(src.Lines))
	for _, l := range src.Lines {
		lines = append(lines, &Line{
			ID:            newID(),
			EstimateID:    est.ID,
			ChapterID:     chapterIDs[l.ChapterID],
			LibraryItemID: l.LibraryItemID,
			Code:          l.Code,
			Description:   l.Description,
			Specification: l.Specification,
			Unit:          l.Unit,
			Type:          l.Type,
			SortOrder:     l.SortOrder,
			LineInputs:    l.LineInputs,
		})
	}

	t := NewTree(est, chapters, lines)
	if err := t.RecomputeAll(); err != nil {
		return nil, err
	}
	return t, nil
}
