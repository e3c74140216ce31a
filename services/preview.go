package services

//go:generate templ generate -f preview.templ

// rowKind is the data-kind attribute of a preview table row.
func rowKind(r ExportRow) string {
	if r.Kind == RowChapter {
		return "chapter"
	}
	return "line"
}
