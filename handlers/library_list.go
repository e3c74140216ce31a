package handlers

import (
	"log"
	"net/http"
	"strings"

	"github.com/pocketbase/pocketbase"
	"github.com/pocketbase/pocketbase/core"
)

// HandleLibraryList returns the price library sorted by code. The optional
// q parameter matches code or description, category filters exactly.
func HandleLibraryList(app *pocketbase.PocketBase) func(*core.RequestEvent) error {
	return func(e *core.RequestEvent) error {
		query := e.Request.URL.Query()
		q := strings.TrimSpace(query.Get("q"))
		category := strings.TrimSpace(query.Get("category"))

		filter := "id != ''"
		params := map[string]any{}
		if q != "" {
			filter += " && (code ~ {:q} || description ~ {:q})"
			params["q"] = q
		}
		if category != "" {
			filter += " && category = {:category}"
			params["category"] = category
		}

		records, err := app.FindRecordsByFilter("library_items", filter, "code", 0, 0, params)
		if err != nil {
			log.Printf("library_list: could not query library items: %v", err)
			return ErrorToast(e, http.StatusInternalServerError, "Something went wrong. Please try again.")
		}

		items := make([]LibraryItemView, 0, len(records))
		for _, rec := range records {
			items = append(items, libraryItemView(rec))
		}
		return e.JSON(http.StatusOK, items)
	}
}
