package handlers

import (
	"log"
	"net/http"

	"github.com/pocketbase/pocketbase"
	"github.com/pocketbase/pocketbase/core"
)

// HandleLibraryDelete removes a library item. Lines created from it keep
// their copied prices; only the link back to the item is lost.
func HandleLibraryDelete(app *pocketbase.PocketBase) func(*core.RequestEvent) error {
	return func(e *core.RequestEvent) error {
		itemID := e.Request.PathValue("id")

		record, err := app.FindRecordById("library_items", itemID)
		if err != nil {
			log.Printf("library_delete: could not find library item %s: %v", itemID, err)
			return ErrorToast(e, http.StatusNotFound, "Library item not found")
		}

		if err := app.Delete(record); err != nil {
			log.Printf("library_delete: failed to delete library item %s: %v", itemID, err)
			return ErrorToast(e, http.StatusInternalServerError, "Failed to delete library item")
		}

		log.Printf("library_delete: deleted library item %s (%s)", itemID, record.GetString("code"))
		SetToast(e, "success", "Library item deleted")
		return e.NoContent(http.StatusNoContent)
	}
}
