package handlers

import (
	"log"
	"net/http"

	"github.com/pocketbase/pocketbase"
	"github.com/pocketbase/pocketbase/core"
)

// HandleProjectDelete removes a project that has no estimates. Estimates are
// never deleted, so a project that still holds any is refused with 409.
func HandleProjectDelete(app *pocketbase.PocketBase) func(*core.RequestEvent) error {
	return func(e *core.RequestEvent) error {
		projectID := e.Request.PathValue("id")
		if projectID == "" {
			return ErrorToast(e, http.StatusBadRequest, "Missing project ID")
		}

		projectRecord, err := app.FindRecordById("projects", projectID)
		if err != nil {
			log.Printf("project_delete: could not find project %s: %v", projectID, err)
			return ErrorToast(e, http.StatusNotFound, "Project not found")
		}

		estimates, err := app.FindRecordsByFilter(
			"estimates",
			"project = {:projectId}",
			"", 1, 0,
			map[string]any{"projectId": projectID},
		)
		if err != nil {
			log.Printf("project_delete: could not query estimates of %s: %v", projectID, err)
			return ErrorToast(e, http.StatusInternalServerError, "Something went wrong. Please try again.")
		}
		if len(estimates) > 0 {
			return ErrorToast(e, http.StatusConflict, "Project still has estimates and cannot be deleted")
		}

		if err := app.Delete(projectRecord); err != nil {
			log.Printf("project_delete: failed to delete project %s: %v", projectID, err)
			return ErrorToast(e, http.StatusInternalServerError, "Failed to delete project")
		}

		log.Printf("project_delete: deleted project %s", projectID)

		if active := GetActiveProject(e.Request); active != nil && active.ID == projectID {
			clearActiveProjectCookie(e)
		}

		SetToast(e, "success", "Project deleted")
		return e.NoContent(http.StatusNoContent)
	}
}
