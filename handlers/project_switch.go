package handlers

import (
	"net/http"

	"github.com/pocketbase/pocketbase"
	"github.com/pocketbase/pocketbase/core"
)

// HandleProjectActivate sets the active project cookie. New estimates that
// name no project are created in the active one.
func HandleProjectActivate(app *pocketbase.PocketBase) func(*core.RequestEvent) error {
	return func(e *core.RequestEvent) error {
		projectID := e.Request.PathValue("id")

		// Verify project exists
		rec, err := app.FindRecordById("projects", projectID)
		if err != nil {
			return ErrorToast(e, http.StatusNotFound, "Project not found")
		}

		// Set cookie (30-day expiry, HttpOnly)
		http.SetCookie(e.Response, &http.Cookie{
			Name:     activeProjectCookie,
			Value:    projectID,
			Path:     "/",
			MaxAge:   60 * 60 * 24 * 30,
			HttpOnly: true,
			SameSite: http.SameSiteLaxMode,
		})

		SetToast(e, "success", "Project activated")

		e.Response.Header().Set("HX-Redirect", "/projects/"+projectID)
		return e.JSON(http.StatusOK, ActiveProject{
			ID:              projectID,
			Name:            rec.GetString("name"),
			ClientName:      rec.GetString("client_name"),
			ReferenceNumber: rec.GetString("reference_number"),
		})
	}
}

// HandleProjectDeactivate clears the active project cookie and redirects to /projects.
func HandleProjectDeactivate(app *pocketbase.PocketBase) func(*core.RequestEvent) error {
	return func(e *core.RequestEvent) error {
		clearActiveProjectCookie(e)

		SetToast(e, "success", "Project deactivated")

		e.Response.Header().Set("HX-Redirect", "/projects")
		return e.NoContent(http.StatusNoContent)
	}
}
