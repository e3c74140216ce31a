package handlers

import (
	"log"
	"net/http"

	"github.com/pocketbase/pocketbase"
	"github.com/pocketbase/pocketbase/core"
)

func HandleProjectUpdate(app *pocketbase.PocketBase) func(*core.RequestEvent) error {
	return func(e *core.RequestEvent) error {
		projectID := e.Request.PathValue("id")

		record, err := app.FindRecordById("projects", projectID)
		if err != nil {
			log.Printf("project_edit: could not find project %s: %v", projectID, err)
			return ErrorToast(e, http.StatusNotFound, "Project not found")
		}

		in := projectInput{
			Name:            record.GetString("name"),
			ClientName:      record.GetString("client_name"),
			ReferenceNumber: record.GetString("reference_number"),
			Status:          record.GetString("status"),
		}
		if ok, err := bindJSON(e, &in); !ok {
			return err
		}
		in.normalize()

		if fieldErrors := in.validate(app, projectID); len(fieldErrors) > 0 {
			SetToast(e, "warning", "Please fix the errors below")
			return errorBody(e, http.StatusBadRequest, "Invalid project", fieldErrors)
		}

		in.apply(record)
		if err := app.Save(record); err != nil {
			log.Printf("project_edit: could not update project %s: %v", projectID, err)
			return ErrorToast(e, http.StatusInternalServerError, "Something went wrong. Please try again.")
		}

		SetToast(e, "success", "Project updated successfully")
		return e.JSON(http.StatusOK, projectView(record))
	}
}
