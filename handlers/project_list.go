package handlers

import (
	"log"
	"net/http"

	"github.com/pocketbase/dbx"
	"github.com/pocketbase/pocketbase"
	"github.com/pocketbase/pocketbase/core"
)

// ProjectListItem is a project with a summary of its estimates.
type ProjectListItem struct {
	ProjectView
	EstimateCount int  `json:"estimate_count"`
	IsActive      bool `json:"is_active"`
}

func HandleProjectList(app *pocketbase.PocketBase) func(*core.RequestEvent) error {
	return func(e *core.RequestEvent) error {
		projectsCol, err := app.FindCollectionByNameOrId("projects")
		if err != nil {
			log.Printf("project_list: could not find projects collection: %v", err)
			return ErrorToast(e, http.StatusInternalServerError, "Something went wrong. Please try again.")
		}

		records, err := app.FindRecordsByFilter(projectsCol, "id != ''", "name", 0, 0)
		if err != nil {
			log.Printf("project_list: could not query projects: %v", err)
			return ErrorToast(e, http.StatusInternalServerError, "Something went wrong. Please try again.")
		}

		active := GetActiveProject(e.Request)
		items := make([]ProjectListItem, 0, len(records))
		for _, rec := range records {
			count, err := app.CountRecords("estimates", dbx.HashExp{"project": rec.Id})
			if err != nil {
				log.Printf("project_list: could not count estimates of %s: %v", rec.Id, err)
			}
			items = append(items, ProjectListItem{
				ProjectView:   projectView(rec),
				EstimateCount: int(count),
				IsActive:      active != nil && active.ID == rec.Id,
			})
		}

		return e.JSON(http.StatusOK, items)
	}
}
