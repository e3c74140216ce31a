package handlers

import (
	"log"
	"net/http"

	"github.com/dustin/go-humanize"
	"github.com/pocketbase/pocketbase"
	"github.com/pocketbase/pocketbase/core"

	"begroting/estimating"
	"begroting/services"
)

// ProjectEstimateItem is one estimate on the project page.
type ProjectEstimateItem struct {
	EstimateView
	TotalDisplay string `json:"total_display"`
	UpdatedAgo   string `json:"updated_ago"`
}

type ProjectDetail struct {
	ProjectView
	Estimates []ProjectEstimateItem `json:"estimates"`
}

func HandleProjectView(app *pocketbase.PocketBase, eng *estimating.Engine) func(*core.RequestEvent) error {
	return func(e *core.RequestEvent) error {
		projectID := e.Request.PathValue("id")
		if projectID == "" {
			return ErrorToast(e, http.StatusBadRequest, "Missing project ID")
		}

		record, err := app.FindRecordById("projects", projectID)
		if err != nil {
			log.Printf("project_view: could not find project %s: %v", projectID, err)
			return ErrorToast(e, http.StatusNotFound, "Project not found")
		}

		estimates, err := eng.ListEstimates(projectID)
		if err != nil {
			return engineError(e, "project_view", err)
		}

		updated := make(map[string]string, len(estimates))
		if len(estimates) > 0 {
			recs, err := app.FindRecordsByFilter(
				"estimates",
				"project = {:projectId}",
				"", 0, 0,
				map[string]any{"projectId": projectID},
			)
			if err != nil {
				log.Printf("project_view: could not load estimate timestamps: %v", err)
			}
			for _, r := range recs {
				if dt := r.GetDateTime("updated"); !dt.IsZero() {
					updated[r.Id] = humanize.Time(dt.Time())
				}
			}
		}

		detail := ProjectDetail{
			ProjectView: projectView(record),
			Estimates:   make([]ProjectEstimateItem, 0, len(estimates)),
		}
		for _, est := range estimates {
			detail.Estimates = append(detail.Estimates, ProjectEstimateItem{
				EstimateView: estimateView(est),
				TotalDisplay: services.FormatEUR(est.Markups().TotalInclVAT),
				UpdatedAgo:   updated[est.ID],
			})
		}

		return e.JSON(http.StatusOK, detail)
	}
}
