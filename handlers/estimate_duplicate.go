package handlers

import (
	"log"
	"net/http"

	"github.com/pocketbase/pocketbase/core"

	"begroting/estimating"
)

// HandleEstimateDuplicate copies an estimate into its next version, in the
// same project or in the project named by project_id.
func HandleEstimateDuplicate(eng *estimating.Engine) func(*core.RequestEvent) error {
	return func(e *core.RequestEvent) error {
		var in struct {
			ProjectID string `json:"project_id"`
		}
		if ok, err := bindJSON(e, &in); !ok {
			return err
		}

		sourceID := e.Request.PathValue("id")
		change, err := eng.Duplicate(e.Request.Context(), sourceID, in.ProjectID)
		if err != nil {
			return engineError(e, "estimate_duplicate", err)
		}

		log.Printf("estimate_duplicate: %s copied to %s (version %d)", sourceID, change.ID, change.Tree.Estimate.Version)
		SetToast(e, "success", "New version created")
		return e.JSON(http.StatusCreated, changeView(change))
	}
}
