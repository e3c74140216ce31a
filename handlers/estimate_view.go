package handlers

import (
	"net/http"

	"github.com/pocketbase/pocketbase/core"

	"begroting/estimating"
)

func HandleEstimateList(eng *estimating.Engine) func(*core.RequestEvent) error {
	return func(e *core.RequestEvent) error {
		estimates, err := eng.ListEstimates(e.Request.PathValue("projectId"))
		if err != nil {
			return engineError(e, "estimate_list", err)
		}

		out := make([]EstimateView, 0, len(estimates))
		for _, est := range estimates {
			out = append(out, estimateView(est))
		}
		return e.JSON(http.StatusOK, out)
	}
}

// HandleEstimateView returns the whole estimate tree with its stored
// totals.
func HandleEstimateView(eng *estimating.Engine) func(*core.RequestEvent) error {
	return func(e *core.RequestEvent) error {
		tree, err := eng.Tree(e.Request.PathValue("id"))
		if err != nil {
			return engineError(e, "estimate_view", err)
		}
		return e.JSON(http.StatusOK, treeView(tree))
	}
}
