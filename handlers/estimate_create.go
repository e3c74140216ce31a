package handlers

import (
	"net/http"

	"github.com/pocketbase/pocketbase/core"
	"github.com/shopspring/decimal"

	"begroting/config"
	"begroting/estimating"
)

type estimateCreateInput struct {
	ProjectID    string           `json:"project_id"`
	Name         string           `json:"name"`
	Description  string           `json:"description"`
	Notes        string           `json:"notes"`
	GeneralCosts *decimal.Decimal `json:"general_costs_percent"`
	Profit       *decimal.Decimal `json:"profit_percent"`
	Risk         *decimal.Decimal `json:"risk_percent"`
	VAT          *decimal.Decimal `json:"vat_percent"`
}

// percentages returns nil when the body sets none of them, so the engine
// applies its own defaults. Otherwise missing markups are zero and a
// missing VAT is the configured default.
func (in estimateCreateInput) percentages(cfg config.Config) *estimating.Percentages {
	if in.GeneralCosts == nil && in.Profit == nil && in.Risk == nil && in.VAT == nil {
		return nil
	}
	pct := estimating.Percentages{VAT: cfg.DefaultVATPercent}
	if in.GeneralCosts != nil {
		pct.GeneralCosts = *in.GeneralCosts
	}
	if in.Profit != nil {
		pct.Profit = *in.Profit
	}
	if in.Risk != nil {
		pct.Risk = *in.Risk
	}
	if in.VAT != nil {
		pct.VAT = *in.VAT
	}
	return &pct
}

// HandleEstimateCreate creates version 1 of a new estimate. The project is
// taken from the {projectId} path value, then the body, then the active
// project.
func HandleEstimateCreate(eng *estimating.Engine, cfg config.Config) func(*core.RequestEvent) error {
	return func(e *core.RequestEvent) error {
		var in estimateCreateInput
		if ok, err := bindJSON(e, &in); !ok {
			return err
		}

		projectID := e.Request.PathValue("projectId")
		if projectID == "" {
			projectID = in.ProjectID
		}
		if projectID == "" {
			if active := GetActiveProject(e.Request); active != nil {
				projectID = active.ID
			}
		}
		if projectID == "" {
			return ErrorToast(e, http.StatusBadRequest, "Select a project first")
		}

		change, err := eng.CreateEstimate(e.Request.Context(), estimating.EstimateDraft{
			ProjectID:   projectID,
			Name:        in.Name,
			Description: in.Description,
			Notes:       in.Notes,
			Percentages: in.percentages(cfg),
		})
		if err != nil {
			return engineError(e, "estimate_create", err)
		}

		SetToast(e, "success", "Estimate created")
		return e.JSON(http.StatusCreated, changeView(change))
	}
}
