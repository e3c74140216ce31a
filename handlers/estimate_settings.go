package handlers

import (
	"net/http"

	"github.com/pocketbase/pocketbase/core"
	"github.com/shopspring/decimal"

	"begroting/estimating"
)

type estimateSettingsInput struct {
	Name         *string          `json:"name"`
	Description  *string          `json:"description"`
	Notes        *string          `json:"notes"`
	GeneralCosts *decimal.Decimal `json:"general_costs_percent"`
	Profit       *decimal.Decimal `json:"profit_percent"`
	Risk         *decimal.Decimal `json:"risk_percent"`
	VAT          *decimal.Decimal `json:"vat_percent"`
}

// HandleEstimateSettings changes the estimate header and markup
// percentages. Fields left out of the body are unchanged.
func HandleEstimateSettings(eng *estimating.Engine) func(*core.RequestEvent) error {
	return func(e *core.RequestEvent) error {
		var in estimateSettingsInput
		if ok, err := bindJSON(e, &in); !ok {
			return err
		}

		change, err := eng.UpdateSettings(e.Request.Context(), e.Request.PathValue("id"), estimating.SettingsUpdate{
			Name:         in.Name,
			Description:  in.Description,
			Notes:        in.Notes,
			GeneralCosts: in.GeneralCosts,
			Profit:       in.Profit,
			Risk:         in.Risk,
			VAT:          in.VAT,
		})
		if err != nil {
			return engineError(e, "estimate_settings", err)
		}

		SetToast(e, "success", "Settings saved")
		return e.JSON(http.StatusOK, changeView(change))
	}
}

func HandleEstimateStatus(eng *estimating.Engine) func(*core.RequestEvent) error {
	return func(e *core.RequestEvent) error {
		var in struct {
			Status estimating.Status `json:"status"`
		}
		if ok, err := bindJSON(e, &in); !ok {
			return err
		}

		change, err := eng.SetStatus(e.Request.Context(), e.Request.PathValue("id"), in.Status)
		if err != nil {
			return engineError(e, "estimate_status", err)
		}

		SetToast(e, "success", "Status updated")
		return e.JSON(http.StatusOK, changeView(change))
	}
}

// HandleEstimateRecompute reprices every line and rebuilds all totals.
func HandleEstimateRecompute(eng *estimating.Engine) func(*core.RequestEvent) error {
	return func(e *core.RequestEvent) error {
		change, err := eng.Recompute(e.Request.Context(), e.Request.PathValue("id"))
		if err != nil {
			return engineError(e, "estimate_recompute", err)
		}

		SetToast(e, "success", "Totals recalculated")
		return e.JSON(http.StatusOK, changeView(change))
	}
}
