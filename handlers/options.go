package handlers

import (
	"net/http"

	"github.com/pocketbase/pocketbase/core"

	"begroting/services"
)

// Options are the fixed choice lists a client needs to build its forms.
type Options struct {
	Units           []string          `json:"units"`
	LineTypes       []services.Option `json:"line_types"`
	Statuses        []services.Option `json:"statuses"`
	VATRates        []int             `json:"vat_rates"`
	ProjectStatuses []string          `json:"project_statuses"`
}

func HandleOptions() func(*core.RequestEvent) error {
	return func(e *core.RequestEvent) error {
		return e.JSON(http.StatusOK, Options{
			Units:           services.UnitOptions,
			LineTypes:       services.LineTypeOptions,
			Statuses:        services.StatusOptions,
			VATRates:        services.VATOptions,
			ProjectStatuses: ProjectStatusOptions,
		})
	}
}
