package handlers

import (
	"fmt"
	"log"
	"net/http"
	"strings"

	"github.com/pocketbase/pocketbase"
	"github.com/pocketbase/pocketbase/core"

	"begroting/estimating"
	"begroting/services"
)

// buildExportData loads the estimate tree and its project and flattens them
// into services.ExportData. Only stored totals are used.
func buildExportData(app *pocketbase.PocketBase, eng *estimating.Engine, estimateID string) (services.ExportData, error) {
	tree, err := eng.Tree(estimateID)
	if err != nil {
		return services.ExportData{}, err
	}

	project, err := app.FindRecordById("projects", tree.Estimate.ProjectID)
	if err != nil {
		return services.ExportData{}, fmt.Errorf("project of estimate %s: %w", estimateID, err)
	}

	createdDate := "-"
	if rec, err := app.FindRecordById("estimates", estimateID); err == nil {
		if dt := rec.GetDateTime("created"); !dt.IsZero() {
			createdDate = dt.Time().Format("02-01-2006")
		}
	}

	return services.BuildExportData(tree, services.ProjectInfo{
		Name:            project.GetString("name"),
		ClientName:      project.GetString("client_name"),
		ReferenceNumber: project.GetString("reference_number"),
	}, createdDate), nil
}

// sanitizeFilename removes characters that are unsafe for filenames.
func sanitizeFilename(s string) string {
	s = strings.ReplaceAll(s, " ", "-")
	s = strings.ReplaceAll(s, "/", "-")
	s = strings.ReplaceAll(s, "\\", "-")
	s = strings.ReplaceAll(s, ":", "-")
	s = strings.ReplaceAll(s, `"`, "")
	return s
}

func exportFilename(data services.ExportData, ext string) string {
	return fmt.Sprintf("%s_%s_V%d.%s", sanitizeFilename(data.QuoteNumber), sanitizeFilename(data.Title), data.Version, ext)
}

// HandleEstimateExportExcel returns a handler that generates and downloads
// an Excel file for an estimate.
func HandleEstimateExportExcel(app *pocketbase.PocketBase, eng *estimating.Engine) func(*core.RequestEvent) error {
	return func(e *core.RequestEvent) error {
		data, err := buildExportData(app, eng, e.Request.PathValue("id"))
		if err != nil {
			return engineError(e, "export_excel", err)
		}

		xlsxBytes, err := services.GenerateExcel(data)
		if err != nil {
			log.Printf("export_excel: failed to generate: %v", err)
			return ErrorToast(e, http.StatusInternalServerError, "Failed to generate Excel file")
		}

		e.Response.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, exportFilename(data, "xlsx")))
		return e.Blob(http.StatusOK, "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet", xlsxBytes)
	}
}

// HandleEstimateExportPDF returns a handler that generates and downloads a
// PDF quotation for an estimate.
func HandleEstimateExportPDF(app *pocketbase.PocketBase, eng *estimating.Engine) func(*core.RequestEvent) error {
	return func(e *core.RequestEvent) error {
		data, err := buildExportData(app, eng, e.Request.PathValue("id"))
		if err != nil {
			return engineError(e, "export_pdf", err)
		}

		pdfBytes, err := services.GeneratePDF(data)
		if err != nil {
			log.Printf("export_pdf: failed to generate: %v", err)
			return ErrorToast(e, http.StatusInternalServerError, "Failed to generate PDF file")
		}

		e.Response.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, exportFilename(data, "pdf")))
		return e.Blob(http.StatusOK, "application/pdf", pdfBytes)
	}
}

// HandleEstimatePreview renders the estimate as a printable HTML page.
func HandleEstimatePreview(app *pocketbase.PocketBase, eng *estimating.Engine) func(*core.RequestEvent) error {
	return func(e *core.RequestEvent) error {
		data, err := buildExportData(app, eng, e.Request.PathValue("id"))
		if err != nil {
			return engineError(e, "export_preview", err)
		}

		e.Response.Header().Set("Content-Type", "text/html; charset=utf-8")
		return services.EstimatePreview(data).Render(e.Request.Context(), e.Response)
	}
}
