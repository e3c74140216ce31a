package handlers

import (
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"time"

	"github.com/pocketbase/pocketbase/core"

	"begroting/estimating"
	"begroting/services"
)

const (
	xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	maxUploadBytes  = 10 << 20
)

// ImportView answers a line import. Tree is set only when lines were
// stored.
type ImportView struct {
	services.ImportResult
	Imported int       `json:"imported"`
	Tree     *TreeView `json:"tree,omitempty"`
}

// HandleLineTemplateDownload serves the Excel template for line import.
// Route: GET /lines/template
func HandleLineTemplateDownload() func(*core.RequestEvent) error {
	return func(e *core.RequestEvent) error {
		xlsxBytes, err := services.GenerateLineTemplate()
		if err != nil {
			log.Printf("line_template: failed to generate: %v", err)
			return ErrorToast(e, http.StatusInternalServerError, "Failed to generate template")
		}

		filename := fmt.Sprintf("Posten_Template_%d.xlsx", time.Now().Year())
		e.Response.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, filename))
		return e.Blob(http.StatusOK, xlsxContentType, xlsxBytes)
	}
}

// HandleLineImport parses an uploaded CSV or xlsx file and adds its rows to
// the estimate in one mutation. Any invalid row rejects the whole file.
// With ?dry_run=true the file is only validated.
// Route: POST /estimates/{id}/lines/import
func HandleLineImport(eng *estimating.Engine) func(*core.RequestEvent) error {
	return func(e *core.RequestEvent) error {
		estimateID := e.Request.PathValue("id")

		if err := e.Request.ParseMultipartForm(maxUploadBytes); err != nil {
			return ErrorToast(e, http.StatusBadRequest, "File too large or invalid form data")
		}

		file, header, err := e.Request.FormFile("file")
		if err != nil {
			return ErrorToast(e, http.StatusBadRequest, "Please select a file to upload")
		}
		defer file.Close()

		raw, err := io.ReadAll(io.LimitReader(file, maxUploadBytes))
		if err != nil {
			log.Printf("line_import: read upload: %v", err)
			return ErrorToast(e, http.StatusBadRequest, "Could not read the uploaded file")
		}

		result, err := services.ParseLineFile(raw, header.Filename)
		if err != nil {
			log.Printf("line_import: %v", err)
			return ErrorToast(e, http.StatusBadRequest, err.Error())
		}

		if result.HasErrors() {
			SetToast(e, "error", fmt.Sprintf("%d rows have errors, nothing was imported", result.ErrorRows))
			return e.JSON(http.StatusBadRequest, ImportView{ImportResult: *result})
		}
		if e.Request.URL.Query().Get("dry_run") == "true" {
			return e.JSON(http.StatusOK, ImportView{ImportResult: *result})
		}

		change, err := eng.ImportLines(e.Request.Context(), estimateID, result.Rows)
		if err != nil {
			return engineError(e, "line_import", err)
		}

		log.Printf("line_import: imported %d lines from %s into %s", len(result.Rows), header.Filename, estimateID)
		SetToast(e, "success", fmt.Sprintf("%d lines imported successfully", len(result.Rows)))
		tree := treeView(change.Tree)
		return e.JSON(http.StatusCreated, ImportView{ImportResult: *result, Imported: len(result.Rows), Tree: &tree})
	}
}

// HandleLineImportErrorReport turns posted validation errors into a
// downloadable Excel file.
// Route: POST /lines/import/errors
func HandleLineImportErrorReport() func(*core.RequestEvent) error {
	return func(e *core.RequestEvent) error {
		var errors []services.ValidationError
		decoder := json.NewDecoder(e.Request.Body)
		if err := decoder.Decode(&errors); err != nil {
			return ErrorToast(e, http.StatusBadRequest, "Invalid error data")
		}

		xlsxBytes, err := services.GenerateErrorReport(errors)
		if err != nil {
			log.Printf("error_report: %v", err)
			return ErrorToast(e, http.StatusInternalServerError, "Something went wrong. Please try again.")
		}

		filename := fmt.Sprintf("Posten_Fouten_%s.xlsx", time.Now().Format("2006-01-02"))
		e.Response.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, filename))
		return e.Blob(http.StatusOK, xlsxContentType, xlsxBytes)
	}
}
