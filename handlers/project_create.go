package handlers

import (
	"errors"
	"log"
	"net/http"
	"strings"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/pocketbase/pocketbase"
	"github.com/pocketbase/pocketbase/core"
)

var ProjectStatusOptions = []string{"active", "on_hold", "completed"}

// ProjectView is the JSON shape of a project record.
type ProjectView struct {
	ID              string `json:"id"`
	Name            string `json:"name"`
	ClientName      string `json:"client_name"`
	ReferenceNumber string `json:"reference_number"`
	Status          string `json:"status"`
	Created         string `json:"created"`
}

func projectView(rec *core.Record) ProjectView {
	created := ""
	if dt := rec.GetDateTime("created"); !dt.IsZero() {
		created = dt.Time().Format("02-01-2006")
	}
	return ProjectView{
		ID:              rec.Id,
		Name:            rec.GetString("name"),
		ClientName:      rec.GetString("client_name"),
		ReferenceNumber: rec.GetString("reference_number"),
		Status:          rec.GetString("status"),
		Created:         created,
	}
}

type projectInput struct {
	Name            string `json:"name" form:"name"`
	ClientName      string `json:"client_name" form:"client_name"`
	ReferenceNumber string `json:"reference_number" form:"reference_number"`
	Status          string `json:"status" form:"status"`
}

func (in *projectInput) normalize() {
	in.Name = strings.TrimSpace(in.Name)
	in.ClientName = strings.TrimSpace(in.ClientName)
	in.ReferenceNumber = strings.TrimSpace(in.ReferenceNumber)
	in.Status = strings.TrimSpace(in.Status)
	if in.Status == "" {
		in.Status = "active"
	}
}

// validate checks the input and that no other project (excluding selfID)
// already uses the name. Field messages are keyed by input name.
func (in *projectInput) validate(app *pocketbase.PocketBase, selfID string) map[string]string {
	fieldErrors := make(map[string]string)

	err := validation.ValidateStruct(in,
		validation.Field(&in.Name, validation.Required.Error("Project name is required"), validation.RuneLength(1, 255)),
		validation.Field(&in.Status, validation.In(toAny(ProjectStatusOptions)...).Error("Unknown project status")),
	)
	var ve validation.Errors
	if errors.As(err, &ve) {
		for field, fe := range ve {
			fieldErrors[field] = fe.Error()
		}
	}

	if in.Name != "" {
		existing, _ := app.FindRecordsByFilter(
			"projects",
			"name = {:name} && id != {:id}",
			"", 1, 0,
			map[string]any{"name": in.Name, "id": selfID},
		)
		if len(existing) > 0 {
			fieldErrors["name"] = "A project with this name already exists"
		}
	}
	return fieldErrors
}

func (in *projectInput) apply(record *core.Record) {
	record.Set("name", in.Name)
	record.Set("client_name", in.ClientName)
	record.Set("reference_number", in.ReferenceNumber)
	record.Set("status", in.Status)
}

func toAny(values []string) []any {
	out := make([]any, len(values))
	for i, v := range values {
		out[i] = v
	}
	return out
}

func HandleProjectSave(app *pocketbase.PocketBase) func(*core.RequestEvent) error {
	return func(e *core.RequestEvent) error {
		var in projectInput
		if ok, err := bindJSON(e, &in); !ok {
			return err
		}
		in.normalize()

		if fieldErrors := in.validate(app, ""); len(fieldErrors) > 0 {
			SetToast(e, "warning", "Please fix the errors below")
			return errorBody(e, http.StatusBadRequest, "Invalid project", fieldErrors)
		}

		projectsCol, err := app.FindCollectionByNameOrId("projects")
		if err != nil {
			log.Printf("project_create: could not find projects collection: %v", err)
			return ErrorToast(e, http.StatusInternalServerError, "Something went wrong. Please try again.")
		}

		record := core.NewRecord(projectsCol)
		in.apply(record)

		if err := app.Save(record); err != nil {
			log.Printf("project_create: could not save project: %v", err)
			return ErrorToast(e, http.StatusInternalServerError, "Something went wrong. Please try again.")
		}

		SetToast(e, "success", "Project created successfully")
		return e.JSON(http.StatusCreated, projectView(record))
	}
}
