package handlers

import (
	"context"
	"log"
	"net/http"

	"github.com/pocketbase/pocketbase"
	"github.com/pocketbase/pocketbase/core"
)

type contextKey string

const ActiveProjectKey contextKey = "activeProject"

const activeProjectCookie = "active_project"

// ActiveProject is the project selected through the active_project cookie.
// New estimates land in it when the request names no project.
type ActiveProject struct {
	ID              string `json:"id"`
	Name            string `json:"name"`
	ClientName      string `json:"client_name"`
	ReferenceNumber string `json:"reference_number"`
}

// GetActiveProject extracts the active project from the request context.
func GetActiveProject(r *http.Request) *ActiveProject {
	if val, ok := r.Context().Value(ActiveProjectKey).(*ActiveProject); ok {
		return val
	}
	return nil
}

// ActiveProjectMiddleware reads the "active_project" cookie, loads the project
// record and stores it in the request context. A cookie pointing at a
// project that no longer exists is cleared.
func ActiveProjectMiddleware(app *pocketbase.PocketBase) func(e *core.RequestEvent) error {
	return func(e *core.RequestEvent) error {
		var activeProj *ActiveProject

		cookie, err := e.Request.Cookie(activeProjectCookie)
		if err == nil && cookie.Value != "" {
			rec, err := app.FindRecordById("projects", cookie.Value)
			if err == nil {
				activeProj = &ActiveProject{
					ID:              rec.Id,
					Name:            rec.GetString("name"),
					ClientName:      rec.GetString("client_name"),
					ReferenceNumber: rec.GetString("reference_number"),
				}
			} else {
				log.Printf("middleware: active project %s not found, clearing cookie", cookie.Value)
				clearActiveProjectCookie(e)
			}
		}

		ctx := context.WithValue(e.Request.Context(), ActiveProjectKey, activeProj)
		e.Request = e.Request.WithContext(ctx)

		return e.Next()
	}
}

func clearActiveProjectCookie(e *core.RequestEvent) {
	http.SetCookie(e.Response, &http.Cookie{
		Name:   activeProjectCookie,
		Value:  "",
		Path:   "/",
		MaxAge: -1,
	})
}
