package main

import (
	"context"
	"fmt"
	"log"
	"net/http"

	"github.com/pocketbase/pocketbase"
	"github.com/pocketbase/pocketbase/core"

	"begroting/collections"
	"begroting/commands"
	"begroting/config"
	"begroting/estimating"
	"begroting/handlers"
	"begroting/services"
)

func main() {
	cfg := config.Load()
	app := pocketbase.New()
	eng := estimating.NewEngine(app, cfg)
	prices := estimating.NewLibraryPriceSource(app)

	app.RootCmd.AddCommand(commands.NewRecomputeCommand(app, eng))

	// Create collections and seed data on startup
	app.OnServe().BindFunc(func(se *core.ServeEvent) error {
		collections.Setup(app)
		if cfg.Seed {
			if err := collections.Seed(app); err != nil {
				log.Printf("Warning: seed data failed: %v", err)
			}
			if err := services.SeedDemoEstimate(context.Background(), app, eng); err != nil {
				log.Printf("Warning: demo estimate failed: %v", err)
			}
		}
		if cfg.RecomputeOnStart {
			err := collections.MigrateRecomputeTotals(app, func(estimateID string) error {
				_, err := eng.Recompute(context.Background(), estimateID)
				return err
			})
			if err != nil {
				log.Printf("Warning: recompute on start failed: %v", err)
			}
		}
		return se.Next()
	})

	app.OnServe().BindFunc(func(se *core.ServeEvent) error {
		// Apply active project middleware globally
		se.Router.BindFunc(handlers.ActiveProjectMiddleware(app))

		// ── Project activation ───────────────────────────────────
		se.Router.POST("/projects/{id}/activate", handlers.HandleProjectActivate(app))
		se.Router.POST("/projects/deactivate", handlers.HandleProjectDeactivate(app))

		// ── Project CRUD ─────────────────────────────────────────
		se.Router.GET("/projects", handlers.HandleProjectList(app))
		se.Router.POST("/projects", handlers.HandleProjectSave(app))
		se.Router.GET("/projects/{id}", handlers.HandleProjectView(app, eng))
		se.Router.PATCH("/projects/{id}", handlers.HandleProjectUpdate(app))
		se.Router.DELETE("/projects/{id}", handlers.HandleProjectDelete(app))

		// ── Price library ────────────────────────────────────────
		se.Router.GET("/library", handlers.HandleLibraryList(app))
		se.Router.POST("/library", handlers.HandleLibraryCreate(app))
		se.Router.PATCH("/library/{id}", handlers.HandleLibraryUpdate(app))
		se.Router.DELETE("/library/{id}", handlers.HandleLibraryDelete(app))

		// ── Estimates ────────────────────────────────────────────
		se.Router.GET("/projects/{projectId}/estimates", handlers.HandleEstimateList(eng))
		se.Router.POST("/projects/{projectId}/estimates", handlers.HandleEstimateCreate(eng, cfg))
		se.Router.POST("/estimates", handlers.HandleEstimateCreate(eng, cfg))
		se.Router.GET("/estimates/{id}", handlers.HandleEstimateView(eng))
		se.Router.PATCH("/estimates/{id}", handlers.HandleEstimateSettings(eng))
		se.Router.POST("/estimates/{id}/status", handlers.HandleEstimateStatus(eng))
		se.Router.POST("/estimates/{id}/duplicate", handlers.HandleEstimateDuplicate(eng))
		se.Router.POST("/estimates/{id}/recompute", handlers.HandleEstimateRecompute(eng))

		// ── Chapters ─────────────────────────────────────────────
		se.Router.POST("/estimates/{id}/chapters", handlers.HandleChapterAdd(eng))
		se.Router.PATCH("/estimates/{id}/chapters/{chapterId}", handlers.HandleChapterUpdate(eng))
		se.Router.DELETE("/estimates/{id}/chapters/{chapterId}", handlers.HandleChapterDelete(eng))

		// ── Lines ────────────────────────────────────────────────
		se.Router.POST("/estimates/{id}/lines", handlers.HandleLineAdd(eng))
		se.Router.PATCH("/lines/{lineId}", handlers.HandleLineUpdate(eng))
		se.Router.DELETE("/lines/{lineId}", handlers.HandleLineDelete(eng))
		se.Router.POST("/lines/{lineId}/move", handlers.HandleLineMove(eng))
		se.Router.POST("/lines/{lineId}/price-sync", handlers.HandleLinePriceSync(eng, prices))

		// Line import
		se.Router.GET("/lines/template", handlers.HandleLineTemplateDownload())
		se.Router.POST("/estimates/{id}/lines/import", handlers.HandleLineImport(eng))
		se.Router.POST("/lines/import/errors", handlers.HandleLineImportErrorReport())

		// ── Export ───────────────────────────────────────────────
		se.Router.GET("/estimates/{id}/export/excel", handlers.HandleEstimateExportExcel(app, eng))
		se.Router.GET("/estimates/{id}/export/pdf", handlers.HandleEstimateExportPDF(app, eng))
		se.Router.GET("/estimates/{id}/preview", handlers.HandleEstimatePreview(app, eng))

		se.Router.GET("/options", handlers.HandleOptions())

		// Estimates of the active project
		se.Router.GET("/estimates", func(e *core.RequestEvent) error {
			activeProject := handlers.GetActiveProject(e.Request)
			if activeProject != nil {
				return e.Redirect(http.StatusFound, fmt.Sprintf("/projects/%s/estimates", activeProject.ID))
			}
			return e.Redirect(http.StatusFound, "/projects")
		})

		// Redirect home to projects list
		se.Router.GET("/", func(e *core.RequestEvent) error {
			return e.Redirect(http.StatusFound, "/projects")
		})

		return se.Next()
	})

	if err := app.Start(); err != nil {
		log.Fatal(err)
	}
}
