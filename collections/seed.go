package collections

import (
	"fmt"
	"log"

	"github.com/pocketbase/pocketbase"
	"github.com/pocketbase/pocketbase/core"
	"github.com/shopspring/decimal"
)

// DemoProjectName is the project Seed creates on an empty database.
const DemoProjectName = "Nieuwbouw woning Kavel 12"

// ── Definition structs ───────────────────────────────────────────────────

type libraryItemDef struct {
	code          string
	description   string
	unit          string
	category      string
	laborHours    float64
	laborRate     float64
	materialCost  float64
	equipmentCost float64
	subcontrCost  float64
}

// libraryItems is a small price library with NL-SfB style element codes.
var libraryItems = []libraryItemDef{
	{"13.10", "Grondwerk: ontgraven bouwput", "m3", "Funderingen", 0.15, 0, 0, 6.50, 0},
	{"16.20", "Funderingsbalk gewapend beton C30/37", "m3", "Funderingen", 2.5, 0, 135.00, 18.00, 0},
	{"16.30", "Heipalen prefab beton 290x290", "st", "Funderingen", 0, 0, 0, 0, 410.00},
	{"21.10", "Kalkzandsteen lijmwerk 150 mm", "m2", "Buitenwanden", 0.65, 0, 28.50, 1.20, 0},
	{"21.20", "Gevelmetselwerk waalformaat", "m2", "Buitenwanden", 1.4, 0, 42.00, 2.10, 0},
	{"21.40", "Spouwisolatie PIR 120 mm", "m2", "Buitenwanden", 0.2, 0, 24.75, 0, 0},
	{"22.10", "Binnenwand gipsblokken 100 mm", "m2", "Binnenwanden", 0.55, 0, 19.80, 0, 0},
	{"23.10", "Breedplaatvloer 260 mm incl. stort", "m2", "Vloeren", 0.45, 0, 56.00, 6.50, 0},
	{"27.10", "Dakbeschot geisoleerd Rc 6.3", "m2", "Daken", 0.35, 0, 61.00, 3.00, 0},
	{"31.10", "Kozijn hardhout incl. HR++ glas", "st", "Buitenwandopeningen", 4.0, 52.50, 640.00, 0, 0},
	{"43.10", "Vloerafwerking zandcement dekvloer 50 mm", "m2", "Vloerafwerkingen", 0, 0, 0, 0, 17.50},
	{"52.10", "Riolering PVC 110 mm", "m1", "Afvoeren", 0.3, 0, 14.20, 0, 0},
	{"61.10", "Elektrische installatie woning", "post", "Elektrotechniek", 0, 0, 0, 0, 7800.00},
}

// Seed populates the price library and a demo project. It is safe to call
// on every startup because it returns early if any project records already
// exist.
func Seed(app *pocketbase.PocketBase) error {
	// ── idempotency: skip if projects already exist ──────────────────
	projectsCol, err := app.FindCollectionByNameOrId("projects")
	if err != nil {
		return fmt.Errorf("seed: could not find projects collection: %w", err)
	}
	existing, err := app.FindAllRecords(projectsCol)
	if err != nil {
		return fmt.Errorf("seed: could not query projects: %w", err)
	}
	if len(existing) > 0 {
		return nil // already seeded
	}

	log.Println("seed: projects collection is empty – inserting seed data …")

	libraryCol, err := app.FindCollectionByNameOrId("library_items")
	if err != nil {
		return fmt.Errorf("seed: could not find library_items collection: %w", err)
	}

	return app.RunInTransaction(func(txApp core.App) error {
		for _, d := range libraryItems {
			found, _ := txApp.FindFirstRecordByData(libraryCol, "code", d.code)
			if found != nil {
				continue
			}
			r := core.NewRecord(libraryCol)
			r.Set("code", d.code)
			r.Set("description", d.description)
			r.Set("unit", d.unit)
			r.Set("category", d.category)
			r.Set("labor_hours", decimal.NewFromFloat(d.laborHours).String())
			r.Set("labor_rate", decimal.NewFromFloat(d.laborRate).String())
			r.Set("material_cost", decimal.NewFromFloat(d.materialCost).String())
			r.Set("equipment_cost", decimal.NewFromFloat(d.equipmentCost).String())
			r.Set("subcontr_cost", decimal.NewFromFloat(d.subcontrCost).String())
			if err := txApp.Save(r); err != nil {
				return fmt.Errorf("seed: library item %s: %w", d.code, err)
			}
		}

		project := core.NewRecord(projectsCol)
		project.Set("name", DemoProjectName)
		project.Set("client_name", "Fam. de Vries")
		project.Set("reference_number", "2026-012")
		project.Set("status", "active")
		if err := txApp.Save(project); err != nil {
			return fmt.Errorf("seed: project: %w", err)
		}

		log.Printf("seed: created %d library items and project %q (%s)\n", len(libraryItems), DemoProjectName, project.Id)
		return nil
	})
}
