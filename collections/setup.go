package collections

import (
	"fmt"
	"log"

	"github.com/pocketbase/pocketbase"
	"github.com/pocketbase/pocketbase/core"
	"github.com/pocketbase/pocketbase/tools/types"
)

// EstimateStatuses are the values of the estimates.status select field.
var EstimateStatuses = []string{"draft", "sent", "accepted", "rejected", "expired"}

// LineTypes are the values of the estimate_lines.line_type select field.
var LineTypes = []string{"normal", "provisional", "adjustable"}

// Setup programmatically creates/ensures the projects, library_items,
// estimates, estimate_chapters and estimate_lines collections exist.
func Setup(app *pocketbase.PocketBase) {
	projects := ensureCollection(app, "projects", func(c *core.Collection) {
		c.Fields.Add(&core.TextField{Name: "name", Required: true, Max: 255})
		c.Fields.Add(&core.TextField{Name: "client_name"})
		c.Fields.Add(&core.TextField{Name: "reference_number"})
		c.Fields.Add(&core.SelectField{
			Name:      "status",
			Required:  true,
			Values:    []string{"active", "on_hold", "completed"},
			MaxSelect: 1,
		})
		c.Fields.Add(&core.AutodateField{Name: "created", OnCreate: true})
		c.Fields.Add(&core.AutodateField{Name: "updated", OnCreate: true, OnUpdate: true})
	})

	libraryItems := ensureCollection(app, "library_items", func(c *core.Collection) {
		c.Fields.Add(&core.TextField{Name: "code", Required: true, Max: 20})
		c.Fields.Add(&core.TextField{Name: "description", Required: true})
		c.Fields.Add(&core.TextField{Name: "unit", Max: 20})
		c.Fields.Add(&core.TextField{Name: "category"})
		addCostComponents(c)
		c.Fields.Add(&core.AutodateField{Name: "created", OnCreate: true})
		c.Fields.Add(&core.AutodateField{Name: "updated", OnCreate: true, OnUpdate: true})
		c.AddIndex("idx_library_items_code", true, "code", "")
	})

	estimates := ensureCollection(app, "estimates", func(c *core.Collection) {
		c.Fields.Add(&core.RelationField{
			Name:          "project",
			Required:      true,
			CollectionId:  projects.Id,
			CascadeDelete: true,
			MaxSelect:     1,
		})
		c.Fields.Add(&core.TextField{Name: "name", Required: true, Max: 255})
		c.Fields.Add(&core.TextField{Name: "description"})
		c.Fields.Add(&core.TextField{Name: "notes"})
		c.Fields.Add(&core.NumberField{Name: "version", Required: true, OnlyInt: true, Min: types.Pointer(1.0)})
		c.Fields.Add(&core.SelectField{
			Name:      "status",
			Required:  true,
			Values:    EstimateStatuses,
			MaxSelect: 1,
		})
		for _, name := range []string{"general_costs_percent", "profit_percent", "risk_percent", "vat_percent"} {
			c.Fields.Add(decimalField(name, false))
		}
		addCostTotals(c)
		for _, name := range []string{"general_costs_amount", "profit_amount", "risk_amount", "total_excl_vat", "vat_amount", "total_incl_vat"} {
			c.Fields.Add(decimalField(name, false))
		}
		c.Fields.Add(&core.AutodateField{Name: "created", OnCreate: true})
		c.Fields.Add(&core.AutodateField{Name: "updated", OnCreate: true, OnUpdate: true})
		c.AddIndex("idx_estimates_lineage", true, "project, name, version", "")
	})

	chapters := ensureCollection(app, "estimate_chapters", func(c *core.Collection) {
		c.Fields.Add(&core.RelationField{
			Name:          "estimate",
			Required:      true,
			CollectionId:  estimates.Id,
			CascadeDelete: true,
			MaxSelect:     1,
		})
		c.Fields.Add(&core.TextField{Name: "code", Max: 20})
		c.Fields.Add(&core.TextField{Name: "name", Required: true, Max: 255})
		c.Fields.Add(&core.NumberField{Name: "sort_order", OnlyInt: true})
		addCostTotals(c)
	})
	ensureField(app, chapters, &core.RelationField{
		Name:          "parent",
		CollectionId:  chapters.Id,
		CascadeDelete: true,
		MaxSelect:     1,
	})

	ensureCollection(app, "estimate_lines", func(c *core.Collection) {
		c.Fields.Add(&core.RelationField{
			Name:          "estimate",
			Required:      true,
			CollectionId:  estimates.Id,
			CascadeDelete: true,
			MaxSelect:     1,
		})
		c.Fields.Add(&core.RelationField{
			Name:          "chapter",
			CollectionId:  chapters.Id,
			CascadeDelete: true,
			MaxSelect:     1,
		})
		c.Fields.Add(&core.RelationField{
			Name:         "library_item",
			CollectionId: libraryItems.Id,
			MaxSelect:    1,
		})
		c.Fields.Add(&core.TextField{Name: "code", Max: 20})
		c.Fields.Add(&core.TextField{Name: "description", Required: true})
		c.Fields.Add(&core.TextField{Name: "specification"})
		c.Fields.Add(&core.TextField{Name: "unit", Max: 20})
		c.Fields.Add(&core.SelectField{
			Name:      "line_type",
			Required:  true,
			Values:    LineTypes,
			MaxSelect: 1,
		})
		c.Fields.Add(&core.NumberField{Name: "sort_order", OnlyInt: true})
		c.Fields.Add(decimalField("quantity", true))
		addCostComponents(c)
		c.Fields.Add(decimalField("labor_cost", false))
		c.Fields.Add(decimalField("unit_price", false))
		c.Fields.Add(decimalField("total_price", false))
	})
}

// addCostComponents adds the per-unit cost inputs shared by library items
// and estimate lines.
func addCostComponents(c *core.Collection) {
	for _, name := range []string{"labor_hours", "labor_rate", "material_cost", "equipment_cost", "subcontr_cost"} {
		c.Fields.Add(decimalField(name, false))
	}
}

// addCostTotals adds the derived category sums shared by estimates and
// chapters.
func addCostTotals(c *core.Collection) {
	for _, name := range []string{"total_labor", "total_material", "total_equipment", "total_subcontr", "subtotal"} {
		c.Fields.Add(decimalField(name, false))
	}
}

// DecimalPattern matches the canonical decimal strings money, quantity and
// percentage fields are stored as.
const DecimalPattern = `^-?[0-9]+(\.[0-9]+)?$`

// decimalField stores an exact decimal as text. SQLite REAL columns would
// round every amount through float64.
func decimalField(name string, required bool) *core.TextField {
	return &core.TextField{Name: name, Required: required, Max: 64, Pattern: DecimalPattern}
}

// ensureCollection checks if a collection already exists by name. If it does,
// the existing collection is returned. Otherwise a new base collection is
// created, the addFields callback is invoked to populate its fields, and the
// collection is saved.
func ensureCollection(app *pocketbase.PocketBase, name string, addFields func(*core.Collection)) *core.Collection {
	existing, err := app.FindCollectionByNameOrId(name)
	if err == nil && existing != nil {
		log.Printf("Collection %q already exists, skipping creation.\n", name)
		return existing
	}

	collection := core.NewBaseCollection(name)
	addFields(collection)

	if err := app.Save(collection); err != nil {
		log.Fatalf("Failed to create collection %q: %v", name, err)
	}

	fmt.Printf("Created collection %q (id=%s)\n", name, collection.Id)
	return collection
}

// ensureField adds field to an existing collection unless a field with the
// same name is already there. Self-relations need the collection id, so
// they are added after the first save.
func ensureField(app *pocketbase.PocketBase, collection *core.Collection, field core.Field) {
	if collection.Fields.GetByName(field.GetName()) != nil {
		return
	}
	collection.Fields.Add(field)
	if err := app.Save(collection); err != nil {
		log.Fatalf("Failed to add field %q to %q: %v", field.GetName(), collection.Name, err)
	}
}
