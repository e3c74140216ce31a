package handlers

import (
	"errors"
	"log"
	"net/http"
	"strings"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/pocketbase/pocketbase"
	"github.com/pocketbase/pocketbase/core"
	"github.com/shopspring/decimal"
)

// LibraryItemView is a price library entry. UnitPrice is the per-unit
// price with the item's own labor rate; lines created from an item without
// a rate use the configured default instead.
type LibraryItemView struct {
	ID            string          `json:"id"`
	Code          string          `json:"code"`
	Description   string          `json:"description"`
	Unit          string          `json:"unit"`
	Category      string          `json:"category"`
	LaborHours    decimal.Decimal `json:"labor_hours"`
	LaborRate     decimal.Decimal `json:"labor_rate"`
	MaterialCost  decimal.Decimal `json:"material_cost"`
	EquipmentCost decimal.Decimal `json:"equipment_cost"`
	SubcontrCost  decimal.Decimal `json:"subcontr_cost"`
	UnitPrice     decimal.Decimal `json:"unit_price"`
}

func recordDecimal(rec *core.Record, field string) decimal.Decimal {
	v, err := decimal.NewFromString(rec.GetString(field))
	if err != nil {
		return decimal.Zero
	}
	return v
}

func libraryItemView(rec *core.Record) LibraryItemView {
	v := LibraryItemView{
		ID:            rec.Id,
		Code:          rec.GetString("code"),
		Description:   rec.GetString("description"),
		Unit:          rec.GetString("unit"),
		Category:      rec.GetString("category"),
		LaborHours:    recordDecimal(rec, "labor_hours"),
		LaborRate:     recordDecimal(rec, "labor_rate"),
		MaterialCost:  recordDecimal(rec, "material_cost"),
		EquipmentCost: recordDecimal(rec, "equipment_cost"),
		SubcontrCost:  recordDecimal(rec, "subcontr_cost"),
	}
	v.UnitPrice = v.LaborHours.Mul(v.LaborRate).Add(v.MaterialCost).Add(v.EquipmentCost).Add(v.SubcontrCost)
	return v
}

// libraryInput is both the create and the patch body. Nil fields keep the
// record's current value.
type libraryInput struct {
	Code          *string          `json:"code"`
	Description   *string          `json:"description"`
	Unit          *string          `json:"unit"`
	Category      *string          `json:"category"`
	LaborHours    *decimal.Decimal `json:"labor_hours"`
	LaborRate     *decimal.Decimal `json:"labor_rate"`
	MaterialCost  *decimal.Decimal `json:"material_cost"`
	EquipmentCost *decimal.Decimal `json:"equipment_cost"`
	SubcontrCost  *decimal.Decimal `json:"subcontr_cost"`
}

var notNegative = validation.By(func(value any) error {
	d, ok := value.(decimal.Decimal)
	if ok && d.IsNegative() {
		return errors.New("must not be negative")
	}
	return nil
})

// apply merges the input into rec and validates the result. Field
// messages are keyed by input name.
func (in *libraryInput) apply(app *pocketbase.PocketBase, rec *core.Record) map[string]string {
	v := libraryItemView(rec)
	setString := func(dst *string, src *string) {
		if src != nil {
			*dst = strings.TrimSpace(*src)
		}
	}
	setDecimal := func(dst *decimal.Decimal, src *decimal.Decimal) {
		if src != nil {
			*dst = *src
		}
	}
	setString(&v.Code, in.Code)
	setString(&v.Description, in.Description)
	setString(&v.Unit, in.Unit)
	setString(&v.Category, in.Category)
	setDecimal(&v.LaborHours, in.LaborHours)
	setDecimal(&v.LaborRate, in.LaborRate)
	setDecimal(&v.MaterialCost, in.MaterialCost)
	setDecimal(&v.EquipmentCost, in.EquipmentCost)
	setDecimal(&v.SubcontrCost, in.SubcontrCost)

	fieldErrors := make(map[string]string)
	err := validation.ValidateStruct(&v,
		validation.Field(&v.Code, validation.Required.Error("Code is required"), validation.RuneLength(1, 20)),
		validation.Field(&v.Description, validation.Required.Error("Description is required")),
		validation.Field(&v.Unit, validation.RuneLength(0, 20)),
		validation.Field(&v.LaborHours, notNegative),
		validation.Field(&v.LaborRate, notNegative),
		validation.Field(&v.MaterialCost, notNegative),
		validation.Field(&v.EquipmentCost, notNegative),
		validation.Field(&v.SubcontrCost, notNegative),
	)
	var ve validation.Errors
	if errors.As(err, &ve) {
		for field, fe := range ve {
			fieldErrors[field] = fe.Error()
		}
	}

	if v.Code != "" {
		existing, _ := app.FindRecordsByFilter(
			"library_items",
			"code = {:code} && id != {:id}",
			"", 1, 0,
			map[string]any{"code": v.Code, "id": rec.Id},
		)
		if len(existing) > 0 {
			fieldErrors["code"] = "A library item with this code already exists"
		}
	}
	if len(fieldErrors) > 0 {
		return fieldErrors
	}

	rec.Set("code", v.Code)
	rec.Set("description", v.Description)
	rec.Set("unit", v.Unit)
	rec.Set("category", v.Category)
	rec.Set("labor_hours", v.LaborHours.String())
	rec.Set("labor_rate", v.LaborRate.String())
	rec.Set("material_cost", v.MaterialCost.String())
	rec.Set("equipment_cost", v.EquipmentCost.String())
	rec.Set("subcontr_cost", v.SubcontrCost.String())
	return nil
}

func HandleLibraryCreate(app *pocketbase.PocketBase) func(*core.RequestEvent) error {
	return func(e *core.RequestEvent) error {
		var in libraryInput
		if ok, err := bindJSON(e, &in); !ok {
			return err
		}

		col, err := app.FindCollectionByNameOrId("library_items")
		if err != nil {
			log.Printf("library_create: could not find library_items collection: %v", err)
			return ErrorToast(e, http.StatusInternalServerError, "Something went wrong. Please try again.")
		}

		record := core.NewRecord(col)
		if fieldErrors := in.apply(app, record); len(fieldErrors) > 0 {
			return errorBody(e, http.StatusBadRequest, "Invalid library item", fieldErrors)
		}

		if err := app.Save(record); err != nil {
			log.Printf("library_create: could not save library item: %v", err)
			return ErrorToast(e, http.StatusInternalServerError, "Something went wrong. Please try again.")
		}

		SetToast(e, "success", "Library item created")
		return e.JSON(http.StatusCreated, libraryItemView(record))
	}
}

// HandleLibraryUpdate changes a library item. Lines created from it keep
// their prices until they are synced.
func HandleLibraryUpdate(app *pocketbase.PocketBase) func(*core.RequestEvent) error {
	return func(e *core.RequestEvent) error {
		itemID := e.Request.PathValue("id")

		record, err := app.FindRecordById("library_items", itemID)
		if err != nil {
			log.Printf("library_update: could not find library item %s: %v", itemID, err)
			return ErrorToast(e, http.StatusNotFound, "Library item not found")
		}

		var in libraryInput
		if ok, err := bindJSON(e, &in); !ok {
			return err
		}
		if fieldErrors := in.apply(app, record); len(fieldErrors) > 0 {
			return errorBody(e, http.StatusBadRequest, "Invalid library item", fieldErrors)
		}

		if err := app.Save(record); err != nil {
			log.Printf("library_update: could not save library item %s: %v", itemID, err)
			return ErrorToast(e, http.StatusInternalServerError, "Something went wrong. Please try again.")
		}

		SetToast(e, "success", "Library item updated")
		return e.JSON(http.StatusOK, libraryItemView(record))
	}
}
