package handlers

import (
	"errors"
	"net/http"

	"github.com/pocketbase/pocketbase/core"
	"github.com/shopspring/decimal"

	"begroting/estimating"
)

type lineInput struct {
	LibraryItemID string               `json:"library_item_id"`
	ChapterID     *string              `json:"chapter_id"`
	Code          *string              `json:"code"`
	Description   *string              `json:"description"`
	Specification *string              `json:"specification"`
	Unit          *string              `json:"unit"`
	Type          *estimating.LineType `json:"line_type"`
	SortOrder     *int                 `json:"sort_order"`

	Quantity      *decimal.Decimal `json:"quantity"`
	LaborHours    *decimal.Decimal `json:"labor_hours"`
	LaborRate     *decimal.Decimal `json:"labor_rate"`
	MaterialCost  *decimal.Decimal `json:"material_cost"`
	EquipmentCost *decimal.Decimal `json:"equipment_cost"`
	SubcontrCost  *decimal.Decimal `json:"subcontr_cost"`
}

func (in lineInput) draft() estimating.LineDraft {
	return estimating.LineDraft{
		ChapterID:     deref(in.ChapterID),
		Code:          deref(in.Code),
		Description:   deref(in.Description),
		Specification: deref(in.Specification),
		Unit:          deref(in.Unit),
		Type:          deref(in.Type),
		SortOrder:     deref(in.SortOrder),
		Quantity:      in.Quantity,
		LaborHours:    in.LaborHours,
		LaborRate:     in.LaborRate,
		MaterialCost:  in.MaterialCost,
		EquipmentCost: in.EquipmentCost,
		SubcontrCost:  in.SubcontrCost,
	}
}

func (in lineInput) patch() estimating.LinePatch {
	return estimating.LinePatch{
		ChapterID:     in.ChapterID,
		Code:          in.Code,
		Description:   in.Description,
		Specification: in.Specification,
		Unit:          in.Unit,
		Type:          in.Type,
		SortOrder:     in.SortOrder,
		Quantity:      in.Quantity,
		LaborHours:    in.LaborHours,
		LaborRate:     in.LaborRate,
		MaterialCost:  in.MaterialCost,
		EquipmentCost: in.EquipmentCost,
		SubcontrCost:  in.SubcontrCost,
	}
}

// HandleLineAdd adds a line to an estimate. With library_item_id the
// line starts from the library item and the body only overrides it.
func HandleLineAdd(eng *estimating.Engine) func(*core.RequestEvent) error {
	return func(e *core.RequestEvent) error {
		var in lineInput
		if ok, err := bindJSON(e, &in); !ok {
			return err
		}

		estimateID := e.Request.PathValue("id")
		var change *estimating.Change
		var err error
		if in.LibraryItemID != "" {
			change, err = eng.AddLineFromLibrary(e.Request.Context(), estimateID, in.LibraryItemID, in.draft())
		} else {
			change, err = eng.AddLine(e.Request.Context(), estimateID, in.draft())
		}
		if err != nil {
			return engineError(e, "line_add", err)
		}

		SetToast(e, "success", "Line added")
		return e.JSON(http.StatusCreated, changeView(change))
	}
}

// HandleLineUpdate changes a line's text or cost inputs. A chapter_id in
// the body also moves the line; an empty one unassigns it. All of it
// commits together or not at all.
func HandleLineUpdate(eng *estimating.Engine) func(*core.RequestEvent) error {
	return func(e *core.RequestEvent) error {
		var in lineInput
		if ok, err := bindJSON(e, &in); !ok {
			return err
		}

		change, err := eng.UpdateLine(e.Request.Context(), e.Request.PathValue("lineId"), in.patch())
		if err != nil {
			return engineError(e, "line_update", err)
		}

		SetToast(e, "success", "Line saved")
		return e.JSON(http.StatusOK, changeView(change))
	}
}

func HandleLineMove(eng *estimating.Engine) func(*core.RequestEvent) error {
	return func(e *core.RequestEvent) error {
		var in struct {
			ChapterID string `json:"chapter_id"`
		}
		if ok, err := bindJSON(e, &in); !ok {
			return err
		}

		change, err := eng.MoveLine(e.Request.Context(), e.Request.PathValue("lineId"), in.ChapterID)
		if err != nil {
			return engineError(e, "line_move", err)
		}

		SetToast(e, "success", "Line moved")
		return e.JSON(http.StatusOK, changeView(change))
	}
}

func HandleLineDelete(eng *estimating.Engine) func(*core.RequestEvent) error {
	return func(e *core.RequestEvent) error {
		change, err := eng.DeleteLine(e.Request.Context(), e.Request.PathValue("lineId"))
		if err != nil {
			return engineError(e, "line_delete", err)
		}

		SetToast(e, "success", "Line deleted")
		return e.JSON(http.StatusOK, changeView(change))
	}
}

// PriceSyncView answers a price sync. Price and Tree are only set when the
// line was updated.
type PriceSyncView struct {
	Updated bool                    `json:"updated"`
	Price   *estimating.MarketPrice `json:"price,omitempty"`
	Tree    *TreeView               `json:"tree,omitempty"`
}

// HandleLinePriceSync refreshes a line's cost components from src. No
// available update is not an error: the line is left as it is.
func HandleLinePriceSync(eng *estimating.Engine, src estimating.PriceSource) func(*core.RequestEvent) error {
	return func(e *core.RequestEvent) error {
		change, price, err := eng.SyncLinePrice(e.Request.Context(), src, e.Request.PathValue("lineId"))
		if errors.Is(err, estimating.ErrPriceSyncUnavailable) {
			SetToast(e, "info", "Price is up to date")
			return e.JSON(http.StatusOK, PriceSyncView{Updated: false})
		}
		if err != nil {
			return engineError(e, "line_price_sync", err)
		}

		tree := treeView(change.Tree)
		SetToast(e, "success", "Price updated")
		return e.JSON(http.StatusOK, PriceSyncView{Updated: true, Price: price, Tree: &tree})
	}
}
