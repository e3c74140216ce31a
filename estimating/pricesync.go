package estimating

import (
	"context"
	"errors"
	"fmt"

	"github.com/pocketbase/pocketbase/core"
	"github.com/shopspring/decimal"
)

// PriceComponents are the per-unit cost components a price source may
// refresh. Quantity and labor hours always stay as entered.
type PriceComponents struct {
	LaborRate     decimal.Decimal `json:"labor_rate"`
	MaterialCost  decimal.Decimal `json:"material_cost"`
	EquipmentCost decimal.Decimal `json:"equipment_cost"`
	SubcontrCost  decimal.Decimal `json:"subcontr_cost"`
}

// MarketPrice is a price source's answer for one line. UnitPrice, Source,
// Confidence and PercentageChange are for display only.
type MarketPrice struct {
	PriceComponents
	UnitPrice        decimal.Decimal `json:"unit_price"`
	Source           string          `json:"source"`
	Confidence       string          `json:"confidence"`
	PercentageChange decimal.Decimal `json:"percentage_change"`
}

// PriceSource looks up a refreshed price for a line. A nil price with a
// nil error means no update is available.
type PriceSource interface {
	FetchMarketPrice(ctx context.Context, lineID string) (*MarketPrice, error)
}

// ApplyPriceUpdate replaces the line's cost components with pc and
// recomputes the line, its chapter and the estimate.
func (e *Engine) ApplyPriceUpdate(ctx context.Context, lineID string, pc PriceComponents) (*Change, error) {
	return e.UpdateLine(ctx, lineID, LinePatch{
		LaborRate:     &pc.LaborRate,
		MaterialCost:  &pc.MaterialCost,
		EquipmentCost: &pc.EquipmentCost,
		SubcontrCost:  &pc.SubcontrCost,
	})
}

// SyncLinePrice asks src for a new price and applies it. When src has
// nothing, the line is left untouched and ErrPriceSyncUnavailable is
// returned.
func (e *Engine) SyncLinePrice(ctx context.Context, src PriceSource, lineID string) (*Change, *MarketPrice, error) {
	mp, err := src.FetchMarketPrice(ctx, lineID)
	if err != nil {
		return nil, nil, fmt.Errorf("fetch market price for line %s: %w", lineID, err)
	}
	if mp == nil {
		e.logger().Debug("no price update available", "lineId", lineID)
		return nil, nil, fmt.Errorf("line %s: %w", lineID, ErrPriceSyncUnavailable)
	}

	change, err := e.ApplyPriceUpdate(ctx, lineID, mp.PriceComponents)
	if err != nil {
		return nil, nil, err
	}
	e.logger().Info("line price synced",
		"lineId", lineID,
		"source", mp.Source,
		"percentageChange", mp.PercentageChange.StringFixed(2),
	)
	return change, mp, nil
}

// LibraryPriceSource refreshes lines from the library item they were
// created from. Lines without provenance, or whose components already
// match the library, get no update.
type LibraryPriceSource struct {
	app core.App
}

func NewLibraryPriceSource(app core.App) *LibraryPriceSource {
	return &LibraryPriceSource{app: app}
}

func (s *LibraryPriceSource) FetchMarketPrice(ctx context.Context, lineID string) (*MarketPrice, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	store := NewStore(s.app)
	l, err := store.LoadLine(lineID)
	if err != nil {
		return nil, err
	}
	if l.LibraryItemID == "" {
		return nil, nil
	}
	item, err := store.LoadLibraryItem(l.LibraryItemID)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, nil
		}
		return nil, err
	}

	pc := PriceComponents{
		LaborRate:     l.LaborRate,
		MaterialCost:  item.MaterialCost,
		EquipmentCost: item.EquipmentCost,
		SubcontrCost:  item.SubcontrCost,
	}
	if item.LaborRate.IsPositive() {
		pc.LaborRate = item.LaborRate
	}
	if pc.LaborRate.Equal(l.LaborRate) &&
		pc.MaterialCost.Equal(l.MaterialCost) &&
		pc.EquipmentCost.Equal(l.EquipmentCost) &&
		pc.SubcontrCost.Equal(l.SubcontrCost) {
		return nil, nil
	}

	in := l.LineInputs
	in.LaborRate = pc.LaborRate
	in.MaterialCost = pc.MaterialCost
	in.EquipmentCost = pc.EquipmentCost
	in.SubcontrCost = pc.SubcontrCost
	price, err := ComputeLine(in)
	if err != nil {
		return nil, err
	}

	change := decimal.Zero
	if old := l.UnitPrice(); !old.IsZero() {
		change = price.UnitPrice.Sub(old).Div(old).Mul(hundred)
	}
	return &MarketPrice{
		PriceComponents:  pc,
		UnitPrice:        price.UnitPrice,
		Source:           "library:" + item.Code,
		Confidence:       "high",
		PercentageChange: change,
	}, nil
}
