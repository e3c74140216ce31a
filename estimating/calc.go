// Package estimating implements the estimate computation and versioning
// engine: line pricing, chapter and estimate rollup, the markup cascade and
// deep duplication of estimates into new versions.
package estimating

import "github.com/shopspring/decimal"

// LineInputs are the fully-resolved cost inputs of one line. Defaults (such
// as the labor rate) are applied before a value of this type is built; the
// calculator never substitutes missing values.
type LineInputs struct {
	Quantity      decimal.Decimal `json:"quantity"`
	LaborHours    decimal.Decimal `json:"labor_hours"`
	LaborRate     decimal.Decimal `json:"labor_rate"`
	MaterialCost  decimal.Decimal `json:"material_cost"`
	EquipmentCost decimal.Decimal `json:"equipment_cost"`
	SubcontrCost  decimal.Decimal `json:"subcontr_cost"`
}

// LinePrice is the derived part of a line.
type LinePrice struct {
	LaborCost  decimal.Decimal
	UnitPrice  decimal.Decimal
	TotalPrice decimal.Decimal
}

// ComputeLine prices a line from its cost components. All cost components
// are per unit of the line's quantity.
func ComputeLine(in LineInputs) (LinePrice, error) {
	if err := validateInputs(in); err != nil {
		return LinePrice{}, err
	}

	laborCost := in.LaborHours.Mul(in.LaborRate)
	unitPrice := laborCost.
		Add(in.MaterialCost).
		Add(in.EquipmentCost).
		Add(in.SubcontrCost)

	return LinePrice{
		LaborCost:  laborCost,
		UnitPrice:  unitPrice,
		TotalPrice: unitPrice.Mul(in.Quantity),
	}, nil
}

// categoryTotals returns the line's contribution per cost category,
// i.e. each per-unit component multiplied by the quantity.
func (in LineInputs) categoryTotals() CostTotals {
	labor := in.LaborHours.Mul(in.LaborRate).Mul(in.Quantity)
	material := in.MaterialCost.Mul(in.Quantity)
	equipment := in.EquipmentCost.Mul(in.Quantity)
	subcontr := in.SubcontrCost.Mul(in.Quantity)
	return CostTotals{
		Labor:     labor,
		Material:  material,
		Equipment: equipment,
		Subcontr:  subcontr,
		Subtotal:  labor.Add(material).Add(equipment).Add(subcontr),
	}
}
