package estimating

import "github.com/shopspring/decimal"

// MarkupResult is the outcome of the markup cascade.
type MarkupResult struct {
	GeneralCostsAmount decimal.Decimal `json:"general_costs_amount"`
	ProfitAmount       decimal.Decimal `json:"profit_amount"`
	RiskAmount         decimal.Decimal `json:"risk_amount"`
	TotalExclVAT       decimal.Decimal `json:"total_excl_vat"`
	VATAmount          decimal.Decimal `json:"vat_amount"`
	TotalInclVAT       decimal.Decimal `json:"total_incl_vat"`
}

// ApplyMarkups runs the markup cascade on a cost subtotal. Each markup is
// taken on the cumulative base so far: profit on cost plus general costs,
// risk on cost plus general costs plus profit, VAT on the resulting total.
// The order is fixed.
func ApplyMarkups(subtotal decimal.Decimal, p Percentages) MarkupResult {
	base := subtotal

	generalCosts := percentOf(base, p.GeneralCosts)
	base = base.Add(generalCosts)

	profit := percentOf(base, p.Profit)
	base = base.Add(profit)

	risk := percentOf(base, p.Risk)
	totalExcl := base.Add(risk)

	vat := percentOf(totalExcl, p.VAT)

	return MarkupResult{
		GeneralCostsAmount: generalCosts,
		ProfitAmount:       profit,
		RiskAmount:         risk,
		TotalExclVAT:       totalExcl,
		VATAmount:          vat,
		TotalInclVAT:       totalExcl.Add(vat),
	}
}

// percentOf returns base × pct / 100. The division is a decimal shift, so it
// is exact.
func percentOf(base, pct decimal.Decimal) decimal.Decimal {
	if pct.IsZero() || base.IsZero() {
		return decimal.Zero
	}
	return base.Mul(pct).Shift(-2)
}

// Rounded returns the result rounded half away from zero to whole cents, for
// presentation only.
func (r MarkupResult) Rounded() MarkupResult {
	return MarkupResult{
		GeneralCostsAmount: r.GeneralCostsAmount.Round(2),
		ProfitAmount:       r.ProfitAmount.Round(2),
		RiskAmount:         r.RiskAmount.Round(2),
		TotalExclVAT:       r.TotalExclVAT.Round(2),
		VATAmount:          r.VATAmount.Round(2),
		TotalInclVAT:       r.TotalInclVAT.Round(2),
	}
}
