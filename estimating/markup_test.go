package estimating

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestApplyMarkups_Compounds(t *testing.T) {
	p := Percentages{GeneralCosts: d("10"), Profit: d("5"), Risk: d("3"), VAT: d("21")}

	r := ApplyMarkups(d("1000"), p)

	assertDec(t, "100", r.GeneralCostsAmount, "generalCostsAmount")
	assertDec(t, "55", r.ProfitAmount, "profitAmount")
	assertDec(t, "34.65", r.RiskAmount, "riskAmount")
	assertDec(t, "1189.65", r.TotalExclVAT, "totalExclVat")
	assertDec(t, "249.8265", r.VATAmount, "vatAmount")
	assertDec(t, "1439.4765", r.TotalInclVAT, "totalInclVat")
	assertDec(t, "1439.48", r.Rounded().TotalInclVAT, "rounded totalInclVat")
}

func TestApplyMarkups_DiffersFromFlatPercentages(t *testing.T) {
	subtotal := d("1000")
	p := Percentages{GeneralCosts: d("10"), Profit: d("5"), Risk: d("3"), VAT: d("21")}

	// Every markup taken on the original subtotal.
	flatProfit := subtotal.Mul(p.Profit).Div(hundred)
	flatRisk := subtotal.Mul(p.Risk).Div(hundred)
	flatExcl := subtotal.Add(subtotal.Mul(p.GeneralCosts).Div(hundred)).Add(flatProfit).Add(flatRisk)

	r := ApplyMarkups(subtotal, p)

	assert.False(t, r.ProfitAmount.Equal(flatProfit), "profit must be taken on cost plus general costs")
	assert.False(t, r.RiskAmount.Equal(flatRisk), "risk must be taken on the cumulative base")
	assert.False(t, r.TotalExclVAT.Equal(flatExcl))
	assertDec(t, "1180", flatExcl, "flat total")
}

func TestApplyMarkups_ZeroShortCircuit(t *testing.T) {
	full := Percentages{GeneralCosts: d("10"), Profit: d("5"), Risk: d("3"), VAT: d("21")}

	tests := []struct {
		name   string
		mutate func(*Percentages)
		check  func(t *testing.T, r MarkupResult)
	}{
		{
			name:   "general costs",
			mutate: func(p *Percentages) { p.GeneralCosts = decimal.Zero },
			check: func(t *testing.T, r MarkupResult) {
				assert.True(t, r.GeneralCostsAmount.IsZero())
				assertDec(t, "50", r.ProfitAmount, "profit")
			},
		},
		{
			name:   "profit",
			mutate: func(p *Percentages) { p.Profit = decimal.Zero },
			check: func(t *testing.T, r MarkupResult) {
				assert.True(t, r.ProfitAmount.IsZero())
				assertDec(t, "33", r.RiskAmount, "risk")
			},
		},
		{
			name:   "risk",
			mutate: func(p *Percentages) { p.Risk = decimal.Zero },
			check: func(t *testing.T, r MarkupResult) {
				assert.True(t, r.RiskAmount.IsZero())
				assertDec(t, "1155", r.TotalExclVAT, "totalExclVat")
			},
		},
		{
			name:   "vat",
			mutate: func(p *Percentages) { p.VAT = decimal.Zero },
			check: func(t *testing.T, r MarkupResult) {
				assert.True(t, r.VATAmount.IsZero())
				assert.True(t, r.TotalInclVAT.Equal(r.TotalExclVAT))
				assertDec(t, "1189.65", r.TotalExclVAT, "totalExclVat")
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := full
			tt.mutate(&p)
			tt.check(t, ApplyMarkups(d("1000"), p))
		})
	}
}

func TestApplyMarkups_ZeroSubtotal(t *testing.T) {
	r := ApplyMarkups(decimal.Zero, Percentages{GeneralCosts: d("10"), Profit: d("5"), Risk: d("3"), VAT: d("21")})
	assert.True(t, r.TotalInclVAT.IsZero())
	assert.True(t, r.VATAmount.IsZero())
}

func TestPercentages_Validate(t *testing.T) {
	tests := []struct {
		name    string
		p       Percentages
		wantErr string
	}{
		{"typical", Percentages{GeneralCosts: d("8"), Profit: d("5"), Risk: d("2"), VAT: d("21")}, ""},
		{"bounds", Percentages{GeneralCosts: d("0"), Profit: d("100"), Risk: d("0"), VAT: d("9")}, ""},
		{"negative profit", Percentages{Profit: d("-1")}, "profit_percent"},
		{"vat over 100", Percentages{VAT: d("100.01")}, "vat_percent"},
		{"risk over 100", Percentages{Risk: d("250")}, "risk_percent"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.p.Validate()
			if tt.wantErr == "" {
				require.NoError(t, err)
				return
			}
			var ve *ValidationError
			require.ErrorAs(t, err, &ve)
			assert.Contains(t, ve.Fields, tt.wantErr)
		})
	}
}
