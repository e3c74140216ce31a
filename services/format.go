package services

import (
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/shopspring/decimal"
)

// FormatEUR formats an amount in Dutch euro notation: "€ 1.234,56".
// Amounts are rounded half away from zero to whole cents.
func FormatEUR(amount decimal.Decimal) string {
	f := amount.Round(2).InexactFloat64()
	if f < 0 {
		return "€ -" + humanize.FormatFloat("#.###,##", -f)
	}
	return "€ " + humanize.FormatFloat("#.###,##", f)
}

// FormatQty renders a quantity with a decimal comma. Whole numbers get no
// decimals; fractional values keep up to three.
func FormatQty(qty decimal.Decimal) string {
	if qty.Equal(qty.Truncate(0)) {
		return humanize.FormatFloat("#.###,", qty.InexactFloat64())
	}
	s := qty.Round(3).String()
	return strings.Replace(s, ".", ",", 1)
}

// FormatPercent renders a percentage such as "21%" or "2,5%".
func FormatPercent(pct decimal.Decimal) string {
	return FormatQty(pct) + "%"
}
