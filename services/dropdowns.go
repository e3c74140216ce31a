package services

import "begroting/estimating"

// UnitOptions returns the list of units of measurement offered for lines.
var UnitOptions = []string{
	"st",
	"m1",
	"m2",
	"m3",
	"kg",
	"ton",
	"ltr",
	"uur",
	"dag",
	"week",
	"ps",
	"post",
	"set",
}

// Option is a value with its display label.
type Option struct {
	Value string `json:"value"`
	Label string `json:"label"`
}

// LineTypeOptions lists the line types with their Dutch labels.
var LineTypeOptions = []Option{
	{Value: string(estimating.LineTypeNormal), Label: "Normaal"},
	{Value: string(estimating.LineTypeProvisional), Label: "Stelpost"},
	{Value: string(estimating.LineTypeAdjustable), Label: "Verrekenbaar"},
}

// StatusOptions lists the estimate statuses with their Dutch labels.
var StatusOptions = []Option{
	{Value: string(estimating.StatusDraft), Label: "Concept"},
	{Value: string(estimating.StatusSent), Label: "Verzonden"},
	{Value: string(estimating.StatusAccepted), Label: "Geaccepteerd"},
	{Value: string(estimating.StatusRejected), Label: "Afgewezen"},
	{Value: string(estimating.StatusExpired), Label: "Verlopen"},
}

// VATOptions returns the Dutch VAT rates.
var VATOptions = []int{0, 9, 21}
