package services

// TemplateField describes one column in the line import template.
type TemplateField struct {
	Key            string // internal name, matches the estimate_lines field name
	Label          string // human-readable header shown in Excel
	Description    string // shown on the Instructions sheet
	FormatRule     string // e.g. "Getal, komma of punt als decimaal"
	ExampleValue   string // shown on the Instructions sheet
	AlwaysRequired bool
}

const numberRule = "Getal ≥ 0, komma of punt als decimaalteken"

// LineTemplateFields returns the ordered list of columns for line imports.
func LineTemplateFields() []TemplateField {
	return []TemplateField{
		{Key: "chapter_code", Label: "Hoofdstuk", Description: "Code van een bestaand hoofdstuk in deze begroting; leeg = geen hoofdstuk", FormatRule: "Bestaande hoofdstukcode", ExampleValue: "21"},
		{Key: "code", Label: "Code", Description: "Eigen code van de post", ExampleValue: "21.10.01"},
		{Key: "description", Label: "Omschrijving", Description: "Omschrijving van de post", ExampleValue: "Metselwerk kalkzandsteen 150 mm", AlwaysRequired: true},
		{Key: "quantity", Label: "Aantal", Description: "Hoeveelheid; leeg = 1", FormatRule: numberRule, ExampleValue: "42,5"},
		{Key: "unit", Label: "Eenheid", Description: "Eenheid (kies uit de lijst)", ExampleValue: "m2", AlwaysRequired: true},
		{Key: "labor_hours", Label: "Arbeid uren", Description: "Arbeidsuren per eenheid", FormatRule: numberRule, ExampleValue: "0,8"},
		{Key: "labor_rate", Label: "Uurloon", Description: "Uurloon; leeg = standaard uurloon", FormatRule: numberRule, ExampleValue: "45"},
		{Key: "material_cost", Label: "Materiaal", Description: "Materiaalkosten per eenheid", FormatRule: numberRule, ExampleValue: "18,50"},
		{Key: "equipment_cost", Label: "Materieel", Description: "Materieelkosten per eenheid", FormatRule: numberRule, ExampleValue: "0"},
		{Key: "subcontr_cost", Label: "Onderaanneming", Description: "Onderaannemingskosten per eenheid", FormatRule: numberRule, ExampleValue: "0"},
		{Key: "line_type", Label: "Soort", Description: "normal, provisional of adjustable; leeg = normal", FormatRule: "normal / provisional / adjustable", ExampleValue: "normal"},
	}
}
