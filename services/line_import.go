package services

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/gabriel-vasile/mimetype"
	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"

	"begroting/estimating"
)

const xlsxMIME = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// ValidationError represents a single field-level error on one row.
type ValidationError struct {
	Row     int    `json:"row"`
	Field   string `json:"field"`
	Message string `json:"message"`
}

// ImportResult is returned after parsing and validating an uploaded file.
type ImportResult struct {
	TotalRows    int                    `json:"total_rows"`
	ValidRows    int                    `json:"valid_rows"`
	ErrorRows    int                    `json:"error_rows"`
	Errors       []ValidationError      `json:"errors"`
	Unrecognized []string               `json:"unrecognized_columns,omitempty"`
	Rows         []estimating.ImportRow `json:"-"`
	FileName     string                 `json:"-"`
}

// HasErrors reports whether any row failed validation.
func (r *ImportResult) HasErrors() bool { return len(r.Errors) > 0 }

// ParseLineFile sniffs the upload (CSV or xlsx), maps its header row to line
// fields and converts every data row into an import row. Row numbers are
// 1-indexed and count the header, so they match what a spreadsheet shows.
func ParseLineFile(data []byte, fileName string) (*ImportResult, error) {
	var headers []string
	var dataRows [][]string
	var err error

	mt := mimetype.Detect(data)
	switch {
	case mt.Is(xlsxMIME), mt.Is("application/zip"):
		headers, dataRows, err = parseExcel(bytes.NewReader(data))
	case strings.HasPrefix(mt.String(), "text/"):
		headers, dataRows, err = parseCSV(bytes.NewReader(data))
	default:
		return nil, fmt.Errorf("unsupported file format %s: must be .csv or .xlsx", mt.String())
	}
	if err != nil {
		return nil, err
	}

	fields := LineTemplateFields()
	columnKeys, unrecognized := mapHeadersToFields(headers, fields)
	if !containsKey(columnKeys, "description") {
		return nil, fmt.Errorf("file has no %q column", "Omschrijving")
	}

	keyToLabel := make(map[string]string, len(fields))
	for _, f := range fields {
		keyToLabel[f.Key] = f.Label
	}

	result := &ImportResult{
		FileName:     fileName,
		Unrecognized: unrecognized,
		Rows:         make([]estimating.ImportRow, 0, len(dataRows)),
	}

	for rowIdx, row := range dataRows {
		rowNum := rowIdx + 2 // 1-indexed, +1 for header row
		rowData := make(map[string]string)
		blank := true
		for colIdx, key := range columnKeys {
			if key == "" || colIdx >= len(row) {
				continue
			}
			v := strings.TrimSpace(row[colIdx])
			rowData[key] = v
			if v != "" {
				blank = false
			}
		}
		if blank {
			continue
		}
		result.TotalRows++

		ir, rowErrors := buildImportRow(rowNum, rowData, keyToLabel)
		if len(rowErrors) > 0 {
			result.Errors = append(result.Errors, rowErrors...)
			continue
		}
		result.Rows = append(result.Rows, ir)
	}

	if result.TotalRows == 0 {
		return nil, fmt.Errorf("file must contain a header row and at least one data row")
	}

	errorRowSet := make(map[int]bool)
	for _, e := range result.Errors {
		errorRowSet[e.Row] = true
	}
	result.ErrorRows = len(errorRowSet)
	result.ValidRows = result.TotalRows - result.ErrorRows

	return result, nil
}

var decimalFields = []string{"quantity", "labor_hours", "labor_rate", "material_cost", "equipment_cost", "subcontr_cost"}

// buildImportRow converts one mapped row. Numeric columns left blank stay
// nil so the engine applies its creation defaults.
func buildImportRow(rowNum int, data map[string]string, keyToLabel map[string]string) (estimating.ImportRow, []ValidationError) {
	var errs []ValidationError

	for _, f := range LineTemplateFields() {
		if f.AlwaysRequired && data[f.Key] == "" {
			errs = append(errs, ValidationError{Row: rowNum, Field: f.Label, Message: fmt.Sprintf("%s is verplicht", f.Label)})
		}
	}

	amounts := make(map[string]*decimal.Decimal, len(decimalFields))
	for _, key := range decimalFields {
		v := data[key]
		if v == "" {
			continue
		}
		d, err := ParseDutchDecimal(v)
		if err != nil {
			errs = append(errs, ValidationError{Row: rowNum, Field: keyToLabel[key], Message: fmt.Sprintf("%q is geen geldig getal", v)})
			continue
		}
		if d.IsNegative() {
			errs = append(errs, ValidationError{Row: rowNum, Field: keyToLabel[key], Message: "mag niet negatief zijn"})
			continue
		}
		amounts[key] = &d
	}

	lineType := estimating.LineType(strings.ToLower(data["line_type"]))
	switch lineType {
	case "", estimating.LineTypeNormal, estimating.LineTypeProvisional, estimating.LineTypeAdjustable:
	default:
		errs = append(errs, ValidationError{Row: rowNum, Field: keyToLabel["line_type"], Message: fmt.Sprintf("onbekende soort %q", data["line_type"])})
	}

	if len(errs) > 0 {
		return estimating.ImportRow{}, errs
	}

	return estimating.ImportRow{
		Row:         rowNum,
		ChapterCode: data["chapter_code"],
		LineDraft: estimating.LineDraft{
			Code:          data["code"],
			Description:   data["description"],
			Unit:          data["unit"],
			Type:          lineType,
			Quantity:      amounts["quantity"],
			LaborHours:    amounts["labor_hours"],
			LaborRate:     amounts["labor_rate"],
			MaterialCost:  amounts["material_cost"],
			EquipmentCost: amounts["equipment_cost"],
			SubcontrCost:  amounts["subcontr_cost"],
		},
	}, nil
}

// ParseDutchDecimal accepts both "1.234,56" and "1234.56". A comma marks
// the decimal separator whenever one is present; dots are then thousands
// separators.
func ParseDutchDecimal(s string) (decimal.Decimal, error) {
	s = strings.TrimSpace(s)
	s = strings.TrimPrefix(s, "€")
	s = strings.ReplaceAll(strings.TrimSpace(s), " ", "")
	if strings.Contains(s, ",") {
		s = strings.ReplaceAll(s, ".", "")
		s = strings.Replace(s, ",", ".", 1)
	}
	return decimal.NewFromString(s)
}

// ImportErrorRows turns the per-row rejections of a failed engine import
// into report rows, ordered by row number.
func ImportErrorRows(ie *estimating.ImportError) []ValidationError {
	out := make([]ValidationError, 0, len(ie.Rows))
	for row, msg := range ie.Rows {
		out = append(out, ValidationError{Row: row, Field: "Regel", Message: msg})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Row < out[j].Row })
	return out
}

// parseCSV reads a CSV file and returns headers + data rows. Semicolon
// separated files, as written by Dutch spreadsheet locales, are detected from
// the header line.
func parseCSV(file io.Reader) ([]string, [][]string, error) {
	raw, err := io.ReadAll(file)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to read CSV: %w", err)
	}
	raw = bytes.TrimPrefix(raw, []byte("\xef\xbb\xbf"))

	reader := csv.NewReader(bytes.NewReader(raw))
	reader.TrimLeadingSpace = true
	reader.LazyQuotes = true
	reader.FieldsPerRecord = -1
	firstLine, _, _ := bytes.Cut(raw, []byte("\n"))
	if bytes.Count(firstLine, []byte(";")) > bytes.Count(firstLine, []byte(",")) {
		reader.Comma = ';'
	}

	allRows, err := reader.ReadAll()
	if err != nil {
		return nil, nil, fmt.Errorf("failed to parse CSV: %w", err)
	}
	if len(allRows) < 2 {
		return nil, nil, fmt.Errorf("file must contain a header row and at least one data row")
	}

	return allRows[0], allRows[1:], nil
}

// parseExcel reads an xlsx file and returns headers + data rows from the first sheet.
func parseExcel(file io.Reader) ([]string, [][]string, error) {
	f, err := excelize.OpenReader(file)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open Excel file: %w", err)
	}
	defer f.Close()

	sheetName := f.GetSheetName(0)
	rows, err := f.GetRows(sheetName)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to read sheet: %w", err)
	}
	if len(rows) < 2 {
		return nil, nil, fmt.Errorf("file must contain a header row and at least one data row")
	}

	return rows[0], rows[1:], nil
}

// mapHeadersToFields maps uploaded column headers to TemplateField keys. A
// header matches a field's label or its key, case-insensitively. Returns the
// ordered list of field keys (one per column) and any unrecognized columns.
func mapHeadersToFields(headers []string, fields []TemplateField) ([]string, []string) {
	lookup := make(map[string]string, 2*len(fields))
	for _, f := range fields {
		lookup[strings.ToLower(strings.TrimSpace(f.Label))] = f.Key
		lookup[f.Key] = f.Key
	}

	mapped := make([]string, len(headers))
	var unrecognized []string

	for i, h := range headers {
		norm := strings.ToLower(strings.TrimSpace(h))
		// Strip trailing " *" that the template adds for required fields
		norm = strings.TrimSpace(strings.TrimSuffix(norm, " *"))

		if key, ok := lookup[norm]; ok {
			mapped[i] = key
		} else {
			unrecognized = append(unrecognized, h)
		}
	}
	return mapped, unrecognized
}

func containsKey(keys []string, key string) bool {
	for _, k := range keys {
		if k == key {
			return true
		}
	}
	return false
}

// GenerateErrorReport creates a downloadable .xlsx file from validation errors.
func GenerateErrorReport(errors []ValidationError) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	sheet := "Fouten"
	defaultSheet := f.GetSheetName(0)
	f.SetSheetName(defaultSheet, sheet)

	headerStyle, _ := f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true, Color: "#FFFFFF", Size: 11},
		Fill:      excelize.Fill{Type: "pattern", Color: []string{"#DC2626"}, Pattern: 1},
		Alignment: &excelize.Alignment{Horizontal: "center"},
		Border:    thinBorders(),
	})

	f.SetCellValue(sheet, "A1", "Regel")
	f.SetCellValue(sheet, "B1", "Veld")
	f.SetCellValue(sheet, "C1", "Fout")
	f.SetCellStyle(sheet, "A1", "C1", headerStyle)
	f.SetColWidth(sheet, "A", "A", 8)
	f.SetColWidth(sheet, "B", "B", 22)
	f.SetColWidth(sheet, "C", "C", 55)

	for i, e := range errors {
		row := fmt.Sprintf("%d", i+2)
		f.SetCellValue(sheet, "A"+row, e.Row)
		f.SetCellValue(sheet, "B"+row, sanitizeExcelCell(e.Field))
		f.SetCellValue(sheet, "C"+row, sanitizeExcelCell(e.Message))
	}

	var buf bytes.Buffer
	if err := f.Write(&buf); err != nil {
		return nil, fmt.Errorf("write error report: %w", err)
	}
	return buf.Bytes(), nil
}
