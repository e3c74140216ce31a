package estimating

import (
	"database/sql"
	"errors"
	"fmt"

	"github.com/pocketbase/dbx"
	"github.com/pocketbase/pocketbase/core"
	"github.com/pocketbase/pocketbase/tools/security"
	"github.com/shopspring/decimal"
)

const (
	CollectionProjects     = "projects"
	CollectionLibraryItems = "library_items"
	CollectionEstimates    = "estimates"
	CollectionChapters     = "estimate_chapters"
	CollectionLines        = "estimate_lines"
)

const idAlphabet = "abcdefghijklmnopqrstuvwxyz0123456789"

// NewID returns a record id in PocketBase's default format.
func NewID() string {
	return security.RandomStringWithAlphabet(15, idAlphabet)
}

// LibraryItem is a read-only catalog entry used to create lines.
type LibraryItem struct {
	ID          string
	Code        string
	Description string
	Unit        string
	Category    string

	LaborHours    decimal.Decimal
	LaborRate     decimal.Decimal
	MaterialCost  decimal.Decimal
	EquipmentCost decimal.Decimal
	SubcontrCost  decimal.Decimal
}

// Store is the PocketBase-backed persistence of the estimate aggregate.
// A Store created inside RunInTransaction writes through that transaction.
type Store struct {
	app     core.App
	records map[string]*core.Record
}

func NewStore(app core.App) *Store {
	return &Store{app: app, records: make(map[string]*core.Record)}
}

// LoadEstimateTree reads the estimate with all of its chapters and lines.
// Stored derived values are restored as they are.
func (s *Store) LoadEstimateTree(id string) (*Tree, error) {
	est, err := s.LoadEstimate(id)
	if err != nil {
		return nil, err
	}

	chapterRecs, err := s.app.FindRecordsByFilter(CollectionChapters,
		"estimate = {:id}", "sort_order", 0, 0, dbx.Params{"id": id})
	if err != nil {
		return nil, fmt.Errorf("load chapters of %s: %w", id, err)
	}
	chapters := make([]*Chapter, 0, len(chapterRecs))
	for _, r := range chapterRecs {
		s.records[r.Id] = r
		chapters = append(chapters, chapterFromRecord(r))
	}

	lineRecs, err := s.app.FindRecordsByFilter(CollectionLines,
		"estimate = {:id}", "sort_order", 0, 0, dbx.Params{"id": id})
	if err != nil {
		return nil, fmt.Errorf("load lines of %s: %w", id, err)
	}
	lines := make([]*Line, 0, len(lineRecs))
	for _, r := range lineRecs {
		s.records[r.Id] = r
		lines = append(lines, lineFromRecord(r))
	}

	return NewTree(est, chapters, lines), nil
}

// LoadEstimate reads the estimate row only.
func (s *Store) LoadEstimate(id string) (*Estimate, error) {
	rec, err := s.find(CollectionEstimates, "estimate", id)
	if err != nil {
		return nil, err
	}
	return estimateFromRecord(rec), nil
}

// ListEstimates returns the estimates of a project, newest version first
// within each name.
func (s *Store) ListEstimates(projectID string) ([]*Estimate, error) {
	recs, err := s.app.FindRecordsByFilter(CollectionEstimates,
		"project = {:project}", "name,-version", 0, 0, dbx.Params{"project": projectID})
	if err != nil {
		return nil, fmt.Errorf("list estimates of %s: %w", projectID, err)
	}
	out := make([]*Estimate, 0, len(recs))
	for _, r := range recs {
		out = append(out, estimateFromRecord(r))
	}
	return out, nil
}

// EstimateOfLine returns the id of the estimate that owns the line.
func (s *Store) EstimateOfLine(lineID string) (string, error) {
	rec, err := s.find(CollectionLines, "line", lineID)
	if err != nil {
		return "", err
	}
	return rec.GetString("estimate"), nil
}

// LoadLine reads a single line with its stored price.
func (s *Store) LoadLine(lineID string) (*Line, error) {
	rec, err := s.find(CollectionLines, "line", lineID)
	if err != nil {
		return nil, err
	}
	return lineFromRecord(rec), nil
}

func (s *Store) ProjectExists(projectID string) error {
	_, err := s.find(CollectionProjects, "project", projectID)
	return err
}

func (s *Store) LoadLibraryItem(id string) (*LibraryItem, error) {
	rec, err := s.find(CollectionLibraryItems, "library item", id)
	if err != nil {
		return nil, err
	}
	return &LibraryItem{
		ID:            rec.Id,
		Code:          rec.GetString("code"),
		Description:   rec.GetString("description"),
		Unit:          rec.GetString("unit"),
		Category:      rec.GetString("category"),
		LaborHours:    dec(rec, "labor_hours"),
		LaborRate:     dec(rec, "labor_rate"),
		MaterialCost:  dec(rec, "material_cost"),
		EquipmentCost: dec(rec, "equipment_cost"),
		SubcontrCost:  dec(rec, "subcontr_cost"),
	}, nil
}

// MaxVersion returns the highest version among the project's estimates
// carrying the given name, or 0 when there is none.
func (s *Store) MaxVersion(projectID, name string) (int, error) {
	var row struct {
		MaxVersion int `db:"max_version"`
	}
	err := s.app.DB().
		Select("COALESCE(MAX([[version]]), 0) AS max_version").
		From(CollectionEstimates).
		Where(dbx.HashExp{"project": projectID, "name": name}).
		One(&row)
	if err != nil {
		return 0, fmt.Errorf("max version of %q: %w", name, err)
	}
	return row.MaxVersion, nil
}

// SaveEstimate writes the estimate header, percentages and derived totals.
func (s *Store) SaveEstimate(e *Estimate) error {
	rec, err := s.upsert(CollectionEstimates, e.ID)
	if err != nil {
		return err
	}
	rec.Set("project", e.ProjectID)
	rec.Set("name", e.Name)
	rec.Set("description", e.Description)
	rec.Set("notes", e.Notes)
	rec.Set("version", e.Version)
	rec.Set("status", string(e.Status))
	rec.Set("general_costs_percent", e.Percentages.GeneralCosts.String())
	rec.Set("profit_percent", e.Percentages.Profit.String())
	rec.Set("risk_percent", e.Percentages.Risk.String())
	rec.Set("vat_percent", e.Percentages.VAT.String())
	setEstimateTotals(rec, e.Totals())
	if err := s.app.Save(rec); err != nil {
		return fmt.Errorf("save estimate %s: %w", e.ID, err)
	}
	return nil
}

// SaveEstimateTotals writes only the derived totals of an estimate.
func (s *Store) SaveEstimateTotals(id string, totals EstimateTotals) error {
	rec, err := s.find(CollectionEstimates, "estimate", id)
	if err != nil {
		return err
	}
	setEstimateTotals(rec, totals)
	if err := s.app.Save(rec); err != nil {
		return fmt.Errorf("save totals of estimate %s: %w", id, err)
	}
	return nil
}

func (s *Store) SaveChapter(c *Chapter) error {
	rec, err := s.upsert(CollectionChapters, c.ID)
	if err != nil {
		return err
	}
	rec.Set("estimate", c.EstimateID)
	rec.Set("parent", c.ParentID)
	rec.Set("code", c.Code)
	rec.Set("name", c.Name)
	rec.Set("sort_order", c.SortOrder)
	setCostTotals(rec, c.totals)
	if err := s.app.Save(rec); err != nil {
		return fmt.Errorf("save chapter %s: %w", c.ID, err)
	}
	return nil
}

func (s *Store) SaveLine(l *Line) error {
	rec, err := s.upsert(CollectionLines, l.ID)
	if err != nil {
		return err
	}
	rec.Set("estimate", l.EstimateID)
	rec.Set("chapter", l.ChapterID)
	rec.Set("library_item", l.LibraryItemID)
	rec.Set("code", l.Code)
	rec.Set("description", l.Description)
	rec.Set("specification", l.Specification)
	rec.Set("unit", l.Unit)
	rec.Set("line_type", string(l.Type))
	rec.Set("sort_order", l.SortOrder)
	rec.Set("quantity", l.Quantity.String())
	rec.Set("labor_hours", l.LaborHours.String())
	rec.Set("labor_rate", l.LaborRate.String())
	rec.Set("material_cost", l.MaterialCost.String())
	rec.Set("equipment_cost", l.EquipmentCost.String())
	rec.Set("subcontr_cost", l.SubcontrCost.String())
	rec.Set("labor_cost", l.price.LaborCost.String())
	rec.Set("unit_price", l.price.UnitPrice.String())
	rec.Set("total_price", l.price.TotalPrice.String())
	if err := s.app.Save(rec); err != nil {
		return fmt.Errorf("save line %s: %w", l.ID, err)
	}
	return nil
}

func (s *Store) DeleteLine(id string) error {
	return s.delete(CollectionLines, "line", id)
}

// DeleteChapter removes the chapter; the schema cascades the delete to its
// lines and sub-chapters.
func (s *Store) DeleteChapter(id string) error {
	return s.delete(CollectionChapters, "chapter", id)
}

func (s *Store) delete(collection, entity, id string) error {
	rec, err := s.find(collection, entity, id)
	if err != nil {
		return err
	}
	if err := s.app.Delete(rec); err != nil {
		return fmt.Errorf("delete %s %s: %w", entity, id, err)
	}
	delete(s.records, id)
	return nil
}

func (s *Store) find(collection, entity, id string) (*core.Record, error) {
	if id == "" {
		return nil, notFound(entity, id)
	}
	if rec, ok := s.records[id]; ok && rec.Collection().Name == collection {
		return rec, nil
	}
	rec, err := s.app.FindRecordById(collection, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, notFound(entity, id)
		}
		return nil, fmt.Errorf("find %s %s: %w", entity, id, err)
	}
	s.records[id] = rec
	return rec, nil
}

// upsert returns the existing record for id or a new record carrying it.
func (s *Store) upsert(collection, id string) (*core.Record, error) {
	rec, err := s.find(collection, collection, id)
	if err == nil {
		return rec, nil
	}
	if !errors.Is(err, ErrNotFound) {
		return nil, err
	}
	col, err := s.app.FindCachedCollectionByNameOrId(collection)
	if err != nil {
		return nil, fmt.Errorf("collection %s: %w", collection, err)
	}
	rec = core.NewRecord(col)
	rec.Set("id", id)
	s.records[id] = rec
	return rec, nil
}

// dec reads a decimal text field. Empty and unparsable values read as zero.
func dec(r *core.Record, field string) decimal.Decimal {
	v, err := decimal.NewFromString(r.GetString(field))
	if err != nil {
		return decimal.Zero
	}
	return v
}

func setCostTotals(r *core.Record, t CostTotals) {
	r.Set("total_labor", t.Labor.String())
	r.Set("total_material", t.Material.String())
	r.Set("total_equipment", t.Equipment.String())
	r.Set("total_subcontr", t.Subcontr.String())
	r.Set("subtotal", t.Subtotal.String())
}

func setEstimateTotals(r *core.Record, t EstimateTotals) {
	setCostTotals(r, t.CostTotals)
	r.Set("general_costs_amount", t.GeneralCostsAmount.String())
	r.Set("profit_amount", t.ProfitAmount.String())
	r.Set("risk_amount", t.RiskAmount.String())
	r.Set("total_excl_vat", t.TotalExclVAT.String())
	r.Set("vat_amount", t.VATAmount.String())
	r.Set("total_incl_vat", t.TotalInclVAT.String())
}

func costTotalsFromRecord(r *core.Record) CostTotals {
	return CostTotals{
		Labor:     dec(r, "total_labor"),
		Material:  dec(r, "total_material"),
		Equipment: dec(r, "total_equipment"),
		Subcontr:  dec(r, "total_subcontr"),
		Subtotal:  dec(r, "subtotal"),
	}
}

func estimateFromRecord(r *core.Record) *Estimate {
	return &Estimate{
		ID:          r.Id,
		ProjectID:   r.GetString("project"),
		Name:        r.GetString("name"),
		Description: r.GetString("description"),
		Notes:       r.GetString("notes"),
		Version:     r.GetInt("version"),
		Status:      Status(r.GetString("status")),
		Percentages: Percentages{
			GeneralCosts: dec(r, "general_costs_percent"),
			Profit:       dec(r, "profit_percent"),
			Risk:         dec(r, "risk_percent"),
			VAT:          dec(r, "vat_percent"),
		},
		costs: costTotalsFromRecord(r),
		markups: MarkupResult{
			GeneralCostsAmount: dec(r, "general_costs_amount"),
			ProfitAmount:       dec(r, "profit_amount"),
			RiskAmount:         dec(r, "risk_amount"),
			TotalExclVAT:       dec(r, "total_excl_vat"),
			VATAmount:          dec(r, "vat_amount"),
			TotalInclVAT:       dec(r, "total_incl_vat"),
		},
	}
}

func chapterFromRecord(r *core.Record) *Chapter {
	return &Chapter{
		ID:         r.Id,
		EstimateID: r.GetString("estimate"),
		ParentID:   r.GetString("parent"),
		Code:       r.GetString("code"),
		Name:       r.GetString("name"),
		SortOrder:  r.GetInt("sort_order"),
		totals:     costTotalsFromRecord(r),
	}
}

func lineFromRecord(r *core.Record) *Line {
	return &Line{
		ID:            r.Id,
		EstimateID:    r.GetString("estimate"),
		ChapterID:     r.GetString("chapter"),
		LibraryItemID: r.GetString("library_item"),
		Code:          r.GetString("code"),
		Description:   r.GetString("description"),
		Specification: r.GetString("specification"),
		Unit:          r.GetString("unit"),
		Type:          LineType(r.GetString("line_type")),
		SortOrder:     r.GetInt("sort_order"),
		LineInputs: LineInputs{
			Quantity:      dec(r, "quantity"),
			LaborHours:    dec(r, "labor_hours"),
			LaborRate:     dec(r, "labor_rate"),
			MaterialCost:  dec(r, "material_cost"),
			EquipmentCost: dec(r, "equipment_cost"),
			SubcontrCost:  dec(r, "subcontr_cost"),
		},
		price: LinePrice{
			LaborCost:  dec(r, "labor_cost"),
			UnitPrice:  dec(r, "unit_price"),
			TotalPrice: dec(r, "total_price"),
		},
	}
}
