package estimating

import "github.com/shopspring/decimal"

// Status is the commercial lifecycle state of an estimate.
type Status string

const (
	StatusDraft    Status = "draft"
	StatusSent     Status = "sent"
	StatusAccepted Status = "accepted"
	StatusRejected Status = "rejected"
	StatusExpired  Status = "expired"
)

// Statuses lists every valid status in lifecycle order.
var Statuses = []Status{StatusDraft, StatusSent, StatusAccepted, StatusRejected, StatusExpired}

func (s Status) Valid() bool {
	for _, v := range Statuses {
		if s == v {
			return true
		}
	}
	return false
}

// LineType marks the contractual treatment of a line. It has no effect on
// any arithmetic.
type LineType string

const (
	LineTypeNormal      LineType = "normal"
	LineTypeProvisional LineType = "provisional"
	LineTypeAdjustable  LineType = "adjustable"
)

// Percentages are the four markup settings of an estimate.
type Percentages struct {
	GeneralCosts decimal.Decimal `json:"general_costs_percent"`
	Profit       decimal.Decimal `json:"profit_percent"`
	Risk         decimal.Decimal `json:"risk_percent"`
	VAT          decimal.Decimal `json:"vat_percent"`
}

// CostTotals are summed cost categories, used for both chapters and the
// estimate as a whole.
type CostTotals struct {
	Labor     decimal.Decimal `json:"total_labor"`
	Material  decimal.Decimal `json:"total_material"`
	Equipment decimal.Decimal `json:"total_equipment"`
	Subcontr  decimal.Decimal `json:"total_subcontr"`
	Subtotal  decimal.Decimal `json:"subtotal"`
}

func (t CostTotals) add(o CostTotals) CostTotals {
	return CostTotals{
		Labor:     t.Labor.Add(o.Labor),
		Material:  t.Material.Add(o.Material),
		Equipment: t.Equipment.Add(o.Equipment),
		Subcontr:  t.Subcontr.Add(o.Subcontr),
		Subtotal:  t.Subtotal.Add(o.Subtotal),
	}
}

// EstimateTotals is everything derived on the estimate row.
type EstimateTotals struct {
	CostTotals
	MarkupResult
}

// Line is a single priced item. The derived price is readable through
// LaborCost, UnitPrice and TotalPrice and only written by recompute.
type Line struct {
	ID            string
	EstimateID    string
	ChapterID     string
	LibraryItemID string
	Code          string
	Description   string
	Specification string
	Unit          string
	Type          LineType
	SortOrder     int

	LineInputs

	price LinePrice
}

func (l *Line) LaborCost() decimal.Decimal  { return l.price.LaborCost }
func (l *Line) UnitPrice() decimal.Decimal  { return l.price.UnitPrice }
func (l *Line) TotalPrice() decimal.Decimal { return l.price.TotalPrice }
func (l *Line) Price() LinePrice            { return l.price }

// Assigned reports whether the line belongs to a chapter.
func (l *Line) Assigned() bool { return l.ChapterID != "" }

func (l *Line) recompute() error {
	p, err := ComputeLine(l.LineInputs)
	if err != nil {
		return err
	}
	l.price = p
	return nil
}

// Chapter groups lines. ParentID is presentational only.
type Chapter struct {
	ID         string
	EstimateID string
	ParentID   string
	Code       string
	Name       string
	SortOrder  int

	totals CostTotals
}

func (c *Chapter) Totals() CostTotals { return c.totals }

// Estimate is the root of the aggregate.
type Estimate struct {
	ID          string
	ProjectID   string
	Name        string
	Description string
	Notes       string
	Version     int
	Status      Status
	Percentages Percentages

	costs   CostTotals
	markups MarkupResult
}

func (e *Estimate) Costs() CostTotals      { return e.costs }
func (e *Estimate) Markups() MarkupResult  { return e.markups }
func (e *Estimate) Totals() EstimateTotals { return EstimateTotals{e.costs, e.markups} }
