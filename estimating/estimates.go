package estimating

import (
	"context"
	"strings"

	"github.com/pocketbase/pocketbase/core"
	"github.com/shopspring/decimal"
)

// EstimateDraft describes a new estimate. Nil percentages start at zero
// markups with the configured default VAT.
type EstimateDraft struct {
	ProjectID   string
	Name        string
	Description string
	Notes       string
	Percentages *Percentages
}

// SettingsUpdate changes the estimate header and/or its markup
// percentages. Nil fields are left as they are.
type SettingsUpdate struct {
	Name         *string
	Description  *string
	Notes        *string
	GeneralCosts *decimal.Decimal
	Profit       *decimal.Decimal
	Risk         *decimal.Decimal
	VAT          *decimal.Decimal
}

// CreateEstimate stores a new, empty estimate as version 1 in draft status.
// Names are unique per project; later versions come from Duplicate.
func (e *Engine) CreateEstimate(ctx context.Context, d EstimateDraft) (*Change, error) {
	name := strings.TrimSpace(d.Name)
	if name == "" {
		return nil, invalidField("name", "is required")
	}

	pct := Percentages{VAT: e.cfg.DefaultVATPercent}
	if d.Percentages != nil {
		pct = *d.Percentages
	}
	if err := pct.Validate(); err != nil {
		return nil, err
	}

	release, err := e.locks.acquire(ctx, lineageKey(d.ProjectID, name), e.cfg.LockTimeout)
	if err != nil {
		return nil, err
	}
	defer release()

	est := &Estimate{
		ID:          NewID(),
		ProjectID:   d.ProjectID,
		Name:        name,
		Description: strings.TrimSpace(d.Description),
		Notes:       d.Notes,
		Version:     1,
		Status:      StatusDraft,
		Percentages: pct,
	}
	tree := NewTree(est, nil, nil)

	err = e.app.RunInTransaction(func(txApp core.App) error {
		store := NewStore(txApp)
		if err := store.ProjectExists(d.ProjectID); err != nil {
			return err
		}
		max, err := store.MaxVersion(d.ProjectID, name)
		if err != nil {
			return err
		}
		if max > 0 {
			return invalidField("name", "an estimate with this name already exists in the project")
		}
		tree.RecomputeEstimate()
		tree.ApplyMarkups()
		return store.SaveEstimate(est)
	})
	if err != nil {
		return nil, classifyStoreError(err)
	}

	e.logger().Info("estimate created", "estimateId", est.ID, "projectId", est.ProjectID)
	return &Change{Tree: tree, ID: est.ID}, nil
}

// UpdateSettings applies header and percentage changes. Only the markup
// cascade is rerun; line and chapter sums stay as stored. A rename holds
// the target lineage lock until the new name is committed. It is taken
// before the estimate lock so no transaction is open while waiting.
func (e *Engine) UpdateSettings(ctx context.Context, estimateID string, u SettingsUpdate) (*Change, error) {
	if u.Name != nil {
		if name := strings.TrimSpace(*u.Name); name != "" {
			current, err := NewStore(e.app).LoadEstimate(estimateID)
			if err != nil {
				return nil, err
			}
			if name != current.Name {
				release, err := e.locks.acquire(ctx, lineageKey(current.ProjectID, name), e.cfg.LockTimeout)
				if err != nil {
					return nil, err
				}
				defer release()
			}
		}
	}

	tree, err := e.mutate(ctx, estimateID, func(m *mutation) error {
		est := m.tree.Estimate

		if u.Name != nil {
			name := strings.TrimSpace(*u.Name)
			if name == "" {
				return invalidField("name", "is required")
			}
			if name != est.Name {
				max, err := m.store.MaxVersion(est.ProjectID, name)
				if err != nil {
					return err
				}
				if max > 0 {
					return invalidField("name", "an estimate with this name already exists in the project")
				}
				est.Name = name
			}
		}
		if u.Description != nil {
			est.Description = strings.TrimSpace(*u.Description)
		}
		if u.Notes != nil {
			est.Notes = *u.Notes
		}

		pct := est.Percentages
		if u.GeneralCosts != nil {
			pct.GeneralCosts = *u.GeneralCosts
		}
		if u.Profit != nil {
			pct.Profit = *u.Profit
		}
		if u.Risk != nil {
			pct.Risk = *u.Risk
		}
		if u.VAT != nil {
			pct.VAT = *u.VAT
		}
		if err := pct.Validate(); err != nil {
			return err
		}
		est.Percentages = pct
		m.headerChanged = true
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &Change{Tree: tree, ID: estimateID}, nil
}

// SetStatus moves the estimate to another lifecycle status.
func (e *Engine) SetStatus(ctx context.Context, estimateID string, status Status) (*Change, error) {
	if !status.Valid() {
		return nil, invalidField("status", "must be one of draft, sent, accepted, rejected, expired")
	}
	tree, err := e.mutate(ctx, estimateID, func(m *mutation) error {
		m.tree.Estimate.Status = status
		m.headerChanged = true
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &Change{Tree: tree, ID: estimateID}, nil
}

// Recompute reprices every line of the estimate and rebuilds all chapter
// and estimate totals from scratch.
func (e *Engine) Recompute(ctx context.Context, estimateID string) (*Change, error) {
	tree, err := e.mutate(ctx, estimateID, func(m *mutation) error {
		for _, l := range m.tree.Lines {
			if err := m.linePriced(l); err != nil {
				return err
			}
		}
		for _, c := range m.tree.Chapters {
			m.chapterStale(c.ID)
		}
		m.costsChanged = true
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &Change{Tree: tree, ID: estimateID}, nil
}

// RecomputeAll recomputes every stored estimate and returns how many were
// processed. It stops at the first failure.
func (e *Engine) RecomputeAll(ctx context.Context) (int, error) {
	recs, err := e.app.FindAllRecords(CollectionEstimates)
	if err != nil {
		return 0, err
	}
	for i, r := range recs {
		if _, err := e.Recompute(ctx, r.Id); err != nil {
			return i, err
		}
	}
	return len(recs), nil
}

func lineageKey(projectID, name string) string {
	return "lineage/" + projectID + "/" + name
}
