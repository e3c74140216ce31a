package estimating

import (
	"context"
	"errors"

	"github.com/pocketbase/pocketbase/core"
)

// Duplicate deep-copies an estimate into a new version. The copy lands in
// targetProjectID (the source's project when empty), gets version
// max(existing versions of that name in the target)+1 and status draft, and
// has all totals recomputed from the copied lines. The whole copy is one
// transaction; any failure leaves nothing behind and is reported as
// ErrDuplicationFailed, except for a missing source or target.
func (e *Engine) Duplicate(ctx context.Context, sourceID, targetProjectID string) (*Change, error) {
	src, err := e.Estimate(sourceID)
	if err != nil {
		return nil, err
	}
	if targetProjectID == "" {
		targetProjectID = src.ProjectID
	}

	release, err := e.locks.acquire(ctx, sourceID, e.cfg.LockTimeout)
	if err != nil {
		return nil, err
	}
	defer release()

	releaseLineage, err := e.locks.acquire(ctx, lineageKey(targetProjectID, src.Name), e.cfg.LockTimeout)
	if err != nil {
		return nil, err
	}
	defer releaseLineage()

	var copied *Tree
	err = e.app.RunInTransaction(func(txApp core.App) error {
		store := NewStore(txApp)
		if err := store.ProjectExists(targetProjectID); err != nil {
			return err
		}
		tree, err := store.LoadEstimateTree(sourceID)
		if err != nil {
			return err
		}
		max, err := store.MaxVersion(targetProjectID, tree.Estimate.Name)
		if err != nil {
			return err
		}

		copied, err = BuildVersion(tree, targetProjectID, max+1, NewID)
		if err != nil {
			return err
		}

		if err := store.SaveEstimate(copied.Estimate); err != nil {
			return err
		}
		for _, c := range copied.chaptersParentFirst() {
			if err := store.SaveChapter(c); err != nil {
				return err
			}
		}
		for _, l := range copied.Lines {
			if err := store.SaveLine(l); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		err = classifyStoreError(err)
		var nf *NotFoundError
		if errors.As(err, &nf) {
			return nil, err
		}
		e.logger().Error("estimate duplication rolled back", "sourceId", sourceID, "error", err)
		return nil, &duplicationError{sourceID: sourceID, cause: err}
	}

	e.logger().Info("estimate duplicated",
		"sourceId", sourceID,
		"estimateId", copied.Estimate.ID,
		"version", copied.Estimate.Version,
		"chapters", len(copied.Chapters),
		"lines", len(copied.Lines),
	)
	return &Change{Tree: copied, ID: copied.Estimate.ID}, nil
}
