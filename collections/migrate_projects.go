package collections

import (
	"fmt"
	"log"

	"github.com/pocketbase/pocketbase"
)

// MigrateRecomputeTotals runs recompute for every stored estimate so that
// totals written by an older pricing rule are brought in line with the
// current one. Failures are logged and skipped; the number of estimates
// that failed is returned in the error.
func MigrateRecomputeTotals(app *pocketbase.PocketBase, recompute func(estimateID string) error) error {
	estimatesCol, err := app.FindCollectionByNameOrId("estimates")
	if err != nil {
		return fmt.Errorf("migrate: could not find estimates collection: %w", err)
	}

	records, err := app.FindAllRecords(estimatesCol)
	if err != nil {
		return fmt.Errorf("migrate: could not query estimates: %w", err)
	}

	if len(records) == 0 {
		return nil
	}

	log.Printf("migrate: recomputing totals of %d estimate(s) …\n", len(records))

	failed := 0
	for _, est := range records {
		if err := recompute(est.Id); err != nil {
			failed++
			log.Printf("migrate: failed to recompute estimate %q (%s): %v\n", est.GetString("name"), est.Id, err)
			continue
		}
	}

	if failed > 0 {
		return fmt.Errorf("migrate: %d of %d estimate(s) could not be recomputed", failed, len(records))
	}
	log.Println("migrate: estimate totals recompute complete.")
	return nil
}
