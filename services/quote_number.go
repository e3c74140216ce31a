package services

import (
	"fmt"
	"strings"
)

// QuoteNumber builds the quotation reference printed on exports.
// Format: OFF-{project_ref}-V{version}
//   - project_ref: project's reference_number, falling back to the first
//     eight characters of the estimate id
//   - version: 2-digit zero-padded estimate version
func QuoteNumber(projectRef, estimateID string, version int) string {
	ref := strings.TrimSpace(projectRef)
	if ref == "" {
		ref = estimateID
		if len(ref) > 8 {
			ref = ref[:8]
		}
		ref = strings.ToUpper(ref)
	}
	return fmt.Sprintf("OFF-%s-V%02d", ref, version)
}
