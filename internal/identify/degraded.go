// internal/identify/degraded.go
package identify

import (
	"strings"

	"github.com/javajoker/beycollection/internal/models"
)

// Degraded builds a lookup result from page metadata alone, used when the
// model output cannot be read. Series is the first category mentioning
// "Beyblade"; type is the first category naming a type, else Balance.
func Degraded(title string, categories []string, wikiURL string) *models.IdentificationResult {
	r := &models.IdentificationResult{
		Identified: true,
		Confidence: models.ConfidenceMedium,
		Name:       title,
		Series:     "Unknown",
		Type:       models.TypeBalance,
		WikiURL:    wikiURL,
		Categories: categories,
	}

	for _, category := range categories {
		if strings.Contains(category, "Beyblade") {
			r.Series = category
			break
		}
	}

typeSearch:
	for _, category := range categories {
		for _, t := range models.BeybladeTypes {
			if strings.Contains(category, string(t)) {
				r.Type = t
				break typeSearch
			}
		}
	}

	r.Classify()
	return r
}
