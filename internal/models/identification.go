// internal/models/identification.go
package models

// Outcome classifies an identification result for the caller.
type Outcome string

const (
	OutcomeIdentified   Outcome = "identified"
	OutcomeLeads        Outcome = "leads"
	OutcomeUnidentified Outcome = "unidentified"
)

type PartialAnalysis struct {
	DetectedColors   []string `json:"detected_colors,omitempty"`
	DetectedSeries   string   `json:"detected_series,omitempty"`
	DetectedFeatures []string `json:"detected_features,omitempty"`
}

func (p *PartialAnalysis) IsZero() bool {
	return p == nil || (len(p.DetectedColors) == 0 && p.DetectedSeries == "" && len(p.DetectedFeatures) == 0)
}

// IdentificationResult is the transient output of the image or lookup
// pipeline. It is never persisted as is.
type IdentificationResult struct {
	Identified      bool             `json:"identified"`
	Outcome         Outcome          `json:"outcome"`
	Confidence      Confidence       `json:"confidence,omitempty"`
	Manufacturer    Manufacturer     `json:"manufacturer,omitempty"`
	Name            string           `json:"name,omitempty"`
	NameHasbro      string           `json:"name_hasbro,omitempty"`
	VersionNotes    string           `json:"version_notes,omitempty"`
	Series          string           `json:"series,omitempty"`
	Generation      string           `json:"generation,omitempty"`
	Type            BeybladeType     `json:"type,omitempty"`
	Components      *Components      `json:"components,omitempty"`
	Specs           *Specs           `json:"specs,omitempty"`
	Description     string           `json:"description,omitempty"`
	ImageURL        string           `json:"image_url,omitempty"`
	WikiURL         string           `json:"wiki_url,omitempty"`
	Categories      []string         `json:"categories,omitempty"`
	Suggestions     []string         `json:"suggestions,omitempty"`
	PartialAnalysis *PartialAnalysis `json:"partial_analysis,omitempty"`
	ErrorMessage    string           `json:"error_message,omitempty"`
}

// Classify sets and returns the outcome. A result that is not identified but
// carries suggestions or partial analysis is a lead, not a failure.
func (r *IdentificationResult) Classify() Outcome {
	switch {
	case r.Identified:
		r.Outcome = OutcomeIdentified
	case len(r.Suggestions) > 0 || !r.PartialAnalysis.IsZero():
		r.Outcome = OutcomeLeads
	default:
		r.Outcome = OutcomeUnidentified
	}
	return r.Outcome
}
