// internal/models/catalog.go
package models

import (
	"strings"

	"github.com/lib/pq"
	"gorm.io/datatypes"
)

// CatalogEntry is one distinct product variant, shared by every collection
// that owns it. Name is the dedup key.
type CatalogEntry struct {
	BaseModel
	Name        string                         `json:"name" gorm:"size:255;not null;uniqueIndex"`
	NameHasbro  string                         `json:"name_hasbro,omitempty" gorm:"size:255"`
	Series      string                         `json:"series" gorm:"size:100;index"`
	Generation  string                         `json:"generation" gorm:"size:100;index"`
	Type        BeybladeType                   `json:"type" gorm:"size:20;index"`
	Components  datatypes.JSONType[Components] `json:"components" gorm:"type:jsonb"`
	Specs       datatypes.JSONType[Specs]      `json:"specs" gorm:"type:jsonb"`
	Description string                         `json:"description,omitempty" gorm:"type:text"`
	ImageURL    string                         `json:"image_url,omitempty" gorm:"type:text"`
	WikiURL     string                         `json:"wiki_url,omitempty" gorm:"type:text"`
	Categories  pq.StringArray                 `json:"categories,omitempty" gorm:"type:text[]"`
}

func (CatalogEntry) TableName() string {
	return "beyblade_catalog"
}

// NewCatalogEntry builds an unsaved entry from a confirmed result. imageURL
// overrides the result image (a user photo is preferred over a wiki image).
func NewCatalogEntry(r *IdentificationResult, imageURL string) *CatalogEntry {
	if imageURL == "" {
		imageURL = r.ImageURL
	}

	entry := &CatalogEntry{
		Name:        strings.TrimSpace(r.Name),
		NameHasbro:  r.NameHasbro,
		Series:      r.Series,
		Generation:  r.Generation,
		Type:        r.Type,
		Description: r.Description,
		ImageURL:    imageURL,
		WikiURL:     r.WikiURL,
		Categories:  pq.StringArray(r.Categories),
	}
	if r.Components != nil {
		entry.Components = datatypes.NewJSONType(*r.Components)
	}
	if r.Specs != nil {
		entry.Specs = datatypes.NewJSONType(*r.Specs)
	}
	return entry
}

// MergeIdentification folds a fresh result into a stored entry and returns
// the changed columns. Identity fields and the image are only back-filled
// when empty; specs, components and description are refined whenever the
// result carries them.
func (e *CatalogEntry) MergeIdentification(r *IdentificationResult, imageURL string) map[string]interface{} {
	updates := make(map[string]interface{})

	if imageURL == "" {
		imageURL = r.ImageURL
	}

	fill := func(column string, current *string, value string) {
		if *current == "" && value != "" {
			*current = value
			updates[column] = value
		}
	}

	fill("image_url", &e.ImageURL, imageURL)
	fill("name_hasbro", &e.NameHasbro, r.NameHasbro)
	fill("wiki_url", &e.WikiURL, r.WikiURL)
	fill("series", &e.Series, r.Series)
	fill("generation", &e.Generation, r.Generation)

	if e.Type == "" && r.Type != "" {
		e.Type = r.Type
		updates["type"] = r.Type
	}

	if r.Description != "" && r.Description != e.Description {
		e.Description = r.Description
		updates["description"] = r.Description
	}

	if r.Specs != nil && !r.Specs.IsZero() {
		e.Specs = datatypes.NewJSONType(*r.Specs)
		updates["specs"] = e.Specs
	}

	if r.Components != nil && !r.Components.IsZero() {
		e.Components = datatypes.NewJSONType(*r.Components)
		updates["components"] = e.Components
	}

	if len(e.Categories) == 0 && len(r.Categories) > 0 {
		e.Categories = pq.StringArray(r.Categories)
		updates["categories"] = e.Categories
	}

	return updates
}
