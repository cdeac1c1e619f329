// internal/models/collection.go
package models

import (
	"time"

	"github.com/google/uuid"
)

// CollectionItem is a user's possession of one catalog entry. Entries are
// referenced, never copied per user.
type CollectionItem struct {
	BaseModel
	UserID         uuid.UUID     `json:"user_id" gorm:"type:uuid;not null;uniqueIndex:idx_user_collection_owner"`
	CatalogEntryID uuid.UUID     `json:"beyblade_id" gorm:"column:beyblade_id;type:uuid;not null;uniqueIndex:idx_user_collection_owner"`
	CustomName     string        `json:"custom_name,omitempty" gorm:"size:255"`
	PhotoURL       string        `json:"photo_url,omitempty" gorm:"type:text"`
	Condition      Condition     `json:"condition" gorm:"size:20;default:'good'"`
	Notes          string        `json:"notes,omitempty" gorm:"type:text"`
	AcquiredAt     *time.Time    `json:"acquired_at,omitempty" gorm:"type:date"`
	SpinDirection  SpinDirection `json:"spin_direction,omitempty" gorm:"size:3"`

	// Relationships
	CatalogEntry *CatalogEntry `json:"beyblade,omitempty" gorm:"foreignKey:CatalogEntryID;constraint:OnDelete:CASCADE"`
}

func (CollectionItem) TableName() string {
	return "user_collection"
}

// AcquisitionDate is the day the item entered the collection: the acquired
// date when set, else the creation day.
func (i *CollectionItem) AcquisitionDate() string {
	if i.AcquiredAt != nil {
		return i.AcquiredAt.Format("2006-01-02")
	}
	if i.CreatedAt.IsZero() {
		return ""
	}
	return i.CreatedAt.Format("2006-01-02")
}

// SortTime orders items newest-acquired first.
func (i *CollectionItem) SortTime() time.Time {
	if i.AcquiredAt != nil {
		return *i.AcquiredAt
	}
	return i.CreatedAt
}
