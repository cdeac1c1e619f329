// internal/models/common.go
package models

import (
	"database/sql/driver"
	"encoding/json"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Base model with common fields
type BaseModel struct {
	ID        uuid.UUID `json:"id" gorm:"type:uuid;primaryKey"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (b *BaseModel) BeforeCreate(tx *gorm.DB) error {
	if b.ID == uuid.Nil {
		b.ID = uuid.New()
	}
	return nil
}

// JSONB type for PostgreSQL
type JSONB map[string]interface{}

func (j JSONB) Value() (driver.Value, error) {
	if j == nil {
		return nil, nil
	}
	return json.Marshal(j)
}

func (j *JSONB) Scan(value interface{}) error {
	if value == nil {
		*j = nil
		return nil
	}

	bytes, ok := value.([]byte)
	if !ok {
		return nil
	}

	return json.Unmarshal(bytes, j)
}

// Enums
type BeybladeType string

const (
	TypeAttack  BeybladeType = "Attack"
	TypeDefense BeybladeType = "Defense"
	TypeStamina BeybladeType = "Stamina"
	TypeBalance BeybladeType = "Balance"
)

var BeybladeTypes = []BeybladeType{TypeAttack, TypeDefense, TypeStamina, TypeBalance}

// Labels seen in stored data and model output, lower-cased. Portuguese names
// come from older catalog rows; "resistência" is a legacy spelling of Stamina.
var typeLabels = map[string]BeybladeType{
	"attack":      TypeAttack,
	"ataque":      TypeAttack,
	"defense":     TypeDefense,
	"defence":     TypeDefense,
	"defesa":      TypeDefense,
	"stamina":     TypeStamina,
	"resistência": TypeStamina,
	"resistencia": TypeStamina,
	"balance":     TypeBalance,
	"equilíbrio":  TypeBalance,
	"equilibrio":  TypeBalance,
}

// NormalizeType maps a free-form type label ("Attack Type", "Ataque",
// "Defense Type Beyblades") to its canonical value.
func NormalizeType(label string) (BeybladeType, bool) {
	value := strings.ToLower(strings.TrimSpace(label))
	if value == "" {
		return "", false
	}

	if t, ok := typeLabels[value]; ok {
		return t, true
	}

	for _, word := range strings.FieldsFunc(value, func(r rune) bool {
		return r == ' ' || r == '-' || r == '_' || r == '/'
	}) {
		if t, ok := typeLabels[word]; ok {
			return t, true
		}
	}

	return "", false
}

func (t BeybladeType) Valid() bool {
	switch t {
	case TypeAttack, TypeDefense, TypeStamina, TypeBalance:
		return true
	}
	return false
}

type Confidence string

const (
	ConfidenceHigh   Confidence = "high"
	ConfidenceMedium Confidence = "medium"
	ConfidenceLow    Confidence = "low"
)

func ParseConfidence(value string) Confidence {
	switch Confidence(strings.ToLower(strings.TrimSpace(value))) {
	case ConfidenceHigh:
		return ConfidenceHigh
	case ConfidenceMedium:
		return ConfidenceMedium
	case ConfidenceLow:
		return ConfidenceLow
	}
	return ""
}

type Manufacturer string

const (
	ManufacturerTakaraTomy Manufacturer = "Takara Tomy"
	ManufacturerHasbro     Manufacturer = "Hasbro"
	ManufacturerBoth       Manufacturer = "Both"
	ManufacturerUnknown    Manufacturer = "Unknown"
)

func ParseManufacturer(value string) Manufacturer {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "":
		return ""
	case "takara tomy", "takaratomy", "takara":
		return ManufacturerTakaraTomy
	case "hasbro":
		return ManufacturerHasbro
	case "both", "ambos":
		return ManufacturerBoth
	}
	return ManufacturerUnknown
}

type Condition string

const (
	ConditionNew       Condition = "new"
	ConditionExcellent Condition = "excellent"
	ConditionGood      Condition = "good"
	ConditionWorn      Condition = "worn"
	ConditionDamaged   Condition = "damaged"
)

func (c Condition) Valid() bool {
	switch c {
	case ConditionNew, ConditionExcellent, ConditionGood, ConditionWorn, ConditionDamaged:
		return true
	}
	return false
}

type SpinDirection string

const (
	SpinLeft  SpinDirection = "L"
	SpinRight SpinDirection = "R"
	SpinDual  SpinDirection = "R/L"
)

func (d SpinDirection) Valid() bool {
	switch d {
	case SpinLeft, SpinRight, SpinDual:
		return true
	}
	return false
}
