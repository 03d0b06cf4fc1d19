// Package gorm provides the GORM models and repository implementations
// for the usage ledger and generated-recipe history.
package gorm

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// UsageEntryModel is one append-only usage ledger row. Rows are never
// updated or deleted; admission windows are recomputed from them.
type UsageEntryModel struct {
	ID              uuid.UUID `gorm:"type:char(36);primaryKey"`
	UserID          uuid.UUID `gorm:"type:char(36);not null;index:idx_usage_user_created"`
	Cost            float64   `gorm:"not null;default:0"`
	TokensUsed      int       `gorm:"default:0"`
	LatencyMillis   int64     `gorm:"default:0"`
	MealType        string    `gorm:"type:varchar(20)"`
	ComplexityScore float64   `gorm:"default:0"`
	CacheHit        bool      `gorm:"default:false"`
	CreatedAt       time.Time `gorm:"index:idx_usage_user_created"`
}

// GeneratedRecipeModel is the persisted form of a generated recipe.
type GeneratedRecipeModel struct {
	ID                uuid.UUID   `gorm:"type:char(36);primaryKey"`
	UserID            uuid.UUID   `gorm:"type:char(36);not null;index"`
	Title             string      `gorm:"type:varchar(255);not null"`
	Description       string      `gorm:"type:text"`
	Ingredients       StringSlice `gorm:"type:json"`
	Instructions      StringSlice `gorm:"type:json"`
	PrepTimeMinutes   int         `gorm:"default:0"`
	CookTimeMinutes   int         `gorm:"default:0"`
	TotalTimeMinutes  int         `gorm:"default:0"`
	Servings          int         `gorm:"default:1"`
	Difficulty        string      `gorm:"type:varchar(20)"`
	MealType          string      `gorm:"type:varchar(20);index"`
	Reasoning         string      `gorm:"type:text"`
	MemberNotes       JSONField   `gorm:"type:json"`
	DetectedAllergens JSONField   `gorm:"type:json"`
	SafetyWarnings    StringSlice `gorm:"type:json"`
	SafetyScore       int         `gorm:"default:0"`
	GenerationCost    float64     `gorm:"default:0"`
	LatencyMillis     int64       `gorm:"default:0"`
	CacheHit          bool        `gorm:"default:false"`
	CreatedAt         time.Time   `gorm:"index"`
}

// StringSlice stores a string slice as a JSON column.
type StringSlice []string

// Scan implements sql.Scanner.
func (s *StringSlice) Scan(value interface{}) error {
	if value == nil {
		*s = StringSlice{}
		return nil
	}
	switch v := value.(type) {
	case []byte:
		return json.Unmarshal(v, s)
	case string:
		return json.Unmarshal([]byte(v), s)
	default:
		return fmt.Errorf("cannot scan %T into StringSlice", value)
	}
}

// Value implements driver.Valuer.
func (s StringSlice) Value() (driver.Value, error) {
	if len(s) == 0 {
		return "[]", nil
	}
	return json.Marshal(s)
}

// JSONField stores arbitrary JSON as a column, holding the raw encoded
// bytes so round-trips are lossless.
type JSONField json.RawMessage

// Scan implements sql.Scanner.
func (j *JSONField) Scan(value interface{}) error {
	if value == nil {
		*j = nil
		return nil
	}
	switch v := value.(type) {
	case []byte:
		*j = append((*j)[:0], v...)
		return nil
	case string:
		*j = JSONField(v)
		return nil
	default:
		return fmt.Errorf("cannot scan %T into JSONField", value)
	}
}

// Value implements driver.Valuer.
func (j JSONField) Value() (driver.Value, error) {
	if len(j) == 0 {
		return "null", nil
	}
	return []byte(j), nil
}

// BeforeCreate assigns an ID when the caller did not.
func (u *UsageEntryModel) BeforeCreate(tx *gorm.DB) error {
	if u.ID == uuid.Nil {
		u.ID = uuid.New()
	}
	return nil
}

// BeforeCreate assigns an ID when the caller did not.
func (g *GeneratedRecipeModel) BeforeCreate(tx *gorm.DB) error {
	if g.ID == uuid.Nil {
		g.ID = uuid.New()
	}
	return nil
}

func (UsageEntryModel) TableName() string {
	return "usage_entries"
}

func (GeneratedRecipeModel) TableName() string {
	return "generated_recipes"
}

// AutoMigrate creates or updates the schema for every model.
func AutoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&UsageEntryModel{},
		&GeneratedRecipeModel{},
	)
}
