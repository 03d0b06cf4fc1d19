// Package recipe contains the generated-recipe domain model and the
// request/result types exchanged with the generation pipeline.
package recipe

import (
	"time"

	"github.com/google/uuid"

	"github.com/hearthplan/v1/internal/domain/family"
)

// MealType enumerates the meal slots a recipe can be generated for
type MealType string

const (
	MealBreakfast MealType = "breakfast"
	MealLunch     MealType = "lunch"
	MealDinner    MealType = "dinner"
	MealSnack     MealType = "snack"
)

// Valid reports whether the meal type is one of the known slots.
func (m MealType) Valid() bool {
	switch m {
	case MealBreakfast, MealLunch, MealDinner, MealSnack:
		return true
	}
	return false
}

// DifficultyLevel rates how demanding a recipe is to cook
type DifficultyLevel string

const (
	DifficultyEasy   DifficultyLevel = "easy"
	DifficultyMedium DifficultyLevel = "medium"
	DifficultyHard   DifficultyLevel = "hard"
)

// SpecialOccasion captures optional event context for a generation request
type SpecialOccasion struct {
	OccasionType      string   `json:"occasion_type"`
	GuestCount        int      `json:"guest_count"`
	GuestRestrictions []string `json:"guest_restrictions,omitempty"`
	PresentationLevel string   `json:"presentation_level,omitempty"`
}

// GenerationRequest is the pipeline's inbound unit of work. Preferences
// is a snapshot taken at request time; the pipeline never re-reads the
// household mid-flight.
type GenerationRequest struct {
	UserID      uuid.UUID                   `json:"user_id"`
	Tier        string                      `json:"tier,omitempty"` // "free" or "premium"; empty means free
	Preferences family.HouseholdPreferences `json:"preferences"`
	MealType    MealType                    `json:"meal_type"`
	Occasion    *SpecialOccasion            `json:"occasion,omitempty"`
	PantryItems []string                    `json:"pantry_items,omitempty"`
}

// DetectedAllergen is one allergen category found in a generated recipe
// by the deterministic post-hoc scan. Confidence is the proportion of
// the category's keywords matched, a heuristic rather than a calibrated
// probability.
type DetectedAllergen struct {
	Category             string                 `json:"category"`
	Confidence           float64                `json:"confidence"`
	Severity             family.AllergySeverity `json:"severity"`
	Icon                 string                 `json:"icon"`
	Warning              string                 `json:"warning"`
	AffectsFamilyMembers []string               `json:"affects_family_members"`
}

// GeneratedRecipe is the immutable result of one successful generation
// or cache hit, persisted for the household's history.
type GeneratedRecipe struct {
	ID                 uuid.UUID          `json:"id"`
	UserID             uuid.UUID          `json:"user_id"`
	Title              string             `json:"title"`
	Description        string             `json:"description"`
	Ingredients        []string           `json:"ingredients"`
	Instructions       []string           `json:"instructions"`
	PrepTimeMinutes    int                `json:"prep_time_minutes"`
	CookTimeMinutes    int                `json:"cook_time_minutes"`
	TotalTimeMinutes   int                `json:"total_time_minutes"`
	Servings           int                `json:"servings"`
	Difficulty         DifficultyLevel    `json:"difficulty"`
	MealType           MealType           `json:"meal_type"`
	Reasoning          string             `json:"reasoning,omitempty"`
	MemberNotes        map[string]string  `json:"member_notes,omitempty"`
	DetectedAllergens  []DetectedAllergen `json:"detected_allergens"`
	SafetyWarnings     []string           `json:"safety_warnings"`
	SafetyScore        int                `json:"safety_score"`
	GenerationCost     float64            `json:"generation_cost"`
	GenerationLatency  time.Duration      `json:"generation_latency"`
	CacheHit           bool               `json:"cache_hit"`
	CreatedAt          time.Time          `json:"created_at"`
}

// IngredientText joins the ingredient list for keyword scanning.
func (r *GeneratedRecipe) IngredientText() string {
	text := ""
	for i, ing := range r.Ingredients {
		if i > 0 {
			text += "\n"
		}
		text += ing
	}
	return text
}
