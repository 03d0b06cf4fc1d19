// Package family contains the household and family-member domain model
// used by the recipe generation pipeline. Profiles are owned by the
// household settings flow; the pipeline only reads them.
package family

import (
	"fmt"

	"github.com/google/uuid"
)

// AgeBracket classifies a family member by age group
type AgeBracket string

const (
	AgeBracketChild  AgeBracket = "child"
	AgeBracketTeen   AgeBracket = "teen"
	AgeBracketAdult  AgeBracket = "adult"
	AgeBracketSenior AgeBracket = "senior"
)

// AllergySeverity rates how dangerous an allergy is for a member
type AllergySeverity string

const (
	SeverityMild            AllergySeverity = "mild"
	SeverityModerate        AllergySeverity = "moderate"
	SeveritySevere          AllergySeverity = "severe"
	SeverityLifeThreatening AllergySeverity = "life_threatening"
)

// IsCritical reports whether the severity requires hard enforcement
func (s AllergySeverity) IsCritical() bool {
	return s == SeveritySevere || s == SeverityLifeThreatening
}

// MemberProfile describes one family member's dietary constraints.
// Allergies and AllergySeverities are parallel lists aligned by position;
// an allergy without a matching severity entry defaults to mild.
type MemberProfile struct {
	ID                  uuid.UUID         `json:"id"`
	Name                string            `json:"name"`
	AgeBracket          AgeBracket        `json:"age_bracket"`
	Allergies           []string          `json:"allergies"`
	AllergySeverities   []AllergySeverity `json:"allergy_severities"`
	DietaryRestrictions []string          `json:"dietary_restrictions"`
	DislikedIngredients []string          `json:"disliked_ingredients"`
	SpecialNeeds        string            `json:"special_needs,omitempty"`
}

// SeverityFor returns the severity recorded for the allergy at index i,
// defaulting to mild when the severity list is shorter than the allergy list.
func (m MemberProfile) SeverityFor(i int) AllergySeverity {
	if i < 0 || i >= len(m.Allergies) {
		return SeverityMild
	}
	if i >= len(m.AllergySeverities) {
		return SeverityMild
	}
	if m.AllergySeverities[i] == "" {
		return SeverityMild
	}
	return m.AllergySeverities[i]
}

// HasCriticalAllergy reports whether any of the member's allergies is
// severe or life-threatening.
func (m MemberProfile) HasCriticalAllergy() bool {
	for i := range m.Allergies {
		if m.SeverityFor(i).IsCritical() {
			return true
		}
	}
	return false
}

// Validate checks the parallel-list invariant. Severities may be shorter
// than allergies (missing entries default to mild) but never longer.
func (m MemberProfile) Validate() error {
	if m.Name == "" {
		return fmt.Errorf("member profile requires a name")
	}
	if len(m.AllergySeverities) > len(m.Allergies) {
		return fmt.Errorf("member %s: %d severities for %d allergies",
			m.Name, len(m.AllergySeverities), len(m.Allergies))
	}
	return nil
}

// CookingSkill tiers map to the amount of technique a recipe may assume
type CookingSkill string

const (
	SkillBeginner     CookingSkill = "beginner"
	SkillIntermediate CookingSkill = "intermediate"
	SkillAdvanced     CookingSkill = "advanced"
)

// BudgetTier drives ingredient cost guidance in generated recipes
type BudgetTier string

const (
	BudgetLow    BudgetTier = "low"
	BudgetMedium BudgetTier = "medium"
	BudgetHigh   BudgetTier = "high"
)

// HouseholdPreferences aggregates household-level settings with the
// member profiles. Household-level restriction fields cover constraints
// not tied to a specific member.
type HouseholdPreferences struct {
	HouseholdID         uuid.UUID       `json:"household_id"`
	HouseholdSize       int             `json:"household_size"`
	CookingSkill        CookingSkill    `json:"cooking_skill"`
	Budget              BudgetTier      `json:"budget"`
	CookingMinutes      int             `json:"cooking_minutes"`
	DietaryRestrictions []string        `json:"dietary_restrictions"`
	Allergies           []string        `json:"allergies"`
	DislikedIngredients []string        `json:"disliked_ingredients"`
	MealsPerWeek        int             `json:"meals_per_week"`
	Members             []MemberProfile `json:"members"`
}

// Validate checks every member profile invariant.
func (h HouseholdPreferences) Validate() error {
	for _, m := range h.Members {
		if err := m.Validate(); err != nil {
			return err
		}
	}
	return nil
}
