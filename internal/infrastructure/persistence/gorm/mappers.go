package gorm

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/hearthplan/v1/internal/domain/recipe"
)

// RecipeToModel converts the domain recipe for persistence.
func RecipeToModel(r *recipe.GeneratedRecipe) (*GeneratedRecipeModel, error) {
	allergens, err := json.Marshal(r.DetectedAllergens)
	if err != nil {
		return nil, fmt.Errorf("marshaling detected allergens: %w", err)
	}
	notes, err := json.Marshal(r.MemberNotes)
	if err != nil {
		return nil, fmt.Errorf("marshaling member notes: %w", err)
	}

	return &GeneratedRecipeModel{
		ID:                r.ID,
		UserID:            r.UserID,
		Title:             r.Title,
		Description:       r.Description,
		Ingredients:       StringSlice(r.Ingredients),
		Instructions:      StringSlice(r.Instructions),
		PrepTimeMinutes:   r.PrepTimeMinutes,
		CookTimeMinutes:   r.CookTimeMinutes,
		TotalTimeMinutes:  r.TotalTimeMinutes,
		Servings:          r.Servings,
		Difficulty:        string(r.Difficulty),
		MealType:          string(r.MealType),
		Reasoning:         r.Reasoning,
		MemberNotes:       JSONField(notes),
		DetectedAllergens: JSONField(allergens),
		SafetyWarnings:    StringSlice(r.SafetyWarnings),
		SafetyScore:       r.SafetyScore,
		GenerationCost:    r.GenerationCost,
		LatencyMillis:     r.GenerationLatency.Milliseconds(),
		CacheHit:          r.CacheHit,
		CreatedAt:         r.CreatedAt,
	}, nil
}

// ModelToRecipe converts a persisted row back to the domain recipe.
func ModelToRecipe(m *GeneratedRecipeModel) (*recipe.GeneratedRecipe, error) {
	var allergens []recipe.DetectedAllergen
	if len(m.DetectedAllergens) > 0 {
		if err := json.Unmarshal(m.DetectedAllergens, &allergens); err != nil {
			return nil, fmt.Errorf("unmarshaling detected allergens: %w", err)
		}
	}
	var notes map[string]string
	if len(m.MemberNotes) > 0 {
		if err := json.Unmarshal(m.MemberNotes, &notes); err != nil {
			return nil, fmt.Errorf("unmarshaling member notes: %w", err)
		}
	}

	return &recipe.GeneratedRecipe{
		ID:                m.ID,
		UserID:            m.UserID,
		Title:             m.Title,
		Description:       m.Description,
		Ingredients:       []string(m.Ingredients),
		Instructions:      []string(m.Instructions),
		PrepTimeMinutes:   m.PrepTimeMinutes,
		CookTimeMinutes:   m.CookTimeMinutes,
		TotalTimeMinutes:  m.TotalTimeMinutes,
		Servings:          m.Servings,
		Difficulty:        recipe.DifficultyLevel(m.Difficulty),
		MealType:          recipe.MealType(m.MealType),
		Reasoning:         m.Reasoning,
		MemberNotes:       notes,
		DetectedAllergens: allergens,
		SafetyWarnings:    []string(m.SafetyWarnings),
		SafetyScore:       m.SafetyScore,
		GenerationCost:    m.GenerationCost,
		GenerationLatency: time.Duration(m.LatencyMillis) * time.Millisecond,
		CacheHit:          m.CacheHit,
		CreatedAt:         m.CreatedAt,
	}, nil
}
