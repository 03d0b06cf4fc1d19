package generation

import (
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hearthplan/v1/internal/domain/family"
	"github.com/hearthplan/v1/internal/domain/recipe"
	"github.com/hearthplan/v1/internal/infrastructure/config"
)

func testBuilder() *RequestBuilder {
	return NewRequestBuilder(config.AIConfig{MaxTokens: 2000, Temperature: 0.7})
}

func samplePrefs() family.HouseholdPreferences {
	return family.HouseholdPreferences{
		HouseholdSize:       4,
		CookingSkill:        family.SkillIntermediate,
		Budget:              family.BudgetMedium,
		CookingMinutes:      45,
		Allergies:           []string{"sesame"},
		DislikedIngredients: []string{"olives"},
		Members: []family.MemberProfile{
			{
				ID:                  uuid.New(),
				Name:                "Maya",
				AgeBracket:          family.AgeBracketChild,
				Allergies:           []string{"peanuts"},
				AllergySeverities:   []family.AllergySeverity{family.SeveritySevere},
				DislikedIngredients: []string{"mushrooms"},
			},
			{
				ID:                  uuid.New(),
				Name:                "Dana",
				AgeBracket:          family.AgeBracketAdult,
				DietaryRestrictions: []string{"vegetarian"},
			},
		},
	}
}

func TestAvoidanceEntriesStableOrder(t *testing.T) {
	entries := AvoidanceEntries(samplePrefs())

	tagged := make([]string, len(entries))
	for i, e := range entries {
		tagged[i] = e.Tagged()
	}

	assert.Equal(t, []string{
		"sesame (ALLERGY - household)",
		"olives (DISLIKE - household)",
		"peanuts (ALLERGY - Maya)",
		"mushrooms (DISLIKE - Maya)",
	}, tagged)
}

func TestNormalizedAvoidanceSet(t *testing.T) {
	entries := []AvoidanceEntry{
		{Ingredient: "Peanuts", Kind: AvoidAllergy, Member: "Maya"},
		{Ingredient: "peanuts ", Kind: AvoidDislike, Member: "household"},
		{Ingredient: "Olives", Kind: AvoidDislike, Member: "household"},
		{Ingredient: "  ", Kind: AvoidDislike, Member: "household"},
	}

	assert.Equal(t, []string{"olives", "peanuts"}, NormalizedAvoidanceSet(entries))
}

func TestSystemBlockListsAvoidances(t *testing.T) {
	prompt := testBuilder().Build(recipe.GenerationRequest{
		UserID:      uuid.New(),
		Preferences: samplePrefs(),
		MealType:    recipe.MealDinner,
	}, family.Analyze(samplePrefs()))

	assert.Contains(t, prompt.System, "HARD AVOIDANCE LIST")
	assert.Contains(t, prompt.System, "peanuts (ALLERGY - Maya)")
	assert.Contains(t, prompt.System, "sesame (ALLERGY - household)")
	assert.Contains(t, prompt.System, "vegetarian")
	assert.Contains(t, prompt.System, "ONLY a valid JSON object")
	assert.Equal(t, 2000, prompt.MaxTokens)
	assert.InDelta(t, 0.7, prompt.Temperature, 0.001)
}

func TestSystemBlockExplicitWhenNoAvoidances(t *testing.T) {
	prefs := family.HouseholdPreferences{HouseholdSize: 2}
	prompt := testBuilder().Build(recipe.GenerationRequest{
		Preferences: prefs,
		MealType:    recipe.MealLunch,
	}, family.Analyze(prefs))

	// The avoidance section must state emptiness rather than vanish.
	assert.Contains(t, prompt.System, "No avoidances required.")
}

func TestUserBlockCarriesContext(t *testing.T) {
	req := recipe.GenerationRequest{
		Preferences: samplePrefs(),
		MealType:    recipe.MealDinner,
		Occasion: &recipe.SpecialOccasion{
			OccasionType:      "birthday dinner",
			GuestCount:        6,
			GuestRestrictions: []string{"kosher"},
			PresentationLevel: "festive",
		},
		PantryItems: []string{"rice", "carrots"},
	}

	prompt := testBuilder().Build(req, family.Analyze(req.Preferences))

	assert.Contains(t, prompt.User, "dinner recipe for a household of 4")
	assert.Contains(t, prompt.User, "intermediate")
	assert.Contains(t, prompt.User, "45 minutes")
	assert.Contains(t, prompt.User, "birthday dinner with 6 guests")
	assert.Contains(t, prompt.User, "kosher")
	assert.Contains(t, prompt.User, "festive")
	assert.Contains(t, prompt.User, "rice, carrots")
	// Meal-type guidance is present for dinner.
	assert.Contains(t, prompt.User, "main family meal")
}

func TestMemberNotesSkipUnconstrainedMembers(t *testing.T) {
	prefs := samplePrefs()
	prefs.Members = append(prefs.Members, family.MemberProfile{
		ID:         uuid.New(),
		Name:       "Sam",
		AgeBracket: family.AgeBracketAdult,
	})

	prompt := testBuilder().Build(recipe.GenerationRequest{
		Preferences: prefs,
		MealType:    recipe.MealDinner,
	}, family.Analyze(prefs))

	require.Contains(t, prompt.System, "Maya (child): allergic to peanuts")
	assert.Contains(t, prompt.System, "Dana (adult): vegetarian")
	assert.False(t, strings.Contains(prompt.System, "Sam ("), "unconstrained members carry no note")
}
