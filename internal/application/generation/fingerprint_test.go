package generation

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/hearthplan/v1/internal/domain/recipe"
)

func TestFingerprintStable(t *testing.T) {
	fp1 := Fingerprint(recipe.MealDinner, []string{"olives", "peanuts"}, 4, nil)
	fp2 := Fingerprint(recipe.MealDinner, []string{"olives", "peanuts"}, 4, nil)

	assert.Equal(t, fp1, fp2)
	assert.Len(t, fp1, 32)
}

func TestFingerprintSensitivity(t *testing.T) {
	base := Fingerprint(recipe.MealDinner, []string{"peanuts"}, 4, nil)

	assert.NotEqual(t, base, Fingerprint(recipe.MealLunch, []string{"peanuts"}, 4, nil))
	assert.NotEqual(t, base, Fingerprint(recipe.MealDinner, []string{"peanuts", "soy"}, 4, nil))
	assert.NotEqual(t, base, Fingerprint(recipe.MealDinner, []string{"peanuts"}, 5, nil))
	assert.NotEqual(t, base, Fingerprint(recipe.MealDinner, []string{"peanuts"}, 4, &recipe.SpecialOccasion{
		OccasionType: "birthday",
		GuestCount:   6,
	}))
}

func TestFingerprintOccasionCanonicalization(t *testing.T) {
	a := Fingerprint(recipe.MealDinner, nil, 4, &recipe.SpecialOccasion{
		OccasionType:      "Birthday",
		GuestCount:        6,
		GuestRestrictions: []string{"Kosher", "vegan"},
	})
	b := Fingerprint(recipe.MealDinner, nil, 4, &recipe.SpecialOccasion{
		OccasionType:      "birthday",
		GuestCount:        6,
		GuestRestrictions: []string{"vegan", "kosher"},
	})

	// Restriction order and casing do not change the constraints.
	assert.Equal(t, a, b)
}

func TestFingerprintMatchesEquivalentHouseholds(t *testing.T) {
	// Two households wording the same avoidances differently converge
	// once the set is normalized.
	first := NormalizedAvoidanceSet([]AvoidanceEntry{
		{Ingredient: "Peanuts", Kind: AvoidAllergy, Member: "Maya"},
		{Ingredient: "olives", Kind: AvoidDislike, Member: "household"},
	})
	second := NormalizedAvoidanceSet([]AvoidanceEntry{
		{Ingredient: "olives ", Kind: AvoidDislike, Member: "Dana"},
		{Ingredient: "peanuts", Kind: AvoidAllergy, Member: "household"},
	})

	assert.Equal(t,
		Fingerprint(recipe.MealDinner, first, 4, nil),
		Fingerprint(recipe.MealDinner, second, 4, nil),
	)
}
