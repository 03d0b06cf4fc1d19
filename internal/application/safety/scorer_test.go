package safety

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/hearthplan/v1/internal/domain/family"
)

var allFields = ProviderSafetyFields{
	HasAllergenConsiderations: true,
	HasSafetyNotes:            true,
	HasDietaryCompliance:      true,
}

func TestEvaluateCleanRecipe(t *testing.T) {
	scorer := NewScorer(zaptest.NewLogger(t))

	report := scorer.Evaluate(
		[]string{"2 cups rice", "1 lb chicken breast", "broccoli"},
		family.ComplexityAnalysis{ComplexityScore: 2},
		[]family.MemberProfile{{Name: "Dana"}},
		allFields,
	)

	assert.Empty(t, report.Detections)
	assert.Equal(t, 100, report.Score)
	// The disclaimer is always present, even on a clean recipe.
	require.Len(t, report.Warnings, 1)
	assert.Contains(t, report.Warnings[0], "generated by AI")
}

func TestEvaluateDetectsAllergenConfidence(t *testing.T) {
	scorer := NewScorer(zaptest.NewLogger(t))

	report := scorer.Evaluate(
		[]string{"1 cup milk", "2 tbsp butter"},
		family.ComplexityAnalysis{},
		nil,
		allFields,
	)

	require.Len(t, report.Detections, 1)
	det := report.Detections[0]
	assert.Equal(t, "dairy", det.Category)
	// 2 of 8 dairy keywords matched.
	assert.InDelta(t, 0.25, det.Confidence, 0.001)
	assert.Equal(t, family.SeverityMild, det.Severity)
	assert.Empty(t, det.AffectsFamilyMembers)
}

func TestEvaluatePeanutAllergyMatchesNutsCategory(t *testing.T) {
	scorer := NewScorer(zaptest.NewLogger(t))
	members := []family.MemberProfile{
		{Name: "Maya", Allergies: []string{"peanuts"}},
	}

	report := scorer.Evaluate(
		[]string{"3 tbsp peanut butter", "2 slices bread"},
		family.ComplexityAnalysis{},
		members,
		allFields,
	)

	idx := -1
	for i := range report.Detections {
		if report.Detections[i].Category == "nuts" {
			idx = i
			break
		}
	}
	require.NotEqual(t, -1, idx, "nuts category must be detected")

	det := report.Detections[idx]
	assert.Equal(t, family.SeveritySevere, det.Severity)
	assert.Equal(t, []string{"Maya"}, det.AffectsFamilyMembers)
	assert.Contains(t, det.Warning, "Maya is allergic to")

	// Family-affecting detection produces a CRITICAL warning first.
	require.NotEmpty(t, report.Warnings)
	assert.Contains(t, report.Warnings[0], "CRITICAL")
	assert.Contains(t, report.Warnings[0], "Maya")
}

func TestScorePenalties(t *testing.T) {
	scorer := NewScorer(zaptest.NewLogger(t))

	t.Run("family allergen costs 40", func(t *testing.T) {
		report := scorer.Evaluate(
			[]string{"peanut oil"},
			family.ComplexityAnalysis{},
			[]family.MemberProfile{{Name: "Maya", Allergies: []string{"peanut"}}},
			allFields,
		)
		assert.Equal(t, 60, report.Score)
	})

	t.Run("allergen without profiles costs 30", func(t *testing.T) {
		report := scorer.Evaluate(
			[]string{"peanut oil"},
			family.ComplexityAnalysis{},
			nil,
			allFields,
		)
		assert.Equal(t, 70, report.Score)
	})

	t.Run("general allergen with profiles costs 10", func(t *testing.T) {
		report := scorer.Evaluate(
			[]string{"1 cup milk"},
			family.ComplexityAnalysis{},
			[]family.MemberProfile{{Name: "Dana"}},
			allFields,
		)
		assert.Equal(t, 90, report.Score)
	})

	t.Run("complexity above baseline costs 5 per point", func(t *testing.T) {
		report := scorer.Evaluate(
			[]string{"rice"},
			family.ComplexityAnalysis{ComplexityScore: 7},
			[]family.MemberProfile{{Name: "Dana"}},
			allFields,
		)
		assert.Equal(t, 80, report.Score)
	})

	t.Run("missing provider fields cost 10 each", func(t *testing.T) {
		report := scorer.Evaluate(
			[]string{"rice"},
			family.ComplexityAnalysis{},
			[]family.MemberProfile{{Name: "Dana"}},
			ProviderSafetyFields{},
		)
		assert.Equal(t, 70, report.Score)
	})

	t.Run("score clamps at zero", func(t *testing.T) {
		report := scorer.Evaluate(
			[]string{"peanut butter", "milk", "shrimp", "wheat flour", "soy sauce", "egg", "salmon", "tahini"},
			family.ComplexityAnalysis{ComplexityScore: 30},
			[]family.MemberProfile{{Name: "Maya", Allergies: []string{"peanuts", "dairy", "shellfish"}}},
			ProviderSafetyFields{},
		)
		assert.Equal(t, 0, report.Score)
	})
}

func TestWarningOrdering(t *testing.T) {
	scorer := NewScorer(zaptest.NewLogger(t))

	report := scorer.Evaluate(
		[]string{"peanut butter", "1 cup milk"},
		family.ComplexityAnalysis{ComplexityScore: 12},
		[]family.MemberProfile{{Name: "Maya", Allergies: []string{"peanuts"}}},
		allFields,
	)

	require.Len(t, report.Warnings, 4)
	assert.True(t, strings.HasPrefix(report.Warnings[0], "CRITICAL"))
	assert.Contains(t, report.Warnings[1], "not tied to a family profile")
	assert.Contains(t, report.Warnings[2], "complex dietary needs")
	assert.Contains(t, report.Warnings[3], "generated by AI")
}

func TestMatchesAllergy(t *testing.T) {
	var nuts Category
	for _, c := range Lexicon() {
		if c.Name == "nuts" {
			nuts = c
		}
	}
	require.NotEmpty(t, nuts.Name)

	assert.True(t, nuts.MatchesAllergy("peanuts"))
	assert.True(t, nuts.MatchesAllergy("Tree Nuts"))
	assert.True(t, nuts.MatchesAllergy("almond"))
	assert.False(t, nuts.MatchesAllergy("dairy"))
	assert.False(t, nuts.MatchesAllergy(""))
}
