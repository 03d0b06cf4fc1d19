// Package safety provides the deterministic allergen detection and
// safety scoring pass that runs over every generated recipe. It never
// performs network I/O and never trusts the provider's own allergen
// self-report.
package safety

import (
	"strings"

	"github.com/hearthplan/v1/internal/domain/family"
)

// Category is one allergen category in the static lexicon.
type Category struct {
	Name            string
	Keywords        []string
	Icon            string
	DefaultSeverity family.AllergySeverity
}

// lexicon maps the major allergen categories to the ingredient keywords
// that indicate them. Keyword matching is case-insensitive substring.
var lexicon = []Category{
	{
		Name:            "dairy",
		Keywords:        []string{"milk", "cheese", "butter", "cream", "yogurt", "whey", "casein", "ghee"},
		Icon:            "🥛",
		DefaultSeverity: family.SeverityMild,
	},
	{
		Name:            "eggs",
		Keywords:        []string{"egg", "mayonnaise", "meringue", "albumin"},
		Icon:            "🥚",
		DefaultSeverity: family.SeverityMild,
	},
	{
		Name:            "nuts",
		Keywords:        []string{"peanut", "almond", "cashew", "walnut", "pecan", "pistachio", "hazelnut", "macadamia"},
		Icon:            "🥜",
		DefaultSeverity: family.SeveritySevere,
	},
	{
		Name:            "shellfish",
		Keywords:        []string{"shrimp", "crab", "lobster", "prawn", "crawfish", "scallop", "clam", "mussel", "oyster"},
		Icon:            "🦐",
		DefaultSeverity: family.SeveritySevere,
	},
	{
		Name:            "fish",
		Keywords:        []string{"salmon", "tuna", "cod", "anchovy", "tilapia", "halibut", "fish sauce"},
		Icon:            "🐟",
		DefaultSeverity: family.SeverityModerate,
	},
	{
		Name:            "soy",
		Keywords:        []string{"soy", "tofu", "edamame", "tempeh", "miso"},
		Icon:            "🫘",
		DefaultSeverity: family.SeverityMild,
	},
	{
		Name:            "gluten",
		Keywords:        []string{"wheat", "flour", "bread", "pasta", "barley", "rye", "couscous", "semolina"},
		Icon:            "🌾",
		DefaultSeverity: family.SeverityModerate,
	},
	{
		Name:            "sesame",
		Keywords:        []string{"sesame", "tahini"},
		Icon:            "⚪",
		DefaultSeverity: family.SeverityModerate,
	},
}

// Lexicon returns the allergen categories. The slice is shared; callers
// must not mutate it.
func Lexicon() []Category {
	return lexicon
}

// MatchesAllergy reports whether a member-declared allergy refers to
// this category. "peanuts" matches the nuts category through its
// keyword list even though the member never wrote "nuts".
func (c Category) MatchesAllergy(allergy string) bool {
	a := strings.ToLower(strings.TrimSpace(allergy))
	if a == "" {
		return false
	}
	if strings.Contains(a, c.Name) || strings.Contains(c.Name, a) {
		return true
	}
	for _, kw := range c.Keywords {
		if strings.Contains(a, kw) || strings.Contains(kw, a) {
			return true
		}
	}
	return false
}
