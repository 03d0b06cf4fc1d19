package family

import (
	"fmt"
	"sort"
	"strings"
)

// ComplexityAnalysis is the derived view of a household's constraints
// that the generation pipeline works from. It is recomputed for every
// request and never cached: family composition can change between calls
// within the same session.
type ComplexityAnalysis struct {
	AllAllergies       []string        `json:"all_allergies"`
	AllRestrictions    []string        `json:"all_restrictions"`
	AllDislikes        []string        `json:"all_dislikes"`
	CriticalMembers    []MemberProfile `json:"critical_members"`
	ChildCount         int             `json:"child_count"`
	TeenCount          int             `json:"teen_count"`
	HasDietaryConflict bool            `json:"has_dietary_conflict"`
	ComplexityScore    float64         `json:"complexity_score"`
	Summary            string          `json:"summary"`
}

// Score weights. Allergies and critical members dominate restrictions and
// simple preference variety; reweighting must preserve that ordering.
const (
	weightAllergy     = 2.0
	weightRestriction = 1.5
	weightCritical    = 3.0
	weightChild       = 1.0
	weightConflict    = 2.0
)

var vegetarianMarkers = []string{"vegetarian", "vegan"}

// Analyze merges household-level and member-level constraints into a
// single ComplexityAnalysis. Pure function, no side effects.
func Analyze(prefs HouseholdPreferences) ComplexityAnalysis {
	allergies := newStringSet(prefs.Allergies...)
	restrictions := newStringSet(prefs.DietaryRestrictions...)
	dislikes := newStringSet(prefs.DislikedIngredients...)

	var critical []MemberProfile
	children, teens := 0, 0
	vegMembers, nonVegMembers := 0, 0

	for _, m := range prefs.Members {
		allergies.add(m.Allergies...)
		restrictions.add(m.DietaryRestrictions...)
		dislikes.add(m.DislikedIngredients...)

		if m.HasCriticalAllergy() {
			critical = append(critical, m)
		}

		switch m.AgeBracket {
		case AgeBracketChild:
			children++
		case AgeBracketTeen:
			teens++
		}

		if isVegetarian(m.DietaryRestrictions) {
			vegMembers++
		} else {
			nonVegMembers++
		}
	}

	conflict := vegMembers > 0 && nonVegMembers > 0

	score := weightAllergy*float64(allergies.len()) +
		weightRestriction*float64(restrictions.len()) +
		weightCritical*float64(len(critical)) +
		weightChild*float64(children)
	if conflict {
		score += weightConflict
	}

	analysis := ComplexityAnalysis{
		AllAllergies:       allergies.sorted(),
		AllRestrictions:    restrictions.sorted(),
		AllDislikes:        dislikes.sorted(),
		CriticalMembers:    critical,
		ChildCount:         children,
		TeenCount:          teens,
		HasDietaryConflict: conflict,
		ComplexityScore:    score,
	}
	analysis.Summary = summarize(prefs, analysis)
	return analysis
}

// HasAllergy reports whether the allergy union contains name
// (case-insensitive).
func (a ComplexityAnalysis) HasAllergy(name string) bool {
	name = normalizeTag(name)
	for _, al := range a.AllAllergies {
		if normalizeTag(al) == name {
			return true
		}
	}
	return false
}

func isVegetarian(restrictions []string) bool {
	for _, r := range restrictions {
		tag := normalizeTag(r)
		for _, marker := range vegetarianMarkers {
			if strings.Contains(tag, marker) {
				return true
			}
		}
	}
	return false
}

func summarize(prefs HouseholdPreferences, a ComplexityAnalysis) string {
	parts := []string{fmt.Sprintf("%d member household", len(prefs.Members))}
	if n := len(a.AllAllergies); n > 0 {
		parts = append(parts, fmt.Sprintf("%d allergies to avoid", n))
	}
	if n := len(a.CriticalMembers); n > 0 {
		parts = append(parts, fmt.Sprintf("%d members with critical allergies", n))
	}
	if n := len(a.AllRestrictions); n > 0 {
		parts = append(parts, fmt.Sprintf("%d dietary restrictions", n))
	}
	if a.ChildCount > 0 {
		parts = append(parts, fmt.Sprintf("%d children", a.ChildCount))
	}
	if a.HasDietaryConflict {
		parts = append(parts, "mixed vegetarian and non-vegetarian needs")
	}
	return strings.Join(parts, ", ")
}

// stringSet deduplicates case-insensitively while preserving the first
// spelling seen, so prompts keep the household's own wording.
type stringSet struct {
	seen  map[string]struct{}
	items []string
}

func newStringSet(values ...string) *stringSet {
	s := &stringSet{seen: make(map[string]struct{})}
	s.add(values...)
	return s
}

func (s *stringSet) add(values ...string) {
	for _, v := range values {
		key := normalizeTag(v)
		if key == "" {
			continue
		}
		if _, ok := s.seen[key]; ok {
			continue
		}
		s.seen[key] = struct{}{}
		s.items = append(s.items, strings.TrimSpace(v))
	}
}

func (s *stringSet) len() int { return len(s.items) }

func (s *stringSet) sorted() []string {
	out := make([]string, len(s.items))
	copy(out, s.items)
	sort.Slice(out, func(i, j int) bool {
		return normalizeTag(out[i]) < normalizeTag(out[j])
	})
	return out
}

func normalizeTag(v string) string {
	return strings.ToLower(strings.TrimSpace(v))
}
