package generation

import (
	"fmt"
	"sort"
	"strings"

	"github.com/hearthplan/v1/internal/domain/family"
	"github.com/hearthplan/v1/internal/domain/recipe"
	"github.com/hearthplan/v1/internal/infrastructure/config"
	"github.com/hearthplan/v1/internal/ports/outbound"
)

// AvoidanceKind distinguishes why an ingredient is avoided.
type AvoidanceKind string

const (
	AvoidAllergy AvoidanceKind = "ALLERGY"
	AvoidDislike AvoidanceKind = "DISLIKE"
)

// AvoidanceEntry is one item in the household's hard-avoidance list.
type AvoidanceEntry struct {
	Ingredient string
	Kind       AvoidanceKind
	Member     string // "household" for non-member-specific entries
}

// Tagged renders the entry in the provider-facing format.
func (e AvoidanceEntry) Tagged() string {
	return fmt.Sprintf("%s (%s - %s)", e.Ingredient, e.Kind, e.Member)
}

// AvoidanceEntries builds the household's hard-avoidance list in stable
// order: household-level entries first, then each member in profile
// order, allergies before dislikes.
func AvoidanceEntries(prefs family.HouseholdPreferences) []AvoidanceEntry {
	var entries []AvoidanceEntry

	for _, a := range prefs.Allergies {
		entries = append(entries, AvoidanceEntry{Ingredient: a, Kind: AvoidAllergy, Member: "household"})
	}
	for _, d := range prefs.DislikedIngredients {
		entries = append(entries, AvoidanceEntry{Ingredient: d, Kind: AvoidDislike, Member: "household"})
	}
	for _, m := range prefs.Members {
		for _, a := range m.Allergies {
			entries = append(entries, AvoidanceEntry{Ingredient: a, Kind: AvoidAllergy, Member: m.Name})
		}
		for _, d := range m.DislikedIngredients {
			entries = append(entries, AvoidanceEntry{Ingredient: d, Kind: AvoidDislike, Member: m.Name})
		}
	}

	return entries
}

// NormalizedAvoidanceSet reduces the entries to a sorted, deduplicated,
// lowercase ingredient list. Two requests that avoid the same things in
// different wording or order produce the same set, which keys the cache.
func NormalizedAvoidanceSet(entries []AvoidanceEntry) []string {
	seen := make(map[string]struct{}, len(entries))
	var out []string
	for _, e := range entries {
		key := strings.ToLower(strings.TrimSpace(e.Ingredient))
		if key == "" {
			continue
		}
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, key)
	}
	sort.Strings(out)
	return out
}

// mealGuidance holds the per-meal-type instruction block.
var mealGuidance = map[recipe.MealType]string{
	recipe.MealBreakfast: "Breakfast should be quick to prepare on a weekday morning, balanced, and appealing to every age group in the household.",
	recipe.MealLunch:     "Lunch should be satisfying but light enough for midday, and should pack or reheat well.",
	recipe.MealDinner:    "Dinner is the main family meal. Favor shared dishes that scale to the full household and can anchor leftovers.",
	recipe.MealSnack:     "Snacks should be simple, portioned, and safe for unsupervised kids where the household includes children.",
}

// RequestBuilder turns a generation request plus its complexity analysis
// into the structured provider prompt. It performs no I/O.
type RequestBuilder struct {
	maxTokens   int
	temperature float64
}

// NewRequestBuilder creates a request builder using the configured token
// ceiling and temperature.
func NewRequestBuilder(cfg config.AIConfig) *RequestBuilder {
	return &RequestBuilder{
		maxTokens:   cfg.MaxTokens,
		temperature: cfg.Temperature,
	}
}

// Build assembles the system and user blocks. The avoidance section is
// never omitted: when the household has no constraints it states so
// explicitly, so the provider cannot infer license to use anything.
func (b *RequestBuilder) Build(req recipe.GenerationRequest, analysis family.ComplexityAnalysis) outbound.GenerationPrompt {
	return outbound.GenerationPrompt{
		System:      b.systemBlock(req, analysis),
		User:        b.userBlock(req, analysis),
		MaxTokens:   b.maxTokens,
		Temperature: b.temperature,
	}
}

func (b *RequestBuilder) systemBlock(req recipe.GenerationRequest, analysis family.ComplexityAnalysis) string {
	var sb strings.Builder

	sb.WriteString("You are a family meal-planning assistant. You create safe, practical recipes for households with mixed dietary needs.\n\n")

	sb.WriteString("HARD AVOIDANCE LIST. The recipe must not contain any of these ingredients in any form:\n")
	entries := AvoidanceEntries(req.Preferences)
	if len(entries) == 0 {
		sb.WriteString("No avoidances required. This household has no allergies, restrictions, or dislikes on file.\n")
	} else {
		for _, e := range entries {
			sb.WriteString("- " + e.Tagged() + "\n")
		}
	}

	if len(analysis.AllRestrictions) > 0 {
		sb.WriteString("\nDietary restrictions that must be honored: ")
		sb.WriteString(strings.Join(analysis.AllRestrictions, ", "))
		sb.WriteString("\n")
	}

	if notes := memberNotes(req.Preferences.Members); len(notes) > 0 {
		sb.WriteString("\nPer-member notes:\n")
		for _, n := range notes {
			sb.WriteString("- " + n + "\n")
		}
	}

	sb.WriteString("\nCRITICAL: respond with ONLY a valid JSON object in this exact shape, no markdown, no commentary:\n")
	sb.WriteString(`{
  "title": "Recipe name",
  "description": "One-paragraph description",
  "ingredients": ["2 cups flour", "..."],
  "instructions": ["Step one", "..."],
  "prep_time_minutes": 15,
  "cook_time_minutes": 25,
  "servings": 4,
  "difficulty": "easy|medium|hard",
  "reasoning": "Why this recipe fits this household",
  "member_notes": {"member name": "note"},
  "allergen_considerations": ["..."],
  "safety_notes": "...",
  "dietary_compliance": ["..."]
}`)
	sb.WriteString("\n")

	return sb.String()
}

func (b *RequestBuilder) userBlock(req recipe.GenerationRequest, analysis family.ComplexityAnalysis) string {
	var sb strings.Builder
	prefs := req.Preferences

	fmt.Fprintf(&sb, "Create a %s recipe for a household of %d.\n", req.MealType, prefs.HouseholdSize)
	fmt.Fprintf(&sb, "Cooking skill: %s. Budget: %s. Time available: %d minutes.\n",
		prefs.CookingSkill, prefs.Budget, prefs.CookingMinutes)
	sb.WriteString("Household profile: " + analysis.Summary + ".\n")

	if guidance, ok := mealGuidance[req.MealType]; ok {
		sb.WriteString(guidance + "\n")
	}

	if occ := req.Occasion; occ != nil {
		fmt.Fprintf(&sb, "Special occasion: %s with %d guests.", occ.OccasionType, occ.GuestCount)
		if len(occ.GuestRestrictions) > 0 {
			fmt.Fprintf(&sb, " Guest restrictions: %s.", strings.Join(occ.GuestRestrictions, ", "))
		}
		if occ.PresentationLevel != "" {
			fmt.Fprintf(&sb, " Presentation: %s.", occ.PresentationLevel)
		}
		sb.WriteString("\n")
	}

	if len(req.PantryItems) > 0 {
		sb.WriteString("Prefer using these pantry items: " + strings.Join(req.PantryItems, ", ") + ".\n")
	}

	return sb.String()
}

func memberNotes(members []family.MemberProfile) []string {
	var notes []string
	for _, m := range members {
		var parts []string
		if len(m.Allergies) > 0 {
			parts = append(parts, "allergic to "+strings.Join(m.Allergies, ", "))
		}
		if len(m.DietaryRestrictions) > 0 {
			parts = append(parts, strings.Join(m.DietaryRestrictions, ", "))
		}
		if m.SpecialNeeds != "" {
			parts = append(parts, m.SpecialNeeds)
		}
		if len(parts) == 0 {
			continue
		}
		notes = append(notes, fmt.Sprintf("%s (%s): %s", m.Name, m.AgeBracket, strings.Join(parts, "; ")))
	}
	return notes
}
