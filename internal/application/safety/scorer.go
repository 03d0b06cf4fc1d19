package safety

import (
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/hearthplan/v1/internal/domain/family"
	"github.com/hearthplan/v1/internal/domain/recipe"
)

// Scoring penalties. The score is a 0-100 heuristic, not a guarantee.
const (
	penaltyFamilyAllergen  = 40
	penaltyNoProfileData   = 30
	penaltyGeneralAllergen = 10
	penaltyPerComplexity   = 5
	penaltyMissingField    = 10

	complexityBaseline         = 3.0
	complexityWarningThreshold = 10.0
)

// aiDisclaimer is appended to every report unconditionally.
const aiDisclaimer = "This recipe was generated by AI. Always verify ingredients against your family's allergies before cooking."

// ProviderSafetyFields records which safety-related fields the provider
// actually returned. Missing fields degrade the score instead of
// failing the request: partial safety information is still actionable.
type ProviderSafetyFields struct {
	HasAllergenConsiderations bool
	HasSafetyNotes            bool
	HasDietaryCompliance      bool
}

// Report is the outcome of one safety evaluation.
type Report struct {
	Detections []recipe.DetectedAllergen
	Warnings   []string
	Score      int
}

// Scorer runs the deterministic allergen scan and computes the safety
// score for a household.
type Scorer struct {
	logger *zap.Logger
}

// NewScorer creates a safety scorer.
func NewScorer(logger *zap.Logger) *Scorer {
	return &Scorer{logger: logger.Named("safety-scorer")}
}

// Evaluate scans the ingredient list against the lexicon, escalates
// severity for allergens tied to family members, and computes the
// safety score. It runs on every generated recipe, including ones the
// provider claims to have already checked.
func (s *Scorer) Evaluate(
	ingredients []string,
	analysis family.ComplexityAnalysis,
	members []family.MemberProfile,
	fields ProviderSafetyFields,
) Report {
	text := strings.ToLower(strings.Join(ingredients, "\n"))

	var detections []recipe.DetectedAllergen
	for _, cat := range Lexicon() {
		matched := 0
		for _, kw := range cat.Keywords {
			if strings.Contains(text, kw) {
				matched++
			}
		}
		if matched == 0 {
			continue
		}

		det := recipe.DetectedAllergen{
			Category:   cat.Name,
			Confidence: float64(matched) / float64(len(cat.Keywords)),
			Severity:   cat.DefaultSeverity,
			Icon:       cat.Icon,
		}

		for _, m := range members {
			for _, allergy := range m.Allergies {
				if cat.MatchesAllergy(allergy) {
					det.AffectsFamilyMembers = append(det.AffectsFamilyMembers, m.Name)
					det.Severity = family.SeveritySevere
					break
				}
			}
		}

		if len(det.AffectsFamilyMembers) > 0 {
			det.Warning = fmt.Sprintf("Contains %s, which %s is allergic to",
				cat.Name, strings.Join(det.AffectsFamilyMembers, " and "))
		} else {
			det.Warning = fmt.Sprintf("Contains %s", cat.Name)
		}

		detections = append(detections, det)
	}

	score := s.score(detections, analysis, len(members) > 0, fields)
	warnings := s.warnings(detections, analysis)

	if len(detections) > 0 {
		s.logger.Info("Allergens detected in generated recipe",
			zap.Int("detections", len(detections)),
			zap.Int("safety_score", score),
		)
	}

	return Report{Detections: detections, Warnings: warnings, Score: score}
}

func (s *Scorer) score(
	detections []recipe.DetectedAllergen,
	analysis family.ComplexityAnalysis,
	hasProfiles bool,
	fields ProviderSafetyFields,
) int {
	score := 100

	for _, det := range detections {
		switch {
		case len(det.AffectsFamilyMembers) > 0:
			score -= penaltyFamilyAllergen
		case !hasProfiles:
			score -= penaltyNoProfileData
		default:
			score -= penaltyGeneralAllergen
		}
	}

	if over := analysis.ComplexityScore - complexityBaseline; over > 0 {
		score -= penaltyPerComplexity * int(over)
	}

	if !fields.HasAllergenConsiderations {
		score -= penaltyMissingField
	}
	if !fields.HasSafetyNotes {
		score -= penaltyMissingField
	}
	if !fields.HasDietaryCompliance {
		score -= penaltyMissingField
	}

	if score < 0 {
		score = 0
	}
	if score > 100 {
		score = 100
	}
	return score
}

func (s *Scorer) warnings(detections []recipe.DetectedAllergen, analysis family.ComplexityAnalysis) []string {
	var warnings []string

	var familyHits []string
	general := 0
	for _, det := range detections {
		if len(det.AffectsFamilyMembers) > 0 {
			familyHits = append(familyHits, fmt.Sprintf("%s (%s)",
				det.Category, strings.Join(det.AffectsFamilyMembers, ", ")))
		} else {
			general++
		}
	}

	if len(familyHits) > 0 {
		warnings = append(warnings, fmt.Sprintf(
			"CRITICAL: detected allergens affecting family members: %s. Do not serve without substitutions.",
			strings.Join(familyHits, "; ")))
	}
	if general > 0 {
		warnings = append(warnings, fmt.Sprintf(
			"Detected %d common allergen(s) not tied to a family profile. Review the ingredient list.", general))
	}
	if analysis.ComplexityScore > complexityWarningThreshold {
		warnings = append(warnings, "This household has complex dietary needs. Double-check every substitution.")
	}
	warnings = append(warnings, aiDisclaimer)

	return warnings
}
