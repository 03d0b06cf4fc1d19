package generation

import (
	"crypto/sha256"
	"fmt"
	"io"
	"sort"
	"strconv"
	"strings"

	"github.com/hearthplan/v1/internal/domain/recipe"
)

// Fingerprint derives the cache key for a request from its effective
// constraints: meal type, normalized avoidance set, household size, and
// occasion context. Wording and ordering differences that do not change
// the constraints produce the same fingerprint.
func Fingerprint(mealType recipe.MealType, avoidances []string, householdSize int, occ *recipe.SpecialOccasion) string {
	h := sha256.New()

	io.WriteString(h, string(mealType))
	io.WriteString(h, "|")
	io.WriteString(h, strings.Join(avoidances, ","))
	io.WriteString(h, "|")
	io.WriteString(h, strconv.Itoa(householdSize))
	io.WriteString(h, "|")
	io.WriteString(h, canonicalOccasion(occ))

	return fmt.Sprintf("%x", h.Sum(nil))[:32]
}

func canonicalOccasion(occ *recipe.SpecialOccasion) string {
	if occ == nil {
		return ""
	}
	restrictions := make([]string, len(occ.GuestRestrictions))
	for i, r := range occ.GuestRestrictions {
		restrictions[i] = strings.ToLower(strings.TrimSpace(r))
	}
	sort.Strings(restrictions)

	return strings.Join([]string{
		strings.ToLower(strings.TrimSpace(occ.OccasionType)),
		strconv.Itoa(occ.GuestCount),
		strings.Join(restrictions, ","),
		strings.ToLower(strings.TrimSpace(occ.PresentationLevel)),
	}, "|")
}
