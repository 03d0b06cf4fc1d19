// Package outbound defines the interfaces for outbound ports (driven
// adapters): the usage ledger, recipe store, cache, and the external
// text-generation provider.
package outbound

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/hearthplan/v1/internal/domain/recipe"
)

// UsageEntry is one append-only row in the usage ledger. Cost and rate
// windows are always recomputed from these rows rather than held in
// process-local counters, so admission control survives restarts and
// generalizes across instances.
type UsageEntry struct {
	ID              uuid.UUID
	UserID          uuid.UUID
	Cost            float64
	TokensUsed      int
	LatencyMillis   int64
	MealType        string
	ComplexityScore float64
	CacheHit        bool
	CreatedAt       time.Time
}

// UsageLedger is the append-only usage datastore backing admission
// control and the usage summary endpoint.
type UsageLedger interface {
	Append(ctx context.Context, entry UsageEntry) error
	// SumCostSince returns the summed cost of the user's entries at or
	// after the cutoff.
	SumCostSince(ctx context.Context, userID uuid.UUID, since time.Time) (float64, error)
	// CountSince returns the number of the user's entries at or after
	// the cutoff.
	CountSince(ctx context.Context, userID uuid.UUID, since time.Time) (int64, error)
}

// RecipeRepository persists generated recipes for household history.
type RecipeRepository interface {
	Create(ctx context.Context, r *recipe.GeneratedRecipe) error
	FindByUser(ctx context.Context, userID uuid.UUID, offset, limit int) ([]*recipe.GeneratedRecipe, int64, error)
	FindByID(ctx context.Context, id uuid.UUID) (*recipe.GeneratedRecipe, error)
}

// CacheRepository is the externally synchronized cache shared by
// concurrent requests.
type CacheRepository interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Delete(ctx context.Context, keys ...string) error
	SAdd(ctx context.Context, key string, members ...string) error
	SMembers(ctx context.Context, key string) ([]string, error)
}

// RecipeCache avoids repeat generation cost for equivalent requests.
// Entries are addressed by a constraint fingerprint, never by raw
// free-text preferences. Get returns (nil, nil) on a miss.
type RecipeCache interface {
	Get(ctx context.Context, fingerprint string) (*recipe.GeneratedRecipe, error)
	Put(ctx context.Context, fingerprint string, r *recipe.GeneratedRecipe, memberIDs []uuid.UUID) error
	Delete(ctx context.Context, fingerprint string) error
	// InvalidateMember drops every entry recorded for a member, called
	// when that member's profile changes.
	InvalidateMember(ctx context.Context, memberID uuid.UUID) error
}

// GenerationPrompt is the structured request sent to the provider: a
// system block carrying the safety and avoidance rules and a user block
// carrying the meal context.
type GenerationPrompt struct {
	System      string
	User        string
	MaxTokens   int
	Temperature float64
}

// ProviderRecipe is the provider's parsed JSON payload before safety
// enhancement. The three *Considerations/Notes/Compliance fields are
// untrusted self-reports; their absence degrades the safety score but
// their presence is never a substitute for the deterministic scan.
type ProviderRecipe struct {
	Title                  string            `json:"title"`
	Description            string            `json:"description"`
	Ingredients            []string          `json:"ingredients"`
	Instructions           []string          `json:"instructions"`
	PrepTimeMinutes        int               `json:"prep_time_minutes"`
	CookTimeMinutes        int               `json:"cook_time_minutes"`
	Servings               int               `json:"servings"`
	Difficulty             string            `json:"difficulty"`
	Reasoning              string            `json:"reasoning"`
	MemberNotes            map[string]string `json:"member_notes"`
	AllergenConsiderations []string          `json:"allergen_considerations"`
	SafetyNotes            string            `json:"safety_notes"`
	DietaryCompliance      []string          `json:"dietary_compliance"`
	TokensUsed             int               `json:"-"`
	Cost                   float64           `json:"-"`
}

// TextGenerator is the external generation provider. Implementations
// must honor context cancellation; the orchestrator applies a bounded
// timeout so a call can never stay in flight forever.
type TextGenerator interface {
	Generate(ctx context.Context, prompt GenerationPrompt) (*ProviderRecipe, error)
}
