// Package inbound defines the interfaces for inbound ports (driving
// adapters such as the HTTP layer).
package inbound

import (
	"context"

	"github.com/hearthplan/v1/internal/domain/recipe"
)

// GenerationService is the single inbound operation of the pipeline.
// The returned result is always non-nil; failures are encoded in the
// payload rather than the error, which is reserved for request
// validation problems.
type GenerationService interface {
	Generate(ctx context.Context, req recipe.GenerationRequest) (*recipe.GenerationResult, error)
}

// UsageService surfaces a user's current spend and request count for
// the subscription screens.
type UsageService interface {
	TodayUsage(ctx context.Context, userID string) (*UsageSummary, error)
}

// UsageSummary is the caller-facing view of today's ledger windows.
type UsageSummary struct {
	UserID       string  `json:"user_id"`
	CostToday    float64 `json:"cost_today"`
	DailyCeiling float64 `json:"daily_ceiling"`
	RequestsHour int64   `json:"requests_last_hour"`
	RateCeiling  int     `json:"rate_ceiling"`
}
