// Package generation implements the recipe-generation governance
// pipeline: admission control, request construction, orchestration of
// the provider call, and fallback handling.
package generation

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/hearthplan/v1/internal/domain/recipe"
	"github.com/hearthplan/v1/internal/infrastructure/config"
	"github.com/hearthplan/v1/internal/ports/outbound"
)

// UserTier selects which daily cost ceiling applies to a user.
type UserTier string

const (
	TierFree    UserTier = "free"
	TierPremium UserTier = "premium"
)

// Decision is the outcome of one admission gate. A deny carries a
// user-facing message; raw datastore errors never reach the user.
type Decision struct {
	Allowed bool
	Code    recipe.FailureCode
	Message string
}

var allow = Decision{Allowed: true}

// AdmissionController enforces the per-user daily cost ceiling and the
// rolling-window rate limit before any provider cost is incurred. Both
// gates are recomputed from the usage ledger on every check.
//
// Both gates fail OPEN when the ledger is unreachable. This is a
// deliberate availability-over-strictness choice: a datastore outage
// should not lock every household out of the feature. The worst case is
// bounded overshoot of the ceiling.
//
// The two ledger reads and the eventual usage write are not
// transactional, so two concurrent requests from the same user can both
// pass admission before either logs usage. That race permits transient
// overshoot of at most one request cost and is accepted rather than
// paying for distributed locking.
type AdmissionController struct {
	cfg    config.AdmissionConfig
	ledger outbound.UsageLedger
	logger *zap.Logger
}

// NewAdmissionController creates an admission controller backed by the
// usage ledger.
func NewAdmissionController(cfg config.AdmissionConfig, ledger outbound.UsageLedger, logger *zap.Logger) *AdmissionController {
	return &AdmissionController{
		cfg:    cfg,
		ledger: ledger,
		logger: logger.Named("admission"),
	}
}

// Check runs the cost gate then the rate gate. The first deny wins.
func (a *AdmissionController) Check(ctx context.Context, userID uuid.UUID, tier UserTier) Decision {
	if d := a.CheckCostLimits(ctx, userID, tier); !d.Allowed {
		return d
	}
	return a.CheckRateLimits(ctx, userID)
}

// CheckCostLimits sums today's ledger cost for the user against the
// tier ceiling. The day boundary is midnight UTC.
func (a *AdmissionController) CheckCostLimits(ctx context.Context, userID uuid.UUID, tier UserTier) Decision {
	startOfDay := time.Now().UTC().Truncate(24 * time.Hour)

	spent, err := a.ledger.SumCostSince(ctx, userID, startOfDay)
	if err != nil {
		a.logger.Warn("Usage ledger unreachable, cost gate failing open",
			zap.String("user_id", userID.String()),
			zap.Error(err),
		)
		return allow
	}

	// Absolute circuit breaker applies to every tier.
	if spent >= a.cfg.CircuitBreakerCost {
		a.logger.Error("Circuit breaker cost ceiling reached",
			zap.String("user_id", userID.String()),
			zap.Float64("spent", spent),
			zap.Float64("ceiling", a.cfg.CircuitBreakerCost),
		)
		return Decision{
			Code:    recipe.FailureCostLimit,
			Message: "Recipe generation is temporarily paused for your account. Please try again tomorrow.",
		}
	}

	ceiling := a.cfg.FreeDailyCeiling
	if tier == TierPremium {
		ceiling = a.cfg.PremiumDailyCeiling
	}

	if spent >= ceiling {
		a.logger.Info("Daily cost ceiling reached",
			zap.String("user_id", userID.String()),
			zap.String("tier", string(tier)),
			zap.Float64("spent", spent),
			zap.Float64("ceiling", ceiling),
		)
		msg := "You've reached today's recipe generation limit. Upgrade to premium for more, or try again tomorrow."
		if tier == TierPremium {
			msg = "You've reached today's recipe generation limit. More recipes will be available tomorrow."
		}
		return Decision{Code: recipe.FailureCostLimit, Message: msg}
	}

	return allow
}

// CheckRateLimits counts the user's ledger entries in the trailing rate
// window against the spike threshold.
func (a *AdmissionController) CheckRateLimits(ctx context.Context, userID uuid.UUID) Decision {
	since := time.Now().UTC().Add(-a.cfg.RateWindow)

	count, err := a.ledger.CountSince(ctx, userID, since)
	if err != nil {
		a.logger.Warn("Usage ledger unreachable, rate gate failing open",
			zap.String("user_id", userID.String()),
			zap.Error(err),
		)
		return allow
	}

	if count >= int64(a.cfg.RateThreshold) {
		a.logger.Info("Rate threshold reached",
			zap.String("user_id", userID.String()),
			zap.Int64("requests_in_window", count),
			zap.Int("threshold", a.cfg.RateThreshold),
		)
		return Decision{
			Code:    recipe.FailureRateLimit,
			Message: "You're generating recipes very quickly. Please wait a little while and try again.",
		}
	}

	return allow
}
