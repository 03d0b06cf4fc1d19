package generation

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/hearthplan/v1/internal/infrastructure/config"
	"github.com/hearthplan/v1/internal/ports/inbound"
	"github.com/hearthplan/v1/internal/ports/outbound"
	apperrors "github.com/hearthplan/v1/pkg/errors"
)

// UsageService reads the same ledger windows admission control uses, so
// the numbers shown to the user always agree with what the gates will
// enforce on the next request.
type UsageService struct {
	cfg    config.AdmissionConfig
	ledger outbound.UsageLedger
	logger *zap.Logger
}

// NewUsageService creates the usage summary service.
func NewUsageService(cfg config.AdmissionConfig, ledger outbound.UsageLedger, logger *zap.Logger) *UsageService {
	return &UsageService{
		cfg:    cfg,
		ledger: ledger,
		logger: logger.Named("usage"),
	}
}

// TodayUsage returns the user's spend since midnight UTC and request
// count over the trailing rate window. Unlike admission, a ledger error
// here is surfaced: showing a wrong number is worse than showing none.
func (s *UsageService) TodayUsage(ctx context.Context, userID string) (*inbound.UsageSummary, error) {
	uid, err := uuid.Parse(userID)
	if err != nil {
		return nil, apperrors.NewValidationError("user_id must be a valid UUID")
	}

	startOfDay := time.Now().UTC().Truncate(24 * time.Hour)
	cost, err := s.ledger.SumCostSince(ctx, uid, startOfDay)
	if err != nil {
		s.logger.Error("Failed to read usage cost window", zap.String("user_id", userID), zap.Error(err))
		return nil, apperrors.Wrap(err, "reading usage ledger")
	}

	since := time.Now().UTC().Add(-s.cfg.RateWindow)
	count, err := s.ledger.CountSince(ctx, uid, since)
	if err != nil {
		s.logger.Error("Failed to read usage rate window", zap.String("user_id", userID), zap.Error(err))
		return nil, apperrors.Wrap(err, "reading usage ledger")
	}

	return &inbound.UsageSummary{
		UserID:       userID,
		CostToday:    cost,
		DailyCeiling: s.cfg.FreeDailyCeiling,
		RequestsHour: count,
		RateCeiling:  s.cfg.RateThreshold,
	}, nil
}
