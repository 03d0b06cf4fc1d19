package gorm

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/hearthplan/v1/internal/ports/outbound"
	apperrors "github.com/hearthplan/v1/pkg/errors"
)

// UsageRepository implements the append-only usage ledger with GORM.
// There is no update or delete path on purpose.
type UsageRepository struct {
	db *gorm.DB
}

// NewUsageRepository creates the usage ledger repository.
func NewUsageRepository(db *gorm.DB) outbound.UsageLedger {
	return &UsageRepository{db: db}
}

// Append writes one ledger row.
func (r *UsageRepository) Append(ctx context.Context, entry outbound.UsageEntry) error {
	model := UsageEntryModel{
		ID:              entry.ID,
		UserID:          entry.UserID,
		Cost:            entry.Cost,
		TokensUsed:      entry.TokensUsed,
		LatencyMillis:   entry.LatencyMillis,
		MealType:        entry.MealType,
		ComplexityScore: entry.ComplexityScore,
		CacheHit:        entry.CacheHit,
		CreatedAt:       entry.CreatedAt,
	}
	if result := r.db.WithContext(ctx).Create(&model); result.Error != nil {
		return apperrors.NewDatabaseError("append usage entry", result.Error)
	}
	return nil
}

// SumCostSince sums the user's cost at or after the cutoff. COALESCE
// keeps an empty window at zero instead of NULL.
func (r *UsageRepository) SumCostSince(ctx context.Context, userID uuid.UUID, since time.Time) (float64, error) {
	var total float64
	result := r.db.WithContext(ctx).Model(&UsageEntryModel{}).
		Select("COALESCE(SUM(cost), 0)").
		Where("user_id = ? AND created_at >= ?", userID, since).
		Scan(&total)
	if result.Error != nil {
		return 0, apperrors.NewDatabaseError("sum usage cost", result.Error)
	}
	return total, nil
}

// CountSince counts the user's entries at or after the cutoff.
func (r *UsageRepository) CountSince(ctx context.Context, userID uuid.UUID, since time.Time) (int64, error) {
	var count int64
	result := r.db.WithContext(ctx).Model(&UsageEntryModel{}).
		Where("user_id = ? AND created_at >= ?", userID, since).
		Count(&count)
	if result.Error != nil {
		return 0, apperrors.NewDatabaseError("count usage entries", result.Error)
	}
	return count, nil
}
