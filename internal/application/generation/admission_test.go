package generation

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"go.uber.org/zap/zaptest"

	"github.com/hearthplan/v1/internal/domain/recipe"
	"github.com/hearthplan/v1/internal/infrastructure/config"
	"github.com/hearthplan/v1/internal/ports/outbound"
)

type mockLedger struct {
	mock.Mock
}

func (m *mockLedger) Append(ctx context.Context, entry outbound.UsageEntry) error {
	args := m.Called(ctx, entry)
	return args.Error(0)
}

func (m *mockLedger) SumCostSince(ctx context.Context, userID uuid.UUID, since time.Time) (float64, error) {
	args := m.Called(ctx, userID, since)
	return args.Get(0).(float64), args.Error(1)
}

func (m *mockLedger) CountSince(ctx context.Context, userID uuid.UUID, since time.Time) (int64, error) {
	args := m.Called(ctx, userID, since)
	return args.Get(0).(int64), args.Error(1)
}

func admissionConfig() config.AdmissionConfig {
	return config.AdmissionConfig{
		FreeDailyCeiling:    0.01,
		PremiumDailyCeiling: 0.10,
		CircuitBreakerCost:  1.00,
		RateWindow:          time.Hour,
		RateThreshold:       10,
	}
}

func TestCheckAllowsUnderLimits(t *testing.T) {
	ledger := new(mockLedger)
	ledger.On("SumCostSince", mock.Anything, mock.Anything, mock.Anything).Return(0.001, nil)
	ledger.On("CountSince", mock.Anything, mock.Anything, mock.Anything).Return(int64(2), nil)

	ctrl := NewAdmissionController(admissionConfig(), ledger, zaptest.NewLogger(t))
	d := ctrl.Check(context.Background(), uuid.New(), TierFree)

	assert.True(t, d.Allowed)
	ledger.AssertExpectations(t)
}

func TestCostGateDeniesAtFreeCeiling(t *testing.T) {
	ledger := new(mockLedger)
	ledger.On("SumCostSince", mock.Anything, mock.Anything, mock.Anything).Return(0.01, nil)

	ctrl := NewAdmissionController(admissionConfig(), ledger, zaptest.NewLogger(t))
	d := ctrl.Check(context.Background(), uuid.New(), TierFree)

	assert.False(t, d.Allowed)
	assert.Equal(t, recipe.FailureCostLimit, d.Code)
	assert.Contains(t, d.Message, "Upgrade to premium")
	// The rate gate never runs after a cost deny.
	ledger.AssertNotCalled(t, "CountSince", mock.Anything, mock.Anything, mock.Anything)
}

func TestCostGatePremiumCeiling(t *testing.T) {
	ledger := new(mockLedger)
	ledger.On("SumCostSince", mock.Anything, mock.Anything, mock.Anything).Return(0.05, nil)
	ledger.On("CountSince", mock.Anything, mock.Anything, mock.Anything).Return(int64(0), nil)

	ctrl := NewAdmissionController(admissionConfig(), ledger, zaptest.NewLogger(t))

	// 0.05 exceeds the free ceiling but not the premium one.
	assert.True(t, ctrl.Check(context.Background(), uuid.New(), TierPremium).Allowed)

	deny := ctrl.CheckCostLimits(context.Background(), uuid.New(), TierFree)
	assert.False(t, deny.Allowed)
}

func TestCircuitBreakerAppliesToEveryTier(t *testing.T) {
	ledger := new(mockLedger)
	ledger.On("SumCostSince", mock.Anything, mock.Anything, mock.Anything).Return(1.00, nil)

	ctrl := NewAdmissionController(admissionConfig(), ledger, zaptest.NewLogger(t))
	d := ctrl.CheckCostLimits(context.Background(), uuid.New(), TierPremium)

	assert.False(t, d.Allowed)
	assert.Equal(t, recipe.FailureCostLimit, d.Code)
	assert.Contains(t, d.Message, "temporarily paused")
}

func TestRateGateThresholdBoundary(t *testing.T) {
	// One request below the threshold passes; at the threshold denies.
	cases := []struct {
		count   int64
		allowed bool
	}{
		{9, true},
		{10, false},
	}

	for _, tc := range cases {
		ledger := new(mockLedger)
		ledger.On("CountSince", mock.Anything, mock.Anything, mock.Anything).Return(tc.count, nil)

		ctrl := NewAdmissionController(admissionConfig(), ledger, zaptest.NewLogger(t))
		d := ctrl.CheckRateLimits(context.Background(), uuid.New())

		assert.Equal(t, tc.allowed, d.Allowed, "count %d", tc.count)
		if !tc.allowed {
			assert.Equal(t, recipe.FailureRateLimit, d.Code)
		}
	}
}

func TestGatesFailOpenOnLedgerError(t *testing.T) {
	ledger := new(mockLedger)
	ledger.On("SumCostSince", mock.Anything, mock.Anything, mock.Anything).
		Return(0.0, errors.New("connection refused"))
	ledger.On("CountSince", mock.Anything, mock.Anything, mock.Anything).
		Return(int64(0), errors.New("connection refused"))

	ctrl := NewAdmissionController(admissionConfig(), ledger, zaptest.NewLogger(t))

	assert.True(t, ctrl.CheckCostLimits(context.Background(), uuid.New(), TierFree).Allowed)
	assert.True(t, ctrl.CheckRateLimits(context.Background(), uuid.New()).Allowed)
}

func TestCostWindowStartsAtMidnightUTC(t *testing.T) {
	ledger := new(mockLedger)
	var cutoff time.Time
	ledger.On("SumCostSince", mock.Anything, mock.Anything, mock.MatchedBy(func(since time.Time) bool {
		cutoff = since
		return true
	})).Return(0.0, nil)

	ctrl := NewAdmissionController(admissionConfig(), ledger, zaptest.NewLogger(t))
	ctrl.CheckCostLimits(context.Background(), uuid.New(), TierFree)

	assert.Equal(t, time.UTC, cutoff.Location())
	assert.Zero(t, cutoff.Hour())
	assert.Zero(t, cutoff.Minute())
	assert.Zero(t, cutoff.Second())
}
