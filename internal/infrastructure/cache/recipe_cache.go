package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/hearthplan/v1/internal/domain/recipe"
	"github.com/hearthplan/v1/internal/ports/outbound"
)

const (
	recipeKeyPrefix = "hearthplan:recipe:"
	memberKeyPrefix = "hearthplan:member:"
)

// RecipeCache stores generated recipes under constraint fingerprints and
// keeps a per-member reverse index so a profile change can evict every
// entry generated against the old profile.
type RecipeCache struct {
	repo   outbound.CacheRepository
	ttl    time.Duration
	logger *zap.Logger
}

// NewRecipeCache creates the fingerprint-keyed recipe cache.
func NewRecipeCache(repo outbound.CacheRepository, ttl time.Duration, logger *zap.Logger) *RecipeCache {
	return &RecipeCache{
		repo:   repo,
		ttl:    ttl,
		logger: logger.Named("recipe_cache"),
	}
}

// Get returns the cached recipe for a fingerprint, (nil, nil) on miss.
// An undecodable entry is treated as a miss and evicted.
func (c *RecipeCache) Get(ctx context.Context, fingerprint string) (*recipe.GeneratedRecipe, error) {
	data, err := c.repo.Get(ctx, recipeKeyPrefix+fingerprint)
	if err != nil {
		return nil, err
	}
	if data == nil {
		return nil, nil
	}

	var r recipe.GeneratedRecipe
	if err := json.Unmarshal(data, &r); err != nil {
		c.logger.Warn("Evicting undecodable cache entry",
			zap.String("fingerprint", fingerprint),
			zap.Error(err),
		)
		if delErr := c.repo.Delete(ctx, recipeKeyPrefix+fingerprint); delErr != nil {
			c.logger.Warn("Failed to evict undecodable cache entry", zap.Error(delErr))
		}
		return nil, nil
	}
	return &r, nil
}

// Put stores the recipe and records the fingerprint against each member
// present when it was generated. A stale index reference only ever
// produces a harmless delete of an already-expired key.
func (c *RecipeCache) Put(ctx context.Context, fingerprint string, r *recipe.GeneratedRecipe, memberIDs []uuid.UUID) error {
	data, err := json.Marshal(r)
	if err != nil {
		return fmt.Errorf("marshaling recipe for cache: %w", err)
	}

	if err := c.repo.Set(ctx, recipeKeyPrefix+fingerprint, data, c.ttl); err != nil {
		return err
	}

	for _, id := range memberIDs {
		if err := c.repo.SAdd(ctx, memberKeyPrefix+id.String(), fingerprint); err != nil {
			// Partial index writes degrade member invalidation, not
			// correctness; every hit is re-validated before serving.
			c.logger.Warn("Failed to index cache entry for member",
				zap.String("member_id", id.String()),
				zap.Error(err),
			)
		}
	}
	return nil
}

// Delete evicts one fingerprint.
func (c *RecipeCache) Delete(ctx context.Context, fingerprint string) error {
	return c.repo.Delete(ctx, recipeKeyPrefix+fingerprint)
}

// InvalidateMember evicts every entry recorded for the member. Called
// when a member profile changes, since those entries were validated
// against the old constraints.
func (c *RecipeCache) InvalidateMember(ctx context.Context, memberID uuid.UUID) error {
	indexKey := memberKeyPrefix + memberID.String()

	fingerprints, err := c.repo.SMembers(ctx, indexKey)
	if err != nil {
		return err
	}

	keys := make([]string, 0, len(fingerprints)+1)
	for _, fp := range fingerprints {
		keys = append(keys, recipeKeyPrefix+fp)
	}
	keys = append(keys, indexKey)

	if err := c.repo.Delete(ctx, keys...); err != nil {
		return err
	}

	c.logger.Info("Invalidated cached recipes for member",
		zap.String("member_id", memberID.String()),
		zap.Int("entries", len(fingerprints)),
	)
	return nil
}
