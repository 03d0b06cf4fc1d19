package gorm

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/hearthplan/v1/internal/domain/recipe"
	"github.com/hearthplan/v1/internal/ports/outbound"
	apperrors "github.com/hearthplan/v1/pkg/errors"
)

// RecipeRepository implements outbound.RecipeRepository with GORM.
type RecipeRepository struct {
	db *gorm.DB
}

// NewRecipeRepository creates the recipe history repository.
func NewRecipeRepository(db *gorm.DB) outbound.RecipeRepository {
	return &RecipeRepository{db: db}
}

// Create persists a generated recipe.
func (r *RecipeRepository) Create(ctx context.Context, rec *recipe.GeneratedRecipe) error {
	model, err := RecipeToModel(rec)
	if err != nil {
		return err
	}
	if result := r.db.WithContext(ctx).Create(model); result.Error != nil {
		return apperrors.NewDatabaseError("create recipe", result.Error)
	}
	return nil
}

// FindByUser returns the user's recipes newest-first with the total count.
func (r *RecipeRepository) FindByUser(ctx context.Context, userID uuid.UUID, offset, limit int) ([]*recipe.GeneratedRecipe, int64, error) {
	var total int64
	if result := r.db.WithContext(ctx).Model(&GeneratedRecipeModel{}).
		Where("user_id = ?", userID).
		Count(&total); result.Error != nil {
		return nil, 0, apperrors.NewDatabaseError("count recipes", result.Error)
	}

	var models []GeneratedRecipeModel
	if result := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Offset(offset).
		Limit(limit).
		Find(&models); result.Error != nil {
		return nil, 0, apperrors.NewDatabaseError("list recipes", result.Error)
	}

	recipes := make([]*recipe.GeneratedRecipe, len(models))
	for i := range models {
		rec, err := ModelToRecipe(&models[i])
		if err != nil {
			return nil, 0, err
		}
		recipes[i] = rec
	}
	return recipes, total, nil
}

// FindByID returns one recipe or a not-found error.
func (r *RecipeRepository) FindByID(ctx context.Context, id uuid.UUID) (*recipe.GeneratedRecipe, error) {
	var model GeneratedRecipeModel
	result := r.db.WithContext(ctx).First(&model, "id = ?", id)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, apperrors.NewRecipeNotFoundError(id.String())
		}
		return nil, apperrors.NewDatabaseError("find recipe", result.Error)
	}
	return ModelToRecipe(&model)
}
