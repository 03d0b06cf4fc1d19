// Package handlers contains the JSON API handlers for the generation
// pipeline.
package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/hearthplan/v1/internal/domain/recipe"
	"github.com/hearthplan/v1/internal/ports/inbound"
	"github.com/hearthplan/v1/internal/ports/outbound"
	apperrors "github.com/hearthplan/v1/pkg/errors"
)

// APIHandler serves the generation, history, and usage endpoints.
type APIHandler struct {
	generation inbound.GenerationService
	usage      inbound.UsageService
	recipes    outbound.RecipeRepository
	cache      outbound.RecipeCache
	validate   *validator.Validate
	logger     *zap.Logger
}

// NewAPIHandler creates the API handler.
func NewAPIHandler(
	generation inbound.GenerationService,
	usage inbound.UsageService,
	recipes outbound.RecipeRepository,
	cache outbound.RecipeCache,
	logger *zap.Logger,
) *APIHandler {
	return &APIHandler{
		generation: generation,
		usage:      usage,
		recipes:    recipes,
		cache:      cache,
		validate:   validator.New(),
		logger:     logger.Named("api"),
	}
}

// generateRequest is the wire form of a generation request.
type generateRequest struct {
	UserID      string                  `json:"user_id" validate:"required,uuid4"`
	Tier        string                  `json:"tier" validate:"omitempty,oneof=free premium"`
	MealType    string                  `json:"meal_type" validate:"required,oneof=breakfast lunch dinner snack"`
	Preferences json.RawMessage         `json:"preferences" validate:"required"`
	Occasion    *recipe.SpecialOccasion `json:"occasion,omitempty"`
	PantryItems []string                `json:"pantry_items,omitempty" validate:"max=50"`
}

// GenerateRecipe handles POST /api/v1/recipes/generate.
func (h *APIHandler) GenerateRecipe(w http.ResponseWriter, r *http.Request) {
	var req generateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, apperrors.NewBadRequestError("invalid JSON body"))
		return
	}
	if err := h.validate.Struct(&req); err != nil {
		h.writeError(w, apperrors.NewValidationError(err.Error()))
		return
	}

	domainReq := recipe.GenerationRequest{
		Tier:        req.Tier,
		MealType:    recipe.MealType(req.MealType),
		Occasion:    req.Occasion,
		PantryItems: req.PantryItems,
	}
	// uuid4 validation above guarantees this parses.
	domainReq.UserID = uuid.MustParse(req.UserID)

	if err := json.Unmarshal(req.Preferences, &domainReq.Preferences); err != nil {
		h.writeError(w, apperrors.NewBadRequestError("invalid preferences object"))
		return
	}

	result, err := h.generation.Generate(r.Context(), domainReq)
	if err != nil {
		h.writeError(w, err)
		return
	}

	h.writeJSON(w, statusForResult(result), result)
}

// TodayUsage handles GET /api/v1/usage.
func (h *APIHandler) TodayUsage(w http.ResponseWriter, r *http.Request) {
	userID := r.URL.Query().Get("user_id")
	if userID == "" {
		h.writeError(w, apperrors.NewBadRequestError("user_id query parameter is required"))
		return
	}

	summary, err := h.usage.TodayUsage(r.Context(), userID)
	if err != nil {
		h.writeError(w, err)
		return
	}

	h.writeJSON(w, http.StatusOK, summary)
}

// recipeListResponse is the paginated history payload.
type recipeListResponse struct {
	Recipes []*recipe.GeneratedRecipe `json:"recipes"`
	Total   int64                     `json:"total"`
	Page    int                       `json:"page"`
	Limit   int                       `json:"limit"`
}

// ListRecipes handles GET /api/v1/recipes.
func (h *APIHandler) ListRecipes(w http.ResponseWriter, r *http.Request) {
	userID, err := uuid.Parse(r.URL.Query().Get("user_id"))
	if err != nil {
		h.writeError(w, apperrors.NewBadRequestError("user_id query parameter must be a valid UUID"))
		return
	}

	page, _ := strconv.Atoi(r.URL.Query().Get("page"))
	if page < 1 {
		page = 1
	}
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	if limit < 1 || limit > 100 {
		limit = 20
	}

	recipes, total, err := h.recipes.FindByUser(r.Context(), userID, (page-1)*limit, limit)
	if err != nil {
		h.writeError(w, err)
		return
	}

	h.writeJSON(w, http.StatusOK, recipeListResponse{
		Recipes: recipes,
		Total:   total,
		Page:    page,
		Limit:   limit,
	})
}

// GetRecipe handles GET /api/v1/recipes/{id}.
func (h *APIHandler) GetRecipe(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		h.writeError(w, apperrors.NewBadRequestError("recipe id must be a valid UUID"))
		return
	}

	rec, err := h.recipes.FindByID(r.Context(), id)
	if err != nil {
		h.writeError(w, err)
		return
	}

	h.writeJSON(w, http.StatusOK, rec)
}

// InvalidateMemberCache handles POST /api/v1/members/{id}/cache/invalidate.
// Profile services call this when a member's allergies or restrictions
// change, since cached recipes were validated against the old profile.
func (h *APIHandler) InvalidateMemberCache(w http.ResponseWriter, r *http.Request) {
	memberID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		h.writeError(w, apperrors.NewBadRequestError("member id must be a valid UUID"))
		return
	}

	if err := h.cache.InvalidateMember(r.Context(), memberID); err != nil {
		h.writeError(w, apperrors.Wrap(err, "invalidating member cache"))
		return
	}

	h.writeJSON(w, http.StatusOK, map[string]bool{"invalidated": true})
}

// statusForResult maps the pipeline outcome to an HTTP status. Failure
// results still carry a body the client can render.
func statusForResult(result *recipe.GenerationResult) int {
	if result.Success {
		return http.StatusOK
	}
	switch result.FailureCode {
	case recipe.FailureCostLimit, recipe.FailureRateLimit:
		return http.StatusTooManyRequests
	case recipe.FailureProviderTimeout:
		return http.StatusGatewayTimeout
	case recipe.FailureInvalidRequest:
		return http.StatusBadRequest
	default:
		return http.StatusBadGateway
	}
}

func (h *APIHandler) writeJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		h.logger.Error("Failed to encode response", zap.Error(err))
	}
}

func (h *APIHandler) writeError(w http.ResponseWriter, err error) {
	var appErr *apperrors.AppError
	if !errors.As(err, &appErr) {
		appErr = apperrors.NewInternalError("unexpected error")
		h.logger.Error("Unclassified handler error", zap.Error(err))
	}

	h.writeJSON(w, appErr.StatusCode(), apperrors.ToErrorResponse(appErr, ""))
}
