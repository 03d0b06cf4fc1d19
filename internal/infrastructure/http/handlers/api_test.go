package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/brianvoe/gofakeit/v6"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/hearthplan/v1/internal/domain/recipe"
	"github.com/hearthplan/v1/internal/ports/inbound"
)

type stubGeneration struct {
	result *recipe.GenerationResult
	err    error
	gotReq recipe.GenerationRequest
}

func (s *stubGeneration) Generate(ctx context.Context, req recipe.GenerationRequest) (*recipe.GenerationResult, error) {
	s.gotReq = req
	return s.result, s.err
}

type stubUsage struct {
	summary *inbound.UsageSummary
	err     error
}

func (s *stubUsage) TodayUsage(ctx context.Context, userID string) (*inbound.UsageSummary, error) {
	return s.summary, s.err
}

type stubRecipeRepo struct {
	recipes []*recipe.GeneratedRecipe
}

func (s *stubRecipeRepo) Create(ctx context.Context, r *recipe.GeneratedRecipe) error { return nil }

func (s *stubRecipeRepo) FindByUser(ctx context.Context, userID uuid.UUID, offset, limit int) ([]*recipe.GeneratedRecipe, int64, error) {
	return s.recipes, int64(len(s.recipes)), nil
}

func (s *stubRecipeRepo) FindByID(ctx context.Context, id uuid.UUID) (*recipe.GeneratedRecipe, error) {
	for _, r := range s.recipes {
		if r.ID == id {
			return r, nil
		}
	}
	return nil, fmt.Errorf("recipe %s not found", id)
}

type stubCache struct {
	invalidated []uuid.UUID
}

func (s *stubCache) Get(ctx context.Context, fingerprint string) (*recipe.GeneratedRecipe, error) {
	return nil, nil
}
func (s *stubCache) Put(ctx context.Context, fingerprint string, r *recipe.GeneratedRecipe, memberIDs []uuid.UUID) error {
	return nil
}
func (s *stubCache) Delete(ctx context.Context, fingerprint string) error { return nil }
func (s *stubCache) InvalidateMember(ctx context.Context, memberID uuid.UUID) error {
	s.invalidated = append(s.invalidated, memberID)
	return nil
}

type fixture struct {
	router     *chi.Mux
	generation *stubGeneration
	usage      *stubUsage
	repo       *stubRecipeRepo
	cache      *stubCache
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	f := &fixture{
		generation: &stubGeneration{},
		usage:      &stubUsage{},
		repo:       &stubRecipeRepo{},
		cache:      &stubCache{},
	}
	h := NewAPIHandler(f.generation, f.usage, f.repo, f.cache, zaptest.NewLogger(t))

	r := chi.NewRouter()
	r.Post("/api/v1/recipes/generate", h.GenerateRecipe)
	r.Get("/api/v1/recipes", h.ListRecipes)
	r.Get("/api/v1/recipes/{id}", h.GetRecipe)
	r.Get("/api/v1/usage", h.TodayUsage)
	r.Post("/api/v1/members/{id}/cache/invalidate", h.InvalidateMemberCache)
	f.router = r
	return f
}

func generateBody(userID uuid.UUID) []byte {
	body := map[string]interface{}{
		"user_id":   userID.String(),
		"tier":      "free",
		"meal_type": "dinner",
		"preferences": map[string]interface{}{
			"household_size": 3,
			"cooking_skill":  "intermediate",
			"members": []map[string]interface{}{
				{
					"id":                 uuid.New().String(),
					"name":               gofakeit.FirstName(),
					"age_bracket":        "child",
					"allergies":          []string{"peanuts"},
					"allergy_severities": []string{"severe"},
				},
			},
		},
	}
	data, _ := json.Marshal(body)
	return data
}

func TestGenerateRecipeSuccess(t *testing.T) {
	f := newFixture(t)
	userID := uuid.New()
	f.generation.result = recipe.Succeeded(&recipe.GeneratedRecipe{
		ID:     uuid.New(),
		UserID: userID,
		Title:  gofakeit.Dinner(),
	}, "3 member household")

	req := httptest.NewRequest(http.MethodPost, "/api/v1/recipes/generate", bytes.NewReader(generateBody(userID)))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	f.router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)

	var result recipe.GenerationResult
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &result))
	assert.True(t, result.Success)
	assert.Equal(t, "3 member household", result.FamilySummary)

	// The wire request reached the service with its snapshot intact.
	assert.Equal(t, userID, f.generation.gotReq.UserID)
	assert.Equal(t, recipe.MealDinner, f.generation.gotReq.MealType)
	assert.Len(t, f.generation.gotReq.Preferences.Members, 1)
}

func TestGenerateRecipeValidation(t *testing.T) {
	f := newFixture(t)

	cases := []struct {
		name string
		body string
	}{
		{"not json", "not-json"},
		{"missing user", `{"meal_type":"dinner","preferences":{}}`},
		{"bad meal type", fmt.Sprintf(`{"user_id":%q,"meal_type":"brunch","preferences":{}}`, uuid.New())},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/api/v1/recipes/generate", bytes.NewBufferString(tc.body))
			rec := httptest.NewRecorder()
			f.router.ServeHTTP(rec, req)

			assert.Equal(t, http.StatusBadRequest, rec.Code)
		})
	}
}

func TestGenerateRecipeDeniedMapsTo429(t *testing.T) {
	f := newFixture(t)
	f.generation.result = recipe.Denied(recipe.FailureCostLimit, "limit reached")

	req := httptest.NewRequest(http.MethodPost, "/api/v1/recipes/generate", bytes.NewReader(generateBody(uuid.New())))
	rec := httptest.NewRecorder()
	f.router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusTooManyRequests, rec.Code)

	var result recipe.GenerationResult
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &result))
	assert.True(t, result.CostProtected)
}

func TestGenerateRecipeTimeoutMapsTo504(t *testing.T) {
	f := newFixture(t)
	f.generation.result = recipe.Failed(recipe.FailureProviderTimeout, "took too long")

	req := httptest.NewRequest(http.MethodPost, "/api/v1/recipes/generate", bytes.NewReader(generateBody(uuid.New())))
	rec := httptest.NewRecorder()
	f.router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusGatewayTimeout, rec.Code)
}

func TestTodayUsage(t *testing.T) {
	f := newFixture(t)
	f.usage.summary = &inbound.UsageSummary{
		UserID:       uuid.New().String(),
		CostToday:    0.004,
		DailyCeiling: 0.01,
		RequestsHour: 3,
		RateCeiling:  10,
	}

	req := httptest.NewRequest(http.MethodGet, "/api/v1/usage?user_id="+f.usage.summary.UserID, nil)
	rec := httptest.NewRecorder()
	f.router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)

	var summary inbound.UsageSummary
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &summary))
	assert.InDelta(t, 0.004, summary.CostToday, 1e-9)

	// Missing user_id is a client error.
	rec = httptest.NewRecorder()
	f.router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/usage", nil))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestListRecipes(t *testing.T) {
	f := newFixture(t)
	userID := uuid.New()
	f.repo.recipes = []*recipe.GeneratedRecipe{
		{ID: uuid.New(), UserID: userID, Title: gofakeit.Dinner()},
		{ID: uuid.New(), UserID: userID, Title: gofakeit.Dinner()},
	}

	req := httptest.NewRequest(http.MethodGet, "/api/v1/recipes?user_id="+userID.String(), nil)
	rec := httptest.NewRecorder()
	f.router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)

	var resp recipeListResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, int64(2), resp.Total)
	assert.Len(t, resp.Recipes, 2)
	assert.Equal(t, 1, resp.Page)
}

func TestGetRecipe(t *testing.T) {
	f := newFixture(t)
	r := &recipe.GeneratedRecipe{ID: uuid.New(), Title: "Veggie Bowl"}
	f.repo.recipes = []*recipe.GeneratedRecipe{r}

	req := httptest.NewRequest(http.MethodGet, "/api/v1/recipes/"+r.ID.String(), nil)
	rec := httptest.NewRecorder()
	f.router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)

	rec = httptest.NewRecorder()
	f.router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/recipes/not-a-uuid", nil))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestInvalidateMemberCache(t *testing.T) {
	f := newFixture(t)
	memberID := uuid.New()

	req := httptest.NewRequest(http.MethodPost, "/api/v1/members/"+memberID.String()+"/cache/invalidate", nil)
	rec := httptest.NewRecorder()
	f.router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	require.Len(t, f.cache.invalidated, 1)
	assert.Equal(t, memberID, f.cache.invalidated[0])
}
