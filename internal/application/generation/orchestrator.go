package generation

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/hearthplan/v1/internal/application/safety"
	"github.com/hearthplan/v1/internal/domain/family"
	"github.com/hearthplan/v1/internal/domain/recipe"
	"github.com/hearthplan/v1/internal/infrastructure/config"
	"github.com/hearthplan/v1/internal/infrastructure/monitoring"
	"github.com/hearthplan/v1/internal/ports/outbound"
	apperrors "github.com/hearthplan/v1/pkg/errors"
)

// Orchestrator owns the end-to-end generation sequence: admission check,
// cache lookup, prompt construction, provider call, safety enhancement,
// persistence, usage logging, and fallback on any failure.
//
// Each request is an independent, stateless unit of work. The only
// shared state is the usage ledger and the recipe cache, both external
// and externally synchronized; the orchestrator itself holds no locks.
type Orchestrator struct {
	cfg       *config.Config
	admission *AdmissionController
	builder   *RequestBuilder
	scorer    *safety.Scorer
	cache     outbound.RecipeCache
	provider  outbound.TextGenerator
	recipes   outbound.RecipeRepository
	ledger    outbound.UsageLedger
	limiter   *rate.Limiter
	metrics   *monitoring.MetricsCollector
	logger    *zap.Logger
}

// NewOrchestrator wires the pipeline.
func NewOrchestrator(
	cfg *config.Config,
	admission *AdmissionController,
	builder *RequestBuilder,
	scorer *safety.Scorer,
	cache outbound.RecipeCache,
	provider outbound.TextGenerator,
	recipes outbound.RecipeRepository,
	ledger outbound.UsageLedger,
	metrics *monitoring.MetricsCollector,
	logger *zap.Logger,
) *Orchestrator {
	return &Orchestrator{
		cfg:       cfg,
		admission: admission,
		builder:   builder,
		scorer:    scorer,
		cache:     cache,
		provider:  provider,
		recipes:   recipes,
		ledger:    ledger,
		limiter:   rate.NewLimiter(rate.Limit(cfg.AI.GlobalRPS), cfg.AI.GlobalBurst),
		metrics:   metrics,
		logger:    logger.Named("orchestrator"),
	}
}

// Generate runs one request through the pipeline. The returned result
// is always non-nil unless the request itself is invalid; pipeline
// failures are encoded in the result payload.
func (o *Orchestrator) Generate(ctx context.Context, req recipe.GenerationRequest) (*recipe.GenerationResult, error) {
	if !req.MealType.Valid() {
		return nil, apperrors.NewValidationError("meal_type must be one of breakfast, lunch, dinner, snack")
	}
	if err := req.Preferences.Validate(); err != nil {
		return nil, apperrors.NewValidationError(err.Error())
	}

	start := time.Now()

	// Constraint aggregation is recomputed on every request; family
	// composition can change between calls within a session.
	analysis := family.Analyze(req.Preferences)

	// Admission strictly precedes any cost-incurring call.
	if d := o.admission.Check(ctx, req.UserID, UserTier(req.Tier)); !d.Allowed {
		gate := "cost"
		if d.Code == recipe.FailureRateLimit {
			gate = "rate"
		}
		o.metrics.RecordAdmissionDenial(gate)
		o.metrics.RecordGeneration("denied")
		return recipe.Denied(d.Code, d.Message), nil
	}

	entries := AvoidanceEntries(req.Preferences)
	avoidanceSet := NormalizedAvoidanceSet(entries)
	fingerprint := Fingerprint(req.MealType, avoidanceSet, req.Preferences.HouseholdSize, req.Occasion)

	if cached := o.lookupCache(ctx, fingerprint, req, analysis, avoidanceSet); cached != nil {
		o.metrics.RecordGeneration("cache_hit")
		o.logUsage(ctx, req, analysis, 0, 0, 0, true)
		monitoring.GenerationLogger(o.logger, req.UserID.String(), "cache_hit", 0, time.Since(start), true)
		return recipe.Succeeded(cached, analysis.Summary), nil
	}

	prompt := o.builder.Build(req, analysis)

	// Global in-process throttle in front of the provider. Per-user
	// protection already happened at admission; this guards the
	// provider account as a whole.
	if !o.limiter.Allow() {
		o.metrics.RecordGeneration("throttled")
		return recipe.Denied(recipe.FailureRateLimit,
			"Recipe generation is busy right now. Please try again in a moment."), nil
	}

	providerCtx, cancel := context.WithTimeout(ctx, o.cfg.AI.RequestTimeout)
	defer cancel()

	callStart := time.Now()
	payload, err := o.provider.Generate(providerCtx, prompt)
	callLatency := time.Since(callStart)

	if err != nil {
		o.metrics.RecordGeneration("provider_failure")
		code, msg := classifyProviderFailure(err)
		o.logger.Warn("Provider call failed, returning fallback",
			zap.String("user_id", req.UserID.String()),
			zap.String("failure_code", string(code)),
			zap.Duration("latency", callLatency),
			zap.Error(err),
		)
		return recipe.Failed(code, msg), nil
	}

	cost := float64(payload.TokensUsed) / 1000 * o.cfg.AI.CostPer1KTokens
	if payload.Cost > 0 {
		cost = payload.Cost
	}
	o.metrics.RecordProviderCall(callLatency, cost)

	// The safety pass always runs. The provider's own allergen notes
	// are untrusted input.
	report := o.scorer.Evaluate(payload.Ingredients, analysis, req.Preferences.Members, safety.ProviderSafetyFields{
		HasAllergenConsiderations: len(payload.AllergenConsiderations) > 0,
		HasSafetyNotes:            payload.SafetyNotes != "",
		HasDietaryCompliance:      len(payload.DietaryCompliance) > 0,
	})
	o.metrics.RecordSafetyScore(report.Score)

	generated := o.assembleRecipe(req, payload, report, cost, callLatency)

	// Persistence failure after a successful generation does not
	// discard the recipe: the caller still gets the content, with a
	// storage_degraded flag surfacing the inconsistency.
	storageDegraded := false
	if err := o.recipes.Create(ctx, generated); err != nil {
		storageDegraded = true
		o.logger.Error("Failed to persist generated recipe",
			zap.String("user_id", req.UserID.String()),
			zap.String("recipe_id", generated.ID.String()),
			zap.Error(err),
		)
	}

	o.logUsage(ctx, req, analysis, cost, payload.TokensUsed, callLatency.Milliseconds(), false)
	o.storeInCache(ctx, fingerprint, generated, req.Preferences.Members)

	o.metrics.RecordGeneration("success")
	monitoring.GenerationLogger(o.logger, req.UserID.String(), "success", cost, time.Since(start), false)

	result := recipe.Succeeded(generated, analysis.Summary)
	result.StorageDegraded = storageDegraded
	return result, nil
}

// lookupCache returns a safe cached recipe or nil. A fingerprint match
// alone is not sufficient: the cached recipe is re-validated against
// the current household, because family composition may have changed
// since the entry was cached. Validation covers the full avoidance set,
// so household-level allergies and plain dislikes reject a hit even
// when no member profile is attached to them.
func (o *Orchestrator) lookupCache(ctx context.Context, fingerprint string, req recipe.GenerationRequest, analysis family.ComplexityAnalysis, avoidanceSet []string) *recipe.GeneratedRecipe {
	if !o.cfg.Cache.Enabled || o.cache == nil {
		return nil
	}

	cached, err := o.cache.Get(ctx, fingerprint)
	if err != nil {
		o.logger.Warn("Recipe cache read failed", zap.Error(err))
		o.metrics.RecordCacheLookup("error")
		return nil
	}
	if cached == nil {
		o.metrics.RecordCacheLookup("miss")
		return nil
	}

	unsafe := false

	ingredientText := strings.ToLower(cached.IngredientText())
	for _, term := range avoidanceSet {
		if strings.Contains(ingredientText, term) {
			unsafe = true
			break
		}
	}

	report := o.scorer.Evaluate(cached.Ingredients, analysis, req.Preferences.Members, safety.ProviderSafetyFields{
		HasAllergenConsiderations: true,
		HasSafetyNotes:            true,
		HasDietaryCompliance:      true,
	})
	if !unsafe {
		for _, det := range report.Detections {
			if len(det.AffectsFamilyMembers) > 0 || detectionMatchesAvoidance(det.Category, avoidanceSet) {
				unsafe = true
				break
			}
		}
	}

	if unsafe {
		// Unsafe for the current household; drop the entry so it
		// cannot be served again.
		o.metrics.RecordCacheLookup("unsafe_discard")
		if err := o.cache.Delete(ctx, fingerprint); err != nil {
			o.logger.Warn("Failed to evict unsafe cache entry", zap.Error(err))
		}
		return nil
	}

	o.metrics.RecordCacheLookup("hit")

	// Serve a copy refreshed with the current household's evaluation.
	served := *cached
	served.ID = uuid.New()
	served.UserID = req.UserID
	served.DetectedAllergens = report.Detections
	served.SafetyWarnings = report.Warnings
	served.SafetyScore = report.Score
	served.GenerationCost = 0
	served.GenerationLatency = 0
	served.CacheHit = true
	served.CreatedAt = time.Now().UTC()
	return &served
}

func (o *Orchestrator) storeInCache(ctx context.Context, fingerprint string, r *recipe.GeneratedRecipe, members []family.MemberProfile) {
	if !o.cfg.Cache.Enabled || o.cache == nil {
		return
	}
	memberIDs := make([]uuid.UUID, 0, len(members))
	for _, m := range members {
		memberIDs = append(memberIDs, m.ID)
	}
	if err := o.cache.Put(ctx, fingerprint, r, memberIDs); err != nil {
		o.logger.Warn("Failed to cache generated recipe", zap.Error(err))
	}
}

func (o *Orchestrator) assembleRecipe(req recipe.GenerationRequest, payload *outbound.ProviderRecipe, report safety.Report, cost float64, latency time.Duration) *recipe.GeneratedRecipe {
	difficulty := recipe.DifficultyLevel(payload.Difficulty)
	switch difficulty {
	case recipe.DifficultyEasy, recipe.DifficultyMedium, recipe.DifficultyHard:
	default:
		difficulty = recipe.DifficultyMedium
	}

	return &recipe.GeneratedRecipe{
		ID:                uuid.New(),
		UserID:            req.UserID,
		Title:             payload.Title,
		Description:       payload.Description,
		Ingredients:       payload.Ingredients,
		Instructions:      payload.Instructions,
		PrepTimeMinutes:   payload.PrepTimeMinutes,
		CookTimeMinutes:   payload.CookTimeMinutes,
		TotalTimeMinutes:  payload.PrepTimeMinutes + payload.CookTimeMinutes,
		Servings:          payload.Servings,
		Difficulty:        difficulty,
		MealType:          req.MealType,
		Reasoning:         payload.Reasoning,
		MemberNotes:       payload.MemberNotes,
		DetectedAllergens: report.Detections,
		SafetyWarnings:    report.Warnings,
		SafetyScore:       report.Score,
		GenerationCost:    cost,
		GenerationLatency: latency,
		CacheHit:          false,
		CreatedAt:         time.Now().UTC(),
	}
}

// logUsage appends a ledger entry. Ledger write failure is logged and
// swallowed: the same availability-over-strictness stance as the
// fail-open admission gates.
func (o *Orchestrator) logUsage(ctx context.Context, req recipe.GenerationRequest, analysis family.ComplexityAnalysis, cost float64, tokens int, latencyMillis int64, cacheHit bool) {
	entry := outbound.UsageEntry{
		ID:              uuid.New(),
		UserID:          req.UserID,
		Cost:            cost,
		TokensUsed:      tokens,
		LatencyMillis:   latencyMillis,
		MealType:        string(req.MealType),
		ComplexityScore: analysis.ComplexityScore,
		CacheHit:        cacheHit,
		CreatedAt:       time.Now().UTC(),
	}
	if err := o.ledger.Append(ctx, entry); err != nil {
		o.logger.Warn("Failed to append usage ledger entry",
			zap.String("user_id", req.UserID.String()),
			zap.Error(err),
		)
	}
}

// detectionMatchesAvoidance reports whether a detected allergen
// category is covered by the household's avoidance set. The lexicon's
// own matching handles spelling variants, so "peanuts" in the avoidance
// set rejects a nuts detection.
func detectionMatchesAvoidance(category string, avoidanceSet []string) bool {
	for _, c := range safety.Lexicon() {
		if c.Name != category {
			continue
		}
		for _, term := range avoidanceSet {
			if c.MatchesAllergy(term) {
				return true
			}
		}
	}
	return false
}

// classifyProviderFailure maps a provider error to a failure code and a
// user-facing message. Raw provider text never reaches the user.
func classifyProviderFailure(err error) (recipe.FailureCode, string) {
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return recipe.FailureProviderTimeout,
			"Recipe generation took too long. Please try again."
	case errors.Is(err, outbound.ErrProviderQuota):
		return recipe.FailureProviderQuota,
			"The recipe service is very busy right now. Please try again in a few minutes."
	case errors.Is(err, outbound.ErrProviderBadResponse):
		return recipe.FailureProviderBadResponse,
			"We couldn't prepare a recipe this time. Please try again."
	case errors.Is(err, outbound.ErrProviderConfig):
		return recipe.FailureProviderUnavailable,
			"Recipe generation isn't available right now. Our team has been notified."
	default:
		return recipe.FailureProviderUnavailable,
			"We couldn't reach the recipe service. Check your connection and try again."
	}
}
