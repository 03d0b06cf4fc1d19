package recipe

// FailureCode distinguishes the pipeline's failure classes so the caller
// can decide between retrying, blocking, or showing a warning banner.
type FailureCode string

const (
	FailureCostLimit           FailureCode = "COST_LIMIT_REACHED"
	FailureRateLimit           FailureCode = "RATE_LIMIT_REACHED"
	FailureProviderUnavailable FailureCode = "PROVIDER_UNAVAILABLE"
	FailureProviderTimeout     FailureCode = "PROVIDER_TIMEOUT"
	FailureProviderBadResponse FailureCode = "PROVIDER_BAD_RESPONSE"
	FailureProviderQuota       FailureCode = "PROVIDER_QUOTA"
	FailureInvalidRequest      FailureCode = "INVALID_REQUEST"
)

// GenerationResult is the discriminated success/failure payload returned
// to the caller. Success carries the recipe plus the family impact
// summary; failure carries a code and a user-facing message, never raw
// provider error text.
type GenerationResult struct {
	Success         bool             `json:"success"`
	Recipe          *GeneratedRecipe `json:"recipe,omitempty"`
	FamilySummary   string           `json:"family_summary,omitempty"`
	FailureCode     FailureCode      `json:"failure_code,omitempty"`
	Message         string           `json:"message,omitempty"`
	CostProtected   bool             `json:"cost_protected,omitempty"`
	FallbackUsed    bool             `json:"fallback_used,omitempty"`
	StorageDegraded bool             `json:"storage_degraded,omitempty"`
}

// Succeeded builds a success result.
func Succeeded(r *GeneratedRecipe, familySummary string) *GenerationResult {
	return &GenerationResult{
		Success:       true,
		Recipe:        r,
		FamilySummary: familySummary,
	}
}

// Denied builds an admission-denial result. Admission denial is never a
// system fault; the user recovers by waiting or upgrading tier.
func Denied(code FailureCode, message string) *GenerationResult {
	return &GenerationResult{
		Success:       false,
		FailureCode:   code,
		Message:       message,
		CostProtected: true,
	}
}

// Failed builds a provider-failure result with a user-facing message.
func Failed(code FailureCode, message string) *GenerationResult {
	return &GenerationResult{
		Success:      false,
		FailureCode:  code,
		Message:      message,
		FallbackUsed: true,
	}
}
