package outbound

import "errors"

// Provider failure classes. Adapters wrap their transport-specific
// errors with one of these so the orchestrator can pick a user-facing
// message without ever exposing raw provider error text.
var (
	ErrProviderUnavailable = errors.New("generation provider unavailable")
	ErrProviderQuota       = errors.New("generation provider quota exhausted")
	ErrProviderBadResponse = errors.New("generation provider returned an unusable response")
	ErrProviderConfig      = errors.New("generation provider misconfigured")
)
