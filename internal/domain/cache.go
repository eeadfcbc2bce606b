package domain

import (
	"context"
	"encoding/json"
)

// ResponseCache stores raw upstream response bodies keyed by request key.
// Implementations must treat expired entries as absent and must serialize
// concurrent get/put pairs on the same key.
type ResponseCache interface {
	Get(ctx context.Context, key string) (json.RawMessage, bool)
	Put(ctx context.Context, key string, value json.RawMessage)
}

// RateGovernor spaces outbound calls to one upstream host. Throttle blocks the
// caller until at least the governor's minimum interval has elapsed since the
// previously admitted call.
type RateGovernor interface {
	Throttle(ctx context.Context) error
}
