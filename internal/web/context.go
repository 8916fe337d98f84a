package web

import (
	"context"
	"net/http"

	"github.com/JonMunkholm/covidboard/internal/core"
)

// WithRequestMetadata marks ctx as an API-triggered load and records the
// client IP for the load log.
func WithRequestMetadata(ctx context.Context, r *http.Request) context.Context {
	ctx = core.ContextWithIPAddress(ctx, r.RemoteAddr) // Already processed by TrustedRealIP
	return core.ContextWithTrigger(ctx, core.TriggerAPI)
}
