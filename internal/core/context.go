package core

import "context"

type contextKey string

const (
	ctxKeyIPAddress contextKey = "reload_ip"
	ctxKeyTrigger   contextKey = "reload_trigger"
)

// Reload triggers recorded in load logs.
const (
	TriggerStartup   = "startup"
	TriggerScheduler = "scheduler"
	TriggerAPI       = "api"
)

// ContextWithIPAddress adds the requesting IP address to context for load logging.
func ContextWithIPAddress(ctx context.Context, ip string) context.Context {
	return context.WithValue(ctx, ctxKeyIPAddress, ip)
}

// ContextWithTrigger records what started a reload.
func ContextWithTrigger(ctx context.Context, trigger string) context.Context {
	return context.WithValue(ctx, ctxKeyTrigger, trigger)
}

// GetIPAddressFromContext extracts IP address from context.
func GetIPAddressFromContext(ctx context.Context) string {
	if v, ok := ctx.Value(ctxKeyIPAddress).(string); ok {
		return v
	}
	return ""
}

// GetTriggerFromContext extracts the reload trigger from context.
func GetTriggerFromContext(ctx context.Context) string {
	if v, ok := ctx.Value(ctxKeyTrigger).(string); ok {
		return v
	}
	return ""
}
