// Package logging configures log/slog and carries per-operation fields
// (request id, load id, country label) through context.
package logging

import (
	"context"
	"log/slog"
	"os"
	"strings"

	"github.com/go-chi/chi/v5/middleware"
)

type fieldKey int

const (
	loadIDKey fieldKey = iota
	labelKey
)

// Setup installs the default slog logger.
//
// Level values: "debug", "info", "warn", "error" (default: "info")
// Format values: "text", "json" (default: "text")
func Setup(level, format string) {
	opts := &slog.HandlerOptions{Level: parseLevel(level)}

	var handler slog.Handler
	switch strings.ToLower(format) {
	case "json":
		handler = slog.NewJSONHandler(os.Stdout, opts)
	default:
		handler = slog.NewTextHandler(os.Stdout, opts)
	}

	slog.SetDefault(slog.New(handler))
}

func parseLevel(level string) slog.Level {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// ContextWithLoadID tags ctx with the id of the load cycle it belongs to.
func ContextWithLoadID(ctx context.Context, loadID string) context.Context {
	return context.WithValue(ctx, loadIDKey, loadID)
}

// ContextWithLabel tags ctx with the country module being dispatched.
func ContextWithLabel(ctx context.Context, label string) context.Context {
	return context.WithValue(ctx, labelKey, label)
}

// FromContext returns the default logger with whatever of request_id,
// load_id and label ctx carries.
//
//	ctx = logging.ContextWithLabel(ctx, "Japan")
//	logging.FromContext(ctx).Info("country dispatched")
//	// ... request_id=... label=Japan msg="country dispatched"
func FromContext(ctx context.Context) *slog.Logger {
	logger := slog.Default()

	if reqID := middleware.GetReqID(ctx); reqID != "" {
		logger = logger.With("request_id", reqID)
	}
	if id, ok := ctx.Value(loadIDKey).(string); ok && id != "" {
		logger = logger.With("load_id", id)
	}
	if label, ok := ctx.Value(labelKey).(string); ok && label != "" {
		logger = logger.With("label", label)
	}

	return logger
}

// WithFields is FromContext plus ad-hoc fields.
func WithFields(ctx context.Context, args ...any) *slog.Logger {
	return FromContext(ctx).With(args...)
}
