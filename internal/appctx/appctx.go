// Package appctx carries event-scoped values through context.Context.
package appctx

import (
	"context"
	"log/slog"
)

// ContextKey is a custom type for context keys to avoid collisions.
type ContextKey string

const (
	// KeyEventID is the key for storing the auth event ID in context.
	KeyEventID ContextKey = "event_id"

	// KeyLogger is the key for storing an event-scoped logger in context.
	KeyLogger ContextKey = "logger"
)

// WithEventID returns a new context carrying the auth event ID.
func WithEventID(ctx context.Context, eventID string) context.Context {
	return context.WithValue(ctx, KeyEventID, eventID)
}

// GetEventID extracts the auth event ID from context, or "" if absent.
func GetEventID(ctx context.Context) string {
	if id, ok := ctx.Value(KeyEventID).(string); ok {
		return id
	}

	return ""
}

// WithLogger returns a new context carrying an event-scoped logger.
func WithLogger(ctx context.Context, logger *slog.Logger) context.Context {
	return context.WithValue(ctx, KeyLogger, logger)
}

// GetLoggerOrDefault extracts the event-scoped logger from context, falling
// back to the given default.
func GetLoggerOrDefault(ctx context.Context, fallback *slog.Logger) *slog.Logger {
	if logger, ok := ctx.Value(KeyLogger).(*slog.Logger); ok && logger != nil {
		return logger
	}

	return fallback
}
