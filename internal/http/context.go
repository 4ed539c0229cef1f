package http

import (
	"context"
	"log/slog"

	"github.com/example/weekly-planner/internal/application"
	"github.com/example/weekly-planner/internal/logging"
)

type contextKey string

const (
	principalContextKey  contextKey = "principal"
	scheduleIDContextKey contextKey = "schedule_id"
)

// ContextWithPrincipal returns a derived context containing the authenticated principal.
func ContextWithPrincipal(ctx context.Context, principal application.Principal) context.Context {
	return context.WithValue(ctx, principalContextKey, principal)
}

// PrincipalFromContext extracts the authenticated principal from context if available.
func PrincipalFromContext(ctx context.Context) (application.Principal, bool) {
	principal, ok := ctx.Value(principalContextKey).(application.Principal)
	return principal, ok
}

// ContextWithScheduleID injects the schedule identifier resolved from the request path.
func ContextWithScheduleID(ctx context.Context, scheduleID string) context.Context {
	return context.WithValue(ctx, scheduleIDContextKey, scheduleID)
}

// ScheduleIDFromContext extracts a schedule identifier previously associated with the context.
func ScheduleIDFromContext(ctx context.Context) (string, bool) {
	id, ok := ctx.Value(scheduleIDContextKey).(string)
	return id, ok
}

// ContextWithLogger attaches a request-scoped logger to the context.
func ContextWithLogger(ctx context.Context, logger *slog.Logger) context.Context {
	return logging.ContextWithLogger(ctx, logger)
}

// LoggerFromContext returns the request-scoped logger, or nil when absent.
func LoggerFromContext(ctx context.Context) *slog.Logger {
	return logging.FromContext(ctx)
}
