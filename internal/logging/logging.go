package logging

import (
	"context"
	"log/slog"
)

type contextKey struct{}

// ContextWithLogger attaches a request-scoped logger to the context. The HTTP
// middleware uses this so handlers and services share one set of request
// attributes.
func ContextWithLogger(ctx context.Context, logger *slog.Logger) context.Context {
	if ctx == nil || logger == nil {
		return ctx
	}
	return context.WithValue(ctx, contextKey{}, logger)
}

// FromContext returns the logger attached to ctx, or nil when none was set.
func FromContext(ctx context.Context) *slog.Logger {
	if ctx == nil {
		return nil
	}
	logger, _ := ctx.Value(contextKey{}).(*slog.Logger)
	return logger
}
