package crawler

import (
	"context"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

type ContextKey string

const InvocationIDKey ContextKey = "invocation_id"

// WithInvocationID tags ctx with a fresh invocation id unless it already has one.
func WithInvocationID(ctx context.Context) (context.Context, string) {
	if id := InvocationID(ctx); id != "" {
		return ctx, id
	}
	id := uuid.NewString()
	return context.WithValue(ctx, InvocationIDKey, id), id
}

func InvocationID(ctx context.Context) string {
	if id, ok := ctx.Value(InvocationIDKey).(string); ok {
		return id
	}
	return ""
}

// Logger returns baseLogger annotated with the invocation id carried by ctx.
func Logger(ctx context.Context, baseLogger *zap.Logger) *zap.Logger {
	if id := InvocationID(ctx); id != "" {
		return baseLogger.With(zap.String("invocation_id", id))
	}
	return baseLogger
}
